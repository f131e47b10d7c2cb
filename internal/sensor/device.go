// Package sensor defines the barometric pressure sample model and a device
// wrapper that turns a line-oriented byte stream (serial port, simulator
// pipe) into parsed samples.
package sensor

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
)

const (
	// ParseErrorsThreshold defines the number of consecutive parse errors allowed
	ParseErrorsThreshold = 5
)

var (
	// ErrTooManyParseErrors is returned when the number of consecutive parse errors exceeds the threshold
	ErrTooManyParseErrors = errors.New("too many consecutive parse errors")

	// ErrBrokenStream is returned when reading from the device stream fails
	ErrBrokenStream = errors.New("broken stream")
)

// Handler interface defines the methods required for handling a device
type Handler interface {
	// Open establishes the underlying byte stream. Implementations own any
	// transport-specific setup (serial mode, generator goroutine).
	Open(ctx context.Context) (io.ReadCloser, error)

	// Parse consumes one trimmed, non-empty line and sends zero or more
	// samples to the channel. Lines that are valid but carry no pressure
	// reading are skipped without error.
	Parse(line string, deviceID string, samples chan<- Sample) error

	// Device returns the driver type name
	Device() string
}

// WithLogger sets the logger for the device
func WithLogger(logger *slog.Logger) func(d *Device) {
	return func(d *Device) {
		d.logger = logger.With(
			slog.String("device", d.handler.Device()),
			slog.String("deviceID", d.deviceID),
		)
	}
}

// WithParseErrorsThreshold sets the threshold for consecutive parse errors
func WithParseErrorsThreshold(threshold uint8) func(d *Device) {
	return func(d *Device) {
		d.parseErrorsThreshold = threshold
	}
}

// Device represents a pressure source that can be started (samples
// collection) and stopped.
type Device struct {
	deviceID string
	handler  Handler

	isSampling atomic.Bool
	cancel     context.CancelFunc
	wg         sync.WaitGroup

	parseErrorsThreshold uint8
	logger               *slog.Logger
}

// NewDevice creates a new Device instance with a discard logger
func NewDevice(deviceID string, h Handler, options ...func(d *Device)) *Device {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil)) // nil logger

	d := Device{
		deviceID:             deviceID,
		handler:              h,
		logger:               logger,
		parseErrorsThreshold: ParseErrorsThreshold,
	}

	for _, option := range options {
		option(&d)
	}

	return &d
}

// Device returns the driver type name of the underlying handler.
func (d *Device) Device() string {
	return d.handler.Device()
}

// DeviceID returns the configured device identifier.
func (d *Device) DeviceID() string {
	return d.deviceID
}

// BeginSampling opens the device stream and collects samples, sending them to
// the samples channel. The returned channel is closed when collection stops
// and carries the terminal error, if any.
func (d *Device) BeginSampling(ctx context.Context, samples chan<- Sample) (<-chan error, error) {
	if d.isSampling.Load() {
		return nil, fmt.Errorf("device is already running")
	}

	d.isSampling.Store(true)

	ctx, d.cancel = context.WithCancel(ctx)

	stream, err := d.handler.Open(ctx)
	if err != nil {
		d.cancel()
		d.isSampling.Store(false) // Reset running state on error
		return nil, fmt.Errorf("opening device stream: %w", err)
	}

	samplingStopped := make(chan error)

	d.wg.Add(1)
	go func() {
		defer close(samplingStopped)

		d.logger.Info("starting samples collection...")

		// Closing the stream is the only way to unblock a pending Read on
		// a serial port, so cancellation closes it out from under the
		// scanner.
		closed := make(chan struct{})
		go func() {
			select {
			case <-ctx.Done():
			case <-closed:
			}
			_ = stream.Close()
		}()

		err := d.scan(ctx, stream, samples)
		close(closed)

		d.logger.Info("samples collection stopped")

		d.isSampling.Store(false)
		d.cancel()
		d.wg.Done()

		if err != nil {
			d.logger.Error(err.Error())
			samplingStopped <- err
		}
	}()

	return samplingStopped, nil
}

// Stop cancels collection and waits for it to finish.
func (d *Device) Stop() {
	if !d.isSampling.Load() {
		return // already stopped
	}

	d.cancel()
	d.wg.Wait()
	d.isSampling.Store(false)
}

// IsSampling returns true if the device is running
func (d *Device) IsSampling() bool {
	return d.isSampling.Load()
}

// scan reads lines from the stream, parses and sends samples to the samples
// channel until the stream ends or parsing fails repeatedly.
func (d *Device) scan(ctx context.Context, stream io.Reader, samples chan<- Sample) error {
	var parseErrors uint8

	scanner := bufio.NewScanner(stream)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" {
			continue
		}

		if err := d.handler.Parse(line, d.deviceID, samples); err != nil {
			parseErrors++
			d.logger.Warn(fmt.Sprintf("error parsing samples: %s", err.Error()), slog.String("line", line))

			if parseErrors >= d.parseErrorsThreshold {
				return ErrTooManyParseErrors
			}

			continue
		}

		parseErrors = 0 // reset counter
	}
	if err := scanner.Err(); err != nil && ctx.Err() == nil &&
		!errors.Is(err, io.EOF) && !errors.Is(err, fs.ErrClosed) {
		return fmt.Errorf("%w: error reading stream: %w", ErrBrokenStream, err)
	}

	return nil
}
