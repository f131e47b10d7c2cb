// Package sim generates a synthetic noisy pressure stream with the same
// line-oriented shape as a real device, so the full acquisition path can run
// without hardware. Each line is "unix_nanos,pressure_hpa".
package sim

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/chamberdyne/pressure-altimeter/internal/sensor"
)

const deviceName = "sim"

// Driver emits synthetic pressure lines through a pipe.
type Driver struct {
	config *Config
}

// New creates a Driver from the given generator configuration.
func New(config *Config) (*Driver, error) {
	if config == nil {
		return nil, fmt.Errorf("sim: nil config")
	}
	if err := config.ApplyDefaultsAndValidate(); err != nil {
		return nil, err
	}
	return &Driver{config: config}, nil
}

// Device returns the driver type name.
func (d *Driver) Device() string {
	return deviceName
}

// Open starts the generator goroutine and returns the read side of its pipe.
// The generator stops when the context is cancelled or the reader is closed.
func (d *Driver) Open(ctx context.Context) (io.ReadCloser, error) {
	pr, pw := io.Pipe()
	go d.generate(ctx, pw)
	return pr, nil
}

func (d *Driver) generate(ctx context.Context, pw *io.PipeWriter) {
	rng := rand.New(rand.NewSource(d.config.Seed))

	interval := time.Duration(d.config.Interval)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	start := time.Now()
	for {
		select {
		case <-ctx.Done():
			_ = pw.Close()
			return

		case now := <-ticker.C:
			elapsedMin := now.Sub(start).Minutes()
			pressure := d.config.BasePressureHPa +
				d.config.TrendHPaPerMin*elapsedMin +
				rng.NormFloat64()*d.config.NoiseStdDevHPa

			line := fmt.Sprintf("%d,%.4f\n", now.UnixNano(), pressure)
			if _, err := io.WriteString(pw, line); err != nil {
				// Reader is gone, nothing left to feed.
				return
			}
		}
	}
}

// Parse consumes one "unix_nanos,pressure_hpa" line.
func (d *Driver) Parse(line string, deviceID string, samples chan<- sensor.Sample) error {
	nanosStr, pressureStr, found := strings.Cut(line, ",")
	if !found {
		return fmt.Errorf("line %q has no separator", line)
	}

	nanos, err := strconv.ParseInt(nanosStr, 10, 64)
	if err != nil {
		return fmt.Errorf("parsing timestamp %q: %w", nanosStr, err)
	}

	pressure, err := strconv.ParseFloat(pressureStr, 64)
	if err != nil {
		return fmt.Errorf("parsing pressure %q: %w", pressureStr, err)
	}
	if pressure <= 0 {
		return fmt.Errorf("non-positive pressure %g hPa", pressure)
	}

	samples <- sensor.Sample{
		Timestamp:   time.Unix(0, nanos).UTC(),
		PressureHPa: pressure,
		Device:      deviceName,
		DeviceID:    deviceID,
	}
	return nil
}
