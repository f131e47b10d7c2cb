// Package nmea reads barometric pressure from devices that emit LK8EX1
// sentences over a serial port. The LK8EX1 sentence is the de facto wire
// format of hobbyist vario boards:
//
//	$LK8EX1,pressure,altitude,vario,temperature,battery*checksum
//
// where pressure is absolute station pressure in Pascals (999999 when the
// sensor has no valid reading) and the checksum is the usual NMEA XOR of the
// characters between '$' and '*'.
package nmea

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"go.bug.st/serial"

	"github.com/chamberdyne/pressure-altimeter/internal/sensor"
)

const (
	deviceName     = "nmea"
	sentencePrefix = "$LK8EX1,"

	// Sentinel pressure emitted by LK8EX1 devices without a valid reading
	noPressure = 999999
)

// Driver opens a serial port and parses LK8EX1 pressure sentences.
type Driver struct {
	config *Config
}

// New creates a Driver from the given serial configuration.
func New(config *Config) (*Driver, error) {
	if config == nil {
		return nil, fmt.Errorf("nmea: nil config")
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

// Open opens the configured serial port, 8N1.
func (d *Driver) Open(ctx context.Context) (io.ReadCloser, error) {
	mode := &serial.Mode{
		BaudRate: d.config.BaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(d.config.Port, mode)
	if err != nil {
		return nil, fmt.Errorf("opening serial port %s: %w", d.config.Port, err)
	}
	return port, nil
}

// Parse consumes one serial line. Non-LK8EX1 traffic on the bus (GPS
// sentences, boot banners) is skipped silently; malformed LK8EX1 sentences
// are parse errors.
func (d *Driver) Parse(line string, deviceID string, samples chan<- sensor.Sample) error {
	if !strings.HasPrefix(line, sentencePrefix) {
		return nil
	}

	body, err := verifyChecksum(line)
	if err != nil {
		return err
	}

	fields := strings.Split(body, ",")
	if len(fields) < 2 {
		return fmt.Errorf("sentence has %d fields, want at least 2", len(fields))
	}

	pressurePa, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return fmt.Errorf("parsing pressure field %q: %w", fields[1], err)
	}
	if pressurePa == noPressure {
		return nil // device has no reading yet
	}
	if pressurePa <= 0 {
		return fmt.Errorf("non-positive pressure %g Pa", pressurePa)
	}

	samples <- sensor.Sample{
		Timestamp:   time.Now().UTC(),
		PressureHPa: pressurePa / 100,
		Device:      deviceName,
		DeviceID:    deviceID,
	}
	return nil
}

// verifyChecksum validates the trailing *XX checksum and returns the sentence
// body between '$' and '*'.
func verifyChecksum(line string) (string, error) {
	star := strings.LastIndexByte(line, '*')
	if star < 0 || star+3 > len(line) {
		return "", fmt.Errorf("missing checksum in sentence %q", line)
	}

	body := line[1:star]
	want, err := strconv.ParseUint(line[star+1:star+3], 16, 8)
	if err != nil {
		return "", fmt.Errorf("malformed checksum in sentence %q: %w", line, err)
	}

	var sum byte
	for i := 0; i < len(body); i++ {
		sum ^= body[i]
	}
	if sum != byte(want) {
		return "", fmt.Errorf("checksum mismatch: computed %02X, sentence says %02X", sum, want)
	}

	return body, nil
}
