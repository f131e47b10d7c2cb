package nmea

import (
	"errors"
	"fmt"
)

const (
	defaultBaudRate = 115200

	minBaudRate = 1200
	maxBaudRate = 921600
)

// Config holds the serial transport settings for an NMEA barometer.
type Config struct {
	// Port is the serial device path, e.g. /dev/ttyUSB0
	Port string `yaml:"port" json:"port"`

	// BaudRate is the serial line speed; defaults to 115200
	BaudRate int `yaml:"baudRate" json:"baudRate"`
}

// ApplyDefaultsAndValidate fills unset fields and checks the configuration.
func (c *Config) ApplyDefaultsAndValidate() error {
	if c.BaudRate == 0 {
		c.BaudRate = defaultBaudRate
	}

	if c.Port == "" {
		return errors.New("nmea: serial port is required")
	}
	if c.BaudRate < minBaudRate || c.BaudRate > maxBaudRate {
		return fmt.Errorf("nmea: baud rate %d out of range [%d, %d]", c.BaudRate, minBaudRate, maxBaudRate)
	}
	return nil
}
