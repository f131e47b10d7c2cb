package app

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/chamberdyne/pressure-altimeter/internal/sensor/nmea"
	"github.com/chamberdyne/pressure-altimeter/internal/sensor/sim"
)

const (
	DeviceNMEA DeviceType = "nmea"
	DeviceSim  DeviceType = "sim"
)

type DeviceType string

// LogLevel wraps slog.Level for yaml ("debug", "info", "warn", "error").
type LogLevel slog.Level

func (l *LogLevel) UnmarshalYAML(value *yaml.Node) error {
	var level slog.Level
	if err := level.UnmarshalText([]byte(value.Value)); err != nil {
		return fmt.Errorf("app.LogLevel: failed to parse: %s", err)
	}

	*l = LogLevel(level)
	return nil
}

func (l LogLevel) MarshalYAML() (interface{}, error) {
	return slog.Level(l).String(), nil
}

// Config represents the main application configuration
type Config struct {
	Settings  Settings        `yaml:"settings"`
	Devices   []DeviceConfig  `yaml:"devices"`
	Altimeter AltimeterConfig `yaml:"altimeter"`
	Storage   StorageConfig   `yaml:"storage"`
}

// Settings represents global application settings
type Settings struct {
	LogLevel LogLevel `yaml:"logLevel"`
}

// DeviceConfig represents a single pressure source configuration. Exactly
// one of the per-type config blocks must be set, matching Type.
type DeviceConfig struct {
	Name    string       `yaml:"name"`
	Type    DeviceType   `yaml:"type"`
	Enabled bool         `yaml:"enabled"`
	NMEA    *nmea.Config `yaml:"nmea,omitempty"`
	Sim     *sim.Config  `yaml:"sim,omitempty"`
}

// AltimeterConfig tunes the estimator and the reference setting
type AltimeterConfig struct {
	ProcessVariance     float64 `yaml:"processVariance"`
	MeasurementVariance float64 `yaml:"measurementVariance"`
	SettingInHg         float64 `yaml:"settingInHg"`
}

// StorageConfig represents storage settings
type StorageConfig struct {
	DataDirectory string `yaml:"dataDirectory"`
	MaxBatchSize  int    `yaml:"maxBatchSize"`
}

// LoadConfig reads and validates a yaml configuration file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading configuration: %w", err)
	}

	var config Config
	if err = yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	if err = config.validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) validate() error {
	var enabled int
	seen := make(map[string]struct{}, len(c.Devices))

	for i := range c.Devices {
		d := &c.Devices[i]
		if d.Name == "" {
			return fmt.Errorf("device %d: name is required", i)
		}
		if _, ok := seen[d.Name]; ok {
			return fmt.Errorf("device %q: duplicate name", d.Name)
		}
		seen[d.Name] = struct{}{}

		if !d.Enabled {
			continue
		}
		enabled++

		switch d.Type {
		case DeviceNMEA:
			if d.NMEA == nil {
				return fmt.Errorf("device %q: missing nmea configuration", d.Name)
			}
		case DeviceSim:
			if d.Sim == nil {
				return fmt.Errorf("device %q: missing sim configuration", d.Name)
			}
		default:
			return fmt.Errorf("device %q: unknown type '%s'", d.Name, d.Type)
		}
	}
	if enabled == 0 {
		return fmt.Errorf("no enabled devices in configuration")
	}

	if c.Altimeter.ProcessVariance < 0 {
		return fmt.Errorf("altimeter: negative process variance %g", c.Altimeter.ProcessVariance)
	}
	if c.Altimeter.MeasurementVariance < 0 {
		return fmt.Errorf("altimeter: negative measurement variance %g", c.Altimeter.MeasurementVariance)
	}
	if s := c.Altimeter.SettingInHg; s != 0 && (s < 28.10 || s > 31.00) {
		return fmt.Errorf("altimeter: setting %g inHg outside [28.10, 31.00]", s)
	}

	if c.Storage.MaxBatchSize < 0 {
		return fmt.Errorf("storage: negative max batch size %d", c.Storage.MaxBatchSize)
	}
	return nil
}
