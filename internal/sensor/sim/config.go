package sim

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultBasePressureHPa = 1013.25
	defaultInterval        = time.Second
)

// Duration wraps time.Duration so configs can say "250ms" or "2s".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	duration, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("sim.Duration: failed to parse: %s", err)
	}

	*d = Duration(duration)
	return nil
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Config describes the synthetic pressure stream.
type Config struct {
	// BasePressureHPa is the pressure the stream varies around; defaults to
	// the ISA standard atmosphere, 1013.25 hPa
	BasePressureHPa float64 `yaml:"basePressureHPa" json:"basePressureHPa"`

	// NoiseStdDevHPa is the sigma of the Gaussian noise added per sample
	NoiseStdDevHPa float64 `yaml:"noiseStdDevHPa" json:"noiseStdDevHPa"`

	// TrendHPaPerMin applies a linear pressure drift, e.g. a simulated climb
	TrendHPaPerMin float64 `yaml:"trendHPaPerMin" json:"trendHPaPerMin"`

	// Interval between samples; defaults to 1s
	Interval Duration `yaml:"interval" json:"interval"`

	// Seed for the noise source; a fixed seed gives a reproducible stream
	Seed int64 `yaml:"seed" json:"seed"`
}

// ApplyDefaultsAndValidate fills unset fields and checks the configuration.
func (c *Config) ApplyDefaultsAndValidate() error {
	if c.BasePressureHPa == 0 {
		c.BasePressureHPa = defaultBasePressureHPa
	}
	if c.Interval == 0 {
		c.Interval = Duration(defaultInterval)
	}

	if c.BasePressureHPa < 0 {
		return fmt.Errorf("sim: negative base pressure %g", c.BasePressureHPa)
	}
	if c.NoiseStdDevHPa < 0 {
		return fmt.Errorf("sim: negative noise sigma %g", c.NoiseStdDevHPa)
	}
	if time.Duration(c.Interval) < time.Millisecond {
		return fmt.Errorf("sim: interval %s below 1ms", time.Duration(c.Interval))
	}
	return nil
}
