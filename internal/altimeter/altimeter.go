// Package altimeter owns one pressure estimation session: a Kalman filter fed
// by timestamped sensor samples, and the reference pressure setting used to
// turn the smoothed pressure into an indicated altitude.
package altimeter

import (
	"fmt"
	"time"

	"github.com/chamberdyne/pressure-altimeter/internal/atmosphere"
	"github.com/chamberdyne/pressure-altimeter/internal/filter"
	"github.com/chamberdyne/pressure-altimeter/internal/sensor"
)

// Noise model defaults. These are bigger than the noise actually recovered
// from sensor data, but that noise looks more Laplacian than Gaussian.
const (
	DefaultProcessVariance     = 0.0075 // variance of pressure acceleration noise input
	DefaultMeasurementVariance = 0.05   // variance of pressure measurement noise
)

// StandardDayHPa is the sea level pressure on a standard day, used to prime
// the filter before the first real reading arrives.
const StandardDayHPa = 1013.0912

// Config tunes an Altimeter. Zero values take the defaults.
type Config struct {
	ProcessVariance     float64
	MeasurementVariance float64
	Setting             atmosphere.Setting
}

// Reading is one processed observation.
type Reading struct {
	Timestamp     time.Time
	RawHPa        float64 // measured pressure as reported by the sensor
	FilteredHPa   float64 // smoothed pressure estimate
	RateHPaPerSec float64 // smoothed pressure rate of change
	AltitudeFt    float64 // indicated altitude against the current setting
	SettingInHg   float64 // setting in effect when the reading was processed
}

// Altimeter combines the filter with the reference setting. It is owned by a
// single goroutine; the caller serializes Observe, Reset and setting
// adjustments (see the concurrency note on filter.Filter).
type Altimeter struct {
	filter              *filter.Filter
	setting             atmosphere.Setting
	measurementVariance float64

	lastSample time.Time
	primed     bool
}

// New creates an Altimeter. The filter starts unprimed; the first Observe
// resets it onto the sample, so hosts need no explicit warm-up call.
func New(cfg Config) (*Altimeter, error) {
	if cfg.ProcessVariance == 0 {
		cfg.ProcessVariance = DefaultProcessVariance
	}
	if cfg.MeasurementVariance == 0 {
		cfg.MeasurementVariance = DefaultMeasurementVariance
	}
	if cfg.MeasurementVariance < 0 {
		return nil, fmt.Errorf("altimeter: negative measurement variance %g", cfg.MeasurementVariance)
	}
	if cfg.Setting == (atmosphere.Setting{}) {
		cfg.Setting = atmosphere.NewSetting(atmosphere.StandardInHg)
	}

	f, err := filter.New(cfg.ProcessVariance)
	if err != nil {
		return nil, fmt.Errorf("altimeter: %w", err)
	}

	return &Altimeter{
		filter:              f,
		setting:             cfg.Setting,
		measurementVariance: cfg.MeasurementVariance,
	}, nil
}

// Reset begins a new tracking session at the given pressure. Filter state
// deliberately does not survive a suspension of the sample stream; a fresh
// reset is the recovery policy.
func (a *Altimeter) Reset(pressureHPa float64, t time.Time) {
	a.filter.Reset(pressureHPa)
	a.lastSample = t
	a.primed = true
}

// Observe feeds one sample through the filter and derives the indicated
// altitude. The elapsed time comes from the sample timestamps, so the
// altimeter itself is clock-agnostic. A sample older than the previous one
// is a stream discontinuity (device restart, replay seam) and restarts the
// session rather than feeding the filter a negative dt.
func (a *Altimeter) Observe(s sensor.Sample) (Reading, error) {
	if !a.primed || s.Timestamp.Before(a.lastSample) {
		a.Reset(s.PressureHPa, s.Timestamp)
	} else {
		dt := s.Timestamp.Sub(a.lastSample).Seconds()
		if err := a.filter.Update(s.PressureHPa, a.measurementVariance, dt); err != nil {
			return Reading{}, fmt.Errorf("updating filter: %w", err)
		}
		a.lastSample = s.Timestamp
	}

	altFt, err := atmosphere.AltitudeFeet(a.setting.Pascals(), atmosphere.HPaToPascals(a.filter.Position()))
	if err != nil {
		return Reading{}, fmt.Errorf("deriving altitude: %w", err)
	}

	return Reading{
		Timestamp:     s.Timestamp,
		RawHPa:        s.PressureHPa,
		FilteredHPa:   a.filter.Position(),
		RateHPaPerSec: a.filter.Velocity(),
		AltitudeFt:    altFt,
		SettingInHg:   a.setting.InHg(),
	}, nil
}

// IncrementSetting raises the reference setting one hundredth of an inHg.
func (a *Altimeter) IncrementSetting() {
	a.setting.Increment()
}

// DecrementSetting lowers the reference setting one hundredth of an inHg.
func (a *Altimeter) DecrementSetting() {
	a.setting.Decrement()
}

// SettingInHg returns the current reference setting.
func (a *Altimeter) SettingInHg() float64 {
	return a.setting.InHg()
}
