package altimeter

import (
	"math"
	"testing"
	"time"

	"github.com/chamberdyne/pressure-altimeter/internal/atmosphere"
	"github.com/chamberdyne/pressure-altimeter/internal/sensor"
)

func sample(t time.Time, hPa float64) sensor.Sample {
	return sensor.Sample{Timestamp: t, PressureHPa: hPa, Device: "sim", DeviceID: "test"}
}

func TestFirstObserveResetsOntoSample(t *testing.T) {
	a, err := New(Config{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	now := time.Now()
	r, err := a.Observe(sample(now, 995.5))
	if err != nil {
		t.Fatalf("Observe: %v", err)
	}

	if r.FilteredHPa != 995.5 {
		t.Errorf("FilteredHPa = %v, want 995.5 (fresh reset)", r.FilteredHPa)
	}
	if r.RateHPaPerSec != 0 {
		t.Errorf("RateHPaPerSec = %v, want 0 after reset", r.RateHPaPerSec)
	}
	if r.SettingInHg != atmosphere.StandardInHg {
		t.Errorf("SettingInHg = %v, want standard day default", r.SettingInHg)
	}
}

func TestObserveConvergesOnConstantStream(t *testing.T) {
	a, err := New(Config{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	start := time.Now()
	a.Reset(1000, start)

	var last Reading
	for i := 1; i <= 200; i++ {
		last, err = a.Observe(sample(start.Add(time.Duration(i)*time.Second), 1013.25))
		if err != nil {
			t.Fatalf("Observe %d: %v", i, err)
		}
	}

	if diff := math.Abs(last.FilteredHPa - 1013.25); diff > 0.01 {
		t.Errorf("FilteredHPa = %v, want within 0.01 of 1013.25", last.FilteredHPa)
	}
}

func TestObserveOutOfOrderTimestampResets(t *testing.T) {
	a, err := New(Config{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	start := time.Now()
	if _, err = a.Observe(sample(start, 1000)); err != nil {
		t.Fatalf("Observe: %v", err)
	}
	if _, err = a.Observe(sample(start.Add(time.Second), 1000.2)); err != nil {
		t.Fatalf("Observe: %v", err)
	}

	// A sample from before the stream's current position restarts the
	// session on that sample.
	r, err := a.Observe(sample(start.Add(-time.Hour), 980))
	if err != nil {
		t.Fatalf("Observe: %v", err)
	}
	if r.FilteredHPa != 980 || r.RateHPaPerSec != 0 {
		t.Errorf("reading after discontinuity = %+v, want fresh reset at 980", r)
	}
}

func TestObserveEqualTimestampRuns(t *testing.T) {
	a, err := New(Config{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	now := time.Now()
	if _, err = a.Observe(sample(now, 1000)); err != nil {
		t.Fatalf("Observe: %v", err)
	}

	// dt of exactly zero is in contract: identity predict, normal correct.
	r, err := a.Observe(sample(now, 1001))
	if err != nil {
		t.Fatalf("Observe with dt=0: %v", err)
	}
	if r.FilteredHPa <= 1000 || r.FilteredHPa >= 1001 {
		t.Errorf("FilteredHPa = %v, want between the prior and the measurement", r.FilteredHPa)
	}
}

func TestAltitudeRespondsToSetting(t *testing.T) {
	a, err := New(Config{Setting: atmosphere.NewSetting(29.92)})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	now := time.Now()
	base, err := a.Observe(sample(now, StandardDayHPa))
	if err != nil {
		t.Fatalf("Observe: %v", err)
	}
	if math.Abs(base.AltitudeFt) > 0.5 {
		t.Errorf("AltitudeFt at standard day = %v, want ~0", base.AltitudeFt)
	}

	// Raising the setting raises the indicated altitude.
	for i := 0; i < 10; i++ {
		a.IncrementSetting()
	}
	higher, err := a.Observe(sample(now.Add(time.Second), StandardDayHPa))
	if err != nil {
		t.Fatalf("Observe: %v", err)
	}
	if higher.AltitudeFt <= base.AltitudeFt {
		t.Errorf("AltitudeFt = %v after raising setting, want > %v", higher.AltitudeFt, base.AltitudeFt)
	}
	if higher.SettingInHg != 30.02 {
		t.Errorf("SettingInHg = %v, want 30.02", higher.SettingInHg)
	}
}

func TestNewRejectsBadConfig(t *testing.T) {
	if _, err := New(Config{ProcessVariance: -1}); err == nil {
		t.Error("negative process variance accepted")
	}
	if _, err := New(Config{MeasurementVariance: -1}); err == nil {
		t.Error("negative measurement variance accepted")
	}
}
