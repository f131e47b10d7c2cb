package sim

import (
	"context"
	"testing"
	"time"

	"github.com/chamberdyne/pressure-altimeter/internal/sensor"
)

func TestParseLine(t *testing.T) {
	d, err := New(&Config{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	samples := make(chan sensor.Sample, 1)
	if err := d.Parse("1700000000000000000,1012.8300", "sim-1", samples); err != nil {
		t.Fatalf("Parse: %v", err)
	}

	s := <-samples
	if s.PressureHPa != 1012.83 {
		t.Errorf("PressureHPa = %v, want 1012.83", s.PressureHPa)
	}
	if got := s.Timestamp; !got.Equal(time.Unix(0, 1700000000000000000)) {
		t.Errorf("Timestamp = %v", got)
	}
}

func TestParseRejectsMalformedLines(t *testing.T) {
	d, err := New(&Config{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	samples := make(chan sensor.Sample, 1)
	for _, line := range []string{"no separator", "abc,1013.2", "1700000000000000000,abc", "1700000000000000000,-3"} {
		if err := d.Parse(line, "sim-1", samples); err == nil {
			t.Errorf("Parse(%q) = nil, want error", line)
		}
	}
}

// The full pipeline: generator pipe feeding a sensor.Device.
func TestGeneratorFeedsDevice(t *testing.T) {
	d, err := New(&Config{
		BasePressureHPa: 1000,
		NoiseStdDevHPa:  0.1,
		Interval:        Duration(5 * time.Millisecond),
		Seed:            42,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	dev := sensor.NewDevice("sim-1", d)
	samples := make(chan sensor.Sample, 128)

	ctx, cancel := context.WithCancel(context.Background())
	done, err := dev.BeginSampling(ctx, samples)
	if err != nil {
		t.Fatalf("BeginSampling: %v", err)
	}

	var got []sensor.Sample
	deadline := time.After(2 * time.Second)
	for len(got) < 5 {
		select {
		case s := <-samples:
			got = append(got, s)
		case <-deadline:
			t.Fatalf("timed out with %d samples", len(got))
		}
	}

	cancel()
	<-done

	for i, s := range got {
		if s.PressureHPa < 990 || s.PressureHPa > 1010 {
			t.Errorf("sample %d pressure %v far from base 1000", i, s.PressureHPa)
		}
		if i > 0 && s.Timestamp.Before(got[i-1].Timestamp) {
			t.Errorf("sample %d timestamp out of order", i)
		}
	}
}

func TestConfigValidation(t *testing.T) {
	if _, err := New(&Config{NoiseStdDevHPa: -1}); err == nil {
		t.Error("negative noise sigma accepted")
	}
	if _, err := New(&Config{Interval: Duration(time.Microsecond)}); err == nil {
		t.Error("sub-millisecond interval accepted")
	}

	d, err := New(&Config{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if d.config.BasePressureHPa != 1013.25 || time.Duration(d.config.Interval) != time.Second {
		t.Errorf("defaults not applied: %+v", d.config)
	}
}
