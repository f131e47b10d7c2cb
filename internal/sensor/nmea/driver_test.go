package nmea

import (
	"fmt"
	"math"
	"testing"

	"github.com/chamberdyne/pressure-altimeter/internal/sensor"
)

// sentence builds a checksummed LK8EX1 sentence from its body fields.
func sentence(body string) string {
	var sum byte
	for i := 0; i < len(body); i++ {
		sum ^= body[i]
	}
	return fmt.Sprintf("$%s*%02X", body, sum)
}

func newTestDriver(t *testing.T) *Driver {
	t.Helper()
	d, err := New(&Config{Port: "/dev/ttyUSB0"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return d
}

func TestParseValidSentence(t *testing.T) {
	d := newTestDriver(t)
	samples := make(chan sensor.Sample, 1)

	line := sentence("LK8EX1,101325,99999,-12,23,999")
	if err := d.Parse(line, "vario-1", samples); err != nil {
		t.Fatalf("Parse: %v", err)
	}

	select {
	case s := <-samples:
		if math.Abs(s.PressureHPa-1013.25) > 1e-9 {
			t.Errorf("PressureHPa = %v, want 1013.25", s.PressureHPa)
		}
		if s.Device != "nmea" || s.DeviceID != "vario-1" {
			t.Errorf("sample identity = %q/%q", s.Device, s.DeviceID)
		}
	default:
		t.Fatal("no sample emitted")
	}
}

func TestParseSkipsForeignSentences(t *testing.T) {
	d := newTestDriver(t)
	samples := make(chan sensor.Sample, 1)

	for _, line := range []string{
		"$GPGGA,123519,4807.038,N,01131.000,E,1,08,0.9,545.4,M,46.9,M,,*47",
		"boot: baro ready",
	} {
		if err := d.Parse(line, "vario-1", samples); err != nil {
			t.Errorf("Parse(%q): %v, want nil", line, err)
		}
	}
	if len(samples) != 0 {
		t.Errorf("%d samples emitted from foreign traffic", len(samples))
	}
}

func TestParseSkipsNoPressureSentinel(t *testing.T) {
	d := newTestDriver(t)
	samples := make(chan sensor.Sample, 1)

	if err := d.Parse(sentence("LK8EX1,999999,99999,9999,99,999"), "vario-1", samples); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(samples) != 0 {
		t.Error("sample emitted for the no-reading sentinel")
	}
}

func TestParseRejectsMalformedSentences(t *testing.T) {
	d := newTestDriver(t)
	samples := make(chan sensor.Sample, 1)

	cases := []string{
		"$LK8EX1,101325,99999,-12,23,999",      // missing checksum
		"$LK8EX1,101325,99999,-12,23,999*00",   // wrong checksum
		sentence("LK8EX1,abc,99999,-12,23,999"), // unparsable pressure
		sentence("LK8EX1,-5,99999,-12,23,999"),  // non-positive pressure
		sentence("LK8EX1"),                      // too few fields
	}
	for _, line := range cases {
		if err := d.Parse(line, "vario-1", samples); err == nil {
			t.Errorf("Parse(%q) = nil, want error", line)
		}
	}
}

func TestConfigValidation(t *testing.T) {
	if _, err := New(&Config{}); err == nil {
		t.Error("New without port succeeded, want error")
	}
	if _, err := New(&Config{Port: "/dev/ttyUSB0", BaudRate: 300}); err == nil {
		t.Error("New with out-of-range baud rate succeeded, want error")
	}

	d, err := New(&Config{Port: "/dev/ttyUSB0"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if d.config.BaudRate != 115200 {
		t.Errorf("default baud rate = %d, want 115200", d.config.BaudRate)
	}
}
