package atmosphere

// StandardInHg is the standard day altimeter setting, 29.92 inHg.
const StandardInHg = 29.92

// Altimeter settings outside this range are treated as bogus (corrupt
// restored state, unset config) and fall back to the standard day.
const (
	minSettingHundredths = 2810
	maxSettingHundredths = 3100
)

// Setting is the host-adjustable altimeter reference pressure. Aviation
// quirk: the setting is dialed in inches of mercury while the sensor reports
// millibars. Arithmetic is done in integer hundredths of an inHg since
// multiples of 0.01 have no finite binary representation, and the Pascals
// value is converted once per change rather than per altitude computation.
type Setting struct {
	hundredths int64
	pascals    float64
}

// NewSetting creates a Setting from inches of mercury. Values outside the
// sane physical range [28.10, 31.00] fall back to the standard day.
func NewSetting(inHg float64) Setting {
	hundredths := int64(inHg*100 + 0.5)
	if hundredths < minSettingHundredths || hundredths > maxSettingHundredths {
		hundredths = int64(StandardInHg * 100)
	}

	s := Setting{hundredths: hundredths}
	s.pascals = InHgToPascals(s.InHg())
	return s
}

// Increment raises the setting by 0.01 inHg, clamped to the upper bound.
func (s *Setting) Increment() {
	if s.hundredths < maxSettingHundredths {
		s.hundredths++
		s.pascals = InHgToPascals(s.InHg())
	}
}

// Decrement lowers the setting by 0.01 inHg, clamped to the lower bound.
func (s *Setting) Decrement() {
	if s.hundredths > minSettingHundredths {
		s.hundredths--
		s.pascals = InHgToPascals(s.InHg())
	}
}

// InHg returns the setting in inches of mercury.
func (s Setting) InHg() float64 {
	return float64(s.hundredths) / 100
}

// Pascals returns the setting converted to Pascals.
func (s Setting) Pascals() float64 {
	return s.pascals
}
