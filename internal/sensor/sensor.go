package sensor

import "time"

// Sample is a single barometric pressure reading from a device.
type Sample struct {
	Timestamp   time.Time // When the reading was taken
	PressureHPa float64   // Station pressure in hectopascals (millibars)

	Device   string // Driver type (e.g., "nmea", "sim")
	DeviceID string // Human-readable device identifier from configuration
}
