package storage

import (
	"database/sql"
	"time"
)

// SessionData represents one recording session of a single device.
type SessionData struct {
	ID         int64
	StartTime  time.Time
	DeviceType string
	DeviceID   string
	Config     sql.NullString
}

// ReadingData is one processed pressure observation as stored.
type ReadingData struct {
	ID          int64
	SessionID   int64
	Timestamp   time.Time
	PressureHPa float64
	FilteredHPa float64
	RateHPaSec  float64
	AltitudeFt  float64
	SettingInHg float64
}
