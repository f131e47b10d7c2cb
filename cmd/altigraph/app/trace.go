package app

import (
	"math"
	"time"

	"github.com/chamberdyne/pressure-altimeter/internal/storage"
)

// TraceData accumulates one session's readings into chartable series plus
// their bounds.
type TraceData struct {
	Times       []time.Time
	RawHPa      []float64
	FilteredHPa []float64
	AltitudeFt  []float64

	PressureMin float64
	PressureMax float64
	AltitudeMin float64
	AltitudeMax float64
}

func NewTraceData() *TraceData {
	return &TraceData{
		PressureMin: math.Inf(1),
		PressureMax: math.Inf(-1),
		AltitudeMin: math.Inf(1),
		AltitudeMax: math.Inf(-1),
	}
}

// Update appends one stored reading to the series.
func (d *TraceData) Update(r *storage.ReadingData) {
	d.Times = append(d.Times, r.Timestamp)
	d.RawHPa = append(d.RawHPa, r.PressureHPa)
	d.FilteredHPa = append(d.FilteredHPa, r.FilteredHPa)
	d.AltitudeFt = append(d.AltitudeFt, r.AltitudeFt)

	d.PressureMin = min(d.PressureMin, r.PressureHPa, r.FilteredHPa)
	d.PressureMax = max(d.PressureMax, r.PressureHPa, r.FilteredHPa)
	d.AltitudeMin = min(d.AltitudeMin, r.AltitudeFt)
	d.AltitudeMax = max(d.AltitudeMax, r.AltitudeFt)
}

// Len returns the number of accumulated readings.
func (d *TraceData) Len() int {
	return len(d.Times)
}

// TimeStart returns the timestamp of the first reading.
func (d *TraceData) TimeStart() time.Time {
	if len(d.Times) == 0 {
		return time.Time{}
	}
	return d.Times[0]
}

// TimeEnd returns the timestamp of the last reading.
func (d *TraceData) TimeEnd() time.Time {
	if len(d.Times) == 0 {
		return time.Time{}
	}
	return d.Times[len(d.Times)-1]
}
