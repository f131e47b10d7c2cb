package app

import (
	"fmt"
	"io"
	"math"
	"time"

	"github.com/chamberdyne/pressure-altimeter/internal/storage"
	"github.com/dustin/go-humanize"
	"gonum.org/v1/gonum/stat"
)

// ReportData accumulates the readings of one session and computes the
// summary statistics printed in the report.
type ReportData struct {
	Times       []time.Time
	RawHPa      []float64
	FilteredHPa []float64
	AltitudeFt  []float64
	RateHPaSec  []float64

	residuals []float64
}

func NewReportData() *ReportData {
	return &ReportData{}
}

func (d *ReportData) Update(r *storage.ReadingData) {
	d.Times = append(d.Times, r.Timestamp)
	d.RawHPa = append(d.RawHPa, r.PressureHPa)
	d.FilteredHPa = append(d.FilteredHPa, r.FilteredHPa)
	d.AltitudeFt = append(d.AltitudeFt, r.AltitudeFt)
	d.RateHPaSec = append(d.RateHPaSec, r.RateHPaSec)
	d.residuals = append(d.residuals, r.PressureHPa-r.FilteredHPa)
}

func (d *ReportData) Len() int { return len(d.Times) }

func (d *ReportData) Duration() time.Duration {
	if len(d.Times) < 2 {
		return 0
	}
	return d.Times[len(d.Times)-1].Sub(d.Times[0])
}

// Summary holds per-session statistics derived with gonum.
type Summary struct {
	Readings      int
	Duration      time.Duration
	ResidualMean  float64
	ResidualStdev float64
	AltMinFt      float64
	AltMaxFt      float64
	AltMeanFt     float64
	RateMaxAbs    float64
}

func (d *ReportData) Summarize() Summary {
	s := Summary{
		Readings: d.Len(),
		Duration: d.Duration(),
	}
	if d.Len() == 0 {
		return s
	}

	s.ResidualMean, s.ResidualStdev = stat.MeanStdDev(d.residuals, nil)
	if d.Len() < 2 {
		s.ResidualStdev = 0
	}

	s.AltMeanFt = stat.Mean(d.AltitudeFt, nil)
	s.AltMinFt, s.AltMaxFt = d.AltitudeFt[0], d.AltitudeFt[0]
	for _, v := range d.AltitudeFt {
		s.AltMinFt = math.Min(s.AltMinFt, v)
		s.AltMaxFt = math.Max(s.AltMaxFt, v)
	}
	for _, v := range d.RateHPaSec {
		s.RateMaxAbs = math.Max(s.RateMaxAbs, math.Abs(v))
	}
	return s
}

// WriteText prints the human readable summary.
func (s Summary) WriteText(w io.Writer, session *storage.SessionData, dbSize uint64) {
	fmt.Fprintf(w, "Session #%d (%s %s)\n", session.ID, session.DeviceType, session.DeviceID)
	fmt.Fprintf(w, "  started:        %s\n", session.StartTime.Local().Format(time.DateTime))
	fmt.Fprintf(w, "  readings:       %s over %s\n", humanize.Comma(int64(s.Readings)), s.Duration.Round(time.Second))
	fmt.Fprintf(w, "  database size:  %s\n", humanize.Bytes(dbSize))
	fmt.Fprintf(w, "  residual:       %+.4f hPa mean, %.4f hPa stdev\n", s.ResidualMean, s.ResidualStdev)
	fmt.Fprintf(w, "  altitude:       %.1f ft min, %.1f ft max, %.1f ft mean\n", s.AltMinFt, s.AltMaxFt, s.AltMeanFt)
	fmt.Fprintf(w, "  pressure rate:  %.4f hPa/s peak\n", s.RateMaxAbs)
}
