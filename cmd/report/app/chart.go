package app

import (
	"fmt"
	"io"
	"time"

	"github.com/chamberdyne/pressure-altimeter/internal/storage"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// RenderHTML writes an interactive report page with a pressure chart and an
// altitude chart stacked on top of each other.
func RenderHTML(w io.Writer, session *storage.SessionData, data *ReportData, summary Summary) error {
	x := make([]string, 0, data.Len())
	raw := make([]opts.LineData, 0, data.Len())
	filtered := make([]opts.LineData, 0, data.Len())
	altitude := make([]opts.LineData, 0, data.Len())
	for i, ts := range data.Times {
		x = append(x, ts.Local().Format("15:04:05"))
		raw = append(raw, opts.LineData{Value: data.RawHPa[i]})
		filtered = append(filtered, opts.LineData{Value: data.FilteredHPa[i]})
		altitude = append(altitude, opts.LineData{Value: data.AltitudeFt[i]})
	}

	subtitle := fmt.Sprintf("%s %s, started %s, %d readings",
		session.DeviceType, session.DeviceID,
		session.StartTime.Local().Format(time.DateTime), summary.Readings)

	pressure := charts.NewLine()
	pressure.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Altimeter Session Report", Theme: "dark", Width: "1200px", Height: "450px"}),
		charts.WithTitleOpts(opts.Title{Title: "Barometric Pressure", Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Name: "hPa", Scale: opts.Bool(true)}),
	)
	pressure.SetXAxis(x).
		AddSeries("raw", raw, charts.WithLineStyleOpts(opts.LineStyle{Color: "#9e9e9e"})).
		AddSeries("filtered", filtered, charts.WithLineStyleOpts(opts.LineStyle{Color: "#40c4ff"}))

	alt := charts.NewLine()
	alt.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Theme: "dark", Width: "1200px", Height: "450px"}),
		charts.WithTitleOpts(opts.Title{Title: "Indicated Altitude"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Name: "ft", Scale: opts.Bool(true)}),
	)
	alt.SetXAxis(x).
		AddSeries("altitude", altitude, charts.WithLineStyleOpts(opts.LineStyle{Color: "#ffab40"}))

	page := components.NewPage()
	page.AddCharts(pressure, alt)
	return page.Render(w)
}
