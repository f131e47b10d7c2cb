package app

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"time"
)

const (
	marginLeft   = 70
	marginRight  = 20
	marginTop    = 40
	marginBottom = 50
	panelGap     = 30

	gridLines = 5
)

var (
	colorBackground = color.RGBA{R: 0x10, G: 0x14, B: 0x18, A: 0xff}
	colorGrid       = color.RGBA{R: 0x2a, G: 0x32, B: 0x3a, A: 0xff}
	colorRaw        = color.RGBA{R: 0x5a, G: 0x6a, B: 0x78, A: 0xff}
	colorFiltered   = color.RGBA{R: 0x4f, G: 0xc3, B: 0xf7, A: 0xff}
	colorAltitude   = color.RGBA{R: 0xff, G: 0xb7, B: 0x4d, A: 0xff}
)

// panel maps a value range onto a pixel rectangle.
type panel struct {
	rect image.Rectangle
	min  float64
	max  float64
}

// x maps a fractional position along the time axis onto a pixel column.
func (p panel) x(frac float64) int {
	return p.rect.Min.X + int(frac*float64(p.rect.Dx()-1))
}

// y maps a value onto a pixel row; larger values sit higher.
func (p panel) y(v float64) int {
	span := p.max - p.min
	if span == 0 {
		return p.rect.Min.Y + p.rect.Dy()/2
	}
	frac := (v - p.min) / span
	return p.rect.Max.Y - 1 - int(frac*float64(p.rect.Dy()-1))
}

// TraceRenderer draws a two-panel strip chart: pressure on top, derived
// altitude below, sharing the time axis.
type TraceRenderer struct {
	width     int
	height    int
	annotator *Annotator
}

func NewTraceRenderer(width, height int) (*TraceRenderer, error) {
	annotator, err := NewAnnotator()
	if err != nil {
		return nil, fmt.Errorf("creating annotator: %w", err)
	}
	return &TraceRenderer{width: width, height: height, annotator: annotator}, nil
}

func (r *TraceRenderer) Render(data *TraceData, deviceID string) (*image.RGBA, error) {
	if data.Len() < 2 {
		return nil, fmt.Errorf("not enough readings to chart: %d", data.Len())
	}

	img := image.NewRGBA(image.Rect(0, 0, r.width, r.height))
	draw.Draw(img, img.Bounds(), image.NewUniform(colorBackground), image.Point{}, draw.Src)

	plotHeight := (r.height - marginTop - marginBottom - panelGap) / 2
	pressurePanel := panel{
		rect: image.Rect(marginLeft, marginTop, r.width-marginRight, marginTop+plotHeight),
	}
	altitudePanel := panel{
		rect: image.Rect(marginLeft, marginTop+plotHeight+panelGap, r.width-marginRight, r.height-marginBottom),
	}

	pressurePanel.min, pressurePanel.max = pad(data.PressureMin, data.PressureMax)
	altitudePanel.min, altitudePanel.max = pad(data.AltitudeMin, data.AltitudeMax)

	for _, p := range []panel{pressurePanel, altitudePanel} {
		r.drawGrid(img, p)
	}

	fracs := timeFractions(data.Times)
	r.drawSeries(img, pressurePanel, fracs, data.RawHPa, colorRaw)
	r.drawSeries(img, pressurePanel, fracs, data.FilteredHPa, colorFiltered)
	r.drawSeries(img, altitudePanel, fracs, data.AltitudeFt, colorAltitude)

	if err := r.annotator.Annotate(img, data, pressurePanel, altitudePanel, deviceID); err != nil {
		return nil, fmt.Errorf("annotating chart: %w", err)
	}

	return img, nil
}

// pad widens a value range slightly so traces do not hug the panel edges.
func pad(minV, maxV float64) (float64, float64) {
	span := maxV - minV
	if span == 0 {
		span = math.Max(math.Abs(minV)*0.01, 1)
	}
	return minV - span*0.05, maxV + span*0.05
}

// timeFractions maps each timestamp onto [0, 1] across the recorded span.
func timeFractions(times []time.Time) []float64 {
	start, end := times[0], times[len(times)-1]
	span := end.Sub(start).Seconds()

	fracs := make([]float64, len(times))
	for i, t := range times {
		if span > 0 {
			fracs[i] = t.Sub(start).Seconds() / span
		}
	}
	return fracs
}

func (r *TraceRenderer) drawGrid(img *image.RGBA, p panel) {
	for i := 0; i <= gridLines; i++ {
		y := p.rect.Min.Y + i*(p.rect.Dy()-1)/gridLines
		drawLine(img, p.rect.Min.X, y, p.rect.Max.X-1, y, colorGrid)
	}
	for i := 0; i <= gridLines; i++ {
		x := p.rect.Min.X + i*(p.rect.Dx()-1)/gridLines
		drawLine(img, x, p.rect.Min.Y, x, p.rect.Max.Y-1, colorGrid)
	}
}

func (r *TraceRenderer) drawSeries(img *image.RGBA, p panel, fracs, values []float64, c color.RGBA) {
	prevX, prevY := p.x(fracs[0]), p.y(values[0])
	for i := 1; i < len(values); i++ {
		x, y := p.x(fracs[i]), p.y(values[i])
		drawLine(img, prevX, prevY, x, y, c)
		prevX, prevY = x, y
	}
}

// drawLine rasterizes a straight segment with the integer Bresenham walk.
func drawLine(img *image.RGBA, x0, y0, x1, y1 int, c color.RGBA) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)

	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}

	err := dx + dy
	for {
		img.SetRGBA(x0, y0, c)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
