package app

import (
	"fmt"
	"image"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/golang/freetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
)

const (
	dpi      float64 = 72
	fontSize float64 = 13
)

type Annotator struct {
	context *freetype.Context
}

func NewAnnotator() (*Annotator, error) {
	parsedFont, err := freetype.ParseFont(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parsing font: %w", err)
	}

	context := freetype.NewContext()
	context.SetDPI(dpi)
	context.SetFont(parsedFont)
	context.SetFontSize(fontSize)
	context.SetSrc(image.White)
	context.SetHinting(font.HintingFull)

	return &Annotator{context: context}, nil
}

func (a *Annotator) Annotate(img *image.RGBA, data *TraceData, pressure, altitude panel, deviceID string) error {
	a.context.SetClip(img.Bounds())
	a.context.SetDst(img)

	ops := []struct {
		msg string
		fn  func() error
	}{
		{"drawing time scale", func() error { return a.drawTimeScale(data, altitude) }},
		{"drawing pressure scale", func() error { return a.drawValueScale(pressure, "%.1f") }},
		{"drawing altitude scale", func() error { return a.drawValueScale(altitude, "%.0f") }},
		{"drawing titles", func() error { return a.drawTitles(data, pressure, altitude, deviceID) }},
	}
	for _, op := range ops {
		if err := op.fn(); err != nil {
			return fmt.Errorf("%s: %w", op.msg, err)
		}
	}

	return nil
}

func (a *Annotator) drawTimeScale(data *TraceData, p panel) error {
	start, end := data.TimeStart(), data.TimeEnd()
	span := end.Sub(start)

	layout := "15:04:05"
	if span > 24*time.Hour {
		layout = "Jan 2 15:04"
	}

	for i := 0; i <= gridLines; i++ {
		x := p.rect.Min.X + i*(p.rect.Dx()-1)/gridLines
		t := start.Add(span * time.Duration(i) / gridLines)

		pt := freetype.Pt(x-25, p.rect.Max.Y+20)
		if _, err := a.context.DrawString(t.Local().Format(layout), pt); err != nil {
			return err
		}
	}
	return nil
}

func (a *Annotator) drawValueScale(p panel, format string) error {
	for i := 0; i <= gridLines; i++ {
		v := p.max - (p.max-p.min)*float64(i)/gridLines
		y := p.rect.Min.Y + i*(p.rect.Dy()-1)/gridLines

		pt := freetype.Pt(8, y+5)
		if _, err := a.context.DrawString(fmt.Sprintf(format, v), pt); err != nil {
			return err
		}
	}
	return nil
}

func (a *Annotator) drawTitles(data *TraceData, pressure, altitude panel, deviceID string) error {
	header := fmt.Sprintf("%s | %s readings, %s to %s",
		deviceID,
		humanize.Comma(int64(data.Len())),
		data.TimeStart().Local().Format(time.DateTime),
		data.TimeEnd().Local().Format(time.DateTime))

	if _, err := a.context.DrawString(header, freetype.Pt(marginLeft, marginTop-15)); err != nil {
		return err
	}

	labels := []struct {
		text string
		p    panel
	}{
		{"pressure, hPa (raw and filtered)", pressure},
		{"indicated altitude, ft", altitude},
	}
	for _, l := range labels {
		pt := freetype.Pt(l.p.rect.Min.X+6, l.p.rect.Min.Y+16)
		if _, err := a.context.DrawString(l.text, pt); err != nil {
			return err
		}
	}
	return nil
}
