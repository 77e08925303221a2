package chart

import (
	"fmt"
	"io"
	"math"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// Provider creates the renderer a layout is drawn with, typically
// gochart.SVG or gochart.PNG.
type Provider = gochart.RendererProvider

// Formats maps output format names to renderer providers.
var Formats = map[string]Provider{
	"svg": gochart.SVG,
	"png": gochart.PNG,
}

// ContentTypes maps output format names to MIME types.
var ContentTypes = map[string]string{
	"svg": "image/svg+xml",
	"png": "image/png",
}

var (
	axisColor = drawing.ColorFromHex("333333")
	textColor = drawing.ColorFromHex("222222")
)

const fontSize = 9.0

// Render draws layout with a renderer obtained from provider and writes the
// encoded image to w.
func Render(w io.Writer, layout Layout, provider Provider) error {
	cfg := layout.Config
	r, err := provider(cfg.Width, cfg.Height)
	if err != nil {
		return fmt.Errorf("create renderer: %w", err)
	}
	font, err := gochart.GetDefaultFont()
	if err != nil {
		return fmt.Errorf("load font: %w", err)
	}
	r.SetFont(font)
	r.SetFontSize(fontSize)
	r.SetFontColor(textColor)

	ox, oy := float64(cfg.Margin.Left), float64(cfg.Margin.Top)

	fillRect(r, drawing.ColorWhite, 0, 0, float64(cfg.Width), float64(cfg.Height))

	for _, b := range layout.Bars {
		fillRect(r, drawing.ColorFromHex(cfg.Colors[b.Series]), ox+b.X, oy+b.Y, b.Width, b.Height)
	}

	// Axes.
	r.SetStrokeColor(axisColor)
	r.SetStrokeWidth(1)
	r.MoveTo(px(ox), px(oy))
	r.LineTo(px(ox), px(oy+layout.PlotHeight))
	r.LineTo(px(ox+layout.PlotWidth), px(oy+layout.PlotHeight))
	r.Stroke()

	for _, t := range layout.Ticks {
		ty := oy + t.Y
		r.SetStrokeColor(axisColor)
		r.MoveTo(px(ox-6), px(ty))
		r.LineTo(px(ox), px(ty))
		r.Stroke()
		tw := r.MeasureText(t.Label).Width()
		r.Text(t.Label, px(ox-9)-tw, px(ty+3))
	}
	if cfg.Unit != "" {
		uw := r.MeasureText(cfg.Unit).Width()
		r.Text(cfg.Unit, px(ox-9)-uw, px(oy-12))
	}

	// Month labels are anchored by their end just under the band centre and
	// rotated around that anchor.
	theta := cfg.Rotation * math.Pi / 180
	for _, l := range layout.Labels {
		ax, ay := ox+l.X, oy+layout.PlotHeight+9
		tw := float64(r.MeasureText(l.Text).Width())
		sx := ax - tw*math.Cos(theta)
		sy := ay - tw*math.Sin(theta)
		r.SetTextRotation(theta)
		r.Text(l.Text, px(sx), px(sy))
		r.ClearTextRotation()
	}

	for _, e := range layout.Legend {
		ey := oy + e.OffsetY
		fillRect(r, drawing.ColorFromHex(e.Color), ox+e.SwatchX, ey, e.Swatch, e.Swatch)
		r.SetFontColor(textColor)
		tw := r.MeasureText(e.Label).Width()
		r.Text(e.Label, px(ox+e.TextX)-tw, px(ey+e.TextY+3))
	}

	if err := r.Save(w); err != nil {
		return fmt.Errorf("encode chart: %w", err)
	}
	return nil
}

func fillRect(r gochart.Renderer, c drawing.Color, x, y, w, h float64) {
	r.SetFillColor(c)
	r.SetStrokeColor(drawing.ColorTransparent)
	r.MoveTo(px(x), px(y))
	r.LineTo(px(x+w), px(y))
	r.LineTo(px(x+w), px(y+h))
	r.LineTo(px(x), px(y+h))
	r.Close()
	r.Fill()
}

func px(v float64) int {
	return int(math.Round(v))
}
