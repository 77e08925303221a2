package chart

import (
	"purse/internal/core"
)

// Series indexes.
const (
	SeriesAmount  = 0
	SeriesAverage = 1
)

// Bar is one rectangle in plot coordinates, the origin being the top left
// corner of the plot area.
type Bar struct {
	Series int
	Month  string
	Value  float64
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// LegendEntry is one row of the legend stacked at the top right.
type LegendEntry struct {
	Label   string
	Color   string
	OffsetY float64 // translation of the whole entry
	SwatchX float64
	Swatch  float64 // swatch side
	TextX   float64 // right edge of the label
	TextY   float64
}

// Tick is a labelled y axis graduation.
type Tick struct {
	Value float64
	Label string
	Y     float64
}

// Label is a month name under its band.
type Label struct {
	Text string
	X    float64 // band centre
}

// Layout is everything needed to draw one histogram. It is rebuilt on every
// draw.
type Layout struct {
	Config      Config
	PlotWidth   float64
	PlotHeight  float64
	Domain      [2]float64
	BandWidth   float64
	HasAverages bool
	Bars        []Bar
	Legend      []LegendEntry
	Ticks       []Tick
	Labels      []Label
}

// Build derives the histogram layout for records. It reports false, and
// builds nothing, when there are fewer records than the configured threshold.
func Build(cfg Config, records []core.MonthRecord) (Layout, bool) {
	if len(records) < cfg.Threshold || len(records) == 0 {
		return Layout{}, false
	}

	l := Layout{
		Config:      cfg,
		PlotWidth:   float64(cfg.PlotWidth()),
		PlotHeight:  float64(cfg.PlotHeight()),
		HasAverages: core.HasAverages(records),
	}

	months := make([]string, len(records))
	for i, r := range records {
		months[i] = r.Month
	}
	bands := NewBands(months, l.PlotWidth, cfg.Padding)
	l.BandWidth = bands.Width

	l.Domain = [2]float64{0, maxValue(records)}
	y := Linear{Max: l.Domain[1], Height: l.PlotHeight}

	barWidth := bands.Width
	if l.HasAverages {
		barWidth = bands.Width / 2
	}
	bar := func(series int, r core.MonthRecord, v float64) Bar {
		x, _ := bands.X(r.Month)
		if series == SeriesAverage {
			x += barWidth
		}
		// Negative values draw as empty bars on the baseline.
		top := y.Y(min(max(v, 0), l.Domain[1]))
		return Bar{
			Series: series,
			Month:  r.Month,
			Value:  v,
			X:      x,
			Y:      top,
			Width:  barWidth,
			Height: l.PlotHeight - top,
		}
	}
	for _, r := range records {
		l.Bars = append(l.Bars, bar(SeriesAmount, r, r.Amount))
	}
	if l.HasAverages {
		for _, r := range records {
			if avg, ok := r.Average.Get(); ok {
				l.Bars = append(l.Bars, bar(SeriesAverage, r, avg))
			}
		}
	}

	series := 1
	if l.HasAverages {
		series = 2
	}
	for i := 0; i < series; i++ {
		l.Legend = append(l.Legend, LegendEntry{
			Label:   cfg.Labels[i],
			Color:   cfg.Colors[i],
			OffsetY: float64(i * 20),
			SwatchX: l.PlotWidth - 18,
			Swatch:  18,
			TextX:   l.PlotWidth - 24,
			TextY:   9,
		})
	}

	values := NiceTicks(l.Domain[1], cfg.Ticks)
	step := 0.0
	if len(values) > 1 {
		step = values[1] - values[0]
	}
	for _, v := range values {
		l.Ticks = append(l.Ticks, Tick{Value: v, Label: TickLabel(v, step), Y: y.Y(v)})
	}

	seen := make(map[string]bool)
	for _, m := range months {
		if seen[m] {
			continue
		}
		seen[m] = true
		x, _ := bands.X(m)
		l.Labels = append(l.Labels, Label{Text: m, X: x + bands.Width/2})
	}
	return l, true
}

// maxValue is the largest amount or present average.
func maxValue(records []core.MonthRecord) float64 {
	top := 0.0
	for _, r := range records {
		top = max(top, r.Amount)
		if avg, ok := r.Average.Get(); ok {
			top = max(top, avg)
		}
	}
	return top
}
