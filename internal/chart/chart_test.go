package chart

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"purse/internal/core"
)

func months(n int, withAverage bool) []core.MonthRecord {
	out := make([]core.MonthRecord, n)
	for i := range out {
		out[i] = core.MonthRecord{
			Month:   fmt.Sprintf("Month %d", i+1),
			Amount:  float64(10 * (i + 1)),
			Average: core.None[float64](),
		}
		if withAverage {
			out[i].Average = core.Some(float64(5 * (i + 1)))
		}
	}
	return out
}

func TestBuildThreshold(t *testing.T) {
	cfg := DefaultConfig()
	if _, ok := Build(cfg, months(5, false)); ok {
		t.Fatal("5 months must not build a chart")
	}
	if _, ok := Build(cfg, nil); ok {
		t.Fatal("no records must not build a chart")
	}
	if _, ok := Build(cfg, months(6, false)); !ok {
		t.Fatal("6 months must build a chart")
	}
}

func TestBuildBarCount(t *testing.T) {
	cfg := DefaultConfig()
	cases := []struct {
		name     string
		records  []core.MonthRecord
		bars     int
		legend   int
		barWidth float64
	}{
		{"amounts only", months(6, false), 6, 1, 77},
		{"with averages", months(6, true), 12, 2, 38.5},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			l, ok := Build(cfg, tc.records)
			if !ok {
				t.Fatal("expected chart")
			}
			if len(l.Bars) != tc.bars {
				t.Fatalf("bars = %d, want %d", len(l.Bars), tc.bars)
			}
			if len(l.Legend) != tc.legend {
				t.Fatalf("legend entries = %d, want %d", len(l.Legend), tc.legend)
			}
			if l.Bars[0].Width != tc.barWidth {
				t.Fatalf("bar width = %v, want %v", l.Bars[0].Width, tc.barWidth)
			}
		})
	}
}

func TestBuildPartialAverages(t *testing.T) {
	records := months(6, false)
	records[2].Average = core.Some(20.0)
	l, ok := Build(DefaultConfig(), records)
	if !ok {
		t.Fatal("expected chart")
	}
	if len(l.Bars) != 7 {
		t.Fatalf("bars = %d, want 6 amount bars and 1 average bar", len(l.Bars))
	}
	avg := l.Bars[6]
	if avg.Series != SeriesAverage || avg.Month != "Month 3" {
		t.Fatalf("unexpected average bar %+v", avg)
	}
	if avg.X != l.Bars[2].X+l.Bars[2].Width {
		t.Fatalf("average bar must sit right of its amount bar: %v vs %v", avg.X, l.Bars[2].X)
	}
}

func TestBuildDomain(t *testing.T) {
	records := []core.MonthRecord{
		{Month: "Jan", Amount: 100, Average: core.Some(80.0)},
		{Month: "Feb", Amount: 50, Average: core.Some(120.0)},
	}
	cfg := DefaultConfig()
	cfg.Threshold = 2
	l, ok := Build(cfg, records)
	if !ok {
		t.Fatal("expected chart")
	}
	if l.Domain != [2]float64{0, 120} {
		t.Fatalf("domain = %v, want [0 120]", l.Domain)
	}
}

func TestBuildNegativeAmountsStayOnBaseline(t *testing.T) {
	records := months(6, true)
	records[1].Amount = -3.25
	records[2].Average = core.Some(-1.0)

	l, ok := Build(DefaultConfig(), records)
	if !ok {
		t.Fatal("expected chart")
	}
	if l.Domain[0] != 0 || l.Domain[1] != 60 {
		t.Fatalf("domain = %v, want [0 60]", l.Domain)
	}
	for _, b := range l.Bars {
		if b.Height < 0 || b.Y > l.PlotHeight {
			t.Fatalf("bar below the baseline: %+v", b)
		}
		if b.Value < 0 && (b.Height != 0 || b.Y != l.PlotHeight) {
			t.Fatalf("negative value must draw an empty bar: %+v", b)
		}
	}
}

func TestBuildGeometry(t *testing.T) {
	l, _ := Build(DefaultConfig(), months(6, false))

	if l.PlotWidth != 520 || l.PlotHeight != 310 {
		t.Fatalf("plot = %vx%v", l.PlotWidth, l.PlotHeight)
	}
	if l.BandWidth != 77 {
		t.Fatalf("band width = %v, want 77", l.BandWidth)
	}
	if l.Bars[0].X != 9 || l.Bars[1].X != 94 {
		t.Fatalf("band positions = %v, %v, want 9, 94", l.Bars[0].X, l.Bars[1].X)
	}
	for _, b := range l.Bars {
		if b.Height != l.PlotHeight-b.Y {
			t.Fatalf("height %v != plotHeight - y for %+v", b.Height, b)
		}
		if b.Height < 0 {
			t.Fatalf("negative height for %+v", b)
		}
	}
	// The largest value reaches the top of the plot.
	last := l.Bars[len(l.Bars)-1]
	if last.Y != 0 || last.Height != l.PlotHeight {
		t.Fatalf("max bar = %+v", last)
	}
}

func TestLegendPlacement(t *testing.T) {
	l, _ := Build(DefaultConfig(), months(6, true))
	for i, e := range l.Legend {
		if e.OffsetY != float64(20*i) {
			t.Fatalf("entry %d offset = %v", i, e.OffsetY)
		}
		if e.SwatchX != 502 || e.TextX != 496 || e.TextY != 9 {
			t.Fatalf("entry %d = %+v", i, e)
		}
	}
	if l.Legend[0].Label != "Your expenditures" || l.Legend[1].Label != "Average" {
		t.Fatalf("labels = %q, %q", l.Legend[0].Label, l.Legend[1].Label)
	}
}

func TestNiceTicks(t *testing.T) {
	cases := []struct {
		max  float64
		want []float64
	}{
		{120, []float64{0, 20, 40, 60, 80, 100, 120}},
		{60, []float64{0, 10, 20, 30, 40, 50, 60}},
		{1, []float64{0, 0.2, 0.4, 0.6000000000000001, 0.8, 1}},
		{0, []float64{0}},
	}
	for _, tc := range cases {
		got := NiceTicks(tc.max, 6)
		if len(got) != len(tc.want) {
			t.Fatalf("NiceTicks(%v) = %v, want %v", tc.max, got, tc.want)
		}
		for i := range got {
			if got[i] != tc.want[i] {
				t.Fatalf("NiceTicks(%v) = %v, want %v", tc.max, got, tc.want)
			}
		}
	}
	if got := TickLabel(0.6000000000000001, 0.2); got != "0.6" {
		t.Fatalf("TickLabel = %q", got)
	}
}

func TestBandsDuplicateLabels(t *testing.T) {
	b := NewBands([]string{"a", "b", "a"}, 100, 0.1)
	if b.Len() != 2 {
		t.Fatalf("len = %d", b.Len())
	}
	if _, ok := b.X("c"); ok {
		t.Fatal("unknown label must not have a band")
	}
}

func TestLinearZeroMax(t *testing.T) {
	s := Linear{Max: 0, Height: 310}
	if s.Y(0) != 310 {
		t.Fatalf("Y(0) = %v", s.Y(0))
	}
}

func TestRender(t *testing.T) {
	l, ok := Build(DefaultConfig(), months(6, true))
	if !ok {
		t.Fatal("expected chart")
	}

	var svg bytes.Buffer
	if err := Render(&svg, l, Formats["svg"]); err != nil {
		t.Fatalf("render svg: %v", err)
	}
	out := svg.String()
	if !strings.HasPrefix(out, "<svg") {
		t.Fatalf("not an svg document: %.60s", out)
	}
	for _, want := range []string{"Your expenditures", "Average", "Month 6"} {
		if !strings.Contains(out, want) {
			t.Fatalf("svg lacks %q", want)
		}
	}

	var png bytes.Buffer
	if err := Render(&png, l, Formats["png"]); err != nil {
		t.Fatalf("render png: %v", err)
	}
	if !bytes.HasPrefix(png.Bytes(), []byte("\x89PNG")) {
		t.Fatal("not a png image")
	}
}
