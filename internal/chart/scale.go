package chart

import (
	"math"
	"strconv"
)

// Bands maps an ordered categorical domain onto rounded, evenly spaced bands.
type Bands struct {
	index map[string]int
	Start float64
	Step  float64
	Width float64
}

// NewBands splits [0, extent] into one band per distinct label. Padding is
// used both between bands and on the outer edges; band positions and widths
// are rounded to whole pixels.
func NewBands(labels []string, extent, padding float64) Bands {
	b := Bands{index: make(map[string]int)}
	for _, l := range labels {
		if _, ok := b.index[l]; !ok {
			b.index[l] = len(b.index)
		}
	}
	n := float64(len(b.index))
	if n == 0 {
		return b
	}
	b.Step = math.Floor(extent / (n - padding + 2*padding))
	rest := extent - (n-padding)*b.Step
	b.Start = math.Round(rest / 2)
	b.Width = math.Round(b.Step * (1 - padding))
	return b
}

// Len is the number of distinct labels.
func (b Bands) Len() int { return len(b.index) }

// X returns the left edge of the band holding label.
func (b Bands) X(label string) (float64, bool) {
	i, ok := b.index[label]
	if !ok {
		return 0, false
	}
	return b.Start + float64(i)*b.Step, true
}

// Linear maps [0, Max] onto [Height, 0] so larger values sit higher.
type Linear struct {
	Max    float64
	Height float64
}

// Y returns the vertical pixel position of v.
func (s Linear) Y(v float64) float64 {
	if s.Max <= 0 {
		return s.Height
	}
	return s.Height - v/s.Max*s.Height
}

// NiceTicks returns round tick values covering [0, hi] with roughly count
// ticks. The step is a power of ten times 1, 2 or 5.
func NiceTicks(hi float64, count int) []float64 {
	if hi <= 0 || count <= 0 || math.IsInf(hi, 0) || math.IsNaN(hi) {
		return []float64{0}
	}
	step := math.Pow(10, math.Floor(math.Log10(hi/float64(count))))
	err := float64(count) / hi * step
	switch {
	case err <= .15:
		step *= 10
	case err <= .35:
		step *= 5
	case err <= .75:
		step *= 2
	}
	var ticks []float64
	for i := 0; ; i++ {
		v := float64(i) * step
		if v > hi+step*1e-9 {
			break
		}
		ticks = append(ticks, v)
	}
	return ticks
}

// TickLabel formats a tick value with as many decimals as the tick step needs.
func TickLabel(v, step float64) string {
	prec := 0
	if step > 0 && step < 1 {
		prec = int(math.Ceil(-math.Log10(step)))
	}
	return strconv.FormatFloat(v, 'f', prec, 64)
}
