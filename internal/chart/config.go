// Package chart builds and renders the monthly expenditure histogram.
package chart

// Margin is the space reserved around the plot area, in pixels.
type Margin struct {
	Top, Right, Bottom, Left int
}

// Config holds every constant the histogram depends on.
type Config struct {
	Width     int
	Height    int
	Margin    Margin
	Padding   float64 // band padding, as a fraction of the band step
	Ticks     int     // approximate number of y ticks
	Threshold int     // minimum number of months before a chart is built
	Unit      string
	Labels    [2]string // series labels: amount, average
	Colors    [2]string // series colours as hex, without '#'
	Rotation  float64   // month label rotation in degrees
}

// DefaultConfig returns the standard 600x400 histogram configuration.
func DefaultConfig() Config {
	return Config{
		Width:     600,
		Height:    400,
		Margin:    Margin{Top: 30, Right: 40, Bottom: 60, Left: 40},
		Padding:   0.1,
		Ticks:     6,
		Threshold: 6,
		Unit:      "€",
		Labels:    [2]string{"Your expenditures", "Average"},
		Colors:    [2]string{"1f77b4", "ff7f0e"},
		Rotation:  -65,
	}
}

// PlotWidth is the width available to the bars.
func (c Config) PlotWidth() int {
	return c.Width - c.Margin.Left - c.Margin.Right
}

// PlotHeight is the height available to the bars.
func (c Config) PlotHeight() int {
	return c.Height - c.Margin.Top - c.Margin.Bottom
}
