// Package cloud lays out and renders the spending tag cloud.
package cloud

import (
	"fmt"
	"strings"
	"time"
)

// DefaultFetchTimeout bounds one tag fetch.
const DefaultFetchTimeout = 7 * time.Second

// Rotation sets, in degrees.
var (
	RotationsRightAngle = []float64{0, 90}
	RotationsDiagonal   = []float64{-90, -45, 0, 45}
)

// Margin is the space reserved around the cloud, in pixels.
type Margin struct {
	Top, Right, Bottom, Left int
}

// Config holds every constant the cloud depends on.
type Config struct {
	Width     int
	Height    int
	Margin    Margin
	Threshold int // minimum number of tags before a cloud is built
	Limit     int // number of tags requested per fetch
	// FetchTimeout bounds a shared tag fetch, independently of the request
	// that started it.
	FetchTimeout time.Duration
	BaseSize     float64
	Scale        float64
	Padding      float64 // free space kept around each word
	Rotations    []float64
	SearchURL    string
	Font         string
	Palette      []string
}

// DefaultConfig returns the standard 600x400 cloud configuration.
func DefaultConfig() Config {
	return Config{
		Width:        600,
		Height:       400,
		Margin:       Margin{Top: 0, Right: 20, Bottom: 0, Left: 20},
		Threshold:    20,
		Limit:        100,
		FetchTimeout: DefaultFetchTimeout,
		BaseSize:     10,
		Scale:        50,
		Padding:      1,
		Rotations:    RotationsRightAngle,
		SearchURL:    "/tracker/expenditures/search/",
		Font:         "Impact",
		Palette:      category20,
	}
}

// ParseRotations maps a rotation set name to its angles.
func ParseRotations(name string) ([]float64, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "right-angle":
		return RotationsRightAngle, nil
	case "diagonal":
		return RotationsDiagonal, nil
	default:
		return nil, fmt.Errorf("unknown rotation set %q (want right-angle or diagonal)", name)
	}
}

var category20 = []string{
	"#1f77b4", "#aec7e8", "#ff7f0e", "#ffbb78", "#2ca02c",
	"#98df8a", "#d62728", "#ff9896", "#9467bd", "#c5b0d5",
	"#8c564b", "#c49c94", "#e377c2", "#f7b6d2", "#7f7f7f",
	"#c7c7c7", "#bcbd22", "#dbdb8d", "#17becf", "#9edae5",
}
