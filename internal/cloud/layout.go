package cloud

import (
	"math"
	"net/url"
	"sort"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"

	"purse/internal/core"
)

// Rand is the source of randomness for rotations and start positions.
// *math/rand/v2.Rand satisfies it.
type Rand interface {
	Float64() float64
	IntN(n int) int
}

// Word is one placed tag. X and Y are the centre of the word relative to
// the centre of the cloud.
type Word struct {
	Name   string
	Count  int
	Amount float64
	Size   float64
	Rotate float64
	X, Y   float64
	Width  float64 // unrotated text extent
	Height float64
	Color  string
	Href   string
}

// Box returns the axis-aligned bounds of the rotated word, relative to the
// cloud centre.
func (w Word) Box() (x0, y0, x1, y1 float64) {
	bw, bh := rotatedExtent(w.Width, w.Height, w.Rotate)
	return w.X - bw/2, w.Y - bh/2, w.X + bw/2, w.Y + bh/2
}

// Cloud is a laid out tag cloud.
type Cloud struct {
	Width   int
	Height  int
	CenterX float64
	CenterY float64
	Font    string
	Mode    core.Ordering
	Words   []Word
}

type rect struct{ x0, y0, x1, y1 float64 }

func (a rect) overlaps(b rect) bool {
	return a.x0 < b.x1 && b.x0 < a.x1 && a.y0 < b.y1 && b.y0 < a.y1
}

// Build sizes and places records. It reports false, and builds nothing,
// when there are fewer records than the configured threshold.
//
// Words are placed largest first along an Archimedean spiral starting near
// the centre; a position is taken when the word stays inside the cloud and
// overlaps no word placed before it. Words that fit nowhere are dropped.
func Build(cfg Config, records []core.TagRecord, sizing Sizing, rng Rand) (Cloud, bool) {
	if len(records) < cfg.Threshold || len(records) == 0 {
		return Cloud{}, false
	}

	innerW := float64(cfg.Width - cfg.Margin.Left - cfg.Margin.Right)
	innerH := float64(cfg.Height - cfg.Margin.Top - cfg.Margin.Bottom)
	c := Cloud{
		Width:   cfg.Width,
		Height:  cfg.Height,
		CenterX: float64(cfg.Margin.Left) + innerW/2,
		CenterY: float64(cfg.Margin.Top) + innerH/2,
		Font:    cfg.Font,
		Mode:    sizing.Mode,
	}

	palette := cfg.Palette
	if len(palette) == 0 {
		palette = category20
	}

	top := sizing.Extent(records)
	var words []Word
	for _, r := range records {
		if r.Name == "" {
			continue
		}
		size, ok := sizing.Size(r, top)
		if !ok {
			continue
		}
		w, h := measure(r.Name, size)
		words = append(words, Word{
			Name:   r.Name,
			Count:  r.Count,
			Amount: r.Amount,
			Size:   size,
			Width:  w,
			Height: h,
		})
	}
	sort.SliceStable(words, func(i, j int) bool { return words[i].Size > words[j].Size })

	var placed []rect
	for _, w := range words {
		if len(cfg.Rotations) > 0 {
			w.Rotate = cfg.Rotations[rng.IntN(len(cfg.Rotations))]
		}
		bw, bh := rotatedExtent(w.Width, w.Height, w.Rotate)
		bw += 2 * cfg.Padding
		bh += 2 * cfg.Padding
		if bw > innerW || bh > innerH {
			continue
		}

		startX := innerW * (rng.Float64() + .5) / 2
		startY := innerH * (rng.Float64() + .5) / 2
		dir := 1.0
		if rng.Float64() < .5 {
			dir = -1
		}

		if x, y, ok := spiralFit(startX, startY, bw, bh, innerW, innerH, dir, placed); ok {
			placed = append(placed, rect{x - bw/2, y - bh/2, x + bw/2, y + bh/2})
			w.X = x - innerW/2
			w.Y = y - innerH/2
			w.Color = palette[len(c.Words)%len(palette)]
			w.Href = SearchHref(cfg.SearchURL, w.Name)
			c.Words = append(c.Words, w)
		}
	}
	return c, true
}

// spiralFit walks the spiral from (sx, sy) until a box of bw x bh fits.
func spiralFit(sx, sy, bw, bh, areaW, areaH, dir float64, placed []rect) (float64, float64, bool) {
	ratio := areaW / areaH
	limit := math.Hypot(areaW, areaH)
	for step := 0.0; ; step += dir {
		t := step * .1
		if math.Abs(t) > limit {
			return 0, 0, false
		}
		x := sx + ratio*t*math.Cos(t)
		y := sy + t*math.Sin(t)
		box := rect{x - bw/2, y - bh/2, x + bw/2, y + bh/2}
		if box.x0 < 0 || box.y0 < 0 || box.x1 > areaW || box.y1 > areaH {
			continue
		}
		if !collides(box, placed) {
			return x, y, true
		}
	}
}

func collides(box rect, placed []rect) bool {
	for _, p := range placed {
		if box.overlaps(p) {
			return true
		}
	}
	return false
}

// measure returns the text extent of name at the given pixel size, scaled
// from the 13 pixel basic face.
func measure(name string, size float64) (float64, float64) {
	face := basicfont.Face7x13
	advance := font.MeasureString(face, name).Ceil()
	scale := size / float64(face.Height)
	return float64(advance) * scale, size
}

func rotatedExtent(w, h, degrees float64) (float64, float64) {
	rad := degrees * math.Pi / 180
	sin, cos := math.Abs(math.Sin(rad)), math.Abs(math.Cos(rad))
	return w*cos + h*sin, w*sin + h*cos
}

// SearchHref links a word to the expenditure search filtered by name.
func SearchHref(base, name string) string {
	return base + "?filter=" + url.QueryEscape(name)
}
