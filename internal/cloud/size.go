package cloud

import "purse/internal/core"

// Sizing turns a tag's weight into a font size relative to the largest
// weight of the dataset.
type Sizing struct {
	Mode   core.Ordering
	Weight func(core.TagRecord) float64
	Base   float64
	Scale  float64
	// OmitNonPositive drops words whose weight is zero or less.
	OmitNonPositive bool
}

// SizeByCount sizes words by how often the tag was used.
func SizeByCount(base, scale float64) Sizing {
	return Sizing{
		Mode:   core.OrderByCount,
		Weight: func(t core.TagRecord) float64 { return float64(t.Count) },
		Base:   base,
		Scale:  scale,
	}
}

// SizeByAmount sizes words by how much was spent on the tag. Tags with no
// positive amount get no size and are left out.
func SizeByAmount(base, scale float64) Sizing {
	return Sizing{
		Mode:            core.OrderByAmount,
		Weight:          func(t core.TagRecord) float64 { return t.Amount },
		Base:            base,
		Scale:           scale,
		OmitNonPositive: true,
	}
}

// Extent returns the largest weight over records.
func (s Sizing) Extent(records []core.TagRecord) float64 {
	top := 0.0
	for _, r := range records {
		top = max(top, s.Weight(r))
	}
	return top
}

// Size returns base + scale*weight/maxWeight. It reports false when the
// word should not be drawn.
func (s Sizing) Size(r core.TagRecord, maxWeight float64) (float64, bool) {
	w := s.Weight(r)
	if s.OmitNonPositive && w <= 0 {
		return 0, false
	}
	if maxWeight <= 0 {
		return s.Base, true
	}
	return s.Base + s.Scale*w/maxWeight, true
}
