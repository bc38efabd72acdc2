package poi

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/tidwall/rtree"
)

// HitIndex answers "what is under the cursor" queries for map clicks. It is
// immutable once built.
type HitIndex struct {
	tree     rtree.RTreeG[string]
	features map[string]*Feature
}

// NewHitIndex indexes marker positions and area extents
func NewHitIndex(features []*Feature) *HitIndex {
	h := &HitIndex{features: make(map[string]*Feature, len(features))}
	for _, f := range features {
		h.features[f.Name] = f
		p := [2]float64(f.Location)
		h.tree.Insert(p, p, f.Name)
		if f.HasArea() {
			b := f.Area.Bound()
			h.tree.Insert([2]float64(b.Min), [2]float64(b.Max), f.Name)
		}
	}
	return h
}

// Len returns the number of indexed features
func (h *HitIndex) Len() int {
	return len(h.features)
}

// At returns the feature whose marker lies inside b and is closest to its
// center. Without a marker hit, the smallest area containing the center wins.
// Features for which keep returns false are skipped; a nil keep skips none.
func (h *HitIndex) At(b orb.Bound, keep func(id string) bool) (string, bool) {
	center := b.Center()

	bestMarker, bestArea := "", ""
	markerDist, areaSize := math.Inf(1), math.Inf(1)
	seen := make(map[string]struct{})

	h.tree.Search([2]float64(b.Min), [2]float64(b.Max), func(_, _ [2]float64, id string) bool {
		if _, dup := seen[id]; dup {
			return true
		}
		seen[id] = struct{}{}
		if keep != nil && !keep(id) {
			return true
		}

		f := h.features[id]
		if b.Contains(f.Location) {
			if d := planar.DistanceSquared(center, f.Location); d < markerDist {
				markerDist = d
				bestMarker = id
			}
		}
		if f.HasArea() && planar.PolygonContains(f.Area, center) {
			fb := f.Area.Bound()
			if size := (fb.Max[0] - fb.Min[0]) * (fb.Max[1] - fb.Min[1]); size < areaSize {
				areaSize = size
				bestArea = id
			}
		}
		return true
	})

	if bestMarker != "" {
		return bestMarker, true
	}
	if bestArea != "" {
		return bestArea, true
	}
	return "", false
}
