package geo

import (
	"fmt"

	"github.com/jonas-p/go-shp"
	"github.com/paulmach/orb"
)

// Basemap holds background outlines (province and regency borders, coasts)
// drawn beneath the features.
type Basemap struct {
	Lines []orb.LineString
}

// LoadBasemap loads every polyline and polygon outline of the given
// shapefiles. Polygons are split into their parts so rings are not joined
// across holes.
func LoadBasemap(paths ...string) (*Basemap, error) {
	bm := &Basemap{}
	for _, path := range paths {
		if err := bm.load(path); err != nil {
			return nil, err
		}
	}
	return bm, nil
}

func (bm *Basemap) load(path string) error {
	shape, err := shp.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open basemap %s: %w", path, err)
	}
	defer shape.Close()

	for shape.Next() {
		_, p := shape.Shape()

		switch geom := p.(type) {
		case *shp.PolyLine:
			bm.Lines = append(bm.Lines, splitParts(geom.Parts, geom.Points)...)
		case *shp.Polygon:
			bm.Lines = append(bm.Lines, splitParts(geom.Parts, geom.Points)...)
		}
	}
	return nil
}

func splitParts(parts []int32, points []shp.Point) []orb.LineString {
	var lines []orb.LineString
	for i, start := range parts {
		end := len(points)
		if i+1 < len(parts) {
			end = int(parts[i+1])
		}
		if int(start) >= end {
			continue
		}
		ls := make(orb.LineString, 0, end-int(start))
		for _, pt := range points[start:end] {
			ls = append(ls, orb.Point{pt.X, pt.Y})
		}
		if len(ls) > 1 {
			lines = append(lines, ls)
		}
	}
	return lines
}

// Visible returns the lines whose extent intersects b
func (bm *Basemap) Visible(b orb.Bound) []orb.LineString {
	if bm == nil {
		return nil
	}
	visible := make([]orb.LineString, 0)
	for _, ls := range bm.Lines {
		if ls.Bound().Intersects(b) {
			visible = append(visible, ls)
		}
	}
	return visible
}
