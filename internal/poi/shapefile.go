package poi

import (
	"context"
	"fmt"
	"strings"

	"wisatamap/internal/core"

	"github.com/jonas-p/go-shp"
	"github.com/paulmach/orb"
)

// ShapefileSource reads features from an ESRI shapefile carrying the same
// attribute columns as the backend table.
type ShapefileSource struct {
	Path string
}

// Fetch loads every point and polygon record. Records without a name are skipped.
func (s ShapefileSource) Fetch(ctx context.Context) ([]*Feature, error) {
	shape, err := shp.Open(s.Path)
	if err != nil {
		return nil, &core.FetchError{Op: "shapefile", Err: err}
	}
	defer shape.Close()

	columns := make(map[string]int)
	for i, field := range shape.Fields() {
		// Field names in shapefiles are byte arrays, convert to string and trim nulls
		name := strings.ToLower(strings.TrimRight(string(field.Name[:]), "\x00 "))
		columns[name] = i
	}
	if _, ok := columns[PropName]; !ok {
		return nil, &core.FetchError{Op: "shapefile", Err: fmt.Errorf("missing column %s", PropName)}
	}

	attr := func(row int, col string) string {
		idx, ok := columns[col]
		if !ok {
			return ""
		}
		return strings.TrimSpace(shape.ReadAttribute(row, idx))
	}

	features := make([]*Feature, 0)
	for shape.Next() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		n, p := shape.Shape()
		attrs := Attributes{
			Name:        attr(n, PropName),
			Category:    attr(n, PropCategory),
			Address:     attr(n, PropAddress),
			Description: attr(n, PropDescription),
		}
		if attrs.Name == "" {
			continue
		}

		switch geom := p.(type) {
		case *shp.Point:
			features = append(features, NewPoint(attrs, orb.Point{geom.X, geom.Y}))

		case *shp.Polygon:
			// Only the outer ring (first part) is kept
			end := len(geom.Points)
			if len(geom.Parts) > 1 {
				end = int(geom.Parts[1])
			}
			vertices := make([]orb.Point, 0, end)
			for _, pt := range geom.Points[:end] {
				vertices = append(vertices, orb.Point{pt.X, pt.Y})
			}
			if len(vertices) > 1 && vertices[0] == vertices[len(vertices)-1] {
				vertices = vertices[:len(vertices)-1]
			}
			if len(vertices) >= 3 {
				features = append(features, NewArea(attrs, vertices))
			}
		}
	}

	if err := checkUnique(features); err != nil {
		return nil, &core.FetchError{Op: "shapefile", Err: err}
	}
	return features, nil
}
