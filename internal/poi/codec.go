package poi

import (
	"encoding/json"
	"errors"
	"fmt"

	"wisatamap/internal/core"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Property names used by the backend. They are DBF column names, hence the
// ten-character truncation.
const (
	PropName         = "nama_objek"
	PropCategory     = "jenis_obje"
	PropAddress      = "alamat"
	PropDescription  = "deskripsi"
	PropGeometryType = "geometry_type"
)

// FromGeoJSON converts a backend feature. Multi geometries are reduced to
// their first member, the way PostGIS exports single-part shapefile rows.
func FromGeoJSON(gf *geojson.Feature) (*Feature, error) {
	if gf == nil {
		return nil, errors.New("nil feature")
	}

	attrs := Attributes{
		Name:        gf.Properties.MustString(PropName, ""),
		Category:    gf.Properties.MustString(PropCategory, ""),
		Address:     gf.Properties.MustString(PropAddress, ""),
		Description: gf.Properties.MustString(PropDescription, ""),
	}
	if attrs.Name == "" {
		return nil, fmt.Errorf("feature is missing %s", PropName)
	}

	switch g := gf.Geometry.(type) {
	case orb.Point:
		return NewPoint(attrs, g), nil
	case orb.MultiPoint:
		if len(g) == 0 {
			return nil, fmt.Errorf("%s: empty multipoint", attrs.Name)
		}
		return NewPoint(attrs, g[0]), nil
	case orb.Polygon:
		return areaFromPolygon(attrs, g)
	case orb.MultiPolygon:
		if len(g) == 0 {
			return nil, fmt.Errorf("%s: empty multipolygon", attrs.Name)
		}
		return areaFromPolygon(attrs, g[0])
	case nil:
		return nil, fmt.Errorf("%s: missing geometry", attrs.Name)
	default:
		return nil, fmt.Errorf("%s: unsupported geometry %s", attrs.Name, g.GeoJSONType())
	}
}

func areaFromPolygon(attrs Attributes, p orb.Polygon) (*Feature, error) {
	if len(p) == 0 || len(p[0]) < 3 {
		return nil, fmt.Errorf("%s: polygon needs at least 3 vertices", attrs.Name)
	}
	outer := p[0]
	if outer.Closed() {
		outer = outer[:len(outer)-1]
	}
	return NewArea(attrs, outer), nil
}

// GeoJSON converts the feature to the backend representation
func (f *Feature) GeoJSON() *geojson.Feature {
	gf := geojson.NewFeature(f.Geometry())
	gf.Properties[PropName] = f.Name
	gf.Properties[PropCategory] = f.Category
	gf.Properties[PropAddress] = f.Address
	gf.Properties[PropDescription] = f.Description
	gf.Properties[PropGeometryType] = f.Kind.String()
	return gf
}

// DecodeCollection parses a feature collection payload. Display names must
// be unique; a duplicate rejects the whole payload.
func DecodeCollection(data []byte) ([]*Feature, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("invalid feature collection: %w", err)
	}
	if fc.Type != "FeatureCollection" {
		return nil, fmt.Errorf("invalid feature collection: type %q", fc.Type)
	}

	features := make([]*Feature, 0, len(fc.Features))
	seen := make(map[string]struct{}, len(fc.Features))
	for i, gf := range fc.Features {
		f, err := FromGeoJSON(gf)
		if err != nil {
			return nil, fmt.Errorf("feature %d: %w", i, err)
		}
		if _, dup := seen[f.Name]; dup {
			return nil, fmt.Errorf("%w: %q", core.ErrDuplicateID, f.Name)
		}
		seen[f.Name] = struct{}{}
		features = append(features, f)
	}

	return features, nil
}

// EncodeCollection renders features as a feature collection
func EncodeCollection(features []*Feature) ([]byte, error) {
	fc := geojson.NewFeatureCollection()
	for _, f := range features {
		fc.Append(f.GeoJSON())
	}
	return json.Marshal(fc)
}
