package poi

import (
	"fmt"
	"strings"

	"github.com/paulmach/orb"
)

// Kind is the geometry type of a feature
type Kind int

const (
	KindPoint Kind = iota
	KindPolygon
)

// String returns the GeoJSON geometry type name
func (k Kind) String() string {
	switch k {
	case KindPoint:
		return "Point"
	case KindPolygon:
		return "Polygon"
	default:
		return "Unknown"
	}
}

// Attributes are the user-editable fields of a feature
type Attributes struct {
	Name        string
	Category    string
	Address     string
	Description string
}

// Trimmed strips surrounding whitespace from typed input
func (a Attributes) Trimmed() Attributes {
	return Attributes{
		Name:        strings.TrimSpace(a.Name),
		Category:    strings.TrimSpace(a.Category),
		Address:     strings.TrimSpace(a.Address),
		Description: strings.TrimSpace(a.Description),
	}
}

// Feature is a single point-of-interest record. Features held by a Store are
// shared and must be treated as read-only; mutations go through the Store.
type Feature struct {
	Name        string      // Display name, unique within a feature set
	Kind        Kind        // Point or Polygon
	Location    orb.Point   // Marker position; vertex mean for areas
	Area        orb.Polygon // Outer ring closed; nil for points
	Category    string
	Address     string
	Description string
}

// NewPoint creates a point feature
func NewPoint(attrs Attributes, p orb.Point) *Feature {
	f := &Feature{
		Kind:     KindPoint,
		Location: p,
	}
	f.SetAttributes(attrs)
	return f
}

// NewArea creates a polygon feature from its outline. The ring is closed if
// needed and the marker is placed at the mean of the distinct vertices.
func NewArea(attrs Attributes, vertices []orb.Point) *Feature {
	ring := CloseRing(vertices)
	f := &Feature{
		Kind: KindPolygon,
		Area: orb.Polygon{ring},
	}
	if len(ring) > 1 {
		f.Location = Centroid(ring[:len(ring)-1])
	}
	f.SetAttributes(attrs)
	return f
}

// ID returns the feature's key. The display name doubles as the natural key
// at the backend boundary.
func (f *Feature) ID() string {
	return f.Name
}

// SetAttributes overwrites the editable fields as given. Names decoded from
// the backend are its keys and must round-trip unchanged.
func (f *Feature) SetAttributes(a Attributes) {
	f.Name = a.Name
	f.Category = a.Category
	f.Address = a.Address
	f.Description = a.Description
}

// Attributes returns the editable fields
func (f *Feature) Attributes() Attributes {
	return Attributes{
		Name:        f.Name,
		Category:    f.Category,
		Address:     f.Address,
		Description: f.Description,
	}
}

// HasArea reports whether the feature has a polygon outline
func (f *Feature) HasArea() bool {
	return f.Kind == KindPolygon && len(f.Area) > 0 && len(f.Area[0]) > 0
}

// Geometry returns the feature's geometry as stored at the backend
func (f *Feature) Geometry() orb.Geometry {
	if f.HasArea() {
		return f.Area
	}
	return f.Location
}

// Bound returns the geographic extent of the feature
func (f *Feature) Bound() orb.Bound {
	if f.HasArea() {
		return f.Area.Bound()
	}
	return f.Location.Bound()
}

// Clone returns a deep copy
func (f *Feature) Clone() *Feature {
	c := *f
	if f.Area != nil {
		c.Area = f.Area.Clone()
	}
	return &c
}

// PositionString returns a formatted lat/lon string
func (f *Feature) PositionString() string {
	lat := f.Location.Lat()
	lon := f.Location.Lon()

	latDir := "N"
	if lat < 0 {
		latDir = "S"
		lat = -lat
	}

	lonDir := "E"
	if lon < 0 {
		lonDir = "W"
		lon = -lon
	}

	return fmt.Sprintf("%.5f*%s, %.5f*%s", lat, latDir, lon, lonDir)
}

// ListDisplay returns the sidebar line for the feature
// Format: "[+] Museum Lampung" for areas, "[·] Taman Kota" for points
func (f *Feature) ListDisplay() string {
	indicator := "[·]"
	if f.HasArea() {
		indicator = "[+]"
	}
	return indicator + " " + f.Name
}

// CloseRing returns the vertices as a ring whose last coordinate equals the
// first. The input is not modified.
func CloseRing(vertices []orb.Point) orb.Ring {
	ring := make(orb.Ring, len(vertices), len(vertices)+1)
	copy(ring, vertices)
	if len(ring) > 0 && !ring.Closed() {
		ring = append(ring, ring[0])
	}
	return ring
}

// Centroid returns the arithmetic mean of the vertices. This is not the
// area-weighted polygon centroid; the backend stores this value as-is.
func Centroid(vertices []orb.Point) orb.Point {
	if len(vertices) == 0 {
		return orb.Point{}
	}
	var x, y float64
	for _, v := range vertices {
		x += v[0]
		y += v[1]
	}
	n := float64(len(vertices))
	return orb.Point{x / n, y / n}
}
