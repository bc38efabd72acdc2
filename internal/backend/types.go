package backend

import (
	"wisatamap/internal/poi"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Endpoint paths
const (
	PathFeatures = "/get_geojson_data"
	PathAddPoint = "/add_point"
	PathAddArea  = "/add_polygon"
	PathEdit     = "/edit_data"
	PathDelete   = "/delete_data"
	PathChanges  = "/changes"
)

// Properties are the attribute columns sent with every create and edit
type Properties struct {
	Name        string `json:"nama_objek"`
	Category    string `json:"jenis_obje"`
	Address     string `json:"alamat"`
	Description string `json:"deskripsi"`
}

// PropertiesOf extracts the wire attributes of a feature
func PropertiesOf(f *poi.Feature) Properties {
	return Properties{
		Name:        f.Name,
		Category:    f.Category,
		Address:     f.Address,
		Description: f.Description,
	}
}

// Attributes converts back to the feature attributes
func (p Properties) Attributes() poi.Attributes {
	return poi.Attributes{
		Name:        p.Name,
		Category:    p.Category,
		Address:     p.Address,
		Description: p.Description,
	}
}

// AddPointRequest is the body of POST /add_point
type AddPointRequest struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Properties
}

// AddPolygonRequest is the body of POST /add_polygon. Polygon holds
// [lng, lat] pairs with the ring closed.
type AddPolygonRequest struct {
	Polygon  [][][2]float64 `json:"polygon"`
	Centroid [2]float64     `json:"centroid"`
	Properties
}

// EditRequest is the body of POST /edit_data
type EditRequest struct {
	Name          string            `json:"nama_objek"`
	NewProperties Properties        `json:"newProperties"`
	NewGeometry   *geojson.Geometry `json:"newGeometry,omitempty"`
}

// DeleteRequest is the body of POST /delete_data
type DeleteRequest struct {
	Name string `json:"nama_objek"`
}

// Result is the answer to every mutation
type Result struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Change kinds broadcast on the change feed
const (
	ChangeAdded   = "added"
	ChangeEdited  = "edited"
	ChangeDeleted = "deleted"
)

// ChangeMessage is one message on the /changes websocket
type ChangeMessage struct {
	Type    string `json:"type"`
	Name    string `json:"nama_objek"`
	NewName string `json:"new_nama_objek,omitempty"`
}

// NewAddPolygonRequest builds the polygon body from an area feature
func NewAddPolygonRequest(f *poi.Feature) AddPolygonRequest {
	req := AddPolygonRequest{
		Centroid:   [2]float64{f.Location.Lon(), f.Location.Lat()},
		Properties: PropertiesOf(f),
	}
	for _, ring := range f.Area {
		pts := make([][2]float64, 0, len(ring))
		for _, p := range ring {
			pts = append(pts, [2]float64{p.Lon(), p.Lat()})
		}
		req.Polygon = append(req.Polygon, pts)
	}
	return req
}

// Ring returns the outer ring of the request as points
func (r AddPolygonRequest) Ring() []orb.Point {
	if len(r.Polygon) == 0 {
		return nil
	}
	pts := make([]orb.Point, 0, len(r.Polygon[0]))
	for _, p := range r.Polygon[0] {
		pts = append(pts, orb.Point{p[0], p[1]})
	}
	return pts
}
