package poi

import (
	"errors"
	"testing"

	"wisatamap/internal/core"

	"github.com/paulmach/orb"
)

const sampleCollection = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature", "geometry": {"type": "Point", "coordinates": [105.2610, -5.4295]},
     "properties": {"geometry_type": "Point", "nama_objek": "Taman Kota", "jenis_obje": "Taman", "alamat": "Jl. Ahmad Yani", "deskripsi": "Taman kota"}},
    {"type": "Feature", "geometry": {"type": "MultiPolygon", "coordinates": [[[[105.0, -5.0], [105.1, -5.0], [105.1, -5.1], [105.0, -5.0]]]]},
     "properties": {"nama_objek": "Museum Lampung", "jenis_obje": "Museum", "alamat": "Jl. ZA Pagar Alam", "deskripsi": ""}}
  ]
}`

func TestDecodeCollection(t *testing.T) {
	features, err := DecodeCollection([]byte(sampleCollection))
	if err != nil {
		t.Fatalf("DecodeCollection() error = %v", err)
	}
	if len(features) != 2 {
		t.Fatalf("got %d features, want 2", len(features))
	}

	park := features[0]
	if park.Kind != KindPoint || park.Location != (orb.Point{105.2610, -5.4295}) {
		t.Errorf("park = %+v", park)
	}
	if park.Address != "Jl. Ahmad Yani" {
		t.Errorf("address = %q", park.Address)
	}

	museum := features[1]
	if museum.Kind != KindPolygon || !museum.HasArea() {
		t.Fatalf("museum kind = %v", museum.Kind)
	}
	if !museum.Area[0].Closed() || len(museum.Area[0]) != 4 {
		t.Errorf("museum ring = %v", museum.Area[0])
	}
}

func TestDecodeCollectionKeepsPaddedNames(t *testing.T) {
	payload := `{"type":"FeatureCollection","features":[
	  {"type":"Feature","geometry":{"type":"Point","coordinates":[1,1]},"properties":{"nama_objek":"Pantai Klara   ","jenis_obje":"Pantai "}}
	]}`
	features, err := DecodeCollection([]byte(payload))
	if err != nil {
		t.Fatal(err)
	}
	if got := features[0].ID(); got != "Pantai Klara   " {
		t.Errorf("ID() = %q, want the backend key unchanged", got)
	}
}

func TestDecodeCollectionDuplicate(t *testing.T) {
	payload := `{"type":"FeatureCollection","features":[
	  {"type":"Feature","geometry":{"type":"Point","coordinates":[1,1]},"properties":{"nama_objek":"A"}},
	  {"type":"Feature","geometry":{"type":"Point","coordinates":[2,2]},"properties":{"nama_objek":"A"}}]}`

	_, err := DecodeCollection([]byte(payload))
	if !errors.Is(err, core.ErrDuplicateID) {
		t.Fatalf("error = %v, want ErrDuplicateID", err)
	}
}

func TestDecodeCollectionInvalid(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"not json", `<html>`},
		{"wrong type", `{"type":"Feature"}`},
		{"missing name", `{"type":"FeatureCollection","features":[{"type":"Feature","geometry":{"type":"Point","coordinates":[1,1]},"properties":{}}]}`},
		{"line geometry", `{"type":"FeatureCollection","features":[{"type":"Feature","geometry":{"type":"LineString","coordinates":[[1,1],[2,2]]},"properties":{"nama_objek":"Jalan"}}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := DecodeCollection([]byte(tt.payload)); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestEncodeDecodeKeepsOrderAndKinds(t *testing.T) {
	in := []*Feature{
		NewPoint(Attributes{Name: "Pantai Mutun", Category: "Pantai"}, orb.Point{105.25, -5.51}),
		NewArea(Attributes{Name: "Tahura", Category: "Hutan"}, []orb.Point{{0, 0}, {1, 0}, {1, 1}}),
	}

	data, err := EncodeCollection(in)
	if err != nil {
		t.Fatal(err)
	}
	out, err := DecodeCollection(data)
	if err != nil {
		t.Fatal(err)
	}

	if out[0].Name != "Pantai Mutun" || out[1].Name != "Tahura" {
		t.Errorf("order lost: %s, %s", out[0].Name, out[1].Name)
	}
	if out[1].Kind != KindPolygon || out[1].Location != in[1].Location {
		t.Errorf("area round trip = %+v", out[1])
	}
}
