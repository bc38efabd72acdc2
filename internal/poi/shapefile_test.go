package poi

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/jonas-p/go-shp"
	"github.com/paulmach/orb"
)

func writePointShapefile(t *testing.T, rows [][4]string, points []shp.Point) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pariwisata.shp")

	w, err := shp.Create(path, shp.POINT)
	if err != nil {
		t.Fatal(err)
	}
	fields := []shp.Field{
		shp.StringField(PropName, 64),
		shp.StringField(PropCategory, 32),
		shp.StringField(PropAddress, 64),
		shp.StringField(PropDescription, 128),
	}
	if err := w.SetFields(fields); err != nil {
		t.Fatal(err)
	}
	for i := range points {
		n := int(w.Write(&points[i]))
		for col, value := range rows[i] {
			if err := w.WriteAttribute(n, col, value); err != nil {
				t.Fatal(err)
			}
		}
	}
	w.Close()
	return path
}

func TestShapefileSource(t *testing.T) {
	path := writePointShapefile(t,
		[][4]string{
			{"Pantai Mutun", "Pantai", "Pesawaran", "Pantai berpasir putih"},
			{"", "Pantai", "", ""},
			{"Menara Siger", "Monumen", "Bakauheni", ""},
		},
		[]shp.Point{{X: 105.25, Y: -5.51}, {X: 1, Y: 1}, {X: 105.82, Y: -5.86}},
	)

	features, err := ShapefileSource{Path: path}.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if len(features) != 2 {
		t.Fatalf("got %d features, want 2 (unnamed row skipped)", len(features))
	}

	mutun := features[0]
	if mutun.Name != "Pantai Mutun" || mutun.Category != "Pantai" || mutun.Description != "Pantai berpasir putih" {
		t.Errorf("attributes = %+v", mutun.Attributes())
	}
	if mutun.Location != (orb.Point{105.25, -5.51}) {
		t.Errorf("location = %v", mutun.Location)
	}
}

func TestShapefileSourceMissingFile(t *testing.T) {
	_, err := ShapefileSource{Path: filepath.Join(t.TempDir(), "none.shp")}.Fetch(context.Background())
	if err == nil {
		t.Fatal("expected an error")
	}
}
