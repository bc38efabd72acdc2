package poi

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
)

func TestNewAreaClosesRing(t *testing.T) {
	vertices := []orb.Point{{0, 0}, {1, 0}, {1, 1}}
	f := NewArea(Attributes{Name: "Alun-alun", Category: "Taman"}, vertices)

	want := orb.Ring{{0, 0}, {1, 0}, {1, 1}, {0, 0}}
	if !f.Area[0].Equal(want) {
		t.Fatalf("ring = %v, want %v", f.Area[0], want)
	}
	if len(vertices) != 3 {
		t.Errorf("input vertices modified: %v", vertices)
	}

	if math.Abs(f.Location[0]-2.0/3.0) > 1e-9 || math.Abs(f.Location[1]-1.0/3.0) > 1e-9 {
		t.Errorf("centroid = %v, want [0.667 0.333]", f.Location)
	}
}

func TestCloseRingAlreadyClosed(t *testing.T) {
	ring := CloseRing([]orb.Point{{0, 0}, {2, 0}, {2, 2}, {0, 0}})
	if len(ring) != 4 {
		t.Errorf("closed ring grew to %d points", len(ring))
	}
}

func TestCentroidEmpty(t *testing.T) {
	if c := Centroid(nil); c != (orb.Point{}) {
		t.Errorf("Centroid(nil) = %v", c)
	}
}

func TestAttributesTrimmed(t *testing.T) {
	a := Attributes{Name: "  Taman Kota ", Category: "Taman\n"}.Trimmed()
	if a.Name != "Taman Kota" || a.Category != "Taman" {
		t.Errorf("attributes not trimmed: %+v", a)
	}
}

func TestFeatureKeepsNameAsGiven(t *testing.T) {
	f := NewPoint(Attributes{Name: "Taman Kota  ", Category: "Taman "}, orb.Point{105.26, -5.43})
	if f.ID() != "Taman Kota  " || f.Category != "Taman " {
		t.Errorf("attributes changed: %+v", f.Attributes())
	}
	if f.HasArea() {
		t.Error("point reports an area")
	}
}

func TestPositionString(t *testing.T) {
	f := NewPoint(Attributes{Name: "Tugu Adipura"}, orb.Point{105.2610, -5.4295})
	if got, want := f.PositionString(), "5.42950*S, 105.26100*E"; got != want {
		t.Errorf("PositionString() = %q, want %q", got, want)
	}
}

func TestCloneIsDeep(t *testing.T) {
	f := NewArea(Attributes{Name: "Pantai"}, []orb.Point{{0, 0}, {1, 0}, {1, 1}})
	c := f.Clone()
	c.Area[0][0] = orb.Point{9, 9}
	if f.Area[0][0] != (orb.Point{0, 0}) {
		t.Error("Clone shares ring storage")
	}
}
