package poi

import (
	"testing"

	"github.com/paulmach/orb"
)

func TestHitIndexAt(t *testing.T) {
	features := []*Feature{
		NewPoint(Attributes{Name: "A"}, orb.Point{1, 1}),
		NewPoint(Attributes{Name: "B"}, orb.Point{1.2, 1.2}),
		NewArea(Attributes{Name: "Big"}, []orb.Point{{0, 0}, {10, 0}, {10, 10}, {0, 10}}),
		NewArea(Attributes{Name: "Small"}, []orb.Point{{6, 6}, {8, 6}, {8, 8}, {6, 8}}),
	}
	h := NewHitIndex(features)

	tests := []struct {
		name   string
		bound  orb.Bound
		want   string
		wantOK bool
	}{
		{"nearest marker wins", orb.Bound{Min: orb.Point{0.95, 0.95}, Max: orb.Point{1.35, 1.35}}, "B", true},
		{"exact marker", orb.Bound{Min: orb.Point{0.95, 0.95}, Max: orb.Point{1.05, 1.05}}, "A", true},
		{"smallest area", orb.Bound{Min: orb.Point{6.9, 6.9}, Max: orb.Point{7.1, 7.1}}, "Small", true},
		{"outer area", orb.Bound{Min: orb.Point{2.9, 8.9}, Max: orb.Point{3.1, 9.1}}, "Big", true},
		{"nothing", orb.Bound{Min: orb.Point{20, 20}, Max: orb.Point{21, 21}}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := h.At(tt.bound, nil)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("At() = %q, %v; want %q, %v", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestHitIndexAtSkipsFiltered(t *testing.T) {
	h := NewHitIndex([]*Feature{
		NewPoint(Attributes{Name: "A"}, orb.Point{1, 1}),
		NewPoint(Attributes{Name: "B"}, orb.Point{1.2, 1.2}),
		NewArea(Attributes{Name: "Big"}, []orb.Point{{0, 0}, {10, 0}, {10, 10}, {0, 10}}),
	})
	if h.Len() != 3 {
		t.Errorf("Len() = %d", h.Len())
	}
	b := orb.Bound{Min: orb.Point{0.95, 0.95}, Max: orb.Point{1.05, 1.05}}

	if got, _ := h.At(b, func(id string) bool { return id != "A" }); got != "Big" {
		t.Errorf("At() without A = %q, want the enclosing area", got)
	}
	if got, ok := h.At(b, func(string) bool { return false }); ok {
		t.Errorf("At() with nothing kept = %q", got)
	}
}
