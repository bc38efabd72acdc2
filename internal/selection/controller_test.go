package selection

import (
	"context"
	"errors"
	"testing"

	"wisatamap/internal/core"
	"wisatamap/internal/events"
	"wisatamap/internal/poi"

	"github.com/paulmach/orb"
)

type fakeView struct {
	center  orb.Point
	fitted  []orb.Bound
	centers []orb.Point
}

func (v *fakeView) Center() orb.Point               { return v.center }
func (v *fakeView) FitBound(b orb.Bound)            { v.fitted = append(v.fitted, b) }
func (v *fakeView) CenterOn(p orb.Point, _ float64) { v.centers = append(v.centers, p) }

func setup(t *testing.T) (*Controller, *poi.Store, *fakeView, *[]events.SelectionChanged) {
	t.Helper()
	view := &fakeView{}
	c := core.NewContext(view, nil)
	store := poi.NewStore(c)
	ctl := New(c, store)

	var seen []events.SelectionChanged
	events.On(c.Bus, func(ev events.SelectionChanged) { seen = append(seen, ev) })

	features := []*poi.Feature{
		poi.NewPoint(poi.Attributes{Name: "Menara Siger", Category: "Monumen"}, orb.Point{105.82, -5.86}),
		poi.NewArea(poi.Attributes{Name: "Taman Nasional Way Kambas", Category: "Taman"},
			[]orb.Point{{105.7, -5.1}, {105.9, -5.1}, {105.9, -4.9}, {105.7, -4.9}}),
	}
	src := poi.SourceFunc(func(context.Context) ([]*poi.Feature, error) { return features, nil })
	if err := store.Load(context.Background(), src); err != nil {
		t.Fatal(err)
	}
	return ctl, store, view, &seen
}

func TestFocusPoint(t *testing.T) {
	ctl, _, view, seen := setup(t)

	if err := ctl.Focus("Menara Siger"); err != nil {
		t.Fatal(err)
	}
	if ctl.State() != Focused {
		t.Errorf("State() = %v", ctl.State())
	}
	if len(view.centers) != 1 || view.centers[0] != (orb.Point{105.82, -5.86}) {
		t.Errorf("CenterOn calls = %v", view.centers)
	}
	if len(view.fitted) != 0 {
		t.Error("point focus fitted a bound")
	}
	if len(*seen) != 1 || (*seen)[0] != (events.SelectionChanged{Current: "Menara Siger"}) {
		t.Errorf("events = %+v", *seen)
	}
}

func TestFocusAreaFitsBound(t *testing.T) {
	ctl, _, view, _ := setup(t)

	if err := ctl.Focus("Taman Nasional Way Kambas"); err != nil {
		t.Fatal(err)
	}
	if len(view.fitted) != 1 {
		t.Fatalf("FitBound calls = %d", len(view.fitted))
	}
	want := orb.Bound{Min: orb.Point{105.7, -5.1}, Max: orb.Point{105.9, -4.9}}
	if view.fitted[0] != want {
		t.Errorf("fitted %v, want %v", view.fitted[0], want)
	}
}

func TestFocusSwitchHasNoIdleFrame(t *testing.T) {
	ctl, _, _, seen := setup(t)

	_ = ctl.Focus("Menara Siger")
	_ = ctl.Focus("Taman Nasional Way Kambas")

	if len(*seen) != 2 {
		t.Fatalf("events = %+v", *seen)
	}
	want := events.SelectionChanged{Previous: "Menara Siger", Current: "Taman Nasional Way Kambas"}
	if (*seen)[1] != want {
		t.Errorf("switch event = %+v, want %+v", (*seen)[1], want)
	}
}

func TestFocusUnknown(t *testing.T) {
	ctl, _, _, _ := setup(t)
	if err := ctl.Focus("Gunung Anak Krakatau"); !errors.Is(err, core.ErrUnknownFeature) {
		t.Errorf("error = %v", err)
	}
	if ctl.State() != Idle {
		t.Error("failed focus left the controller focused")
	}
}

func TestClose(t *testing.T) {
	ctl, _, _, seen := setup(t)

	ctl.Close()
	if len(*seen) != 0 {
		t.Error("closing while idle published an event")
	}

	_ = ctl.Focus("Menara Siger")
	ctl.Close()
	if _, ok := ctl.Current(); ok {
		t.Error("still focused after Close")
	}
	last := (*seen)[len(*seen)-1]
	if last.Previous != "Menara Siger" || last.Current != "" {
		t.Errorf("close event = %+v", last)
	}
}

func TestDeletingFocusedFeature(t *testing.T) {
	ctl, store, _, seen := setup(t)
	_ = ctl.Focus("Taman Nasional Way Kambas")

	store.Remove("Menara Siger")
	if ctl.State() != Focused {
		t.Fatal("deleting another feature cleared the selection")
	}

	store.Remove("Taman Nasional Way Kambas")
	if ctl.State() != Idle {
		t.Error("selection survived deletion of its feature")
	}
	last := (*seen)[len(*seen)-1]
	if last.Previous != "Taman Nasional Way Kambas" || last.Current != "" {
		t.Errorf("last event = %+v", last)
	}
}

func TestRenameFollowsSelection(t *testing.T) {
	ctl, store, _, _ := setup(t)
	_ = ctl.Focus("Menara Siger")

	renamed := poi.NewPoint(poi.Attributes{Name: "Siger Tower", Category: "Monumen"}, orb.Point{105.82, -5.86})
	if err := store.Replace("Menara Siger", renamed); err != nil {
		t.Fatal(err)
	}
	if id, _ := ctl.Current(); id != "Siger Tower" {
		t.Errorf("Current() = %q after rename", id)
	}
}
