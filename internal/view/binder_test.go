package view

import (
	"context"
	"testing"

	"wisatamap/internal/core"
	"wisatamap/internal/edit"
	"wisatamap/internal/events"
	"wisatamap/internal/filter"
	"wisatamap/internal/poi"
	"wisatamap/internal/routing"
	"wisatamap/internal/search"
	"wisatamap/internal/selection"

	"github.com/paulmach/orb"
)

type fakeView struct{ center orb.Point }

func (v *fakeView) Center() orb.Point               { return v.center }
func (v *fakeView) FitBound(orb.Bound)              {}
func (v *fakeView) CenterOn(p orb.Point, _ float64) { v.center = p }

type nopBackend struct{}

func (nopBackend) AddPoint(context.Context, *poi.Feature) error     { return nil }
func (nopBackend) AddPolygon(context.Context, *poi.Feature) error   { return nil }
func (nopBackend) Edit(context.Context, string, *poi.Feature) error { return nil }
func (nopBackend) Delete(context.Context, string) error             { return nil }

func setup(t *testing.T) (*Binder, Sources, *core.Context) {
	t.Helper()
	c := core.NewContext(&fakeView{center: orb.Point{105.26, -5.43}}, nil)
	store := poi.NewStore(c)
	f := filter.New(c, store)
	sel := selection.New(c, store)
	src := Sources{
		Store:     store,
		Filter:    f,
		Search:    search.NewPanel(c, search.NewIndex(store), f, sel, 8),
		Selection: sel,
		Routes:    routing.NewSession(c, store, routing.StraightLine{}, nil, true),
		Edit:      edit.New(c, store, nopBackend{}),
	}
	b := NewBinder(c, src)

	features := []*poi.Feature{
		poi.NewPoint(poi.Attributes{Name: "Taman Kota", Category: "Taman"}, orb.Point{105.26, -5.42}),
		poi.NewPoint(poi.Attributes{Name: "Museum Lampung", Category: "Museum"}, orb.Point{105.24, -5.38}),
		poi.NewArea(poi.Attributes{Name: "Taman Hutan Raya", Category: "Taman"},
			[]orb.Point{{105.1, -5.4}, {105.2, -5.4}, {105.2, -5.3}}),
	}
	load := poi.SourceFunc(func(context.Context) ([]*poi.Feature, error) { return features, nil })
	if err := store.Load(context.Background(), load); err != nil {
		t.Fatal(err)
	}
	return b, src, c
}

func TestSurfaceString(t *testing.T) {
	s := SurfaceMarkers | SurfaceSidebar
	if s.String() != "markers|sidebar" {
		t.Errorf("String() = %q", s.String())
	}
	if !SurfaceAll.Has(SurfaceNotice) || SurfaceNone.String() != "none" {
		t.Error("SurfaceAll / SurfaceNone wrong")
	}
}

func TestOnlyAffectedSurfacesAreDirty(t *testing.T) {
	b, src, _ := setup(t)
	b.TakeDirty()

	tests := []struct {
		name string
		act  func()
		want Surface
		not  Surface
	}{
		{"suggestions", func() { src.Search.Dismiss(); src.Search.Input("ta") }, SurfaceSuggestions, SurfaceRoute | SurfaceDraft},
		{"selection", func() { _ = src.Selection.Focus("Museum Lampung") }, SurfacePopup | SurfacePolygons, SurfaceRoute | SurfaceSuggestions},
		{"draft", func() { _ = src.Edit.ActivatePoint() }, SurfaceDraft, SurfaceSidebar | SurfacePopup},
		{"route", func() { _ = src.Routes.Request(context.Background(), "Museum Lampung") }, SurfaceRoute | SurfaceMarkers, SurfaceSuggestions},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b.TakeDirty()
			tt.act()
			got := b.TakeDirty()
			if !got.Has(tt.want) {
				t.Errorf("dirty = %v, want %v set", got, tt.want)
			}
			if got&tt.not != 0 {
				t.Errorf("dirty = %v, want %v clear", got, tt.not)
			}
		})
	}

	if b.TakeDirty() != SurfaceNone {
		t.Error("TakeDirty did not clear")
	}
}

func TestModelFollowsFilter(t *testing.T) {
	b, src, _ := setup(t)

	src.Filter.SetCategory("Museum")
	m := b.Model()
	if len(m.Markers) != 1 || m.Markers[0].ID != "Museum Lampung" {
		t.Errorf("markers = %+v", m.Markers)
	}
	if len(m.Sidebar.Items) != 1 {
		t.Errorf("sidebar items = %+v", m.Sidebar.Items)
	}
	if m.Sidebar.Categories[0].Label != AllLabel || m.Sidebar.Categories[0].Count != 3 {
		t.Errorf("first category row = %+v", m.Sidebar.Categories[0])
	}
	var active string
	for _, c := range m.Sidebar.Categories {
		if c.Active {
			active = c.Name
		}
	}
	if active != "Museum" {
		t.Errorf("active category row = %q", active)
	}

	src.Filter.SetCategory(filter.All)
	if m := b.Model(); len(m.Markers) != 3 || m.Status != "3/3 objek ditampilkan" {
		t.Errorf("after 'all': %d markers, status %q", len(m.Markers), m.Status)
	}
}

func TestModelSelection(t *testing.T) {
	b, src, _ := setup(t)

	if m := b.Model(); m.Popup != nil || len(m.Polygons) != 0 {
		t.Fatal("popup or polygon shown while idle")
	}

	_ = src.Selection.Focus("Taman Hutan Raya")
	m := b.Model()
	if m.Popup == nil || m.Popup.Title != "Taman Hutan Raya" {
		t.Fatalf("popup = %+v", m.Popup)
	}
	if len(m.Polygons) != 1 || len(m.Polygons[0].Ring) != 4 {
		t.Errorf("polygons = %+v", m.Polygons)
	}

	_ = src.Selection.Focus("Taman Kota")
	if m := b.Model(); len(m.Polygons) != 0 {
		t.Error("previous polygon still highlighted")
	}

	_ = src.Selection.Focus("Taman Hutan Raya")
	src.Store.Remove("Taman Hutan Raya")
	if m := b.Model(); m.Popup != nil || len(m.Polygons) != 0 {
		t.Error("deleted feature still highlighted")
	}
}

func TestModelRouteDeclutter(t *testing.T) {
	b, src, _ := setup(t)

	if err := src.Routes.Request(context.Background(), "Museum Lampung"); err != nil {
		t.Fatal(err)
	}
	m := b.Model()
	if len(m.Markers) != 1 || m.Markers[0].ID != "Museum Lampung" {
		t.Errorf("markers during route = %+v", m.Markers)
	}
	if m.Route == nil || !m.Route.FromCenter || len(m.Route.Path) != 2 {
		t.Errorf("route overlay = %+v", m.Route)
	}

	src.Routes.Clear()
	if m := b.Model(); len(m.Markers) != 3 || m.Route != nil {
		t.Error("markers not restored after clearing the route")
	}
}

func TestNotice(t *testing.T) {
	b, _, c := setup(t)

	c.Notify(events.LevelError, "Could not find a route to the destination.")
	n, ok := b.Notice()
	if !ok || n.Level != events.LevelError {
		t.Fatalf("Notice() = %+v, %v", n, ok)
	}
	if m := b.Model(); m.Notice == nil {
		t.Error("model has no notice")
	}

	b.DismissNotice()
	if _, ok := b.Notice(); ok {
		t.Error("notice not dismissed")
	}
}

func TestClose(t *testing.T) {
	b, src, _ := setup(t)
	b.Close()
	b.TakeDirty()

	src.Filter.SetCategory("Taman")
	if b.TakeDirty() != SurfaceNone {
		t.Error("closed binder still receives events")
	}
}
