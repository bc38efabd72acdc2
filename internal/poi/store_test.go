package poi

import (
	"context"
	"errors"
	"testing"

	"wisatamap/internal/core"
	"wisatamap/internal/events"

	"github.com/paulmach/orb"
)

func newTestStore(t *testing.T) (*Store, *[]events.FeaturesChanged) {
	t.Helper()
	c := core.NewContext(nil, nil)
	var changes []events.FeaturesChanged
	events.On(c.Bus, func(ev events.FeaturesChanged) { changes = append(changes, ev) })
	return NewStore(c), &changes
}

func staticSource(features ...*Feature) Source {
	return SourceFunc(func(context.Context) ([]*Feature, error) {
		return features, nil
	})
}

func lampungSet() []*Feature {
	return []*Feature{
		NewPoint(Attributes{Name: "Taman Kota", Category: "Taman"}, orb.Point{105.26, -5.42}),
		NewPoint(Attributes{Name: "Museum Lampung", Category: "Museum"}, orb.Point{105.24, -5.38}),
		NewPoint(Attributes{Name: "Taman Gajah", Category: "Taman"}, orb.Point{105.25, -5.40}),
	}
}

func TestStoreLoad(t *testing.T) {
	s, changes := newTestStore(t)

	if err := s.Load(context.Background(), staticSource(lampungSet()...)); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if s.Count() != 3 {
		t.Errorf("Count() = %d, want 3", s.Count())
	}
	all := s.GetAll()
	if all[0].Name != "Taman Kota" || all[2].Name != "Taman Gajah" {
		t.Errorf("load order not kept: %s .. %s", all[0].Name, all[2].Name)
	}
	cats := s.Categories()
	if len(cats) != 2 || cats[0] != "Taman" || cats[1] != "Museum" {
		t.Errorf("Categories() = %v", cats)
	}
	if len(*changes) != 1 || (*changes)[0].Reason != events.ReasonReload {
		t.Errorf("changes = %+v", *changes)
	}
}

func TestStoreLoadFailureKeepsPrevious(t *testing.T) {
	s, changes := newTestStore(t)
	_ = s.Load(context.Background(), staticSource(lampungSet()...))

	failing := SourceFunc(func(context.Context) ([]*Feature, error) {
		return nil, errors.New("connection refused")
	})
	err := s.Load(context.Background(), failing)

	var fe *core.FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("error = %v, want FetchError", err)
	}
	if s.Count() != 3 {
		t.Errorf("previous set lost, Count() = %d", s.Count())
	}
	if len(*changes) != 1 {
		t.Errorf("failed load published %d events", len(*changes)-1)
	}
}

func TestStoreLoadRejectsDuplicates(t *testing.T) {
	s, _ := newTestStore(t)
	dup := append(lampungSet(), NewPoint(Attributes{Name: "Taman Kota"}, orb.Point{1, 1}))

	err := s.Load(context.Background(), staticSource(dup...))
	if !errors.Is(err, core.ErrDuplicateID) {
		t.Fatalf("error = %v, want ErrDuplicateID", err)
	}
	if s.Count() != 0 {
		t.Errorf("duplicate payload partially applied: %d features", s.Count())
	}
}

func TestStoreLoadReportsRemoved(t *testing.T) {
	s, changes := newTestStore(t)
	_ = s.Load(context.Background(), staticSource(lampungSet()...))
	_ = s.Load(context.Background(), staticSource(lampungSet()[:1]...))

	last := (*changes)[len(*changes)-1]
	if len(last.Removed) != 2 {
		t.Errorf("Removed = %v, want 2 ids", last.Removed)
	}
}

func TestStoreLateLoadIsDiscarded(t *testing.T) {
	s, _ := newTestStore(t)

	release := make(chan struct{})
	started := make(chan struct{})
	slow := SourceFunc(func(context.Context) ([]*Feature, error) {
		close(started)
		<-release
		return lampungSet()[:1], nil
	})

	done := make(chan error)
	go func() { done <- s.Load(context.Background(), slow) }()
	<-started

	if err := s.Load(context.Background(), staticSource(lampungSet()...)); err != nil {
		t.Fatal(err)
	}
	close(release)

	if err := <-done; !errors.Is(err, core.ErrSuperseded) {
		t.Fatalf("late load error = %v, want ErrSuperseded", err)
	}
	if s.Count() != 3 {
		t.Errorf("late response overwrote newer state: Count() = %d", s.Count())
	}
}

func TestStoreLoadStartedBeforeMutationIsDiscarded(t *testing.T) {
	s, _ := newTestStore(t)

	release := make(chan struct{})
	started := make(chan struct{})
	slow := SourceFunc(func(context.Context) ([]*Feature, error) {
		close(started)
		<-release
		return nil, nil
	})

	done := make(chan error)
	go func() { done <- s.Load(context.Background(), slow) }()
	<-started

	_ = s.Upsert(NewPoint(Attributes{Name: "Pantai Sari Ringgung"}, orb.Point{105.2, -5.6}))
	close(release)

	if err := <-done; !errors.Is(err, core.ErrSuperseded) {
		t.Fatalf("error = %v, want ErrSuperseded", err)
	}
	if _, ok := s.Get("Pantai Sari Ringgung"); !ok {
		t.Error("upserted feature lost")
	}
}

func TestStoreUpsertAndRemove(t *testing.T) {
	s, changes := newTestStore(t)
	_ = s.Load(context.Background(), staticSource(lampungSet()...))

	updated := NewPoint(Attributes{Name: "Taman Kota", Category: "Ruang Terbuka"}, orb.Point{105.26, -5.42})
	if err := s.Upsert(updated); err != nil {
		t.Fatal(err)
	}
	if f, _ := s.Get("Taman Kota"); f.Category != "Ruang Terbuka" {
		t.Errorf("upsert did not replace: %+v", f)
	}
	if s.Count() != 3 {
		t.Errorf("upsert of existing id changed count to %d", s.Count())
	}

	if !s.Remove("Museum Lampung") {
		t.Fatal("Remove() = false")
	}
	if s.Remove("Museum Lampung") {
		t.Error("second Remove() = true")
	}
	if _, ok := s.Get("Museum Lampung"); ok {
		t.Error("removed feature still present")
	}

	last := (*changes)[len(*changes)-1]
	if last.Reason != events.ReasonRemove || last.Removed[0] != "Museum Lampung" {
		t.Errorf("last change = %+v", last)
	}
}

func TestStoreReplaceRename(t *testing.T) {
	s, changes := newTestStore(t)
	_ = s.Load(context.Background(), staticSource(lampungSet()...))

	renamed := NewPoint(Attributes{Name: "Museum Ruwa Jurai", Category: "Museum"}, orb.Point{105.24, -5.38})
	if err := s.Replace("Museum Lampung", renamed); err != nil {
		t.Fatal(err)
	}

	all := s.GetAll()
	if all[1].Name != "Museum Ruwa Jurai" {
		t.Errorf("rename moved the feature: %s", all[1].Name)
	}
	last := (*changes)[len(*changes)-1]
	if last.Reason != events.ReasonRename || last.Renamed["Museum Lampung"] != "Museum Ruwa Jurai" {
		t.Errorf("last change = %+v", last)
	}

	clash := NewPoint(Attributes{Name: "Taman Kota"}, orb.Point{})
	if err := s.Replace("Taman Gajah", clash); !errors.Is(err, core.ErrDuplicateID) {
		t.Errorf("rename onto existing name error = %v", err)
	}
	if err := s.Replace("Nope", clash); !errors.Is(err, core.ErrUnknownFeature) {
		t.Errorf("replace unknown error = %v", err)
	}
}
