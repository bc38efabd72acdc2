package engine

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"wisatamap/internal/backend"
	"wisatamap/internal/cache"
	"wisatamap/internal/core"
	"wisatamap/internal/devserver"
	"wisatamap/internal/events"
	"wisatamap/internal/geo"
	"wisatamap/internal/poi"
	"wisatamap/internal/selection"

	"github.com/gin-gonic/gin"
	"github.com/paulmach/orb"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fixture struct {
	engine *Engine
	srv    *devserver.Server
	ts     *httptest.Server
	cache  *cache.Manager
}

func newFixture(t *testing.T, live bool) *fixture {
	t.Helper()
	srv := devserver.New(devserver.Sample())
	ts := httptest.NewServer(srv.Router())

	cm, err := cache.NewManager(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	e := New(Options{
		BackendURL: ts.URL,
		HTTPClient: ts.Client(),
		Cache:      cm,
		Live:       live,
		View:       geo.NewProjection(orb.Point{105.261, -5.4295}, 8, 80, 24, 2.0),
	})
	t.Cleanup(func() {
		e.Close()
		srv.Close()
		ts.Close()
	})
	return &fixture{engine: e, srv: srv, ts: ts, cache: cm}
}

func notice(t *testing.T, e *Engine) events.Notice {
	t.Helper()
	n, ok := e.View.Notice()
	if !ok {
		t.Fatal("no notice shown")
	}
	return n
}

func TestInitLoadsAndSnapshots(t *testing.T) {
	fx := newFixture(t, false)
	if err := fx.engine.Init(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := fx.engine.Store.Count(); got != fx.srv.Count() {
		t.Errorf("store holds %d features, want %d", got, fx.srv.Count())
	}
	if !fx.cache.HasSnapshot() {
		t.Error("snapshot not written after a successful load")
	}
	if _, ok := fx.engine.View.Notice(); ok {
		t.Error("notice shown after a clean start")
	}
}

func TestInitFallsBackToSnapshot(t *testing.T) {
	fx := newFixture(t, false)
	if err := fx.cache.SaveSnapshot(devserver.Sample()[:3]); err != nil {
		t.Fatal(err)
	}
	fx.ts.Close()

	if err := fx.engine.Init(context.Background()); err != nil {
		t.Fatalf("Init() = %v, want snapshot fallback", err)
	}
	if got := fx.engine.Store.Count(); got != 3 {
		t.Errorf("store holds %d features, want 3", got)
	}
	if n := notice(t, fx.engine); n.Level != events.LevelInfo || n.Message != msgCachedData {
		t.Errorf("notice = %+v", n)
	}
}

func TestInitWithoutBackendOrSnapshot(t *testing.T) {
	fx := newFixture(t, false)
	fx.ts.Close()

	err := fx.engine.Init(context.Background())
	var fe *core.FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("Init() = %v, want FetchError", err)
	}
	if n := notice(t, fx.engine); n.Level != events.LevelError {
		t.Errorf("notice = %+v", n)
	}
	if fx.engine.Store.Count() != 0 {
		t.Error("store populated after failed load")
	}
}

func TestSubmitCreatesAndFocuses(t *testing.T) {
	fx := newFixture(t, false)
	e := fx.engine
	if err := e.Init(context.Background()); err != nil {
		t.Fatal(err)
	}

	e.StartPoint()
	if !e.MapClick(orb.Point{105.2, -5.6}) {
		t.Fatal("map click not consumed in point mode")
	}
	attrs := poi.Attributes{Name: " Pantai Sari Ringgung ", Category: "Pantai"}
	if err := e.SubmitForm(context.Background(), attrs); err != nil {
		t.Fatal(err)
	}

	if _, ok := e.Store.Get("Pantai Sari Ringgung"); !ok {
		t.Fatal("new feature not in store")
	}
	if id, _ := e.Selection.Current(); id != "Pantai Sari Ringgung" {
		t.Errorf("focused = %q", id)
	}
	if e.Store.Count() != fx.srv.Count() {
		t.Errorf("store %d, server %d", e.Store.Count(), fx.srv.Count())
	}
}

func TestSubmitDuplicateShowsServerMessage(t *testing.T) {
	fx := newFixture(t, false)
	e := fx.engine
	if err := e.Init(context.Background()); err != nil {
		t.Fatal(err)
	}
	before := e.Store.Count()

	e.StartPoint()
	e.MapClick(orb.Point{105.2, -5.6})
	err := e.SubmitForm(context.Background(), poi.Attributes{Name: "Museum Lampung", Category: "Museum"})
	var rej *core.ServerRejection
	if !errors.As(err, &rej) {
		t.Fatalf("SubmitForm() = %v", err)
	}
	if n := notice(t, e); n.Message != "Error: duplicate name" {
		t.Errorf("notice = %q", n.Message)
	}
	if e.Store.Count() != before {
		t.Error("store changed after rejection")
	}
	d := e.Edit.Draft()
	if !d.FormOpen || d.Form.Name != "Museum Lampung" || d.Provisional != nil {
		t.Errorf("draft after failure = %+v", d)
	}
}

func TestMapClickOutsideDrawing(t *testing.T) {
	fx := newFixture(t, false)
	if fx.engine.MapClick(orb.Point{1, 1}) {
		t.Error("map click consumed while idle")
	}
	if fx.engine.CancelDraw() {
		t.Error("CancelDraw() reported a cancel while idle")
	}
	if _, ok := fx.engine.View.Notice(); ok {
		t.Error("idle actions produced a notice")
	}
}

func TestRouteFromCenterNotice(t *testing.T) {
	fx := newFixture(t, false)
	e := fx.engine
	if err := e.Init(context.Background()); err != nil {
		t.Fatal(err)
	}

	e.RouteTo(context.Background(), "Pantai Mutun")
	r, ok := e.Routes.Current()
	if !ok || !r.FromCenter || r.Route == nil {
		t.Fatalf("route = %+v, %v", r, ok)
	}
	if n := notice(t, e); n.Level != events.LevelInfo || n.Message != msgOriginFallback {
		t.Errorf("notice = %+v", n)
	}
}

func TestFeatureAtHonorsVisibility(t *testing.T) {
	fx := newFixture(t, false)
	e := fx.engine
	if err := e.Init(context.Background()); err != nil {
		t.Fatal(err)
	}
	tugu := orb.Bound{Min: orb.Point{105.2605, -5.4300}, Max: orb.Point{105.2615, -5.4290}}

	if id, _ := e.FeatureAt(tugu); id != "Tugu Adipura" {
		t.Fatalf("FeatureAt() = %q, want Tugu Adipura", id)
	}

	e.SelectCategory("Museum")
	if id, ok := e.FeatureAt(tugu); ok {
		t.Errorf("FeatureAt() = %q under a category filter", id)
	}

	e.SelectCategory("")
	e.RouteTo(context.Background(), "Pantai Mutun")
	if id, ok := e.FeatureAt(tugu); ok {
		t.Errorf("FeatureAt() = %q while routing elsewhere", id)
	}
	e.ClearRoute()
	if _, ok := e.FeatureAt(tugu); !ok {
		t.Error("marker not hittable after clearing the route")
	}
}

func TestRouteWithoutFallback(t *testing.T) {
	srv := devserver.New(devserver.Sample())
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()
	e := New(Options{BackendURL: ts.URL, NoFallback: true, View: geo.NewProjection(orb.Point{105.26, -5.43}, 8, 80, 24, 2)})
	defer e.Close()
	if err := e.Init(context.Background()); err != nil {
		t.Fatal(err)
	}

	e.RouteTo(context.Background(), "Pantai Mutun")
	if _, ok := e.Routes.Current(); ok {
		t.Error("route created without an origin")
	}
	if n := notice(t, e); n.Message != core.UserMessage(core.ErrOriginUnavailable) {
		t.Errorf("notice = %q", n.Message)
	}
}

func TestConfirmedDelete(t *testing.T) {
	fx := newFixture(t, false)
	e := fx.engine
	if err := e.Init(context.Background()); err != nil {
		t.Fatal(err)
	}
	e.Focus("Taman Gajah")

	e.RequestDelete("Taman Gajah")
	if id, ok := e.Edit.PendingDelete(); !ok || id != "Taman Gajah" {
		t.Fatalf("pending = %q, %v", id, ok)
	}
	if err := e.ConfirmDelete(context.Background()); err != nil {
		t.Fatal(err)
	}
	if _, ok := e.Store.Get("Taman Gajah"); ok {
		t.Error("feature still in store")
	}
	if e.Selection.State() != selection.Idle {
		t.Error("selection not idle after deleting the focused feature")
	}

	// A second confirm without a request sends nothing
	if err := e.ConfirmDelete(context.Background()); !errors.Is(err, core.ErrNotConfirmed) {
		t.Errorf("ConfirmDelete() = %v", err)
	}
}

func TestLiveReload(t *testing.T) {
	fx := newFixture(t, true)
	e := fx.engine
	if err := e.Init(context.Background()); err != nil {
		t.Fatal(err)
	}

	waitFor(t, func() bool { return fx.srv.Subscribers() == 1 })

	other := backend.NewClient(fx.ts.URL, nil)
	f := poi.NewPoint(poi.Attributes{Name: "Pulau Pahawang", Category: "Pulau"}, orb.Point{105.2, -5.67})
	if err := other.AddPoint(context.Background(), f); err != nil {
		t.Fatal(err)
	}

	waitFor(t, func() bool {
		_, ok := e.Store.Get("Pulau Pahawang")
		return ok
	})
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(10 * time.Millisecond)
	}
}
