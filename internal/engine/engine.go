package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"wisatamap/internal/backend"
	"wisatamap/internal/cache"
	"wisatamap/internal/core"
	"wisatamap/internal/edit"
	"wisatamap/internal/events"
	"wisatamap/internal/filter"
	"wisatamap/internal/geoloc"
	"wisatamap/internal/metrics"
	"wisatamap/internal/poi"
	"wisatamap/internal/routing"
	"wisatamap/internal/search"
	"wisatamap/internal/selection"
	"wisatamap/internal/view"

	"github.com/paulmach/orb"
)

// DefaultSuggestLimit caps the suggestion list when Options leaves it unset
const DefaultSuggestLimit = 8

// Messages shown when the engine degrades instead of failing
const (
	msgOriginFallback = "Your location is not available. The route will start from the map center."
	msgCachedData     = "Server tidak dapat dihubungi. Menampilkan data tersimpan."
)

// Options configure an Engine
type Options struct {
	BackendURL string
	HTTPClient *http.Client

	// Router computes routes. Nil uses the straight-line provider.
	Router routing.Provider
	// Locator provides the user position. Nil disables geolocation.
	Locator geoloc.Locator
	// NoFallback makes routing fail instead of starting at the map center
	NoFallback bool

	SuggestLimit int
	// Cache stores the last good feature set. Nil disables snapshots.
	Cache *cache.Manager
	// Live follows the backend change feed
	Live bool

	View core.Viewport
	Log  *slog.Logger
}

// Engine owns every component and their shared context. It reports user
// action failures as notices so callers only need to look at the model.
type Engine struct {
	ctx     *core.Context
	opts    Options
	backend *backend.Client
	cache   *cache.Manager

	Store     *poi.Store
	Filter    *filter.Engine
	Index     *search.Index
	Search    *search.Panel
	Selection *selection.Controller
	Location  *geoloc.Tracker
	Routes    *routing.Session
	Edit      *edit.Workflow
	View      *view.Binder

	mu      sync.Mutex
	watcher *backend.Watcher
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	closed  bool
	unsub   func()
}

// New builds all components around a fresh context
func New(opts Options) *Engine {
	if opts.SuggestLimit <= 0 {
		opts.SuggestLimit = DefaultSuggestLimit
	}
	if opts.Router == nil {
		opts.Router = routing.StraightLine{}
	}

	c := core.NewContext(opts.View, opts.Log)
	e := &Engine{
		ctx:     c,
		opts:    opts,
		backend: backend.NewClient(opts.BackendURL, opts.HTTPClient),
		cache:   opts.Cache,
	}

	e.Store = poi.NewStore(c)
	e.Filter = filter.New(c, e.Store)
	e.Index = search.NewIndex(e.Store)
	e.Selection = selection.New(c, e.Store)
	e.Search = search.NewPanel(c, e.Index, e.Filter, e.Selection, opts.SuggestLimit)
	e.Location = geoloc.NewTracker(opts.Locator, c.Log)
	e.Routes = routing.NewSession(c, e.Store, opts.Router, e.Location, !opts.NoFallback)
	e.Edit = edit.New(c, e.Store, e.backend)
	e.View = view.NewBinder(c, view.Sources{
		Store:     e.Store,
		Filter:    e.Filter,
		Search:    e.Search,
		Selection: e.Selection,
		Routes:    e.Routes,
		Edit:      e.Edit,
	})

	e.unsub = events.On(c.Bus, func(ev events.FeaturesChanged) {
		metrics.StoreFeatures.Set(float64(ev.Count))
	})
	return e
}

// Init loads the feature set, falling back to the cached snapshot when the
// backend cannot be reached, then asks for a location fix and starts the
// change feed if enabled.
func (e *Engine) Init(ctx context.Context) error {
	if err := e.Reload(ctx); err != nil {
		if !e.loadSnapshot(ctx) {
			return err
		}
	}

	if e.opts.Locator != nil {
		lctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		_ = e.Location.Refresh(lctx)
		cancel()
	}

	if e.opts.Live {
		if err := e.startWatch(ctx); err != nil {
			e.ctx.Log.Warn("watch_unavailable", "err", err)
		}
	}
	return nil
}

// Reload replaces the feature set with the backend's. Failures are
// reported as a notice and leave the current set in place.
func (e *Engine) Reload(ctx context.Context) error {
	err := e.Store.Load(ctx, e.backend)
	switch {
	case err == nil:
		e.saveSnapshot()
		return nil
	case errors.Is(err, core.ErrSuperseded):
		return nil
	}
	e.ctx.Log.Error("reload_failed", "err", err)
	e.report(err)
	return err
}

func (e *Engine) loadSnapshot(ctx context.Context) bool {
	if e.cache == nil || !e.cache.HasSnapshot() {
		return false
	}
	if err := e.Store.Load(ctx, e.cache.Snapshot()); err != nil {
		e.ctx.Log.Error("snapshot_load_failed", "err", err)
		return false
	}
	e.ctx.Log.Info("snapshot_loaded", "features", e.Store.Count())
	e.ctx.Notify(events.LevelInfo, msgCachedData)
	return true
}

func (e *Engine) saveSnapshot() {
	if e.cache == nil {
		return
	}
	if err := e.cache.SaveSnapshot(e.Store.GetAll()); err != nil {
		e.ctx.Log.Warn("snapshot_save_failed", "err", err)
	}
}

// report shows err to the user unless it is a benign state outcome
func (e *Engine) report(err error) {
	if err == nil || errors.Is(err, core.ErrSuperseded) || errors.Is(err, core.ErrModeInactive) {
		return
	}
	e.ctx.Notify(events.LevelError, core.UserMessage(err))
}

// startWatch follows the change feed and reloads on every message
func (e *Engine) startWatch(ctx context.Context) error {
	w, err := e.backend.Watch(ctx)
	if err != nil {
		return err
	}

	wctx, cancel := context.WithCancel(context.Background())
	e.mu.Lock()
	e.watcher = w
	e.cancel = cancel
	e.mu.Unlock()

	e.wg.Add(1)
	go e.watchLoop(wctx, w)
	e.ctx.Log.Info("watch_started", "backend", e.backend.BaseURL())
	return nil
}

func (e *Engine) watchLoop(ctx context.Context, w *backend.Watcher) {
	defer e.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.Done():
			e.ctx.Log.Warn("watch_stopped")
			return
		case err := <-w.Errors():
			e.ctx.Log.Warn("watch_error", "err", err)
		case msg := <-w.Changes():
			e.ctx.Log.Debug("watch_change", "type", msg.Type, "name", msg.Name, "new_name", msg.NewName)
			rctx, cancel := context.WithTimeout(ctx, 30*time.Second)
			_ = e.Reload(rctx)
			cancel()
		}
	}
}

// Close stops the change feed and unsubscribes the view
func (e *Engine) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	w, cancel := e.watcher, e.cancel
	e.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	e.wg.Wait()
	if w != nil {
		w.Close()
	}
	e.View.Close()
	e.unsub()
}

// SelectCategory applies a category filter. filter.All shows everything.
func (e *Engine) SelectCategory(category string) {
	e.Filter.SetCategory(category)
}

// Type updates the search box
func (e *Engine) Type(term string) {
	e.Search.Input(term)
}

// ChooseSuggestion isolates and focuses the named feature
func (e *Engine) ChooseSuggestion(name string) {
	e.report(e.Search.Choose(name))
}

// Focus selects a feature from the map or the sidebar
func (e *Engine) Focus(id string) {
	e.report(e.Selection.Focus(id))
}

// FeatureAt returns the rendered feature under b. Features hidden by the
// filter or by the active route cannot be hit.
func (e *Engine) FeatureAt(b orb.Bound) (string, bool) {
	return e.Store.Index().At(b, func(id string) bool {
		return e.Filter.Visible(id) && !e.Routes.IsHidden(id)
	})
}

// ClosePopup returns the selection to idle
func (e *Engine) ClosePopup() {
	e.Selection.Close()
}

// RouteTo replaces the active route with one to id. It blocks while the
// provider is queried.
func (e *Engine) RouteTo(ctx context.Context, id string) {
	err := e.Routes.Request(ctx, id)
	if err != nil {
		e.report(err)
		return
	}
	if r, ok := e.Routes.Current(); ok && r.FromCenter {
		e.ctx.Notify(events.LevelInfo, msgOriginFallback)
	}
}

// ClearRoute removes the active route
func (e *Engine) ClearRoute() {
	e.Routes.Clear()
}

// StartPoint enters point drawing mode
func (e *Engine) StartPoint() {
	e.report(e.Edit.ActivatePoint())
}

// StartArea enters area drawing mode
func (e *Engine) StartArea() {
	e.report(e.Edit.ActivateArea())
}

// CancelDraw leaves drawing mode. It reports whether anything was cancelled.
func (e *Engine) CancelDraw() bool {
	err := e.Edit.Cancel()
	if errors.Is(err, core.ErrModeInactive) {
		return false
	}
	e.report(err)
	return err == nil
}

// MapClick places the point or adds a vertex in drawing modes. It reports
// whether the click was consumed.
func (e *Engine) MapClick(p orb.Point) bool {
	switch e.Edit.Mode() {
	case edit.ModeAddingPoint:
		e.report(e.Edit.PlacePoint(p))
		return true
	case edit.ModeAddingArea:
		e.report(e.Edit.AddVertex(p))
		return true
	}
	return false
}

// UndoVertex removes the last area vertex
func (e *Engine) UndoVertex() {
	e.report(e.Edit.UndoVertex())
}

// CompleteArea closes the area being drawn and opens the form
func (e *Engine) CompleteArea() {
	e.report(e.Edit.CompleteArea())
}

// SubmitForm sends the new feature. After the backend accepts it the whole
// set is reloaded and the new feature focused.
func (e *Engine) SubmitForm(ctx context.Context, attrs poi.Attributes) error {
	if err := e.Edit.Submit(ctx, attrs); err != nil {
		e.report(err)
		return err
	}
	_ = e.Reload(ctx)
	name := strings.TrimSpace(attrs.Name)
	if _, ok := e.Store.Get(name); ok {
		e.report(e.Selection.Focus(name))
	}
	e.ctx.Notify(events.LevelInfo, fmt.Sprintf("%q berhasil disimpan", name))
	return nil
}

// UpdateFeature edits attributes and optionally geometry of id
func (e *Engine) UpdateFeature(ctx context.Context, id string, attrs poi.Attributes, geom orb.Geometry) error {
	err := e.Edit.Update(ctx, id, attrs, geom)
	e.report(err)
	return err
}

// RequestDelete asks the user to confirm deleting id
func (e *Engine) RequestDelete(id string) {
	e.report(e.Edit.RequestDelete(id))
}

// ConfirmDelete sends the pending deletion
func (e *Engine) ConfirmDelete(ctx context.Context) error {
	err := e.Edit.ConfirmDelete(ctx)
	e.report(err)
	return err
}

// CancelDelete drops the pending deletion
func (e *Engine) CancelDelete() {
	e.Edit.CancelDelete()
	e.View.Invalidate(view.SurfaceNotice)
}
