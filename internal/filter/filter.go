package filter

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"wisatamap/internal/core"
	"wisatamap/internal/events"
	"wisatamap/internal/poi"
)

// All is the category value that matches every feature
const All = "all"

// Engine derives per-feature visibility from the category filter, the
// search term and an optional single-feature isolation.
type Engine struct {
	ctx   *core.Context
	store *poi.Store

	mu       sync.RWMutex
	category string
	term     string
	isolated string
	visible  map[string]bool
	count    int
}

// New creates a filter engine that re-evaluates on every feature change
func New(c *core.Context, store *poi.Store) *Engine {
	e := &Engine{
		ctx:      c,
		store:    store,
		category: All,
		visible:  make(map[string]bool),
	}
	events.On(c.Bus, e.onFeaturesChanged)
	e.recompute(events.CauseFeatures)
	return e
}

func (e *Engine) onFeaturesChanged(ev events.FeaturesChanged) {
	e.mu.Lock()
	if e.isolated != "" {
		if renamed, ok := ev.Renamed[e.isolated]; ok {
			e.isolated = renamed
		} else if slices.Contains(ev.Removed, e.isolated) {
			e.isolated = ""
		}
	}
	e.mu.Unlock()
	e.recompute(events.CauseFeatures)
}

// SetCategory restricts visibility to one category, or to all of them when
// category is "all" or empty. The search term and any isolation are cleared.
func (e *Engine) SetCategory(category string) {
	category = strings.TrimSpace(category)
	if category == "" {
		category = All
	}

	e.mu.Lock()
	e.category = category
	e.term = ""
	e.isolated = ""
	e.mu.Unlock()

	e.ctx.Log.Debug("filter_category", "category", category)
	e.recompute(events.CauseCategory)
}

// SetSearchTerm sets the name substring filter. The category is kept.
func (e *Engine) SetSearchTerm(term string) {
	e.mu.Lock()
	e.term = term
	e.isolated = ""
	e.mu.Unlock()

	e.recompute(events.CauseSearch)
}

// Isolate narrows visibility to exactly one feature regardless of the other
// predicates. It lasts until the next predicate change.
func (e *Engine) Isolate(id string) error {
	if _, ok := e.store.Get(id); !ok {
		return fmt.Errorf("%w: %q", core.ErrUnknownFeature, id)
	}

	e.mu.Lock()
	e.isolated = id
	e.mu.Unlock()

	e.recompute(events.CauseIsolate)
	return nil
}

func matches(f *poi.Feature, category, term string) bool {
	if category != All && f.Category != category {
		return false
	}
	if term == "" {
		return true
	}
	return strings.Contains(strings.ToLower(f.Name), strings.ToLower(term))
}

// recompute reads the store under e.mu so that the last writer always holds
// the newest snapshot.
func (e *Engine) recompute(cause events.FilterCause) {
	e.mu.Lock()
	features := e.store.GetAll()
	visible := make(map[string]bool, len(features))
	count := 0
	for _, f := range features {
		v := matches(f, e.category, e.term)
		if e.isolated != "" {
			v = f.Name == e.isolated
		}
		visible[f.Name] = v
		if v {
			count++
		}
	}
	e.visible = visible
	e.count = count
	ev := events.VisibilityChanged{
		Cause:      cause,
		Category:   e.category,
		SearchTerm: e.term,
		Isolated:   e.isolated,
		Visible:    count,
		Total:      len(features),
	}
	e.mu.Unlock()

	e.ctx.Bus.Publish(ev)
}

// Visible reports whether the feature is currently rendered
func (e *Engine) Visible(id string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.visible[id]
}

// VisibleCount returns the number of visible features
func (e *Engine) VisibleCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.count
}

// Category returns the active category, "all" when unfiltered
func (e *Engine) Category() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.category
}

// SearchTerm returns the active search term
func (e *Engine) SearchTerm() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.term
}

// Isolated returns the isolated feature id, if any
func (e *Engine) Isolated() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.isolated
}
