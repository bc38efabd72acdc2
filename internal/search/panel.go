package search

import (
	"slices"
	"sync"

	"wisatamap/internal/core"
	"wisatamap/internal/events"
	"wisatamap/internal/filter"
)

// Focuser moves the selection to a feature
type Focuser interface {
	Focus(id string) error
}

// Panel is the search box with its suggestion list
type Panel struct {
	ctx    *core.Context
	index  *Index
	filter *filter.Engine
	focus  Focuser
	limit  int

	mu    sync.RWMutex
	term  string
	items []string
	open  bool
}

// NewPanel wires a suggestion panel to the filter and selection
func NewPanel(c *core.Context, index *Index, f *filter.Engine, focus Focuser, limit int) *Panel {
	p := &Panel{
		ctx:    c,
		index:  index,
		filter: f,
		focus:  focus,
		limit:  limit,
	}
	events.On(c.Bus, p.onVisibilityChanged)
	events.On(c.Bus, p.onFeaturesChanged)
	return p
}

// Input handles a change of the search box contents
func (p *Panel) Input(term string) {
	p.filter.SetSearchTerm(term)

	items := slices.Collect(p.index.Suggest(term, p.limit))
	p.mu.Lock()
	p.term = term
	p.items = items
	p.open = len(items) > 0
	ev := p.event()
	p.mu.Unlock()

	p.ctx.Bus.Publish(ev)
}

// Dismiss hides the suggestion list, keeping the term
func (p *Panel) Dismiss() {
	p.mu.Lock()
	if !p.open {
		p.mu.Unlock()
		return
	}
	p.open = false
	ev := p.event()
	p.mu.Unlock()

	p.ctx.Bus.Publish(ev)
}

// Choose isolates the named feature on the map and focuses it
func (p *Panel) Choose(name string) error {
	if err := p.filter.Isolate(name); err != nil {
		return err
	}

	p.mu.Lock()
	p.term = name
	p.items = nil
	p.open = false
	ev := p.event()
	p.mu.Unlock()
	p.ctx.Bus.Publish(ev)

	return p.focus.Focus(name)
}

// State returns the term, the suggestions and whether the list is shown
func (p *Panel) State() (string, []string, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.term, slices.Clone(p.items), p.open
}

// event builds the current state event. Callers hold mu.
func (p *Panel) event() events.SuggestionsChanged {
	return events.SuggestionsChanged{
		Term:  p.term,
		Items: slices.Clone(p.items),
		Open:  p.open,
	}
}

// A category selection clears the stale search and closes the list.
func (p *Panel) onVisibilityChanged(ev events.VisibilityChanged) {
	if ev.Cause != events.CauseCategory {
		return
	}
	p.mu.Lock()
	if p.term == "" && !p.open {
		p.mu.Unlock()
		return
	}
	p.term = ""
	p.items = nil
	p.open = false
	out := p.event()
	p.mu.Unlock()

	p.ctx.Bus.Publish(out)
}

func (p *Panel) onFeaturesChanged(events.FeaturesChanged) {
	p.mu.Lock()
	if !p.open {
		p.mu.Unlock()
		return
	}
	term := p.term
	p.mu.Unlock()

	items := slices.Collect(p.index.Suggest(term, p.limit))

	p.mu.Lock()
	p.items = items
	p.open = len(items) > 0
	out := p.event()
	p.mu.Unlock()

	p.ctx.Bus.Publish(out)
}
