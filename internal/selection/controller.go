package selection

import (
	"fmt"
	"slices"
	"sync"

	"wisatamap/internal/core"
	"wisatamap/internal/events"
	"wisatamap/internal/poi"
)

// FocusRadiusKm is the zoom used when focusing a point feature
const FocusRadiusKm = 1.5

// State of the controller
type State int

const (
	Idle State = iota
	Focused
)

// String returns a string representation of the state
func (s State) String() string {
	if s == Focused {
		return "focused"
	}
	return "idle"
}

// Controller holds at most one focused feature
type Controller struct {
	ctx   *core.Context
	store *poi.Store

	mu      sync.RWMutex
	current string
}

// New creates an idle controller that follows store changes
func New(c *core.Context, store *poi.Store) *Controller {
	s := &Controller{ctx: c, store: store}
	events.On(c.Bus, s.onFeaturesChanged)
	return s
}

// Focus selects a feature and moves the viewport to it: areas are fitted,
// points are centered. Selecting another feature replaces the previous one
// without passing through Idle.
func (s *Controller) Focus(id string) error {
	f, ok := s.store.Get(id)
	if !ok {
		return fmt.Errorf("%w: %q", core.ErrUnknownFeature, id)
	}

	s.mu.Lock()
	prev := s.current
	s.current = id
	s.mu.Unlock()

	if s.ctx.View != nil {
		if f.HasArea() {
			s.ctx.View.FitBound(f.Bound())
		} else {
			s.ctx.View.CenterOn(f.Location, FocusRadiusKm)
		}
	}

	if prev != id {
		s.ctx.Log.Debug("selection_focus", "id", id, "previous", prev)
		s.ctx.Bus.Publish(events.SelectionChanged{Previous: prev, Current: id})
	}
	return nil
}

// Close returns to Idle. Closing while Idle does nothing.
func (s *Controller) Close() {
	s.mu.Lock()
	prev := s.current
	s.current = ""
	s.mu.Unlock()

	if prev != "" {
		s.ctx.Bus.Publish(events.SelectionChanged{Previous: prev})
	}
}

// Current returns the focused feature id
func (s *Controller) Current() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current, s.current != ""
}

// State returns Idle or Focused
func (s *Controller) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == "" {
		return Idle
	}
	return Focused
}

func (s *Controller) onFeaturesChanged(ev events.FeaturesChanged) {
	s.mu.Lock()
	prev := s.current
	if prev == "" {
		s.mu.Unlock()
		return
	}

	next := prev
	if renamed, ok := ev.Renamed[prev]; ok {
		next = renamed
	} else if slices.Contains(ev.Removed, prev) {
		next = ""
	}
	s.current = next
	s.mu.Unlock()

	if next != prev {
		s.ctx.Bus.Publish(events.SelectionChanged{Previous: prev, Current: next})
	}
}
