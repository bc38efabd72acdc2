package routing

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"wisatamap/internal/core"
	"wisatamap/internal/events"
	"wisatamap/internal/metrics"
	"wisatamap/internal/poi"

	"github.com/paulmach/orb"
)

// OriginSource provides the last known user position
type OriginSource interface {
	Last() (orb.Point, bool)
}

// Active is the single route overlay shown on the map
type Active struct {
	Destination string
	Origin      orb.Point
	// FromCenter is set when the origin fell back to the map center
	FromCenter bool
	Pending    bool
	Route      *Route
}

// Session owns at most one route between an origin and a feature
type Session struct {
	ctx      *core.Context
	store    *poi.Store
	provider Provider
	origin   OriginSource
	fallback bool

	mu      sync.RWMutex
	gen     uint64
	current *Active
}

// NewSession creates a routing session. With fallback the map center is
// used whenever no location fix is available.
func NewSession(c *core.Context, store *poi.Store, provider Provider, origin OriginSource, fallback bool) *Session {
	s := &Session{
		ctx:      c,
		store:    store,
		provider: provider,
		origin:   origin,
		fallback: fallback,
	}
	events.On(c.Bus, s.onFeaturesChanged)
	return s
}

// Request replaces any existing route with one to destID. The previous
// overlay is swapped out in the same step the new pending one is installed.
// Non-destination markers stay hidden while the route exists. On provider
// failure the session returns to the no-route state and
// core.ErrRouteNotFound is returned. A request overtaken by a newer Request
// or Clear returns core.ErrSuperseded and changes nothing.
func (s *Session) Request(ctx context.Context, destID string) error {
	dest, ok := s.store.Get(destID)
	if !ok {
		return fmt.Errorf("%w: %q", core.ErrUnknownFeature, destID)
	}

	from, fromCenter, err := s.resolveOrigin()
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.gen++
	gen := s.gen
	prev := s.destination()
	s.current = &Active{
		Destination: destID,
		Origin:      from,
		FromCenter:  fromCenter,
		Pending:     true,
	}
	s.mu.Unlock()

	s.ctx.Log.Info("route_request", "destination", destID, "from_center", fromCenter)
	s.ctx.Bus.Publish(events.RouteChanged{Previous: prev, Destination: destID, Active: true, Pending: true})

	route, err := s.provider.Route(ctx, from, dest.Location)

	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		metrics.RouteRequestsTotal.WithLabelValues("superseded").Inc()
		return core.ErrSuperseded
	}
	if err != nil {
		s.current = nil
		s.mu.Unlock()

		metrics.RouteRequestsTotal.WithLabelValues("not_found").Inc()
		s.ctx.Log.Warn("route_failed", "destination", destID, "err", err)
		s.ctx.Bus.Publish(events.RouteChanged{Previous: destID})
		if errors.Is(err, core.ErrRouteNotFound) {
			return err
		}
		return fmt.Errorf("%w: %v", core.ErrRouteNotFound, err)
	}
	s.current.Route = route
	s.current.Pending = false
	s.mu.Unlock()

	metrics.RouteRequestsTotal.WithLabelValues("ok").Inc()
	s.ctx.Log.Info("route_found", "destination", destID, "meters", route.DistanceMeters)
	if s.ctx.View != nil {
		s.ctx.View.FitBound(route.Bound().Extend(from).Extend(dest.Location))
	}
	s.ctx.Bus.Publish(events.RouteChanged{Previous: destID, Destination: destID, Active: true})
	return nil
}

func (s *Session) resolveOrigin() (orb.Point, bool, error) {
	if s.origin != nil {
		if p, ok := s.origin.Last(); ok {
			return p, false, nil
		}
	}
	if !s.fallback || s.ctx.View == nil {
		return orb.Point{}, false, core.ErrOriginUnavailable
	}
	return s.ctx.View.Center(), true, nil
}

// destination returns the current destination. Callers hold mu.
func (s *Session) destination() string {
	if s.current == nil {
		return ""
	}
	return s.current.Destination
}

// Clear removes the route and restores the hidden markers. Any in-flight
// request is superseded.
func (s *Session) Clear() {
	s.mu.Lock()
	s.gen++
	prev := s.destination()
	s.current = nil
	s.mu.Unlock()

	if prev != "" {
		s.ctx.Log.Info("route_cleared", "destination", prev)
		s.ctx.Bus.Publish(events.RouteChanged{Previous: prev})
	}
}

// Current returns a copy of the active route
func (s *Session) Current() (Active, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return Active{}, false
	}
	return *s.current, true
}

// IsHidden reports whether a marker is decluttered by the active route
func (s *Session) IsHidden(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current != nil && s.current.Destination != id
}

func (s *Session) onFeaturesChanged(ev events.FeaturesChanged) {
	s.mu.Lock()
	dest := s.destination()
	if dest == "" {
		s.mu.Unlock()
		return
	}
	if renamed, ok := ev.Renamed[dest]; ok {
		s.current.Destination = renamed
		pending := s.current.Pending
		s.mu.Unlock()
		s.ctx.Bus.Publish(events.RouteChanged{Previous: dest, Destination: renamed, Active: true, Pending: pending})
		return
	}
	removed := slices.Contains(ev.Removed, dest)
	s.mu.Unlock()

	if removed {
		s.Clear()
	}
}
