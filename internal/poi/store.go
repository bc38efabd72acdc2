package poi

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"wisatamap/internal/core"
	"wisatamap/internal/events"
)

// Source produces a complete feature set
type Source interface {
	Fetch(ctx context.Context) ([]*Feature, error)
}

// SourceFunc adapts a function to the Source interface
type SourceFunc func(ctx context.Context) ([]*Feature, error)

// Fetch calls fn
func (fn SourceFunc) Fetch(ctx context.Context) ([]*Feature, error) {
	return fn(ctx)
}

// Store is the single source of truth for the current feature set, keyed by
// display name and kept in load order.
type Store struct {
	ctx *core.Context

	mu       sync.RWMutex
	order    []string
	features map[string]*Feature
	hits     *HitIndex

	// epoch advances on every load start and local mutation; applied is the
	// epoch of the state currently held.
	epoch   uint64
	applied uint64
}

// NewStore creates an empty store
func NewStore(c *core.Context) *Store {
	return &Store{
		ctx:      c,
		features: make(map[string]*Feature),
		hits:     NewHitIndex(nil),
	}
}

// Load fetches a full feature set from src and swaps it in atomically. On
// failure the previous set is kept. A load that completes after newer state
// has been applied is discarded with core.ErrSuperseded.
func (s *Store) Load(ctx context.Context, src Source) error {
	s.mu.Lock()
	s.epoch++
	seq := s.epoch
	s.mu.Unlock()

	features, err := src.Fetch(ctx)
	if err == nil {
		err = checkUnique(features)
	}
	if err != nil {
		var fe *core.FetchError
		if !errors.As(err, &fe) {
			err = &core.FetchError{Op: "load", Err: err}
		}
		s.ctx.Log.Warn("store_load_error", "err", err)
		return err
	}

	s.mu.Lock()
	if seq < s.applied {
		s.mu.Unlock()
		s.ctx.Log.Debug("store_load_stale", "seq", seq, "applied", s.applied)
		return core.ErrSuperseded
	}

	next := make(map[string]*Feature, len(features))
	order := make([]string, 0, len(features))
	ids := make([]string, 0, len(features))
	for _, f := range features {
		next[f.Name] = f
		order = append(order, f.Name)
		ids = append(ids, f.Name)
	}

	var removed []string
	for _, id := range s.order {
		if _, ok := next[id]; !ok {
			removed = append(removed, id)
		}
	}

	s.features = next
	s.order = order
	s.hits = NewHitIndex(features)
	s.applied = seq
	count := len(order)
	s.mu.Unlock()

	s.ctx.Log.Info("store_load_ok", "features", count, "removed", len(removed))
	s.ctx.Bus.Publish(events.FeaturesChanged{
		Reason:  events.ReasonReload,
		IDs:     ids,
		Removed: removed,
		Count:   count,
	})
	return nil
}

func checkUnique(features []*Feature) error {
	seen := make(map[string]struct{}, len(features))
	for _, f := range features {
		if f == nil || f.Name == "" {
			return errors.New("feature without a name")
		}
		if _, dup := seen[f.Name]; dup {
			return fmt.Errorf("%w: %q", core.ErrDuplicateID, f.Name)
		}
		seen[f.Name] = struct{}{}
	}
	return nil
}

// Upsert adds or replaces a feature. Called once the backend has confirmed
// the change.
func (s *Store) Upsert(f *Feature) error {
	if f == nil || f.Name == "" {
		return errors.New("feature without a name")
	}

	s.mu.Lock()
	if _, exists := s.features[f.Name]; !exists {
		s.order = append(s.order, f.Name)
	}
	s.features[f.Name] = f
	s.touch()
	count := len(s.order)
	s.mu.Unlock()

	s.ctx.Bus.Publish(events.FeaturesChanged{
		Reason: events.ReasonUpsert,
		IDs:    []string{f.Name},
		Count:  count,
	})
	return nil
}

// Replace swaps the feature stored under oldID for f, keeping its position.
// If f has a different name the old key disappears.
func (s *Store) Replace(oldID string, f *Feature) error {
	if f == nil || f.Name == "" {
		return errors.New("feature without a name")
	}

	s.mu.Lock()
	if _, ok := s.features[oldID]; !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %q", core.ErrUnknownFeature, oldID)
	}
	if f.Name != oldID {
		if _, clash := s.features[f.Name]; clash {
			s.mu.Unlock()
			return fmt.Errorf("%w: %q", core.ErrDuplicateID, f.Name)
		}
	}

	delete(s.features, oldID)
	s.features[f.Name] = f
	for i, id := range s.order {
		if id == oldID {
			s.order[i] = f.Name
			break
		}
	}
	s.touch()
	count := len(s.order)
	s.mu.Unlock()

	ev := events.FeaturesChanged{
		Reason: events.ReasonUpsert,
		IDs:    []string{f.Name},
		Count:  count,
	}
	if f.Name != oldID {
		ev.Reason = events.ReasonRename
		ev.Removed = []string{oldID}
		ev.Renamed = map[string]string{oldID: f.Name}
	}
	s.ctx.Bus.Publish(ev)
	return nil
}

// Remove deletes a feature. Returns false if it was not present.
func (s *Store) Remove(id string) bool {
	s.mu.Lock()
	if _, ok := s.features[id]; !ok {
		s.mu.Unlock()
		return false
	}
	delete(s.features, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i:i], s.order[i+1:]...)
			break
		}
	}
	s.touch()
	count := len(s.order)
	s.mu.Unlock()

	s.ctx.Bus.Publish(events.FeaturesChanged{
		Reason:  events.ReasonRemove,
		Removed: []string{id},
		Count:   count,
	})
	return true
}

// touch records a local mutation and rebuilds the hit index. Callers hold mu.
func (s *Store) touch() {
	s.epoch++
	s.applied = s.epoch
	features := make([]*Feature, 0, len(s.order))
	for _, id := range s.order {
		features = append(features, s.features[id])
	}
	s.hits = NewHitIndex(features)
}

// Get retrieves a feature by id
func (s *Store) Get(id string) (*Feature, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, ok := s.features[id]
	return f, ok
}

// GetAll returns all features in load order
func (s *Store) GetAll() []*Feature {
	s.mu.RLock()
	defer s.mu.RUnlock()

	features := make([]*Feature, 0, len(s.order))
	for _, id := range s.order {
		features = append(features, s.features[id])
	}
	return features
}

// Count returns the number of features
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

// Categories returns the distinct categories in order of first appearance
func (s *Store) Categories() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{})
	categories := make([]string, 0)
	for _, id := range s.order {
		c := s.features[id].Category
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		categories = append(categories, c)
	}
	return categories
}

// Index returns the spatial index for the current feature set
func (s *Store) Index() *HitIndex {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hits
}
