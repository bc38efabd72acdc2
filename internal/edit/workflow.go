package edit

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"wisatamap/internal/core"
	"wisatamap/internal/events"
	"wisatamap/internal/poi"

	"github.com/paulmach/orb"
)

// MinAreaVertices is the fewest clicks that complete an area
const MinAreaVertices = 3

// Mode is the drawing mode
type Mode int

const (
	ModeIdle Mode = iota
	ModeAddingPoint
	ModeAddingArea
)

// String returns a string representation of the mode
func (m Mode) String() string {
	switch m {
	case ModeAddingPoint:
		return "adding_point"
	case ModeAddingArea:
		return "adding_area"
	default:
		return "idle"
	}
}

// Backend persists feature changes
type Backend interface {
	AddPoint(ctx context.Context, f *poi.Feature) error
	AddPolygon(ctx context.Context, f *poi.Feature) error
	Edit(ctx context.Context, oldID string, f *poi.Feature) error
	Delete(ctx context.Context, id string) error
}

// Draft is a snapshot of the geometry being drawn and the attribute form
type Draft struct {
	Mode        Mode
	Point       orb.Point
	HasPoint    bool
	Vertices    []orb.Point
	FormOpen    bool
	Form        poi.Attributes
	Provisional *poi.Feature
	Submitting  bool
}

// Workflow drives feature creation, editing and deletion. Every change is
// confirmed by the backend before the store is touched.
type Workflow struct {
	ctx     *core.Context
	store   *poi.Store
	backend Backend

	mu          sync.Mutex
	mode        Mode
	point       orb.Point
	hasPoint    bool
	vertices    []orb.Point
	formOpen    bool
	form        poi.Attributes
	provisional *poi.Feature
	submitting  bool
	pendingDel  string
}

// New creates an idle workflow
func New(c *core.Context, store *poi.Store, backend Backend) *Workflow {
	return &Workflow{ctx: c, store: store, backend: backend}
}

// ActivatePoint enters point drawing mode, leaving area mode if active
func (w *Workflow) ActivatePoint() error {
	return w.activate(ModeAddingPoint)
}

// ActivateArea enters area drawing mode, leaving point mode if active
func (w *Workflow) ActivateArea() error {
	return w.activate(ModeAddingArea)
}

func (w *Workflow) activate(m Mode) error {
	w.mu.Lock()
	if w.submitting {
		w.mu.Unlock()
		return core.ErrBusy
	}
	w.resetLocked()
	w.mode = m
	ev := w.eventLocked()
	w.mu.Unlock()

	w.ctx.Log.Debug("edit_mode", "mode", m.String())
	w.ctx.Bus.Publish(ev)
	return nil
}

// Cancel aborts drawing and discards the form. Nothing is sent.
func (w *Workflow) Cancel() error {
	w.mu.Lock()
	if w.submitting {
		w.mu.Unlock()
		return core.ErrBusy
	}
	if w.mode == ModeIdle && !w.formOpen {
		w.mu.Unlock()
		return core.ErrModeInactive
	}
	w.resetLocked()
	ev := w.eventLocked()
	w.mu.Unlock()

	w.ctx.Bus.Publish(ev)
	return nil
}

// resetLocked clears all draft state. Callers hold mu.
func (w *Workflow) resetLocked() {
	w.mode = ModeIdle
	w.point = orb.Point{}
	w.hasPoint = false
	w.vertices = nil
	w.formOpen = false
	w.form = poi.Attributes{}
	w.provisional = nil
}

// eventLocked builds the current draft event. Callers hold mu.
func (w *Workflow) eventLocked() events.DraftChanged {
	n := len(w.vertices)
	if w.hasPoint {
		n = 1
	}
	return events.DraftChanged{
		Mode:        w.mode.String(),
		Vertices:    n,
		Provisional: w.provisional != nil,
		FormOpen:    w.formOpen,
	}
}

// PlacePoint sets the location of the new point and opens the form
func (w *Workflow) PlacePoint(p orb.Point) error {
	w.mu.Lock()
	if w.mode != ModeAddingPoint || w.submitting {
		w.mu.Unlock()
		return core.ErrModeInactive
	}
	w.point = p
	w.hasPoint = true
	w.formOpen = true
	ev := w.eventLocked()
	w.mu.Unlock()

	w.ctx.Bus.Publish(ev)
	return nil
}

// AddVertex appends a vertex to the area being drawn
func (w *Workflow) AddVertex(p orb.Point) error {
	w.mu.Lock()
	if w.mode != ModeAddingArea || w.formOpen {
		w.mu.Unlock()
		return core.ErrModeInactive
	}
	w.vertices = append(w.vertices, p)
	ev := w.eventLocked()
	w.mu.Unlock()

	w.ctx.Bus.Publish(ev)
	return nil
}

// UndoVertex removes the last vertex
func (w *Workflow) UndoVertex() error {
	w.mu.Lock()
	if w.mode != ModeAddingArea || w.formOpen || len(w.vertices) == 0 {
		w.mu.Unlock()
		return core.ErrModeInactive
	}
	w.vertices = w.vertices[:len(w.vertices)-1]
	ev := w.eventLocked()
	w.mu.Unlock()

	w.ctx.Bus.Publish(ev)
	return nil
}

// CompleteArea finishes drawing and opens the form. At least
// MinAreaVertices vertices are required.
func (w *Workflow) CompleteArea() error {
	w.mu.Lock()
	if w.mode != ModeAddingArea || w.formOpen {
		w.mu.Unlock()
		return core.ErrModeInactive
	}
	if len(w.vertices) < MinAreaVertices {
		n := len(w.vertices)
		w.mu.Unlock()
		return &core.ValidationError{
			Field:  "vertices",
			Reason: fmt.Sprintf("an area needs at least %d vertices, got %d", MinAreaVertices, n),
		}
	}
	w.formOpen = true
	ev := w.eventLocked()
	w.mu.Unlock()

	w.ctx.Bus.Publish(ev)
	return nil
}

// Validate checks the required form fields
func Validate(a poi.Attributes) error {
	if strings.TrimSpace(a.Name) == "" {
		return &core.ValidationError{Field: "name", Reason: "is required"}
	}
	if strings.TrimSpace(a.Category) == "" {
		return &core.ValidationError{Field: "category", Reason: "is required"}
	}
	return nil
}

// Submit validates the form, shows a provisional feature and sends it to
// the backend. On success the feature is stored and the draft cleared. On
// failure the provisional feature is removed and the form kept as entered.
func (w *Workflow) Submit(ctx context.Context, attrs poi.Attributes) error {
	w.mu.Lock()
	if !w.formOpen {
		w.mu.Unlock()
		return core.ErrModeInactive
	}
	if w.submitting {
		w.mu.Unlock()
		return core.ErrBusy
	}
	w.form = attrs
	if err := Validate(attrs); err != nil {
		w.mu.Unlock()
		return err
	}

	var f *poi.Feature
	mode := w.mode
	if mode == ModeAddingPoint {
		f = poi.NewPoint(attrs.Trimmed(), w.point)
	} else {
		f = poi.NewArea(attrs.Trimmed(), w.vertices)
	}
	w.provisional = f
	w.submitting = true
	ev := w.eventLocked()
	w.mu.Unlock()

	w.ctx.Bus.Publish(ev)

	var err error
	if mode == ModeAddingPoint {
		err = w.backend.AddPoint(ctx, f)
	} else {
		err = w.backend.AddPolygon(ctx, f)
	}

	w.mu.Lock()
	w.submitting = false
	w.provisional = nil
	if err != nil {
		ev = w.eventLocked()
		w.mu.Unlock()

		w.ctx.Log.Warn("edit_create_failed", "name", f.Name, "err", err)
		w.ctx.Bus.Publish(ev)
		return err
	}
	w.resetLocked()
	ev = w.eventLocked()
	w.mu.Unlock()

	w.ctx.Log.Info("edit_created", "name", f.Name, "kind", f.Kind.String())
	if err := w.store.Upsert(f); err != nil {
		return err
	}
	w.ctx.Bus.Publish(ev)
	return nil
}

// Update changes the attributes of a feature and, when geom is a point or
// polygon, its geometry. The store is updated only after the backend
// accepts the change.
func (w *Workflow) Update(ctx context.Context, id string, attrs poi.Attributes, geom orb.Geometry) error {
	old, ok := w.store.Get(id)
	if !ok {
		return fmt.Errorf("%w: %q", core.ErrUnknownFeature, id)
	}
	if err := Validate(attrs); err != nil {
		return err
	}

	next := old.Clone()
	next.SetAttributes(attrs.Trimmed())
	switch g := geom.(type) {
	case nil:
	case orb.Point:
		next = poi.NewPoint(next.Attributes(), g)
	case orb.Polygon:
		if len(g) == 0 {
			return &core.ValidationError{Field: "geometry", Reason: "empty polygon"}
		}
		next = poi.NewArea(next.Attributes(), openRing(g[0]))
	case orb.Ring:
		next = poi.NewArea(next.Attributes(), openRing(g))
	default:
		return &core.ValidationError{Field: "geometry", Reason: "unsupported type " + geom.GeoJSONType()}
	}

	if next.Name != id {
		if _, clash := w.store.Get(next.Name); clash {
			return &core.ValidationError{Field: "name", Reason: "already used by another feature"}
		}
	}

	if err := w.backend.Edit(ctx, id, next); err != nil {
		w.ctx.Log.Warn("edit_update_failed", "id", id, "err", err)
		return err
	}
	w.ctx.Log.Info("edit_updated", "id", id, "name", next.Name)
	return w.store.Replace(id, next)
}

func openRing(r orb.Ring) []orb.Point {
	pts := slices.Clone([]orb.Point(r))
	if len(pts) > 1 && pts[0] == pts[len(pts)-1] {
		pts = pts[:len(pts)-1]
	}
	return pts
}

// RequestDelete asks for confirmation before deleting id
func (w *Workflow) RequestDelete(id string) error {
	if _, ok := w.store.Get(id); !ok {
		return fmt.Errorf("%w: %q", core.ErrUnknownFeature, id)
	}
	w.mu.Lock()
	w.pendingDel = id
	w.mu.Unlock()

	w.ctx.Bus.Publish(events.DeleteRequested{ID: id})
	return nil
}

// PendingDelete returns the id awaiting confirmation
func (w *Workflow) PendingDelete() (string, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.pendingDel, w.pendingDel != ""
}

// CancelDelete drops the pending deletion
func (w *Workflow) CancelDelete() {
	w.mu.Lock()
	w.pendingDel = ""
	w.mu.Unlock()
}

// ConfirmDelete sends the pending deletion. Without a prior RequestDelete
// nothing is sent and core.ErrNotConfirmed is returned.
func (w *Workflow) ConfirmDelete(ctx context.Context) error {
	w.mu.Lock()
	id := w.pendingDel
	w.pendingDel = ""
	w.mu.Unlock()

	if id == "" {
		return core.ErrNotConfirmed
	}
	if err := w.backend.Delete(ctx, id); err != nil {
		w.ctx.Log.Warn("edit_delete_failed", "id", id, "err", err)
		return err
	}
	w.ctx.Log.Info("edit_deleted", "id", id)
	w.store.Remove(id)
	return nil
}

// Draft returns a snapshot of the drawing state
func (w *Workflow) Draft() Draft {
	w.mu.Lock()
	defer w.mu.Unlock()
	return Draft{
		Mode:        w.mode,
		Point:       w.point,
		HasPoint:    w.hasPoint,
		Vertices:    slices.Clone(w.vertices),
		FormOpen:    w.formOpen,
		Form:        w.form,
		Provisional: w.provisional,
		Submitting:  w.submitting,
	}
}

// Mode returns the current drawing mode
func (w *Workflow) Mode() Mode {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.mode
}
