package view

import (
	"fmt"
	"sync"

	"wisatamap/internal/core"
	"wisatamap/internal/edit"
	"wisatamap/internal/events"
	"wisatamap/internal/filter"
	"wisatamap/internal/poi"
	"wisatamap/internal/routing"
	"wisatamap/internal/search"
	"wisatamap/internal/selection"
)

// AllLabel is the category row that clears the filter
const AllLabel = "Tampilkan Semua"

// Sources are the components the model is derived from
type Sources struct {
	Store     *poi.Store
	Filter    *filter.Engine
	Search    *search.Panel
	Selection *selection.Controller
	Routes    *routing.Session
	Edit      *edit.Workflow
}

// Binder turns component events into dirty surfaces and builds the model
type Binder struct {
	ctx *core.Context
	src Sources

	mu     sync.Mutex
	dirty  Surface
	notice *events.Notice
	status string
	unsubs []func()
}

// NewBinder subscribes to every state change event
func NewBinder(c *core.Context, src Sources) *Binder {
	b := &Binder{ctx: c, src: src, dirty: SurfaceAll}

	b.unsubs = append(b.unsubs,
		events.On(c.Bus, func(events.FeaturesChanged) {
			b.Invalidate(SurfaceMarkers | SurfacePolygons | SurfaceSidebar | SurfaceSuggestions | SurfacePopup | SurfaceStatus)
		}),
		events.On(c.Bus, func(events.VisibilityChanged) {
			b.Invalidate(SurfaceMarkers | SurfaceSidebar | SurfaceStatus)
		}),
		events.On(c.Bus, func(events.SuggestionsChanged) {
			b.Invalidate(SurfaceSuggestions)
		}),
		events.On(c.Bus, func(events.SelectionChanged) {
			b.Invalidate(SurfaceMarkers | SurfacePolygons | SurfacePopup | SurfaceSidebar)
		}),
		events.On(c.Bus, func(events.RouteChanged) {
			b.Invalidate(SurfaceRoute | SurfaceMarkers | SurfacePopup | SurfaceStatus)
		}),
		events.On(c.Bus, func(events.DraftChanged) {
			b.Invalidate(SurfaceDraft | SurfaceMarkers | SurfaceStatus)
		}),
		events.On(c.Bus, func(events.DeleteRequested) {
			b.Invalidate(SurfaceNotice)
		}),
		events.On(c.Bus, func(n events.Notice) {
			b.mu.Lock()
			b.notice = &n
			b.mu.Unlock()
			b.Invalidate(SurfaceNotice)
		}),
	)
	return b
}

// Close unsubscribes from the bus
func (b *Binder) Close() {
	b.mu.Lock()
	unsubs := b.unsubs
	b.unsubs = nil
	b.mu.Unlock()
	for _, u := range unsubs {
		u()
	}
}

// Invalidate marks surfaces for redraw
func (b *Binder) Invalidate(s Surface) {
	b.mu.Lock()
	b.dirty |= s
	b.mu.Unlock()
}

// TakeDirty returns and clears the pending surfaces
func (b *Binder) TakeDirty() Surface {
	b.mu.Lock()
	defer b.mu.Unlock()
	d := b.dirty
	b.dirty = SurfaceNone
	return d
}

// SetStatus sets the transient status line text
func (b *Binder) SetStatus(msg string) {
	b.mu.Lock()
	b.status = msg
	b.mu.Unlock()
	b.Invalidate(SurfaceStatus)
}

// DismissNotice closes the notification modal
func (b *Binder) DismissNotice() {
	b.mu.Lock()
	b.notice = nil
	b.mu.Unlock()
	b.Invalidate(SurfaceNotice)
}

// Notice returns the open notification, if any
func (b *Binder) Notice() (events.Notice, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.notice == nil {
		return events.Notice{}, false
	}
	return *b.notice, true
}

// Model builds the complete view-model from the current component state
func (b *Binder) Model() Model {
	var m Model

	focused, _ := b.src.Selection.Current()
	route, routed := b.src.Routes.Current()
	features := b.src.Store.GetAll()

	for _, f := range features {
		if !b.src.Filter.Visible(f.Name) || b.src.Routes.IsHidden(f.Name) {
			continue
		}
		m.Markers = append(m.Markers, Marker{
			ID:       f.Name,
			Location: f.Location,
			Category: f.Category,
			Area:     f.HasArea(),
			Selected: f.Name == focused,
		})
		m.Visible++
	}
	m.Total = len(features)

	if f, ok := b.src.Store.Get(focused); ok {
		if f.HasArea() {
			m.Polygons = append(m.Polygons, Polygon{ID: f.Name, Ring: f.Area[0], Category: f.Category})
		}
		m.Popup = &Popup{
			ID:          f.Name,
			Title:       f.Name,
			Category:    f.Category,
			Address:     f.Address,
			Description: f.Description,
			Position:    f.PositionString(),
			Routed:      routed && route.Destination == f.Name,
		}
	}

	if routed {
		ov := &RouteOverlay{
			Destination: route.Destination,
			Origin:      route.Origin,
			FromCenter:  route.FromCenter,
			Pending:     route.Pending,
		}
		if route.Route != nil {
			ov.Path = route.Route.Path
			ov.Summary = route.Route.Summary()
		}
		m.Route = ov
	}

	m.Category = b.src.Filter.Category()
	m.Sidebar = b.sidebar(features, focused, m.Category)
	m.SearchTerm, m.Suggestions, m.SuggestOpen = b.src.Search.State()
	m.Draft = draftOverlay(b.src.Edit.Draft())
	m.ConfirmDelete, _ = b.src.Edit.PendingDelete()

	b.mu.Lock()
	m.Notice = b.notice
	m.Status = b.status
	b.mu.Unlock()
	if m.Status == "" {
		m.Status = statusLine(m)
	}
	return m
}

func (b *Binder) sidebar(features []*poi.Feature, focused, active string) Sidebar {
	var sb Sidebar
	counts := make(map[string]int)
	for _, f := range features {
		counts[f.Category]++
	}

	sb.Categories = append(sb.Categories, CategoryItem{
		Name:   filter.All,
		Label:  AllLabel,
		Count:  len(features),
		Active: active == filter.All,
	})
	for _, c := range b.src.Store.Categories() {
		sb.Categories = append(sb.Categories, CategoryItem{
			Name:   c,
			Label:  c,
			Count:  counts[c],
			Active: active == c,
		})
	}

	for _, f := range features {
		if !b.src.Filter.Visible(f.Name) {
			continue
		}
		sb.Items = append(sb.Items, SidebarItem{
			ID:       f.Name,
			Label:    f.ListDisplay(),
			Category: f.Category,
			Selected: f.Name == focused,
		})
	}
	return sb
}

func draftOverlay(d edit.Draft) DraftOverlay {
	ov := DraftOverlay{
		Mode:       d.Mode.String(),
		Vertices:   d.Vertices,
		FormOpen:   d.FormOpen,
		Submitting: d.Submitting,
	}
	if d.HasPoint {
		p := d.Point
		ov.Point = &p
	}
	if f := d.Provisional; f != nil {
		ov.Provisional = &Marker{
			ID:          f.Name,
			Location:    f.Location,
			Category:    f.Category,
			Area:        f.HasArea(),
			Provisional: true,
		}
	}
	return ov
}

func statusLine(m Model) string {
	switch {
	case m.Draft.Submitting:
		return "Menyimpan..."
	case m.Draft.Mode == edit.ModeAddingPoint.String() && !m.Draft.FormOpen:
		return "Tambah titik: klik lokasi di peta (Esc batal)"
	case m.Draft.Mode == edit.ModeAddingArea.String() && !m.Draft.FormOpen:
		return fmt.Sprintf("Tambah area: %d titik, Enter selesai (Esc batal)", len(m.Draft.Vertices))
	case m.Route != nil && m.Route.Pending:
		return "Mencari rute ke " + m.Route.Destination + "..."
	case m.Route != nil:
		return fmt.Sprintf("Rute ke %s: %s (x hapus rute)", m.Route.Destination, m.Route.Summary)
	}
	return fmt.Sprintf("%d/%d objek ditampilkan", m.Visible, m.Total)
}
