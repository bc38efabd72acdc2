package render

import (
	"wisatamap/internal/debug"
	"wisatamap/internal/geo"
	"wisatamap/internal/view"

	"github.com/gdamore/tcell/v2"
	"github.com/paulmach/orb"
)

// MapRenderer draws the basemap and the map layers of a view model
type MapRenderer struct {
	projection *geo.Projection
	basemap    *geo.Basemap
	palette    *Palette
	canvas     *Canvas
}

// NewMapRenderer creates a new map renderer. basemap may be nil.
func NewMapRenderer(projection *geo.Projection, basemap *geo.Basemap, palette *Palette, canvas *Canvas) *MapRenderer {
	return &MapRenderer{
		projection: projection,
		basemap:    basemap,
		palette:    palette,
		canvas:     canvas,
	}
}

// Render redraws the whole map. Layers go bottom to top: basemap, focused
// polygon, route, markers, draft.
func (m *MapRenderer) Render(model view.Model) {
	m.canvas.Clear()
	m.renderBasemap()

	for _, pg := range model.Polygons {
		m.renderPolygon(pg)
	}
	if model.Route != nil {
		m.renderRoute(model.Route)
	}
	m.renderMarkers(model.Markers)
	m.renderDraft(model.Draft)
}

func (m *MapRenderer) renderBasemap() {
	lines := m.basemap.Visible(m.projection.Bounds())
	for _, ls := range lines {
		m.drawPath(ls, GlyphBasemap, StyleBasemap)
	}
	if debug.Enabled() {
		debug.Log("render_basemap", "lines", len(lines))
	}
}

func (m *MapRenderer) renderPolygon(pg view.Polygon) {
	m.drawPath(orb.LineString(pg.Ring), GlyphOutline, m.palette.Style(pg.Category).Bold(true))
}

func (m *MapRenderer) renderRoute(r *view.RouteOverlay) {
	if r.Pending {
		o := m.projection.Project(r.Origin)
		m.canvas.Set(o.X, o.Y, GlyphOrigin, StyleRoutePending)
		return
	}
	m.drawPath(r.Path, GlyphRoute, StyleRoute)
	o := m.projection.Project(r.Origin)
	m.canvas.Set(o.X, o.Y, GlyphOrigin, StyleOrigin)
}

// renderMarkers draws every marker, then labels where they fit. The
// selected marker is drawn last so it is never covered.
func (m *MapRenderer) renderMarkers(markers []view.Marker) {
	var selected *view.Marker
	for i := range markers {
		mk := &markers[i]
		if mk.Selected {
			selected = mk
			continue
		}
		m.drawMarker(mk)
	}
	if selected != nil {
		m.drawMarker(selected)
	}

	// Labels only go on blank cells so they never hide another marker
	if selected != nil {
		m.drawLabel(selected)
	}
	for i := range markers {
		if !markers[i].Selected {
			m.drawLabel(&markers[i])
		}
	}
}

func (m *MapRenderer) drawMarker(mk *view.Marker) {
	c := m.projection.Project(mk.Location)
	glyph := GlyphPoint
	if mk.Area {
		glyph = GlyphArea
	}
	style := m.palette.Style(mk.Category)
	if mk.Selected {
		style = style.Bold(true).Reverse(true)
	}
	m.canvas.Set(c.X, c.Y, glyph, style)
}

func (m *MapRenderer) drawLabel(mk *view.Marker) {
	c := m.projection.Project(mk.Location)
	x := c.X + 2
	w := TextWidth(mk.ID)
	if x+w > m.canvas.Width() {
		return
	}
	for i := -1; i < w; i++ {
		if !m.canvas.IsBlank(x+i, c.Y) {
			return
		}
	}
	style := StyleLabel
	if mk.Selected {
		style = StyleHeader
	}
	m.canvas.DrawText(x, c.Y, mk.ID, style)
}

func (m *MapRenderer) renderDraft(d view.DraftOverlay) {
	for i, v := range d.Vertices {
		c := m.projection.Project(v)
		if i > 0 {
			p := m.projection.Project(d.Vertices[i-1])
			m.canvas.DrawLine(p.X, p.Y, c.X, c.Y, GlyphDraftEdge, StyleDraft)
		}
	}
	// Closing edge once the ring is complete enough to be an area
	if n := len(d.Vertices); n >= 3 {
		a := m.projection.Project(d.Vertices[n-1])
		b := m.projection.Project(d.Vertices[0])
		m.canvas.DrawLine(a.X, a.Y, b.X, b.Y, GlyphDraftEdge, StyleDim)
	}
	for _, v := range d.Vertices {
		c := m.projection.Project(v)
		m.canvas.Set(c.X, c.Y, GlyphVertex, StyleDraft)
	}

	if d.Point != nil {
		c := m.projection.Project(*d.Point)
		m.canvas.Set(c.X, c.Y, GlyphDraftPoint, StyleDraft)
	}
	if pv := d.Provisional; pv != nil {
		c := m.projection.Project(pv.Location)
		m.canvas.Set(c.X, c.Y, GlyphProvisional, StyleProvisional)
	}
}

// drawPath draws the segments of ls that cross the visible area
func (m *MapRenderer) drawPath(ls orb.LineString, glyph rune, style tcell.Style) {
	visible := m.projection.Bounds()
	for i := 0; i+1 < len(ls); i++ {
		seg := orb.Bound{Min: ls[i], Max: ls[i]}.Extend(ls[i+1])
		if !seg.Intersects(visible) {
			continue
		}
		a := m.projection.Project(ls[i])
		b := m.projection.Project(ls[i+1])
		m.canvas.DrawLine(a.X, a.Y, b.X, b.Y, glyph, style)
	}
	if len(ls) == 1 {
		c := m.projection.Project(ls[0])
		m.canvas.Set(c.X, c.Y, glyph, style)
	}
}

// UpdateCanvas updates the renderer's canvas
func (m *MapRenderer) UpdateCanvas(canvas *Canvas) {
	m.canvas = canvas
}

// Canvas returns the canvas being drawn on
func (m *MapRenderer) Canvas() *Canvas {
	return m.canvas
}
