package ui

import (
	"wisatamap/internal/debug"
	"wisatamap/internal/geo"
	"wisatamap/internal/render"
	"wisatamap/internal/view"

	"github.com/gdamore/tcell/v2"
	"github.com/paulmach/orb"
)

// Zoom limits for the keyboard
const (
	zoomStep = 0.75
	panStep  = 4
)

// MapView displays the basemap, markers and overlays
type MapView struct {
	renderer   *render.MapRenderer
	projection *geo.Projection
	palette    *render.Palette
	canvas     *render.Canvas
	x, y       int
	width      int
	height     int
}

// NewMapView creates a map view drawing through the shared projection
func NewMapView(x, y, width, height int, projection *geo.Projection, basemap *geo.Basemap) *MapView {
	projection.UpdateDimensions(width, height)
	canvas := render.NewCanvas(width, height)
	palette := render.NewPalette(nil)

	return &MapView{
		renderer:   render.NewMapRenderer(projection, basemap, palette, canvas),
		projection: projection,
		palette:    palette,
		canvas:     canvas,
		x:          x,
		y:          y,
		width:      width,
		height:     height,
	}
}

// Draw renders the map view to the screen
func (m *MapView) Draw(screen tcell.Screen, model view.Model) {
	m.renderer.Render(model)
	m.canvas.Blit(screen, m.x, m.y)
}

// UpdateCategories recolours markers for a new category list
func (m *MapView) UpdateCategories(items []view.CategoryItem) {
	cats := make([]string, 0, len(items))
	for _, it := range items[min(1, len(items)):] {
		cats = append(cats, it.Name)
	}
	m.palette.Update(cats)
}

// Palette returns the category colours shared with the sidebar
func (m *MapView) Palette() *render.Palette {
	return m.palette
}

// Contains reports whether a screen position lies on the map
func (m *MapView) Contains(sx, sy int) bool {
	return sx >= m.x && sx < m.x+m.width && sy >= m.y && sy < m.y+m.height
}

// CellAt converts a screen position to a map cell
func (m *MapView) CellAt(sx, sy int) geo.Cell {
	return geo.Cell{X: sx - m.x, Y: sy - m.y}
}

// PointAt returns the location under a screen position
func (m *MapView) PointAt(sx, sy int) orb.Point {
	return m.projection.Unproject(m.CellAt(sx, sy))
}

// HitBound returns the area a click at sx,sy may select
func (m *MapView) HitBound(sx, sy int) orb.Bound {
	return m.projection.CellBound(m.CellAt(sx, sy), 1)
}

// UpdateDimensions updates the view when the screen is resized
func (m *MapView) UpdateDimensions(x, y, width, height int) {
	m.x = x
	m.y = y
	m.width = width
	m.height = height

	m.projection.UpdateDimensions(width, height)

	m.canvas = render.NewCanvas(width, height)
	m.renderer.UpdateCanvas(m.canvas)
}

// ZoomIn decreases the radius
func (m *MapView) ZoomIn() {
	m.projection.SetRadius(m.projection.Radius() * zoomStep)
	debug.Log("map_zoom", "radius_km", m.projection.Radius())
}

// ZoomOut increases the radius
func (m *MapView) ZoomOut() {
	m.projection.SetRadius(m.projection.Radius() / zoomStep)
	debug.Log("map_zoom", "radius_km", m.projection.Radius())
}

// Pan moves the view by a number of steps
func (m *MapView) Pan(dx, dy int) {
	m.projection.Pan(dx*panStep*2, dy*panStep)
}
