package geo

import (
	"math"
	"sync"

	"github.com/paulmach/orb"
)

// 1 degree latitude ≈ 111 km (constant)
const kmPerDegreeLat = 111.0

const (
	MinRadiusKm = 0.2
	MaxRadiusKm = 500.0
)

// Cell is a screen coordinate
type Cell struct {
	X int
	Y int
}

// Projection converts between lat/lon and terminal cells. It doubles as the
// map viewport shared by the engine and the map view, so all methods are
// safe for concurrent use.
type Projection struct {
	mu           sync.RWMutex
	centerLat    float64
	centerLon    float64
	radiusKm     float64
	screenWidth  int
	screenHeight int
	aspectRatio  float64
	scaleX       float64
	scaleY       float64
}

// NewProjection creates an equirectangular projection for a given center point and radius
// The projection will fit a circle of radiusKm around the center point into the screen dimensions
// aspectRatio compensates for character dimensions (typically 2.0 for characters twice as tall as wide)
func NewProjection(center orb.Point, radiusKm float64, screenWidth, screenHeight int, aspectRatio float64) *Projection {
	if aspectRatio <= 0 {
		aspectRatio = 2.0
	}
	p := &Projection{
		centerLat:    center.Lat(),
		centerLon:    center.Lon(),
		radiusKm:     clampRadius(radiusKm),
		screenWidth:  screenWidth,
		screenHeight: screenHeight,
		aspectRatio:  aspectRatio,
	}

	p.calculateScale()
	return p
}

func clampRadius(r float64) float64 {
	return math.Max(MinRadiusKm, math.Min(MaxRadiusKm, r))
}

// calculateScale computes the cells-per-degree scaling factors so a circle of
// radiusKm fits the shorter screen side. Callers hold mu.
func (p *Projection) calculateScale() {
	// 1 degree longitude ≈ 111 * cos(latitude) km
	kmPerDegreeLon := kmPerDegreeLat * math.Cos(p.centerLat*math.Pi/180.0)

	// Rows are aspectRatio times taller than columns are wide
	span := math.Min(float64(p.screenWidth), float64(p.screenHeight)*p.aspectRatio)
	cellsPerKm := math.Max(span, 1) / (2 * p.radiusKm)

	p.scaleX = cellsPerKm * kmPerDegreeLon
	p.scaleY = cellsPerKm * kmPerDegreeLat / p.aspectRatio
}

// Project converts a point to screen coordinates with (0, 0) at top-left
func (p *Projection) Project(pt orb.Point) Cell {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.project(pt)
}

func (p *Projection) project(pt orb.Point) Cell {
	deltaLat := pt.Lat() - p.centerLat
	deltaLon := pt.Lon() - p.centerLon

	// Y is inverted: positive lat goes up, screen Y goes down
	x := int(math.Floor(deltaLon * p.scaleX))
	y := int(math.Floor(-deltaLat * p.scaleY))

	return Cell{X: x + p.screenWidth/2, Y: y + p.screenHeight/2}
}

// Unproject converts the center of a screen cell back to a point
func (p *Projection) Unproject(c Cell) orb.Point {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.unproject(float64(c.X)+0.5, float64(c.Y)+0.5)
}

func (p *Projection) unproject(x, y float64) orb.Point {
	x -= float64(p.screenWidth / 2)
	y -= float64(p.screenHeight / 2)

	deltaLon := x / p.scaleX
	deltaLat := -y / p.scaleY

	return orb.Point{p.centerLon + deltaLon, p.centerLat + deltaLat}
}

// CellBound returns the geographic extent of a screen cell grown by pad cells
// in every direction. Used to hit-test clicks.
func (p *Projection) CellBound(c Cell, pad int) orb.Bound {
	p.mu.RLock()
	defer p.mu.RUnlock()
	a := p.unproject(float64(c.X-pad), float64(c.Y-pad))
	b := p.unproject(float64(c.X+pad+1), float64(c.Y+pad+1))
	return orb.Bound{Min: a, Max: a}.Extend(b)
}

// InView checks if a point would be visible on screen
func (p *Projection) InView(pt orb.Point) bool {
	c := p.Project(pt)
	p.mu.RLock()
	defer p.mu.RUnlock()
	return c.X >= 0 && c.X < p.screenWidth && c.Y >= 0 && c.Y < p.screenHeight
}

// Center returns the current center point
func (p *Projection) Center() orb.Point {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return orb.Point{p.centerLon, p.centerLat}
}

// CenterOn moves the view to pt with the given radius. A non-positive radius
// keeps the current zoom.
func (p *Projection) CenterOn(pt orb.Point, radiusKm float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.centerLat = pt.Lat()
	p.centerLon = pt.Lon()
	if radiusKm > 0 {
		p.radiusKm = clampRadius(radiusKm)
	}
	p.calculateScale()
}

// FitBound centers on b and zooms so all of it is visible
func (p *Projection) FitBound(b orb.Bound) {
	center := b.Center()
	halfLat := (b.Max.Lat() - b.Min.Lat()) / 2 * kmPerDegreeLat
	halfLon := (b.Max.Lon() - b.Min.Lon()) / 2 * kmPerDegreeLat * math.Cos(center.Lat()*math.Pi/180.0)

	// 20% padding around the bound
	p.CenterOn(center, math.Max(halfLat, halfLon)*1.2)
}

// Pan shifts the center by a number of cells
func (p *Projection) Pan(dx, dy int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.centerLon += float64(dx) / p.scaleX
	p.centerLat -= float64(dy) / p.scaleY
	p.calculateScale()
}

// SetRadius changes the zoom level
func (p *Projection) SetRadius(radiusKm float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.radiusKm = clampRadius(radiusKm)
	p.calculateScale()
}

// Radius returns the current radius in km
func (p *Projection) Radius() float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.radiusKm
}

// UpdateDimensions updates the screen dimensions and recalculates scaling
func (p *Projection) UpdateDimensions(width, height int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.screenWidth = width
	p.screenHeight = height
	p.calculateScale()
}

// Bounds returns the geographic bounds visible on screen
func (p *Projection) Bounds() orb.Bound {
	p.mu.RLock()
	defer p.mu.RUnlock()
	topLeft := p.unproject(0, 0)
	bottomRight := p.unproject(float64(p.screenWidth), float64(p.screenHeight))
	return orb.Bound{Min: topLeft, Max: topLeft}.Extend(bottomRight)
}
