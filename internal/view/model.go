package view

import (
	"strings"

	"wisatamap/internal/events"

	"github.com/paulmach/orb"
)

// Surface is a bitmask of independently redrawn screen regions
type Surface uint16

const (
	SurfaceMarkers Surface = 1 << iota
	SurfacePolygons
	SurfaceSidebar
	SurfaceSuggestions
	SurfacePopup
	SurfaceRoute
	SurfaceDraft
	SurfaceStatus
	SurfaceNotice

	SurfaceNone Surface = 0
	SurfaceAll  Surface = SurfaceNotice<<1 - 1
)

var surfaceNames = []string{"markers", "polygons", "sidebar", "suggestions", "popup", "route", "draft", "status", "notice"}

// Has reports whether all surfaces in x are set
func (s Surface) Has(x Surface) bool {
	return s&x == x
}

// String lists the set surfaces, e.g. "markers|sidebar"
func (s Surface) String() string {
	if s == SurfaceNone {
		return "none"
	}
	var parts []string
	for i, name := range surfaceNames {
		if s&(1<<i) != 0 {
			parts = append(parts, name)
		}
	}
	return strings.Join(parts, "|")
}

// Marker is a point drawn on the map
type Marker struct {
	ID          string
	Location    orb.Point
	Category    string
	Area        bool
	Selected    bool
	Provisional bool
}

// Polygon is a highlighted area outline
type Polygon struct {
	ID       string
	Ring     orb.Ring
	Category string
}

// CategoryItem is one row of the category list
type CategoryItem struct {
	Name   string
	Label  string
	Count  int
	Active bool
}

// SidebarItem is one visible feature in the list
type SidebarItem struct {
	ID       string
	Label    string
	Category string
	Selected bool
}

// Sidebar is the category list followed by the visible features
type Sidebar struct {
	Categories []CategoryItem
	Items      []SidebarItem
}

// Popup describes the focused feature
type Popup struct {
	ID          string
	Title       string
	Category    string
	Address     string
	Description string
	Position    string
	Routed      bool
}

// RouteOverlay is the active route
type RouteOverlay struct {
	Destination string
	Origin      orb.Point
	FromCenter  bool
	Path        orb.LineString
	Pending     bool
	Summary     string
}

// DraftOverlay is the geometry being drawn
type DraftOverlay struct {
	Mode        string
	Point       *orb.Point
	Vertices    []orb.Point
	FormOpen    bool
	Submitting  bool
	Provisional *Marker
}

// Model is everything the terminal renders
type Model struct {
	Markers       []Marker
	Polygons      []Polygon
	Route         *RouteOverlay
	Draft         DraftOverlay
	Sidebar       Sidebar
	Suggestions   []string
	SuggestOpen   bool
	SearchTerm    string
	Category      string
	Popup         *Popup
	Status        string
	Notice        *events.Notice
	ConfirmDelete string
	Visible       int
	Total         int
}
