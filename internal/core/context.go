package core

import (
	"log/slog"

	"wisatamap/internal/debug"
	"wisatamap/internal/events"

	"github.com/paulmach/orb"
)

// Viewport is the part of the map every component may steer.
type Viewport interface {
	Center() orb.Point
	FitBound(b orb.Bound)
	CenterOn(p orb.Point, radiusKm float64)
}

// Context is the shared state handed to every component constructor.
// It is owned by the engine and lives as long as the engine does.
type Context struct {
	Bus  *events.Bus
	View Viewport
	Log  *slog.Logger
}

// NewContext creates a context with a fresh bus. A nil logger falls back to
// the debug logger.
func NewContext(view Viewport, log *slog.Logger) *Context {
	if log == nil {
		log = debug.L()
	}
	return &Context{
		Bus:  events.NewBus(),
		View: view,
		Log:  log,
	}
}

// Notify publishes a user-facing notice
func (c *Context) Notify(level events.Level, msg string) {
	c.Bus.Publish(events.Notice{Level: level, Message: msg})
}
