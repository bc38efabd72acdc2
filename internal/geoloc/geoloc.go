package geoloc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"wisatamap/internal/debug"
	"wisatamap/internal/metrics"

	"github.com/paulmach/orb"
)

// ErrDenied is returned when the locator answers but has no position for us
var ErrDenied = errors.New("location denied")

// Locator produces the user's current position
type Locator interface {
	Locate(ctx context.Context) (orb.Point, error)
}

// Static always returns the same position (from -origin)
type Static struct {
	Point orb.Point
}

// Locate returns the configured point
func (s Static) Locate(context.Context) (orb.Point, error) {
	return s.Point, nil
}

// ipResponse is the ip-api.com style payload
type ipResponse struct {
	Status  string  `json:"status"`
	Message string  `json:"message"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

// IPLocator approximates the position from the public IP address
type IPLocator struct {
	URL    string
	Client *http.Client
}

// Locate queries the IP geolocation endpoint
func (l IPLocator) Locate(ctx context.Context) (orb.Point, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.URL, nil)
	if err != nil {
		return orb.Point{}, err
	}
	client := l.Client
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}

	t0 := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		debug.L().Warn("geoloc_http_error", "err", err)
		return orb.Point{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return orb.Point{}, fmt.Errorf("geolocation: unexpected status %d", resp.StatusCode)
	}

	var r ipResponse
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		debug.L().Warn("geoloc_decode_error", "err", err)
		return orb.Point{}, err
	}
	debug.Log("geoloc_resp", "status", r.Status, "lat", r.Lat, "lon", r.Lon, "duration_ms", time.Since(t0).Milliseconds())

	if r.Status != "success" {
		if r.Message != "" {
			return orb.Point{}, fmt.Errorf("%w: %s", ErrDenied, r.Message)
		}
		return orb.Point{}, ErrDenied
	}
	return orb.Point{r.Lon, r.Lat}, nil
}

// Tracker remembers the last successful fix
type Tracker struct {
	loc Locator
	log *slog.Logger

	mu        sync.RWMutex
	last      orb.Point
	has       bool
	attempted bool
	lastErr   error
}

// NewTracker creates a tracker. A nil locator means geolocation is unsupported.
func NewTracker(loc Locator, log *slog.Logger) *Tracker {
	if log == nil {
		log = debug.L()
	}
	return &Tracker{loc: loc, log: log}
}

// Refresh asks the locator for a new fix. On failure the previous fix, if
// any, is kept.
func (t *Tracker) Refresh(ctx context.Context) error {
	if t.loc == nil {
		t.mu.Lock()
		t.attempted = true
		t.lastErr = errors.New("geolocation not supported")
		t.mu.Unlock()
		return t.lastError()
	}

	p, err := t.loc.Locate(ctx)

	t.mu.Lock()
	defer t.mu.Unlock()
	t.attempted = true
	t.lastErr = err
	if err != nil {
		metrics.GeolocRequestsTotal.WithLabelValues("error").Inc()
		t.log.Warn("geoloc_failed", "err", err)
		return err
	}
	metrics.GeolocRequestsTotal.WithLabelValues("ok").Inc()
	t.last = p
	t.has = true
	t.log.Info("geoloc_fix", "lat", p.Lat(), "lon", p.Lon())
	return nil
}

func (t *Tracker) lastError() error {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.lastErr
}

// Last returns the last known position
func (t *Tracker) Last() (orb.Point, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.last, t.has
}

// Attempted reports whether a lookup has been made
func (t *Tracker) Attempted() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.attempted
}

// Err returns the error of the latest lookup
func (t *Tracker) Err() error {
	return t.lastError()
}
