package routing

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"wisatamap/internal/core"
	"wisatamap/internal/debug"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/paulmach/orb/geojson"
)

// Route is a computed path between two points
type Route struct {
	Path            orb.LineString
	DistanceMeters  float64
	DurationSeconds float64
}

// Bound returns the extent of the path
func (r *Route) Bound() orb.Bound {
	return r.Path.Bound()
}

// Summary formats distance and travel time for the status line
func (r *Route) Summary() string {
	km := r.DistanceMeters / 1000
	mins := int(r.DurationSeconds/60 + 0.5)
	if mins >= 60 {
		return fmt.Sprintf("%.1f km, %dh %02dm", km, mins/60, mins%60)
	}
	return fmt.Sprintf("%.1f km, %d min", km, mins)
}

// Provider computes routes
type Provider interface {
	Route(ctx context.Context, from, to orb.Point) (*Route, error)
}

// OSRM queries an OSRM compatible routing service
type OSRM struct {
	BaseURL string
	Profile string
	Client  *http.Client
}

type osrmResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Routes  []struct {
		Geometry *geojson.Geometry `json:"geometry"`
		Distance float64           `json:"distance"`
		Duration float64           `json:"duration"`
	} `json:"routes"`
}

// Route calls /route/v1/{profile}/{from};{to} and returns the first route.
// Any answer other than code "Ok" with at least one route is
// core.ErrRouteNotFound.
func (o OSRM) Route(ctx context.Context, from, to orb.Point) (*Route, error) {
	profile := o.Profile
	if profile == "" {
		profile = "driving"
	}
	u := fmt.Sprintf("%s/route/v1/%s/%f,%f;%f,%f?overview=full&geometries=geojson",
		strings.TrimRight(o.BaseURL, "/"), profile, from.Lon(), from.Lat(), to.Lon(), to.Lat())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	client := o.Client
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	t0 := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return nil, &core.FetchError{Op: "route", Err: err}
	}
	defer resp.Body.Close()

	var r osrmResponse
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return nil, &core.FetchError{Op: "route", Err: err}
	}
	debug.Log("osrm_resp", "code", r.Code, "routes", len(r.Routes), "duration_ms", time.Since(t0).Milliseconds())

	if r.Code != "Ok" || len(r.Routes) == 0 {
		return nil, fmt.Errorf("%w: %s %s", core.ErrRouteNotFound, r.Code, r.Message)
	}

	first := r.Routes[0]
	var path orb.LineString
	if first.Geometry != nil {
		if ls, ok := first.Geometry.Geometry().(orb.LineString); ok {
			path = ls
		}
	}
	if len(path) < 2 {
		path = orb.LineString{from, to}
	}
	return &Route{Path: path, DistanceMeters: first.Distance, DurationSeconds: first.Duration}, nil
}

// StraightLine is an offline provider returning the direct segment
type StraightLine struct {
	SpeedKmh float64
}

// Route returns the segment from -> to with its haversine length
func (s StraightLine) Route(_ context.Context, from, to orb.Point) (*Route, error) {
	speed := s.SpeedKmh
	if speed <= 0 {
		speed = 40
	}
	d := geo.DistanceHaversine(from, to)
	return &Route{
		Path:            orb.LineString{from, to},
		DistanceMeters:  d,
		DurationSeconds: d / (speed * 1000 / 3600),
	}, nil
}
