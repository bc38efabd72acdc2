package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"wisatamap/internal/core"
	"wisatamap/internal/debug"
	"wisatamap/internal/metrics"
	"wisatamap/internal/poi"

	"github.com/paulmach/orb/geojson"
)

// Client talks to the tourism data backend
type Client struct {
	baseURL string
	http    *http.Client
	log     *slog.Logger
}

// NewClient creates a client for baseURL. A nil httpClient gets a 10s timeout.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		log:     debug.L(),
	}
}

// BaseURL returns the backend address
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Fetch downloads the full feature collection
func (c *Client) Fetch(ctx context.Context) ([]*poi.Feature, error) {
	const endpoint = "get_geojson_data"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+PathFeatures, nil)
	if err != nil {
		return nil, &core.FetchError{Op: endpoint, Err: err}
	}

	t0 := time.Now()
	c.log.Debug("backend_req", "endpoint", endpoint)
	resp, err := c.http.Do(req)
	if err != nil {
		c.observe(endpoint, "error", t0)
		return nil, &core.FetchError{Op: endpoint, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.observe(endpoint, "error", t0)
		return nil, &core.FetchError{Op: endpoint, Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		c.observe(endpoint, "error", t0)
		var e struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(body, &e) == nil && e.Error != "" {
			return nil, &core.FetchError{Op: endpoint, Err: fmt.Errorf("status %d: %s", resp.StatusCode, e.Error)}
		}
		return nil, &core.FetchError{Op: endpoint, Err: fmt.Errorf("status %s", resp.Status)}
	}

	features, err := poi.DecodeCollection(body)
	if err != nil {
		c.observe(endpoint, "error", t0)
		return nil, &core.FetchError{Op: endpoint, Err: err}
	}
	c.observe(endpoint, "ok", t0)
	c.log.Debug("backend_resp", "endpoint", endpoint, "features", len(features), "duration_ms", time.Since(t0).Milliseconds())
	return features, nil
}

// AddPoint posts a new point feature
func (c *Client) AddPoint(ctx context.Context, f *poi.Feature) error {
	return c.post(ctx, "add_point", PathAddPoint, AddPointRequest{
		Latitude:   f.Location.Lat(),
		Longitude:  f.Location.Lon(),
		Properties: PropertiesOf(f),
	})
}

// AddPolygon posts a new area feature with its closed ring and centroid
func (c *Client) AddPolygon(ctx context.Context, f *poi.Feature) error {
	if !f.HasArea() {
		return &core.ValidationError{Field: "geometry", Reason: "feature has no area"}
	}
	return c.post(ctx, "add_polygon", PathAddArea, NewAddPolygonRequest(f))
}

// Edit replaces the properties and geometry of the feature named oldID
func (c *Client) Edit(ctx context.Context, oldID string, f *poi.Feature) error {
	return c.post(ctx, "edit_data", PathEdit, EditRequest{
		Name:          oldID,
		NewProperties: PropertiesOf(f),
		NewGeometry:   geojson.NewGeometry(f.Geometry()),
	})
}

// Delete removes the named feature
func (c *Client) Delete(ctx context.Context, id string) error {
	return c.post(ctx, "delete_data", PathDelete, DeleteRequest{Name: id})
}

// post sends a JSON body and interprets the {success, error} answer
func (c *Client) post(ctx context.Context, endpoint, path string, body any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return &core.FetchError{Op: endpoint, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return &core.FetchError{Op: endpoint, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	t0 := time.Now()
	c.log.Debug("backend_req", "endpoint", endpoint)
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Error("backend_http_error", "endpoint", endpoint, "err", err)
		c.observe(endpoint, "error", t0)
		return &core.FetchError{Op: endpoint, Err: err}
	}
	defer resp.Body.Close()

	var r Result
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		c.log.Error("backend_decode_error", "endpoint", endpoint, "status", resp.StatusCode, "err", err)
		c.observe(endpoint, "error", t0)
		return &core.FetchError{Op: endpoint, Err: fmt.Errorf("status %d: %w", resp.StatusCode, err)}
	}
	if !r.Success {
		msg := r.Error
		if msg == "" {
			msg = fmt.Sprintf("%s failed (%s)", endpoint, resp.Status)
		}
		c.log.Warn("backend_rejected", "endpoint", endpoint, "error", msg)
		c.observe(endpoint, "rejected", t0)
		return &core.ServerRejection{Op: endpoint, Message: msg}
	}

	c.observe(endpoint, "ok", t0)
	c.log.Debug("backend_resp", "endpoint", endpoint, "duration_ms", time.Since(t0).Milliseconds())
	return nil
}

func (c *Client) observe(endpoint, outcome string, t0 time.Time) {
	metrics.BackendRequestsTotal.WithLabelValues(endpoint, outcome).Inc()
	metrics.BackendDurationMs.WithLabelValues(endpoint).Observe(float64(time.Since(t0).Milliseconds()))
}
