package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	BackendRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "wisata_backend_requests_total",
		Help: "Backend API calls by endpoint and outcome (ok, rejected, error)",
	}, []string{"endpoint", "outcome"})
	BackendDurationMs = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "wisata_backend_duration_ms",
		Help:    "Backend API call duration in milliseconds",
		Buckets: []float64{5, 10, 20, 50, 100, 200, 500, 1000, 2000, 5000},
	}, []string{"endpoint"})
	RouteRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "wisata_route_requests_total",
		Help: "Route requests by outcome (ok, not_found, superseded)",
	}, []string{"outcome"})
	GeolocRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "wisata_geoloc_requests_total",
		Help: "Geolocation lookups by outcome",
	}, []string{"outcome"})
	StoreFeatures = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "wisata_store_features",
		Help: "Number of features currently held by the store",
	})
)

func init() {
	prometheus.MustRegister(BackendRequestsTotal)
	prometheus.MustRegister(BackendDurationMs)
	prometheus.MustRegister(RouteRequestsTotal)
	prometheus.MustRegister(GeolocRequestsTotal)
	prometheus.MustRegister(StoreFeatures)
}

// Handler serves the default registry
func Handler() http.Handler {
	return promhttp.Handler()
}
