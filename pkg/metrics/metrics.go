// Package metrics holds the Prometheus collectors exported by the server.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry is the dedicated Prometheus registry for the API
	Registry = prometheus.NewRegistry()
	// HTTPRequests counts requests by method, path, and status
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "http_requests_total", Help: "Total HTTP requests."},
		[]string{"method", "path", "status"},
	)
	// HTTPDuration records request durations in seconds
	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "http_request_duration_seconds", Help: "HTTP request duration in seconds.", Buckets: prometheus.DefBuckets},
		[]string{"method", "path", "status"},
	)

	// RouteQueries counts point-to-point queries by outcome
	RouteQueries = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "route_queries_total", Help: "Route queries by result."},
		[]string{"result"},
	)
	// RouteNodes tracks A* search nodes generated per successful query
	RouteNodes = prometheus.NewHistogram(
		prometheus.HistogramOpts{Name: "route_search_nodes", Help: "A* search nodes generated per route query.", Buckets: prometheus.ExponentialBuckets(16, 4, 8)},
	)
	// PlanTourMeters tracks the road length of planned tours
	PlanTourMeters = prometheus.NewHistogram(
		prometheus.HistogramOpts{Name: "plan_tour_meters", Help: "Road length of planned delivery tours in meters.", Buckets: prometheus.ExponentialBuckets(500, 2, 10)},
	)
	// OptimizerSavings tracks the straight-line meters saved by reordering
	OptimizerSavings = prometheus.NewHistogram(
		prometheus.HistogramOpts{Name: "optimizer_saved_meters", Help: "Straight-line tour meters saved by the optimizer.", Buckets: prometheus.ExponentialBuckets(10, 4, 8)},
	)
)

// RegisterDefault registers collectors to the dedicated registry.
func RegisterDefault() {
	regOnce.Do(func() {
		Registry.MustRegister(HTTPRequests)
		Registry.MustRegister(HTTPDuration)
		Registry.MustRegister(RouteQueries)
		Registry.MustRegister(RouteNodes)
		Registry.MustRegister(PlanTourMeters)
		Registry.MustRegister(OptimizerSavings)
		// Go/process collectors on our registry
		Registry.MustRegister(collectors.NewGoCollector())
		Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
}

var regOnce sync.Once

// Handler serves the registry in the Prometheus exposition format.
func Handler() http.Handler {
	RegisterDefault()
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{Registry: Registry})
}
