package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service's Prometheus collectors.
type Metrics struct {
	registry *prometheus.Registry

	// HTTPRequests counts completed requests by route, method, and status.
	HTTPRequests *prometheus.CounterVec

	// HTTPDuration observes request handling time by route and method.
	HTTPDuration *prometheus.HistogramVec

	// ThumbnailJobs counts worker jobs by result (ok, failed).
	ThumbnailJobs *prometheus.CounterVec
}

// InitMetrics registers the collectors on a fresh registry (keeps tests from
// tripping over duplicate registration).
func InitMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "filekeeper_http_requests_total",
			Help: "Completed HTTP requests.",
		}, []string{"route", "method", "status"}),
		HTTPDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "filekeeper_http_request_duration_seconds",
			Help:    "HTTP request handling time.",
			Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 2.5, 5, 10},
		}, []string{"route", "method"}),
		ThumbnailJobs: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "filekeeper_thumbnail_jobs_total",
			Help: "Thumbnail jobs processed by the worker pool.",
		}, []string{"result"}),
	}
}

// Handler returns the HTTP handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
