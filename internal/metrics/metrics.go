// Package metrics aggregates the prometheus collectors used across xenos.
// All collectors are registered on an explicit registry that is constructed
// once on startup and passed down; nothing registers on the default registry.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds every collector of the process plus the registry they are
// registered on. The registry is exposed so the rest server can serve it.
type Metrics struct {
	Registry *prometheus.Registry

	// Requests counts facade requests by request type and handler (grpc/rest).
	Requests *prometheus.CounterVec

	// MojangRequests observes upstream request latencies by request type and
	// response status class.
	MojangRequests *prometheus.HistogramVec

	// CacheGets counts cache reads by tier, request type and result
	// (hit/stale/miss).
	CacheGets *prometheus.CounterVec

	// CacheSets counts cache writes by tier and request type.
	CacheSets *prometheus.CounterVec

	// RemoteCacheErrors counts remote tier failures that were demoted to a miss.
	RemoteCacheErrors *prometheus.CounterVec

	// ServedStale counts responses answered from a stale entry because the
	// upstream was unavailable.
	ServedStale *prometheus.CounterVec
}

// New creates a fresh registry with all xenos collectors registered.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		Registry: reg,
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "xenos_requests_total",
			Help: "Total number of facade requests.",
		}, []string{"request_type", "handler"}),
		MojangRequests: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "xenos_mojang_request_duration_seconds",
			Help:    "The mojang request latencies in seconds.",
			Buckets: []float64{0.020, 0.030, 0.040, 0.050, 0.060, 0.070, 0.080, 0.090, 0.100, 0.150, 0.200},
		}, []string{"request_type", "status"}),
		CacheGets: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "xenos_cache_get_total",
			Help: "Total number of cache get requests.",
		}, []string{"tier", "request_type", "result"}),
		CacheSets: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "xenos_cache_set_total",
			Help: "Total number of cache set requests.",
		}, []string{"tier", "request_type"}),
		RemoteCacheErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "xenos_remote_cache_errors_total",
			Help: "Total number of remote cache errors demoted to a miss.",
		}, []string{"request_type"}),
		ServedStale: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "xenos_served_stale_total",
			Help: "Total number of responses served from a stale cache entry.",
		}, []string{"request_type"}),
	}
	reg.MustRegister(
		m.Requests,
		m.MojangRequests,
		m.CacheGets,
		m.CacheSets,
		m.RemoteCacheErrors,
		m.ServedStale,
	)
	return m
}

// ObserveMojang records a single upstream request.
func (m *Metrics) ObserveMojang(requestType, status string, d time.Duration) {
	m.MojangRequests.WithLabelValues(requestType, status).Observe(d.Seconds())
}
