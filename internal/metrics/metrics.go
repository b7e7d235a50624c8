// Package metrics provides Prometheus metrics for the idmap service
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus collectors for the service.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	// HTTP request metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Resolution metrics
	QueriesTotal *prometheus.CounterVec
	QueryResults prometheus.Histogram

	// Load metrics
	BulkLoadsTotal   *prometheus.CounterVec
	EdgesLoadedTotal prometheus.Counter
}

// New creates the collectors and registers them with reg
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	m := &Metrics{}

	m.HTTPRequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "idmap_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"route", "status"},
	)

	m.HTTPRequestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "idmap_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)

	m.QueriesTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "idmap_queries_total",
			Help: "Total number of resolution queries",
		},
		[]string{"operation", "status"},
	)

	m.QueryResults = factory.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "idmap_query_results",
			Help:    "Number of results returned per resolution query",
			Buckets: []float64{0, 1, 2, 5, 10, 25, 50, 100, 250, 1000},
		},
	)

	m.BulkLoadsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "idmap_bulk_loads_total",
			Help: "Total number of bulk loads by outcome",
		},
		[]string{"status"},
	)

	m.EdgesLoadedTotal = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "idmap_edges_loaded_total",
			Help: "Total number of edges committed by bulk loads",
		},
	)

	return m
}

// Status returns the label used for an operation outcome
func Status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// RecordHTTPRequest records one HTTP request
func (m *Metrics) RecordHTTPRequest(route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(route, statusClass(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(route).Observe(duration.Seconds())
}

// RecordQuery records a resolution query and its result count
func (m *Metrics) RecordQuery(operation string, results int, err error) {
	if m == nil {
		return
	}
	m.QueriesTotal.WithLabelValues(operation, Status(err)).Inc()
	if err == nil {
		m.QueryResults.Observe(float64(results))
	}
}

// RecordBulkLoad records a finished bulk load
func (m *Metrics) RecordBulkLoad(edges int, err error) {
	if m == nil {
		return
	}
	m.BulkLoadsTotal.WithLabelValues(Status(err)).Inc()
	if err == nil {
		m.EdgesLoadedTotal.Add(float64(edges))
	}
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
