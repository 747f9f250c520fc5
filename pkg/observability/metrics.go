// Package observability provides Prometheus metrics and HTTP middleware
// for monitoring the strom export service.
package observability

import "github.com/prometheus/client_golang/prometheus"

// StreamBuckets defines histogram buckets suited for export sessions,
// which range from milliseconds (small collections) to minutes (large
// exports over slow clients).
var StreamBuckets = []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60, 300}

var (
	// RequestsTotal counts all HTTP requests by method, status class, and route.
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "strom_requests_total",
			Help: "Total requests",
		},
		[]string{"method", "status", "route"},
	)

	// RequestDuration records HTTP request duration in seconds by method and route.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "strom_request_duration_seconds",
			Help:    "Request duration",
			Buckets: StreamBuckets,
		},
		[]string{"method", "route"},
	)

	// StreamSessionsActive tracks the number of stream sessions currently
	// producing output. Each active session pins one backing resource.
	StreamSessionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "strom_stream_sessions_active",
			Help: "Active stream sessions",
		},
	)

	// StreamSessionsTotal counts finished stream sessions by terminal state
	// (completed, failed, cancelled).
	StreamSessionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "strom_stream_sessions_total",
			Help: "Finished stream sessions by terminal state",
		},
		[]string{"state"},
	)

	// StreamSessionDuration records how long sessions held their backing
	// resource, in seconds.
	StreamSessionDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "strom_stream_session_duration_seconds",
			Help:    "Stream session duration",
			Buckets: StreamBuckets,
		},
	)

	// RecordsStreamed counts record encodings written to clients,
	// including those of sessions that later aborted.
	RecordsStreamed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "strom_records_streamed_total",
			Help: "Records written to stream responses",
		},
	)

	// BytesStreamed counts response body bytes written on stream endpoints.
	BytesStreamed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "strom_stream_bytes_total",
			Help: "Bytes written to stream responses",
		},
	)
)

func init() {
	prometheus.MustRegister(
		RequestsTotal,
		RequestDuration,
		StreamSessionsActive,
		StreamSessionsTotal,
		StreamSessionDuration,
		RecordsStreamed,
		BytesStreamed,
	)
}
