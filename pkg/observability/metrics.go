// Package observability provides Prometheus metrics, a bounded
// recent-request recorder, and HTTP middleware for monitoring the
// einlass admission layer.
package observability

import "github.com/prometheus/client_golang/prometheus"

// BackendBuckets defines histogram buckets suited for LLM backend
// latencies, ranging from 100ms to 120s.
var BackendBuckets = []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120}

var (
	// RequestsTotal counts all HTTP requests by method, status class, and route.
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "einlass_requests_total",
			Help: "Total requests",
		},
		[]string{"method", "status", "route"},
	)

	// RequestDuration records HTTP request duration in seconds by method and route.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "einlass_request_duration_seconds",
			Help:    "Request duration",
			Buckets: BackendBuckets,
		},
		[]string{"method", "route"},
	)

	// AdmissionRejectionsTotal counts requests rejected before dispatch,
	// by rejection reason (the classified error type).
	AdmissionRejectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "einlass_admission_rejections_total",
			Help: "Admission rejections",
		},
		[]string{"reason"},
	)

	// RateLimitRejectedTotal counts requests rejected by the rate limiter.
	RateLimitRejectedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "einlass_ratelimit_rejected_total",
			Help: "Rate limit rejections",
		},
		[]string{"route"},
	)

	// BackendRequestsTotal counts requests dispatched to the chat backend.
	BackendRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "einlass_backend_requests_total",
			Help: "Backend requests",
		},
		[]string{"provider", "model", "status"},
	)

	// BackendLatency records backend dispatch latency in seconds.
	BackendLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "einlass_backend_latency_seconds",
			Help:    "Backend latency",
			Buckets: BackendBuckets,
		},
		[]string{"provider", "model"},
	)
)

func init() {
	prometheus.MustRegister(
		RequestsTotal,
		RequestDuration,
		AdmissionRejectionsTotal,
		RateLimitRejectedTotal,
		BackendRequestsTotal,
		BackendLatency,
	)
}
