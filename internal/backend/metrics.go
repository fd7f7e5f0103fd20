package backend

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "campushub",
		Subsystem: "backend",
		Name:      "requests_total",
		Help:      "Backend API requests by method and outcome.",
	}, []string{"method", "outcome"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "campushub",
		Subsystem: "backend",
		Name:      "request_duration_seconds",
		Help:      "Backend API request latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method"})
)

// observe records one completed request. Outcome is "ok", the HTTP
// status class ("4xx"/"5xx"), or "error" for transport failures.
func observe(method, outcome string, seconds float64) {
	requestsTotal.WithLabelValues(method, outcome).Inc()
	requestDuration.WithLabelValues(method).Observe(seconds)
}
