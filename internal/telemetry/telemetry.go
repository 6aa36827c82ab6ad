// Package telemetry exposes Prometheus collectors for the service.
package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	backendRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scrape_backend_requests_total",
			Help: "Total requests issued to the scraping backend, labeled by operation and outcome.",
		},
		[]string{"operation", "outcome"},
	)

	backendRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "scrape_backend_request_duration_seconds",
			Help:    "Histogram of backend request latencies, labeled by operation.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"operation"},
	)

	rateLimitWaitSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "scrape_rate_limit_wait_seconds",
			Help:    "Histogram of rate limiter admission waits.",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
	)

	circuitBreakerOpens = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "scrape_circuit_breaker_opens_total",
			Help: "Times the circuit breaker transitioned to open.",
		},
	)

	scrapeResultsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scrape_results_total",
			Help: "Content scrape results, labeled by status and method.",
		},
		[]string{"status", "method"},
	)

	pipelinePhaseDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pipeline_phase_duration_seconds",
			Help:    "Histogram of pipeline phase durations, labeled by phase.",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 60, 180, 600},
		},
		[]string{"phase"},
	)

	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests served, labeled by method and code.",
		},
		[]string{"method", "code"},
	)

	httpRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of served HTTP request latencies, labeled by method and route.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"method", "route"},
	)
)

// Handler returns an http.Handler exposing the Prometheus registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveBackendRequest records one backend request attempt.
func ObserveBackendRequest(operation, outcome string, duration time.Duration) {
	backendRequestsTotal.WithLabelValues(operation, outcome).Inc()
	backendRequestDurationSeconds.WithLabelValues(operation).Observe(duration.Seconds())
}

// ObserveRateLimitWait records how long a caller waited for admission.
func ObserveRateLimitWait(duration time.Duration) {
	if duration > time.Millisecond {
		rateLimitWaitSeconds.Observe(duration.Seconds())
	}
}

// ObserveCircuitOpen counts a closed-to-open breaker transition.
func ObserveCircuitOpen() {
	circuitBreakerOpens.Inc()
}

// ObserveScrapeResult counts one per-URL scrape outcome.
func ObserveScrapeResult(status, method string) {
	scrapeResultsTotal.WithLabelValues(status, method).Inc()
}

// ObservePipelinePhase records the duration of a pipeline phase.
func ObservePipelinePhase(phase string, duration time.Duration) {
	pipelinePhaseDurationSeconds.WithLabelValues(phase).Observe(duration.Seconds())
}

// ObserveHTTPRequest records a served HTTP request.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}
