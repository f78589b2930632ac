package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Bounded cardinality constants for metric labels. Label values must
// come from these sets so the series count stays fixed.
const (
	// Advisory request outcomes
	OutcomeSuccess            = "success"
	OutcomeRateLimited        = "rate_limited"
	OutcomeInvalidRequest     = "invalid_request"
	OutcomeServiceUnavailable = "service_unavailable"
	OutcomeGenerationFailed   = "generation_failed"

	// Completion attempt outcomes
	AttemptOutcomeSuccess         = "success"
	AttemptOutcomeTransportError  = "transport_error"
	AttemptOutcomeSchemaViolation = "schema_violation"
)

var (
	// AdvisoryRequests counts advisory requests by terminal outcome
	AdvisoryRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "charlie_advisory_requests_total",
		Help: "Total advisory requests by terminal outcome",
	}, []string{"outcome"})

	// CompletionAttempts counts upstream completion attempts by attempt
	// number and outcome
	CompletionAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "charlie_completion_attempts_total",
		Help: "Completion provider attempts by attempt number and outcome",
	}, []string{"attempt", "outcome"})

	// CompletionLatency observes the latency of completion provider calls
	CompletionLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "charlie_completion_latency_seconds",
		Help:    "Latency of completion provider calls",
		Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30},
	})

	// RateLimitDenials counts requests denied by the rate limiter
	RateLimitDenials = promauto.NewCounter(prometheus.CounterOpts{
		Name: "charlie_rate_limit_denials_total",
		Help: "Requests denied by the per-caller rate limiter",
	})

	// HTTPRequests counts HTTP requests by method, path and status
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "charlie_http_requests_total",
		Help: "HTTP requests by method, path and status code",
	}, []string{"method", "path", "status"})

	// HTTPDuration observes HTTP request durations
	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "charlie_http_request_duration_seconds",
		Help:    "HTTP request duration by method and path",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})
)

// RecordAdvisoryRequest records the terminal outcome of one advisory request
func RecordAdvisoryRequest(outcome string) {
	AdvisoryRequests.WithLabelValues(outcome).Inc()
}

// RecordCompletionAttempt records one upstream completion attempt
func RecordCompletionAttempt(attempt int, outcome string) {
	label := "1"
	if attempt == 2 {
		label = "2"
	}
	CompletionAttempts.WithLabelValues(label, outcome).Inc()
}

// ObserveCompletionLatency records the latency of one provider call
func ObserveCompletionLatency(seconds float64) {
	CompletionLatency.Observe(seconds)
}

// RecordRateLimitDenial records one rate-limited request
func RecordRateLimitDenial() {
	RateLimitDenials.Inc()
}

// RecordHTTPRequest records one served HTTP request
func RecordHTTPRequest(method, path, status string, seconds float64) {
	HTTPRequests.WithLabelValues(method, path, status).Inc()
	HTTPDuration.WithLabelValues(method, path).Observe(seconds)
}
