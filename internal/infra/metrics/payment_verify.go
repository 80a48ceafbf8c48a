package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		paymentVerifyRequests,
		paymentVerifyDuration,
	)
}

var (
	// result: ok|already|fail
	// reason (fail only): not_found|declined|mismatch|upstream|conflict|in_progress|storage
	paymentVerifyRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_verify_requests_total",
			Help: "Count of payment verifications by kind, result and reason.",
		},
		[]string{"kind", "result", "reason"},
	)

	paymentVerifyDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "payment_verify_duration_seconds",
			Help:    "Duration of payment verification in seconds, processor call included.",
			Buckets: []float64{0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 15},
		},
		[]string{"result"},
	)
)

func ObserveVerify(kind, result, reason string, elapsed time.Duration) {
	if reason == "" {
		reason = "none"
	}
	paymentVerifyRequests.WithLabelValues(norm(kind), norm(result), norm(reason)).Inc()
	paymentVerifyDuration.WithLabelValues(norm(result)).Observe(elapsed.Seconds())
}
