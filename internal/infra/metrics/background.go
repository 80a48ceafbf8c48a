package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		reconciledTotal,
		notificationsTotal,
		httpRequestsTotal,
	)
}

var (
	reconciledTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_reconciled_total",
			Help: "Stale pending payments revisited by the reconciler, labeled by result.",
		},
		[]string{"result"}, // 'verified', 'pending', 'error'
	)

	notificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_notifications_total",
			Help: "Operator notifications about payments by channel and delivery status.",
		},
		[]string{"channel", "status"}, // status: sent|error|dropped
	)

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by route pattern and status code.",
		},
		[]string{"route", "code"},
	)
)

func IncReconciled(result string) {
	reconciledTotal.WithLabelValues(norm(result)).Inc()
}

func IncNotification(channel, status string) {
	notificationsTotal.WithLabelValues(norm(channel), norm(status)).Inc()
}

func IncHTTPRequest(route, code string) {
	httpRequestsTotal.WithLabelValues(route, code).Inc()
}
