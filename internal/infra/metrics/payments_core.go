package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		paymentsTotal,
		paymentsRevenueTotal,
		refundsTotal,
	)
}

var (
	paymentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payments_total",
			Help: "Payments by kind and status (initiated/succeeded/failed).",
		},
		[]string{"kind", "status"},
	)

	paymentsRevenueTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payments_revenue_total",
			Help: "The total monetary value of successful payments, labeled by kind and currency.",
		},
		[]string{"kind", "currency"},
	)

	refundsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_refunds_total",
			Help: "Refund attempts by result.",
		},
		[]string{"result"},
	)
)

func IncPayment(kind, status string) {
	paymentsTotal.WithLabelValues(norm(kind), norm(status)).Inc()
}

func AddPaymentRevenue(kind, currency string, amount int64) {
	paymentsRevenueTotal.WithLabelValues(norm(kind), norm(currency)).Add(float64(amount))
}

func IncRefund(result string) {
	refundsTotal.WithLabelValues(norm(result)).Inc()
}
