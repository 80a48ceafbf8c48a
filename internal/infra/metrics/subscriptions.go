package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		subscriptionChangesTotal,
		creditsLedgerTotal,
	)
}

var (
	subscriptionChangesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "subscription_changes_total",
			Help: "Subscription lifecycle transitions.",
		},
		[]string{"tier", "change"}, // change: created|upgraded|cancelled
	)

	creditsLedgerTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "credits_ledger_total",
			Help: "Credits moved through the ledger, by operation.",
		},
		[]string{"op"}, // grant|spend|rejected
	)
)

func IncSubscriptionChange(tier, change string) {
	subscriptionChangesTotal.WithLabelValues(norm(tier), norm(change)).Inc()
}

func AddCredits(op string, amount int) {
	creditsLedgerTotal.WithLabelValues(norm(op)).Add(float64(amount))
}
