package adapter

import (
	"context"
	"time"
)

// PaymentEvent describes a verified payment for out-of-band notification.
type PaymentEvent struct {
	Kind      string // purchase | subscription | donation
	Reference string
	ExtUserID string
	Amount    int64 // major units
	Currency  string
	Detail    string // ebook title, tier or donor name
	At        time.Time
}

// PaymentNotifier delivers payment events to operators.
type PaymentNotifier interface {
	NotifyPaymentSucceeded(ctx context.Context, ev PaymentEvent) error
}
