package telegram

import (
	"context"

	"github.com/rs/zerolog"

	"content-commerce/internal/domain/ports/adapter"
)

var _ adapter.PaymentNotifier = (*NoopNotifier)(nil)

// NoopNotifier logs payment events instead of sending them.
type NoopNotifier struct {
	log *zerolog.Logger
}

func NewNoopNotifier(logger *zerolog.Logger) *NoopNotifier {
	return &NoopNotifier{log: logger}
}

func (n *NoopNotifier) NotifyPaymentSucceeded(ctx context.Context, ev adapter.PaymentEvent) error {
	n.log.Debug().
		Str("kind", ev.Kind).
		Str("reference", ev.Reference).
		Int64("amount", ev.Amount).
		Msg("[noop-notify] payment succeeded")
	return nil
}
