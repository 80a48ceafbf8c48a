package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"content-commerce/internal/domain/ports/adapter"
	"content-commerce/internal/infra/metrics"
)

var _ adapter.PaymentNotifier = (*AsyncNotifier)(nil)

const notifyTimeout = 10 * time.Second

// AsyncNotifier hands payment events to the pool so verification never waits
// on the notification channel.
type AsyncNotifier struct {
	inner   adapter.PaymentNotifier
	pool    *Pool
	channel string
	log     *zerolog.Logger
}

func NewAsyncNotifier(inner adapter.PaymentNotifier, pool *Pool, channel string, logger *zerolog.Logger) *AsyncNotifier {
	return &AsyncNotifier{inner: inner, pool: pool, channel: channel, log: logger}
}

// NotifyPaymentSucceeded only fails when the queue is saturated.
func (a *AsyncNotifier) NotifyPaymentSucceeded(_ context.Context, ev adapter.PaymentEvent) error {
	err := a.pool.Submit(func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, notifyTimeout)
		defer cancel()
		if err := a.inner.NotifyPaymentSucceeded(ctx, ev); err != nil {
			metrics.IncNotification(a.channel, "error")
			a.log.Warn().Err(err).Str("reference", ev.Reference).Msg("payment notification failed")
			return nil
		}
		metrics.IncNotification(a.channel, "sent")
		return nil
	})
	if err != nil {
		metrics.IncNotification(a.channel, "dropped")
	}
	return err
}
