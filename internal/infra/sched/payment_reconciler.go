package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"content-commerce/internal/usecase"
)

const reconcileBatch = 200

// PaymentReconciler periodically re-verifies stale PENDING payments. It covers
// callbacks that never arrived and verifications cut short by a crash.
type PaymentReconciler struct {
	uc         usecase.VerificationUseCase
	interval   time.Duration // how often to scan
	staleAfter time.Duration // how old a pending payment must be to retry
	now        func() time.Time
	log        *zerolog.Logger
}

func NewPaymentReconciler(uc usecase.VerificationUseCase, interval, staleAfter time.Duration, logger *zerolog.Logger) *PaymentReconciler {
	if interval <= 0 {
		interval = time.Minute
	}
	if staleAfter <= 0 {
		staleAfter = 10 * time.Minute
	}
	l := logger.With().Str("component", "PaymentReconciler").Logger()
	return &PaymentReconciler{uc: uc, interval: interval, staleAfter: staleAfter, now: time.Now, log: &l}
}

func (w *PaymentReconciler) Run(ctx context.Context) error {
	w.log.Info().Dur("interval", w.interval).Dur("stale_after", w.staleAfter).Msg("Starting payment reconciler")
	t := time.NewTicker(w.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping payment reconciler")
			return ctx.Err()
		case <-t.C:
			w.Tick(ctx)
		}
	}
}

// Tick runs one reconciliation pass.
func (w *PaymentReconciler) Tick(ctx context.Context) usecase.ReconcileReport {
	rep, err := w.uc.ReconcileStale(ctx, w.now().Add(-w.staleAfter), reconcileBatch)
	if err != nil {
		w.log.Error().Err(err).Msg("payment reconcile failed")
		return rep
	}
	if rep.Checked > 0 {
		w.log.Info().
			Int("checked", rep.Checked).
			Int("verified", rep.Verified).
			Int("still_pending", rep.StillPending).
			Int("failed", rep.Failed).
			Msg("payment reconcile pass")
	}
	return rep
}
