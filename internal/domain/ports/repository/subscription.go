package repository

import (
	"context"
	"time"

	"content-commerce/internal/domain/model"
)

// SubscriptionRepository is the port for the per-user subscription singleton
// and its credit balance.
type SubscriptionRepository interface {
	// CreateIfMissing inserts s unless the user already has a subscription.
	CreateIfMissing(ctx context.Context, tx Tx, s *model.Subscription) error
	// FindByExtUserID locks the row when called inside a transaction.
	FindByExtUserID(ctx context.Context, tx Tx, extUserID string) (*model.Subscription, error)
	Update(ctx context.Context, tx Tx, s *model.Subscription) error
	SetPending(ctx context.Context, tx Tx, extUserID, reference string, amount int64) error

	// AddCredits and DeductCredits are single atomic statements and return the
	// new balance. DeductCredits fails with domain.ErrInsufficientCredits and
	// leaves the balance alone when it would go negative.
	AddCredits(ctx context.Context, tx Tx, extUserID string, amount int) (int, error)
	DeductCredits(ctx context.Context, tx Tx, extUserID string, amount int) (int, error)

	// --- Admin read-only methods ---
	List(ctx context.Context, tx Tx, f model.SubscriptionFilter, p model.Page) ([]*model.SubscriptionView, int, error)
	// CountPremiumActive counts PREMIUM and LIFETIME subscriptions with ACTIVE status.
	CountPremiumActive(ctx context.Context, tx Tx) (int, error)
}

// SubscriptionPaymentRepository stores one row per subscription checkout.
type SubscriptionPaymentRepository interface {
	Save(ctx context.Context, tx Tx, p *model.SubscriptionPayment) error
	FindByReference(ctx context.Context, tx Tx, reference string) (*model.SubscriptionPayment, error)
	// MarkSuccessIfPending flips PENDING -> SUCCESS and reports whether this call won.
	MarkSuccessIfPending(ctx context.Context, tx Tx, reference, transactionID string) (bool, error)
	ListPendingOlderThan(ctx context.Context, tx Tx, olderThan time.Time, limit int) ([]*model.SubscriptionPayment, error)
}
