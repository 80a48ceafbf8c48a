// File: internal/usecase/subscription_uc.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"content-commerce/internal/domain"
	"content-commerce/internal/domain/model"
	"content-commerce/internal/domain/ports/repository"
	"content-commerce/internal/infra/logging"
	"content-commerce/internal/infra/metrics"
)

// Compile-time check
var _ SubscriptionUseCase = (*subscriptionUC)(nil)

// SubscriptionUseCase manages the per-user subscription singleton.
type SubscriptionUseCase interface {
	// Get returns the user's subscription, creating the FREE default on first access.
	Get(ctx context.Context, extUserID string) (*model.Subscription, error)
	Cancel(ctx context.Context, extUserID string) (*model.Subscription, error)
	UseCredits(ctx context.Context, extUserID string, amount int) (*model.Subscription, error)
}

type subscriptionUC struct {
	users  repository.UserRepository
	subs   repository.SubscriptionRepository
	ledger *CreditLedger
	tm     repository.TransactionManager
	log    *zerolog.Logger
	now    func() time.Time
}

func NewSubscriptionUseCase(
	users repository.UserRepository,
	subs repository.SubscriptionRepository,
	ledger *CreditLedger,
	tm repository.TransactionManager,
	logger *zerolog.Logger,
) *subscriptionUC {
	return &subscriptionUC{users: users, subs: subs, ledger: ledger, tm: tm, log: logger, now: time.Now}
}

// WithClock replaces the time source.
func (u *subscriptionUC) WithClock(now func() time.Time) *subscriptionUC {
	u.now = now
	return u
}

func (u *subscriptionUC) Get(ctx context.Context, extUserID string) (*model.Subscription, error) {
	defer logging.TraceDuration(u.log, "SubscriptionUC.Get")()
	return ensureSubscription(ctx, repository.NoTX, u.users, u.subs, extUserID, u.now())
}

func (u *subscriptionUC) Cancel(ctx context.Context, extUserID string) (*model.Subscription, error) {
	defer logging.TraceDuration(u.log, "SubscriptionUC.Cancel")()

	var out *model.Subscription
	err := u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		s, err := ensureSubscription(ctx, tx, u.users, u.subs, extUserID, u.now())
		if err != nil {
			return err
		}
		if err := s.Cancel(u.now()); err != nil {
			return err
		}
		if err := u.subs.Update(ctx, tx, s); err != nil {
			return err
		}
		out = s
		return nil
	})
	if err != nil {
		return nil, err
	}
	metrics.IncSubscriptionChange(string(out.Tier), "cancelled")
	logging.With(ctx, u.log).Info().Str("tier", string(out.Tier)).Msg("subscription cancelled")
	return out, nil
}

func (u *subscriptionUC) UseCredits(ctx context.Context, extUserID string, amount int) (*model.Subscription, error) {
	defer logging.TraceDuration(u.log, "SubscriptionUC.UseCredits")()

	s, err := ensureSubscription(ctx, repository.NoTX, u.users, u.subs, extUserID, u.now())
	if err != nil {
		return nil, err
	}
	balance, err := u.ledger.Deduct(ctx, repository.NoTX, extUserID, amount)
	if err != nil {
		return nil, err
	}
	s.Credits = balance
	return s, nil
}

// ensureSubscription returns the user's subscription, creating the FREE
// default when missing. The user must have been synced first.
func ensureSubscription(
	ctx context.Context,
	tx repository.Tx,
	users repository.UserRepository,
	subs repository.SubscriptionRepository,
	extUserID string,
	now time.Time,
) (*model.Subscription, error) {
	if extUserID == "" {
		return nil, domain.ErrUnauthenticated
	}
	s, err := subs.FindByExtUserID(ctx, tx, extUserID)
	if err == nil {
		return s, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	if _, err := users.FindByExtID(ctx, tx, extUserID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: user not found", domain.ErrNotFound)
		}
		return nil, err
	}
	def, err := model.NewDefaultSubscription(extUserID, now)
	if err != nil {
		return nil, err
	}
	if err := subs.CreateIfMissing(ctx, tx, def); err != nil {
		return nil, err
	}
	metrics.IncSubscriptionChange(string(model.TierFree), "created")
	return subs.FindByExtUserID(ctx, tx, extUserID)
}
