package usecase

import (
	"context"
	"errors"
	"fmt"

	"content-commerce/internal/domain"
	"content-commerce/internal/domain/ports/repository"
	"content-commerce/internal/infra/logging"
	"content-commerce/internal/infra/metrics"

	"github.com/rs/zerolog"
)

// CreditLedger moves credits on a user's subscription. Every operation is a
// single conditional statement in the repository, so concurrent spenders
// cannot drive the balance below zero or lose updates.
type CreditLedger struct {
	subs repository.SubscriptionRepository
	log  *zerolog.Logger
}

func NewCreditLedger(subs repository.SubscriptionRepository, logger *zerolog.Logger) *CreditLedger {
	return &CreditLedger{subs: subs, log: logger}
}

// Add grants credits and returns the new balance.
func (l *CreditLedger) Add(ctx context.Context, tx repository.Tx, extUserID string, amount int) (int, error) {
	defer logging.TraceDuration(l.log, "CreditLedger.Add")()
	if amount <= 0 {
		return 0, fmt.Errorf("%w: credit amount must be positive", domain.ErrInvalidArgument)
	}
	balance, err := l.subs.AddCredits(ctx, tx, extUserID, amount)
	if err != nil {
		return 0, err
	}
	metrics.AddCredits("grant", amount)
	return balance, nil
}

// Deduct spends credits. On domain.ErrInsufficientCredits the balance is untouched.
func (l *CreditLedger) Deduct(ctx context.Context, tx repository.Tx, extUserID string, amount int) (int, error) {
	defer logging.TraceDuration(l.log, "CreditLedger.Deduct")()
	if amount <= 0 {
		return 0, fmt.Errorf("%w: credit amount must be positive", domain.ErrInvalidArgument)
	}
	balance, err := l.subs.DeductCredits(ctx, tx, extUserID, amount)
	if err != nil {
		if errors.Is(err, domain.ErrInsufficientCredits) {
			metrics.AddCredits("rejected", amount)
			logging.With(ctx, l.log).Info().Int("amount", amount).Msg("credit spend rejected: insufficient balance")
		}
		return 0, err
	}
	metrics.AddCredits("spend", amount)
	return balance, nil
}
