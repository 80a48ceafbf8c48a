package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"content-commerce/internal/domain"
	"content-commerce/internal/domain/model"
	"content-commerce/internal/domain/ports/repository"
	"content-commerce/internal/infra/logging"
)

// Compile-time check
var _ AccessUseCase = (*accessUC)(nil)

// AccessUseCase answers "may this user read this ebook". Reads only, no locks.
type AccessUseCase interface {
	ResolveAccess(ctx context.Context, extUserID, ebookID string) (*model.Access, error)
	CheckOwnership(ctx context.Context, extUserID, ebookID string) (bool, *model.Purchase, error)
}

type accessUC struct {
	ebooks    repository.EbookRepository
	purchases repository.PurchaseRepository
	subs      repository.SubscriptionRepository
	log       *zerolog.Logger
	now       func() time.Time
}

func NewAccessUseCase(
	ebooks repository.EbookRepository,
	purchases repository.PurchaseRepository,
	subs repository.SubscriptionRepository,
	logger *zerolog.Logger,
) *accessUC {
	return &accessUC{ebooks: ebooks, purchases: purchases, subs: subs, log: logger, now: time.Now}
}

func (u *accessUC) WithClock(now func() time.Time) *accessUC {
	u.now = now
	return u
}

// ResolveAccess accepts an empty extUserID for anonymous visitors.
func (u *accessUC) ResolveAccess(ctx context.Context, extUserID, ebookID string) (*model.Access, error) {
	defer logging.TraceDuration(u.log, "AccessUC.ResolveAccess")()

	ebook, err := u.ebooks.FindByID(ctx, repository.NoTX, ebookID)
	if err != nil {
		return nil, err
	}
	if !ebook.IsActive {
		return nil, fmt.Errorf("%w: ebook not found", domain.ErrNotFound)
	}
	acc := &model.Access{
		EbookID: ebook.ID,
		Price:   ebook.Price,
		Credits: ebook.Credits,
	}
	if extUserID == "" {
		acc.RequiresUpgrade = ebook.IsPremiumOnly
		return acc, nil
	}

	owned, _, err := u.CheckOwnership(ctx, extUserID, ebook.ID)
	if err != nil {
		return nil, err
	}
	if owned {
		acc.Owned = true
		return acc, nil
	}
	if !ebook.IsPremiumOnly {
		return acc, nil
	}

	sub, err := u.subs.FindByExtUserID(ctx, repository.NoTX, extUserID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	acc.RequiresUpgrade = !sub.HasPremiumAccess(u.now())
	return acc, nil
}

func (u *accessUC) CheckOwnership(ctx context.Context, extUserID, ebookID string) (bool, *model.Purchase, error) {
	if extUserID == "" {
		return false, nil, nil
	}
	p, err := u.purchases.FindSuccessful(ctx, repository.NoTX, extUserID, ebookID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return false, nil, nil
		}
		return false, nil, err
	}
	return p.IsSuccessful(), p, nil
}
