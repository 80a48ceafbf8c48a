package usecase

import (
	"context"

	"github.com/rs/zerolog"

	"content-commerce/internal/domain/model"
	"content-commerce/internal/domain/ports/repository"
	"content-commerce/internal/infra/logging"
)

// Compile-time check
var _ DonationUseCase = (*donationUC)(nil)

const (
	recentDonations = 10
	defaultFeedSize = 20
	maxFeedSize     = 50
)

// DonationUseCase is the public read side of donations.
type DonationUseCase interface {
	Stats(ctx context.Context) (*model.DonationStats, error)
	// Feed never exposes donor emails; anonymous donors are masked.
	Feed(ctx context.Context, limit int) ([]model.PublicDonation, error)
}

type donationUC struct {
	donations repository.DonationRepository
	log       *zerolog.Logger
}

func NewDonationUseCase(donations repository.DonationRepository, logger *zerolog.Logger) *donationUC {
	return &donationUC{donations: donations, log: logger}
}

func (u *donationUC) Stats(ctx context.Context) (*model.DonationStats, error) {
	defer logging.TraceDuration(u.log, "DonationUC.Stats")()
	count, total, err := u.donations.SuccessTotals(ctx, repository.NoTX)
	if err != nil {
		return nil, err
	}
	recent, err := u.donations.ListRecentSuccessful(ctx, repository.NoTX, recentDonations)
	if err != nil {
		return nil, err
	}
	return &model.DonationStats{Count: count, Total: total, Recent: recent}, nil
}

func (u *donationUC) Feed(ctx context.Context, limit int) ([]model.PublicDonation, error) {
	defer logging.TraceDuration(u.log, "DonationUC.Feed")()
	if limit <= 0 {
		limit = defaultFeedSize
	}
	if limit > maxFeedSize {
		limit = maxFeedSize
	}
	items, err := u.donations.ListRecentSuccessful(ctx, repository.NoTX, limit)
	if err != nil {
		return nil, err
	}
	out := make([]model.PublicDonation, 0, len(items))
	for _, d := range items {
		out = append(out, d.Public())
	}
	return out, nil
}
