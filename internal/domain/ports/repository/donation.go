package repository

import (
	"context"
	"time"

	"content-commerce/internal/domain/model"
)

type DonationRepository interface {
	Save(ctx context.Context, tx Tx, d *model.Donation) error
	FindByReference(ctx context.Context, tx Tx, reference string) (*model.Donation, error)
	MarkSuccessIfPending(ctx context.Context, tx Tx, reference, transactionID string) (bool, error)
	ListRecentSuccessful(ctx context.Context, tx Tx, limit int) ([]*model.Donation, error)
	// SuccessTotals returns count and sum of SUCCESS donations.
	SuccessTotals(ctx context.Context, tx Tx) (int, int64, error)
	ListPendingOlderThan(ctx context.Context, tx Tx, olderThan time.Time, limit int) ([]*model.Donation, error)
	List(ctx context.Context, tx Tx, f model.DonationFilter, p model.Page) ([]*model.Donation, int, error)
}
