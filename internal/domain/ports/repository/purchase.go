package repository

import (
	"context"
	"time"

	"content-commerce/internal/domain/model"
)

// -----------------------------
// Purchases
// -----------------------------

type PurchaseRepository interface {
	// Save inserts a purchase. A second SUCCESS row for the same user and
	// ebook fails with domain.ErrAlreadyOwned.
	Save(ctx context.Context, tx Tx, p *model.Purchase) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Purchase, error)
	FindByReference(ctx context.Context, tx Tx, reference string) (*model.Purchase, error)
	FindSuccessful(ctx context.Context, tx Tx, extUserID, ebookID string) (*model.Purchase, error)

	// MarkSuccessIfPending flips PENDING -> SUCCESS and reports whether this call won.
	MarkSuccessIfPending(ctx context.Context, tx Tx, id, transactionID string) (bool, error)
	// MarkRefundedIfSuccess flips SUCCESS -> REFUNDED.
	MarkRefundedIfSuccess(ctx context.Context, tx Tx, id string) (bool, error)
	RecordDownload(ctx context.Context, tx Tx, id string, at time.Time) error

	ListByUser(ctx context.Context, tx Tx, extUserID string, status *model.PaymentStatus, p model.Page) ([]*model.PurchaseView, int, error)
	ListPendingOlderThan(ctx context.Context, tx Tx, olderThan time.Time, limit int) ([]*model.Purchase, error)

	// --- Admin read-only methods ---
	List(ctx context.Context, tx Tx, f model.PurchaseFilter, p model.Page) ([]*model.PurchaseView, int, error)
	CountSuccessful(ctx context.Context, tx Tx) (int, error)
	// SumCashRevenue sums amount over SUCCESS CASH purchases.
	SumCashRevenue(ctx context.Context, tx Tx) (int64, error)
}
