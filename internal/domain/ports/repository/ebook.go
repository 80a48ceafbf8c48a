package repository

import (
	"context"

	"content-commerce/internal/domain/model"
)

// -----------------------------
// Catalog
// -----------------------------

type EbookRepository interface {
	FindByID(ctx context.Context, tx Tx, id string) (*model.Ebook, error)
	Save(ctx context.Context, tx Tx, e *model.Ebook) error
	IncrementDownloads(ctx context.Context, tx Tx, id string) error
	CountActive(ctx context.Context, tx Tx) (int, error)
	List(ctx context.Context, tx Tx, f model.EbookFilter, p model.Page) ([]*model.Ebook, int, error)
}

// PostRepository only exposes the counters the admin dashboard needs.
type PostRepository interface {
	CountPosts(ctx context.Context, tx Tx) (int, error)
	CountByApproval(ctx context.Context, tx Tx, approval model.PostApproval) (int, error)
}
