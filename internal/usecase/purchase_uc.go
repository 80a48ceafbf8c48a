package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"content-commerce/internal/domain"
	"content-commerce/internal/domain/model"
	"content-commerce/internal/domain/ports/adapter"
	"content-commerce/internal/domain/ports/repository"
	"content-commerce/internal/infra/logging"
)

// Compile-time check
var _ PurchaseUseCase = (*purchaseUC)(nil)

const defaultHistorySize = 10

// PurchaseUseCase is the buyer's library.
type PurchaseUseCase interface {
	Download(ctx context.Context, extUserID, purchaseID string) (*DownloadLink, error)
	History(ctx context.Context, extUserID string, page model.Page) ([]*model.PurchaseView, int, error)
	MyPurchases(ctx context.Context, extUserID string) ([]*model.PurchaseView, error)
}

type DownloadLink struct {
	URL           string
	Title         string
	Format        model.EbookFormat
	DownloadCount int
}

type purchaseUC struct {
	purchases repository.PurchaseRepository
	ebooks    repository.EbookRepository
	signer    adapter.DownloadSigner
	log       *zerolog.Logger
	now       func() time.Time
}

func NewPurchaseUseCase(
	purchases repository.PurchaseRepository,
	ebooks repository.EbookRepository,
	signer adapter.DownloadSigner,
	logger *zerolog.Logger,
) *purchaseUC {
	return &purchaseUC{purchases: purchases, ebooks: ebooks, signer: signer, log: logger, now: time.Now}
}

func (u *purchaseUC) Download(ctx context.Context, extUserID, purchaseID string) (*DownloadLink, error) {
	defer logging.TraceDuration(u.log, "PurchaseUC.Download")()

	if extUserID == "" {
		return nil, domain.ErrUnauthenticated
	}
	p, err := u.purchases.FindByID(ctx, repository.NoTX, purchaseID)
	if err != nil {
		return nil, err
	}
	if p.ExtUserID != extUserID {
		return nil, fmt.Errorf("%w: purchase belongs to another user", domain.ErrForbidden)
	}
	if !p.IsSuccessful() {
		return nil, fmt.Errorf("%w: payment not completed", domain.ErrInvalidArgument)
	}
	ebook, err := u.ebooks.FindByID(ctx, repository.NoTX, p.EbookID)
	if err != nil {
		return nil, err
	}

	url := ebook.FileURL
	if u.signer != nil {
		if url, err = u.signer.SignDownloadURL(ctx, ebook.FileURL); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
		}
	}
	if err := u.purchases.RecordDownload(ctx, repository.NoTX, p.ID, u.now()); err != nil {
		return nil, err
	}

	logging.With(ctx, u.log).Info().Str("purchase_id", p.ID).Str("ebook_id", ebook.ID).Msg("download issued")
	return &DownloadLink{
		URL:           url,
		Title:         ebook.Title,
		Format:        ebook.Format,
		DownloadCount: p.DownloadCount + 1,
	}, nil
}

func (u *purchaseUC) History(ctx context.Context, extUserID string, page model.Page) ([]*model.PurchaseView, int, error) {
	defer logging.TraceDuration(u.log, "PurchaseUC.History")()
	if extUserID == "" {
		return nil, 0, domain.ErrUnauthenticated
	}
	return u.purchases.ListByUser(ctx, repository.NoTX, extUserID, nil, page.Normalize(defaultHistorySize))
}

func (u *purchaseUC) MyPurchases(ctx context.Context, extUserID string) ([]*model.PurchaseView, error) {
	defer logging.TraceDuration(u.log, "PurchaseUC.MyPurchases")()
	if extUserID == "" {
		return nil, domain.ErrUnauthenticated
	}
	st := model.PaymentStatusSuccess
	items, _, err := u.purchases.ListByUser(ctx, repository.NoTX, extUserID, &st, model.Page{Number: 1, Size: model.MaxPageSize})
	return items, err
}
