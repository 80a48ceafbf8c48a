package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"content-commerce/internal/domain"
	"content-commerce/internal/domain/model"
	"content-commerce/internal/domain/ports/adapter"
	"content-commerce/internal/domain/ports/repository"
	"content-commerce/internal/infra/logging"
	"content-commerce/internal/infra/metrics"
)

// Compile-time check
var _ AdminUseCase = (*adminUC)(nil)

// AdminUseCase backs the dashboard. Everything except RefundPurchase is a
// lock-free read on the pool.
type AdminUseCase interface {
	Stats(ctx context.Context) (*model.AdminStats, error)
	ListPurchases(ctx context.Context, f model.PurchaseFilter, p model.Page) ([]*model.PurchaseView, int, error)
	ListSubscriptions(ctx context.Context, f model.SubscriptionFilter, p model.Page) ([]*model.SubscriptionView, int, error)
	ListDonations(ctx context.Context, f model.DonationFilter, p model.Page) ([]*model.Donation, int, error)
	ListEbooks(ctx context.Context, f model.EbookFilter, p model.Page) ([]*model.Ebook, int, error)
	ListUsers(ctx context.Context, f model.UserFilter, p model.Page) ([]*model.User, int, error)
	RefundPurchase(ctx context.Context, purchaseID string) (*model.Purchase, error)
}

type AdminDeps struct {
	Users     repository.UserRepository
	Subs      repository.SubscriptionRepository
	Purchases repository.PurchaseRepository
	Donations repository.DonationRepository
	Ebooks    repository.EbookRepository
	Posts     repository.PostRepository
	Processor adapter.PaymentProcessor
	Log       *zerolog.Logger
}

type adminUC struct {
	AdminDeps
}

func NewAdminUseCase(d AdminDeps) *adminUC {
	return &adminUC{AdminDeps: d}
}

func (u *adminUC) Stats(ctx context.Context) (*model.AdminStats, error) {
	defer logging.TraceDuration(u.Log, "AdminUC.Stats")()

	var st model.AdminStats
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		st.TotalUsers, err = u.Users.CountUsers(gctx, repository.NoTX)
		return
	})
	g.Go(func() (err error) {
		st.TotalPosts, err = u.Posts.CountPosts(gctx, repository.NoTX)
		return
	})
	g.Go(func() (err error) {
		st.PendingPosts, err = u.Posts.CountByApproval(gctx, repository.NoTX, model.PostApprovalPending)
		return
	})
	g.Go(func() (err error) {
		st.TotalEbooks, err = u.Ebooks.CountActive(gctx, repository.NoTX)
		return
	})
	g.Go(func() (err error) {
		st.SuccessfulPurchases, err = u.Purchases.CountSuccessful(gctx, repository.NoTX)
		return
	})
	g.Go(func() (err error) {
		st.TotalRevenue, err = u.Purchases.SumCashRevenue(gctx, repository.NoTX)
		return
	})
	g.Go(func() (err error) {
		st.PremiumUsers, err = u.Subs.CountPremiumActive(gctx, repository.NoTX)
		return
	})
	g.Go(func() (err error) {
		st.DonationCount, st.DonationTotal, err = u.Donations.SuccessTotals(gctx, repository.NoTX)
		return
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &st, nil
}

func (u *adminUC) ListPurchases(ctx context.Context, f model.PurchaseFilter, p model.Page) ([]*model.PurchaseView, int, error) {
	return u.Purchases.List(ctx, repository.NoTX, f, p.Normalize(model.DefaultPageSize))
}

func (u *adminUC) ListSubscriptions(ctx context.Context, f model.SubscriptionFilter, p model.Page) ([]*model.SubscriptionView, int, error) {
	return u.Subs.List(ctx, repository.NoTX, f, p.Normalize(model.DefaultPageSize))
}

func (u *adminUC) ListDonations(ctx context.Context, f model.DonationFilter, p model.Page) ([]*model.Donation, int, error) {
	return u.Donations.List(ctx, repository.NoTX, f, p.Normalize(model.DefaultPageSize))
}

func (u *adminUC) ListEbooks(ctx context.Context, f model.EbookFilter, p model.Page) ([]*model.Ebook, int, error) {
	return u.Ebooks.List(ctx, repository.NoTX, f, p.Normalize(model.DefaultPageSize))
}

func (u *adminUC) ListUsers(ctx context.Context, f model.UserFilter, p model.Page) ([]*model.User, int, error) {
	f.Search = strings.TrimSpace(f.Search)
	return u.Users.List(ctx, repository.NoTX, f, p.Normalize(model.DefaultPageSize))
}

// RefundPurchase returns the money at the processor first and then revokes
// ownership. A processor failure leaves the purchase SUCCESS.
func (u *adminUC) RefundPurchase(ctx context.Context, purchaseID string) (*model.Purchase, error) {
	defer logging.TraceDuration(u.Log, "AdminUC.RefundPurchase")()

	p, err := u.Purchases.FindByID(ctx, repository.NoTX, purchaseID)
	if err != nil {
		return nil, err
	}
	if p.PurchaseType != model.PurchaseTypeCash {
		metrics.IncRefund("rejected")
		return nil, fmt.Errorf("%w: only cash purchases can be refunded", domain.ErrInvalidArgument)
	}
	if !p.IsSuccessful() {
		metrics.IncRefund("rejected")
		return nil, fmt.Errorf("%w: purchase is %s", domain.ErrConflict, strings.ToLower(string(p.Status)))
	}
	if p.TransactionID == nil || *p.TransactionID == "" {
		metrics.IncRefund("rejected")
		return nil, fmt.Errorf("%w: purchase has no processor transaction", domain.ErrInvalidArgument)
	}

	res, err := u.Processor.Refund(ctx, *p.TransactionID, model.ToMinorUnits(p.Amount))
	if err != nil {
		metrics.IncRefund("upstream_error")
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	}

	won, err := u.Purchases.MarkRefundedIfSuccess(ctx, repository.NoTX, p.ID)
	if err != nil {
		return nil, err
	}
	if !won {
		metrics.IncRefund("conflict")
		return nil, fmt.Errorf("%w: purchase changed during refund", domain.ErrConflict)
	}
	metrics.IncRefund("ok")
	logging.With(ctx, u.Log).Info().
		Str("purchase_id", p.ID).Str("refund_id", res.ID).Int64("amount", p.Amount).
		Msg("purchase refunded")

	return u.Purchases.FindByID(ctx, repository.NoTX, p.ID)
}
