// File: internal/usecase/checkout_uc.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"content-commerce/internal/domain"
	"content-commerce/internal/domain/model"
	"content-commerce/internal/domain/ports/adapter"
	"content-commerce/internal/domain/ports/repository"
	"content-commerce/internal/infra/logging"
	"content-commerce/internal/infra/metrics"
)

// Compile-time check
var _ CheckoutUseCase = (*checkoutUC)(nil)

// CheckoutUseCase opens payments. Cash flows end with a redirect to the
// processor; credit purchases settle immediately.
type CheckoutUseCase interface {
	InitializePurchase(ctx context.Context, actor model.Actor, ebookID string, purchaseType model.PurchaseType) (*CheckoutResult, error)
	InitializeSubscription(ctx context.Context, actor model.Actor, tier model.Tier) (*CheckoutResult, error)
	InitializeDonation(ctx context.Context, actor model.Actor, in model.DonationInput) (*CheckoutResult, error)
}

// CheckoutResult is what the caller needs to continue a checkout.
// RedirectURL is empty for credit purchases, Balance is set only for them.
type CheckoutResult struct {
	Kind         model.PaymentKind
	Reference    string
	RedirectURL  string
	Purchase     *model.Purchase
	Subscription *model.SubscriptionPayment
	Donation     *model.Donation
	Balance      *int
}

type CheckoutConfig struct {
	Currency        string
	CallbackURL     string
	DonationMinimum int64
	InitRateLimit   int // per actor per RateWindow, zero disables
	RateWindow      time.Duration
}

type CheckoutDeps struct {
	Users       repository.UserRepository
	Subs        repository.SubscriptionRepository
	SubPayments repository.SubscriptionPaymentRepository
	Purchases   repository.PurchaseRepository
	Donations   repository.DonationRepository
	Ebooks      repository.EbookRepository
	Ledger      *CreditLedger
	TM          repository.TransactionManager
	Processor   adapter.PaymentProcessor
	Limiter     adapter.RateLimiter   // optional
	Sanitizer   adapter.TextSanitizer // optional
	Config      CheckoutConfig
	Log         *zerolog.Logger
	Clock       func() time.Time
}

type checkoutUC struct {
	CheckoutDeps
}

func NewCheckoutUseCase(d CheckoutDeps) *checkoutUC {
	if d.Clock == nil {
		d.Clock = time.Now
	}
	if d.Config.RateWindow <= 0 {
		d.Config.RateWindow = time.Minute
	}
	if d.Config.DonationMinimum <= 0 {
		d.Config.DonationMinimum = model.DefaultDonationMinimum
	}
	return &checkoutUC{CheckoutDeps: d}
}

func (u *checkoutUC) InitializePurchase(ctx context.Context, actor model.Actor, ebookID string, purchaseType model.PurchaseType) (*CheckoutResult, error) {
	defer logging.TraceDuration(u.Log, "CheckoutUC.InitializePurchase")()

	if !actor.Authenticated() {
		return nil, domain.ErrUnauthenticated
	}
	if purchaseType != model.PurchaseTypeCash && purchaseType != model.PurchaseTypeCredits {
		return nil, fmt.Errorf("%w: unknown purchase type %q", domain.ErrInvalidArgument, purchaseType)
	}
	if err := u.allow(ctx, actor.ExtUserID); err != nil {
		return nil, err
	}

	ebook, err := u.Ebooks.FindByID(ctx, repository.NoTX, ebookID)
	if err != nil {
		return nil, err
	}
	if !ebook.IsActive {
		return nil, fmt.Errorf("%w: ebook not found", domain.ErrNotFound)
	}

	if owned, err := u.Purchases.FindSuccessful(ctx, repository.NoTX, actor.ExtUserID, ebook.ID); err == nil && owned != nil {
		return nil, domain.ErrAlreadyOwned
	} else if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	now := u.Clock()
	sub, err := ensureSubscription(ctx, repository.NoTX, u.Users, u.Subs, actor.ExtUserID, now)
	if err != nil {
		return nil, err
	}
	if ebook.IsPremiumOnly && !sub.HasPremiumAccess(now) {
		return nil, fmt.Errorf("%w: ebook is available to premium members only", domain.ErrUpgradeRequired)
	}

	if purchaseType == model.PurchaseTypeCredits {
		return u.purchaseWithCredits(ctx, actor, ebook)
	}

	email := strings.TrimSpace(actor.Email)
	if email == "" {
		return nil, fmt.Errorf("%w: email is required for card payments", domain.ErrInvalidArgument)
	}
	if ebook.Price <= 0 {
		return nil, fmt.Errorf("%w: ebook has no cash price", domain.ErrInvalidArgument)
	}

	ref := model.NewReference(model.PaymentKindPurchase, now)
	init, err := u.Processor.Initialize(ctx, adapter.InitRequest{
		Email:       email,
		AmountMinor: model.ToMinorUnits(ebook.Price),
		Reference:   ref,
		CallbackURL: u.Config.CallbackURL,
		Currency:    u.Config.Currency,
		Metadata: map[string]any{
			"kind":        string(model.PaymentKindPurchase),
			"ext_user_id": actor.ExtUserID,
			"ebook_id":    ebook.ID,
			"ebook_title": ebook.Title,
		},
	})
	if err != nil {
		metrics.IncPayment(string(model.PaymentKindPurchase), "init_error")
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	}

	p := model.NewCashPurchase(actor.ExtUserID, ebook, ref, now)
	p.Metadata = map[string]any{"ebook_title": ebook.Title, "processor": u.Processor.Name()}
	if err := u.Purchases.Save(ctx, repository.NoTX, p); err != nil {
		return nil, err
	}
	metrics.IncPayment(string(model.PaymentKindPurchase), string(model.PaymentStatusPending))
	logging.With(logging.WithReference(ctx, ref), u.Log).Info().
		Str("ebook_id", ebook.ID).Int64("amount", ebook.Price).Msg("purchase initialized")

	return &CheckoutResult{
		Kind:        model.PaymentKindPurchase,
		Reference:   ref,
		RedirectURL: init.AuthorizationURL,
		Purchase:    p,
	}, nil
}

// purchaseWithCredits settles in a single transaction: the deduction, the
// purchase row and the download counter commit together or not at all.
func (u *checkoutUC) purchaseWithCredits(ctx context.Context, actor model.Actor, ebook *model.Ebook) (*CheckoutResult, error) {
	if ebook.Credits <= 0 {
		return nil, fmt.Errorf("%w: ebook cannot be bought with credits", domain.ErrInvalidArgument)
	}
	now := u.Clock()
	p := model.NewCreditPurchase(actor.ExtUserID, ebook, now)
	p.Metadata = map[string]any{"ebook_title": ebook.Title}

	var balance int
	err := u.TM.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		if _, err := ensureSubscription(ctx, tx, u.Users, u.Subs, actor.ExtUserID, now); err != nil {
			return err
		}
		b, err := u.Ledger.Deduct(ctx, tx, actor.ExtUserID, ebook.Credits)
		if err != nil {
			return err
		}
		if err := u.Purchases.Save(ctx, tx, p); err != nil {
			return err
		}
		if err := u.Ebooks.IncrementDownloads(ctx, tx, ebook.ID); err != nil {
			return err
		}
		balance = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.IncPayment(string(model.PaymentKindPurchase), "credits")
	logging.With(ctx, u.Log).Info().
		Str("ebook_id", ebook.ID).Int("credits", ebook.Credits).Int("balance", balance).
		Msg("ebook purchased with credits")

	return &CheckoutResult{
		Kind:     model.PaymentKindPurchase,
		Purchase: p,
		Balance:  &balance,
	}, nil
}

func (u *checkoutUC) InitializeSubscription(ctx context.Context, actor model.Actor, tier model.Tier) (*CheckoutResult, error) {
	defer logging.TraceDuration(u.Log, "CheckoutUC.InitializeSubscription")()

	if !actor.Authenticated() {
		return nil, domain.ErrUnauthenticated
	}
	offer, err := model.OfferFor(tier)
	if err != nil {
		return nil, err
	}
	email := strings.TrimSpace(actor.Email)
	if email == "" {
		return nil, fmt.Errorf("%w: email is required for card payments", domain.ErrInvalidArgument)
	}
	if err := u.allow(ctx, actor.ExtUserID); err != nil {
		return nil, err
	}

	now := u.Clock()
	sub, err := ensureSubscription(ctx, repository.NoTX, u.Users, u.Subs, actor.ExtUserID, now)
	if err != nil {
		return nil, err
	}
	if sub.Tier == model.TierLifetime {
		return nil, fmt.Errorf("%w: lifetime subscription already active", domain.ErrConflict)
	}

	ref := model.NewReference(model.PaymentKindSubscription, now)
	init, err := u.Processor.Initialize(ctx, adapter.InitRequest{
		Email:       email,
		AmountMinor: model.ToMinorUnits(offer.Price),
		Reference:   ref,
		CallbackURL: u.Config.CallbackURL,
		Currency:    u.Config.Currency,
		Metadata: map[string]any{
			"kind":        string(model.PaymentKindSubscription),
			"ext_user_id": actor.ExtUserID,
			"tier":        string(offer.Tier),
		},
	})
	if err != nil {
		metrics.IncPayment(string(model.PaymentKindSubscription), "init_error")
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	}

	sp := &model.SubscriptionPayment{
		Reference: ref,
		ExtUserID: actor.ExtUserID,
		Tier:      offer.Tier,
		Amount:    offer.Price,
		Status:    model.PaymentStatusPending,
		Metadata:  map[string]any{"processor": u.Processor.Name()},
		CreatedAt: now,
		UpdatedAt: now,
	}
	err = u.TM.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		if err := u.SubPayments.Save(ctx, tx, sp); err != nil {
			return err
		}
		return u.Subs.SetPending(ctx, tx, actor.ExtUserID, ref, offer.Price)
	})
	if err != nil {
		return nil, err
	}

	metrics.IncPayment(string(model.PaymentKindSubscription), string(model.PaymentStatusPending))
	logging.With(logging.WithReference(ctx, ref), u.Log).Info().
		Str("tier", string(offer.Tier)).Int64("amount", offer.Price).Msg("subscription checkout initialized")

	return &CheckoutResult{
		Kind:         model.PaymentKindSubscription,
		Reference:    ref,
		RedirectURL:  init.AuthorizationURL,
		Subscription: sp,
	}, nil
}

// InitializeDonation accepts anonymous callers; the actor only fills defaults.
func (u *checkoutUC) InitializeDonation(ctx context.Context, actor model.Actor, in model.DonationInput) (*CheckoutResult, error) {
	defer logging.TraceDuration(u.Log, "CheckoutUC.InitializeDonation")()

	if u.Sanitizer != nil {
		in.DonorName = u.Sanitizer.Sanitize(in.DonorName)
		in.Message = u.Sanitizer.Sanitize(in.Message)
	}
	if actor.Authenticated() {
		in.ExtUserID = actor.ExtUserID
		if strings.TrimSpace(in.Email) == "" {
			in.Email = actor.Email
		}
		if strings.TrimSpace(in.DonorName) == "" {
			in.DonorName = actor.Username
		}
	}

	now := u.Clock()
	ref := model.NewReference(model.PaymentKindDonation, now)
	d, err := model.NewDonation(in, u.Config.DonationMinimum, ref, now)
	if err != nil {
		return nil, err
	}

	key := d.Email
	if actor.Authenticated() {
		key = actor.ExtUserID
	}
	if err := u.allow(ctx, key); err != nil {
		return nil, err
	}

	init, err := u.Processor.Initialize(ctx, adapter.InitRequest{
		Email:       d.Email,
		AmountMinor: model.ToMinorUnits(d.Amount),
		Reference:   ref,
		CallbackURL: u.Config.CallbackURL,
		Currency:    u.Config.Currency,
		Metadata: map[string]any{
			"kind":         string(model.PaymentKindDonation),
			"donor_name":   d.DonorName,
			"is_anonymous": d.IsAnonymous,
		},
	})
	if err != nil {
		metrics.IncPayment(string(model.PaymentKindDonation), "init_error")
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	}

	d.Metadata = map[string]any{"processor": u.Processor.Name()}
	if err := u.Donations.Save(ctx, repository.NoTX, d); err != nil {
		return nil, err
	}
	metrics.IncPayment(string(model.PaymentKindDonation), string(model.PaymentStatusPending))
	logging.With(logging.WithReference(ctx, ref), u.Log).Info().
		Int64("amount", d.Amount).Bool("anonymous", d.IsAnonymous).Msg("donation initialized")

	return &CheckoutResult{
		Kind:        model.PaymentKindDonation,
		Reference:   ref,
		RedirectURL: init.AuthorizationURL,
		Donation:    d,
	}, nil
}

// allow applies the per-actor checkout rate limit. Limiter failures let the
// request through.
func (u *checkoutUC) allow(ctx context.Context, key string) error {
	if u.Limiter == nil || u.Config.InitRateLimit <= 0 || key == "" {
		return nil
	}
	ok, err := u.Limiter.Allow(ctx, "checkout:"+key, u.Config.InitRateLimit, u.Config.RateWindow)
	if err != nil {
		logging.With(ctx, u.Log).Warn().Err(err).Msg("rate limiter unavailable")
		return nil
	}
	if !ok {
		return fmt.Errorf("%w: too many checkout attempts", domain.ErrRateLimited)
	}
	return nil
}
