// File: internal/usecase/verify_uc.go
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
var _ VerificationUseCase = (*verificationUC)(nil)

const (
	verifyLockTTL        = 30 * time.Second
	defaultVerifyTimeout = 15 * time.Second
)

// VerificationUseCase confirms payments with the processor and applies their
// side effects exactly once per reference.
type VerificationUseCase interface {
	Verify(ctx context.Context, reference string) (*VerifyOutcome, error)
	// ReconcileStale re-verifies PENDING records created before olderThan.
	ReconcileStale(ctx context.Context, olderThan time.Time, limit int) (ReconcileReport, error)
}

type VerifyOutcome struct {
	Kind            model.PaymentKind
	Reference       string
	AlreadyVerified bool
	Message         string
	Purchase        *model.Purchase
	Subscription    *model.Subscription
	Payment         *model.SubscriptionPayment
	Donation        *model.Donation
}

type ReconcileReport struct {
	Checked      int
	Verified     int
	StillPending int
	Failed       int
}

type VerificationDeps struct {
	Users       repository.UserRepository
	Subs        repository.SubscriptionRepository
	SubPayments repository.SubscriptionPaymentRepository
	Purchases   repository.PurchaseRepository
	Donations   repository.DonationRepository
	Ebooks      repository.EbookRepository
	Ledger      *CreditLedger
	TM          repository.TransactionManager
	Processor   adapter.PaymentProcessor
	Locker      adapter.Locker          // optional
	Notifier    adapter.PaymentNotifier // optional
	Timeout     time.Duration
	Currency    string
	Log         *zerolog.Logger
	Clock       func() time.Time
}

type verificationUC struct {
	VerificationDeps
}

func NewVerificationUseCase(d VerificationDeps) *verificationUC {
	if d.Clock == nil {
		d.Clock = time.Now
	}
	if d.Timeout <= 0 {
		d.Timeout = defaultVerifyTimeout
	}
	if d.Ledger == nil {
		d.Ledger = NewCreditLedger(d.Subs, d.Log)
	}
	return &verificationUC{VerificationDeps: d}
}

// localPayment is the kind-independent view of a record being verified.
type localPayment struct {
	kind      model.PaymentKind
	reference string
	extUserID string
	amount    int64 // major units
	status    model.PaymentStatus
	detail    string

	purchase *model.Purchase
	payment  *model.SubscriptionPayment
	donation *model.Donation
}

func (u *verificationUC) Verify(ctx context.Context, reference string) (*VerifyOutcome, error) {
	defer logging.TraceDuration(u.Log, "VerifyUC.Verify")()
	start := time.Now()

	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, fmt.Errorf("%w: reference is required", domain.ErrInvalidArgument)
	}
	ctx = logging.WithReference(ctx, reference)

	lp, err := u.lookup(ctx, reference)
	if err != nil {
		metrics.ObserveVerify("unknown", "fail", verifyReason(err), time.Since(start))
		return nil, err
	}
	kind := string(lp.kind)

	switch lp.status {
	case model.PaymentStatusSuccess:
		metrics.ObserveVerify(kind, "already", "", time.Since(start))
		return u.outcome(ctx, lp, true)
	case model.PaymentStatusPending:
	default:
		metrics.ObserveVerify(kind, "fail", "declined", time.Since(start))
		return nil, fmt.Errorf("%w: payment is %s", domain.ErrVerificationFailed, strings.ToLower(string(lp.status)))
	}

	if u.Locker != nil {
		token, err := u.Locker.TryLock(ctx, "verify:"+reference, verifyLockTTL)
		switch {
		case errors.Is(err, domain.ErrVerificationInProgress):
			metrics.ObserveVerify(kind, "fail", "in_progress", time.Since(start))
			return nil, err
		case err != nil:
			// the conditional status flip still guards double application
			logging.With(ctx, u.Log).Warn().Err(err).Msg("verify lock unavailable, continuing unlocked")
		default:
			defer func() {
				if err := u.Locker.Unlock(context.WithoutCancel(ctx), "verify:"+reference, token); err != nil {
					logging.With(ctx, u.Log).Warn().Err(err).Msg("verify unlock failed")
				}
			}()
		}
	}

	res, err := u.confirm(ctx, lp)
	if err != nil {
		metrics.ObserveVerify(kind, "fail", verifyReason(err), time.Since(start))
		return nil, err
	}

	won, err := u.apply(ctx, lp, res)
	if err != nil {
		metrics.ObserveVerify(kind, "fail", verifyReason(err), time.Since(start))
		return nil, err
	}
	if !won {
		// another verifier committed first
		metrics.ObserveVerify(kind, "already", "", time.Since(start))
		fresh, err := u.lookup(ctx, reference)
		if err != nil {
			return nil, err
		}
		return u.outcome(ctx, fresh, true)
	}

	metrics.ObserveVerify(kind, "ok", "", time.Since(start))
	metrics.IncPayment(kind, string(model.PaymentStatusSuccess))
	metrics.AddPaymentRevenue(kind, u.Currency, lp.amount)
	logging.With(ctx, u.Log).Info().
		Str("kind", kind).Int64("amount", lp.amount).Str("transaction_id", res.TransactionID).
		Msg("payment verified")

	u.notify(ctx, lp)

	fresh, err := u.lookup(ctx, reference)
	if err != nil {
		return nil, err
	}
	return u.outcome(ctx, fresh, false)
}

// lookup probes the collections in the order suggested by the reference prefix.
func (u *verificationUC) lookup(ctx context.Context, reference string) (*localPayment, error) {
	for _, kind := range model.ProbeOrder(reference) {
		lp, err := u.find(ctx, kind, reference)
		if err == nil {
			return lp, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("%w: no payment with reference %s", domain.ErrNotFound, reference)
}

func (u *verificationUC) find(ctx context.Context, kind model.PaymentKind, reference string) (*localPayment, error) {
	switch kind {
	case model.PaymentKindPurchase:
		p, err := u.Purchases.FindByReference(ctx, repository.NoTX, reference)
		if err != nil {
			return nil, err
		}
		lp := &localPayment{kind: kind, reference: reference, extUserID: p.ExtUserID, amount: p.Amount, status: p.Status, purchase: p}
		if title, ok := p.Metadata["ebook_title"].(string); ok {
			lp.detail = title
		}
		return lp, nil
	case model.PaymentKindSubscription:
		sp, err := u.SubPayments.FindByReference(ctx, repository.NoTX, reference)
		if err != nil {
			return nil, err
		}
		return &localPayment{kind: kind, reference: reference, extUserID: sp.ExtUserID, amount: sp.Amount, status: sp.Status, detail: string(sp.Tier), payment: sp}, nil
	case model.PaymentKindDonation:
		d, err := u.Donations.FindByReference(ctx, repository.NoTX, reference)
		if err != nil {
			return nil, err
		}
		lp := &localPayment{kind: kind, reference: reference, amount: d.Amount, status: d.Status, detail: d.DonorName, donation: d}
		if d.ExtUserID != nil {
			lp.extUserID = *d.ExtUserID
		}
		return lp, nil
	}
	return nil, domain.ErrNotFound
}

// confirm asks the processor and checks its answer against the local record.
func (u *verificationUC) confirm(ctx context.Context, lp *localPayment) (adapter.VerifyResult, error) {
	vctx, cancel := context.WithTimeout(ctx, u.Timeout)
	defer cancel()

	res, err := u.Processor.Verify(vctx, lp.reference)
	if err != nil {
		logging.With(ctx, u.Log).Warn().Err(err).Msg("processor verify failed, payment stays pending")
		return res, fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	}
	if res.Status != adapter.ProcessorStatusSuccess {
		return res, fmt.Errorf("%w: processor reports %s", domain.ErrVerificationFailed, res.Status)
	}
	if want := model.ToMinorUnits(lp.amount); res.AmountMinor != want {
		logging.With(ctx, u.Log).Warn().
			Int64("expected", want).Int64("got", res.AmountMinor).Msg("processor amount mismatch")
		return res, fmt.Errorf("%w: amount mismatch", domain.ErrVerificationFailed)
	}
	if res.Reference != "" && res.Reference != lp.reference {
		return res, fmt.Errorf("%w: reference mismatch", domain.ErrVerificationFailed)
	}
	return res, nil
}

// apply commits the status flip and its side effects. It reports false when
// the record was no longer PENDING.
func (u *verificationUC) apply(ctx context.Context, lp *localPayment, res adapter.VerifyResult) (bool, error) {
	now := u.Clock()
	var won bool
	err := u.TM.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		var err error
		switch lp.kind {
		case model.PaymentKindPurchase:
			won, err = u.Purchases.MarkSuccessIfPending(ctx, tx, lp.purchase.ID, res.TransactionID)
			if err != nil || !won {
				return err
			}
			return u.Ebooks.IncrementDownloads(ctx, tx, lp.purchase.EbookID)

		case model.PaymentKindSubscription:
			won, err = u.SubPayments.MarkSuccessIfPending(ctx, tx, lp.reference, res.TransactionID)
			if err != nil || !won {
				return err
			}
			offer, err := model.OfferFor(lp.payment.Tier)
			if err != nil {
				return err
			}
			sub, err := ensureSubscription(ctx, tx, u.Users, u.Subs, lp.extUserID, now)
			if err != nil {
				return err
			}
			change := "upgraded"
			if !sub.ApplyTier(offer, now) {
				change = "kept_lifetime"
				logging.With(ctx, u.Log).Warn().
					Str("ext_user_id", lp.extUserID).Str("tier", string(offer.Tier)).
					Msg("paid tier is below the current LIFETIME, credits granted and tier kept")
			}
			sub.ClearPending(lp.reference)
			if err := u.Subs.Update(ctx, tx, sub); err != nil {
				return err
			}
			if offer.Credits > 0 {
				if _, err := u.Ledger.Add(ctx, tx, lp.extUserID, offer.Credits); err != nil {
					return err
				}
			}
			metrics.IncSubscriptionChange(string(offer.Tier), change)
			return nil

		case model.PaymentKindDonation:
			won, err = u.Donations.MarkSuccessIfPending(ctx, tx, lp.reference, res.TransactionID)
			return err
		}
		return fmt.Errorf("%w: unknown payment kind %s", domain.ErrInvalidArgument, lp.kind)
	})
	if err != nil {
		if errors.Is(err, domain.ErrAlreadyOwned) {
			logging.With(ctx, u.Log).Warn().
				Str("ext_user_id", lp.extUserID).Str("transaction_id", res.TransactionID).
				Msg("paid purchase collides with an existing one, manual refund required")
			return false, fmt.Errorf("%w: item already owned, payment needs a refund", domain.ErrAlreadyOwned)
		}
		return false, err
	}
	return won, nil
}

func (u *verificationUC) notify(ctx context.Context, lp *localPayment) {
	if u.Notifier == nil {
		return
	}
	ev := adapter.PaymentEvent{
		Kind:      string(lp.kind),
		Reference: lp.reference,
		ExtUserID: lp.extUserID,
		Amount:    lp.amount,
		Currency:  u.Currency,
		Detail:    lp.detail,
		At:        u.Clock(),
	}
	if err := u.Notifier.NotifyPaymentSucceeded(ctx, ev); err != nil {
		logging.With(ctx, u.Log).Warn().Err(err).Msg("payment notification failed")
	}
}

func (u *verificationUC) outcome(ctx context.Context, lp *localPayment, already bool) (*VerifyOutcome, error) {
	out := &VerifyOutcome{
		Kind:            lp.kind,
		Reference:       lp.reference,
		AlreadyVerified: already,
		Purchase:        lp.purchase,
		Payment:         lp.payment,
		Donation:        lp.donation,
	}
	if already {
		out.Message = "Payment already verified"
	} else {
		out.Message = "Payment verified successfully"
	}
	if lp.kind == model.PaymentKindSubscription {
		sub, err := u.Subs.FindByExtUserID(ctx, repository.NoTX, lp.extUserID)
		if err != nil {
			return nil, err
		}
		out.Subscription = sub
	}
	return out, nil
}

func (u *verificationUC) ReconcileStale(ctx context.Context, olderThan time.Time, limit int) (ReconcileReport, error) {
	defer logging.TraceDuration(u.Log, "VerifyUC.ReconcileStale")()

	var rep ReconcileReport
	if limit <= 0 {
		limit = 50
	}

	var refs []string
	purchases, err := u.Purchases.ListPendingOlderThan(ctx, repository.NoTX, olderThan, limit)
	if err != nil {
		return rep, err
	}
	for _, p := range purchases {
		if p.Reference != nil {
			refs = append(refs, *p.Reference)
		}
	}
	payments, err := u.SubPayments.ListPendingOlderThan(ctx, repository.NoTX, olderThan, limit)
	if err != nil {
		return rep, err
	}
	for _, sp := range payments {
		refs = append(refs, sp.Reference)
	}
	donations, err := u.Donations.ListPendingOlderThan(ctx, repository.NoTX, olderThan, limit)
	if err != nil {
		return rep, err
	}
	for _, d := range donations {
		refs = append(refs, d.Reference)
	}

	for _, ref := range refs {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		rep.Checked++
		out, err := u.Verify(ctx, ref)
		switch {
		case err == nil && !out.AlreadyVerified:
			rep.Verified++
			metrics.IncReconciled("verified")
		case err == nil:
			metrics.IncReconciled("already")
		case errors.Is(err, domain.ErrVerificationFailed),
			errors.Is(err, domain.ErrUpstreamUnavailable),
			errors.Is(err, domain.ErrVerificationInProgress):
			rep.StillPending++
			metrics.IncReconciled("pending")
		default:
			rep.Failed++
			metrics.IncReconciled("error")
			logging.With(logging.WithReference(ctx, ref), u.Log).Error().Err(err).Msg("reconcile verify failed")
		}
	}
	return rep, nil
}

func verifyReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrUpstreamUnavailable):
		return "upstream"
	case errors.Is(err, domain.ErrVerificationInProgress):
		return "in_progress"
	case errors.Is(err, domain.ErrAlreadyOwned), errors.Is(err, domain.ErrConflict):
		return "conflict"
	case errors.Is(err, domain.ErrVerificationFailed):
		if strings.Contains(err.Error(), "mismatch") {
			return "mismatch"
		}
		return "declined"
	}
	return "storage"
}
