package web

import (
	"context"
	"errors"
	"time"

	"content-commerce/internal/domain/model"
	"content-commerce/internal/usecase"
)

var errNotStubbed = errors.New("not stubbed")

var (
	_ usecase.UserUseCase         = (*stubUsers)(nil)
	_ usecase.SubscriptionUseCase = (*stubSubs)(nil)
	_ usecase.CheckoutUseCase     = (*stubCheckout)(nil)
	_ usecase.VerificationUseCase = (*stubVerify)(nil)
	_ usecase.DonationUseCase     = stubDonations{}
	_ usecase.AdminUseCase        = (*stubAdmin)(nil)
	_ SignatureVerifier           = stubSignature{}
)

type stubUsers struct {
	got model.Actor
}

func (s *stubUsers) Sync(ctx context.Context, a model.Actor) (*model.User, error) {
	s.got = a
	return &model.User{ID: "u1", ExtUserID: a.ExtUserID, Email: a.Email, Role: model.RoleUser}, nil
}

func (s *stubUsers) Get(ctx context.Context, ext string) (*model.User, error) {
	return nil, errNotStubbed
}

type stubSubs struct {
	UseCreditsFunc func(ctx context.Context, ext string, amount int) (*model.Subscription, error)
}

func (s *stubSubs) Get(ctx context.Context, ext string) (*model.Subscription, error) {
	return &model.Subscription{ExtUserID: ext, Tier: model.TierFree, Status: model.SubscriptionStatusActive}, nil
}

func (s *stubSubs) Cancel(ctx context.Context, ext string) (*model.Subscription, error) {
	return nil, errNotStubbed
}

func (s *stubSubs) UseCredits(ctx context.Context, ext string, amount int) (*model.Subscription, error) {
	return s.UseCreditsFunc(ctx, ext, amount)
}

type stubCheckout struct {
	PurchaseFunc func(ctx context.Context, a model.Actor, ebookID string, pt model.PurchaseType) (*usecase.CheckoutResult, error)
	DonationFunc func(ctx context.Context, a model.Actor, in model.DonationInput) (*usecase.CheckoutResult, error)
}

func (s *stubCheckout) InitializePurchase(ctx context.Context, a model.Actor, ebookID string, pt model.PurchaseType) (*usecase.CheckoutResult, error) {
	return s.PurchaseFunc(ctx, a, ebookID, pt)
}

func (s *stubCheckout) InitializeSubscription(ctx context.Context, a model.Actor, t model.Tier) (*usecase.CheckoutResult, error) {
	return &usecase.CheckoutResult{Kind: model.PaymentKindSubscription, Reference: "sub_1", RedirectURL: "https://pay.example.test/sub_1"}, nil
}

func (s *stubCheckout) InitializeDonation(ctx context.Context, a model.Actor, in model.DonationInput) (*usecase.CheckoutResult, error) {
	return s.DonationFunc(ctx, a, in)
}

type stubVerify struct {
	calls      []string
	VerifyFunc func(ctx context.Context, ref string) (*usecase.VerifyOutcome, error)
}

func (s *stubVerify) Verify(ctx context.Context, ref string) (*usecase.VerifyOutcome, error) {
	s.calls = append(s.calls, ref)
	return s.VerifyFunc(ctx, ref)
}

func (s *stubVerify) ReconcileStale(ctx context.Context, olderThan time.Time, limit int) (usecase.ReconcileReport, error) {
	return usecase.ReconcileReport{}, errNotStubbed
}

type stubDonations struct{}

func (stubDonations) Stats(ctx context.Context) (*model.DonationStats, error) {
	return &model.DonationStats{Count: 2, Total: 150, Recent: []*model.Donation{
		{DonorName: "Ada", Email: "ada@example.com", Amount: 100},
		{DonorName: "Grace", Email: "grace@example.com", Amount: 50, IsAnonymous: true},
	}}, nil
}

func (stubDonations) Feed(ctx context.Context, limit int) ([]model.PublicDonation, error) {
	return []model.PublicDonation{{DonorName: model.AnonymousDonor, Amount: 50}}, nil
}

type stubAdmin struct {
	usecase.AdminUseCase
	page model.Page
}

func (s *stubAdmin) Stats(ctx context.Context) (*model.AdminStats, error) {
	return &model.AdminStats{TotalUsers: 3, TotalRevenue: 900}, nil
}

func (s *stubAdmin) ListUsers(ctx context.Context, f model.UserFilter, p model.Page) ([]*model.User, int, error) {
	s.page = p
	return []*model.User{{ID: "u1", ExtUserID: "user_1", Role: model.RoleUser}}, 41, nil
}

type stubSignature struct{ valid string }

func (s stubSignature) VerifySignature(body []byte, sig string) bool { return sig == s.valid }
