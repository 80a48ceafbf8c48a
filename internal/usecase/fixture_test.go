//go:build !integration

package usecase_test

import (
	"context"
	"testing"
	"time"

	"content-commerce/internal/domain/model"
	"content-commerce/internal/usecase"
)

// fixture wires every use case against the in-memory repositories.
type fixture struct {
	t   *testing.T
	ctx context.Context
	at  time.Time

	users       *MockUserRepo
	subs        *MockSubscriptionRepo
	subPayments *MockSubscriptionPaymentRepo
	purchases   *MockPurchaseRepo
	donations   *MockDonationRepo
	ebooks      *MockEbookRepo
	posts       *MockPostRepo
	tm          *MockTxManager
	processor   *MockProcessor
	locker      *MockLocker
	limiter     *MockRateLimiter
	notifier    *MockNotifier

	ledger   *usecase.CreditLedger
	checkout usecase.CheckoutUseCase
	verify   usecase.VerificationUseCase
	access   usecase.AccessUseCase
	library  usecase.PurchaseUseCase
	subsUC   usecase.SubscriptionUseCase
	donUC    usecase.DonationUseCase
	admin    usecase.AdminUseCase
	userUC   usecase.UserUseCase
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{t: t, ctx: context.Background(), at: now()}
	log := newTestLogger()
	clock := func() time.Time { return f.at }

	f.users = NewMockUserRepo()
	f.subs = NewMockSubscriptionRepo(f.users)
	f.subPayments = NewMockSubscriptionPaymentRepo()
	f.ebooks = NewMockEbookRepo()
	f.purchases = NewMockPurchaseRepo(f.ebooks)
	f.donations = NewMockDonationRepo()
	f.posts = &MockPostRepo{Approval: map[model.PostApproval]int{}}
	f.tm = NewMockTxManager(f.subs, f.subPayments, f.purchases, f.donations, f.ebooks)
	f.processor = NewMockProcessor()
	f.locker = NewMockLocker()
	f.limiter = NewMockRateLimiter()
	f.notifier = &MockNotifier{}

	f.ledger = usecase.NewCreditLedger(f.subs, log)
	f.checkout = usecase.NewCheckoutUseCase(usecase.CheckoutDeps{
		Users:       f.users,
		Subs:        f.subs,
		SubPayments: f.subPayments,
		Purchases:   f.purchases,
		Donations:   f.donations,
		Ebooks:      f.ebooks,
		Ledger:      f.ledger,
		TM:          f.tm,
		Processor:   f.processor,
		Limiter:     f.limiter,
		Sanitizer:   tagStripper{},
		Config: usecase.CheckoutConfig{
			Currency:        "KES",
			CallbackURL:     "https://shop.example.test/payment/verify",
			DonationMinimum: 50,
			InitRateLimit:   100,
		},
		Log:   log,
		Clock: clock,
	})
	f.verify = usecase.NewVerificationUseCase(usecase.VerificationDeps{
		Users:       f.users,
		Subs:        f.subs,
		SubPayments: f.subPayments,
		Purchases:   f.purchases,
		Donations:   f.donations,
		Ebooks:      f.ebooks,
		Ledger:      f.ledger,
		TM:          f.tm,
		Processor:   f.processor,
		Locker:      f.locker,
		Notifier:    f.notifier,
		Timeout:     200 * time.Millisecond,
		Currency:    "KES",
		Log:         log,
		Clock:       clock,
	})
	f.access = usecase.NewAccessUseCase(f.ebooks, f.purchases, f.subs, log).WithClock(clock)
	f.library = usecase.NewPurchaseUseCase(f.purchases, f.ebooks, &MockSigner{}, log)
	f.subsUC = usecase.NewSubscriptionUseCase(f.users, f.subs, f.ledger, f.tm, log).WithClock(clock)
	f.donUC = usecase.NewDonationUseCase(f.donations, log)
	f.admin = usecase.NewAdminUseCase(usecase.AdminDeps{
		Users:     f.users,
		Subs:      f.subs,
		Purchases: f.purchases,
		Donations: f.donations,
		Ebooks:    f.ebooks,
		Posts:     f.posts,
		Processor: f.processor,
		Log:       log,
	})
	f.userUC = usecase.NewUserUseCase(f.users, f.tm, []string{"admin_1"}, log)
	return f
}

// actor syncs a user and returns its identity.
func (f *fixture) actor(ext string) model.Actor {
	f.t.Helper()
	a := model.Actor{ExtUserID: ext, Email: ext + "@example.com", Username: ext}
	if _, err := f.userUC.Sync(f.ctx, a); err != nil {
		f.t.Fatalf("expected no error syncing user, but got: %v", err)
	}
	return a
}

func (f *fixture) ebook(title string, price int64, credits int, premiumOnly bool) *model.Ebook {
	f.t.Helper()
	e := &model.Ebook{
		Title:         title,
		Author:        "A. Writer",
		Price:         price,
		Credits:       credits,
		FileURL:       "https://files.example.test/" + title + ".pdf",
		Format:        model.EbookFormatPDF,
		IsPremiumOnly: premiumOnly,
		IsActive:      true,
		CreatedAt:     f.at,
	}
	if err := f.ebooks.Save(f.ctx, nil, e); err != nil {
		f.t.Fatalf("expected no error seeding ebook, but got: %v", err)
	}
	return e
}

// setCredits gives ext a subscription with the given balance.
func (f *fixture) setCredits(ext string, credits int) {
	f.t.Helper()
	s, err := f.subsUC.Get(f.ctx, ext)
	if err != nil {
		f.t.Fatalf("expected no error, but got: %v", err)
	}
	s.Credits = credits
	f.subs.Put(s)
}

// subscription reads ext's subscription, creating the FREE default if needed.
func (f *fixture) subscription(ext string) *model.Subscription {
	f.t.Helper()
	s, err := f.subsUC.Get(f.ctx, ext)
	if err != nil {
		f.t.Fatalf("expected subscription for %s, but got: %v", ext, err)
	}
	return s
}

func (f *fixture) downloads(ebookID string) int {
	f.t.Helper()
	e, err := f.ebooks.FindByID(f.ctx, nil, ebookID)
	if err != nil {
		f.t.Fatalf("expected ebook, but got: %v", err)
	}
	return e.Downloads
}
