//go:build !integration

package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"content-commerce/internal/domain"
	"content-commerce/internal/domain/model"
	"content-commerce/internal/domain/ports/adapter"
	"content-commerce/internal/domain/ports/repository"
)

// -----------------------------
// Utilities: tiny helpers
// -----------------------------

func now() time.Time { return time.Now().Truncate(time.Millisecond) }

func newTestLogger() *zerolog.Logger {
	l := zerolog.New(io.Discard)
	return &l
}

func paginate[T any](items []T, p model.Page) ([]T, int) {
	p = p.Normalize(model.DefaultPageSize)
	total := len(items)
	start := p.Offset()
	if start >= total {
		return []T{}, total
	}
	end := start + p.Size
	if end > total {
		end = total
	}
	return items[start:end], total
}

// snapshotter lets MockTxManager roll a repository back when fn fails.
type snapshotter interface {
	snapshot() (restore func())
}

// =============================
// Transactions
// =============================

type mockTx struct{ id int }

type MockTxManager struct {
	mu      sync.Mutex
	seq     int
	tracked []snapshotter

	Commits   int
	Rollbacks int

	WithTxFunc func(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error
}

func NewMockTxManager(tracked ...snapshotter) *MockTxManager {
	return &MockTxManager{tracked: tracked}
}

var _ repository.TransactionManager = (*MockTxManager)(nil)

// WithTx serializes transactions and restores every tracked repository when
// fn returns an error, which is enough to observe atomicity in unit tests.
func (m *MockTxManager) WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	if m.WithTxFunc != nil {
		return m.WithTxFunc(ctx, txOpt, fn)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.seq++
	restores := make([]func(), 0, len(m.tracked))
	for _, s := range m.tracked {
		restores = append(restores, s.snapshot())
	}
	if err := fn(ctx, &mockTx{id: m.seq}); err != nil {
		for _, r := range restores {
			r()
		}
		m.Rollbacks++
		return err
	}
	m.Commits++
	return nil
}

// =============================
// Repositories
// =============================

// ---- Users ----

type MockUserRepo struct {
	mu    sync.Mutex
	byExt map[string]*model.User

	SaveFunc        func(ctx context.Context, tx repository.Tx, u *model.User) error
	FindByExtIDFunc func(ctx context.Context, tx repository.Tx, extUserID string) (*model.User, error)
}

var _ repository.UserRepository = (*MockUserRepo)(nil)

func NewMockUserRepo() *MockUserRepo {
	return &MockUserRepo{byExt: map[string]*model.User{}}
}

func (r *MockUserRepo) Save(ctx context.Context, tx repository.Tx, u *model.User) error {
	if r.SaveFunc != nil {
		return r.SaveFunc(ctx, tx, u)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *u
	if cp.ID == "" {
		cp.ID = uuid.NewString()
	}
	if prev, ok := r.byExt[cp.ExtUserID]; ok {
		cp.ID = prev.ID
	}
	r.byExt[cp.ExtUserID] = &cp
	return nil
}

func (r *MockUserRepo) FindByExtID(ctx context.Context, tx repository.Tx, extUserID string) (*model.User, error) {
	if r.FindByExtIDFunc != nil {
		return r.FindByExtIDFunc(ctx, tx, extUserID)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.byExt[extUserID]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (r *MockUserRepo) CountUsers(ctx context.Context, tx repository.Tx) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byExt), nil
}

func (r *MockUserRepo) List(ctx context.Context, tx repository.Tx, f model.UserFilter, p model.Page) ([]*model.User, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.User
	for _, u := range r.byExt {
		if f.Role != nil && u.Role != *f.Role {
			continue
		}
		if f.Search != "" && !strings.Contains(u.Username+" "+u.Email, f.Search) {
			continue
		}
		cp := *u
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExtUserID < out[j].ExtUserID })
	items, total := paginate(out, p)
	return items, total, nil
}

// ---- Subscriptions ----

type MockSubscriptionRepo struct {
	mu    sync.Mutex
	byExt map[string]*model.Subscription
	users *MockUserRepo

	FindByExtUserIDFunc func(ctx context.Context, tx repository.Tx, extUserID string) (*model.Subscription, error)
	UpdateFunc          func(ctx context.Context, tx repository.Tx, s *model.Subscription) error
	AddCreditsFunc      func(ctx context.Context, tx repository.Tx, extUserID string, amount int) (int, error)
}

var _ repository.SubscriptionRepository = (*MockSubscriptionRepo)(nil)

func NewMockSubscriptionRepo(users *MockUserRepo) *MockSubscriptionRepo {
	return &MockSubscriptionRepo{byExt: map[string]*model.Subscription{}, users: users}
}

func (r *MockSubscriptionRepo) snapshot() func() {
	r.mu.Lock()
	defer r.mu.Unlock()
	saved := make(map[string]model.Subscription, len(r.byExt))
	for k, v := range r.byExt {
		saved[k] = *v
	}
	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.byExt = make(map[string]*model.Subscription, len(saved))
		for k, v := range saved {
			cp := v
			r.byExt[k] = &cp
		}
	}
}

// Put seeds a subscription directly.
func (r *MockSubscriptionRepo) Put(s *model.Subscription) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *s
	r.byExt[s.ExtUserID] = &cp
}

func (r *MockSubscriptionRepo) CreateIfMissing(ctx context.Context, tx repository.Tx, s *model.Subscription) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byExt[s.ExtUserID]; ok {
		return nil
	}
	cp := *s
	r.byExt[s.ExtUserID] = &cp
	return nil
}

func (r *MockSubscriptionRepo) FindByExtUserID(ctx context.Context, tx repository.Tx, extUserID string) (*model.Subscription, error) {
	if r.FindByExtUserIDFunc != nil {
		return r.FindByExtUserIDFunc(ctx, tx, extUserID)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.byExt[extUserID]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (r *MockSubscriptionRepo) Update(ctx context.Context, tx repository.Tx, s *model.Subscription) error {
	if r.UpdateFunc != nil {
		return r.UpdateFunc(ctx, tx, s)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byExt[s.ExtUserID]; !ok {
		return domain.ErrNotFound
	}
	cp := *s
	r.byExt[s.ExtUserID] = &cp
	return nil
}

func (r *MockSubscriptionRepo) SetPending(ctx context.Context, tx repository.Tx, extUserID, reference string, amount int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byExt[extUserID]
	if !ok {
		return domain.ErrNotFound
	}
	ref, amt := reference, amount
	s.PendingReference = &ref
	s.PendingAmount = &amt
	return nil
}

func (r *MockSubscriptionRepo) AddCredits(ctx context.Context, tx repository.Tx, extUserID string, amount int) (int, error) {
	if r.AddCreditsFunc != nil {
		return r.AddCreditsFunc(ctx, tx, extUserID, amount)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byExt[extUserID]
	if !ok {
		return 0, domain.ErrNotFound
	}
	s.Credits += amount
	return s.Credits, nil
}

func (r *MockSubscriptionRepo) DeductCredits(ctx context.Context, tx repository.Tx, extUserID string, amount int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byExt[extUserID]
	if !ok {
		return 0, domain.ErrNotFound
	}
	if s.Credits < amount {
		return 0, fmt.Errorf("%w: balance %d, need %d", domain.ErrInsufficientCredits, s.Credits, amount)
	}
	s.Credits -= amount
	return s.Credits, nil
}

func (r *MockSubscriptionRepo) List(ctx context.Context, tx repository.Tx, f model.SubscriptionFilter, p model.Page) ([]*model.SubscriptionView, int, error) {
	r.mu.Lock()
	var out []*model.SubscriptionView
	for _, s := range r.byExt {
		if f.Tier != nil && s.Tier != *f.Tier {
			continue
		}
		if f.Status != nil && s.Status != *f.Status {
			continue
		}
		out = append(out, &model.SubscriptionView{Subscription: *s})
	}
	r.mu.Unlock()
	for _, v := range out {
		if u, err := r.users.FindByExtID(ctx, tx, v.ExtUserID); err == nil {
			v.Username, v.Email = u.Username, u.Email
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExtUserID < out[j].ExtUserID })
	items, total := paginate(out, p)
	return items, total, nil
}

func (r *MockSubscriptionRepo) CountPremiumActive(ctx context.Context, tx repository.Tx) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, s := range r.byExt {
		if s.Tier.GrantsPremiumAccess() && s.Status == model.SubscriptionStatusActive {
			n++
		}
	}
	return n, nil
}

// ---- Subscription payments ----

type MockSubscriptionPaymentRepo struct {
	mu    sync.Mutex
	byRef map[string]*model.SubscriptionPayment
}

var _ repository.SubscriptionPaymentRepository = (*MockSubscriptionPaymentRepo)(nil)

func NewMockSubscriptionPaymentRepo() *MockSubscriptionPaymentRepo {
	return &MockSubscriptionPaymentRepo{byRef: map[string]*model.SubscriptionPayment{}}
}

func (r *MockSubscriptionPaymentRepo) snapshot() func() {
	r.mu.Lock()
	defer r.mu.Unlock()
	saved := make(map[string]model.SubscriptionPayment, len(r.byRef))
	for k, v := range r.byRef {
		saved[k] = *v
	}
	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.byRef = make(map[string]*model.SubscriptionPayment, len(saved))
		for k, v := range saved {
			cp := v
			r.byRef[k] = &cp
		}
	}
}

func (r *MockSubscriptionPaymentRepo) Save(ctx context.Context, tx repository.Tx, p *model.SubscriptionPayment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.byRef[p.Reference]; dup {
		return domain.ErrConflict
	}
	cp := *p
	r.byRef[p.Reference] = &cp
	return nil
}

func (r *MockSubscriptionPaymentRepo) FindByReference(ctx context.Context, tx repository.Tx, reference string) (*model.SubscriptionPayment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.byRef[reference]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (r *MockSubscriptionPaymentRepo) MarkSuccessIfPending(ctx context.Context, tx repository.Tx, reference, transactionID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.byRef[reference]
	if !ok || p.Status != model.PaymentStatusPending {
		return false, nil
	}
	id := transactionID
	p.Status = model.PaymentStatusSuccess
	p.TransactionID = &id
	return true, nil
}

func (r *MockSubscriptionPaymentRepo) ListPendingOlderThan(ctx context.Context, tx repository.Tx, olderThan time.Time, limit int) ([]*model.SubscriptionPayment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.SubscriptionPayment
	for _, p := range r.byRef {
		if p.Status == model.PaymentStatusPending && p.CreatedAt.Before(olderThan) && len(out) < limit {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

// ---- Purchases ----

type MockPurchaseRepo struct {
	mu   sync.Mutex
	byID map[string]*model.Purchase

	ebooks *MockEbookRepo

	SaveFunc func(ctx context.Context, tx repository.Tx, p *model.Purchase) error
}

var _ repository.PurchaseRepository = (*MockPurchaseRepo)(nil)

func NewMockPurchaseRepo(ebooks *MockEbookRepo) *MockPurchaseRepo {
	return &MockPurchaseRepo{byID: map[string]*model.Purchase{}, ebooks: ebooks}
}

func (r *MockPurchaseRepo) snapshot() func() {
	r.mu.Lock()
	defer r.mu.Unlock()
	saved := make(map[string]model.Purchase, len(r.byID))
	for k, v := range r.byID {
		saved[k] = *v
	}
	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.byID = make(map[string]*model.Purchase, len(saved))
		for k, v := range saved {
			cp := v
			r.byID[k] = &cp
		}
	}
}

// ownedLocked mimics the partial unique index on SUCCESS rows.
func (r *MockPurchaseRepo) ownedLocked(extUserID, ebookID, exceptID string) bool {
	for _, p := range r.byID {
		if p.ID != exceptID && p.ExtUserID == extUserID && p.EbookID == ebookID && p.Status == model.PaymentStatusSuccess {
			return true
		}
	}
	return false
}

func (r *MockPurchaseRepo) Save(ctx context.Context, tx repository.Tx, p *model.Purchase) error {
	if r.SaveFunc != nil {
		return r.SaveFunc(ctx, tx, p)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.Status == model.PaymentStatusSuccess && r.ownedLocked(p.ExtUserID, p.EbookID, p.ID) {
		return domain.ErrAlreadyOwned
	}
	cp := *p
	r.byID[p.ID] = &cp
	return nil
}

func (r *MockPurchaseRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Purchase, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.byID[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (r *MockPurchaseRepo) FindByReference(ctx context.Context, tx repository.Tx, reference string) (*model.Purchase, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.byID {
		if p.Reference != nil && *p.Reference == reference {
			cp := *p
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *MockPurchaseRepo) FindSuccessful(ctx context.Context, tx repository.Tx, extUserID, ebookID string) (*model.Purchase, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.byID {
		if p.ExtUserID == extUserID && p.EbookID == ebookID && p.Status == model.PaymentStatusSuccess {
			cp := *p
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *MockPurchaseRepo) MarkSuccessIfPending(ctx context.Context, tx repository.Tx, id, transactionID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.byID[id]
	if !ok || p.Status != model.PaymentStatusPending {
		return false, nil
	}
	if r.ownedLocked(p.ExtUserID, p.EbookID, p.ID) {
		return false, domain.ErrAlreadyOwned
	}
	txn := transactionID
	p.Status = model.PaymentStatusSuccess
	p.TransactionID = &txn
	return true, nil
}

func (r *MockPurchaseRepo) MarkRefundedIfSuccess(ctx context.Context, tx repository.Tx, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.byID[id]
	if !ok || p.Status != model.PaymentStatusSuccess {
		return false, nil
	}
	p.Status = model.PaymentStatusRefunded
	return true, nil
}

func (r *MockPurchaseRepo) RecordDownload(ctx context.Context, tx repository.Tx, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	p.DownloadCount++
	t := at
	p.LastDownloadedAt = &t
	return nil
}

func (r *MockPurchaseRepo) view(ctx context.Context, p *model.Purchase) *model.PurchaseView {
	v := &model.PurchaseView{Purchase: *p}
	if e, err := r.ebooks.FindByID(ctx, repository.NoTX, p.EbookID); err == nil {
		v.EbookTitle, v.EbookAuthor, v.EbookPrice, v.CoverImage = e.Title, e.Author, e.Price, e.CoverImage
	}
	return v
}

func (r *MockPurchaseRepo) filtered(keep func(p *model.Purchase) bool) []*model.Purchase {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Purchase
	for _, p := range r.byID {
		if keep(p) {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (r *MockPurchaseRepo) ListByUser(ctx context.Context, tx repository.Tx, extUserID string, status *model.PaymentStatus, p model.Page) ([]*model.PurchaseView, int, error) {
	rows := r.filtered(func(x *model.Purchase) bool {
		return x.ExtUserID == extUserID && (status == nil || x.Status == *status)
	})
	views := make([]*model.PurchaseView, 0, len(rows))
	for _, x := range rows {
		views = append(views, r.view(ctx, x))
	}
	items, total := paginate(views, p)
	return items, total, nil
}

func (r *MockPurchaseRepo) ListPendingOlderThan(ctx context.Context, tx repository.Tx, olderThan time.Time, limit int) ([]*model.Purchase, error) {
	rows := r.filtered(func(x *model.Purchase) bool {
		return x.Status == model.PaymentStatusPending && x.CreatedAt.Before(olderThan)
	})
	if len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

func (r *MockPurchaseRepo) List(ctx context.Context, tx repository.Tx, f model.PurchaseFilter, p model.Page) ([]*model.PurchaseView, int, error) {
	rows := r.filtered(func(x *model.Purchase) bool { return f.Status == nil || x.Status == *f.Status })
	views := make([]*model.PurchaseView, 0, len(rows))
	for _, x := range rows {
		views = append(views, r.view(ctx, x))
	}
	items, total := paginate(views, p)
	return items, total, nil
}

func (r *MockPurchaseRepo) CountSuccessful(ctx context.Context, tx repository.Tx) (int, error) {
	return len(r.filtered(func(x *model.Purchase) bool { return x.Status == model.PaymentStatusSuccess })), nil
}

func (r *MockPurchaseRepo) SumCashRevenue(ctx context.Context, tx repository.Tx) (int64, error) {
	var sum int64
	for _, x := range r.filtered(func(x *model.Purchase) bool {
		return x.Status == model.PaymentStatusSuccess && x.PurchaseType == model.PurchaseTypeCash
	}) {
		sum += x.Amount
	}
	return sum, nil
}

// ---- Donations ----

type MockDonationRepo struct {
	mu    sync.Mutex
	byRef map[string]*model.Donation
}

var _ repository.DonationRepository = (*MockDonationRepo)(nil)

func NewMockDonationRepo() *MockDonationRepo {
	return &MockDonationRepo{byRef: map[string]*model.Donation{}}
}

func (r *MockDonationRepo) snapshot() func() {
	r.mu.Lock()
	defer r.mu.Unlock()
	saved := make(map[string]model.Donation, len(r.byRef))
	for k, v := range r.byRef {
		saved[k] = *v
	}
	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.byRef = make(map[string]*model.Donation, len(saved))
		for k, v := range saved {
			cp := v
			r.byRef[k] = &cp
		}
	}
}

func (r *MockDonationRepo) Save(ctx context.Context, tx repository.Tx, d *model.Donation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *d
	r.byRef[d.Reference] = &cp
	return nil
}

func (r *MockDonationRepo) FindByReference(ctx context.Context, tx repository.Tx, reference string) (*model.Donation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if d, ok := r.byRef[reference]; ok {
		cp := *d
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (r *MockDonationRepo) MarkSuccessIfPending(ctx context.Context, tx repository.Tx, reference, transactionID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.byRef[reference]
	if !ok || d.Status != model.PaymentStatusPending {
		return false, nil
	}
	txn := transactionID
	d.Status = model.PaymentStatusSuccess
	d.TransactionID = &txn
	return true, nil
}

func (r *MockDonationRepo) sorted(keep func(d *model.Donation) bool) []*model.Donation {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Donation
	for _, d := range r.byRef {
		if keep(d) {
			cp := *d
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (r *MockDonationRepo) ListRecentSuccessful(ctx context.Context, tx repository.Tx, limit int) ([]*model.Donation, error) {
	out := r.sorted(func(d *model.Donation) bool { return d.Status == model.PaymentStatusSuccess })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *MockDonationRepo) SuccessTotals(ctx context.Context, tx repository.Tx) (int, int64, error) {
	var sum int64
	rows := r.sorted(func(d *model.Donation) bool { return d.Status == model.PaymentStatusSuccess })
	for _, d := range rows {
		sum += d.Amount
	}
	return len(rows), sum, nil
}

func (r *MockDonationRepo) ListPendingOlderThan(ctx context.Context, tx repository.Tx, olderThan time.Time, limit int) ([]*model.Donation, error) {
	out := r.sorted(func(d *model.Donation) bool {
		return d.Status == model.PaymentStatusPending && d.CreatedAt.Before(olderThan)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *MockDonationRepo) List(ctx context.Context, tx repository.Tx, f model.DonationFilter, p model.Page) ([]*model.Donation, int, error) {
	rows := r.sorted(func(d *model.Donation) bool { return f.Status == nil || d.Status == *f.Status })
	items, total := paginate(rows, p)
	return items, total, nil
}

// ---- Catalog ----

type MockEbookRepo struct {
	mu   sync.Mutex
	byID map[string]*model.Ebook

	IncrementDownloadsFunc func(ctx context.Context, tx repository.Tx, id string) error
}

var _ repository.EbookRepository = (*MockEbookRepo)(nil)

func NewMockEbookRepo() *MockEbookRepo {
	return &MockEbookRepo{byID: map[string]*model.Ebook{}}
}

func (r *MockEbookRepo) snapshot() func() {
	r.mu.Lock()
	defer r.mu.Unlock()
	saved := make(map[string]model.Ebook, len(r.byID))
	for k, v := range r.byID {
		saved[k] = *v
	}
	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.byID = make(map[string]*model.Ebook, len(saved))
		for k, v := range saved {
			cp := v
			r.byID[k] = &cp
		}
	}
}

func (r *MockEbookRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Ebook, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.byID[id]; ok {
		cp := *e
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (r *MockEbookRepo) Save(ctx context.Context, tx repository.Tx, e *model.Ebook) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *e
	if cp.ID == "" {
		cp.ID = uuid.NewString()
		e.ID = cp.ID
	}
	r.byID[cp.ID] = &cp
	return nil
}

func (r *MockEbookRepo) IncrementDownloads(ctx context.Context, tx repository.Tx, id string) error {
	if r.IncrementDownloadsFunc != nil {
		return r.IncrementDownloadsFunc(ctx, tx, id)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	e.Downloads++
	return nil
}

func (r *MockEbookRepo) CountActive(ctx context.Context, tx repository.Tx) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.byID {
		if e.IsActive {
			n++
		}
	}
	return n, nil
}

func (r *MockEbookRepo) List(ctx context.Context, tx repository.Tx, f model.EbookFilter, p model.Page) ([]*model.Ebook, int, error) {
	r.mu.Lock()
	var out []*model.Ebook
	for _, e := range r.byID {
		if f.Active == nil || e.IsActive == *f.Active {
			cp := *e
			out = append(out, &cp)
		}
	}
	r.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	items, total := paginate(out, p)
	return items, total, nil
}

type MockPostRepo struct {
	Total    int
	Approval map[model.PostApproval]int
	Err      error
}

var _ repository.PostRepository = (*MockPostRepo)(nil)

func (r *MockPostRepo) CountPosts(ctx context.Context, tx repository.Tx) (int, error) {
	return r.Total, r.Err
}

func (r *MockPostRepo) CountByApproval(ctx context.Context, tx repository.Tx, approval model.PostApproval) (int, error) {
	return r.Approval[approval], r.Err
}

// =============================
// Adapters
// =============================

// ---- Mock PaymentProcessor ----

// MockProcessor settles every reference registered in Paid with the given
// minor-unit amount and reports anything else as abandoned.
type MockProcessor struct {
	mu   sync.Mutex
	Paid map[string]int64

	InitializeFunc func(ctx context.Context, req adapter.InitRequest) (adapter.InitResult, error)
	VerifyFunc     func(ctx context.Context, reference string) (adapter.VerifyResult, error)
	RefundFunc     func(ctx context.Context, transactionID string, amountMinor int64) (adapter.RefundResult, error)

	Calls struct {
		Initialize []adapter.InitRequest
		Verify     []string
		Refund     []string
	}
}

var _ adapter.PaymentProcessor = (*MockProcessor)(nil)

func NewMockProcessor() *MockProcessor {
	return &MockProcessor{Paid: map[string]int64{}}
}

func (m *MockProcessor) Name() string { return "mock" }

// Pay marks reference as settled at the processor.
func (m *MockProcessor) Pay(reference string, amountMinor int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Paid[reference] = amountMinor
}

func (m *MockProcessor) VerifyCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls.Verify)
}

func (m *MockProcessor) Initialize(ctx context.Context, req adapter.InitRequest) (adapter.InitResult, error) {
	m.mu.Lock()
	m.Calls.Initialize = append(m.Calls.Initialize, req)
	m.mu.Unlock()
	if m.InitializeFunc != nil {
		return m.InitializeFunc(ctx, req)
	}
	return adapter.InitResult{
		AuthorizationURL: "https://checkout.example.test/" + req.Reference,
		Reference:        req.Reference,
	}, nil
}

func (m *MockProcessor) Verify(ctx context.Context, reference string) (adapter.VerifyResult, error) {
	m.mu.Lock()
	m.Calls.Verify = append(m.Calls.Verify, reference)
	amount, paid := m.Paid[reference]
	m.mu.Unlock()
	if m.VerifyFunc != nil {
		return m.VerifyFunc(ctx, reference)
	}
	if !paid {
		return adapter.VerifyResult{Status: adapter.ProcessorStatusAbandoned, Reference: reference}, nil
	}
	return adapter.VerifyResult{
		Status:        adapter.ProcessorStatusSuccess,
		Reference:     reference,
		TransactionID: "txn_" + reference,
		AmountMinor:   amount,
		Currency:      "KES",
	}, nil
}

func (m *MockProcessor) Refund(ctx context.Context, transactionID string, amountMinor int64) (adapter.RefundResult, error) {
	m.mu.Lock()
	m.Calls.Refund = append(m.Calls.Refund, transactionID)
	m.mu.Unlock()
	if m.RefundFunc != nil {
		return m.RefundFunc(ctx, transactionID, amountMinor)
	}
	return adapter.RefundResult{ID: "rf_" + transactionID, Status: "pending", RefundAmount: amountMinor, RefundTime: time.Now()}, nil
}

// ---- In-memory Locker ----

type MockLocker struct {
	mu    sync.Mutex
	held  map[string]string
	ErrOn map[string]error
}

var _ adapter.Locker = (*MockLocker)(nil)

func NewMockLocker() *MockLocker {
	return &MockLocker{held: map[string]string{}, ErrOn: map[string]error{}}
}

func (l *MockLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.ErrOn[key]; err != nil {
		return "", err
	}
	if _, ok := l.held[key]; ok {
		return "", domain.ErrVerificationInProgress
	}
	tok := uuid.NewString()
	l.held[key] = tok
	return tok, nil
}

func (l *MockLocker) Unlock(ctx context.Context, key, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] != token {
		return errors.New("lock not owned")
	}
	delete(l.held, key)
	return nil
}

// Hold simulates a verify running elsewhere.
func (l *MockLocker) Hold(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.held[key] = "someone-else"
}

// ---- Rate limiter ----

type MockRateLimiter struct {
	mu   sync.Mutex
	hits map[string]int
	Err  error
}

var _ adapter.RateLimiter = (*MockRateLimiter)(nil)

func NewMockRateLimiter() *MockRateLimiter {
	return &MockRateLimiter{hits: map[string]int{}}
}

func (r *MockRateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if r.Err != nil {
		return false, r.Err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hits[key]++
	return r.hits[key] <= limit, nil
}

// ---- Notifier ----

type MockNotifier struct {
	mu     sync.Mutex
	Events []adapter.PaymentEvent
	Err    error
}

var _ adapter.PaymentNotifier = (*MockNotifier)(nil)

func (n *MockNotifier) NotifyPaymentSucceeded(ctx context.Context, ev adapter.PaymentEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Events = append(n.Events, ev)
	return n.Err
}

func (n *MockNotifier) Count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.Events)
}

// ---- Signer / sanitizer ----

type MockSigner struct {
	Err error
}

var _ adapter.DownloadSigner = (*MockSigner)(nil)

func (s *MockSigner) SignDownloadURL(ctx context.Context, fileURL string) (string, error) {
	if s.Err != nil {
		return "", s.Err
	}
	return fileURL + "?signed=1", nil
}

type tagStripper struct{}

func (tagStripper) Sanitize(s string) string {
	for {
		i := strings.Index(s, "<")
		j := strings.Index(s, ">")
		if i < 0 || j < i {
			return s
		}
		s = s[:i] + s[j+1:]
	}
}
