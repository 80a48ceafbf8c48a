package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"content-commerce/internal/domain"
	"content-commerce/internal/domain/model"
	"content-commerce/internal/domain/ports/repository"
)

// Ensure subscriptionRepo implements repository.SubscriptionRepository
var _ repository.SubscriptionRepository = (*subscriptionRepo)(nil)

type subscriptionRepo struct {
	pool *pgxpool.Pool
}

func NewSubscriptionRepo(pool *pgxpool.Pool) *subscriptionRepo {
	return &subscriptionRepo{pool: pool}
}

const subscriptionColumns = `s.id, s.ext_user_id, s.tier, s.status, s.credits, s.start_date, s.end_date,
       s.pending_reference, s.pending_amount, s.auto_renew, s.created_at, s.updated_at`

func (r *subscriptionRepo) CreateIfMissing(ctx context.Context, tx repository.Tx, s *model.Subscription) error {
	const q = `
INSERT INTO subscriptions (
  id, ext_user_id, tier, status, credits, start_date, end_date,
  pending_reference, pending_amount, auto_renew, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
ON CONFLICT (ext_user_id) DO NOTHING;`
	_, err := execSQL(ctx, r.pool, tx, q, s.ID, s.ExtUserID, s.Tier, s.Status, s.Credits, s.StartDate, s.EndDate,
		s.PendingReference, s.PendingAmount, s.AutoRenew, s.CreatedAt, s.UpdatedAt)
	return mapExecErr(err)
}

func (r *subscriptionRepo) FindByExtUserID(ctx context.Context, tx repository.Tx, extUserID string) (*model.Subscription, error) {
	q := `SELECT ` + subscriptionColumns + ` FROM subscriptions s WHERE s.ext_user_id=$1` + lockClause(tx)
	row, err := pickRow(ctx, r.pool, tx, q, extUserID)
	if err != nil {
		return nil, err
	}
	s := &model.Subscription{}
	if err := row.Scan(subscriptionDest(s)...); err != nil {
		return nil, mapScanErr(err)
	}
	return s, nil
}

func (r *subscriptionRepo) Update(ctx context.Context, tx repository.Tx, s *model.Subscription) error {
	const q = `
UPDATE subscriptions SET
  tier=$2, status=$3, credits=$4, start_date=$5, end_date=$6,
  pending_reference=$7, pending_amount=$8, auto_renew=$9, updated_at=$10
WHERE ext_user_id=$1;`
	tag, err := execSQL(ctx, r.pool, tx, q, s.ExtUserID, s.Tier, s.Status, s.Credits, s.StartDate, s.EndDate,
		s.PendingReference, s.PendingAmount, s.AutoRenew, s.UpdatedAt)
	if err != nil {
		return mapExecErr(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *subscriptionRepo) SetPending(ctx context.Context, tx repository.Tx, extUserID, reference string, amount int64) error {
	const q = `
UPDATE subscriptions SET pending_reference=$2, pending_amount=$3, updated_at=NOW()
WHERE ext_user_id=$1;`
	tag, err := execSQL(ctx, r.pool, tx, q, extUserID, reference, amount)
	if err != nil {
		return mapExecErr(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *subscriptionRepo) AddCredits(ctx context.Context, tx repository.Tx, extUserID string, amount int) (int, error) {
	const q = `
UPDATE subscriptions SET credits=credits+$2, updated_at=NOW()
WHERE ext_user_id=$1
RETURNING credits;`
	row, err := pickRow(ctx, r.pool, tx, q, extUserID, amount)
	if err != nil {
		return 0, err
	}
	var balance int
	if err := row.Scan(&balance); err != nil {
		return 0, mapScanErr(err)
	}
	return balance, nil
}

// DeductCredits is a compare-and-set on the balance. A miss is told apart
// from an unknown user with a follow-up existence check.
func (r *subscriptionRepo) DeductCredits(ctx context.Context, tx repository.Tx, extUserID string, amount int) (int, error) {
	const q = `
UPDATE subscriptions SET credits=credits-$2, updated_at=NOW()
WHERE ext_user_id=$1 AND credits >= $2
RETURNING credits;`
	row, err := pickRow(ctx, r.pool, tx, q, extUserID, amount)
	if err != nil {
		return 0, err
	}
	var balance int
	err = row.Scan(&balance)
	if err == nil {
		return balance, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, mapScanErr(err)
	}

	exists, err := countOne(ctx, r.pool, tx, `SELECT COUNT(*) FROM subscriptions WHERE ext_user_id=$1;`, extUserID)
	if err != nil {
		return 0, err
	}
	if exists == 0 {
		return 0, domain.ErrNotFound
	}
	return 0, domain.ErrInsufficientCredits
}

func (r *subscriptionRepo) List(ctx context.Context, tx repository.Tx, f model.SubscriptionFilter, p model.Page) ([]*model.SubscriptionView, int, error) {
	var w whereBuilder
	if f.Tier != nil {
		w.add("s.tier = ?", string(*f.Tier))
	}
	if f.Status != nil {
		w.add("s.status = ?", string(*f.Status))
	}
	where, args := w.sql(), w.args

	total, err := countOne(ctx, r.pool, tx, `SELECT COUNT(*) FROM subscriptions s`+where, args...)
	if err != nil {
		return nil, 0, err
	}

	q := `SELECT ` + subscriptionColumns + `, COALESCE(u.username, ''), COALESCE(u.email, '')
  FROM subscriptions s
  LEFT JOIN users u ON u.ext_user_id = s.ext_user_id` + where + `
 ORDER BY s.created_at DESC
 LIMIT ` + placeholder(len(args)+1) + ` OFFSET ` + placeholder(len(args)+2)
	rows, err := queryRows(ctx, r.pool, tx, q, append(args, p.Size, p.Offset())...)
	if err != nil {
		return nil, 0, mapExecErr(err)
	}
	defer rows.Close()

	var out []*model.SubscriptionView
	for rows.Next() {
		v := &model.SubscriptionView{}
		dest := append(subscriptionDest(&v.Subscription), &v.Username, &v.Email)
		if err := rows.Scan(dest...); err != nil {
			return nil, 0, mapScanErr(err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, mapScanErr(err)
	}
	return out, total, nil
}

func (r *subscriptionRepo) CountPremiumActive(ctx context.Context, tx repository.Tx) (int, error) {
	const q = `SELECT COUNT(*) FROM subscriptions WHERE tier IN ('PREMIUM','LIFETIME') AND status='ACTIVE';`
	return countOne(ctx, r.pool, tx, q)
}

func subscriptionDest(s *model.Subscription) []any {
	return []any{
		&s.ID, &s.ExtUserID, (*string)(&s.Tier), (*string)(&s.Status), &s.Credits, &s.StartDate, &s.EndDate,
		&s.PendingReference, &s.PendingAmount, &s.AutoRenew, &s.CreatedAt, &s.UpdatedAt,
	}
}

var _ repository.SubscriptionPaymentRepository = (*subscriptionPaymentRepo)(nil)

type subscriptionPaymentRepo struct {
	pool *pgxpool.Pool
}

func NewSubscriptionPaymentRepo(pool *pgxpool.Pool) *subscriptionPaymentRepo {
	return &subscriptionPaymentRepo{pool: pool}
}

const subscriptionPaymentColumns = `reference, ext_user_id, tier, amount, payment_status, transaction_id, metadata, created_at, updated_at`

func (r *subscriptionPaymentRepo) Save(ctx context.Context, tx repository.Tx, p *model.SubscriptionPayment) error {
	meta, err := encodeMeta(p.Metadata)
	if err != nil {
		return domain.ErrInvalidArgument
	}
	const q = `
INSERT INTO subscription_payments (` + subscriptionPaymentColumns + `)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9);`
	_, err = execSQL(ctx, r.pool, tx, q, p.Reference, p.ExtUserID, p.Tier, p.Amount, p.Status, p.TransactionID, meta, p.CreatedAt, p.UpdatedAt)
	if isUniqueViolation(err) {
		return domain.ErrConflict
	}
	return mapExecErr(err)
}

func (r *subscriptionPaymentRepo) FindByReference(ctx context.Context, tx repository.Tx, reference string) (*model.SubscriptionPayment, error) {
	q := `SELECT ` + subscriptionPaymentColumns + ` FROM subscription_payments WHERE reference=$1` + lockClause(tx)
	row, err := pickRow(ctx, r.pool, tx, q, reference)
	if err != nil {
		return nil, err
	}
	p, err := scanSubscriptionPayment(row)
	if err != nil {
		return nil, mapScanErr(err)
	}
	return p, nil
}

func (r *subscriptionPaymentRepo) MarkSuccessIfPending(ctx context.Context, tx repository.Tx, reference, transactionID string) (bool, error) {
	const q = `
UPDATE subscription_payments SET payment_status='SUCCESS', transaction_id=$2, updated_at=NOW()
WHERE reference=$1 AND payment_status='PENDING';`
	tag, err := execSQL(ctx, r.pool, tx, q, reference, transactionID)
	if err != nil {
		return false, mapExecErr(err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *subscriptionPaymentRepo) ListPendingOlderThan(ctx context.Context, tx repository.Tx, olderThan time.Time, limit int) ([]*model.SubscriptionPayment, error) {
	q := `SELECT ` + subscriptionPaymentColumns + `
  FROM subscription_payments
 WHERE payment_status='PENDING' AND created_at < $1
 ORDER BY created_at ASC
 LIMIT $2;`
	rows, err := queryRows(ctx, r.pool, tx, q, olderThan, limit)
	if err != nil {
		return nil, mapExecErr(err)
	}
	defer rows.Close()

	var out []*model.SubscriptionPayment
	for rows.Next() {
		p, err := scanSubscriptionPayment(rows)
		if err != nil {
			return nil, mapScanErr(err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, mapScanErr(err)
	}
	return out, nil
}

func scanSubscriptionPayment(row pgx.Row) (*model.SubscriptionPayment, error) {
	var p model.SubscriptionPayment
	var tier, status string
	var meta []byte
	if err := row.Scan(&p.Reference, &p.ExtUserID, &tier, &p.Amount, &status, &p.TransactionID, &meta, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.Tier = model.Tier(tier)
	p.Status = model.PaymentStatus(status)
	p.Metadata = decodeMeta(meta)
	return &p, nil
}
