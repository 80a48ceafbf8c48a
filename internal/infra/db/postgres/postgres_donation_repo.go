package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"content-commerce/internal/domain"
	"content-commerce/internal/domain/model"
	"content-commerce/internal/domain/ports/repository"
)

var _ repository.DonationRepository = (*donationRepo)(nil)

type donationRepo struct {
	pool *pgxpool.Pool
}

func NewDonationRepo(pool *pgxpool.Pool) *donationRepo {
	return &donationRepo{pool: pool}
}

const donationColumns = `id, ext_user_id, amount, email, donor_name, message, is_anonymous,
       reference, payment_status, transaction_id, metadata, created_at, updated_at`

func (r *donationRepo) Save(ctx context.Context, tx repository.Tx, d *model.Donation) error {
	meta, err := encodeMeta(d.Metadata)
	if err != nil {
		return domain.ErrInvalidArgument
	}
	const q = `
INSERT INTO donations (` + donationColumns + `)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13);`
	_, err = execSQL(ctx, r.pool, tx, q, d.ID, d.ExtUserID, d.Amount, d.Email, d.DonorName, d.Message, d.IsAnonymous,
		d.Reference, d.Status, d.TransactionID, meta, d.CreatedAt, d.UpdatedAt)
	if isUniqueViolation(err) {
		return domain.ErrConflict
	}
	return mapExecErr(err)
}

func (r *donationRepo) FindByReference(ctx context.Context, tx repository.Tx, reference string) (*model.Donation, error) {
	q := `SELECT ` + donationColumns + ` FROM donations WHERE reference=$1` + lockClause(tx)
	row, err := pickRow(ctx, r.pool, tx, q, reference)
	if err != nil {
		return nil, err
	}
	d, err := scanDonation(row)
	if err != nil {
		return nil, mapScanErr(err)
	}
	return d, nil
}

func (r *donationRepo) MarkSuccessIfPending(ctx context.Context, tx repository.Tx, reference, transactionID string) (bool, error) {
	const q = `
UPDATE donations SET payment_status='SUCCESS', transaction_id=$2, updated_at=NOW()
WHERE reference=$1 AND payment_status='PENDING';`
	tag, err := execSQL(ctx, r.pool, tx, q, reference, transactionID)
	if err != nil {
		return false, mapExecErr(err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *donationRepo) ListRecentSuccessful(ctx context.Context, tx repository.Tx, limit int) ([]*model.Donation, error) {
	const q = `SELECT ` + donationColumns + ` FROM donations
 WHERE payment_status='SUCCESS'
 ORDER BY created_at DESC
 LIMIT $1;`
	return r.queryMany(ctx, tx, q, limit)
}

func (r *donationRepo) SuccessTotals(ctx context.Context, tx repository.Tx) (int, int64, error) {
	const q = `SELECT COUNT(*), COALESCE(SUM(amount),0) FROM donations WHERE payment_status='SUCCESS';`
	row, err := pickRow(ctx, r.pool, tx, q)
	if err != nil {
		return 0, 0, err
	}
	var n int
	var sum int64
	if err := row.Scan(&n, &sum); err != nil {
		return 0, 0, mapScanErr(err)
	}
	return n, sum, nil
}

func (r *donationRepo) ListPendingOlderThan(ctx context.Context, tx repository.Tx, olderThan time.Time, limit int) ([]*model.Donation, error) {
	const q = `SELECT ` + donationColumns + ` FROM donations
 WHERE payment_status='PENDING' AND created_at < $1
 ORDER BY created_at ASC
 LIMIT $2;`
	return r.queryMany(ctx, tx, q, olderThan, limit)
}

func (r *donationRepo) List(ctx context.Context, tx repository.Tx, f model.DonationFilter, p model.Page) ([]*model.Donation, int, error) {
	var w whereBuilder
	if f.Status != nil {
		w.add("payment_status = ?", string(*f.Status))
	}
	where, args := w.sql(), w.args

	total, err := countOne(ctx, r.pool, tx, `SELECT COUNT(*) FROM donations`+where, args...)
	if err != nil {
		return nil, 0, err
	}
	q := `SELECT ` + donationColumns + ` FROM donations` + where +
		` ORDER BY created_at DESC LIMIT ` + placeholder(len(args)+1) + ` OFFSET ` + placeholder(len(args)+2)
	out, err := r.queryMany(ctx, tx, q, append(args, p.Size, p.Offset())...)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *donationRepo) queryMany(ctx context.Context, tx repository.Tx, sql string, args ...any) ([]*model.Donation, error) {
	rows, err := queryRows(ctx, r.pool, tx, sql, args...)
	if err != nil {
		return nil, mapExecErr(err)
	}
	defer rows.Close()

	var out []*model.Donation
	for rows.Next() {
		d, err := scanDonation(rows)
		if err != nil {
			return nil, mapScanErr(err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, mapScanErr(err)
	}
	return out, nil
}

func scanDonation(row pgx.Row) (*model.Donation, error) {
	var d model.Donation
	var status string
	var meta []byte
	if err := row.Scan(&d.ID, &d.ExtUserID, &d.Amount, &d.Email, &d.DonorName, &d.Message, &d.IsAnonymous,
		&d.Reference, &status, &d.TransactionID, &meta, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return nil, err
	}
	d.Status = model.PaymentStatus(status)
	d.Metadata = decodeMeta(meta)
	return &d, nil
}
