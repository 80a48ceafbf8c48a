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

var _ repository.PurchaseRepository = (*purchaseRepo)(nil)

// ownedIndex is the partial unique index over SUCCESS purchases.
const ownedIndex = "uq_purchases_owned"

type purchaseRepo struct {
	pool *pgxpool.Pool
}

func NewPurchaseRepo(pool *pgxpool.Pool) *purchaseRepo {
	return &purchaseRepo{pool: pool}
}

const purchaseColumns = `p.id, p.ext_user_id, p.ebook_id, p.purchase_type, p.amount, p.payment_method, p.reference,
       p.payment_status, p.transaction_id, p.download_count, p.last_downloaded_at, p.metadata, p.created_at, p.updated_at`

const purchaseViewFrom = `
  FROM purchases p
  JOIN ebooks e ON e.id = p.ebook_id
  LEFT JOIN users u ON u.ext_user_id = p.ext_user_id`

func (r *purchaseRepo) Save(ctx context.Context, tx repository.Tx, p *model.Purchase) error {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = p.CreatedAt
	}
	meta, err := encodeMeta(p.Metadata)
	if err != nil {
		return domain.ErrInvalidArgument
	}
	const q = `
INSERT INTO purchases (
  id, ext_user_id, ebook_id, purchase_type, amount, payment_method, reference,
  payment_status, transaction_id, download_count, last_downloaded_at, metadata, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
ON CONFLICT (id) DO UPDATE SET
  payment_status=$8, transaction_id=$9, download_count=$10, last_downloaded_at=$11, metadata=$12, updated_at=$14;`
	_, err = execSQL(ctx, r.pool, tx, q, p.ID, p.ExtUserID, p.EbookID, p.PurchaseType, p.Amount, p.PaymentMethod, p.Reference,
		p.Status, p.TransactionID, p.DownloadCount, p.LastDownloadedAt, meta, p.CreatedAt, p.UpdatedAt)
	return r.mapWriteErr(err)
}

func (r *purchaseRepo) mapWriteErr(err error) error {
	switch violatedConstraint(err) {
	case "":
		return mapExecErr(err)
	case ownedIndex:
		return domain.ErrAlreadyOwned
	default:
		return domain.ErrConflict
	}
}

func (r *purchaseRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Purchase, error) {
	return r.queryOne(ctx, tx, `SELECT `+purchaseColumns+` FROM purchases p WHERE p.id=$1`+lockClause(tx), id)
}

func (r *purchaseRepo) FindByReference(ctx context.Context, tx repository.Tx, reference string) (*model.Purchase, error) {
	return r.queryOne(ctx, tx, `SELECT `+purchaseColumns+` FROM purchases p WHERE p.reference=$1`+lockClause(tx), reference)
}

func (r *purchaseRepo) FindSuccessful(ctx context.Context, tx repository.Tx, extUserID, ebookID string) (*model.Purchase, error) {
	const q = `SELECT ` + purchaseColumns + ` FROM purchases p
 WHERE p.ext_user_id=$1 AND p.ebook_id=$2 AND p.payment_status='SUCCESS'
 LIMIT 1`
	return r.queryOne(ctx, tx, q, extUserID, ebookID)
}

func (r *purchaseRepo) MarkSuccessIfPending(ctx context.Context, tx repository.Tx, id, transactionID string) (bool, error) {
	const q = `
UPDATE purchases SET payment_status='SUCCESS', transaction_id=$2, updated_at=NOW()
WHERE id=$1 AND payment_status='PENDING';`
	tag, err := execSQL(ctx, r.pool, tx, q, id, transactionID)
	if err != nil {
		return false, r.mapWriteErr(err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *purchaseRepo) MarkRefundedIfSuccess(ctx context.Context, tx repository.Tx, id string) (bool, error) {
	const q = `
UPDATE purchases SET payment_status='REFUNDED', updated_at=NOW()
WHERE id=$1 AND payment_status='SUCCESS';`
	tag, err := execSQL(ctx, r.pool, tx, q, id)
	if err != nil {
		return false, mapExecErr(err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *purchaseRepo) RecordDownload(ctx context.Context, tx repository.Tx, id string, at time.Time) error {
	const q = `
UPDATE purchases SET download_count=download_count+1, last_downloaded_at=$2, updated_at=$2
WHERE id=$1;`
	tag, err := execSQL(ctx, r.pool, tx, q, id, at)
	if err != nil {
		return mapExecErr(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *purchaseRepo) ListByUser(ctx context.Context, tx repository.Tx, extUserID string, status *model.PaymentStatus, p model.Page) ([]*model.PurchaseView, int, error) {
	var w whereBuilder
	w.add("p.ext_user_id = ?", extUserID)
	if status != nil {
		w.add("p.payment_status = ?", string(*status))
	}
	return r.listViews(ctx, tx, w, p)
}

func (r *purchaseRepo) List(ctx context.Context, tx repository.Tx, f model.PurchaseFilter, p model.Page) ([]*model.PurchaseView, int, error) {
	var w whereBuilder
	if f.Status != nil {
		w.add("p.payment_status = ?", string(*f.Status))
	}
	return r.listViews(ctx, tx, w, p)
}

func (r *purchaseRepo) listViews(ctx context.Context, tx repository.Tx, w whereBuilder, p model.Page) ([]*model.PurchaseView, int, error) {
	where, args := w.sql(), w.args

	total, err := countOne(ctx, r.pool, tx, `SELECT COUNT(*) FROM purchases p`+where, args...)
	if err != nil {
		return nil, 0, err
	}

	q := `SELECT ` + purchaseColumns + `,
       COALESCE(u.username, ''), COALESCE(u.email, ''), e.title, e.author, e.price, e.cover_image` +
		purchaseViewFrom + where + `
 ORDER BY p.created_at DESC
 LIMIT ` + placeholder(len(args)+1) + ` OFFSET ` + placeholder(len(args)+2)
	rows, err := queryRows(ctx, r.pool, tx, q, append(args, p.Size, p.Offset())...)
	if err != nil {
		return nil, 0, mapExecErr(err)
	}
	defer rows.Close()

	var out []*model.PurchaseView
	for rows.Next() {
		v := &model.PurchaseView{}
		var meta []byte
		dest := append(purchaseDest(&v.Purchase, &meta), &v.Username, &v.Email, &v.EbookTitle, &v.EbookAuthor, &v.EbookPrice, &v.CoverImage)
		if err := rows.Scan(dest...); err != nil {
			return nil, 0, mapScanErr(err)
		}
		v.Metadata = decodeMeta(meta)
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, mapScanErr(err)
	}
	return out, total, nil
}

func (r *purchaseRepo) ListPendingOlderThan(ctx context.Context, tx repository.Tx, olderThan time.Time, limit int) ([]*model.Purchase, error) {
	const q = `SELECT ` + purchaseColumns + ` FROM purchases p
 WHERE p.payment_status='PENDING' AND p.purchase_type='CASH' AND p.created_at < $1
 ORDER BY p.created_at ASC
 LIMIT $2;`
	rows, err := queryRows(ctx, r.pool, tx, q, olderThan, limit)
	if err != nil {
		return nil, mapExecErr(err)
	}
	defer rows.Close()

	var out []*model.Purchase
	for rows.Next() {
		p, err := scanPurchase(rows)
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

func (r *purchaseRepo) CountSuccessful(ctx context.Context, tx repository.Tx) (int, error) {
	return countOne(ctx, r.pool, tx, `SELECT COUNT(*) FROM purchases WHERE payment_status='SUCCESS';`)
}

func (r *purchaseRepo) SumCashRevenue(ctx context.Context, tx repository.Tx) (int64, error) {
	const q = `SELECT COALESCE(SUM(amount),0) FROM purchases WHERE payment_status='SUCCESS' AND purchase_type='CASH';`
	row, err := pickRow(ctx, r.pool, tx, q)
	if err != nil {
		return 0, err
	}
	var n int64
	if err := row.Scan(&n); err != nil {
		return 0, mapScanErr(err)
	}
	return n, nil
}

func (r *purchaseRepo) queryOne(ctx context.Context, tx repository.Tx, sql string, args ...any) (*model.Purchase, error) {
	row, err := pickRow(ctx, r.pool, tx, sql, args...)
	if err != nil {
		return nil, err
	}
	p, err := scanPurchase(row)
	if err != nil {
		return nil, mapScanErr(err)
	}
	return p, nil
}

func purchaseDest(p *model.Purchase, meta *[]byte) []any {
	return []any{
		&p.ID, &p.ExtUserID, &p.EbookID, (*string)(&p.PurchaseType), &p.Amount, (*string)(&p.PaymentMethod), &p.Reference,
		(*string)(&p.Status), &p.TransactionID, &p.DownloadCount, &p.LastDownloadedAt, meta, &p.CreatedAt, &p.UpdatedAt,
	}
}

func scanPurchase(row pgx.Row) (*model.Purchase, error) {
	p := &model.Purchase{}
	var meta []byte
	if err := row.Scan(purchaseDest(p, &meta)...); err != nil {
		return nil, err
	}
	p.Metadata = decodeMeta(meta)
	return p, nil
}
