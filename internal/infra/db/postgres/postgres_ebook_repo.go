package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"content-commerce/internal/domain"
	"content-commerce/internal/domain/model"
	"content-commerce/internal/domain/ports/repository"
)

var _ repository.EbookRepository = (*ebookRepo)(nil)

type ebookRepo struct {
	pool *pgxpool.Pool
}

func NewEbookRepo(pool *pgxpool.Pool) *ebookRepo {
	return &ebookRepo{pool: pool}
}

const ebookColumns = `id, title, author, description, cover_image, price, credits, file_url, file_size,
       format, category, is_premium_only, is_active, downloads, created_at, updated_at`

func (r *ebookRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Ebook, error) {
	row, err := pickRow(ctx, r.pool, tx, `SELECT `+ebookColumns+` FROM ebooks WHERE id=$1;`, id)
	if err != nil {
		return nil, err
	}
	e, err := scanEbook(row)
	if err != nil {
		return nil, mapScanErr(err)
	}
	return e, nil
}

// Save upserts by id and assigns one when missing.
func (r *ebookRepo) Save(ctx context.Context, tx repository.Tx, e *model.Ebook) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	e.UpdatedAt = now
	const q = `
INSERT INTO ebooks (` + ebookColumns + `)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
ON CONFLICT (id) DO UPDATE SET
  title=$2, author=$3, description=$4, cover_image=$5, price=$6, credits=$7, file_url=$8, file_size=$9,
  format=$10, category=$11, is_premium_only=$12, is_active=$13, updated_at=$16;`
	_, err := execSQL(ctx, r.pool, tx, q, e.ID, e.Title, e.Author, e.Description, e.CoverImage, e.Price, e.Credits,
		e.FileURL, e.FileSize, e.Format, e.Category, e.IsPremiumOnly, e.IsActive, e.Downloads, e.CreatedAt, e.UpdatedAt)
	return mapExecErr(err)
}

func (r *ebookRepo) IncrementDownloads(ctx context.Context, tx repository.Tx, id string) error {
	tag, err := execSQL(ctx, r.pool, tx, `UPDATE ebooks SET downloads=downloads+1 WHERE id=$1;`, id)
	if err != nil {
		return mapExecErr(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *ebookRepo) CountActive(ctx context.Context, tx repository.Tx) (int, error) {
	return countOne(ctx, r.pool, tx, `SELECT COUNT(*) FROM ebooks WHERE is_active;`)
}

func (r *ebookRepo) List(ctx context.Context, tx repository.Tx, f model.EbookFilter, p model.Page) ([]*model.Ebook, int, error) {
	var w whereBuilder
	if f.Active != nil {
		w.add("is_active = ?", *f.Active)
	}
	where, args := w.sql(), w.args

	total, err := countOne(ctx, r.pool, tx, `SELECT COUNT(*) FROM ebooks`+where, args...)
	if err != nil {
		return nil, 0, err
	}
	q := `SELECT ` + ebookColumns + ` FROM ebooks` + where +
		` ORDER BY created_at DESC LIMIT ` + placeholder(len(args)+1) + ` OFFSET ` + placeholder(len(args)+2)
	rows, err := queryRows(ctx, r.pool, tx, q, append(args, p.Size, p.Offset())...)
	if err != nil {
		return nil, 0, mapExecErr(err)
	}
	defer rows.Close()

	var out []*model.Ebook
	for rows.Next() {
		e, err := scanEbook(rows)
		if err != nil {
			return nil, 0, mapScanErr(err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, mapScanErr(err)
	}
	return out, total, nil
}

func scanEbook(row pgx.Row) (*model.Ebook, error) {
	var e model.Ebook
	var format string
	if err := row.Scan(&e.ID, &e.Title, &e.Author, &e.Description, &e.CoverImage, &e.Price, &e.Credits,
		&e.FileURL, &e.FileSize, &format, &e.Category, &e.IsPremiumOnly, &e.IsActive, &e.Downloads,
		&e.CreatedAt, &e.UpdatedAt); err != nil {
		return nil, err
	}
	e.Format = model.EbookFormat(format)
	return &e, nil
}
