package postgres

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"content-commerce/internal/domain/model"
	"content-commerce/internal/domain/ports/repository"
)

var _ repository.UserRepository = (*userRepo)(nil)

type userRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) *userRepo {
	return &userRepo{pool: pool}
}

const userColumns = `id, ext_user_id, username, email, role, created_at, updated_at`

func (r *userRepo) Save(ctx context.Context, tx repository.Tx, u *model.User) error {
	const q = `
INSERT INTO users (` + userColumns + `)
VALUES ($1,$2,$3,$4,$5,$6,$7)
ON CONFLICT (ext_user_id) DO UPDATE SET
  username=$3, email=$4, role=$5, updated_at=$7
RETURNING id;`
	row, err := pickRow(ctx, r.pool, tx, q, u.ID, u.ExtUserID, u.Username, u.Email, u.Role, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		return err
	}
	if err := row.Scan(&u.ID); err != nil {
		return mapExecErr(err)
	}
	return nil
}

func (r *userRepo) FindByExtID(ctx context.Context, tx repository.Tx, extUserID string) (*model.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE ext_user_id=$1` + lockClause(tx)
	row, err := pickRow(ctx, r.pool, tx, q, extUserID)
	if err != nil {
		return nil, err
	}
	u, err := scanUser(row)
	if err != nil {
		return nil, mapScanErr(err)
	}
	return u, nil
}

func (r *userRepo) CountUsers(ctx context.Context, tx repository.Tx) (int, error) {
	return countOne(ctx, r.pool, tx, `SELECT COUNT(*) FROM users;`)
}

func (r *userRepo) List(ctx context.Context, tx repository.Tx, f model.UserFilter, p model.Page) ([]*model.User, int, error) {
	where, args := userWhere(f)

	total, err := countOne(ctx, r.pool, tx, `SELECT COUNT(*) FROM users`+where, args...)
	if err != nil {
		return nil, 0, err
	}

	q := `SELECT ` + userColumns + ` FROM users` + where +
		` ORDER BY created_at DESC LIMIT ` + placeholder(len(args)+1) + ` OFFSET ` + placeholder(len(args)+2)
	rows, err := queryRows(ctx, r.pool, tx, q, append(args, p.Size, p.Offset())...)
	if err != nil {
		return nil, 0, mapExecErr(err)
	}
	defer rows.Close()

	var out []*model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, mapScanErr(err)
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, mapScanErr(err)
	}
	return out, total, nil
}

func userWhere(f model.UserFilter) (string, []any) {
	var w whereBuilder
	if f.Role != nil {
		w.add("role = ?", string(*f.Role))
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		w.add("(username ILIKE ? OR email ILIKE ? OR ext_user_id ILIKE ?)", "%"+s+"%", "%"+s+"%", "%"+s+"%")
	}
	return w.sql(), w.args
}

func scanUser(row pgx.Row) (*model.User, error) {
	var u model.User
	var role string
	if err := row.Scan(&u.ID, &u.ExtUserID, &u.Username, &u.Email, &role, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	u.Role = model.Role(role)
	return &u, nil
}
