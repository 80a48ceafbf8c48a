package postgres

import (
	"context"

	"github.com/jackc/pgx/v4/pgxpool"

	"content-commerce/internal/domain/model"
	"content-commerce/internal/domain/ports/repository"
)

var _ repository.PostRepository = (*postRepo)(nil)

// postRepo reads blog post counters. Posts are written by the content service.
type postRepo struct {
	pool *pgxpool.Pool
}

func NewPostRepo(pool *pgxpool.Pool) *postRepo {
	return &postRepo{pool: pool}
}

func (r *postRepo) CountPosts(ctx context.Context, tx repository.Tx) (int, error) {
	return countOne(ctx, r.pool, tx, `SELECT COUNT(*) FROM posts;`)
}

func (r *postRepo) CountByApproval(ctx context.Context, tx repository.Tx, approval model.PostApproval) (int, error) {
	return countOne(ctx, r.pool, tx, `SELECT COUNT(*) FROM posts WHERE approval_status=$1;`, string(approval))
}
