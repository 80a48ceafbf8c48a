package repository

import (
	"context"

	"content-commerce/internal/domain/model"
)

// -----------------------------
// Users
// -----------------------------

type UserRepository interface {
	// Save upserts by ext_user_id.
	Save(ctx context.Context, tx Tx, u *model.User) error
	// FindByExtID returns domain.ErrNotFound when the identity was never synced.
	FindByExtID(ctx context.Context, tx Tx, extUserID string) (*model.User, error)
	CountUsers(ctx context.Context, tx Tx) (int, error)
	List(ctx context.Context, tx Tx, f model.UserFilter, p model.Page) ([]*model.User, int, error)
}
