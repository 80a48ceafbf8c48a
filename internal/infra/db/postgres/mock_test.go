//go:build !integration

package postgres

import (
	"context"
	"time"

	"content-commerce/internal/domain/model"
	"content-commerce/internal/domain/ports/repository"
	red "content-commerce/internal/infra/redis"
)

// --- Mocks for Cache Decorator Tests ---

// mockInnerEbookRepo mocks the database repository that the ebook decorator wraps.
type mockInnerEbookRepo struct {
	FindByIDFunc           func(ctx context.Context, tx repository.Tx, id string) (*model.Ebook, error)
	SaveFunc               func(ctx context.Context, tx repository.Tx, e *model.Ebook) error
	IncrementDownloadsFunc func(ctx context.Context, tx repository.Tx, id string) error
	CountActiveFunc        func(ctx context.Context, tx repository.Tx) (int, error)
	ListFunc               func(ctx context.Context, tx repository.Tx, f model.EbookFilter, p model.Page) ([]*model.Ebook, int, error)
}

var _ repository.EbookRepository = (*mockInnerEbookRepo)(nil)

func (m *mockInnerEbookRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Ebook, error) {
	return m.FindByIDFunc(ctx, tx, id)
}
func (m *mockInnerEbookRepo) Save(ctx context.Context, tx repository.Tx, e *model.Ebook) error {
	return m.SaveFunc(ctx, tx, e)
}
func (m *mockInnerEbookRepo) IncrementDownloads(ctx context.Context, tx repository.Tx, id string) error {
	return m.IncrementDownloadsFunc(ctx, tx, id)
}
func (m *mockInnerEbookRepo) CountActive(ctx context.Context, tx repository.Tx) (int, error) {
	return m.CountActiveFunc(ctx, tx)
}
func (m *mockInnerEbookRepo) List(ctx context.Context, tx repository.Tx, f model.EbookFilter, p model.Page) ([]*model.Ebook, int, error) {
	return m.ListFunc(ctx, tx, f, p)
}

// mockRedisClient mocks our Redis client wrapper.
type mockRedisClient struct {
	GetFunc    func(ctx context.Context, key string) (string, error)
	SetFunc    func(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	DelFunc    func(ctx context.Context, keys ...string) error
	PingFunc   func(ctx context.Context) error
	IncrFunc   func(ctx context.Context, key string) (int64, error)
	ExpireFunc func(ctx context.Context, key string, expiration time.Duration) error
	CloseFunc  func() error
}

var _ red.RedisClient = &mockRedisClient{}

func (m *mockRedisClient) Get(ctx context.Context, key string) (string, error) {
	return m.GetFunc(ctx, key)
}
func (m *mockRedisClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	if m.SetFunc == nil {
		return nil
	}
	return m.SetFunc(ctx, key, value, expiration)
}
func (m *mockRedisClient) Del(ctx context.Context, keys ...string) error {
	if m.DelFunc == nil {
		return nil
	}
	return m.DelFunc(ctx, keys...)
}
func (m *mockRedisClient) Ping(ctx context.Context) error {
	return m.PingFunc(ctx)
}
func (m *mockRedisClient) Incr(ctx context.Context, key string) (int64, error) {
	return m.IncrFunc(ctx, key)
}
func (m *mockRedisClient) Expire(ctx context.Context, key string, expiration time.Duration) error {
	return m.ExpireFunc(ctx, key, expiration)
}
func (m *mockRedisClient) Close() error {
	return m.CloseFunc()
}
