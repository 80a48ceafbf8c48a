package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"content-commerce/internal/domain/model"
	"content-commerce/internal/domain/ports/repository"
	"content-commerce/internal/infra/metrics"
	red "content-commerce/internal/infra/redis"
)

var _ repository.EbookRepository = (*ebookRepoCacheDecorator)(nil)

const defaultEbookCacheTTL = 5 * time.Minute

// ebookRepoCacheDecorator serves pool reads of single ebooks from Redis.
// Reads inside a transaction and all writes go to the inner repository.
type ebookRepoCacheDecorator struct {
	inner repository.EbookRepository
	cache red.RedisClient
	ttl   time.Duration
	log   *zerolog.Logger
}

func NewEbookRepoCacheDecorator(inner repository.EbookRepository, cache red.RedisClient, ttl time.Duration, logger *zerolog.Logger) repository.EbookRepository {
	if ttl <= 0 {
		ttl = defaultEbookCacheTTL
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &ebookRepoCacheDecorator{inner: inner, cache: cache, ttl: ttl, log: logger}
}

func ebookKey(id string) string { return fmt.Sprintf("ebook:%s", id) }

func (d *ebookRepoCacheDecorator) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Ebook, error) {
	if tx != nil {
		return d.inner.FindByID(ctx, tx, id)
	}

	key := ebookKey(id)
	val, err := d.cache.Get(ctx, key)
	if err == nil {
		var e model.Ebook
		if json.Unmarshal([]byte(val), &e) == nil {
			metrics.IncCacheRequest("ebook", "hit")
			return &e, nil
		}
		metrics.IncCacheRequest("ebook", "miss")
	} else if red.IsNil(err) {
		metrics.IncCacheRequest("ebook", "miss")
	} else {
		metrics.IncCacheRequest("ebook", "error")
		d.log.Warn().Err(err).Str("key", key).Msg("ebook cache read failed")
	}

	e, err := d.inner.FindByID(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if b, err := json.Marshal(e); err == nil {
		if err := d.cache.Set(ctx, key, b, d.ttl); err != nil {
			d.log.Warn().Err(err).Str("key", key).Msg("ebook cache write failed")
		}
	}
	return e, nil
}

func (d *ebookRepoCacheDecorator) Save(ctx context.Context, tx repository.Tx, e *model.Ebook) error {
	if err := d.inner.Save(ctx, tx, e); err != nil {
		return err
	}
	d.invalidate(ctx, e.ID)
	return nil
}

func (d *ebookRepoCacheDecorator) IncrementDownloads(ctx context.Context, tx repository.Tx, id string) error {
	if err := d.inner.IncrementDownloads(ctx, tx, id); err != nil {
		return err
	}
	d.invalidate(ctx, id)
	return nil
}

func (d *ebookRepoCacheDecorator) CountActive(ctx context.Context, tx repository.Tx) (int, error) {
	return d.inner.CountActive(ctx, tx)
}

func (d *ebookRepoCacheDecorator) List(ctx context.Context, tx repository.Tx, f model.EbookFilter, p model.Page) ([]*model.Ebook, int, error) {
	return d.inner.List(ctx, tx, f, p)
}

func (d *ebookRepoCacheDecorator) invalidate(ctx context.Context, id string) {
	if err := d.cache.Del(ctx, ebookKey(id)); err != nil {
		d.log.Warn().Err(err).Str("ebook_id", id).Msg("ebook cache invalidation failed")
	}
}
