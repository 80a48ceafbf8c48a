package redis

import (
	"context"
	"fmt"
	"time"

	"content-commerce/internal/domain/ports/adapter"
)

var _ adapter.RateLimiter = (*RateLimiter)(nil)

// RateLimiter is a fixed-window counter per key.
type RateLimiter struct {
	client RedisClient
}

func NewRateLimiter(client RedisClient) *RateLimiter {
	return &RateLimiter{client: client}
}

// Allow counts one hit. The window starts with the first hit; if arming the
// expiry fails the counter is dropped so a key can never stay blocked forever.
func (r *RateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if limit <= 0 {
		return true, nil
	}
	key = RateLimitKey(key)
	count, err := r.client.Incr(ctx, key)
	if err != nil {
		return false, err
	}
	if count == 1 {
		if err := r.client.Expire(ctx, key, window); err != nil {
			_ = r.client.Del(ctx, key)
			return false, err
		}
	}
	return count <= int64(limit), nil
}

func RateLimitKey(key string) string {
	return fmt.Sprintf("rate_limit:%s", key)
}
