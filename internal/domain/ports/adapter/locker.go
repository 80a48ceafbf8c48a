package adapter

import (
	"context"
	"time"
)

// Locker is a best-effort distributed mutex keyed by string.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (token string, err error)
	Unlock(ctx context.Context, key, token string) error
}

// RateLimiter counts hits per key inside a fixed window.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// TextSanitizer strips markup from user supplied text.
type TextSanitizer interface {
	Sanitize(s string) string
}
