package redis

import (
	"context"
	"time"

	"content-commerce/internal/domain"
	"content-commerce/internal/domain/ports/adapter"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

var _ adapter.Locker = (*RedisLocker)(nil)

// RedisLocker is a single-instance SET NX lock keyed per payment reference.
// Holders are identified by a random token so a late Unlock cannot free a
// lock that expired and was taken by another verifier.
type RedisLocker struct {
	cli      *redis.Client
	attempts int
	backoff  time.Duration
}

func NewLocker(c *Client) *RedisLocker {
	return &RedisLocker{cli: c.cli, attempts: 3, backoff: 50 * time.Millisecond}
}

// TryLock takes key for ttl. A key held by someone else yields
// domain.ErrVerificationInProgress; transport failures are returned as is.
func (l *RedisLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, error) {
	token := uuid.NewString()
	wait := l.backoff
	for attempt := 1; ; attempt++ {
		ok, err := l.cli.SetNX(ctx, key, token, ttl).Result()
		switch {
		case err != nil:
			return "", err
		case ok:
			return token, nil
		case attempt >= l.attempts:
			return "", domain.ErrVerificationInProgress
		}

		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return "", ctx.Err()
		case <-t.C:
		}
		wait *= 2
	}
}

// compare-and-delete so only the token holder releases the key
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// Unlock is a no-op when token no longer owns key.
func (l *RedisLocker) Unlock(ctx context.Context, key, token string) error {
	if token == "" {
		return nil
	}
	return unlockScript.Run(ctx, l.cli, []string{key}, token).Err()
}
