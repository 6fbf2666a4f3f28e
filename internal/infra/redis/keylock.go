package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kursadbilgin/form-relay/internal/lock"
	goredis "github.com/redis/go-redis/v9"
)

const (
	defaultLockTTL = 30 * time.Second
	backoffStep    = 10 * time.Millisecond
	backoffMax     = 100 * time.Millisecond
)

// releaseScript deletes the lock only if the holder token still matches,
// so an expired lock taken over by another dispatch is never deleted.
var releaseScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`)

var _ lock.KeyLock = (*RedisKeyLock)(nil)

// RedisKeyLock is a distributed per-key lock backed by SET NX with a TTL.
// It serializes dispatches for one recipient key across instances.
type RedisKeyLock struct {
	client *goredis.Client
	ttl    time.Duration
	sleep  func(ctx context.Context, d time.Duration) error
	token  func() string
}

func NewRedisKeyLock(client *goredis.Client, ttl time.Duration) (*RedisKeyLock, error) {
	return newRedisKeyLock(client, ttl, sleepWithContext, uuid.NewString)
}

func newRedisKeyLock(
	client *goredis.Client,
	ttl time.Duration,
	sleepFn func(ctx context.Context, d time.Duration) error,
	tokenFn func() string,
) (*RedisKeyLock, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	if sleepFn == nil {
		sleepFn = sleepWithContext
	}
	if tokenFn == nil {
		tokenFn = uuid.NewString
	}

	return &RedisKeyLock{
		client: client,
		ttl:    ttl,
		sleep:  sleepFn,
		token:  tokenFn,
	}, nil
}

func (l *RedisKeyLock) Acquire(ctx context.Context, key string) (func(), error) {
	if l == nil || l.client == nil {
		return nil, fmt.Errorf("key lock is not initialized")
	}

	normalizedKey := strings.TrimSpace(key)
	if normalizedKey == "" {
		return nil, fmt.Errorf("lock key is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	redisKey := fmt.Sprintf("dispatchlock:%s", normalizedKey)
	token := l.token()

	backoff := backoffStep
	for {
		acquired, err := l.client.SetNX(ctx, redisKey, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to acquire key lock: %w", err)
		}
		if acquired {
			break
		}

		if err := l.sleep(ctx, backoff); err != nil {
			return nil, err
		}

		backoff += backoffStep
		if backoff > backoffMax {
			backoff = backoffMax
		}
	}

	release := func() {
		// Best effort with a detached context; the TTL is the backstop.
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = releaseScript.Run(releaseCtx, l.client, []string{redisKey}, token).Err()
	}
	return release, nil
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
