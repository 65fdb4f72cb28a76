package recompute

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/tomether-ux/polygonum-sub000/internal/domain"
)

// Locker serializes recompute runs: the protocol assumes at most one
// writer against the persisted cycle store.
type Locker interface {
	// TryLock acquires the lock or returns domain.ErrRecomputeInProgress
	// when another run holds it. The returned function releases the lock.
	TryLock(ctx context.Context) (func(context.Context) error, error)
}

const (
	lockKey = "engine:recompute:lock"
	lockTTL = 15 * time.Minute
)

// unlockScript deletes the lock only when still held by this owner, so a
// run that outlived its TTL cannot release a lock someone else took over.
var unlockScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// RedisLocker is the cross-instance lock used in deployments with more
// than one engine process.
type RedisLocker struct {
	client *redis.Client
}

func NewRedisLocker(client *redis.Client) *RedisLocker {
	return &RedisLocker{client: client}
}

func (l *RedisLocker) TryLock(ctx context.Context) (func(context.Context) error, error) {
	owner := uuid.NewString()
	ok, err := l.client.SetNX(ctx, lockKey, owner, lockTTL).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire recompute lock: %w", err)
	}
	if !ok {
		return nil, domain.ErrRecomputeInProgress
	}
	release := func(ctx context.Context) error {
		if err := unlockScript.Run(ctx, l.client, []string{lockKey}, owner).Err(); err != nil && err != redis.Nil {
			return fmt.Errorf("release recompute lock: %w", err)
		}
		return nil
	}
	return release, nil
}

// LocalLocker is the single-process fallback used when redis is disabled.
type LocalLocker struct {
	mu   sync.Mutex
	held bool
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{}
}

func (l *LocalLocker) TryLock(ctx context.Context) (func(context.Context) error, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held {
		return nil, domain.ErrRecomputeInProgress
	}
	l.held = true
	release := func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		l.held = false
		return nil
	}
	return release, nil
}
