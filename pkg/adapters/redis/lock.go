package redis

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	backend "github.com/redis/go-redis/v9"

	"github.com/arborflow/arbor/pkg/ports"
)

// ErrLockAcquire is returned when the lock cannot be acquired.
var ErrLockAcquire = errors.New("failed to acquire distributed lock")

// Locker implements ports.Locker using Redis SET NX PX, so multi-replica
// hosts can keep Arbor's single-writer-per-conversation guarantee.
type Locker struct {
	client *backend.Client
	prefix string
}

// NewLocker creates a Redis locker.
func NewLocker(client *backend.Client, prefix string) *Locker {
	return &Locker{client: client, prefix: prefix}
}

// Lock polls until the lock is acquired or the context is canceled. The lock
// value is unique per acquisition so release only deletes our own lock.
func (l *Locker) Lock(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	lockKey := l.prefix + "lock:" + key
	val := uuid.NewString()

	unlock := func(ctx context.Context) error {
		// Check-and-delete must be atomic, hence the script.
		script := `
			if redis.call("get", KEYS[1]) == ARGV[1] then
				return redis.call("del", KEYS[1])
			else
				return 0
			end
		`
		return l.client.Eval(ctx, script, []string{lockKey}, val).Err()
	}

	// Uncontended locks should not pay the poll interval, so try before
	// entering the ticker loop.
	ok, err := l.client.SetNX(ctx, lockKey, val, ttl).Result()
	if err != nil {
		return nil, errors.Join(ErrLockAcquire, err)
	}
	if ok {
		return unlock, nil
	}

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
			ok, err := l.client.SetNX(ctx, lockKey, val, ttl).Result()
			if err != nil {
				return nil, errors.Join(ErrLockAcquire, err)
			}
			if ok {
				return unlock, nil
			}
		}
	}
}
