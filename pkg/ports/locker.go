package ports

import (
	"context"
	"time"
)

// UnlockFunc releases a previously acquired lock.
type UnlockFunc func(ctx context.Context) error

// Locker coordinates session access across replicas. The engine types
// assume a single writer per conversation; a Locker lets a multi-instance
// host keep that guarantee without in-process assumptions.
type Locker interface {
	// Lock blocks until the lock for key is acquired, the context is
	// canceled, or the TTL elapses (implementation specific). The returned
	// UnlockFunc must be called to release the lock.
	Lock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)
}
