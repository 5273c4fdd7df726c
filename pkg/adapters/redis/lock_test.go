package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arborflow/arbor/pkg/adapters/redis"
)

func TestLockerLockUnlock(t *testing.T) {
	mr, client := newTestClient(t)
	locker := redis.NewLocker(client, "arbor:")
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "conv-1", 5*time.Second)
	require.NoError(t, err)
	require.NotNil(t, unlock)

	assert.True(t, mr.Exists("arbor:lock:conv-1"), "lock key should be set")

	require.NoError(t, unlock(ctx))
	assert.False(t, mr.Exists("arbor:lock:conv-1"), "lock key should be released")
}

func TestLockerUncontendedAcquiresImmediately(t *testing.T) {
	_, client := newTestClient(t)
	locker := redis.NewLocker(client, "arbor:")

	// Well under the 100ms poll interval: the first attempt must not wait
	// for a ticker fire.
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	unlock, err := locker.Lock(ctx, "conv-1", 5*time.Second)
	require.NoError(t, err)
	require.NoError(t, unlock(context.Background()))
}

func TestLockerContention(t *testing.T) {
	_, client := newTestClient(t)
	first := redis.NewLocker(client, "arbor:")
	second := redis.NewLocker(client, "arbor:")
	ctx := context.Background()

	unlock, err := first.Lock(ctx, "conv-1", 5*time.Second)
	require.NoError(t, err)

	// The second holder polls until its context gives up.
	ctxTimeout, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()
	_, err = second.Lock(ctxTimeout, "conv-1", 5*time.Second)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	require.NoError(t, unlock(ctx))

	unlock2, err := second.Lock(ctx, "conv-1", 5*time.Second)
	require.NoError(t, err)
	require.NoError(t, unlock2(ctx))
}

func TestLockerUnlockOnlyReleasesOwnLock(t *testing.T) {
	mr, client := newTestClient(t)
	locker := redis.NewLocker(client, "arbor:")
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "conv-1", 5*time.Second)
	require.NoError(t, err)

	// Simulate the lock expiring and another replica re-acquiring it.
	require.NoError(t, mr.Set("arbor:lock:conv-1", "someone-else"))

	require.NoError(t, unlock(ctx))
	assert.True(t, mr.Exists("arbor:lock:conv-1"), "unlock must not delete a lock it no longer owns")
}
