package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arborflow/arbor/pkg/adapters/redis"
	"github.com/arborflow/arbor/pkg/domain"
	"github.com/arborflow/arbor/pkg/ports"
)

func newTestClient(t *testing.T) (*miniredis.Miniredis, *backend.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	return mr, backend.NewClient(&backend.Options{Addr: mr.Addr()})
}

func TestStoreContract(t *testing.T) {
	_, client := newTestClient(t)
	ports.RunContextStoreContract(t, redis.NewFromClient(client))
}

func TestStoreTTLExpiration(t *testing.T) {
	mr, client := newTestClient(t)
	store := redis.NewFromClient(client, redis.WithTTL(1*time.Second))
	ctx := context.Background()

	snap := &domain.Snapshot{Execution: domain.NewExecutionContext().ToMap()}
	require.NoError(t, store.Save(ctx, "session-ttl", snap))

	sessions, err := store.List(ctx)
	require.NoError(t, err)
	assert.Contains(t, sessions, "session-ttl")

	// Expire the key inside miniredis.
	mr.FastForward(2 * time.Second)

	_, err = store.Load(ctx, "session-ttl")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	// List prunes the index lazily against time.Now(), so wait past the TTL
	// in real time as well.
	time.Sleep(1200 * time.Millisecond)

	sessions, err = store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestStorePrefix(t *testing.T) {
	mr, client := newTestClient(t)
	store := redis.NewFromClient(client, redis.WithPrefix("custom:app:"))
	ctx := context.Background()

	snap := &domain.Snapshot{Execution: domain.NewExecutionContext().ToMap()}
	require.NoError(t, store.Save(ctx, "my-session", snap))

	assert.True(t, mr.Exists("custom:app:my-session"), "key should carry the custom prefix")
	assert.True(t, mr.Exists("custom:app:index"), "index should carry the custom prefix too")
}

func TestStoreDeleteCleansIndex(t *testing.T) {
	_, client := newTestClient(t)
	store := redis.NewFromClient(client)
	ctx := context.Background()

	snap := &domain.Snapshot{Execution: domain.NewExecutionContext().ToMap()}
	require.NoError(t, store.Save(ctx, "s1", snap))
	require.NoError(t, store.Delete(ctx, "s1"))

	sessions, err := store.List(ctx)
	require.NoError(t, err)
	assert.NotContains(t, sessions, "s1")
}
