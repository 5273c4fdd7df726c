package ports

import (
	"context"
	"testing"
	"time"

	"github.com/arborflow/arbor/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunContextStoreContract verifies that a ContextStore implementation adheres
// to the interface contract. Adapters call it from their own tests.
func RunContextStoreContract(t *testing.T, store ContextStore) {
	ctx := context.Background()
	sessionID := "contract-session-" + time.Now().Format("20060102150405")

	newSnapshot := func() *domain.Snapshot {
		ec := domain.NewExecutionContext()
		b := domain.NewBranch("budget", "ask_budget")
		require.NoError(t, ec.AddBranch(b))
		require.NoError(t, ec.ActivateBranch("budget"))
		ec.AppendEvent(domain.NewEvent(domain.EventBranchActivated, "fork_1", map[string]any{
			"branch_id": "budget",
		}))
		return &domain.Snapshot{
			Execution: ec.ToMap(),
			SavedAt:   time.Now().UTC(),
		}
	}

	t.Run("SaveAndLoad", func(t *testing.T) {
		snap := newSnapshot()
		require.NoError(t, store.Save(ctx, sessionID, snap))

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)

		ec, err := domain.ExecutionContextFromMap(loaded.Execution)
		require.NoError(t, err)
		branch, ok := ec.Branch("budget")
		require.True(t, ok, "branch should survive the round-trip")
		assert.Equal(t, domain.BranchActive, branch.Status)
		assert.Equal(t, "ask_budget", branch.CurrentState)
		assert.Len(t, ec.Events(), 1)
	})

	t.Run("LoadNonExistent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, sessionID, newSnapshot()))
		require.NoError(t, store.Delete(ctx, sessionID))

		_, err := store.Load(ctx, sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("List", func(t *testing.T) {
		id1 := sessionID + "-1"
		id2 := sessionID + "-2"
		require.NoError(t, store.Save(ctx, id1, newSnapshot()))
		require.NoError(t, store.Save(ctx, id2, newSnapshot()))
		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		sessions, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, sessions, id1)
		assert.Contains(t, sessions, id2)
	})
}

// RunConfigLoaderContract verifies that a ConfigLoader implementation behaves
// per the interface contract, given the node IDs the loader was seeded with.
func RunConfigLoaderContract(t *testing.T, loader ConfigLoader, seeded []string) {
	t.Run("GetNode", func(t *testing.T) {
		for _, id := range seeded {
			cfg, err := loader.GetNode(id)
			require.NoError(t, err)
			assert.Equal(t, id, cfg.ID)
		}
	})

	t.Run("GetNodeNotFound", func(t *testing.T) {
		_, err := loader.GetNode("definitely-not-a-node")
		assert.ErrorIs(t, err, domain.ErrNodeNotFound)
	})

	t.Run("ListNodes", func(t *testing.T) {
		ids, err := loader.ListNodes()
		require.NoError(t, err)
		for _, id := range seeded {
			assert.Contains(t, ids, id)
		}
	})
}
