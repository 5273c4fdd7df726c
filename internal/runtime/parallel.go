package runtime

import (
	"context"

	"github.com/google/uuid"

	"github.com/arborflow/arbor/pkg/domain"
)

// executeParallel enters a compound state: one branch per declared region,
// all activated immediately with no per-region guard, registered as a nested
// fork under a synthetic ID.
//
// Per-region completion and exit conditions are an extension point the
// configuration does not express yet; regions terminate through the same
// CompleteBranch path forked branches use.
func (e *Executor) executeParallel(ctx context.Context, cfg *domain.NodeConfig, evalCtx map[string]any, ec *domain.ExecutionContext) (*domain.ExecutionResult, error) {
	if len(cfg.Regions) == 0 {
		return nil, &ForkConfigError{NodeID: cfg.ID, Reason: "no regions declared"}
	}

	frame := domain.ForkFrame{ForkID: cfg.ID + "#parallel"}
	var branchIDs, states []string

	ev := domain.NewEvent(domain.EventForkStarted, cfg.ID, map[string]any{
		"parallel": true,
		"fork_id":  frame.ForkID,
		"regions":  len(cfg.Regions),
	})
	ec.AppendEvent(ev)

	for _, region := range cfg.Regions {
		id := region.ID
		if id == "" {
			id = uuid.NewString()
		}
		b := domain.NewBranch(id, region.InitialState)
		if err := ec.AddBranch(b); err != nil {
			return nil, &ForkConfigError{NodeID: cfg.ID, Reason: "duplicate region id " + id}
		}
		if err := ec.ActivateBranch(id); err != nil {
			return nil, &ForkConfigError{NodeID: cfg.ID, Reason: err.Error()}
		}
		ec.AppendEvent(domain.NewEvent(domain.EventBranchActivated, cfg.ID, map[string]any{
			"branch_id":   id,
			"start_state": region.InitialState,
			"region":      true,
		}))

		frame.BranchIDs = append(frame.BranchIDs, id)
		branchIDs = append(branchIDs, id)
		states = append(states, region.InitialState)
	}

	ec.PushFork(frame)

	return &domain.ExecutionResult{
		IsDAG:          true,
		Action:         domain.ActionParallelStarted,
		PrimaryState:   states[0],
		NextStates:     states,
		ActiveBranches: branchIDs,
		Event:          &ev,
		ShouldContinue: true,
	}, nil
}
