package runtime

import (
	"context"

	"github.com/google/uuid"

	"github.com/arborflow/arbor/pkg/domain"
)

// executeFork splits execution 1→N. Each declared branch may carry an
// optional guard: false or erroring guards skip that one branch without
// blocking the rest of the fork.
func (e *Executor) executeFork(ctx context.Context, cfg *domain.NodeConfig, evalCtx map[string]any, ec *domain.ExecutionContext) (*domain.ExecutionResult, error) {
	if len(cfg.Branches) == 0 {
		return nil, &ForkConfigError{NodeID: cfg.ID, Reason: "no branches declared"}
	}

	// Reject bad declarations up front so a config-fatal fork leaves the
	// context untouched.
	seen := make(map[string]struct{}, len(cfg.Branches))
	for _, decl := range cfg.Branches {
		if decl.ID == "" {
			continue
		}
		if _, dup := seen[decl.ID]; dup {
			return nil, &ForkConfigError{NodeID: cfg.ID, Reason: "duplicate branch id " + decl.ID}
		}
		if _, exists := ec.Branch(decl.ID); exists {
			return nil, &ForkConfigError{NodeID: cfg.ID, Reason: "duplicate branch id " + decl.ID}
		}
		seen[decl.ID] = struct{}{}
	}

	type decision struct {
		branch *domain.Branch
		active bool
	}
	decisions := make([]decision, 0, len(cfg.Branches))
	for _, decl := range cfg.Branches {
		id := decl.ID
		if id == "" {
			id = uuid.NewString()
		}
		b := domain.NewBranch(id, decl.StartState)
		b.Priority = decl.Priority

		active := true
		if decl.Guard != "" {
			active = e.evalGuard(ctx, decl.Guard, evalCtx, cfg.ID)
		}
		decisions = append(decisions, decision{branch: b, active: active})
	}

	frame := domain.ForkFrame{ForkID: cfg.ID, JoinNodeID: cfg.JoinTarget}
	var activeIDs, activeStates, skippedIDs []string
	for _, d := range decisions {
		frame.BranchIDs = append(frame.BranchIDs, d.branch.ID)
		if d.active {
			activeIDs = append(activeIDs, d.branch.ID)
			activeStates = append(activeStates, d.branch.CurrentState)
		} else {
			skippedIDs = append(skippedIDs, d.branch.ID)
		}
	}

	ev := domain.NewEvent(domain.EventForkStarted, cfg.ID, map[string]any{
		"branches":    activeIDs,
		"skipped":     skippedIDs,
		"join_target": cfg.JoinTarget,
	})
	ec.AppendEvent(ev)

	for _, d := range decisions {
		if !d.active {
			// Skipped branches are terminal on arrival: they land directly
			// in the completed collection and never block the join.
			if err := d.branch.SetStatus(domain.BranchSkipped); err != nil {
				return nil, &ForkConfigError{NodeID: cfg.ID, Reason: err.Error()}
			}
			if err := ec.AddBranch(d.branch); err != nil {
				return nil, &ForkConfigError{NodeID: cfg.ID, Reason: "duplicate branch id " + d.branch.ID}
			}
			ec.AppendEvent(domain.NewEvent(domain.EventBranchSkipped, cfg.ID, map[string]any{
				"branch_id": d.branch.ID,
			}))
			continue
		}

		if err := ec.AddBranch(d.branch); err != nil {
			return nil, &ForkConfigError{NodeID: cfg.ID, Reason: "duplicate branch id " + d.branch.ID}
		}
		if err := ec.ActivateBranch(d.branch.ID); err != nil {
			return nil, &ForkConfigError{NodeID: cfg.ID, Reason: err.Error()}
		}
		ec.AppendEvent(domain.NewEvent(domain.EventBranchActivated, cfg.ID, map[string]any{
			"branch_id":   d.branch.ID,
			"start_state": d.branch.StartState,
		}))
	}

	ec.PushFork(frame)

	// Primary state keeps single-state callers working: the first active
	// branch's state, or the join target when everything was skipped.
	primary := cfg.JoinTarget
	if len(activeStates) > 0 {
		primary = activeStates[0]
	}

	return &domain.ExecutionResult{
		IsDAG:          true,
		Action:         domain.ActionForkStarted,
		PrimaryState:   primary,
		NextStates:     activeStates,
		ActiveBranches: activeIDs,
		Event:          &ev,
		ShouldContinue: true,
	}, nil
}
