package runtime

import (
	"context"
	"errors"

	"github.com/arborflow/arbor/pkg/domain"
)

// executeJoin evaluates an N→1 barrier. An unmet join mutates nothing, so
// re-evaluating it with no new completions in between is idempotent; the
// caller parks the conversation and re-invokes on the next external event.
func (e *Executor) executeJoin(ctx context.Context, cfg *domain.NodeConfig, evalCtx map[string]any, ec *domain.ExecutionContext) (*domain.ExecutionResult, error) {
	expected := cfg.ExpectedBranches
	if len(expected) == 0 {
		frame, ok := ec.CurrentFork()
		if !ok {
			return nil, &JoinConfigError{NodeID: cfg.ID, Reason: "no expected branches declared and no open fork"}
		}
		expected = frame.BranchIDs
	}

	var terminal, pending []string
	for _, id := range expected {
		b, ok := ec.Branch(id)
		if ok && isJoinTerminal(b.Status) {
			terminal = append(terminal, id)
		} else {
			pending = append(pending, id)
		}
	}

	policy := cfg.JoinPolicy
	if policy == "" {
		policy = domain.JoinAllComplete
	}
	met, err := policy.Satisfied(len(terminal), len(expected), cfg.N)
	if err != nil {
		var perr *domain.PolicyError
		if errors.As(err, &perr) {
			return nil, &JoinConfigError{NodeID: cfg.ID, Reason: perr.Reason}
		}
		return nil, &JoinConfigError{NodeID: cfg.ID, Reason: err.Error()}
	}

	if !met {
		ev := domain.NewEvent(domain.EventJoinWaiting, cfg.ID, map[string]any{
			"policy":   string(policy),
			"terminal": terminal,
			"pending":  pending,
		})
		ec.AppendEvent(ev)
		return &domain.ExecutionResult{
			IsDAG:          true,
			Action:         domain.ActionJoinWaiting,
			PrimaryState:   cfg.ID,
			ActiveBranches: ec.ActiveBranchIDs(),
			Event:          &ev,
			ShouldContinue: false,
		}, nil
	}

	aggregated := make(map[string]any, len(terminal))
	for _, id := range terminal {
		b, _ := ec.Branch(id)
		aggregated[id] = b.Data
	}

	// Terminal branches already moved to the completed collection when they
	// terminated; popping the frame closes the fork itself.
	if frame, ok := ec.CurrentFork(); ok && frameCovers(frame, expected) {
		ec.PopFork()
	}

	action := cfg.OnJoin
	if action == "" {
		action = domain.ActionJoinComplete
	}
	ev := domain.NewEvent(domain.EventJoinComplete, cfg.ID, map[string]any{
		"policy":   string(policy),
		"branches": terminal,
		"action":   action,
	})
	ec.AppendEvent(ev)

	return &domain.ExecutionResult{
		IsDAG:          true,
		Action:         action,
		PrimaryState:   cfg.ID,
		ActiveBranches: ec.ActiveBranchIDs(),
		AggregatedData: aggregated,
		Event:          &ev,
		ShouldContinue: true,
	}, nil
}

// isJoinTerminal reports whether a branch counts toward barrier completion.
// Failed branches do not: only completed and skipped ones satisfy a join.
func isJoinTerminal(s domain.BranchStatus) bool {
	return s == domain.BranchCompleted || s == domain.BranchSkipped
}

// frameCovers reports whether the fork frame created any of the expected
// branches, guarding against popping an unrelated nested fork.
func frameCovers(frame domain.ForkFrame, expected []string) bool {
	declared := make(map[string]struct{}, len(frame.BranchIDs))
	for _, id := range frame.BranchIDs {
		declared[id] = struct{}{}
	}
	for _, id := range expected {
		if _, ok := declared[id]; ok {
			return true
		}
	}
	return false
}
