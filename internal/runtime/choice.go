package runtime

import (
	"context"

	"github.com/arborflow/arbor/pkg/domain"
)

// executeChoice resolves an XOR node. Options are evaluated in declared
// order and the first true guard wins, even when later guards would also
// match: configuration order is semantically significant.
func (e *Executor) executeChoice(ctx context.Context, cfg *domain.NodeConfig, evalCtx map[string]any, ec *domain.ExecutionContext) (*domain.ExecutionResult, error) {
	for i, opt := range cfg.Choices {
		if !e.evalGuard(ctx, opt.Condition, evalCtx, cfg.ID) {
			continue
		}

		ec.AppendEvent(domain.NewEvent(domain.EventChoiceEvaluated, cfg.ID, map[string]any{
			"options_evaluated": i + 1,
			"matched":           true,
		}))
		ev := domain.NewEvent(domain.EventChoiceTaken, cfg.ID, map[string]any{
			"condition":    opt.Condition,
			"to":           opt.To,
			"option_index": i,
		})
		ec.AppendEvent(ev)

		return &domain.ExecutionResult{
			IsDAG:          true,
			Action:         domain.ActionTransition,
			PrimaryState:   opt.To,
			NextStates:     []string{opt.To},
			Event:          &ev,
			ShouldContinue: true,
		}, nil
	}

	ec.AppendEvent(domain.NewEvent(domain.EventChoiceEvaluated, cfg.ID, map[string]any{
		"options_evaluated": len(cfg.Choices),
		"matched":           false,
	}))

	if cfg.Default == "" {
		// No match and no default is fatal for this node evaluation; it is
		// never silently defaulted or retried.
		return nil, &ChoiceNoMatchError{NodeID: cfg.ID}
	}

	ev := domain.NewEvent(domain.EventChoiceDefault, cfg.ID, map[string]any{
		"to": cfg.Default,
	})
	ec.AppendEvent(ev)

	return &domain.ExecutionResult{
		IsDAG:          true,
		Action:         domain.ActionTransition,
		PrimaryState:   cfg.Default,
		NextStates:     []string{cfg.Default},
		Event:          &ev,
		ShouldContinue: true,
	}, nil
}
