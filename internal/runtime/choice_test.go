package runtime_test

import (
	"context"
	"errors"
	"testing"

	"github.com/arborflow/arbor/internal/runtime"
	"github.com/arborflow/arbor/pkg/adapters/memory"
	"github.com/arborflow/arbor/pkg/domain"
)

func choiceLoader() *memory.Loader {
	loader := memory.NewLoader()
	loader.AddNode(&domain.NodeConfig{
		ID:   "route_request",
		Type: domain.NodeTypeChoice,
		Choices: []domain.ChoiceOption{
			{Condition: "wants_refund", To: "refund_flow"},
			{Condition: "wants_booking", To: "booking_flow"},
			{Condition: "wants_anything", To: "catch_all"},
		},
		Default: "clarify",
	})
	return loader
}

func TestChoiceFirstMatchWins(t *testing.T) {
	exec := runtime.NewExecutor(choiceLoader(), flagEvaluator)
	ec := domain.NewExecutionContext()

	// Both the second and third guards match; the second is declared first.
	res, err := exec.Execute(context.Background(), "route_request", "", map[string]any{
		"wants_booking":  true,
		"wants_anything": true,
	}, ec)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if res.PrimaryState != "booking_flow" {
		t.Errorf("expected first matching option 'booking_flow', got %q", res.PrimaryState)
	}
	if res.Action != domain.ActionTransition || !res.IsDAG {
		t.Errorf("expected a DAG transition, got %+v", res)
	}

	events := ec.Events()
	if len(events) != 2 {
		t.Fatalf("expected summary + taken events, got %d", len(events))
	}
	if events[0].Type != domain.EventChoiceEvaluated || events[1].Type != domain.EventChoiceTaken {
		t.Errorf("unexpected event sequence: %s, %s", events[0].Type, events[1].Type)
	}
	if events[1].Data["to"] != "booking_flow" {
		t.Errorf("choice_taken should record the target, got %v", events[1].Data)
	}
}

func TestChoiceDefault(t *testing.T) {
	exec := runtime.NewExecutor(choiceLoader(), flagEvaluator)
	ec := domain.NewExecutionContext()

	res, err := exec.Execute(context.Background(), "route_request", "", map[string]any{}, ec)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if res.PrimaryState != "clarify" {
		t.Errorf("expected default 'clarify', got %q", res.PrimaryState)
	}

	events := ec.Events()
	if len(events) != 2 || events[1].Type != domain.EventChoiceDefault {
		t.Fatalf("expected choice_default event, got %v", events)
	}
}

func TestChoiceNoMatchNoDefaultIsFatal(t *testing.T) {
	loader := memory.NewLoader()
	loader.AddNode(&domain.NodeConfig{
		ID:   "strict_choice",
		Type: domain.NodeTypeChoice,
		Choices: []domain.ChoiceOption{
			{Condition: "never", To: "nowhere"},
		},
	})
	exec := runtime.NewExecutor(loader, flagEvaluator)

	_, err := exec.Execute(context.Background(), "strict_choice", "", map[string]any{}, domain.NewExecutionContext())
	var noMatch *runtime.ChoiceNoMatchError
	if !errors.As(err, &noMatch) {
		t.Fatalf("expected ChoiceNoMatchError, got %v", err)
	}
	if noMatch.NodeID != "strict_choice" {
		t.Errorf("error should name the node, got %q", noMatch.NodeID)
	}
}

func TestChoiceEvaluatorErrorCountsAsFalse(t *testing.T) {
	loader := choiceLoader()
	flaky := func(_ context.Context, condition string, evalCtx map[string]any) (bool, error) {
		if condition == "wants_refund" {
			return false, errors.New("expression service down")
		}
		return flagEvaluator(context.Background(), condition, evalCtx)
	}
	exec := runtime.NewExecutor(loader, flaky)

	res, err := exec.Execute(context.Background(), "route_request", "", map[string]any{
		"wants_booking": true,
	}, domain.NewExecutionContext())
	if err != nil {
		t.Fatalf("guard errors must be recovered per option: %v", err)
	}
	if res.PrimaryState != "booking_flow" {
		t.Errorf("erroring guard should be skipped, got %q", res.PrimaryState)
	}
}
