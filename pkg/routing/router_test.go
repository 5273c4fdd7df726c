package routing_test

import (
	"context"
	"errors"
	"testing"

	"github.com/arborflow/arbor/pkg/domain"
	"github.com/arborflow/arbor/pkg/routing"
)

func contextWith(t *testing.T, branches ...*domain.Branch) *domain.ExecutionContext {
	t.Helper()
	ec := domain.NewExecutionContext()
	for _, b := range branches {
		if err := ec.AddBranch(b); err != nil {
			t.Fatal(err)
		}
		if err := ec.ActivateBranch(b.ID); err != nil {
			t.Fatal(err)
		}
	}
	return ec
}

func TestRouteAllWaiting(t *testing.T) {
	r := routing.NewRouter(routing.StrategyFirstActive)
	d := r.Route(domain.NewExecutionContext(), "anything", nil)

	if !d.AllWaiting {
		t.Error("no active branches should yield AllWaiting")
	}
	if d.BranchID != "" || d.Reason != routing.ReasonAllWaiting {
		t.Errorf("unexpected decision: %+v", d)
	}
}

func TestRouteExplicitHandlerWins(t *testing.T) {
	a := domain.NewBranch("budget", "ask_budget")
	b := domain.NewBranch("dates", "ask_dates")
	b.Priority = 10 // would win under the priority strategy
	ec := contextWith(t, a, b)

	r := routing.NewRouter(routing.StrategyPriority)
	d := r.Route(ec, "set_budget", map[string][]string{
		"budget": {"set_budget", "change_budget"},
	})

	if d.BranchID != "budget" || d.Reason != routing.ReasonExplicitHandler {
		t.Errorf("explicit claim should beat strategy, got %+v", d)
	}
}

func TestRouteAmbiguousClaimFallsBack(t *testing.T) {
	a := domain.NewBranch("a", "s1")
	b := domain.NewBranch("b", "s2")
	ec := contextWith(t, a, b)

	r := routing.NewRouter(routing.StrategyFirstActive)
	// Both branches claim the intent: the claim is void.
	d := r.Route(ec, "shared", map[string][]string{
		"a": {"shared"},
		"b": {"shared"},
	})

	if d.Reason != routing.ReasonFirstActive || d.BranchID != "a" {
		t.Errorf("ambiguous claims should fall to the strategy, got %+v", d)
	}
}

func TestRouteRoundRobinCycles(t *testing.T) {
	ec := contextWith(t,
		domain.NewBranch("a", "s1"),
		domain.NewBranch("b", "s2"),
		domain.NewBranch("c", "s3"),
	)
	r := routing.NewRouter(routing.StrategyRoundRobin)

	var got []string
	for i := 0; i < 6; i++ {
		got = append(got, r.Route(ec, "turn", nil).BranchID)
	}
	want := []string{"a", "b", "c", "a", "b", "c"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected cycle %v, got %v", want, got)
		}
	}
}

func TestRoutePriority(t *testing.T) {
	low := domain.NewBranch("low", "s1")
	high := domain.NewBranch("high", "s2")
	high.Priority = 5
	tied := domain.NewBranch("tied", "s3")
	tied.Priority = 5
	ec := contextWith(t, low, high, tied)

	r := routing.NewRouter(routing.StrategyPriority)
	d := r.Route(ec, "turn", nil)

	// Stable sort: among equal priorities, creation order decides.
	if d.BranchID != "high" || d.Reason != routing.ReasonPriority {
		t.Errorf("expected the earliest highest-priority branch, got %+v", d)
	}
}

func TestRouteFirstActive(t *testing.T) {
	ec := contextWith(t,
		domain.NewBranch("first", "s1"),
		domain.NewBranch("second", "s2"),
	)
	r := routing.NewRouter(routing.StrategyFirstActive)

	d := r.Route(ec, "turn", nil)
	if d.BranchID != "first" {
		t.Errorf("expected 'first', got %+v", d)
	}

	// Completing the first branch shifts the pick.
	if err := ec.CompleteBranch("first", nil); err != nil {
		t.Fatal(err)
	}
	d = r.Route(ec, "turn", nil)
	if d.BranchID != "second" {
		t.Errorf("expected 'second' after completion, got %+v", d)
	}
}

func TestNewRouterUnknownStrategy(t *testing.T) {
	r := routing.NewRouter(routing.Strategy("coin_flip"))
	if r.Strategy() != routing.StrategyFirstActive {
		t.Errorf("unknown strategies fall back to first_active, got %s", r.Strategy())
	}
}

func TestBroadcastIsolatesFailures(t *testing.T) {
	ec := contextWith(t,
		domain.NewBranch("ok", "s1"),
		domain.NewBranch("broken", "s2"),
	)
	r := routing.NewRouter(routing.StrategyFirstActive)

	results := r.Broadcast(context.Background(), ec, "ping", func(_ context.Context, b *domain.Branch, intent string) (any, error) {
		if b.ID == "broken" {
			return nil, errors.New("handler down")
		}
		return intent + " handled", nil
	})

	if results["ok"] != "ping handled" {
		t.Errorf("expected the healthy branch's result, got %v", results["ok"])
	}
	errEntry, ok := results["broken"].(map[string]any)
	if !ok || errEntry["error"] != "handler down" {
		t.Errorf("expected an isolated error entry, got %v", results["broken"])
	}
}
