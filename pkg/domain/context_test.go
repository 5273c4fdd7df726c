package domain

import (
	"testing"
	"time"
)

func TestExecutionContextBranchOwnership(t *testing.T) {
	ec := NewExecutionContext()

	if err := ec.AddBranch(NewBranch("a", "s1")); err != nil {
		t.Fatalf("AddBranch failed: %v", err)
	}
	if err := ec.AddBranch(NewBranch("a", "s2")); err != ErrBranchExists {
		t.Errorf("expected ErrBranchExists for duplicate id, got %v", err)
	}

	if err := ec.ActivateBranch("a"); err != nil {
		t.Fatalf("ActivateBranch failed: %v", err)
	}
	if err := ec.CompleteBranch("a", map[string]any{"ok": true}); err != nil {
		t.Fatalf("CompleteBranch failed: %v", err)
	}

	// Completed branches leave the active collection.
	if ids := ec.ActiveBranchIDs(); len(ids) != 0 {
		t.Errorf("expected no active branches, got %v", ids)
	}
	done := ec.CompletedBranches()
	if len(done) != 1 || done[0].ID != "a" {
		t.Fatalf("expected completed branch 'a', got %v", done)
	}
	if done[0].Status != BranchCompleted {
		t.Errorf("expected status completed, got %s", done[0].Status)
	}

	// A terminal branch cannot terminate again.
	if err := ec.CompleteBranch("a", nil); err != ErrInvalidBranchTransition {
		t.Errorf("expected ErrInvalidBranchTransition, got %v", err)
	}
	if err := ec.CompleteBranch("ghost", nil); err != ErrBranchNotFound {
		t.Errorf("expected ErrBranchNotFound, got %v", err)
	}
}

func TestExecutionContextSkipAndFail(t *testing.T) {
	ec := NewExecutionContext()
	for _, id := range []string{"x", "y"} {
		if err := ec.AddBranch(NewBranch(id, "s")); err != nil {
			t.Fatal(err)
		}
	}

	// Skip works straight from pending.
	if err := ec.SkipBranch("x"); err != nil {
		t.Fatalf("SkipBranch failed: %v", err)
	}

	if err := ec.ActivateBranch("y"); err != nil {
		t.Fatal(err)
	}
	if err := ec.FailBranch("y", "boom"); err != nil {
		t.Fatalf("FailBranch failed: %v", err)
	}

	b, _ := ec.Branch("y")
	if b.Status != BranchFailed || b.Result != "boom" {
		t.Errorf("expected failed branch with result, got %s %v", b.Status, b.Result)
	}
}

func TestExecutionContextActiveOrderIsDeterministic(t *testing.T) {
	ec := NewExecutionContext()
	ids := []string{"third", "first", "second"}
	for _, id := range ids {
		if err := ec.AddBranch(NewBranch(id, "s")); err != nil {
			t.Fatal(err)
		}
		if err := ec.ActivateBranch(id); err != nil {
			t.Fatal(err)
		}
	}

	got := ec.ActiveBranchIDs()
	for i, want := range ids {
		if got[i] != want {
			t.Fatalf("expected creation order %v, got %v", ids, got)
		}
	}
}

func TestExecutionContextForkStack(t *testing.T) {
	ec := NewExecutionContext()

	if _, ok := ec.CurrentFork(); ok {
		t.Error("empty context should have no open fork")
	}

	ec.PushFork(ForkFrame{ForkID: "outer", BranchIDs: []string{"a"}})
	ec.PushFork(ForkFrame{ForkID: "inner", BranchIDs: []string{"b"}})

	if ec.ForkDepth() != 2 {
		t.Fatalf("expected depth 2, got %d", ec.ForkDepth())
	}
	top, ok := ec.CurrentFork()
	if !ok || top.ForkID != "inner" {
		t.Fatalf("expected innermost fork 'inner', got %v", top)
	}

	popped, _ := ec.PopFork()
	if popped.ForkID != "inner" {
		t.Errorf("expected to pop 'inner', got %s", popped.ForkID)
	}
	top, _ = ec.CurrentFork()
	if top.ForkID != "outer" {
		t.Errorf("expected 'outer' after pop, got %s", top.ForkID)
	}
}

func TestExecutionContextRoundTrip(t *testing.T) {
	ec := NewExecutionContext()

	a := NewBranch("a", "ask_budget")
	a.Priority = 3
	a.SetData("budget", "500")
	if err := ec.AddBranch(a); err != nil {
		t.Fatal(err)
	}
	if err := ec.ActivateBranch("a"); err != nil {
		t.Fatal(err)
	}

	b := NewBranch("b", "ask_dates")
	if err := ec.AddBranch(b); err != nil {
		t.Fatal(err)
	}
	if err := ec.ActivateBranch("b"); err != nil {
		t.Fatal(err)
	}
	if err := ec.CompleteBranch("b", "done"); err != nil {
		t.Fatal(err)
	}

	ec.PushFork(ForkFrame{ForkID: "fork_1", JoinNodeID: "join_1", BranchIDs: []string{"a", "b"}})
	ec.SetShallowHistory("main", "ask_budget")
	ec.PushDeepHistory("main", "s1")
	ec.PushDeepHistory("main", "s2")
	ec.AppendEvent(NewEvent(EventForkStarted, "fork_1", map[string]any{"branches": "a,b"}))

	restored, err := ExecutionContextFromMap(ec.ToMap())
	if err != nil {
		t.Fatalf("round-trip failed: %v", err)
	}

	ra, ok := restored.Branch("a")
	if !ok {
		t.Fatal("branch 'a' lost in round-trip")
	}
	if ra.Status != BranchActive || ra.Priority != 3 || ra.Data["budget"] != "500" {
		t.Errorf("branch 'a' fields lost: %+v", ra)
	}
	if ra.CreatedAt.IsZero() {
		t.Error("branch 'a' lost its creation timestamp")
	}
	if !ra.CreatedAt.Equal(a.CreatedAt.Truncate(time.Nanosecond)) {
		t.Errorf("creation timestamp drifted: %v vs %v", ra.CreatedAt, a.CreatedAt)
	}

	rb, ok := restored.Branch("b")
	if !ok || rb.Status != BranchCompleted || rb.Result != "done" {
		t.Errorf("branch 'b' fields lost: %+v", rb)
	}

	frame, ok := restored.CurrentFork()
	if !ok || frame.ForkID != "fork_1" || frame.JoinNodeID != "join_1" || len(frame.BranchIDs) != 2 {
		t.Errorf("fork frame lost: %+v", frame)
	}

	if s, ok := restored.ShallowHistory("main"); !ok || s != "ask_budget" {
		t.Errorf("shallow history lost: %q", s)
	}
	if deep := restored.DeepHistory("main"); len(deep) != 2 || deep[1] != "s2" {
		t.Errorf("deep history lost: %v", deep)
	}

	events := restored.Events()
	if len(events) != 1 || events[0].Type != EventForkStarted {
		t.Fatalf("event log lost: %v", events)
	}
	if events[0].Timestamp.IsZero() {
		t.Error("event timestamp lost")
	}

	if got := restored.ActiveBranchIDs(); len(got) != 1 || got[0] != "a" {
		t.Errorf("creation order lost: %v", got)
	}
}

func TestExecutionContextFromMapMalformed(t *testing.T) {
	_, err := ExecutionContextFromMap(map[string]any{
		"active_branches": map[string]any{"a": "not-a-map"},
	})
	if err != ErrMalformedSnapshot {
		t.Errorf("expected ErrMalformedSnapshot, got %v", err)
	}
}

func TestEventLogIsAppendOnly(t *testing.T) {
	ec := NewExecutionContext()
	ec.AppendEvent(NewEvent(EventChoiceTaken, "n1", nil))

	// Mutating the returned slice must not affect the log.
	events := ec.Events()
	events[0].NodeID = "tampered"

	if ec.Events()[0].NodeID != "n1" {
		t.Error("Events() should return a copy")
	}
	if ec.EventCount() != 1 {
		t.Errorf("expected 1 event, got %d", ec.EventCount())
	}
}
