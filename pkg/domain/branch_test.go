package domain

import "testing"

func TestBranchStatusTransitions(t *testing.T) {
	cases := []struct {
		from, to BranchStatus
		legal    bool
	}{
		{BranchPending, BranchActive, true},
		{BranchPending, BranchSkipped, true},
		{BranchPending, BranchCompleted, false},
		{BranchPending, BranchFailed, false},
		{BranchActive, BranchCompleted, true},
		{BranchActive, BranchFailed, true},
		{BranchActive, BranchSkipped, true},
		{BranchActive, BranchPending, false},
		{BranchCompleted, BranchActive, false},
		{BranchSkipped, BranchActive, false},
		{BranchFailed, BranchCompleted, false},
	}

	for _, tc := range cases {
		if got := tc.from.CanTransition(tc.to); got != tc.legal {
			t.Errorf("%s -> %s: expected legal=%v, got %v", tc.from, tc.to, tc.legal, got)
		}
	}
}

func TestBranchSetStatus(t *testing.T) {
	b := NewBranch("b1", "s1")
	if b.Status != BranchPending {
		t.Fatalf("new branch should be pending, got %s", b.Status)
	}
	if !b.CompletedAt.IsZero() {
		t.Error("new branch should not have a completion time")
	}

	if err := b.SetStatus(BranchActive); err != nil {
		t.Fatalf("pending -> active failed: %v", err)
	}
	if err := b.SetStatus(BranchCompleted); err != nil {
		t.Fatalf("active -> completed failed: %v", err)
	}
	if b.CompletedAt.IsZero() {
		t.Error("terminal branch should have a completion time")
	}

	// Terminal statuses are final.
	if err := b.SetStatus(BranchActive); err != ErrInvalidBranchTransition {
		t.Errorf("expected ErrInvalidBranchTransition reactivating a completed branch, got %v", err)
	}
}

func TestBranchSetData(t *testing.T) {
	b := NewBranch("b1", "s1")
	b.Data = nil // simulate a deserialized branch without a map
	b.SetData("budget", 500)

	if b.Data["budget"] != 500 {
		t.Errorf("expected data to hold 500, got %v", b.Data["budget"])
	}
}

func TestJoinConditionSatisfied(t *testing.T) {
	cases := []struct {
		name               string
		policy             JoinCondition
		terminal, expected int
		n                  int
		want               bool
		wantErr            bool
	}{
		{"all incomplete", JoinAllComplete, 2, 3, 0, false, false},
		{"all complete", JoinAllComplete, 3, 3, 0, true, false},
		{"any none", JoinAnyComplete, 0, 3, 0, false, false},
		{"any one", JoinAnyComplete, 1, 3, 0, true, false},
		{"majority 1 of 3", JoinMajority, 1, 3, 0, false, false},
		{"majority 2 of 3", JoinMajority, 2, 3, 0, true, false},
		{"majority 2 of 4 is not strict", JoinMajority, 2, 4, 0, false, false},
		{"majority 3 of 4", JoinMajority, 3, 4, 0, true, false},
		{"majority 1 of 2 degenerates", JoinMajority, 1, 2, 0, false, false},
		{"majority 2 of 2", JoinMajority, 2, 2, 0, true, false},
		{"n_of_m below n", JoinNofM, 1, 3, 2, false, false},
		{"n_of_m at n", JoinNofM, 2, 3, 2, true, false},
		{"n_of_m without n is an error", JoinNofM, 3, 3, 0, false, true},
		{"timeout never satisfied by arrivals", JoinTimeout, 3, 3, 0, false, false},
		{"unknown policy", JoinCondition("quorum"), 3, 3, 0, false, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := tc.policy.Satisfied(tc.terminal, tc.expected, tc.n)
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected an error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Errorf("expected %v, got %v", tc.want, got)
			}
		})
	}
}
