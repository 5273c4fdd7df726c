package runtime_test

import (
	"testing"

	"github.com/arborflow/arbor/internal/runtime"
	"github.com/arborflow/arbor/pkg/adapters/memory"
	"github.com/arborflow/arbor/pkg/domain"
)

func findingsFor(t *testing.T, cfg *domain.NodeConfig) []runtime.Finding {
	t.Helper()
	loader := memory.NewLoader()
	loader.AddNode(cfg)
	exec := runtime.NewExecutor(loader, nil)
	findings, err := exec.ValidateGraph()
	if err != nil {
		t.Fatalf("ValidateGraph failed: %v", err)
	}
	return findings
}

func hasSeverity(findings []runtime.Finding, sev runtime.Severity) bool {
	for _, f := range findings {
		if f.Severity == sev {
			return true
		}
	}
	return false
}

func TestValidateGraph(t *testing.T) {
	t.Run("Choice Without Default Warns", func(t *testing.T) {
		findings := findingsFor(t, &domain.NodeConfig{
			ID:      "c1",
			Type:    domain.NodeTypeChoice,
			Choices: []domain.ChoiceOption{{Condition: "x", To: "y"}},
		})
		if !hasSeverity(findings, runtime.SeverityWarning) {
			t.Errorf("expected a warning, got %v", findings)
		}
		if hasSeverity(findings, runtime.SeverityError) {
			t.Errorf("a missing default is not an error, got %v", findings)
		}
	})

	t.Run("Fork Duplicate Branch", func(t *testing.T) {
		findings := findingsFor(t, &domain.NodeConfig{
			ID:   "f1",
			Type: domain.NodeTypeFork,
			Branches: []domain.BranchDecl{
				{ID: "a", StartState: "s1"},
				{ID: "a", StartState: "s2"},
			},
			JoinTarget: "j1",
		})
		if !hasSeverity(findings, runtime.SeverityError) {
			t.Errorf("expected an error for duplicate ids, got %v", findings)
		}
	})

	t.Run("NofM Without N", func(t *testing.T) {
		findings := findingsFor(t, &domain.NodeConfig{
			ID:               "j1",
			Type:             domain.NodeTypeJoin,
			JoinPolicy:       domain.JoinNofM,
			ExpectedBranches: []string{"a", "b"},
		})
		if !hasSeverity(findings, runtime.SeverityError) {
			t.Errorf("expected an error, got %v", findings)
		}
	})

	t.Run("Majority Of Two Warns", func(t *testing.T) {
		findings := findingsFor(t, &domain.NodeConfig{
			ID:               "j2",
			Type:             domain.NodeTypeJoin,
			JoinPolicy:       domain.JoinMajority,
			ExpectedBranches: []string{"a", "b"},
		})
		if !hasSeverity(findings, runtime.SeverityWarning) {
			t.Errorf("expected the degeneracy warning, got %v", findings)
		}
	})

	t.Run("Timeout Policy On Join", func(t *testing.T) {
		findings := findingsFor(t, &domain.NodeConfig{
			ID:               "j3",
			Type:             domain.NodeTypeJoin,
			JoinPolicy:       domain.JoinTimeout,
			ExpectedBranches: []string{"a"},
		})
		if !hasSeverity(findings, runtime.SeverityError) {
			t.Errorf("timeout belongs to sync points, expected an error, got %v", findings)
		}
	})

	t.Run("Parallel Without Regions", func(t *testing.T) {
		findings := findingsFor(t, &domain.NodeConfig{
			ID:   "p1",
			Type: domain.NodeTypeParallel,
		})
		if !hasSeverity(findings, runtime.SeverityError) {
			t.Errorf("expected an error, got %v", findings)
		}
	})

	t.Run("Clean Graph", func(t *testing.T) {
		findings := findingsFor(t, &domain.NodeConfig{
			ID:      "c2",
			Type:    domain.NodeTypeChoice,
			Choices: []domain.ChoiceOption{{Condition: "x", To: "y"}},
			Default: "z",
		})
		if len(findings) != 0 {
			t.Errorf("expected no findings, got %v", findings)
		}
	})
}
