package runtime

import (
	"fmt"

	"github.com/arborflow/arbor/pkg/domain"
)

// Severity grades a validation finding.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Finding is one configuration-time diagnosis for a node.
type Finding struct {
	NodeID   string
	Severity Severity
	Message  string
}

func (f Finding) String() string {
	return fmt.Sprintf("[%s] %s: %s", f.Severity, f.NodeID, f.Message)
}

// ValidateGraph checks every node the loader knows for configuration faults
// the executor would only hit at run time. It flags degeneracies (a strict
// majority over two branches requires both) instead of silently
// special-casing them during execution.
func (e *Executor) ValidateGraph() ([]Finding, error) {
	ids, err := e.loader.ListNodes()
	if err != nil {
		return nil, fmt.Errorf("list nodes: %w", err)
	}

	var findings []Finding
	for _, id := range ids {
		cfg, err := e.loader.GetNode(id)
		if err != nil {
			return nil, fmt.Errorf("load node %s: %w", id, err)
		}
		findings = append(findings, validateNode(cfg)...)
	}
	return findings, nil
}

func validateNode(cfg *domain.NodeConfig) []Finding {
	var out []Finding
	warn := func(msg string) {
		out = append(out, Finding{NodeID: cfg.ID, Severity: SeverityWarning, Message: msg})
	}
	fault := func(msg string) {
		out = append(out, Finding{NodeID: cfg.ID, Severity: SeverityError, Message: msg})
	}

	switch cfg.Type {
	case domain.NodeTypeChoice:
		if len(cfg.Choices) == 0 {
			fault("choice declares no options")
		}
		if cfg.Default == "" {
			warn("choice has no default transition; an unmatched turn is a fatal configuration error")
		}
		for i, opt := range cfg.Choices {
			if opt.To == "" {
				fault(fmt.Sprintf("choice option %d has no target", i))
			}
		}

	case domain.NodeTypeFork:
		if len(cfg.Branches) == 0 {
			fault("fork declares no branches")
		}
		seen := make(map[string]struct{}, len(cfg.Branches))
		for i, b := range cfg.Branches {
			if b.StartState == "" {
				fault(fmt.Sprintf("branch %d has no start state", i))
			}
			if b.ID != "" {
				if _, dup := seen[b.ID]; dup {
					fault("duplicate branch id " + b.ID)
				}
				seen[b.ID] = struct{}{}
			}
		}
		if cfg.JoinTarget == "" {
			warn("fork has no join target; an all-skipped fork yields an empty primary state")
		}

	case domain.NodeTypeJoin:
		if cfg.JoinPolicy == domain.JoinNofM && cfg.N <= 0 {
			fault("n_of_m policy requires an explicit n > 0")
		}
		if cfg.JoinPolicy == domain.JoinMajority && len(cfg.ExpectedBranches) == 2 {
			warn("strict majority over 2 branches degenerates to all_complete")
		}
		if cfg.JoinPolicy == domain.JoinTimeout {
			fault("timeout policy is only valid on sync points")
		}
		if len(cfg.ExpectedBranches) == 0 {
			warn("join has no expected branches; it will use the innermost open fork at run time")
		}

	case domain.NodeTypeParallel:
		if len(cfg.Regions) == 0 {
			fault("parallel declares no regions")
		}
		for i, r := range cfg.Regions {
			if r.InitialState == "" {
				fault(fmt.Sprintf("region %d has no initial state", i))
			}
		}

	case domain.NodeTypeSimple:
		// Nothing to check.

	default:
		warn(fmt.Sprintf("unknown node type %q is treated as a simple pass-through", cfg.Type))
	}

	return out
}
