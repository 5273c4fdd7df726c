package runtime

import (
	"errors"
	"fmt"

	"github.com/arborflow/arbor/pkg/domain"
)

// ChoiceNoMatchError is the fatal configuration fault of a choice node whose
// guards all evaluated false with no default transition to fall back on.
type ChoiceNoMatchError struct {
	NodeID string
}

func (e *ChoiceNoMatchError) Error() string {
	return fmt.Sprintf("choice node %q: no guard matched and no default transition configured", e.NodeID)
}

// ForkConfigError reports a malformed fork or parallel declaration.
type ForkConfigError struct {
	NodeID string
	Reason string
}

func (e *ForkConfigError) Error() string {
	return fmt.Sprintf("fork node %q: %s", e.NodeID, e.Reason)
}

// JoinConfigError reports a join node that cannot be evaluated as declared.
type JoinConfigError struct {
	NodeID string
	Reason string
}

func (e *JoinConfigError) Error() string {
	return fmt.Sprintf("join node %q: %s", e.NodeID, e.Reason)
}

func isNotFound(err error) bool {
	return errors.Is(err, domain.ErrNodeNotFound)
}
