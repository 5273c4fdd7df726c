package domain

import (
	"errors"
	"fmt"
)

// ErrSessionNotFound is returned when a session ID cannot be found in a store.
var ErrSessionNotFound = errors.New("session not found")

// ErrNodeNotFound is returned by configuration loaders for unknown node IDs.
var ErrNodeNotFound = errors.New("node not found")

// ErrBranchExists is returned when a branch ID is already registered on the context.
var ErrBranchExists = errors.New("branch already exists")

// ErrBranchNotFound is returned when a branch ID is unknown to the context.
var ErrBranchNotFound = errors.New("branch not found")

// ErrInvalidBranchTransition is returned for non-monotonic lifecycle moves.
var ErrInvalidBranchTransition = errors.New("invalid branch status transition")

// ErrMalformedSnapshot is returned when FromMap cannot reconstruct state.
var ErrMalformedSnapshot = errors.New("malformed snapshot")

// PolicyError reports an unusable join policy configuration, such as n_of_m
// without an explicit N.
type PolicyError struct {
	Policy JoinCondition
	Reason string
}

func (e *PolicyError) Error() string {
	return fmt.Sprintf("join policy %q: %s", e.Policy, e.Reason)
}
