package ports

import "context"

// ConditionEvaluator is the externally supplied capability that decides
// whether a named condition or expression holds against an evaluation
// context. The engine never parses condition syntax; it only invokes this
// per choice option or fork guard.
//
// A returned error is recovered locally by the caller and treated as false
// for that one guard; it never aborts the surrounding operation.
type ConditionEvaluator func(ctx context.Context, condition string, evalCtx map[string]any) (bool, error)
