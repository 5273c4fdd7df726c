// Package runtime implements the DAG executor: a dispatcher that resolves a
// node's configuration, routes it by type to the choice, fork, join or
// parallel handler, and returns one normalized ExecutionResult.
//
// The executor is fully synchronous. "Waiting" (an unmet join) is persisted
// state, never a blocked goroutine; callers re-invoke on the next external
// event. Handler faults are recovered at the dispatch boundary and converted
// into a terminal dag_error result, so an engine failure never escapes as a
// process-level error. Configuration faults are the one exception: they
// surface as named errors instead of being silently defaulted.
package runtime
