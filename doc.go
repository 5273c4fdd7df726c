/*
Package arbor is the DAG execution engine underlying a turn-based dialogue
state machine. It generalizes a linear state machine with conditional
branching (choice), parallel forking, join barriers with multiple completion
policies, ad hoc sync points, and shallow/deep history for recoverable
interruption.

Execution is fully synchronous and single-writer per conversation: one turn
of dialogue is one call into the engine, "waiting" is persisted state rather
than a blocked goroutine, and state survives process restarts through
snapshot stores.

The root package is a facade over the internal executor. Condition
evaluation and node configuration are external capabilities supplied through
the ports package; adapters for YAML configuration and memory/file/Redis
persistence live under pkg/adapters.
*/
package arbor
