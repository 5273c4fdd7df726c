/*
Package ports defines the driven ports (interfaces) for the Arbor engine.

These interfaces decouple the core from external implementations, allowing the
engine to work with various configuration sources, persistence backends, and
condition evaluators.

# Key Interfaces

  - ConfigLoader: resolves typed node configuration by ID (YAML, memory, ...).
  - ContextStore: persists and reloads per-conversation snapshots between turns.
  - ConditionEvaluator: the externally supplied guard-evaluation capability.
  - Locker: coordinates session access across replicas.
*/
package ports
