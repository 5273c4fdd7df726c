// Package domain contains the value objects shared by every Arbor component:
// node and branch enumerations, the Branch and Event records, the
// ExecutionContext aggregate, and the typed NodeConfig view over externally
// loaded graph configuration.
//
// Nothing in this package performs I/O or holds references to the engine.
// Ownership is strictly top-down: an ExecutionContext owns its branches and
// its event log; a Branch never points back at its context.
package domain
