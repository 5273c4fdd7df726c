/*
Package session serializes access to per-conversation state.

The engine types (ExecutionContext, history manager) are deliberately not
internally synchronized: the design is single-writer per conversation. This
manager is what lets a concurrent host keep that guarantee — it holds one
reference-counted mutex per live session (garbage collected at zero refs)
and, optionally, a distributed lock for multi-replica deployments, while
loading and persisting snapshots through a ports.ContextStore.
*/
package session
