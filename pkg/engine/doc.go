// Package engine is the single entry point for editing a mind map.
//
// An [Engine] owns the node tree ([mindmap.Store]), the branch index
// ([branch.Index]) and a collaboration session ([collab.Session]). Every
// edit is expressed as a [collab.Operation], checked against the session's
// conflict window, applied to the tree and branches in one step, and then
// followed by an integrity check. Operations arriving from other clients go
// through [Engine.Submit]; a saved log can be rebuilt with [Engine.Replay].
//
// Hierarchical branches are maintained by the engine: every parent/child
// link in the tree has exactly one, and they follow creates, deletes and
// reparents automatically.
//
// # Concurrency
//
// All methods are safe for concurrent use. The session lock serializes
// edits; the engine lock guards reads of the tree. Session event handlers
// run after both locks are released and may call back into the engine.
//
// # Collaborators
//
// Export, theming and suggestions live outside the engine behind the
// [Exporter], [Theme] and [Suggester] interfaces. They receive immutable
// [snapshot.Document] values or node copies and never touch live state.
package engine
