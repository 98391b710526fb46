// Package collab coordinates several users editing one mind map.
//
// A [Session] tracks who is connected ([Session.Join], [Session.RemoveUser],
// [Session.UpdatePresence]), hands out advisory per-node locks
// ([Session.LockNode]) and keeps the append-only operation log.
//
// # Admission
//
// Every edit arrives as an [Operation]. Before it is applied the session
// scans the tail of the log (the conflict [Window]): if a different user
// touched the same node within the window, the operation is rejected. A
// rejection is an outcome, not an error - [Session.Admit] returns a [Result]
// with [Rejected] and the [Conflict] that caused it, carrying the configured
// [ConflictResolver]'s advisory pick. Rejected operations never reach the log.
//
// Accepted operations are applied through a caller-supplied function while the
// session lock is held, so the conflict check, the state change and the log
// append happen as one step.
//
// # Undo
//
// Undo never rewrites history. [Session.Undo] synthesizes the inverse of the
// user's latest operation (create and delete undo each other) and admits it
// like any other edit. Kinds without an inverse report [ErrNothingToUndo].
//
// # Events
//
// Handlers registered with [Session.On] run synchronously, in registration
// order, after the state change that triggered them and outside the session
// lock, so a handler may call back into the session.
package collab
