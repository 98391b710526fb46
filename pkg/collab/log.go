package collab

import (
	stderrors "errors"
	"slices"

	"github.com/matzehuels/mindweave/pkg/errors"
)

// ErrNothingToUndo is returned by Undo and Redo when the user has no
// operation that can be reversed.
var ErrNothingToUndo = stderrors.New("nothing to undo")

// Outcome is the fate of a submitted operation.
type Outcome int

const (
	Accepted Outcome = iota
	Rejected
)

func (o Outcome) String() string {
	if o == Rejected {
		return "rejected"
	}
	return "accepted"
}

// Result reports what happened to a submitted operation.
type Result struct {
	Outcome Outcome
	// Op is the operation as recorded (accepted) or as submitted (rejected).
	Op Operation
	// Conflict is set when Outcome is Rejected.
	Conflict *Conflict
}

// Accepted reports whether the operation entered the log.
func (r Result) Accepted() bool { return r.Outcome == Accepted }

// ApplyFunc applies an admitted operation to the document and returns it,
// optionally with an enriched payload (for example the data needed to
// reverse it). An error aborts admission and nothing is logged.
type ApplyFunc func(Operation) (Operation, error)

type admitMode int

const (
	modeFresh admitMode = iota
	modeUndo
	modeRedo
)

// AddOperation runs the conflict check and, if the operation passes, appends
// it to the log as given. Use Admit to apply the operation in the same step.
func (s *Session) AddOperation(op Operation) (Result, error) {
	return s.Admit(op, nil)
}

// Admit checks op against the conflict window, applies it with apply and
// appends the result to the log, all under the session lock. A missing ID or
// timestamp is filled in. A nil apply records op unchanged.
//
// A conflict is reported as a Rejected result with a nil error. Operations
// on a node locked by a different user fail with INVALID_OPERATION.
func (s *Session) Admit(op Operation, apply ApplyFunc) (Result, error) {
	if !op.Kind.Valid() {
		return Result{}, errors.New(errors.ErrCodeInvalidInput, "unknown operation kind %q", op.Kind)
	}
	if op.UserID == "" {
		return Result{}, errors.New(errors.ErrCodeInvalidInput, "operation has no user")
	}
	s.mu.Lock()
	res, events, err := s.admitLocked(op, apply, modeFresh)
	s.mu.Unlock()
	s.events.emit(events...)
	return res, err
}

func (s *Session) admitLocked(op Operation, apply ApplyFunc, mode admitMode) (Result, []Event, error) {
	op = op.Clone()
	if op.ID == "" {
		op.ID = s.newID()
	}
	if op.Timestamp.IsZero() {
		op.Timestamp = s.now()
	}
	if _, dup := s.byID[op.ID]; dup {
		return Result{}, nil, errors.New(errors.ErrCodeInvalidInput, "operation %q already logged", op.ID)
	}
	if holder, ok := s.locks[op.NodeID]; ok && op.NodeID != "" && holder != op.UserID {
		return Result{}, nil, errors.Locked(op.NodeID, holder)
	}

	if existing, ok := s.conflictLocked(op); ok {
		c := &Conflict{
			Incoming:  op,
			Existing:  existing.Clone(),
			Suggested: s.resolver.Resolve(existing, op).Clone(),
		}
		s.logger.Warn("operation rejected",
			"op", op.ID, "kind", op.Kind, "node", op.NodeID,
			"user", op.UserID, "other_user", existing.UserID)
		ev := Event{Kind: EventConflict, UserID: op.UserID, NodeID: op.NodeID, Conflict: c}
		return Result{Outcome: Rejected, Op: op, Conflict: c}, []Event{ev}, nil
	}

	if apply != nil {
		applied, err := apply(op.Clone())
		if err != nil {
			return Result{}, nil, err
		}
		// The applier may enrich the payload but not re-identify the op.
		op.Payload = slices.Clone(applied.Payload)
		op.Applied = true
	}

	s.byID[op.ID] = len(s.log)
	s.log = append(s.log, op)
	switch mode {
	case modeFresh:
		s.undo[op.UserID] = append(s.undo[op.UserID], op.ID)
		delete(s.redo, op.UserID)
	case modeUndo:
		s.redo[op.UserID] = append(s.redo[op.UserID], op.ID)
	case modeRedo:
		s.undo[op.UserID] = append(s.undo[op.UserID], op.ID)
	}

	s.logger.Debug("operation accepted", "op", op.ID, "kind", op.Kind, "node", op.NodeID, "user", op.UserID)
	rec := op.Clone()
	ev := Event{Kind: EventOperation, UserID: op.UserID, NodeID: op.NodeID, Op: &rec}
	return Result{Outcome: Accepted, Op: op.Clone()}, []Event{ev}, nil
}

// conflictLocked scans the newest window.Depth entries for an operation on
// the same node by a different user within window.Duration of op.
func (s *Session) conflictLocked(op Operation) (Operation, bool) {
	if op.NodeID == "" || s.window.Depth <= 0 {
		return Operation{}, false
	}
	stop := max(len(s.log)-s.window.Depth, 0)
	for i := len(s.log) - 1; i >= stop; i-- {
		e := s.log[i]
		if e.NodeID != op.NodeID || e.UserID == op.UserID {
			continue
		}
		gap := op.Timestamp.Sub(e.Timestamp)
		if gap < 0 {
			gap = -gap
		}
		if gap <= s.window.Duration {
			return e, true
		}
	}
	return Operation{}, false
}

// Log returns a copy of the operation log, oldest first.
func (s *Session) Log() []Operation {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Operation, len(s.log))
	for i, op := range s.log {
		out[i] = op.Clone()
	}
	return out
}

// Len returns the number of logged operations.
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.log)
}

// Operation returns the logged operation with the given ID.
func (s *Session) Operation(id string) (Operation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.byID[id]
	if !ok {
		return Operation{}, false
	}
	return s.log[i].Clone(), true
}

// Undo reverses userID's most recent operation by admitting its inverse,
// carrying the original payload, through apply. The undo cursor moves past
// operations that have no inverse, which report ErrNothingToUndo, and past
// operations whose inverse fails to apply, which report the apply error. If
// the inverse is rejected by the conflict window, or the node is locked by
// another user, the cursor stays put.
func (s *Session) Undo(userID string, apply ApplyFunc) (Result, error) {
	return s.reverse(userID, apply, modeUndo)
}

// Redo reverses userID's most recent undo. Any fresh operation by the user
// clears their redo history.
func (s *Session) Redo(userID string, apply ApplyFunc) (Result, error) {
	return s.reverse(userID, apply, modeRedo)
}

func (s *Session) reverse(userID string, apply ApplyFunc, mode admitMode) (Result, error) {
	s.mu.Lock()
	stacks := s.undo
	if mode == modeRedo {
		stacks = s.redo
	}
	stack := stacks[userID]
	if len(stack) == 0 {
		s.mu.Unlock()
		return Result{}, ErrNothingToUndo
	}
	targetID := stack[len(stack)-1]
	stacks[userID] = stack[:len(stack)-1]

	target := s.log[s.byID[targetID]]
	inv, ok := target.Kind.Inverse()
	if !ok {
		s.mu.Unlock()
		s.logger.Debug("no inverse", "op", targetID, "kind", target.Kind)
		return Result{}, ErrNothingToUndo
	}
	if holder, locked := s.locks[target.NodeID]; locked && target.NodeID != "" && holder != userID {
		stacks[userID] = append(stacks[userID], targetID)
		s.mu.Unlock()
		return Result{}, errors.Locked(target.NodeID, holder)
	}
	comp := Operation{
		Kind:        inv,
		UserID:      userID,
		NodeID:      target.NodeID,
		Payload:     target.Payload,
		Compensates: target.ID,
	}
	res, events, err := s.admitLocked(comp, apply, mode)
	switch {
	case err != nil:
		s.logger.Debug("inverse failed", "op", targetID, "kind", inv, "err", err)
	case !res.Accepted():
		stacks[userID] = append(stacks[userID], targetID)
	}
	s.mu.Unlock()
	s.events.emit(events...)
	return res, err
}
