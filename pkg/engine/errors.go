package engine

import (
	"fmt"

	"github.com/matzehuels/mindweave/pkg/collab"
	"github.com/matzehuels/mindweave/pkg/errors"
)

// ConflictError is returned by the editing methods when the collaboration
// session rejects an edit. errors.Is(err, errors.ErrCodeConflict) matches it.
type ConflictError struct {
	Conflict collab.Conflict
}

func (e *ConflictError) Error() string {
	c := e.Conflict
	return fmt.Sprintf("%s: %s on node %q by %q conflicts with %s by %q",
		errors.ErrCodeConflict, c.Incoming.Kind, c.Incoming.NodeID, c.Incoming.UserID,
		c.Existing.Kind, c.Existing.UserID)
}

// Unwrap exposes the error code to errors.Is and errors.GetCode.
func (e *ConflictError) Unwrap() error {
	return errors.New(errors.ErrCodeConflict, "edit rejected by conflict window")
}

// resultError turns a rejected result into a *ConflictError.
func resultError(res collab.Result) error {
	if res.Accepted() || res.Conflict == nil {
		return nil
	}
	return &ConflictError{Conflict: *res.Conflict}
}
