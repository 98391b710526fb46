// Package errors provides structured error types for the mindweave engine.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the library, CLI and HTTP API
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages
//   - Error wrapping with context preservation
//
// # Error Codes
//
// The taxonomy mirrors the failure classes of a mind-map edit:
//   - NOT_FOUND: a node, branch, user or operation does not exist
//   - CYCLE: a reparent would make a node its own ancestor
//   - INVALID_OPERATION: deleting or reparenting the root, foreign locks
//   - INTEGRITY_VIOLATION: explicit validation found dangling branches
//   - CONFLICT: a collaborative edit was rejected by the conflict window
//
// # Usage
//
//	err := errors.New(errors.ErrCodeNotFound, "node %s", id)
//	if errors.Is(err, errors.ErrCodeNotFound) {
//	    // Handle missing node
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeInternal, origErr, "decode payload for %s", opID)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidConfig Code = "INVALID_CONFIG"

	// Resource not found errors
	ErrCodeNotFound Code = "NOT_FOUND"

	// Graph invariant errors
	ErrCodeCycle              Code = "CYCLE"
	ErrCodeInvalidOperation   Code = "INVALID_OPERATION"
	ErrCodeIntegrityViolation Code = "INTEGRITY_VIOLATION"

	// Collaboration errors
	ErrCodeConflict Code = "CONFLICT"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// NotFound is shorthand for New(ErrCodeNotFound, "<kind> <id> not found").
func NotFound(kind, id string) *Error {
	return New(ErrCodeNotFound, "%s %q not found", kind, id)
}

// Cycle reports a reparent of id beneath its own descendant.
func Cycle(id, descendant string) *Error {
	return New(ErrCodeCycle, "cannot move %q under its own descendant %q", id, descendant)
}

// Locked reports an edit on a node another user holds the lock for.
func Locked(nodeID, holder string) *Error {
	return New(ErrCodeInvalidOperation, "node %q is locked by %q", nodeID, holder)
}
