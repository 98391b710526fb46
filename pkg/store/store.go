// Package store persists mind-map documents by name.
//
// A document is a [snapshot.Document]; the backends differ only in where it
// lives:
//   - [MemoryStore]: in-process map for tests and the HTTP server's demo mode
//   - [FileStore]: one JSON file per map under a directory (CLI)
//   - [MongoStore]: one MongoDB document per map for shared deployments
//
// # Usage
//
//	st, err := store.NewFileStore("")  // ~/.config/mindweave/maps/
//	if err != nil {
//	    return err
//	}
//	if err := st.Put(ctx, "launch", eng.Snapshot()); err != nil {
//	    return err
//	}
//	doc, err := st.Get(ctx, "launch")
package store

import (
	"context"
	"strings"

	"github.com/matzehuels/mindweave/pkg/errors"
	"github.com/matzehuels/mindweave/pkg/snapshot"
)

// Store is the interface for document storage backends.
type Store interface {
	// Get loads the named document. A missing name is NOT_FOUND.
	Get(ctx context.Context, name string) (snapshot.Document, error)

	// Put stores doc under name, replacing any previous version.
	Put(ctx context.Context, name string, doc snapshot.Document) error

	// Delete removes the named document. Deleting a missing name is not
	// an error.
	Delete(ctx context.Context, name string) error

	// List returns the stored names in ascending order.
	List(ctx context.Context) ([]string, error)

	// Close releases backend resources.
	Close() error
}

// ValidateName checks that name can be used by every backend: non-empty,
// at most 128 bytes, no path separators and not starting with a dot.
func ValidateName(name string) error {
	switch {
	case name == "":
		return errors.New(errors.ErrCodeInvalidInput, "map name cannot be empty")
	case len(name) > 128:
		return errors.New(errors.ErrCodeInvalidInput, "map name too long (max 128 bytes)")
	case strings.ContainsAny(name, `/\`) || strings.HasPrefix(name, "."):
		return errors.New(errors.ErrCodeInvalidInput, "invalid map name %q", name)
	}
	return nil
}
