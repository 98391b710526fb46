// Package cache stores computed layouts and exports keyed by content hash.
//
// Layouts are pure functions of a tree outline and a configuration, so a
// hash of both is a safe key: the same outline laid out twice hits the
// cache no matter which map or process produced it.
//
// Three backends implement [Cache]:
//   - [NullCache]: never stores anything (tests, --no-cache)
//   - [FileCache]: one file per entry under a directory (CLI)
//   - [RedisCache]: shared cache for several server instances
package cache

import (
	"context"
	"time"
)

// Cache is a byte store with optional expiry.
type Cache interface {
	// Get returns the value for key. A miss is (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl <= 0 means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Keyer derives cache keys.
type Keyer interface {
	// LayoutKey keys positions computed for an outline.
	LayoutKey(outlineHash string, opts LayoutKeyOpts) string

	// ExportKey keys a rendered export of a document.
	ExportKey(docHash string, opts ExportKeyOpts) string
}

// LayoutKeyOpts are the inputs besides the outline that change a layout.
type LayoutKeyOpts struct {
	Algorithm string `json:"algorithm"`
	Config    any    `json:"config"`
}

// ExportKeyOpts are the inputs besides the document that change an export.
type ExportKeyOpts struct {
	Format string `json:"format"`
	Engine string `json:"engine,omitempty"`
}

// DefaultKeyer produces "layout:<sha256>" and "export:<sha256>" keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

func (DefaultKeyer) LayoutKey(outlineHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", outlineHash, opts)
}

func (DefaultKeyer) ExportKey(docHash string, opts ExportKeyOpts) string {
	return hashKey("export", docHash, opts)
}
