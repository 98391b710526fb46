// Package snapshot defines the persisted form of a mind map.
//
// A [Document] holds every node and branch keyed by ID, the root ID and
// free-form metadata. Saving and loading a document is lossless: a map
// rebuilt from a decoded document is deeply equal to the one that produced
// it. The same struct carries bson tags so document stores can persist it
// as-is.
package snapshot

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
	"time"

	"github.com/matzehuels/mindweave/pkg/branch"
	"github.com/matzehuels/mindweave/pkg/errors"
	"github.com/matzehuels/mindweave/pkg/mindmap"
)

// Version is the document format written by this package.
const Version = 1

// Document is a complete, self-contained mind map.
type Document struct {
	Version  int                      `json:"version" bson:"version"`
	RootID   string                   `json:"root_id" bson:"root_id"`
	Nodes    map[string]mindmap.Node  `json:"nodes" bson:"nodes"`
	Branches map[string]branch.Branch `json:"branches,omitempty" bson:"branches,omitempty"`
	Metadata map[string]string        `json:"metadata,omitempty" bson:"metadata,omitempty"`
	Tags     []string                 `json:"tags,omitempty" bson:"tags,omitempty"`
	SavedAt  time.Time                `json:"saved_at" bson:"saved_at"`
}

// Title returns the "title" metadata entry, falling back to the root text.
func (d Document) Title() string {
	if t := d.Metadata["title"]; t != "" {
		return t
	}
	return d.Nodes[d.RootID].Text
}

// NodeList returns the nodes in pre-order from the root.
func (d Document) NodeList() []mindmap.Node {
	out := make([]mindmap.Node, 0, len(d.Nodes))
	stack := []string{d.RootID}
	seen := make(map[string]bool, len(d.Nodes))
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n, ok := d.Nodes[id]
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, n)
		for i := len(n.Children) - 1; i >= 0; i-- {
			stack = append(stack, n.Children[i])
		}
	}
	return out
}

// BranchList returns branches sorted by ID.
func (d Document) BranchList() []branch.Branch {
	ids := make([]string, 0, len(d.Branches))
	for id := range d.Branches {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	out := make([]branch.Branch, len(ids))
	for i, id := range ids {
		out[i] = d.Branches[id]
	}
	return out
}

// Validate checks the structural rules a loadable document must satisfy:
// a known format version, a root present in Nodes, map keys matching IDs,
// and branch endpoints that exist.
func (d Document) Validate() error {
	if d.Version != Version {
		return errors.New(errors.ErrCodeUnsupported, "document version %d, want %d", d.Version, Version)
	}
	if _, ok := d.Nodes[d.RootID]; !ok {
		return errors.New(errors.ErrCodeIntegrityViolation, "root %q not among the nodes", d.RootID)
	}
	for id, n := range d.Nodes {
		if id != n.ID {
			return errors.New(errors.ErrCodeIntegrityViolation, "node keyed %q has id %q", id, n.ID)
		}
	}
	for id, b := range d.Branches {
		if id != b.ID {
			return errors.New(errors.ErrCodeIntegrityViolation, "branch keyed %q has id %q", id, b.ID)
		}
		if _, ok := d.Nodes[b.Source]; !ok {
			return errors.New(errors.ErrCodeIntegrityViolation, "branch %q has missing source %q", id, b.Source)
		}
		if _, ok := d.Nodes[b.Target]; !ok {
			return errors.New(errors.ErrCodeIntegrityViolation, "branch %q has missing target %q", id, b.Target)
		}
	}
	return nil
}

// Hash returns a SHA-256 digest of the document content. SavedAt is excluded
// so two saves of the same map hash alike.
func (d Document) Hash() string {
	d.SavedAt = time.Time{}
	// encoding/json sorts map keys, so the encoding is canonical.
	data, _ := json.Marshal(d)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// =============================================================================
// Serialization
// =============================================================================

// Marshal encodes a document as indented JSON.
func Marshal(d Document) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(d, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write encodes a document as indented JSON to w.
func Write(d Document, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(d); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// WriteFile writes a document to path, replacing any existing file.
func WriteFile(d Document, path string) error {
	data, err := Marshal(d)
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// Unmarshal decodes and validates a JSON document.
func Unmarshal(data []byte) (Document, error) {
	return Read(bytes.NewReader(data))
}

// Read decodes and validates a JSON document from r.
func Read(r io.Reader) (Document, error) {
	var d Document
	if err := json.NewDecoder(r).Decode(&d); err != nil {
		return Document{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode document")
	}
	if err := d.Validate(); err != nil {
		return Document{}, err
	}
	return d, nil
}

// ReadFile reads and validates the document at path.
func ReadFile(path string) (Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return Document{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return Read(f)
}
