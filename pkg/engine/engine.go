package engine

import (
	"io"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/matzehuels/mindweave/pkg/branch"
	"github.com/matzehuels/mindweave/pkg/cache"
	"github.com/matzehuels/mindweave/pkg/collab"
	"github.com/matzehuels/mindweave/pkg/errors"
	"github.com/matzehuels/mindweave/pkg/mindmap"
	"github.com/matzehuels/mindweave/pkg/snapshot"
)

// Engine is a mind map under collaborative editing.
type Engine struct {
	mu       sync.RWMutex
	store    *mindmap.Store
	index    *branch.Index
	metadata map[string]string
	tags     []string
	version  uint64 // bumped by every applied operation

	session *collab.Session
	logger  *log.Logger
	newID   func() string
	now     func() time.Time

	cache    cache.Cache
	keyer    cache.Keyer
	cacheTTL time.Duration
	layouts  singleflight.Group
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger (default discards output).
func WithLogger(l *log.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithSession uses an existing collaboration session. By default the engine
// creates one with the default conflict window.
func WithSession(s *collab.Session) Option {
	return func(e *Engine) {
		if s != nil {
			e.session = s
		}
	}
}

// WithIDGenerator overrides the generator for node, branch, task and
// comment IDs.
func WithIDGenerator(fn func() string) Option {
	return func(e *Engine) {
		if fn != nil {
			e.newID = fn
		}
	}
}

// WithClock overrides the timestamp source.
func WithClock(fn func() time.Time) Option {
	return func(e *Engine) {
		if fn != nil {
			e.now = fn
		}
	}
}

// WithLayoutCache stores computed layouts in c under keys from keyer
// (nil means cache.NewDefaultKeyer) for ttl.
func WithLayoutCache(c cache.Cache, keyer cache.Keyer, ttl time.Duration) Option {
	return func(e *Engine) {
		if c != nil {
			e.cache = c
		}
		if keyer != nil {
			e.keyer = keyer
		}
		e.cacheTTL = ttl
	}
}

func newEngine(opts []Option) *Engine {
	e := &Engine{
		logger: log.New(io.Discard),
		newID:  uuid.NewString,
		now:    func() time.Time { return time.Now().UTC().Round(0) },
		cache:  cache.NewNullCache(),
		keyer:  cache.NewDefaultKeyer(),
		index:  branch.NewIndex(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.session == nil {
		e.session = collab.NewSession(collab.WithLogger(e.logger), collab.WithClock(e.now))
	}
	return e
}

// New creates an engine holding a fresh map whose root has the given text.
func New(rootText string, opts ...Option) (*Engine, error) {
	e := newEngine(opts)
	store, err := mindmap.New(rootText, mindmap.WithIDGenerator(e.newID), mindmap.WithClock(e.now))
	if err != nil {
		return nil, err
	}
	e.store = store
	return e, nil
}

// FromSnapshot rebuilds an engine from a saved document. The document is
// validated first; hierarchical branches missing from it are recreated.
func FromSnapshot(doc snapshot.Document, opts ...Option) (*Engine, error) {
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	e := newEngine(opts)

	ids := slices.Sorted(maps.Keys(doc.Nodes))
	nodes := make([]mindmap.Node, len(ids))
	for i, id := range ids {
		nodes[i] = doc.Nodes[id]
	}
	store, err := mindmap.Load(nodes, doc.RootID, mindmap.WithIDGenerator(e.newID), mindmap.WithClock(e.now))
	if err != nil {
		return nil, err
	}
	e.store = store

	for _, b := range doc.BranchList() {
		if err := e.index.Add(b); err != nil {
			return nil, err
		}
	}
	e.syncHierarchy()
	e.metadata = maps.Clone(doc.Metadata)
	e.tags = slices.Clone(doc.Tags)
	if err := e.integrityLocked(); err != nil {
		return nil, err
	}
	return e, nil
}

// Snapshot returns an immutable copy of the whole map.
func (e *Engine) Snapshot() snapshot.Document {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.snapshotLocked()
}

func (e *Engine) snapshotLocked() snapshot.Document {
	doc := snapshot.Document{
		Version:  snapshot.Version,
		RootID:   e.store.Root(),
		Nodes:    make(map[string]mindmap.Node, e.store.Len()),
		Metadata: maps.Clone(e.metadata),
		Tags:     slices.Clone(e.tags),
		SavedAt:  e.now(),
	}
	for _, n := range e.store.Export() {
		doc.Nodes[n.ID] = n
	}
	if e.index.Len() > 0 {
		doc.Branches = make(map[string]branch.Branch, e.index.Len())
		for _, b := range e.index.All() {
			doc.Branches[b.ID] = b
		}
	}
	if len(doc.Metadata) == 0 {
		doc.Metadata = nil
	}
	return doc
}

// Session returns the collaboration session for presence, locks and events.
func (e *Engine) Session() *collab.Session { return e.session }

// Logger returns the engine's logger.
func (e *Engine) Logger() *log.Logger { return e.logger }

// Version counts the operations applied so far. It changes whenever the map
// does.
func (e *Engine) Version() uint64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.version
}

// =============================================================================
// Queries
// =============================================================================

// Root returns the root node ID.
func (e *Engine) Root() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.store.Root()
}

// Len returns the number of nodes.
func (e *Engine) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.store.Len()
}

// Node returns a copy of the node with the given ID.
func (e *Engine) Node(id string) (mindmap.Node, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	n, ok := e.store.Node(id)
	if !ok {
		return mindmap.Node{}, false
	}
	return *n.Clone(), true
}

// Children returns a copy of a node's ordered child IDs.
func (e *Engine) Children(id string) []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return slices.Clone(e.store.Children(id))
}

// Depth returns the number of edges from the root to id, or -1.
func (e *Engine) Depth(id string) int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.store.Depth(id)
}

// Search returns copies of the nodes whose text or notes contain query,
// ignoring case, in pre-order.
func (e *Engine) Search(query string) []mindmap.Node {
	e.mu.RLock()
	defer e.mu.RUnlock()
	var out []mindmap.Node
	for n := range e.store.Search(query) {
		out = append(out, *n.Clone())
	}
	return out
}

// Branch returns the branch with the given ID.
func (e *Engine) Branch(id string) (branch.Branch, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.index.Get(id)
}

// Branches returns every branch in insertion order.
func (e *Engine) Branches() []branch.Branch {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.index.All()
}

// BranchesFor returns the branches touching a node.
func (e *Engine) BranchesFor(id string) []branch.Branch {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.index.AllForNode(id)
}

// FindPath returns a shortest directed path of node IDs from start to end
// using at most maxDepth branches (maxDepth <= 0 means unbounded), or nil.
func (e *Engine) FindPath(start, end string, maxDepth int) ([]string, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	for _, id := range []string{start, end} {
		if !e.store.Has(id) {
			return nil, errors.NotFound("node", id)
		}
	}
	return e.index.FindPath(start, end, maxDepth), nil
}

// ConnectedComponent returns the nodes reachable from id over branches in
// either direction.
func (e *Engine) ConnectedComponent(id string) ([]string, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if !e.store.Has(id) {
		return nil, errors.NotFound("node", id)
	}
	return e.index.ConnectedComponent(id), nil
}

// Metadata returns a copy of the document metadata.
func (e *Engine) Metadata() map[string]string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return maps.Clone(e.metadata)
}

// SetMetadata sets a metadata entry; an empty value deletes it.
func (e *Engine) SetMetadata(key, value string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if value == "" {
		delete(e.metadata, key)
		return
	}
	if e.metadata == nil {
		e.metadata = make(map[string]string)
	}
	e.metadata[key] = value
}

// SetTags replaces the document-level tags.
func (e *Engine) SetTags(tags []string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(tags) == 0 {
		e.tags = nil
		return
	}
	e.tags = slices.Compact(slices.Sorted(slices.Values(tags)))
}

// Log returns a copy of the operation log.
func (e *Engine) Log() []collab.Operation {
	return e.session.Log()
}

// Validate checks the tree invariants and reports dangling branches.
func (e *Engine) Validate() error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if err := e.store.Validate(); err != nil {
		return err
	}
	return e.integrityLocked()
}

// integrityLocked reports branches whose endpoints no longer exist.
func (e *Engine) integrityLocked() error {
	bad := e.index.ValidateIntegrity(e.store.Has)
	if len(bad) == 0 {
		return nil
	}
	return errors.New(errors.ErrCodeIntegrityViolation, "%d dangling branches: %v", len(bad), bad)
}
