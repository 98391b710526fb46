package mindmap

import (
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/mindweave/pkg/errors"
)

// Store owns the nodes of one mind map and the parent/child links between
// them. Every mutation either fully applies or returns an error without
// touching state, so the single-rooted-tree invariant holds after each call.
//
// The zero value is not usable - use New or Load.
// Store is not safe for concurrent use without external synchronization;
// the engine facade serializes access.
type Store struct {
	nodes map[string]*Node
	root  string
	newID func() string
	now   func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithIDGenerator overrides the node ID generator (default: random UUIDs).
func WithIDGenerator(fn func() string) Option {
	return func(s *Store) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// WithClock overrides the timestamp source (default: time.Now in UTC).
func WithClock(fn func() time.Time) Option {
	return func(s *Store) {
		if fn != nil {
			s.now = fn
		}
	}
}

func newStore(opts []Option) *Store {
	s := &Store{
		nodes: make(map[string]*Node),
		newID: uuid.NewString,
		now:   func() time.Time { return time.Now().UTC().Round(0) },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// New creates a store holding a single root node with the given text.
func New(rootText string, opts ...Option) (*Store, error) {
	if err := errors.ValidateText(rootText); err != nil {
		return nil, err
	}
	s := newStore(opts)
	now := s.now()
	root := &Node{ID: s.newID(), Text: rootText, CreatedAt: now, UpdatedAt: now}
	s.nodes[root.ID] = root
	s.root = root.ID
	return s, nil
}

// Load rebuilds a store from previously exported nodes. The nodes are copied,
// and the result is validated as a single rooted tree before it is returned.
func Load(nodes []Node, rootID string, opts ...Option) (*Store, error) {
	s := newStore(opts)
	for i := range nodes {
		n := nodes[i].Clone()
		if n.ID == "" {
			return nil, errors.New(errors.ErrCodeInvalidInput, "node at index %d has no id", i)
		}
		if _, dup := s.nodes[n.ID]; dup {
			return nil, errors.New(errors.ErrCodeInvalidInput, "duplicate node id %q", n.ID)
		}
		n.Tags = normalizeTags(n.Tags)
		s.nodes[n.ID] = n
	}
	s.root = rootID
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Root returns the ID of the designated root node.
func (s *Store) Root() string { return s.root }

// RootNode returns the root node.
func (s *Store) RootNode() *Node { return s.nodes[s.root] }

// Len returns the number of nodes, including the root.
func (s *Store) Len() int { return len(s.nodes) }

// Node returns the node with the given ID. The pointer refers to live state;
// callers outside the engine should treat it as read-only.
func (s *Store) Node(id string) (*Node, bool) {
	n, ok := s.nodes[id]
	return n, ok
}

// Has reports whether a node with the given ID exists.
func (s *Store) Has(id string) bool {
	_, ok := s.nodes[id]
	return ok
}

// Children returns the ordered child IDs of a node, or nil if it doesn't exist.
// The returned slice should not be modified.
func (s *Store) Children(id string) []string {
	if n, ok := s.nodes[id]; ok {
		return n.Children
	}
	return nil
}

// Parent returns the parent ID of a node (empty for the root or unknown IDs).
func (s *Store) Parent(id string) string {
	if n, ok := s.nodes[id]; ok {
		return n.Parent
	}
	return ""
}

// NodeIDs returns every node ID in pre-order from the root.
func (s *Store) NodeIDs() []string {
	ids := make([]string, 0, len(s.nodes))
	s.Walk(func(n *Node, _ int) bool {
		ids = append(ids, n.ID)
		return true
	})
	return ids
}

// Nodes returns every node in pre-order from the root.
func (s *Store) Nodes() []*Node {
	nodes := make([]*Node, 0, len(s.nodes))
	s.Walk(func(n *Node, _ int) bool {
		nodes = append(nodes, n)
		return true
	})
	return nodes
}

// Walk visits nodes in pre-order (parent before children, children in list
// order) with their depth below the root. Returning false from fn stops the
// walk. The traversal uses an explicit stack, so deep maps cannot overflow
// the goroutine stack.
func (s *Store) Walk(fn func(n *Node, depth int) bool) {
	s.walkFrom(s.root, 0, fn)
}

func (s *Store) walkFrom(start string, depth int, fn func(n *Node, depth int) bool) {
	type frame struct {
		id    string
		depth int
	}
	stack := []frame{{start, depth}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n, ok := s.nodes[f.id]
		if !ok {
			continue
		}
		if !fn(n, f.depth) {
			return
		}
		for i := len(n.Children) - 1; i >= 0; i-- {
			stack = append(stack, frame{n.Children[i], f.depth + 1})
		}
	}
}

// Subtree returns the IDs of id and all its descendants in pre-order.
func (s *Store) Subtree(id string) []string {
	var ids []string
	s.walkFrom(id, 0, func(n *Node, _ int) bool {
		ids = append(ids, n.ID)
		return true
	})
	return ids
}

// Ancestors returns the chain of ancestors of id, nearest first.
func (s *Store) Ancestors(id string) []string {
	var chain []string
	n, ok := s.nodes[id]
	for ok && n.Parent != "" && len(chain) <= len(s.nodes) {
		chain = append(chain, n.Parent)
		n, ok = s.nodes[n.Parent]
	}
	return chain
}

// Depth returns the number of edges between id and the root, or -1 if the
// node does not exist.
func (s *Store) Depth(id string) int {
	if !s.Has(id) {
		return -1
	}
	return len(s.Ancestors(id))
}

// IsAncestor reports whether anc appears on the parent chain of id, with a
// node counted as its own ancestor.
func (s *Store) IsAncestor(anc, id string) bool {
	if anc == id {
		return true
	}
	return slices.Contains(s.Ancestors(id), anc)
}

// CreateNode adds a node under parent and returns its generated ID.
// An empty parent attaches the node to the root. A non-nil pos places the
// node by hand and marks it floating.
func (s *Store) CreateNode(text, parent string, pos *Position) (string, error) {
	n := Node{ID: s.newID(), Text: text}
	if pos != nil {
		n.Position = *pos
		n.Floating = true
	}
	if parent == "" {
		parent = s.root
	}
	n.Parent = parent
	if err := s.AddNode(n, -1); err != nil {
		return "", err
	}
	return n.ID, nil
}

// AddNode inserts a fully specified node (with a caller-chosen ID) as the
// child of n.Parent at the given index; a negative or out-of-range index
// appends. Any Children listed on n are ignored: the node enters as a leaf.
// This is the primitive used when replaying operations whose IDs were
// assigned elsewhere.
func (s *Store) AddNode(n Node, index int) error {
	if err := errors.ValidateID(n.ID); err != nil {
		return err
	}
	if err := errors.ValidateText(n.Text); err != nil {
		return err
	}
	if err := errors.ValidateNotes(n.Notes); err != nil {
		return err
	}
	if _, dup := s.nodes[n.ID]; dup {
		return errors.New(errors.ErrCodeInvalidInput, "node %q already exists", n.ID)
	}
	if n.Parent == "" {
		return errors.New(errors.ErrCodeInvalidOperation, "node %q needs a parent: the map already has a root", n.ID)
	}
	parent, ok := s.nodes[n.Parent]
	if !ok {
		return errors.NotFound("parent node", n.Parent)
	}

	node := n.Clone()
	node.Children = nil
	node.Tags = normalizeTags(node.Tags)
	now := s.now()
	if node.CreatedAt.IsZero() {
		node.CreatedAt = now
	}
	node.UpdatedAt = now

	s.nodes[node.ID] = node
	parent.Children = insertAt(parent.Children, index, node.ID)
	parent.UpdatedAt = now
	return nil
}

// Removal records what DeleteNode took out of the tree, enough to put it
// back with Restore.
type Removal struct {
	// Nodes holds deep copies of the removed nodes in pre-order; the deleted
	// node comes first.
	Nodes []Node `json:"nodes"`
	// Parent is the former parent of the deleted node.
	Parent string `json:"parent"`
	// Index is the deleted node's former position among its siblings.
	Index int `json:"index"`
	// Cascade reports whether the whole subtree was removed.
	Cascade bool `json:"cascade"`
	// Reparented lists children handed to Parent by a non-cascading delete.
	Reparented []string `json:"reparented,omitempty"`
}

// RemovedIDs returns the IDs of every node the removal took out of the tree.
func (r Removal) RemovedIDs() []string {
	ids := make([]string, len(r.Nodes))
	for i, n := range r.Nodes {
		ids[i] = n.ID
	}
	return ids
}

// DeleteNode removes a node. With cascade the whole subtree goes; without it
// the node's children are spliced into the parent's child list at the
// deleted node's position. The root can never be deleted.
func (s *Store) DeleteNode(id string, cascade bool) (Removal, error) {
	n, ok := s.nodes[id]
	if !ok {
		return Removal{}, errors.NotFound("node", id)
	}
	if id == s.root {
		return Removal{}, errors.New(errors.ErrCodeInvalidOperation, "the root node cannot be deleted")
	}

	parent := s.nodes[n.Parent]
	index := slices.Index(parent.Children, id)
	removal := Removal{Parent: n.Parent, Index: index, Cascade: cascade}
	now := s.now()

	if cascade {
		for _, sid := range s.Subtree(id) {
			removal.Nodes = append(removal.Nodes, *s.nodes[sid].Clone())
			delete(s.nodes, sid)
		}
		parent.Children = slices.Delete(parent.Children, index, index+1)
	} else {
		removal.Nodes = []Node{*n.Clone()}
		removal.Reparented = slices.Clone(n.Children)
		for _, cid := range n.Children {
			child := s.nodes[cid]
			child.Parent = parent.ID
			child.UpdatedAt = now
		}
		parent.Children = slices.Replace(parent.Children, index, index+1, n.Children...)
		delete(s.nodes, id)
	}
	if len(parent.Children) == 0 {
		parent.Children = nil
	}
	parent.UpdatedAt = now
	return removal, nil
}

// Restore reverses a DeleteNode. It fails without mutating anything if any
// removed ID has been reused, the former parent is gone, or (for a
// non-cascading delete) a reparented child no longer sits under that parent.
func (s *Store) Restore(r Removal) error {
	if len(r.Nodes) == 0 {
		return errors.New(errors.ErrCodeInvalidInput, "empty removal")
	}
	parent, ok := s.nodes[r.Parent]
	if !ok {
		return errors.NotFound("parent node", r.Parent)
	}
	for _, n := range r.Nodes {
		if s.Has(n.ID) {
			return errors.New(errors.ErrCodeInvalidOperation, "cannot restore %q: id already in use", n.ID)
		}
	}
	for _, cid := range r.Reparented {
		if s.Parent(cid) != r.Parent {
			return errors.New(errors.ErrCodeInvalidOperation, "cannot restore: node %q has moved since it was reparented", cid)
		}
	}

	now := s.now()
	head := r.Nodes[0].Clone()
	head.UpdatedAt = now
	if r.Cascade {
		for _, n := range r.Nodes[1:] {
			s.nodes[n.ID] = n.Clone()
		}
	} else {
		head.Children = slices.Clone(r.Reparented)
		for _, cid := range r.Reparented {
			s.nodes[cid].Parent = head.ID
			s.nodes[cid].UpdatedAt = now
		}
		parent.Children = slices.DeleteFunc(parent.Children, func(c string) bool {
			return slices.Contains(r.Reparented, c)
		})
	}
	head.Parent = r.Parent
	s.nodes[head.ID] = head
	parent.Children = insertAt(parent.Children, r.Index, head.ID)
	parent.UpdatedAt = now
	return nil
}

// MoveNode places a node by hand. It marks the node floating and never
// changes topology.
func (s *Store) MoveNode(id string, pos Position) error {
	n, ok := s.nodes[id]
	if !ok {
		return errors.NotFound("node", id)
	}
	n.Position = pos
	n.Floating = true
	n.UpdatedAt = s.now()
	return nil
}

// PlaceNode records a layout-assigned position and clears the floating flag.
func (s *Store) PlaceNode(id string, pos Position) error {
	n, ok := s.nodes[id]
	if !ok {
		return errors.NotFound("node", id)
	}
	n.Position = pos
	n.Floating = false
	return nil
}

// CheckReparent reports whether ReparentNode(id, newParent) would succeed,
// without changing anything.
func (s *Store) CheckReparent(id, newParent string) error {
	if _, ok := s.nodes[id]; !ok {
		return errors.NotFound("node", id)
	}
	if _, ok := s.nodes[newParent]; !ok {
		return errors.NotFound("node", newParent)
	}
	if id == s.root {
		return errors.New(errors.ErrCodeInvalidOperation, "the root node cannot be reparented")
	}
	// Walk the new parent's ancestor chain (including itself) looking for id.
	for cur := newParent; cur != ""; cur = s.nodes[cur].Parent {
		if cur == id {
			return errors.Cycle(id, newParent)
		}
	}
	return nil
}

// ReparentNode moves id (with its subtree) to the end of newParent's child
// list and returns the previous parent. The cycle check runs before any
// state changes, so a rejected call leaves the tree untouched.
func (s *Store) ReparentNode(id, newParent string) (string, error) {
	if err := s.CheckReparent(id, newParent); err != nil {
		return "", err
	}
	n := s.nodes[id]
	oldParent := n.Parent
	now := s.now()

	old := s.nodes[oldParent]
	old.Children = slices.DeleteFunc(old.Children, func(c string) bool { return c == id })
	if len(old.Children) == 0 {
		old.Children = nil
	}
	old.UpdatedAt = now

	np := s.nodes[newParent]
	np.Children = append(np.Children, id)
	np.UpdatedAt = now

	n.Parent = newParent
	n.UpdatedAt = now
	return oldParent, nil
}

// ReorderChild moves id to the given index among its siblings.
func (s *Store) ReorderChild(id string, index int) error {
	n, ok := s.nodes[id]
	if !ok {
		return errors.NotFound("node", id)
	}
	if n.IsRoot() {
		return errors.New(errors.ErrCodeInvalidOperation, "the root node has no siblings")
	}
	parent := s.nodes[n.Parent]
	siblings := slices.DeleteFunc(slices.Clone(parent.Children), func(c string) bool { return c == id })
	parent.Children = insertAt(siblings, index, id)
	parent.UpdatedAt = s.now()
	return nil
}

// insertAt inserts v at index i, appending when i is out of range.
func insertAt(s []string, i int, v string) []string {
	if i < 0 || i > len(s) {
		return append(s, v)
	}
	return slices.Insert(s, i, v)
}
