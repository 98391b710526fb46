package mindmap

import (
	"iter"
	"slices"
	"strings"

	"github.com/matzehuels/mindweave/pkg/errors"
)

func (s *Store) mustNode(id string) (*Node, error) {
	n, ok := s.nodes[id]
	if !ok {
		return nil, errors.NotFound("node", id)
	}
	return n, nil
}

// UpdateText replaces a node's text and returns the previous value.
func (s *Store) UpdateText(id, text string) (string, error) {
	n, err := s.mustNode(id)
	if err != nil {
		return "", err
	}
	if err := errors.ValidateText(text); err != nil {
		return "", err
	}
	prev := n.Text
	n.Text = text
	n.UpdatedAt = s.now()
	return prev, nil
}

// UpdateNotes replaces a node's notes and returns the previous value.
func (s *Store) UpdateNotes(id, notes string) (string, error) {
	n, err := s.mustNode(id)
	if err != nil {
		return "", err
	}
	if err := errors.ValidateNotes(notes); err != nil {
		return "", err
	}
	prev := n.Notes
	n.Notes = notes
	n.UpdatedAt = s.now()
	return prev, nil
}

// SetStyle replaces a node's style and returns the previous one.
func (s *Store) SetStyle(id string, style Style) (Style, error) {
	n, err := s.mustNode(id)
	if err != nil {
		return Style{}, err
	}
	prev := n.Style
	n.Style = style
	n.UpdatedAt = s.now()
	return prev, nil
}

// AddTag adds a tag to a node. Adding a tag the node already carries is a
// no-op that reports false.
func (s *Store) AddTag(id, tag string) (bool, error) {
	n, err := s.mustNode(id)
	if err != nil {
		return false, err
	}
	if err := errors.ValidateTag(tag); err != nil {
		return false, err
	}
	if !n.insertTag(tag) {
		return false, nil
	}
	n.UpdatedAt = s.now()
	return true, nil
}

// RemoveTag removes a tag from a node, reporting whether it was present.
func (s *Store) RemoveTag(id, tag string) (bool, error) {
	n, err := s.mustNode(id)
	if err != nil {
		return false, err
	}
	if !n.deleteTag(tag) {
		return false, nil
	}
	n.UpdatedAt = s.now()
	return true, nil
}

// AddTask appends a task to a node. An empty task ID is generated.
func (s *Store) AddTask(id string, t Task) (Task, error) {
	n, err := s.mustNode(id)
	if err != nil {
		return Task{}, err
	}
	if err := errors.ValidateText(t.Text); err != nil {
		return Task{}, err
	}
	if !t.Priority.Valid() {
		return Task{}, errors.New(errors.ErrCodeInvalidInput, "unknown task priority %q", t.Priority)
	}
	if t.ID == "" {
		t.ID = s.newID()
	}
	if _, dup := n.Task(t.ID); dup {
		return Task{}, errors.New(errors.ErrCodeInvalidInput, "task %q already exists on node %q", t.ID, id)
	}
	n.Tasks = append(n.Tasks, t)
	n.UpdatedAt = s.now()
	return t, nil
}

// RemoveTask deletes a task from a node and returns it.
func (s *Store) RemoveTask(id, taskID string) (Task, error) {
	n, err := s.mustNode(id)
	if err != nil {
		return Task{}, err
	}
	i := slices.IndexFunc(n.Tasks, func(t Task) bool { return t.ID == taskID })
	if i < 0 {
		return Task{}, errors.NotFound("task", taskID)
	}
	t := n.Tasks[i]
	n.Tasks = slices.Delete(n.Tasks, i, i+1)
	if len(n.Tasks) == 0 {
		n.Tasks = nil
	}
	n.UpdatedAt = s.now()
	return t, nil
}

// SetTaskDone marks a task complete or incomplete.
func (s *Store) SetTaskDone(id, taskID string, done bool) error {
	n, err := s.mustNode(id)
	if err != nil {
		return err
	}
	i := slices.IndexFunc(n.Tasks, func(t Task) bool { return t.ID == taskID })
	if i < 0 {
		return errors.NotFound("task", taskID)
	}
	n.Tasks[i].Done = done
	n.UpdatedAt = s.now()
	return nil
}

// AddComment appends a comment to a node. Empty ID and CreatedAt are filled in.
func (s *Store) AddComment(id string, c Comment) (Comment, error) {
	n, err := s.mustNode(id)
	if err != nil {
		return Comment{}, err
	}
	if err := errors.ValidateText(c.Text); err != nil {
		return Comment{}, err
	}
	if c.ID == "" {
		c.ID = s.newID()
	}
	if slices.ContainsFunc(n.Comments, func(x Comment) bool { return x.ID == c.ID }) {
		return Comment{}, errors.New(errors.ErrCodeInvalidInput, "comment %q already exists on node %q", c.ID, id)
	}
	now := s.now()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	n.Comments = append(n.Comments, c)
	n.UpdatedAt = now
	return c, nil
}

// RemoveComment deletes a comment from a node and returns it.
func (s *Store) RemoveComment(id, commentID string) (Comment, error) {
	n, err := s.mustNode(id)
	if err != nil {
		return Comment{}, err
	}
	i := slices.IndexFunc(n.Comments, func(c Comment) bool { return c.ID == commentID })
	if i < 0 {
		return Comment{}, errors.NotFound("comment", commentID)
	}
	c := n.Comments[i]
	n.Comments = slices.Delete(n.Comments, i, i+1)
	if len(n.Comments) == 0 {
		n.Comments = nil
	}
	n.UpdatedAt = s.now()
	return c, nil
}

// Search yields nodes whose text or notes contain query, ignoring case, in
// pre-order. The sequence is lazy and can be ranged over more than once; each
// pass sees the store as it is at that moment. The query is matched as
// given, surrounding spaces included. An empty query matches nothing.
func (s *Store) Search(query string) iter.Seq[*Node] {
	q := strings.ToLower(query)
	return func(yield func(*Node) bool) {
		if q == "" {
			return
		}
		s.Walk(func(n *Node, _ int) bool {
			if strings.Contains(strings.ToLower(n.Text), q) || strings.Contains(strings.ToLower(n.Notes), q) {
				return yield(n)
			}
			return true
		})
	}
}

// ByTag yields nodes carrying tag, in pre-order.
func (s *Store) ByTag(tag string) iter.Seq[*Node] {
	return func(yield func(*Node) bool) {
		s.Walk(func(n *Node, _ int) bool {
			if n.HasTag(tag) {
				return yield(n)
			}
			return true
		})
	}
}

// Validate checks the tree invariants: exactly one root, every parent link
// matched by exactly one entry in the parent's child list, no dangling child
// IDs, and every node reachable from the root.
func (s *Store) Validate() error {
	root, ok := s.nodes[s.root]
	if !ok {
		return errors.New(errors.ErrCodeIntegrityViolation, "root node %q missing", s.root)
	}
	if root.Parent != "" {
		return errors.New(errors.ErrCodeIntegrityViolation, "root node %q has parent %q", s.root, root.Parent)
	}
	for id, n := range s.nodes {
		if id != n.ID {
			return errors.New(errors.ErrCodeIntegrityViolation, "node keyed %q carries id %q", id, n.ID)
		}
		if id != s.root {
			if n.Parent == "" {
				return errors.New(errors.ErrCodeIntegrityViolation, "node %q has no parent", id)
			}
			p, ok := s.nodes[n.Parent]
			if !ok {
				return errors.New(errors.ErrCodeIntegrityViolation, "node %q references missing parent %q", id, n.Parent)
			}
			if count(p.Children, id) != 1 {
				return errors.New(errors.ErrCodeIntegrityViolation, "node %q not listed exactly once under parent %q", id, n.Parent)
			}
		}
		for _, cid := range n.Children {
			c, ok := s.nodes[cid]
			if !ok {
				return errors.New(errors.ErrCodeIntegrityViolation, "node %q lists missing child %q", id, cid)
			}
			if c.Parent != id {
				return errors.New(errors.ErrCodeIntegrityViolation, "child %q of %q points at parent %q", cid, id, c.Parent)
			}
		}
	}
	seen := make(map[string]bool, len(s.nodes))
	s.Walk(func(n *Node, _ int) bool {
		if seen[n.ID] {
			return false
		}
		seen[n.ID] = true
		return true
	})
	if len(seen) != len(s.nodes) {
		return errors.New(errors.ErrCodeIntegrityViolation, "%d of %d nodes unreachable from root", len(s.nodes)-len(seen), len(s.nodes))
	}
	return nil
}

// Clone returns a deep copy of the store sharing its ID generator and clock.
func (s *Store) Clone() *Store {
	c := &Store{
		nodes: make(map[string]*Node, len(s.nodes)),
		root:  s.root,
		newID: s.newID,
		now:   s.now,
	}
	for id, n := range s.nodes {
		c.nodes[id] = n.Clone()
	}
	return c
}

// Export returns deep copies of all nodes in pre-order.
func (s *Store) Export() []Node {
	out := make([]Node, 0, len(s.nodes))
	s.Walk(func(n *Node, _ int) bool {
		out = append(out, *n.Clone())
		return true
	})
	return out
}

func count(ids []string, id string) int {
	c := 0
	for _, x := range ids {
		if x == id {
			c++
		}
	}
	return c
}
