package branch

import (
	"slices"

	"github.com/matzehuels/mindweave/pkg/errors"
)

// Index stores branches in insertion order. Views are linear scans, which is
// fine for interactive map sizes of a few thousand nodes.
//
// Index does not know which nodes exist; endpoint checks are the caller's job
// (see ValidateIntegrity). It is not safe for concurrent use.
type Index struct {
	byID  map[string]int
	order []Branch
}

// NewIndex returns an empty index.
func NewIndex() *Index {
	return &Index{byID: make(map[string]int)}
}

// Len returns the number of branches.
func (x *Index) Len() int { return len(x.order) }

// Add inserts a branch. A zero weight is replaced by DefaultWeight and a
// zero style by the kind's default.
func (x *Index) Add(b Branch) error {
	if b.Weight == 0 {
		b.Weight = DefaultWeight
	}
	if b.Style == (Style{}) {
		b.Style = b.Kind.DefaultStyle()
	}
	if err := b.Validate(); err != nil {
		return err
	}
	if _, dup := x.byID[b.ID]; dup {
		return errors.New(errors.ErrCodeInvalidInput, "branch %q already exists", b.ID)
	}
	x.byID[b.ID] = len(x.order)
	x.order = append(x.order, b)
	return nil
}

// Remove deletes a branch, reporting whether it existed.
func (x *Index) Remove(id string) bool {
	i, ok := x.byID[id]
	if !ok {
		return false
	}
	delete(x.byID, id)
	x.order = slices.Delete(x.order, i, i+1)
	x.reindex(i)
	return true
}

// Get returns the branch with the given ID.
func (x *Index) Get(id string) (Branch, bool) {
	i, ok := x.byID[id]
	if !ok {
		return Branch{}, false
	}
	return x.order[i], true
}

// All returns every branch in insertion order.
func (x *Index) All() []Branch {
	return slices.Clone(x.order)
}

// FromNode returns branches whose source is id.
func (x *Index) FromNode(id string) []Branch {
	return x.filter(func(b Branch) bool { return b.Source == id })
}

// ToNode returns branches whose target is id.
func (x *Index) ToNode(id string) []Branch {
	return x.filter(func(b Branch) bool { return b.Target == id })
}

// AllForNode returns branches touching id at either end.
func (x *Index) AllForNode(id string) []Branch {
	return x.filter(func(b Branch) bool { return b.Touches(id) })
}

// Hierarchical returns the hierarchical branch from parent to child.
func (x *Index) Hierarchical(parent, child string) (Branch, bool) {
	for _, b := range x.order {
		if b.Kind == KindHierarchical && b.Source == parent && b.Target == child {
			return b, true
		}
	}
	return Branch{}, false
}

// RemoveForNode deletes every branch touching id and returns the removed
// branches in their former order.
func (x *Index) RemoveForNode(id string) []Branch {
	var removed []Branch
	kept := x.order[:0]
	for _, b := range x.order {
		if b.Touches(id) {
			removed = append(removed, b)
			continue
		}
		kept = append(kept, b)
	}
	if removed == nil {
		return nil
	}
	clear(x.order[len(kept):])
	x.order = kept
	x.reindex(0)
	return removed
}

// FindPath runs a breadth-first search from start to end along outgoing
// branches and returns the node IDs of the first path found, which is a
// shortest one by edge count. A path may use at most maxDepth branches;
// maxDepth <= 0 means unbounded. It returns nil when end is unreachable.
func (x *Index) FindPath(start, end string, maxDepth int) []string {
	if start == end {
		return []string{start}
	}
	adj := make(map[string][]string)
	for _, b := range x.order {
		adj[b.Source] = append(adj[b.Source], b.Target)
	}

	prev := map[string]string{start: ""}
	frontier := []string{start}
	for depth := 1; len(frontier) > 0 && (maxDepth <= 0 || depth <= maxDepth); depth++ {
		var next []string
		for _, cur := range frontier {
			for _, nb := range adj[cur] {
				if _, seen := prev[nb]; seen {
					continue
				}
				prev[nb] = cur
				if nb == end {
					return walkBack(prev, start, end)
				}
				next = append(next, nb)
			}
		}
		frontier = next
	}
	return nil
}

func walkBack(prev map[string]string, start, end string) []string {
	path := []string{end}
	for cur := end; cur != start; {
		cur = prev[cur]
		path = append(path, cur)
	}
	slices.Reverse(path)
	return path
}

// ConnectedComponent returns the IDs reachable from id when every branch is
// treated as undirected, id included, in discovery order.
func (x *Index) ConnectedComponent(id string) []string {
	adj := make(map[string][]string)
	for _, b := range x.order {
		adj[b.Source] = append(adj[b.Source], b.Target)
		adj[b.Target] = append(adj[b.Target], b.Source)
	}
	seen := map[string]bool{id: true}
	out := []string{id}
	for i := 0; i < len(out); i++ {
		for _, nb := range adj[out[i]] {
			if !seen[nb] {
				seen[nb] = true
				out = append(out, nb)
			}
		}
	}
	return out
}

// ValidateIntegrity returns the IDs of branches with an endpoint for which
// valid reports false, in insertion order.
func (x *Index) ValidateIntegrity(valid func(id string) bool) []string {
	var bad []string
	for _, b := range x.order {
		if !valid(b.Source) || !valid(b.Target) {
			bad = append(bad, b.ID)
		}
	}
	return bad
}

// Clone returns an independent copy of the index.
func (x *Index) Clone() *Index {
	c := &Index{byID: make(map[string]int, len(x.byID)), order: slices.Clone(x.order)}
	for id, i := range x.byID {
		c.byID[id] = i
	}
	return c
}

func (x *Index) filter(keep func(Branch) bool) []Branch {
	var out []Branch
	for _, b := range x.order {
		if keep(b) {
			out = append(out, b)
		}
	}
	return out
}

func (x *Index) reindex(from int) {
	if from == 0 {
		clear(x.byID)
	}
	for i := from; i < len(x.order); i++ {
		x.byID[x.order[i].ID] = i
	}
}
