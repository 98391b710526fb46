package layout

import "maps"

// Outline is an immutable copy of a hierarchy, suitable for handing to
// layout from another goroutine while the live map keeps changing.
type Outline struct {
	RootID string
	Kids   map[string][]string
}

// NewOutline copies the hierarchy reachable from tree.Root().
func NewOutline(tree Tree) Outline {
	o := Outline{RootID: tree.Root(), Kids: make(map[string][]string)}
	for _, id := range index(tree).order {
		if kids := tree.Children(id); len(kids) > 0 {
			o.Kids[id] = append([]string(nil), kids...)
		}
	}
	return o
}

func (o Outline) Root() string                { return o.RootID }
func (o Outline) Children(id string) []string { return o.Kids[id] }

// Clone returns a deep copy of the outline.
func (o Outline) Clone() Outline {
	c := Outline{RootID: o.RootID, Kids: maps.Clone(o.Kids)}
	for id, kids := range c.Kids {
		c.Kids[id] = append([]string(nil), kids...)
	}
	return c
}

// indexed is the breadth-first view every algorithm works from.
type indexed struct {
	order    []string // BFS order, root first
	depth    map[string]int
	parent   map[string]string
	children map[string][]string
	byLevel  [][]string
}

func index(tree Tree) *indexed {
	t := &indexed{
		depth:    make(map[string]int),
		parent:   make(map[string]string),
		children: make(map[string][]string),
	}
	root := tree.Root()
	if root == "" {
		return t
	}
	t.depth[root] = 0
	t.order = append(t.order, root)
	for i := 0; i < len(t.order); i++ {
		id := t.order[i]
		d := t.depth[id]
		if d == len(t.byLevel) {
			t.byLevel = append(t.byLevel, nil)
		}
		t.byLevel[d] = append(t.byLevel[d], id)
		for _, c := range tree.Children(id) {
			if _, seen := t.depth[c]; seen {
				continue
			}
			t.depth[c] = d + 1
			t.parent[c] = id
			t.children[id] = append(t.children[id], c)
			t.order = append(t.order, c)
		}
	}
	return t
}
