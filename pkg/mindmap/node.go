package mindmap

import (
	"math"
	"slices"
	"time"
)

// Position is a point on the mind-map canvas.
type Position struct {
	X float64 `json:"x" bson:"x"`
	Y float64 `json:"y" bson:"y"`
}

// Distance returns the Euclidean distance between p and q.
func (p Position) Distance(q Position) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// Priority ranks a task.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Valid reports whether p is one of the known priorities or empty.
func (p Priority) Valid() bool {
	switch p {
	case "", PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Task is a checklist item attached to a node.
type Task struct {
	ID       string   `json:"id" bson:"id"`
	Text     string   `json:"text" bson:"text"`
	Done     bool     `json:"done,omitempty" bson:"done,omitempty"`
	Priority Priority `json:"priority,omitempty" bson:"priority,omitempty"`
}

// Comment is a user remark attached to a node.
type Comment struct {
	ID        string    `json:"id" bson:"id"`
	UserID    string    `json:"user_id" bson:"user_id"`
	Text      string    `json:"text" bson:"text"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

// Style holds the presentation fields of a node. Theme collaborators may
// rewrite it freely; it never influences topology.
type Style struct {
	Color      string  `json:"color,omitempty" bson:"color,omitempty"`
	Background string  `json:"background,omitempty" bson:"background,omitempty"`
	FontFamily string  `json:"font_family,omitempty" bson:"font_family,omitempty"`
	FontSize   float64 `json:"font_size,omitempty" bson:"font_size,omitempty"`
	Shape      string  `json:"shape,omitempty" bson:"shape,omitempty"`
}

// Node is a single idea in the mind map.
//
// Children is ordered; Parent is empty only for the root. Floating marks a
// position the user placed by hand, which layout passes leave alone unless
// asked to re-lay out everything.
type Node struct {
	ID       string    `json:"id" bson:"id"`
	Text     string    `json:"text" bson:"text"`
	Notes    string    `json:"notes,omitempty" bson:"notes,omitempty"`
	Tags     []string  `json:"tags,omitempty" bson:"tags,omitempty"`
	Tasks    []Task    `json:"tasks,omitempty" bson:"tasks,omitempty"`
	Comments []Comment `json:"comments,omitempty" bson:"comments,omitempty"`
	Style    Style     `json:"style" bson:"style"`
	Position Position  `json:"position" bson:"position"`
	Floating bool      `json:"floating,omitempty" bson:"floating,omitempty"`
	Children []string  `json:"children,omitempty" bson:"children,omitempty"`
	Parent   string    `json:"parent,omitempty" bson:"parent,omitempty"`

	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// IsRoot reports whether n has no parent.
func (n *Node) IsRoot() bool { return n.Parent == "" }

// HasTag reports whether n carries tag.
func (n *Node) HasTag(tag string) bool {
	_, found := slices.BinarySearch(n.Tags, tag)
	return found
}

// Task returns the task with the given ID.
func (n *Node) Task(id string) (Task, bool) {
	i := slices.IndexFunc(n.Tasks, func(t Task) bool { return t.ID == id })
	if i < 0 {
		return Task{}, false
	}
	return n.Tasks[i], true
}

// Progress returns the number of completed tasks and the total.
func (n *Node) Progress() (done, total int) {
	for _, t := range n.Tasks {
		if t.Done {
			done++
		}
	}
	return done, len(n.Tasks)
}

// Clone returns a deep copy of n. Nil slices stay nil so that clones compare
// equal to their source under reflect.DeepEqual.
func (n *Node) Clone() *Node {
	c := *n
	c.Tags = slices.Clone(n.Tags)
	c.Tasks = slices.Clone(n.Tasks)
	c.Comments = slices.Clone(n.Comments)
	c.Children = slices.Clone(n.Children)
	return &c
}

// insertTag adds tag to the sorted set, reporting whether it was new.
func (n *Node) insertTag(tag string) bool {
	i, found := slices.BinarySearch(n.Tags, tag)
	if found {
		return false
	}
	n.Tags = slices.Insert(n.Tags, i, tag)
	return true
}

// deleteTag removes tag from the sorted set, reporting whether it was present.
func (n *Node) deleteTag(tag string) bool {
	i, found := slices.BinarySearch(n.Tags, tag)
	if !found {
		return false
	}
	n.Tags = slices.Delete(n.Tags, i, i+1)
	if len(n.Tags) == 0 {
		n.Tags = nil
	}
	return true
}

// normalizeTags sorts and deduplicates tags in place.
func normalizeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	out := slices.Clone(tags)
	slices.Sort(out)
	return slices.Compact(out)
}
