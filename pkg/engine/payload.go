package engine

import (
	"github.com/matzehuels/mindweave/pkg/branch"
	"github.com/matzehuels/mindweave/pkg/mindmap"
)

// The payload types below travel in collab.Operation.Payload. Each carries
// enough to apply the operation on a fresh engine, so a log can be replayed.
// Payloads of reversible kinds are shared between an operation and its
// inverse: undo re-submits the original payload under the inverse kind.

// NodePayload is the payload of node_create and node_delete.
type NodePayload struct {
	// Node is the node to create. Set on fresh creates.
	Node *mindmap.Node `json:"node,omitempty"`
	// Index is the position among the parent's children; -1 appends.
	Index int `json:"index"`
	// Cascade deletes the whole subtree instead of promoting children.
	Cascade bool `json:"cascade,omitempty"`

	// Removal and Branches are filled in when a delete is applied and let
	// a later node_create put everything back.
	Removal  *mindmap.Removal `json:"removal,omitempty"`
	Branches []branch.Branch  `json:"branches,omitempty"`
}

// UpdatePayload is the payload of node_update. Nil or empty fields are
// left alone.
type UpdatePayload struct {
	Text       *string  `json:"text,omitempty"`
	Notes      *string  `json:"notes,omitempty"`
	AddTags    []string `json:"add_tags,omitempty"`
	RemoveTags []string `json:"remove_tags,omitempty"`
	TaskID     string   `json:"task_id,omitempty"`
	TaskDone   *bool    `json:"task_done,omitempty"`
}

// MovePayload is the payload of node_move.
type MovePayload struct {
	Position mindmap.Position  `json:"position"`
	Previous *mindmap.Position `json:"previous,omitempty"`
}

// ReparentPayload is the payload of node_reparent.
type ReparentPayload struct {
	Parent   string `json:"parent"`
	Previous string `json:"previous,omitempty"`
}

// StylePayload is the payload of style_update.
type StylePayload struct {
	Style    mindmap.Style  `json:"style"`
	Previous *mindmap.Style `json:"previous,omitempty"`
}

// BranchPayload is the payload of branch_create and branch_delete.
type BranchPayload struct {
	Branch branch.Branch `json:"branch"`
}

// CommentPayload is the payload of comment_add and comment_remove.
type CommentPayload struct {
	Comment mindmap.Comment `json:"comment"`
}

// TaskPayload is the payload of task_add and task_remove.
type TaskPayload struct {
	Task mindmap.Task `json:"task"`
}
