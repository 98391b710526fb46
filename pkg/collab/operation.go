package collab

import (
	"encoding/json"
	"slices"
	"time"
)

// OpKind tags what an operation does.
type OpKind string

const (
	OpNodeCreate    OpKind = "node_create"
	OpNodeUpdate    OpKind = "node_update"
	OpNodeDelete    OpKind = "node_delete"
	OpNodeMove      OpKind = "node_move"
	OpNodeReparent  OpKind = "node_reparent"
	OpBranchCreate  OpKind = "branch_create"
	OpBranchDelete  OpKind = "branch_delete"
	OpCommentAdd    OpKind = "comment_add"
	OpCommentRemove OpKind = "comment_remove"
	OpTaskAdd       OpKind = "task_add"
	OpTaskRemove    OpKind = "task_remove"
	OpStyleUpdate   OpKind = "style_update"
)

// OpKinds lists every operation kind.
var OpKinds = []OpKind{
	OpNodeCreate, OpNodeUpdate, OpNodeDelete, OpNodeMove, OpNodeReparent,
	OpBranchCreate, OpBranchDelete,
	OpCommentAdd, OpCommentRemove,
	OpTaskAdd, OpTaskRemove,
	OpStyleUpdate,
}

var inverses = map[OpKind]OpKind{
	OpNodeCreate:    OpNodeDelete,
	OpNodeDelete:    OpNodeCreate,
	OpBranchCreate:  OpBranchDelete,
	OpBranchDelete:  OpBranchCreate,
	OpCommentAdd:    OpCommentRemove,
	OpCommentRemove: OpCommentAdd,
	OpTaskAdd:       OpTaskRemove,
	OpTaskRemove:    OpTaskAdd,
}

// Valid reports whether k is a known kind.
func (k OpKind) Valid() bool {
	return slices.Contains(OpKinds, k)
}

// Inverse returns the kind that undoes k. Updates, moves, reparents and style
// changes have no generated inverse.
func (k OpKind) Inverse() (OpKind, bool) {
	inv, ok := inverses[k]
	return inv, ok
}

// Operation is one entry in the collaboration log. Once recorded it is never
// changed; the session hands out copies.
type Operation struct {
	ID        string          `json:"id" bson:"id"`
	Kind      OpKind          `json:"kind" bson:"kind"`
	UserID    string          `json:"user_id" bson:"user_id"`
	NodeID    string          `json:"node_id,omitempty" bson:"node_id,omitempty"`
	Timestamp time.Time       `json:"timestamp" bson:"timestamp"`
	Payload   json.RawMessage `json:"payload,omitempty" bson:"payload,omitempty"`
	Applied   bool            `json:"applied" bson:"applied"`

	// Compensates is the ID of the operation this one reverses, set on
	// operations synthesized by Undo and Redo.
	Compensates string `json:"compensates,omitempty" bson:"compensates,omitempty"`
}

// Clone returns a copy of op that shares no memory with it.
func (op Operation) Clone() Operation {
	op.Payload = slices.Clone(op.Payload)
	return op
}

// Decode unmarshals the payload into v.
func (op Operation) Decode(v any) error {
	if len(op.Payload) == 0 {
		return nil
	}
	return json.Unmarshal(op.Payload, v)
}

// WithPayload returns a copy of op carrying v marshaled as JSON.
func (op Operation) WithPayload(v any) (Operation, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return op, err
	}
	op.Payload = data
	return op, nil
}
