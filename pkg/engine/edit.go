package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/matzehuels/mindweave/pkg/branch"
	"github.com/matzehuels/mindweave/pkg/collab"
	"github.com/matzehuels/mindweave/pkg/errors"
	"github.com/matzehuels/mindweave/pkg/mindmap"
	"github.com/matzehuels/mindweave/pkg/observability"
)

// commit admits op through the session with the engine's applier, checks
// branch integrity, and reports the outcome to the observability hooks.
// A conflict comes back as *ConflictError together with the rejected op.
func (e *Engine) commit(op collab.Operation) (collab.Operation, error) {
	start := time.Now()
	res, err := e.session.Admit(op, e.apply)
	e.observe(op.Kind, res, err, time.Since(start))
	if err != nil {
		return collab.Operation{}, err
	}
	if err := resultError(res); err != nil {
		return res.Op, err
	}
	if err := e.checkIntegrity(); err != nil {
		return res.Op, err
	}
	return res.Op, nil
}

func (e *Engine) observe(kind collab.OpKind, res collab.Result, err error, d time.Duration) {
	outcome := "failed"
	if err == nil {
		outcome = res.Outcome.String()
	}
	observability.Engine().OnOperation(context.Background(), string(kind), outcome, d)
}

func (e *Engine) checkIntegrity() error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.integrityLocked()
}

func (e *Engine) newOp(kind collab.OpKind, userID, nodeID string, payload any) (collab.Operation, error) {
	op := collab.Operation{Kind: kind, UserID: userID, NodeID: nodeID}
	op, err := op.WithPayload(payload)
	if err != nil {
		return op, errors.Wrap(errors.ErrCodeInternal, err, "encode %s payload", kind)
	}
	return op, nil
}

// Submit applies an operation that arrived from another client. A conflict
// is reported in the result, not as an error.
func (e *Engine) Submit(op collab.Operation) (collab.Result, error) {
	start := time.Now()
	res, err := e.session.Admit(op, e.apply)
	e.observe(op.Kind, res, err, time.Since(start))
	if err != nil || !res.Accepted() {
		return res, err
	}
	return res, e.checkIntegrity()
}

// Replay submits ops in order, stopping at the first one that fails or is
// rejected. It is meant for rebuilding a map from a saved log on a fresh
// engine whose root matches the log's.
func (e *Engine) Replay(ops []collab.Operation) error {
	for i, op := range ops {
		res, err := e.Submit(op)
		if err != nil {
			return fmt.Errorf("replay operation %d (%s): %w", i, op.ID, err)
		}
		if err := resultError(res); err != nil {
			return fmt.Errorf("replay operation %d (%s): %w", i, op.ID, err)
		}
	}
	return nil
}

// Undo reverses userID's most recent edit. It returns collab.ErrNothingToUndo
// when there is nothing to reverse or the edit has no inverse.
func (e *Engine) Undo(userID string) (collab.Operation, error) {
	return e.reverse(userID, e.session.Undo)
}

// Redo re-applies userID's most recently undone edit.
func (e *Engine) Redo(userID string) (collab.Operation, error) {
	return e.reverse(userID, e.session.Redo)
}

func (e *Engine) reverse(userID string, fn func(string, collab.ApplyFunc) (collab.Result, error)) (collab.Operation, error) {
	res, err := fn(userID, e.apply)
	if err != nil {
		return collab.Operation{}, err
	}
	if err := resultError(res); err != nil {
		return res.Op, err
	}
	return res.Op, e.checkIntegrity()
}

// =============================================================================
// Nodes
// =============================================================================

// CreateNode adds a node under parent (empty means the root) and returns
// its ID. A non-nil pos places the node by hand and marks it floating.
func (e *Engine) CreateNode(userID, text, parent string, pos *mindmap.Position) (string, error) {
	if parent == "" {
		parent = e.Root()
	}
	n := mindmap.Node{ID: e.newID(), Text: text, Parent: parent, CreatedAt: e.now()}
	if pos != nil {
		n.Position = *pos
		n.Floating = true
	}
	op, err := e.newOp(collab.OpNodeCreate, userID, n.ID, NodePayload{Node: &n, Index: -1})
	if err != nil {
		return "", err
	}
	if _, err := e.commit(op); err != nil {
		return "", err
	}
	return n.ID, nil
}

// DeleteNode removes a node. With cascade its subtree goes too; otherwise
// the children move up to the deleted node's parent in its place. Branches
// touching removed nodes are removed with them and come back on undo.
func (e *Engine) DeleteNode(userID, id string, cascade bool) error {
	op, err := e.newOp(collab.OpNodeDelete, userID, id, NodePayload{Index: -1, Cascade: cascade})
	if err != nil {
		return err
	}
	_, err = e.commit(op)
	return err
}

// MoveNode places a node by hand. The node becomes floating and later
// layouts leave it where it is.
func (e *Engine) MoveNode(userID, id string, pos mindmap.Position) error {
	op, err := e.newOp(collab.OpNodeMove, userID, id, MovePayload{Position: pos})
	if err != nil {
		return err
	}
	_, err = e.commit(op)
	return err
}

// ReparentNode moves a node and its subtree under a new parent. Moving a
// node beneath its own descendant fails with CYCLE and changes nothing.
func (e *Engine) ReparentNode(userID, id, newParent string) error {
	op, err := e.newOp(collab.OpNodeReparent, userID, id, ReparentPayload{Parent: newParent})
	if err != nil {
		return err
	}
	_, err = e.commit(op)
	return err
}

func (e *Engine) update(userID, id string, p UpdatePayload) error {
	op, err := e.newOp(collab.OpNodeUpdate, userID, id, p)
	if err != nil {
		return err
	}
	_, err = e.commit(op)
	return err
}

// UpdateText replaces a node's text.
func (e *Engine) UpdateText(userID, id, text string) error {
	return e.update(userID, id, UpdatePayload{Text: &text})
}

// UpdateNotes replaces a node's notes.
func (e *Engine) UpdateNotes(userID, id, notes string) error {
	return e.update(userID, id, UpdatePayload{Notes: &notes})
}

// AddTag tags a node. Adding a tag twice is not an error.
func (e *Engine) AddTag(userID, id, tag string) error {
	return e.update(userID, id, UpdatePayload{AddTags: []string{tag}})
}

// RemoveTag untags a node.
func (e *Engine) RemoveTag(userID, id, tag string) error {
	return e.update(userID, id, UpdatePayload{RemoveTags: []string{tag}})
}

// SetTaskDone marks one of a node's tasks complete or incomplete.
func (e *Engine) SetTaskDone(userID, id, taskID string, done bool) error {
	return e.update(userID, id, UpdatePayload{TaskID: taskID, TaskDone: &done})
}

// SetStyle replaces a node's style.
func (e *Engine) SetStyle(userID, id string, style mindmap.Style) error {
	op, err := e.newOp(collab.OpStyleUpdate, userID, id, StylePayload{Style: style})
	if err != nil {
		return err
	}
	_, err = e.commit(op)
	return err
}

// AddComment attaches a comment by userID to a node and returns its ID.
func (e *Engine) AddComment(userID, id, text string) (string, error) {
	c := mindmap.Comment{ID: e.newID(), UserID: userID, Text: text, CreatedAt: e.now()}
	op, err := e.newOp(collab.OpCommentAdd, userID, id, CommentPayload{Comment: c})
	if err != nil {
		return "", err
	}
	if _, err := e.commit(op); err != nil {
		return "", err
	}
	return c.ID, nil
}

// RemoveComment deletes a comment from a node.
func (e *Engine) RemoveComment(userID, id, commentID string) error {
	op, err := e.newOp(collab.OpCommentRemove, userID, id, CommentPayload{Comment: mindmap.Comment{ID: commentID}})
	if err != nil {
		return err
	}
	_, err = e.commit(op)
	return err
}

// AddTask adds a task to a node and returns its ID. An empty priority
// means medium.
func (e *Engine) AddTask(userID, id, text string, priority mindmap.Priority) (string, error) {
	if priority == "" {
		priority = mindmap.PriorityMedium
	}
	t := mindmap.Task{ID: e.newID(), Text: text, Priority: priority}
	op, err := e.newOp(collab.OpTaskAdd, userID, id, TaskPayload{Task: t})
	if err != nil {
		return "", err
	}
	if _, err := e.commit(op); err != nil {
		return "", err
	}
	return t.ID, nil
}

// RemoveTask deletes a task from a node.
func (e *Engine) RemoveTask(userID, id, taskID string) error {
	op, err := e.newOp(collab.OpTaskRemove, userID, id, TaskPayload{Task: mindmap.Task{ID: taskID}})
	if err != nil {
		return err
	}
	_, err = e.commit(op)
	return err
}

// =============================================================================
// Branches
// =============================================================================

// CreateBranch adds a non-hierarchical branch and returns its ID. An empty
// ID is generated; zero weight and style take the kind's defaults.
// Hierarchical branches are derived from the tree and cannot be created
// directly.
func (e *Engine) CreateBranch(userID string, b branch.Branch) (string, error) {
	if b.ID == "" {
		b.ID = e.newID()
	}
	op, err := e.newOp(collab.OpBranchCreate, userID, b.Source, BranchPayload{Branch: b})
	if err != nil {
		return "", err
	}
	if _, err := e.commit(op); err != nil {
		return "", err
	}
	return b.ID, nil
}

// DeleteBranch removes a non-hierarchical branch.
func (e *Engine) DeleteBranch(userID, id string) error {
	b, ok := e.Branch(id)
	if !ok {
		return errors.NotFound("branch", id)
	}
	op, err := e.newOp(collab.OpBranchDelete, userID, b.Source, BranchPayload{Branch: b})
	if err != nil {
		return err
	}
	_, err = e.commit(op)
	return err
}
