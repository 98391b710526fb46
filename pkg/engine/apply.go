package engine

import (
	"github.com/google/uuid"

	"github.com/matzehuels/mindweave/pkg/branch"
	"github.com/matzehuels/mindweave/pkg/collab"
	"github.com/matzehuels/mindweave/pkg/errors"
	"github.com/matzehuels/mindweave/pkg/mindmap"
)

// hierarchyNamespace seeds the IDs of engine-maintained hierarchical
// branches, so the same parent/child link always gets the same ID.
var hierarchyNamespace = uuid.NewSHA1(uuid.NameSpaceOID, []byte("mindweave/hierarchy"))

// HierarchyBranchID returns the ID the engine gives the hierarchical branch
// from parent to child.
func HierarchyBranchID(parent, child string) string {
	return "h-" + uuid.NewSHA1(hierarchyNamespace, []byte(parent+"\x00"+child)).String()
}

// apply is the collab.ApplyFunc for this engine. It runs under the session
// lock, takes the engine lock, and either applies op completely or leaves
// the map untouched and returns an error. The returned operation carries
// whatever the payload needs to be reversed later.
func (e *Engine) apply(op collab.Operation) (collab.Operation, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var (
		payload any
		err     error
	)
	switch op.Kind {
	case collab.OpNodeCreate:
		payload, err = e.applyNodeCreate(op)
	case collab.OpNodeDelete:
		payload, err = e.applyNodeDelete(op)
	case collab.OpNodeUpdate:
		payload, err = e.applyNodeUpdate(op)
	case collab.OpNodeMove:
		payload, err = e.applyNodeMove(op)
	case collab.OpNodeReparent:
		payload, err = e.applyNodeReparent(op)
	case collab.OpStyleUpdate:
		payload, err = e.applyStyleUpdate(op)
	case collab.OpBranchCreate:
		payload, err = e.applyBranchCreate(op)
	case collab.OpBranchDelete:
		payload, err = e.applyBranchDelete(op)
	case collab.OpCommentAdd:
		payload, err = e.applyCommentAdd(op)
	case collab.OpCommentRemove:
		payload, err = e.applyCommentRemove(op)
	case collab.OpTaskAdd:
		payload, err = e.applyTaskAdd(op)
	case collab.OpTaskRemove:
		payload, err = e.applyTaskRemove(op)
	default:
		err = errors.New(errors.ErrCodeInvalidInput, "unknown operation kind %q", op.Kind)
	}
	if err != nil {
		return op, err
	}

	e.syncHierarchy()
	e.version++
	if payload == nil {
		return op, nil
	}
	out, err := op.WithPayload(payload)
	if err != nil {
		return op, errors.Wrap(errors.ErrCodeInternal, err, "encode %s payload", op.Kind)
	}
	return out, nil
}

func decode[T any](op collab.Operation) (T, error) {
	var v T
	if err := op.Decode(&v); err != nil {
		return v, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode %s payload", op.Kind)
	}
	return v, nil
}

func (e *Engine) applyNodeCreate(op collab.Operation) (any, error) {
	p, err := decode[NodePayload](op)
	if err != nil {
		return nil, err
	}
	if p.Removal != nil {
		restore := e.restorableBranches(*p.Removal, p.Branches)
		if err := e.store.Restore(*p.Removal); err != nil {
			return nil, err
		}
		for _, b := range restore {
			if err := e.index.Add(b); err != nil {
				e.logger.Warn("branch not restored", "branch", b.ID, "err", err)
			}
		}
		return nil, nil
	}
	if p.Node == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "node_create needs a node")
	}
	n := *p.Node
	if op.NodeID != "" && n.ID != op.NodeID {
		return nil, errors.New(errors.ErrCodeInvalidInput, "node_create for %q carries node %q", op.NodeID, n.ID)
	}
	if n.Parent == "" {
		n.Parent = e.store.Root()
	}
	return nil, e.store.AddNode(n, p.Index)
}

// restorableBranches returns the branches of a removal that can come back:
// both endpoints will exist after the restore and the ID is free.
func (e *Engine) restorableBranches(r mindmap.Removal, bs []branch.Branch) []branch.Branch {
	back := make(map[string]bool, len(r.Nodes))
	for _, id := range r.RemovedIDs() {
		back[id] = true
	}
	var out []branch.Branch
	for _, b := range bs {
		if _, taken := e.index.Get(b.ID); taken {
			continue
		}
		if (back[b.Source] || e.store.Has(b.Source)) && (back[b.Target] || e.store.Has(b.Target)) {
			out = append(out, b)
		}
	}
	return out
}

func (e *Engine) applyNodeDelete(op collab.Operation) (any, error) {
	p, err := decode[NodePayload](op)
	if err != nil {
		return nil, err
	}
	removal, err := e.store.DeleteNode(op.NodeID, p.Cascade)
	if err != nil {
		return nil, err
	}
	var kept []branch.Branch
	for _, id := range removal.RemovedIDs() {
		for _, b := range e.index.RemoveForNode(id) {
			if b.Kind != branch.KindHierarchical {
				kept = append(kept, b)
			}
		}
	}
	p.Removal = &removal
	p.Branches = kept
	return p, nil
}

func (e *Engine) applyNodeUpdate(op collab.Operation) (any, error) {
	p, err := decode[UpdatePayload](op)
	if err != nil {
		return nil, err
	}
	n, ok := e.store.Node(op.NodeID)
	if !ok {
		return nil, errors.NotFound("node", op.NodeID)
	}
	// Check everything first so a bad field leaves the node untouched.
	if p.Text != nil {
		if err := errors.ValidateText(*p.Text); err != nil {
			return nil, err
		}
	}
	if p.Notes != nil {
		if err := errors.ValidateNotes(*p.Notes); err != nil {
			return nil, err
		}
	}
	for _, tag := range p.AddTags {
		if err := errors.ValidateTag(tag); err != nil {
			return nil, err
		}
	}
	if p.TaskDone != nil {
		if _, ok := n.Task(p.TaskID); !ok {
			return nil, errors.NotFound("task", p.TaskID)
		}
	}

	if p.Text != nil {
		if _, err := e.store.UpdateText(op.NodeID, *p.Text); err != nil {
			return nil, err
		}
	}
	if p.Notes != nil {
		if _, err := e.store.UpdateNotes(op.NodeID, *p.Notes); err != nil {
			return nil, err
		}
	}
	for _, tag := range p.AddTags {
		if _, err := e.store.AddTag(op.NodeID, tag); err != nil {
			return nil, err
		}
	}
	for _, tag := range p.RemoveTags {
		if _, err := e.store.RemoveTag(op.NodeID, tag); err != nil {
			return nil, err
		}
	}
	if p.TaskDone != nil {
		if err := e.store.SetTaskDone(op.NodeID, p.TaskID, *p.TaskDone); err != nil {
			return nil, err
		}
	}
	return nil, nil
}

func (e *Engine) applyNodeMove(op collab.Operation) (any, error) {
	p, err := decode[MovePayload](op)
	if err != nil {
		return nil, err
	}
	n, ok := e.store.Node(op.NodeID)
	if !ok {
		return nil, errors.NotFound("node", op.NodeID)
	}
	prev := n.Position
	if err := e.store.MoveNode(op.NodeID, p.Position); err != nil {
		return nil, err
	}
	p.Previous = &prev
	return p, nil
}

func (e *Engine) applyNodeReparent(op collab.Operation) (any, error) {
	p, err := decode[ReparentPayload](op)
	if err != nil {
		return nil, err
	}
	prev, err := e.store.ReparentNode(op.NodeID, p.Parent)
	if err != nil {
		return nil, err
	}
	p.Previous = prev
	return p, nil
}

func (e *Engine) applyStyleUpdate(op collab.Operation) (any, error) {
	p, err := decode[StylePayload](op)
	if err != nil {
		return nil, err
	}
	prev, err := e.store.SetStyle(op.NodeID, p.Style)
	if err != nil {
		return nil, err
	}
	p.Previous = &prev
	return p, nil
}

func (e *Engine) applyBranchCreate(op collab.Operation) (any, error) {
	p, err := decode[BranchPayload](op)
	if err != nil {
		return nil, err
	}
	b := p.Branch
	if b.Kind == branch.KindHierarchical {
		return nil, errors.New(errors.ErrCodeInvalidOperation, "hierarchical branches follow the tree; reparent the node instead")
	}
	for _, id := range []string{b.Source, b.Target} {
		if !e.store.Has(id) {
			return nil, errors.NotFound("node", id)
		}
	}
	if err := e.index.Add(b); err != nil {
		return nil, err
	}
	p.Branch, _ = e.index.Get(b.ID)
	return p, nil
}

func (e *Engine) applyBranchDelete(op collab.Operation) (any, error) {
	p, err := decode[BranchPayload](op)
	if err != nil {
		return nil, err
	}
	b, ok := e.index.Get(p.Branch.ID)
	if !ok {
		return nil, errors.NotFound("branch", p.Branch.ID)
	}
	if b.Kind == branch.KindHierarchical {
		return nil, errors.New(errors.ErrCodeInvalidOperation, "hierarchical branches follow the tree; delete or reparent the node instead")
	}
	e.index.Remove(b.ID)
	p.Branch = b
	return p, nil
}

func (e *Engine) applyCommentAdd(op collab.Operation) (any, error) {
	p, err := decode[CommentPayload](op)
	if err != nil {
		return nil, err
	}
	if p.Comment.UserID == "" {
		p.Comment.UserID = op.UserID
	}
	c, err := e.store.AddComment(op.NodeID, p.Comment)
	if err != nil {
		return nil, err
	}
	p.Comment = c
	return p, nil
}

func (e *Engine) applyCommentRemove(op collab.Operation) (any, error) {
	p, err := decode[CommentPayload](op)
	if err != nil {
		return nil, err
	}
	c, err := e.store.RemoveComment(op.NodeID, p.Comment.ID)
	if err != nil {
		return nil, err
	}
	p.Comment = c
	return p, nil
}

func (e *Engine) applyTaskAdd(op collab.Operation) (any, error) {
	p, err := decode[TaskPayload](op)
	if err != nil {
		return nil, err
	}
	t, err := e.store.AddTask(op.NodeID, p.Task)
	if err != nil {
		return nil, err
	}
	p.Task = t
	return p, nil
}

func (e *Engine) applyTaskRemove(op collab.Operation) (any, error) {
	p, err := decode[TaskPayload](op)
	if err != nil {
		return nil, err
	}
	t, err := e.store.RemoveTask(op.NodeID, p.Task.ID)
	if err != nil {
		return nil, err
	}
	p.Task = t
	return p, nil
}

// syncHierarchy makes the hierarchical branches match the tree exactly: one
// per parent/child link, none for links that no longer exist.
func (e *Engine) syncHierarchy() {
	type link struct{ parent, child string }
	var links []link
	want := make(map[link]bool, e.store.Len())
	e.store.Walk(func(n *mindmap.Node, _ int) bool {
		for _, c := range n.Children {
			l := link{n.ID, c}
			links = append(links, l)
			want[l] = true
		}
		return true
	})

	have := make(map[link]bool, len(links))
	for _, b := range e.index.All() {
		if b.Kind != branch.KindHierarchical {
			continue
		}
		l := link{b.Source, b.Target}
		if want[l] && !have[l] {
			have[l] = true
			continue
		}
		e.index.Remove(b.ID)
	}
	for _, l := range links {
		if have[l] {
			continue
		}
		b := branch.New(HierarchyBranchID(l.parent, l.child), l.parent, l.child, branch.KindHierarchical)
		if err := e.index.Add(b); err != nil {
			// Only possible if a non-hierarchical branch took the ID.
			e.logger.Warn("hierarchical branch not added", "parent", l.parent, "child", l.child, "err", err)
		}
	}
}
