package engine

import (
	"context"
	stderrors "errors"
	"fmt"
	"reflect"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/matzehuels/mindweave/pkg/branch"
	"github.com/matzehuels/mindweave/pkg/collab"
	"github.com/matzehuels/mindweave/pkg/errors"
	"github.com/matzehuels/mindweave/pkg/layout"
	"github.com/matzehuels/mindweave/pkg/mindmap"
	"github.com/matzehuels/mindweave/pkg/snapshot"
)

var t0 = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func manualClock() (func() time.Time, func(time.Duration)) {
	now := t0
	return func() time.Time { return now }, func(d time.Duration) { now = now.Add(d) }
}

func seqIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("n%d", n)
	}
}

func newTestEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	clock, _ := manualClock()
	base := []Option{WithClock(clock), WithIDGenerator(seqIDs())}
	e, err := New("Root", append(base, opts...)...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return e
}

func mustCreate(t *testing.T, e *Engine, user, text, parent string) string {
	t.Helper()
	id, err := e.CreateNode(user, text, parent, nil)
	if err != nil {
		t.Fatalf("CreateNode(%q): %v", text, err)
	}
	return id
}

// buildABC creates Root -> [A -> [D, E], B, C] and returns the IDs.
func buildABC(t *testing.T, e *Engine) (a, d, ee, b, c string) {
	t.Helper()
	a = mustCreate(t, e, "alice", "A", "")
	d = mustCreate(t, e, "alice", "D", a)
	ee = mustCreate(t, e, "alice", "E", a)
	b = mustCreate(t, e, "alice", "B", "")
	c = mustCreate(t, e, "alice", "C", "")
	return
}

func hierarchical(e *Engine) []branch.Branch {
	var out []branch.Branch
	for _, b := range e.Branches() {
		if b.Kind == branch.KindHierarchical {
			out = append(out, b)
		}
	}
	return out
}

func assertHierarchyInSync(t *testing.T, e *Engine) {
	t.Helper()
	hs := hierarchical(e)
	if len(hs) != e.Len()-1 {
		t.Errorf("%d hierarchical branches for %d nodes", len(hs), e.Len())
	}
	for _, b := range hs {
		n, ok := e.Node(b.Target)
		if !ok || n.Parent != b.Source {
			t.Errorf("branch %s: %s -> %s does not match the tree", b.ID, b.Source, b.Target)
		}
	}
	if err := e.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestDeleteWithoutCascadeThenUndo(t *testing.T) {
	e := newTestEngine(t)
	a, d, ee, b, c := buildABC(t, e)
	root := e.Root()

	if err := e.DeleteNode("alice", a, false); err != nil {
		t.Fatalf("DeleteNode: %v", err)
	}
	if got, want := e.Children(root), []string{d, ee, b, c}; !slices.Equal(got, want) {
		t.Errorf("root children = %v, want %v", got, want)
	}
	if n, _ := e.Node(d); n.Parent != root {
		t.Errorf("D parent = %q, want root", n.Parent)
	}
	assertHierarchyInSync(t, e)

	op, err := e.Undo("alice")
	if err != nil {
		t.Fatalf("Undo: %v", err)
	}
	if op.Kind != collab.OpNodeCreate || op.NodeID != a {
		t.Errorf("undo op = %s on %s", op.Kind, op.NodeID)
	}
	if got, want := e.Children(root), []string{a, b, c}; !slices.Equal(got, want) {
		t.Errorf("root children after undo = %v, want %v", got, want)
	}
	if got, want := e.Children(a), []string{d, ee}; !slices.Equal(got, want) {
		t.Errorf("A children after undo = %v, want %v", got, want)
	}
	assertHierarchyInSync(t, e)
}

func TestCascadeDeleteRestoresBranchesOnUndo(t *testing.T) {
	e := newTestEngine(t)
	a, d, _, b, _ := buildABC(t, e)

	bid, err := e.CreateBranch("alice", branch.Branch{Source: d, Target: b, Kind: branch.KindAssociative, Label: "see also"})
	if err != nil {
		t.Fatalf("CreateBranch: %v", err)
	}
	created, _ := e.Branch(bid)
	if created.Weight != branch.DefaultWeight || created.Style != branch.KindAssociative.DefaultStyle() {
		t.Errorf("branch defaults not applied: %+v", created)
	}

	if err := e.DeleteNode("alice", a, true); err != nil {
		t.Fatalf("DeleteNode: %v", err)
	}
	if e.Len() != 3 {
		t.Errorf("Len = %d after cascade, want 3", e.Len())
	}
	if _, ok := e.Branch(bid); ok {
		t.Error("branch from a deleted node survived")
	}
	assertHierarchyInSync(t, e)

	if _, err := e.Undo("alice"); err != nil {
		t.Fatalf("Undo: %v", err)
	}
	if e.Len() != 6 {
		t.Errorf("Len = %d after undo, want 6", e.Len())
	}
	if got, ok := e.Branch(bid); !ok || !reflect.DeepEqual(got, created) {
		t.Errorf("branch after undo = %+v, %v; want %+v", got, ok, created)
	}
	assertHierarchyInSync(t, e)

	// Redo deletes the subtree again.
	if _, err := e.Redo("alice"); err != nil {
		t.Fatalf("Redo: %v", err)
	}
	if e.Len() != 3 {
		t.Errorf("Len = %d after redo, want 3", e.Len())
	}
	assertHierarchyInSync(t, e)
}

func TestDeleteRoot(t *testing.T) {
	e := newTestEngine(t)
	err := e.DeleteNode("alice", e.Root(), true)
	if !errors.Is(err, errors.ErrCodeInvalidOperation) {
		t.Fatalf("DeleteNode(root) = %v, want INVALID_OPERATION", err)
	}
	if n := len(e.Log()); n != 0 {
		t.Errorf("failed delete logged %d operations", n)
	}
}

func TestReparent(t *testing.T) {
	e := newTestEngine(t)
	a, d, _, b, _ := buildABC(t, e)
	root := e.Root()

	if err := e.ReparentNode("alice", b, d); err != nil {
		t.Fatalf("ReparentNode: %v", err)
	}
	if _, ok := e.Branch(HierarchyBranchID(d, b)); !ok {
		t.Error("no hierarchical branch D -> B after reparent")
	}
	if _, ok := e.Branch(HierarchyBranchID(root, b)); ok {
		t.Error("stale hierarchical branch Root -> B after reparent")
	}
	assertHierarchyInSync(t, e)

	logged := len(e.Log())
	before := e.Snapshot()
	err := e.ReparentNode("alice", a, b)
	if !errors.Is(err, errors.ErrCodeCycle) {
		t.Fatalf("ReparentNode(A under its descendant) = %v, want CYCLE", err)
	}
	if after := e.Snapshot(); !reflect.DeepEqual(before, after) {
		t.Error("rejected reparent changed the map")
	}
	if len(e.Log()) != logged {
		t.Error("rejected reparent was logged")
	}

	if err := e.ReparentNode("alice", root, a); !errors.Is(err, errors.ErrCodeInvalidOperation) {
		t.Errorf("ReparentNode(root) = %v, want INVALID_OPERATION", err)
	}
}

func TestConflictWindow(t *testing.T) {
	clock, advance := manualClock()
	e, err := New("Root", WithClock(clock), WithIDGenerator(seqIDs()))
	if err != nil {
		t.Fatal(err)
	}
	a := mustCreate(t, e, "alice", "A", "")
	advance(time.Minute)

	if err := e.UpdateText("alice", a, "from alice"); err != nil {
		t.Fatalf("alice UpdateText: %v", err)
	}
	advance(2 * time.Second)

	err = e.UpdateText("bob", a, "from bob")
	if !errors.Is(err, errors.ErrCodeConflict) {
		t.Fatalf("bob UpdateText = %v, want CONFLICT", err)
	}
	var ce *ConflictError
	if !stderrors.As(err, &ce) {
		t.Fatalf("error %T is not a *ConflictError", err)
	}
	if ce.Conflict.Existing.UserID != "alice" || ce.Conflict.Incoming.UserID != "bob" {
		t.Errorf("conflict = %+v", ce.Conflict)
	}
	if ce.Conflict.Suggested.UserID != "bob" {
		t.Errorf("last-write-wins suggested %q, want bob", ce.Conflict.Suggested.UserID)
	}
	if n, _ := e.Node(a); n.Text != "from alice" {
		t.Errorf("text = %q after rejected edit", n.Text)
	}
	if n := len(e.Log()); n != 2 {
		t.Errorf("log has %d entries, want 2", n)
	}

	advance(10 * time.Second)
	if err := e.UpdateText("bob", a, "from bob"); err != nil {
		t.Fatalf("bob UpdateText outside the window: %v", err)
	}
}

func TestUndoSkipsEditDeletedByOtherUser(t *testing.T) {
	clock, advance := manualClock()
	e, err := New("Root", WithClock(clock), WithIDGenerator(seqIDs()))
	if err != nil {
		t.Fatal(err)
	}
	a := mustCreate(t, e, "alice", "A", "")
	b := mustCreate(t, e, "alice", "B", "")
	advance(10 * time.Second)
	if err := e.DeleteNode("bob", b, false); err != nil {
		t.Fatalf("bob DeleteNode: %v", err)
	}
	advance(10 * time.Second)

	if _, err := e.Undo("alice"); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Fatalf("Undo(create B) = %v, want NOT_FOUND", err)
	}
	if _, err := e.Undo("alice"); err != nil {
		t.Fatalf("Undo(create A): %v", err)
	}
	if _, ok := e.Node(a); ok {
		t.Error("A still present after undo")
	}
	if _, err := e.Undo("alice"); !stderrors.Is(err, collab.ErrNothingToUndo) {
		t.Errorf("exhausted Undo = %v, want ErrNothingToUndo", err)
	}
	assertHierarchyInSync(t, e)
}

func TestSubmitReportsConflictInResult(t *testing.T) {
	e := newTestEngine(t)
	a := mustCreate(t, e, "alice", "A", "")
	if err := e.UpdateText("alice", a, "x"); err != nil {
		t.Fatal(err)
	}
	op := collab.Operation{Kind: collab.OpNodeUpdate, UserID: "bob", NodeID: a}
	op, _ = op.WithPayload(UpdatePayload{AddTags: []string{"urgent"}})

	res, err := e.Submit(op)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if res.Accepted() || res.Conflict == nil {
		t.Errorf("Submit result = %+v, want a rejection", res)
	}
}

func TestLockedNode(t *testing.T) {
	e := newTestEngine(t)
	a := mustCreate(t, e, "alice", "A", "")
	e.Session().LockNode(a, "bob")

	err := e.UpdateText("alice", a, "mine")
	if !errors.Is(err, errors.ErrCodeInvalidOperation) {
		t.Fatalf("edit of a locked node = %v, want INVALID_OPERATION", err)
	}
	if err := e.UpdateText("bob", a, "mine"); err != nil {
		t.Errorf("lock holder edit: %v", err)
	}
}

func TestContentEdits(t *testing.T) {
	e := newTestEngine(t)
	a := mustCreate(t, e, "alice", "A", "")

	steps := []struct {
		name string
		run  func() error
	}{
		{"notes", func() error { return e.UpdateNotes("alice", a, "details") }},
		{"tag", func() error { return e.AddTag("alice", a, "urgent") }},
		{"tag again", func() error { return e.AddTag("alice", a, "urgent") }},
		{"second tag", func() error { return e.AddTag("alice", a, "area") }},
		{"untag", func() error { return e.RemoveTag("alice", a, "area") }},
		{"style", func() error { return e.SetStyle("alice", a, mindmap.Style{Color: "#ff0000"}) }},
	}
	for _, s := range steps {
		if err := s.run(); err != nil {
			t.Fatalf("%s: %v", s.name, err)
		}
	}

	task, err := e.AddTask("alice", a, "Book venue", mindmap.PriorityHigh)
	if err != nil {
		t.Fatalf("AddTask: %v", err)
	}
	if err := e.SetTaskDone("alice", a, task, true); err != nil {
		t.Fatalf("SetTaskDone: %v", err)
	}
	comment, err := e.AddComment("alice", a, "Looks good")
	if err != nil {
		t.Fatalf("AddComment: %v", err)
	}

	n, _ := e.Node(a)
	if n.Notes != "details" || !slices.Equal(n.Tags, []string{"urgent"}) || n.Style.Color != "#ff0000" {
		t.Errorf("node = %+v", n)
	}
	if done, total := n.Progress(); done != 1 || total != 1 {
		t.Errorf("progress = %d/%d, want 1/1", done, total)
	}
	if len(n.Comments) != 1 || n.Comments[0].UserID != "alice" {
		t.Errorf("comments = %+v", n.Comments)
	}

	if err := e.SetTaskDone("alice", a, "missing", true); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("SetTaskDone(missing) = %v, want NOT_FOUND", err)
	}
	if err := e.UpdateText("alice", a, ""); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("UpdateText(\"\") = %v, want INVALID_INPUT", err)
	}

	// Undo the comment, then the task.
	if _, err := e.Undo("alice"); err != nil {
		t.Fatalf("Undo comment: %v", err)
	}
	if n, _ := e.Node(a); len(n.Comments) != 0 {
		t.Errorf("comment %s survived undo", comment)
	}
	// SetTaskDone has no inverse: the cursor skips it.
	if _, err := e.Undo("alice"); !stderrors.Is(err, collab.ErrNothingToUndo) {
		t.Errorf("Undo(task done) = %v, want ErrNothingToUndo", err)
	}
	if _, err := e.Undo("alice"); err != nil {
		t.Fatalf("Undo task: %v", err)
	}
	if n, _ := e.Node(a); len(n.Tasks) != 0 {
		t.Errorf("task %s survived undo", task)
	}
}

func TestHierarchicalBranchesAreManaged(t *testing.T) {
	e := newTestEngine(t)
	a := mustCreate(t, e, "alice", "A", "")

	_, err := e.CreateBranch("alice", branch.Branch{Source: e.Root(), Target: a, Kind: branch.KindHierarchical})
	if !errors.Is(err, errors.ErrCodeInvalidOperation) {
		t.Errorf("CreateBranch(hierarchical) = %v, want INVALID_OPERATION", err)
	}
	err = e.DeleteBranch("alice", HierarchyBranchID(e.Root(), a))
	if !errors.Is(err, errors.ErrCodeInvalidOperation) {
		t.Errorf("DeleteBranch(hierarchical) = %v, want INVALID_OPERATION", err)
	}
	_, err = e.CreateBranch("alice", branch.Branch{Source: a, Target: "ghost", Kind: branch.KindReference})
	if !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("CreateBranch(to missing node) = %v, want NOT_FOUND", err)
	}
}

func TestBranchDeleteUndo(t *testing.T) {
	e := newTestEngine(t)
	a := mustCreate(t, e, "alice", "A", "")
	b := mustCreate(t, e, "alice", "B", "")
	id, err := e.CreateBranch("alice", branch.Branch{Source: a, Target: b, Kind: branch.KindDependency, Weight: 2})
	if err != nil {
		t.Fatal(err)
	}
	if err := e.DeleteBranch("alice", id); err != nil {
		t.Fatalf("DeleteBranch: %v", err)
	}
	if _, err := e.Undo("alice"); err != nil {
		t.Fatalf("Undo: %v", err)
	}
	got, ok := e.Branch(id)
	if !ok || got.Weight != 2 || got.Kind != branch.KindDependency {
		t.Errorf("branch after undo = %+v, %v", got, ok)
	}
	if path, _ := e.FindPath(a, b, 0); !slices.Equal(path, []string{a, b}) {
		t.Errorf("FindPath = %v", path)
	}
}

func TestFindPathAndComponent(t *testing.T) {
	e := newTestEngine(t)
	a, _, ee, b, _ := buildABC(t, e)
	root := e.Root()

	path, err := e.FindPath(root, ee, 0)
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{root, a, ee}; !slices.Equal(path, want) {
		t.Errorf("FindPath = %v, want %v", path, want)
	}
	if path, _ := e.FindPath(ee, b, 0); path != nil {
		t.Errorf("FindPath against branch direction = %v, want nil", path)
	}
	if path, _ := e.FindPath(root, ee, 1); path != nil {
		t.Errorf("FindPath beyond max depth = %v, want nil", path)
	}
	if _, err := e.FindPath(root, "ghost", 0); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("FindPath(missing) = %v, want NOT_FOUND", err)
	}
	comp, _ := e.ConnectedComponent(ee)
	if len(comp) != e.Len() {
		t.Errorf("component has %d nodes, want %d", len(comp), e.Len())
	}
}

func TestSearch(t *testing.T) {
	e := newTestEngine(t)
	a := mustCreate(t, e, "alice", "Launch party", "")
	b := mustCreate(t, e, "alice", "Budget", "")
	if err := e.UpdateNotes("alice", b, "covers the LAUNCH"); err != nil {
		t.Fatal(err)
	}
	var ids []string
	for _, n := range e.Search("launch") {
		ids = append(ids, n.ID)
	}
	if want := []string{a, b}; !slices.Equal(ids, want) {
		t.Errorf("Search = %v, want %v", ids, want)
	}
	if got := e.Search(""); got != nil {
		t.Errorf("Search(\"\") = %v, want nil", got)
	}
}

func richEngine(t *testing.T) *Engine {
	t.Helper()
	e := newTestEngine(t)
	a, d, _, b, _ := buildABC(t, e)
	_ = e.UpdateNotes("alice", a, "first idea")
	_ = e.AddTag("alice", a, "core")
	_ = e.SetStyle("alice", d, mindmap.Style{Color: "#00ff00", FontSize: 12, Shape: "ellipse"})
	_ = e.MoveNode("alice", b, mindmap.Position{X: 1.5, Y: -2.25})
	if _, err := e.AddTask("alice", d, "Draft", mindmap.PriorityLow); err != nil {
		t.Fatal(err)
	}
	if _, err := e.AddComment("alice", b, "hmm"); err != nil {
		t.Fatal(err)
	}
	if _, err := e.CreateBranch("alice", branch.Branch{Source: d, Target: b, Kind: branch.KindSequence, Label: "then"}); err != nil {
		t.Fatal(err)
	}
	e.SetMetadata("title", "Plan")
	e.SetTags([]string{"work", "q3", "work"})
	return e
}

func TestSnapshotRoundTrip(t *testing.T) {
	e := richEngine(t)
	doc := e.Snapshot()

	data, err := snapshot.Marshal(doc)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	decoded, err := snapshot.Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	clock, _ := manualClock()
	e2, err := FromSnapshot(decoded, WithClock(clock))
	if err != nil {
		t.Fatalf("FromSnapshot: %v", err)
	}
	if got := e2.Snapshot(); !reflect.DeepEqual(got, doc) {
		t.Errorf("round trip changed the document\n got: %+v\nwant: %+v", got, doc)
	}
	if !slices.Equal(doc.Tags, []string{"q3", "work"}) {
		t.Errorf("tags = %v", doc.Tags)
	}
}

func TestFromSnapshotRejectsDanglingBranch(t *testing.T) {
	doc := richEngine(t).Snapshot()
	doc.Branches["x"] = branch.New("x", doc.RootID, "ghost", branch.KindReference)
	if _, err := FromSnapshot(doc); !errors.Is(err, errors.ErrCodeIntegrityViolation) {
		t.Errorf("FromSnapshot = %v, want INTEGRITY_VIOLATION", err)
	}
}

func TestReplay(t *testing.T) {
	e := richEngine(t)
	a := e.Children(e.Root())[0]
	if err := e.DeleteNode("alice", a, false); err != nil {
		t.Fatal(err)
	}
	if _, err := e.Undo("alice"); err != nil {
		t.Fatal(err)
	}

	e2 := newTestEngine(t)
	if err := e2.Replay(e.Log()); err != nil {
		t.Fatalf("Replay: %v", err)
	}
	// Document-level metadata and tags are not operations.
	e2.SetMetadata("title", "Plan")
	e2.SetTags([]string{"q3", "work"})
	if got, want := e2.Snapshot(), e.Snapshot(); !reflect.DeepEqual(got, want) {
		t.Errorf("replayed map differs\n got: %+v\nwant: %+v", got, want)
	}
	if len(e2.Log()) != len(e.Log()) {
		t.Errorf("replayed log has %d entries, want %d", len(e2.Log()), len(e.Log()))
	}
}

func TestEventHandlersMayReadTheEngine(t *testing.T) {
	e := newTestEngine(t)
	var texts []string
	e.Session().On(collab.EventOperation, func(ev collab.Event) {
		if n, ok := e.Node(ev.NodeID); ok {
			texts = append(texts, n.Text)
		}
	})
	mustCreate(t, e, "alice", "A", "")
	mustCreate(t, e, "alice", "B", "")
	if want := []string{"A", "B"}; !slices.Equal(texts, want) {
		t.Errorf("handler saw %v, want %v", texts, want)
	}
}

// memCache is an in-memory cache.Cache that counts hits.
type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
	hits int
}

func newMemCache() *memCache { return &memCache{data: make(map[string][]byte)} }

func (c *memCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	if ok {
		c.hits++
	}
	return v, ok, nil
}

func (c *memCache) Set(_ context.Context, key string, data []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = slices.Clone(data)
	return nil
}

func (c *memCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

func (c *memCache) Close() error { return nil }

func TestLayoutSkipsFloatingNodes(t *testing.T) {
	mc := newMemCache()
	e := newTestEngine(t, WithLayoutCache(mc, nil, 0))
	a := mustCreate(t, e, "alice", "A", "")
	b := mustCreate(t, e, "alice", "B", "")
	pinned := mindmap.Position{X: 1, Y: 2}
	if err := e.MoveNode("alice", b, pinned); err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	pos, err := e.Layout(ctx, layout.MindMap, layout.DefaultConfig(), false)
	if err != nil {
		t.Fatalf("Layout: %v", err)
	}
	if _, ok := pos[b]; ok {
		t.Error("layout wrote a floating node")
	}
	if n, _ := e.Node(b); n.Position != pinned || !n.Floating {
		t.Errorf("floating node = %+v", n)
	}
	if n, _ := e.Node(a); n.Position != pos[a] {
		t.Errorf("A at %v, layout said %v", n.Position, pos[a])
	}
	if mc.hits != 0 {
		t.Errorf("first layout hit the cache %d times", mc.hits)
	}

	again, err := e.Layout(ctx, layout.MindMap, layout.DefaultConfig(), false)
	if err != nil {
		t.Fatal(err)
	}
	if mc.hits != 1 {
		t.Errorf("second layout hit the cache %d times, want 1", mc.hits)
	}
	if !reflect.DeepEqual(again, pos) {
		t.Errorf("cached layout %v differs from %v", again, pos)
	}

	all, err := e.Layout(ctx, layout.MindMap, layout.DefaultConfig(), true)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := all[b]; !ok {
		t.Error("forced layout skipped the floating node")
	}
	if n, _ := e.Node(b); n.Floating {
		t.Error("node still floating after forced layout")
	}
}

func TestLayoutRejectsBadConfig(t *testing.T) {
	e := newTestEngine(t)
	cfg := layout.DefaultConfig()
	cfg.LevelSpacing = -1
	if _, err := e.Layout(context.Background(), layout.Radial, cfg, false); !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("Layout = %v, want INVALID_CONFIG", err)
	}
}

type titleExporter struct{ calls int }

func (x *titleExporter) Format() string { return "txt" }

func (x *titleExporter) Export(_ context.Context, doc snapshot.Document) ([]byte, error) {
	x.calls++
	return []byte(doc.Title()), nil
}

type levelTheme struct{}

func (levelTheme) Restyle(n mindmap.Node, level int) mindmap.Style {
	s := n.Style
	s.Color = fmt.Sprintf("level-%d", level)
	return s
}

type staticSuggester []string

func (s staticSuggester) Suggest(context.Context, snapshot.Document, string) ([]string, error) {
	return s, nil
}

func TestCollaborators(t *testing.T) {
	mc := newMemCache()
	e := newTestEngine(t, WithLayoutCache(mc, nil, time.Hour))
	a := mustCreate(t, e, "alice", "A", "")
	ctx := context.Background()

	x := &titleExporter{}
	for range 2 {
		out, err := e.Export(ctx, x)
		if err != nil {
			t.Fatalf("Export: %v", err)
		}
		if string(out) != "Root" {
			t.Errorf("Export = %q", out)
		}
	}
	if x.calls != 1 {
		t.Errorf("exporter ran %d times, want 1", x.calls)
	}

	changed, err := e.ApplyTheme("alice", levelTheme{})
	if err != nil || changed != 2 {
		t.Fatalf("ApplyTheme = %d, %v; want 2", changed, err)
	}
	if n, _ := e.Node(a); n.Style.Color != "level-1" {
		t.Errorf("A color = %q", n.Style.Color)
	}
	if changed, _ := e.ApplyTheme("alice", levelTheme{}); changed != 0 {
		t.Errorf("second ApplyTheme changed %d nodes", changed)
	}

	ids, err := e.AcceptSuggestions(ctx, "alice", a, staticSuggester{"Venue", "", "Catering"})
	if err != nil {
		t.Fatalf("AcceptSuggestions: %v", err)
	}
	if !slices.Equal(e.Children(a), ids) || len(ids) != 2 {
		t.Errorf("children = %v, ids = %v", e.Children(a), ids)
	}
	if _, err := e.AcceptSuggestions(ctx, "alice", "ghost", staticSuggester{"x"}); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("AcceptSuggestions(missing) = %v, want NOT_FOUND", err)
	}
}
