package collab

import (
	stderrors "errors"
	"fmt"
	"slices"
	"testing"
	"time"

	"github.com/matzehuels/mindweave/pkg/errors"
	"github.com/matzehuels/mindweave/pkg/mindmap"
)

var t0 = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// manualClock returns a clock the test can advance.
func manualClock() (func() time.Time, func(time.Duration)) {
	now := t0
	return func() time.Time { return now }, func(d time.Duration) { now = now.Add(d) }
}

func seqIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("op%d", n)
	}
}

func newTestSession(opts ...Option) *Session {
	clock, _ := manualClock()
	base := []Option{WithClock(clock), WithIDGenerator(seqIDs())}
	return NewSession(append(base, opts...)...)
}

func update(user, node string, at time.Duration) Operation {
	return Operation{Kind: OpNodeUpdate, UserID: user, NodeID: node, Timestamp: t0.Add(at)}
}

func TestLockScenario(t *testing.T) {
	s := newTestSession()

	if !s.LockNode("n1", "u1") {
		t.Fatal("u1 could not lock a free node")
	}
	if s.LockNode("n1", "u2") {
		t.Fatal("u2 locked a node held by u1")
	}
	if !s.LockNode("n1", "u1") {
		t.Error("re-locking one's own node should succeed")
	}
	if s.UnlockNode("n1", "u2") {
		t.Error("u2 unlocked u1's lock")
	}
	if !s.UnlockNode("n1", "u1") {
		t.Fatal("u1 could not release its lock")
	}
	if !s.LockNode("n1", "u2") {
		t.Fatal("u2 could not lock a released node")
	}
	if holder, _ := s.LockHolder("n1"); holder != "u2" {
		t.Errorf("holder = %q, want u2", holder)
	}
}

func TestRemoveUserReleasesLocks(t *testing.T) {
	s := newTestSession()
	_ = s.Join(User{ID: "u1", Name: "Ada"})
	s.LockNode("a", "u1")
	s.LockNode("b", "u1")
	s.LockNode("c", "u2")

	var released []string
	s.On(EventLockReleased, func(e Event) { released = append(released, e.NodeID) })

	if !s.RemoveUser("u1") {
		t.Fatal("RemoveUser(u1) = false")
	}
	if want := []string{"a", "b"}; !slices.Equal(released, want) {
		t.Errorf("released = %v, want %v", released, want)
	}
	if locks := s.Locks(); len(locks) != 1 || locks["c"] != "u2" {
		t.Errorf("locks = %v", locks)
	}
	if len(s.Users()) != 0 {
		t.Error("u1 still listed")
	}
	if s.RemoveUser("u1") {
		t.Error("second RemoveUser reported true")
	}
}

func TestConflictScenario(t *testing.T) {
	s := newTestSession()

	res, err := s.AddOperation(update("u1", "n1", 0))
	if err != nil || !res.Accepted() {
		t.Fatalf("first update: %v, %v", res.Outcome, err)
	}

	var conflicts []Event
	s.On(EventConflict, func(e Event) { conflicts = append(conflicts, e) })

	res, err = s.AddOperation(update("u2", "n1", 2*time.Second))
	if err != nil {
		t.Fatalf("AddOperation: %v", err)
	}
	if res.Outcome != Rejected {
		t.Fatal("second update within the window was accepted")
	}
	if res.Conflict == nil || res.Conflict.Existing.UserID != "u1" {
		t.Errorf("conflict = %+v", res.Conflict)
	}
	// Last write wins suggests the later, incoming edit.
	if res.Conflict.Suggested.UserID != "u2" {
		t.Errorf("suggested = %q, want u2", res.Conflict.Suggested.UserID)
	}
	if s.Len() != 1 {
		t.Errorf("log length = %d, rejected op entered the log", s.Len())
	}
	if len(conflicts) != 1 {
		t.Errorf("conflict events = %d, want 1", len(conflicts))
	}
}

func TestConflictWindowBounds(t *testing.T) {
	tests := []struct {
		name   string
		window Window
		setup  []Operation
		op     Operation
		want   Outcome
	}{
		{
			name:  "SameUser",
			setup: []Operation{update("u1", "n1", 0)},
			op:    update("u1", "n1", time.Second),
			want:  Accepted,
		},
		{
			name:  "OtherNode",
			setup: []Operation{update("u1", "n1", 0)},
			op:    update("u2", "n2", time.Second),
			want:  Accepted,
		},
		{
			name:  "OutsideDuration",
			setup: []Operation{update("u1", "n1", 0)},
			op:    update("u2", "n1", 6*time.Second),
			want:  Accepted,
		},
		{
			name:  "AtDurationEdge",
			setup: []Operation{update("u1", "n1", 0)},
			op:    update("u2", "n1", 5*time.Second),
			want:  Rejected,
		},
		{
			name:   "BeyondDepth",
			window: Window{Duration: time.Minute, Depth: 2},
			setup: []Operation{
				update("u1", "n1", 0),
				update("u3", "x", 0),
				update("u3", "y", 0),
			},
			op:   update("u2", "n1", time.Second),
			want: Accepted,
		},
		{
			name:   "WiderWindow",
			window: Window{Duration: time.Minute, Depth: 10},
			setup:  []Operation{update("u1", "n1", 0)},
			op:     update("u2", "n1", 30*time.Second),
			want:   Rejected,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var opts []Option
			if tt.window != (Window{}) {
				opts = append(opts, WithWindow(tt.window))
			}
			s := newTestSession(opts...)
			for _, op := range tt.setup {
				if res, err := s.AddOperation(op); err != nil || !res.Accepted() {
					t.Fatalf("setup op rejected: %v %v", res.Outcome, err)
				}
			}
			res, err := s.AddOperation(tt.op)
			if err != nil {
				t.Fatal(err)
			}
			if res.Outcome != tt.want {
				t.Errorf("outcome = %v, want %v", res.Outcome, tt.want)
			}
		})
	}
}

func TestAdmitLockedNode(t *testing.T) {
	s := newTestSession()
	s.LockNode("n1", "u1")
	_, err := s.AddOperation(update("u2", "n1", 0))
	if !errors.Is(err, errors.ErrCodeInvalidOperation) {
		t.Errorf("error = %v, want INVALID_OPERATION", err)
	}
	if res, err := s.AddOperation(update("u1", "n1", 0)); err != nil || !res.Accepted() {
		t.Errorf("holder's op: %v, %v", res.Outcome, err)
	}
}

func TestAdmitApply(t *testing.T) {
	s := newTestSession()

	res, err := s.Admit(Operation{Kind: OpNodeCreate, UserID: "u1", NodeID: "n1"}, func(op Operation) (Operation, error) {
		return op.WithPayload(map[string]string{"text": "hello"})
	})
	if err != nil {
		t.Fatal(err)
	}
	if !res.Op.Applied || string(res.Op.Payload) != `{"text":"hello"}` {
		t.Errorf("recorded op = %+v", res.Op)
	}
	if res.Op.ID != "op1" || !res.Op.Timestamp.Equal(t0) {
		t.Errorf("ID/timestamp not filled in: %+v", res.Op)
	}

	boom := stderrors.New("boom")
	_, err = s.Admit(Operation{Kind: OpNodeCreate, UserID: "u1", NodeID: "n2"}, func(op Operation) (Operation, error) {
		return op, boom
	})
	if !stderrors.Is(err, boom) {
		t.Errorf("error = %v, want boom", err)
	}
	if s.Len() != 1 {
		t.Errorf("failed apply was logged")
	}

	if _, err := s.AddOperation(Operation{Kind: "explode", UserID: "u1"}); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("unknown kind error = %v", err)
	}
}

func TestLogIsCopied(t *testing.T) {
	s := newTestSession()
	_, _ = s.AddOperation(Operation{Kind: OpNodeCreate, UserID: "u1", NodeID: "n1", Payload: []byte(`{"a":1}`)})

	l := s.Log()
	l[0].Payload[2] = 'X'
	l[0].UserID = "mallory"

	fresh := s.Log()
	if string(fresh[0].Payload) != `{"a":1}` || fresh[0].UserID != "u1" {
		t.Errorf("log was mutated through a copy: %+v", fresh[0])
	}
}

// recorder applies operations by tracking which nodes exist.
type recorder struct {
	nodes map[string]bool
	seen  []OpKind
}

func (r *recorder) apply(op Operation) (Operation, error) {
	r.seen = append(r.seen, op.Kind)
	switch op.Kind {
	case OpNodeCreate:
		r.nodes[op.NodeID] = true
	case OpNodeDelete:
		delete(r.nodes, op.NodeID)
	}
	return op, nil
}

func TestUndoRedo(t *testing.T) {
	s := newTestSession()
	r := &recorder{nodes: map[string]bool{}}

	create := Operation{Kind: OpNodeCreate, UserID: "u1", NodeID: "n1", Payload: []byte(`{"text":"idea"}`)}
	if _, err := s.Admit(create, r.apply); err != nil {
		t.Fatal(err)
	}

	res, err := s.Undo("u1", r.apply)
	if err != nil {
		t.Fatalf("Undo: %v", err)
	}
	if res.Op.Kind != OpNodeDelete || res.Op.Compensates != "op1" {
		t.Errorf("undo op = %+v", res.Op)
	}
	if string(res.Op.Payload) != `{"text":"idea"}` {
		t.Errorf("undo payload = %s", res.Op.Payload)
	}
	if r.nodes["n1"] {
		t.Error("n1 still exists after undo")
	}

	res, err = s.Redo("u1", r.apply)
	if err != nil {
		t.Fatalf("Redo: %v", err)
	}
	if res.Op.Kind != OpNodeCreate || res.Op.Compensates != "op2" {
		t.Errorf("redo op = %+v", res.Op)
	}
	if !r.nodes["n1"] {
		t.Error("n1 missing after redo")
	}

	// History is append-only.
	kinds := make([]OpKind, 0)
	for _, op := range s.Log() {
		kinds = append(kinds, op.Kind)
	}
	if want := []OpKind{OpNodeCreate, OpNodeDelete, OpNodeCreate}; !slices.Equal(kinds, want) {
		t.Errorf("log kinds = %v, want %v", kinds, want)
	}

	// The redone create can be undone again.
	if _, err := s.Undo("u1", r.apply); err != nil {
		t.Fatalf("second Undo: %v", err)
	}
	if r.nodes["n1"] {
		t.Error("n1 exists after second undo")
	}
}

func TestUndoNothing(t *testing.T) {
	s := newTestSession()
	r := &recorder{nodes: map[string]bool{}}

	if _, err := s.Undo("u1", r.apply); !stderrors.Is(err, ErrNothingToUndo) {
		t.Errorf("empty history error = %v", err)
	}

	_, _ = s.Admit(Operation{Kind: OpNodeCreate, UserID: "u1", NodeID: "n1"}, r.apply)
	_, _ = s.Admit(update("u1", "n1", 0), r.apply)

	// The update has no inverse; the cursor moves past it.
	if _, err := s.Undo("u1", r.apply); !stderrors.Is(err, ErrNothingToUndo) {
		t.Errorf("undo update error = %v", err)
	}
	res, err := s.Undo("u1", r.apply)
	if err != nil || res.Op.Kind != OpNodeDelete {
		t.Errorf("undo create = %+v, %v", res.Op, err)
	}
	if _, err := s.Redo("u2", r.apply); !stderrors.Is(err, ErrNothingToUndo) {
		t.Errorf("redo for other user error = %v", err)
	}
}

func TestFreshOpClearsRedo(t *testing.T) {
	s := newTestSession()
	r := &recorder{nodes: map[string]bool{}}

	_, _ = s.Admit(Operation{Kind: OpNodeCreate, UserID: "u1", NodeID: "n1"}, r.apply)
	_, _ = s.Undo("u1", r.apply)
	_, _ = s.Admit(Operation{Kind: OpNodeCreate, UserID: "u1", NodeID: "n2"}, r.apply)

	if _, err := s.Redo("u1", r.apply); !stderrors.Is(err, ErrNothingToUndo) {
		t.Errorf("redo after fresh op error = %v", err)
	}
}

func TestUndoRejectedKeepsCursor(t *testing.T) {
	clock, advance := manualClock()
	s := NewSession(WithClock(clock), WithIDGenerator(seqIDs()))
	r := &recorder{nodes: map[string]bool{}}

	_, _ = s.Admit(Operation{Kind: OpNodeCreate, UserID: "u1", NodeID: "n1"}, r.apply)
	advance(10 * time.Second)
	_, _ = s.Admit(Operation{Kind: OpNodeUpdate, UserID: "u2", NodeID: "n1"}, r.apply)

	res, err := s.Undo("u1", r.apply)
	if err != nil {
		t.Fatal(err)
	}
	if res.Outcome != Rejected {
		t.Fatal("undo inside u2's window should be rejected")
	}

	advance(10 * time.Second)
	res, err = s.Undo("u1", r.apply)
	if err != nil || !res.Accepted() {
		t.Fatalf("retry undo = %v, %v", res.Outcome, err)
	}
}

func TestUndoApplyErrorMovesCursor(t *testing.T) {
	s := newTestSession()
	r := &recorder{nodes: map[string]bool{}}

	_, _ = s.Admit(Operation{Kind: OpNodeCreate, UserID: "u1", NodeID: "n1"}, r.apply)
	_, _ = s.Admit(Operation{Kind: OpNodeCreate, UserID: "u1", NodeID: "n2"}, r.apply)

	gone := errors.NotFound("node", "n2")
	failing := func(op Operation) (Operation, error) {
		if op.NodeID == "n2" {
			return op, gone
		}
		return r.apply(op)
	}
	if _, err := s.Undo("u1", failing); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Fatalf("undo n2 error = %v, want NOT_FOUND", err)
	}
	res, err := s.Undo("u1", failing)
	if err != nil || res.Op.NodeID != "n1" {
		t.Fatalf("next undo = %+v, %v; want n1 undone", res.Op, err)
	}
	if r.nodes["n1"] {
		t.Error("n1 still exists")
	}
	if _, err := s.Undo("u1", failing); !stderrors.Is(err, ErrNothingToUndo) {
		t.Errorf("exhausted history error = %v", err)
	}
}

func TestUndoLockedKeepsCursor(t *testing.T) {
	s := newTestSession()
	r := &recorder{nodes: map[string]bool{}}

	_, _ = s.Admit(Operation{Kind: OpNodeCreate, UserID: "u1", NodeID: "n1"}, r.apply)
	if !s.LockNode("n1", "u2") {
		t.Fatal("LockNode failed")
	}
	if _, err := s.Undo("u1", r.apply); !errors.Is(err, errors.ErrCodeInvalidOperation) {
		t.Fatalf("undo on locked node error = %v", err)
	}
	s.UnlockNode("n1", "u2")

	res, err := s.Undo("u1", r.apply)
	if err != nil || !res.Accepted() {
		t.Fatalf("undo after unlock = %v, %v", res.Outcome, err)
	}
}

func TestEventsOrder(t *testing.T) {
	s := newTestSession()
	var got []string
	first := s.On(EventOperation, func(Event) { got = append(got, "first") })
	s.On(EventOperation, func(Event) { got = append(got, "second") })
	s.On(EventOperation, func(e Event) {
		// Handlers run outside the session lock.
		_ = s.Len()
		got = append(got, "third")
	})

	_, _ = s.AddOperation(update("u1", "n1", 0))
	if want := []string{"first", "second", "third"}; !slices.Equal(got, want) {
		t.Errorf("order = %v, want %v", got, want)
	}

	if !s.Off(EventOperation, first) {
		t.Fatal("Off = false")
	}
	if s.Off(EventOperation, first) {
		t.Error("second Off = true")
	}
	got = nil
	_, _ = s.AddOperation(update("u1", "n2", 0))
	if want := []string{"second", "third"}; !slices.Equal(got, want) {
		t.Errorf("after Off = %v, want %v", got, want)
	}
}

func TestPresence(t *testing.T) {
	s := newTestSession()
	if err := s.UpdatePresence("ghost", Presence{}); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("unknown user error = %v", err)
	}
	if err := s.Join(User{ID: ""}); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("empty id error = %v", err)
	}

	_ = s.Join(User{ID: "u1", Name: "Ada", Color: "#f00"})
	_ = s.Join(User{ID: "u2", Name: "Grace"})

	cursor := mindmap.Position{X: 3, Y: 4}
	if err := s.UpdatePresence("u1", Presence{FocusNode: "n1", Cursor: &cursor}); err != nil {
		t.Fatal(err)
	}
	cursor.X = 99

	users := s.Users()
	if len(users) != 2 || users[0].User.ID != "u1" || users[1].User.ID != "u2" {
		t.Fatalf("users = %+v", users)
	}
	p := users[0].Presence
	if p.Status != StatusOnline || p.FocusNode != "n1" || p.Cursor.X != 3 {
		t.Errorf("presence = %+v", p)
	}
}

func TestResolvers(t *testing.T) {
	older := Operation{ID: "old", Timestamp: t0}
	newer := Operation{ID: "new", Timestamp: t0.Add(time.Second)}

	if got := (LastWriteWins{}).Resolve(newer, older); got.ID != "new" {
		t.Errorf("LWW picked %s", got.ID)
	}
	if got := (Manual{}).Resolve(older, newer); got.ID != "new" {
		t.Errorf("Manual without chooser picked %s", got.ID)
	}
	keepOld := Manual{Choose: func(e, _ Operation) (Operation, bool) { return e, true }}
	if got := keepOld.Resolve(older, newer); got.ID != "old" {
		t.Errorf("Manual chooser ignored, picked %s", got.ID)
	}
}

func TestInverse(t *testing.T) {
	for _, k := range OpKinds {
		inv, ok := k.Inverse()
		if !ok {
			continue
		}
		if back, _ := inv.Inverse(); back != k {
			t.Errorf("inverse of inverse of %s = %s", k, back)
		}
	}
	for _, k := range []OpKind{OpNodeUpdate, OpNodeMove, OpNodeReparent, OpStyleUpdate} {
		if _, ok := k.Inverse(); ok {
			t.Errorf("%s should have no inverse", k)
		}
	}
}
