package collab

import (
	"io"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/mindweave/pkg/errors"
)

// Window bounds conflict detection: an incoming operation is compared with at
// most Depth of the newest log entries, and only those within Duration of it
// count as conflicting.
type Window struct {
	Duration time.Duration `toml:"duration" validate:"gte=0"`
	Depth    int           `toml:"depth" validate:"gte=0"`
}

// DefaultWindow is five seconds over the last ten operations.
var DefaultWindow = Window{Duration: 5 * time.Second, Depth: 10}

// Session is the shared state of one collaborative editing session: members,
// node locks and the operation log. All methods are safe for concurrent use.
type Session struct {
	mu sync.Mutex

	members map[string]*Member
	joined  []string
	locks   map[string]string // node ID -> user ID

	log  []Operation
	byID map[string]int
	undo map[string][]string // user ID -> op IDs, newest last
	redo map[string][]string // user ID -> compensating op IDs, newest last

	window   Window
	resolver ConflictResolver
	logger   *log.Logger
	newID    func() string
	now      func() time.Time

	events dispatcher
}

// Option configures a Session.
type Option func(*Session)

// WithWindow sets the conflict window.
func WithWindow(w Window) Option {
	return func(s *Session) { s.window = w }
}

// WithResolver sets the conflict resolver (default LastWriteWins).
func WithResolver(r ConflictResolver) Option {
	return func(s *Session) {
		if r != nil {
			s.resolver = r
		}
	}
}

// WithLogger sets the logger (default discards output).
func WithLogger(l *log.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock overrides the timestamp source.
func WithClock(fn func() time.Time) Option {
	return func(s *Session) {
		if fn != nil {
			s.now = fn
		}
	}
}

// WithIDGenerator overrides the operation ID generator.
func WithIDGenerator(fn func() string) Option {
	return func(s *Session) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// NewSession returns an empty session.
func NewSession(opts ...Option) *Session {
	s := &Session{
		members:  make(map[string]*Member),
		locks:    make(map[string]string),
		byID:     make(map[string]int),
		undo:     make(map[string][]string),
		redo:     make(map[string][]string),
		window:   DefaultWindow,
		resolver: LastWriteWins{},
		logger:   log.New(io.Discard),
		newID:    uuid.NewString,
		now:      func() time.Time { return time.Now().UTC().Round(0) },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Window returns the conflict window in effect.
func (s *Session) Window() Window {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.window
}

// On registers a handler for kind and returns an ID for Off.
func (s *Session) On(kind EventKind, fn Handler) HandlerID {
	return s.events.on(kind, fn)
}

// Off removes a handler, reporting whether it was registered.
func (s *Session) Off(kind EventKind, id HandlerID) bool {
	return s.events.off(kind, id)
}

// =============================================================================
// Members and presence
// =============================================================================

// Join adds a user to the session, or refreshes their identity if they are
// already present.
func (s *Session) Join(u User) error {
	if err := errors.ValidateID(u.ID); err != nil {
		return err
	}
	s.mu.Lock()
	m, ok := s.members[u.ID]
	if ok {
		m.User = u
	} else {
		m = &Member{User: u}
		s.members[u.ID] = m
		s.joined = append(s.joined, u.ID)
	}
	m.Presence.Status = StatusOnline
	m.Presence.LastSeen = s.now()
	p := m.Presence
	s.mu.Unlock()

	s.logger.Debug("user joined", "user", u.ID, "name", u.Name)
	s.events.emit(Event{Kind: EventUserJoined, UserID: u.ID, Presence: &p})
	return nil
}

// RemoveUser drops a user and releases every lock they hold. It reports
// whether the user was a member or held any lock.
func (s *Session) RemoveUser(userID string) bool {
	s.mu.Lock()
	_, member := s.members[userID]
	delete(s.members, userID)
	s.joined = slices.DeleteFunc(s.joined, func(id string) bool { return id == userID })

	var events []Event
	for _, node := range slices.Sorted(maps.Keys(s.locks)) {
		if s.locks[node] == userID {
			delete(s.locks, node)
			events = append(events, Event{Kind: EventLockReleased, UserID: userID, NodeID: node})
		}
	}
	s.mu.Unlock()

	if !member && len(events) == 0 {
		return false
	}
	s.logger.Debug("user left", "user", userID, "released", len(events))
	events = append(events, Event{Kind: EventUserLeft, UserID: userID})
	s.events.emit(events...)
	return true
}

// UpdatePresence replaces a member's presence. LastSeen is stamped by the
// session; an empty Status keeps the current one.
func (s *Session) UpdatePresence(userID string, p Presence) error {
	s.mu.Lock()
	m, ok := s.members[userID]
	if !ok {
		s.mu.Unlock()
		return errors.NotFound("user", userID)
	}
	if p.Status == "" {
		p.Status = m.Presence.Status
	}
	if p.Cursor != nil {
		c := *p.Cursor
		p.Cursor = &c
	}
	p.LastSeen = s.now()
	m.Presence = p
	s.mu.Unlock()

	s.events.emit(Event{Kind: EventPresence, UserID: userID, NodeID: p.FocusNode, Presence: &p})
	return nil
}

// Users returns the current members in join order.
func (s *Session) Users() []Member {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Member, 0, len(s.joined))
	for _, id := range s.joined {
		m := *s.members[id]
		if m.Presence.Cursor != nil {
			c := *m.Presence.Cursor
			m.Presence.Cursor = &c
		}
		out = append(out, m)
	}
	return out
}

// =============================================================================
// Locks
// =============================================================================

// LockNode gives userID the lock on nodeID. It returns false, without
// blocking, if another user holds it; re-locking one's own node succeeds.
// Users need not have joined to take locks.
func (s *Session) LockNode(nodeID, userID string) bool {
	s.mu.Lock()
	holder, held := s.locks[nodeID]
	if held && holder != userID {
		s.mu.Unlock()
		s.logger.Debug("lock refused", "node", nodeID, "user", userID, "holder", holder)
		return false
	}
	s.locks[nodeID] = userID
	s.mu.Unlock()

	if !held {
		s.events.emit(Event{Kind: EventLockAcquired, UserID: userID, NodeID: nodeID})
	}
	return true
}

// UnlockNode releases nodeID if userID holds it.
func (s *Session) UnlockNode(nodeID, userID string) bool {
	s.mu.Lock()
	if s.locks[nodeID] != userID || userID == "" {
		s.mu.Unlock()
		return false
	}
	delete(s.locks, nodeID)
	s.mu.Unlock()

	s.events.emit(Event{Kind: EventLockReleased, UserID: userID, NodeID: nodeID})
	return true
}

// LockHolder returns the user holding nodeID's lock.
func (s *Session) LockHolder(nodeID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.locks[nodeID]
	return u, ok
}

// Locks returns a copy of the lock table (node ID to user ID).
func (s *Session) Locks() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return maps.Clone(s.locks)
}
