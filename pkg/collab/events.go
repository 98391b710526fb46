package collab

import (
	"slices"
	"sync"
)

// EventKind names a session event.
type EventKind string

const (
	EventUserJoined   EventKind = "user_joined"
	EventUserLeft     EventKind = "user_left"
	EventPresence     EventKind = "presence"
	EventLockAcquired EventKind = "lock_acquired"
	EventLockReleased EventKind = "lock_released"
	EventOperation    EventKind = "operation"
	EventConflict     EventKind = "conflict"
)

// Event is delivered to handlers registered with Session.On. Only the fields
// relevant to Kind are set.
type Event struct {
	Kind     EventKind
	UserID   string
	NodeID   string
	Op       *Operation
	Conflict *Conflict
	Presence *Presence
}

// Handler receives session events.
type Handler func(Event)

// HandlerID identifies a registration for Off.
type HandlerID uint64

type registration struct {
	id HandlerID
	fn Handler
}

// dispatcher fans events out to handlers in registration order.
type dispatcher struct {
	mu       sync.Mutex
	next     HandlerID
	handlers map[EventKind][]registration
}

func (d *dispatcher) on(kind EventKind, fn Handler) HandlerID {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.handlers == nil {
		d.handlers = make(map[EventKind][]registration)
	}
	d.next++
	d.handlers[kind] = append(d.handlers[kind], registration{d.next, fn})
	return d.next
}

func (d *dispatcher) off(kind EventKind, id HandlerID) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	regs := d.handlers[kind]
	i := slices.IndexFunc(regs, func(r registration) bool { return r.id == id })
	if i < 0 {
		return false
	}
	d.handlers[kind] = slices.Delete(slices.Clone(regs), i, i+1)
	return true
}

// emit calls handlers for each event in turn. The handler list is read once
// per event, so a handler may register or remove handlers without deadlock.
func (d *dispatcher) emit(events ...Event) {
	for _, ev := range events {
		d.mu.Lock()
		regs := d.handlers[ev.Kind]
		d.mu.Unlock()
		for _, r := range regs {
			r.fn(ev)
		}
	}
}
