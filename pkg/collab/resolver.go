package collab

// Conflict describes why an operation was rejected.
type Conflict struct {
	// Incoming is the rejected operation.
	Incoming Operation `json:"incoming"`
	// Existing is the logged operation it collided with.
	Existing Operation `json:"existing"`
	// Suggested is the operation the resolver would keep. It is advisory;
	// the session never applies it on its own.
	Suggested Operation `json:"suggested"`
}

// ConflictResolver picks which of two colliding operations should win.
type ConflictResolver interface {
	Resolve(existing, incoming Operation) Operation
}

// LastWriteWins prefers the operation with the later timestamp. On a tie
// the incoming operation wins.
type LastWriteWins struct{}

func (LastWriteWins) Resolve(existing, incoming Operation) Operation {
	if existing.Timestamp.After(incoming.Timestamp) {
		return existing
	}
	return incoming
}

// Manual is the hook for interactive resolution. Until a user picks a side it
// behaves like LastWriteWins.
type Manual struct {
	// Choose, when set, is asked first; returning false defers to
	// last-write-wins.
	Choose func(existing, incoming Operation) (Operation, bool)
}

func (m Manual) Resolve(existing, incoming Operation) Operation {
	if m.Choose != nil {
		if op, ok := m.Choose(existing, incoming); ok {
			return op
		}
	}
	return LastWriteWins{}.Resolve(existing, incoming)
}
