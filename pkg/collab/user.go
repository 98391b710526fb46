package collab

import (
	"time"

	"github.com/matzehuels/mindweave/pkg/mindmap"
)

// User identifies a collaborator.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}

// Status is a collaborator's availability.
type Status string

const (
	StatusOnline  Status = "online"
	StatusIdle    Status = "idle"
	StatusAway    Status = "away"
	StatusOffline Status = "offline"
)

// Presence is the mutable, per-connection state of a collaborator.
type Presence struct {
	Status    Status            `json:"status"`
	LastSeen  time.Time         `json:"last_seen"`
	FocusNode string            `json:"focus_node,omitempty"`
	Cursor    *mindmap.Position `json:"cursor,omitempty"`
}

// Member pairs a user with their current presence.
type Member struct {
	User     User     `json:"user"`
	Presence Presence `json:"presence"`
}
