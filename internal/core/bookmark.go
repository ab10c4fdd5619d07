package core

import "time"

// Bookmark is a named timestamp attached to a resource.
type Bookmark struct {
	ID        string        `json:"id"`
	Label     string        `json:"label"`
	Timestamp time.Duration `json:"timestamp"`
	// Pending marks a client-side placeholder awaiting server confirmation.
	Pending bool `json:"pending,omitempty"`
}
