package core

import "time"

// Resource is a remote media item that can be selected for playback.
type Resource struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Locator      string        `json:"locator"`
	FileType     string        `json:"file_type"`
	FileSize     int64         `json:"file_size"`
	Duration     time.Duration `json:"duration"`
	Status       string        `json:"status"`
	CreatedAt    time.Time     `json:"created_at"`
	TranscriptID string        `json:"transcript_id,omitempty"`
}

// TranscriptAvailable reports whether remote search can run for r.
func (r Resource) TranscriptAvailable() bool {
	return r.TranscriptID != ""
}

// Metadata is what loadResourceMetadata yields: enough to open a session.
type Metadata struct {
	Resource            Resource
	Locator             string
	Duration            time.Duration
	TranscriptID        string
	TranscriptAvailable bool
}
