package core

import (
	"context"
	"time"
)

// Handle is the engine's exclusive controller for one playable resource.
// Implementations must be safe for concurrent use.
type Handle interface {
	// Load replaces the current media with locator. A MetadataReady
	// event follows once the length is known.
	Load(ctx context.Context, locator string) error

	// Playback control
	Play(ctx context.Context) error
	Pause(ctx context.Context) error
	Seek(ctx context.Context, position time.Duration) error

	// Output control
	SetVolume(ctx context.Context, percent int) error
	SetMuted(ctx context.Context, muted bool) error
	SetRate(ctx context.Context, rate float64) error

	// Position reads the live playhead.
	Position(ctx context.Context) (time.Duration, error)
	// Playing reports whether the media is neither paused nor ended.
	Playing() bool

	// Events delivers lifecycle notifications. The channel is closed by Close.
	Events() <-chan HandleEvent

	Close() error
}

// HandleEventType enumerates handle notifications.
type HandleEventType int

const (
	EventMetadataReady HandleEventType = iota
	EventStall
	EventResumable
	EventEnded
)

func (t HandleEventType) String() string {
	switch t {
	case EventMetadataReady:
		return "metadata-ready"
	case EventStall:
		return "stall"
	case EventResumable:
		return "resumable"
	case EventEnded:
		return "ended"
	default:
		return "unknown"
	}
}

// HandleEvent is a lifecycle notification from a Handle. Duration is set
// for EventMetadataReady only.
type HandleEvent struct {
	Type     HandleEventType
	Duration time.Duration
}
