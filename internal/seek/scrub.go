package seek

import (
	"context"
	"sync"
	"time"

	"github.com/tessro/earshot/internal/core"
)

// Scrubber holds the draft position of a drag. Preview touches neither
// the session nor the handle; only Commit seeks.
type Scrubber struct {
	ctrl *Controller

	mu     sync.Mutex
	draft  time.Duration
	active bool
}

// Preview moves the draft to t, clamped to the session duration.
func (s *Scrubber) Preview(t time.Duration) time.Duration {
	d := core.ClampTime(t, s.ctrl.session.State().Duration)
	s.mu.Lock()
	s.draft = d
	s.active = true
	s.mu.Unlock()
	return d
}

// Nudge moves the draft by delta, starting from the playhead if no drag
// is active.
func (s *Scrubber) Nudge(delta time.Duration) time.Duration {
	return s.Preview(s.Position() + delta)
}

// Position is the draft while dragging, otherwise the session playhead.
func (s *Scrubber) Position() time.Duration {
	s.mu.Lock()
	draft, active := s.draft, s.active
	s.mu.Unlock()
	if active {
		return draft
	}
	return s.ctrl.session.State().CurrentTime
}

// Active reports whether a drag is in progress.
func (s *Scrubber) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Commit seeks to the draft and ends the drag. Without an active drag it
// does nothing.
func (s *Scrubber) Commit(ctx context.Context) (time.Duration, error) {
	s.mu.Lock()
	draft, active := s.draft, s.active
	s.active = false
	s.mu.Unlock()

	if !active {
		return s.ctrl.session.State().CurrentTime, nil
	}
	return s.ctrl.Seek(ctx, draft)
}

// Cancel drops the draft.
func (s *Scrubber) Cancel() {
	s.mu.Lock()
	s.active = false
	s.mu.Unlock()
}
