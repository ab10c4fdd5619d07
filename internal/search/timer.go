package search

import (
	"sync"
	"time"
)

// Timer runs at most one pending action. Arming it again cancels the
// action that was waiting.
type Timer struct {
	mu    sync.Mutex
	timer *time.Timer
}

// Arm schedules action after delay, replacing any pending action.
func (t *Timer) Arm(delay time.Duration, action func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.timer != nil {
		t.timer.Stop()
	}
	t.timer = time.AfterFunc(delay, action)
}

// Cancel drops the pending action, if any.
func (t *Timer) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}
