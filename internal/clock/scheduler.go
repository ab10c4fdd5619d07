package clock

import (
	"sync"
	"time"
)

// Scheduler drives a periodic callback.
type Scheduler interface {
	// Start calls tick repeatedly until tick returns false or Stop is called.
	Start(tick func() bool)
	// Stop halts the schedule. No tick runs after Stop returns. Stop must
	// not be called from inside tick.
	Stop()
}

// Ticker is a Scheduler firing at a fixed frame interval.
type Ticker struct {
	interval time.Duration

	mu     sync.Mutex
	done   chan struct{}
	exited chan struct{}
}

// NewTicker creates a frame scheduler. A non-positive interval means 30fps.
func NewTicker(interval time.Duration) *Ticker {
	if interval <= 0 {
		interval = time.Second / 30
	}
	return &Ticker{interval: interval}
}

// Start implements Scheduler. Starting a running Ticker restarts it.
func (t *Ticker) Start(tick func() bool) {
	t.Stop()

	t.mu.Lock()
	done := make(chan struct{})
	exited := make(chan struct{})
	t.done, t.exited = done, exited
	t.mu.Unlock()

	go func() {
		defer close(exited)

		ticker := time.NewTicker(t.interval)
		defer ticker.Stop()

		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if !tick() {
					return
				}
			}
		}
	}()
}

// Stop implements Scheduler.
func (t *Ticker) Stop() {
	t.mu.Lock()
	done, exited := t.done, t.exited
	t.done, t.exited = nil, nil
	t.mu.Unlock()

	if done == nil {
		return
	}
	close(done)
	<-exited
}
