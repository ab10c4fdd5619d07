package clock

import (
	"context"
	"sync"

	"github.com/tessro/earshot/internal/core"
	"github.com/tessro/earshot/internal/session"
)

// Registry enforces one Loop per handle.
type Registry struct {
	mu           sync.Mutex
	loops        map[core.Handle]*Loop
	newScheduler func() Scheduler
}

// NewRegistry creates a registry whose loops use schedulers from newScheduler.
func NewRegistry(newScheduler func() Scheduler) *Registry {
	return &Registry{
		loops:        make(map[core.Handle]*Loop),
		newScheduler: newScheduler,
	}
}

// Start begins sampling h into s. Any loop already running for h is
// stopped, final read included, before the new one starts.
func (r *Registry) Start(ctx context.Context, h core.Handle, s *session.Session) *Loop {
	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, ok := r.loops[h]; ok {
		prev.Stop()
	}
	l := newLoop(ctx, h, s, r.newScheduler())
	r.loops[h] = l
	l.start()
	return l
}

// Stop halts the loop for h, if any.
func (r *Registry) Stop(h core.Handle) {
	r.mu.Lock()
	l, ok := r.loops[h]
	delete(r.loops, h)
	r.mu.Unlock()

	if ok {
		l.Stop()
	}
}

// Active returns the running loop for h.
func (r *Registry) Active(h core.Handle) (*Loop, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.loops[h]
	if !ok || !l.Running() {
		return nil, false
	}
	return l, true
}
