// Package clock samples a handle's live position into the session while
// playback runs. It never writes to the handle.
package clock

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/tessro/earshot/internal/core"
	"github.com/tessro/earshot/internal/log"
	"github.com/tessro/earshot/internal/session"
)

// Loop copies handle position into a session on every scheduler tick.
type Loop struct {
	ctx     context.Context
	handle  core.Handle
	session *session.Session
	sched   Scheduler
	log     *logrus.Entry

	mu       sync.Mutex
	finished bool
}

func newLoop(ctx context.Context, h core.Handle, s *session.Session, sched Scheduler) *Loop {
	return &Loop{
		ctx:     ctx,
		handle:  h,
		session: s,
		sched:   sched,
		log:     log.For("clock"),
	}
}

// Running reports whether the loop is still sampling.
func (l *Loop) Running() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return !l.finished
}

// Stop halts sampling and performs one final read. It waits for an
// in-flight tick, so nothing is written to the session after it returns.
func (l *Loop) Stop() {
	first := l.finish()
	l.sched.Stop()
	if first {
		l.sample()
		l.log.Debug("clock stopped")
	}
}

func (l *Loop) start() {
	l.log.Debug("clock started")
	l.sched.Start(l.tick)
}

// tick samples while the session wants playback, the handle is
// actually playing and ctx is live. The tick that sees either condition drop does the
// final read and ends the schedule.
func (l *Loop) tick() bool {
	l.mu.Lock()
	done := l.finished
	l.mu.Unlock()
	if done {
		return false
	}

	if l.ctx.Err() != nil || !l.session.IsPlaying() || !l.handle.Playing() {
		if l.finish() {
			l.sample()
			l.log.Debug("clock ended: playback stopped")
		}
		return false
	}

	l.sample()
	return true
}

func (l *Loop) finish() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.finished {
		return false
	}
	l.finished = true
	return true
}

func (l *Loop) sample() {
	pos, err := l.handle.Position(l.ctx)
	if err != nil {
		l.log.WithError(err).Debug("position read failed")
		return
	}
	l.session.SetCurrentTime(pos)
}
