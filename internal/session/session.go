// Package session holds the canonical playback state for one selected
// resource. All writes go through the mutators below, which clamp and
// notify subscribers in mutation order.
package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/samber/lo"
	"github.com/samber/mo"
	"github.com/sirupsen/logrus"

	"github.com/tessro/earshot/internal/core"
	"github.com/tessro/earshot/internal/errors"
	"github.com/tessro/earshot/internal/log"
)

// Options seeds a new session.
type Options struct {
	Resource mo.Option[core.Resource]
	// Duration is a provisional length. It does not count as the
	// handle's metadata report.
	Duration time.Duration
	Volume   int
	Rate     float64
	Loading  bool
}

// Session is the live association between a selected resource and its
// playback, bookmark and search state. After Close every mutator is a
// no-op, so late callbacks from in-flight work cannot leak into a
// successor session.
type Session struct {
	mu            sync.Mutex
	state         State
	durationKnown bool
	closed        bool

	subs    map[int]func(Update)
	nextSub int
	// deliver serializes subscriber calls so they observe mutation order.
	deliver sync.Mutex

	log *logrus.Entry
}

// New creates a session.
func New(opts Options) *Session {
	rate := opts.Rate
	if !core.ValidRate(rate) {
		rate = 1
	}
	id := opts.Resource.OrEmpty().ID
	return &Session{
		state: State{
			Resource:  opts.Resource,
			Duration:  max(opts.Duration, 0),
			Volume:    lo.Clamp(opts.Volume, 0, 100),
			Rate:      rate,
			IsLoading: opts.Loading,
		},
		subs: make(map[int]func(Update)),
		log:  log.For("session").WithField("resource", id),
	}
}

// State returns a snapshot of the session.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// Subscribe registers fn for every subsequent update and returns a
// function that removes it. fn runs on the mutating goroutine and must
// not call back into session mutators.
func (s *Session) Subscribe(fn func(Update)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
}

// Close detaches all subscribers and freezes the session.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.subs = make(map[int]func(Update))
	s.log.Debug("session closed")
}

// IsPlaying reports playback intent without copying the whole state.
func (s *Session) IsPlaying() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.IsPlaying
}

// Closed reports whether Close has been called.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// mutate applies fn under the lock. fn reports whether it changed
// anything; unchanged mutations are not broadcast unless they carry a
// notice.
func (s *Session) mutate(fn func(*State) bool, notice *errors.Notice) bool {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return false
	}
	changed := fn(&s.state)
	if !changed && notice == nil {
		s.mu.Unlock()
		return false
	}
	update := Update{State: s.state.clone(), Notice: notice}
	subs := lo.Values(s.subs)
	s.deliver.Lock()
	s.mu.Unlock()

	defer s.deliver.Unlock()
	for _, sub := range subs {
		sub(update)
	}
	return changed
}

// Notify emits a one-shot notice without changing state.
func (s *Session) Notify(n errors.Notice) {
	s.log.WithField("kind", n.Kind.String()).Warn(n.Message)
	s.mutate(func(*State) bool { return false }, &n)
}

// SetPlaying records playback intent.
func (s *Session) SetPlaying(playing bool) bool {
	return s.mutate(func(st *State) bool {
		if st.IsPlaying == playing {
			return false
		}
		st.IsPlaying = playing
		return true
	}, nil)
}

// RevertPlaying clears playback intent and emits n in the same update.
func (s *Session) RevertPlaying(n errors.Notice) {
	s.log.WithField("kind", n.Kind.String()).Warn(n.Message)
	s.mutate(func(st *State) bool {
		changed := st.IsPlaying
		st.IsPlaying = false
		return changed
	}, &n)
}

// SetCurrentTime writes the playhead, clamped to [0, duration], and
// returns the value stored.
func (s *Session) SetCurrentTime(t time.Duration) time.Duration {
	var stored time.Duration
	s.mutate(func(st *State) bool {
		stored = core.ClampTime(t, st.Duration)
		if stored == st.CurrentTime {
			return false
		}
		st.CurrentTime = stored
		return true
	}, nil)
	return stored
}

// Skip moves the playhead by delta, clamped, and returns the new time.
func (s *Session) Skip(delta time.Duration) time.Duration {
	var stored time.Duration
	s.mutate(func(st *State) bool {
		stored = core.ClampTime(st.CurrentTime+delta, st.Duration)
		if stored == st.CurrentTime {
			return false
		}
		st.CurrentTime = stored
		return true
	}, nil)
	return stored
}

// MetadataReady sets the duration once per load and clears loading.
// Later reports for the same load are ignored.
func (s *Session) MetadataReady(d time.Duration) bool {
	return s.mutate(func(st *State) bool {
		if s.durationKnown {
			return false
		}
		s.durationKnown = true
		st.Duration = max(d, 0)
		st.CurrentTime = core.ClampTime(st.CurrentTime, st.Duration)
		clampMarks(st.Marks, st.Duration)
		st.IsLoading = false
		return true
	}, nil)
}

// SetLoading toggles the stall indicator. Playback intent is untouched.
func (s *Session) SetLoading(loading bool) bool {
	return s.mutate(func(st *State) bool {
		if st.IsLoading == loading {
			return false
		}
		st.IsLoading = loading
		return true
	}, nil)
}

// Ended resets the session after the media finishes.
func (s *Session) Ended() {
	s.mutate(func(st *State) bool {
		changed := st.IsPlaying || st.CurrentTime != 0
		st.IsPlaying = false
		st.CurrentTime = 0
		return changed
	}, nil)
}

// SetVolume stores v clamped to [0, 100]. A positive volume unmutes.
// It returns the stored volume and whether mute was lifted.
func (s *Session) SetVolume(v int) (int, bool) {
	var stored int
	var unmuted bool
	s.mutate(func(st *State) bool {
		stored = lo.Clamp(v, 0, 100)
		unmuted = stored > 0 && st.IsMuted
		if stored == st.Volume && !unmuted {
			return false
		}
		st.Volume = stored
		if unmuted {
			st.IsMuted = false
		}
		return true
	}, nil)
	return stored, unmuted
}

// SetMuted stores the mute flag.
func (s *Session) SetMuted(muted bool) bool {
	return s.mutate(func(st *State) bool {
		if st.IsMuted == muted {
			return false
		}
		st.IsMuted = muted
		return true
	}, nil)
}

// SetRate stores r if it is one of core.PlaybackRates.
func (s *Session) SetRate(r float64) error {
	if !core.ValidRate(r) {
		return fmt.Errorf("%w: %v", errors.ErrInvalidRate, r)
	}
	s.mutate(func(st *State) bool {
		if st.Rate == r {
			return false
		}
		st.Rate = r
		return true
	}, nil)
	return nil
}

// CycleRate advances to the next supported rate and returns it.
func (s *Session) CycleRate() float64 {
	var next float64
	s.mutate(func(st *State) bool {
		next = core.NextRate(st.Rate)
		st.Rate = next
		return true
	}, nil)
	return next
}
