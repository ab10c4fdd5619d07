// Package tail turns the stream of session updates into discrete,
// printable playback events.
package tail

import (
	"context"
	"sync"
	"time"

	"github.com/mitchellh/hashstructure/v2"
	"github.com/samber/lo"

	"github.com/tessro/earshot/internal/core"
	"github.com/tessro/earshot/internal/errors"
	"github.com/tessro/earshot/internal/session"
)

// EventType represents the type of playback event.
type EventType int

const (
	EventSelect EventType = iota
	EventReady
	EventPlay
	EventPause
	EventSeek
	EventEnded
	EventLoading
	EventVolumeChange
	EventMuteChange
	EventRateChange
	EventMarkAdded
	EventMarkRemoved
	EventSearch
	EventNotice
)

// seekThreshold is the smallest playhead jump reported as a seek. Clock
// samples move the playhead far less than this between updates.
const seekThreshold = 2 * time.Second

// Event represents a playback state change.
type Event struct {
	Type      EventType
	Timestamp time.Time
	Previous  *session.State
	Current   session.State
	Mark      core.Bookmark
	Notice    *errors.Notice
}

// Source delivers session updates.
type Source interface {
	Subscribe(fn func(session.Update)) (unsubscribe func())
}

// Watcher subscribes to a Source and emits events.
type Watcher struct {
	source Source
	events chan Event
	done   chan struct{}
	stop   sync.Once

	mu       sync.Mutex
	prev     *session.State
	lastHash uint64
	closed   bool
}

// NewWatcher creates a new state watcher.
func NewWatcher(source Source) *Watcher {
	return &Watcher{
		source: source,
		events: make(chan Event, 64),
		done:   make(chan struct{}),
	}
}

// Events returns the channel of playback events.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Start watches until ctx is done or Stop is called, then closes Events.
func (w *Watcher) Start(ctx context.Context) error {
	unsubscribe := w.source.Subscribe(w.observe)
	defer func() {
		unsubscribe()
		w.mu.Lock()
		w.closed = true
		close(w.events)
		w.mu.Unlock()
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-w.done:
		return nil
	}
}

// Stop stops the watcher.
func (w *Watcher) Stop() {
	w.stop.Do(func() { close(w.done) })
}

func (w *Watcher) observe(u session.Update) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}

	// clock ticks within the same second hash alike
	hash, err := hashstructure.Hash(fingerprintOf(u), hashstructure.FormatV2, nil)
	if err == nil && u.Notice == nil && w.prev != nil && hash == w.lastHash {
		return
	}
	w.lastHash = hash

	curr := u.State
	for _, e := range diffStates(w.prev, curr, u.Notice) {
		select {
		case w.events <- e:
		default:
			// Drop event if channel is full
		}
	}
	w.prev = &curr
}

// fingerprint is the part of a state that can produce an event.
type fingerprint struct {
	Resource  string
	Second    int64
	Duration  time.Duration
	Playing   bool
	Loading   bool
	Volume    int
	Muted     bool
	Rate      float64
	Marks     []string
	SearchGen uint64
	Pending   bool
}

func fingerprintOf(u session.Update) fingerprint {
	st := u.State
	return fingerprint{
		Resource:  st.Resource.OrEmpty().ID,
		Second:    int64(st.CurrentTime / time.Second),
		Duration:  st.Duration,
		Playing:   st.IsPlaying,
		Loading:   st.IsLoading,
		Volume:    st.Volume,
		Muted:     st.IsMuted,
		Rate:      st.Rate,
		Marks:     lo.Map(st.Marks, func(b core.Bookmark, _ int) string { return b.ID }),
		SearchGen: st.Search.Generation,
		Pending:   st.Search.Pending,
	}
}

// diffStates compares two states and returns detected events.
func diffStates(prev *session.State, curr session.State, notice *errors.Notice) []Event {
	now := time.Now()
	var events []Event
	add := func(t EventType) *Event {
		events = append(events, Event{Type: t, Timestamp: now, Previous: prev, Current: curr})
		return &events[len(events)-1]
	}

	if notice != nil {
		add(EventNotice).Notice = notice
	}

	// First update or a new selection
	if prev == nil || resourceChanged(prev, curr) {
		if curr.Resource.IsPresent() {
			add(EventSelect)
		}
		return events
	}

	if prev.IsLoading && !curr.IsLoading {
		add(EventReady)
	} else if !prev.IsLoading && curr.IsLoading {
		add(EventLoading)
	}

	if ended(prev, curr) {
		add(EventEnded)
	} else {
		if !prev.IsPlaying && curr.IsPlaying {
			add(EventPlay)
		} else if prev.IsPlaying && !curr.IsPlaying {
			add(EventPause)
		}
		if seeked(prev, curr) {
			add(EventSeek)
		}
	}

	if prev.Volume != curr.Volume {
		add(EventVolumeChange)
	}
	if prev.IsMuted != curr.IsMuted {
		add(EventMuteChange)
	}
	if prev.Rate != curr.Rate {
		add(EventRateChange)
	}

	added, removed := lo.Difference(confirmed(curr.Marks), confirmed(prev.Marks))
	for _, b := range added {
		add(EventMarkAdded).Mark = b
	}
	for _, b := range removed {
		add(EventMarkRemoved).Mark = b
	}

	if prev.Search.Pending && !curr.Search.Pending && curr.Search.Generation == prev.Search.Generation &&
		curr.Search.Query != "" {
		add(EventSearch)
	}

	return events
}

func resourceChanged(prev *session.State, curr session.State) bool {
	return prev.Resource.OrEmpty().ID != curr.Resource.OrEmpty().ID
}

// ended returns true when playback stopped and rewound from near the end.
func ended(prev *session.State, curr session.State) bool {
	if !prev.IsPlaying || curr.IsPlaying || curr.CurrentTime != 0 || prev.Duration == 0 {
		return false
	}
	threshold := float64(prev.Duration) * 0.95
	return float64(prev.CurrentTime) >= threshold
}

func seeked(prev *session.State, curr session.State) bool {
	d := curr.CurrentTime - prev.CurrentTime
	return d > seekThreshold || d < -seekThreshold
}

// confirmed drops pending placeholders so a bookmark is reported once,
// when the store accepts it.
func confirmed(marks []core.Bookmark) []core.Bookmark {
	return lo.Filter(marks, func(b core.Bookmark, _ int) bool { return !b.Pending })
}
