// Package mediatest provides a scriptable core.Handle for tests.
package mediatest

import (
	"context"
	"sync"
	"time"

	"github.com/tessro/earshot/internal/core"
)

var _ core.Handle = (*Handle)(nil)

// Handle is an in-memory core.Handle. The zero value is not usable; call New.
type Handle struct {
	mu       sync.Mutex
	locator  string
	position time.Duration
	playing  bool
	ended    bool
	volume   int
	muted    bool
	rate     float64
	closed   bool

	playErr   error
	playGate  chan struct{}
	playCalls int
	pauseGate chan struct{}
	pauses    int
	seeks     []time.Duration
	reads     int

	events chan core.HandleEvent
}

// New returns a stopped handle with nothing loaded.
func New() *Handle {
	return &Handle{
		volume: 100,
		rate:   1,
		events: make(chan core.HandleEvent, 32),
	}
}

// RejectPlay makes subsequent Play calls fail with err. Pass nil to accept.
func (h *Handle) RejectPlay(err error) {
	h.mu.Lock()
	h.playErr = err
	h.mu.Unlock()
}

// GatePlay makes Play block until the returned function is called.
func (h *Handle) GatePlay() (release func()) {
	gate := make(chan struct{})
	h.mu.Lock()
	h.playGate = gate
	h.mu.Unlock()
	var once sync.Once
	return func() { once.Do(func() { close(gate) }) }
}

// GatePause makes the next Pause block until the returned function is called.
func (h *Handle) GatePause() (release func()) {
	gate := make(chan struct{})
	h.mu.Lock()
	h.pauseGate = gate
	h.mu.Unlock()
	var once sync.Once
	return func() { once.Do(func() { close(gate) }) }
}

func (h *Handle) Load(_ context.Context, locator string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.locator = locator
	h.position = 0
	h.playing = false
	h.ended = false
	return nil
}

func (h *Handle) Play(ctx context.Context) error {
	h.mu.Lock()
	h.playCalls++
	gate := h.playGate
	h.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.playErr != nil {
		return h.playErr
	}
	h.playing = true
	h.ended = false
	return nil
}

func (h *Handle) Pause(ctx context.Context) error {
	h.mu.Lock()
	h.pauses++
	gate := h.pauseGate
	h.pauseGate = nil
	h.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	h.mu.Lock()
	h.playing = false
	h.mu.Unlock()
	return nil
}

func (h *Handle) Seek(_ context.Context, position time.Duration) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.seeks = append(h.seeks, position)
	h.position = position
	return nil
}

func (h *Handle) SetVolume(_ context.Context, percent int) error {
	h.mu.Lock()
	h.volume = percent
	h.mu.Unlock()
	return nil
}

func (h *Handle) SetMuted(_ context.Context, muted bool) error {
	h.mu.Lock()
	h.muted = muted
	h.mu.Unlock()
	return nil
}

func (h *Handle) SetRate(_ context.Context, rate float64) error {
	h.mu.Lock()
	h.rate = rate
	h.mu.Unlock()
	return nil
}

func (h *Handle) Position(context.Context) (time.Duration, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.reads++
	return h.position, nil
}

func (h *Handle) Playing() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.playing && !h.ended
}

func (h *Handle) Events() <-chan core.HandleEvent {
	return h.events
}

func (h *Handle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.closed {
		h.closed = true
		close(h.events)
	}
	return nil
}

// Advance moves the playhead as if the media clock ran.
func (h *Handle) Advance(d time.Duration) {
	h.mu.Lock()
	h.position += d
	h.mu.Unlock()
}

// SetPosition places the playhead without recording a seek.
func (h *Handle) SetPosition(p time.Duration) {
	h.mu.Lock()
	h.position = p
	h.mu.Unlock()
}

// Emit delivers an event as the media backend would.
func (h *Handle) Emit(ev core.HandleEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.events <- ev
}

// End simulates reaching the end of the media.
func (h *Handle) End() {
	h.mu.Lock()
	h.ended = true
	h.playing = false
	h.mu.Unlock()
	h.Emit(core.HandleEvent{Type: core.EventEnded})
}

// Locator returns the last loaded locator.
func (h *Handle) Locator() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.locator
}

// Seeks returns every position passed to Seek.
func (h *Handle) Seeks() []time.Duration {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]time.Duration(nil), h.seeks...)
}

// PlayCalls counts Play invocations.
func (h *Handle) PlayCalls() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.playCalls
}

// PauseCalls counts Pause invocations.
func (h *Handle) PauseCalls() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.pauses
}

// Reads counts Position invocations.
func (h *Handle) Reads() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.reads
}

// Output returns the last volume, mute flag and rate applied.
func (h *Handle) Output() (volume int, muted bool, rate float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.volume, h.muted, h.rate
}

// Closed reports whether Close was called.
func (h *Handle) Closed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closed
}
