// Package mpv drives an mpv process over its JSON IPC socket as a
// core.Handle.
package mpv

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tessro/earshot/internal/core"
	"github.com/tessro/earshot/internal/errors"
)

var _ core.Handle = (*Handle)(nil)

// Handle is one mpv instance. It is safe for concurrent use.
type Handle struct {
	socketPath string
	log        *logrus.Entry

	// set by Start for a process this handle owns
	cmd        *exec.Cmd
	exited     chan struct{}
	ownsSocket bool

	listener *listener

	mu           sync.Mutex
	loaded       bool
	paused       bool
	ended        bool
	idle         bool
	stalled      bool
	metadataSent bool
	closed       bool
	events       chan core.HandleEvent

	closeOnce sync.Once
}

// Attach connects to an mpv instance already listening on socketPath.
// Closing the handle asks that instance to quit.
func Attach(socketPath string, log *logrus.Entry) (*Handle, error) {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	h := &Handle{
		socketPath: socketPath,
		log:        log,
		paused:     true,
		idle:       true,
		events:     make(chan core.HandleEvent, 32),
	}

	l, err := listen(socketPath, h.onProperty, log)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errors.ErrPlayerUnavailable, err)
	}
	h.listener = l
	return h, nil
}

// Socket returns the IPC socket path.
func (h *Handle) Socket() string {
	return h.socketPath
}

func (h *Handle) Load(ctx context.Context, locator string) error {
	target, err := sanitizeLocator(locator)
	if err != nil {
		return fmt.Errorf("load: %w", err)
	}

	h.mu.Lock()
	h.loaded = true
	h.metadataSent = false
	h.ended = false
	h.stalled = false
	h.paused = true
	h.mu.Unlock()

	if err := h.set(ctx, "pause", true); err != nil {
		h.unload()
		return fmt.Errorf("load: %w", err)
	}
	if _, err := h.command(ctx, "loadfile", target, "replace"); err != nil {
		h.unload()
		return fmt.Errorf("load: %w", err)
	}

	h.log.WithField("locator", target).Debug("loaded media")
	return nil
}

func (h *Handle) unload() {
	h.mu.Lock()
	h.loaded = false
	h.mu.Unlock()
}

// Play unpauses. It is refused while nothing is loaded or when mpv
// rejects the change.
func (h *Handle) Play(ctx context.Context) error {
	h.mu.Lock()
	loaded := h.loaded
	h.mu.Unlock()
	if !loaded {
		return fmt.Errorf("play: nothing loaded: %w", errors.ErrPlaybackRejected)
	}

	if err := h.set(ctx, "pause", false); err != nil {
		var cmdErr *CommandError
		if stderrors.As(err, &cmdErr) {
			return fmt.Errorf("play: %w: %w", errors.ErrPlaybackRejected, err)
		}
		return fmt.Errorf("play: %w", err)
	}

	h.mu.Lock()
	h.paused = false
	h.mu.Unlock()
	return nil
}

func (h *Handle) Pause(ctx context.Context) error {
	if err := h.set(ctx, "pause", true); err != nil {
		return fmt.Errorf("pause: %w", err)
	}
	h.mu.Lock()
	h.paused = true
	h.mu.Unlock()
	return nil
}

func (h *Handle) Seek(ctx context.Context, position time.Duration) error {
	if _, err := h.command(ctx, "seek", position.Seconds(), "absolute"); err != nil {
		return fmt.Errorf("seek: %w", err)
	}
	h.mu.Lock()
	h.ended = false
	h.mu.Unlock()
	return nil
}

func (h *Handle) SetVolume(ctx context.Context, percent int) error {
	if err := h.set(ctx, "volume", percent); err != nil {
		return fmt.Errorf("set volume: %w", err)
	}
	return nil
}

func (h *Handle) SetMuted(ctx context.Context, muted bool) error {
	if err := h.set(ctx, "mute", muted); err != nil {
		return fmt.Errorf("set mute: %w", err)
	}
	return nil
}

func (h *Handle) SetRate(ctx context.Context, rate float64) error {
	if err := h.set(ctx, "speed", rate); err != nil {
		return fmt.Errorf("set speed: %w", err)
	}
	return nil
}

func (h *Handle) Position(ctx context.Context) (time.Duration, error) {
	data, err := h.command(ctx, "get_property", "time-pos")
	if err != nil {
		return 0, fmt.Errorf("read position: %w", err)
	}
	secs, ok := data.(float64)
	if !ok {
		return 0, fmt.Errorf("read position: expected number, got %T", data)
	}
	return core.Seconds(secs), nil
}

func (h *Handle) Playing() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.loaded && !h.paused && !h.ended && !h.idle
}

func (h *Handle) Events() <-chan core.HandleEvent {
	return h.events
}

// Close stops the listener, quits mpv and closes Events. It is idempotent.
func (h *Handle) Close() error {
	h.closeOnce.Do(func() {
		h.listener.stop()

		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		_, _ = h.command(ctx, "quit")
		cancel()

		if h.exited != nil {
			select {
			case <-h.exited:
			case <-time.After(quitTimeout):
				h.log.Warn("mpv did not quit, killing")
				_ = killProcess(h.cmd)
			}
		}
		if h.ownsSocket {
			_ = os.Remove(h.socketPath)
		}

		h.mu.Lock()
		h.closed = true
		close(h.events)
		h.mu.Unlock()
	})
	return nil
}

func (h *Handle) command(ctx context.Context, args ...any) (any, error) {
	data, err := sendCommand(ctx, h.socketPath, args...)
	if err != nil {
		var cmdErr *CommandError
		if stderrors.As(err, &cmdErr) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", errors.ErrPlayerUnavailable, err)
	}
	return data, nil
}

func (h *Handle) set(ctx context.Context, property string, value any) error {
	_, err := h.command(ctx, "set_property", property, value)
	return err
}

// onProperty translates observed property changes into handle state and
// lifecycle events.
func (h *Handle) onProperty(name string, data any) {
	h.mu.Lock()
	defer h.mu.Unlock()

	switch name {
	case "duration":
		secs, ok := data.(float64)
		if !ok || secs <= 0 || !h.loaded || h.metadataSent {
			return
		}
		h.metadataSent = true
		h.emit(core.HandleEvent{Type: core.EventMetadataReady, Duration: core.Seconds(secs)})

	case "pause":
		if paused, ok := data.(bool); ok {
			h.paused = paused
		}

	case "paused-for-cache":
		stalled, _ := data.(bool)
		if stalled == h.stalled {
			return
		}
		h.stalled = stalled
		if stalled {
			h.emit(core.HandleEvent{Type: core.EventStall})
		} else {
			h.emit(core.HandleEvent{Type: core.EventResumable})
		}

	case "eof-reached":
		eof, _ := data.(bool)
		if eof && !h.ended && h.loaded {
			h.ended = true
			h.emit(core.HandleEvent{Type: core.EventEnded})
		} else if !eof {
			h.ended = false
		}

	case "idle-active":
		if idle, ok := data.(bool); ok {
			h.idle = idle
		}
	}
}

// emit must be called with h.mu held.
func (h *Handle) emit(ev core.HandleEvent) {
	if h.closed {
		return
	}
	select {
	case h.events <- ev:
	default:
		h.log.WithField("event", ev.Type).Warn("dropping handle event, channel full")
	}
}

func (h *Handle) processExited() {
	h.mu.Lock()
	closed := h.closed
	h.loaded = false
	h.idle = true
	h.mu.Unlock()
	if !closed {
		h.log.Warn("mpv exited unexpectedly")
	}
}
