package mpv

import (
	"bufio"
	"context"
	"encoding/json"
	stderrors "errors"
	"net"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/tessro/earshot/internal/core"
	"github.com/tessro/earshot/internal/errors"
)

// fakeMPV answers the subset of the mpv IPC protocol the handle uses.
type fakeMPV struct {
	t        *testing.T
	ln       net.Listener
	path     string
	mu       sync.Mutex
	commands [][]any
	observed int
	watchers []net.Conn
	reject   map[string]string
	position float64
}

func newFakeMPV(t *testing.T) *fakeMPV {
	t.Helper()
	dir, err := os.MkdirTemp("", "mpv")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })

	path := filepath.Join(dir, "ipc.sock")
	ln, err := net.Listen("unix", path)
	if err != nil {
		t.Fatal(err)
	}
	f := &fakeMPV{t: t, ln: ln, path: path, reject: map[string]string{}}
	t.Cleanup(func() { ln.Close() })
	go f.serve()
	return f
}

func (f *fakeMPV) serve() {
	for {
		conn, err := f.ln.Accept()
		if err != nil {
			return
		}
		go f.handle(conn)
	}
}

func (f *fakeMPV) handle(conn net.Conn) {
	defer conn.Close()
	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		var cmd command
		if err := json.Unmarshal(scanner.Bytes(), &cmd); err != nil || len(cmd.Command) == 0 {
			continue
		}

		f.mu.Lock()
		f.commands = append(f.commands, cmd.Command)
		name, _ := cmd.Command[0].(string)
		key := name
		if len(cmd.Command) > 1 {
			if prop, ok := cmd.Command[1].(string); ok {
				key = name + " " + prop
			}
		}
		reply := map[string]any{"request_id": cmd.RequestID, "error": "success"}
		if reason, ok := f.reject[key]; ok {
			reply["error"] = reason
		}
		switch key {
		case "get_property time-pos":
			reply["data"] = f.position
		}
		if name == "observe_property" {
			if f.observed == 0 {
				f.watchers = append(f.watchers, conn)
			}
			f.observed++
		}
		f.mu.Unlock()

		payload, _ := json.Marshal(reply)
		if _, err := conn.Write(append(payload, '\n')); err != nil {
			return
		}
		if name == "quit" {
			return
		}
	}
}

func (f *fakeMPV) waitObserved() {
	f.t.Helper()
	eventually(f.t, func() bool {
		f.mu.Lock()
		defer f.mu.Unlock()
		return f.observed >= len(observed)
	})
}

func (f *fakeMPV) push(name string, data any) {
	f.t.Helper()
	payload, _ := json.Marshal(map[string]any{"event": "property-change", "name": name, "data": data})
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.watchers {
		if _, err := c.Write(append(payload, '\n')); err != nil {
			f.t.Logf("push %s: %v", name, err)
		}
	}
}

func (f *fakeMPV) sent(name string) [][]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out [][]any
	for _, c := range f.commands {
		if c[0] == name {
			out = append(out, c)
		}
	}
	return out
}

func eventually(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func nextEvent(t *testing.T, h *Handle) core.HandleEvent {
	t.Helper()
	select {
	case ev := <-h.Events():
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("no handle event")
		return core.HandleEvent{}
	}
}

func attach(t *testing.T) (*Handle, *fakeMPV) {
	t.Helper()
	f := newFakeMPV(t)
	logger, _ := test.NewNullLogger()
	h, err := Attach(f.path, logrus.NewEntry(logger))
	if err != nil {
		t.Fatalf("Attach() error = %v", err)
	}
	t.Cleanup(func() { h.Close() })
	f.waitObserved()
	return h, f
}

func TestPlayBeforeLoadIsRejected(t *testing.T) {
	h, f := attach(t)

	err := h.Play(context.Background())
	if !stderrors.Is(err, errors.ErrPlaybackRejected) {
		t.Fatalf("Play() error = %v, want ErrPlaybackRejected", err)
	}
	if len(f.sent("set_property")) != 0 {
		t.Error("Play() reached mpv with nothing loaded")
	}
}

func TestLoadEmitsMetadataOnce(t *testing.T) {
	h, f := attach(t)
	ctx := context.Background()

	if err := h.Load(ctx, "https://example.com/api/audio/7/stream"); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	loads := f.sent("loadfile")
	if len(loads) != 1 || loads[0][1] != "https://example.com/api/audio/7/stream" {
		t.Fatalf("loadfile = %v", loads)
	}

	f.push("duration", 125.5)
	f.push("duration", 125.5)
	f.push("eof-reached", true)

	ev := nextEvent(t, h)
	if ev.Type != core.EventMetadataReady {
		t.Fatalf("event = %v, want metadata-ready", ev.Type)
	}
	if ev.Duration != 125500*time.Millisecond {
		t.Errorf("Duration = %v", ev.Duration)
	}
	if ev := nextEvent(t, h); ev.Type != core.EventEnded {
		t.Errorf("second event = %v, want ended", ev.Type)
	}
}

func TestPlayPauseTracksState(t *testing.T) {
	h, f := attach(t)
	ctx := context.Background()

	if err := h.Load(ctx, "/tmp/a.mp3"); err != nil {
		t.Fatal(err)
	}
	f.push("idle-active", false)
	eventually(t, func() bool {
		h.mu.Lock()
		defer h.mu.Unlock()
		return !h.idle
	})

	if err := h.Play(ctx); err != nil {
		t.Fatalf("Play() error = %v", err)
	}
	if !h.Playing() {
		t.Error("Playing() = false after Play")
	}
	if err := h.Pause(ctx); err != nil {
		t.Fatal(err)
	}
	if h.Playing() {
		t.Error("Playing() = true after Pause")
	}
}

func TestPlayRejectedByPlayer(t *testing.T) {
	h, f := attach(t)
	ctx := context.Background()

	if err := h.Load(ctx, "/tmp/a.mp3"); err != nil {
		t.Fatal(err)
	}
	f.mu.Lock()
	f.reject["set_property pause"] = "error running command"
	f.mu.Unlock()

	err := h.Play(ctx)
	if !stderrors.Is(err, errors.ErrPlaybackRejected) {
		t.Fatalf("Play() error = %v, want ErrPlaybackRejected", err)
	}
	if h.Playing() {
		t.Error("Playing() = true after a rejected play")
	}
}

func TestStallAndResume(t *testing.T) {
	h, f := attach(t)
	if err := h.Load(context.Background(), "/tmp/a.mp3"); err != nil {
		t.Fatal(err)
	}

	f.push("paused-for-cache", true)
	f.push("paused-for-cache", true)
	f.push("paused-for-cache", false)

	if ev := nextEvent(t, h); ev.Type != core.EventStall {
		t.Errorf("first = %v, want stall", ev.Type)
	}
	if ev := nextEvent(t, h); ev.Type != core.EventResumable {
		t.Errorf("second = %v, want resumable", ev.Type)
	}
}

func TestPositionAndSeek(t *testing.T) {
	h, f := attach(t)
	ctx := context.Background()

	f.mu.Lock()
	f.position = 42.25
	f.mu.Unlock()

	pos, err := h.Position(ctx)
	if err != nil {
		t.Fatalf("Position() error = %v", err)
	}
	if pos != 42250*time.Millisecond {
		t.Errorf("Position() = %v", pos)
	}

	if err := h.Seek(ctx, 90*time.Second); err != nil {
		t.Fatal(err)
	}
	seeks := f.sent("seek")
	if len(seeks) != 1 || seeks[0][1] != 90.0 || seeks[0][2] != "absolute" {
		t.Errorf("seek = %v", seeks)
	}
}

func TestOutputProperties(t *testing.T) {
	h, f := attach(t)
	ctx := context.Background()

	if err := h.SetVolume(ctx, 40); err != nil {
		t.Fatal(err)
	}
	if err := h.SetMuted(ctx, true); err != nil {
		t.Fatal(err)
	}
	if err := h.SetRate(ctx, 1.5); err != nil {
		t.Fatal(err)
	}

	want := map[string]any{"volume": 40.0, "mute": true, "speed": 1.5}
	for _, c := range f.sent("set_property") {
		prop := c[1].(string)
		if w, ok := want[prop]; ok && c[2] != w {
			t.Errorf("%s = %v, want %v", prop, c[2], w)
		}
		delete(want, prop)
	}
	if len(want) != 0 {
		t.Errorf("properties never set: %v", want)
	}
}

func TestCloseClosesEvents(t *testing.T) {
	h, f := attach(t)

	if err := h.Close(); err != nil {
		t.Fatal(err)
	}
	if err := h.Close(); err != nil {
		t.Fatalf("second Close() error = %v", err)
	}
	if _, ok := <-h.Events(); ok {
		t.Error("Events() still open after Close")
	}
	if len(f.sent("quit")) != 1 {
		t.Error("Close() did not send quit")
	}
}

func TestSanitizeLocator(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"https://host/api/audio/1/stream", "https://host/api/audio/1/stream", false},
		{"/music/../music/a.mp3", "/music/a.mp3", false},
		{"--script=evil.lua", "", true},
		{"file:///etc/passwd", "", true},
		{"a\nb", "", true},
		{"  ", "", true},
	}

	for _, tt := range tests {
		got, err := sanitizeLocator(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("sanitizeLocator(%q) error = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("sanitizeLocator(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestHeaderFields(t *testing.T) {
	got := headerFields(map[string]string{"Cookie": "a=1,b=2", "Authorization": "Bearer x"})
	want := "Authorization: Bearer x,Cookie: a=1%2Cb=2"
	if got != want {
		t.Errorf("headerFields() = %q, want %q", got, want)
	}
}
