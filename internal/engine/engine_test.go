package engine

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/tessro/earshot/internal/clock"
	"github.com/tessro/earshot/internal/core"
	"github.com/tessro/earshot/internal/errors"
	"github.com/tessro/earshot/internal/media/mediatest"
	"github.com/tessro/earshot/internal/session"
)

type fakeStore struct {
	mu       sync.Mutex
	meta     map[string]core.Metadata
	marks    map[string][]core.Bookmark
	gates    map[string]chan struct{}
	nextID   int
	searches []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		meta: map[string]core.Metadata{
			"a1": {
				Resource:     core.Resource{ID: "a1", Name: "standup"},
				Locator:      "https://cdn.example.com/a1.mp3",
				Duration:     300 * time.Second,
				TranscriptID: "t1",
			},
			"a2": {
				Resource: core.Resource{ID: "a2", Name: "retro"},
				Locator:  "https://cdn.example.com/a2.mp3",
				Duration: 60 * time.Second,
			},
		},
		marks: map[string][]core.Bookmark{
			"a1": {{ID: "m1", Label: "Intro", Timestamp: 5 * time.Second}},
		},
		gates: map[string]chan struct{}{},
	}
}

func (f *fakeStore) gate(id string) func() {
	ch := make(chan struct{})
	f.mu.Lock()
	f.gates[id] = ch
	f.mu.Unlock()
	return func() { close(ch) }
}

func (f *fakeStore) LoadResourceMetadata(ctx context.Context, id string) (core.Metadata, error) {
	f.mu.Lock()
	gate := f.gates[id]
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	md, ok := f.meta[id]
	if !ok {
		return core.Metadata{}, errors.ErrResourceNotFound
	}
	return md, nil
}

func (f *fakeStore) ListBookmarks(ctx context.Context, id string) ([]core.Bookmark, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]core.Bookmark(nil), f.marks[id]...), nil
}

func (f *fakeStore) CreateBookmark(ctx context.Context, id, label string, ts time.Duration) (core.Bookmark, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	b := core.Bookmark{ID: fmt.Sprintf("srv-%d", f.nextID), Label: label, Timestamp: ts}
	f.marks[id] = append(f.marks[id], b)
	return b, nil
}

func (f *fakeStore) DeleteBookmark(ctx context.Context, id string) error {
	return nil
}

func (f *fakeStore) Search(ctx context.Context, resourceID, transcriptID, query string) ([]core.SearchHit, error) {
	f.mu.Lock()
	f.searches = append(f.searches, query)
	f.mu.Unlock()
	return []core.SearchHit{{Start: 10 * time.Second, End: 12 * time.Second, Text: query}}, nil
}

// idle is a Scheduler that never ticks; only final reads reach the session.
type idle struct{}

func (idle) Start(func() bool) {}
func (idle) Stop()             {}

type recorder struct {
	mu      sync.Mutex
	updates []session.Update
}

func (r *recorder) record(u session.Update) {
	r.mu.Lock()
	r.updates = append(r.updates, u)
	r.mu.Unlock()
}

func (r *recorder) notices() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, u := range r.updates {
		if u.Notice != nil {
			out = append(out, u.Notice.Message)
		}
	}
	return out
}

type fixture struct {
	engine  *Engine
	store   *fakeStore
	rec     *recorder
	mu      sync.Mutex
	handles []*mediatest.Handle
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{store: newFakeStore(), rec: &recorder{}}
	f.engine = New(Options{
		Store: f.store,
		NewHandle: func(context.Context) (core.Handle, error) {
			h := mediatest.New()
			f.mu.Lock()
			f.handles = append(f.handles, h)
			f.mu.Unlock()
			return h, nil
		},
		NewScheduler: func() clock.Scheduler { return idle{} },
	})
	f.engine.Subscribe(f.rec.record)
	t.Cleanup(func() { f.engine.Close() })
	return f
}

func (f *fixture) handle(i int) *mediatest.Handle {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.handles[i]
}

// selectReady selects id and delivers the handle's metadata report.
func (f *fixture) selectReady(t *testing.T, id string, d time.Duration) *mediatest.Handle {
	t.Helper()
	if err := f.engine.Select(context.Background(), id); err != nil {
		t.Fatalf("Select(%s) error = %v", id, err)
	}
	f.mu.Lock()
	h := f.handles[len(f.handles)-1]
	f.mu.Unlock()
	h.Emit(core.HandleEvent{Type: core.EventMetadataReady, Duration: d})
	eventually(t, func() bool {
		st := f.engine.State()
		return !st.IsLoading && st.Duration == d
	})
	return h
}

func eventually(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestOperationsWithoutSelection(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if err := f.engine.Play(ctx); !stderrors.Is(err, errors.ErrNoSession) {
		t.Errorf("Play() error = %v, want ErrNoSession", err)
	}
	if _, err := f.engine.Seek(ctx, time.Second); !stderrors.Is(err, errors.ErrNoSession) {
		t.Errorf("Seek() error = %v, want ErrNoSession", err)
	}
	if err := f.engine.SetSearchQuery("hello"); !stderrors.Is(err, errors.ErrNoSession) {
		t.Errorf("SetSearchQuery() error = %v, want ErrNoSession", err)
	}
}

func TestSelectLoadsResource(t *testing.T) {
	f := newFixture(t)

	if err := f.engine.Select(context.Background(), "a1"); err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	h := f.handle(0)
	if h.Locator() != "https://cdn.example.com/a1.mp3" {
		t.Errorf("locator = %q", h.Locator())
	}

	st := f.engine.State()
	if !st.IsLoading {
		t.Error("IsLoading = false before metadata")
	}
	if got := st.Resource.OrEmpty().Name; got != "standup" {
		t.Errorf("resource = %q", got)
	}
	if len(st.Marks) != 1 || st.Marks[0].ID != "m1" {
		t.Errorf("marks = %+v", st.Marks)
	}

	h.Emit(core.HandleEvent{Type: core.EventMetadataReady, Duration: 295 * time.Second})
	eventually(t, func() bool { return !f.engine.State().IsLoading })
	if got := f.engine.State().Duration; got != 295*time.Second {
		t.Errorf("Duration = %v, want the handle's report", got)
	}
}

func TestSelectUnknownResource(t *testing.T) {
	f := newFixture(t)
	err := f.engine.Select(context.Background(), "nope")
	if !stderrors.Is(err, errors.ErrResourceNotFound) {
		t.Fatalf("Select() error = %v", err)
	}
	if len(f.handles) != 0 {
		t.Error("a handle was opened for a missing resource")
	}
}

func TestSelectReplacesSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first := f.selectReady(t, "a1", 300*time.Second)
	if err := f.engine.Play(ctx); err != nil {
		t.Fatal(err)
	}

	f.selectReady(t, "a2", 60*time.Second)

	if !first.Closed() {
		t.Error("previous handle not closed")
	}
	st := f.engine.State()
	if st.Resource.OrEmpty().ID != "a2" || st.IsPlaying {
		t.Errorf("state after switch = %+v", st)
	}
}

func TestOverlappingSelectsLatestWins(t *testing.T) {
	f := newFixture(t)
	release := f.store.gate("a1")

	done := make(chan error, 1)
	go func() { done <- f.engine.Select(context.Background(), "a1") }()

	eventually(t, func() bool {
		f.engine.mu.Lock()
		defer f.engine.mu.Unlock()
		return f.engine.selection == 1
	})
	if err := f.engine.Select(context.Background(), "a2"); err != nil {
		t.Fatalf("second Select() error = %v", err)
	}
	release()

	if err := <-done; !stderrors.Is(err, errors.ErrSuperseded) {
		t.Errorf("first Select() error = %v, want ErrSuperseded", err)
	}
	if got := f.engine.State().Resource.OrEmpty().ID; got != "a2" {
		t.Errorf("active resource = %q, want a2", got)
	}
}

func TestPlayRejectedRevertsWithOneNotice(t *testing.T) {
	f := newFixture(t)
	h := f.selectReady(t, "a1", 300*time.Second)
	h.RejectPlay(fmt.Errorf("autoplay blocked: %w", errors.ErrPlaybackRejected))

	err := f.engine.Play(context.Background())
	if !stderrors.Is(err, errors.ErrPlaybackRejected) {
		t.Fatalf("Play() error = %v", err)
	}
	if f.engine.State().IsPlaying {
		t.Error("IsPlaying = true after rejection")
	}
	if n := f.rec.notices(); len(n) != 1 {
		t.Errorf("notices = %v, want exactly one", n)
	}
}

func TestToggleTwiceRestores(t *testing.T) {
	f := newFixture(t)
	h := f.selectReady(t, "a1", 300*time.Second)
	ctx := context.Background()

	for _, start := range []bool{false, true} {
		if start != f.engine.State().IsPlaying {
			if err := f.engine.Toggle(ctx); err != nil {
				t.Fatal(err)
			}
		}
		if err := f.engine.Toggle(ctx); err != nil {
			t.Fatal(err)
		}
		if err := f.engine.Toggle(ctx); err != nil {
			t.Fatal(err)
		}
		if got := f.engine.State().IsPlaying; got != start {
			t.Errorf("from %v: IsPlaying = %v after two toggles", start, got)
		}
		if h.Playing() != start {
			t.Errorf("from %v: handle playing = %v", start, h.Playing())
		}
	}
}

func TestPauseDuringPlayReconcilesHandle(t *testing.T) {
	f := newFixture(t)
	h := f.selectReady(t, "a1", 300*time.Second)
	ctx := context.Background()
	release := h.GatePlay()

	done := make(chan error, 1)
	go func() { done <- f.engine.Play(ctx) }()
	eventually(t, func() bool { return h.PlayCalls() == 1 })

	if err := f.engine.Pause(ctx); err != nil {
		t.Fatal(err)
	}
	release()
	if err := <-done; err != nil {
		t.Fatalf("Play() error = %v", err)
	}

	if f.engine.State().IsPlaying {
		t.Error("IsPlaying = true after pause")
	}
	if h.Playing() {
		t.Error("handle left playing after the pause won")
	}
}

func TestPlayDuringPauseKeepsPlaying(t *testing.T) {
	f := newFixture(t)
	h := f.selectReady(t, "a1", 300*time.Second)
	ctx := context.Background()

	if err := f.engine.Play(ctx); err != nil {
		t.Fatal(err)
	}
	release := h.GatePause()
	done := make(chan error, 1)
	go func() { done <- f.engine.Pause(ctx) }()
	eventually(t, func() bool { return h.PauseCalls() == 1 })

	if err := f.engine.Play(ctx); err != nil {
		t.Fatal(err)
	}
	release()
	if err := <-done; err != nil {
		t.Fatalf("Pause() error = %v", err)
	}

	if !f.engine.State().IsPlaying {
		t.Fatal("IsPlaying = false after the later play")
	}
	if !h.Playing() {
		t.Fatal("handle left paused while the session plays")
	}
	if _, ok := f.engine.clock.Active(h); !ok {
		t.Fatal("clock not running after reconciling")
	}

	h.Advance(30 * time.Second)
	if err := f.engine.Pause(ctx); err != nil {
		t.Fatal(err)
	}
	if got := f.engine.State().CurrentTime; got != 30*time.Second {
		t.Errorf("CurrentTime = %v, want 30s", got)
	}
}

func TestSeekClamps(t *testing.T) {
	f := newFixture(t)
	h := f.selectReady(t, "a1", 300*time.Second)
	ctx := context.Background()

	tests := []struct {
		in, want time.Duration
	}{
		{-5 * time.Second, 0},
		{42 * time.Second, 42 * time.Second},
		{10 * time.Minute, 300 * time.Second},
	}
	for _, tt := range tests {
		got, err := f.engine.Seek(ctx, tt.in)
		if err != nil {
			t.Fatal(err)
		}
		if got != tt.want || f.engine.State().CurrentTime != tt.want {
			t.Errorf("Seek(%v) = %v, state %v, want %v", tt.in, got, f.engine.State().CurrentTime, tt.want)
		}
	}
	// the first target is within tolerance of the handle and never sent
	seeks := h.Seeks()
	if len(seeks) != 2 || seeks[0] != 42*time.Second || seeks[1] != 300*time.Second {
		t.Errorf("handle seeks = %v", seeks)
	}
}

func TestSkipForwardClampsAtEnd(t *testing.T) {
	f := newFixture(t)
	f.selectReady(t, "a1", 300*time.Second)
	ctx := context.Background()

	if _, err := f.engine.Seek(ctx, 290*time.Second); err != nil {
		t.Fatal(err)
	}
	got, err := f.engine.SkipForward(ctx, 15*time.Second)
	if err != nil {
		t.Fatal(err)
	}
	if got != 300*time.Second {
		t.Errorf("SkipForward() = %v, want 5:00", got)
	}

	got, _ = f.engine.SkipBackward(ctx, 0)
	if got != 285*time.Second {
		t.Errorf("SkipBackward(default) = %v, want 4:45", got)
	}
}

func TestEndedRewinds(t *testing.T) {
	f := newFixture(t)
	h := f.selectReady(t, "a1", 300*time.Second)
	ctx := context.Background()

	if err := f.engine.Play(ctx); err != nil {
		t.Fatal(err)
	}
	h.SetPosition(300 * time.Second)
	h.End()

	eventually(t, func() bool {
		st := f.engine.State()
		return !st.IsPlaying && st.CurrentTime == 0
	})
	eventually(t, func() bool {
		seeks := h.Seeks()
		return len(seeks) > 0 && seeks[len(seeks)-1] == 0
	})
}

func TestEndedNearStartLeavesHandleAlone(t *testing.T) {
	f := newFixture(t)
	h := f.selectReady(t, "a2", 60*time.Second)
	ctx := context.Background()

	if err := f.engine.Play(ctx); err != nil {
		t.Fatal(err)
	}
	h.SetPosition(500 * time.Millisecond)
	h.End()

	eventually(t, func() bool {
		st := f.engine.State()
		return !st.IsPlaying && st.CurrentTime == 0
	})
	if err := f.engine.Close(); err != nil {
		t.Fatal(err)
	}
	if seeks := h.Seeks(); len(seeks) != 0 {
		t.Errorf("Seeks() = %v, want none within tolerance", seeks)
	}
}

func TestStallShowsLoading(t *testing.T) {
	f := newFixture(t)
	h := f.selectReady(t, "a1", 300*time.Second)
	if err := f.engine.Play(context.Background()); err != nil {
		t.Fatal(err)
	}

	h.Emit(core.HandleEvent{Type: core.EventStall})
	eventually(t, func() bool { return f.engine.State().IsLoading })
	if !f.engine.State().IsPlaying {
		t.Error("stall cleared the play intent")
	}

	h.Emit(core.HandleEvent{Type: core.EventResumable})
	eventually(t, func() bool { return !f.engine.State().IsLoading })
}

func TestVolumeMuteAndRate(t *testing.T) {
	f := newFixture(t)
	h := f.selectReady(t, "a1", 300*time.Second)
	ctx := context.Background()

	if err := f.engine.SetMuted(ctx, true); err != nil {
		t.Fatal(err)
	}
	got, err := f.engine.SetVolume(ctx, 140)
	if err != nil {
		t.Fatal(err)
	}
	if got != 100 {
		t.Errorf("SetVolume(140) = %d", got)
	}
	vol, muted, _ := h.Output()
	if vol != 100 || muted {
		t.Errorf("handle output = %d muted=%v, want 100 unmuted", vol, muted)
	}

	if err := f.engine.SetRate(ctx, 1.3); !stderrors.Is(err, errors.ErrInvalidRate) {
		t.Errorf("SetRate(1.3) error = %v", err)
	}
	r, err := f.engine.CycleRate(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if _, _, hr := h.Output(); hr != r || f.engine.State().Rate != r {
		t.Errorf("rate handle=%v state=%v, want %v", hr, f.engine.State().Rate, r)
	}
}

func TestBookmarksThroughEngine(t *testing.T) {
	f := newFixture(t)
	h := f.selectReady(t, "a1", 300*time.Second)
	ctx := context.Background()

	if _, err := f.engine.Seek(ctx, 42*time.Second); err != nil {
		t.Fatal(err)
	}
	b, err := f.engine.AddBookmark(ctx, "Decision")
	if err != nil {
		t.Fatal(err)
	}
	if b.Timestamp != 42*time.Second {
		t.Errorf("bookmark at %v, want current time", b.Timestamp)
	}

	if err := f.engine.JumpToBookmark(ctx, "m1"); err != nil {
		t.Fatal(err)
	}
	if st := f.engine.State(); st.CurrentTime != 5*time.Second || !st.IsPlaying {
		t.Errorf("after jump: time=%v playing=%v", st.CurrentTime, st.IsPlaying)
	}
	if !h.Playing() {
		t.Error("jump did not start the handle")
	}

	if err := f.engine.RemoveBookmark(ctx, b.ID); err != nil {
		t.Fatal(err)
	}
	if _, ok := f.engine.State().Mark(b.ID); ok {
		t.Error("bookmark still listed after remove")
	}
}

func TestSearchThroughEngine(t *testing.T) {
	f := newFixture(t)
	f.selectReady(t, "a1", 300*time.Second)

	if err := f.engine.SetSearchQuery("machine"); err != nil {
		t.Fatal(err)
	}
	if err := f.engine.SetSearchQuery("machine learning"); err != nil {
		t.Fatal(err)
	}

	eventually(t, func() bool { return len(f.engine.State().Search.Hits) == 1 })
	f.store.mu.Lock()
	searches := append([]string(nil), f.store.searches...)
	f.store.mu.Unlock()
	if len(searches) != 1 || searches[0] != "machine learning" {
		t.Errorf("searches = %v", searches)
	}
}

func TestCloseReleasesEverything(t *testing.T) {
	f := newFixture(t)
	h := f.selectReady(t, "a1", 300*time.Second)

	if err := f.engine.Close(); err != nil {
		t.Fatal(err)
	}
	if !h.Closed() {
		t.Error("handle not closed")
	}
	if err := f.engine.Select(context.Background(), "a2"); err == nil {
		t.Error("Select() after Close succeeded")
	}
}
