// Package engine composes a session, its media handle, clock, seek
// controller, bookmark manager and search debouncer per selected
// resource, and exposes the operations views call.
package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/samber/mo"
	"github.com/sirupsen/logrus"

	"github.com/tessro/earshot/internal/bookmark"
	"github.com/tessro/earshot/internal/clock"
	"github.com/tessro/earshot/internal/core"
	"github.com/tessro/earshot/internal/errors"
	"github.com/tessro/earshot/internal/log"
	"github.com/tessro/earshot/internal/search"
	"github.com/tessro/earshot/internal/seek"
	"github.com/tessro/earshot/internal/session"
)

// Store is the remote side of a session.
type Store interface {
	LoadResourceMetadata(ctx context.Context, resourceID string) (core.Metadata, error)
	bookmark.Store
	search.Searcher
}

// HandleFactory opens a fresh media handle for one session.
type HandleFactory func(ctx context.Context) (core.Handle, error)

// Options configures an Engine. Zero values take the defaults.
type Options struct {
	Store        Store
	NewHandle    HandleFactory
	NewScheduler func() clock.Scheduler
	Volume       int
	Rate         float64
	Skip         time.Duration
	Tolerance    time.Duration
	Search       search.Options
}

// Engine owns at most one active session at a time.
type Engine struct {
	store     Store
	newHandle HandleFactory
	clock     *clock.Registry
	volume    int
	rate      float64
	skip      time.Duration
	tolerance time.Duration
	searchOpt search.Options
	log       *logrus.Entry

	mu        sync.Mutex
	selection uint64
	active    *bundle
	closed    bool

	subsMu  sync.Mutex
	subs    map[int]func(session.Update)
	nextSub int
}

// New creates an Engine with nothing selected.
func New(opts Options) *Engine {
	if opts.NewScheduler == nil {
		opts.NewScheduler = func() clock.Scheduler { return clock.NewTicker(0) }
	}
	if opts.Volume <= 0 {
		opts.Volume = 100
	}
	if !core.ValidRate(opts.Rate) {
		opts.Rate = 1
	}
	if opts.Skip <= 0 {
		opts.Skip = seek.DefaultSkip
	}
	return &Engine{
		store:     opts.Store,
		newHandle: opts.NewHandle,
		clock:     clock.NewRegistry(opts.NewScheduler),
		volume:    opts.Volume,
		rate:      opts.Rate,
		skip:      opts.Skip,
		tolerance: opts.Tolerance,
		searchOpt: opts.Search,
		log:       log.For("engine"),
		subs:      make(map[int]func(session.Update)),
	}
}

// Subscribe registers fn for updates from the current and every later
// session. A state snapshot is delivered on each selection. fn must not
// call back into the engine synchronously.
func (e *Engine) Subscribe(fn func(session.Update)) (unsubscribe func()) {
	e.subsMu.Lock()
	id := e.nextSub
	e.nextSub++
	e.subs[id] = fn
	e.subsMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			e.subsMu.Lock()
			delete(e.subs, id)
			e.subsMu.Unlock()
		})
	}
}

func (e *Engine) broadcast(u session.Update) {
	e.subsMu.Lock()
	subs := make([]func(session.Update), 0, len(e.subs))
	for _, fn := range e.subs {
		subs = append(subs, fn)
	}
	e.subsMu.Unlock()

	for _, fn := range subs {
		fn(u)
	}
}

// State returns the active session's snapshot, or an empty state when
// nothing is selected.
func (e *Engine) State() session.State {
	b, err := e.current()
	if err != nil {
		return session.State{Volume: e.volume, Rate: e.rate}
	}
	return b.session.State()
}

// Metadata returns what was loaded for the active selection.
func (e *Engine) Metadata() (core.Metadata, bool) {
	b, err := e.current()
	if err != nil {
		return core.Metadata{}, false
	}
	return b.meta, true
}

// Select opens resourceID, replacing any active session. When selections
// overlap, only the latest installs; the others return ErrSuperseded.
func (e *Engine) Select(ctx context.Context, resourceID string) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return errors.ErrNoSession
	}
	e.selection++
	gen := e.selection
	e.mu.Unlock()

	l := e.log.WithField("resource", resourceID)
	l.Debug("selecting resource")

	meta, err := e.store.LoadResourceMetadata(ctx, resourceID)
	if err != nil {
		return fmt.Errorf("select %s: %w", resourceID, err)
	}
	if !e.latest(gen) {
		return errors.ErrSuperseded
	}

	h, err := e.newHandle(ctx)
	if err != nil {
		return fmt.Errorf("open player: %w", err)
	}

	b := e.newBundle(meta, h)

	e.mu.Lock()
	if e.closed || gen != e.selection {
		e.mu.Unlock()
		b.release()
		return errors.ErrSuperseded
	}
	prev := e.active
	if prev != nil {
		e.teardown(prev)
	}
	e.active = b
	b.start(e)
	e.mu.Unlock()

	e.broadcast(session.Update{State: b.session.State()})

	if err := b.handle.Load(b.ctx, meta.Locator); err != nil {
		if !e.isActive(b) {
			return errors.ErrSuperseded
		}
		b.session.Notify(errors.NoticeFor("load media", err))
		return fmt.Errorf("load %s: %w", resourceID, err)
	}
	if err := b.applyOutput(b.ctx, e.volume, e.rate); err != nil {
		l.WithError(err).Warn("initial output settings not applied")
	}

	// failures surface as a notice
	_ = b.marks.Load(b.ctx)

	l.WithField("name", meta.Resource.Name).Info("resource selected")
	return nil
}

func (e *Engine) latest(gen uint64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return !e.closed && gen == e.selection
}

// teardown releases b. Must be called with e.mu held.
func (e *Engine) teardown(b *bundle) {
	e.clock.Stop(b.handle)
	b.search.Close()
	b.session.Close()
	b.release()
}

// Close tears down the active session. The engine cannot be reused.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true
	if e.active != nil {
		e.teardown(e.active)
		e.active = nil
	}
	e.log.Debug("engine closed")
	return nil
}

func (e *Engine) current() (*bundle, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.active == nil {
		return nil, errors.ErrNoSession
	}
	return e.active, nil
}

func (e *Engine) isActive(b *bundle) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.active == b
}

// Play starts playback. A refusal reverts the play intent and emits
// exactly one notice.
func (e *Engine) Play(ctx context.Context) error {
	b, err := e.current()
	if err != nil {
		return err
	}
	return e.play(ctx, b)
}

func (e *Engine) play(ctx context.Context, b *bundle) error {
	b.session.SetPlaying(true)

	if err := b.handle.Play(ctx); err != nil {
		b.session.RevertPlaying(errors.NoticeFor("play", err))
		return fmt.Errorf("play: %w", err)
	}

	// a pause or teardown may have landed while Play was in flight
	if !b.session.IsPlaying() || b.session.Closed() || !e.isActive(b) {
		if err := b.handle.Pause(ctx); err != nil {
			b.log.WithError(err).Debug("reconciling pause failed")
		}
		return nil
	}

	e.clock.Start(b.ctx, b.handle, b.session)
	return nil
}

// Pause stops playback. The clock takes a final sample first.
func (e *Engine) Pause(ctx context.Context) error {
	b, err := e.current()
	if err != nil {
		return err
	}
	return e.pause(ctx, b)
}

func (e *Engine) pause(ctx context.Context, b *bundle) error {
	b.session.SetPlaying(false)
	e.clock.Stop(b.handle)

	if err := b.handle.Pause(ctx); err != nil {
		b.session.Notify(errors.NoticeFor("pause", err))
		return fmt.Errorf("pause: %w", err)
	}

	// a play may have landed while Pause was in flight; its handle call
	// then reached the player first and was undone by ours
	if b.session.IsPlaying() && !b.session.Closed() && e.isActive(b) {
		if err := b.handle.Play(ctx); err != nil {
			b.session.RevertPlaying(errors.NoticeFor("play", err))
			b.log.WithError(err).Debug("reconciling play failed")
			return nil
		}
		e.clock.Start(b.ctx, b.handle, b.session)
	}
	return nil
}

// Toggle flips between Play and Pause based on the session's intent.
func (e *Engine) Toggle(ctx context.Context) error {
	b, err := e.current()
	if err != nil {
		return err
	}
	if b.session.IsPlaying() {
		return e.pause(ctx, b)
	}
	return e.play(ctx, b)
}

// Seek moves the playhead to t, clamped to the duration.
func (e *Engine) Seek(ctx context.Context, t time.Duration) (time.Duration, error) {
	b, err := e.current()
	if err != nil {
		return 0, err
	}
	return b.reportSeek(b.seek.Seek(ctx, t))
}

// SkipForward moves the playhead d later. d <= 0 uses the configured skip.
func (e *Engine) SkipForward(ctx context.Context, d time.Duration) (time.Duration, error) {
	b, err := e.current()
	if err != nil {
		return 0, err
	}
	return b.reportSeek(b.seek.SkipForward(ctx, e.skipOr(d)))
}

// SkipBackward moves the playhead d earlier. d <= 0 uses the configured skip.
func (e *Engine) SkipBackward(ctx context.Context, d time.Duration) (time.Duration, error) {
	b, err := e.current()
	if err != nil {
		return 0, err
	}
	return b.reportSeek(b.seek.SkipBackward(ctx, e.skipOr(d)))
}

func (e *Engine) skipOr(d time.Duration) time.Duration {
	if d <= 0 {
		return e.skip
	}
	return d
}

// Scrubber starts a scrub gesture on the active session.
func (e *Engine) Scrubber() (*seek.Scrubber, error) {
	b, err := e.current()
	if err != nil {
		return nil, err
	}
	return b.seek.Scrubber(), nil
}

// SetVolume stores v clamped to [0, 100] and applies it. A positive
// volume also lifts mute.
func (e *Engine) SetVolume(ctx context.Context, v int) (int, error) {
	b, err := e.current()
	if err != nil {
		return 0, err
	}
	stored, unmuted := b.session.SetVolume(v)
	if err := b.handle.SetVolume(ctx, stored); err != nil {
		b.session.Notify(errors.NoticeFor("set volume", err))
		return stored, err
	}
	if unmuted {
		if err := b.handle.SetMuted(ctx, false); err != nil {
			b.session.Notify(errors.NoticeFor("unmute", err))
			return stored, err
		}
	}
	return stored, nil
}

// SetMuted mutes or unmutes the output.
func (e *Engine) SetMuted(ctx context.Context, muted bool) error {
	b, err := e.current()
	if err != nil {
		return err
	}
	b.session.SetMuted(muted)
	if err := b.handle.SetMuted(ctx, muted); err != nil {
		b.session.Notify(errors.NoticeFor("set mute", err))
		return err
	}
	return nil
}

// SetRate applies one of core.PlaybackRates.
func (e *Engine) SetRate(ctx context.Context, r float64) error {
	b, err := e.current()
	if err != nil {
		return err
	}
	if err := b.session.SetRate(r); err != nil {
		return err
	}
	return b.applyRate(ctx, r)
}

// CycleRate advances to the next playback rate and returns it.
func (e *Engine) CycleRate(ctx context.Context) (float64, error) {
	b, err := e.current()
	if err != nil {
		return 0, err
	}
	r := b.session.CycleRate()
	return r, b.applyRate(ctx, r)
}

// AddBookmark marks the current playhead with label.
func (e *Engine) AddBookmark(ctx context.Context, label string) (core.Bookmark, error) {
	b, err := e.current()
	if err != nil {
		return core.Bookmark{}, err
	}
	return b.marks.Add(ctx, label, b.session.State().CurrentTime)
}

// AddBookmarkAt marks t with label.
func (e *Engine) AddBookmarkAt(ctx context.Context, label string, t time.Duration) (core.Bookmark, error) {
	b, err := e.current()
	if err != nil {
		return core.Bookmark{}, err
	}
	return b.marks.Add(ctx, label, t)
}

// RemoveBookmark deletes the bookmark with id. Unknown ids are ignored.
func (e *Engine) RemoveBookmark(ctx context.Context, id string) error {
	b, err := e.current()
	if err != nil {
		return err
	}
	return b.marks.Remove(ctx, id)
}

// JumpToBookmark seeks to the bookmark and plays.
func (e *Engine) JumpToBookmark(ctx context.Context, id string) error {
	b, err := e.current()
	if err != nil {
		return err
	}
	return b.marks.Jump(ctx, id)
}

// ReloadBookmarks refetches the active session's bookmarks.
func (e *Engine) ReloadBookmarks(ctx context.Context) error {
	b, err := e.current()
	if err != nil {
		return err
	}
	return b.marks.Load(ctx)
}

// SetSearchQuery feeds one keystroke's worth of query text to the
// debouncer.
func (e *Engine) SetSearchQuery(text string) error {
	b, err := e.current()
	if err != nil {
		return err
	}
	b.search.SetQuery(text)
	return nil
}

// bundle is everything scoped to one selection.
type bundle struct {
	meta    core.Metadata
	session *session.Session
	handle  core.Handle
	seek    *seek.Controller
	marks   *bookmark.Manager
	search  *search.Debouncer
	log     *logrus.Entry

	ctx         context.Context
	cancel      context.CancelFunc
	unsubscribe func()
	pumpDone    chan struct{}
	releaseOnce sync.Once
}

func (e *Engine) newBundle(meta core.Metadata, h core.Handle) *bundle {
	ctx, cancel := context.WithCancel(context.Background())
	s := session.New(session.Options{
		Resource: mo.Some(meta.Resource),
		Duration: meta.Duration,
		Volume:   e.volume,
		Rate:     e.rate,
		Loading:  true,
	})
	b := &bundle{
		meta:     meta,
		session:  s,
		handle:   h,
		seek:     seek.New(s, h, e.tolerance),
		search:   search.New(s, e.store, meta.Resource.ID, meta.TranscriptID, e.searchOpt),
		log:      e.log.WithField("resource", meta.Resource.ID),
		ctx:      ctx,
		cancel:   cancel,
		pumpDone: make(chan struct{}),
	}
	b.marks = bookmark.New(s, e.store, &transport{engine: e, bundle: b}, meta.Resource.ID)
	return b
}

// start wires the session to engine subscribers and begins consuming
// handle events.
func (b *bundle) start(e *Engine) {
	b.unsubscribe = b.session.Subscribe(e.broadcast)
	go b.pump(e)
}

// pump translates handle lifecycle events into session mutations.
func (b *bundle) pump(e *Engine) {
	defer close(b.pumpDone)
	for ev := range b.handle.Events() {
		switch ev.Type {
		case core.EventMetadataReady:
			b.session.MetadataReady(ev.Duration)
		case core.EventStall:
			b.session.SetLoading(true)
		case core.EventResumable:
			b.session.SetLoading(false)
		case core.EventEnded:
			e.clock.Stop(b.handle)
			b.session.Ended()
			if _, err := b.seek.Seek(b.ctx, 0); err != nil {
				b.log.WithError(err).Debug("rewind after end failed")
			}
		}
		b.log.WithField("event", ev.Type).Trace("handle event")
	}
}

// release cancels in-flight work and closes the handle. Safe to call on
// a bundle that never started.
func (b *bundle) release() {
	b.releaseOnce.Do(func() {
		b.cancel()
		if b.unsubscribe != nil {
			b.unsubscribe()
		}
		if err := b.handle.Close(); err != nil {
			b.log.WithError(err).Warn("closing player failed")
		}
		if b.unsubscribe != nil {
			<-b.pumpDone
		}
	})
}

func (b *bundle) applyOutput(ctx context.Context, volume int, rate float64) error {
	if err := b.handle.SetVolume(ctx, volume); err != nil {
		return err
	}
	return b.handle.SetRate(ctx, rate)
}

func (b *bundle) applyRate(ctx context.Context, r float64) error {
	if err := b.handle.SetRate(ctx, r); err != nil {
		b.session.Notify(errors.NoticeFor("set rate", err))
		return err
	}
	return nil
}

func (b *bundle) reportSeek(t time.Duration, err error) (time.Duration, error) {
	if err != nil {
		b.session.Notify(errors.NoticeFor("seek", err))
	}
	return t, err
}

// transport lets a bookmark jump go through the same seek and play paths
// as the user controls.
type transport struct {
	engine *Engine
	bundle *bundle
}

func (t *transport) Seek(ctx context.Context, at time.Duration) (time.Duration, error) {
	return t.bundle.reportSeek(t.bundle.seek.Seek(ctx, at))
}

func (t *transport) Play(ctx context.Context) error {
	return t.engine.play(ctx, t.bundle)
}
