// Package search turns query keystrokes into remote transcript searches.
//
// Every SetQuery bumps a generation counter. A request carries the
// generation current when it was issued and its response is applied only
// if no newer query has arrived since. Superseded requests are not
// aborted; their results are simply dropped.
package search

import (
	"context"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"github.com/tessro/earshot/internal/core"
	"github.com/tessro/earshot/internal/errors"
	"github.com/tessro/earshot/internal/log"
	"github.com/tessro/earshot/internal/session"
)

const (
	DefaultWindow         = 500 * time.Millisecond
	DefaultMinQueryLength = 3
)

// Searcher runs a remote transcript search.
type Searcher interface {
	Search(ctx context.Context, resourceID, transcriptID, query string) ([]core.SearchHit, error)
}

// Options tunes a Debouncer. Zero values take the defaults.
type Options struct {
	Window         time.Duration
	MinQueryLength int
}

// Debouncer issues at most one search per quiet period for one session.
type Debouncer struct {
	session      *session.Session
	searcher     Searcher
	resourceID   string
	transcriptID string
	window       time.Duration
	minLen       int
	log          *logrus.Entry

	ctx    context.Context
	cancel context.CancelFunc
	timer  Timer

	mu     sync.Mutex
	gen    uint64
	closed bool
}

// New creates a Debouncer writing results into s.
func New(s *session.Session, searcher Searcher, resourceID, transcriptID string, opts Options) *Debouncer {
	if opts.Window <= 0 {
		opts.Window = DefaultWindow
	}
	if opts.MinQueryLength <= 0 {
		opts.MinQueryLength = DefaultMinQueryLength
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Debouncer{
		session:      s,
		searcher:     searcher,
		resourceID:   resourceID,
		transcriptID: transcriptID,
		window:       opts.Window,
		minLen:       opts.MinQueryLength,
		log:          log.For("search").WithField("resource", resourceID),
		ctx:          ctx,
		cancel:       cancel,
	}
}

// SetQuery records a keystroke. Short queries clear the results at once;
// longer ones are searched after the window passes without another call.
func (d *Debouncer) SetQuery(text string) {
	query := strings.TrimSpace(text)

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.gen++
	gen := d.gen
	short := utf8.RuneCountInString(query) < d.minLen
	if short {
		d.timer.Cancel()
	} else {
		d.timer.Arm(d.window, func() { d.issue(query, gen) })
	}
	d.mu.Unlock()

	if short {
		d.session.ClearSearch(query, gen)
		return
	}
	d.session.SearchPending(query, gen)
}

// Generation returns the current generation.
func (d *Debouncer) Generation() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.gen
}

// Close invalidates the current generation and cancels the pending
// timer. In-flight responses are dropped on arrival.
func (d *Debouncer) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	d.gen++
	d.mu.Unlock()

	d.timer.Cancel()
	d.cancel()
}

// whileCurrent runs fn only if gen is still the latest generation. fn
// runs under the generation lock, so no SetQuery lands between the check
// and fn's session write.
func (d *Debouncer) whileCurrent(gen uint64, fn func()) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed || gen != d.gen {
		return false
	}
	fn()
	return true
}

func (d *Debouncer) issue(query string, gen uint64) {
	if d.transcriptID == "" {
		d.whileCurrent(gen, func() {
			d.session.ClearSearch(query, gen)
			d.session.Notify(errors.NewNotice(errors.NoticeRemote, "search", errors.ErrNoTranscript))
		})
		return
	}

	if !d.whileCurrent(gen, func() { d.session.SearchPending(query, gen) }) {
		return
	}
	d.log.WithFields(logrus.Fields{"query": query, "generation": gen}).Debug("search issued")

	hits, err := d.searcher.Search(d.ctx, d.resourceID, d.transcriptID, query)

	applied := d.whileCurrent(gen, func() {
		if err != nil {
			d.session.SearchFailed(gen)
			d.session.Notify(errors.NoticeFor("search", err))
			return
		}
		d.session.SearchResults(query, gen, hits)
	})
	if !applied {
		d.log.WithField("generation", gen).Debug("stale search response dropped")
	}
}
