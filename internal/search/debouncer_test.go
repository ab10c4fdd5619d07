package search

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/samber/mo"

	"github.com/tessro/earshot/internal/core"
	"github.com/tessro/earshot/internal/session"
)

const testWindow = 30 * time.Millisecond

type call struct {
	query   string
	release chan struct{}
}

// fakeSearcher records calls. With gated set, each call blocks until
// its release channel is closed.
type fakeSearcher struct {
	mu    sync.Mutex
	gated bool
	calls []*call
}

func (f *fakeSearcher) Search(ctx context.Context, _, _, query string) ([]core.SearchHit, error) {
	c := &call{query: query, release: make(chan struct{})}
	f.mu.Lock()
	f.calls = append(f.calls, c)
	gated := f.gated
	f.mu.Unlock()

	if gated {
		select {
		case <-c.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return []core.SearchHit{{Start: time.Second, End: 2 * time.Second, Text: query}}, nil
}

func (f *fakeSearcher) Calls() []*call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*call(nil), f.calls...)
}

func newDebouncer(searcher Searcher) (*Debouncer, *session.Session) {
	s := session.New(session.Options{Resource: mo.Some(core.Resource{ID: "5", TranscriptID: "t5"})})
	d := New(s, searcher, "5", "t5", Options{Window: testWindow})
	return d, s
}

func eventually(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(2 * time.Millisecond)
	}
}

func TestShortQueryClearsWithoutSearching(t *testing.T) {
	f := &fakeSearcher{}
	d, s := newDebouncer(f)
	defer d.Close()

	d.SetQuery("budget")
	eventually(t, func() bool { return len(s.State().Search.Hits) == 1 })

	d.SetQuery("ab")
	st := s.State().Search
	if len(st.Hits) != 0 || st.Pending {
		t.Errorf("short query should clear results at once: %+v", st)
	}

	time.Sleep(3 * testWindow)
	if n := len(f.Calls()); n != 1 {
		t.Errorf("searches = %d, want 1", n)
	}
}

func TestTypingWithinWindowIssuesOneSearch(t *testing.T) {
	f := &fakeSearcher{}
	d, s := newDebouncer(f)
	defer d.Close()

	d.SetQuery("machine")
	time.Sleep(testWindow / 3)
	d.SetQuery("machine learning")

	eventually(t, func() bool { return len(s.State().Search.Hits) == 1 })
	time.Sleep(3 * testWindow)

	calls := f.Calls()
	if len(calls) != 1 || calls[0].query != "machine learning" {
		t.Fatalf("calls = %v, want one search for %q", queries(calls), "machine learning")
	}
	if got := s.State().Search.Hits[0].Text; got != "machine learning" {
		t.Errorf("displayed %q", got)
	}
}

func TestStaleResponseDropped(t *testing.T) {
	f := &fakeSearcher{gated: true}
	d, s := newDebouncer(f)
	defer d.Close()

	d.SetQuery("alpha")
	eventually(t, func() bool { return len(f.Calls()) == 1 })
	d.SetQuery("bravo")
	eventually(t, func() bool { return len(f.Calls()) == 2 })

	calls := f.Calls()
	close(calls[1].release) // bravo answers first
	eventually(t, func() bool { return !s.State().Search.Pending })
	close(calls[0].release) // then alpha, late
	time.Sleep(3 * testWindow)

	st := s.State().Search
	if len(st.Hits) != 1 || st.Hits[0].Text != "bravo" {
		t.Errorf("displayed %+v, want only bravo's results", st.Hits)
	}
	if st.Generation != d.Generation() {
		t.Errorf("display generation %d, debouncer %d", st.Generation, d.Generation())
	}
}

func TestResponseAfterNewerKeystrokeDropped(t *testing.T) {
	f := &fakeSearcher{gated: true}
	s := session.New(session.Options{Resource: mo.Some(core.Resource{ID: "5", TranscriptID: "t5"})})
	d := New(s, f, "5", "t5", Options{Window: 10 * testWindow})
	defer d.Close()

	d.SetQuery("alpha")
	eventually(t, func() bool { return len(f.Calls()) == 1 })

	// bravo is still inside its window when alpha answers
	d.SetQuery("bravo")
	close(f.Calls()[0].release)
	time.Sleep(testWindow)

	st := s.State().Search
	if len(st.Hits) != 0 {
		t.Errorf("displayed %+v from a superseded query", st.Hits)
	}
	if st.Query != "bravo" || !st.Pending || st.Generation != d.Generation() {
		t.Errorf("search state = %+v, want bravo pending at generation %d", st, d.Generation())
	}
	if n := len(f.Calls()); n != 1 {
		t.Errorf("searches = %d before bravo's window passed", n)
	}
}

func TestCloseDropsInFlight(t *testing.T) {
	f := &fakeSearcher{gated: true}
	d, s := newDebouncer(f)

	d.SetQuery("pending query")
	eventually(t, func() bool { return len(f.Calls()) == 1 })
	d.Close()

	time.Sleep(3 * testWindow)
	if hits := s.State().Search.Hits; len(hits) != 0 {
		t.Errorf("closed debouncer applied %v", hits)
	}

	d.SetQuery("after close")
	time.Sleep(3 * testWindow)
	if n := len(f.Calls()); n != 1 {
		t.Errorf("searches after Close = %d", n)
	}
}

func TestNoTranscript(t *testing.T) {
	f := &fakeSearcher{}
	s := session.New(session.Options{})
	d := New(s, f, "5", "", Options{Window: testWindow})
	defer d.Close()

	notices := make(chan struct{}, 1)
	s.Subscribe(func(u session.Update) {
		if u.Notice != nil {
			notices <- struct{}{}
		}
	})

	d.SetQuery("anything")
	select {
	case <-notices:
	case <-time.After(time.Second):
		t.Fatal("expected a notice")
	}
	if len(f.Calls()) != 0 {
		t.Error("search issued without a transcript")
	}
}

func TestTimerRearm(t *testing.T) {
	var tm Timer
	var mu sync.Mutex
	var fired []int

	for i := range 3 {
		tm.Arm(testWindow, func() {
			mu.Lock()
			fired = append(fired, i)
			mu.Unlock()
		})
	}
	time.Sleep(3 * testWindow)

	mu.Lock()
	defer mu.Unlock()
	if len(fired) != 1 || fired[0] != 2 {
		t.Errorf("fired = %v, want [2]", fired)
	}
}

func queries(calls []*call) []string {
	out := make([]string, len(calls))
	for i, c := range calls {
		out[i] = c.query
	}
	return out
}
