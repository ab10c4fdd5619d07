package tail

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/samber/mo"

	"github.com/tessro/earshot/internal/core"
	"github.com/tessro/earshot/internal/errors"
	"github.com/tessro/earshot/internal/session"
)

func state(id string, mut func(*session.State)) session.State {
	st := session.State{
		Resource: mo.Some(core.Resource{ID: id, Name: "standup"}),
		Duration: 300 * time.Second,
		Volume:   100,
		Rate:     1,
	}
	if mut != nil {
		mut(&st)
	}
	return st
}

func types(events []Event) []EventType {
	out := make([]EventType, len(events))
	for i, e := range events {
		out[i] = e.Type
	}
	return out
}

func TestDiffStates(t *testing.T) {
	tests := []struct {
		name string
		prev func(*session.State)
		curr func(*session.State)
		want []EventType
	}{
		{
			name: "play",
			curr: func(s *session.State) { s.IsPlaying = true },
			want: []EventType{EventPlay},
		},
		{
			name: "pause",
			prev: func(s *session.State) { s.IsPlaying = true; s.CurrentTime = 10 * time.Second },
			curr: func(s *session.State) { s.CurrentTime = 10 * time.Second },
			want: []EventType{EventPause},
		},
		{
			name: "clock progress is not a seek",
			prev: func(s *session.State) { s.IsPlaying = true; s.CurrentTime = 10 * time.Second },
			curr: func(s *session.State) { s.IsPlaying = true; s.CurrentTime = 11 * time.Second },
			want: nil,
		},
		{
			name: "seek",
			prev: func(s *session.State) { s.CurrentTime = 10 * time.Second },
			curr: func(s *session.State) { s.CurrentTime = 90 * time.Second },
			want: []EventType{EventSeek},
		},
		{
			name: "ended",
			prev: func(s *session.State) { s.IsPlaying = true; s.CurrentTime = 299 * time.Second },
			curr: func(s *session.State) { s.CurrentTime = 0 },
			want: []EventType{EventEnded},
		},
		{
			name: "ready",
			prev: func(s *session.State) { s.IsLoading = true },
			want: []EventType{EventReady},
		},
		{
			name: "stall",
			prev: func(s *session.State) { s.IsPlaying = true },
			curr: func(s *session.State) { s.IsPlaying = true; s.IsLoading = true },
			want: []EventType{EventLoading},
		},
		{
			name: "output",
			curr: func(s *session.State) { s.Volume = 40; s.IsMuted = true; s.Rate = 1.5 },
			want: []EventType{EventVolumeChange, EventMuteChange, EventRateChange},
		},
		{
			name: "placeholder is not reported",
			curr: func(s *session.State) {
				s.Marks = []core.Bookmark{{ID: "tmp-1", Label: "Intro", Pending: true}}
			},
			want: nil,
		},
		{
			name: "confirmed bookmark",
			prev: func(s *session.State) {
				s.Marks = []core.Bookmark{{ID: "tmp-1", Label: "Intro", Pending: true}}
			},
			curr: func(s *session.State) {
				s.Marks = []core.Bookmark{{ID: "m1", Label: "Intro"}}
			},
			want: []EventType{EventMarkAdded},
		},
		{
			name: "removed bookmark",
			prev: func(s *session.State) { s.Marks = []core.Bookmark{{ID: "m1", Label: "Intro"}} },
			want: []EventType{EventMarkRemoved},
		},
		{
			name: "search results",
			prev: func(s *session.State) {
				s.Search = session.SearchState{Query: "budget", Pending: true, Generation: 3}
			},
			curr: func(s *session.State) {
				s.Search = session.SearchState{Query: "budget", Generation: 3, Hits: []core.SearchHit{{Text: "budget"}}}
			},
			want: []EventType{EventSearch},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prev := state("a1", tt.prev)
			got := types(diffStates(&prev, state("a1", tt.curr), nil))
			if len(got) != len(tt.want) {
				t.Fatalf("events = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("events = %v, want %v", got, tt.want)
					break
				}
			}
		})
	}
}

func TestDiffStatesSelection(t *testing.T) {
	got := types(diffStates(nil, state("a1", nil), nil))
	if len(got) != 1 || got[0] != EventSelect {
		t.Errorf("first update = %v, want select", got)
	}

	prev := state("a1", func(s *session.State) { s.IsPlaying = true })
	got = types(diffStates(&prev, state("a2", nil), nil))
	if len(got) != 1 || got[0] != EventSelect {
		t.Errorf("resource switch = %v, want only select", got)
	}
}

func TestWatcherFollowsSession(t *testing.T) {
	s := session.New(session.Options{
		Resource: mo.Some(core.Resource{ID: "a1", Name: "standup"}),
		Volume:   100,
		Rate:     1,
		Loading:  true,
	})
	w := NewWatcher(s)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.Start(ctx) }()

	// wait for the subscription before mutating
	time.Sleep(20 * time.Millisecond)

	s.MetadataReady(300 * time.Second)
	s.SetPlaying(true)
	for i := 1; i <= 30; i++ {
		s.SetCurrentTime(time.Duration(i) * 33 * time.Millisecond)
	}
	s.SetCurrentTime(120 * time.Second)
	s.Notify(errors.NewNotice(errors.NoticeRemote, "add bookmark", errors.ErrRemote))
	w.Stop()

	if err := <-done; err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	var got []EventType
	for e := range w.Events() {
		got = append(got, e.Type)
	}
	// the first update only announces the selection
	want := []EventType{EventSelect, EventPlay, EventSeek, EventNotice}
	if len(got) != len(want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("events = %v, want %v", got, want)
		}
	}
}

func TestFormatter(t *testing.T) {
	e := Event{
		Type:    EventMarkAdded,
		Current: state("a1", nil),
		Mark:    core.Bookmark{ID: "m1", Label: "Decision", Timestamp: 83 * time.Second},
	}

	plain := NewFormatter(WithEmoji(false)).Format(e)
	if plain != "Bookmark added: Decision @ 1:23" {
		t.Errorf("Format() = %q", plain)
	}

	withEmoji := NewFormatter().Format(e)
	if !strings.HasPrefix(withEmoji, "🔖 ") {
		t.Errorf("Format() = %q, want emoji prefix", withEmoji)
	}

	tmpl := NewFormatter(WithTemplate("{{.Type}} {{.Label}} {{.Duration}}")).Format(e)
	if tmpl != "mark_added Decision 5:00" {
		t.Errorf("template Format() = %q", tmpl)
	}

	bad := NewFormatter(WithEmoji(false), WithTemplate("{{.Nope")).Format(e)
	if bad != plain {
		t.Errorf("invalid template not ignored: %q", bad)
	}
}
