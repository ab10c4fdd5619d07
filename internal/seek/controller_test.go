package seek

import (
	"context"
	"testing"
	"time"

	"github.com/samber/mo"

	"github.com/tessro/earshot/internal/core"
	"github.com/tessro/earshot/internal/media/mediatest"
	"github.com/tessro/earshot/internal/session"
)

func setup(t *testing.T, duration time.Duration) (*Controller, *session.Session, *mediatest.Handle) {
	t.Helper()
	s := session.New(session.Options{Resource: mo.Some(core.Resource{ID: "9"})})
	if duration > 0 {
		s.MetadataReady(duration)
	}
	h := mediatest.New()
	return New(s, h, DefaultTolerance), s, h
}

func TestSeekClamps(t *testing.T) {
	ctx := context.Background()
	c, s, _ := setup(t, 300*time.Second)

	tests := []struct {
		in, want time.Duration
	}{
		{-10 * time.Second, 0},
		{0, 0},
		{150 * time.Second, 150 * time.Second},
		{300 * time.Second, 300 * time.Second},
		{10 * time.Minute, 300 * time.Second},
	}

	for _, tt := range tests {
		got, err := c.Seek(ctx, tt.in)
		if err != nil {
			t.Fatalf("Seek(%v) error = %v", tt.in, err)
		}
		if got != tt.want || s.State().CurrentTime != tt.want {
			t.Errorf("Seek(%v) = %v (state %v), want %v", tt.in, got, s.State().CurrentTime, tt.want)
		}
	}
}

func TestSeekTolerance(t *testing.T) {
	ctx := context.Background()
	c, _, h := setup(t, 300*time.Second)

	h.SetPosition(100 * time.Second)

	tests := []struct {
		name      string
		target    time.Duration
		wantSeeks int
	}{
		{"within tolerance", 100*time.Second + 600*time.Millisecond, 0},
		{"exactly tolerance", 101 * time.Second, 0},
		{"past tolerance", 130 * time.Second, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := len(h.Seeks())
			if _, err := c.Seek(ctx, tt.target); err != nil {
				t.Fatalf("Seek() error = %v", err)
			}
			if got := len(h.Seeks()) - before; got != tt.wantSeeks {
				t.Errorf("handle seeks = %d, want %d", got, tt.wantSeeks)
			}
			h.SetPosition(100 * time.Second)
		})
	}
}

func TestSeekBeforeDurationKnown(t *testing.T) {
	c, s, h := setup(t, 0)

	got, err := c.Seek(context.Background(), 30*time.Second)
	if err != nil {
		t.Fatalf("Seek() error = %v", err)
	}
	if got != 0 || s.State().CurrentTime != 0 {
		t.Errorf("Seek() = %v, want 0 while duration is unknown", got)
	}
	if len(h.Seeks()) != 0 {
		t.Error("handle must not be written before metadata")
	}
}

func TestSkipForwardClampsAtEnd(t *testing.T) {
	ctx := context.Background()
	c, s, h := setup(t, 300*time.Second)

	if _, err := c.Seek(ctx, 290*time.Second); err != nil {
		t.Fatal(err)
	}
	got, err := c.SkipForward(ctx, 15*time.Second)
	if err != nil {
		t.Fatal(err)
	}
	if got != 300*time.Second || s.State().CurrentTime != 300*time.Second {
		t.Errorf("SkipForward = %v, want 5m0s", got)
	}
	seeks := h.Seeks()
	if seeks[len(seeks)-1] != 300*time.Second {
		t.Errorf("last handle seek = %v", seeks[len(seeks)-1])
	}
}

func TestSkipBackward(t *testing.T) {
	ctx := context.Background()
	c, _, _ := setup(t, 300*time.Second)

	if _, err := c.Seek(ctx, 20*time.Second); err != nil {
		t.Fatal(err)
	}
	if got, _ := c.SkipBackward(ctx, DefaultSkip); got != 5*time.Second {
		t.Errorf("SkipBackward = %v, want 5s", got)
	}
	if got, _ := c.SkipBackward(ctx, DefaultSkip); got != 0 {
		t.Errorf("SkipBackward = %v, want 0", got)
	}
}

func TestScrubPreviewThenCommit(t *testing.T) {
	ctx := context.Background()
	c, s, h := setup(t, 300*time.Second)
	sc := c.Scrubber()

	for _, p := range []time.Duration{10, 40, 80, 120} {
		sc.Preview(p * time.Second)
	}
	if s.State().CurrentTime != 0 {
		t.Error("preview must not touch the session")
	}
	if len(h.Seeks()) != 0 {
		t.Error("preview must not touch the handle")
	}
	if sc.Position() != 120*time.Second || !sc.Active() {
		t.Errorf("draft = %v active=%v", sc.Position(), sc.Active())
	}

	got, err := sc.Commit(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got != 120*time.Second || s.State().CurrentTime != 120*time.Second {
		t.Errorf("Commit() = %v", got)
	}
	if seeks := h.Seeks(); len(seeks) != 1 || seeks[0] != 120*time.Second {
		t.Errorf("handle seeks = %v, want exactly [2m0s]", seeks)
	}
	if sc.Active() {
		t.Error("drag should end on commit")
	}
}

func TestScrubCancelAndNudge(t *testing.T) {
	ctx := context.Background()
	c, s, h := setup(t, 60*time.Second)
	if _, err := c.Seek(ctx, 30*time.Second); err != nil {
		t.Fatal(err)
	}
	seeks := len(h.Seeks())

	sc := c.Scrubber()
	sc.Nudge(5 * time.Second)
	sc.Nudge(50 * time.Second)
	if sc.Position() != 60*time.Second {
		t.Errorf("nudged draft = %v, want clamp to 1m0s", sc.Position())
	}

	sc.Cancel()
	if sc.Position() != 30*time.Second {
		t.Errorf("Position after cancel = %v, want playhead", sc.Position())
	}
	if _, err := sc.Commit(ctx); err != nil {
		t.Fatal(err)
	}
	if len(h.Seeks()) != seeks || s.State().CurrentTime != 30*time.Second {
		t.Error("commit without a drag should not seek")
	}
}
