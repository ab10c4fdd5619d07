package session

import (
	"slices"
	"time"

	"github.com/samber/mo"

	"github.com/tessro/earshot/internal/core"
	"github.com/tessro/earshot/internal/errors"
)

// State is a point-in-time copy of a session. Views receive it by value
// and may keep it; slices are never shared with the live session.
type State struct {
	Resource    mo.Option[core.Resource]
	CurrentTime time.Duration
	Duration    time.Duration
	IsPlaying   bool
	Volume      int
	IsMuted     bool
	Rate        float64
	IsLoading   bool
	Marks       []core.Bookmark
	Search      SearchState
}

// SearchState is what the transcript panel displays.
type SearchState struct {
	Query      string
	Hits       []core.SearchHit
	Pending    bool
	Generation uint64
}

// Update is delivered to subscribers after every effective mutation.
// Notice is set only on the update that raised it.
type Update struct {
	State  State
	Notice *errors.Notice
}

// Progress returns playback progress as a fraction in [0, 1].
func (s State) Progress() float64 {
	if s.Duration <= 0 {
		return 0
	}
	return float64(s.CurrentTime) / float64(s.Duration)
}

// Mark returns the bookmark with id.
func (s State) Mark(id string) (core.Bookmark, bool) {
	i := slices.IndexFunc(s.Marks, func(b core.Bookmark) bool { return b.ID == id })
	if i < 0 {
		return core.Bookmark{}, false
	}
	return s.Marks[i], true
}

func (s State) clone() State {
	s.Marks = slices.Clone(s.Marks)
	s.Search.Hits = slices.Clone(s.Search.Hits)
	return s
}
