package session

import (
	"slices"
	"time"

	"github.com/samber/lo"

	"github.com/tessro/earshot/internal/core"
)

// SetMarks replaces the confirmed bookmarks wholesale. Pending
// placeholders survive so their in-flight creates can still land.
// Duplicate ids keep the first occurrence.
func (s *Session) SetMarks(marks []core.Bookmark) {
	s.mutate(func(st *State) bool {
		pending := lo.Filter(st.Marks, func(b core.Bookmark, _ int) bool { return b.Pending })
		st.Marks = lo.UniqBy(append(slices.Clone(marks), pending...), func(b core.Bookmark) string { return b.ID })
		clampMarks(st.Marks, st.Duration)
		return true
	}, nil)
}

// AddMark appends b unless a mark with the same id exists.
func (s *Session) AddMark(b core.Bookmark) bool {
	return s.mutate(func(st *State) bool {
		if slices.ContainsFunc(st.Marks, sameID(b.ID)) {
			return false
		}
		st.Marks = append(st.Marks, b)
		clampMarks(st.Marks, st.Duration)
		return true
	}, nil)
}

// ReplaceMark swaps the placeholder tempID for confirmed, in place. It
// returns false if the placeholder is gone, in which case nothing changes.
func (s *Session) ReplaceMark(tempID string, confirmed core.Bookmark) bool {
	return s.mutate(func(st *State) bool {
		i := slices.IndexFunc(st.Marks, sameID(tempID))
		if i < 0 {
			return false
		}
		if slices.ContainsFunc(st.Marks, sameID(confirmed.ID)) {
			st.Marks = slices.Delete(st.Marks, i, i+1)
			return true
		}
		st.Marks[i] = confirmed
		clampMarks(st.Marks, st.Duration)
		return true
	}, nil)
}

// RemoveMark drops the mark with id. Removing an absent id is a no-op.
func (s *Session) RemoveMark(id string) (core.Bookmark, bool) {
	var removed core.Bookmark
	ok := s.mutate(func(st *State) bool {
		i := slices.IndexFunc(st.Marks, sameID(id))
		if i < 0 {
			return false
		}
		removed = st.Marks[i]
		st.Marks = slices.Delete(st.Marks, i, i+1)
		return true
	}, nil)
	return removed, ok
}

func sameID(id string) func(core.Bookmark) bool {
	return func(b core.Bookmark) bool { return b.ID == id }
}

// clampMarks keeps every timestamp inside [0, duration]. Before any
// duration is known the server's timestamps are kept as they are.
func clampMarks(marks []core.Bookmark, duration time.Duration) {
	if duration <= 0 {
		return
	}
	for i := range marks {
		marks[i].Timestamp = core.ClampTime(marks[i].Timestamp, duration)
	}
}
