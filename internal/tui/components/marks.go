package components

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/tessro/earshot/internal/core"
	"github.com/tessro/earshot/internal/tui/styles"
)

// Marks displays the session's bookmarks with a movable selection.
type Marks struct {
	selected int
	offset   int
}

// NewMarks creates a new Marks component
func NewMarks() *Marks {
	return &Marks{}
}

// SelectNext moves the selection down.
func (m *Marks) SelectNext(count int) {
	if m.selected < count-1 {
		m.selected++
	}
}

// SelectPrev moves the selection up.
func (m *Marks) SelectPrev() {
	if m.selected > 0 {
		m.selected--
	}
}

// Selected returns the selected bookmark, if any.
func (m *Marks) Selected(marks []core.Bookmark) (core.Bookmark, bool) {
	if len(marks) == 0 {
		return core.Bookmark{}, false
	}
	return marks[min(m.selected, len(marks)-1)], true
}

// Render renders the bookmarks panel
func (m *Marks) Render(marks []core.Bookmark, width, height int, focused bool) string {
	title := styles.PanelTitle(fmt.Sprintf("Bookmarks (%d)", len(marks)), focused)

	var content string
	if len(marks) == 0 {
		content = styles.Muted.Render("No bookmarks. Press b to add one")
	} else {
		content = m.renderMarks(marks, width-4, height-4, focused)
	}

	panel := styles.Panel(focused).
		Width(width).
		Height(height)

	return panel.Render(lipgloss.JoinVertical(lipgloss.Left,
		title,
		"",
		content,
	))
}

func (m *Marks) renderMarks(marks []core.Bookmark, width, maxLines int, focused bool) string {
	m.selected = min(m.selected, len(marks)-1)

	visible := max(maxLines-1, 1)
	if m.selected < m.offset {
		m.offset = m.selected
	}
	if m.selected >= m.offset+visible {
		m.offset = m.selected - visible + 1
	}

	start := m.offset
	end := min(start+visible, len(marks))
	lines := make([]string, 0, end-start+1)

	// "XX. " (4) + "h:mm:ss " (8) + cursor (2)
	const overhead = 14

	for i := start; i < end; i++ {
		b := marks[i]
		num := fmt.Sprintf("%2d.", i+1)
		at := fmt.Sprintf("%7s", core.FormatTime(b.Timestamp))
		label := truncate(b.Label, width-overhead)

		var line string
		switch {
		case b.Pending:
			line = styles.Dim.Render(fmt.Sprintf("%s %s %s (saving)", num, at, label))
		case i == m.selected && focused:
			line = styles.Selected.Render(fmt.Sprintf("%s %s ▸ %s", num, styles.Highlight.Render(at), label))
		default:
			line = fmt.Sprintf("%s %s   %s", styles.Dim.Render(num), styles.Muted.Render(at), label)
		}
		lines = append(lines, line)
	}

	if end < len(marks) {
		lines = append(lines, styles.Dim.Render(fmt.Sprintf("    ... and %d more", len(marks)-end)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func truncate(s string, max int) string {
	r := []rune(s)
	if max <= 0 {
		return ""
	}
	if len(r) <= max {
		return s
	}
	if max <= 3 {
		return string(r[:max])
	}
	return string(r[:max-3]) + "..."
}
