package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/tessro/earshot/internal/core"
	"github.com/tessro/earshot/internal/search"
	"github.com/tessro/earshot/internal/session"
	"github.com/tessro/earshot/internal/tui/styles"
)

// Transcript displays transcript search hits with the query highlighted.
type Transcript struct {
	cursor int
}

// NewTranscript creates a new Transcript component
func NewTranscript() *Transcript {
	return &Transcript{}
}

// Next moves the cursor down.
func (t *Transcript) Next(count int) {
	if t.cursor < count-1 {
		t.cursor++
	}
}

// Prev moves the cursor up.
func (t *Transcript) Prev() {
	if t.cursor > 0 {
		t.cursor--
	}
}

// Reset returns the cursor to the first hit.
func (t *Transcript) Reset() {
	t.cursor = 0
}

// Selected returns the hit under the cursor.
func (t *Transcript) Selected(hits []core.SearchHit) (core.SearchHit, bool) {
	if len(hits) == 0 {
		return core.SearchHit{}, false
	}
	return hits[min(t.cursor, len(hits)-1)], true
}

// Render renders the transcript panel
func (t *Transcript) Render(s session.SearchState, input string, width, height int, focused bool) string {
	title := styles.PanelTitle("Transcript", focused)

	var content string
	switch {
	case s.Pending:
		content = styles.Muted.Render("Searching...")
	case len(s.Hits) > 0:
		content = t.renderHits(s, width-4, height-6, focused)
	case s.Query != "":
		content = styles.Muted.Render(fmt.Sprintf("No matches for %q", s.Query))
	default:
		content = styles.Muted.Render("Press / to search the transcript")
	}

	panel := styles.Panel(focused).
		Width(width).
		Height(height)

	parts := []string{title, ""}
	if input != "" {
		parts = append(parts, input, "")
	}
	parts = append(parts, content)
	return panel.Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}

func (t *Transcript) renderHits(s session.SearchState, width, maxLines int, focused bool) string {
	t.cursor = min(t.cursor, len(s.Hits)-1)
	lines := make([]string, 0, maxLines)

	// time column (8) + cursor (2)
	const overhead = 10

	for i, hit := range s.Hits {
		if i >= max(maxLines, 1) {
			lines = append(lines, styles.Dim.Render(fmt.Sprintf("  ... %d more", len(s.Hits)-i)))
			break
		}

		at := fmt.Sprintf("%7s", core.FormatTime(hit.Start))
		text := renderMatches(truncate(hit.Text, width-overhead), s.Query)

		cursor := "  "
		if i == t.cursor && focused {
			cursor = styles.Highlight.Render("▸ ")
		}
		lines = append(lines, cursor+styles.Muted.Render(at)+" "+text)
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderMatches(text, query string) string {
	var b strings.Builder
	for _, f := range search.Highlight(text, query) {
		if f.Match {
			b.WriteString(styles.Match.Render(f.Text))
		} else {
			b.WriteString(f.Text)
		}
	}
	return b.String()
}
