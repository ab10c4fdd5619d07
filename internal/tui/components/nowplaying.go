package components

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/samber/mo"

	"github.com/tessro/earshot/internal/core"
	"github.com/tessro/earshot/internal/session"
	"github.com/tessro/earshot/internal/tui/styles"
)

// NowPlaying displays the selected resource and its transport state.
type NowPlaying struct{}

// NewNowPlaying creates a new NowPlaying component
func NewNowPlaying() *NowPlaying {
	return &NowPlaying{}
}

// Render renders the now playing panel. scrub is the draft position while
// a scrub gesture is active.
func (n *NowPlaying) Render(st session.State, scrub mo.Option[time.Duration], width, height int) string {
	title := styles.PanelTitle("Now Playing", true)

	var content string
	if r, ok := st.Resource.Get(); ok {
		content = n.renderResource(st, r, scrub, width-4)
	} else {
		content = styles.Muted.Render("Nothing selected")
	}

	panel := styles.Panel(true).
		Width(width).
		Height(height)

	return panel.Render(lipgloss.JoinVertical(lipgloss.Left,
		title,
		"",
		content,
	))
}

func (n *NowPlaying) renderResource(st session.State, r core.Resource, scrub mo.Option[time.Duration], width int) string {
	icon := styles.StatusIcon(st.IsPlaying, st.IsLoading)
	name := styles.Title.Width(max(width-4, 10)).Render(r.Name)

	var details []string
	if r.FileSize > 0 {
		details = append(details, humanize.Bytes(uint64(r.FileSize)))
	}
	if !r.CreatedAt.IsZero() {
		details = append(details, "added "+humanize.Time(r.CreatedAt))
	}
	if r.TranscriptAvailable() {
		details = append(details, "transcript")
	}
	meta := styles.Subtitle.Render(strings.Join(details, " · "))

	pos := st.CurrentTime
	fraction := st.Progress()
	draft, scrubbing := scrub.Get()
	if scrubbing {
		pos = draft
		if st.Duration > 0 {
			fraction = float64(pos) / float64(st.Duration)
		}
	}

	progressWidth := max(width-16, 10)
	current := core.FormatTime(pos)
	if scrubbing {
		current = styles.Highlight.Render(current)
	}
	progress := fmt.Sprintf("%s %s %s", current, styles.ProgressBar(fraction, progressWidth), core.FormatTime(st.Duration))

	return lipgloss.JoinVertical(lipgloss.Left,
		icon+" "+name,
		"  "+meta,
		"",
		progress,
		"",
		n.renderOutput(st),
	)
}

func (n *NowPlaying) renderOutput(st session.State) string {
	volume := fmt.Sprintf("🔊 %d%%", st.Volume)
	if st.IsMuted {
		volume = "🔇 muted"
	}
	parts := []string{volume, fmt.Sprintf("%gx", st.Rate)}
	if st.IsLoading {
		parts = append(parts, "buffering")
	}
	return styles.Muted.Render(strings.Join(parts, "  "))
}
