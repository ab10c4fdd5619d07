package tail

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/tessro/earshot/internal/core"
)

// Formatter formats events for output.
type Formatter struct {
	showEmoji     bool
	showTimestamp bool
	template      *template.Template
}

// FormatterOption configures a Formatter.
type FormatterOption func(*Formatter)

// WithEmoji enables emoji output.
func WithEmoji(enabled bool) FormatterOption {
	return func(f *Formatter) {
		f.showEmoji = enabled
	}
}

// WithTimestamp enables timestamp output.
func WithTimestamp(enabled bool) FormatterOption {
	return func(f *Formatter) {
		f.showTimestamp = enabled
	}
}

// WithTemplate sets a custom format template. An invalid template is
// ignored.
func WithTemplate(tmpl string) FormatterOption {
	return func(f *Formatter) {
		if tmpl == "" {
			return
		}
		if t, err := template.New("format").Parse(tmpl); err == nil {
			f.template = t
		}
	}
}

// NewFormatter creates a new formatter with the given options.
func NewFormatter(opts ...FormatterOption) *Formatter {
	f := &Formatter{showEmoji: true}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Format formats an event as a string.
func (f *Formatter) Format(e Event) string {
	if f.template != nil {
		return f.formatTemplate(e)
	}
	return f.formatLine(e)
}

func (f *Formatter) formatLine(e Event) string {
	var parts []string
	if f.showTimestamp {
		parts = append(parts, e.Timestamp.Format("15:04:05"))
	}
	if f.showEmoji {
		parts = append(parts, eventEmoji(e.Type))
	}
	parts = append(parts, eventDescription(e))
	return strings.Join(parts, " ")
}

func (f *Formatter) formatTemplate(e Event) string {
	st := e.Current
	data := templateData{
		Type:      eventTypeName(e.Type),
		Emoji:     eventEmoji(e.Type),
		Timestamp: e.Timestamp,
		Time:      e.Timestamp.Format("15:04:05"),
		Resource:  st.Resource.OrEmpty().Name,
		Position:  core.FormatTime(st.CurrentTime),
		Duration:  core.FormatTime(st.Duration),
		Volume:    st.Volume,
		Rate:      st.Rate,
		Label:     e.Mark.Label,
	}
	if e.Notice != nil {
		data.Message = e.Notice.Message
	}

	var buf bytes.Buffer
	if err := f.template.Execute(&buf, data); err != nil {
		return f.formatLine(e)
	}
	return buf.String()
}

type templateData struct {
	Type      string
	Emoji     string
	Timestamp time.Time
	Time      string
	Resource  string
	Position  string
	Duration  string
	Volume    int
	Rate      float64
	Label     string
	Message   string
}

func eventDescription(e Event) string {
	st := e.Current
	switch e.Type {
	case EventSelect:
		if r, ok := st.Resource.Get(); ok {
			return fmt.Sprintf("Selected: %s", r.Name)
		}
		return "Selected"
	case EventReady:
		return fmt.Sprintf("Ready (%s)", core.FormatTime(st.Duration))
	case EventPlay:
		return fmt.Sprintf("Playing at %s", core.FormatTime(st.CurrentTime))
	case EventPause:
		return fmt.Sprintf("Paused at %s", core.FormatTime(st.CurrentTime))
	case EventSeek:
		return fmt.Sprintf("Seek to %s / %s", core.FormatTime(st.CurrentTime), core.FormatTime(st.Duration))
	case EventEnded:
		return "Finished"
	case EventLoading:
		return "Buffering..."
	case EventVolumeChange:
		return fmt.Sprintf("Volume: %d%%", st.Volume)
	case EventMuteChange:
		if st.IsMuted {
			return "Muted"
		}
		return "Unmuted"
	case EventRateChange:
		return fmt.Sprintf("Rate: %gx", st.Rate)
	case EventMarkAdded:
		return fmt.Sprintf("Bookmark added: %s @ %s", e.Mark.Label, core.FormatTime(e.Mark.Timestamp))
	case EventMarkRemoved:
		return fmt.Sprintf("Bookmark removed: %s", e.Mark.Label)
	case EventSearch:
		return fmt.Sprintf("Search %q: %d hits", st.Search.Query, len(st.Search.Hits))
	case EventNotice:
		if e.Notice != nil {
			return e.Notice.String()
		}
		return "Notice"
	default:
		return "Unknown event"
	}
}

func eventEmoji(t EventType) string {
	switch t {
	case EventSelect:
		return "🎧"
	case EventReady:
		return "✅"
	case EventPlay:
		return "▶️"
	case EventPause:
		return "⏸️"
	case EventSeek:
		return "⏩"
	case EventEnded:
		return "⏹️"
	case EventLoading:
		return "⏳"
	case EventVolumeChange:
		return "🔊"
	case EventMuteChange:
		return "🔇"
	case EventRateChange:
		return "🐇"
	case EventMarkAdded:
		return "🔖"
	case EventMarkRemoved:
		return "🗑️"
	case EventSearch:
		return "🔎"
	case EventNotice:
		return "⚠️"
	default:
		return "❓"
	}
}

func eventTypeName(t EventType) string {
	switch t {
	case EventSelect:
		return "select"
	case EventReady:
		return "ready"
	case EventPlay:
		return "play"
	case EventPause:
		return "pause"
	case EventSeek:
		return "seek"
	case EventEnded:
		return "ended"
	case EventLoading:
		return "loading"
	case EventVolumeChange:
		return "volume_change"
	case EventMuteChange:
		return "mute_change"
	case EventRateChange:
		return "rate_change"
	case EventMarkAdded:
		return "mark_added"
	case EventMarkRemoved:
		return "mark_removed"
	case EventSearch:
		return "search"
	case EventNotice:
		return "notice"
	default:
		return "unknown"
	}
}
