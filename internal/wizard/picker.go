package wizard

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"
	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/tessro/earshot/internal/core"
	"github.com/tessro/earshot/internal/tui/styles"
)

// PickerModel is the bubbletea model for the resource picker.
type PickerModel struct {
	input     textinput.Model
	resources []core.Resource
	matches   []core.Resource
	cursor    int
	selected  *core.Resource
	width     int
	height    int
}

// NewPickerModel creates a picker over resources.
func NewPickerModel(resources []core.Resource) PickerModel {
	ti := textinput.New()
	ti.Placeholder = "Filter recordings..."
	ti.Focus()
	ti.CharLimit = 100
	ti.Width = 50

	return PickerModel{
		input:     ti,
		resources: resources,
		matches:   resources,
		width:     80,
		height:    20,
	}
}

// Init initializes the model.
func (m PickerModel) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages.
func (m PickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit

		case "enter":
			if m.cursor < len(m.matches) {
				r := m.matches[m.cursor]
				m.selected = &r
				return m, tea.Quit
			}
			return m, nil

		case "up", "ctrl+p":
			if m.cursor > 0 {
				m.cursor--
			}
			return m, nil

		case "down", "ctrl+n":
			if m.cursor < len(m.matches)-1 {
				m.cursor++
			}
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = msg.Width - 4
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.input.Value() != before {
		m.matches = Filter(m.resources, m.input.Value())
		m.cursor = 0
	}
	return m, cmd
}

// Filter returns the resources whose names fuzzily match query, best
// match first. An empty query keeps the original order.
func Filter(resources []core.Resource, query string) []core.Resource {
	query = strings.TrimSpace(query)
	if query == "" {
		return resources
	}

	names := make([]string, len(resources))
	for i, r := range resources {
		names[i] = r.Name
	}
	ranks := fuzzy.RankFindNormalizedFold(query, names)
	sort.Stable(ranks)

	out := make([]core.Resource, 0, len(ranks))
	for _, rank := range ranks {
		out = append(out, resources[rank.OriginalIndex])
	}
	return out
}

// View renders the model.
func (m PickerModel) View() string {
	var b strings.Builder

	b.WriteString(styles.Highlight.Render("🎧 Select Recording"))
	b.WriteString("\n\n")
	b.WriteString(m.input.View())
	b.WriteString("\n\n")

	switch {
	case len(m.resources) == 0:
		b.WriteString(styles.Muted.Render("No recordings found"))
		b.WriteString("\n")
	case len(m.matches) == 0:
		b.WriteString(styles.Muted.Render("No matches"))
		b.WriteString("\n")
	default:
		maxRows := max(m.height-8, 5)
		for i, r := range m.matches {
			if i >= maxRows {
				b.WriteString(styles.Dim.Render(fmt.Sprintf("  ...and %d more", len(m.matches)-i)))
				b.WriteString("\n")
				break
			}
			line := r.Name + " " + styles.Dim.Render(describe(r))
			if i == m.cursor {
				b.WriteString(styles.Selected.Render("▸ " + line))
			} else {
				b.WriteString("  " + line)
			}
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(styles.Dim.Render("↑/↓ navigate • enter select • esc quit"))
	return b.String()
}

func describe(r core.Resource) string {
	parts := []string{core.FormatTime(r.Duration)}
	if r.FileSize > 0 {
		parts = append(parts, humanize.Bytes(uint64(r.FileSize)))
	}
	if !r.CreatedAt.IsZero() {
		parts = append(parts, humanize.Time(r.CreatedAt))
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// Selected returns the chosen resource, or nil if the picker was cancelled.
func (m PickerModel) Selected() *core.Resource {
	return m.selected
}

// RunPicker runs the picker and returns the chosen resource.
func RunPicker(resources []core.Resource) (*core.Resource, error) {
	p := tea.NewProgram(NewPickerModel(resources), tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		return nil, err
	}
	return final.(PickerModel).Selected(), nil
}
