package wizard

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tessro/earshot/internal/core"
)

var recordings = []core.Resource{
	{ID: "a1", Name: "Weekly standup"},
	{ID: "a2", Name: "Budget review"},
	{ID: "a3", Name: "Standup retro"},
}

func TestFilter(t *testing.T) {
	tests := []struct {
		query string
		want  []string
	}{
		{"", []string{"a1", "a2", "a3"}},
		{"budget", []string{"a2"}},
		{"STANDUP", []string{"a3", "a1"}},
		{"zzz", nil},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got := Filter(recordings, tt.query)
			if len(got) != len(tt.want) {
				t.Fatalf("Filter(%q) = %v, want %v", tt.query, got, tt.want)
			}
			for i := range got {
				if got[i].ID != tt.want[i] {
					t.Errorf("Filter(%q)[%d] = %s, want %s", tt.query, i, got[i].ID, tt.want[i])
				}
			}
		})
	}
}

func TestPickerSelects(t *testing.T) {
	var m tea.Model = NewPickerModel(recordings)
	for _, r := range "review" {
		m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	got := m.(PickerModel).Selected()
	if got == nil || got.ID != "a2" {
		t.Fatalf("Selected() = %+v, want a2", got)
	}
}

func TestPickerCancel(t *testing.T) {
	var m tea.Model = NewPickerModel(recordings)
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if m.(PickerModel).Selected() != nil {
		t.Error("cancelled picker returned a selection")
	}
}
