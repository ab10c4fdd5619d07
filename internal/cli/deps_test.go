package cli

import (
	"testing"

	"github.com/tessro/earshot/internal/core"
)

func TestMatchResource(t *testing.T) {
	resources := []core.Resource{
		{ID: "17", Name: "Weekly standup"},
		{ID: "18", Name: "Budget review 17"},
	}

	tests := []struct {
		query  string
		want   string
		wantOK bool
	}{
		{"17", "17", true},
		{"budget", "18", true},
		{"weekly", "17", true},
		{"retro", "", false},
	}
	for _, tt := range tests {
		got, ok := matchResource(resources, tt.query)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("matchResource(%q) = %q, %v, want %q, %v", tt.query, got, ok, tt.want, tt.wantOK)
		}
	}
}
