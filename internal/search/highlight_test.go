package search

import (
	"reflect"
	"testing"

	"github.com/tessro/earshot/internal/core"
)

func TestHighlight(t *testing.T) {
	tests := []struct {
		name, text, query string
		want              []Fragment
	}{
		{"empty query", "hello world", "", []Fragment{{Text: "hello world"}}},
		{"no match", "hello world", "xyz", []Fragment{{Text: "hello world"}}},
		{
			"case insensitive", "Machine learning and machines", "machine",
			[]Fragment{
				{Text: "Machine", Match: true},
				{Text: " learning and "},
				{Text: "machine", Match: true},
				{Text: "s"},
			},
		},
		{"whole text", "abc", "ABC", []Fragment{{Text: "abc", Match: true}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Highlight(tt.text, tt.query); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Highlight() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestFilterSegments(t *testing.T) {
	segs := []core.Segment{
		{ID: "1", Text: "Welcome to the quarterly review"},
		{ID: "2", Text: "Revenue grew in Q3"},
		{ID: "3", Text: "Questions from the floor"},
	}

	if got := FilterSegments(segs, "re"); len(got) != 3 {
		t.Errorf("short query filtered to %d", len(got))
	}
	got := FilterSegments(segs, "REV")
	if len(got) != 2 || got[0].ID != "1" || got[1].ID != "2" {
		t.Errorf("FilterSegments(REV) = %+v", got)
	}
}
