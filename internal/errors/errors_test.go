package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestGetSuggestion(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"explicit", WithSuggestion(errors.New("boom"), "do the thing"), "do the thing"},
		{"auth sentinel", fmt.Errorf("list bookmarks: %w", ErrNotAuthenticated), "earshot auth login"},
		{"auth status code", errors.New("API error 401: jwt expired"), "earshot auth login"},
		{"rejected", ErrPlaybackRejected, "Press space"},
		{"mpv missing", errors.New(`exec: "mpv": executable file not found in $PATH`), "Install mpv"},
		{"rate limit", errors.New("status 429"), "Too many requests"},
		{"network", fmt.Errorf("search: %w", ErrNetworkError), "Check your connection"},
		{"server", errors.New("API error 500: internal"), "server is having issues"},
		{"unknown", errors.New("something odd"), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GetSuggestion(tt.err)
			if tt.want == "" {
				if got != "" {
					t.Errorf("GetSuggestion() = %q, want empty", got)
				}
				return
			}
			if !strings.Contains(got, tt.want) {
				t.Errorf("GetSuggestion() = %q, want it to contain %q", got, tt.want)
			}
		})
	}
}

func TestFormat(t *testing.T) {
	if Format(nil) != "" {
		t.Error("Format(nil) should be empty")
	}

	got := Format(ErrNoSession)
	if !strings.HasPrefix(got, "Error: no resource selected") {
		t.Errorf("Format() = %q", got)
	}
	if !strings.Contains(got, "Suggestion:") {
		t.Errorf("Format() = %q, want a suggestion", got)
	}
}

func TestNoticeFor(t *testing.T) {
	tests := []struct {
		err  error
		want NoticeKind
	}{
		{fmt.Errorf("play: %w", ErrPlaybackRejected), NoticePlayback},
		{fmt.Errorf("load: %w", ErrPlayerUnavailable), NoticePlayer},
		{fmt.Errorf("create bookmark: %w", ErrRemote), NoticeRemote},
	}

	for _, tt := range tests {
		n := NoticeFor("action", tt.err)
		if n.Kind != tt.want {
			t.Errorf("NoticeFor(%v).Kind = %v, want %v", tt.err, n.Kind, tt.want)
		}
		if !strings.HasPrefix(n.Message, "action: ") {
			t.Errorf("Message = %q", n.Message)
		}
		if !errors.Is(n.Err, tt.err) {
			t.Errorf("Err = %v, want %v", n.Err, tt.err)
		}
	}
}
