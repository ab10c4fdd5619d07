package errors

import (
	"errors"
	"fmt"
)

// NoticeKind classifies a one-shot message surfaced to the UI.
type NoticeKind int

const (
	// NoticePlayback is a refused or failed play attempt.
	NoticePlayback NoticeKind = iota
	// NoticeRemote is a failed bookmark, search, or metadata call.
	NoticeRemote
	// NoticePlayer is a media player failure that is not a play refusal.
	NoticePlayer
)

func (k NoticeKind) String() string {
	switch k {
	case NoticePlayback:
		return "playback"
	case NoticeRemote:
		return "remote"
	case NoticePlayer:
		return "player"
	default:
		return "unknown"
	}
}

// Notice is a non-fatal, locally scoped error state. Notices are emitted
// once and never retried.
type Notice struct {
	Kind       NoticeKind
	Message    string
	Suggestion string
	Err        error
}

// NewNotice builds a notice for err, prefixed with the action that failed.
func NewNotice(kind NoticeKind, action string, err error) Notice {
	msg := action
	if err != nil {
		msg = fmt.Sprintf("%s: %v", action, err)
	}
	return Notice{
		Kind:       kind,
		Message:    msg,
		Suggestion: GetSuggestion(err),
		Err:        err,
	}
}

// NoticeFor picks the notice kind from the error chain.
func NoticeFor(action string, err error) Notice {
	switch {
	case errors.Is(err, ErrPlaybackRejected):
		return NewNotice(NoticePlayback, action, err)
	case errors.Is(err, ErrPlayerUnavailable):
		return NewNotice(NoticePlayer, action, err)
	default:
		return NewNotice(NoticeRemote, action, err)
	}
}

func (n Notice) String() string {
	if n.Suggestion != "" {
		return n.Message + " (" + n.Suggestion + ")"
	}
	return n.Message
}
