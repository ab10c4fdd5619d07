package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Error types for common failure scenarios.
var (
	ErrNotAuthenticated  = errors.New("not authenticated")
	ErrNoSession         = errors.New("no resource selected")
	ErrSuperseded        = errors.New("selection superseded")
	ErrPlaybackRejected  = errors.New("playback rejected")
	ErrEmptyLabel        = errors.New("bookmark label is empty")
	ErrBookmarkNotFound  = errors.New("bookmark not found")
	ErrResourceNotFound  = errors.New("resource not found")
	ErrInvalidRate       = errors.New("unsupported playback rate")
	ErrNoTranscript      = errors.New("resource has no transcript")
	ErrInvalidLanguage   = errors.New("unsupported summary language")
	ErrRemote            = errors.New("remote operation failed")
	ErrRateLimited       = errors.New("rate limited")
	ErrNetworkError      = errors.New("network error")
	ErrTimeout           = errors.New("request timeout")
	ErrPlayerUnavailable = errors.New("media player unavailable")
	ErrConfigNotFound    = errors.New("config file not found")
	ErrInvalidConfig     = errors.New("invalid configuration")
)

// EarshotError wraps an error with a user-friendly suggestion.
type EarshotError struct {
	Err        error
	Suggestion string
}

func (e *EarshotError) Error() string {
	return e.Err.Error()
}

func (e *EarshotError) Unwrap() error {
	return e.Err
}

// WithSuggestion wraps an error with a helpful suggestion.
func WithSuggestion(err error, suggestion string) error {
	return &EarshotError{
		Err:        err,
		Suggestion: suggestion,
	}
}

// GetSuggestion returns a suggestion for the given error.
func GetSuggestion(err error) string {
	if err == nil {
		return ""
	}

	var earshotErr *EarshotError
	if errors.As(err, &earshotErr) && earshotErr.Suggestion != "" {
		return earshotErr.Suggestion
	}

	errStr := strings.ToLower(err.Error())

	if errors.Is(err, ErrNotAuthenticated) || strings.Contains(errStr, "not authenticated") ||
		strings.Contains(errStr, "401") || strings.Contains(errStr, "unauthorized") {
		return "Run 'earshot auth login' to sign in"
	}

	if errors.Is(err, ErrNoSession) {
		return "Select a resource first with 'earshot play <id>'"
	}

	if errors.Is(err, ErrPlaybackRejected) {
		return "Playback was refused by the player. Press space to try again"
	}

	if errors.Is(err, ErrPlayerUnavailable) || strings.Contains(errStr, "executable file not found") {
		return "Install mpv or set player.mpv_path in your config"
	}

	if errors.Is(err, ErrResourceNotFound) || errors.Is(err, ErrBookmarkNotFound) {
		return "Run 'earshot ls' to see available resources"
	}

	if errors.Is(err, ErrRateLimited) || strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "429") {
		return "Too many requests. Wait a moment and try again"
	}

	if errors.Is(err, ErrNetworkError) || errors.Is(err, ErrTimeout) ||
		strings.Contains(errStr, "network") || strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "connection refused") {
		return "Check your connection and api.base_url, then try again"
	}

	if errors.Is(err, ErrInvalidLanguage) {
		return "Use one of: english, hausa, yoruba, igbo"
	}

	if errors.Is(err, ErrConfigNotFound) || errors.Is(err, ErrInvalidConfig) {
		return "Run 'earshot config init' to write a default configuration"
	}

	if strings.Contains(errStr, "500") || strings.Contains(errStr, "server error") {
		return "The server is having issues. Try again in a moment"
	}

	return ""
}

// Format returns a formatted error message with suggestion if available.
func Format(err error) string {
	if err == nil {
		return ""
	}

	suggestion := GetSuggestion(err)
	if suggestion != "" {
		return fmt.Sprintf("Error: %s\n\nSuggestion: %s", err.Error(), suggestion)
	}

	return fmt.Sprintf("Error: %s", err.Error())
}
