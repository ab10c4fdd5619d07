package wizard

import (
	"context"
	"os"

	"golang.org/x/term"

	"github.com/tessro/earshot/internal/core"
)

// ListFunc fetches the resources offered by the picker.
type ListFunc func(ctx context.Context) ([]core.Resource, error)

// Interactive provides interactive fallbacks for missing arguments.
type Interactive struct {
	enabled bool
	list    ListFunc
}

// NewInteractive creates a new interactive handler.
func NewInteractive(list ListFunc) *Interactive {
	return &Interactive{enabled: true, list: list}
}

// SetEnabled enables or disables interactive mode.
func (i *Interactive) SetEnabled(enabled bool) {
	i.enabled = enabled
}

// IsTerminal returns true if stdout is a terminal.
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// CanInteract returns true if interactive mode is available.
func (i *Interactive) CanInteract() bool {
	return i.enabled && IsTerminal()
}

// PromptResource lists resources and runs the picker. Returns nil when
// cancelled or not interactive.
func (i *Interactive) PromptResource(ctx context.Context) (*core.Resource, error) {
	if !i.CanInteract() || i.list == nil {
		return nil, nil
	}
	resources, err := i.list(ctx)
	if err != nil {
		return nil, err
	}
	return RunPicker(resources)
}

// NeedsResource returns true if a resource argument is required but missing.
func NeedsResource(args []string) bool {
	return len(args) == 0
}
