package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tessro/earshot/internal/tui"
)

var (
	playTheme        string
	playNoTranscript bool
)

var playCmd = &cobra.Command{
	Use:   "play [recording]",
	Short: "Open a recording in the interactive player",
	Long: `Open a recording in the interactive terminal player.

The recording can be given as an id or part of its name. Without one a
picker lists your recordings.

Keyboard shortcuts:
  Space        Play/Pause
  ←/→          Skip back/ahead
  Shift+←/→    Scrub (Enter to commit, Esc to cancel)
  +/-          Volume up/down
  m            Mute
  r            Cycle playback rate
  b            Add bookmark at the playhead
  [ ]          Select bookmark
  g            Jump to bookmark
  x            Remove bookmark
  /            Search the transcript
  Tab          Switch panel
  ?            Help
  q, Ctrl+C    Quit`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPlay,
}

func init() {
	playCmd.Flags().StringVar(&playTheme, "theme", "", "color theme (auto, dark, light)")
	playCmd.Flags().BoolVar(&playNoTranscript, "no-transcript", false, "hide the transcript panel")
	rootCmd.AddCommand(playCmd)
}

func runPlay(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	client, err := authedClient()
	if err != nil {
		return err
	}

	id, err := resolveResource(ctx, client, args)
	if err != nil {
		return err
	}

	eng := newEngine(client)
	defer func() { _ = eng.Close() }()

	if err := eng.Select(ctx, id); err != nil {
		return fmt.Errorf("failed to open recording: %w", err)
	}

	theme := cfg.TUI.Theme
	if playTheme != "" {
		theme = playTheme
	}
	return tui.Run(eng, tui.Options{
		Theme:          theme,
		ShowTranscript: *cfg.TUI.ShowTranscript && !playNoTranscript,
		Skip:           cfg.Playback.Skip.Duration,
	})
}
