package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tessro/earshot/internal/bookmark"
	"github.com/tessro/earshot/internal/engine"
	"github.com/tessro/earshot/internal/tail"
)

var (
	listenFrom      string
	listenNoEmoji   bool
	listenTimestamp bool
	listenFormat    string
)

var listenCmd = &cobra.Command{
	Use:   "listen [recording]",
	Short: "Play a recording without the interactive player",
	Long: `Play a recording through mpv and print playback events as they happen.

Events printed:
  - Play, pause and seeks
  - Buffering and the end of the recording
  - Volume, mute and rate changes
  - Bookmarks added or removed elsewhere
  - Errors from the backend or the player

Stops at the end of the recording or on Ctrl+C.`,
	Example: `  earshot listen standup
  earshot listen standup --from 12:30
  earshot listen standup --from "decision"
  earshot listen standup --format '{{.Time}} {{.Type}} {{.Position}}'`,
	Args: cobra.MaximumNArgs(1),
	RunE: runListen,
}

func init() {
	listenCmd.Flags().StringVar(&listenFrom, "from", "", "start at a time (m:ss) or bookmark")
	listenCmd.Flags().BoolVar(&listenNoEmoji, "no-emoji", false, "disable emoji output")
	listenCmd.Flags().BoolVarP(&listenTimestamp, "timestamp", "t", false, "show timestamps")
	listenCmd.Flags().StringVarP(&listenFormat, "format", "f", "", "custom format template")

	rootCmd.AddCommand(listenCmd)
}

func runListen(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

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

	formatter := tail.NewFormatter(
		tail.WithEmoji(!listenNoEmoji),
		tail.WithTimestamp(listenTimestamp),
		tail.WithTemplate(listenFormat),
	)

	watcher := tail.NewWatcher(eng)
	errCh := make(chan error, 1)
	go func() { errCh <- watcher.Start(ctx) }()
	defer watcher.Stop()

	if err := eng.Select(ctx, id); err != nil {
		return fmt.Errorf("failed to open recording: %w", err)
	}
	if err := startListening(ctx, eng, listenFrom); err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	for {
		select {
		case event, ok := <-watcher.Events():
			if !ok {
				return nil
			}
			if JSONOutput() {
				_ = enc.Encode(event)
			} else {
				fmt.Println(formatter.Format(event))
			}
			if event.Type == tail.EventEnded {
				return nil
			}

		case err := <-errCh:
			if err == context.Canceled {
				return nil
			}
			return err
		}
	}
}

// startListening plays from from, which is a position or a bookmark.
func startListening(ctx context.Context, eng *engine.Engine, from string) error {
	if from == "" {
		return eng.Play(ctx)
	}
	if t, err := parseTimestamp(from); err == nil {
		if _, err := eng.Seek(ctx, t); err != nil {
			return err
		}
		return eng.Play(ctx)
	}
	mark, err := bookmark.Resolve(eng.State().Marks, from)
	if err != nil {
		return err
	}
	return eng.JumpToBookmark(ctx, mark.ID)
}
