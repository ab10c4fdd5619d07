package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/samber/mo"
	"github.com/spf13/cobra"

	"github.com/tessro/earshot/internal/api"
	"github.com/tessro/earshot/internal/bookmark"
	"github.com/tessro/earshot/internal/core"
	"github.com/tessro/earshot/internal/session"
	"github.com/tessro/earshot/internal/wizard"
)

var marksAt string

var marksCmd = &cobra.Command{
	Use:     "marks",
	Aliases: []string{"bookmarks"},
	Short:   "Manage bookmarks",
	Long:    `Commands for listing, adding, removing and jumping to bookmarks.`,
}

var marksListCmd = &cobra.Command{
	Use:   "list <recording>",
	Short: "List a recording's bookmarks",
	Args:  cobra.ExactArgs(1),
	RunE:  runMarksList,
}

var marksAddCmd = &cobra.Command{
	Use:   "add <recording> [label]",
	Short: "Add a bookmark",
	Long:  `Add a bookmark. Without a label a prompt asks for one.`,
	Example: `  earshot marks add standup "Budget decision" --at 12:30
  earshot marks add standup --at 1:02:03`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runMarksAdd,
}

var marksRmCmd = &cobra.Command{
	Use:     "rm <recording> <bookmark>",
	Aliases: []string{"remove"},
	Short:   "Remove a bookmark by id or label",
	Args:    cobra.ExactArgs(2),
	RunE:    runMarksRm,
}

var marksJumpCmd = &cobra.Command{
	Use:   "jump <recording> <bookmark>",
	Short: "Play a recording from a bookmark",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		listenFrom = args[1]
		return runListen(cmd, args[:1])
	},
}

func init() {
	marksAddCmd.Flags().StringVar(&marksAt, "at", "0:00", "position (m:ss, h:mm:ss or 90s)")

	marksCmd.AddCommand(marksListCmd)
	marksCmd.AddCommand(marksAddCmd)
	marksCmd.AddCommand(marksRmCmd)
	marksCmd.AddCommand(marksJumpCmd)
	rootCmd.AddCommand(marksCmd)
}

// openMarks loads a recording's bookmarks into a session without
// starting playback.
func openMarks(ctx context.Context, client *api.Client, query string) (*session.Session, *bookmark.Manager, error) {
	id, err := resolveResource(ctx, client, []string{query})
	if err != nil {
		return nil, nil, err
	}
	meta, err := client.LoadResourceMetadata(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	s := session.New(session.Options{
		Resource: mo.Some(meta.Resource),
		Duration: meta.Duration,
		Volume:   100,
		Rate:     1,
	})
	mgr := bookmark.New(s, client, nil, id)
	if err := mgr.Load(ctx); err != nil {
		s.Close()
		return nil, nil, fmt.Errorf("failed to load bookmarks: %w", err)
	}
	return s, mgr, nil
}

func runMarksList(cmd *cobra.Command, args []string) error {
	client, err := authedClient()
	if err != nil {
		return err
	}
	s, _, err := openMarks(cmd.Context(), client, args[0])
	if err != nil {
		return err
	}
	defer s.Close()

	marks := s.State().Marks
	if JSONOutput() {
		return printJSON(marks)
	}
	if len(marks) == 0 {
		fmt.Println("No bookmarks.")
		return nil
	}

	t := NewTable("ID", "AT", "LABEL")
	for _, b := range marks {
		t.Row(b.ID, core.FormatTime(b.Timestamp), b.Label)
	}
	t.Flush()
	return nil
}

func runMarksAdd(cmd *cobra.Command, args []string) error {
	at, err := parseTimestamp(marksAt)
	if err != nil {
		return err
	}

	var label string
	if len(args) == 2 {
		label = args[1]
	} else if wizard.IsTerminal() {
		if label, err = wizard.PromptLabel(); err != nil {
			return fmt.Errorf("cancelled: %w", err)
		}
	}
	label = strings.TrimSpace(label)

	client, err := authedClient()
	if err != nil {
		return err
	}
	s, mgr, err := openMarks(cmd.Context(), client, args[0])
	if err != nil {
		return err
	}
	defer s.Close()

	created, err := mgr.Add(cmd.Context(), label, at)
	if err != nil {
		return err
	}

	if JSONOutput() {
		return printJSON(created)
	}
	fmt.Printf("Added %q at %s (%s)\n", created.Label, core.FormatTime(created.Timestamp), created.ID)
	return nil
}

func runMarksRm(cmd *cobra.Command, args []string) error {
	client, err := authedClient()
	if err != nil {
		return err
	}
	s, mgr, err := openMarks(cmd.Context(), client, args[0])
	if err != nil {
		return err
	}
	defer s.Close()

	mark, err := bookmark.Resolve(s.State().Marks, args[1])
	if err != nil {
		return err
	}
	if err := mgr.Remove(cmd.Context(), mark.ID); err != nil {
		return err
	}

	if JSONOutput() {
		return printJSON(map[string]string{"status": "removed", "id": mark.ID})
	}
	fmt.Printf("Removed %q at %s\n", mark.Label, core.FormatTime(mark.Timestamp))
	return nil
}
