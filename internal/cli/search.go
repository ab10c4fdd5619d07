package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tessro/earshot/internal/core"
	"github.com/tessro/earshot/internal/errors"
)

var searchCmd = &cobra.Command{
	Use:   "search <recording> <query...>",
	Short: "Search a recording's transcript",
	Long:  `Run one transcript search and print the matching segments with their start times.`,
	Example: `  earshot search standup budget
  earshot search a1b2c3 "next quarter"`,
	Args: cobra.MinimumNArgs(2),
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	client, err := authedClient()
	if err != nil {
		return err
	}
	id, err := resolveResource(ctx, client, args[:1])
	if err != nil {
		return err
	}
	meta, err := client.LoadResourceMetadata(ctx, id)
	if err != nil {
		return err
	}
	if !meta.TranscriptAvailable {
		return fmt.Errorf("%s: %w", meta.Resource.Name, errors.ErrNoTranscript)
	}

	query := strings.Join(args[1:], " ")
	hits, err := client.Search(ctx, id, meta.TranscriptID, query)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if JSONOutput() {
		return printJSON(hits)
	}
	if len(hits) == 0 {
		fmt.Printf("No matches for %q.\n", query)
		return nil
	}

	t := NewTable("START", "END", "TEXT")
	for _, h := range hits {
		t.Row(core.FormatTime(h.Start), core.FormatTime(h.End), TruncateString(h.Text, 80))
	}
	t.Flush()
	return nil
}

