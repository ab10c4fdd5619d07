package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tessro/earshot/internal/core"
	"github.com/tessro/earshot/internal/errors"
	"github.com/tessro/earshot/internal/search"
)

var transcriptCmd = &cobra.Command{
	Use:   "transcript <recording> [filter...]",
	Short: "Print a recording's transcript",
	Long: `Print the timed transcript of a recording. A filter of three or more
characters keeps only the segments that contain it.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runTranscript,
}

func init() {
	rootCmd.AddCommand(transcriptCmd)
}

func runTranscript(cmd *cobra.Command, args []string) error {
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

	segments, err := client.TranscriptSegments(ctx, meta.TranscriptID)
	if err != nil {
		return fmt.Errorf("failed to load transcript: %w", err)
	}
	segments = search.FilterSegments(segments, strings.Join(args[1:], " "))

	if JSONOutput() {
		return printJSON(segments)
	}
	for _, s := range segments {
		fmt.Printf("[%s] %s\n", core.FormatTime(s.Start), s.Text)
	}
	return nil
}
