package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tessro/earshot/internal/core"
	"github.com/tessro/earshot/internal/errors"
)

var (
	summaryLanguage string
	summaryNoTopics bool
)

var summaryCmd = &cobra.Command{
	Use:   "summary <recording>",
	Short: "Summarize a recording's transcript",
	Long: `Ask the server for a summary of a recording's transcript, followed by
its key topics. Summaries can be written in english, hausa, yoruba or igbo.`,
	Example: `  earshot summary standup
  earshot summary standup --language hausa --no-topics`,
	Args: cobra.ExactArgs(1),
	RunE: runSummary,
}

func init() {
	summaryCmd.Flags().StringVarP(&summaryLanguage, "language", "l", core.DefaultSummaryLanguage, "summary language ("+strings.Join(core.SummaryLanguages, ", ")+")")
	summaryCmd.Flags().BoolVar(&summaryNoTopics, "no-topics", false, "skip key topics")
	rootCmd.AddCommand(summaryCmd)
}

func runSummary(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	lang := strings.ToLower(strings.TrimSpace(summaryLanguage))
	if !core.ValidSummaryLanguage(lang) {
		return fmt.Errorf("%q: %w", summaryLanguage, errors.ErrInvalidLanguage)
	}

	client, err := authedClient()
	if err != nil {
		return err
	}
	id, err := resolveResource(ctx, client, args)
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

	sum, err := client.Summary(ctx, id, lang)
	if err != nil {
		return fmt.Errorf("failed to summarize: %w", err)
	}
	if !summaryNoTopics && sum.Text != "" {
		if sum.KeyTopics, err = client.KeyTopics(ctx, id, sum.Language, sum.ID); err != nil {
			return fmt.Errorf("failed to load key topics: %w", err)
		}
	}

	if JSONOutput() {
		return printJSON(sum)
	}

	if sum.Text == "" {
		fmt.Println("No summary available.")
		return nil
	}
	fmt.Printf("%s (%s)\n\n%s\n", meta.Resource.Name, sum.Language, sum.Text)
	if len(sum.KeyTopics) > 0 {
		fmt.Println("\nKey topics:")
		for _, t := range sum.KeyTopics {
			fmt.Printf("  • %s: %s\n", t.Title, t.Description)
		}
	}
	return nil
}
