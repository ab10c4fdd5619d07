package cli

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/tessro/earshot/internal/core"
	"github.com/tessro/earshot/internal/wizard"
)

var lsCmd = &cobra.Command{
	Use:     "ls [filter]",
	Aliases: []string{"list"},
	Short:   "List recordings",
	Long:    `List your recordings, optionally narrowed by a fuzzy name filter.`,
	RunE:    runLs,
}

func init() {
	rootCmd.AddCommand(lsCmd)
}

func runLs(cmd *cobra.Command, args []string) error {
	client, err := authedClient()
	if err != nil {
		return err
	}

	resources, err := newCatalog(client).Refresh(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list recordings: %w", err)
	}
	resources = wizard.Filter(resources, strings.Join(args, " "))

	if JSONOutput() {
		return printJSON(resources)
	}

	if len(resources) == 0 {
		fmt.Println("No recordings found.")
		return nil
	}

	t := NewTable("ID", "NAME", "LENGTH", "SIZE", "STATUS", "ADDED")
	for _, r := range resources {
		t.Row(r.ID, TruncateString(r.Name, 40), core.FormatTime(r.Duration), size(r.FileSize), r.Status, added(r))
	}
	t.Flush()
	return nil
}

func size(n int64) string {
	if n <= 0 {
		return "-"
	}
	return humanize.Bytes(uint64(n))
}

func added(r core.Resource) string {
	if r.CreatedAt.IsZero() {
		return "-"
	}
	return humanize.Time(r.CreatedAt)
}
