package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tessro/earshot/internal/log"
	"github.com/tessro/earshot/internal/wizard"
)

var rmYes bool

var rmCmd = &cobra.Command{
	Use:     "rm <recording>",
	Aliases: []string{"delete"},
	Short:   "Delete a recording",
	Long: `Delete a recording from the server, along with its transcript and
bookmarks. Asks for confirmation unless --yes is given.`,
	Args: cobra.ExactArgs(1),
	RunE: runRm,
}

func init() {
	rmCmd.Flags().BoolVarP(&rmYes, "yes", "y", false, "delete without asking")
	rootCmd.AddCommand(rmCmd)
}

func runRm(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

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
	name := meta.Resource.Name

	if !rmYes {
		if !wizard.IsTerminal() {
			return fmt.Errorf("refusing to delete %s without --yes", name)
		}
		ok, err := wizard.Confirm(fmt.Sprintf("Delete %s?", name))
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println("Cancelled.")
			return nil
		}
	}

	if err := client.DeleteResource(ctx, id); err != nil {
		return err
	}
	if _, err := newCatalog(client).Refresh(ctx); err != nil {
		log.For("cli").WithError(err).Debug("refreshing recordings after delete failed")
	}

	if JSONOutput() {
		return printJSON(map[string]string{"status": "deleted", "id": id})
	}
	fmt.Printf("Deleted %s\n", name)
	return nil
}
