package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/solatis/expectree/internal/render"
)

var renderCmd = &cobra.Command{
	Use:   "render TREE",
	Short: "Print a tree as ASCII",
	Args:  cobra.ExactArgs(1),
	RunE:  runRender,
}

func init() {
	rootCmd.AddCommand(renderCmd)
	renderCmd.Flags().Bool("statuses", true, "annotate nodes with the statuses stored in the document")
}

func runRender(cmd *cobra.Command, args []string) error {
	withStatuses, _ := cmd.Flags().GetBool("statuses")
	t, err := loadTree(args[0], !withStatuses)
	if err != nil {
		return err
	}
	var lookup render.StatusLookup
	if withStatuses {
		lookup = render.FromSnapshot(t.Snapshot())
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), render.ASCII(t.Root(), lookup))
	return err
}
