package commands

import (
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/relalg/internal/tui"
)

// NewTUICommand creates the tui command.
func NewTUICommand() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "tui [query]",
		Short: "Explore translations in a terminal viewer",
		Long: `Open a full-screen viewer. Type a query and press enter to see it
across five tabs: Validation, Algebra, Tree, Plan and Trace.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			query := ""
			if len(args) > 0 || file != "" {
				q, err := readQueryInput(cmd, args, file)
				if err != nil {
					return err
				}
				query = q
			}

			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			return tui.Run(cmd.Context(), cmdCtx.Engine(), query)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "Start with the query in a file")
	return cmd
}
