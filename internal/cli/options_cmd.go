package cli

import (
	"github.com/spf13/cobra"

	"github.com/sadopc/dayplan/internal/planner"
)

func newOptionsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "options",
		Short: "List the budget choices offered when editing an activity",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			if err := writeLine(w, "%-8s %s", planner.BudgetPlaceholder, "no budget"); err != nil {
				return err
			}
			for _, opt := range app.Config.BudgetOptions() {
				if err := writeLine(w, "%-8s %d", opt.Label, opt.Seconds); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
