package cli

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/sadopc/dayplan/internal/export"
	"github.com/sadopc/dayplan/internal/planner"
)

func newSummaryCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Show each activity with its budget, scheduled and remaining time",
		RunE: func(cmd *cobra.Command, args []string) error {
			return writeSummary(cmd.OutOrStdout(), app.Planner)
		},
	}
}

func writeSummary(w io.Writer, p *planner.Planner) error {
	activities, items := p.Snapshot()
	if len(activities) == 0 {
		return writeLine(w, "No activities planned.")
	}

	rows := make([][]string, 0, len(activities))
	for _, s := range export.Summarize(export.Plan{Activities: activities, Items: items}) {
		budget := planner.BudgetPlaceholder
		if s.Remaining.Visible {
			budget = planner.FormatSeconds(s.Activity.SecondsToComplete)
		}
		rows = append(rows, []string{
			s.Activity.Name,
			budget,
			planner.FormatSeconds(s.Used),
			s.RemainingLabel(),
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		Headers("Activity", "Budget", "Scheduled", "Remaining").
		Rows(rows...)

	_, err := fmt.Fprintln(w, t.String())
	return err
}
