package cli

import (
	"github.com/spf13/cobra"

	"github.com/sadopc/dayplan/internal/clock"
	"github.com/sadopc/dayplan/internal/indicator"
)

func newNowCmd(app *App) *cobra.Command {
	var height float64

	cmd := &cobra.Command{
		Use:   "now",
		Short: "Show how far the day has progressed and where the time indicator sits",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("height") {
				height = app.Config.Timeline.Height
			}

			now := app.Clock.Now()
			percent := clock.PercentOfDay(now)
			offset := indicator.ComputeOffset(clock.FractionOfDay(clock.Fixed(now)), height)

			w := cmd.OutOrStdout()
			if err := writeLine(w, "Time:     %s", now.Format("15:04:05")); err != nil {
				return err
			}
			if err := writeLine(w, "Day:      %.2f%%", percent); err != nil {
				return err
			}
			if err := writeLine(w, "Offset:   %.1f of %.0f", offset, height); err != nil {
				return err
			}

			item := itemAtHour(app.Planner.TimelineItems(), now.Hour())
			if item == nil || !item.Assigned() {
				return writeLine(w, "Activity: -")
			}
			a, ok := app.Planner.Activity(item.ActivityID)
			if !ok {
				return writeLine(w, "Activity: -")
			}
			return writeLine(w, "Activity: %s", a.Name)
		},
	}

	cmd.Flags().Float64Var(&height, "height", 0, "Timeline container height (default from config)")

	return cmd
}
