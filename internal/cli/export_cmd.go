package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sadopc/dayplan/internal/export"
)

func newExportCmd(app *App) *cobra.Command {
	var format string
	var out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the day plan as CSV or JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			activities, items := app.Planner.Snapshot()
			plan := export.Plan{Activities: activities, Items: items}

			toStdout := out == "" || out == "-"
			var err error
			switch format {
			case "csv":
				if toStdout {
					err = export.WriteCSV(cmd.OutOrStdout(), plan)
				} else {
					err = export.ToCSV(plan, out)
				}
			case "json":
				if toStdout {
					err = export.WriteJSON(cmd.OutOrStdout(), plan, app.Clock.Now())
				} else {
					err = export.ToJSON(plan, out, app.Clock.Now())
				}
			default:
				return fmt.Errorf("unknown format %q (want csv or json)", format)
			}
			if err != nil {
				return err
			}

			if !toStdout {
				app.Log.Info().Str("path", out).Str("format", format).Msg("plan exported")
				return writeLine(cmd.ErrOrStderr(), "Exported to %s", out)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "csv", "Export format: csv or json")
	cmd.Flags().StringVar(&out, "out", "", "Output file (default stdout)")

	return cmd
}
