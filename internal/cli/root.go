package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/sadopc/dayplan/internal/clock"
	"github.com/sadopc/dayplan/internal/config"
	"github.com/sadopc/dayplan/internal/logutils"
	"github.com/sadopc/dayplan/internal/planner"
	"github.com/sadopc/dayplan/internal/tui"
)

// Version is set at build time.
var Version = "dev"

// App holds the dependencies shared by all commands. Config, Planner and Log
// are filled in before any command runs.
type App struct {
	Clock         clock.Source
	IsInteractive func() bool
	// RunProgram runs the TUI; tests replace it.
	RunProgram func(m tea.Model, opts ...tea.ProgramOption) error

	Config  *config.Config
	Planner *planner.Planner
	Log     zerolog.Logger

	closeLog func()
}

type rootFlags struct {
	configPath string
	logLevel   string
	logFile    string
}

func runProgram(m tea.Model, opts ...tea.ProgramOption) error {
	_, err := tea.NewProgram(m, opts...).Run()
	return err
}

// NewRootCmd creates the top-level "dayplan" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	if app.Clock == nil {
		app.Clock = clock.System{}
	}
	if app.IsInteractive == nil {
		app.IsInteractive = func() bool { return false }
	}
	if app.RunProgram == nil {
		app.RunProgram = runProgram
	}

	var flags rootFlags

	root := &cobra.Command{
		Use:           "dayplan",
		Short:         "Plan activities across the hours of the day",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.setup(flags)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			app.Close()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.IsInteractive() {
				return app.runTUI(cmd)
			}
			return writeSummary(cmd.OutOrStdout(), app.Planner)
		},
	}

	root.PersistentFlags().StringVar(&flags.configPath, "config", config.DefaultConfigPath(), "Path to the config file")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&flags.logFile, "log-file", "", "Log file path (default <config dir>/dayplan.log)")

	root.AddCommand(
		newNowCmd(app),
		newSummaryCmd(app),
		newOptionsCmd(app),
		newExportCmd(app),
		newVersionCmd(),
	)

	return root
}

// Execute runs the root command with args. cobra skips PersistentPostRun
// when a command fails, so the log is closed here as well.
func Execute(ctx context.Context, app *App, args []string) error {
	root := NewRootCmd(app)
	root.SetArgs(args)
	defer app.Close()

	err := root.ExecuteContext(ctx)
	if err != nil && app.closeLog != nil {
		app.Log.Error().Err(err).Msg("command failed")
	}
	return err
}

// Close closes the log file. Calling it again does nothing.
func (app *App) Close() {
	if app.closeLog != nil {
		app.closeLog()
		app.closeLog = nil
	}
}

// setup loads the config, opens the log and seeds the planner.
func (app *App) setup(flags rootFlags) error {
	if app.Config == nil {
		cfg, err := config.Load(flags.configPath)
		if err != nil {
			return err
		}
		app.Config = cfg
	}

	level := app.Config.Log.Level
	if flags.logLevel != "" {
		level = flags.logLevel
	}
	file := app.Config.Log.File
	if flags.logFile != "" {
		file = flags.logFile
	}
	if file == "" {
		file = config.DefaultLogPath()
	}

	log, closer, err := logutils.New(level, file)
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}
	app.Log = log
	app.closeLog = closer

	if app.Planner == nil {
		p, err := SeedPlanner(app.Config, app.Log)
		if err != nil {
			return err
		}
		app.Planner = p
	}
	return nil
}

func (app *App) runTUI(cmd *cobra.Command) error {
	exportDir, err := os.UserHomeDir()
	if err != nil {
		exportDir = "."
	}

	m := tui.NewApp(app.Planner, tui.Options{
		Clock:         app.Clock,
		TickInterval:  app.Config.TickInterval,
		RowsPerHour:   app.Config.Timeline.RowsPerHour,
		BudgetOptions: app.Config.BudgetOptions(),
		ExportDir:     exportDir,
		Logger:        app.Log,
	})
	if err := m.Mount(cmd.Context()); err != nil {
		return err
	}
	defer m.Close()

	app.Log.Info().Msg("starting tui")
	return app.RunProgram(m, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "dayplan %s\n", Version)
			return err
		},
	}
}

func writeLine(w io.Writer, format string, args ...any) error {
	_, err := fmt.Fprintf(w, format+"\n", args...)
	return err
}
