package cli

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sadopc/dayplan/internal/clock"
	"github.com/sadopc/dayplan/internal/config"
	"github.com/sadopc/dayplan/internal/planner"
	"github.com/sadopc/dayplan/internal/tui"
)

var noon = time.Date(2024, 3, 9, 12, 0, 0, 0, time.Local)

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Activities = []config.ActivitySeed{
		{Name: "Reading", BudgetMinutes: 60},
		{Name: "Training", BudgetMinutes: 30},
		{Name: "Walking"},
	}
	cfg.Schedule = []config.ScheduleSeed{
		{Hour: 7, Activity: "Training", Minutes: 45},
		{Hour: 12, Activity: "Walking", Minutes: 20},
		{Hour: 20, Activity: "Reading", Minutes: 30},
	}
	return &cfg
}

// testApp wires an App with a seeded config and a fixed clock.
func testApp(t *testing.T) *App {
	t.Helper()
	return &App{
		Clock:  clock.Fixed(noon),
		Config: testConfig(),
	}
}

// executeCmd runs a cobra command and captures stdout/stderr.
func executeCmd(t *testing.T, app *App, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd(app)
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(append(args, "--log-file", filepath.Join(t.TempDir(), "dayplan.log")))
	err := root.Execute()
	return buf.String(), err
}

// --- seeding ---

func TestSeedPlanner(t *testing.T) {
	p, err := SeedPlanner(testConfig(), zerolog.Nop())
	require.NoError(t, err)

	acts := p.Activities()
	require.Len(t, acts, 3)
	assert.Equal(t, "Reading", acts[0].Name)
	assert.Equal(t, 3600, acts[0].SecondsToComplete)
	assert.Equal(t, 0, acts[2].SecondsToComplete)

	items := p.TimelineItems()
	require.Len(t, items, planner.HoursInDay)
	training := itemAtHour(items, 7)
	require.NotNil(t, training)
	assert.Equal(t, acts[1].ID, training.ActivityID)
	assert.Equal(t, 45*planner.SecondsInMinute, training.ActivitySeconds)

	rb, err := p.Remaining(acts[0].ID)
	require.NoError(t, err)
	assert.Equal(t, planner.RemainingBudget{Seconds: -1800, Visible: true}, rb)

	rb, err = p.Remaining(acts[2].ID)
	require.NoError(t, err)
	assert.False(t, rb.Visible)
}

func TestSeedPlannerUnknownActivity(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Schedule = []config.ScheduleSeed{{Hour: 3, Activity: "Cooking", Minutes: 10}}

	_, err := SeedPlanner(&cfg, zerolog.Nop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Cooking")
}

func TestSeedPlannerEmpty(t *testing.T) {
	cfg := config.DefaultConfig()
	p, err := SeedPlanner(&cfg, zerolog.Nop())
	require.NoError(t, err)
	assert.Empty(t, p.Activities())
	for _, item := range p.TimelineItems() {
		assert.False(t, item.Assigned())
	}
}

// --- root command ---

func TestRootCmd_NonInteractivePrintsSummary(t *testing.T) {
	app := testApp(t)

	out, err := executeCmd(t, app)
	require.NoError(t, err)
	assert.Contains(t, out, "Reading")
	assert.Contains(t, out, "Remaining")
}

func TestRootCmd_InteractiveRunsTUI(t *testing.T) {
	app := testApp(t)
	app.IsInteractive = func() bool { return true }

	var got tea.Model
	app.RunProgram = func(m tea.Model, opts ...tea.ProgramOption) error {
		got = m
		return nil
	}

	_, err := executeCmd(t, app)
	require.NoError(t, err)
	require.NotNil(t, got)
	_, ok := got.(tui.App)
	assert.True(t, ok, "expected a tui.App, got %T", got)
}

func TestRootCmd_LoadsConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
activities:
  - name: Journaling
    budget_minutes: 15
schedule:
  - hour: 21
    activity: Journaling
    minutes: 15
`), 0o644))

	app := &App{Clock: clock.Fixed(noon)}
	out, err := executeCmd(t, app, "summary", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Journaling")
	assert.Contains(t, out, "+00:00:00")
}

func TestRootCmd_InvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tick_interval: -1s\n"), 0o644))

	app := &App{Clock: clock.Fixed(noon)}
	_, err := executeCmd(t, app, "summary", "--config", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")
}

func TestRootCmd_InvalidLogLevel(t *testing.T) {
	app := testApp(t)

	_, err := executeCmd(t, app, "summary", "--log-level", "loud")
	require.Error(t, err)
}

func TestRootCmd_WritesLogFile(t *testing.T) {
	app := testApp(t)
	logPath := filepath.Join(t.TempDir(), "debug.log")

	root := NewRootCmd(app)
	root.SetOut(new(bytes.Buffer))
	root.SetArgs([]string{"summary", "--log-level", "debug", "--log-file", logPath})
	require.NoError(t, root.Execute())

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "planner seeded")
}

// --- summary ---

func TestSummaryCmd(t *testing.T) {
	app := testApp(t)

	out, err := executeCmd(t, app, "summary")
	require.NoError(t, err)
	assert.Contains(t, out, "Reading")
	assert.Contains(t, out, "01:00:00")
	assert.Contains(t, out, "-00:30:00")
	assert.Contains(t, out, "+00:15:00")
	assert.Contains(t, out, planner.BudgetPlaceholder)
}

func TestSummaryCmd_Empty(t *testing.T) {
	cfg := config.DefaultConfig()
	app := &App{Clock: clock.Fixed(noon), Config: &cfg}

	out, err := executeCmd(t, app, "summary")
	require.NoError(t, err)
	assert.Contains(t, out, "No activities planned.")
}

// --- now ---

func TestNowCmd(t *testing.T) {
	app := testApp(t)

	out, err := executeCmd(t, app, "now")
	require.NoError(t, err)
	assert.Contains(t, out, "12:00:00")
	assert.Contains(t, out, "50.00%")
	assert.Contains(t, out, "1350.0 of 2700")
	assert.Contains(t, out, "Activity: Walking")
}

func TestNowCmd_HeightFlag(t *testing.T) {
	app := testApp(t)

	out, err := executeCmd(t, app, "now", "--height", "100")
	require.NoError(t, err)
	assert.Contains(t, out, "50.0 of 100")
}

func TestNowCmd_InvalidHeight(t *testing.T) {
	app := testApp(t)

	out, err := executeCmd(t, app, "now", "--height", "0")
	require.NoError(t, err)
	assert.Contains(t, out, "0.0 of 0")
}

func TestNowCmd_FreeHour(t *testing.T) {
	app := testApp(t)
	app.Clock = clock.Fixed(noon.Add(3 * time.Hour))

	out, err := executeCmd(t, app, "now")
	require.NoError(t, err)
	assert.Contains(t, out, "Activity: -")
}

// --- options ---

func TestOptionsCmd(t *testing.T) {
	app := testApp(t)
	app.Config.Budget.PeriodMinutes = []int{15, 90}

	out, err := executeCmd(t, app, "options")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], planner.BudgetPlaceholder)
	assert.Contains(t, lines[1], "00:15")
	assert.Contains(t, lines[1], "900")
	assert.Contains(t, lines[2], "01:30")
	assert.Contains(t, lines[2], "5400")
}

// --- export ---

func TestExportCmd_CSVStdout(t *testing.T) {
	app := testApp(t)

	out, err := executeCmd(t, app, "export", "--format", "csv")
	require.NoError(t, err)

	records, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)
	assert.Equal(t, "Activity", records[0][1])
	assert.Equal(t, "Reading", records[1][1])
}

func TestExportCmd_JSONFile(t *testing.T) {
	app := testApp(t)
	path := filepath.Join(t.TempDir(), "plan.json")

	out, err := executeCmd(t, app, "export", "--format", "json", "--out", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Exported to "+path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Len(t, doc["activities"], 3)
	assert.Len(t, doc["timeline"], planner.HoursInDay)
	assert.Equal(t, noon.UTC().Format(time.RFC3339), doc["exported_at"])
}

func TestExportCmd_JSONStdoutUsesClock(t *testing.T) {
	app := testApp(t)

	out, err := executeCmd(t, app, "export", "--format", "json", "--out", "-")
	require.NoError(t, err)
	assert.Contains(t, out, noon.UTC().Format(time.RFC3339))
}

func TestExportCmd_UnknownFormat(t *testing.T) {
	app := testApp(t)

	_, err := executeCmd(t, app, "export", "--format", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown format")
}

// --- version ---

func TestVersionCmd(t *testing.T) {
	app := testApp(t)

	out, err := executeCmd(t, app, "version")
	require.NoError(t, err)
	assert.Equal(t, "dayplan "+Version+"\n", out)
}

// --- execute ---

func TestExecuteClosesLogWhenCommandFails(t *testing.T) {
	app := testApp(t)
	logPath := filepath.Join(t.TempDir(), "dayplan.log")

	err := Execute(context.Background(), app, []string{"export", "--format", "xml", "--log-file", logPath})
	require.Error(t, err)
	assert.Nil(t, app.closeLog, "log should be closed after a failed command")

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "command failed")
	assert.Contains(t, string(data), `unknown format \"xml\"`)

	app.Close()
}

func TestExecuteClosesLogOnSuccess(t *testing.T) {
	app := testApp(t)
	logPath := filepath.Join(t.TempDir(), "dayplan.log")

	require.NoError(t, Execute(context.Background(), app, []string{"options", "--log-file", logPath}))
	assert.Nil(t, app.closeLog)
}
