package tui

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"github.com/sadopc/dayplan/internal/clock"
	"github.com/sadopc/dayplan/internal/export"
	"github.com/sadopc/dayplan/internal/indicator"
	"github.com/sadopc/dayplan/internal/planner"
)

// Options configures the App.
type Options struct {
	Clock         clock.Source
	TickInterval  time.Duration
	RowsPerHour   int
	BudgetOptions []planner.BudgetOption
	ExportDir     string
	Logger        zerolog.Logger

	// indicatorOpts overrides the scheduler options in tests.
	indicatorOpts []indicator.Option
}

// App is the root Bubble Tea model.
type App struct {
	planner *planner.Planner
	clock   clock.Source
	log     zerolog.Logger
	width   int
	height  int

	interval  time.Duration
	exportDir string

	changes     chan planner.Change
	unsubscribe func()

	activeView    viewState
	showHelp      bool
	exportPicking bool
	exportCursor  int

	timeline   timelineModel
	activities activitiesModel
	progress   progressModel

	help   help.Model
	status string
}

func NewApp(p *planner.Planner, opts Options) App {
	if opts.Clock == nil {
		opts.Clock = clock.System{}
	}
	if opts.TickInterval <= 0 {
		opts.TickInterval = indicator.DefaultInterval
	}
	if opts.BudgetOptions == nil {
		opts.BudgetOptions = planner.PeriodSelectOptions(planner.DefaultPeriodMinutes)
	}
	indOpts := opts.indicatorOpts
	if indOpts == nil {
		indOpts = indicatorOptions(opts.TickInterval, opts.Logger)
	}

	h := help.New()
	h.ShowAll = false

	rows := planner.HoursInDay * max(1, opts.RowsPerHour)
	ind := newIndicatorModel(opts.Clock, rows, indOpts...)

	// The observer runs inside planner commits and must not block.
	changes := make(chan planner.Change, 64)
	unsubscribe := p.Subscribe(func(c planner.Change) {
		select {
		case changes <- c:
		default:
		}
	})

	return App{
		planner:     p,
		clock:       opts.Clock,
		log:         opts.Logger,
		interval:    opts.TickInterval,
		exportDir:   opts.ExportDir,
		changes:     changes,
		unsubscribe: unsubscribe,
		activeView:  viewTimeline,
		timeline:    newTimelineModel(p, ind, opts.RowsPerHour, opts.Logger),
		activities:  newActivitiesModel(p, opts.BudgetOptions, opts.Logger),
		progress:    newProgressModel(),
		help:        h,
	}
}

// Mount starts the time indicator. The caller must call Close when the
// program exits.
func (a *App) Mount(ctx context.Context) error {
	if err := a.timeline.indicator.mount(ctx); err != nil {
		return fmt.Errorf("mount indicator: %w", err)
	}
	if h := a.timeline.indicatorHour(); h >= 0 {
		a.timeline.cursor = h
	}
	return nil
}

// Close stops the indicator and detaches from the planner.
func (a App) Close() {
	a.timeline.indicator.unmount()
	a.unsubscribe()
}

func (a App) Init() tea.Cmd {
	return tea.Batch(
		a.refresh(),
		a.listen(),
		tickCmd(a.interval),
	)
}

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// refresh loads a consistent snapshot of the planner.
func (a App) refresh() tea.Cmd {
	return func() tea.Msg {
		activities, items := a.planner.Snapshot()
		return planDataMsg{activities: activities, items: items}
	}
}

// listen waits for the next planner change.
func (a App) listen() tea.Cmd {
	return func() tea.Msg {
		return planChangedMsg{change: <-a.changes}
	}
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		contentHeight := a.height - 4 // header + footer
		a.timeline.setSize(a.width, contentHeight)
		a.activities.setSize(a.width, contentHeight)
		a.progress.setSize(a.width, contentHeight)
		return a, nil

	case tea.KeyMsg:
		// Export picker
		if a.exportPicking {
			return a.updateExportPicker(msg)
		}

		// If a child view is capturing input (e.g. form), delegate first.
		if a.isFormActive() {
			return a.updateActiveView(msg)
		}

		switch {
		case key.Matches(msg, keys.Export):
			a.exportPicking = true
			a.exportCursor = 0
			return a, nil
		case key.Matches(msg, keys.Quit):
			return a, tea.Quit
		case key.Matches(msg, keys.Help):
			a.showHelp = !a.showHelp
			a.help.ShowAll = a.showHelp
			return a, nil
		case key.Matches(msg, keys.Tab1):
			a.activeView = viewTimeline
			return a, nil
		case key.Matches(msg, keys.Tab2):
			a.activeView = viewActivities
			return a, nil
		case key.Matches(msg, keys.Tab3):
			a.activeView = viewProgress
			return a, nil
		case key.Matches(msg, keys.Tab):
			a.activeView = (a.activeView + 1) % viewState(len(viewNames))
			return a, nil
		}

	case tickMsg:
		a.timeline.indicator.sync()
		return a, tickCmd(a.interval)

	case planChangedMsg:
		a.log.Debug().Str("kind", string(msg.change.Kind)).Str("activity_id", msg.change.ActivityID).Msg("plan changed")
		return a, tea.Batch(a.refresh(), a.listen())

	case planDataMsg:
		// Every view shows the same snapshot.
		a.timeline, _ = a.timeline.update(msg)
		a.activities, _ = a.activities.update(msg)
		a.progress, _ = a.progress.update(msg)
		return a, nil

	case statusMsg:
		a.status = msg.text
		return a, nil

	case exportDoneMsg:
		a.status = "Exported to " + msg.path
		a.exportPicking = false
		return a, nil
	}

	return a.updateActiveView(msg)
}

func (a App) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch a.activeView {
	case viewTimeline:
		a.timeline, cmd = a.timeline.update(msg)
	case viewActivities:
		a.activities, cmd = a.activities.update(msg)
	case viewProgress:
		a.progress, cmd = a.progress.update(msg)
	}
	return a, cmd
}

func (a App) isFormActive() bool {
	switch a.activeView {
	case viewTimeline:
		return a.timeline.formActive
	case viewActivities:
		return a.activities.formActive
	}
	return false
}

func (a App) View() string {
	if a.width == 0 {
		return "Loading..."
	}

	header := a.renderHeader()
	footer := a.renderFooter()

	var content string
	switch a.activeView {
	case viewTimeline:
		content = a.timeline.view()
	case viewActivities:
		content = a.activities.view()
	case viewProgress:
		content = a.progress.view()
	}

	// Calculate available height for content
	headerHeight := lipgloss.Height(header)
	footerHeight := lipgloss.Height(footer)
	contentHeight := a.height - headerHeight - footerHeight
	if contentHeight < 1 {
		contentHeight = 1
	}

	// Show export picker overlay
	if a.exportPicking {
		content = a.renderExportPicker()
	}

	content = lipgloss.NewStyle().
		Width(a.width).
		Height(contentHeight).
		Render(content)

	return lipgloss.JoinVertical(lipgloss.Left, header, content, footer)
}

func (a App) renderHeader() string {
	var tabs []string
	for i, name := range viewNames {
		if viewState(i) == a.activeView {
			tabs = append(tabs, activeTabStyle.Render(name))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(name))
		}
	}

	tabRow := lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...)

	title := lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).Render("dayplan")
	gap := a.width - lipgloss.Width(title) - lipgloss.Width(tabRow) - 4
	if gap < 1 {
		gap = 1
	}
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return headerStyle.Render(
		lipgloss.JoinHorizontal(lipgloss.Bottom, title, spacer, tabRow),
	)
}

func (a App) renderFooter() string {
	helpView := a.help.View(keys)

	status := ""
	if a.status != "" {
		status = mutedStyle.Render(" " + a.status)
	}

	clockInfo := ""
	if a.timeline.indicator.mounted() {
		clockInfo = indicatorStyle.Render(" ▶ " + formatClock(a.timeline.indicator.now))
	}

	left := footerStyle.Render(helpView)
	right := clockInfo + status

	gap := a.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return lipgloss.JoinHorizontal(lipgloss.Bottom, left, spacer, right)
}

var exportFormats = []string{"CSV", "JSON"}

func (a App) renderExportPicker() string {
	var rows []string
	rows = append(rows, titleStyle.Render("Export Format"), "")
	for i, f := range exportFormats {
		cursor := "  "
		style := normalItemStyle
		if i == a.exportCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(cursor+f))
	}
	rows = append(rows, "", mutedStyle.Render("  enter: export  esc: cancel"))

	w := a.width - 4
	return activePanelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (a App) updateExportPicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if a.exportCursor > 0 {
			a.exportCursor--
		}
	case key.Matches(msg, keys.Down):
		if a.exportCursor < len(exportFormats)-1 {
			a.exportCursor++
		}
	case key.Matches(msg, keys.Enter):
		a.exportPicking = false
		return a, a.doExport(a.exportCursor)
	case key.Matches(msg, keys.Back):
		a.exportPicking = false
	}
	return a, nil
}

func (a App) doExport(format int) tea.Cmd {
	return func() tea.Msg {
		activities, items := a.planner.Snapshot()
		plan := export.Plan{Activities: activities, Items: items}
		now := a.clock.Now()
		dateStr := now.Format("2006-01-02")

		var path string
		if format == 0 {
			path = filepath.Join(a.exportDir, fmt.Sprintf("dayplan-export-%s.csv", dateStr))
			if err := export.ToCSV(plan, path); err != nil {
				a.log.Error().Err(err).Str("path", path).Msg("csv export failed")
				return statusMsg{text: fmt.Sprintf("CSV error: %v", err), isError: true}
			}
		} else {
			path = filepath.Join(a.exportDir, fmt.Sprintf("dayplan-export-%s.json", dateStr))
			if err := export.ToJSON(plan, path, now); err != nil {
				a.log.Error().Err(err).Str("path", path).Msg("json export failed")
				return statusMsg{text: fmt.Sprintf("JSON error: %v", err), isError: true}
			}
		}

		a.log.Info().Str("path", path).Msg("plan exported")
		return exportDoneMsg{path: path}
	}
}
