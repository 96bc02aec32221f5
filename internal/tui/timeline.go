package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"github.com/sadopc/dayplan/internal/planner"
)

// timeStep is how much one +/- press changes the scheduled time.
const timeStep = 5 * planner.SecondsInMinute

// title, blank line, blank line, nav, plus panel border and padding
const timelineChrome = 8

type timelineModel struct {
	planner *planner.Planner
	log     zerolog.Logger
	width   int
	height  int

	activities []planner.Activity
	items      []*planner.TimelineItem

	minRowsPerHour int
	rowsPerHour    int
	cursor         int // selected hour
	scroll         int // first visible row

	indicator indicatorModel

	formActive   bool
	form         *huh.Form
	formActivity *string
}

func newTimelineModel(p *planner.Planner, ind indicatorModel, rowsPerHour int, log zerolog.Logger) timelineModel {
	activity := planner.NoActivity
	return timelineModel{
		planner:        p,
		log:            log,
		minRowsPerHour: max(1, rowsPerHour),
		rowsPerHour:    max(1, rowsPerHour),
		indicator:      ind,
		formActivity:   &activity,
	}
}

func (t *timelineModel) setSize(w, h int) {
	t.width = w
	t.height = h
	t.rowsPerHour = max(t.minRowsPerHour, (h-timelineChrome)/planner.HoursInDay)
	t.indicator.resize(t.totalRows())
	t.ensureVisible()
}

func (t timelineModel) totalRows() int {
	return planner.HoursInDay * t.rowsPerHour
}

func (t timelineModel) visibleRows() int {
	return max(1, t.height-timelineChrome)
}

// indicatorHour is the hour the indicator currently points into, or -1.
func (t timelineModel) indicatorHour() int {
	if t.indicator.row < 0 {
		return -1
	}
	return t.indicator.row / t.rowsPerHour
}

// itemAt returns the first timeline item scheduled at hour.
func (t timelineModel) itemAt(hour int) *planner.TimelineItem {
	for _, item := range t.items {
		if item.Hour == hour {
			return item
		}
	}
	return nil
}

func (t *timelineModel) ensureVisible() {
	top := t.cursor * t.rowsPerHour
	bottom := top + t.rowsPerHour - 1
	visible := t.visibleRows()
	if top < t.scroll {
		t.scroll = top
	}
	if bottom >= t.scroll+visible {
		t.scroll = bottom - visible + 1
	}
	t.scroll = clamp(t.scroll, 0, max(0, t.totalRows()-visible))
}

func (t timelineModel) update(msg tea.Msg) (timelineModel, tea.Cmd) {
	if msg, ok := msg.(planDataMsg); ok {
		t.activities = msg.activities
		t.items = msg.items
		return t, nil
	}

	if t.formActive && t.form != nil {
		return t.updateForm(msg)
	}

	if msg, ok := msg.(tea.KeyMsg); ok {
		return t.updateKeys(msg)
	}
	return t, nil
}

func (t timelineModel) updateKeys(msg tea.KeyMsg) (timelineModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if t.cursor > 0 {
			t.cursor--
		}
	case key.Matches(msg, keys.Down):
		if t.cursor < planner.HoursInDay-1 {
			t.cursor++
		}
	case key.Matches(msg, keys.Now):
		if h := t.indicatorHour(); h >= 0 {
			t.cursor = h
		}
	case key.Matches(msg, keys.Assign), key.Matches(msg, keys.Enter):
		if len(t.activities) == 0 {
			return t, statusCmd("No activities yet. Press 2 to go to Activities and create one.", true)
		}
		return t.showAssignForm()
	case key.Matches(msg, keys.Clear):
		none, zero := planner.NoActivity, 0
		return t, t.apply(planner.TimelineItemPatch{ActivityID: &none, ActivitySeconds: &zero})
	case key.Matches(msg, keys.More):
		return t, t.adjust(timeStep)
	case key.Matches(msg, keys.Less):
		return t, t.adjust(-timeStep)
	}
	t.ensureVisible()
	return t, nil
}

func (t timelineModel) adjust(delta int) tea.Cmd {
	item := t.current()
	if item == nil || !item.Assigned() {
		return statusCmd("Assign an activity to this hour first", true)
	}
	seconds := clamp(item.ActivitySeconds+delta, 0, planner.SecondsInHour)
	if seconds == item.ActivitySeconds {
		return nil
	}
	return t.apply(planner.TimelineItemPatch{ActivitySeconds: &seconds})
}

// current returns the planner's item at the cursor hour. The snapshot in
// t.items may lag behind the planner, so edits never start from it.
func (t timelineModel) current() *planner.TimelineItem {
	item, _ := t.planner.TimelineItemAt(t.cursor)
	return item
}

// apply patches the item at the cursor, creating it if the hour has none.
func (t timelineModel) apply(patch planner.TimelineItemPatch) tea.Cmd {
	var err error
	if item := t.current(); item != nil {
		_, err = t.planner.UpdateTimelineItem(item, patch)
	} else {
		in := planner.TimelineItemInput{Hour: t.cursor}
		if patch.ActivityID != nil {
			in.ActivityID = *patch.ActivityID
		}
		if patch.ActivitySeconds != nil {
			in.ActivitySeconds = *patch.ActivitySeconds
		}
		_, err = t.planner.CreateTimelineItem(in)
	}
	if err != nil {
		t.log.Error().Err(err).Int("hour", t.cursor).Msg("timeline update failed")
		return statusCmd(fmt.Sprintf("Error: %v", err), true)
	}
	return nil
}

func (t timelineModel) showAssignForm() (timelineModel, tea.Cmd) {
	*t.formActivity = planner.NoActivity
	if item := t.current(); item != nil {
		*t.formActivity = item.ActivityID
	}

	options := []huh.Option[string]{huh.NewOption("(none)", planner.NoActivity)}
	for _, a := range t.activities {
		options = append(options, huh.NewOption(a.Name, a.ID))
	}

	t.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title(fmt.Sprintf("Activity at %s", formatHour(t.cursor))).
				Options(options...).
				Value(t.formActivity),
		),
	).WithShowHelp(true).WithShowErrors(true)

	t.formActive = true
	return t, t.form.Init()
}

func (t timelineModel) updateForm(msg tea.Msg) (timelineModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			t.formActive = false
			t.form = nil
			return t, nil
		}
	}

	form, cmd := t.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		t.form = f
	}

	if t.form.State == huh.StateCompleted {
		t.formActive = false
		t.form = nil
		return t, t.assign(*t.formActivity)
	}

	return t, cmd
}

// assign links the hour at the cursor to activityID. A newly assigned empty
// slot gets the full hour; unassigning clears the scheduled time.
func (t timelineModel) assign(activityID string) tea.Cmd {
	patch := planner.TimelineItemPatch{ActivityID: &activityID}
	item := t.current()
	switch {
	case activityID == planner.NoActivity:
		zero := 0
		patch.ActivitySeconds = &zero
	case item == nil || item.ActivitySeconds == 0:
		full := planner.SecondsInHour
		patch.ActivitySeconds = &full
	}
	return t.apply(patch)
}

func (t timelineModel) view() string {
	w := t.width - 4
	if t.formActive && t.form != nil {
		content := lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render("Assign Activity"), "", t.form.View())
		return panelStyle.Width(w).Render(content)
	}

	header := titleStyle.Render("Timeline")
	if t.indicator.row >= 0 {
		header = lipgloss.JoinHorizontal(lipgloss.Bottom, header, "  ",
			indicatorStyle.Render("▶ "+formatClock(t.indicator.now)))
	}

	lines := t.renderRows()
	end := min(len(lines), t.scroll+t.visibleRows())
	body := strings.Join(lines[t.scroll:end], "\n")

	nav := mutedStyle.Render("  a: assign  x: clear  +/-: time  .: now  ↑/↓: move")

	return panelStyle.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Left, header, "", body, "", nav),
	)
}

func (t timelineModel) renderRows() []string {
	lines := make([]string, 0, t.totalRows())
	for row := 0; row < t.totalRows(); row++ {
		hour := row / t.rowsPerHour

		gutter := "  "
		if row == t.indicator.row {
			gutter = indicatorStyle.Render("▶ ")
		}

		if row%t.rowsPerHour != 0 {
			if row == t.indicator.row {
				lines = append(lines, gutter+indicatorStyle.Render(strings.Repeat("─", 40)))
			} else {
				lines = append(lines, gutter)
			}
			continue
		}

		cursor := "  "
		style := normalItemStyle
		if hour == t.cursor {
			cursor = "> "
			style = selectedItemStyle
		}

		label := mutedStyle.Render("·")
		scheduled := ""
		if item := t.itemAt(hour); item != nil && item.Assigned() {
			label = style.Render(activityName(t.activities, item.ActivityID))
			scheduled = highlightStyle.Render(planner.FormatSeconds(item.ActivitySeconds))
		}

		lines = append(lines, fmt.Sprintf("%s%s%s  %-24s %s",
			gutter, style.Render(cursor), hourStyle.Render(formatHour(hour)), label, scheduled))
	}
	return lines
}

func statusCmd(text string, isError bool) tea.Cmd {
	return func() tea.Msg {
		return statusMsg{text: text, isError: isError}
	}
}
