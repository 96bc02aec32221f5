package tui

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"github.com/sadopc/dayplan/internal/planner"
)

type activityForm string

const (
	formNewActivity  activityForm = "new"
	formEditActivity activityForm = "edit"
	formBudget       activityForm = "budget"
)

type activitiesModel struct {
	planner *planner.Planner
	log     zerolog.Logger
	width   int
	height  int

	activities []planner.Activity
	items      []*planner.TimelineItem
	cursor     int

	budgetOptions []planner.BudgetOption

	formActive bool
	form       *huh.Form
	formType   activityForm

	// Form field pointers (survive value copies)
	formName   *string
	formBudget **planner.BudgetOption

	// formOptions are the choices of the open form; initialBudget is what it
	// preselected.
	formOptions   []planner.BudgetOption
	initialBudget *planner.BudgetOption

	editing planner.Activity
}

func newActivitiesModel(p *planner.Planner, budgetOptions []planner.BudgetOption, log zerolog.Logger) activitiesModel {
	name := ""
	return activitiesModel{
		planner:       p,
		log:           log,
		budgetOptions: budgetOptions,
		formName:      &name,
		formBudget:    new(*planner.BudgetOption),
	}
}

func (m *activitiesModel) setSize(w, h int) {
	m.width = w
	m.height = h
}

func (m activitiesModel) selected() (planner.Activity, bool) {
	if m.cursor < 0 || m.cursor >= len(m.activities) {
		return planner.Activity{}, false
	}
	return m.activities[m.cursor], true
}

func (m activitiesModel) update(msg tea.Msg) (activitiesModel, tea.Cmd) {
	if msg, ok := msg.(planDataMsg); ok {
		m.activities = msg.activities
		m.items = msg.items
		if m.cursor >= len(m.activities) {
			m.cursor = max(0, len(m.activities)-1)
		}
		return m, nil
	}

	if m.formActive && m.form != nil {
		return m.updateForm(msg)
	}

	if msg, ok := msg.(tea.KeyMsg); ok {
		return m.updateList(msg)
	}
	return m, nil
}

func (m activitiesModel) updateList(msg tea.KeyMsg) (activitiesModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, keys.Down):
		if m.cursor < len(m.activities)-1 {
			m.cursor++
		}
	case key.Matches(msg, keys.New):
		return m.showForm(formNewActivity, planner.Activity{})
	case key.Matches(msg, keys.Edit):
		if a, ok := m.selected(); ok {
			return m.showForm(formEditActivity, a)
		}
	case key.Matches(msg, keys.Budget):
		if a, ok := m.selected(); ok {
			return m.showForm(formBudget, a)
		}
	case key.Matches(msg, keys.Delete):
		if a, ok := m.selected(); ok {
			if err := m.planner.DeleteActivity(a); err != nil {
				m.log.Error().Err(err).Str("activity_id", a.ID).Msg("delete activity failed")
				return m, statusCmd(fmt.Sprintf("Error: %v", err), true)
			}
			return m, statusCmd(fmt.Sprintf("Deleted %s", a.Name), false)
		}
	}
	return m, nil
}

func (m activitiesModel) budgetSelect() *huh.Select[*planner.BudgetOption] {
	options := []huh.Option[*planner.BudgetOption]{
		huh.NewOption[*planner.BudgetOption](planner.BudgetPlaceholder+" (no budget)", nil),
	}
	for i := range m.formOptions {
		options = append(options, huh.NewOption(m.formOptions[i].Label, &m.formOptions[i]))
	}
	return huh.NewSelect[*planner.BudgetOption]().
		Title("Daily budget").
		Options(options...).
		Value(m.formBudget)
}

// budgetChoices returns opts, plus an entry for current when it is a budget
// none of opts offers.
func budgetChoices(opts []planner.BudgetOption, current int) []planner.BudgetOption {
	if current <= 0 || planner.FindBudgetOption(opts, current) != nil {
		return opts
	}
	i := slices.IndexFunc(opts, func(o planner.BudgetOption) bool { return o.Seconds > current })
	if i < 0 {
		i = len(opts)
	}
	return slices.Insert(slices.Clone(opts), i, planner.BudgetOptionFor(current))
}

func (m activitiesModel) showForm(kind activityForm, a planner.Activity) (activitiesModel, tea.Cmd) {
	m.formType = kind
	m.editing = a
	*m.formName = a.Name
	m.formOptions = budgetChoices(m.budgetOptions, a.SecondsToComplete)
	*m.formBudget = planner.FindBudgetOption(m.formOptions, a.SecondsToComplete)
	m.initialBudget = *m.formBudget

	var fields []huh.Field
	if kind != formBudget {
		fields = append(fields, huh.NewInput().
			Title("Activity Name").
			Value(m.formName).
			Validate(func(s string) error {
				if strings.TrimSpace(s) == "" {
					return fmt.Errorf("name is required")
				}
				return nil
			}))
	}
	fields = append(fields, m.budgetSelect())

	m.form = huh.NewForm(
		huh.NewGroup(fields...),
	).WithShowHelp(true).WithShowErrors(true)

	m.formActive = true
	return m, m.form.Init()
}

func (m activitiesModel) updateForm(msg tea.Msg) (activitiesModel, tea.Cmd) {
	// Check for escape to cancel form
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			m.formActive = false
			m.form = nil
			return m, nil
		}
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		m.formActive = false
		m.form = nil
		return m, m.submit()
	}

	return m, cmd
}

func (m activitiesModel) submit() tea.Cmd {
	name := strings.TrimSpace(*m.formName)
	budget := planner.BudgetFromSelection(*m.formBudget)
	budgetChanged := *m.formBudget != m.initialBudget

	var err error
	switch m.formType {
	case formNewActivity:
		_, err = m.planner.CreateActivity(planner.ActivityInput{Name: name, SecondsToComplete: budget})
	case formEditActivity:
		patch := planner.ActivityPatch{Name: &name}
		if budgetChanged {
			patch.SecondsToComplete = &budget
		}
		_, err = m.planner.UpdateActivity(m.editing, patch)
	case formBudget:
		_, err = m.planner.SetBudgetSelection(m.editing, *m.formBudget)
	}
	if err != nil {
		m.log.Error().Err(err).Str("form", string(m.formType)).Msg("activity form failed")
		return statusCmd(fmt.Sprintf("Error: %v", err), true)
	}
	return nil
}

func (m activitiesModel) view() string {
	w := m.width - 4
	if m.formActive && m.form != nil {
		title := "New Activity"
		switch m.formType {
		case formEditActivity:
			title = "Edit Activity"
		case formBudget:
			title = "Budget for " + m.editing.Name
		}
		content := lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render(title), "", m.form.View())
		return panelStyle.Width(w).Render(content)
	}

	title := titleStyle.Render("Activities")
	if len(m.activities) == 0 {
		content := lipgloss.JoinVertical(lipgloss.Left,
			title,
			"",
			mutedStyle.Render("No activities yet. Press n to create one."),
		)
		return panelStyle.Width(w).Render(content)
	}

	var rows []string
	rows = append(rows, title, "")
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("  %-24s %10s %10s %10s", "Name", "Budget", "Used", "Remaining")))

	for i, a := range m.activities {
		cursor := "  "
		style := normalItemStyle
		if i == m.cursor {
			cursor = "> "
			style = selectedItemStyle
		}

		budget := mutedStyle.Render(fmt.Sprintf("%10s", planner.BudgetPlaceholder))
		remaining := ""
		if planner.ShowsRemaining(a) {
			budget = fmt.Sprintf("%10s", planner.FormatSeconds(a.SecondsToComplete))
			secs := planner.RemainingSeconds(a, m.items)
			remaining = remainingStyle(secs).Render(fmt.Sprintf("%10s", planner.FormatSecondsWithSign(secs)))
		}
		used := planner.FormatSeconds(planner.UsedSeconds(a, m.items))

		rows = append(rows, style.Render(fmt.Sprintf("%s%-24s", cursor, a.Name))+
			fmt.Sprintf(" %s %10s %s", budget, used, remaining))
	}

	rows = append(rows, "", mutedStyle.Render("  n: new  enter: edit  b: budget  d: delete"))

	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}
