package tui

import (
	"fmt"
	"strings"

	"github.com/NimbleMarkets/ntcharts/barchart"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/dayplan/internal/export"
	"github.com/sadopc/dayplan/internal/planner"
)

type progressModel struct {
	width  int
	height int

	summaries []export.ActivitySummary

	chart barchart.Model
}

func newProgressModel() progressModel {
	return progressModel{
		chart: barchart.New(60, 12),
	}
}

func (r *progressModel) setSize(w, h int) {
	r.width = w
	r.height = h
	r.buildChart()
}

func (r progressModel) update(msg tea.Msg) (progressModel, tea.Cmd) {
	if msg, ok := msg.(planDataMsg); ok {
		r.summaries = export.Summarize(export.Plan{Activities: msg.activities, Items: msg.items})
		r.buildChart()
	}
	return r, nil
}

// progressValues splits an activity's scheduled time into the part covered by
// its budget, the part still missing, and the overrun. Activities without a
// budget only report the scheduled time.
func progressValues(s export.ActivitySummary) []barchart.BarValue {
	budget := s.Activity.SecondsToComplete
	if budget <= 0 {
		return []barchart.BarValue{{
			Name:  "Scheduled",
			Value: float64(s.Used) / planner.SecondsInHour,
			Style: lipgloss.NewStyle().Foreground(colorSecondary),
		}}
	}

	done := min(s.Used, budget)
	missing := budget - done
	over := max(0, s.Used-budget)
	return []barchart.BarValue{
		{Name: "Scheduled", Value: float64(done) / planner.SecondsInHour, Style: lipgloss.NewStyle().Foreground(colorSuccess)},
		{Name: "Missing", Value: float64(missing) / planner.SecondsInHour, Style: lipgloss.NewStyle().Foreground(colorSubtle)},
		{Name: "Over", Value: float64(over) / planner.SecondsInHour, Style: lipgloss.NewStyle().Foreground(colorAccent)},
	}
}

func (r *progressModel) buildChart() {
	chartWidth := r.width - 8
	if chartWidth < 20 {
		chartWidth = 20
	}
	chartHeight := 12
	if r.height > 30 {
		chartHeight = 16
	}

	r.chart = barchart.New(chartWidth, chartHeight)

	bars := make([]barchart.BarData, 0, len(r.summaries))
	for _, s := range r.summaries {
		bars = append(bars, barchart.BarData{
			Label:  s.Activity.Name,
			Values: progressValues(s),
		})
	}

	if len(bars) > 0 {
		r.chart.PushAll(bars)
	}
	r.chart.Draw()
}

func (r progressModel) view() string {
	w := r.width - 4

	header := titleStyle.Render("Progress")
	if len(r.summaries) == 0 {
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, header, "", mutedStyle.Render("  No activities to chart")),
		)
	}

	legend := "  " + strings.Join([]string{
		successStyle.Render("●") + " scheduled",
		lipgloss.NewStyle().Foreground(colorSubtle).Render("●") + " missing",
		lipgloss.NewStyle().Foreground(colorAccent).Render("●") + " over budget",
	}, "  ")

	return panelStyle.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			header, "", r.chart.View(), "", legend, "", r.renderSummaryTable(w),
		),
	)
}

func (r progressModel) renderSummaryTable(w int) string {
	var rows []string
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("  %-20s %8s %8s %10s", "Activity", "Budget", "Used", "Remaining")))
	rows = append(rows, mutedStyle.Render("  "+strings.Repeat("─", clamp(w-6, 0, 50))))

	for _, s := range r.summaries {
		remaining := ""
		if s.Remaining.Visible {
			remaining = remainingStyle(s.Remaining.Seconds).Render(fmt.Sprintf("%10s", s.RemainingLabel()))
		}
		rows = append(rows, fmt.Sprintf("  %-20s %8s %8s %s",
			s.Activity.Name, formatHours(s.Activity.SecondsToComplete), formatHours(s.Used), remaining,
		))
	}

	return strings.Join(rows, "\n")
}
