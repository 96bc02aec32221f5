package tui

import (
	"fmt"
	"time"

	"github.com/sadopc/dayplan/internal/planner"
)

// viewState represents the currently active view.
type viewState int

const (
	viewTimeline viewState = iota
	viewActivities
	viewProgress
)

var viewNames = []string{"Timeline", "Activities", "Progress"}

// --- Messages ---

// planDataMsg carries a consistent snapshot of the planner.
type planDataMsg struct {
	activities []planner.Activity
	items      []*planner.TimelineItem
}

// planChangedMsg is sent when the planner reports a committed change.
type planChangedMsg struct {
	change planner.Change
}

type statusMsg struct {
	text    string
	isError bool
}

type tickMsg time.Time

type exportDoneMsg struct {
	path string
}

// --- Helpers ---

func formatClock(t time.Time) string {
	return t.Format("15:04")
}

func formatHour(hour int) string {
	return fmt.Sprintf("%02d:00", hour)
}

func formatHours(secs int) string {
	h := float64(secs) / planner.SecondsInHour
	return fmt.Sprintf("%.1fh", h)
}

func activityName(activities []planner.Activity, id string) string {
	for _, a := range activities {
		if a.ID == id {
			return a.Name
		}
	}
	return ""
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
