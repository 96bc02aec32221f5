package planner

import (
	"fmt"
	"time"
)

// RemainingSeconds returns used - budget for activity, where used is the sum
// of ActivitySeconds over the items assigned to it. Items assigned to other
// activities are ignored. An unscheduled activity reports -SecondsToComplete.
func RemainingSeconds(activity Activity, items []*TimelineItem) int {
	return UsedSeconds(activity, items) - activity.SecondsToComplete
}

// UsedSeconds sums the scheduled seconds of the items assigned to activity.
func UsedSeconds(activity Activity, items []*TimelineItem) int {
	used := 0
	for _, item := range items {
		if item != nil && item.Assigned() && item.ActivityID == activity.ID {
			used += item.ActivitySeconds
		}
	}
	return used
}

// ShowsRemaining reports whether the remaining budget is displayed at all.
func ShowsRemaining(activity Activity) bool {
	return activity.SecondsToComplete > 0
}

// FormatSeconds renders an absolute number of seconds as HH:MM:SS.
func FormatSeconds(seconds int) string {
	if seconds < 0 {
		seconds = -seconds
	}
	d := time.Duration(seconds) * time.Second
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// FormatSecondsWithSign renders seconds with an explicit sign, "+" for zero.
func FormatSecondsWithSign(seconds int) string {
	sign := "+"
	if seconds < 0 {
		sign = "-"
	}
	return sign + FormatSeconds(seconds)
}
