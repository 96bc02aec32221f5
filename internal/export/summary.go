package export

import "github.com/sadopc/dayplan/internal/planner"

// Plan is the exported state of the day.
type Plan struct {
	Activities []planner.Activity
	Items      []*planner.TimelineItem
}

// ActivitySummary is an activity with its scheduled and remaining time.
type ActivitySummary struct {
	Activity  planner.Activity
	Used      int
	Remaining planner.RemainingBudget
}

// Summarize derives one summary per activity, in activity order.
func Summarize(plan Plan) []ActivitySummary {
	out := make([]ActivitySummary, 0, len(plan.Activities))
	for _, a := range plan.Activities {
		out = append(out, ActivitySummary{
			Activity: a,
			Used:     planner.UsedSeconds(a, plan.Items),
			Remaining: planner.RemainingBudget{
				Seconds: planner.RemainingSeconds(a, plan.Items),
				Visible: planner.ShowsRemaining(a),
			},
		})
	}
	return out
}

// RemainingLabel is the signed remaining time, or "" when the activity has
// no budget.
func (s ActivitySummary) RemainingLabel() string {
	if !s.Remaining.Visible {
		return ""
	}
	return planner.FormatSecondsWithSign(s.Remaining.Seconds)
}

func activityNames(activities []planner.Activity) map[string]string {
	names := make(map[string]string, len(activities))
	for _, a := range activities {
		names[a.ID] = a.Name
	}
	return names
}
