package planner

const (
	SecondsInMinute = 60
	MinutesInHour   = 60
	SecondsInHour   = SecondsInMinute * MinutesInHour
	HoursInDay      = 24
)

// NoActivity marks a timeline item that is not assigned to any activity.
const NoActivity = ""

// Activity is a recurring task with a daily time budget.
type Activity struct {
	ID                string
	Name              string
	SecondsToComplete int // 0 means no budget is tracked
}

// ActivityInput carries the fields of a new activity.
type ActivityInput struct {
	Name              string
	SecondsToComplete int
}

// ActivityPatch lists the mutable fields of an activity. Nil fields are left
// untouched.
type ActivityPatch struct {
	Name              *string
	SecondsToComplete *int
}

// TimelineItem is one hour slot of the day, optionally linked to an activity.
//
// Items are published by pointer and must be treated as immutable: every
// change produces a new item so that untouched items keep their identity
// across snapshots.
type TimelineItem struct {
	ID              string
	Hour            int
	ActivityID      string
	ActivitySeconds int // scheduled duration inside the hour slot
}

// Assigned reports whether the item references an activity.
func (t TimelineItem) Assigned() bool { return t.ActivityID != NoActivity }

// TimelineItemInput carries the fields of a new timeline item.
type TimelineItemInput struct {
	Hour            int
	ActivityID      string
	ActivitySeconds int
}

// TimelineItemPatch lists the mutable fields of a timeline item.
type TimelineItemPatch struct {
	Hour            *int
	ActivityID      *string
	ActivitySeconds *int
}

// RemainingBudget is the derived budget state of one activity.
type RemainingBudget struct {
	Seconds int
	Visible bool
}
