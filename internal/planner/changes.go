package planner

// ChangeKind identifies the mutation that produced a Change.
type ChangeKind string

const (
	ChangeActivityCreated     ChangeKind = "activity_created"
	ChangeActivityUpdated     ChangeKind = "activity_updated"
	ChangeActivityDeleted     ChangeKind = "activity_deleted"
	ChangeTimelineItemCreated ChangeKind = "timeline_item_created"
	ChangeTimelineItemUpdated ChangeKind = "timeline_item_updated"
)

// Change is delivered to observers once a mutation has been fully applied.
type Change struct {
	Kind       ChangeKind
	ActivityID string
	// TimelineItemIDs lists the items touched by the mutation. For an activity
	// deletion these are the items the cascade unassigned.
	TimelineItemIDs []string
}

// Observer receives changes after the mutation has been applied to both
// stores. An observer may read or mutate the Planner; changes it causes are
// delivered after the current one.
type Observer func(Change)

type subscription struct {
	id int
	fn Observer
}
