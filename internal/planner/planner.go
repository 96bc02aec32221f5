// Package planner keeps activities and the timeline items that reference them
// consistent, and derives each activity's remaining budget.
package planner

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// Planner coordinates the activity and timeline stores. Every mutation is
// applied to both stores under one lock, so observers and readers never see
// a timeline item pointing at an activity that no longer exists.
type Planner struct {
	mu       sync.Mutex
	acts     *ActivityStore
	timeline *TimelineStore
	cascade  CascadeFunc
	log      zerolog.Logger

	subs       []subscription
	nextID     int
	pending    []Change
	delivering bool
}

// Option configures a Planner.
type Option func(*Planner)

func WithLogger(l zerolog.Logger) Option {
	return func(p *Planner) { p.log = l }
}

// WithCascade replaces the function used to unlink timeline items when an
// activity is deleted.
func WithCascade(fn CascadeFunc) Option {
	return func(p *Planner) { p.cascade = fn }
}

// WithTimelineItems seeds the timeline store.
func WithTimelineItems(items []*TimelineItem) Option {
	return func(p *Planner) { p.timeline = NewTimelineStore(items) }
}

func New(opts ...Option) *Planner {
	p := &Planner{
		acts:     NewActivityStore(),
		timeline: NewTimelineStore(nil),
		cascade:  ResetTimelineItemActivities,
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Subscribe registers fn for every future change and returns a function that
// removes it.
func (p *Planner) Subscribe(fn Observer) func() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.nextID++
	id := p.nextID
	p.subs = append(p.subs, subscription{id: id, fn: fn})
	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		for i, s := range p.subs {
			if s.id == id {
				p.subs = append(p.subs[:i:i], p.subs[i+1:]...)
				return
			}
		}
	}
}

// commit queues c, releases the state lock and delivers queued changes in
// order. Must be called with p.mu held. Only one goroutine delivers at a time;
// changes committed meanwhile are picked up by the running delivery loop.
func (p *Planner) commit(c Change) {
	p.pending = append(p.pending, c)
	if p.delivering {
		p.mu.Unlock()
		return
	}
	p.delivering = true
	p.mu.Unlock()

	finished := false
	defer func() {
		if finished {
			return
		}
		// an observer panicked; the next commit takes over delivery
		p.mu.Lock()
		p.delivering = false
		p.mu.Unlock()
	}()

	for {
		p.mu.Lock()
		if len(p.pending) == 0 {
			p.delivering = false
			p.mu.Unlock()
			finished = true
			return
		}
		batch := p.pending
		p.pending = nil
		subs := append([]subscription(nil), p.subs...)
		p.mu.Unlock()

		for _, c := range batch {
			for _, s := range subs {
				s.fn(c)
			}
		}
	}
}

func (p *Planner) CreateActivity(in ActivityInput) (Activity, error) {
	p.mu.Lock()
	a, err := p.acts.Create(in)
	if err != nil {
		p.mu.Unlock()
		p.log.Warn().Err(err).Str("name", in.Name).Msg("create activity rejected")
		return Activity{}, fmt.Errorf("create activity: %w", err)
	}
	p.log.Debug().Str("activity_id", a.ID).Str("name", a.Name).Int("seconds_to_complete", a.SecondsToComplete).Msg("activity created")
	p.commit(Change{Kind: ChangeActivityCreated, ActivityID: a.ID})
	return a, nil
}

// UpdateActivity merges patch into activity and stores the result.
func (p *Planner) UpdateActivity(activity Activity, patch ActivityPatch) (Activity, error) {
	p.mu.Lock()
	a, err := p.acts.Update(activity, patch)
	if err != nil {
		p.mu.Unlock()
		p.log.Warn().Err(err).Str("activity_id", activity.ID).Msg("update activity rejected")
		return Activity{}, fmt.Errorf("update activity: %w", err)
	}
	p.log.Debug().Str("activity_id", a.ID).Int("seconds_to_complete", a.SecondsToComplete).Msg("activity updated")
	p.commit(Change{Kind: ChangeActivityUpdated, ActivityID: a.ID})
	return a, nil
}

// SetBudgetSelection applies a budget select choice to activity. A nil option
// clears the budget to 0.
func (p *Planner) SetBudgetSelection(activity Activity, opt *BudgetOption) (Activity, error) {
	seconds := BudgetFromSelection(opt)
	return p.UpdateActivity(activity, ActivityPatch{SecondsToComplete: &seconds})
}

// DeleteActivity removes activity and, in the same step, unassigns every
// timeline item that referenced it. The cascade runs exactly once with the
// timeline as it stood immediately before the deletion.
func (p *Planner) DeleteActivity(activity Activity) error {
	p.mu.Lock()
	if !p.acts.Has(activity.ID) {
		p.mu.Unlock()
		err := &NotFoundError{Kind: "activity", ID: activity.ID}
		p.log.Warn().Err(err).Msg("delete activity rejected")
		return fmt.Errorf("delete activity: %w", err)
	}

	before := p.timeline.Items()
	after := p.cascade(before, activity)
	if err := checkCascade(after, activity); err != nil {
		p.mu.Unlock()
		return fmt.Errorf("delete activity: %w", err)
	}

	p.timeline.Replace(after)
	if err := p.acts.Delete(activity); err != nil {
		// unreachable: presence was checked under the same lock
		p.timeline.Replace(before)
		p.mu.Unlock()
		return fmt.Errorf("delete activity: %w", err)
	}

	cleared := changedItemIDs(before, after)
	p.log.Debug().Str("activity_id", activity.ID).Strs("unassigned", cleared).Msg("activity deleted")
	p.commit(Change{Kind: ChangeActivityDeleted, ActivityID: activity.ID, TimelineItemIDs: cleared})
	return nil
}

func (p *Planner) CreateTimelineItem(in TimelineItemInput) (*TimelineItem, error) {
	p.mu.Lock()
	if in.ActivityID != NoActivity && !p.acts.Has(in.ActivityID) {
		p.mu.Unlock()
		return nil, fmt.Errorf("create timeline item: %w", &NotFoundError{Kind: "activity", ID: in.ActivityID})
	}
	item, err := p.timeline.Create(in)
	if err != nil {
		p.mu.Unlock()
		return nil, fmt.Errorf("create timeline item: %w", err)
	}
	p.log.Debug().Str("item_id", item.ID).Int("hour", item.Hour).Str("activity_id", item.ActivityID).Msg("timeline item created")
	p.commit(Change{Kind: ChangeTimelineItemCreated, ActivityID: item.ActivityID, TimelineItemIDs: []string{item.ID}})
	return item, nil
}

// UpdateTimelineItem applies patch to item. Assigning an activity that is not
// in the activity store fails with a NotFoundError.
func (p *Planner) UpdateTimelineItem(item *TimelineItem, patch TimelineItemPatch) (*TimelineItem, error) {
	p.mu.Lock()
	if patch.ActivityID != nil && *patch.ActivityID != NoActivity && !p.acts.Has(*patch.ActivityID) {
		p.mu.Unlock()
		return nil, fmt.Errorf("update timeline item: %w", &NotFoundError{Kind: "activity", ID: *patch.ActivityID})
	}
	updated, err := p.timeline.Update(item, patch)
	if err != nil {
		p.mu.Unlock()
		return nil, fmt.Errorf("update timeline item: %w", err)
	}
	p.log.Debug().Str("item_id", updated.ID).Str("activity_id", updated.ActivityID).Int("activity_seconds", updated.ActivitySeconds).Msg("timeline item updated")
	p.commit(Change{Kind: ChangeTimelineItemUpdated, ActivityID: updated.ActivityID, TimelineItemIDs: []string{updated.ID}})
	return updated, nil
}

func (p *Planner) Activities() []Activity {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.acts.List()
}

func (p *Planner) Activity(id string) (Activity, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.acts.Get(id)
}

func (p *Planner) TimelineItems() []*TimelineItem {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.timeline.Items()
}

// Snapshot returns both collections as of the same instant.
func (p *Planner) Snapshot() ([]Activity, []*TimelineItem) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.acts.List(), p.timeline.Items()
}

// TimelineItemAt returns the item scheduled at hour.
func (p *Planner) TimelineItemAt(hour int) (*TimelineItem, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.timeline.AtHour(hour)
}

// AssignedTimelineItems returns the items currently linked to activityID.
func (p *Planner) AssignedTimelineItems(activityID string) []*TimelineItem {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []*TimelineItem
	for _, item := range p.timeline.items {
		if item.Assigned() && item.ActivityID == activityID {
			out = append(out, item)
		}
	}
	return out
}

// Remaining derives the budget state of the activity with the given id.
func (p *Planner) Remaining(activityID string) (RemainingBudget, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	a, ok := p.acts.Get(activityID)
	if !ok {
		return RemainingBudget{}, &NotFoundError{Kind: "activity", ID: activityID}
	}
	return RemainingBudget{
		Seconds: RemainingSeconds(a, p.timeline.items),
		Visible: ShowsRemaining(a),
	}, nil
}

func checkCascade(items []*TimelineItem, deleted Activity) error {
	for _, item := range items {
		if item != nil && item.Assigned() && item.ActivityID == deleted.ID {
			return fmt.Errorf("cascade left timeline item %q assigned to %q", item.ID, deleted.ID)
		}
	}
	return nil
}

func changedItemIDs(before, after []*TimelineItem) []string {
	var ids []string
	for i := range before {
		if i < len(after) && before[i] != after[i] && before[i] != nil {
			ids = append(ids, before[i].ID)
		}
	}
	return ids
}
