package planner

import (
	"fmt"

	"github.com/google/uuid"
)

// CascadeFunc unlinks timeline items from a deleted activity.
type CascadeFunc func(items []*TimelineItem, activity Activity) []*TimelineItem

// ResetTimelineItemActivities returns a copy of items in which every item
// assigned to activity is replaced by an unassigned copy. Other items are
// returned as the same pointers. The input slice and its items are never
// modified.
func ResetTimelineItemActivities(items []*TimelineItem, activity Activity) []*TimelineItem {
	out := make([]*TimelineItem, len(items))
	for i, item := range items {
		if item != nil && item.ActivityID == activity.ID && item.Assigned() {
			reset := *item
			reset.ActivityID = NoActivity
			out[i] = &reset
			continue
		}
		out[i] = item
	}
	return out
}

// GenerateTimelineItems builds an unassigned item for every hour of the day.
func GenerateTimelineItems() []*TimelineItem {
	items := make([]*TimelineItem, HoursInDay)
	for hour := range items {
		items[hour] = &TimelineItem{ID: uuid.NewString(), Hour: hour}
	}
	return items
}

// TimelineStore owns the ordered set of timeline items. It is not safe for
// concurrent use; Planner serializes access.
type TimelineStore struct {
	items []*TimelineItem
	newID func() string
}

func NewTimelineStore(items []*TimelineItem) *TimelineStore {
	return &TimelineStore{
		items: append([]*TimelineItem(nil), items...),
		newID: uuid.NewString,
	}
}

// Items returns a snapshot of the collection. The slice is a copy; the items
// are shared and must not be modified.
func (s *TimelineStore) Items() []*TimelineItem {
	return append([]*TimelineItem(nil), s.items...)
}

func (s *TimelineStore) Get(id string) (*TimelineItem, bool) {
	i := s.indexOf(id)
	if i < 0 {
		return nil, false
	}
	return s.items[i], true
}

// Create appends a new item. Whether ActivityID exists is checked by the
// caller, which owns the activity store. Each hour holds at most one item.
func (s *TimelineStore) Create(in TimelineItemInput) (*TimelineItem, error) {
	item := &TimelineItem{
		ID:              s.newID(),
		Hour:            in.Hour,
		ActivityID:      in.ActivityID,
		ActivitySeconds: in.ActivitySeconds,
	}
	if err := validateTimelineItem(*item); err != nil {
		return nil, err
	}
	if err := s.checkHourFree(item.Hour, ""); err != nil {
		return nil, err
	}
	s.items = append(s.items, item)
	return item, nil
}

// Update applies p to a copy of the stored item and swaps it in.
func (s *TimelineStore) Update(item *TimelineItem, p TimelineItemPatch) (*TimelineItem, error) {
	if item == nil {
		return nil, &NotFoundError{Kind: "timeline item"}
	}
	i := s.indexOf(item.ID)
	if i < 0 {
		return nil, &NotFoundError{Kind: "timeline item", ID: item.ID}
	}
	next := *s.items[i]
	if p.Hour != nil {
		next.Hour = *p.Hour
	}
	if p.ActivityID != nil {
		next.ActivityID = *p.ActivityID
	}
	if p.ActivitySeconds != nil {
		next.ActivitySeconds = *p.ActivitySeconds
	}
	if err := validateTimelineItem(next); err != nil {
		return nil, err
	}
	if err := s.checkHourFree(next.Hour, next.ID); err != nil {
		return nil, err
	}
	if next == *s.items[i] {
		return s.items[i], nil
	}
	s.items[i] = &next
	return &next, nil
}

// Replace swaps in a whole collection, e.g. the result of a cascade.
func (s *TimelineStore) Replace(items []*TimelineItem) {
	s.items = append([]*TimelineItem(nil), items...)
}

// AtHour returns the item scheduled at hour.
func (s *TimelineStore) AtHour(hour int) (*TimelineItem, bool) {
	for _, item := range s.items {
		if item != nil && item.Hour == hour {
			return item, true
		}
	}
	return nil, false
}

func (s *TimelineStore) checkHourFree(hour int, self string) error {
	if other, ok := s.AtHour(hour); ok && other.ID != self {
		return &ValidationError{Field: "hour", Reason: fmt.Sprintf("%02d:00 is already taken by item %q", hour, other.ID)}
	}
	return nil
}

func (s *TimelineStore) indexOf(id string) int {
	for i, item := range s.items {
		if item != nil && item.ID == id {
			return i
		}
	}
	return -1
}

func validateTimelineItem(t TimelineItem) error {
	if t.Hour < 0 || t.Hour >= HoursInDay {
		return &ValidationError{Field: "hour", Reason: fmt.Sprintf("%d is outside 0..%d", t.Hour, HoursInDay-1)}
	}
	if t.ActivitySeconds < 0 || t.ActivitySeconds > SecondsInHour {
		return &ValidationError{Field: "activitySeconds", Reason: fmt.Sprintf("%d is outside 0..%d", t.ActivitySeconds, SecondsInHour)}
	}
	return nil
}
