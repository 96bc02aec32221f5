package planner

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPlanner(t *testing.T, opts ...Option) *Planner {
	t.Helper()
	opts = append([]Option{WithTimelineItems(GenerateTimelineItems())}, opts...)
	return New(opts...)
}

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }

func itemAt(p *Planner, hour int) *TimelineItem {
	for _, item := range p.TimelineItems() {
		if item.Hour == hour {
			return item
		}
	}
	return nil
}

// assertIntegrity checks that every assigned item references a live activity.
func assertIntegrity(t *testing.T, p *Planner) {
	t.Helper()
	acts, items := p.Snapshot()
	live := make(map[string]bool, len(acts))
	for _, a := range acts {
		live[a.ID] = true
	}
	for _, item := range items {
		if item.Assigned() {
			assert.True(t, live[item.ActivityID], "item %s references missing activity %s", item.ID, item.ActivityID)
		}
	}
}

// ============================================================
// Activities
// ============================================================

func TestCreateActivity(t *testing.T) {
	p := newTestPlanner(t)

	a, err := p.CreateActivity(ActivityInput{Name: "Reading", SecondsToComplete: SecondsInHour})
	require.NoError(t, err)
	assert.NotEmpty(t, a.ID)
	assert.Equal(t, "Reading", a.Name)
	assert.Equal(t, SecondsInHour, a.SecondsToComplete)

	got, ok := p.Activity(a.ID)
	require.True(t, ok)
	assert.Equal(t, a, got)
}

func TestCreateActivityAssignsUniqueIDs(t *testing.T) {
	p := newTestPlanner(t)
	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		a, err := p.CreateActivity(ActivityInput{Name: "x"})
		require.NoError(t, err)
		assert.False(t, seen[a.ID])
		seen[a.ID] = true
	}
	assert.Len(t, p.Activities(), 20)
}

func TestCreateActivityRejectsNegativeBudget(t *testing.T) {
	p := newTestPlanner(t)

	_, err := p.CreateActivity(ActivityInput{Name: "Bad", SecondsToComplete: -1})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidation)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "secondsToComplete", verr.Field)
	assert.Empty(t, p.Activities())
}

func TestActivitiesKeepCreationOrder(t *testing.T) {
	p := newTestPlanner(t)
	for _, name := range []string{"Reading", "Coding", "Training"} {
		_, err := p.CreateActivity(ActivityInput{Name: name})
		require.NoError(t, err)
	}

	var names []string
	for _, a := range p.Activities() {
		names = append(names, a.Name)
	}
	assert.Equal(t, []string{"Reading", "Coding", "Training"}, names)
}

func TestUpdateActivity(t *testing.T) {
	p := newTestPlanner(t)
	a, _ := p.CreateActivity(ActivityInput{Name: "Reading", SecondsToComplete: SecondsInHour})

	updated, err := p.UpdateActivity(a, ActivityPatch{SecondsToComplete: intPtr(SecondsInHour / 2)})
	require.NoError(t, err)
	assert.Equal(t, Activity{ID: a.ID, Name: "Reading", SecondsToComplete: SecondsInHour / 2}, updated)

	stored, _ := p.Activity(a.ID)
	assert.Equal(t, updated, stored)
}

func TestUpdateActivityIsIdempotent(t *testing.T) {
	p := newTestPlanner(t)
	a, _ := p.CreateActivity(ActivityInput{Name: "Reading", SecondsToComplete: SecondsInHour})
	patch := ActivityPatch{Name: strPtr("Deep reading"), SecondsToComplete: intPtr(1800)}

	once, err := p.UpdateActivity(a, patch)
	require.NoError(t, err)
	afterOnce := p.Activities()

	twice, err := p.UpdateActivity(once, patch)
	require.NoError(t, err)
	assert.Equal(t, once, twice)
	assert.Equal(t, afterOnce, p.Activities())
}

func TestUpdateActivityNotFound(t *testing.T) {
	p := newTestPlanner(t)

	_, err := p.UpdateActivity(Activity{ID: "missing"}, ActivityPatch{SecondsToComplete: intPtr(60)})
	assert.ErrorIs(t, err, ErrNotFound)

	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "missing", nf.ID)
}

func TestUpdateActivityRejectsNegativeBudgetWithoutChanges(t *testing.T) {
	p := newTestPlanner(t)
	a, _ := p.CreateActivity(ActivityInput{Name: "Reading", SecondsToComplete: 600})

	_, err := p.UpdateActivity(a, ActivityPatch{Name: strPtr("Renamed"), SecondsToComplete: intPtr(-5)})
	assert.ErrorIs(t, err, ErrValidation)

	stored, _ := p.Activity(a.ID)
	assert.Equal(t, a, stored)
}

// ============================================================
// Budget selection
// ============================================================

func TestSetBudgetSelection(t *testing.T) {
	p := newTestPlanner(t)
	a, _ := p.CreateActivity(ActivityInput{Name: "Reading", SecondsToComplete: SecondsInHour})
	opts := PeriodSelectOptions(DefaultPeriodMinutes)

	half := FindBudgetOption(opts, SecondsInHour/2)
	require.NotNil(t, half)
	updated, err := p.SetBudgetSelection(a, half)
	require.NoError(t, err)
	assert.Equal(t, SecondsInHour/2, updated.SecondsToComplete)

	cleared, err := p.SetBudgetSelection(updated, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, cleared.SecondsToComplete)
}

// ============================================================
// Deletion cascade
// ============================================================

func TestDeleteActivityUnassignsTimelineItems(t *testing.T) {
	p := newTestPlanner(t)
	reading, _ := p.CreateActivity(ActivityInput{Name: "Reading"})
	coding, _ := p.CreateActivity(ActivityInput{Name: "Coding"})

	_, err := p.UpdateTimelineItem(itemAt(p, 8), TimelineItemPatch{ActivityID: &reading.ID, ActivitySeconds: intPtr(1200)})
	require.NoError(t, err)
	_, err = p.UpdateTimelineItem(itemAt(p, 9), TimelineItemPatch{ActivityID: &reading.ID})
	require.NoError(t, err)
	_, err = p.UpdateTimelineItem(itemAt(p, 10), TimelineItemPatch{ActivityID: &coding.ID})
	require.NoError(t, err)

	require.NoError(t, p.DeleteActivity(reading))

	_, ok := p.Activity(reading.ID)
	assert.False(t, ok)
	assert.False(t, itemAt(p, 8).Assigned())
	assert.Equal(t, 1200, itemAt(p, 8).ActivitySeconds, "cascade touches only the activity reference")
	assert.False(t, itemAt(p, 9).Assigned())
	assert.Equal(t, coding.ID, itemAt(p, 10).ActivityID)
	assertIntegrity(t, p)
}

func TestDeleteActivityInvokesCascadeOnceWithSnapshot(t *testing.T) {
	type call struct {
		items    []*TimelineItem
		activity Activity
	}
	var calls []call
	spy := func(items []*TimelineItem, a Activity) []*TimelineItem {
		calls = append(calls, call{items: append([]*TimelineItem(nil), items...), activity: a})
		return ResetTimelineItemActivities(items, a)
	}

	p := newTestPlanner(t, WithCascade(spy))
	a, _ := p.CreateActivity(ActivityInput{Name: "Reading"})
	_, err := p.UpdateTimelineItem(itemAt(p, 3), TimelineItemPatch{ActivityID: &a.ID})
	require.NoError(t, err)
	before := p.TimelineItems()

	require.NoError(t, p.DeleteActivity(a))

	require.Len(t, calls, 1)
	assert.Equal(t, a, calls[0].activity)
	require.Len(t, calls[0].items, len(before))
	for i := range before {
		assert.Same(t, before[i], calls[0].items[i])
	}
}

func TestDeleteActivityNotFoundLeavesStoresUnchanged(t *testing.T) {
	calls := 0
	spy := func(items []*TimelineItem, a Activity) []*TimelineItem {
		calls++
		return ResetTimelineItemActivities(items, a)
	}
	p := newTestPlanner(t, WithCascade(spy))
	a, _ := p.CreateActivity(ActivityInput{Name: "Reading"})
	before := p.TimelineItems()

	err := p.DeleteActivity(Activity{ID: "missing"})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Zero(t, calls)
	assert.Len(t, p.Activities(), 1)
	assert.Equal(t, before, p.TimelineItems())

	require.NoError(t, p.DeleteActivity(a))
	assert.ErrorIs(t, p.DeleteActivity(a), ErrNotFound, "second delete of the same activity")
}

func TestDeleteActivityRejectsFaultyCascade(t *testing.T) {
	noop := func(items []*TimelineItem, _ Activity) []*TimelineItem { return items }
	p := newTestPlanner(t, WithCascade(noop))
	a, _ := p.CreateActivity(ActivityInput{Name: "Reading"})
	_, err := p.UpdateTimelineItem(itemAt(p, 1), TimelineItemPatch{ActivityID: &a.ID})
	require.NoError(t, err)

	require.Error(t, p.DeleteActivity(a))
	_, ok := p.Activity(a.ID)
	assert.True(t, ok, "activity stays when the cascade fails")
	assertIntegrity(t, p)
}

func TestDeleteActivityNotifiesOnceAfterBothStoresChanged(t *testing.T) {
	p := newTestPlanner(t)
	a, _ := p.CreateActivity(ActivityInput{Name: "Reading"})
	item, _ := p.UpdateTimelineItem(itemAt(p, 7), TimelineItemPatch{ActivityID: &a.ID})

	var got []Change
	unsubscribe := p.Subscribe(func(c Change) {
		got = append(got, c)
		// Observers must see the cascade and the removal together.
		_, ok := p.Activity(a.ID)
		assert.False(t, ok)
		assertIntegrity(t, p)
	})
	defer unsubscribe()

	require.NoError(t, p.DeleteActivity(a))

	require.Len(t, got, 1)
	assert.Equal(t, ChangeActivityDeleted, got[0].Kind)
	assert.Equal(t, a.ID, got[0].ActivityID)
	assert.Equal(t, []string{item.ID}, got[0].TimelineItemIDs)
}

func TestReferentialIntegrityUnderRandomOperations(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	p := newTestPlanner(t)

	for step := 0; step < 500; step++ {
		acts := p.Activities()
		switch op := rng.Intn(4); {
		case op == 0 || len(acts) == 0:
			_, err := p.CreateActivity(ActivityInput{Name: "a", SecondsToComplete: rng.Intn(4) * 900})
			require.NoError(t, err)
		case op == 1:
			a := acts[rng.Intn(len(acts))]
			_, err := p.UpdateActivity(a, ActivityPatch{SecondsToComplete: intPtr(rng.Intn(8) * 900)})
			require.NoError(t, err)
		case op == 2:
			require.NoError(t, p.DeleteActivity(acts[rng.Intn(len(acts))]))
		default:
			a := acts[rng.Intn(len(acts))]
			_, err := p.UpdateTimelineItem(itemAt(p, rng.Intn(HoursInDay)), TimelineItemPatch{
				ActivityID:      &a.ID,
				ActivitySeconds: intPtr(rng.Intn(SecondsInHour + 1)),
			})
			require.NoError(t, err)
		}
		assertIntegrity(t, p)
	}
}

// ============================================================
// Timeline items
// ============================================================

func TestCreateTimelineItemRequiresExistingActivity(t *testing.T) {
	p := New()

	_, err := p.CreateTimelineItem(TimelineItemInput{Hour: 5, ActivityID: "ghost"})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Empty(t, p.TimelineItems())

	item, err := p.CreateTimelineItem(TimelineItemInput{Hour: 5})
	require.NoError(t, err)
	assert.False(t, item.Assigned())
}

func TestCreateTimelineItemValidation(t *testing.T) {
	p := New()
	tests := []struct {
		name  string
		in    TimelineItemInput
		field string
	}{
		{"hour below range", TimelineItemInput{Hour: -1}, "hour"},
		{"hour above range", TimelineItemInput{Hour: 24}, "hour"},
		{"negative seconds", TimelineItemInput{Hour: 1, ActivitySeconds: -1}, "activitySeconds"},
		{"more than an hour", TimelineItemInput{Hour: 1, ActivitySeconds: SecondsInHour + 1}, "activitySeconds"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.CreateTimelineItem(tt.in)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
	assert.Empty(t, p.TimelineItems())
}

func TestCreateTimelineItemRejectsTakenHour(t *testing.T) {
	p := newTestPlanner(t)
	reading, err := p.CreateActivity(ActivityInput{Name: "Reading"})
	require.NoError(t, err)

	_, err = p.CreateTimelineItem(TimelineItemInput{Hour: 8, ActivityID: reading.ID, ActivitySeconds: SecondsInHour})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "hour", verr.Field)
	assert.Len(t, p.TimelineItems(), HoursInDay)
	assert.Empty(t, p.AssignedTimelineItems(reading.ID))
}

func TestUpdateTimelineItemRejectsTakenHour(t *testing.T) {
	p := newTestPlanner(t)
	before := p.TimelineItems()

	_, err := p.UpdateTimelineItem(itemAt(p, 3), TimelineItemPatch{Hour: intPtr(4)})
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, before, p.TimelineItems())
}

func TestTimelineItemAt(t *testing.T) {
	p := newTestPlanner(t)

	item, ok := p.TimelineItemAt(7)
	require.True(t, ok)
	assert.Equal(t, 7, item.Hour)

	_, ok = New().TimelineItemAt(7)
	assert.False(t, ok)
}

func TestUpdateTimelineItemRejectsUnknownActivity(t *testing.T) {
	p := newTestPlanner(t)
	item := itemAt(p, 4)

	_, err := p.UpdateTimelineItem(item, TimelineItemPatch{ActivityID: strPtr("ghost")})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Same(t, item, itemAt(p, 4))
}

func TestUpdateTimelineItemReplacesPointer(t *testing.T) {
	p := newTestPlanner(t)
	a, _ := p.CreateActivity(ActivityInput{Name: "Reading"})
	before := p.TimelineItems()

	updated, err := p.UpdateTimelineItem(before[2], TimelineItemPatch{ActivityID: &a.ID})
	require.NoError(t, err)

	after := p.TimelineItems()
	assert.NotSame(t, before[2], after[2])
	assert.Same(t, updated, after[2])
	assert.False(t, before[2].Assigned(), "published items are never modified")
	for i := range before {
		if i != 2 {
			assert.Same(t, before[i], after[i])
		}
	}
}

func TestAssignedTimelineItems(t *testing.T) {
	p := newTestPlanner(t)
	a, _ := p.CreateActivity(ActivityInput{Name: "Reading"})
	b, _ := p.CreateActivity(ActivityInput{Name: "Coding"})
	p.UpdateTimelineItem(itemAt(p, 1), TimelineItemPatch{ActivityID: &a.ID})
	p.UpdateTimelineItem(itemAt(p, 2), TimelineItemPatch{ActivityID: &b.ID})
	p.UpdateTimelineItem(itemAt(p, 3), TimelineItemPatch{ActivityID: &a.ID})

	items := p.AssignedTimelineItems(a.ID)
	require.Len(t, items, 2)
	assert.Equal(t, 1, items[0].Hour)
	assert.Equal(t, 3, items[1].Hour)
}

// ============================================================
// Observers
// ============================================================

func TestPanickingObserverDoesNotStopDelivery(t *testing.T) {
	p := newTestPlanner(t)
	panicked := false
	p.Subscribe(func(c Change) {
		if !panicked {
			panicked = true
			panic("observer failed")
		}
	})
	var kinds []ChangeKind
	p.Subscribe(func(c Change) { kinds = append(kinds, c.Kind) })

	assert.Panics(t, func() {
		p.CreateActivity(ActivityInput{Name: "Reading"})
	})
	require.Len(t, p.Activities(), 1)

	a, err := p.CreateActivity(ActivityInput{Name: "Walking"})
	require.NoError(t, err)
	require.NoError(t, p.DeleteActivity(a))
	assert.Equal(t, []ChangeKind{ChangeActivityCreated, ChangeActivityDeleted}, kinds)
}

func TestSubscribeReceivesChangesInOrder(t *testing.T) {
	// hours 12..23 are left free for the create below
	p := New(WithTimelineItems(GenerateTimelineItems()[:12]))
	var kinds []ChangeKind
	unsubscribe := p.Subscribe(func(c Change) { kinds = append(kinds, c.Kind) })

	a, _ := p.CreateActivity(ActivityInput{Name: "Reading"})
	a, _ = p.UpdateActivity(a, ActivityPatch{SecondsToComplete: intPtr(60)})
	p.UpdateTimelineItem(itemAt(p, 0), TimelineItemPatch{ActivityID: &a.ID})
	p.CreateTimelineItem(TimelineItemInput{Hour: 12})
	p.DeleteActivity(a)

	assert.Equal(t, []ChangeKind{
		ChangeActivityCreated,
		ChangeActivityUpdated,
		ChangeTimelineItemUpdated,
		ChangeTimelineItemCreated,
		ChangeActivityDeleted,
	}, kinds)

	unsubscribe()
	p.CreateActivity(ActivityInput{Name: "Later"})
	assert.Len(t, kinds, 5)
}

func TestFailedMutationDoesNotNotify(t *testing.T) {
	p := newTestPlanner(t)
	notified := false
	p.Subscribe(func(Change) { notified = true })

	_, err := p.CreateActivity(ActivityInput{SecondsToComplete: -1})
	require.Error(t, err)
	assert.False(t, notified)
}

func TestObserverMayMutate(t *testing.T) {
	p := newTestPlanner(t)
	var kinds []ChangeKind
	p.Subscribe(func(c Change) {
		kinds = append(kinds, c.Kind)
		if c.Kind == ChangeActivityCreated {
			a, _ := p.Activity(c.ActivityID)
			p.UpdateActivity(a, ActivityPatch{Name: strPtr("renamed")})
		}
	})

	_, err := p.CreateActivity(ActivityInput{Name: "Reading"})
	require.NoError(t, err)
	assert.Equal(t, []ChangeKind{ChangeActivityCreated, ChangeActivityUpdated}, kinds)
	assert.Equal(t, "renamed", p.Activities()[0].Name)
}

// ============================================================
// End-to-end scenario
// ============================================================

func TestDayPlanScenario(t *testing.T) {
	p := New()

	reading, err := p.CreateActivity(ActivityInput{Name: "Reading", SecondsToComplete: 3600})
	require.NoError(t, err)
	rem, err := p.Remaining(reading.ID)
	require.NoError(t, err)
	assert.Equal(t, RemainingBudget{Seconds: -3600, Visible: true}, rem)
	assert.Equal(t, "-01:00:00", FormatSecondsWithSign(rem.Seconds))

	item, err := p.CreateTimelineItem(TimelineItemInput{Hour: 9, ActivityID: reading.ID, ActivitySeconds: 1800})
	require.NoError(t, err)
	rem, _ = p.Remaining(reading.ID)
	assert.Equal(t, "-00:30:00", FormatSecondsWithSign(rem.Seconds))

	opts := PeriodSelectOptions(DefaultPeriodMinutes)
	reading, err = p.SetBudgetSelection(reading, FindBudgetOption(opts, 1800))
	require.NoError(t, err)
	rem, _ = p.Remaining(reading.ID)
	assert.Equal(t, "+00:00:00", FormatSecondsWithSign(rem.Seconds))
	assert.True(t, rem.Visible)

	reading, err = p.SetBudgetSelection(reading, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, reading.SecondsToComplete)
	rem, _ = p.Remaining(reading.ID)
	assert.False(t, rem.Visible)

	var cascades int
	p.cascade = func(items []*TimelineItem, a Activity) []*TimelineItem {
		cascades++
		assert.Equal(t, reading, a)
		return ResetTimelineItemActivities(items, a)
	}
	require.NoError(t, p.DeleteActivity(reading))
	assert.Equal(t, 1, cascades)

	for _, it := range p.TimelineItems() {
		if it.ID == item.ID {
			assert.False(t, it.Assigned())
		}
	}
	_, err = p.Remaining(reading.ID)
	assert.True(t, errors.Is(err, ErrNotFound))
}
