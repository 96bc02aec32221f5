package planner

import "github.com/google/uuid"

// ActivityStore owns the set of activities. It is not safe for concurrent
// use; Planner serializes access.
type ActivityStore struct {
	byID  map[string]Activity
	order []string
	newID func() string
}

func NewActivityStore() *ActivityStore {
	return &ActivityStore{
		byID:  make(map[string]Activity),
		newID: uuid.NewString,
	}
}

// Create stores a new activity under a fresh id.
func (s *ActivityStore) Create(in ActivityInput) (Activity, error) {
	if err := validateBudget(in.SecondsToComplete); err != nil {
		return Activity{}, err
	}
	a := Activity{
		ID:                s.newID(),
		Name:              in.Name,
		SecondsToComplete: in.SecondsToComplete,
	}
	s.byID[a.ID] = a
	s.order = append(s.order, a.ID)
	return a, nil
}

// Update merges p into a and writes the result back under a.ID. Applying the
// same patch twice leaves the same stored state.
func (s *ActivityStore) Update(a Activity, p ActivityPatch) (Activity, error) {
	if _, ok := s.byID[a.ID]; !ok {
		return Activity{}, &NotFoundError{Kind: "activity", ID: a.ID}
	}
	merged := a
	if p.Name != nil {
		merged.Name = *p.Name
	}
	if p.SecondsToComplete != nil {
		if err := validateBudget(*p.SecondsToComplete); err != nil {
			return Activity{}, err
		}
		merged.SecondsToComplete = *p.SecondsToComplete
	}
	s.byID[a.ID] = merged
	return merged, nil
}

// Delete removes the activity. Callers are responsible for running the
// timeline cascade in the same step; see Planner.DeleteActivity.
func (s *ActivityStore) Delete(a Activity) error {
	if _, ok := s.byID[a.ID]; !ok {
		return &NotFoundError{Kind: "activity", ID: a.ID}
	}
	delete(s.byID, a.ID)
	for i, id := range s.order {
		if id == a.ID {
			s.order = append(s.order[:i:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

func (s *ActivityStore) Get(id string) (Activity, bool) {
	a, ok := s.byID[id]
	return a, ok
}

func (s *ActivityStore) Has(id string) bool {
	_, ok := s.byID[id]
	return ok
}

// List returns the activities in creation order.
func (s *ActivityStore) List() []Activity {
	out := make([]Activity, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.byID[id])
	}
	return out
}

func validateBudget(seconds int) error {
	if seconds < 0 {
		return &ValidationError{Field: "secondsToComplete", Reason: "must not be negative"}
	}
	return nil
}
