package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sadopc/dayplan/internal/planner"
)

type jsonExport struct {
	ExportedAt string         `json:"exported_at"`
	Activities []jsonActivity `json:"activities"`
	Timeline   []jsonItem     `json:"timeline"`
}

type jsonActivity struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	BudgetSec    int    `json:"budget_seconds"`
	UsedSec      int    `json:"used_seconds"`
	RemainingSec *int   `json:"remaining_seconds,omitempty"`
	Remaining    string `json:"remaining,omitempty"`
}

type jsonItem struct {
	ID           string `json:"id"`
	Hour         int    `json:"hour"`
	ActivityID   string `json:"activity_id,omitempty"`
	Activity     string `json:"activity,omitempty"`
	ScheduledSec int    `json:"scheduled_seconds"`
	Scheduled    string `json:"scheduled"`
}

// ToJSON writes the activities and the timeline to path, stamped with
// exportedAt.
func ToJSON(plan Plan, path string, exportedAt time.Time) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create json file: %w", err)
	}
	defer f.Close()

	if err := WriteJSON(f, plan, exportedAt); err != nil {
		return fmt.Errorf("write json file: %w", err)
	}
	return nil
}

func WriteJSON(out io.Writer, plan Plan, exportedAt time.Time) error {
	export := jsonExport{
		ExportedAt: exportedAt.UTC().Format(time.RFC3339),
		Activities: []jsonActivity{},
		Timeline:   []jsonItem{},
	}

	for _, s := range Summarize(plan) {
		a := jsonActivity{
			ID:        s.Activity.ID,
			Name:      s.Activity.Name,
			BudgetSec: s.Activity.SecondsToComplete,
			UsedSec:   s.Used,
		}
		if s.Remaining.Visible {
			remaining := s.Remaining.Seconds
			a.RemainingSec = &remaining
			a.Remaining = s.RemainingLabel()
		}
		export.Activities = append(export.Activities, a)
	}

	names := activityNames(plan.Activities)
	for _, item := range plan.Items {
		export.Timeline = append(export.Timeline, jsonItem{
			ID:           item.ID,
			Hour:         item.Hour,
			ActivityID:   item.ActivityID,
			Activity:     names[item.ActivityID],
			ScheduledSec: item.ActivitySeconds,
			Scheduled:    planner.FormatSeconds(item.ActivitySeconds),
		})
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	_, err = out.Write(append(data, '\n'))
	return err
}
