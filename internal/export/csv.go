package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/sadopc/dayplan/internal/planner"
)

// ToCSV writes one row per activity with its budget, used and remaining time.
func ToCSV(plan Plan, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	return WriteCSV(f, plan)
}

func WriteCSV(out io.Writer, plan Plan) error {
	w := csv.NewWriter(out)

	// Header
	if err := w.Write([]string{"ID", "Activity", "Budget (s)", "Budget", "Used (s)", "Used", "Remaining"}); err != nil {
		return err
	}

	for _, s := range Summarize(plan) {
		row := []string{
			s.Activity.ID,
			s.Activity.Name,
			fmt.Sprintf("%d", s.Activity.SecondsToComplete),
			planner.FormatSeconds(s.Activity.SecondsToComplete),
			fmt.Sprintf("%d", s.Used),
			planner.FormatSeconds(s.Used),
			s.RemainingLabel(),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}
