package cli

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/sadopc/dayplan/internal/config"
	"github.com/sadopc/dayplan/internal/planner"
)

// SeedPlanner builds a planner with a full day of timeline items and the
// activities and schedule listed in cfg.
func SeedPlanner(cfg *config.Config, log zerolog.Logger) (*planner.Planner, error) {
	p := planner.New(
		planner.WithLogger(log),
		planner.WithTimelineItems(planner.GenerateTimelineItems()),
	)

	ids := make(map[string]string, len(cfg.Activities))
	for _, seed := range cfg.Activities {
		a, err := p.CreateActivity(planner.ActivityInput{
			Name:              seed.Name,
			SecondsToComplete: seed.BudgetMinutes * planner.SecondsInMinute,
		})
		if err != nil {
			return nil, fmt.Errorf("seed activity %q: %w", seed.Name, err)
		}
		ids[seed.Name] = a.ID
	}

	for _, seed := range cfg.Schedule {
		id, ok := ids[seed.Activity]
		if !ok {
			return nil, fmt.Errorf("seed schedule: unknown activity %q", seed.Activity)
		}
		item := itemAtHour(p.TimelineItems(), seed.Hour)
		seconds := seed.Minutes * planner.SecondsInMinute
		var err error
		if item == nil {
			_, err = p.CreateTimelineItem(planner.TimelineItemInput{Hour: seed.Hour, ActivityID: id, ActivitySeconds: seconds})
		} else {
			_, err = p.UpdateTimelineItem(item, planner.TimelineItemPatch{ActivityID: &id, ActivitySeconds: &seconds})
		}
		if err != nil {
			return nil, fmt.Errorf("seed schedule at %02d:00: %w", seed.Hour, err)
		}
	}

	log.Debug().Int("activities", len(cfg.Activities)).Int("scheduled", len(cfg.Schedule)).Msg("planner seeded")
	return p, nil
}

func itemAtHour(items []*planner.TimelineItem, hour int) *planner.TimelineItem {
	for _, item := range items {
		if item.Hour == hour {
			return item
		}
	}
	return nil
}
