package config

import (
	"fmt"
	"time"

	"github.com/hay-kot/criterio"
	"github.com/rs/zerolog"

	"github.com/sadopc/dayplan/internal/planner"
)

// Validate checks that the configuration is valid. Problems are reported as
// criterio.FieldErrors.
func (c *Config) Validate() error {
	return criterio.ValidateStruct(
		criterio.Run("tick_interval", c.TickInterval, positiveDuration),
		criterio.Run("timeline.rows_per_hour", c.Timeline.RowsPerHour, positiveInt),
		criterio.Run("timeline.height", c.Timeline.Height, positiveFloat),
		criterio.Run("log.level", c.Log.Level, logLevel),
		c.validatePeriods(),
		c.validateActivities(),
		c.validateSchedule(),
	)
}

func (c *Config) validatePeriods() error {
	var errs criterio.FieldErrorsBuilder
	seen := make(map[int]bool, len(c.Budget.PeriodMinutes))
	for i, m := range c.Budget.PeriodMinutes {
		field := fmt.Sprintf("budget.period_minutes[%d]", i)
		if m <= 0 || m > planner.HoursInDay*planner.MinutesInHour {
			errs = errs.Append(field, fmt.Errorf("%d is outside 1..%d", m, planner.HoursInDay*planner.MinutesInHour))
		}
		if seen[m] {
			errs = errs.Append(field, fmt.Errorf("duplicate period %d", m))
		}
		seen[m] = true
	}
	return errs.ToError()
}

func (c *Config) validateActivities() error {
	var errs criterio.FieldErrorsBuilder
	seen := make(map[string]bool, len(c.Activities))
	for i, a := range c.Activities {
		field := fmt.Sprintf("activities[%d]", i)
		if a.Name == "" {
			errs = errs.Append(field+".name", fmt.Errorf("name is required"))
		}
		if seen[a.Name] {
			errs = errs.Append(field+".name", fmt.Errorf("duplicate activity %q", a.Name))
		}
		seen[a.Name] = true
		if a.BudgetMinutes < 0 {
			errs = errs.Append(field+".budget_minutes", fmt.Errorf("must not be negative"))
		}
	}
	return errs.ToError()
}

func (c *Config) validateSchedule() error {
	var errs criterio.FieldErrorsBuilder
	names := make(map[string]bool, len(c.Activities))
	for _, a := range c.Activities {
		names[a.Name] = true
	}
	hours := make(map[int]bool, len(c.Schedule))
	for i, s := range c.Schedule {
		field := fmt.Sprintf("schedule[%d]", i)
		if s.Hour < 0 || s.Hour >= planner.HoursInDay {
			errs = errs.Append(field+".hour", fmt.Errorf("%d is outside 0..%d", s.Hour, planner.HoursInDay-1))
		}
		if hours[s.Hour] {
			errs = errs.Append(field+".hour", fmt.Errorf("hour %d is scheduled twice", s.Hour))
		}
		hours[s.Hour] = true
		if !names[s.Activity] {
			errs = errs.Append(field+".activity", fmt.Errorf("unknown activity %q", s.Activity))
		}
		if s.Minutes < 0 || s.Minutes > planner.MinutesInHour {
			errs = errs.Append(field+".minutes", fmt.Errorf("%d is outside 0..%d", s.Minutes, planner.MinutesInHour))
		}
	}
	return errs.ToError()
}

func positiveInt(v int) error {
	if v <= 0 {
		return fmt.Errorf("must be positive")
	}
	return nil
}

func positiveFloat(v float64) error {
	if v <= 0 {
		return fmt.Errorf("must be positive")
	}
	return nil
}

func positiveDuration(v time.Duration) error {
	if v <= 0 {
		return fmt.Errorf("must be positive")
	}
	return nil
}

func logLevel(v string) error {
	if _, err := zerolog.ParseLevel(v); err != nil {
		return fmt.Errorf("unknown level %q", v)
	}
	return nil
}
