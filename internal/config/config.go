// Package config handles configuration loading and validation for dayplan.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sadopc/dayplan/internal/planner"
)

// Config holds the application configuration.
type Config struct {
	TickInterval time.Duration  `yaml:"tick_interval"` // how often the time indicator moves
	Timeline     TimelineConfig `yaml:"timeline"`
	Budget       BudgetConfig   `yaml:"budget"`
	Activities   []ActivitySeed `yaml:"activities"`
	Schedule     []ScheduleSeed `yaml:"schedule"`
	Log          LogConfig      `yaml:"log"`
}

// TimelineConfig controls the size of the rendered timeline.
type TimelineConfig struct {
	RowsPerHour int     `yaml:"rows_per_hour"`
	Height      float64 `yaml:"height"` // container height used when no terminal is attached
}

// BudgetConfig lists the choices offered by the budget select.
type BudgetConfig struct {
	PeriodMinutes []int `yaml:"period_minutes"`
}

// ActivitySeed is an activity created at startup.
type ActivitySeed struct {
	Name          string `yaml:"name"`
	BudgetMinutes int    `yaml:"budget_minutes"`
}

// ScheduleSeed assigns minutes of an hour slot to a seeded activity.
type ScheduleSeed struct {
	Hour     int    `yaml:"hour"`
	Activity string `yaml:"activity"`
	Minutes  int    `yaml:"minutes"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		TickInterval: time.Second,
		Timeline: TimelineConfig{
			RowsPerHour: 1,
			Height:      2700,
		},
		Budget: BudgetConfig{
			PeriodMinutes: append([]int(nil), planner.DefaultPeriodMinutes...),
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from the given path. If configPath is empty or
// doesn't exist, returns defaults.
func Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			data, err := os.ReadFile(configPath)
			if err != nil {
				return nil, fmt.Errorf("read config file: %w", err)
			}

			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}
		}
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets default values for any unset configuration options.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()
	if c.TickInterval == 0 {
		c.TickInterval = defaults.TickInterval
	}
	if c.Timeline.RowsPerHour == 0 {
		c.Timeline.RowsPerHour = defaults.Timeline.RowsPerHour
	}
	if c.Timeline.Height == 0 {
		c.Timeline.Height = defaults.Timeline.Height
	}
	if len(c.Budget.PeriodMinutes) == 0 {
		c.Budget.PeriodMinutes = defaults.Budget.PeriodMinutes
	}
	if c.Log.Level == "" {
		c.Log.Level = defaults.Log.Level
	}
}

// BudgetOptions returns the budget select options built from the config.
func (c *Config) BudgetOptions() []planner.BudgetOption {
	return planner.PeriodSelectOptions(c.Budget.PeriodMinutes)
}

// DefaultConfigPath returns <user config dir>/dayplan/config.yaml.
func DefaultConfigPath() string {
	return filepath.Join(configDir(), "config.yaml")
}

// DefaultLogPath returns <user config dir>/dayplan/dayplan.log.
func DefaultLogPath() string {
	return filepath.Join(configDir(), "dayplan.log")
}

func configDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "dayplan")
}
