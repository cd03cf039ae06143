// Package planner holds the weekly placement engine: task ordering,
// chunked block placement, dependency sequencing, and the cognitive
// tax evaluation of a finished schedule.
package planner

import (
	"time"

	"github.com/Gandasoft/polylearner/internal/config"
)

// =============================================================================
// TASK MODEL
// =============================================================================

// Category is the closed set of task categories.
type Category string

const (
	CategoryResearch   Category = "research"
	CategoryCoding     Category = "coding"
	CategoryAdmin      Category = "admin"
	CategoryNetworking Category = "networking"
)

// Categories lists all valid categories in canonical order.
var Categories = []Category{CategoryResearch, CategoryCoding, CategoryAdmin, CategoryNetworking}

// IsValidCategory reports whether c belongs to the closed category set.
func IsValidCategory(c Category) bool {
	switch c {
	case CategoryResearch, CategoryCoding, CategoryAdmin, CategoryNetworking:
		return true
	}
	return false
}

// EnergyLevel classifies how demanding a task is.
type EnergyLevel string

const (
	EnergyHigh   EnergyLevel = "high"
	EnergyMedium EnergyLevel = "medium"
	EnergyLow    EnergyLevel = "low"
)

// Task is one schedulable unit of work. Immutable for the duration of a
// scheduling computation.
type Task struct {
	ID           string      `json:"id"`
	Title        string      `json:"title"`
	Goal         string      `json:"goal,omitempty"`
	Category     Category    `json:"category"`
	TimeHours    float64     `json:"time_hours"`
	Priority     int         `json:"priority"` // 1-10
	DueDate      *time.Time  `json:"due_date,omitempty"`
	Dependencies []string    `json:"dependencies,omitempty"`
	EnergyLevel  EnergyLevel `json:"energy_level,omitempty"`
}

// Energy returns the task's energy level, inferring one from priority
// when it was not set explicitly.
func (t Task) Energy() EnergyLevel {
	if t.EnergyLevel != "" {
		return t.EnergyLevel
	}
	switch {
	case t.Priority >= 8:
		return EnergyHigh
	case t.Priority <= 3:
		return EnergyLow
	default:
		return EnergyMedium
	}
}

// =============================================================================
// SCHEDULE MODEL
// =============================================================================

// Block is one placed chunk of a task.
type Block struct {
	TaskID           string    `json:"task_id"`
	TaskTitle        string    `json:"task_title"`
	Category         Category  `json:"category"`
	StartTime        time.Time `json:"start_time"`
	EndTime          time.Time `json:"end_time"`
	DurationHours    float64   `json:"duration_hours"`
	SchedulingReason string    `json:"scheduling_reason,omitempty"`
}

// WeekSchedule is the placed week: blocks in chronological order.
type WeekSchedule struct {
	WeekStart         time.Time `json:"week_start"`
	Blocks            []Block   `json:"blocks"`
	TotalHours        float64   `json:"total_hours"`
	CognitiveTaxScore float64   `json:"cognitive_tax_score"`
}

// Unscheduled reports hours that could not be placed within the week.
// It is a warning carried in the result, never an error.
type Unscheduled struct {
	TaskID string  `json:"task_id"`
	Hours  float64 `json:"hours"`
	Reason string  `json:"reason"`
}

// Result is the full outcome of one scheduling computation.
type Result struct {
	Schedule      WeekSchedule     `json:"schedule"`
	Metrics       CognitiveMetrics `json:"metrics"`
	Unschedulable []Unscheduled    `json:"unschedulable,omitempty"`
}

// TaskGroup is a named cluster of related tasks.
type TaskGroup struct {
	Name       string   `json:"name"`
	TaskIDs    []string `json:"task_ids"`
	TotalHours float64  `json:"total_hours"`
}

// CognitiveMetrics measures the mental cost of a schedule.
type CognitiveMetrics struct {
	CognitiveTaxScore    float64 `json:"cognitive_tax_score"`    // [0,1], lower is better
	ContextSwitches      int     `json:"context_switches"`
	AverageBlockDuration float64 `json:"average_block_duration"` // hours
	FragmentationScore   float64 `json:"fragmentation_score"`    // [0,1]
	Interpretation       string  `json:"interpretation"`
}

// =============================================================================
// PLACEMENT CONFIG
// =============================================================================

// Config is the resolved weekly placement window.
type Config struct {
	WeekStart           time.Time
	Days                int // scheduling horizon in days from WeekStart
	DailyStart          int
	DailyEnd            int
	PeakStart           int // 0 disables the peak window together with PeakEnd
	PeakEnd             int
	MaxContinuousHours  float64
	BreakMinutes        int
	FocusThresholdHours float64
}

// DefaultDays is the Monday-Friday horizon.
const DefaultDays = 5

// ResolveConfig turns the YAML scheduling section into a placement config.
func ResolveConfig(s config.SchedulingConfig, now time.Time) (Config, error) {
	cfg := Config{
		WeekStart:           s.WeekStartDate(now),
		Days:                DefaultDays,
		DailyStart:          s.DailyStart,
		DailyEnd:            s.DailyEnd,
		MaxContinuousHours:  s.MaxContinuousHours,
		BreakMinutes:        s.BreakMinutes,
		FocusThresholdHours: s.FocusThresholdHours,
	}
	if s.PeakHours != "" {
		start, end, err := s.PeakWindow()
		if err != nil {
			return Config{}, &ValidationError{Field: "peak_hours", Message: err.Error()}
		}
		cfg.PeakStart, cfg.PeakEnd = start, end
	}
	if cfg.FocusThresholdHours <= 0 {
		cfg.FocusThresholdHours = 1
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.DailyStart < 0 || c.DailyEnd > 24 || c.DailyStart >= c.DailyEnd {
		return &ValidationError{Field: "daily window", Message: "daily_start must be before daily_end and within 0-24"}
	}
	if c.MaxContinuousHours <= 0 {
		return &ValidationError{Field: "max_continuous_hours", Message: "must be positive"}
	}
	if c.BreakMinutes < 0 {
		return &ValidationError{Field: "break_minutes", Message: "must not be negative"}
	}
	if c.Days <= 0 {
		return &ValidationError{Field: "days", Message: "horizon must cover at least one day"}
	}
	return nil
}

func (c Config) hasPeakWindow() bool {
	return c.PeakEnd > c.PeakStart
}
