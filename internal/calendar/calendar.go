// Package calendar turns schedule blocks into external calendar
// events. The engine reports per-block outcomes upward and never
// retries failed blocks automatically.
package calendar

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Gandasoft/polylearner/internal/config"
	"github.com/Gandasoft/polylearner/internal/logging"
	"github.com/Gandasoft/polylearner/internal/planner"
)

// Calendar creates events from blocks.
type Calendar interface {
	// CreateEvent creates one event and returns its identifier.
	CreateEvent(ctx context.Context, summary, description string, start, end time.Time) (string, error)
}

// BlockResult is the per-block outcome of a sync.
type BlockResult struct {
	TaskID  string `json:"task_id"`
	EventID string `json:"event_id,omitempty"`
	Error   string `json:"error,omitempty"`
}

// New constructs the provider named by the configuration. A disabled
// integration returns nil.
func New(cfg config.CalendarConfig) (Calendar, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	switch strings.ToLower(cfg.Provider) {
	case "google", "":
		return NewGoogleCalendar(cfg), nil
	default:
		return nil, fmt.Errorf("unknown calendar provider: %q", cfg.Provider)
	}
}

// SyncSchedule creates one event per block, reporting each outcome.
// A failed block does not stop the rest.
func SyncSchedule(ctx context.Context, cal Calendar, schedule planner.WeekSchedule) []BlockResult {
	results := make([]BlockResult, 0, len(schedule.Blocks))
	for _, b := range schedule.Blocks {
		res := BlockResult{TaskID: b.TaskID}

		summary := b.TaskTitle
		if summary == "" {
			summary = b.TaskID
		}
		description := fmt.Sprintf("Task: %s\nCategory: %s\nDuration: %.1fh", summary, b.Category, b.DurationHours)
		if b.SchedulingReason != "" {
			description += fmt.Sprintf("\nScheduling Reason: %s", b.SchedulingReason)
		}

		id, err := cal.CreateEvent(ctx, summary, description, b.StartTime, b.EndTime)
		if err != nil {
			logging.CalendarError("Failed to create event for block %s: %v", b.TaskID, err)
			res.Error = err.Error()
		} else {
			logging.Calendar("Created event %s for block %s", id, b.TaskID)
			res.EventID = id
		}
		results = append(results, res)
	}
	return results
}
