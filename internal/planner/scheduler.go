package planner

import (
	"fmt"
	"sort"
	"time"

	"github.com/Gandasoft/polylearner/internal/logging"
)

// =============================================================================
// WEEKLY PLACEMENT
// =============================================================================

// dayState tracks the next free time and the last placed category for
// one weekday of the horizon.
type dayState struct {
	cursor       time.Time
	lastCategory Category
	lastGroup    string
}

// scheduler holds the per-computation placement state.
type scheduler struct {
	cfg     Config
	days    []dayState
	groupOf map[string]string

	blocks        []Block
	taskEnds      map[string]time.Time // latest placed end per task
	unschedulable map[string]*Unscheduled
	unschedOrder  []string
}

// ComputeSchedule places every task's hours into the week and evaluates
// the resulting cognitive cost. Validation failures and dependency
// cycles are hard errors; capacity shortfall degrades to a partial
// schedule plus an unschedulable report. The computation is stateless
// across calls: identical input yields an identical result.
func ComputeSchedule(tasks []Task, groups []TaskGroup, cfg Config) (*Result, error) {
	timer := logging.StartTimer(logging.CategoryScheduler, "ComputeSchedule")
	defer timer.Stop()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if err := ValidateTasks(tasks); err != nil {
		return nil, err
	}

	s := &scheduler{
		cfg:           cfg,
		days:          make([]dayState, cfg.Days),
		groupOf:       make(map[string]string),
		taskEnds:      make(map[string]time.Time),
		unschedulable: make(map[string]*Unscheduled),
	}
	for d := range s.days {
		s.days[d].cursor = s.dayTime(d, cfg.DailyStart)
	}
	for _, g := range groups {
		for _, id := range g.TaskIDs {
			s.groupOf[id] = g.Name
		}
	}

	ordered := OrderForPlacement(tasks, groups)
	logging.Scheduler("Placing %d tasks across %d groups, week of %s",
		len(ordered), len(groups), cfg.WeekStart.Format("2006-01-02"))

	s.placeAll(ordered)

	sort.SliceStable(s.blocks, func(i, j int) bool {
		if !s.blocks[i].StartTime.Equal(s.blocks[j].StartTime) {
			return s.blocks[i].StartTime.Before(s.blocks[j].StartTime)
		}
		return s.blocks[i].TaskID < s.blocks[j].TaskID
	})

	total := 0.0
	for _, b := range s.blocks {
		total += b.DurationHours
	}

	metrics := Evaluate(s.blocks, cfg.FocusThresholdHours)

	result := &Result{
		Schedule: WeekSchedule{
			WeekStart:         cfg.WeekStart,
			Blocks:            s.blocks,
			TotalHours:        total,
			CognitiveTaxScore: metrics.CognitiveTaxScore,
		},
		Metrics:       metrics,
		Unschedulable: s.unschedReport(),
	}

	logging.Scheduler("Placed %d blocks (%.1fh), %d tasks with unscheduled hours, tax=%.3f",
		len(s.blocks), total, len(result.Unschedulable), metrics.CognitiveTaxScore)
	return result, nil
}

// placeAll consumes tasks in placement order, holding back any task
// until all of its dependencies are settled.
func (s *scheduler) placeAll(ordered []Task) {
	done := make(map[string]bool, len(ordered))
	remaining := len(ordered)

	for remaining > 0 {
		progressed := false
		for _, t := range ordered {
			if done[t.ID] || !s.depsSettled(t, done) {
				continue
			}
			s.placeTask(t)
			done[t.ID] = true
			remaining--
			progressed = true
		}
		if !progressed {
			// Cannot happen with an acyclic graph, but never spin.
			for _, t := range ordered {
				if !done[t.ID] {
					s.reportUnscheduled(t.ID, t.TimeHours, "dependency ordering could not be resolved")
					done[t.ID] = true
					remaining--
				}
			}
		}
	}
}

func (s *scheduler) depsSettled(t Task, done map[string]bool) bool {
	for _, dep := range t.Dependencies {
		if !done[dep] {
			return false
		}
	}
	return true
}

// placeTask splits a task at the continuous-focus cap and places each
// chunk independently.
func (s *scheduler) placeTask(t Task) {
	// A dependency that did not fully land leaves the dependent with no
	// valid start time.
	for _, dep := range t.Dependencies {
		if _, incomplete := s.unschedulable[dep]; incomplete {
			s.reportUnscheduled(t.ID, t.TimeHours, fmt.Sprintf("dependency %s was not fully scheduled", dep))
			return
		}
	}

	depEarliest := time.Time{}
	for _, dep := range t.Dependencies {
		if end, ok := s.taskEnds[dep]; ok && end.After(depEarliest) {
			depEarliest = end
		}
	}

	remaining := t.TimeHours
	chunkIndex := 0
	var lastEnd time.Time

	for remaining > 0 {
		chunk := remaining
		if chunk > s.cfg.MaxContinuousHours {
			chunk = s.cfg.MaxContinuousHours
		}

		earliest := depEarliest
		if chunkIndex > 0 {
			// Mandatory rest between adjacent chunks of the same task.
			rest := lastEnd.Add(time.Duration(s.cfg.BreakMinutes) * time.Minute)
			if rest.After(earliest) {
				earliest = rest
			}
		}

		block, ok := s.placeChunk(t, chunk, earliest, chunkIndex)
		if !ok {
			s.reportUnscheduled(t.ID, remaining, "no remaining capacity in the week")
			logging.SchedulerWarn("Task %s: %.1fh left unscheduled", t.ID, remaining)
			return
		}

		s.blocks = append(s.blocks, block)
		s.taskEnds[t.ID] = block.EndTime
		lastEnd = block.EndTime
		remaining -= chunk
		chunkIndex++
	}
}

// placeChunk scans days in week order and returns the placed block.
func (s *scheduler) placeChunk(t Task, hours float64, earliest time.Time, chunkIndex int) (Block, bool) {
	dur := time.Duration(hours * float64(time.Hour))
	preferPeak := s.cfg.hasPeakWindow() && (t.Energy() == EnergyHigh || t.Priority >= 8)

	for d := 0; d < s.cfg.Days; d++ {
		day := &s.days[d]
		dayEnd := s.dayTime(d, s.cfg.DailyEnd)

		candidate := day.cursor
		if earliest.After(candidate) {
			candidate = earliest
		}
		if !candidate.Before(dayEnd) {
			continue
		}

		// Peak-hour preference for high-energy work. The window never
		// extends past the daily end.
		if preferPeak {
			peakStart := s.dayTime(d, s.cfg.PeakStart)
			peakEnd := s.dayTime(d, s.cfg.PeakEnd)
			if peakEnd.After(dayEnd) {
				peakEnd = dayEnd
			}
			start := candidate
			if peakStart.After(start) {
				start = peakStart
			}
			if end := start.Add(dur); !end.After(peakEnd) {
				return s.commit(d, t, start, end, hours, "peak-hour placement"), true
			}
		}

		// First available slot of sufficient width in the daily window.
		if end := candidate.Add(dur); !end.After(dayEnd) {
			return s.commit(d, t, candidate, end, hours, s.reason(d, t, earliest, chunkIndex)), true
		}
	}
	return Block{}, false
}

func (s *scheduler) reason(d int, t Task, earliest time.Time, chunkIndex int) string {
	switch {
	case chunkIndex > 0:
		return "continuation after break"
	case len(t.Dependencies) > 0 && earliest.After(s.cfg.WeekStart):
		return "placed after dependencies"
	case s.groupOf[t.ID] != "" && s.days[d].lastGroup == s.groupOf[t.ID]:
		return fmt.Sprintf("batched with group %s", s.groupOf[t.ID])
	default:
		return "first available slot"
	}
}

func (s *scheduler) commit(d int, t Task, start, end time.Time, hours float64, reason string) Block {
	day := &s.days[d]
	day.cursor = end
	day.lastCategory = t.Category
	day.lastGroup = s.groupOf[t.ID]

	logging.SchedulerDebug("Task %s: %s - %s (%s)", t.ID,
		start.Format("Mon 15:04"), end.Format("15:04"), reason)

	return Block{
		TaskID:           t.ID,
		TaskTitle:        t.Title,
		Category:         t.Category,
		StartTime:        start,
		EndTime:          end,
		DurationHours:    hours,
		SchedulingReason: reason,
	}
}

func (s *scheduler) reportUnscheduled(taskID string, hours float64, reason string) {
	if u, ok := s.unschedulable[taskID]; ok {
		u.Hours += hours
		return
	}
	s.unschedulable[taskID] = &Unscheduled{TaskID: taskID, Hours: hours, Reason: reason}
	s.unschedOrder = append(s.unschedOrder, taskID)
}

func (s *scheduler) unschedReport() []Unscheduled {
	out := make([]Unscheduled, 0, len(s.unschedOrder))
	for _, id := range s.unschedOrder {
		out = append(out, *s.unschedulable[id])
	}
	return out
}

// dayTime resolves hour h on day d of the horizon.
func (s *scheduler) dayTime(d, h int) time.Time {
	base := s.cfg.WeekStart.AddDate(0, 0, d)
	return time.Date(base.Year(), base.Month(), base.Day(), h, 0, 0, 0, base.Location())
}
