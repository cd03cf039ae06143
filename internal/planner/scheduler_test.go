package planner

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

var testWeek = time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC) // a Monday

func testConfig() Config {
	return Config{
		WeekStart:           testWeek,
		Days:                DefaultDays,
		DailyStart:          9,
		DailyEnd:            17,
		PeakStart:           9,
		PeakEnd:             12,
		MaxContinuousHours:  2,
		BreakMinutes:        15,
		FocusThresholdHours: 1,
	}
}

func categoryGroups(tasks []Task) []TaskGroup {
	byCat := map[Category]*TaskGroup{}
	var order []Category
	for _, t := range tasks {
		g, ok := byCat[t.Category]
		if !ok {
			g = &TaskGroup{Name: string(t.Category)}
			byCat[t.Category] = g
			order = append(order, t.Category)
		}
		g.TaskIDs = append(g.TaskIDs, t.ID)
		g.TotalHours += t.TimeHours
	}
	out := make([]TaskGroup, 0, len(order))
	for _, c := range order {
		out = append(out, *byCat[c])
	}
	return out
}

func TestComputeSchedule_EndToEnd(t *testing.T) {
	tasks := []Task{
		{ID: "t-code", Title: "Build parser", Category: CategoryCoding, TimeHours: 2, Priority: 9},
		{ID: "t-admin", Title: "Expense report", Category: CategoryAdmin, TimeHours: 1, Priority: 3},
		{ID: "t-research", Title: "Read papers", Category: CategoryResearch, TimeHours: 3, Priority: 7},
	}

	result, err := ComputeSchedule(tasks, categoryGroups(tasks), testConfig())
	if err != nil {
		t.Fatalf("ComputeSchedule failed: %v", err)
	}

	blocks := result.Schedule.Blocks
	if len(blocks) != 4 {
		t.Fatalf("expected 4 blocks (2h + 2h + 1h + 1h), got %d", len(blocks))
	}

	// Coding wins the peak window: highest priority, high energy.
	first := blocks[0]
	if first.TaskID != "t-code" {
		t.Errorf("expected coding first, got %s", first.TaskID)
	}
	if first.StartTime.Hour() != 9 || first.EndTime.Hour() != 11 {
		t.Errorf("expected coding at 9:00-11:00, got %s-%s",
			first.StartTime.Format("15:04"), first.EndTime.Format("15:04"))
	}
	if first.SchedulingReason != "peak-hour placement" {
		t.Errorf("expected peak-hour reason, got %q", first.SchedulingReason)
	}

	// Research is chunked: 2h at 11:00, the remainder later the same day.
	second := blocks[1]
	if second.TaskID != "t-research" {
		t.Errorf("expected research second, got %s", second.TaskID)
	}
	if second.StartTime.Hour() != 11 || second.EndTime.Hour() != 13 {
		t.Errorf("expected research at 11:00-13:00, got %s-%s",
			second.StartTime.Format("15:04"), second.EndTime.Format("15:04"))
	}
	third := blocks[2]
	if third.TaskID != "t-research" || !third.StartTime.After(second.EndTime) {
		t.Errorf("expected research continuation after a break, got %s at %s",
			third.TaskID, third.StartTime.Format("15:04"))
	}

	// Admin, lowest priority, lands last.
	last := blocks[3]
	if last.TaskID != "t-admin" {
		t.Errorf("expected admin last, got %s", last.TaskID)
	}

	if len(result.Unschedulable) != 0 {
		t.Errorf("expected everything scheduled, got %v", result.Unschedulable)
	}
}

func TestComputeSchedule_HoursConservation(t *testing.T) {
	tasks := []Task{
		{ID: "a", Title: "A", Category: CategoryCoding, TimeHours: 5.5, Priority: 8},
		{ID: "b", Title: "B", Category: CategoryResearch, TimeHours: 3.25, Priority: 6},
		{ID: "c", Title: "C", Category: CategoryAdmin, TimeHours: 0.5, Priority: 2},
	}

	result, err := ComputeSchedule(tasks, categoryGroups(tasks), testConfig())
	if err != nil {
		t.Fatalf("ComputeSchedule failed: %v", err)
	}

	scheduled := map[string]float64{}
	for _, b := range result.Schedule.Blocks {
		scheduled[b.TaskID] += b.DurationHours
	}
	unsched := map[string]float64{}
	for _, u := range result.Unschedulable {
		unsched[u.TaskID] += u.Hours
	}

	for _, task := range tasks {
		got := scheduled[task.ID] + unsched[task.ID]
		if diff := got - task.TimeHours; diff > 1e-9 || diff < -1e-9 {
			t.Errorf("task %s: scheduled %.2fh + unscheduled %.2fh != requested %.2fh",
				task.ID, scheduled[task.ID], unsched[task.ID], task.TimeHours)
		}
	}
}

func TestComputeSchedule_NoOverlapWithinWindow(t *testing.T) {
	tasks := []Task{
		{ID: "a", Title: "A", Category: CategoryCoding, TimeHours: 6, Priority: 9},
		{ID: "b", Title: "B", Category: CategoryResearch, TimeHours: 7, Priority: 7},
		{ID: "c", Title: "C", Category: CategoryNetworking, TimeHours: 4, Priority: 5},
		{ID: "d", Title: "D", Category: CategoryAdmin, TimeHours: 3, Priority: 4},
	}

	cfg := testConfig()
	result, err := ComputeSchedule(tasks, categoryGroups(tasks), cfg)
	if err != nil {
		t.Fatalf("ComputeSchedule failed: %v", err)
	}

	byDay := map[string][]Block{}
	for _, b := range result.Schedule.Blocks {
		if b.StartTime.Hour() < cfg.DailyStart {
			t.Errorf("block %s starts before daily window: %s", b.TaskID, b.StartTime)
		}
		end := b.EndTime
		dayEnd := time.Date(end.Year(), end.Month(), end.Day(), cfg.DailyEnd, 0, 0, 0, end.Location())
		if b.StartTime.Day() == end.Day() && end.After(dayEnd) {
			t.Errorf("block %s ends past daily window: %s", b.TaskID, end)
		}
		key := b.StartTime.Format("2006-01-02")
		byDay[key] = append(byDay[key], b)
	}

	for day, blocks := range byDay {
		for i := 1; i < len(blocks); i++ {
			if blocks[i].StartTime.Before(blocks[i-1].EndTime) {
				t.Errorf("day %s: block %s overlaps previous block %s",
					day, blocks[i].TaskID, blocks[i-1].TaskID)
			}
		}
	}
}

func TestComputeSchedule_DependencyOrdering(t *testing.T) {
	tasks := []Task{
		{ID: "deploy", Title: "Deploy", Category: CategoryCoding, TimeHours: 1, Priority: 9,
			Dependencies: []string{"build"}},
		{ID: "build", Title: "Build", Category: CategoryCoding, TimeHours: 3, Priority: 5},
	}

	result, err := ComputeSchedule(tasks, categoryGroups(tasks), testConfig())
	if err != nil {
		t.Fatalf("ComputeSchedule failed: %v", err)
	}

	var buildLatestEnd time.Time
	for _, b := range result.Schedule.Blocks {
		if b.TaskID == "build" && b.EndTime.After(buildLatestEnd) {
			buildLatestEnd = b.EndTime
		}
	}
	if buildLatestEnd.IsZero() {
		t.Fatal("build was never scheduled")
	}
	for _, b := range result.Schedule.Blocks {
		if b.TaskID == "deploy" && b.StartTime.Before(buildLatestEnd) {
			t.Errorf("deploy block at %s starts before build finishes at %s",
				b.StartTime, buildLatestEnd)
		}
	}
}

func TestComputeSchedule_CycleRejectedBeforePlacement(t *testing.T) {
	tasks := []Task{
		{ID: "a", Title: "A", Category: CategoryCoding, TimeHours: 1, Priority: 5, Dependencies: []string{"b"}},
		{ID: "b", Title: "B", Category: CategoryCoding, TimeHours: 1, Priority: 5, Dependencies: []string{"a"}},
	}

	result, err := ComputeSchedule(tasks, nil, testConfig())
	if err == nil {
		t.Fatal("expected DependencyCycleError, got nil")
	}
	if result != nil {
		t.Error("expected no result on a cycle")
	}

	var cycleErr *DependencyCycleError
	if !errors.As(err, &cycleErr) {
		t.Fatalf("expected DependencyCycleError, got %T: %v", err, err)
	}
	if len(cycleErr.Cycle) < 3 {
		t.Errorf("cycle should name its members, got %v", cycleErr.Cycle)
	}
}

func TestComputeSchedule_ValidationErrors(t *testing.T) {
	cases := []struct {
		name  string
		tasks []Task
		cfg   Config
	}{
		{
			name:  "non-positive duration",
			tasks: []Task{{ID: "a", Title: "A", Category: CategoryCoding, TimeHours: 0, Priority: 5}},
			cfg:   testConfig(),
		},
		{
			name:  "priority out of range",
			tasks: []Task{{ID: "a", Title: "A", Category: CategoryCoding, TimeHours: 1, Priority: 11}},
			cfg:   testConfig(),
		},
		{
			name:  "unknown category",
			tasks: []Task{{ID: "a", Title: "A", Category: "gardening", TimeHours: 1, Priority: 5}},
			cfg:   testConfig(),
		},
		{
			name:  "unknown dependency",
			tasks: []Task{{ID: "a", Title: "A", Category: CategoryCoding, TimeHours: 1, Priority: 5, Dependencies: []string{"ghost"}}},
			cfg:   testConfig(),
		},
		{
			name:  "inverted daily window",
			tasks: []Task{{ID: "a", Title: "A", Category: CategoryCoding, TimeHours: 1, Priority: 5}},
			cfg: func() Config {
				c := testConfig()
				c.DailyStart, c.DailyEnd = 17, 9
				return c
			}(),
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ComputeSchedule(tc.tasks, nil, tc.cfg)
			if err == nil {
				t.Fatal("expected a hard validation failure, got nil")
			}
			var cycleErr *DependencyCycleError
			if errors.As(err, &cycleErr) {
				t.Fatalf("expected ValidationError, got cycle error: %v", err)
			}
		})
	}
}

func TestComputeSchedule_Idempotent(t *testing.T) {
	tasks := []Task{
		{ID: "a", Title: "A", Category: CategoryCoding, TimeHours: 4, Priority: 8},
		{ID: "b", Title: "B", Category: CategoryResearch, TimeHours: 2.5, Priority: 6, Dependencies: []string{"a"}},
		{ID: "c", Title: "C", Category: CategoryAdmin, TimeHours: 1, Priority: 3},
	}
	groups := categoryGroups(tasks)
	cfg := testConfig()

	first, err := ComputeSchedule(tasks, groups, cfg)
	if err != nil {
		t.Fatalf("first ComputeSchedule failed: %v", err)
	}
	second, err := ComputeSchedule(tasks, groups, cfg)
	if err != nil {
		t.Fatalf("second ComputeSchedule failed: %v", err)
	}

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("ComputeSchedule is not idempotent (-first +second):\n%s", diff)
	}
}

func TestComputeSchedule_CapacityShortfallIsNotAnError(t *testing.T) {
	// 40h window, 50h of work.
	tasks := []Task{
		{ID: "a", Title: "A", Category: CategoryCoding, TimeHours: 25, Priority: 9},
		{ID: "b", Title: "B", Category: CategoryResearch, TimeHours: 25, Priority: 5},
	}

	result, err := ComputeSchedule(tasks, categoryGroups(tasks), testConfig())
	if err != nil {
		t.Fatalf("capacity shortfall must not be a hard failure: %v", err)
	}
	if len(result.Unschedulable) == 0 {
		t.Fatal("expected an unschedulable report")
	}
	total := 0.0
	for _, u := range result.Unschedulable {
		total += u.Hours
	}
	if total < 10-1e-9 {
		t.Errorf("expected at least 10 unscheduled hours, got %.2f", total)
	}
}

func TestComputeSchedule_BreakBetweenChunks(t *testing.T) {
	tasks := []Task{
		{ID: "a", Title: "A", Category: CategoryCoding, TimeHours: 4, Priority: 9},
	}
	cfg := testConfig()
	cfg.BreakMinutes = 30

	result, err := ComputeSchedule(tasks, nil, cfg)
	if err != nil {
		t.Fatalf("ComputeSchedule failed: %v", err)
	}
	blocks := result.Schedule.Blocks
	if len(blocks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(blocks))
	}
	gap := blocks[1].StartTime.Sub(blocks[0].EndTime)
	if gap < 30*time.Minute {
		t.Errorf("expected at least a 30m break between chunks, got %s", gap)
	}
}

func TestComputeSchedule_DependentOfUnscheduledTask(t *testing.T) {
	tasks := []Task{
		{ID: "big", Title: "Big", Category: CategoryCoding, TimeHours: 45, Priority: 9},
		{ID: "after", Title: "After", Category: CategoryCoding, TimeHours: 1, Priority: 8,
			Dependencies: []string{"big"}},
	}

	result, err := ComputeSchedule(tasks, nil, testConfig())
	if err != nil {
		t.Fatalf("ComputeSchedule failed: %v", err)
	}

	found := false
	for _, u := range result.Unschedulable {
		if u.TaskID == "after" {
			found = true
		}
	}
	if !found {
		t.Error("dependent of an incomplete task should be reported unschedulable")
	}
	for _, b := range result.Schedule.Blocks {
		if b.TaskID == "after" {
			t.Error("dependent of an incomplete task must not be placed")
		}
	}
}

func TestOrderForPlacement(t *testing.T) {
	tasks := []Task{
		{ID: "z", Title: "Z", Category: CategoryAdmin, TimeHours: 1, Priority: 3},
		{ID: "a", Title: "A", Category: CategoryCoding, TimeHours: 2, Priority: 9},
		{ID: "m", Title: "M", Category: CategoryCoding, TimeHours: 1, Priority: 9},
		{ID: "b", Title: "B", Category: CategoryResearch, TimeHours: 3, Priority: 7},
	}
	groups := categoryGroups(tasks)

	ordered := OrderForPlacement(tasks, groups)
	got := make([]string, len(ordered))
	for i, task := range ordered {
		got[i] = task.ID
	}

	// coding group (max priority 9) first, within it priority then
	// duration then id; research (7) next; admin (3) last.
	want := []string{"a", "m", "b", "z"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("unexpected placement order (-want +got):\n%s", diff)
	}
}

func TestOrderForPlacement_UngroupedLast(t *testing.T) {
	tasks := []Task{
		{ID: "loose", Title: "Loose", Category: CategoryCoding, TimeHours: 1, Priority: 10},
		{ID: "grouped", Title: "Grouped", Category: CategoryAdmin, TimeHours: 1, Priority: 2},
	}
	groups := []TaskGroup{{Name: "Admin work", TaskIDs: []string{"grouped"}}}

	ordered := OrderForPlacement(tasks, groups)
	if ordered[0].ID != "grouped" || ordered[1].ID != "loose" {
		t.Errorf("ungrouped tasks should sort after all groups, got %s then %s",
			ordered[0].ID, ordered[1].ID)
	}
}

func TestTaskEnergyInference(t *testing.T) {
	if got := (Task{Priority: 9}).Energy(); got != EnergyHigh {
		t.Errorf("priority 9 should infer high energy, got %s", got)
	}
	if got := (Task{Priority: 5}).Energy(); got != EnergyMedium {
		t.Errorf("priority 5 should infer medium energy, got %s", got)
	}
	if got := (Task{Priority: 2}).Energy(); got != EnergyLow {
		t.Errorf("priority 2 should infer low energy, got %s", got)
	}
	if got := (Task{Priority: 2, EnergyLevel: EnergyHigh}).Energy(); got != EnergyHigh {
		t.Errorf("explicit energy level must win, got %s", got)
	}
}
