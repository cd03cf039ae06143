package planner

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestValidateTasks_SelfDependency(t *testing.T) {
	tasks := []Task{
		{ID: "a", Title: "A", Category: CategoryCoding, TimeHours: 1, Priority: 5, Dependencies: []string{"a"}},
	}
	err := ValidateTasks(tasks)
	var cycleErr *DependencyCycleError
	if !errors.As(err, &cycleErr) {
		t.Fatalf("expected DependencyCycleError for self-dependency, got %v", err)
	}
}

func TestValidateTasks_CycleWitnessIsStable(t *testing.T) {
	mk := func() []Task {
		return []Task{
			{ID: "a", Title: "A", Category: CategoryCoding, TimeHours: 1, Priority: 5, Dependencies: []string{"c"}},
			{ID: "b", Title: "B", Category: CategoryCoding, TimeHours: 1, Priority: 5, Dependencies: []string{"a"}},
			{ID: "c", Title: "C", Category: CategoryCoding, TimeHours: 1, Priority: 5, Dependencies: []string{"b"}},
		}
	}

	var first []string
	for i := 0; i < 5; i++ {
		err := ValidateTasks(mk())
		var cycleErr *DependencyCycleError
		if !errors.As(err, &cycleErr) {
			t.Fatalf("expected DependencyCycleError, got %v", err)
		}
		if cycleErr.Cycle[0] != cycleErr.Cycle[len(cycleErr.Cycle)-1] {
			t.Errorf("cycle witness should close on itself, got %v", cycleErr.Cycle)
		}
		if first == nil {
			first = cycleErr.Cycle
			continue
		}
		if diff := cmp.Diff(first, cycleErr.Cycle); diff != "" {
			t.Fatalf("cycle witness not deterministic (-first +now):\n%s", diff)
		}
	}
}

func TestValidateTasks_AcyclicGraphPasses(t *testing.T) {
	tasks := []Task{
		{ID: "a", Title: "A", Category: CategoryCoding, TimeHours: 1, Priority: 5},
		{ID: "b", Title: "B", Category: CategoryCoding, TimeHours: 1, Priority: 5, Dependencies: []string{"a"}},
		{ID: "c", Title: "C", Category: CategoryCoding, TimeHours: 1, Priority: 5, Dependencies: []string{"a", "b"}},
	}
	if err := ValidateTasks(tasks); err != nil {
		t.Fatalf("acyclic graph should validate, got %v", err)
	}
}
