package planner

import (
	"fmt"
	"sort"
)

// ValidateTasks rejects malformed tasks and cyclic dependency graphs
// before any placement attempt.
func ValidateTasks(tasks []Task) error {
	seen := make(map[string]bool, len(tasks))
	for _, t := range tasks {
		if t.ID == "" {
			return &ValidationError{Field: "id", Message: "task id must not be empty"}
		}
		if seen[t.ID] {
			return &ValidationError{Field: "id", Message: fmt.Sprintf("duplicate task id %q", t.ID)}
		}
		seen[t.ID] = true
		if t.Title == "" {
			return &ValidationError{Field: "title", Message: fmt.Sprintf("task %q has no title", t.ID)}
		}
		if !IsValidCategory(t.Category) {
			return &ValidationError{Field: "category", Message: fmt.Sprintf("task %q has unknown category %q", t.ID, t.Category)}
		}
		if t.TimeHours <= 0 {
			return &ValidationError{Field: "time_hours", Message: fmt.Sprintf("task %q duration must be positive, got %v", t.ID, t.TimeHours)}
		}
		if t.Priority < 1 || t.Priority > 10 {
			return &ValidationError{Field: "priority", Message: fmt.Sprintf("task %q priority must be in 1-10, got %d", t.ID, t.Priority)}
		}
	}

	for _, t := range tasks {
		for _, dep := range t.Dependencies {
			if dep == t.ID {
				return &DependencyCycleError{Cycle: []string{t.ID, t.ID}}
			}
			if !seen[dep] {
				return &ValidationError{Field: "dependencies", Message: fmt.Sprintf("task %q depends on unknown task %q", t.ID, dep)}
			}
		}
	}

	return validateAcyclic(tasks)
}

// validateAcyclic proves the dependency graph has no cycles using Kahn's
// algorithm. If a cycle exists, a deterministic DFS extracts one cycle
// path for the error.
func validateAcyclic(tasks []Task) error {
	ids := make([]string, 0, len(tasks))
	for _, t := range tasks {
		ids = append(ids, t.ID)
	}
	sort.Strings(ids)

	index := make(map[string]int, len(ids))
	for i, id := range ids {
		index[id] = i
	}

	// Edge dep -> dependent: a task comes after everything it depends on.
	outgoing := make([][]int, len(ids))
	indeg := make([]int, len(ids))
	for _, t := range tasks {
		for _, dep := range t.Dependencies {
			outgoing[index[dep]] = append(outgoing[index[dep]], index[t.ID])
			indeg[index[t.ID]]++
		}
	}
	for i := range outgoing {
		sort.Ints(outgoing[i])
	}

	ready := make([]int, 0, len(ids))
	for i, d := range indeg {
		if d == 0 {
			ready = append(ready, i)
		}
	}
	visited := 0
	for len(ready) > 0 {
		n := ready[0]
		ready = ready[1:]
		visited++
		for _, m := range outgoing[n] {
			indeg[m]--
			if indeg[m] == 0 {
				ready = append(ready, m)
			}
		}
	}
	if visited == len(ids) {
		return nil
	}

	return &DependencyCycleError{Cycle: findCycleDeterministic(ids, outgoing)}
}

// findCycleDeterministic performs a DFS over canonical indices to extract
// one stable cycle witness, first node repeated at the end.
func findCycleDeterministic(ids []string, outgoing [][]int) []string {
	const (
		white = 0
		gray  = 1
		black = 2
	)

	color := make([]int, len(ids))
	parent := make([]int, len(ids))
	for i := range parent {
		parent[i] = -1
	}

	var cycle []int

	var dfs func(u int) bool
	dfs = func(u int) bool {
		color[u] = gray
		for _, v := range outgoing[u] { // already sorted
			if color[v] == white {
				parent[v] = u
				if dfs(v) {
					return true
				}
				continue
			}
			if color[v] == gray {
				// Back-edge u -> v. Reconstruct cycle v ... u -> v.
				cycle = append(cycle, v)
				cur := u
				for cur != -1 && cur != v {
					cycle = append(cycle, cur)
					cur = parent[cur]
				}
				cycle = append(cycle, v)
				return true
			}
		}
		color[u] = black
		return false
	}

	for i := 0; i < len(ids); i++ {
		if color[i] != white {
			continue
		}
		if dfs(i) {
			break
		}
	}

	if len(cycle) == 0 {
		return nil
	}

	// The parent walk produced the cycle in reverse. Normalize to ids in
	// forward order, keeping the closing repetition.
	out := make([]string, 0, len(cycle))
	for i := len(cycle) - 1; i >= 0; i-- {
		out = append(out, ids[cycle[i]])
	}
	return out
}
