package planner

import "sort"

// OrderForPlacement returns tasks in placement order. The comparator is
// stable and fully deterministic:
//
//	1. group membership, so same-group tasks stay adjacent; groups are
//	   ranked by their highest task priority, then name
//	2. priority, descending
//	3. duration, descending
//	4. task id, ascending
func OrderForPlacement(tasks []Task, groups []TaskGroup) []Task {
	byID := make(map[string]Task, len(tasks))
	for _, t := range tasks {
		byID[t.ID] = t
	}

	groupOf := make(map[string]string, len(tasks))
	maxPriority := make(map[string]int, len(groups))
	names := make([]string, 0, len(groups))
	for _, g := range groups {
		names = append(names, g.Name)
		for _, id := range g.TaskIDs {
			groupOf[id] = g.Name
			if t, ok := byID[id]; ok && t.Priority > maxPriority[g.Name] {
				maxPriority[g.Name] = t.Priority
			}
		}
	}

	sort.SliceStable(names, func(i, j int) bool {
		if maxPriority[names[i]] != maxPriority[names[j]] {
			return maxPriority[names[i]] > maxPriority[names[j]]
		}
		return names[i] < names[j]
	})
	rank := make(map[string]int, len(names))
	for i, name := range names {
		rank[name] = i
	}

	rankOf := func(t Task) int {
		if name, ok := groupOf[t.ID]; ok {
			return rank[name]
		}
		return len(names) // ungrouped tasks after every group
	}

	out := make([]Task, len(tasks))
	copy(out, tasks)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if ra, rb := rankOf(a), rankOf(b); ra != rb {
			return ra < rb
		}
		if a.Priority != b.Priority {
			return a.Priority > b.Priority
		}
		if a.TimeHours != b.TimeHours {
			return a.TimeHours > b.TimeHours
		}
		return a.ID < b.ID
	})
	return out
}
