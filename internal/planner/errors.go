package planner

import (
	"fmt"
	"strings"
)

// ValidationError rejects malformed input before any placement attempt.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation failed: %s", e.Message)
	}
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Message)
}

// DependencyCycleError names a cycle found in the task dependency graph.
type DependencyCycleError struct {
	Cycle []string // task ids in order, first repeated at the end
}

func (e *DependencyCycleError) Error() string {
	return fmt.Sprintf("dependency cycle detected: %s", strings.Join(e.Cycle, " -> "))
}
