// Package grouping partitions a task set into named groups of related
// work. The model-assisted path clusters by content; the fallback
// groups strictly by category. Either way every task lands in exactly
// one group.
package grouping

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Gandasoft/polylearner/internal/llm"
	"github.com/Gandasoft/polylearner/internal/logging"
	"github.com/Gandasoft/polylearner/internal/planner"
)

// UngroupedName absorbs tasks the model response left out.
const UngroupedName = "Ungrouped"

const systemPrompt = "You are a task organization expert. Always return valid JSON."

// Grouper clusters tasks.
type Grouper struct {
	client llm.Client // nil means fallback-only
}

// New creates a Grouper. A nil client skips the model path entirely.
func New(client llm.Client) *Grouper {
	return &Grouper{client: client}
}

// GroupTasks partitions tasks into named groups. A model failure is
// logged and downgraded to category grouping, never surfaced.
func (g *Grouper) GroupTasks(ctx context.Context, tasks []planner.Task) []planner.TaskGroup {
	if len(tasks) == 0 {
		return nil
	}
	if g.client == nil {
		return GroupByCategory(tasks)
	}

	groups, err := g.groupWithModel(ctx, tasks)
	if err != nil {
		logging.GroupingWarn("Model grouping unavailable, falling back to categories: %v", err)
		return GroupByCategory(tasks)
	}
	return groups
}

type groupingResponse struct {
	Groups []struct {
		Name        string   `json:"name"`
		Description string   `json:"description"`
		TaskIDs     []string `json:"task_ids"`
	} `json:"groups"`
}

func (g *Grouper) groupWithModel(ctx context.Context, tasks []planner.Task) ([]planner.TaskGroup, error) {
	taskData, err := json.MarshalIndent(tasks, "", "  ")
	if err != nil {
		return nil, err
	}

	prompt := fmt.Sprintf(`You are an expert task organizer. Analyze these tasks and group them by similarity based on their content, purpose, and context.

Tasks:
%s

Group these tasks into logical clusters. Consider:
- Similar subject matter or domain
- Related skills or tools needed
- Sequential or dependent work
- Complementary activities that benefit from being done together

Return ONLY a valid JSON object in this exact format:
{
  "groups": [
    {
      "name": "Group Name",
      "description": "Why these tasks belong together",
      "task_ids": ["id-1", "id-2"]
    }
  ]
}

Rules:
- Each task must appear in exactly one group
- Aim for 2-5 meaningful groups
- Group names should be clear and descriptive
- Every task id in the input must appear in the output`, taskData)

	content, err := g.client.CompleteWithSystem(ctx, systemPrompt, prompt)
	if err != nil {
		return nil, err
	}

	var parsed groupingResponse
	if err := json.Unmarshal([]byte(llm.ExtractJSON(content)), &parsed); err != nil {
		return nil, fmt.Errorf("unparseable grouping response: %w", err)
	}
	if len(parsed.Groups) == 0 {
		return nil, fmt.Errorf("grouping response named no groups")
	}

	byID := make(map[string]planner.Task, len(tasks))
	for _, t := range tasks {
		byID[t.ID] = t
	}

	assigned := make(map[string]bool, len(tasks))
	out := make([]planner.TaskGroup, 0, len(parsed.Groups)+1)
	for _, raw := range parsed.Groups {
		group := planner.TaskGroup{Name: strings.TrimSpace(raw.Name)}
		if group.Name == "" {
			continue
		}
		for _, id := range raw.TaskIDs {
			t, known := byID[id]
			if !known || assigned[id] {
				// Unknown ids are model noise; a task stays in its
				// first group only.
				continue
			}
			assigned[id] = true
			group.TaskIDs = append(group.TaskIDs, id)
			group.TotalHours += t.TimeHours
		}
		if len(group.TaskIDs) > 0 {
			logging.Grouping("Created group %q with %d tasks", group.Name, len(group.TaskIDs))
			out = append(out, group)
		}
	}

	// Absorb anything the response left out.
	ungrouped := planner.TaskGroup{Name: UngroupedName}
	for _, t := range tasks {
		if !assigned[t.ID] {
			ungrouped.TaskIDs = append(ungrouped.TaskIDs, t.ID)
			ungrouped.TotalHours += t.TimeHours
		}
	}
	if len(ungrouped.TaskIDs) > 0 {
		logging.GroupingWarn("%d tasks missing from grouping response, added to %q", len(ungrouped.TaskIDs), UngroupedName)
		out = append(out, ungrouped)
	}

	return out, nil
}

// GroupByCategory is the deterministic fallback: one group per category
// present in the input, in canonical category order. Tasks with an
// empty or unknown category land in the Ungrouped group, so the result
// is always a partition of the input.
func GroupByCategory(tasks []planner.Task) []planner.TaskGroup {
	byCat := make(map[planner.Category]*planner.TaskGroup)
	ungrouped := planner.TaskGroup{Name: UngroupedName}
	for _, t := range tasks {
		if !planner.IsValidCategory(t.Category) {
			ungrouped.TaskIDs = append(ungrouped.TaskIDs, t.ID)
			ungrouped.TotalHours += t.TimeHours
			continue
		}
		g, ok := byCat[t.Category]
		if !ok {
			name := strings.ToUpper(string(t.Category[:1])) + string(t.Category[1:])
			g = &planner.TaskGroup{Name: name}
			byCat[t.Category] = g
		}
		g.TaskIDs = append(g.TaskIDs, t.ID)
		g.TotalHours += t.TimeHours
	}

	out := make([]planner.TaskGroup, 0, len(byCat)+1)
	for _, c := range planner.Categories {
		if g, ok := byCat[c]; ok {
			out = append(out, *g)
		}
	}
	if len(ungrouped.TaskIDs) > 0 {
		out = append(out, ungrouped)
	}
	return out
}
