// Package recommend derives advisory suggestions from a schedule and
// its cognitive metrics. The model path phrases suggestions; the
// fallback keys fixed templates off metric thresholds.
package recommend

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Gandasoft/polylearner/internal/llm"
	"github.com/Gandasoft/polylearner/internal/logging"
	"github.com/Gandasoft/polylearner/internal/planner"
)

// Recommendation is one advisory suggestion.
type Recommendation struct {
	Suggestion string `json:"suggestion"`
	Reason     string `json:"reason"`
	Priority   int    `json:"priority"` // 1-10
}

// maxModelRecommendations caps how many model suggestions are kept.
const maxModelRecommendations = 3

// Engine produces recommendations.
type Engine struct {
	client llm.Client // nil means template-only
}

// New creates an Engine. A nil client skips the model path.
func New(client llm.Client) *Engine {
	return &Engine{client: client}
}

// Recommend returns an ordered list of suggestions for the given
// schedule. Model failures downgrade to templates, never to an error.
func (e *Engine) Recommend(ctx context.Context, result *planner.Result, tasks []planner.Task) []Recommendation {
	if e.client != nil && len(tasks) > 0 {
		recs, err := e.recommendWithModel(ctx, result, tasks)
		if err == nil {
			return recs
		}
		logging.RecommendDebug("Model recommendations unavailable, using templates: %v", err)
	}
	return Templates(result, tasks)
}

func (e *Engine) recommendWithModel(ctx context.Context, result *planner.Result, tasks []planner.Task) ([]Recommendation, error) {
	var summary strings.Builder
	for _, t := range tasks {
		fmt.Fprintf(&summary, "- %s (%s, %gh, priority: %d)\n", t.Title, t.Category, t.TimeHours, t.Priority)
	}

	prompt := fmt.Sprintf(`You are an AI productivity assistant. Analyze these tasks and provide 3 specific, actionable recommendations to optimize the weekly schedule and reduce cognitive tax:

Tasks:
%s
Schedule metrics: cognitive tax %.3f, %d context switches, fragmentation %.3f, average block %.2fh.

You MUST respond with ONLY a valid JSON array, nothing else. No explanation, no markdown, just the JSON array.

Format:
[
  {"suggestion": "specific actionable recommendation", "reason": "why this helps", "priority": 8},
  {"suggestion": "another recommendation", "reason": "explanation", "priority": 9},
  {"suggestion": "third recommendation", "reason": "benefit", "priority": 7}
]

Focus on:
1. Minimizing context switching between different task types
2. Optimal time blocks for deep work
3. Energy management throughout the week

Remember: Output ONLY the JSON array, nothing else.`,
		summary.String(),
		result.Metrics.CognitiveTaxScore,
		result.Metrics.ContextSwitches,
		result.Metrics.FragmentationScore,
		result.Metrics.AverageBlockDuration)

	content, err := e.client.Complete(ctx, prompt)
	if err != nil {
		return nil, err
	}

	var recs []Recommendation
	if err := json.Unmarshal([]byte(llm.ExtractJSON(content)), &recs); err != nil {
		return nil, fmt.Errorf("unparseable recommendations: %w", err)
	}

	out := recs[:0]
	for _, r := range recs {
		if strings.TrimSpace(r.Suggestion) == "" {
			continue
		}
		if r.Priority < 1 || r.Priority > 10 {
			r.Priority = 5
		}
		out = append(out, r)
		if len(out) == maxModelRecommendations {
			break
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("model returned no usable recommendations")
	}
	return out, nil
}

// Templates is the deterministic fallback: threshold-keyed suggestions
// derived from the metrics, topped up with general guidance.
func Templates(result *planner.Result, tasks []planner.Task) []Recommendation {
	var recs []Recommendation

	if result != nil {
		m := result.Metrics
		if m.CognitiveTaxScore >= 0.5 {
			priority := 8
			if m.CognitiveTaxScore >= 0.7 {
				priority = 9
			}
			recs = append(recs, Recommendation{
				Suggestion: "Regroup similar tasks into contiguous blocks",
				Reason:     fmt.Sprintf("Cognitive tax is %.2f; fewer category switches would lower it", m.CognitiveTaxScore),
				Priority:   priority,
			})
		}
		if m.FragmentationScore >= 0.5 {
			recs = append(recs, Recommendation{
				Suggestion: "Consolidate short blocks into longer focus sessions",
				Reason:     fmt.Sprintf("%.0f%% of blocks are below the focus threshold", m.FragmentationScore*100),
				Priority:   8,
			})
		}

		byID := make(map[string]planner.Task, len(tasks))
		for _, t := range tasks {
			byID[t.ID] = t
		}
		horizon := result.Schedule.WeekStart.AddDate(0, 0, 7)
		for _, u := range result.Unschedulable {
			t, ok := byID[u.TaskID]
			if !ok {
				continue
			}
			if t.DueDate != nil && t.DueDate.Before(horizon) {
				recs = append(recs, Recommendation{
					Suggestion: fmt.Sprintf("Schedule %q soon", t.Title),
					Reason:     fmt.Sprintf("%.1fh could not be placed and it is due %s", u.Hours, t.DueDate.Format("Jan 2")),
					Priority:   9,
				})
			}
		}
	}

	for _, d := range defaultRecommendations {
		if len(recs) >= maxModelRecommendations {
			break
		}
		recs = append(recs, d)
	}
	return recs
}

var defaultRecommendations = []Recommendation{
	{
		Suggestion: "Group similar tasks together",
		Reason:     "Minimize context switching to reduce cognitive load",
		Priority:   8,
	},
	{
		Suggestion: "Schedule deep work in your peak hours",
		Reason:     "High-priority coding and research tasks need focused attention",
		Priority:   9,
	},
	{
		Suggestion: "Leave buffer time between task blocks",
		Reason:     "Allow for breaks and unexpected delays",
		Priority:   7,
	},
}
