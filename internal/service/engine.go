// Package service wires the scheduling engine together: embedding,
// grouping, placement, evaluation and recommendations behind one
// facade. Each request is a stateless computation over a task snapshot.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Gandasoft/polylearner/internal/calendar"
	"github.com/Gandasoft/polylearner/internal/config"
	"github.com/Gandasoft/polylearner/internal/embedding"
	"github.com/Gandasoft/polylearner/internal/grouping"
	"github.com/Gandasoft/polylearner/internal/llm"
	"github.com/Gandasoft/polylearner/internal/logging"
	"github.com/Gandasoft/polylearner/internal/planner"
	"github.com/Gandasoft/polylearner/internal/recommend"
	"github.com/Gandasoft/polylearner/internal/store"
)

// Engine carries its collaborators explicitly; nothing here is a
// hidden global.
type Engine struct {
	cfg         *config.Config
	tasks       *store.TaskStore
	llm         llm.Client
	embedder    embedding.Engine
	fallback    *embedding.DeterministicEngine
	grouper     *grouping.Grouper
	recommender *recommend.Engine
	cal         calendar.Calendar
}

// Collaborators are the injectable pieces of an Engine. Nil fields get
// safe defaults: no store, deterministic embeddings, fallback-only
// grouping and recommendations, no calendar.
type Collaborators struct {
	Store    *store.TaskStore
	LLM      llm.Client
	Embedder embedding.Engine
	Calendar calendar.Calendar
}

// New assembles an Engine.
func New(cfg *config.Config, c Collaborators) *Engine {
	embedder := c.Embedder
	fallback := embedding.NewDeterministicEngine()
	if embedder == nil {
		embedder = fallback
	}
	return &Engine{
		cfg:         cfg,
		tasks:       c.Store,
		llm:         c.LLM,
		embedder:    embedder,
		fallback:    fallback,
		grouper:     grouping.New(c.LLM),
		recommender: recommend.New(c.LLM),
		cal:         c.Calendar,
	}
}

// WeekPlan is the full response envelope for one scheduling request.
type WeekPlan struct {
	Schedule        planner.WeekSchedule       `json:"schedule"`
	Metrics         planner.CognitiveMetrics   `json:"metrics"`
	Groups          []planner.TaskGroup        `json:"groups"`
	Recommendations []recommend.Recommendation `json:"recommendations"`
	Unschedulable   []planner.Unscheduled      `json:"unschedulable,omitempty"`
}

// PlanWeek runs the whole pipeline: embeddings and grouping run
// concurrently, placement waits for grouping, then evaluation and
// recommendations. Validation failures and dependency cycles are the
// only hard errors. A non-nil scheduling override replaces the engine's
// configured window for this request only.
func (e *Engine) PlanWeek(ctx context.Context, tasks []planner.Task, scheduling *config.SchedulingConfig) (*WeekPlan, error) {
	timer := logging.StartTimer(logging.CategoryAPI, "PlanWeek")
	defer timer.Stop()

	if err := planner.ValidateTasks(tasks); err != nil {
		return nil, err
	}
	schedCfg, err := e.resolveScheduling(scheduling)
	if err != nil {
		return nil, err
	}

	// Embedding and grouping are independent; issue both at once.
	var groups []planner.TaskGroup
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		e.Embed(gctx, tasks)
		return nil
	})
	g.Go(func() error {
		groups = e.GroupTasks(gctx, tasks)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result, err := planner.ComputeSchedule(tasks, groups, schedCfg)
	if err != nil {
		return nil, err
	}

	recs := e.Recommend(ctx, result, tasks)

	return &WeekPlan{
		Schedule:        result.Schedule,
		Metrics:         result.Metrics,
		Groups:          groups,
		Recommendations: recs,
		Unschedulable:   result.Unschedulable,
	}, nil
}

// Embed returns one vector per task. The model engine runs under a
// bounded timeout; on failure the whole batch downgrades to the
// deterministic fallback. Cached vectors are reused when the store is
// present and the task content is unchanged.
func (e *Engine) Embed(ctx context.Context, tasks []planner.Task) []embedding.Vector {
	if len(tasks) == 0 {
		return nil
	}

	out := make([]embedding.Vector, len(tasks))
	var missing []planner.Task
	var missingIdx []int
	for i, t := range tasks {
		if e.tasks != nil {
			if v, ok := e.tasks.CachedEmbedding(t); ok {
				out[i] = v
				continue
			}
		}
		missing = append(missing, t)
		missingIdx = append(missingIdx, i)
	}
	if len(missing) == 0 {
		return out
	}

	embedCtx, cancel := context.WithTimeout(ctx, e.cfg.GetEmbeddingTimeout())
	defer cancel()

	vectors, err := e.embedder.EmbedTasks(embedCtx, missing)
	if err != nil {
		logging.EmbeddingWarn("Engine %s unavailable, using deterministic fallback: %v", e.embedder.Name(), err)
		vectors, _ = e.fallback.EmbedTasks(ctx, missing)
	}

	for i, v := range vectors {
		out[missingIdx[i]] = v
		if e.tasks != nil {
			if err := e.tasks.PutEmbedding(missing[i], v); err != nil {
				logging.StoreDebug("Failed to cache embedding for %s: %v", missing[i].ID, err)
			}
		}
	}
	return out
}

// GroupTasks partitions tasks into groups under a bounded timeout.
func (e *Engine) GroupTasks(ctx context.Context, tasks []planner.Task) []planner.TaskGroup {
	groupCtx, cancel := context.WithTimeout(ctx, e.cfg.GetLLMTimeout())
	defer cancel()
	return e.grouper.GroupTasks(groupCtx, tasks)
}

// ComputeSchedule validates, groups and places tasks without the
// embedding step.
func (e *Engine) ComputeSchedule(ctx context.Context, tasks []planner.Task, scheduling *config.SchedulingConfig) (*planner.Result, error) {
	if err := planner.ValidateTasks(tasks); err != nil {
		return nil, err
	}
	schedCfg, err := e.resolveScheduling(scheduling)
	if err != nil {
		return nil, err
	}
	groups := e.GroupTasks(ctx, tasks)
	return planner.ComputeSchedule(tasks, groups, schedCfg)
}

func (e *Engine) resolveScheduling(override *config.SchedulingConfig) (planner.Config, error) {
	s := e.cfg.Scheduling
	if override != nil {
		s = *override
	}
	return planner.ResolveConfig(s, time.Now())
}

// Evaluate scores an existing block sequence.
func (e *Engine) Evaluate(blocks []planner.Block) planner.CognitiveMetrics {
	return planner.Evaluate(blocks, e.cfg.Scheduling.FocusThresholdHours)
}

// Recommend derives suggestions under a bounded timeout.
func (e *Engine) Recommend(ctx context.Context, result *planner.Result, tasks []planner.Task) []recommend.Recommendation {
	recCtx, cancel := context.WithTimeout(ctx, e.cfg.GetLLMTimeout())
	defer cancel()
	return e.recommender.Recommend(recCtx, result, tasks)
}

// CategoryStats summarizes one category's share of the workload.
type CategoryStats struct {
	Count      int     `json:"count"`
	TotalHours float64 `json:"total_hours"`
}

// TaskAnalysis is an aggregate view of a task set.
type TaskAnalysis struct {
	TotalTasks          int                      `json:"total_tasks"`
	TotalHours          float64                  `json:"total_hours"`
	AverageTaskDuration float64                  `json:"average_task_duration"`
	AveragePriority     float64                  `json:"average_priority"`
	Categories          map[string]CategoryStats `json:"category_distribution"`
	MostCommonCategory  string                   `json:"most_common_category"`
	Workload            string                   `json:"workload"`
	Insights            string                   `json:"ai_insights,omitempty"`
}

// AnalyzeTasks computes workload statistics over a task set. When an
// LLM client is configured it appends free-text insights; an insight
// failure leaves the statistics intact.
func (e *Engine) AnalyzeTasks(ctx context.Context, tasks []planner.Task) TaskAnalysis {
	analysis := TaskAnalysis{Categories: map[string]CategoryStats{}, Workload: "light"}
	if len(tasks) == 0 {
		return analysis
	}
	var prioritySum int
	for _, t := range tasks {
		analysis.TotalHours += t.TimeHours
		prioritySum += t.Priority
		stats := analysis.Categories[string(t.Category)]
		stats.Count++
		stats.TotalHours += t.TimeHours
		analysis.Categories[string(t.Category)] = stats
	}
	analysis.TotalTasks = len(tasks)
	analysis.AverageTaskDuration = analysis.TotalHours / float64(len(tasks))
	analysis.AveragePriority = float64(prioritySum) / float64(len(tasks))

	best := ""
	for _, c := range planner.Categories {
		stats, ok := analysis.Categories[string(c)]
		if !ok {
			continue
		}
		if best == "" || stats.Count > analysis.Categories[best].Count {
			best = string(c)
		}
	}
	analysis.MostCommonCategory = best

	switch {
	case analysis.TotalHours > 40:
		analysis.Workload = "heavy"
	case analysis.TotalHours > 20:
		analysis.Workload = "moderate"
	}

	if e.llm != nil {
		insights, err := e.generateInsights(ctx, tasks, analysis)
		if err != nil {
			logging.APIDebug("Insight generation unavailable: %v", err)
		} else {
			analysis.Insights = insights
		}
	}
	return analysis
}

// generateInsights asks the model for a free-text read of the workload.
func (e *Engine) generateInsights(ctx context.Context, tasks []planner.Task, analysis TaskAnalysis) (string, error) {
	stats, err := json.MarshalIndent(analysis, "", "  ")
	if err != nil {
		return "", err
	}

	sample := tasks
	if len(sample) > 20 {
		sample = sample[:20]
	}
	lines := make([]string, 0, len(sample))
	for _, t := range sample {
		lines = append(lines, fmt.Sprintf("%s (%s, %gh, priority %d)", t.Title, t.Category, t.TimeHours, t.Priority))
	}

	prompt := fmt.Sprintf(`Analyze these productivity patterns and provide 3-5 key insights and recommendations:

STATISTICS:
%s

SAMPLE TASKS:
%s

Provide insights about:
- Workload balance and distribution
- Potential scheduling optimizations
- Risk areas (overcommitment, context switching, etc.)
- Productivity patterns
- Actionable recommendations

Keep insights concise and actionable (2-3 sentences each).`, stats, strings.Join(lines, "\n"))

	insightCtx, cancel := context.WithTimeout(ctx, e.cfg.GetLLMTimeout())
	defer cancel()
	return e.llm.Complete(insightCtx, prompt)
}

// SyncCalendar pushes a schedule's blocks to the calendar collaborator.
func (e *Engine) SyncCalendar(ctx context.Context, schedule planner.WeekSchedule) ([]calendar.BlockResult, error) {
	if e.cal == nil {
		return nil, fmt.Errorf("calendar integration is not configured")
	}
	syncCtx, cancel := context.WithTimeout(ctx, e.cfg.GetCalendarTimeout()*time.Duration(max(1, len(schedule.Blocks))))
	defer cancel()
	return calendar.SyncSchedule(syncCtx, e.cal, schedule), nil
}
