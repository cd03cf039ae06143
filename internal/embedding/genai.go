package embedding

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/Gandasoft/polylearner/internal/logging"
	"github.com/Gandasoft/polylearner/internal/planner"
)

// =============================================================================
// GOOGLE GENAI EMBEDDING ENGINE
// =============================================================================

// GenAIEngine generates embeddings using Google's Gemini API. Raw model
// vectors are resized to the fixed engine width.
type GenAIEngine struct {
	client *genai.Client
	model  string
}

// NewGenAIEngine creates a new GenAI embedding engine.
func NewGenAIEngine(apiKey, model string) (*GenAIEngine, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GenAI API key is required")
	}
	if model == "" {
		model = "gemini-embedding-001"
	}

	ctx := context.Background()
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &GenAIEngine{
		client: client,
		model:  model,
	}, nil
}

// EmbedTask generates an embedding for a single task.
func (e *GenAIEngine) EmbedTask(ctx context.Context, task planner.Task) (Vector, error) {
	vectors, err := e.EmbedTasks(ctx, []planner.Task{task})
	if err != nil {
		return Vector{}, err
	}
	return vectors[0], nil
}

// EmbedTasks generates embeddings for a batch of tasks.
// GenAI has native batch support.
func (e *GenAIEngine) EmbedTasks(ctx context.Context, tasks []planner.Task) ([]Vector, error) {
	if len(tasks) == 0 {
		return nil, nil
	}

	contents := make([]*genai.Content, len(tasks))
	for i, t := range tasks {
		contents[i] = genai.NewContentFromText(TaskText(t), genai.RoleUser)
	}

	result, err := e.client.Models.EmbedContent(ctx,
		e.model,
		contents,
		&genai.EmbedContentConfig{
			TaskType: "CLUSTERING",
		},
	)
	if err != nil {
		return nil, fmt.Errorf("GenAI embed failed: %w", err)
	}
	if len(result.Embeddings) != len(tasks) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(tasks), len(result.Embeddings))
	}

	logging.EmbeddingDebug("GenAI embedded %d tasks with %s", len(tasks), e.model)

	out := make([]Vector, len(tasks))
	for i, emb := range result.Embeddings {
		out[i] = Vector{
			TaskID:     tasks[i].ID,
			Values:     resize(emb.Values, Dimensions),
			Provenance: ProvenanceModel,
		}
	}
	return out, nil
}

// Dimensions returns the vector width.
func (e *GenAIEngine) Dimensions() int { return Dimensions }

// Name returns the engine name.
func (e *GenAIEngine) Name() string {
	return fmt.Sprintf("genai:%s", e.model)
}

// Close closes the GenAI client. The genai.Client holds no resources
// that require explicit release, so this is a no-op.
func (e *GenAIEngine) Close() error {
	return nil
}

// resize truncates or zero-pads a model vector to the fixed width.
func resize(values []float32, n int) []float64 {
	out := make([]float64, n)
	for i := 0; i < n && i < len(values); i++ {
		out[i] = float64(values[i])
	}
	return out
}
