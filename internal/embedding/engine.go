// Package embedding turns tasks into fixed-length vectors used to rank
// similarity during grouping. Vectors are advisory; nothing downstream
// treats them as authoritative.
package embedding

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/Gandasoft/polylearner/internal/config"
	"github.com/Gandasoft/polylearner/internal/planner"
)

// Dimensions is the fixed vector width.
const Dimensions = 384

// Provenance tags how a vector was produced.
type Provenance string

const (
	ProvenanceModel         Provenance = "model"
	ProvenanceDeterministic Provenance = "deterministic"
)

// Vector is one task's embedding.
type Vector struct {
	TaskID     string     `json:"task_id"`
	Values     []float64  `json:"values"`
	Provenance Provenance `json:"provenance"`
}

// Engine generates task embeddings.
type Engine interface {
	// EmbedTask embeds a single task.
	EmbedTask(ctx context.Context, task planner.Task) (Vector, error)

	// EmbedTasks embeds a batch of tasks.
	EmbedTasks(ctx context.Context, tasks []planner.Task) ([]Vector, error)

	// Dimensions returns the vector width.
	Dimensions() int

	// Name identifies the engine for logging.
	Name() string
}

// NewEngine constructs the engine named by the configuration.
// Provider "deterministic" skips the model entirely.
func NewEngine(cfg config.EmbeddingConfig) (Engine, error) {
	switch strings.ToLower(cfg.Provider) {
	case "genai", "":
		return NewGenAIEngine(cfg.APIKey, cfg.Model)
	case "deterministic":
		return NewDeterministicEngine(), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider: %q", cfg.Provider)
	}
}

// TaskText composes the text an engine embeds for a task.
func TaskText(t planner.Task) string {
	return strings.ToLower(fmt.Sprintf("%s %s %s", t.Title, t.Goal, t.Category))
}

// CosineSimilarity computes the cosine of the angle between two vectors.
// Returns 0 for mismatched or zero vectors.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
