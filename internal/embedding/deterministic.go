package embedding

import (
	"context"
	"crypto/sha256"

	"github.com/Gandasoft/polylearner/internal/planner"
)

// =============================================================================
// DETERMINISTIC FALLBACK ENGINE
// =============================================================================

// hashDims is the hash-projected prefix; the remaining six dimensions
// carry the one-hot category and two scalar features.
const hashDims = Dimensions - 6

// DeterministicEngine derives a vector purely from the task's own
// fields: a hash projection of its normalized text, a one-hot category
// encoding, and normalized priority and duration. Identical input
// always yields a bit-identical vector.
type DeterministicEngine struct{}

// NewDeterministicEngine creates the fallback engine.
func NewDeterministicEngine() *DeterministicEngine {
	return &DeterministicEngine{}
}

// EmbedTask embeds a single task.
func (e *DeterministicEngine) EmbedTask(_ context.Context, task planner.Task) (Vector, error) {
	return Vector{
		TaskID:     task.ID,
		Values:     deterministicVector(task),
		Provenance: ProvenanceDeterministic,
	}, nil
}

// EmbedTasks embeds a batch of tasks.
func (e *DeterministicEngine) EmbedTasks(_ context.Context, tasks []planner.Task) ([]Vector, error) {
	out := make([]Vector, len(tasks))
	for i, t := range tasks {
		out[i] = Vector{
			TaskID:     t.ID,
			Values:     deterministicVector(t),
			Provenance: ProvenanceDeterministic,
		}
	}
	return out, nil
}

// Dimensions returns the vector width.
func (e *DeterministicEngine) Dimensions() int { return Dimensions }

// Name identifies the engine.
func (e *DeterministicEngine) Name() string { return "deterministic" }

func deterministicVector(t planner.Task) []float64 {
	sum := sha256.Sum256([]byte(TaskText(t)))

	// Two hash bytes per value, normalized into [-1, 1].
	seed := make([]float64, 0, len(sum)/2)
	for i := 0; i+1 < len(sum); i += 2 {
		v := float64(int(sum[i])*256+int(sum[i+1]))/65535.0*2 - 1
		seed = append(seed, v)
	}

	// Extend by repetition to fill the hash-projected prefix.
	values := make([]float64, 0, Dimensions)
	values = append(values, seed...)
	for len(values) < hashDims {
		n := hashDims - len(values)
		if n > len(values) {
			n = len(values)
		}
		values = append(values, values[:n]...)
	}
	values = values[:hashDims]

	values = append(values, oneHotCategory(t.Category)...)
	values = append(values, float64(t.Priority)/10.0, clamp01(t.TimeHours/10.0))
	return values
}

func oneHotCategory(c planner.Category) []float64 {
	switch c {
	case planner.CategoryResearch:
		return []float64{1, 0, 0, 0}
	case planner.CategoryCoding:
		return []float64{0, 1, 0, 0}
	case planner.CategoryAdmin:
		return []float64{0, 0, 1, 0}
	case planner.CategoryNetworking:
		return []float64{0, 0, 0, 1}
	default:
		return []float64{0.25, 0.25, 0.25, 0.25}
	}
}

func clamp01(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < 0 {
		return 0
	}
	return v
}
