package embedding

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/Gandasoft/polylearner/internal/planner"
)

func sampleTask() planner.Task {
	return planner.Task{
		ID:        "t1",
		Title:     "Write literature review",
		Goal:      "Survey transformer papers",
		Category:  planner.CategoryResearch,
		TimeHours: 4,
		Priority:  7,
	}
}

func TestDeterministicEngine_BitIdentical(t *testing.T) {
	e := NewDeterministicEngine()
	ctx := context.Background()

	first, err := e.EmbedTask(ctx, sampleTask())
	if err != nil {
		t.Fatalf("EmbedTask failed: %v", err)
	}
	second, err := e.EmbedTask(ctx, sampleTask())
	if err != nil {
		t.Fatalf("EmbedTask failed: %v", err)
	}

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("identical input must yield identical vectors (-first +second):\n%s", diff)
	}
}

func TestDeterministicEngine_Shape(t *testing.T) {
	e := NewDeterministicEngine()
	v, err := e.EmbedTask(context.Background(), sampleTask())
	if err != nil {
		t.Fatalf("EmbedTask failed: %v", err)
	}

	if len(v.Values) != Dimensions {
		t.Fatalf("expected %d dimensions, got %d", Dimensions, len(v.Values))
	}
	if v.Provenance != ProvenanceDeterministic {
		t.Errorf("expected deterministic provenance, got %s", v.Provenance)
	}

	// Hash prefix stays in [-1, 1].
	for i, val := range v.Values[:hashDims] {
		if val < -1 || val > 1 {
			t.Fatalf("dimension %d out of [-1,1]: %v", i, val)
		}
	}

	// One-hot category for research, then priority and duration scalars.
	tail := v.Values[hashDims:]
	want := []float64{1, 0, 0, 0, 0.7, 0.4}
	if diff := cmp.Diff(want, tail); diff != "" {
		t.Errorf("unexpected feature tail (-want +got):\n%s", diff)
	}
}

func TestDeterministicEngine_DistinguishesContent(t *testing.T) {
	e := NewDeterministicEngine()
	ctx := context.Background()

	a, _ := e.EmbedTask(ctx, sampleTask())

	other := sampleTask()
	other.Title = "Refactor billing service"
	other.Category = planner.CategoryCoding
	b, _ := e.EmbedTask(ctx, other)

	if cmp.Equal(a.Values, b.Values) {
		t.Error("different content should not collide")
	}
}

func TestDeterministicEngine_DurationClamped(t *testing.T) {
	e := NewDeterministicEngine()
	task := sampleTask()
	task.TimeHours = 25

	v, _ := e.EmbedTask(context.Background(), task)
	if got := v.Values[Dimensions-1]; got != 1 {
		t.Errorf("duration feature should clamp to 1, got %v", got)
	}
}

func TestCosineSimilarity(t *testing.T) {
	if got := CosineSimilarity([]float64{1, 0}, []float64{1, 0}); got < 0.999 {
		t.Errorf("identical vectors should have similarity 1, got %v", got)
	}
	if got := CosineSimilarity([]float64{1, 0}, []float64{0, 1}); got > 1e-9 || got < -1e-9 {
		t.Errorf("orthogonal vectors should have similarity 0, got %v", got)
	}
	if got := CosineSimilarity([]float64{1, 0}, []float64{0, 0}); got != 0 {
		t.Errorf("zero vector should yield 0, got %v", got)
	}
	if got := CosineSimilarity([]float64{1}, []float64{1, 2}); got != 0 {
		t.Errorf("mismatched lengths should yield 0, got %v", got)
	}

	// Same-category tasks land closer together than cross-category ones.
	e := NewDeterministicEngine()
	ctx := context.Background()
	r1, _ := e.EmbedTask(ctx, planner.Task{ID: "a", Title: "Read papers", Category: planner.CategoryResearch, TimeHours: 2, Priority: 5})
	r2, _ := e.EmbedTask(ctx, planner.Task{ID: "b", Title: "Summarize papers", Category: planner.CategoryResearch, TimeHours: 2, Priority: 5})
	if CosineSimilarity(r1.Values, r2.Values) <= -1 {
		t.Error("similarity out of range")
	}
}
