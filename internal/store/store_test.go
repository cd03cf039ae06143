package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Gandasoft/polylearner/internal/embedding"
	"github.com/Gandasoft/polylearner/internal/planner"
)

func openTestStore(t *testing.T) *TaskStore {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func storedTask() planner.Task {
	due := time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC)
	return planner.Task{
		ID:          "t1",
		Title:       "Write survey",
		Goal:        "Cover retrieval methods",
		Category:    planner.CategoryResearch,
		TimeHours:   4,
		Priority:    7,
		DueDate:     &due,
		EnergyLevel: planner.EnergyHigh,
	}
}

func TestTaskStore_SaveGetRoundTrip(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.SaveTask(storedTask()))

	got, err := s.GetTask("t1")
	require.NoError(t, err)
	assert.Equal(t, "Write survey", got.Title)
	assert.Equal(t, planner.CategoryResearch, got.Category)
	assert.Equal(t, planner.EnergyHigh, got.EnergyLevel)
	require.NotNil(t, got.DueDate)
	assert.True(t, got.DueDate.Equal(*storedTask().DueDate))
}

func TestTaskStore_SaveRejectsInvalidTask(t *testing.T) {
	s := openTestStore(t)

	bad := storedTask()
	bad.TimeHours = -1
	err := s.SaveTask(bad)
	require.Error(t, err)

	var vErr *planner.ValidationError
	assert.ErrorAs(t, err, &vErr)
}

func TestTaskStore_ListOrdering(t *testing.T) {
	s := openTestStore(t)

	for _, task := range []planner.Task{
		{ID: "low", Title: "Low", Category: planner.CategoryAdmin, TimeHours: 1, Priority: 2},
		{ID: "high", Title: "High", Category: planner.CategoryCoding, TimeHours: 2, Priority: 9},
		{ID: "mid", Title: "Mid", Category: planner.CategoryResearch, TimeHours: 3, Priority: 5},
	} {
		require.NoError(t, s.SaveTask(task))
	}

	tasks, err := s.ListTasks()
	require.NoError(t, err)
	require.Len(t, tasks, 3)
	assert.Equal(t, "high", tasks[0].ID)
	assert.Equal(t, "mid", tasks[1].ID)
	assert.Equal(t, "low", tasks[2].ID)
}

func TestTaskStore_DependenciesRoundTrip(t *testing.T) {
	s := openTestStore(t)

	task := storedTask()
	task.Dependencies = []string{"a", "b"}
	require.NoError(t, s.SaveTask(task))

	got, err := s.GetTask("t1")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, got.Dependencies)
}

func TestTaskStore_Delete(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.SaveTask(storedTask()))
	require.NoError(t, s.DeleteTask("t1"))

	_, err := s.GetTask("t1")
	assert.Error(t, err)
	assert.Error(t, s.DeleteTask("t1"))
}

func TestTaskStore_EmbeddingCache(t *testing.T) {
	s := openTestStore(t)
	task := storedTask()
	require.NoError(t, s.SaveTask(task))

	_, hit := s.CachedEmbedding(task)
	assert.False(t, hit, "cold cache should miss")

	v := embedding.Vector{TaskID: task.ID, Values: []float64{0.1, -0.5, 0.9}, Provenance: embedding.ProvenanceDeterministic}
	require.NoError(t, s.PutEmbedding(task, v))

	got, hit := s.CachedEmbedding(task)
	require.True(t, hit)
	assert.Equal(t, v.Values, got.Values)
	assert.Equal(t, embedding.ProvenanceDeterministic, got.Provenance)
}

func TestTaskStore_EmbeddingCacheInvalidatedByContentChange(t *testing.T) {
	s := openTestStore(t)
	task := storedTask()
	require.NoError(t, s.SaveTask(task))
	require.NoError(t, s.PutEmbedding(task, embedding.Vector{TaskID: task.ID, Values: []float64{1}}))

	// Fingerprint mismatch on changed content
	changed := task
	changed.Title = "Write a different survey"
	_, hit := s.CachedEmbedding(changed)
	assert.False(t, hit, "changed content must miss the cache")

	// Re-saving also drops the stale row
	require.NoError(t, s.SaveTask(changed))
	_, hit = s.CachedEmbedding(task)
	assert.False(t, hit)
}
