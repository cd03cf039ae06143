// Package store persists tasks and caches embedding vectors in SQLite.
// Schedules are never stored; they are recomputed per request.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/Gandasoft/polylearner/internal/embedding"
	"github.com/Gandasoft/polylearner/internal/logging"
	"github.com/Gandasoft/polylearner/internal/planner"
)

// TaskStore is the SQLite-backed task repository.
type TaskStore struct {
	db     *sql.DB
	mu     sync.RWMutex
	dbPath string
}

// Open initializes the SQLite database at the given path.
func Open(path string) (*TaskStore, error) {
	timer := logging.StartTimer(logging.CategoryStore, "Open")
	defer timer.Stop()

	logging.Store("Initializing TaskStore at path: %s", path)

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		logging.StoreDebug("Failed to set sqlite busy_timeout: %v", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		logging.StoreDebug("Failed to set sqlite journal_mode=WAL: %v", err)
	}
	if _, err := db.Exec("PRAGMA synchronous = NORMAL"); err != nil {
		logging.StoreDebug("Failed to set sqlite synchronous=NORMAL: %v", err)
	}

	s := &TaskStore{db: db, dbPath: path}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	logging.StoreDebug("Database schema initialized")
	return s, nil
}

func (s *TaskStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS tasks (
		id            TEXT PRIMARY KEY,
		title         TEXT NOT NULL,
		goal          TEXT NOT NULL DEFAULT '',
		category      TEXT NOT NULL,
		time_hours    REAL NOT NULL,
		priority      INTEGER NOT NULL,
		due_date      TEXT,
		dependencies  TEXT NOT NULL DEFAULT '',
		energy_level  TEXT NOT NULL DEFAULT '',
		created_at    TEXT NOT NULL,
		updated_at    TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS embedding_cache (
		task_id     TEXT PRIMARY KEY,
		fingerprint TEXT NOT NULL,
		provenance  TEXT NOT NULL,
		vector      TEXT NOT NULL,
		created_at  TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_tasks_category ON tasks(category);
	CREATE INDEX IF NOT EXISTS idx_tasks_priority ON tasks(priority);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *TaskStore) Close() error {
	return s.db.Close()
}

// =============================================================================
// TASKS
// =============================================================================

// SaveTask inserts or replaces a task. Saving invalidates any cached
// embedding for it.
func (s *TaskStore) SaveTask(t planner.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := planner.ValidateTasks([]planner.Task{clearDeps(t)}); err != nil {
		return err
	}

	now := time.Now().UTC().Format(time.RFC3339)
	var due sql.NullString
	if t.DueDate != nil {
		due = sql.NullString{String: t.DueDate.UTC().Format(time.RFC3339), Valid: true}
	}

	_, err := s.db.Exec(`
		INSERT INTO tasks (id, title, goal, category, time_hours, priority, due_date, dependencies, energy_level, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			goal = excluded.goal,
			category = excluded.category,
			time_hours = excluded.time_hours,
			priority = excluded.priority,
			due_date = excluded.due_date,
			dependencies = excluded.dependencies,
			energy_level = excluded.energy_level,
			updated_at = excluded.updated_at`,
		t.ID, t.Title, t.Goal, string(t.Category), t.TimeHours, t.Priority,
		due, strings.Join(t.Dependencies, ","), string(t.EnergyLevel), now, now)
	if err != nil {
		return fmt.Errorf("failed to save task: %w", err)
	}

	if _, err := s.db.Exec(`DELETE FROM embedding_cache WHERE task_id = ?`, t.ID); err != nil {
		logging.StoreDebug("Failed to invalidate embedding cache for %s: %v", t.ID, err)
	}

	logging.StoreDebug("Saved task %s", t.ID)
	return nil
}

// GetTask loads one task by id.
func (s *TaskStore) GetTask(id string) (planner.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRow(`
		SELECT id, title, goal, category, time_hours, priority, due_date, dependencies, energy_level
		FROM tasks WHERE id = ?`, id)
	t, err := scanTask(row)
	if err == sql.ErrNoRows {
		return planner.Task{}, fmt.Errorf("task %q not found", id)
	}
	return t, err
}

// ListTasks loads all tasks ordered by priority, then id.
func (s *TaskStore) ListTasks() ([]planner.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT id, title, goal, category, time_hours, priority, due_date, dependencies, energy_level
		FROM tasks ORDER BY priority DESC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	var out []planner.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// DeleteTask removes a task and its cached embedding.
func (s *TaskStore) DeleteTask(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("task %q not found", id)
	}
	s.db.Exec(`DELETE FROM embedding_cache WHERE task_id = ?`, id)
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTask(row rowScanner) (planner.Task, error) {
	var t planner.Task
	var category, deps, energy string
	var due sql.NullString
	if err := row.Scan(&t.ID, &t.Title, &t.Goal, &category, &t.TimeHours, &t.Priority, &due, &deps, &energy); err != nil {
		return planner.Task{}, err
	}
	t.Category = planner.Category(category)
	t.EnergyLevel = planner.EnergyLevel(energy)
	if deps != "" {
		t.Dependencies = strings.Split(deps, ",")
	}
	if due.Valid {
		if parsed, err := time.Parse(time.RFC3339, due.String); err == nil {
			t.DueDate = &parsed
		}
	}
	return t, nil
}

// clearDeps strips dependencies for single-task validation; referenced
// tasks may not be saved yet.
func clearDeps(t planner.Task) planner.Task {
	t.Dependencies = nil
	return t
}

// =============================================================================
// EMBEDDING CACHE
// =============================================================================

// CachedEmbedding returns a cached vector if its fingerprint still
// matches the task content.
func (s *TaskStore) CachedEmbedding(t planner.Task) (embedding.Vector, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRow(`SELECT fingerprint, provenance, vector FROM embedding_cache WHERE task_id = ?`, t.ID)
	var fp, provenance, raw string
	if err := row.Scan(&fp, &provenance, &raw); err != nil {
		return embedding.Vector{}, false
	}
	if fp != embeddingFingerprint(t) {
		return embedding.Vector{}, false
	}

	var values []float64
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		return embedding.Vector{}, false
	}
	return embedding.Vector{
		TaskID:     t.ID,
		Values:     values,
		Provenance: embedding.Provenance(provenance),
	}, true
}

// PutEmbedding caches a vector keyed by the task's content fingerprint.
func (s *TaskStore) PutEmbedding(t planner.Task, v embedding.Vector) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := json.Marshal(v.Values)
	if err != nil {
		return fmt.Errorf("failed to marshal vector: %w", err)
	}
	_, err = s.db.Exec(`
		INSERT INTO embedding_cache (task_id, fingerprint, provenance, vector, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(task_id) DO UPDATE SET
			fingerprint = excluded.fingerprint,
			provenance = excluded.provenance,
			vector = excluded.vector,
			created_at = excluded.created_at`,
		t.ID, embeddingFingerprint(t), string(v.Provenance), string(raw),
		time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to cache embedding: %w", err)
	}
	return nil
}

// embeddingFingerprint keys the cache on the exact content an engine
// embeds, plus the scalar features the fallback folds in.
func embeddingFingerprint(t planner.Task) string {
	return fmt.Sprintf("%s|%d|%g", embedding.TaskText(t), t.Priority, t.TimeHours)
}
