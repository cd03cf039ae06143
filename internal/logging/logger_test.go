package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func resetState() {
	CloseAll()
	loggers = make(map[Category]*Logger)
	logsDir = ""
	settings = Settings{}
}

// TestAllCategoriesLog tests that all categories create log files when debug mode is on
func TestAllCategoriesLog(t *testing.T) {
	tempDir := t.TempDir()
	resetState()

	err := Initialize(tempDir, Settings{DebugMode: true, Level: "debug"})
	if err != nil {
		t.Fatalf("Failed to initialize logging: %v", err)
	}

	if !IsDebugMode() {
		t.Error("Expected debug mode to be enabled")
	}

	categories := []Category{
		CategoryBoot,
		CategoryAPI,
		CategoryEmbedding,
		CategoryGrouping,
		CategoryScheduler,
		CategoryRecommend,
		CategoryCalendar,
		CategoryStore,
		CategoryServer,
	}

	for _, cat := range categories {
		if !IsCategoryEnabled(cat) {
			t.Errorf("Category %s should be enabled", cat)
		}
		logger := Get(cat)
		logger.Info("Test info message for %s", cat)
		logger.Debug("Test debug message for %s", cat)
		logger.Warn("Test warn message for %s", cat)
		logger.Error("Test error message for %s", cat)
	}

	// Convenience helpers
	Boot("Convenience boot log")
	API("Convenience api log")
	Embedding("Convenience embedding log")
	Grouping("Convenience grouping log")
	Scheduler("Convenience scheduler log")
	Recommend("Convenience recommend log")
	Calendar("Convenience calendar log")
	Store("Convenience store log")
	Server("Convenience server log")

	CloseAll()

	entries, err := os.ReadDir(filepath.Join(tempDir, "logs"))
	if err != nil {
		t.Fatalf("Failed to read logs dir: %v", err)
	}

	for _, cat := range categories {
		found := false
		for _, entry := range entries {
			if strings.Contains(entry.Name(), string(cat)+".log") {
				found = true
				content, err := os.ReadFile(filepath.Join(tempDir, "logs", entry.Name()))
				if err != nil {
					t.Errorf("Failed to read log file for %s: %v", cat, err)
					continue
				}
				if len(content) == 0 {
					t.Errorf("Log file for %s is empty", cat)
				}
				break
			}
		}
		if !found {
			t.Errorf("No log file found for category: %s", cat)
		}
	}
}

// TestDebugModeDisabled tests that no logs are created in production mode
func TestDebugModeDisabled(t *testing.T) {
	tempDir := t.TempDir()
	resetState()

	if err := Initialize(tempDir, Settings{DebugMode: false, Level: "debug"}); err != nil {
		t.Fatalf("Failed to initialize logging: %v", err)
	}

	if IsDebugMode() {
		t.Error("Expected debug mode to be disabled")
	}
	if IsCategoryEnabled(CategoryScheduler) {
		t.Error("Categories should be disabled when debug mode is off")
	}

	// Should be no-ops
	Boot("This should NOT be logged")
	Scheduler("This should NOT be logged")
	Get(CategoryBoot).Error("This should NOT be logged")

	CloseAll()

	logsPath := filepath.Join(tempDir, "logs")
	if _, err := os.Stat(logsPath); err == nil {
		entries, _ := os.ReadDir(logsPath)
		if len(entries) > 0 {
			t.Errorf("Expected no log files in production mode, found %d", len(entries))
		}
	}
}

// TestCategoryToggle tests individual category enable/disable
func TestCategoryToggle(t *testing.T) {
	tempDir := t.TempDir()
	resetState()

	err := Initialize(tempDir, Settings{
		DebugMode: true,
		Level:     "debug",
		Categories: map[string]bool{
			"boot":      true,
			"scheduler": true,
			"grouping":  false,
		},
	})
	if err != nil {
		t.Fatalf("Failed to initialize: %v", err)
	}

	if !IsCategoryEnabled(CategoryBoot) {
		t.Error("boot should be enabled")
	}
	if !IsCategoryEnabled(CategoryScheduler) {
		t.Error("scheduler should be enabled")
	}
	if IsCategoryEnabled(CategoryGrouping) {
		t.Error("grouping should be disabled")
	}
	// Not in config: defaults to enabled in debug mode
	if !IsCategoryEnabled(CategoryEmbedding) {
		t.Error("embedding (not in config) should default to enabled")
	}

	Boot("This SHOULD be logged")
	Scheduler("This SHOULD be logged")
	Grouping("This should NOT be logged")

	CloseAll()

	entries, _ := os.ReadDir(filepath.Join(tempDir, "logs"))
	for _, e := range entries {
		if strings.Contains(e.Name(), "grouping") {
			t.Error("Should not have a grouping log file (disabled)")
		}
	}
}

// TestTimerLogging tests the timing helper
func TestTimerLogging(t *testing.T) {
	tempDir := t.TempDir()
	resetState()
	Initialize(tempDir, Settings{DebugMode: true, Level: "debug"})

	timer := StartTimer(CategoryScheduler, "TestOperation")
	time.Sleep(time.Millisecond)
	elapsed := timer.Stop()

	if elapsed <= 0 {
		t.Error("Timer should have recorded non-zero duration")
	}

	CloseAll()
}
