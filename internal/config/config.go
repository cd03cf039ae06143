package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all PolyLearner configuration.
type Config struct {
	// Core settings
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// Data directory for database, logs and caches
	DataDir string `yaml:"data_dir"`

	// LLM configuration
	LLM LLMConfig `yaml:"llm"`

	// Embedding configuration
	Embedding EmbeddingConfig `yaml:"embedding"`

	// Scheduling window configuration
	Scheduling SchedulingConfig `yaml:"scheduling"`

	// Calendar integration
	Calendar CalendarConfig `yaml:"calendar"`

	// Storage
	Store StoreConfig `yaml:"store"`

	// HTTP server
	Server ServerConfig `yaml:"server"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// LLMConfig configures the language-model provider used for grouping,
// schedule proposals and recommendations.
type LLMConfig struct {
	Provider string `yaml:"provider"` // gemini, ollama, none
	APIKey   string `yaml:"api_key"`
	Model    string `yaml:"model"`
	BaseURL  string `yaml:"base_url"`
	Timeout  string `yaml:"timeout"`
}

// EmbeddingConfig configures the embedding engine.
type EmbeddingConfig struct {
	Provider   string `yaml:"provider"` // genai, deterministic
	APIKey     string `yaml:"api_key"`
	Model      string `yaml:"model"`
	Dimensions int    `yaml:"dimensions"`
	Timeout    string `yaml:"timeout"`
}

// SchedulingConfig configures the weekly placement window.
type SchedulingConfig struct {
	// WeekStart is the reference date for the week ("2006-01-02").
	// Empty means the Monday of the current week.
	WeekStart string `yaml:"week_start" json:"week_start,omitempty"`

	// Working window, integer hours in [0,24), start < end.
	DailyStart int `yaml:"daily_start" json:"daily_start"`
	DailyEnd   int `yaml:"daily_end" json:"daily_end"`

	// PeakHours is a "H-H" range string, e.g. "9-12".
	PeakHours string `yaml:"peak_hours" json:"peak_hours,omitempty"`

	// MaxContinuousHours caps a single focus chunk.
	MaxContinuousHours float64 `yaml:"max_continuous_hours" json:"max_continuous_hours"`

	// BreakMinutes is the rest inserted between adjacent chunks of the
	// same task.
	BreakMinutes int `yaml:"break_minutes" json:"break_minutes"`

	// FocusThresholdHours marks a block as fragmented when shorter.
	FocusThresholdHours float64 `yaml:"focus_threshold_hours" json:"focus_threshold_hours"`
}

// CalendarConfig configures the external calendar integration.
type CalendarConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Provider   string `yaml:"provider"` // google
	CalendarID string `yaml:"calendar_id"`
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url"`
	Timeout    string `yaml:"timeout"`
}

// StoreConfig configures persistent storage.
type StoreConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr         string `yaml:"addr"`
	ReadTimeout  string `yaml:"read_timeout"`
	WriteTimeout string `yaml:"write_timeout"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level      string          `yaml:"level"` // debug, info, warn, error
	DebugMode  bool            `yaml:"debug_mode"`
	Categories map[string]bool `yaml:"categories"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:    "polylearner",
		Version: "1.0.0",
		DataDir: "data",

		LLM: LLMConfig{
			Provider: "gemini",
			Model:    "gemini-2.0-flash",
			BaseURL:  "https://generativelanguage.googleapis.com/v1beta",
			Timeout:  "60s",
		},

		Embedding: EmbeddingConfig{
			Provider:   "genai",
			Model:      "gemini-embedding-001",
			Dimensions: 384,
			Timeout:    "30s",
		},

		Scheduling: SchedulingConfig{
			DailyStart:          9,
			DailyEnd:            17,
			PeakHours:           "9-12",
			MaxContinuousHours:  2,
			BreakMinutes:        15,
			FocusThresholdHours: 1,
		},

		Calendar: CalendarConfig{
			Enabled:  false,
			Provider: "google",
			BaseURL:  "https://www.googleapis.com/calendar/v3",
			Timeout:  "30s",
		},

		Store: StoreConfig{
			DatabasePath: "data/polylearner.db",
		},

		Server: ServerConfig{
			Addr:         ":8090",
			ReadTimeout:  "15s",
			WriteTimeout: "30s",
		},

		Logging: LoggingConfig{
			Level:     "info",
			DebugMode: false,
		},
	}
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Return defaults if config file doesn't exist
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// Validate checks constraints the scheduler depends on.
func (c *Config) Validate() error {
	s := c.Scheduling
	if s.DailyStart < 0 || s.DailyStart > 23 || s.DailyEnd < 1 || s.DailyEnd > 24 {
		return fmt.Errorf("scheduling: daily window hours out of range: %d-%d", s.DailyStart, s.DailyEnd)
	}
	if s.DailyStart >= s.DailyEnd {
		return fmt.Errorf("scheduling: daily_start (%d) must be before daily_end (%d)", s.DailyStart, s.DailyEnd)
	}
	if s.MaxContinuousHours <= 0 {
		return fmt.Errorf("scheduling: max_continuous_hours must be positive, got %v", s.MaxContinuousHours)
	}
	if s.BreakMinutes < 0 {
		return fmt.Errorf("scheduling: break_minutes must not be negative, got %d", s.BreakMinutes)
	}
	if s.PeakHours != "" {
		if _, _, err := s.PeakWindow(); err != nil {
			return fmt.Errorf("scheduling: %w", err)
		}
	}
	if s.WeekStart != "" {
		if _, err := time.Parse("2006-01-02", s.WeekStart); err != nil {
			return fmt.Errorf("scheduling: invalid week_start %q: %w", s.WeekStart, err)
		}
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		if c.LLM.APIKey == "" {
			c.LLM.APIKey = key
		}
		if c.Embedding.APIKey == "" {
			c.Embedding.APIKey = key
		}
	}
	if url := os.Getenv("OLLAMA_URL"); url != "" {
		c.LLM.Provider = "ollama"
		c.LLM.BaseURL = url
	}
	if key := os.Getenv("GOOGLE_CALENDAR_API_KEY"); key != "" {
		c.Calendar.APIKey = key
	}
	if path := os.Getenv("POLYLEARNER_DB"); path != "" {
		c.Store.DatabasePath = path
	}
	if dir := os.Getenv("POLYLEARNER_DATA"); dir != "" {
		c.DataDir = dir
	}
	if addr := os.Getenv("POLYLEARNER_ADDR"); addr != "" {
		c.Server.Addr = addr
	}
}

// PeakWindow parses the "H-H" peak range into start and end hours.
func (s SchedulingConfig) PeakWindow() (int, int, error) {
	parts := strings.SplitN(s.PeakHours, "-", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid peak_hours %q, want \"H-H\"", s.PeakHours)
	}
	start, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid peak_hours start %q", parts[0])
	}
	end, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid peak_hours end %q", parts[1])
	}
	if start < 0 || end > 24 || start >= end {
		return 0, 0, fmt.Errorf("peak_hours %q out of order or out of range", s.PeakHours)
	}
	return start, end, nil
}

// WeekStartDate resolves the reference Monday for the target week.
func (s SchedulingConfig) WeekStartDate(now time.Time) time.Time {
	if s.WeekStart != "" {
		if t, err := time.Parse("2006-01-02", s.WeekStart); err == nil {
			return t
		}
	}
	// Monday of the current week
	offset := (int(now.Weekday()) + 6) % 7
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return day.AddDate(0, 0, -offset)
}

// GetLLMTimeout returns the LLM timeout as a duration.
func (c *Config) GetLLMTimeout() time.Duration {
	d, err := time.ParseDuration(c.LLM.Timeout)
	if err != nil {
		return 60 * time.Second
	}
	return d
}

// GetEmbeddingTimeout returns the embedding timeout as a duration.
func (c *Config) GetEmbeddingTimeout() time.Duration {
	d, err := time.ParseDuration(c.Embedding.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// GetCalendarTimeout returns the calendar request timeout as a duration.
func (c *Config) GetCalendarTimeout() time.Duration {
	d, err := time.ParseDuration(c.Calendar.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}
