package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Gandasoft/polylearner/internal/calendar"
	"github.com/Gandasoft/polylearner/internal/config"
	"github.com/Gandasoft/polylearner/internal/embedding"
	"github.com/Gandasoft/polylearner/internal/llm"
	"github.com/Gandasoft/polylearner/internal/logging"
	"github.com/Gandasoft/polylearner/internal/service"
	"github.com/Gandasoft/polylearner/internal/store"
)

var (
	// Global flags
	configPath string
	verbose    bool

	// Loaded in PersistentPreRunE, shared by all commands.
	cfg *config.Config
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "polylearner",
	Short: "PolyLearner - Intelligent weekly scheduling and cognitive-tax engine",
	Long: `PolyLearner plans a conflict-free weekly schedule from a set of tasks.

Related tasks are grouped together (via an LLM when configured, by category
otherwise), placed into daily working windows with breaks between long
stretches, and the finished week is scored for cognitive tax: the mental
cost of context switching and fragmentation. Every model-backed step has a
deterministic fallback, so the planner works offline.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if verbose {
			cfg.Logging.DebugMode = true
			cfg.Logging.Level = "debug"
		}
		if err := logging.Initialize(cfg.DataDir, logging.Settings{
			DebugMode:  cfg.Logging.DebugMode,
			Level:      cfg.Logging.Level,
			Categories: cfg.Logging.Categories,
		}); err != nil {
			return fmt.Errorf("failed to initialize logging: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.CloseAll()
	},
}

// openStore opens the task database at the configured path.
func openStore() (*store.TaskStore, error) {
	return store.Open(cfg.Store.DatabasePath)
}

// buildEngine assembles the service engine from the config. Missing
// API keys degrade to deterministic fallbacks rather than failing.
func buildEngine(st *store.TaskStore) (*service.Engine, error) {
	var client llm.Client
	if cfg.LLM.APIKey != "" || cfg.LLM.Provider == "ollama" {
		var err error
		client, err = llm.NewClient(cfg.LLM)
		if err != nil {
			return nil, fmt.Errorf("failed to build LLM client: %w", err)
		}
	}

	var embedder embedding.Engine
	if cfg.Embedding.APIKey != "" || cfg.Embedding.Provider == "deterministic" {
		var err error
		embedder, err = embedding.NewEngine(cfg.Embedding)
		if err != nil {
			return nil, fmt.Errorf("failed to build embedding engine: %w", err)
		}
	}

	cal, err := calendar.New(cfg.Calendar)
	if err != nil {
		return nil, fmt.Errorf("failed to build calendar client: %w", err)
	}

	return service.New(cfg, service.Collaborators{
		Store:    st,
		LLM:      client,
		Embedder: embedder,
		Calendar: cal,
	}), nil
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "polylearner.yaml", "Path to config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")

	rootCmd.AddCommand(tasksCmd)
	rootCmd.AddCommand(scheduleCmd)
	rootCmd.AddCommand(groupsCmd)
	rootCmd.AddCommand(recommendCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
