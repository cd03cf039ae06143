// Package llm provides the text-generation clients used for task
// grouping, workload insights and recommendation phrasing. Every call
// site treats a failure here as a cue to fall back to its deterministic
// path, never as a user-facing error.
package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Gandasoft/polylearner/internal/config"
)

// Client is the minimal completion interface the engine depends on.
type Client interface {
	Complete(ctx context.Context, prompt string) (string, error)
	CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// NewClient constructs the provider named by the configuration.
// Provider "none" returns nil, which callers treat as fallback-only.
func NewClient(cfg config.LLMConfig) (Client, error) {
	switch strings.ToLower(cfg.Provider) {
	case "gemini":
		return NewGeminiClient(GeminiConfig{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
			Timeout: mustDuration(cfg.Timeout, "60s"),
		}), nil
	case "ollama":
		return NewOllamaClient(OllamaConfig{
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
			Timeout: mustDuration(cfg.Timeout, "120s"),
		}), nil
	case "", "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown llm provider: %q", cfg.Provider)
	}
}

// ExtractJSON strips markdown code fences and surrounding prose from a
// model response, returning the first JSON object or array found.
func ExtractJSON(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx >= 0 {
			s = s[idx+1:]
		}
		if idx := strings.LastIndex(s, "```"); idx >= 0 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}

	objStart := strings.IndexAny(s, "{[")
	if objStart < 0 {
		return s
	}
	open := s[objStart]
	var closer byte = '}'
	if open == '[' {
		closer = ']'
	}

	depth := 0
	inString := false
	escaped := false
	for i := objStart; i < len(s); i++ {
		ch := s[i]
		if escaped {
			escaped = false
			continue
		}
		switch {
		case ch == '\\' && inString:
			escaped = true
		case ch == '"':
			inString = !inString
		case !inString && ch == open:
			depth++
		case !inString && ch == closer:
			depth--
			if depth == 0 {
				return s[objStart : i+1]
			}
		}
	}
	return s[objStart:]
}

func mustDuration(s, fallback string) time.Duration {
	if d, err := time.ParseDuration(s); err == nil && d > 0 {
		return d
	}
	d, _ := time.ParseDuration(fallback)
	return d
}
