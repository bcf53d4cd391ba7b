package providers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/heartnote/heartnote/pkg/config"
	"github.com/heartnote/heartnote/pkg/logger"
)

// CreateBackend builds the backend selected by cfg: either the single named
// backend or a ScheduleBackend over the backends the schedule references.
func CreateBackend(ctx context.Context, cfg config.GenerationConfig) (Backend, error) {
	if !cfg.Scheduled() {
		bc, ok := cfg.Backends[cfg.Backend]
		if !ok {
			return nil, fmt.Errorf("backend %q is not configured", cfg.Backend)
		}
		return createNamed(ctx, cfg.Backend, bc)
	}

	location := time.Local
	if cfg.Schedule.Timezone != "" {
		loc, err := time.LoadLocation(cfg.Schedule.Timezone)
		if err != nil {
			return nil, fmt.Errorf("invalid schedule timezone %q: %w", cfg.Schedule.Timezone, err)
		}
		location = loc
	}

	names := []string{cfg.Schedule.Default}
	for _, r := range cfg.Schedule.Rules {
		names = append(names, r.Backend)
	}

	backends := make(map[string]Backend)
	for _, name := range names {
		if name == "" || name == ScheduleDisabled {
			continue
		}
		if _, done := backends[name]; done {
			continue
		}
		bc, ok := cfg.Backends[name]
		if !ok {
			return nil, fmt.Errorf("schedule references unknown backend %q", name)
		}
		b, err := createNamed(ctx, name, bc)
		if err != nil {
			return nil, err
		}
		backends[name] = b
	}
	return NewScheduleBackend(cfg.Schedule, backends, location), nil
}

func createNamed(ctx context.Context, name string, bc config.BackendConfig) (Backend, error) {
	provider := strings.ToLower(bc.Provider)

	needsKey := (provider == "openai" && bc.BaseURL == "") || provider == "anthropic" || provider == "gemini"
	if needsKey && bc.APIKey == "" {
		logger.WarnCF("providers", "Backend has no API key, generation disabled", map[string]any{
			"backend":  name,
			"provider": provider,
		})
		return NewDisabledBackend(provider, bc.Model, "no API key configured"), nil
	}

	var (
		b   Backend
		err error
	)
	switch provider {
	case "ollama":
		b = NewOllamaBackend(bc)
	case "openai":
		b = NewOpenAIBackend(bc)
	case "anthropic":
		b = NewAnthropicBackend(bc)
	case "gemini":
		b, err = NewGeminiBackend(ctx, bc)
	case "bedrock":
		b, err = NewBedrockBackend(ctx, bc)
	default:
		return nil, fmt.Errorf("backend %q: unknown provider %q", name, bc.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("backend %q: %w", name, err)
	}

	logger.InfoCF("providers", "Backend created", map[string]any{
		"backend":  name,
		"provider": provider,
		"model":    bc.Model,
	})
	return WrapWithMetrics(b), nil
}
