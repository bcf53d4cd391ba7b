package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Config is built once at startup and passed by reference to every component.
// Nothing below cmd/ reads the process environment directly.
type Config struct {
	Server     ServerConfig     `json:"server" yaml:"server" toml:"server"`
	Generation GenerationConfig `json:"generation" yaml:"generation" toml:"generation"`
	Safety     SafetyConfig     `json:"safety" yaml:"safety" toml:"safety"`
	Fallback   FallbackConfig   `json:"fallback" yaml:"fallback" toml:"fallback"`
	Templates  TemplatesConfig  `json:"templates" yaml:"templates" toml:"templates"`
	Telegram   TelegramConfig   `json:"telegram" yaml:"telegram" toml:"telegram"`
	Log        LogConfig        `json:"log" yaml:"log" toml:"log"`
}

type ServerConfig struct {
	Host           string  `json:"host" yaml:"host" toml:"host" env:"HEARTNOTE_SERVER_HOST"`
	Port           int     `json:"port" yaml:"port" toml:"port" env:"HEARTNOTE_SERVER_PORT"`
	RateLimitRPS   float64 `json:"rate_limit_rps" yaml:"rate_limit_rps" toml:"rate_limit_rps" env:"HEARTNOTE_RATE_LIMIT_RPS"`
	RateLimitBurst int     `json:"rate_limit_burst" yaml:"rate_limit_burst" toml:"rate_limit_burst" env:"HEARTNOTE_RATE_LIMIT_BURST"`
	SigningSecret  string  `json:"signing_secret" yaml:"signing_secret" toml:"signing_secret" env:"HEARTNOTE_SIGNING_SECRET"`
}

type GenerationConfig struct {
	// Disabled is the administrative switch: no backend call is made and every
	// request degrades to canned text.
	Disabled       bool                     `json:"disabled" yaml:"disabled" toml:"disabled" env:"HEARTNOTE_GENERATION_DISABLED"`
	Backend        string                   `json:"backend" yaml:"backend" toml:"backend" env:"HEARTNOTE_BACKEND"`
	Backends       map[string]BackendConfig `json:"backends" yaml:"backends" toml:"backends"`
	Schedule       *ScheduleConfig          `json:"schedule,omitempty" yaml:"schedule,omitempty" toml:"schedule,omitempty"`
	Temperature    float64                  `json:"temperature" yaml:"temperature" toml:"temperature" env:"HEARTNOTE_TEMPERATURE"`
	TopP           float64                  `json:"top_p" yaml:"top_p" toml:"top_p" env:"HEARTNOTE_TOP_P"`
	MaxTokens      int                      `json:"max_tokens" yaml:"max_tokens" toml:"max_tokens" env:"HEARTNOTE_MAX_TOKENS"`
	TimeoutSeconds int                      `json:"timeout_seconds" yaml:"timeout_seconds" toml:"timeout_seconds" env:"HEARTNOTE_TIMEOUT_SECONDS"`
}

// BackendConfig describes one generation backend. Provider selects the
// implementation: openai, anthropic, gemini, bedrock or ollama.
type BackendConfig struct {
	Provider  string `json:"provider" yaml:"provider" toml:"provider"`
	Model     string `json:"model" yaml:"model" toml:"model"`
	APIKey    string `json:"api_key,omitempty" yaml:"api_key,omitempty" toml:"api_key,omitempty"`
	BaseURL   string `json:"base_url,omitempty" yaml:"base_url,omitempty" toml:"base_url,omitempty"`
	Region    string `json:"region,omitempty" yaml:"region,omitempty" toml:"region,omitempty"`
	KeepAlive string `json:"keep_alive,omitempty" yaml:"keep_alive,omitempty" toml:"keep_alive,omitempty"`
	NumCtx    int    `json:"num_ctx,omitempty" yaml:"num_ctx,omitempty" toml:"num_ctx,omitempty"`
}

// ScheduleConfig routes generation to a backend by time of day. A rule whose
// backend is "disabled" turns generation off for that window.
type ScheduleConfig struct {
	Timezone string         `json:"timezone,omitempty" yaml:"timezone,omitempty" toml:"timezone,omitempty"`
	Rules    []ScheduleRule `json:"rules" yaml:"rules" toml:"rules"`
	Default  string         `json:"default" yaml:"default" toml:"default"`
}

type ScheduleRule struct {
	Days    []string       `json:"days,omitempty" yaml:"days,omitempty" toml:"days,omitempty"`
	Hours   *ScheduleHours `json:"hours,omitempty" yaml:"hours,omitempty" toml:"hours,omitempty"`
	Backend string         `json:"backend" yaml:"backend" toml:"backend"`
}

type ScheduleHours struct {
	Start string `json:"start" yaml:"start" toml:"start"`
	End   string `json:"end" yaml:"end" toml:"end"`
}

type SafetyConfig struct {
	ExtraBlockedTerms    []string `json:"extra_blocked_terms,omitempty" yaml:"extra_blocked_terms,omitempty" toml:"extra_blocked_terms,omitempty" env:"HEARTNOTE_SAFETY_EXTRA_BLOCKED" envSeparator:","`
	ExtraSelfHarmPhrases []string `json:"extra_self_harm_phrases,omitempty" yaml:"extra_self_harm_phrases,omitempty" toml:"extra_self_harm_phrases,omitempty" env:"HEARTNOTE_SAFETY_EXTRA_SELF_HARM" envSeparator:","`
}

type FallbackConfig struct {
	Selection   string `json:"selection" yaml:"selection" toml:"selection" env:"HEARTNOTE_FALLBACK_SELECTION"`
	Seed        uint64 `json:"seed,omitempty" yaml:"seed,omitempty" toml:"seed,omitempty" env:"HEARTNOTE_FALLBACK_SEED"`
	CatalogPath string `json:"catalog_path,omitempty" yaml:"catalog_path,omitempty" toml:"catalog_path,omitempty" env:"HEARTNOTE_FALLBACK_CATALOG"`
}

type TemplatesConfig struct {
	Dir string `json:"dir,omitempty" yaml:"dir,omitempty" toml:"dir,omitempty" env:"HEARTNOTE_TEMPLATES_DIR"`
}

type TelegramConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled" toml:"enabled" env:"HEARTNOTE_TELEGRAM_ENABLED"`
	Token   string `json:"token,omitempty" yaml:"token,omitempty" toml:"token,omitempty" env:"TELEGRAM_BOT_TOKEN"`
}

type LogConfig struct {
	Level  string `json:"level" yaml:"level" toml:"level" env:"HEARTNOTE_LOG_LEVEL"`
	Format string `json:"format" yaml:"format" toml:"format" env:"HEARTNOTE_LOG_FORMAT"`
}

// providerKeys holds the conventional vendor variables. They only fill in keys
// that the file left empty.
type providerKeys struct {
	OpenAI    string `env:"OPENAI_API_KEY"`
	Anthropic string `env:"ANTHROPIC_API_KEY"`
	Gemini    string `env:"GEMINI_API_KEY"`
}

const (
	SelectionRandom     = "random"
	SelectionRoundRobin = "round_robin"
)

// Load builds the configuration: defaults, then the optional file at path,
// then environment overrides. The result is validated.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("config file %s not found: %w", path, err)
		}
		return fmt.Errorf("failed to read config: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	case ".toml":
		_, err = toml.Decode(string(data), cfg)
	case ".json", "":
		err = json.Unmarshal(data, cfg)
	default:
		return fmt.Errorf("unsupported config format %q", filepath.Ext(path))
	}
	if err != nil {
		return fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("failed to parse environment: %w", err)
	}

	var keys providerKeys
	if err := env.Parse(&keys); err != nil {
		return fmt.Errorf("failed to parse provider keys: %w", err)
	}
	for name, b := range cfg.Generation.Backends {
		if b.APIKey != "" {
			continue
		}
		switch strings.ToLower(b.Provider) {
		case "openai":
			b.APIKey = keys.OpenAI
		case "anthropic":
			b.APIKey = keys.Anthropic
		case "gemini":
			b.APIKey = keys.Gemini
		}
		cfg.Generation.Backends[name] = b
	}
	return nil
}

// Scheduled reports whether backend selection is driven by the schedule
// rather than the single Backend name.
func (g GenerationConfig) Scheduled() bool {
	return g.Schedule != nil && (len(g.Schedule.Rules) > 0 || g.Schedule.Default != "")
}

// Validate checks cross-field constraints that defaults cannot guarantee.
func (c *Config) Validate() error {
	g := c.Generation
	if g.Temperature < 0 || g.Temperature > 2 {
		return fmt.Errorf("generation.temperature must be within [0, 2], got %v", g.Temperature)
	}
	if g.TopP <= 0 || g.TopP > 1 {
		return fmt.Errorf("generation.top_p must be within (0, 1], got %v", g.TopP)
	}
	if g.MaxTokens <= 0 {
		return fmt.Errorf("generation.max_tokens must be positive")
	}
	if g.TimeoutSeconds <= 0 {
		return fmt.Errorf("generation.timeout_seconds must be positive")
	}

	if !g.Scheduled() {
		if _, ok := g.Backends[g.Backend]; !ok {
			return fmt.Errorf("generation.backend %q is not defined in generation.backends", g.Backend)
		}
	} else {
		refs := []string{g.Schedule.Default}
		for _, r := range g.Schedule.Rules {
			refs = append(refs, r.Backend)
		}
		for _, name := range refs {
			if name == "" || name == "disabled" {
				continue
			}
			if _, ok := g.Backends[name]; !ok {
				return fmt.Errorf("schedule references unknown backend %q", name)
			}
		}
	}

	switch c.Fallback.Selection {
	case SelectionRandom, SelectionRoundRobin:
	default:
		return fmt.Errorf("fallback.selection must be %q or %q", SelectionRandom, SelectionRoundRobin)
	}

	if c.Telegram.Enabled && c.Telegram.Token == "" {
		return fmt.Errorf("telegram is enabled but no token is configured")
	}
	return nil
}
