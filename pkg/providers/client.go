package providers

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/heartnote/heartnote/pkg/config"
	"github.com/heartnote/heartnote/pkg/logger"
)

// Client wraps a Backend with the per-call policy: the administrative switch,
// a hard timeout, no retries, and output normalization.
type Client struct {
	backend  Backend
	opts     Options
	timeout  time.Duration
	disabled bool
}

func NewClient(backend Backend, cfg config.GenerationConfig) *Client {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		backend: backend,
		opts: Options{
			Temperature: cfg.Temperature,
			TopP:        cfg.TopP,
			MaxTokens:   cfg.MaxTokens,
		},
		timeout:  timeout,
		disabled: cfg.Disabled,
	}
}

// NewClientFromConfig builds the configured backend and wraps it.
func NewClientFromConfig(ctx context.Context, cfg config.GenerationConfig) (*Client, error) {
	backend, err := CreateBackend(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return NewClient(backend, cfg), nil
}

func (c *Client) Backend() Backend {
	return c.backend
}

// Generate performs exactly one backend call. The returned text is trimmed
// and never empty when err is nil.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	name := c.backend.Name()
	if c.disabled {
		return "", newError(KindDisabled, name, 0, ErrBackendDisabled)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	text, err := c.backend.Generate(ctx, prompt, c.opts)
	if err != nil {
		var ge *GenerationError
		if !errors.As(err, &ge) {
			ge = newError(KindTransport, name, 0, err)
		}
		logger.WarnCF("providers", "Generation failed", map[string]any{
			"backend":  name,
			"model":    c.backend.Model(),
			"kind":     string(ge.Kind),
			"duration": time.Since(start).String(),
			"error":    err.Error(),
		})
		return "", ge
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", newError(KindEmpty, name, 0, ErrEmptyResponse)
	}

	logger.DebugCF("providers", "Generation succeeded", map[string]any{
		"backend":  name,
		"model":    c.backend.Model(),
		"duration": time.Since(start).String(),
		"chars":    len(text),
	})
	return text, nil
}
