package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/heartnote/heartnote/pkg/config"
)

const defaultOllamaBase = "http://localhost:11434"

// OllamaBackend talks to a local Ollama server through /api/generate.
type OllamaBackend struct {
	model     string
	apiBase   string
	keepAlive string
	numCtx    int
	client    *http.Client
}

func NewOllamaBackend(cfg config.BackendConfig) *OllamaBackend {
	apiBase := cfg.BaseURL
	if apiBase == "" {
		apiBase = defaultOllamaBase
	}
	// older configs point at the OpenAI-compatible path
	apiBase = strings.TrimSuffix(strings.TrimRight(apiBase, "/"), "/v1")

	return &OllamaBackend{
		model:     cfg.Model,
		apiBase:   apiBase,
		keepAlive: cfg.KeepAlive,
		numCtx:    cfg.NumCtx,
		client:    &http.Client{},
	}
}

func (b *OllamaBackend) Name() string  { return "ollama" }
func (b *OllamaBackend) Model() string { return b.model }

type ollamaRequest struct {
	Model     string         `json:"model"`
	Prompt    string         `json:"prompt"`
	Stream    bool           `json:"stream"`
	Options   map[string]any `json:"options,omitempty"`
	KeepAlive string         `json:"keep_alive,omitempty"`
}

type ollamaResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
	Error    string `json:"error,omitempty"`
}

func (b *OllamaBackend) Generate(ctx context.Context, prompt string, opts Options) (string, error) {
	options := map[string]any{
		"temperature": opts.Temperature,
		"top_p":       opts.TopP,
		"num_predict": opts.MaxTokens,
	}
	if b.numCtx > 0 {
		options["num_ctx"] = b.numCtx
	}

	jsonData, err := json.Marshal(ollamaRequest{
		Model:     b.model,
		Prompt:    prompt,
		Stream:    false,
		Options:   options,
		KeepAlive: b.keepAlive,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.apiBase+"/api/generate", bytes.NewReader(jsonData))
	if err != nil {
		return "", newError(KindTransport, b.Name(), 0, fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return "", newError(KindTransport, b.Name(), 0, fmt.Errorf("failed to send request: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", newError(KindTransport, b.Name(), resp.StatusCode, fmt.Errorf("failed to read response: %w", err))
	}

	if resp.StatusCode != http.StatusOK {
		return "", statusError(b.Name(), resp.StatusCode, fmt.Errorf("ollama request failed: %s", truncate(string(body), 200)))
	}

	var apiResp ollamaResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return "", newError(KindMalformed, b.Name(), resp.StatusCode, fmt.Errorf("failed to unmarshal response: %w", err))
	}
	if apiResp.Error != "" {
		return "", newError(KindTransport, b.Name(), resp.StatusCode, fmt.Errorf("ollama: %s", apiResp.Error))
	}
	return apiResp.Response, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
