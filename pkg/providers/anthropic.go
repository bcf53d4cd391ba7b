package providers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/heartnote/heartnote/pkg/config"
)

type AnthropicBackend struct {
	client anthropic.Client
	model  string
}

func NewAnthropicBackend(cfg config.BackendConfig) *AnthropicBackend {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &AnthropicBackend{
		client: anthropic.NewClient(opts...),
		model:  cfg.Model,
	}
}

func (b *AnthropicBackend) Name() string  { return "anthropic" }
func (b *AnthropicBackend) Model() string { return b.model }

// Generate sends temperature only; newer models reject temperature and top_p
// together.
func (b *AnthropicBackend) Generate(ctx context.Context, prompt string, opts Options) (string, error) {
	resp, err := b.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(b.model),
		MaxTokens: int64(opts.MaxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
		Temperature: anthropic.Float(opts.Temperature),
	})
	if err != nil {
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			return "", statusError(b.Name(), apiErr.StatusCode, err)
		}
		return "", newError(KindTransport, b.Name(), 0, err)
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if len(resp.Content) == 0 {
		return "", newError(KindMalformed, b.Name(), 0, fmt.Errorf("anthropic: no content blocks"))
	}
	return sb.String(), nil
}
