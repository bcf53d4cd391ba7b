package providers

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/heartnote/heartnote/pkg/config"
)

// OpenAIBackend covers the hosted API and any OpenAI-compatible local server
// (LM Studio, llama.cpp, vLLM) reached through BaseURL.
type OpenAIBackend struct {
	client     openai.Client
	model      string
	compatible bool
}

func NewOpenAIBackend(cfg config.BackendConfig) *OpenAIBackend {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &OpenAIBackend{
		client:     openai.NewClient(opts...),
		model:      cfg.Model,
		compatible: cfg.BaseURL != "",
	}
}

func (b *OpenAIBackend) Name() string  { return "openai" }
func (b *OpenAIBackend) Model() string { return b.model }

func (b *OpenAIBackend) Generate(ctx context.Context, prompt string, opts Options) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(b.model),
		Messages:    []openai.ChatCompletionMessageParamUnion{openai.UserMessage(prompt)},
		Temperature: openai.Float(opts.Temperature),
		TopP:        openai.Float(opts.TopP),
	}
	// local servers generally only understand the older max_tokens field
	if b.compatible {
		params.MaxTokens = openai.Int(int64(opts.MaxTokens))
	} else {
		params.MaxCompletionTokens = openai.Int(int64(opts.MaxTokens))
	}

	resp, err := b.client.Chat.Completions.New(ctx, params)
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return "", statusError(b.Name(), apiErr.StatusCode, err)
		}
		return "", newError(KindTransport, b.Name(), 0, err)
	}
	if len(resp.Choices) == 0 {
		return "", newError(KindMalformed, b.Name(), 0, fmt.Errorf("openai: empty choices"))
	}
	return resp.Choices[0].Message.Content, nil
}
