package providers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/aws/smithy-go"

	"github.com/heartnote/heartnote/pkg/config"
)

type converseAPI interface {
	Converse(ctx context.Context, params *bedrockruntime.ConverseInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
}

// BedrockBackend uses the model-agnostic Converse API.
type BedrockBackend struct {
	client converseAPI
	model  string
}

func NewBedrockBackend(ctx context.Context, cfg config.BackendConfig) (*BedrockBackend, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRetryMaxAttempts(1),
	}
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return &BedrockBackend{
		client: bedrockruntime.NewFromConfig(awsCfg),
		model:  cfg.Model,
	}, nil
}

func (b *BedrockBackend) Name() string  { return "bedrock" }
func (b *BedrockBackend) Model() string { return b.model }

func (b *BedrockBackend) Generate(ctx context.Context, prompt string, opts Options) (string, error) {
	out, err := b.client.Converse(ctx, &bedrockruntime.ConverseInput{
		ModelId: aws.String(b.model),
		Messages: []types.Message{
			{
				Role:    types.ConversationRoleUser,
				Content: []types.ContentBlock{&types.ContentBlockMemberText{Value: prompt}},
			},
		},
		InferenceConfig: &types.InferenceConfiguration{
			Temperature: aws.Float32(float32(opts.Temperature)),
			TopP:        aws.Float32(float32(opts.TopP)),
			MaxTokens:   aws.Int32(int32(opts.MaxTokens)),
		},
	})
	if err != nil {
		return "", classifyBedrockError(err)
	}

	msg, ok := out.Output.(*types.ConverseOutputMemberMessage)
	if !ok {
		return "", newError(KindMalformed, b.Name(), 0, fmt.Errorf("bedrock: unexpected output type %T", out.Output))
	}
	var sb strings.Builder
	for _, block := range msg.Value.Content {
		if text, ok := block.(*types.ContentBlockMemberText); ok {
			sb.WriteString(text.Value)
		}
	}
	return sb.String(), nil
}

func classifyBedrockError(err error) error {
	var throttle *types.ThrottlingException
	if errors.As(err, &throttle) {
		return newError(KindRateLimited, "bedrock", 429, err)
	}
	var quota *types.ServiceQuotaExceededException
	if errors.As(err, &quota) {
		return newError(KindRateLimited, "bedrock", 429, err)
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) && apiErr.ErrorCode() == "ThrottlingException" {
		return newError(KindRateLimited, "bedrock", 429, err)
	}
	return newError(KindTransport, "bedrock", 0, err)
}
