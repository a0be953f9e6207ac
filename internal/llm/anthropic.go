package llm

import (
	"context"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

const (
	defaultAnthropicModel     = "claude-sonnet-4-5-20250929"
	defaultAnthropicMaxTokens = 8192
)

// AnthropicClient completes prompts with the Anthropic Messages API.
type AnthropicClient struct {
	client      sdk.Client
	model       string
	maxTokens   int64
	temperature float64
}

func NewAnthropicClient(apiKey, model string, opts ...Option) *AnthropicClient {
	s := apply(opts)

	reqOpts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if s.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(s.baseURL))
	}

	if model == "" {
		model = defaultAnthropicModel
	}
	maxTokens := int64(defaultAnthropicMaxTokens)
	if s.maxOutputTokens > 0 {
		maxTokens = int64(s.maxOutputTokens)
	}

	return &AnthropicClient{
		client:      sdk.NewClient(reqOpts...),
		model:       model,
		maxTokens:   maxTokens,
		temperature: s.temperature,
	}
}

func (a *AnthropicClient) Complete(ctx context.Context, prompt string) (string, error) {
	params := sdk.MessageNewParams{
		Model:     sdk.Model(a.model),
		MaxTokens: a.maxTokens,
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(sdk.NewTextBlock(prompt)),
		},
	}
	if a.temperature > 0 {
		params.Temperature = sdk.Float(a.temperature)
	}

	msg, err := a.client.Messages.New(ctx, params)
	if err != nil {
		return "", eris.Wrap(err, "llm: anthropic create message")
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}

	output := strings.TrimSpace(sb.String())
	if output == "" {
		return "", ErrEmptyResponse
	}

	zap.L().Debug("anthropic completion",
		zap.String("model", a.model),
		zap.Int64("input_tokens", msg.Usage.InputTokens),
		zap.Int64("output_tokens", msg.Usage.OutputTokens),
	)
	return output, nil
}
