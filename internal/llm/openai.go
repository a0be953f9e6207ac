package llm

import (
	"context"
	"strings"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/responses"
	"github.com/openai/openai-go/v3/shared"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

const defaultOpenAIModel = shared.ResponsesModel("gpt-5.1")

// OpenAIClient completes prompts with the OpenAI Responses API.
type OpenAIClient struct {
	client          *openai.Client
	model           shared.ResponsesModel
	maxOutputTokens int
}

func NewOpenAIClient(apiKey, model string, opts ...Option) *OpenAIClient {
	s := apply(opts)

	reqOpts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if s.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(s.baseURL))
	}
	client := openai.NewClient(reqOpts...)

	m := defaultOpenAIModel
	if model != "" {
		m = shared.ResponsesModel(model)
	}

	return &OpenAIClient{client: &client, model: m, maxOutputTokens: s.maxOutputTokens}
}

func (o *OpenAIClient) Complete(ctx context.Context, prompt string) (string, error) {
	params := responses.ResponseNewParams{
		Model: o.model,
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: responses.ResponseInputParam{
				responses.ResponseInputItemParamOfMessage(prompt, responses.EasyInputMessageRoleUser),
			},
		},
	}
	if o.maxOutputTokens > 0 {
		params.MaxOutputTokens = openai.Int(int64(o.maxOutputTokens))
	}

	resp, err := o.client.Responses.New(ctx, params)
	if err != nil {
		return "", eris.Wrap(err, "llm: call OpenAI")
	}

	output := strings.TrimSpace(resp.OutputText())
	if output == "" {
		return "", ErrEmptyResponse
	}

	zap.L().Debug("openai completion",
		zap.String("model", string(o.model)),
		zap.Int("output_chars", len(output)),
	)
	return output, nil
}
