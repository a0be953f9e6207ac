package llm

import (
	"context"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

const defaultGeminiModel = "gemini-2.5-flash"

type GeminiClient struct {
	client *genai.Client
	model  *genai.GenerativeModel
	name   string
}

func NewGeminiClient(ctx context.Context, apiKey, modelName string, opts ...Option) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, eris.Wrap(err, "llm: create Gemini client")
	}

	if modelName == "" {
		modelName = defaultGeminiModel
	}

	s := apply(opts)
	model := client.GenerativeModel(modelName)
	model.SetTopP(0.95)
	if s.temperature > 0 {
		model.SetTemperature(float32(s.temperature))
	}
	if s.maxOutputTokens > 0 {
		model.SetMaxOutputTokens(int32(s.maxOutputTokens))
	}

	return &GeminiClient{
		client: client,
		model:  model,
		name:   modelName,
	}, nil
}

func (g *GeminiClient) Close() error {
	return g.client.Close()
}

func (g *GeminiClient) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := g.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", eris.Wrap(err, "llm: gemini generate content")
	}

	text := responseText(resp)
	if text == "" {
		return "", ErrEmptyResponse
	}

	zap.L().Debug("gemini completion",
		zap.String("model", g.name),
		zap.Int("prompt_chars", len(prompt)),
		zap.Int("output_chars", len(text)),
	)
	return text, nil
}

// responseText joins the text parts of the first candidate.
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	content := resp.Candidates[0].Content
	if content == nil {
		return ""
	}

	var sb strings.Builder
	for _, part := range content.Parts {
		if t, ok := part.(genai.Text); ok {
			sb.WriteString(string(t))
		}
	}
	return strings.TrimSpace(sb.String())
}
