// Package llm wraps the text-completion providers behind a single
// prompt-in, text-out interface.
package llm

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/BerylCAtieno/opportunity-analyzer/internal/config"
)

// Completer sends one prompt and returns the model's raw text output.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// ErrEmptyResponse is returned when a provider answers with no text.
var ErrEmptyResponse = eris.New("llm: model returned an empty response")

// New builds the Completer selected by cfg.Provider. The returned close func
// releases provider resources and is always non-nil.
func New(ctx context.Context, cfg config.LLMConfig) (Completer, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Provider {
	case config.ProviderGemini, "":
		c, err := NewGeminiClient(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model,
			WithTemperature(cfg.Temperature), WithMaxOutputTokens(cfg.MaxOutputTokens))
		if err != nil {
			return nil, noop, err
		}
		return c, c.Close, nil
	case config.ProviderOpenAI:
		return NewOpenAIClient(cfg.OpenAI.APIKey, cfg.OpenAI.Model,
			WithMaxOutputTokens(cfg.MaxOutputTokens)), noop, nil
	case config.ProviderAnthropic:
		return NewAnthropicClient(cfg.Anthropic.APIKey, cfg.Anthropic.Model,
			WithTemperature(cfg.Temperature), WithMaxOutputTokens(cfg.MaxOutputTokens)), noop, nil
	default:
		return nil, noop, eris.Errorf("llm: unknown provider %q", cfg.Provider)
	}
}

// Option tunes generation parameters shared by all providers.
type Option func(*settings)

type settings struct {
	temperature     float64
	maxOutputTokens int
	baseURL         string
}

// WithTemperature sets the sampling temperature. Zero keeps the provider default.
func WithTemperature(t float64) Option {
	return func(s *settings) { s.temperature = t }
}

// WithMaxOutputTokens caps the response length. Zero keeps the provider default.
func WithMaxOutputTokens(n int) Option {
	return func(s *settings) { s.maxOutputTokens = n }
}

// WithBaseURL points the OpenAI or Anthropic SDK at another endpoint.
func WithBaseURL(url string) Option {
	return func(s *settings) { s.baseURL = url }
}

func apply(opts []Option) settings {
	var s settings
	for _, o := range opts {
		o(&s)
	}
	return s
}
