package main

import (
	"context"
	"net/http"
	"time"

	"github.com/rotisserie/eris"

	"github.com/BerylCAtieno/opportunity-analyzer/internal/analysis"
	"github.com/BerylCAtieno/opportunity-analyzer/internal/config"
	"github.com/BerylCAtieno/opportunity-analyzer/internal/llm"
	"github.com/BerylCAtieno/opportunity-analyzer/internal/opportunity"
	"github.com/BerylCAtieno/opportunity-analyzer/internal/yelp"
)

// initService validates cfg and wires the Yelp client, the completion
// provider and the pipeline. The returned close func is always non-nil.
func initService(ctx context.Context, cfg *config.Config) (*opportunity.Service, func() error, error) {
	noop := func() error { return nil }

	if err := cfg.Validate(); err != nil {
		return nil, noop, err
	}

	completer, closeLLM, err := llm.New(ctx, cfg.LLM)
	if err != nil {
		return nil, noop, eris.Wrap(err, "init llm")
	}

	yc := yelp.NewClient(cfg.Yelp.APIKey, yelpOptions(cfg.Yelp)...)

	svc := opportunity.NewService(yc, analysis.NewGenerator(completer),
		opportunity.WithDefaultLocation(opportunity.Location{
			Locale:    cfg.Yelp.Locale,
			Latitude:  cfg.Yelp.Latitude,
			Longitude: cfg.Yelp.Longitude,
		}),
	)

	return svc, closeLLM, nil
}

func yelpOptions(c config.YelpConfig) []yelp.Option {
	opts := []yelp.Option{
		yelp.WithReviewLimit(c.ReviewLimit),
		yelp.WithConcurrency(c.FetchConcurrency),
	}
	if c.BaseURL != "" {
		opts = append(opts, yelp.WithBaseURL(c.BaseURL))
	}
	if c.TimeoutSecs > 0 {
		opts = append(opts, yelp.WithHTTPClient(&http.Client{
			Timeout: time.Duration(c.TimeoutSecs) * time.Second,
		}))
	}
	return opts
}
