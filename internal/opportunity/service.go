// Package opportunity runs the market-opportunity pipeline: discovery,
// detail fetch, review enrichment, analysis and response assembly.
package opportunity

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/BerylCAtieno/opportunity-analyzer/internal/analysis"
	"github.com/BerylCAtieno/opportunity-analyzer/internal/models"
	"github.com/BerylCAtieno/opportunity-analyzer/internal/yelp"
)

// Analyzer produces the competitive analysis and answers follow-ups.
type Analyzer interface {
	Analyze(ctx context.Context, in analysis.AnalysisInput) (*models.AnalysisResult, error)
	AnswerFollowUp(ctx context.Context, question string, fc models.FollowUpContext) (*models.FollowUpAnswer, error)
}

// Location is the user context sent with discovery queries that carry none.
type Location struct {
	Locale    string
	Latitude  float64
	Longitude float64
}

// Option configures a Service.
type Option func(*Service)

// WithDefaultLocation sets the location used when a request has none.
func WithDefaultLocation(loc Location) Option {
	return func(s *Service) {
		s.location = loc
	}
}

type Service struct {
	yelp     yelp.Client
	analyzer Analyzer
	location Location
}

func NewService(yc yelp.Client, analyzer Analyzer, opts ...Option) *Service {
	s := &Service{
		yelp:     yc,
		analyzer: analyzer,
		location: Location{
			Locale:    yelp.DefaultLocale,
			Latitude:  yelp.DefaultLatitude,
			Longitude: yelp.DefaultLongitude,
		},
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Analyze runs the full pipeline for one query.
//
// A failed discovery call returns *DiscoveryError. When neither discovery nor
// the detail fetch yields a business, *NoCompetitorsError carries Yelp's reply.
// Analysis failures are returned as *analysis.GenerationError.
func (s *Service) Analyze(ctx context.Context, req models.AnalyzeRequest) (*models.AnalyzeResponse, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, ErrQueryRequired
	}

	log := zap.L().With(zap.String("query", query))

	chat, err := s.yelp.Chat(ctx, s.chatRequest(query, req))
	if err != nil {
		log.Error("discovery failed", zap.Error(err))
		return nil, &DiscoveryError{Err: err}
	}

	businesses := chat.Businesses
	if len(businesses) == 0 && len(chat.BusinessIDs) > 0 {
		log.Info("discovery returned ids only, fetching details", zap.Int("ids", len(chat.BusinessIDs)))
		businesses = s.yelp.BusinessDetails(ctx, chat.BusinessIDs)
	}

	if len(businesses) == 0 {
		log.Info("no competitors found")
		return nil, &NoCompetitorsError{Reply: chat.Text}
	}

	ids := chat.BusinessIDs
	if len(ids) == 0 {
		ids = businessIDs(businesses)
	}
	reviews := s.yelp.Reviews(ctx, ids)

	log.Info("analyzing competitors",
		zap.Int("businesses", len(businesses)),
		zap.Int("reviews", reviews.Total()),
	)

	result, err := s.analyzer.Analyze(ctx, analysis.AnalysisInput{
		Query:        query,
		YelpResponse: chat.Text,
		Businesses:   businesses,
		Reviews:      reviews,
	})
	if err != nil {
		log.Error("analysis failed", zap.Error(err))
		return nil, err
	}

	return &models.AnalyzeResponse{
		Summary:     result.Summary,
		Criteria:    result.Criteria,
		Competitors: result.Competitors,
		Personas:    result.Personas,
		YelpInsight: chat.Text,
		ChatID:      chat.ChatID,
		Reviews:     reviews,
	}, nil
}

func (s *Service) chatRequest(query string, req models.AnalyzeRequest) yelp.ChatRequest {
	lat, lng := s.location.Latitude, s.location.Longitude
	if req.Latitude != nil {
		lat = *req.Latitude
	}
	if req.Longitude != nil {
		lng = *req.Longitude
	}

	cr := yelp.ChatRequest{
		Query:     query,
		Locale:    s.location.Locale,
		Latitude:  &lat,
		Longitude: &lng,
		ChatID:    req.ChatID,
	}
	if req.Locale != "" {
		cr.Locale = req.Locale
	}
	return cr
}

func businessIDs(businesses []models.Business) []string {
	ids := make([]string, 0, len(businesses))
	for _, b := range businesses {
		ids = append(ids, b.ID)
	}
	return ids
}

// FollowUp answers a question about an earlier analysis.
func (s *Service) FollowUp(ctx context.Context, req models.FollowUpRequest) (*models.FollowUpAnswer, error) {
	question := strings.TrimSpace(req.Question)
	if question == "" {
		return nil, ErrQuestionRequired
	}
	return s.analyzer.AnswerFollowUp(ctx, question, req.Context)
}

// SuggestQuestion proposes a follow-up question for an earlier analysis.
func (s *Service) SuggestQuestion(fc models.FollowUpContext) string {
	return analysis.SuggestFollowUpQuestion(fc)
}
