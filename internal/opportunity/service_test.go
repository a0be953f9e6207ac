package opportunity

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/BerylCAtieno/opportunity-analyzer/internal/analysis"
	llmmocks "github.com/BerylCAtieno/opportunity-analyzer/internal/llm/mocks"
	"github.com/BerylCAtieno/opportunity-analyzer/internal/models"
	"github.com/BerylCAtieno/opportunity-analyzer/internal/yelp"
	yelpmocks "github.com/BerylCAtieno/opportunity-analyzer/internal/yelp/mocks"
)

const analysisJSON = `{
  "summary": "Late-night demand is unmet.",
  "competitors": [{"id": "a", "name": "A", "yelpUrl": "https://yelp.com/biz/a", "scores": {"c1": 4, "c2": 3, "c3": 5, "c4": 2, "c5": 4}}],
  "personas": []
}`

var (
	bizA = models.Business{ID: "a", Name: "A", Rating: 4.5, URL: "https://yelp.com/biz/a"}
	bizB = models.Business{ID: "b", Name: "B", Rating: 3.9, URL: "https://yelp.com/biz/b"}
)

func newService(t *testing.T, completion string, completionErr error, opts ...Option) (*Service, *yelpmocks.MockClient) {
	t.Helper()

	yc := yelpmocks.NewMockClient(t)
	completer := llmmocks.NewMockCompleter(t)
	if completion != "" || completionErr != nil {
		completer.On("Complete", mock.Anything, mock.Anything).Return(completion, completionErr).Once()
	}

	return NewService(yc, analysis.NewGenerator(completer), opts...), yc
}

func TestAnalyze_InlineBusinesses(t *testing.T) {
	svc, yc := newService(t, analysisJSON, nil)

	reviews := models.ReviewMap{"a": {{Rating: 5, Text: "Open late, great tacos."}}, "b": {}}

	yc.On("Chat", mock.Anything, mock.Anything).Return(&yelp.ChatResult{
		ChatID:      "chat-1",
		Text:        "Here are some taco spots.",
		Businesses:  []models.Business{bizA, bizB},
		BusinessIDs: []string{"a", "b"},
	}, nil).Once()
	yc.On("Reviews", mock.Anything, []string{"a", "b"}).Return(reviews).Once()

	resp, err := svc.Analyze(context.Background(), models.AnalyzeRequest{Query: "  tacos in Austin  "})
	require.NoError(t, err)

	assert.Equal(t, "Late-night demand is unmet.", resp.Summary)
	assert.Equal(t, "Here are some taco spots.", resp.YelpInsight)
	assert.Equal(t, "chat-1", resp.ChatID)
	assert.Equal(t, reviews, resp.Reviews)
	assert.Len(t, resp.Criteria, 5)
	assert.Len(t, resp.Competitors, 1)
	assert.NotNil(t, resp.Personas)
}

func TestAnalyze_IDsOnlyFetchesDetails(t *testing.T) {
	svc, yc := newService(t, analysisJSON, nil)

	yc.On("Chat", mock.Anything, mock.Anything).Return(&yelp.ChatResult{
		Text:        "Found a couple.",
		Businesses:  []models.Business{},
		BusinessIDs: []string{"a", "b"},
	}, nil).Once()
	yc.On("BusinessDetails", mock.Anything, []string{"a", "b"}).Return([]models.Business{bizA}).Once()
	yc.On("Reviews", mock.Anything, []string{"a", "b"}).Return(models.ReviewMap{"a": {}, "b": {}}).Once()

	resp, err := svc.Analyze(context.Background(), models.AnalyzeRequest{Query: "tacos"})
	require.NoError(t, err)
	assert.Equal(t, "Found a couple.", resp.YelpInsight)
}

func TestAnalyze_ReviewsUseBusinessIDsWhenDiscoveryHasNone(t *testing.T) {
	svc, yc := newService(t, analysisJSON, nil)

	yc.On("Chat", mock.Anything, mock.Anything).Return(&yelp.ChatResult{
		Businesses:  []models.Business{bizA, bizB},
		BusinessIDs: []string{},
	}, nil).Once()
	yc.On("Reviews", mock.Anything, []string{"a", "b"}).Return(models.ReviewMap{"a": {}, "b": {}}).Once()

	_, err := svc.Analyze(context.Background(), models.AnalyzeRequest{Query: "tacos"})
	require.NoError(t, err)
}

func TestAnalyze_NoCompetitors(t *testing.T) {
	t.Run("nothing discovered", func(t *testing.T) {
		svc, yc := newService(t, "", nil)

		yc.On("Chat", mock.Anything, mock.Anything).Return(&yelp.ChatResult{
			Text:        "I couldn't find anything like that.",
			Businesses:  []models.Business{},
			BusinessIDs: []string{},
		}, nil).Once()

		_, err := svc.Analyze(context.Background(), models.AnalyzeRequest{Query: "unicorn stables"})

		var noComp *NoCompetitorsError
		require.ErrorAs(t, err, &noComp)
		assert.Equal(t, "I couldn't find anything like that.", noComp.Reply)
	})

	t.Run("detail fetch yields nothing", func(t *testing.T) {
		svc, yc := newService(t, "", nil)

		yc.On("Chat", mock.Anything, mock.Anything).Return(&yelp.ChatResult{
			Text:        "Try these.",
			Businesses:  []models.Business{},
			BusinessIDs: []string{"gone"},
		}, nil).Once()
		yc.On("BusinessDetails", mock.Anything, []string{"gone"}).Return([]models.Business{}).Once()

		_, err := svc.Analyze(context.Background(), models.AnalyzeRequest{Query: "tacos"})

		var noComp *NoCompetitorsError
		require.ErrorAs(t, err, &noComp)
		assert.Equal(t, "Try these.", noComp.Reply)
	})
}

func TestAnalyze_DiscoveryFailure(t *testing.T) {
	svc, yc := newService(t, "", nil)
	upstream := errors.New("unexpected status 401")

	yc.On("Chat", mock.Anything, mock.Anything).Return(nil, upstream).Once()

	_, err := svc.Analyze(context.Background(), models.AnalyzeRequest{Query: "tacos"})

	var discErr *DiscoveryError
	require.ErrorAs(t, err, &discErr)
	assert.ErrorIs(t, err, upstream)
}

func TestAnalyze_GenerationFailure(t *testing.T) {
	svc, yc := newService(t, "", errors.New("model overloaded"))

	yc.On("Chat", mock.Anything, mock.Anything).Return(&yelp.ChatResult{
		Businesses:  []models.Business{bizA},
		BusinessIDs: []string{"a"},
	}, nil).Once()
	yc.On("Reviews", mock.Anything, []string{"a"}).Return(models.ReviewMap{"a": {}}).Once()

	_, err := svc.Analyze(context.Background(), models.AnalyzeRequest{Query: "tacos"})

	var genErr *analysis.GenerationError
	require.ErrorAs(t, err, &genErr)
}

func TestAnalyze_QueryRequired(t *testing.T) {
	svc, _ := newService(t, "", nil)

	for _, q := range []string{"", "   ", "\n\t"} {
		_, err := svc.Analyze(context.Background(), models.AnalyzeRequest{Query: q})
		assert.ErrorIs(t, err, ErrQueryRequired)
	}
}

func TestAnalyze_Location(t *testing.T) {
	lat, lng := 30.2672, -97.7431
	zero := 0.0
	ptr := func(f float64) *float64 { return &f }

	tests := []struct {
		name string
		opts []Option
		req  models.AnalyzeRequest
		want yelp.ChatRequest
	}{
		{
			name: "package defaults",
			req:  models.AnalyzeRequest{Query: "tacos"},
			want: yelp.ChatRequest{Query: "tacos", Locale: "en_US", Latitude: ptr(40.7128), Longitude: ptr(-74.0060)},
		},
		{
			name: "configured defaults",
			opts: []Option{WithDefaultLocation(Location{Locale: "en_GB", Latitude: 51.5, Longitude: -0.12})},
			req:  models.AnalyzeRequest{Query: "tacos"},
			want: yelp.ChatRequest{Query: "tacos", Locale: "en_GB", Latitude: ptr(51.5), Longitude: ptr(-0.12)},
		},
		{
			name: "request overrides",
			req:  models.AnalyzeRequest{Query: "tacos", ChatID: "chat-9", Locale: "es_US", Latitude: &lat, Longitude: &lng},
			want: yelp.ChatRequest{Query: "tacos", Locale: "es_US", Latitude: ptr(lat), Longitude: ptr(lng), ChatID: "chat-9"},
		},
		{
			name: "zero coordinates are kept",
			req:  models.AnalyzeRequest{Query: "tacos", Latitude: &zero, Longitude: &zero},
			want: yelp.ChatRequest{Query: "tacos", Locale: "en_US", Latitude: ptr(0), Longitude: ptr(0)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, yc := newService(t, "", nil, tt.opts...)
			yc.On("Chat", mock.Anything, tt.want).Return(&yelp.ChatResult{}, nil).Once()

			_, err := svc.Analyze(context.Background(), tt.req)

			var noComp *NoCompetitorsError
			assert.ErrorAs(t, err, &noComp)
		})
	}
}

func TestFollowUp(t *testing.T) {
	svc, _ := newService(t, `{"mainInsight":"Stay open late.","keyMoves":["Extend hours"],"risksToAvoid":[]}`, nil)

	answer, err := svc.FollowUp(context.Background(), models.FollowUpRequest{
		Question: "What should I do first?",
		Context:  models.FollowUpContext{Query: "tacos", Summary: "Late-night gap."},
	})
	require.NoError(t, err)
	assert.Equal(t, "Stay open late.", answer.MainInsight)
	assert.Equal(t, []string{"Extend hours"}, answer.KeyMoves)
}

func TestFollowUp_QuestionRequired(t *testing.T) {
	svc, _ := newService(t, "", nil)

	_, err := svc.FollowUp(context.Background(), models.FollowUpRequest{Question: "  "})
	assert.ErrorIs(t, err, ErrQuestionRequired)
}

func TestSuggestQuestion(t *testing.T) {
	svc, _ := newService(t, "", nil)

	q := svc.SuggestQuestion(models.FollowUpContext{Personas: []models.Persona{{Name: "The Night Owl"}}})
	assert.Equal(t, "How can I specifically address The Night Owl's pain points in my business model?", q)
}
