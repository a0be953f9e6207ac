package analysis

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/BerylCAtieno/opportunity-analyzer/internal/models"
)

func TestBuildAnalysisPrompt_WithReviews(t *testing.T) {
	prompt := BuildAnalysisPrompt(williamsburgInput())

	assert.Contains(t, prompt, `The user asked: "coffee shops in Williamsburg"`)
	assert.Contains(t, prompt, `Yelp AI responded: "Here are some popular coffee shops in Williamsburg."`)
	assert.Contains(t, prompt, `"review_count": 1200`)
	assert.Contains(t, prompt, "Customer Reviews:")
	assert.Contains(t, prompt, "\nDevoción:\n")
	assert.Contains(t, prompt, `  Review 2 (5⭐): "Best beans in Brooklyn, worth the price."`)
	assert.Contains(t, prompt, "(Based on review mentions of wait times, efficiency)")
	assert.Contains(t, prompt, "CUSTOMER PERSONAS")
	assert.Contains(t, prompt, `You MUST include the "personas" array`)

	// businesses without reviews get no heading
	assert.NotContains(t, prompt, "\nSweatshop:\n")
}

func TestBuildAnalysisPrompt_WithoutReviews(t *testing.T) {
	in := williamsburgInput()
	in.YelpResponse = ""
	in.Reviews = models.ReviewMap{"biz-a": {}, "biz-b": {}}

	prompt := BuildAnalysisPrompt(in)

	assert.NotContains(t, prompt, "Yelp AI responded")
	assert.NotContains(t, prompt, "Customer Reviews:")
	assert.NotContains(t, prompt, "CUSTOMER PERSONAS")
	assert.Contains(t, prompt, "(Infer from business type/rating)")
	assert.Contains(t, prompt, `You MUST include "personas" as an empty array: []`)
	assert.Contains(t, prompt, `NEVER omit the "personas" field`)
}

func TestBuildAnalysisPrompt_ReviewsForUnknownBusiness(t *testing.T) {
	in := AnalysisInput{
		Query:      "q",
		Businesses: []models.Business{{ID: "a", Name: "A"}},
		Reviews:    models.ReviewMap{"other": {{Rating: 4, Text: "great"}}},
	}

	prompt := BuildAnalysisPrompt(in)
	assert.NotContains(t, prompt, "Customer Reviews:")
	assert.NotContains(t, prompt, "CUSTOMER PERSONAS")
}

func TestBuildFollowUpPrompt(t *testing.T) {
	long := strings.Repeat("a", 200)
	fc := models.FollowUpContext{
		Query:   "coffee shops in Williamsburg",
		Summary: "A gap in fast service.",
		Businesses: []models.Business{
			{ID: "biz-a", Name: "Devoción", Rating: 4.5, ReviewCount: 1200, Price: "$$"},
			{ID: "biz-b", Name: "Partners Coffee", Rating: 4, ReviewCount: 800},
		},
		Reviews: models.ReviewMap{"biz-a": {{Text: long}}},
		Personas: []models.Persona{{
			Name:        "The Busy Professional",
			Demographic: "Ages 28-40",
			Goals:       []string{"Fast service", "Consistency"},
			PainPoints:  []models.PainPoint{{Point: "Long waits"}, {Point: "Burnt coffee"}},
		}},
	}

	prompt := BuildFollowUpPrompt("How do I price?", fc)

	assert.Contains(t, prompt, `Original user query: "coffee shops in Williamsburg"`)
	assert.Contains(t, prompt, "Market Analysis Summary: A gap in fast service.")
	assert.Contains(t, prompt, "1. Devoción - Rating: 4.5, Reviews: 1200, Price: $$")
	assert.Contains(t, prompt, "2. Partners Coffee - Rating: 4, Reviews: 800, Price: N/A")
	assert.Contains(t, prompt, `  - "`+strings.Repeat("a", 150)+`..."`)
	assert.NotContains(t, prompt, strings.Repeat("a", 151))
	assert.Contains(t, prompt, "1. The Busy Professional - Ages 28-40")
	assert.Contains(t, prompt, "   Goals: Fast service, Consistency")
	assert.Contains(t, prompt, "   Pain Points: Long waits, Burnt coffee")
	assert.Contains(t, prompt, `User's follow-up question: "How do I price?"`)
	assert.Contains(t, prompt, `"mainInsight"`)
}

func TestSuggestFollowUpQuestion(t *testing.T) {
	tests := []struct {
		name string
		fc   models.FollowUpContext
		want string
	}{
		{
			name: "persona first",
			fc: models.FollowUpContext{
				Summary:  "There is a pricing gap.",
				Personas: []models.Persona{{Name: "The Remote Worker"}, {Name: "The Student"}},
			},
			want: "How can I specifically address The Remote Worker's pain points in my business model?",
		},
		{
			name: "gap in summary",
			fc:   models.FollowUpContext{Summary: "A clear GAP exists for late-night cafes."},
			want: "What would be the most effective way to capitalize on these market gaps?",
		},
		{
			name: "opportunity in summary",
			fc:   models.FollowUpContext{Summary: "Big opportunity downtown."},
			want: "What would be the most effective way to capitalize on these market gaps?",
		},
		{
			name: "pricing in summary",
			fc:   models.FollowUpContext{Summary: "Competitors differ mostly on pricing."},
			want: "What pricing strategy would be most competitive in this market?",
		},
		{
			name: "default",
			fc:   models.FollowUpContext{Summary: "Crowded market."},
			want: "What are the biggest risks I should consider before entering this market?",
		},
		{
			name: "empty context",
			want: "What are the biggest risks I should consider before entering this market?",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SuggestFollowUpQuestion(tt.fc))
		})
	}
}

func TestBuildAnalysisPrompt_NoHTMLEscaping(t *testing.T) {
	in := AnalysisInput{
		Query: "q",
		Businesses: []models.Business{{
			ID:         "a",
			Name:       "A & B",
			Categories: []models.Category{{Alias: "coffee", Title: "Coffee & Tea"}},
		}},
	}

	prompt := BuildAnalysisPrompt(in)
	assert.Contains(t, prompt, `"categories": "Coffee & Tea"`)
	assert.Contains(t, prompt, `"name": "A & B"`)
}
