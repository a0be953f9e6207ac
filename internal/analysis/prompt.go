package analysis

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/BerylCAtieno/opportunity-analyzer/internal/models"
)

// AnalysisInput is everything the analysis prompt is built from.
type AnalysisInput struct {
	Query        string
	YelpResponse string
	Businesses   []models.Business
	Reviews      models.ReviewMap
}

// criterionHint pairs the hint used when reviews are available with the one
// used when scores must be inferred from listing data alone.
type criterionHint struct {
	label      string
	withReview string
	without    string
}

var criterionHints = []criterionHint{
	{"Service Speed", "(Based on review mentions of wait times, efficiency)", "(Infer from business type/rating)"},
	{"Price Fairness", "(Based on review mentions of value, pricing complaints)", "(Inverse of price symbol? High rating + Low price = 5)"},
	{"Product Quality", "(Based on review mentions of quality, taste, performance)", "(Correlate with Rating)"},
	{"Ambiance", "(Based on review mentions of atmosphere, decor, comfort)", "(Infer from category/price)"},
	{"Reliability", "(Based on review mentions of consistency, service quality)", "(Correlate with Review Count/Rating)"},
}

const personaInstructions = `5. Extract 2-3 distinct CUSTOMER PERSONAS from the reviews. For each persona:
   - Create a descriptive name (e.g., "The Busy Professional", "The Coffee Enthusiast", "The Remote Worker")
   - Identify demographic characteristics (age range, lifestyle, occupation type)
   - List 2-3 main goals/motivations for visiting these businesses
   - List 2-3 pain points with DIRECT QUOTES copied word for word from the reviews above as evidence
   - List 2-3 preferences or desires mentioned in reviews
   Make personas distinct from each other, representing different customer segments.
`

const analysisSchema = `{
  "summary": "Strategic summary text...",
  "criteria": [
    { "id": "c1", "label": "Service Speed", "description": "Efficiency of service delivery" },
    { "id": "c2", "label": "Price Fairness", "description": "Value for money" },
    { "id": "c3", "label": "Product Quality", "description": "Taste and freshness of the product" },
    { "id": "c4", "label": "Ambiance", "description": "Atmosphere and comfort" },
    { "id": "c5", "label": "Reliability", "description": "Consistency of experience" }
  ],
  "competitors": [
    {
      "id": "business-id-from-data",
      "name": "Competitor Name",
      "yelpUrl": "URL from data",
      "scores": { "c1": 5, "c2": 3, "c3": 4, "c4": 5, "c5": 4 }
    }
  ],
  "personas": [
    {
      "name": "The Busy Professional",
      "demographic": "Ages 28-40, working professionals seeking convenience",
      "goals": ["Quick service during work breaks", "Consistent quality", "Proximity to office"],
      "painPoints": [
        { "point": "Long wait times", "quote": "Waited 15 minutes just for a simple coffee order" },
        { "point": "Inconsistent quality", "quote": "Sometimes it's great, sometimes it's burnt" }
      ],
      "preferences": ["Mobile ordering", "Loyalty programs", "Multiple payment options"]
    }
  ]
}`

// BuildAnalysisPrompt renders the single completion prompt for a market
// analysis. The review section, the review-based criterion hints and the
// persona instructions only appear when at least one review is present.
func BuildAnalysisPrompt(in AnalysisInput) string {
	summaries := make([]models.BusinessSummary, 0, len(in.Businesses))
	for _, b := range in.Businesses {
		summaries = append(summaries, b.Summarize())
	}
	businessData := indentJSON(summaries)

	reviewSection := buildReviewSection(in.Businesses, in.Reviews)
	hasReviews := reviewSection != ""

	var b strings.Builder

	b.WriteString("You are a Business Opportunity Analyst.\n\n")
	fmt.Fprintf(&b, "The user asked: %q\n\n", in.Query)
	if in.YelpResponse != "" {
		fmt.Fprintf(&b, "Yelp AI responded: %q\n\n", in.YelpResponse)
	}

	b.WriteString("Analyze the following list of competitors found on Yelp:\n")
	b.WriteString(businessData)
	b.WriteString(reviewSection)

	b.WriteString("\nYour task:\n")
	b.WriteString("1. Identify the top 3 most relevant competitors from the list.\n")
	if hasReviews {
		b.WriteString("2. Analyze customer reviews to identify common complaints, strengths, and market gaps.\n")
	} else {
		b.WriteString("2. Analyze market gaps based on their ratings, prices, and review counts.\n")
	}

	b.WriteString("3. Assign integer scores (1-5) for the following criteria for each of the top 3 competitors:\n")
	for _, h := range criterionHints {
		hint := h.without
		if hasReviews {
			hint = h.withReview
		}
		fmt.Fprintf(&b, "   - %s %s\n", h.label, hint)
	}

	b.WriteString(`4. Write a strategic "Market Analysis Summary" (2-3 sentences) that goes BEYOND what Yelp said.` + "\n")
	if hasReviews {
		b.WriteString(`   Focus on specific themes from reviews (e.g., "customers complain about X", "gap in Y").` + "\n")
		b.WriteString(personaInstructions)
	} else {
		b.WriteString("   Focus on competitive gaps and opportunities for a new entrant.\n")
	}

	b.WriteString("\nCRITICAL: Return ONLY a valid JSON object with NO additional text before or after.\n")
	if hasReviews {
		b.WriteString(`You MUST include the "personas" array with 2-3 distinct personas based on the reviews.` + "\n")
	} else {
		b.WriteString(`You MUST include "personas" as an empty array: []` + "\n")
	}
	b.WriteString(`NEVER omit the "personas" field - it must ALWAYS be present in your response.` + "\n\n")

	b.WriteString("Use this EXACT structure:\n")
	b.WriteString(analysisSchema)
	b.WriteString("\n")

	return b.String()
}

// indentJSON renders v as indented JSON without HTML escaping, so names like
// "Coffee & Tea" reach the model unchanged. The result ends in a newline.
func indentJSON(v any) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return "[]\n"
	}
	return buf.String()
}

// buildReviewSection lists reviews per business in business order. It returns
// "" when no business has any review.
func buildReviewSection(businesses []models.Business, reviews models.ReviewMap) string {
	if reviews.Total() == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("\nCustomer Reviews:\n")

	wrote := false
	for _, biz := range businesses {
		rs := reviews[biz.ID]
		if len(rs) == 0 {
			continue
		}
		wrote = true
		fmt.Fprintf(&b, "\n%s:\n", biz.Name)
		for i, r := range rs {
			fmt.Fprintf(&b, "  Review %d (%d⭐): \"%s\"\n", i+1, r.Rating, r.Text)
		}
	}

	if !wrote {
		return ""
	}
	return b.String()
}

const followUpSchema = `{
  "mainInsight": "A 2-3 sentence key insight that directly answers the question. Be specific and reference data from the analysis.",
  "keyMoves": [
    "First actionable step or strategy (1-2 sentences)",
    "Second actionable step or strategy (1-2 sentences)",
    "Third actionable step or strategy (1-2 sentences)"
  ],
  "risksToAvoid": [
    "First risk or pitfall to avoid (1-2 sentences)",
    "Second risk or pitfall to avoid (1-2 sentences)"
  ]
}`

// reviewExcerptLen is how many characters of each review the follow-up
// context carries.
const reviewExcerptLen = 150

// BuildFollowUpPrompt renders the prompt for answering a question about an
// earlier analysis.
func BuildFollowUpPrompt(question string, fc models.FollowUpContext) string {
	var b strings.Builder

	b.WriteString("You are a Business Opportunity Analyst providing consulting-style insights. ")
	b.WriteString("Based on the market analysis context below, answer the following question in a structured, professional format.\n\n")
	b.WriteString(followUpContextText(fc))
	fmt.Fprintf(&b, "\nUser's follow-up question: %q\n\n", question)
	b.WriteString("Provide your answer in EXACTLY the following consulting-style structure. Return ONLY valid JSON with NO additional text:\n\n")
	b.WriteString(followUpSchema)
	b.WriteString("\n\nCRITICAL: Return ONLY the JSON object, no markdown code blocks, no explanatory text.\n")

	return b.String()
}

func followUpContextText(fc models.FollowUpContext) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Original user query: %q\n\nMarket Analysis Summary: %s\n\n", fc.Query, fc.Summary)

	if len(fc.Businesses) > 0 {
		b.WriteString("Competitors analyzed:\n")
		for i, biz := range fc.Businesses {
			price := biz.Price
			if price == "" {
				price = "N/A"
			}
			fmt.Fprintf(&b, "%d. %s - Rating: %g, Reviews: %d, Price: %s\n", i+1, biz.Name, biz.Rating, biz.ReviewCount, price)
		}
		b.WriteString("\n")
	}

	if fc.Reviews.Total() > 0 {
		b.WriteString("Customer review insights:\n")
		for _, biz := range fc.Businesses {
			rs := fc.Reviews[biz.ID]
			if len(rs) == 0 {
				continue
			}
			fmt.Fprintf(&b, "\n%s:\n", biz.Name)
			for _, r := range rs[:min(len(rs), 3)] {
				fmt.Fprintf(&b, "  - \"%s...\"\n", excerpt(r.Text, reviewExcerptLen))
			}
		}
		b.WriteString("\n")
	}

	if len(fc.Personas) > 0 {
		b.WriteString("Customer Personas identified:\n")
		for i, p := range fc.Personas {
			fmt.Fprintf(&b, "%d. %s - %s\n", i+1, p.Name, p.Demographic)
			if len(p.Goals) > 0 {
				fmt.Fprintf(&b, "   Goals: %s\n", strings.Join(p.Goals, ", "))
			}
			if len(p.PainPoints) > 0 {
				points := make([]string, 0, len(p.PainPoints))
				for _, pp := range p.PainPoints {
					points = append(points, pp.Point)
				}
				fmt.Fprintf(&b, "   Pain Points: %s\n", strings.Join(points, ", "))
			}
		}
	}

	return b.String()
}

// excerpt returns at most n runes of s.
func excerpt(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// SuggestFollowUpQuestion picks a follow-up question for an analysis:
// persona-driven first, then one keyed off the summary, then a generic one.
func SuggestFollowUpQuestion(fc models.FollowUpContext) string {
	if len(fc.Personas) > 0 {
		return fmt.Sprintf("How can I specifically address %s's pain points in my business model?", fc.Personas[0].Name)
	}

	summary := strings.ToLower(fc.Summary)
	switch {
	case strings.Contains(summary, "gap"), strings.Contains(summary, "opportunity"):
		return "What would be the most effective way to capitalize on these market gaps?"
	case strings.Contains(summary, "price"), strings.Contains(summary, "pricing"):
		return "What pricing strategy would be most competitive in this market?"
	}

	return "What are the biggest risks I should consider before entering this market?"
}
