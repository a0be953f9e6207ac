package models

// Criterion is one of the fixed scoring dimensions competitors are rated on.
type Criterion struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Description string `json:"description"`
}

// DefaultCriteria returns the five scoring criteria, in order c1..c5.
func DefaultCriteria() []Criterion {
	return []Criterion{
		{ID: "c1", Label: "Service Speed", Description: "Efficiency of service delivery"},
		{ID: "c2", Label: "Price Fairness", Description: "Value for money"},
		{ID: "c3", Label: "Product Quality", Description: "Taste and freshness of the product"},
		{ID: "c4", Label: "Ambiance", Description: "Atmosphere and comfort"},
		{ID: "c5", Label: "Reliability", Description: "Consistency of experience"},
	}
}

type Competitor struct {
	ID      string         `json:"id"`
	Name    string         `json:"name"`
	YelpURL string         `json:"yelpUrl"`
	Scores  map[string]int `json:"scores"`
}

type PainPoint struct {
	Point string `json:"point"`
	Quote string `json:"quote"`
}

// Persona is a customer archetype synthesized from review text.
type Persona struct {
	Name        string      `json:"name"`
	Demographic string      `json:"demographic"`
	Goals       []string    `json:"goals"`
	PainPoints  []PainPoint `json:"painPoints"`
	Preferences []string    `json:"preferences"`
}

// AnalysisResult is the competitive analysis produced by the completion model.
type AnalysisResult struct {
	Summary     string       `json:"summary"`
	Criteria    []Criterion  `json:"criteria"`
	Competitors []Competitor `json:"competitors"`
	Personas    []Persona    `json:"personas"`
}

// AnalyzeRequest is the body of POST /analyze. Everything but Query is optional
// and falls back to configured defaults.
type AnalyzeRequest struct {
	Query     string   `json:"query"`
	ChatID    string   `json:"chat_id,omitempty"`
	Locale    string   `json:"locale,omitempty"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

// AnalyzeResponse merges the analysis with the discovery conversation and the
// reviews that informed it.
type AnalyzeResponse struct {
	Summary     string       `json:"summary"`
	Criteria    []Criterion  `json:"criteria"`
	Competitors []Competitor `json:"competitors"`
	Personas    []Persona    `json:"personas"`
	YelpInsight string       `json:"yelp_insight"`
	ChatID      string       `json:"chat_id"`
	Reviews     ReviewMap    `json:"reviews"`
}

// FollowUpContext is the prior analysis a follow-up question is answered against.
type FollowUpContext struct {
	Query      string     `json:"query"`
	Summary    string     `json:"summary"`
	Businesses []Business `json:"businesses"`
	Reviews    ReviewMap  `json:"reviews"`
	Personas   []Persona  `json:"personas"`
}

type FollowUpRequest struct {
	Question string          `json:"question"`
	Context  FollowUpContext `json:"context"`
}

// FollowUpAnswer is a consulting-style answer to a follow-up question.
type FollowUpAnswer struct {
	MainInsight  string   `json:"mainInsight"`
	KeyMoves     []string `json:"keyMoves"`
	RisksToAvoid []string `json:"risksToAvoid"`
}
