// Package analysis turns discovered businesses and their reviews into a
// structured competitive analysis with a single completion call, and answers
// follow-up questions about that analysis.
package analysis

import (
	"context"
	"math"
	"slices"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/BerylCAtieno/opportunity-analyzer/internal/llm"
	"github.com/BerylCAtieno/opportunity-analyzer/internal/models"
)

const (
	maxCompetitors = 3
	minScore       = 1
	maxScore       = 5
	neutralScore   = 3
)

// ErrMissingSummary is returned when the completion JSON has no summary field.
var ErrMissingSummary = eris.New("analysis JSON is missing the summary field")

// Generator runs analysis and follow-up prompts against a completion model.
type Generator struct {
	llm llm.Completer
}

func NewGenerator(c llm.Completer) *Generator {
	return &Generator{llm: c}
}

type rawCompetitor struct {
	ID      string         `json:"id"`
	Name    string         `json:"name"`
	YelpURL string         `json:"yelpUrl"`
	Scores  map[string]any `json:"scores"`
}

type rawAnalysis struct {
	Summary     *string          `json:"summary"`
	Competitors []rawCompetitor  `json:"competitors"`
	Personas    []models.Persona `json:"personas"`
}

// Analyze builds the analysis prompt, runs one completion and parses the
// result. Any failure is returned as a *GenerationError.
func (g *Generator) Analyze(ctx context.Context, in AnalysisInput) (*models.AnalysisResult, error) {
	prompt := BuildAnalysisPrompt(in)

	text, err := g.llm.Complete(ctx, prompt)
	if err != nil {
		return nil, generationError("complete", err)
	}

	raw, err := decodeCompletion[rawAnalysis](text)
	if err != nil {
		zap.L().Error("failed to parse analysis", zap.Error(err), zap.String("completion", truncate(text, 500)))
		return nil, generationError("parse", err)
	}
	if raw.Summary == nil {
		return nil, generationError("parse", ErrMissingSummary)
	}

	result := &models.AnalysisResult{
		Summary:     *raw.Summary,
		Criteria:    models.DefaultCriteria(),
		Competitors: normalizeCompetitors(raw.Competitors, in.Businesses),
		Personas:    normalizePersonas(raw.Personas),
	}

	if in.Reviews.Total() > 0 {
		result.Personas = verifyQuotes(result.Personas, in.Reviews)
	}

	zap.L().Info("analysis complete",
		zap.Int("competitors", len(result.Competitors)),
		zap.Int("personas", len(result.Personas)),
	)

	return result, nil
}

// normalizeCompetitors keeps at most three competitors and gives each one an
// integer score in [1,5] for every criterion.
func normalizeCompetitors(raw []rawCompetitor, businesses []models.Business) []models.Competitor {
	urls := make(map[string]string, len(businesses))
	for _, b := range businesses {
		urls[b.ID] = b.URL
	}

	raw = raw[:min(len(raw), maxCompetitors)]
	competitors := make([]models.Competitor, 0, len(raw))

	for _, rc := range raw {
		c := models.Competitor{
			ID:      rc.ID,
			Name:    rc.Name,
			YelpURL: rc.YelpURL,
			Scores:  make(map[string]int, 5),
		}
		if c.YelpURL == "" {
			c.YelpURL = urls[rc.ID]
		}

		for _, cr := range models.DefaultCriteria() {
			score, ok := toScore(rc.Scores[cr.ID])
			if !ok {
				score = neutralScore
			}
			c.Scores[cr.ID] = score
		}

		competitors = append(competitors, c)
	}

	return competitors
}

// toScore accepts numbers and numeric strings, rounds and clamps to [1,5].
func toScore(v any) (int, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}

	if math.IsNaN(f) {
		return 0, false
	}

	score := int(math.Round(f))
	return max(minScore, min(maxScore, score)), true
}

func normalizePersonas(personas []models.Persona) []models.Persona {
	if personas == nil {
		return []models.Persona{}
	}
	for i := range personas {
		p := &personas[i]
		if p.Goals == nil {
			p.Goals = []string{}
		}
		if p.PainPoints == nil {
			p.PainPoints = []models.PainPoint{}
		}
		if p.Preferences == nil {
			p.Preferences = []string{}
		}
	}
	return personas
}

// verifyQuotes drops pain points whose quote does not appear in any review.
// Matching ignores case, runs of whitespace, surrounding quote marks and
// ellipses. A kept quote is replaced with the exact text of the review it
// matched, so every quote is a literal substring of some review body.
func verifyQuotes(personas []models.Persona, reviews models.ReviewMap) []models.Persona {
	corpus := make([]foldedText, 0, reviews.Total())
	for _, rs := range reviews {
		for _, r := range rs {
			corpus = append(corpus, foldText(r.Text))
		}
	}

	for i := range personas {
		p := &personas[i]
		kept := make([]models.PainPoint, 0, len(p.PainPoints))
		for _, pp := range p.PainPoints {
			if quote, ok := matchQuote(pp.Quote, corpus); ok {
				pp.Quote = quote
				kept = append(kept, pp)
				continue
			}
			zap.L().Warn("dropping pain point with unverified quote",
				zap.String("persona", p.Name),
				zap.String("point", pp.Point),
				zap.String("quote", pp.Quote),
			)
		}
		p.PainPoints = kept
	}

	return personas
}

const quoteMarks = "\"'“”‘’"

// foldedText is s lowercased with whitespace runs collapsed to one space.
// spans[i] is the byte range in raw that folded[i] came from.
type foldedText struct {
	raw    string
	folded []rune
	spans  [][2]int
}

func foldText(s string) foldedText {
	ft := foldedText{raw: s}
	space := false

	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if unicode.IsSpace(r) {
			space = len(ft.folded) > 0
			i += size
			continue
		}
		if space {
			ft.folded = append(ft.folded, ' ')
			ft.spans = append(ft.spans, [2]int{i, i})
			space = false
		}
		ft.folded = append(ft.folded, unicode.ToLower(r))
		ft.spans = append(ft.spans, [2]int{i, i + size})
		i += size
	}

	return ft
}

// find returns the raw text whose folded form is q.
func (ft foldedText) find(q []rune) (string, bool) {
	for i := 0; i+len(q) <= len(ft.folded); i++ {
		if slices.Equal(ft.folded[i:i+len(q)], q) {
			return ft.raw[ft.spans[i][0]:ft.spans[i+len(q)-1][1]], true
		}
	}
	return "", false
}

// matchQuote looks quote up in corpus and returns the review text it matched.
func matchQuote(quote string, corpus []foldedText) (string, bool) {
	q := foldText(trimQuote(quote)).folded
	if len(q) == 0 {
		return "", false
	}

	for _, ft := range corpus {
		if text, ok := ft.find(q); ok {
			return text, true
		}
	}
	return "", false
}

// trimQuote strips surrounding whitespace, quote marks and ellipses.
func trimQuote(s string) string {
	for {
		t := strings.TrimSpace(s)
		t = strings.Trim(t, quoteMarks)
		for _, e := range []string{"...", "…"} {
			t = strings.TrimPrefix(t, e)
			t = strings.TrimSuffix(t, e)
		}
		if t == s {
			return t
		}
		s = t
	}
}
