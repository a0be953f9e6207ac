package analysis

import (
	"context"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/BerylCAtieno/opportunity-analyzer/internal/models"
)

var (
	mainInsightSection = regexp.MustCompile(`(?is)(?:Main Insight|Key Insight)[:\s]+(.+?)(?:\n\n|Key Moves|$)`)
	keyMovesSection    = regexp.MustCompile(`(?i)Key Moves[:\s]+([\s\S]+?)(?:\n\n|Risks to Avoid|$)`)
	risksSection       = regexp.MustCompile(`(?i)Risks to Avoid[:\s]+([\s\S]+?)$`)
	listLine           = regexp.MustCompile(`^[\d\-*•]`)
	bulletPrefix       = regexp.MustCompile(`^[\d\-*•.\s]+`)
	blankLines         = regexp.MustCompile(`\n+`)
)

// AnswerFollowUp answers a question about an earlier analysis. JSON output is
// parsed with the same extract and repair steps as Analyze; when that fails
// the answer is recovered from section headings in plain text. Only a failed
// completion call is an error.
func (g *Generator) AnswerFollowUp(ctx context.Context, question string, fc models.FollowUpContext) (*models.FollowUpAnswer, error) {
	text, err := g.llm.Complete(ctx, BuildFollowUpPrompt(question, fc))
	if err != nil {
		return nil, generationError("follow-up", err)
	}

	answer, err := decodeCompletion[models.FollowUpAnswer](text)
	if err == nil {
		zap.L().Info("follow-up answered with structured output")
		return withLists(answer), nil
	}

	zap.L().Warn("follow-up completion is not JSON, parsing plain text", zap.Error(err))
	return parseFollowUpText(text), nil
}

// parseFollowUpText recovers an answer from headed plain text. With no usable
// headings the first paragraph, then the whole text, becomes the main insight.
func parseFollowUpText(text string) *models.FollowUpAnswer {
	answer := &models.FollowUpAnswer{
		KeyMoves:     []string{},
		RisksToAvoid: []string{},
	}

	if m := mainInsightSection.FindStringSubmatch(text); m != nil {
		answer.MainInsight = strings.TrimSpace(m[1])
	} else {
		for _, p := range strings.Split(text, "\n\n") {
			if strings.TrimSpace(p) != "" {
				answer.MainInsight = strings.TrimSpace(p)
				break
			}
		}
	}

	if m := keyMovesSection.FindStringSubmatch(text); m != nil {
		answer.KeyMoves = listItems(m[1])
	}
	if m := risksSection.FindStringSubmatch(text); m != nil {
		answer.RisksToAvoid = listItems(m[1])
	}

	if answer.MainInsight != "" || len(answer.KeyMoves) > 0 {
		return answer
	}

	answer.MainInsight = strings.TrimSpace(text)
	return answer
}

// listItems keeps bulleted lines and long prose lines, minus their bullets.
func listItems(block string) []string {
	items := []string{}
	for _, line := range blankLines.Split(block, -1) {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if !listLine.MatchString(line) && len(line) <= 20 {
			continue
		}
		item := strings.TrimSpace(bulletPrefix.ReplaceAllString(line, ""))
		if item != "" {
			items = append(items, item)
		}
	}
	return items
}

func withLists(a *models.FollowUpAnswer) *models.FollowUpAnswer {
	if a.KeyMoves == nil {
		a.KeyMoves = []string{}
	}
	if a.RisksToAvoid == nil {
		a.RisksToAvoid = []string{}
	}
	return a
}
