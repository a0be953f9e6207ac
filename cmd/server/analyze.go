package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/BerylCAtieno/opportunity-analyzer/internal/models"
	"github.com/BerylCAtieno/opportunity-analyzer/internal/opportunity"
)

var (
	analyzeChatID string
	analyzeAsk    string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <query>",
	Short: "Run one market analysis and print it as JSON",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		svc, closeSvc, err := initService(ctx, cfg)
		if err != nil {
			return err
		}
		defer closeSvc() //nolint:errcheck

		query := strings.Join(args, " ")
		resp, err := svc.Analyze(ctx, models.AnalyzeRequest{Query: query, ChatID: analyzeChatID})
		if err != nil {
			var noComp *opportunity.NoCompetitorsError
			if errors.As(err, &noComp) {
				fmt.Fprintln(os.Stderr, "No competitors found to analyze.")
				if noComp.Reply != "" {
					fmt.Fprintln(os.Stderr, noComp.Reply)
				}
				return nil
			}
			return eris.Wrap(err, "analyze")
		}

		out := map[string]any{"analysis": resp}

		if analyzeAsk != "" {
			answer, err := svc.FollowUp(ctx, models.FollowUpRequest{
				Question: analyzeAsk,
				Context: models.FollowUpContext{
					Query:      query,
					Summary:    resp.Summary,
					Businesses: competitorBusinesses(resp.Competitors),
					Reviews:    resp.Reviews,
					Personas:   resp.Personas,
				},
			})
			if err != nil {
				return eris.Wrap(err, "follow-up")
			}
			out["follow_up"] = map[string]any{"question": analyzeAsk, "answer": answer}
		} else {
			out["suggested_question"] = svc.SuggestQuestion(models.FollowUpContext{
				Summary:  resp.Summary,
				Personas: resp.Personas,
			})
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	},
}

// competitorBusinesses lets the follow-up prompt name the scored competitors
// and attach their review excerpts.
func competitorBusinesses(competitors []models.Competitor) []models.Business {
	out := make([]models.Business, 0, len(competitors))
	for _, c := range competitors {
		out = append(out, models.Business{ID: c.ID, Name: c.Name, URL: c.YelpURL})
	}
	return out
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeChatID, "chat-id", "", "continue an earlier Yelp AI Chat conversation")
	analyzeCmd.Flags().StringVar(&analyzeAsk, "ask", "", "follow-up question to answer against the analysis")
	rootCmd.AddCommand(analyzeCmd)
}
