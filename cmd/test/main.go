package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorBlue   = "\033[34m"
	colorPurple = "\033[35m"
	colorCyan   = "\033[36m"
)

const (
	defaultQuery    = "coffee shops in Williamsburg, Brooklyn"
	defaultQuestion = "What are the biggest risks I should consider before entering this market?"
)

var analysisFields = []string{"summary", "criteria", "competitors", "personas", "yelp_insight", "chat_id", "reviews"}

type TestClient struct {
	baseURL string
	client  *http.Client
}

func NewTestClient(baseURL string, timeout time.Duration) *TestClient {
	return &TestClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

var (
	baseURL string
	timeout time.Duration
)

var rootCmd = &cobra.Command{
	Use:          "smoke",
	Short:        "Smoke tests against a running opportunity-analyzer server",
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		printHeader("Opportunity Analyzer - Smoke Tests")
		fmt.Printf("%sBase URL: %s%s\n\n", colorCyan, baseURL, colorReset)
	},
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check GET /health",
	RunE: func(cmd *cobra.Command, args []string) error {
		return result(NewTestClient(baseURL, timeout).testHealthCheck())
	},
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze [query]",
	Short: "Run POST /analyze and validate the response shape",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, ok := NewTestClient(baseURL, timeout).testAnalyze(queryArg(args, defaultQuery))
		return result(ok)
	},
}

var askQuery string

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Analyze, then ask a follow-up question about the result",
	RunE: func(cmd *cobra.Command, args []string) error {
		tc := NewTestClient(baseURL, timeout)

		analysis, ok := tc.testAnalyze(askQuery)
		if !ok {
			return result(false)
		}

		question := queryArg(args, "")
		if question == "" {
			question, ok = tc.testSuggest(askQuery, analysis)
			if !ok {
				return result(false)
			}
		}
		return result(tc.testFollowUp(askQuery, question, analysis))
	},
}

var allCmd = &cobra.Command{
	Use:   "all",
	Short: "Run every smoke test",
	RunE: func(cmd *cobra.Command, args []string) error {
		if failed := NewTestClient(baseURL, timeout).runAllTests(); failed > 0 {
			return eris.Errorf("%d test(s) failed", failed)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&baseURL, "url", "http://localhost:3000", "base URL of the server")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 120*time.Second, "per-request timeout")
	askCmd.Flags().StringVar(&askQuery, "query", defaultQuery, "query to analyze before asking")

	rootCmd.AddCommand(healthCmd, analyzeCmd, askCmd, allCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func queryArg(args []string, fallback string) string {
	if q := strings.TrimSpace(strings.Join(args, " ")); q != "" {
		return q
	}
	return fallback
}

func result(ok bool) error {
	if !ok {
		return eris.New("smoke test failed")
	}
	return nil
}

// runAllTests runs every check and returns the number that failed.
func (tc *TestClient) runAllTests() int {
	var analysis map[string]any

	tests := []struct {
		name string
		fn   func() bool
	}{
		{"Health Check", tc.testHealthCheck},
		{"Missing Query", tc.testMissingQuery},
		{"Market Analysis", func() bool {
			var ok bool
			analysis, ok = tc.testAnalyze(defaultQuery)
			return ok
		}},
		{"Follow-up Question", func() bool {
			if analysis == nil {
				printError("Skipped: no analysis to ask about")
				return false
			}
			return tc.testFollowUp(defaultQuery, defaultQuestion, analysis)
		}},
	}

	passed := 0
	failed := 0

	for _, test := range tests {
		if test.fn() {
			passed++
		} else {
			failed++
		}
		fmt.Println()
	}

	printHeader("Test Summary")
	fmt.Printf("%sPassed: %d%s\n", colorGreen, passed, colorReset)
	fmt.Printf("%sFailed: %d%s\n", colorRed, failed, colorReset)
	fmt.Printf("Total: %d\n", passed+failed)

	return failed
}

func (tc *TestClient) testHealthCheck() bool {
	printTestHeader("Testing Health Check Endpoint")

	url := fmt.Sprintf("%s/health", tc.baseURL)
	fmt.Printf("GET %s\n", url)

	resp, err := tc.client.Get(url)
	if err != nil {
		printError(fmt.Sprintf("Request failed: %v", err))
		return false
	}
	defer resp.Body.Close() //nolint:errcheck

	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		printError(fmt.Sprintf("Expected status 200, got %d", resp.StatusCode))
		return false
	}

	if string(body) != "OK" {
		printError(fmt.Sprintf("Expected body 'OK', got '%s'", string(body)))
		return false
	}

	printSuccess("Health check passed")
	return true
}

func (tc *TestClient) testMissingQuery() bool {
	printTestHeader("Testing Analyze Without Query")

	status, body, err := tc.postJSON("/analyze", map[string]any{})
	if err != nil {
		printError(fmt.Sprintf("Request failed: %v", err))
		return false
	}

	if status != http.StatusBadRequest {
		printError(fmt.Sprintf("Expected status 400, got %d", status))
		return false
	}

	var errBody map[string]string
	if err := json.Unmarshal(body, &errBody); err != nil || errBody["error"] != "Query is required" {
		printError(fmt.Sprintf("Unexpected error body: %s", string(body)))
		return false
	}

	printSuccess("Missing query rejected")
	return true
}

func (tc *TestClient) testAnalyze(query string) (map[string]any, bool) {
	printTestHeader("Testing Market Analysis")
	fmt.Printf("%sQuery:%s %s\n\n", colorCyan, colorReset, query)

	status, body, err := tc.postJSON("/analyze", map[string]any{"query": query})
	if err != nil {
		printError(fmt.Sprintf("Request failed: %v", err))
		return nil, false
	}

	if status == http.StatusNotFound {
		printError("No competitors found")
		printJSON(body)
		return nil, false
	}
	if status != http.StatusOK {
		printError(fmt.Sprintf("Expected status 200, got %d", status))
		fmt.Printf("Response: %s\n", string(body))
		return nil, false
	}

	analysis, err := validateAnalysis(body)
	if err != nil {
		printError(err.Error())
		return nil, false
	}

	printSuccess("Analysis completed successfully")
	printAnalysis(analysis)
	return analysis, true
}

func (tc *TestClient) testSuggest(query string, analysis map[string]any) (string, bool) {
	printTestHeader("Testing Follow-up Suggestion")

	status, body, err := tc.postJSON("/follow-up/suggest", followUpContext(query, analysis))
	if err != nil {
		printError(fmt.Sprintf("Request failed: %v", err))
		return "", false
	}
	if status != http.StatusOK {
		printError(fmt.Sprintf("Expected status 200, got %d", status))
		return "", false
	}

	var suggestion struct {
		Question string `json:"question"`
	}
	if err := json.Unmarshal(body, &suggestion); err != nil || suggestion.Question == "" {
		printError(fmt.Sprintf("Unexpected suggestion body: %s", string(body)))
		return "", false
	}

	printSuccess(fmt.Sprintf("Suggested: %s", suggestion.Question))
	return suggestion.Question, true
}

func (tc *TestClient) testFollowUp(query, question string, analysis map[string]any) bool {
	printTestHeader("Testing Follow-up Question")
	fmt.Printf("%sQuestion:%s %s\n\n", colorCyan, colorReset, question)

	status, body, err := tc.postJSON("/follow-up", map[string]any{
		"question": question,
		"context":  followUpContext(query, analysis),
	})
	if err != nil {
		printError(fmt.Sprintf("Request failed: %v", err))
		return false
	}
	if status != http.StatusOK {
		printError(fmt.Sprintf("Expected status 200, got %d", status))
		fmt.Printf("Response: %s\n", string(body))
		return false
	}

	var answer struct {
		MainInsight  string   `json:"mainInsight"`
		KeyMoves     []string `json:"keyMoves"`
		RisksToAvoid []string `json:"risksToAvoid"`
	}
	if err := json.Unmarshal(body, &answer); err != nil {
		printError(fmt.Sprintf("Invalid JSON response: %v", err))
		return false
	}
	if answer.MainInsight == "" {
		printError("Answer has no main insight")
		return false
	}

	printSuccess("Follow-up answered")
	fmt.Printf("\n%sMain Insight:%s %s\n", colorGreen, colorReset, answer.MainInsight)
	printList("Key Moves", answer.KeyMoves)
	printList("Risks to Avoid", answer.RisksToAvoid)
	return true
}

func (tc *TestClient) postJSON(path string, payload any) (int, []byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return 0, nil, eris.Wrap(err, "marshal request")
	}

	url := tc.baseURL + path
	fmt.Printf("POST %s\n", url)

	resp, err := tc.client.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, eris.Wrap(err, "read response")
	}
	return resp.StatusCode, body, nil
}

// validateAnalysis checks that an /analyze body carries every field and that
// the invariants clients rely on hold.
func validateAnalysis(body []byte) (map[string]any, error) {
	var analysis map[string]any
	if err := json.Unmarshal(body, &analysis); err != nil {
		return nil, eris.Wrap(err, "invalid JSON response")
	}

	for _, field := range analysisFields {
		if _, ok := analysis[field]; !ok {
			return nil, eris.Errorf("missing required field: %s", field)
		}
	}

	if _, ok := analysis["personas"].([]any); !ok {
		return nil, eris.New("personas must be an array")
	}

	criteria, _ := analysis["criteria"].([]any)
	if len(criteria) != 5 {
		return nil, eris.Errorf("expected 5 criteria, got %d", len(criteria))
	}

	competitors, _ := analysis["competitors"].([]any)
	if len(competitors) > 3 {
		return nil, eris.Errorf("expected at most 3 competitors, got %d", len(competitors))
	}
	for _, c := range competitors {
		comp, _ := c.(map[string]any)
		scores, _ := comp["scores"].(map[string]any)
		for id, v := range scores {
			n, ok := v.(float64)
			if !ok || n != float64(int(n)) || n < 1 || n > 5 {
				return nil, eris.Errorf("competitor %v has invalid score %s=%v", comp["name"], id, v)
			}
		}
	}

	return analysis, nil
}

// followUpContext rebuilds the follow-up context from an /analyze body.
func followUpContext(query string, analysis map[string]any) map[string]any {
	var businesses []map[string]any
	competitors, _ := analysis["competitors"].([]any)
	for _, c := range competitors {
		comp, _ := c.(map[string]any)
		businesses = append(businesses, map[string]any{
			"id":   comp["id"],
			"name": comp["name"],
			"url":  comp["yelpUrl"],
		})
	}

	return map[string]any{
		"query":      query,
		"summary":    analysis["summary"],
		"businesses": businesses,
		"reviews":    analysis["reviews"],
		"personas":   analysis["personas"],
	}
}

func printAnalysis(analysis map[string]any) {
	fmt.Printf("\n%sSummary:%s %v\n", colorGreen, colorReset, analysis["summary"])

	if competitors, ok := analysis["competitors"].([]any); ok {
		fmt.Printf("\n%sCompetitors:%s\n", colorPurple, colorReset)
		for i, c := range competitors {
			comp, _ := c.(map[string]any)
			fmt.Printf("  %d. %v %v\n", i+1, comp["name"], comp["scores"])
		}
	}

	if personas, ok := analysis["personas"].([]any); ok {
		fmt.Printf("\n%sPersonas:%s %d\n", colorPurple, colorReset, len(personas))
		fmt.Println(strings.Repeat("=", 80))
		for _, p := range personas {
			persona, _ := p.(map[string]any)
			fmt.Printf("%v - %v\n", persona["name"], persona["demographic"])
		}
		fmt.Println(strings.Repeat("=", 80))
	}
}

func printList(title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Printf("\n%s%s:%s\n", colorYellow, title, colorReset)
	for _, item := range items {
		fmt.Printf("  - %s\n", item)
	}
}

func printHeader(text string) {
	fmt.Printf("\n%s%s%s\n", colorBlue, strings.Repeat("=", len(text)+4), colorReset)
	fmt.Printf("%s= %s =%s\n", colorBlue, text, colorReset)
	fmt.Printf("%s%s%s\n\n", colorBlue, strings.Repeat("=", len(text)+4), colorReset)
}

func printTestHeader(text string) {
	fmt.Printf("%s[TEST] %s%s\n", colorCyan, text, colorReset)
	fmt.Println(strings.Repeat("-", 80))
}

func printSuccess(text string) {
	fmt.Printf("%s✓ %s%s\n", colorGreen, text, colorReset)
}

func printError(text string) {
	fmt.Printf("%s✗ %s%s\n", colorRed, text, colorReset)
}

func printJSON(data []byte) {
	var prettyJSON bytes.Buffer
	if err := json.Indent(&prettyJSON, data, "", "  "); err == nil {
		fmt.Printf("\n%sResponse:%s\n%s\n", colorYellow, colorReset, prettyJSON.String())
	}
}
