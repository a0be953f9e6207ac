// Package a2a serves the market analysis to other agents over A2A JSON-RPC.
package a2a

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BerylCAtieno/opportunity-analyzer/internal/models"
	"github.com/BerylCAtieno/opportunity-analyzer/internal/opportunity"
)

const (
	promptForQuery = `Please describe the market you want analyzed, for example "coffee shops in Williamsburg".`
	analysisFailed = "Failed to analyze market opportunity."
	noCompetitors  = "No competitors found to analyze."
	analysisTitle  = "# Market Analysis:"
)

// progressText matches progress updates such as "Analyzing the market...".
var progressText = regexp.MustCompile(`(?i)^(analyzing|generating|searching|fetching|working on)\b.*(\.\.\.|…)$`)

// Analyzer runs a market analysis.
type Analyzer interface {
	Analyze(ctx context.Context, req models.AnalyzeRequest) (*models.AnalyzeResponse, error)
}

type Handler struct {
	svc  Analyzer
	card AgentCard
}

func NewHandler(svc Analyzer, card AgentCard) *Handler {
	return &Handler{
		svc:  svc,
		card: card,
	}
}

// DefaultAgentCard describes the market analysis skill. URL is left empty and
// filled per request from the Host header.
func DefaultAgentCard() AgentCard {
	return AgentCard{
		Name:               "Market Opportunity Analyzer",
		Description:        "Finds competitors on Yelp, reads their reviews and returns a scored competitive analysis with customer personas.",
		Version:            "1.0.0",
		DefaultInputModes:  []string{"text"},
		DefaultOutputModes: []string{"text", "data"},
		Skills: []Skill{
			{
				ID:          "market-analysis",
				Name:        "Market Analysis",
				Description: "Analyze the competitive landscape for a type of business in a location.",
				Examples:    []string{"coffee shops in Williamsburg", "vegan bakeries in Austin"},
			},
		},
	}
}

// ServeAgentCard serves the agent card.
func (h *Handler) ServeAgentCard(c *gin.Context) {
	card := h.card
	if card.URL == "" {
		scheme := "http"
		if c.Request.TLS != nil {
			scheme = "https"
		}
		card.URL = fmt.Sprintf("%s://%s/a2a/analyze", scheme, c.Request.Host)
	}
	c.JSON(http.StatusOK, card)
}

// HandleMessage processes A2A JSON-RPC messages.
func (h *Handler) HandleMessage(c *gin.Context) {
	var rpcReq JSONRPCRequest
	if err := c.ShouldBindJSON(&rpcReq); err != nil {
		zap.L().Warn("failed to decode JSON-RPC request", zap.Error(err))
		h.sendErrorResponse(c, "", "Parse error", CodeParseError)
		return
	}

	if rpcReq.JSONRPC != "2.0" {
		h.sendErrorResponse(c, rpcReq.ID, "Invalid JSON-RPC version", CodeInvalidRequest)
		return
	}

	switch rpcReq.Method {
	case "message/send", "agent/task":
		h.handleTask(c, rpcReq)
	default:
		h.sendErrorResponse(c, rpcReq.ID, fmt.Sprintf("Method not found: %s", rpcReq.Method), CodeMethodNotFound)
	}
}

func (h *Handler) handleTask(c *gin.Context, rpcReq JSONRPCRequest) {
	var params MessageParams
	if err := json.Unmarshal(rpcReq.Params, &params); err != nil {
		h.sendErrorResponse(c, rpcReq.ID, "Invalid parameters", CodeInvalidParams)
		return
	}

	query := extractQuery(params.Message)
	log := zap.L().With(zap.String("rpc_id", rpcReq.ID), zap.String("query", query))

	if query == "" {
		h.sendSuccessResponse(c, rpcReq.ID, taskResult(rpcReq.ID, StateInputRequired, promptForQuery, nil))
		return
	}

	resp, err := h.svc.Analyze(c.Request.Context(), models.AnalyzeRequest{Query: query})
	if err != nil {
		var noComp *opportunity.NoCompetitorsError
		if errors.As(err, &noComp) {
			text := noCompetitors
			if noComp.Reply != "" {
				text += "\n\n" + noComp.Reply
			}
			h.sendSuccessResponse(c, rpcReq.ID, taskResult(rpcReq.ID, StateCompleted, text, nil))
			return
		}

		log.Error("a2a analysis failed", zap.Error(err))
		h.sendSuccessResponse(c, rpcReq.ID, taskResult(rpcReq.ID, StateFailed, analysisFailed, nil))
		return
	}

	text := formatAnalysis(query, resp)
	artifacts := []Artifact{
		{
			ArtifactID: uuid.New().String(),
			Name:       "Market Analysis",
			Parts:      []MessagePart{TextPart(text), DataPart(resp)},
		},
	}

	log.Info("a2a analysis complete", zap.Int("competitors", len(resp.Competitors)))
	h.sendSuccessResponse(c, rpcReq.ID, taskResult(rpcReq.ID, StateCompleted, text, artifacts))
}

func taskResult(taskID, state, text string, artifacts []Artifact) TaskResult {
	return TaskResult{
		ID:   taskID,
		Kind: "task",
		Status: TaskStatus{
			State:     state,
			Timestamp: Timestamp(),
			Message: &Message{
				Kind:      "message",
				Role:      RoleAgent,
				MessageID: uuid.New().String(),
				TaskID:    taskID,
				Parts:     []MessagePart{TextPart(text)},
			},
		},
		Artifacts: artifacts,
	}
}

// extractQuery joins the text parts of msg. Data parts carrying conversation
// history contribute their most recent user text.
func extractQuery(msg Message) string {
	var texts []string

	for _, part := range msg.Parts {
		switch part.Kind {
		case "text":
			if t := cleanText(part.Text); t != "" {
				texts = append(texts, t)
			}
		case "data":
			if t := latestHistoryText(part.Data); t != "" {
				texts = append(texts, t)
			}
		}
	}

	return strings.TrimSpace(strings.Join(texts, " "))
}

func latestHistoryText(data any) string {
	raw, err := json.Marshal(data)
	if err != nil {
		return ""
	}

	var history []map[string]any
	if err := json.Unmarshal(raw, &history); err != nil {
		return ""
	}

	for i := len(history) - 1; i >= 0; i-- {
		item := history[i]
		if kind, _ := item["kind"].(string); kind != "text" {
			continue
		}
		if role, _ := item["role"].(string); role == RoleAgent {
			continue
		}
		text, _ := item["text"].(string)
		text = cleanText(text)
		if text == "" || isStatusText(text) {
			continue
		}
		return text
	}
	return ""
}

func cleanText(s string) string {
	s = strings.ReplaceAll(s, "<p>", "")
	s = strings.ReplaceAll(s, "</p>", "")
	return strings.TrimSpace(s)
}

// isStatusText reports agent output echoed back in history: progress
// updates, this agent's own replies, and bare ellipses.
func isStatusText(s string) bool {
	switch {
	case strings.Trim(s, ".… ") == "":
		return true
	case progressText.MatchString(s):
		return true
	case s == promptForQuery, s == analysisFailed,
		strings.HasPrefix(s, noCompetitors), strings.HasPrefix(s, analysisTitle):
		return true
	}
	return false
}

func formatAnalysis(query string, resp *models.AnalyzeResponse) string {
	labels := make(map[string]string, len(resp.Criteria))
	for _, cr := range resp.Criteria {
		labels[cr.ID] = cr.Label
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n\n%s\n", analysisTitle, query, resp.Summary)

	if len(resp.Competitors) > 0 {
		b.WriteString("\n**Top Competitors:**\n")
		for i, comp := range resp.Competitors {
			scores := make([]string, 0, len(resp.Criteria))
			for _, cr := range resp.Criteria {
				scores = append(scores, fmt.Sprintf("%s %d/5", labels[cr.ID], comp.Scores[cr.ID]))
			}
			fmt.Fprintf(&b, "%d. %s (%s)\n", i+1, comp.Name, strings.Join(scores, ", "))
		}
	}

	for _, p := range resp.Personas {
		fmt.Fprintf(&b, "\n**%s** - %s\n", p.Name, p.Demographic)
		for _, pp := range p.PainPoints {
			fmt.Fprintf(&b, "- %s: \"%s\"\n", pp.Point, pp.Quote)
		}
	}

	if resp.YelpInsight != "" {
		fmt.Fprintf(&b, "\n**Yelp says:** %s\n", resp.YelpInsight)
	}

	return b.String()
}

func (h *Handler) sendSuccessResponse(c *gin.Context, id string, result any) {
	c.JSON(http.StatusOK, JSONRPCResponse{
		JSONRPC: "2.0",
		ID:      id,
		Result:  result,
	})
}

// sendErrorResponse writes a JSON-RPC error. These are sent with 200 OK.
func (h *Handler) sendErrorResponse(c *gin.Context, id string, message string, code int) {
	zap.L().Warn("a2a rpc error", zap.String("rpc_id", id), zap.Int("code", code), zap.String("message", message))

	c.JSON(http.StatusOK, JSONRPCResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &RPCError{
			Code:    code,
			Message: message,
		},
	})
}
