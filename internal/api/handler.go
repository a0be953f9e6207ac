// Package api exposes the opportunity pipeline over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/BerylCAtieno/opportunity-analyzer/internal/models"
	"github.com/BerylCAtieno/opportunity-analyzer/internal/opportunity"
)

const (
	msgQueryRequired    = "Query is required"
	msgQuestionRequired = "Question is required"
	msgInvalidBody      = "Invalid request body"
	msgNoCompetitors    = "No competitors found to analyze."
	msgAnalyzeFailed    = "Failed to analyze market opportunity."
	msgFollowUpFailed   = "Failed to answer follow-up question."
)

// Service is the pipeline the handlers drive.
type Service interface {
	Analyze(ctx context.Context, req models.AnalyzeRequest) (*models.AnalyzeResponse, error)
	FollowUp(ctx context.Context, req models.FollowUpRequest) (*models.FollowUpAnswer, error)
	SuggestQuestion(fc models.FollowUpContext) string
}

type Handler struct {
	svc Service
}

func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

// HandleHealth answers liveness probes.
func (h *Handler) HandleHealth(c *gin.Context) {
	c.String(http.StatusOK, "OK")
}

// HandleAnalyze runs a market analysis for {"query": "..."}.
func (h *Handler) HandleAnalyze(c *gin.Context) {
	log := requestLogger(c)

	var req models.AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("invalid analyze request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": msgQueryRequired})
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": msgQueryRequired})
		return
	}

	log.Info("received query", zap.String("query", req.Query))

	resp, err := h.svc.Analyze(c.Request.Context(), req)
	if err != nil {
		var noComp *opportunity.NoCompetitorsError
		switch {
		case errors.As(err, &noComp):
			c.JSON(http.StatusNotFound, gin.H{
				"error":         msgNoCompetitors,
				"yelp_response": noComp.Reply,
			})
		case errors.Is(err, opportunity.ErrQueryRequired):
			c.JSON(http.StatusBadRequest, gin.H{"error": msgQueryRequired})
		default:
			log.Error("analysis failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": msgAnalyzeFailed})
		}
		return
	}

	log.Info("analysis served",
		zap.Int("competitors", len(resp.Competitors)),
		zap.Int("personas", len(resp.Personas)),
	)
	c.JSON(http.StatusOK, resp)
}

// HandleFollowUp answers {"question": "...", "context": {...}}.
func (h *Handler) HandleFollowUp(c *gin.Context) {
	log := requestLogger(c)

	var req models.FollowUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("invalid follow-up request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": msgInvalidBody})
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": msgQuestionRequired})
		return
	}

	answer, err := h.svc.FollowUp(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, opportunity.ErrQuestionRequired) {
			c.JSON(http.StatusBadRequest, gin.H{"error": msgQuestionRequired})
			return
		}
		log.Error("follow-up failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": msgFollowUpFailed})
		return
	}

	c.JSON(http.StatusOK, answer)
}

// HandleSuggest proposes a follow-up question for the analysis context in the body.
func (h *Handler) HandleSuggest(c *gin.Context) {
	var fc models.FollowUpContext
	if err := c.ShouldBindJSON(&fc); err != nil {
		requestLogger(c).Warn("invalid suggest request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": msgInvalidBody})
		return
	}

	c.JSON(http.StatusOK, gin.H{"question": h.svc.SuggestQuestion(fc)})
}
