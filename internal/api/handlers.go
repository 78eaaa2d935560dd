package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/alertstack/triage-engine/internal/models"
	"github.com/alertstack/triage-engine/internal/services"
	"github.com/alertstack/triage-engine/internal/utils"
)

type handlers struct {
	service *services.TriageService
	logger  *slog.Logger
}

func newHandlers(service *services.TriageService, logger *slog.Logger) *handlers {
	return &handlers{service: service, logger: logger}
}

// askRequest is the wire shape of a diagnostic question. Start and End bound
// the fetch window when alerts are not shipped inline.
type askRequest struct {
	models.QueryRequest
	Start string `json:"start,omitempty"`
	End   string `json:"end,omitempty"`
}

type testHypothesisRequest struct {
	Hypothesis models.Hypothesis `json:"hypothesis"`
	Alerts     []models.Alert    `json:"alerts"`
}

func (h *handlers) ask(c *gin.Context) {
	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	if req.Question == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "question is required"})
		return
	}

	var start, end time.Time
	if req.Start != "" {
		t, err := utils.ParseRFC3339(req.Start)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start: " + err.Error()})
			return
		}
		start = t
	}
	if req.End != "" {
		t, err := utils.ParseRFC3339(req.End)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid end: " + err.Error()})
			return
		}
		end = t
	}

	resp, err := h.service.Ask(c.Request.Context(), req.QueryRequest, start, end)
	if err != nil {
		h.logger.Error("ask failed", slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "analysis failed"})
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *handlers) testHypothesis(c *gin.Context) {
	var req testHypothesisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	if req.Hypothesis.PatternID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "hypothesis.pattern_id is required"})
		return
	}

	result := h.service.TestHypothesis(req.Hypothesis, req.Alerts)
	c.JSON(http.StatusOK, result)
}

type feedbackRequest struct {
	PatternID string `json:"pattern_id"`
	Success   bool   `json:"success"`
}

func (h *handlers) feedback(c *gin.Context) {
	var req feedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	if req.PatternID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "pattern_id is required"})
		return
	}
	if err := h.service.RecordFeedback(c.Request.Context(), req.PatternID, req.Success); err != nil {
		h.logger.Error("feedback failed", slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "feedback not recorded"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "recorded"})
}

func (h *handlers) sessionStats(c *gin.Context) {
	stats, ok := h.service.SessionStats(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown session"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *handlers) resetSession(c *gin.Context) {
	id := c.Param("id")
	if !h.service.ResetSession(id) {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown session"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"session_id": id, "status": "reset"})
}

func (h *handlers) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"latency_p95": h.service.LatencyP95().String(),
	})
}
