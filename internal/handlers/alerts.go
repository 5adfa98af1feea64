package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/viniciosgnr/MMT/internal/logger"
	"github.com/viniciosgnr/MMT/internal/repos"
	"github.com/viniciosgnr/MMT/internal/services"
)

type AlertHandler struct {
	log          *logger.Logger
	alertService services.AlertService
}

func NewAlertHandler(log *logger.Logger, alertService services.AlertService) *AlertHandler {
	return &AlertHandler{
		log:          log.With("handler", "AlertHandler"),
		alertService: alertService,
	}
}

// GET /api/chemical/alerts
func (h *AlertHandler) List(c *gin.Context) {
	var filter repos.AlertFilter
	if raw := c.Query("acknowledged"); raw != "" {
		ack := raw == "true"
		filter.Acknowledged = &ack
	}
	alerts, err := h.alertService.List(c.Request.Context(), filter)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"alerts": alerts})
}

// POST /api/chemical/alerts/sweep
// Manual trigger of the overdue sweep, alongside the periodic one.
func (h *AlertHandler) Sweep(c *gin.Context) {
	created, err := h.alertService.SweepOverdue(c.Request.Context(), time.Now())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"alerts_created": created})
}

type acknowledgeRequest struct {
	AcknowledgedBy string `json:"acknowledged_by"`
}

// PUT /api/chemical/alerts/:id/acknowledge
func (h *AlertHandler) Acknowledge(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", fmt.Errorf("invalid alert id: %w", err))
		return
	}
	var req acknowledgeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	alert, err := h.alertService.Acknowledge(c.Request.Context(), id, req.AcknowledgedBy)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"alert": alert})
}
