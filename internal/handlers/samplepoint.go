package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/viniciosgnr/MMT/internal/logger"
	"github.com/viniciosgnr/MMT/internal/repos"
	"github.com/viniciosgnr/MMT/internal/services"
)

type SamplePointHandler struct {
	log            *logger.Logger
	pointService   services.SamplePointService
	historyService services.HistoryService
}

func NewSamplePointHandler(log *logger.Logger, pointService services.SamplePointService, historyService services.HistoryService) *SamplePointHandler {
	return &SamplePointHandler{
		log:            log.With("handler", "SamplePointHandler"),
		pointService:   pointService,
		historyService: historyService,
	}
}

// POST /api/chemical/points
func (h *SamplePointHandler) Create(c *gin.Context) {
	var input services.SamplePointInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	point, err := h.pointService.Create(c.Request.Context(), input)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"sample_point": point})
}

// GET /api/chemical/points
func (h *SamplePointHandler) List(c *gin.Context) {
	filter := repos.SamplePointFilter{
		FPSOName:     c.Query("fpso_name"),
		AnalysisType: c.Query("analysis_type"),
	}
	points, err := h.pointService.List(c.Request.Context(), filter)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"sample_points": points})
}

// GET /api/chemical/points/:id
func (h *SamplePointHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", fmt.Errorf("invalid sample point id: %w", err))
		return
	}
	point, err := h.pointService.Get(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"sample_point": point})
}

// PUT /api/chemical/points/:id
func (h *SamplePointHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", fmt.Errorf("invalid sample point id: %w", err))
		return
	}
	var input services.SamplePointInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	point, err := h.pointService.Update(c.Request.Context(), id, input)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"sample_point": point})
}

// GET /api/chemical/points/:id/sla
func (h *SamplePointHandler) SLA(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", fmt.Errorf("invalid sample point id: %w", err))
		return
	}
	cfg, err := h.pointService.SLA(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"sla": cfg})
}

// GET /api/chemical/points/:id/history?parameter=density&limit=10
// The historical window the validator reads: newest-first prior readings of
// one parameter at this point.
func (h *SamplePointHandler) History(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", fmt.Errorf("invalid sample point id: %w", err))
		return
	}
	parameter := c.Query("parameter")
	if parameter == "" {
		RespondError(c, http.StatusBadRequest, "invalid_request", fmt.Errorf("parameter is required"))
		return
	}
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 0 {
			RespondError(c, http.StatusBadRequest, "invalid_request", fmt.Errorf("invalid limit %q", raw))
			return
		}
	}
	entries, err := h.historyService.ParameterHistory(c.Request.Context(), nil, id, parameter, uuid.Nil, limit)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"parameter": parameter, "history": entries})
}
