package handlers

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/viniciosgnr/MMT/internal/logger"
	"github.com/viniciosgnr/MMT/internal/repos"
	"github.com/viniciosgnr/MMT/internal/services"
	"github.com/viniciosgnr/MMT/internal/types"
)

// maxReportSize caps uploaded lab reports at 20 MiB.
const maxReportSize = 20 << 20

type SampleHandler struct {
	log           *logger.Logger
	sampleService services.SampleService
	lifecycle     services.LifecycleService
}

func NewSampleHandler(log *logger.Logger, sampleService services.SampleService, lifecycle services.LifecycleService) *SampleHandler {
	return &SampleHandler{
		log:           log.With("handler", "SampleHandler"),
		sampleService: sampleService,
		lifecycle:     lifecycle,
	}
}

type createSampleRequest struct {
	SampleID      string `json:"sample_id" binding:"required"`
	Type          string `json:"type"`
	Responsible   string `json:"responsible"`
	SamplePointID string `json:"sample_point_id" binding:"required"`
	OSMID         string `json:"osm_id"`
	PlannedDate   string `json:"planned_date"`
	Notes         string `json:"notes"`
}

type transitionRequest struct {
	Status            string `json:"status" binding:"required"`
	EventDate         string `json:"event_date"`
	DueDate           string `json:"due_date"`
	ArtifactURL       string `json:"artifact_url"`
	ValidationOutcome string `json:"validation_outcome"`
	Comment           string `json:"comment"`
	ChangedBy         string `json:"changed_by"`
}

// parseDate accepts a bare date or a full RFC 3339 timestamp.
func parseDate(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q", raw)
	}
	return &t, nil
}

// POST /api/chemical/samples
func (h *SampleHandler) Create(c *gin.Context) {
	var req createSampleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	pointID, err := uuid.Parse(req.SamplePointID)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", fmt.Errorf("invalid sample point id: %w", err))
		return
	}
	plannedDate, err := parseDate(req.PlannedDate)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	sample, err := h.sampleService.Create(c.Request.Context(), services.SampleInput{
		SampleID:      req.SampleID,
		Type:          req.Type,
		Responsible:   req.Responsible,
		SamplePointID: pointID,
		OSMID:         req.OSMID,
		PlannedDate:   plannedDate,
		Notes:         req.Notes,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"sample": sample})
}

// GET /api/chemical/samples
func (h *SampleHandler) List(c *gin.Context) {
	filter := repos.SampleFilter{FPSOName: c.Query("fpso_name")}
	if raw := c.Query("sample_point_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			RespondError(c, http.StatusBadRequest, "invalid_id", fmt.Errorf("invalid sample point id: %w", err))
			return
		}
		filter.SamplePointID = &id
	}
	if raw := c.Query("status"); raw != "" {
		phase, err := types.ParseSamplePhase(raw)
		if err != nil {
			RespondError(c, http.StatusBadRequest, "invalid_request", err)
			return
		}
		filter.Status = &phase
	}
	samples, err := h.sampleService.List(c.Request.Context(), filter)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"samples": samples})
}

// GET /api/chemical/samples/:id
func (h *SampleHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", fmt.Errorf("invalid sample id: %w", err))
		return
	}
	detail, err := h.sampleService.Get(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	RespondOK(c, detail)
}

// PUT /api/chemical/samples/:id
func (h *SampleHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", fmt.Errorf("invalid sample id: %w", err))
		return
	}
	var input services.SampleUpdateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	sample, err := h.sampleService.Update(c.Request.Context(), id, input)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"sample": sample})
}

// PUT /api/chemical/samples/:id/status
func (h *SampleHandler) TransitionStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", fmt.Errorf("invalid sample id: %w", err))
		return
	}
	var req transitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	phase, err := types.ParseSamplePhase(req.Status)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	eventDate, err := parseDate(req.EventDate)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	dueDate, err := parseDate(req.DueDate)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	input := services.TransitionInput{
		TargetPhase: phase,
		EventDate:   eventDate,
		DueDate:     dueDate,
		ArtifactURL: req.ArtifactURL,
		Comment:     req.Comment,
		User:        req.ChangedBy,
	}
	if req.ValidationOutcome != "" {
		outcome, err := types.ParseValidationOutcome(req.ValidationOutcome)
		if err != nil {
			RespondError(c, http.StatusBadRequest, "invalid_request", err)
			return
		}
		input.ValidationOutcome = &outcome
	}
	sample, err := h.lifecycle.Transition(c.Request.Context(), id, input)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"sample": sample})
}

// POST /api/chemical/samples/:id/report
// Multipart upload of a lab report; runs extraction, validation and the
// atomic result-set replacement in one shot.
func (h *SampleHandler) SubmitReport(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", fmt.Errorf("invalid sample id: %w", err))
		return
	}
	fileHeader, err := c.FormFile("file")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", fmt.Errorf("missing report file: %w", err))
		return
	}
	if fileHeader.Size > maxReportSize {
		RespondError(c, http.StatusRequestEntityTooLarge, "file_too_large", fmt.Errorf("report exceeds %d bytes", maxReportSize))
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	defer file.Close()
	documentBytes, err := io.ReadAll(file)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	user := c.PostForm("changed_by")
	summary, sample, err := h.lifecycle.SubmitReport(c.Request.Context(), id, documentBytes, fileHeader.Filename, user)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"validation": summary, "sample": sample})
}

// GET /api/chemical/samples/:id/history
func (h *SampleHandler) StatusHistory(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", fmt.Errorf("invalid sample id: %w", err))
		return
	}
	history, err := h.sampleService.StatusHistory(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"history": history})
}

// GET /api/chemical/samples/:id/results
func (h *SampleHandler) Results(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", fmt.Errorf("invalid sample id: %w", err))
		return
	}
	results, err := h.sampleService.Results(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"results": results})
}
