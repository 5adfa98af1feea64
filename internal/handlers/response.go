package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/viniciosgnr/MMT/internal/services"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

// respondServiceError maps the service error taxonomy onto HTTP statuses.
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		RespondError(c, http.StatusNotFound, "not_found", err)
	case errors.Is(err, services.ErrDuplicateSampleID):
		RespondError(c, http.StatusBadRequest, "duplicate_sample_id", err)
	case errors.Is(err, services.ErrUnknownReportType):
		RespondError(c, http.StatusUnprocessableEntity, "unknown_report_type", err)
	case errors.Is(err, services.ErrPersistenceConflict):
		RespondError(c, http.StatusConflict, "persistence_conflict", err)
	default:
		RespondError(c, http.StatusInternalServerError, "internal", err)
	}
}
