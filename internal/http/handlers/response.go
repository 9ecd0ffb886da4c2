package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/caseforge/caseforge-backend/internal/platform/apierr"
	"github.com/caseforge/caseforge-backend/internal/services"
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
	c.JSON(status, ErrorEnvelope{Error: APIError{Message: msg, Code: code}})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

// RespondServiceError maps the service error taxonomy onto HTTP statuses:
// missing entities 404, uniqueness and consistency violations 409, cross-
// project references 422, everything else 400 so validation messages reach
// the caller.
func RespondServiceError(c *gin.Context, err error) {
	var ae *apierr.Error
	if errors.As(err, &ae) {
		RespondError(c, ae.Status, ae.Code, err)
		return
	}
	switch {
	case errors.Is(err, services.ErrNotFound), errors.Is(err, services.ErrVersionNotFound):
		RespondError(c, http.StatusNotFound, "not_found", err)
	case errors.Is(err, services.ErrNameTaken):
		RespondError(c, http.StatusConflict, "name_taken", err)
	case errors.Is(err, services.ErrOrderingConflict),
		errors.Is(err, services.ErrEmptyHistorySnapshot),
		errors.Is(err, services.ErrCopyNameExhausted):
		RespondError(c, http.StatusConflict, "conflict", err)
	case errors.Is(err, services.ErrFixtureProject):
		RespondError(c, http.StatusUnprocessableEntity, "cross_project", err)
	default:
		RespondError(c, http.StatusBadRequest, "bad_request", err)
	}
}
