package handlers

import (
	"errors"
	"net/http"

	"github.com/formsnap/signup-api/internal/form"
	"github.com/formsnap/signup-api/internal/services"
	apperrors "github.com/formsnap/signup-api/pkg/errors"
	"github.com/formsnap/signup-api/pkg/storage"
	"github.com/gin-gonic/gin"
)

// attachError attaches err to the gin context so the observability middleware
// can include the reason in the request log. c.Error() returns *gin.Error (not
// the error interface), so we suppress errcheck here intentionally.
func attachError(c *gin.Context, err error) {
	if err != nil {
		_ = c.Error(err) //nolint:errcheck
	}
}

// respondError sends an error JSON response and attaches the error to the gin context
// so the observability middleware can include the reason in the request log.
func respondError(c *gin.Context, status int, message string, err error) {
	attachError(c, err)
	c.JSON(status, gin.H{"error": message})
}

// respondErrorWithDetails sends an error response with an additional details field.
func respondErrorWithDetails(c *gin.Context, status int, message string, details any, err error) {
	attachError(c, err)
	c.JSON(status, gin.H{"error": message, "details": details})
}

// respondBadRequest reports an unreadable request body, distinguishing bodies
// cut off by the size limit.
func respondBadRequest(c *gin.Context, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		respondError(c, http.StatusRequestEntityTooLarge, "Request body too large", err)
		return
	}
	respondError(c, http.StatusBadRequest, "Invalid request", err)
}

// respondServiceError maps service errors to status codes.
func respondServiceError(c *gin.Context, err error) {
	var verrs *form.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		respondErrorWithDetails(c, http.StatusBadRequest, "Validation failed", FormValidationErrors(verrs), err)
	case errors.Is(err, apperrors.ErrNotFound):
		respondError(c, http.StatusNotFound, "Draft not found", err)
	case errors.Is(err, form.ErrIndexOutOfRange):
		respondError(c, http.StatusNotFound, "Technology entry not found", err)
	case errors.Is(err, form.ErrAttemptInFlight):
		respondError(c, http.StatusConflict, "Submission already in progress", err)
	case errors.Is(err, storage.ErrObjectExists):
		respondError(c, http.StatusConflict, "An avatar with this file name already exists", err)
	case errors.Is(err, services.ErrUpload):
		respondError(c, http.StatusBadGateway, "Failed to upload avatar", err)
	default:
		respondError(c, http.StatusInternalServerError, "Internal server error", err)
	}
}
