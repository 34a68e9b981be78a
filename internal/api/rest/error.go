package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apierrors "github.com/feral-file/carbon-marketplace/internal/api/shared/errors"
	"github.com/feral-file/carbon-marketplace/internal/logger"
)

// respondWithError sends a standardized error response
func respondWithError(c *gin.Context, statusCode int, apiErr *apierrors.APIError) {
	c.JSON(statusCode, apierrors.ErrorResponse{Error: apiErr})
}

// respondBadRequest sends a 400 Bad Request response
func respondBadRequest(c *gin.Context, message string, details ...string) {
	respondWithError(c, http.StatusBadRequest, apierrors.NewBadRequestError(message, details...))
}

// respondValidationError sends a 400 Bad Request with validation error
func respondValidationError(c *gin.Context, details string) {
	respondWithError(c, http.StatusBadRequest, apierrors.NewValidationError(details))
}

// respondDomainError translates a workflow error. Server-side failures are logged.
func (h *handler) respondDomainError(c *gin.Context, err error, fields ...zap.Field) {
	status, apiErr := apierrors.FromDomain(err, h.debug)
	if status >= http.StatusInternalServerError {
		fields = append(fields, zap.String("path", c.Request.URL.Path))
		logger.ErrorCtx(c.Request.Context(), err, fields...)
	}
	respondWithError(c, status, apiErr)
}
