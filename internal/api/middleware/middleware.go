package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	apierrors "github.com/feral-file/carbon-marketplace/internal/api/shared/errors"
	"github.com/feral-file/carbon-marketplace/internal/logger"
	"github.com/feral-file/carbon-marketplace/internal/ratelimit"
)

const REQUEST_ID_HEADER = "X-Request-ID"

// RequestID assigns every request an ID, reusing the caller's header when present
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(REQUEST_ID_HEADER)
		if requestID == "" {
			requestID = uuid.NewString()
		}

		c.Header(REQUEST_ID_HEADER, requestID)
		c.Request = c.Request.WithContext(logger.WithRequestID(c.Request.Context(), requestID))
		c.Next()
	}
}

// Logger returns a gin middleware for structured logging using zap
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		logger.InfoCtx(c.Request.Context(), "API request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
			zap.String("user_agent", c.Request.UserAgent()),
		)
	}
}

// Recovery returns a gin middleware for panic recovery with logging
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logger.ErrorCtx(c.Request.Context(), fmt.Errorf("panic recovered: %v", err),
					zap.String("path", c.Request.URL.Path),
				)
				abortWithStatus(c, http.StatusInternalServerError, apierrors.NewInternalError("Internal server error"))
			}
		}()
		c.Next()
	}
}

// RateLimit rejects clients that exceed the limiter's per-IP budget
func RateLimit(limiter ratelimit.KeyedLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Allow(c.ClientIP()) {
			logger.WarnCtx(c.Request.Context(), "Rate limit exceeded",
				zap.String("path", c.Request.URL.Path),
				zap.String("client_ip", c.ClientIP()),
			)
			abortWithStatus(c, http.StatusTooManyRequests, apierrors.NewRateLimitedError("Too many requests, please slow down"))
			return
		}
		c.Next()
	}
}

func abortWithError(c *gin.Context, apiErr *apierrors.APIError) {
	status := http.StatusUnauthorized
	if apiErr.Code == apierrors.ErrCodeForbidden {
		status = http.StatusForbidden
	}
	abortWithStatus(c, status, apiErr)
}

func abortWithStatus(c *gin.Context, status int, apiErr *apierrors.APIError) {
	c.AbortWithStatusJSON(status, apierrors.ErrorResponse{Error: apiErr})
}
