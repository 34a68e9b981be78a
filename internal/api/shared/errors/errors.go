package errors

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/feral-file/carbon-marketplace/internal/domain"
)

// ErrorCode represents a standardized error code
type ErrorCode string

const (
	// Client errors (4xx)
	ErrCodeBadRequest          ErrorCode = "bad_request"
	ErrCodeNotFound            ErrorCode = "not_found"
	ErrCodeValidationFailed    ErrorCode = "validation_failed"
	ErrCodeUnauthorized        ErrorCode = "unauthorized"
	ErrCodeForbidden           ErrorCode = "forbidden"
	ErrCodeEmailNotVerified    ErrorCode = "email_not_verified"
	ErrCodeInsufficientCredits ErrorCode = "insufficient_credits"
	ErrCodeConflict            ErrorCode = "conflict"
	ErrCodeLocked              ErrorCode = "account_locked"
	ErrCodeRateLimited         ErrorCode = "rate_limited"

	// Server errors (5xx)
	ErrCodeInternalError ErrorCode = "internal_error"
	ErrCodeServiceError  ErrorCode = "service_error"
)

// APIError is the error body returned by every endpoint
type APIError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details any       `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	jsonErr, _ := json.Marshal(e)
	return string(jsonErr)
}

// ErrorResponse wraps an APIError in the response envelope
type ErrorResponse struct {
	Error *APIError `json:"error"`
}

func newError(code ErrorCode, message string, details []string) *APIError {
	e := &APIError{Code: code, Message: message}
	if len(details) > 0 {
		e.Details = strings.Join(details, ", ")
	}
	return e
}

func NewBadRequestError(message string, details ...string) *APIError {
	return newError(ErrCodeBadRequest, message, details)
}

func NewValidationError(details ...string) *APIError {
	return newError(ErrCodeValidationFailed, "Validation failed", details)
}

func NewUnauthorizedError(message string, details ...string) *APIError {
	return newError(ErrCodeUnauthorized, message, details)
}

func NewForbiddenError(message string, details ...string) *APIError {
	return newError(ErrCodeForbidden, message, details)
}

func NewRateLimitedError(message string) *APIError {
	return newError(ErrCodeRateLimited, message, nil)
}

func NewInternalError(message string, details ...string) *APIError {
	return newError(ErrCodeInternalError, message, details)
}

// FromDomain maps a workflow error to its HTTP status and response body.
// Causes of dependency and internal failures are only exposed when debug is set.
func FromDomain(err error, debug bool) (int, *APIError) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return http.StatusBadRequest, apiErr
	}

	var derr *domain.Error
	if !errors.As(err, &derr) {
		e := NewInternalError("Internal server error")
		if debug {
			e.Details = err.Error()
		}
		return http.StatusInternalServerError, e
	}

	e := &APIError{Message: derr.Message}
	if derr.Details != nil {
		e.Details = derr.Details
	}

	switch derr.Kind {
	case domain.KindValidation:
		e.Code = ErrCodeValidationFailed
		return http.StatusBadRequest, e
	case domain.KindAuthorization:
		e.Code = ErrCodeForbidden
		return http.StatusForbidden, e
	case domain.KindUnauthenticated:
		e.Code = ErrCodeUnauthorized
		return http.StatusUnauthorized, e
	case domain.KindEmailNotVerified:
		e.Code = ErrCodeEmailNotVerified
		return http.StatusForbidden, e
	case domain.KindNotFound:
		e.Code = ErrCodeNotFound
		return http.StatusNotFound, e
	case domain.KindInsufficientCredits:
		e.Code = ErrCodeInsufficientCredits
		return http.StatusBadRequest, e
	case domain.KindConflict:
		e.Code = ErrCodeConflict
		return http.StatusConflict, e
	case domain.KindLocked:
		e.Code = ErrCodeLocked
		e.Details = map[string]any{"retry_after_seconds": int(derr.RetryAfter.Seconds())}
		return http.StatusLocked, e
	case domain.KindDependency:
		e.Code = ErrCodeServiceError
		if debug && derr.Err != nil {
			e.Details = derr.Err.Error()
		}
		return http.StatusInternalServerError, e
	default:
		e.Code = ErrCodeInternalError
		e.Message = "Internal server error"
		if debug {
			e.Details = err.Error()
		}
		return http.StatusInternalServerError, e
	}
}
