package domain

import (
	"errors"
	"fmt"
	"time"
)

// ErrorKind classifies a failure so that outer layers can map it to a response
type ErrorKind string

const (
	KindValidation          ErrorKind = "validation"
	KindAuthorization       ErrorKind = "authorization"
	KindUnauthenticated     ErrorKind = "unauthenticated"
	KindEmailNotVerified    ErrorKind = "email_not_verified"
	KindNotFound            ErrorKind = "not_found"
	KindInsufficientCredits ErrorKind = "insufficient_credits"
	KindConflict            ErrorKind = "conflict"
	KindLocked              ErrorKind = "locked"
	KindDependency          ErrorKind = "dependency"
	KindInternal            ErrorKind = "internal"
)

var (
	// ErrStaleWrite is returned when a conditional update matched no row because
	// the record version changed since it was read
	ErrStaleWrite = errors.New("stale write: record was modified concurrently")
)

// Error is the typed error returned by every marketplace workflow
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error

	// RetryAfter is only set for KindLocked
	RetryAfter time.Duration
	// Details carries fields the client needs to recover, e.g. the account to verify
	Details map[string]any
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewValidationError returns an error for malformed or out-of-range input
func NewValidationError(format string, args ...any) error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// NewAuthorizationError returns an error for a caller without the required role or ownership
func NewAuthorizationError(format string, args ...any) error {
	return &Error{Kind: KindAuthorization, Message: fmt.Sprintf(format, args...)}
}

// NewUnauthenticatedError returns an error for invalid credentials
func NewUnauthenticatedError(format string, args ...any) error {
	return &Error{Kind: KindUnauthenticated, Message: fmt.Sprintf(format, args...)}
}

// NewEmailNotVerifiedError returns an error for a login attempt before email verification
func NewEmailNotVerifiedError(accountID uint64) error {
	return &Error{
		Kind:    KindEmailNotVerified,
		Message: "email verification required",
		Details: map[string]any{
			"user_id":                     accountID,
			"requires_email_verification": true,
		},
	}
}

// NewNotFoundError returns an error for a missing record
func NewNotFoundError(format string, args ...any) error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// NewInsufficientCreditsError returns an error for a purchase exceeding the available balance
func NewInsufficientCreditsError(requested, available float64) error {
	return &Error{
		Kind:    KindInsufficientCredits,
		Message: fmt.Sprintf("insufficient credits: requested %g, available %g", requested, available),
	}
}

// NewConflictError returns an error for a uniqueness or state conflict
func NewConflictError(format string, args ...any) error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

// NewLockedError returns an error for a temporarily locked account
func NewLockedError(retryAfter time.Duration) error {
	return &Error{
		Kind:       KindLocked,
		Message:    fmt.Sprintf("account locked, try again in %d minutes", int(retryAfter.Minutes())+1),
		RetryAfter: retryAfter,
	}
}

// NewDependencyError wraps a failure of an external collaborator
func NewDependencyError(dependency string, err error) error {
	return &Error{Kind: KindDependency, Message: dependency + " unavailable", Err: err}
}

// KindOf returns the kind of err, or KindInternal when err is not a *Error
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsKind reports whether err is a *Error of the given kind
func IsKind(err error, kind ErrorKind) bool {
	return err != nil && KindOf(err) == kind
}
