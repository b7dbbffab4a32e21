package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// HTTPError defines errors that can be mapped to HTTP status codes.
// Implementing this interface enables extensible error handling.
type HTTPError interface {
	error
	StatusCode() int
}

// Domain error types implementing HTTPError interface
type (
	// NotFoundError indicates a resource was not found
	NotFoundError struct {
		Message string
	}

	// ValidationError indicates invalid input
	ValidationError struct {
		Message string
	}

	// UnauthorizedError indicates authentication failure
	UnauthorizedError struct {
		Message string
	}
)

// Error implementations
func (e *NotFoundError) Error() string     { return e.Message }
func (e *ValidationError) Error() string   { return e.Message }
func (e *UnauthorizedError) Error() string { return e.Message }

// StatusCode implementations (HTTPError interface)
func (e *NotFoundError) StatusCode() int     { return http.StatusNotFound }
func (e *ValidationError) StatusCode() int   { return http.StatusBadRequest }
func (e *UnauthorizedError) StatusCode() int { return http.StatusUnauthorized }

// Sentinel errors - use with errors.Is()
var (
	ErrNotFound         = errors.New("not found")
	ErrValidation       = errors.New("validation failed")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrForbidden        = errors.New("forbidden")
	ErrStoreUnavailable = errors.New("store unavailable")
)

// PermissionDeniedError is the user-facing result of a denied authorization check.
// Reason is one of "missing permission", "identity unresolved" or "not owner" and
// is safe to show to the caller.
type PermissionDeniedError struct {
	Role     string
	Resource string
	Action   string
	Reason   string
}

// Error implements the error interface
func (e *PermissionDeniedError) Error() string {
	return fmt.Sprintf("%s cannot %s %s: %s", e.Role, e.Action, e.Resource, e.Reason)
}

// StatusCode implements the HTTPError interface
func (e *PermissionDeniedError) StatusCode() int {
	return http.StatusForbidden
}

// Is allows errors.Is() to match against ErrForbidden
func (e *PermissionDeniedError) Is(target error) bool {
	return target == ErrForbidden
}

// StoreUnavailableError wraps a transient failure of the identity or ownership store.
// It is never an authorization outcome; callers own the retry policy.
type StoreUnavailableError struct {
	Op  string // e.g. "resolve owner id", "fetch owner id"
	Err error
}

// Error implements the error interface
func (e *StoreUnavailableError) Error() string {
	return fmt.Sprintf("%s: store unavailable: %v", e.Op, e.Err)
}

// Unwrap exposes the driver error
func (e *StoreUnavailableError) Unwrap() error {
	return e.Err
}

// Is allows errors.Is() to match against ErrStoreUnavailable
func (e *StoreUnavailableError) Is(target error) bool {
	return target == ErrStoreUnavailable
}

// StatusCode implements the HTTPError interface
func (e *StoreUnavailableError) StatusCode() int {
	return http.StatusServiceUnavailable
}

// Retryable reports that the operation may succeed if repeated.
func (e *StoreUnavailableError) Retryable() bool {
	return true
}

// IsRetryable reports whether any error in err's chain asks to be retried.
func IsRetryable(err error) bool {
	var r interface{ Retryable() bool }
	return errors.As(err, &r) && r.Retryable()
}
