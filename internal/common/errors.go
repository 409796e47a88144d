// Package common provides shared utilities and types used across the application.
package common

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Common application errors.
var (
	// API errors.
	ErrNotFound        = errors.New("not found")
	ErrNetwork         = errors.New("network error")
	ErrUnauthenticated = errors.New("authentication required")
	ErrForbidden       = errors.New("permission denied")
	ErrMaintenance     = errors.New("service under maintenance")
	ErrValidation      = errors.New("validation failed")
	ErrPartialFailure  = errors.New("partial failure")

	// Mutation errors.
	ErrMutationPending = errors.New("another change is still being saved")
	ErrNoChanges       = errors.New("no fields to update")
	ErrNoSelection     = errors.New("no records selected")

	// Configuration errors.
	ErrMissingConfig = errors.New("missing configuration")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// UserError represents an error that should be shown to the user.
type UserError struct {
	Err         error
	UserMessage string
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.UserMessage, e.Err)
	}
	return e.UserMessage
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError creates a new user-friendly error.
func NewUserError(userMessage string, err error) error {
	return &UserError{
		UserMessage: userMessage,
		Err:         err,
	}
}

// ValidationError is a client-side form constraint violation.
// Fields maps the wire name of each offending field to a message.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return ErrValidation.Error()
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return fmt.Sprintf("%s: %s", ErrValidation, strings.Join(parts, "; "))
}

// Is reports ErrValidation as a match.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// NewValidationError builds a ValidationError for a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

// NetworkError is a transport or connectivity failure. The user may retry.
type NetworkError struct {
	Err error
	Op  string
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrNetwork, e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// Is reports ErrNetwork as a match.
func (e *NetworkError) Is(target error) bool {
	return target == ErrNetwork
}

// AuthError means the bearer credential is missing, expired or rejected.
// It is not recoverable in place; the caller must re-authenticate.
type AuthError struct {
	Err    error
	Reason string
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", ErrUnauthenticated, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", ErrUnauthenticated, e.Reason)
}

func (e *AuthError) Unwrap() error { return e.Err }

// Is reports ErrUnauthenticated as a match.
func (e *AuthError) Is(target error) bool {
	return target == ErrUnauthenticated
}

// MaintenanceError is returned when the backend declares service-wide maintenance.
type MaintenanceError struct {
	Message string
}

func (e *MaintenanceError) Error() string {
	if e.Message == "" {
		return ErrMaintenance.Error()
	}
	return fmt.Sprintf("%s: %s", ErrMaintenance, e.Message)
}

// Is reports ErrMaintenance as a match.
func (e *MaintenanceError) Is(target error) bool {
	return target == ErrMaintenance
}

// APIError is any other non-success response from the backend.
type APIError struct {
	Detail string
	Status int
}

func (e *APIError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("api error (status %d)", e.Status)
	}
	return fmt.Sprintf("api error (status %d): %s", e.Status, e.Detail)
}

// Is maps 404 responses onto ErrNotFound and 403 onto ErrForbidden.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Status == 404
	case ErrForbidden:
		return e.Status == 403
	}
	return false
}

// PartialFailure describes a bulk operation where some items failed.
// It is reported to the user but never escalated to a total failure.
type PartialFailure struct {
	Op        string
	Message   string
	FailedIDs []string
	Succeeded int
}

func (e *PartialFailure) Error() string {
	return fmt.Sprintf("%s: %d succeeded, %d failed (%s)",
		e.Op, e.Succeeded, len(e.FailedIDs), strings.Join(e.FailedIDs, ", "))
}

// Is reports ErrPartialFailure as a match.
func (e *PartialFailure) Is(target error) bool {
	return target == ErrPartialFailure
}

// IsRetryable determines if an error should trigger a retry.
func IsRetryable(err error) bool {
	if errors.Is(err, ErrRateLimit) ||
		errors.Is(err, ErrNetwork) ||
		errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var retryableErr *RetryableError
	if errors.As(err, &retryableErr) {
		return retryableErr.Retryable
	}

	return false
}

// IsFatalToView reports whether an error should take over the whole screen
// rather than being shown inline next to the control that triggered it.
func IsFatalToView(err error) bool {
	return errors.Is(err, ErrUnauthenticated) || errors.Is(err, ErrMaintenance)
}
