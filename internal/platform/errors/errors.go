// Package errors provides structured error handling with HTTP status code
// mapping for the feedback service.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType represents the category of error for metrics and response formatting.
type ErrorType string

const (
	// TypeValidation indicates malformed input (HTTP 400)
	TypeValidation ErrorType = "validation"
	// TypeEligibility indicates a business-rule rejection of a submission,
	// window not open yet or slot already rated (HTTP 400)
	TypeEligibility ErrorType = "eligibility"
	// TypeNotFound indicates resource not found (HTTP 404)
	TypeNotFound ErrorType = "not_found"
	// TypeConflict indicates a store-level race on first creation (HTTP 409)
	TypeConflict ErrorType = "conflict"
	// TypeConnectivity indicates the store is unreachable (HTTP 503)
	TypeConnectivity ErrorType = "connectivity"
	// TypeDelegate indicates the analysis delegate failed (HTTP 502)
	TypeDelegate ErrorType = "delegate"
	// TypeTimeout indicates the analysis delegate exceeded its deadline (HTTP 504)
	TypeTimeout ErrorType = "timeout"
	// TypeInternal indicates a server-side error (HTTP 500)
	TypeInternal ErrorType = "internal"
)

// Error represents a structured error with type, message, and context.
type Error struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]any
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// HTTPStatus returns the appropriate HTTP status code for this error type.
func (e *Error) HTTPStatus() int {
	switch e.Type {
	case TypeValidation, TypeEligibility:
		return http.StatusBadRequest
	case TypeNotFound:
		return http.StatusNotFound
	case TypeConflict:
		return http.StatusConflict
	case TypeConnectivity:
		return http.StatusServiceUnavailable
	case TypeDelegate:
		return http.StatusBadGateway
	case TypeTimeout:
		return http.StatusGatewayTimeout
	case TypeInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// ValidationError creates a new validation error (HTTP 400).
func ValidationError(message string) *Error {
	return &Error{Type: TypeValidation, Message: message, Context: make(map[string]any)}
}

// EligibilityError creates a new eligibility rejection. The message must be
// specific enough for a UI to explain which window is closed or that the
// slot is already rated.
func EligibilityError(reason string) *Error {
	return &Error{Type: TypeEligibility, Message: reason, Context: make(map[string]any)}
}

// NotFoundError creates a new not-found error (HTTP 404).
func NotFoundError(message string) *Error {
	return &Error{Type: TypeNotFound, Message: message, Context: make(map[string]any)}
}

// ConflictError creates a new conflict error (HTTP 409).
func ConflictError(message string, cause error) *Error {
	return &Error{Type: TypeConflict, Message: message, Cause: cause, Context: make(map[string]any)}
}

// ConnectivityError creates a new store-unreachable error (HTTP 503).
func ConnectivityError(message string, cause error) *Error {
	return &Error{Type: TypeConnectivity, Message: message, Cause: cause, Context: make(map[string]any)}
}

// DelegateError creates a new analysis delegate failure (HTTP 502). The
// original message is preserved for diagnostics.
func DelegateError(message string, cause error) *Error {
	return &Error{Type: TypeDelegate, Message: message, Cause: cause, Context: make(map[string]any)}
}

// TimeoutError creates a new delegate timeout error (HTTP 504).
func TimeoutError(message string, cause error) *Error {
	return &Error{Type: TypeTimeout, Message: message, Cause: cause, Context: make(map[string]any)}
}

// InternalError creates a new internal error (HTTP 500).
func InternalError(message string, cause error) *Error {
	return &Error{Type: TypeInternal, Message: message, Cause: cause, Context: make(map[string]any)}
}

// WithContext adds a context field to the error (chainable).
func (e *Error) WithContext(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// ErrorResponse represents the JSON structure sent to clients.
type ErrorResponse struct {
	Status  string         `json:"status"`
	Message string         `json:"message"`
	Type    ErrorType      `json:"type"`
	Context map[string]any `json:"context,omitempty"`
}

// ToResponse converts an Error to an ErrorResponse for JSON serialization.
func (e *Error) ToResponse() ErrorResponse {
	return ErrorResponse{
		Status:  "error",
		Message: e.Message,
		Type:    e.Type,
		Context: e.Context,
	}
}

// AsStructuredError converts any error into a structured Error.
// If err is already an *Error, returns it unchanged.
// Otherwise wraps it as an internal error.
func AsStructuredError(err error) *Error {
	if err == nil {
		return nil
	}

	var structuredErr *Error
	if errors.As(err, &structuredErr) {
		return structuredErr
	}

	return InternalError("internal server error", err)
}
