package errors

import (
	"encoding/json"
	"fmt"
	"net/http"

	"go-raffle-images/pkg/models"
)

// ErrorType represents different categories of errors
type ErrorType string

const (
	// ErrorTypeTransport means no response reached the caller
	ErrorTypeTransport ErrorType = "transport"
	// ErrorTypeValidation is a recognised server validation error with friendly messages
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypeServer is any other recognised server error envelope
	ErrorTypeServer ErrorType = "server"
	// ErrorTypeUnrecognized is a failed response whose body is not an error envelope
	ErrorTypeUnrecognized ErrorType = "unrecognized"
	// ErrorTypeInvalidInput is a client-side precondition rejection; no request was sent
	ErrorTypeInvalidInput ErrorType = "invalid_input"
	ErrorTypeNotFound     ErrorType = "not_found"
	ErrorTypeForbidden    ErrorType = "forbidden"
	ErrorTypeInternal     ErrorType = "internal"
)

// AppError represents a structured application error
type AppError struct {
	Type       ErrorType        `json:"type"`
	Message    string           `json:"message"`
	Details    string           `json:"details,omitempty"`
	StatusCode int              `json:"status_code,omitempty"`
	StatusText string           `json:"status_text,omitempty"`
	Code       models.ErrorCode `json:"code,omitempty"`

	// Envelope is the decoded server body for validation and server errors
	Envelope *models.ErrorEnvelope `json:"-"`
	// Fields holds the raw validation codes keyed by field name
	Fields map[string]string `json:"errors,omitempty"`
	// FriendlyErrors holds one human-readable message per key of Fields
	FriendlyErrors map[string]string `json:"friendly_errors,omitempty"`
	// Body is the response body exactly as received
	Body  json.RawMessage `json:"-"`
	Cause error           `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// FieldMessage returns the friendly message for field, if the error is a validation error naming it
func (e *AppError) FieldMessage(field string) (string, bool) {
	if e.Type != ErrorTypeValidation {
		return "", false
	}
	msg, ok := e.FriendlyErrors[field]
	return msg, ok
}

// NewTransportError creates a transport failure; message is "Network error: <cause>"
func NewTransportError(cause error) *AppError {
	return &AppError{
		Type:    ErrorTypeTransport,
		Message: "Network error: " + cause.Error(),
		Cause:   cause,
	}
}

// NewValidationError wraps a server validation envelope with its friendly messages
func NewValidationError(env *models.ValidationErrorEnvelope, status int, statusText string, friendly map[string]string, body []byte) *AppError {
	envCopy := env.ErrorEnvelope
	fields := make(map[string]string, len(env.Errors))
	for k, v := range env.Errors {
		fields[k] = v
	}
	return &AppError{
		Type:           ErrorTypeValidation,
		Message:        env.Message,
		StatusCode:     status,
		StatusText:     statusText,
		Code:           env.Code,
		Envelope:       &envCopy,
		Fields:         fields,
		FriendlyErrors: friendly,
		Body:           body,
	}
}

// NewServerError passes a recognised server error envelope through unchanged
func NewServerError(env *models.ErrorEnvelope, status int, statusText string, body []byte) *AppError {
	envCopy := *env
	return &AppError{
		Type:       ErrorTypeServer,
		Message:    env.Message,
		StatusCode: status,
		StatusText: statusText,
		Code:       env.Code,
		Envelope:   &envCopy,
		Body:       body,
	}
}

// NewUnrecognizedError creates a failure for a body that matched no known shape
func NewUnrecognizedError(status int, statusText string, body []byte) *AppError {
	return &AppError{
		Type:       ErrorTypeUnrecognized,
		Message:    fmt.Sprintf("Error %d: %s", status, statusText),
		StatusCode: status,
		StatusText: statusText,
		Body:       body,
	}
}

// NewInvalidInputError creates a client-side rejection
func NewInvalidInputError(message, details string) *AppError {
	return &AppError{
		Type:       ErrorTypeInvalidInput,
		Message:    message,
		Details:    details,
		StatusCode: http.StatusBadRequest,
	}
}

// NewInternalError creates a new internal error
func NewInternalError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeNotFound,
		Message:    message,
		StatusCode: http.StatusNotFound,
		Cause:      cause,
	}
}

// NewForbiddenError creates an error for a resource owned by someone else
func NewForbiddenError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeForbidden,
		Message:    message,
		StatusCode: http.StatusForbidden,
	}
}

// IsType checks if the error is of a specific type
func IsType(err error, errorType ErrorType) bool {
	if appErr, ok := As(err); ok {
		return appErr.Type == errorType
	}
	return false
}

// As extracts an AppError from an error chain
func As(err error) (*AppError, bool) {
	for err != nil {
		if appErr, ok := err.(*AppError); ok {
			return appErr, true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return nil, false
		}
		err = u.Unwrap()
	}
	return nil, false
}

// GetStatusCode extracts the HTTP status code from an error
func GetStatusCode(err error) int {
	if appErr, ok := As(err); ok && appErr.StatusCode != 0 {
		return appErr.StatusCode
	}
	return http.StatusInternalServerError
}
