package models

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"
)

// ErrorCode is the machine-readable error identifier carried by every error envelope
type ErrorCode string

const (
	CodeValidation   ErrorCode = "VALIDATION_ERROR"
	CodeServer       ErrorCode = "SERVER_ERROR"
	CodeNotFound     ErrorCode = "NOT_FOUND"
	CodeUnauthorized ErrorCode = "UNAUTHORIZED"
	CodeForbidden    ErrorCode = "FORBIDDEN"
	CodeBadRequest   ErrorCode = "BAD_REQUEST"
	CodeConflict     ErrorCode = "CONFLICT"
)

// TimestampFormat is the layout used for envelope timestamps
const TimestampFormat = "2006-01-02T15:04:05.000Z07:00"

// SuccessEnvelope wraps every successful API response
type SuccessEnvelope[T any] struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
	Data      *T     `json:"data"`
}

// ErrorEnvelope wraps every failed API response
type ErrorEnvelope struct {
	Success    bool      `json:"success"`
	Message    string    `json:"message"`
	Timestamp  string    `json:"timestamp"`
	StatusCode int       `json:"statusCode"`
	StatusText string    `json:"statusText"`
	Code       ErrorCode `json:"code"`
}

// ValidationErrorEnvelope carries field-level validation codes keyed by field name.
// A unique-constraint violation uses the same shape with status 409.
type ValidationErrorEnvelope struct {
	ErrorEnvelope
	Errors map[string]string `json:"errors"`
}

// IsUniqueConstraint reports whether the envelope describes a unique-constraint violation
func (v *ValidationErrorEnvelope) IsUniqueConstraint() bool {
	return v.StatusCode == http.StatusConflict
}

// ErrorShape is the result of decoding a failed response body.
// Exactly one of *ValidationErrorEnvelope, *ErrorEnvelope or UnrecognizedBody.
type ErrorShape interface {
	errorShape()
}

// UnrecognizedBody is any failed response body that is not an error envelope
type UnrecognizedBody struct {
	Raw []byte
}

func (*ErrorEnvelope) errorShape()           {}
func (*ValidationErrorEnvelope) errorShape() {}
func (UnrecognizedBody) errorShape()         {}

// probe mirrors the wire shape with pointers so absent members can be told apart from zero values
type probe struct {
	Success    *bool            `json:"success"`
	Message    string           `json:"message"`
	Timestamp  string           `json:"timestamp"`
	StatusCode int              `json:"statusCode"`
	StatusText string           `json:"statusText"`
	Code       ErrorCode        `json:"code"`
	Errors     *json.RawMessage `json:"errors"`
}

// DecodeErrorBody classifies a failed response body. A body is an error envelope
// only when it is a JSON object whose "success" member is false; it is a
// validation envelope when additionally code is VALIDATION_ERROR and "errors"
// is a non-null object.
func DecodeErrorBody(body []byte) ErrorShape {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return UnrecognizedBody{Raw: body}
	}

	var p probe
	if err := json.Unmarshal(trimmed, &p); err != nil {
		return UnrecognizedBody{Raw: body}
	}
	if p.Success == nil || *p.Success {
		return UnrecognizedBody{Raw: body}
	}

	env := ErrorEnvelope{
		Success:    false,
		Message:    p.Message,
		Timestamp:  p.Timestamp,
		StatusCode: p.StatusCode,
		StatusText: p.StatusText,
		Code:       p.Code,
	}

	if p.Code == CodeValidation && p.Errors != nil {
		var fields map[string]string
		if err := json.Unmarshal(*p.Errors, &fields); err == nil && fields != nil {
			return &ValidationErrorEnvelope{ErrorEnvelope: env, Errors: fields}
		}
	}
	return &env
}

// NewSuccess builds a success envelope around data
func NewSuccess[T any](message string, data *T) SuccessEnvelope[T] {
	return SuccessEnvelope[T]{
		Success:   true,
		Message:   message,
		Timestamp: now(),
		Data:      data,
	}
}

// NewError builds an error envelope for the given HTTP status
func NewError(status int, code ErrorCode, message string) ErrorEnvelope {
	return ErrorEnvelope{
		Success:    false,
		Message:    message,
		Timestamp:  now(),
		StatusCode: status,
		StatusText: http.StatusText(status),
		Code:       code,
	}
}

// NewValidationError builds a validation envelope; pass http.StatusConflict for unique-constraint violations
func NewValidationError(status int, message string, fields map[string]string) ValidationErrorEnvelope {
	return ValidationErrorEnvelope{
		ErrorEnvelope: NewError(status, CodeValidation, message),
		Errors:        fields,
	}
}

func now() string {
	return time.Now().UTC().Format(TimestampFormat)
}
