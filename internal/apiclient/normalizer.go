package apiclient

import (
	"net/http"

	apperrors "go-raffle-images/internal/errors"
	"go-raffle-images/internal/messages"
	"go-raffle-images/pkg/models"
)

// RawFailure is everything known about one failed call before normalization
type RawFailure struct {
	// Err is set when no response was received
	Err        error
	StatusCode int
	StatusText string
	Header     http.Header
	Body       []byte
}

// Normalize reshapes a failed call into exactly one of the four client-facing
// error shapes. Transport failures are checked first, so a body attached to a
// transport error is never interpreted.
func Normalize(f RawFailure, catalog *messages.Catalog) *apperrors.AppError {
	if f.Err != nil {
		return apperrors.NewTransportError(f.Err)
	}

	switch shape := models.DecodeErrorBody(f.Body).(type) {
	case *models.ValidationErrorEnvelope:
		friendly := catalog.ResolveAll(shape.Errors)
		return apperrors.NewValidationError(shape, f.StatusCode, f.StatusText, friendly, f.Body)
	case *models.ErrorEnvelope:
		return apperrors.NewServerError(shape, f.StatusCode, f.StatusText, f.Body)
	case models.UnrecognizedBody:
		return apperrors.NewUnrecognizedError(f.StatusCode, f.StatusText, f.Body)
	default:
		panic("apiclient: unhandled error shape")
	}
}
