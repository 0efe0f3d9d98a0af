package apiclient

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	apperrors "go-raffle-images/internal/errors"
	"go-raffle-images/internal/messages"
	"go-raffle-images/pkg/models"
)

func TestNormalize_ValidationError(t *testing.T) {
	body := []byte(`{"success":false,"message":"Validation failed","timestamp":"2024-01-01T00:00:00.000Z","statusCode":400,"statusText":"Bad Request","code":"VALIDATION_ERROR","errors":{"email":"EMAIL_INVALID"}}`)

	got := Normalize(RawFailure{StatusCode: 400, StatusText: "Bad Request", Body: body}, messages.Default())

	if got.Type != apperrors.ErrorTypeValidation {
		t.Fatalf("Expected validation error, got %s", got.Type)
	}
	if got.FriendlyErrors["email"] != "Please enter a valid email address" {
		t.Errorf("Unexpected friendly message: %q", got.FriendlyErrors["email"])
	}
	if got.Code != models.CodeValidation {
		t.Errorf("Expected code to be preserved, got %s", got.Code)
	}
	if got.Message != "Validation failed" {
		t.Errorf("Expected message to be preserved, got %q", got.Message)
	}
	if got.StatusCode != 400 {
		t.Errorf("Expected status 400, got %d", got.StatusCode)
	}
	if got.Envelope == nil || got.Envelope.Timestamp != "2024-01-01T00:00:00.000Z" {
		t.Errorf("Expected envelope to be preserved, got %+v", got.Envelope)
	}
	if string(got.Body) != string(body) {
		t.Error("Expected body to be preserved")
	}
}

func TestNormalize_ValidationError_OneFriendlyEntryPerField(t *testing.T) {
	fields := map[string]string{
		"email":    "EMAIL_INVALID",
		"password": "TOO_SHORT",
		"nickname": "SOMETHING_NEW",
		"files":    "FILE_TOO_LARGE",
	}
	env := models.NewValidationError(400, "Validation failed", fields)
	body, _ := json.Marshal(env)

	got := Normalize(RawFailure{StatusCode: 400, StatusText: "Bad Request", Body: body}, messages.Default())

	if len(got.FriendlyErrors) != len(fields) {
		t.Fatalf("Expected %d friendly errors, got %d", len(fields), len(got.FriendlyErrors))
	}
	for field, code := range fields {
		if got.Fields[field] != code {
			t.Errorf("Expected raw code %s for %s, got %s", code, field, got.Fields[field])
		}
		if got.FriendlyErrors[field] == "" {
			t.Errorf("Missing friendly message for %s", field)
		}
	}
	if got.FriendlyErrors["nickname"] != messages.DefaultMessage {
		t.Errorf("Expected default message for unknown code, got %q", got.FriendlyErrors["nickname"])
	}
	if got.FriendlyErrors["password"] != "Password must be at least 8 characters long" {
		t.Errorf("Expected field-specific message, got %q", got.FriendlyErrors["password"])
	}
}

func TestNormalize_UniqueConstraint(t *testing.T) {
	env := models.NewValidationError(409, "Duplicate", map[string]string{"email": "ALREADY_EXISTS"})
	body, _ := json.Marshal(env)

	got := Normalize(RawFailure{StatusCode: 409, StatusText: "Conflict", Body: body}, messages.Default())

	if got.Type != apperrors.ErrorTypeValidation {
		t.Fatalf("Expected validation error, got %s", got.Type)
	}
	if got.StatusCode != 409 {
		t.Errorf("Expected status 409, got %d", got.StatusCode)
	}
	if got.FriendlyErrors["email"] != "An account with this email already exists" {
		t.Errorf("Unexpected message %q", got.FriendlyErrors["email"])
	}
}

func TestNormalize_ServerErrorPassThrough(t *testing.T) {
	body := []byte(`{"success":false,"code":"SERVER_ERROR","message":"Internal server error"}`)

	got := Normalize(RawFailure{StatusCode: 500, StatusText: "Internal Server Error", Body: body}, messages.Default())

	if got.Type != apperrors.ErrorTypeServer {
		t.Fatalf("Expected server error, got %s", got.Type)
	}
	if got.FriendlyErrors != nil {
		t.Error("Expected no friendly errors on a server error")
	}
	if got.Message != "Internal server error" || got.Code != models.CodeServer {
		t.Errorf("Expected envelope fields unchanged, got %q / %s", got.Message, got.Code)
	}
	if got.StatusCode != 500 {
		t.Errorf("Expected status 500, got %d", got.StatusCode)
	}
	if string(got.Body) != string(body) {
		t.Error("Expected body to be passed through exactly")
	}
}

func TestNormalize_ValidationCodeWithoutErrorsIsServerError(t *testing.T) {
	tests := []string{
		`{"success":false,"code":"VALIDATION_ERROR","message":"bad"}`,
		`{"success":false,"code":"VALIDATION_ERROR","message":"bad","errors":null}`,
	}
	for _, body := range tests {
		got := Normalize(RawFailure{StatusCode: 400, StatusText: "Bad Request", Body: []byte(body)}, messages.Default())
		if got.Type != apperrors.ErrorTypeServer {
			t.Errorf("Body %s: expected server error, got %s", body, got.Type)
		}
	}
}

func TestNormalize_TransportFailure(t *testing.T) {
	got := Normalize(RawFailure{
		Err:  errors.New("Connection refused"),
		Body: []byte(`{"success":false,"code":"SERVER_ERROR","message":"ignored"}`),
	}, messages.Default())

	if got.Type != apperrors.ErrorTypeTransport {
		t.Fatalf("Expected transport error, got %s", got.Type)
	}
	if !strings.Contains(got.Message, "Network error") || !strings.Contains(got.Message, "Connection refused") {
		t.Errorf("Unexpected message %q", got.Message)
	}
}

func TestNormalize_UnrecognizedPayloads(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"no discriminator", `{"someUnexpectedProperty":"value"}`},
		{"success true", `{"success":true,"message":"odd"}`},
		{"plain text", `Bad things happened`},
		{"empty", ``},
		{"array", `[1,2,3]`},
		{"success not a bool", `{"success":"false","code":"SERVER_ERROR"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(RawFailure{StatusCode: 400, StatusText: "Bad Request", Body: []byte(tt.body)}, messages.Default())
			if got.Type != apperrors.ErrorTypeUnrecognized {
				t.Fatalf("Expected unrecognized error, got %s", got.Type)
			}
			if got.Message != "Error 400: Bad Request" {
				t.Errorf("Unexpected message %q", got.Message)
			}
		})
	}
}

func TestNormalize_Deterministic(t *testing.T) {
	inputs := []RawFailure{
		{StatusCode: 400, StatusText: "Bad Request", Body: []byte(`{"success":false,"code":"VALIDATION_ERROR","errors":{"a":"REQUIRED","b":"TOO_LONG"}}`)},
		{StatusCode: 404, StatusText: "Not Found", Body: []byte(`{"success":false,"code":"NOT_FOUND","message":"x"}`)},
		{StatusCode: 502, StatusText: "Bad Gateway", Body: []byte(`<html></html>`)},
		{Err: errors.New("dial tcp: timeout")},
	}

	for _, in := range inputs {
		first := Normalize(in, messages.Default())
		for i := 0; i < 5; i++ {
			again := Normalize(in, messages.Default())
			if again.Type != first.Type || again.Message != first.Message || len(again.FriendlyErrors) != len(first.FriendlyErrors) {
				t.Fatalf("Classification changed between runs: %+v vs %+v", first, again)
			}
		}
	}
}
