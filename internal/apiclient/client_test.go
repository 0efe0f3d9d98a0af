package apiclient

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	apperrors "go-raffle-images/internal/errors"
	"go-raffle-images/internal/logger"
	"go-raffle-images/pkg/models"
)

func init() {
	logger.Silence()
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	c, err := New(Options{BaseURL: server.URL + "/api", Token: "alice"})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return c
}

func TestNew_RejectsBadBaseURL(t *testing.T) {
	for _, base := range []string{"ftp://example.com", "not a url", ""} {
		if _, err := New(Options{BaseURL: base}); err == nil {
			t.Errorf("Expected error for base URL %q", base)
		}
	}
}

func TestClient_GetDecodesData(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/images" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer alice" {
			t.Errorf("Missing bearer token, got %q", r.Header.Get("Authorization"))
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"success":true,"message":"ok","timestamp":"t","data":{"images":[{"id":7,"url":"u","imageOrder":0}]}}`)
	})

	var payload models.ImagesPayload
	if err := c.Get(context.Background(), "/images", &payload); err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if len(payload.Images) != 1 || payload.Images[0].ID != 7 {
		t.Errorf("Unexpected payload %+v", payload)
	}
}

func TestClient_EmptySuccessBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	var payload models.ImagesPayload
	if err := c.Delete(context.Background(), "/images/3", &payload); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
}

func TestClient_NormalizesServerErrors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantType apperrors.ErrorType
		wantMsg  string
	}{
		{
			name:     "validation",
			status:   400,
			body:     `{"success":false,"message":"Validation failed","code":"VALIDATION_ERROR","errors":{"email":"EMAIL_INVALID"}}`,
			wantType: apperrors.ErrorTypeValidation,
			wantMsg:  "Validation failed",
		},
		{
			name:     "server",
			status:   500,
			body:     `{"success":false,"code":"SERVER_ERROR","message":"Internal server error"}`,
			wantType: apperrors.ErrorTypeServer,
			wantMsg:  "Internal server error",
		},
		{
			name:     "unrecognized",
			status:   400,
			body:     `{"someUnexpectedProperty":"value"}`,
			wantType: apperrors.ErrorTypeUnrecognized,
			wantMsg:  "Error 400: Bad Request",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			})

			err := c.Get(context.Background(), "/images", nil)
			appErr, ok := apperrors.As(err)
			if !ok {
				t.Fatalf("Expected AppError, got %T", err)
			}
			if appErr.Type != tt.wantType {
				t.Errorf("Expected type %s, got %s", tt.wantType, appErr.Type)
			}
			if appErr.Message != tt.wantMsg {
				t.Errorf("Expected message %q, got %q", tt.wantMsg, appErr.Message)
			}
			if appErr.StatusCode != tt.status {
				t.Errorf("Expected status %d, got %d", tt.status, appErr.StatusCode)
			}
		})
	}
}

func TestClient_TransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	base := server.URL
	server.Close()

	c, err := New(Options{BaseURL: base})
	if err != nil {
		t.Fatal(err)
	}

	err = c.Get(context.Background(), "/images", nil)
	if !apperrors.IsType(err, apperrors.ErrorTypeTransport) {
		t.Fatalf("Expected transport error, got %v", err)
	}
	appErr, _ := apperrors.As(err)
	if !strings.HasPrefix(appErr.Message, "Network error: ") {
		t.Errorf("Unexpected message %q", appErr.Message)
	}
}

func TestClient_PostMultipart(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("ParseMultipartForm: %v", err)
			return
		}
		files := r.MultipartForm.File["files"]
		if len(files) != 2 {
			t.Errorf("Expected 2 files, got %d", len(files))
			return
		}
		if files[0].Filename != "a.png" || files[0].Header.Get("Content-Type") != "image/png" {
			t.Errorf("Unexpected first part %s %s", files[0].Filename, files[0].Header.Get("Content-Type"))
		}
		io.WriteString(w, `{"success":true,"message":"ok","timestamp":"t","data":{"images":[{"id":1,"url":"a"},{"id":2,"url":"b"}]}}`)
	})

	var payload models.ImagesPayload
	err := c.PostMultipart(context.Background(), "/images", "files", []FilePart{
		{Name: "a.png", ContentType: "image/png", Content: strings.NewReader("aaa")},
		{Name: "b.jpg", ContentType: "image/jpeg", Content: strings.NewReader("bbb")},
	}, &payload)
	if err != nil {
		t.Fatalf("PostMultipart failed: %v", err)
	}
	if len(payload.Images) != 2 {
		t.Errorf("Expected 2 images, got %d", len(payload.Images))
	}
}

func TestStatusText(t *testing.T) {
	resp := &http.Response{StatusCode: 418, Status: "418 Short And Stout"}
	if got := statusText(resp); got != "Short And Stout" {
		t.Errorf("Expected server reason phrase, got %q", got)
	}
	resp = &http.Response{StatusCode: 404}
	if got := statusText(resp); got != "Not Found" {
		t.Errorf("Expected standard text, got %q", got)
	}
}
