package container

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go-raffle-images/internal/config"
	"go-raffle-images/internal/logger"
	limits "go-raffle-images/pkg/config"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
	logger.Silence()
}

func TestNewContainer(t *testing.T) {
	cfg := &config.Config{
		RequestTimeout:     time.Second,
		MaxRequestBodySize: 1 << 20,
		DatabasePath:       ":memory:",
		PublicBaseURL:      "http://localhost:8080",
		BlobBackend:        "memory",
		Uploads:            limits.DefaultUploadLimits(),
	}

	c, err := NewContainer(context.Background(), cfg)
	if err != nil {
		t.Fatalf("NewContainer failed: %v", err)
	}
	defer c.Close()

	if c.Config() != cfg {
		t.Error("Expected container to keep the config")
	}

	w := httptest.NewRecorder()
	c.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
}

func TestNewContainer_BadBackend(t *testing.T) {
	cfg := &config.Config{DatabasePath: ":memory:", BlobBackend: "tape"}
	if _, err := NewContainer(context.Background(), cfg); err == nil {
		t.Error("Expected error for unknown blob backend")
	}
}
