package config

import (
	"testing"
	"time"
)

func TestLoadFromEnv_Defaults(t *testing.T) {
	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv failed: %v", err)
	}
	if cfg.ServerAddress() != "0.0.0.0:8080" {
		t.Errorf("Unexpected address %s", cfg.ServerAddress())
	}
	if cfg.BlobBackend != "memory" {
		t.Errorf("Expected memory backend, got %s", cfg.BlobBackend)
	}
	if cfg.PublicBaseURL != "http://localhost:8080" {
		t.Errorf("Unexpected public base URL %s", cfg.PublicBaseURL)
	}
	if cfg.RequestTimeout != 30*time.Second {
		t.Errorf("Unexpected timeout %s", cfg.RequestTimeout)
	}
}

func TestLoadFromEnv_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"bad port", map[string]string{"PORT": "http"}},
		{"port out of range", map[string]string{"PORT": "70000"}},
		{"negative body size", map[string]string{"MAX_REQUEST_BODY_SIZE": "-1"}},
		{"body smaller than uploads", map[string]string{"MAX_REQUEST_BODY_SIZE": "1024"}},
		{"unknown backend", map[string]string{"BLOB_BACKEND": "floppy"}},
		{"azure without credentials", map[string]string{"BLOB_BACKEND": "azure"}},
		{"public URL without scheme", map[string]string{"PUBLIC_BASE_URL": "cdn.example.com"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := LoadFromEnv(); err == nil {
				t.Error("Expected error")
			}
		})
	}
}

func TestLoadClientFromEnv(t *testing.T) {
	t.Setenv("API_BASE_URL", "https://raffles.example.com/api")
	t.Setenv("API_TOKEN", "alice")
	t.Setenv("CLIENT_TIMEOUT", "5s")

	cfg, err := LoadClientFromEnv()
	if err != nil {
		t.Fatalf("LoadClientFromEnv failed: %v", err)
	}
	if cfg.Token != "alice" || cfg.Timeout != 5*time.Second {
		t.Errorf("Unexpected config %+v", cfg)
	}

	t.Setenv("API_BASE_URL", "raffles.example.com")
	if _, err := LoadClientFromEnv(); err == nil {
		t.Error("Expected error for base URL without scheme")
	}
}
