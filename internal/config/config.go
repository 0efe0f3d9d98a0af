package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	limits "go-raffle-images/pkg/config"
	"go-raffle-images/pkg/validation"
)

// Config holds the image store service settings
type Config struct {
	Host               string
	Port               string
	RequestTimeout     time.Duration
	MaxRequestBodySize int64
	DatabasePath       string
	PublicBaseURL      string
	MessagesFile       string

	BlobBackend    string
	AzureAccount   string
	AzureKey       string
	AzureContainer string

	Uploads limits.UploadLimits
}

// ClientConfig holds the settings of the API client used by the CLI
type ClientConfig struct {
	BaseURL      string
	Token        string
	Timeout      time.Duration
	MessagesFile string
	Uploads      limits.UploadLimits
}

func (c *Config) ServerAddress() string {
	host := strings.TrimSpace(c.Host)
	port := strings.TrimSpace(c.Port)
	return net.JoinHostPort(host, port)
}

func LoadFromEnv() (*Config, error) {
	uploads, err := limits.LoadUploadLimits()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Host:               getEnvOrDefault("HOST", "0.0.0.0"),
		Port:               getEnvOrDefault("PORT", "8080"),
		RequestTimeout:     parseDurationOrDefault("REQUEST_TIMEOUT", 30*time.Second),
		MaxRequestBodySize: parseIntOrDefault("MAX_REQUEST_BODY_SIZE", 32*1024*1024), // 32MB
		DatabasePath:       getEnvOrDefault("DATABASE_PATH", "raffle-images.db"),
		PublicBaseURL:      os.Getenv("PUBLIC_BASE_URL"),
		MessagesFile:       os.Getenv("MESSAGES_FILE"),
		BlobBackend:        strings.ToLower(getEnvOrDefault("BLOB_BACKEND", "memory")),
		AzureAccount:       os.Getenv("AZURE_STORAGE_ACCOUNT"),
		AzureKey:           os.Getenv("AZURE_STORAGE_KEY"),
		AzureContainer:     getEnvOrDefault("AZURE_CONTAINER", "raffle-images"),
		Uploads:            uploads,
	}

	if cfg.PublicBaseURL == "" {
		cfg.PublicBaseURL = "http://" + net.JoinHostPort("localhost", strings.TrimSpace(cfg.Port))
	}

	if err := validation.NewURLValidator().ValidateEndpoint(cfg.PublicBaseURL); err != nil {
		return nil, fmt.Errorf("invalid PUBLIC_BASE_URL %q: %w", cfg.PublicBaseURL, err)
	}

	p, err := strconv.Atoi(strings.TrimSpace(cfg.Port))
	if err != nil || p < 1 || p > 65535 {
		return nil, fmt.Errorf("invalid PORT: %q", cfg.Port)
	}
	if cfg.MaxRequestBodySize <= 0 {
		return nil, fmt.Errorf("MAX_REQUEST_BODY_SIZE must be > 0 (got %d)", cfg.MaxRequestBodySize)
	}
	if cfg.MaxRequestBodySize < cfg.Uploads.MaxTotalSize {
		return nil, fmt.Errorf("MAX_REQUEST_BODY_SIZE (%d) must be >= MAX_TOTAL_SIZE (%d)", cfg.MaxRequestBodySize, cfg.Uploads.MaxTotalSize)
	}
	if cfg.RequestTimeout <= 0 {
		return nil, fmt.Errorf("REQUEST_TIMEOUT must be > 0 (got %s)", cfg.RequestTimeout)
	}
	switch cfg.BlobBackend {
	case "memory":
	case "azure":
		if cfg.AzureAccount == "" || cfg.AzureKey == "" {
			return nil, fmt.Errorf("BLOB_BACKEND=azure requires AZURE_STORAGE_ACCOUNT and AZURE_STORAGE_KEY")
		}
	default:
		return nil, fmt.Errorf("invalid BLOB_BACKEND: %q", cfg.BlobBackend)
	}
	return cfg, nil
}

// LoadClientFromEnv reads the API client settings
func LoadClientFromEnv() (*ClientConfig, error) {
	uploads, err := limits.LoadUploadLimits()
	if err != nil {
		return nil, err
	}

	cfg := &ClientConfig{
		BaseURL:      getEnvOrDefault("API_BASE_URL", "http://localhost:8080/api"),
		Token:        os.Getenv("API_TOKEN"),
		Timeout:      parseDurationOrDefault("CLIENT_TIMEOUT", 30*time.Second),
		MessagesFile: os.Getenv("MESSAGES_FILE"),
		Uploads:      uploads,
	}

	if err := validation.NewURLValidator().ValidateEndpoint(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid API_BASE_URL %q: %w", cfg.BaseURL, err)
	}
	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(strings.TrimSpace(value)); err == nil && duration > 0 {
			return duration
		}
	}
	return defaultValue
}

func parseIntOrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}
