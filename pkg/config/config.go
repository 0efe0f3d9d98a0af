package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
)

// UploadLimits are the externally configured upload constraints shared by
// the client-side validator and the image store service
type UploadLimits struct {
	MaxFileSize         int64
	MaxTotalSize        int64
	MaxImages           int
	MaxFileSizeDisplay  string
	MaxTotalSizeDisplay string
	AllowedTypes        []string
}

// DefaultAllowedTypes are the media types accepted when ALLOWED_IMAGE_TYPES is unset
var DefaultAllowedTypes = []string{"image/jpeg", "image/png", "image/webp"}

// DefaultUploadLimits returns the limits used when nothing is configured
func DefaultUploadLimits() UploadLimits {
	l := UploadLimits{
		MaxFileSize:  5 * 1024 * 1024,
		MaxTotalSize: 20 * 1024 * 1024,
		MaxImages:    10,
		AllowedTypes: append([]string(nil), DefaultAllowedTypes...),
	}
	l.fillDisplays()
	return l
}

// LoadUploadLimits reads upload limits from the environment
func LoadUploadLimits() (UploadLimits, error) {
	def := DefaultUploadLimits()
	l := UploadLimits{
		MaxFileSize:         parseIntOrDefault("MAX_FILE_SIZE", def.MaxFileSize),
		MaxTotalSize:        parseIntOrDefault("MAX_TOTAL_SIZE", def.MaxTotalSize),
		MaxImages:           int(parseIntOrDefault("MAX_IMAGES", int64(def.MaxImages))),
		MaxFileSizeDisplay:  os.Getenv("MAX_FILE_SIZE_DISPLAY"),
		MaxTotalSizeDisplay: os.Getenv("MAX_TOTAL_SIZE_DISPLAY"),
		AllowedTypes:        parseListOrDefault("ALLOWED_IMAGE_TYPES", def.AllowedTypes),
	}
	l.fillDisplays()

	if err := l.Validate(); err != nil {
		return UploadLimits{}, err
	}
	return l, nil
}

// Validate checks that every limit is usable
func (l UploadLimits) Validate() error {
	if l.MaxFileSize <= 0 {
		return fmt.Errorf("MAX_FILE_SIZE must be > 0 (got %d)", l.MaxFileSize)
	}
	if l.MaxTotalSize <= 0 {
		return fmt.Errorf("MAX_TOTAL_SIZE must be > 0 (got %d)", l.MaxTotalSize)
	}
	if l.MaxImages <= 0 {
		return fmt.Errorf("MAX_IMAGES must be > 0 (got %d)", l.MaxImages)
	}
	if len(l.AllowedTypes) == 0 {
		return fmt.Errorf("ALLOWED_IMAGE_TYPES must list at least one media type")
	}
	return nil
}

// fillDisplays derives display strings from byte limits when none were configured
func (l *UploadLimits) fillDisplays() {
	if strings.TrimSpace(l.MaxFileSizeDisplay) == "" {
		l.MaxFileSizeDisplay = humanize.IBytes(uint64(l.MaxFileSize))
	}
	if strings.TrimSpace(l.MaxTotalSizeDisplay) == "" {
		l.MaxTotalSizeDisplay = humanize.IBytes(uint64(l.MaxTotalSize))
	}
}

func parseIntOrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func parseListOrDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return append([]string(nil), defaultValue...)
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.ToLower(strings.TrimSpace(item)); item != "" {
			out = append(out, item)
		}
	}
	return out
}
