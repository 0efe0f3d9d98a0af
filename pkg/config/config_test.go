package config

import "testing"

func TestDefaultUploadLimits(t *testing.T) {
	l := DefaultUploadLimits()
	if err := l.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
	if l.MaxFileSizeDisplay != "5.0 MiB" {
		t.Errorf("Expected derived display '5.0 MiB', got %q", l.MaxFileSizeDisplay)
	}
	if l.MaxTotalSizeDisplay != "20 MiB" {
		t.Errorf("Expected derived display '20 MiB', got %q", l.MaxTotalSizeDisplay)
	}
}

func TestLoadUploadLimits_FromEnv(t *testing.T) {
	t.Setenv("MAX_FILE_SIZE", "1024")
	t.Setenv("MAX_TOTAL_SIZE", "4096")
	t.Setenv("MAX_IMAGES", "3")
	t.Setenv("MAX_FILE_SIZE_DISPLAY", "1KB")
	t.Setenv("ALLOWED_IMAGE_TYPES", "image/png, IMAGE/GIF ,")

	l, err := LoadUploadLimits()
	if err != nil {
		t.Fatalf("LoadUploadLimits failed: %v", err)
	}
	if l.MaxFileSize != 1024 || l.MaxTotalSize != 4096 || l.MaxImages != 3 {
		t.Errorf("Unexpected limits %+v", l)
	}
	if l.MaxFileSizeDisplay != "1KB" {
		t.Errorf("Expected configured display, got %q", l.MaxFileSizeDisplay)
	}
	if l.MaxTotalSizeDisplay != "4.0 KiB" {
		t.Errorf("Expected derived display, got %q", l.MaxTotalSizeDisplay)
	}
	if len(l.AllowedTypes) != 2 || l.AllowedTypes[0] != "image/png" || l.AllowedTypes[1] != "image/gif" {
		t.Errorf("Unexpected allowed types %v", l.AllowedTypes)
	}
}

func TestLoadUploadLimits_Invalid(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"MAX_FILE_SIZE", "0"},
		{"MAX_TOTAL_SIZE", "-5"},
		{"MAX_IMAGES", "0"},
		{"ALLOWED_IMAGE_TYPES", " , "},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if _, err := LoadUploadLimits(); err == nil {
				t.Errorf("Expected error for %s=%q", tt.key, tt.value)
			}
		})
	}
}
