package validation

import (
	"fmt"
	"mime"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	apperrors "go-raffle-images/internal/errors"
	"go-raffle-images/pkg/config"
)

// Rule names reported in AppError.Details
const (
	RuleCount     = "count"
	RuleFileSize  = "file_size"
	RuleTotalSize = "total_size"
	RuleMediaType = "media_type"
)

// FileInfo describes one file offered for upload
type FileInfo struct {
	Name        string
	Size        int64
	ContentType string
}

// UploadValidator checks an upload batch against the configured limits
type UploadValidator struct {
	limits  config.UploadLimits
	allowed map[string]struct{}
}

// NewUploadValidator creates a validator for the given limits
func NewUploadValidator(limits config.UploadLimits) *UploadValidator {
	allowed := make(map[string]struct{}, len(limits.AllowedTypes))
	for _, t := range limits.AllowedTypes {
		allowed[NormalizeMediaType(t)] = struct{}{}
	}
	return &UploadValidator{limits: limits, allowed: allowed}
}

// Limits returns the configured limits
func (v *UploadValidator) Limits() config.UploadLimits {
	return v.limits
}

// Validate checks files about to be added to a collection already holding
// current images. Rules run in a fixed order and the first failure wins:
// count, per-file size, total size, media type.
func (v *UploadValidator) Validate(current int, files []FileInfo) error {
	if current+len(files) > v.limits.MaxImages {
		return apperrors.NewInvalidInputError(
			fmt.Sprintf("You can upload a maximum of %d images. You currently have %d.", v.limits.MaxImages, current),
			RuleCount,
		)
	}

	for _, f := range files {
		if f.Size > v.limits.MaxFileSize {
			return apperrors.NewInvalidInputError(
				fmt.Sprintf("File %q exceeds the maximum size of %s", f.Name, v.limits.MaxFileSizeDisplay),
				RuleFileSize,
			)
		}
	}

	var total int64
	for _, f := range files {
		total += f.Size
	}
	if total > v.limits.MaxTotalSize {
		return apperrors.NewInvalidInputError(
			fmt.Sprintf("Total upload size exceeds the maximum of %s", v.limits.MaxTotalSizeDisplay),
			RuleTotalSize,
		)
	}

	for _, f := range files {
		if !v.IsAllowedType(f.ContentType) {
			return apperrors.NewInvalidInputError(
				fmt.Sprintf("File %q has an unsupported type", f.Name),
				RuleMediaType,
			)
		}
	}
	return nil
}

// IsAllowedType reports whether a declared media type is whitelisted
func (v *UploadValidator) IsAllowedType(contentType string) bool {
	_, ok := v.allowed[NormalizeMediaType(contentType)]
	return ok
}

// NormalizeMediaType lowercases a media type and strips its parameters
func NormalizeMediaType(contentType string) string {
	contentType = strings.TrimSpace(contentType)
	if contentType == "" {
		return ""
	}
	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
		return mediaType
	}
	return strings.ToLower(contentType)
}

// DetectContentType sniffs the media type of a file on disk
func DetectContentType(path string) (string, error) {
	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return "", fmt.Errorf("detect content type of %s: %w", path, err)
	}
	return NormalizeMediaType(mt.String()), nil
}

// DetectContentTypeBytes sniffs the media type of an in-memory file
func DetectContentTypeBytes(data []byte) string {
	return NormalizeMediaType(mimetype.Detect(data).String())
}
