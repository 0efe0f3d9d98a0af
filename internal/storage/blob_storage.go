package storage

import (
	"context"
	"errors"
	"path"
	"strings"

	"github.com/google/uuid"
)

// ErrBlobNotFound is returned when a key has no blob
var ErrBlobNotFound = errors.New("blob not found")

// BlobStorage stores the bytes of uploaded images
type BlobStorage interface {
	Put(ctx context.Context, key, contentType string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, string, error)
	Delete(ctx context.Context, key string) error
	// URL returns the public address of a blob
	URL(key string) string
}

var extensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// NewKey returns a fresh blob key, keeping a known image extension
func NewKey(contentType string) string {
	return uuid.NewString() + extensions[strings.ToLower(contentType)]
}

// ValidKey reports whether key looks like a key produced by NewKey
func ValidKey(key string) bool {
	if key == "" || strings.ContainsAny(key, "/\\") {
		return false
	}
	base := strings.TrimSuffix(key, path.Ext(key))
	_, err := uuid.Parse(base)
	return err == nil
}
