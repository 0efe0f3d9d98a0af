// Package imagestore is the client side of the remote image store.
package imagestore

import (
	"context"
	"fmt"
	"io"

	"go-raffle-images/internal/apiclient"
	"go-raffle-images/pkg/models"
)

// UploadField is the multipart field carrying uploaded files
const UploadField = "files"

// Upload is one file handed to the store
type Upload struct {
	Name        string
	Size        int64
	ContentType string
	Content     io.Reader
}

// Store is the remote image store consumed by the collection editor.
// All errors are normalized *errors.AppError values.
type Store interface {
	ListUserImages(ctx context.Context) ([]models.ImageRecord, error)
	ListTargetImages(ctx context.Context, targetID int64) ([]models.ImageRecord, error)
	Upload(ctx context.Context, files []Upload) ([]models.ImageRecord, error)
	Delete(ctx context.Context, imageID int64) error
	SaveOrder(ctx context.Context, targetID int64, images []models.ImageRecord) ([]models.ImageRecord, error)
}

// HTTPStore implements Store over the image store API
type HTTPStore struct {
	client *apiclient.Client
}

// NewHTTPStore creates a store backed by client
func NewHTTPStore(client *apiclient.Client) *HTTPStore {
	return &HTTPStore{client: client}
}

// ListUserImages returns the current user's images not yet attached to a raffle
func (s *HTTPStore) ListUserImages(ctx context.Context) ([]models.ImageRecord, error) {
	var payload models.ImagesPayload
	if err := s.client.Get(ctx, "/images", &payload); err != nil {
		return nil, err
	}
	return payload.Images, nil
}

// ListTargetImages returns the images attached to a raffle
func (s *HTTPStore) ListTargetImages(ctx context.Context, targetID int64) ([]models.ImageRecord, error) {
	var payload models.ImagesPayload
	if err := s.client.Get(ctx, fmt.Sprintf("/images/raffle/%d", targetID), &payload); err != nil {
		return nil, err
	}
	return payload.Images, nil
}

// Upload sends a batch of files; the server assigns ids
func (s *HTTPStore) Upload(ctx context.Context, files []Upload) ([]models.ImageRecord, error) {
	parts := make([]apiclient.FilePart, len(files))
	for i, f := range files {
		parts[i] = apiclient.FilePart{Name: f.Name, ContentType: f.ContentType, Content: f.Content}
	}

	var payload models.ImagesPayload
	if err := s.client.PostMultipart(ctx, "/images", UploadField, parts, &payload); err != nil {
		return nil, err
	}
	return payload.Images, nil
}

// Delete removes an image by id
func (s *HTTPStore) Delete(ctx context.Context, imageID int64) error {
	return s.client.Delete(ctx, fmt.Sprintf("/images/%d", imageID), nil)
}

// SaveOrder attaches images to a raffle in their current order
func (s *HTTPStore) SaveOrder(ctx context.Context, targetID int64, images []models.ImageRecord) ([]models.ImageRecord, error) {
	req := models.SaveOrderRequest{Images: make([]models.OrderEntry, len(images))}
	for i, img := range images {
		req.Images[i] = models.OrderEntry{ID: img.ID, ImageOrder: img.Order(i)}
	}

	var payload models.ImagesPayload
	if err := s.client.PutJSON(ctx, fmt.Sprintf("/images/raffle/%d", targetID), req, &payload); err != nil {
		return nil, err
	}
	return payload.Images, nil
}
