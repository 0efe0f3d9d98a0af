package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	apperrors "go-raffle-images/internal/errors"
	"go-raffle-images/internal/logger"
	"go-raffle-images/internal/messages"
	"go-raffle-images/internal/repository"
	"go-raffle-images/internal/storage"
	"go-raffle-images/pkg/models"
	"go-raffle-images/pkg/validation"

	"github.com/sirupsen/logrus"
)

// Validation field names used in error envelopes
const (
	FieldFiles  = "files"
	FieldImages = "images"
)

// Validation codes used in error envelopes
const (
	CodeRequired        = "REQUIRED"
	CodeFileTooLarge    = "FILE_TOO_LARGE"
	CodeTotalTooLarge   = "TOTAL_TOO_LARGE"
	CodeInvalidFileType = "INVALID_FILE_TYPE"
	CodeTooManyFiles    = "TOO_MANY_FILES"
	CodeAlreadyExists   = "ALREADY_EXISTS"
	CodeNotFound        = "NOT_FOUND"
)

var ruleCodes = map[string]string{
	validation.RuleCount:     CodeTooManyFiles,
	validation.RuleFileSize:  CodeFileTooLarge,
	validation.RuleTotalSize: CodeTotalTooLarge,
	validation.RuleMediaType: CodeInvalidFileType,
}

// UploadFile is one received file
type UploadFile struct {
	Name         string
	DeclaredType string
	Data         []byte
}

// ImageService owns the images of every user and their attachment to raffles.
// All failures are *errors.AppError values.
type ImageService interface {
	ListForOwner(ctx context.Context, ownerID string) ([]models.ImageRecord, error)
	ListForRaffle(ctx context.Context, raffleID int64) ([]models.ImageRecord, error)
	Upload(ctx context.Context, ownerID string, files []UploadFile) ([]models.ImageRecord, error)
	Delete(ctx context.Context, ownerID string, imageID int64) error
	SaveOrder(ctx context.Context, ownerID string, raffleID int64, entries []models.OrderEntry) ([]models.ImageRecord, error)
	Blob(ctx context.Context, key string) ([]byte, string, error)
}

type imageService struct {
	repo      repository.ImageRepository
	blobs     storage.BlobStorage
	validator *validation.UploadValidator
	catalog   *messages.Catalog
	pool      *WorkerPool
}

// NewImageService creates the image service. The pool must be started.
func NewImageService(
	repo repository.ImageRepository,
	blobs storage.BlobStorage,
	validator *validation.UploadValidator,
	catalog *messages.Catalog,
	pool *WorkerPool,
) ImageService {
	return &imageService{
		repo:      repo,
		blobs:     blobs,
		validator: validator,
		catalog:   catalog,
		pool:      pool,
	}
}

func (s *imageService) ListForOwner(ctx context.Context, ownerID string) ([]models.ImageRecord, error) {
	images, err := s.repo.ListUnattached(ctx, ownerID)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list images", err)
	}
	return toRecords(images), nil
}

func (s *imageService) ListForRaffle(ctx context.Context, raffleID int64) ([]models.ImageRecord, error) {
	images, err := s.repo.ListByRaffle(ctx, raffleID)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list raffle images", err)
	}
	return toRecords(images), nil
}

func (s *imageService) Upload(ctx context.Context, ownerID string, files []UploadFile) ([]models.ImageRecord, error) {
	if len(files) == 0 {
		return nil, s.validationError(http.StatusBadRequest, "No files were uploaded", FieldFiles, CodeRequired)
	}

	current, err := s.repo.CountForOwner(ctx, ownerID)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to count images", err)
	}

	// the declared type is ignored; the stored type is what the bytes say
	infos := make([]validation.FileInfo, len(files))
	for i, f := range files {
		infos[i] = validation.FileInfo{
			Name:        f.Name,
			Size:        int64(len(f.Data)),
			ContentType: validation.DetectContentTypeBytes(f.Data),
		}
	}
	if err := s.validator.Validate(current, infos); err != nil {
		return nil, s.uploadRejection(err)
	}

	keys := make([]string, len(files))
	for i, info := range infos {
		keys[i] = storage.NewKey(info.ContentType)
	}
	if err := s.putBlobs(ctx, keys, infos, files); err != nil {
		return nil, apperrors.NewInternalError("failed to store images", err)
	}

	created := make([]*repository.Image, 0, len(files))
	for i, info := range infos {
		img := &repository.Image{
			OwnerID:  ownerID,
			BlobKey:  keys[i],
			URL:      s.blobs.URL(keys[i]),
			FileName: info.Name,
			MimeType: info.ContentType,
			Size:     info.Size,
		}
		if err := s.repo.Create(ctx, img); err != nil {
			for _, c := range created {
				_ = s.repo.Delete(context.Background(), c.ID)
			}
			s.removeBlobs(keys)
			return nil, apperrors.NewInternalError("failed to record image", err)
		}
		created = append(created, img)
	}

	logger.WithFields(logrus.Fields{
		"owner_id": ownerID,
		"count":    len(created),
	}).Info("Images uploaded")

	return toRecords(created), nil
}

// putBlobs writes one batch on the worker pool; on any failure the blobs that were written are removed
func (s *imageService) putBlobs(ctx context.Context, keys []string, infos []validation.FileInfo, files []UploadFile) error {
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		written []string
		errs    []error
	)

	for i := range files {
		key, contentType, data := keys[i], infos[i].ContentType, files[i].Data
		wg.Add(1)
		ok := s.pool.Submit(func() {
			defer wg.Done()
			err := s.blobs.Put(ctx, key, contentType, data)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			written = append(written, key)
		})
		if !ok {
			wg.Done()
			mu.Lock()
			errs = append(errs, errors.New("worker pool is closed"))
			mu.Unlock()
		}
	}
	wg.Wait()

	if len(errs) > 0 {
		s.removeBlobs(written)
		return errors.Join(errs...)
	}
	return nil
}

func (s *imageService) removeBlobs(keys []string) {
	for _, key := range keys {
		if err := s.blobs.Delete(context.Background(), key); err != nil && !errors.Is(err, storage.ErrBlobNotFound) {
			logger.WithError(err).WithField("blob_key", key).Warn("Failed to remove orphaned blob")
		}
	}
}

func (s *imageService) Delete(ctx context.Context, ownerID string, imageID int64) error {
	img, err := s.ownedImage(ctx, ownerID, imageID)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, imageID); err != nil {
		if errors.Is(err, repository.ErrImageNotFound) {
			return apperrors.NewNotFoundError("Image not found", err)
		}
		return apperrors.NewInternalError("failed to delete image", err)
	}
	s.removeBlobs([]string{img.BlobKey})

	logger.WithFields(logrus.Fields{
		"owner_id": ownerID,
		"image_id": imageID,
	}).Info("Image deleted")
	return nil
}

func (s *imageService) SaveOrder(ctx context.Context, ownerID string, raffleID int64, entries []models.OrderEntry) ([]models.ImageRecord, error) {
	seen := make(map[int64]struct{}, len(entries))
	for _, e := range entries {
		if _, dup := seen[e.ID]; dup {
			return nil, s.validationError(http.StatusConflict, "Each image can only be listed once", FieldImages, CodeAlreadyExists)
		}
		seen[e.ID] = struct{}{}
	}

	orders := make([]repository.ImageOrder, len(entries))
	for i, e := range entries {
		if _, err := s.ownedImage(ctx, ownerID, e.ID); err != nil {
			if apperrors.IsType(err, apperrors.ErrorTypeNotFound) {
				return nil, s.validationError(http.StatusBadRequest, fmt.Sprintf("Image %d does not exist", e.ID), FieldImages, CodeNotFound)
			}
			return nil, err
		}
		orders[i] = repository.ImageOrder{ID: e.ID, Order: e.ImageOrder}
	}

	if err := s.repo.AttachOrdered(ctx, raffleID, orders); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateImage):
			return nil, s.validationError(http.StatusConflict, "Each image can only be listed once", FieldImages, CodeAlreadyExists)
		case errors.Is(err, repository.ErrImageNotFound):
			return nil, s.validationError(http.StatusBadRequest, "An image no longer exists", FieldImages, CodeNotFound)
		default:
			return nil, apperrors.NewInternalError("failed to save image order", err)
		}
	}

	logger.WithFields(logrus.Fields{
		"owner_id":  ownerID,
		"raffle_id": raffleID,
		"count":     len(orders),
	}).Info("Image order saved")

	return s.ListForRaffle(ctx, raffleID)
}

func (s *imageService) Blob(ctx context.Context, key string) ([]byte, string, error) {
	if !storage.ValidKey(key) {
		return nil, "", apperrors.NewNotFoundError("Image not found", nil)
	}
	data, contentType, err := s.blobs.Get(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrBlobNotFound) {
			return nil, "", apperrors.NewNotFoundError("Image not found", err)
		}
		return nil, "", apperrors.NewInternalError("failed to read image", err)
	}
	return data, contentType, nil
}

func (s *imageService) ownedImage(ctx context.Context, ownerID string, imageID int64) (*repository.Image, error) {
	img, err := s.repo.Get(ctx, imageID)
	if err != nil {
		if errors.Is(err, repository.ErrImageNotFound) {
			return nil, apperrors.NewNotFoundError("Image not found", err)
		}
		return nil, apperrors.NewInternalError("failed to load image", err)
	}
	if img.OwnerID != ownerID {
		return nil, apperrors.NewForbiddenError("You do not own this image")
	}
	return img, nil
}

// uploadRejection maps a refused upload rule onto a files validation error
func (s *imageService) uploadRejection(err error) error {
	appErr, ok := apperrors.As(err)
	if !ok {
		return apperrors.NewInternalError("failed to validate uploads", err)
	}
	code, ok := ruleCodes[appErr.Details]
	if !ok {
		code = CodeInvalidFileType
	}
	return s.validationError(http.StatusBadRequest, appErr.Message, FieldFiles, code)
}

func (s *imageService) validationError(status int, message, field, code string) *apperrors.AppError {
	fields := map[string]string{field: code}
	env := models.NewValidationError(status, message, fields)
	return apperrors.NewValidationError(&env, status, http.StatusText(status), s.catalog.ResolveAll(fields), nil)
}

func toRecords(images []*repository.Image) []models.ImageRecord {
	out := make([]models.ImageRecord, 0, len(images))
	for _, img := range images {
		out = append(out, models.ImageRecord{
			ID:         img.ID,
			URL:        img.URL,
			FileName:   img.FileName,
			MimeType:   img.MimeType,
			Size:       img.Size,
			ImageOrder: img.ImageOrder,
		})
	}
	return out
}
