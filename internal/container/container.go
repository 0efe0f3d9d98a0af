package container

import (
	"context"
	"fmt"
	"net/http"

	"go-raffle-images/internal/config"
	"go-raffle-images/internal/factory"
	"go-raffle-images/internal/messages"
	"go-raffle-images/internal/repository"
	"go-raffle-images/internal/service"
	"go-raffle-images/internal/storage"
	"go-raffle-images/internal/transport"
	"go-raffle-images/pkg/validation"
)

// Container holds all application dependencies
type Container struct {
	config       *config.Config
	repository   repository.ImageRepository
	blobs        storage.BlobStorage
	pool         *service.WorkerPool
	imageService service.ImageService
	handler      http.Handler
}

// NewContainer creates a new dependency injection container
func NewContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	catalog, err := messages.LoadOrDefault(cfg.MessagesFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load messages: %w", err)
	}

	blobs, err := factory.NewStorageFactory(cfg).CreateStorage(ctx, factory.StorageType(cfg.BlobBackend))
	if err != nil {
		return nil, fmt.Errorf("failed to create blob storage: %w", err)
	}

	repo, err := repository.OpenSQLite(ctx, cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	pool := service.NewWorkerPool(0)
	pool.Start()

	imageService := service.NewImageService(repo, blobs, validation.NewUploadValidator(cfg.Uploads), catalog, pool)
	handler := transport.NewHandler(imageService, cfg)

	return &Container{
		config:       cfg,
		repository:   repo,
		blobs:        blobs,
		pool:         pool,
		imageService: imageService,
		handler:      handler,
	}, nil
}

// Handler returns the HTTP handler
func (c *Container) Handler() http.Handler {
	return c.handler
}

// Config returns the configuration
func (c *Container) Config() *config.Config {
	return c.config
}

// Close releases the worker pool and the database; call after the server has stopped
func (c *Container) Close() error {
	c.pool.Close()
	c.pool.Wait()
	return c.repository.Close()
}
