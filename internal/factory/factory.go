package factory

import (
	"context"
	"fmt"

	"go-raffle-images/internal/config"
	"go-raffle-images/internal/storage"
)

// StorageType represents different types of blob storage backends
type StorageType string

const (
	// MemoryStorage keeps blobs in process memory
	MemoryStorage StorageType = "memory"
	// AzureStorage keeps blobs in an Azure Storage container
	AzureStorage StorageType = "azure"
)

// StorageFactory creates blob storage implementations
type StorageFactory interface {
	CreateStorage(ctx context.Context, storageType StorageType) (storage.BlobStorage, error)
}

type storageFactory struct {
	cfg *config.Config
}

// NewStorageFactory creates a new storage factory
func NewStorageFactory(cfg *config.Config) StorageFactory {
	return &storageFactory{cfg: cfg}
}

// CreateStorage creates a storage implementation based on the specified type
func (f *storageFactory) CreateStorage(ctx context.Context, storageType StorageType) (storage.BlobStorage, error) {
	switch storageType {
	case MemoryStorage:
		return storage.NewMemoryStorage(f.cfg.PublicBaseURL), nil
	case AzureStorage:
		return storage.NewAzureStorage(ctx, f.cfg.AzureAccount, f.cfg.AzureKey, f.cfg.AzureContainer)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", storageType)
	}
}
