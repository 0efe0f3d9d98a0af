package storage

import (
	"context"
	"strings"
	"sync"
)

type memoryBlob struct {
	data        []byte
	contentType string
}

type memoryStorage struct {
	mu      sync.RWMutex
	baseURL string
	blobs   map[string]memoryBlob
}

// NewMemoryStorage keeps blobs in process memory; URLs point at baseURL + "/blobs/<key>"
func NewMemoryStorage(baseURL string) BlobStorage {
	return &memoryStorage{
		baseURL: strings.TrimRight(baseURL, "/"),
		blobs:   make(map[string]memoryBlob),
	}
}

func (s *memoryStorage) Put(ctx context.Context, key, contentType string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[key] = memoryBlob{data: append([]byte(nil), data...), contentType: contentType}
	return nil
}

func (s *memoryStorage) Get(ctx context.Context, key string) ([]byte, string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.blobs[key]
	if !ok {
		return nil, "", ErrBlobNotFound
	}
	return append([]byte(nil), b.data...), b.contentType, nil
}

func (s *memoryStorage) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.blobs[key]; !ok {
		return ErrBlobNotFound
	}
	delete(s.blobs, key)
	return nil
}

func (s *memoryStorage) URL(key string) string {
	return s.baseURL + "/blobs/" + key
}
