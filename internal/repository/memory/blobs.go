package memory

import (
	"context"
	"slices"
	"sync"

	"rescribe/internal/domain/repositories"
)

// BlobStore keeps objects in a map
type BlobStore struct {
	mu      sync.RWMutex
	objects map[string][]byte

	// DeleteErr, when set, is returned by every Delete
	DeleteErr error
}

var _ repositories.BlobStore = (*BlobStore)(nil)

func NewBlobStore() *BlobStore {
	return &BlobStore{objects: make(map[string][]byte)}
}

func (b *BlobStore) Put(ctx context.Context, key string, body []byte, contentType string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.objects[key] = slices.Clone(body)
	return nil
}

func (b *BlobStore) Delete(ctx context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.DeleteErr != nil {
		return b.DeleteErr
	}
	delete(b.objects, key)
	return nil
}

// Has reports whether key is stored
func (b *BlobStore) Has(key string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.objects[key]
	return ok
}

// Get returns the stored body of key
func (b *BlobStore) Get(key string) ([]byte, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	body, ok := b.objects[key]
	return slices.Clone(body), ok
}
