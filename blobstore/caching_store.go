package blobstore

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"
)

// CachingStore wraps a BlobStore and keeps recently read blobs in an LRU
// cache. Blobs are cached whole; snapshots are small and never modified
// after Put.
type CachingStore struct {
	inner BlobStore
	cache *lru.Cache[string, []byte]
}

// NewCachingStore creates a new CachingStore holding up to size blobs.
// size defaults to 128 if <= 0.
func NewCachingStore(inner BlobStore, size int) (*CachingStore, error) {
	if size <= 0 {
		size = 128
	}
	c, err := lru.New[string, []byte](size)
	if err != nil {
		return nil, err
	}
	return &CachingStore{inner: inner, cache: c}, nil
}

// Open returns the cached blob or reads it through from the inner store.
func (s *CachingStore) Open(ctx context.Context, name string) (Blob, error) {
	if data, ok := s.cache.Get(name); ok {
		return &memoryBlob{data: data}, nil
	}
	data, err := ReadAll(ctx, s.inner, name)
	if err != nil {
		return nil, err
	}
	s.cache.Add(name, data)
	return &memoryBlob{data: data}, nil
}

// Put writes through and invalidates the cached entry.
func (s *CachingStore) Put(ctx context.Context, name string, data []byte) error {
	s.cache.Remove(name)
	return s.inner.Put(ctx, name, data)
}

// Delete removes the blob from the inner store and the cache.
func (s *CachingStore) Delete(ctx context.Context, name string) error {
	s.cache.Remove(name)
	return s.inner.Delete(ctx, name)
}

// List is passed through to the inner store.
func (s *CachingStore) List(ctx context.Context, prefix string) ([]string, error) {
	return s.inner.List(ctx, prefix)
}

// Len returns the number of cached blobs.
func (s *CachingStore) Len() int {
	return s.cache.Len()
}
