package cache

import (
	"context"
	"time"

	"github.com/tentens-tech/user-service/internal/infrastructure/storage"
)

// Storage serves reads from the cache and writes through to next.
type Storage struct {
	next  storage.Storage
	cache *Cache
	ttl   time.Duration
}

func NewStorage(next storage.Storage, cache *Cache, ttl time.Duration) *Storage {
	return &Storage{next: next, cache: cache, ttl: ttl}
}

func (s *Storage) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if value, exists := s.cache.Get(key); exists {
		return clone(value), true, nil
	}

	value, found, err := s.next.Get(ctx, key)
	if err != nil || !found {
		return value, found, err
	}

	s.cache.Set(key, clone(value), s.ttl)
	return value, true, nil
}

func (s *Storage) Set(ctx context.Context, key string, value []byte) error {
	if err := s.next.Set(ctx, key, value); err != nil {
		s.cache.Delete(key)
		return err
	}

	s.cache.Set(key, clone(value), s.ttl)
	return nil
}

func (s *Storage) Remove(ctx context.Context, key string) error {
	s.cache.Delete(key)
	return s.next.Remove(ctx, key)
}

func (s *Storage) Clear(ctx context.Context) error {
	s.cache.Flush()
	return s.next.Clear(ctx)
}

func clone(value []byte) []byte {
	if value == nil {
		return nil
	}
	return append([]byte{}, value...)
}
