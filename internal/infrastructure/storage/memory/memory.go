package memory

import (
	"context"
	"strings"
	"sync"
)

// Storage keeps values in process memory. Nothing survives a restart.
type Storage struct {
	mu     sync.RWMutex
	prefix string
	items  map[string][]byte
}

func New(prefix string) *Storage {
	return &Storage{
		prefix: prefix,
		items:  make(map[string][]byte),
	}
}

func (s *Storage) Get(ctx context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, exists := s.items[s.prefix+key]
	if !exists {
		return nil, false, nil
	}
	return clone(value), true, nil
}

func (s *Storage) Set(ctx context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items[s.prefix+key] = clone(value)
	return nil
}

func (s *Storage) Remove(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.items, s.prefix+key)
	return nil
}

func (s *Storage) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key := range s.items {
		if strings.HasPrefix(key, s.prefix) {
			delete(s.items, key)
		}
	}
	return nil
}

func clone(value []byte) []byte {
	if value == nil {
		return nil
	}
	return append([]byte{}, value...)
}
