package storage

import (
	"context"

	"github.com/tentens-tech/user-service/internal/infrastructure/metrics"
)

type instrumented struct {
	backend string
	next    Storage
}

// WithMetrics counts every operation on next under the given backend label.
func WithMetrics(backend string, next Storage) Storage {
	return &instrumented{backend: backend, next: next}
}

func (s *instrumented) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, found, err := s.next.Get(ctx, key)
	switch {
	case err != nil:
		s.observe(metrics.StorageOperationGet, "error")
	case !found:
		s.observe(metrics.StorageOperationGet, "miss")
	default:
		s.observe(metrics.StorageOperationGet, "hit")
	}
	return value, found, err
}

func (s *instrumented) Set(ctx context.Context, key string, value []byte) error {
	err := s.next.Set(ctx, key, value)
	s.observe(metrics.StorageOperationSet, status(err))
	return err
}

func (s *instrumented) Remove(ctx context.Context, key string) error {
	err := s.next.Remove(ctx, key)
	s.observe(metrics.StorageOperationRemove, status(err))
	return err
}

func (s *instrumented) Clear(ctx context.Context) error {
	err := s.next.Clear(ctx)
	s.observe(metrics.StorageOperationClear, status(err))
	return err
}

func (s *instrumented) observe(operation, result string) {
	metrics.StorageOperations.WithLabelValues(s.backend, operation, result).Inc()
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
