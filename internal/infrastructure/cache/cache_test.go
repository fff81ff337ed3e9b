package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tentens-tech/user-service/internal/infrastructure/storage/memory"
)

func TestCacheSetGet(t *testing.T) {
	c := New(10)
	defer c.Close()

	_, exists := c.Get("missing")
	assert.False(t, exists)

	c.Set("key", []byte("value"), time.Minute)
	value, exists := c.Get("key")
	assert.True(t, exists)
	assert.Equal(t, []byte("value"), value)

	c.Delete("key")
	_, exists = c.Get("key")
	assert.False(t, exists)
}

func TestCacheExpiration(t *testing.T) {
	c := New(10)
	defer c.Close()

	c.Set("key", []byte("value"), -time.Second)

	_, exists := c.Get("key")
	assert.False(t, exists)
	assert.Equal(t, 0, c.Len())
}

func TestCacheEvictsWhenFull(t *testing.T) {
	c := New(2)
	defer c.Close()

	c.Set("first", []byte("1"), time.Minute)
	c.Set("second", []byte("2"), time.Hour)
	c.Set("third", []byte("3"), time.Hour)

	assert.Equal(t, 2, c.Len())
	_, exists := c.Get("first")
	assert.False(t, exists)
	_, exists = c.Get("third")
	assert.True(t, exists)

	c.SetMaxSize(1)
	assert.Equal(t, 1, c.Len())

	c.SetMaxSize(0)
	c.Set("fourth", []byte("4"), time.Hour)
	assert.Equal(t, 0, c.Len())
}

func TestCacheConcurrent(t *testing.T) {
	c := New(1000)
	defer c.Close()

	numOperations := 100
	var wg sync.WaitGroup
	wg.Add(numOperations)

	for i := 0; i < numOperations; i++ {
		go func(index int) {
			defer wg.Done()

			key := fmt.Sprintf("concurrent-key-%d", index)
			c.Set(key, []byte(key), time.Minute)

			value, exists := c.Get(key)
			assert.True(t, exists)
			assert.Equal(t, key, string(value))
		}(i)
	}

	wg.Wait()
	assert.Equal(t, numOperations, c.Len())
}

type countingStorage struct {
	*memory.Storage
	gets   int
	setErr error
}

func (s *countingStorage) Get(ctx context.Context, key string) ([]byte, bool, error) {
	s.gets++
	return s.Storage.Get(ctx, key)
}

func (s *countingStorage) Set(ctx context.Context, key string, value []byte) error {
	if s.setErr != nil {
		return s.setErr
	}
	return s.Storage.Set(ctx, key, value)
}

func TestStorageReadsThroughCache(t *testing.T) {
	ctx := context.Background()
	backend := &countingStorage{Storage: memory.New("")}
	require.NoError(t, backend.Storage.Set(ctx, "key", []byte("value")))

	c := New(10)
	defer c.Close()
	s := NewStorage(backend, c, time.Minute)

	for i := 0; i < 3; i++ {
		value, found, err := s.Get(ctx, "key")
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, []byte("value"), value)
	}
	assert.Equal(t, 1, backend.gets)

	_, found, err := s.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, 2, backend.gets)
}

func TestStorageWritesThrough(t *testing.T) {
	ctx := context.Background()
	backend := &countingStorage{Storage: memory.New("")}
	c := New(10)
	defer c.Close()
	s := NewStorage(backend, c, time.Minute)

	require.NoError(t, s.Set(ctx, "key", []byte("value")))
	stored, found, err := backend.Storage.Get(ctx, "key")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []byte("value"), stored)

	require.NoError(t, s.Remove(ctx, "key"))
	_, found, err = s.Get(ctx, "key")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, s.Set(ctx, "other", []byte("value")))
	require.NoError(t, s.Clear(ctx))
	assert.Equal(t, 0, c.Len())
	_, found, err = backend.Storage.Get(ctx, "other")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestStorageFailedWriteInvalidatesCache(t *testing.T) {
	ctx := context.Background()
	backend := &countingStorage{Storage: memory.New("")}
	c := New(10)
	defer c.Close()
	s := NewStorage(backend, c, time.Minute)

	require.NoError(t, s.Set(ctx, "key", []byte("old")))

	backend.setErr = errors.New("backend down")
	assert.Error(t, s.Set(ctx, "key", []byte("new")))

	_, exists := c.Get("key")
	assert.False(t, exists)

	value, found, err := s.Get(ctx, "key")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []byte("old"), value)
}
