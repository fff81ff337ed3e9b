package cache

import (
	"sync"
	"time"

	"github.com/tentens-tech/user-service/internal/infrastructure/metrics"
)

const cleanupInterval = time.Second

type Cache struct {
	mu      sync.RWMutex
	items   map[string]*CacheItem
	maxSize int
	stop    chan struct{}
	once    sync.Once
}

type CacheItem struct {
	Value      []byte
	Expiration time.Time
}

// New starts a cache holding at most maxSize items. Call Close to stop the
// background cleanup.
func New(maxSize int) *Cache {
	cache := &Cache{
		items:   make(map[string]*CacheItem),
		maxSize: maxSize,
		stop:    make(chan struct{}),
	}

	go cache.cleanup()

	return cache
}

func (c *Cache) Set(key string, value []byte, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.maxSize <= 0 {
		metrics.CacheOperations.WithLabelValues("set", "skipped").Inc()
		return
	}

	if _, exists := c.items[key]; !exists && len(c.items) >= c.maxSize {
		c.evictLocked()
	}

	c.items[key] = &CacheItem{
		Value:      value,
		Expiration: time.Now().Add(ttl),
	}

	metrics.CacheOperations.WithLabelValues("set", "success").Inc()
}

func (c *Cache) Get(key string) ([]byte, bool) {
	c.mu.RLock()
	item, exists := c.items[key]
	c.mu.RUnlock()

	if !exists {
		metrics.CacheOperations.WithLabelValues("get", "miss").Inc()
		return nil, false
	}

	if time.Now().After(item.Expiration) {
		c.Delete(key)
		metrics.CacheOperations.WithLabelValues("get", "expired").Inc()
		return nil, false
	}

	metrics.CacheOperations.WithLabelValues("get", "hit").Inc()
	return item.Value, true
}

func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.items, key)
}

func (c *Cache) Flush() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]*CacheItem)
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.items)
}

// SetMaxSize changes the capacity, evicting items until the cache fits.
func (c *Cache) SetMaxSize(maxSize int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.maxSize = maxSize
	for len(c.items) > 0 && len(c.items) > maxSize {
		c.evictLocked()
	}
}

func (c *Cache) Close() {
	c.once.Do(func() { close(c.stop) })
}

// evictLocked drops the item closest to expiry.
func (c *Cache) evictLocked() {
	var oldestKey string
	var oldest time.Time
	for key, item := range c.items {
		if oldestKey == "" || item.Expiration.Before(oldest) {
			oldestKey, oldest = key, item.Expiration
		}
	}
	if oldestKey != "" {
		delete(c.items, oldestKey)
		metrics.CacheOperations.WithLabelValues("evict", "success").Inc()
	}
}

func (c *Cache) cleanup() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.mu.Lock()
			now := time.Now()
			for key, item := range c.items {
				if now.After(item.Expiration) {
					delete(c.items, key)
				}
			}
			c.mu.Unlock()
		}
	}
}
