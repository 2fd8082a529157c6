package services

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Reference data kinds held by the cache.
const (
	KindLocations = "locations"
	KindVariables = "variables"
	KindMap       = "map"
)

type CacheItem struct {
	Data      interface{}
	ExpiresAt time.Time
}

// ReferenceCache keeps the slow-changing upstream tables for a fixed duration.
// Predictions are never stored here.
type ReferenceCache struct {
	mu              sync.RWMutex
	items           map[string]CacheItem
	logger          *zap.Logger
	defaultDuration time.Duration
	maxSize         int
	cleanupInterval time.Duration
	stopCleanup     chan struct{}
	stopOnce        sync.Once
	now             func() time.Time
}

func NewReferenceCache(defaultDuration time.Duration, maxSize int, logger *zap.Logger) *ReferenceCache {
	if maxSize < 1 {
		maxSize = 1
	}
	cache := &ReferenceCache{
		items:           make(map[string]CacheItem),
		logger:          logger,
		defaultDuration: defaultDuration,
		maxSize:         maxSize,
		cleanupInterval: time.Minute,
		stopCleanup:     make(chan struct{}),
		now:             time.Now,
	}

	go cache.startCleanup()

	return cache
}

func (c *ReferenceCache) Set(key string, data interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.items[key]; !exists && len(c.items) >= c.maxSize {
		c.evictOldest()
	}

	expiresAt := c.now().Add(c.defaultDuration)
	c.items[key] = CacheItem{
		Data:      data,
		ExpiresAt: expiresAt,
	}

	c.logger.Debug("Reference data cached",
		zap.String("key", key),
		zap.Time("expires_at", expiresAt))
}

func (c *ReferenceCache) Get(key string) (interface{}, bool) {
	c.mu.RLock()
	item, exists := c.items[key]
	c.mu.RUnlock()

	if !exists {
		return nil, false
	}

	if c.now().After(item.ExpiresAt) {
		c.mu.Lock()
		delete(c.items, key)
		c.mu.Unlock()
		return nil, false
	}

	return item.Data, true
}

// Invalidate drops one key, or everything when key is empty.
func (c *ReferenceCache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if key == "" {
		c.items = make(map[string]CacheItem)
		return
	}
	delete(c.items, key)
}

func (c *ReferenceCache) evictOldest() {
	var oldestKey string
	var oldestTime time.Time

	for key, item := range c.items {
		if oldestKey == "" || item.ExpiresAt.Before(oldestTime) {
			oldestKey = key
			oldestTime = item.ExpiresAt
		}
	}

	if oldestKey != "" {
		delete(c.items, oldestKey)
		c.logger.Debug("Evicted oldest reference entry from cache",
			zap.String("key", oldestKey))
	}
}

func (c *ReferenceCache) startCleanup() {
	ticker := time.NewTicker(c.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.cleanup()
		case <-c.stopCleanup:
			return
		}
	}
}

func (c *ReferenceCache) cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	expiredCount := 0

	for key, item := range c.items {
		if now.After(item.ExpiresAt) {
			delete(c.items, key)
			expiredCount++
		}
	}

	if expiredCount > 0 {
		c.logger.Debug("Cleaned expired cache items",
			zap.Int("count", expiredCount))
	}
}

func (c *ReferenceCache) Stop() {
	c.stopOnce.Do(func() { close(c.stopCleanup) })
}

func (c *ReferenceCache) GetStats() map[string]interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return map[string]interface{}{
		"items":            len(c.items),
		"max_size":         c.maxSize,
		"default_duration": c.defaultDuration.String(),
	}
}
