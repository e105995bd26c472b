package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"

	"github.com/jonathan/career-path/internal/llm"
)

// Cache stores vectors by CacheKey. Implementations must be safe for concurrent use.
type Cache interface {
	Get(ctx context.Context, key string) ([]float32, bool, error)
	Set(ctx context.Context, key string, vec []float32) error
}

// CacheKey derives a stable key from the model, the task and the exact text.
func CacheKey(model string, task llm.Task, text string) string {
	h := sha256.New()
	h.Write([]byte(model))
	h.Write([]byte{0})
	h.Write([]byte(task))
	h.Write([]byte{0})
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil))
}

// MemoryCache is a process-local Cache.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string][]float32
}

// NewMemoryCache returns an empty MemoryCache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string][]float32)}
}

// Get returns a copy of the cached vector.
func (c *MemoryCache) Get(_ context.Context, key string) ([]float32, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	vec, ok := c.entries[key]
	if !ok {
		return nil, false, nil
	}
	return append([]float32(nil), vec...), true, nil
}

// Set stores a copy of vec.
func (c *MemoryCache) Set(_ context.Context, key string, vec []float32) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = append([]float32(nil), vec...)
	return nil
}

// Len returns the number of cached vectors.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
