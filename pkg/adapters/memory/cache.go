// Package memory provides a process-local implementation of ports.AnalysisCache.
package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/UAlbertaALTLab/hfst-altlab/pkg/fst"
)

// Cache is an in-memory analysis cache guarded by a RWMutex.
// When bounded, entries are evicted first-in first-out; updating an
// existing key keeps its original slot.
type Cache struct {
	mu      sync.RWMutex
	entries map[string][]fst.Analysis
	order   []string
	cap     int
}

// NewCache creates an in-memory cache holding at most maxEntries keys.
// Zero or negative means unbounded.
func NewCache(maxEntries int) *Cache {
	return &Cache{
		entries: make(map[string][]fst.Analysis),
		cap:     maxEntries,
	}
}

// Get returns the cached analyses for key, if present.
func (c *Cache) Get(ctx context.Context, key string) ([]fst.Analysis, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	analyses, found := c.entries[key]
	if !found {
		return nil, false, nil
	}
	// Copy on read so the caller can't mutate cached entries.
	return cloneAnalyses(analyses), true, nil
}

// Set stores analyses under key, replacing any previous value. An empty
// slice is a valid value and counts against the capacity like any other.
func (c *Cache) Set(ctx context.Context, key string, analyses []fst.Analysis) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cap > 0 {
		if _, exists := c.entries[key]; !exists {
			c.order = append(c.order, key)
		}
	}
	// Copy on write so later caller mutations don't leak into the cache.
	c.entries[key] = cloneAnalyses(analyses)
	for c.cap > 0 && len(c.entries) > c.cap {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}
	return nil
}

// Delete removes key. Deleting an absent key is not an error.
func (c *Cache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists {
		return nil
	}
	delete(c.entries, key)
	if c.cap > 0 {
		if i := slices.Index(c.order, key); i >= 0 {
			c.order = slices.Delete(c.order, i, i+1)
		}
	}
	return nil
}

// Len reports the number of cached keys.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func cloneAnalyses(analyses []fst.Analysis) []fst.Analysis {
	if analyses == nil {
		return nil
	}
	out := make([]fst.Analysis, len(analyses))
	for i, a := range analyses {
		out[i] = a
		out[i].Symbols = slices.Clone(a.Symbols)
	}
	return out
}
