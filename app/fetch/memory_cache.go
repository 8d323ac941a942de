package fetch

import (
	"sync"
	"time"
)

type cacheEntry struct {
	html      string
	fetchedAt time.Time
}

// MemoryCache is the in-process HTML cache sitting between the permanent
// database cache and the network. Entries expire after the configured TTL.
type MemoryCache struct {
	ttl     time.Duration
	entries map[string]cacheEntry
	mu      sync.Mutex
}

func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{
		ttl:     ttl,
		entries: make(map[string]cacheEntry),
	}
}

func (c *MemoryCache) Get(url string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[url]
	if !ok {
		return "", false
	}

	if time.Since(entry.fetchedAt) > c.ttl {
		delete(c.entries, url)
		return "", false
	}

	return entry.html, true
}

func (c *MemoryCache) Set(url, html string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[url] = cacheEntry{html: html, fetchedAt: time.Now()}
}

func (c *MemoryCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]cacheEntry)
}

func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.entries)
}
