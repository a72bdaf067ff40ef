package services

import (
	"sync"
	"time"

	"github.com/warden-io/warden-panel/models"
)

type cachedResponse struct {
	response  models.Response
	expiresAt time.Time
}

// ResponseCache keeps GET responses for a short while, keyed by path and
// query.
type ResponseCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]cachedResponse
	now     func() time.Time
}

func NewResponseCache(ttl time.Duration) *ResponseCache {
	return &ResponseCache{
		ttl:     ttl,
		entries: make(map[string]cachedResponse),
		now:     time.Now,
	}
}

func (c *ResponseCache) Get(key string) (models.Response, bool) {
	if c.ttl <= 0 {
		return nil, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if !c.now().Before(entry.expiresAt) {
		delete(c.entries, key)
		return nil, false
	}
	return entry.response, true
}

func (c *ResponseCache) Set(key string, response models.Response) {
	if c.ttl <= 0 {
		return
	}

	c.mu.Lock()
	c.entries[key] = cachedResponse{response: response, expiresAt: c.now().Add(c.ttl)}
	c.mu.Unlock()
}

// Clear drops every entry. Writes call it so later reads see fresh data.
func (c *ResponseCache) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]cachedResponse)
	c.mu.Unlock()
}
