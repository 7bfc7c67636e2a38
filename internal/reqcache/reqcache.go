// Package reqcache provides a short-TTL cache for read responses, keyed by
// endpoint, normalized parameters, and caller context. It exists to collapse
// bursts of identical reads; the authoritative data always lives elsewhere.
package reqcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
	"sync"
	"time"
)

// DefaultTTL keeps entries long enough to absorb page reloads and retries,
// short enough that the cache never substitutes for the store.
const DefaultTTL = 30 * time.Second

// PublicContext is the caller context for responses that need no isolation.
const PublicContext = "public"

type entry struct {
	value     any
	expiresAt time.Time
}

// Cache is an in-memory TTL cache with lazy eviction. All operations are
// best-effort and cannot fail; a full or cold cache only costs a recompute.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]entry
	ttl     time.Duration
	clock   func() time.Time
}

// New creates a Cache with the given TTL. A non-positive TTL falls back to
// DefaultTTL.
func New(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		entries: make(map[string]entry),
		ttl:     ttl,
		clock:   time.Now,
	}
}

// Get returns the cached value for the request, if present and fresh.
func (c *Cache) Get(endpoint string, params map[string]string, callerCtx string) (any, bool) {
	key := Key(endpoint, params, callerCtx)
	now := c.clock()

	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if !now.Before(e.expiresAt) {
		c.mu.Lock()
		if stale, exists := c.entries[key]; exists && !now.Before(stale.expiresAt) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return nil, false
	}
	return e.value, true
}

// Set stores the value for the request under the cache TTL.
func (c *Cache) Set(endpoint string, params map[string]string, callerCtx string, value any) {
	key := Key(endpoint, params, callerCtx)

	c.mu.Lock()
	c.entries[key] = entry{value: value, expiresAt: c.clock().Add(c.ttl)}
	c.mu.Unlock()
}

// Size returns the current number of entries, expired or not.
func (c *Cache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// StartSweeper runs Cleanup every interval in a background goroutine until
// the context is cancelled. A non-positive interval sweeps once per TTL.
func (c *Cache) StartSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = c.ttl
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.Cleanup()
			}
		}
	}()
}

// Cleanup removes expired entries. Correctness does not depend on it; it only
// reclaims memory between lazy evictions.
func (c *Cache) Cleanup() {
	now := c.clock()
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, key)
		}
	}
}

// Key computes the cache key for a request. Parameters are normalized (keys
// sorted, values trimmed and lowercased) so that semantically identical
// requests with different parameter order or casing share one entry. The
// caller context is part of the key so isolated callers never share values.
func Key(endpoint string, params map[string]string, callerCtx string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(endpoint)
	b.WriteByte('\n')
	for _, k := range keys {
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(strings.ToLower(strings.TrimSpace(params[k])))
		b.WriteByte('\n')
	}
	b.WriteString(callerCtx)

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}
