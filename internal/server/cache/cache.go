// Package cache remembers recently seen Idempotency-Key values so a retried
// publish is not broadcast twice. Entries expire on a TTL via patrickmn/go-cache.
package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Cache is a TTL set of idempotency keys.
type Cache struct {
	store *gocache.Cache
}

// New creates a cache whose keys expire after ttl. Expired keys are purged
// every cleanupInterval.
func New(ttl, cleanupInterval time.Duration) *Cache {
	return &Cache{
		store: gocache.New(ttl, cleanupInterval),
	}
}

// Remember records key and reports whether it was new. An empty key is
// never remembered and always reported new.
func (c *Cache) Remember(key string) bool {
	if key == "" {
		return true
	}
	return c.store.Add(key, struct{}{}, gocache.DefaultExpiration) == nil
}

// Forget drops key so a failed publish can be retried with it.
func (c *Cache) Forget(key string) {
	c.store.Delete(key)
}

// ItemCount returns the number of remembered keys, including expired keys
// not yet purged.
func (c *Cache) ItemCount() int {
	return c.store.ItemCount()
}
