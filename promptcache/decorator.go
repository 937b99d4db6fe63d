// Package promptcache decorates a prompt.Store with read-through caching.
// Reads are served from the in-process cache, upserts pass through to the
// base store and invalidate the user's cached entry, and expiry scans bypass
// the cache entirely so the reconciliation sweep always sees durable truth.
package promptcache

import (
	"context"
	"time"

	"github.com/goliatone/go-prompt-cache/cache"
	"github.com/goliatone/go-prompt-cache/prompt"
)

// Interface assertion to ensure CachedStore implements prompt.Store.
var _ prompt.Store = (*CachedStore)(nil)

// CachedStore decorates a base prompt store with caching functionality.
// The cache TTL should be short relative to the prompt validity window: this
// layer only absorbs repeated reads within a request burst, it never extends
// how long a stale record is considered fresh.
type CachedStore struct {
	base          prompt.Store
	cache         cache.CacheService
	keySerializer cache.KeySerializer
}

// New creates a CachedStore that wraps the base store with caching.
func New(base prompt.Store, cacheService cache.CacheService, keySerializer cache.KeySerializer) *CachedStore {
	return &CachedStore{
		base:          base,
		cache:         cacheService,
		keySerializer: keySerializer,
	}
}

// Read retrieves the user's record, with caching. ErrNotFound propagates
// uncached so a missing record is re-checked against the store on each read.
func (c *CachedStore) Read(ctx context.Context, userID string) (*prompt.Record, error) {
	key := c.readKey(userID)
	return cache.GetOrFetch(ctx, c.cache, key, func(ctx context.Context) (*prompt.Record, error) {
		return c.base.Read(ctx, userID)
	})
}

// Upsert passes through to the base store and, on success, invalidates the
// cached entry so the next read observes the new row.
func (c *CachedStore) Upsert(ctx context.Context, userID string, suggestions []prompt.Suggestion, expiresAt time.Time) error {
	if err := c.base.Upsert(ctx, userID, suggestions, expiresAt); err != nil {
		return err
	}
	return c.cache.Delete(ctx, c.readKey(userID))
}

// ListExpiredBefore bypasses the cache: the sweep's view of what is expired
// must come from the durable store.
func (c *CachedStore) ListExpiredBefore(ctx context.Context, t time.Time) ([]*prompt.Record, error) {
	return c.base.ListExpiredBefore(ctx, t)
}

func (c *CachedStore) readKey(userID string) string {
	return c.keySerializer.SerializeKey("Read", userID)
}
