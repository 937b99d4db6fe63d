package session

import (
	"context"

	"github.com/goliatone/go-prompt-cache/cache"
)

// keyPrefix namespaces session entries in the shared cache store.
const keyPrefix = "sess" + cache.KeySeparator

// Resolver fronts an IdentityProvider with an expiring in-memory cache.
// Only fully-resolved, user-bearing sessions are cached; anonymous results
// and provider errors always pass through uncached, so a transient provider
// outage can never be memoized as "no session".
type Resolver struct {
	provider IdentityProvider
	store    cache.Store[Record]
}

// NewResolver creates a Resolver over the given provider and cache store.
// The store's TTL bounds the session lifetime and must be shorter than the
// provider's own session validity.
func NewResolver(provider IdentityProvider, store cache.Store[Record]) *Resolver {
	return &Resolver{provider: provider, store: store}
}

// CacheKey derives the cache key for a credential token. It is a pure
// function of the token: identical tokens always map to the same key, and the
// raw token never appears in the key.
func CacheKey(token string) string {
	return keyPrefix + cache.Digest(token)
}

// Resolve returns the session for the given credential token. An empty token
// skips the cache entirely and goes straight to the provider. On a hit the
// provider is not contacted. On a miss the provider is called synchronously
// and a user-bearing result is cached before returning.
func (r *Resolver) Resolve(ctx context.Context, token string) (*Record, error) {
	if token == "" {
		return r.provider.GetSession(ctx, token)
	}

	key := CacheKey(token)
	if rec, ok := r.store.Get(key); ok {
		return &rec, nil
	}

	rec, err := r.provider.GetSession(ctx, token)
	if err != nil {
		return nil, err
	}
	if rec != nil && rec.User != nil {
		r.store.Set(key, *rec)
	}
	return rec, nil
}

// Invalidate drops any cached session for the given token, forcing the next
// Resolve to consult the provider.
func (r *Resolver) Invalidate(token string) {
	if token == "" {
		return
	}
	r.store.Delete(CacheKey(token))
}
