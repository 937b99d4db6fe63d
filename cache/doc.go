// Package cache provides the caching contracts shared by the rest of the
// module: a read-through CacheService, a key serializer, and a generic
// expiring key/value Store.
//
// # Overview
//
//   - CacheService: read-through operations (GetOrFetch, Delete) backed by
//     the sturdyc adapter in internal/cacheinfra
//   - KeySerializer: builds stable cache keys from method names and arguments
//   - Store / TTLStore: a process-local map whose entries expire at a fixed
//     deadline; reads never observe expired data
//
// # Basic Usage
//
// Read-through caching wraps a fetch from the source of truth:
//
//	serializer := cache.NewDefaultKeySerializer()
//	key := serializer.SerializeKey("Read", userID)
//	record, err := cache.GetOrFetch(ctx, service, key, func(ctx context.Context) (*prompt.Record, error) {
//		return store.Read(ctx, userID)
//	})
//
// The TTLStore is used where the caller needs explicit control over when an
// entry is written, such as the session layer that must never memoize a
// negative lookup:
//
//	sessions := cache.NewTTLStore[session.Record](5*time.Minute, time.Minute)
//	if rec, ok := sessions.Get(key); ok {
//		return rec, nil
//	}
//
// # Key Stability
//
// The default serializer only handles the scalar argument types this module
// caches under (strings, integers, times, durations). Arguments longer than a
// threshold are replaced by an xxhash digest via Digest, which keeps opaque
// credentials out of cache keys. Identical inputs always produce identical
// keys across runs and processes.
package cache
