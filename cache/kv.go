package cache

import (
	"sync"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
)

// Store is a process-local key/value cache with expiring entries. A read never
// returns a value whose deadline has passed; such entries are treated as
// absent and removed as a side effect of the read.
type Store[V any] interface {
	Get(key string) (V, bool)
	Set(key string, value V)
	SetTTL(key string, value V, ttl time.Duration)
	Delete(key string)
}

type kvEntry[V any] struct {
	value     V
	expiresAt time.Time
}

// TTLStore implements Store on a concurrent map. Expired entries are dropped
// lazily on read and, when a janitor interval is configured, by a background
// sweep so keys that are never read again do not accumulate.
//
// There is deliberately no size-based eviction: the population is bounded by
// concurrent traffic, and entries age out on their own.
type TTLStore[V any] struct {
	entries    *xsync.MapOf[string, kvEntry[V]]
	defaultTTL time.Duration
	now        func() time.Time
	stop       chan struct{}
	stopOnce   sync.Once
}

// NewTTLStore creates a TTLStore whose Set entries live for defaultTTL.
// A janitor interval > 0 starts a background goroutine that evicts expired
// entries; Close stops it.
func NewTTLStore[V any](defaultTTL, janitorInterval time.Duration) *TTLStore[V] {
	s := &TTLStore[V]{
		entries:    xsync.NewMapOf[string, kvEntry[V]](),
		defaultTTL: defaultTTL,
		now:        time.Now,
		stop:       make(chan struct{}),
	}
	if janitorInterval > 0 {
		go s.janitor(janitorInterval)
	}
	return s
}

// Get returns the live value for key. Entries at or past their deadline are
// removed and reported as absent.
func (s *TTLStore[V]) Get(key string) (V, bool) {
	ent, ok := s.entries.Load(key)
	if !ok {
		var zero V
		return zero, false
	}
	if !s.now().Before(ent.expiresAt) {
		s.entries.Delete(key)
		var zero V
		return zero, false
	}
	return ent.value, true
}

// Set stores value under key with the store's default TTL, overwriting any
// previous entry.
func (s *TTLStore[V]) Set(key string, value V) {
	s.SetTTL(key, value, s.defaultTTL)
}

// SetTTL stores value under key with an explicit TTL. A non-positive ttl is
// treated as already expired and removes the key.
func (s *TTLStore[V]) SetTTL(key string, value V, ttl time.Duration) {
	if ttl <= 0 {
		s.entries.Delete(key)
		return
	}
	s.entries.Store(key, kvEntry[V]{value: value, expiresAt: s.now().Add(ttl)})
}

// Delete removes key from the store.
func (s *TTLStore[V]) Delete(key string) {
	s.entries.Delete(key)
}

// Len reports the number of entries currently held, expired or not. Intended
// for tests and diagnostics.
func (s *TTLStore[V]) Len() int {
	return s.entries.Size()
}

// Close stops the janitor goroutine, if any. The store remains usable.
func (s *TTLStore[V]) Close() {
	s.stopOnce.Do(func() { close(s.stop) })
}

func (s *TTLStore[V]) janitor(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			now := s.now()
			s.entries.Range(func(key string, ent kvEntry[V]) bool {
				if !now.Before(ent.expiresAt) {
					s.entries.Delete(key)
				}
				return true
			})
		}
	}
}
