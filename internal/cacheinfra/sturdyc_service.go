// Package cacheinfra adapts the sturdyc cache engine to the contracts in the
// cache package. It is internal so the sturdyc dependency stays an
// implementation detail.
package cacheinfra

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/viccon/sturdyc"
)

// Config holds the configuration for the sturdyc cache adapter.
type Config struct {
	// Capacity defines the maximum number of entries that the cache can store.
	// Must be greater than 0.
	Capacity int

	// NumShards determines the number of cache shards for concurrent access.
	// Higher values improve concurrency but increase memory overhead.
	// Must be greater than 0.
	NumShards int

	// TTL is the default time-to-live for cached entries. After this duration
	// entries are considered expired. Must be greater than 0.
	TTL time.Duration

	// EvictionPercentage specifies what percentage of entries to evict when
	// the cache reaches its capacity. Must be between 1-100.
	EvictionPercentage int

	// EarlyRefresh configures early refresh behavior for cached entries.
	// If nil, early refresh is disabled.
	EarlyRefresh *EarlyRefreshConfig

	// MissingRecordStorage enables storage for missing record flags, so keys
	// that returned no results do not trigger repeated source queries.
	MissingRecordStorage bool

	// EvictionInterval sets how often the cache checks for expired entries.
	// Zero value uses the sturdyc default.
	EvictionInterval time.Duration
}

// EarlyRefreshConfig configures early refresh behavior. Early refresh prevents
// cache stampedes by refreshing frequently accessed entries before they expire.
type EarlyRefreshConfig struct {
	MinAsyncRefreshTime time.Duration
	MaxAsyncRefreshTime time.Duration
	SyncRefreshTime     time.Duration
	RetryBaseDelay      time.Duration
}

// Validate checks the early refresh windows.
func (c EarlyRefreshConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.MinAsyncRefreshTime, validation.Min(time.Duration(0))),
		validation.Field(&c.MaxAsyncRefreshTime, validation.Min(time.Duration(0))),
		validation.Field(&c.SyncRefreshTime, validation.Min(time.Duration(0))),
		validation.Field(&c.RetryBaseDelay, validation.Min(time.Duration(0))),
	)
}

// DefaultConfig returns a Config with sensible defaults for most use cases.
func DefaultConfig() Config {
	return Config{
		Capacity:           10000,
		NumShards:          256,
		TTL:                5 * time.Minute,
		EvictionPercentage: 10,
		EarlyRefresh: &EarlyRefreshConfig{
			MinAsyncRefreshTime: 10 * time.Second,
			MaxAsyncRefreshTime: 20 * time.Second,
			SyncRefreshTime:     30 * time.Second,
			RetryBaseDelay:      100 * time.Millisecond,
		},
		MissingRecordStorage: true,
		EvictionInterval:     0,
	}
}

// Validate checks if the configuration values are valid.
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Capacity, validation.Required, validation.Min(1)),
		validation.Field(&c.NumShards, validation.Required, validation.Min(1)),
		validation.Field(&c.TTL, validation.Required, validation.Min(time.Nanosecond)),
		validation.Field(&c.EvictionPercentage, validation.Required, validation.Min(1), validation.Max(100)),
		validation.Field(&c.EarlyRefresh),
	)
}

// ToSturdycOptions converts the Config to a sturdyc.Option slice. Capacity,
// NumShards, TTL, and EvictionPercentage are passed directly to sturdyc.New
// and are not included here.
func (c Config) ToSturdycOptions() []sturdyc.Option {
	var options []sturdyc.Option

	if c.EarlyRefresh != nil {
		options = append(options, sturdyc.WithEarlyRefreshes(
			c.EarlyRefresh.MinAsyncRefreshTime,
			c.EarlyRefresh.MaxAsyncRefreshTime,
			c.EarlyRefresh.SyncRefreshTime,
			c.EarlyRefresh.RetryBaseDelay,
		))
	}

	if c.MissingRecordStorage {
		options = append(options, sturdyc.WithMissingRecordStorage())
	}

	if c.EvictionInterval > 0 {
		options = append(options, sturdyc.WithEvictionInterval(c.EvictionInterval))
	}

	return options
}

// sturdycService wraps a sturdyc client providing caching behaviour.
type sturdycService struct {
	client *sturdyc.Client[any]
}

// NewSturdycService creates a new sturdyc cache service adapter. It validates
// the configuration and initializes a sturdyc client with the provided
// settings.
//
// Version compatibility note: this implementation assumes the sturdyc v1.x
// API. Monitor sturdyc version upgrades for potential option mapping changes.
func NewSturdycService(cfg Config) (*sturdycService, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client := sturdyc.New[any](
		cfg.Capacity,
		cfg.NumShards,
		cfg.TTL,
		cfg.EvictionPercentage,
		cfg.ToSturdycOptions()...,
	)

	return &sturdycService{client: client}, nil
}

// GetOrFetch implements cache.CacheService. On a miss or expired entry the
// fetch function is executed, its result stored, and returned. Fetch errors
// are returned to the caller and are not cached.
func (s *sturdycService) GetOrFetch(ctx context.Context, key string, fetch func(context.Context) (any, error)) (any, error) {
	return s.client.GetOrFetch(ctx, key, fetch)
}

// Delete implements cache.CacheService. It removes a single entry so
// subsequent GetOrFetch calls fetch fresh data from the source.
func (s *sturdycService) Delete(ctx context.Context, key string) error {
	s.client.Delete(key)
	return nil
}
