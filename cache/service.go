package cache

import "context"

// KeySerializer builds a cache key from a method name + arbitrary args.
// It is responsible for producing stable keys across calls.
type KeySerializer interface {
	SerializeKey(method string, args ...any) string
}

// FetchFn is the typed function signature used when fetching from the source
// of truth. GetOrFetch adapts it to the untyped contract CacheService expects.
type FetchFn[T any] func(ctx context.Context) (T, error)

// CacheService exposes the read-through caching operations we need when
// decorating stores. It is exported so other packages can provide alternate
// cache backends.
type CacheService interface {
	GetOrFetch(ctx context.Context, key string, fetch func(context.Context) (any, error)) (any, error)
	Delete(ctx context.Context, key string) error
}

// GetOrFetch is a type-safe wrapper function that provides generic support
// for CacheService. A nil or mistyped cached value yields the zero value of T
// rather than a panic.
func GetOrFetch[T any](ctx context.Context, service CacheService, key string, fetchFn FetchFn[T]) (T, error) {
	result, err := service.GetOrFetch(ctx, key, func(ctx context.Context) (any, error) {
		return fetchFn(ctx)
	})
	if err != nil {
		var zero T
		return zero, err
	}
	typed, ok := result.(T)
	if !ok {
		var zero T
		return zero, nil
	}
	return typed, nil
}
