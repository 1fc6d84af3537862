package nexsql

import (
	"context"
	"time"
)

// Cache is the interface for caching rendered statements or their results.
// The toolkit never caches on its own; users implement this interface with
// their preferred backend (e.g. Redis, Memcached, in-memory) and decide what
// to store under a StatementKey.
type Cache interface {
	// Get retrieves a value from the cache.
	// Returns nil, nil if the key doesn't exist.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value in the cache with an optional TTL.
	// If ttl is 0, the value should not expire.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a value from the cache.
	Delete(ctx context.Context, key string) error

	// DeletePrefix removes all values with the given prefix.
	DeletePrefix(ctx context.Context, prefix string) error

	// Clear removes all values from the cache.
	Clear(ctx context.Context) error
}

// StatementKey identifies a compiled statement for caching purposes.
// Statement is the rendered text with positional placeholders, so two sets
// that compile to the same statement under the same dialect share a key.
type StatementKey struct {
	Dialect   string
	Statement string
}

// String returns the string representation of the statement key.
func (k StatementKey) String() string {
	return k.Dialect + ":" + k.Statement
}
