// Package cache provides pluggable byte caching for fetched topology data.
//
// Three backends are available:
//
//   - [FileCache]: entries on the local filesystem, for CLI usage
//   - [RedisCache]: shared entries in Redis, for the serve deployment
//   - [NullCache]: a no-op backend that disables caching
//
// Keys are built with [Keyer] so the fetch layer and the engine agree on
// namespacing without sharing string constants.
package cache

import (
	"context"
	"time"
)

// Cache stores opaque byte payloads under string keys with a per-entry TTL.
// A TTL of 0 means the entry never expires.
type Cache interface {
	// Get returns the payload and whether the key was present and fresh.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores the payload, replacing any existing entry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes the entry. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	Close() error
}
