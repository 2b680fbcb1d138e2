package cache

import "errors"

// Sentinel errors for caching operations.
var (
	// ErrCacheMiss is returned by helpers that treat a miss as an error.
	ErrCacheMiss = errors.New("cache miss")

	// ErrBackendDown is returned when the backend is unreachable. Callers
	// should degrade to a direct fetch rather than fail the refresh.
	ErrBackendDown = errors.New("cache backend unavailable")
)
