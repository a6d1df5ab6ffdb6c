package domain

import "errors"

var (
	// ErrInvalidArgument is returned on malformed identifiers, out-of-range
	// pagination or wrong collection shapes. Caller error, never retried.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrConnectivity is returned when the remote catalog cannot be reached.
	// Transient; the orchestrator retries the whole step.
	ErrConnectivity = errors.New("catalog connectivity failure")

	// ErrCacheMiss is returned when no listing snapshot is cached.
	ErrCacheMiss = errors.New("cache miss")

	// ErrCacheUnavailable is returned when the cache backend cannot be reached.
	ErrCacheUnavailable = errors.New("cache unavailable")
)
