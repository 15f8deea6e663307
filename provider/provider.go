// Package provider defines the byte store behind qrcache memos.
//
// Implementations MUST be byte-for-byte transparent: Get must return exactly the
// same []byte that was previously passed to Set for a key. If a store performs
// internal transforms (e.g., compression), they MUST be fully reversed.
//
// The keyspace "<namespace>:" is owned by the memo configured with that
// namespace. Foreign writes under it may be treated as corruption and deleted.
package provider

import (
	"context"
	"time"
)

// Provider is a minimal byte store with TTLs. Must be safe for concurrent use.
type Provider interface {
	// Get returns (value, true, nil) on hit; (nil, false, nil) on miss.
	// If an IO/remote error happens, return (nil, false, err).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value with the given TTL (<= 0 means no expiry). May ignore cost.
	// Returns ok=false when the store rejected the write under pressure.
	Set(ctx context.Context, key string, value []byte, cost int64, ttl time.Duration) (ok bool, err error)

	// Del removes a key (best-effort).
	Del(ctx context.Context, key string) error

	// Close releases resources.
	Close(ctx context.Context) error
}

// Purger is implemented by providers that can enumerate their keyspace.
// Memos use it to drop a whole namespace eagerly on Clear; providers without
// it rely on epoch mismatch and self-heal on read.
type Purger interface {
	Purge(ctx context.Context, prefix string) error
}
