package genstore

import (
	"context"
	"time"
)

// GenStore abstracts where epochs live. Memos keep one counter per namespace
// under "epoch:<namespace>" and bump it on Clear.
// Use LocalGenStore (default) for in-process epochs, or RedisGenStore to share
// them across replicas.
type GenStore interface {
	// Snapshot returns the current generation; missing => 0.
	Snapshot(ctx context.Context, key string) (uint64, error)
	// Bump atomically increments and returns the new generation.
	Bump(ctx context.Context, key string) (uint64, error)
	// Cleanup prunes old metadata if applicable (no-op for Redis).
	Cleanup(retention time.Duration)
	// Close releases resources (no-op ok).
	Close(context.Context) error
}
