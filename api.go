package qrcache

import (
	"context"
	"time"

	c "github.com/unkn0wn-root/qrcache/codec"
	gen "github.com/unkn0wn-root/qrcache/genstore"
	pr "github.com/unkn0wn-root/qrcache/provider"
)

type SetCostFunc func(storageKey string, raw []byte) int64

// Gen is the generation of one key: the namespace epoch plus the key's own
// removal counter. A fill that observed an older Gen must not be stored.
type Gen struct {
	Epoch uint64
	Key   uint64
}

// Memo is a namespaced, provider-agnostic memoization cache.
// V is the caller's value type. Serialization is handled by a pluggable Codec[V].
//
// Every entry is framed with the namespace epoch it was written under.
// Clear bumps the epoch so older entries read as misses, no matter which
// Memo instance (or replica, with a shared GenStore) wrote them.
//
// Read-through callers take Snapshot before loading from the source and
// store with PutWithGen, so a value loaded before a Clear or Remove is never
// cached after it.
type Memo[V any] interface {
	Namespace() string
	Enabled() bool
	Close(context.Context) error

	// Get returns (v, true, nil) on hit. An empty key is always a miss.
	Get(ctx context.Context, key string) (v V, ok bool, err error)
	// Put stores value under key at the current generation. Empty keys and
	// nil values are rejected with ErrInvalidArgument. Overwrites any
	// previous value.
	Put(ctx context.Context, key string, value V) error
	// Snapshot returns key's current generation.
	Snapshot(ctx context.Context, key string) (Gen, error)
	// PutWithGen is Put guarded by observed: the write is skipped when key's
	// generation has moved since the Snapshot that produced observed.
	PutWithGen(ctx context.Context, key string, value V, observed Gen) error
	// Remove bumps key's generation and drops it; removing a missing key is
	// not an error.
	Remove(ctx context.Context, key string) error
	// Clear drops every entry of the namespace.
	Clear(ctx context.Context) error
}

// Options tune a Memo. Only Namespace, Provider and Codec are required.
type Options[V any] struct {
	// Required
	Namespace string // keyspace and clear domain, e.g. "records", "images"
	Provider  pr.Provider
	Codec     c.Codec[V]

	Logger         Logger        // if nil, NopLogger is used
	Hooks          Hooks         // if nil, NopHooks is used
	TTL            time.Duration // per-entry TTL; 0 => entries never expire
	Disabled       bool          // default false (enabled)
	ComputeSetCost SetCostFunc   // default 1
	// GenStore holds the namespace epoch. Memos that must clear together
	// share one store and one Namespace. nil => a private LocalGenStore.
	GenStore gen.GenStore
	// CloseProvider makes Close release the provider too. Leave false when
	// the provider is shared between memos.
	CloseProvider bool
}

func New[V any](opts Options[V]) (Memo[V], error) {
	return newMemo[V](opts)
}
