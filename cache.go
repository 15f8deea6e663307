package qrcache

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"time"

	c "github.com/unkn0wn-root/qrcache/codec"
	gen "github.com/unkn0wn-root/qrcache/genstore"
	"github.com/unkn0wn-root/qrcache/internal/wire"
	pr "github.com/unkn0wn-root/qrcache/provider"
)

const (
	epochPrefix  = "epoch:"
	keyGenPrefix = "key:"
)

type memo[V any] struct {
	// mu serializes operations on this instance. Cross-instance safety comes
	// from the epoch frame, not from this lock.
	mu sync.Mutex

	ns             string
	provider       pr.Provider
	codec          c.Codec[V]
	log            Logger
	hooks          Hooks
	enabled        bool
	ttl            time.Duration
	computeSetCost SetCostFunc
	gen            gen.GenStore
	ownGen         bool
	ownProvider    bool
	closeOnce      sync.Once
}

func newMemo[V any](opts Options[V]) (*memo[V], error) {
	if opts.Provider == nil {
		return nil, fmt.Errorf("qrcache: provider is required")
	}
	if opts.Codec == nil {
		return nil, fmt.Errorf("qrcache: codec is required")
	}
	if opts.Namespace == "" {
		return nil, fmt.Errorf("qrcache: namespace is required")
	}

	m := &memo[V]{
		ns:          opts.Namespace,
		provider:    opts.Provider,
		codec:       opts.Codec,
		enabled:     !opts.Disabled,
		ttl:         opts.TTL,
		ownProvider: opts.CloseProvider,
	}

	m.log, m.hooks = opts.Logger, opts.Hooks
	if m.log == nil {
		m.log = NopLogger{}
	}
	if m.hooks == nil {
		m.hooks = NopHooks{}
	}

	if opts.ComputeSetCost != nil {
		m.computeSetCost = opts.ComputeSetCost
	} else {
		m.computeSetCost = func(string, []byte) int64 { return 1 }
	}

	if opts.GenStore != nil {
		m.gen = opts.GenStore
	} else {
		// private in-process epoch; no cleanup so it can't reset to 0
		m.gen = gen.NewLocalGenStore()
		m.ownGen = true
	}

	return m, nil
}

func (m *memo[V]) Namespace() string { return m.ns }
func (m *memo[V]) Enabled() bool     { return m.enabled }

// Close releases the GenStore only if the memo created it, and the provider
// only if Options.CloseProvider was set.
func (m *memo[V]) Close(ctx context.Context) error {
	var err error
	m.closeOnce.Do(func() {
		if m.ownGen {
			_ = m.gen.Close(ctx)
		}
		if m.ownProvider {
			err = m.provider.Close(ctx)
		}
	})
	return err
}

func (m *memo[V]) Get(ctx context.Context, key string) (V, bool, error) {
	var zero V
	if !m.enabled || key == "" {
		return zero, false, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	k := m.storageKey(key)
	raw, ok, err := m.provider.Get(ctx, k)
	if err != nil || !ok {
		return zero, false, err
	}
	epoch, payload, err := wire.DecodeEntry(raw)
	if err != nil {
		m.selfHeal(ctx, k, "corrupt")
		return zero, false, nil
	}

	cur, err := m.gen.Snapshot(ctx, m.epochKey())
	if err != nil {
		// can't prove the entry is current; serve a miss but keep it
		m.hooks.GenSnapshotError(m.ns, err)
		m.log.Warn("epoch snapshot failed", Fields{"ns": m.ns, "err": err})
		return zero, false, nil
	}
	if epoch != cur {
		m.selfHeal(ctx, k, "stale_epoch")
		return zero, false, nil
	}

	v, err := m.codec.Decode(payload)
	if err != nil {
		m.selfHeal(ctx, k, "value_decode")
		return zero, false, nil
	}
	return v, true, nil
}

func (m *memo[V]) Put(ctx context.Context, key string, value V) error {
	return m.put(ctx, key, value, nil)
}

func (m *memo[V]) PutWithGen(ctx context.Context, key string, value V, observed Gen) error {
	return m.put(ctx, key, value, &observed)
}

func (m *memo[V]) Snapshot(ctx context.Context, key string) (Gen, error) {
	if !m.enabled || key == "" {
		return Gen{}, nil
	}
	return m.snapshot(ctx, key)
}

func (m *memo[V]) snapshot(ctx context.Context, key string) (Gen, error) {
	epoch, err := m.gen.Snapshot(ctx, m.epochKey())
	if err != nil {
		return Gen{}, err
	}
	kg, err := m.gen.Snapshot(ctx, m.keyGenKey(key))
	if err != nil {
		return Gen{}, err
	}
	return Gen{Epoch: epoch, Key: kg}, nil
}

// put frames the entry with the observed epoch, so a Clear racing past the
// check still leaves it stale. A Remove racing past the check is caught by
// re-reading the key generation after the write.
func (m *memo[V]) put(ctx context.Context, key string, value V, observed *Gen) error {
	if key == "" {
		return fmt.Errorf("%w: empty key", ErrInvalidArgument)
	}
	if isNil(value) {
		return fmt.Errorf("%w: nil value for key %q", ErrInvalidArgument, key)
	}
	if !m.enabled {
		return nil
	}

	payload, err := m.codec.Encode(value)
	if err != nil {
		return fmt.Errorf("qrcache: encode %q: %w", key, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	cur, err := m.snapshot(ctx, key)
	if err != nil {
		// an entry framed with a guessed epoch could outlive a Clear
		m.hooks.GenSnapshotError(m.ns, err)
		m.log.Warn("put skipped: generation snapshot failed", Fields{"ns": m.ns, "key": key, "err": err})
		return nil
	}
	if observed != nil && cur != *observed {
		m.log.Debug("put skipped: generation moved", Fields{
			"ns": m.ns, "key": key, "observed_epoch": observed.Epoch, "epoch": cur.Epoch,
		})
		return nil
	}

	k := m.storageKey(key)
	raw := wire.EncodeEntry(cur.Epoch, payload)
	ok, err := m.provider.Set(ctx, k, raw, m.computeSetCost(k, raw), m.ttl)
	if err != nil {
		return err
	}
	if !ok {
		m.hooks.ProviderSetRejected(k)
		m.log.Debug("provider rejected set", Fields{"ns": m.ns, "key": key})
		return nil
	}

	if after, err := m.gen.Snapshot(ctx, m.keyGenKey(key)); err != nil || after != cur.Key {
		_ = m.provider.Del(ctx, k)
		m.log.Debug("put undone: key removed during write", Fields{"ns": m.ns, "key": key})
	}
	return nil
}

func (m *memo[V]) Remove(ctx context.Context, key string) error {
	if !m.enabled || key == "" {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	_, bumpErr := m.gen.Bump(ctx, m.keyGenKey(key))
	if bumpErr != nil {
		m.hooks.GenBumpError(m.ns, bumpErr)
		bumpErr = fmt.Errorf("qrcache: bump generation of %q: %w", key, bumpErr)
	}
	return errors.Join(bumpErr, m.provider.Del(ctx, m.storageKey(key)))
}

// Clear bumps the namespace epoch and purges eagerly when the provider can.
// It fails only if neither happened, since either one makes old entries
// unreachable (the purge only for providers that hold the whole namespace).
func (m *memo[V]) Clear(ctx context.Context) error {
	if !m.enabled {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	epoch, bumpErr := m.gen.Bump(ctx, m.epochKey())
	if bumpErr != nil {
		m.hooks.GenBumpError(m.ns, bumpErr)
	}

	purger, canPurge := m.provider.(pr.Purger)
	var purgeErr error
	if canPurge {
		purgeErr = purger.Purge(ctx, m.ns+":")
	}

	switch {
	case bumpErr != nil && (!canPurge || purgeErr != nil):
		m.hooks.ClearOutage(m.ns, bumpErr, purgeErr)
		m.log.Error("clear failed", Fields{"ns": m.ns, "bump_err": bumpErr, "purge_err": purgeErr})
		return &ClearError{Namespace: m.ns, BumpErr: bumpErr, PurgeErr: purgeErr}
	case purgeErr != nil:
		m.log.Warn("purge failed; stale entries will self-heal", Fields{"ns": m.ns, "err": purgeErr})
	}

	m.hooks.Cleared(m.ns, epoch)
	m.log.Debug("namespace cleared", Fields{"ns": m.ns, "epoch": epoch})
	return nil
}

func (m *memo[V]) selfHeal(ctx context.Context, storageKey, reason string) {
	_ = m.provider.Del(ctx, storageKey)
	m.hooks.SelfHeal(storageKey, reason)
	m.log.Debug("self-healed entry", Fields{"ns": m.ns, "key": storageKey, "reason": reason})
}

func (m *memo[V]) storageKey(key string) string { return m.ns + ":" + key }
func (m *memo[V]) epochKey() string             { return epochPrefix + m.ns }
func (m *memo[V]) keyGenKey(key string) string  { return keyGenPrefix + m.storageKey(key) }

// isNil reports whether v holds nil: a nil interface, pointer, map, slice,
// func or chan. Empty non-nil slices and maps are values.
func isNil[V any](v V) bool {
	rv := reflect.ValueOf(any(v))
	if !rv.IsValid() {
		return true
	}
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}
