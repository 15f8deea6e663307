// Package asynchook moves hook callbacks off the cache hot path.
//
//	raw := sloghooks.New(slog.Default(), sloghooks.Options{SelfHealEvery: 10})
//	hooks := asynchook.New(raw, 1, 1000) // 1 worker; queue 1000 events
//	defer hooks.Close()
//
//	memo, _ := qrcache.New[[]byte](qrcache.Options[[]byte]{
//	    Namespace: "images",
//	    Provider:  provider,
//	    Codec:     codec.Bytes{},
//	    Hooks:     hooks,
//	})
package asynchook

import (
	"sync"

	"github.com/unkn0wn-root/qrcache"
)

type Hooks struct {
	inner qrcache.Hooks
	q     chan func()
	wg    sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

var _ qrcache.Hooks = (*Hooks)(nil)

func New(inner qrcache.Hooks, workers, qlen int) *Hooks {
	if workers <= 0 {
		workers = 1
	}
	if qlen <= 0 {
		qlen = 1024
	}

	h := &Hooks{inner: inner, q: make(chan func(), qlen)}
	h.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer h.wg.Done()
			for f := range h.q {
				f()
			}
		}()
	}
	return h
}

// Close drains queued events. Events raised after Close are dropped.
func (h *Hooks) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	close(h.q)
	h.mu.Unlock()
	h.wg.Wait()
}

func (h *Hooks) try(f func()) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return
	}
	select {
	case h.q <- f:
	default: // drop
	}
}

func (h *Hooks) SelfHeal(k, r string)                { h.try(func() { h.inner.SelfHeal(k, r) }) }
func (h *Hooks) ProviderSetRejected(k string)        { h.try(func() { h.inner.ProviderSetRejected(k) }) }
func (h *Hooks) GenSnapshotError(ns string, e error) { h.try(func() { h.inner.GenSnapshotError(ns, e) }) }
func (h *Hooks) GenBumpError(ns string, e error)     { h.try(func() { h.inner.GenBumpError(ns, e) }) }
func (h *Hooks) Cleared(ns string, epoch uint64)     { h.try(func() { h.inner.Cleared(ns, epoch) }) }
func (h *Hooks) ClearOutage(ns string, be, pe error) {
	h.try(func() { h.inner.ClearOutage(ns, be, pe) })
}
