// Package memory is an in-process map provider. It is the default backend
// for a single replica and for tests.
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	pr "github.com/unkn0wn-root/qrcache/provider"
)

type entry struct {
	v   []byte
	exp time.Time
}

type Provider struct {
	mu  sync.RWMutex
	m   map[string]entry
	now func() time.Time
}

var (
	_ pr.Provider = (*Provider)(nil)
	_ pr.Purger   = (*Provider)(nil)
)

func New() *Provider {
	return &Provider{m: make(map[string]entry), now: time.Now}
}

// Get returns a copy so callers can't mutate what is stored.
func (p *Provider) Get(_ context.Context, key string) ([]byte, bool, error) {
	p.mu.RLock()
	e, ok := p.m[key]
	p.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if !e.exp.IsZero() && !p.now().Before(e.exp) {
		p.mu.Lock()
		if cur, ok := p.m[key]; ok && cur.exp.Equal(e.exp) {
			delete(p.m, key)
		}
		p.mu.Unlock()
		return nil, false, nil
	}
	return append([]byte(nil), e.v...), true, nil
}

func (p *Provider) Set(_ context.Context, key string, value []byte, _ int64, ttl time.Duration) (bool, error) {
	e := entry{v: append([]byte(nil), value...)}
	if ttl > 0 {
		e.exp = p.now().Add(ttl)
	}
	p.mu.Lock()
	p.m[key] = e
	p.mu.Unlock()
	return true, nil
}

func (p *Provider) Del(_ context.Context, key string) error {
	p.mu.Lock()
	delete(p.m, key)
	p.mu.Unlock()
	return nil
}

func (p *Provider) Purge(_ context.Context, prefix string) error {
	p.mu.Lock()
	for k := range p.m {
		if strings.HasPrefix(k, prefix) {
			delete(p.m, k)
		}
	}
	p.mu.Unlock()
	return nil
}

// Len reports the number of stored entries, expired ones included.
func (p *Provider) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.m)
}

func (p *Provider) Close(_ context.Context) error {
	p.mu.Lock()
	p.m = make(map[string]entry)
	p.mu.Unlock()
	return nil
}
