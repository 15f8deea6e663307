// Package service renders QR codes, persists them with their owners and
// serves cache-through lookups over the stored records.
package service

import (
	"context"

	"github.com/unkn0wn-root/qrcache"
	"github.com/unkn0wn-root/qrcache/counter"
	"github.com/unkn0wn-root/qrcache/raster"
	"github.com/unkn0wn-root/qrcache/store"
	"github.com/unkn0wn-root/qrcache/symbol"
)

type Service struct {
	store   store.Store
	caches  *Caches
	encoder symbol.Encoder
	raster  *raster.Rasterizer
	counter *counter.Counter
	log     qrcache.Logger
}

// Option is a functional option for Service
type Option func(*Service)

func WithEncoder(e symbol.Encoder) Option {
	return func(s *Service) { s.encoder = e }
}

func WithRasterizer(r *raster.Rasterizer) Option {
	return func(s *Service) { s.raster = r }
}

func WithCounter(c *counter.Counter) Option {
	return func(s *Service) { s.counter = c }
}

// WithCaches replaces the default in-memory caches. The service closes them.
func WithCaches(c *Caches) Option {
	return func(s *Service) { s.caches = c }
}

func WithLogger(l qrcache.Logger) Option {
	return func(s *Service) { s.log = l }
}

// New creates a Service over st. Without options it encodes at error
// correction level L, caches in process memory and counts from zero.
func New(st store.Store, opts ...Option) (*Service, error) {
	s := &Service{
		store:   st,
		encoder: symbol.NewQREncoder(),
		raster:  raster.New(),
		counter: counter.New(),
		log:     qrcache.NopLogger{},
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.caches == nil {
		c, err := NewCaches(CacheConfig{Logger: s.log})
		if err != nil {
			return nil, err
		}
		s.caches = c
	}
	return s, nil
}

// Close releases the caches. The store belongs to the caller.
func (s *Service) Close(ctx context.Context) error {
	return s.caches.Close(ctx)
}

// RequestCount reports generation and search calls since start or reset.
func (s *Service) RequestCount() uint64 { return s.counter.Get() }

func (s *Service) ResetRequestCount() { s.counter.Reset() }

// invalidate runs after every mutation: the targeted keys go first, then the
// whole records namespace. Failures are logged; the mutation already happened.
func (s *Service) invalidate(ctx context.Context, keys ...string) {
	if err := s.caches.removeRecords(ctx, keys...); err != nil {
		s.log.Warn("cache remove failed", qrcache.Fields{"keys": keys, "err": err})
	}
	if err := s.caches.ClearRecords(ctx); err != nil {
		s.log.Error("cache clear failed", qrcache.Fields{"ns": RecordsNamespace, "err": err})
	}
}
