package genstore

import (
	"context"
	"sync"
	"time"
)

// LocalGenStore keeps namespace epochs in process memory. Epochs are lost on
// restart, which is only safe when the provider is process-local too.
//
// Cleanup forgets epochs not bumped within the retention. A forgotten epoch
// reads as 0 again, so retention must outlive every entry the provider still
// holds for that namespace. Without WithCleanup nothing is ever forgotten.
type LocalGenStore struct {
	mu      sync.RWMutex
	epochs  map[string]uint64
	bumped  map[string]time.Time
	now     func() time.Time
	stop    chan struct{}
	done    chan struct{}
	stopped sync.Once

	interval  time.Duration
	retention time.Duration
}

var _ GenStore = (*LocalGenStore)(nil)

type LocalOption func(*LocalGenStore)

// WithCleanup prunes epochs idle longer than retention every interval.
func WithCleanup(interval, retention time.Duration) LocalOption {
	return func(s *LocalGenStore) {
		s.interval = interval
		s.retention = retention
	}
}

func withClock(now func() time.Time) LocalOption {
	return func(s *LocalGenStore) { s.now = now }
}

func NewLocalGenStore(opts ...LocalOption) *LocalGenStore {
	s := &LocalGenStore{
		epochs: make(map[string]uint64),
		bumped: make(map[string]time.Time),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.interval > 0 && s.retention > 0 {
		s.stop = make(chan struct{})
		s.done = make(chan struct{})
		go s.loop()
	}
	return s
}

func (s *LocalGenStore) loop() {
	defer close(s.done)
	t := time.NewTicker(s.interval)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			s.Cleanup(s.retention)
		case <-s.stop:
			return
		}
	}
}

func (s *LocalGenStore) Snapshot(_ context.Context, key string) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.epochs[key], nil
}

func (s *LocalGenStore) Bump(_ context.Context, key string) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.epochs[key]++
	s.bumped[key] = s.now()
	return s.epochs[key], nil
}

func (s *LocalGenStore) Cleanup(retention time.Duration) {
	if retention <= 0 {
		return
	}
	cutoff := s.now().Add(-retention)

	s.mu.Lock()
	defer s.mu.Unlock()
	for key, at := range s.bumped {
		if at.Before(cutoff) {
			delete(s.epochs, key)
			delete(s.bumped, key)
		}
	}
}

// Close stops the cleanup loop. Safe to call more than once.
func (s *LocalGenStore) Close(context.Context) error {
	s.stopped.Do(func() {
		if s.stop == nil {
			return
		}
		close(s.stop)
		<-s.done
	})
	return nil
}
