package service_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/unkn0wn-root/qrcache/store"
	"github.com/unkn0wn-root/qrcache/symbol"
)

// spyStore counts calls per method on top of a real in-memory store.
type spyStore struct {
	*store.Memory
	mu    sync.Mutex
	calls map[string]int
}

func newSpyStore() *spyStore {
	return &spyStore{Memory: store.NewMemory(), calls: make(map[string]int)}
}

func (s *spyStore) hit(name string) {
	s.mu.Lock()
	s.calls[name]++
	s.mu.Unlock()
}

func (s *spyStore) count(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[name]
}

func (s *spyStore) total() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		n += c
	}
	return n
}

func (s *spyStore) SaveCode(ctx context.Context, c *store.Code) error {
	s.hit("SaveCode")
	return s.Memory.SaveCode(ctx, c)
}

func (s *spyStore) FindCode(ctx context.Context, id store.ID) (*store.Code, error) {
	s.hit("FindCode")
	return s.Memory.FindCode(ctx, id)
}

func (s *spyStore) ListCodes(ctx context.Context) ([]store.Code, error) {
	s.hit("ListCodes")
	return s.Memory.ListCodes(ctx)
}

func (s *spyStore) SearchCodes(ctx context.Context, q string) ([]store.Code, error) {
	s.hit("SearchCodes")
	return s.Memory.SearchCodes(ctx, q)
}

func (s *spyStore) CodesByOwner(ctx context.Context, id store.ID) ([]store.Code, error) {
	s.hit("CodesByOwner")
	return s.Memory.CodesByOwner(ctx, id)
}

func (s *spyStore) FindUser(ctx context.Context, id store.ID) (*store.User, error) {
	s.hit("FindUser")
	return s.Memory.FindUser(ctx, id)
}

func (s *spyStore) SearchUsers(ctx context.Context, part string) ([]store.User, error) {
	s.hit("SearchUsers")
	return s.Memory.SearchUsers(ctx, part)
}

func (s *spyStore) FindUserByEmail(ctx context.Context, email string) (*store.User, error) {
	s.hit("FindUserByEmail")
	return s.Memory.FindUserByEmail(ctx, email)
}

func (s *spyStore) Associate(ctx context.Context, userID, codeID store.ID) error {
	s.hit("Associate")
	return s.Memory.Associate(ctx, userID, codeID)
}

// countingEncoder wraps the real encoder.
type countingEncoder struct {
	mu    sync.Mutex
	n     int
	inner symbol.Encoder
}

func (e *countingEncoder) Encode(text string, w, h int) (*symbol.BitMatrix, error) {
	e.mu.Lock()
	e.n++
	e.mu.Unlock()
	return e.inner.Encode(text, w, h)
}

func (e *countingEncoder) calls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.n
}

// brokenProvider fails every call, like an unreachable cache backend.
type brokenProvider struct{}

var errBackend = errors.New("backend unavailable")

func (brokenProvider) Get(context.Context, string) ([]byte, bool, error) { return nil, false, errBackend }
func (brokenProvider) Set(context.Context, string, []byte, int64, time.Duration) (bool, error) {
	return false, errBackend
}
func (brokenProvider) Del(context.Context, string) error { return errBackend }
func (brokenProvider) Close(context.Context) error       { return nil }

// midLoadStore runs midLoad once, after a list read has hit the store and
// before its result is returned: a write landing while a cache fill loads.
type midLoadStore struct {
	*store.Memory
	midLoad func()
}

func (s *midLoadStore) after() {
	if f := s.midLoad; f != nil {
		s.midLoad = nil
		f()
	}
}

func (s *midLoadStore) SearchCodes(ctx context.Context, q string) ([]store.Code, error) {
	codes, err := s.Memory.SearchCodes(ctx, q)
	s.after()
	return codes, err
}

func (s *midLoadStore) ListCodes(ctx context.Context) ([]store.Code, error) {
	codes, err := s.Memory.ListCodes(ctx)
	s.after()
	return codes, err
}

var errLinkDown = errors.New("link table unavailable")

// unlinkableStore saves codes but never links them to an owner.
type unlinkableStore struct {
	*store.Memory
}

func (unlinkableStore) Associate(context.Context, store.ID, store.ID) error { return errLinkDown }
