package store

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"
)

type link struct{ user, code ID }

// Memory is an in-process Store. The zero value is not usable; call NewMemory.
type Memory struct {
	mu       sync.RWMutex
	codes    map[ID]Code
	users    map[ID]User
	links    map[link]struct{}
	nextCode ID
	nextUser ID
	now      func() time.Time
}

var _ Store = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{
		codes: make(map[ID]Code),
		users: make(map[ID]User),
		links: make(map[link]struct{}),
		now:   time.Now,
	}
}

func (m *Memory) Close() error { return nil }

func (m *Memory) SaveCode(_ context.Context, c *Code) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	row := *c
	row.OwnerIDs = nil
	if c.ID == NoID {
		m.nextCode++
		row.ID = m.nextCode
		row.CreatedAt = m.now().UTC()
	} else {
		old, ok := m.codes[c.ID]
		if !ok {
			return fmt.Errorf("code %d: %w", c.ID, ErrNotFound)
		}
		row.CreatedAt = old.CreatedAt
	}
	m.codes[row.ID] = row
	c.ID, c.CreatedAt = row.ID, row.CreatedAt
	c.OwnerIDs = m.ownersOf(row.ID)
	return nil
}

func (m *Memory) FindCode(_ context.Context, id ID) (*Code, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.codes[id]
	if !ok {
		return nil, fmt.Errorf("code %d: %w", id, ErrNotFound)
	}
	c.OwnerIDs = m.ownersOf(id)
	return &c, nil
}

func (m *Memory) DeleteCode(_ context.Context, id ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.codes[id]; !ok {
		return fmt.Errorf("code %d: %w", id, ErrNotFound)
	}
	delete(m.codes, id)
	for l := range m.links {
		if l.code == id {
			delete(m.links, l)
		}
	}
	return nil
}

func (m *Memory) ExistsCode(_ context.Context, id ID) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.codes[id]
	return ok, nil
}

func (m *Memory) ListCodes(_ context.Context) ([]Code, error) {
	return m.filterCodes(func(Code) bool { return true }), nil
}

func (m *Memory) SearchCodes(_ context.Context, substr string) ([]Code, error) {
	needle := strings.ToLower(substr)
	return m.filterCodes(func(c Code) bool {
		return strings.Contains(strings.ToLower(c.Content), needle)
	}), nil
}

func (m *Memory) CodesByOwner(_ context.Context, userID ID) ([]Code, error) {
	m.mu.RLock()
	owned := make(map[ID]bool)
	for l := range m.links {
		if l.user == userID {
			owned[l.code] = true
		}
	}
	m.mu.RUnlock()
	return m.filterCodes(func(c Code) bool { return owned[c.ID] }), nil
}

func (m *Memory) SaveUser(_ context.Context, u *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	row := *u
	row.CodeIDs = nil
	if u.ID == NoID {
		m.nextUser++
		row.ID = m.nextUser
		row.CreatedAt = m.now().UTC()
	} else {
		old, ok := m.users[u.ID]
		if !ok {
			return fmt.Errorf("user %d: %w", u.ID, ErrNotFound)
		}
		row.CreatedAt = old.CreatedAt
	}
	m.users[row.ID] = row
	u.ID, u.CreatedAt = row.ID, row.CreatedAt
	u.CodeIDs = m.codesOf(row.ID)
	return nil
}

func (m *Memory) FindUser(_ context.Context, id ID) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return nil, fmt.Errorf("user %d: %w", id, ErrNotFound)
	}
	u.CodeIDs = m.codesOf(id)
	return &u, nil
}

func (m *Memory) DeleteUser(_ context.Context, id ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return fmt.Errorf("user %d: %w", id, ErrNotFound)
	}
	delete(m.users, id)
	for l := range m.links {
		if l.user == id {
			delete(m.links, l)
		}
	}
	return nil
}

func (m *Memory) ExistsUser(_ context.Context, id ID) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.users[id]
	return ok, nil
}

func (m *Memory) ListUsers(_ context.Context) ([]User, error) {
	return m.filterUsers(func(User) bool { return true }), nil
}

func (m *Memory) SearchUsers(_ context.Context, part string) ([]User, error) {
	needle := strings.ToLower(part)
	return m.filterUsers(func(u User) bool {
		return strings.Contains(strings.ToLower(u.Name), needle)
	}), nil
}

func (m *Memory) FindUserByEmail(_ context.Context, email string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.sortedUsers() {
		if strings.EqualFold(u.Email, email) {
			u.CodeIDs = m.codesOf(u.ID)
			return &u, nil
		}
	}
	return nil, fmt.Errorf("user %q: %w", email, ErrNotFound)
}

func (m *Memory) Associate(_ context.Context, userID, codeID ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[userID]; !ok {
		return fmt.Errorf("user %d: %w", userID, ErrNotFound)
	}
	if _, ok := m.codes[codeID]; !ok {
		return fmt.Errorf("code %d: %w", codeID, ErrNotFound)
	}
	m.links[link{user: userID, code: codeID}] = struct{}{}
	return nil
}

func (m *Memory) filterCodes(keep func(Code) bool) []Code {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Code, 0, len(m.codes))
	for _, c := range m.codes {
		if keep(c) {
			c.OwnerIDs = m.ownersOf(c.ID)
			out = append(out, c)
		}
	}
	slices.SortFunc(out, func(a, b Code) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

func (m *Memory) filterUsers(keep func(User) bool) []User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]User, 0)
	for _, u := range m.sortedUsers() {
		if keep(u) {
			u.CodeIDs = m.codesOf(u.ID)
			out = append(out, u)
		}
	}
	return out
}

// callers hold mu.
func (m *Memory) sortedUsers() []User {
	out := make([]User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, u)
	}
	slices.SortFunc(out, func(a, b User) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

func (m *Memory) ownersOf(code ID) []ID {
	out := make([]ID, 0)
	for l := range m.links {
		if l.code == code {
			out = append(out, l.user)
		}
	}
	slices.Sort(out)
	return out
}

func (m *Memory) codesOf(user ID) []ID {
	out := make([]ID, 0)
	for l := range m.links {
		if l.user == user {
			out = append(out, l.code)
		}
	}
	slices.Sort(out)
	return out
}
