// Package storetest holds the behaviour every store.Store must share.
// Backends call Run from their own tests.
package storetest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unkn0wn-root/qrcache/store"
)

// Run exercises a fresh store per subtest.
func Run(t *testing.T, newStore func(t *testing.T) store.Store) {
	t.Helper()
	tests := map[string]func(*testing.T, store.Store){
		"code lifecycle":        testCodeLifecycle,
		"code search":           testCodeSearch,
		"user lifecycle":        testUserLifecycle,
		"user search and email": testUserSearch,
		"associate":             testAssociate,
		"delete drops links":    testDeleteDropsLinks,
		"empty lists":           testEmptyLists,
	}
	for name, fn := range tests {
		t.Run(name, func(t *testing.T) {
			s := newStore(t)
			t.Cleanup(func() { _ = s.Close() })
			fn(t, s)
		})
	}
}

func saveCode(t *testing.T, s store.Store, content string) *store.Code {
	t.Helper()
	c := &store.Code{Content: content, Width: 200, Height: 200, Foreground: "#000000", Background: "#FFFFFF"}
	require.NoError(t, s.SaveCode(context.Background(), c))
	return c
}

func saveUser(t *testing.T, s store.Store, name, email string) *store.User {
	t.Helper()
	u := &store.User{Name: name, Email: email}
	require.NoError(t, s.SaveUser(context.Background(), u))
	return u
}

func testCodeLifecycle(t *testing.T, s store.Store) {
	ctx := context.Background()
	c := saveCode(t, s, "https://example.com")
	require.NotEqual(t, store.NoID, c.ID)
	assert.False(t, c.CreatedAt.IsZero())

	got, err := s.FindCode(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com", got.Content)
	assert.Equal(t, 200, got.Width)
	assert.Equal(t, "#FFFFFF", got.Background)
	assert.True(t, c.CreatedAt.Equal(got.CreatedAt))

	got.Content = "https://example.org"
	require.NoError(t, s.SaveCode(ctx, got))
	again, err := s.FindCode(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://example.org", again.Content)

	ok, err := s.ExistsCode(ctx, c.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, s.DeleteCode(ctx, c.ID))
	_, err = s.FindCode(ctx, c.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.ErrorIs(t, s.DeleteCode(ctx, c.ID), store.ErrNotFound)
	assert.ErrorIs(t, s.SaveCode(ctx, &store.Code{ID: 999, Content: "x"}), store.ErrNotFound)

	ok, err = s.ExistsCode(ctx, c.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func testCodeSearch(t *testing.T, s store.Store) {
	ctx := context.Background()
	a := saveCode(t, s, "Hello World")
	saveCode(t, s, "goodbye")
	c := saveCode(t, s, "say hello")

	found, err := s.SearchCodes(ctx, "HELLO")
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, a.ID, found[0].ID)
	assert.Equal(t, c.ID, found[1].ID)

	all, err := s.ListCodes(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	none, err := s.SearchCodes(ctx, "100%")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func testUserLifecycle(t *testing.T, s store.Store) {
	ctx := context.Background()
	u := saveUser(t, s, "Alice", "alice@example.com")
	require.NotEqual(t, store.NoID, u.ID)

	u.Name = "Alice B"
	require.NoError(t, s.SaveUser(ctx, u))
	got, err := s.FindUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice B", got.Name)
	assert.NotNil(t, got.CodeIDs)

	require.NoError(t, s.DeleteUser(ctx, u.ID))
	_, err = s.FindUser(ctx, u.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.ErrorIs(t, s.DeleteUser(ctx, u.ID), store.ErrNotFound)
}

func testUserSearch(t *testing.T, s store.Store) {
	ctx := context.Background()
	saveUser(t, s, "Alice", "Alice@Example.com")
	saveUser(t, s, "Malice", "m@example.com")
	saveUser(t, s, "Bob", "bob@example.com")

	found, err := s.SearchUsers(ctx, "ALI")
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, "Alice", found[0].Name)

	u, err := s.FindUserByEmail(ctx, "alice@example.COM")
	require.NoError(t, err)
	assert.Equal(t, "Alice", u.Name)

	_, err = s.FindUserByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func testAssociate(t *testing.T, s store.Store) {
	ctx := context.Background()
	u := saveUser(t, s, "Alice", "a@example.com")
	c1 := saveCode(t, s, "one")
	c2 := saveCode(t, s, "two")
	saveCode(t, s, "three")

	require.NoError(t, s.Associate(ctx, u.ID, c2.ID))
	require.NoError(t, s.Associate(ctx, u.ID, c1.ID))
	require.NoError(t, s.Associate(ctx, u.ID, c1.ID))

	owned, err := s.CodesByOwner(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, owned, 2)
	assert.Equal(t, c1.ID, owned[0].ID)
	assert.Equal(t, []store.ID{u.ID}, owned[0].OwnerIDs)

	got, err := s.FindUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, []store.ID{c1.ID, c2.ID}, got.CodeIDs)

	assert.ErrorIs(t, s.Associate(ctx, 999, c1.ID), store.ErrNotFound)
	assert.ErrorIs(t, s.Associate(ctx, u.ID, 999), store.ErrNotFound)
}

func testDeleteDropsLinks(t *testing.T, s store.Store) {
	ctx := context.Background()
	u := saveUser(t, s, "Alice", "a@example.com")
	c := saveCode(t, s, "one")
	require.NoError(t, s.Associate(ctx, u.ID, c.ID))

	require.NoError(t, s.DeleteCode(ctx, c.ID))
	got, err := s.FindUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, got.CodeIDs)

	c2 := saveCode(t, s, "two")
	require.NoError(t, s.Associate(ctx, u.ID, c2.ID))
	require.NoError(t, s.DeleteUser(ctx, u.ID))
	code, err := s.FindCode(ctx, c2.ID)
	require.NoError(t, err)
	assert.Empty(t, code.OwnerIDs)
}

func testEmptyLists(t *testing.T, s store.Store) {
	ctx := context.Background()
	codes, err := s.ListCodes(ctx)
	require.NoError(t, err)
	assert.NotNil(t, codes)
	assert.Empty(t, codes)

	users, err := s.ListUsers(ctx)
	require.NoError(t, err)
	assert.NotNil(t, users)

	owned, err := s.CodesByOwner(ctx, 42)
	require.NoError(t, err)
	assert.NotNil(t, owned)
}
