// Package store persists generated codes and the users that own them.
package store

import (
	"context"
	"errors"
	"time"
)

// ID identifies a Code or User. Stores assign IDs starting at 1.
type ID int64

// NoID marks an unsaved entity or an absent owner.
const NoID ID = 0

var ErrNotFound = errors.New("store: not found")

type Code struct {
	ID         ID        `json:"id"`
	Content    string    `json:"content"`
	Width      int       `json:"width"`
	Height     int       `json:"height"`
	Foreground string    `json:"foreground"`
	Background string    `json:"background"`
	CreatedAt  time.Time `json:"createdAt"`
	// OwnerIDs is filled on read, sorted. SaveCode ignores it; use Associate.
	OwnerIDs []ID `json:"ownerIds"`
}

type User struct {
	ID        ID        `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
	// CodeIDs is filled on read, sorted. SaveUser ignores it; use Associate.
	CodeIDs []ID `json:"codeIds"`
}

// CodeStore methods returning lists never return nil slices.
type CodeStore interface {
	// SaveCode inserts when c.ID is NoID (setting ID and CreatedAt) and
	// updates otherwise. Updating a missing code returns ErrNotFound.
	SaveCode(ctx context.Context, c *Code) error
	FindCode(ctx context.Context, id ID) (*Code, error)
	// DeleteCode also drops the code's ownership links.
	DeleteCode(ctx context.Context, id ID) error
	ExistsCode(ctx context.Context, id ID) (bool, error)
	ListCodes(ctx context.Context) ([]Code, error)
	// SearchCodes matches content containing substr, case-insensitively.
	SearchCodes(ctx context.Context, substr string) ([]Code, error)
	CodesByOwner(ctx context.Context, userID ID) ([]Code, error)
}

type UserStore interface {
	SaveUser(ctx context.Context, u *User) error
	FindUser(ctx context.Context, id ID) (*User, error)
	DeleteUser(ctx context.Context, id ID) error
	ExistsUser(ctx context.Context, id ID) (bool, error)
	ListUsers(ctx context.Context) ([]User, error)
	// SearchUsers matches names containing part, case-insensitively.
	SearchUsers(ctx context.Context, part string) ([]User, error)
	// FindUserByEmail compares case-insensitively.
	FindUserByEmail(ctx context.Context, email string) (*User, error)
	// Associate links a user and a code. Both must exist; linking twice is a no-op.
	Associate(ctx context.Context, userID, codeID ID) error
}

type Store interface {
	CodeStore
	UserStore
	Close() error
}
