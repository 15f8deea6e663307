// Package sqlite is a store.Store on modernc.org/sqlite (pure Go, no cgo).
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/unkn0wn-root/qrcache/store"
)

const timeLayout = time.RFC3339Nano

type DB struct {
	*sql.DB
	now func() time.Time
}

var _ store.Store = (*DB)(nil)

// New opens dataSourceName (a file path or ":memory:") and creates the schema.
// A single connection is used, so ":memory:" databases stay consistent.
func New(dataSourceName string) (*DB, error) {
	db, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	database := &DB{DB: db, now: time.Now}
	if err := database.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return database, nil
}

func (db *DB) createTables() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS codes (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			content TEXT NOT NULL,
			width INTEGER NOT NULL,
			height INTEGER NOT NULL,
			foreground TEXT NOT NULL,
			background TEXT NOT NULL,
			created_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			email TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS user_codes (
			user_id INTEGER NOT NULL,
			code_id INTEGER NOT NULL,
			PRIMARY KEY (user_id, code_id)
		);`,
		`CREATE INDEX IF NOT EXISTS user_codes_code ON user_codes (code_id);`,
	}
	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return err
		}
	}
	return nil
}

func (db *DB) SaveCode(ctx context.Context, c *store.Code) error {
	if c.ID == store.NoID {
		created := db.now().UTC()
		res, err := db.ExecContext(ctx, `
		INSERT INTO codes (content, width, height, foreground, background, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
			c.Content, c.Width, c.Height, c.Foreground, c.Background, created.Format(timeLayout))
		if err != nil {
			return err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		c.ID, c.CreatedAt, c.OwnerIDs = store.ID(id), created, []store.ID{}
		return nil
	}

	res, err := db.ExecContext(ctx, `
	UPDATE codes
	SET content = ?, width = ?, height = ?, foreground = ?, background = ?
	WHERE id = ?`,
		c.Content, c.Width, c.Height, c.Foreground, c.Background, c.ID)
	if err := affectedOne(res, err, "code", c.ID); err != nil {
		return err
	}
	saved, err := db.FindCode(ctx, c.ID)
	if err != nil {
		return err
	}
	*c = *saved
	return nil
}

func (db *DB) FindCode(ctx context.Context, id store.ID) (*store.Code, error) {
	codes, err := db.queryCodes(ctx, `WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	if len(codes) == 0 {
		return nil, fmt.Errorf("code %d: %w", id, store.ErrNotFound)
	}
	return &codes[0], nil
}

func (db *DB) DeleteCode(ctx context.Context, id store.ID) error {
	return db.deleteWithLinks(ctx, "codes", "code_id", "code", id)
}

func (db *DB) ExistsCode(ctx context.Context, id store.ID) (bool, error) {
	return db.exists(ctx, `SELECT 1 FROM codes WHERE id = ?`, id)
}

func (db *DB) ListCodes(ctx context.Context) ([]store.Code, error) {
	return db.queryCodes(ctx, ``)
}

// instr avoids LIKE, whose wildcards would need escaping.
func (db *DB) SearchCodes(ctx context.Context, substr string) ([]store.Code, error) {
	return db.queryCodes(ctx, `WHERE instr(lower(content), lower(?)) > 0`, substr)
}

func (db *DB) CodesByOwner(ctx context.Context, userID store.ID) ([]store.Code, error) {
	return db.queryCodes(ctx, `WHERE id IN (SELECT code_id FROM user_codes WHERE user_id = ?)`, userID)
}

func (db *DB) SaveUser(ctx context.Context, u *store.User) error {
	if u.ID == store.NoID {
		created := db.now().UTC()
		res, err := db.ExecContext(ctx, `
		INSERT INTO users (name, email, created_at) VALUES (?, ?, ?)`,
			u.Name, u.Email, created.Format(timeLayout))
		if err != nil {
			return err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		u.ID, u.CreatedAt, u.CodeIDs = store.ID(id), created, []store.ID{}
		return nil
	}

	res, err := db.ExecContext(ctx, `UPDATE users SET name = ?, email = ? WHERE id = ?`, u.Name, u.Email, u.ID)
	if err := affectedOne(res, err, "user", u.ID); err != nil {
		return err
	}
	saved, err := db.FindUser(ctx, u.ID)
	if err != nil {
		return err
	}
	*u = *saved
	return nil
}

func (db *DB) FindUser(ctx context.Context, id store.ID) (*store.User, error) {
	users, err := db.queryUsers(ctx, `WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, fmt.Errorf("user %d: %w", id, store.ErrNotFound)
	}
	return &users[0], nil
}

func (db *DB) DeleteUser(ctx context.Context, id store.ID) error {
	return db.deleteWithLinks(ctx, "users", "user_id", "user", id)
}

func (db *DB) ExistsUser(ctx context.Context, id store.ID) (bool, error) {
	return db.exists(ctx, `SELECT 1 FROM users WHERE id = ?`, id)
}

func (db *DB) ListUsers(ctx context.Context) ([]store.User, error) {
	return db.queryUsers(ctx, ``)
}

func (db *DB) SearchUsers(ctx context.Context, part string) ([]store.User, error) {
	return db.queryUsers(ctx, `WHERE instr(lower(name), lower(?)) > 0`, part)
}

func (db *DB) FindUserByEmail(ctx context.Context, email string) (*store.User, error) {
	users, err := db.queryUsers(ctx, `WHERE lower(email) = lower(?)`, email)
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, fmt.Errorf("user %q: %w", email, store.ErrNotFound)
	}
	return &users[0], nil
}

func (db *DB) Associate(ctx context.Context, userID, codeID store.ID) error {
	if ok, err := db.ExistsUser(ctx, userID); err != nil {
		return err
	} else if !ok {
		return fmt.Errorf("user %d: %w", userID, store.ErrNotFound)
	}
	if ok, err := db.ExistsCode(ctx, codeID); err != nil {
		return err
	} else if !ok {
		return fmt.Errorf("code %d: %w", codeID, store.ErrNotFound)
	}
	_, err := db.ExecContext(ctx, `INSERT OR IGNORE INTO user_codes (user_id, code_id) VALUES (?, ?)`, userID, codeID)
	return err
}

// queryCodes reads every row before loading links: with one connection a
// nested query would wait on the open result set forever.
func (db *DB) queryCodes(ctx context.Context, where string, args ...any) ([]store.Code, error) {
	rows, err := db.QueryContext(ctx, `
	SELECT id, content, width, height, foreground, background, created_at
	FROM codes `+where+` ORDER BY id`, args...)
	if err != nil {
		return nil, err
	}
	out := make([]store.Code, 0)
	for rows.Next() {
		var c store.Code
		var created string
		if err := rows.Scan(&c.ID, &c.Content, &c.Width, &c.Height, &c.Foreground, &c.Background, &created); err != nil {
			_ = rows.Close()
			return nil, err
		}
		if c.CreatedAt, err = time.Parse(timeLayout, created); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("code %d created_at: %w", c.ID, err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, err
	}
	_ = rows.Close()

	for i := range out {
		if out[i].OwnerIDs, err = db.linked(ctx, `SELECT user_id FROM user_codes WHERE code_id = ? ORDER BY user_id`, out[i].ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (db *DB) queryUsers(ctx context.Context, where string, args ...any) ([]store.User, error) {
	rows, err := db.QueryContext(ctx, `
	SELECT id, name, email, created_at FROM users `+where+` ORDER BY id`, args...)
	if err != nil {
		return nil, err
	}
	out := make([]store.User, 0)
	for rows.Next() {
		var u store.User
		var created string
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &created); err != nil {
			_ = rows.Close()
			return nil, err
		}
		if u.CreatedAt, err = time.Parse(timeLayout, created); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("user %d created_at: %w", u.ID, err)
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, err
	}
	_ = rows.Close()

	for i := range out {
		if out[i].CodeIDs, err = db.linked(ctx, `SELECT code_id FROM user_codes WHERE user_id = ? ORDER BY code_id`, out[i].ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (db *DB) linked(ctx context.Context, query string, id store.ID) ([]store.ID, error) {
	rows, err := db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]store.ID, 0)
	for rows.Next() {
		var v store.ID
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (db *DB) exists(ctx context.Context, query string, id store.ID) (bool, error) {
	var one int
	err := db.QueryRowContext(ctx, query, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

func (db *DB) deleteWithLinks(ctx context.Context, table, linkColumn, kind string, id store.ID) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM user_codes WHERE `+linkColumn+` = ?`, id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE id = ?`, id)
	if err := affectedOne(res, err, kind, id); err != nil {
		return err
	}
	return tx.Commit()
}

func affectedOne(res sql.Result, err error, kind string, id store.ID) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s %d: %w", kind, id, store.ErrNotFound)
	}
	return nil
}
