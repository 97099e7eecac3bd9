package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/lborres/assessgate/core"
)

// Adapter implements core.EntryStore on a SQLite database.
type Adapter struct {
	db *sql.DB
}

var _ core.EntryStore = (*Adapter)(nil)

// Open opens (or creates) the database at path and prepares the schema.
func Open(ctx context.Context, path string) (*Adapter, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// one writer; also keeps ":memory:" on a single connection
	db.SetMaxOpenConns(1)

	a, err := New(ctx, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return a, nil
}

// New wraps an existing handle and creates the session_entries table if needed.
func New(ctx context.Context, db *sql.DB) (*Adapter, error) {
	_, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS session_entries (key TEXT PRIMARY KEY, value TEXT NOT NULL, updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP)`)
	if err != nil {
		return nil, fmt.Errorf("failed to create session_entries: %w", err)
	}
	return &Adapter{db: db}, nil
}

func (a *Adapter) Close() error {
	return a.db.Close()
}

func (a *Adapter) Get(ctx context.Context, keys ...string) (map[string]string, error) {
	out := make(map[string]string, len(keys))
	if len(keys) == 0 {
		return out, nil
	}

	query := "SELECT key, value FROM session_entries WHERE key IN (" + placeholders(len(keys)) + ")"
	rows, err := a.db.QueryContext(ctx, query, args(keys)...)
	if err != nil {
		return nil, fmt.Errorf("failed to query session entries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("failed to scan session entry: %w", err)
		}
		out[k] = v
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read session entries: %w", err)
	}
	return out, nil
}

// Put upserts all entries in one transaction.
func (a *Adapter) Put(ctx context.Context, entries map[string]string) error {
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for k, v := range entries {
		_, err := tx.ExecContext(ctx, `INSERT INTO session_entries (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP) ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`, k, v)
		if err != nil {
			return fmt.Errorf("failed to write %s: %w", k, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit session entries: %w", err)
	}
	return nil
}

func (a *Adapter) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	query := "DELETE FROM session_entries WHERE key IN (" + placeholders(len(keys)) + ")"
	if _, err := a.db.ExecContext(ctx, query, args(keys)...); err != nil {
		return fmt.Errorf("failed to delete session entries: %w", err)
	}
	return nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func args(keys []string) []any {
	out := make([]any, len(keys))
	for i, k := range keys {
		out[i] = k
	}
	return out
}
