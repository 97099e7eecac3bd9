package pgx

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lborres/assessgate/core"
)

// DefaultTable holds the session entries when no table is configured.
const DefaultTable = "assessgate_session_entries"

var tableNamePattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Adapter implements core.EntryStore on PostgreSQL.
type Adapter struct {
	pool  *pgxpool.Pool
	table string
}

var _ core.EntryStore = (*Adapter)(nil)

func New(pool *pgxpool.Pool) *Adapter {
	return &Adapter{
		pool:  pool,
		table: DefaultTable,
	}
}

// WithTable returns a copy of the adapter using a different table name.
func (a *Adapter) WithTable(table string) (*Adapter, error) {
	if !tableNamePattern.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	cp := *a
	cp.table = table
	return &cp, nil
}

// Migrate creates the entries table if it does not exist.
func (a *Adapter) Migrate(ctx context.Context) error {
	_, err := a.pool.Exec(ctx, fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`, a.table))
	if err != nil {
		return fmt.Errorf("failed to migrate %s: %w", a.table, err)
	}
	return nil
}

func (a *Adapter) Get(ctx context.Context, keys ...string) (map[string]string, error) {
	rows, err := a.pool.Query(ctx, fmt.Sprintf(`SELECT key, value FROM %s WHERE key = ANY($1)`, a.table), keys)
	if err != nil {
		return nil, fmt.Errorf("failed to query session entries: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string, len(keys))
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("failed to scan session entry: %w", err)
		}
		out[k] = v
	}
	if err := rows.Err(); err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to read session entries: %w", err)
	}
	return out, nil
}

// Put upserts all entries in one transaction.
func (a *Adapter) Put(ctx context.Context, entries map[string]string) error {
	upsert := fmt.Sprintf(`INSERT INTO %s (key, value, updated_at) VALUES ($1, $2, now())
ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`, a.table)

	err := pgx.BeginFunc(ctx, a.pool, func(tx pgx.Tx) error {
		for k, v := range entries {
			if _, err := tx.Exec(ctx, upsert, k, v); err != nil {
				return fmt.Errorf("failed to write %s: %w", k, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save session entries: %w", err)
	}
	return nil
}

func (a *Adapter) Delete(ctx context.Context, keys ...string) error {
	if _, err := a.pool.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE key = ANY($1)`, a.table), keys); err != nil {
		return fmt.Errorf("failed to delete session entries: %w", err)
	}
	return nil
}
