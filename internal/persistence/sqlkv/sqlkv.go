// Package sqlkv stores history keys in a single SQL table. The same code
// serves SQLite (modernc.org/sqlite) and PostgreSQL (lib/pq); queries are
// written with ? placeholders and rebound per driver.
package sqlkv

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/sawpanic/cascade/internal/persistence"
)

const schema = `
	CREATE TABLE IF NOT EXISTS cascade_kv (
		k          TEXT PRIMARY KEY,
		v          TEXT NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`

// KV implements persistence.KV on a sqlx handle.
type KV struct {
	db      *sqlx.DB
	timeout time.Duration
}

// Open connects with driver "sqlite" or "postgres" and creates the table.
func Open(ctx context.Context, driver, dsn string, timeout time.Duration) (*KV, error) {
	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if driver == "sqlite" {
		// One connection: each :memory: connection is a separate database,
		// and SQLite serialises writers anyway.
		db.SetMaxOpenConns(1)
	}

	kv := New(db, timeout)
	if err := kv.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return kv, nil
}

// New wraps an open handle.
func New(db *sqlx.DB, timeout time.Duration) *KV {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &KV{db: db, timeout: timeout}
}

// Migrate creates the table if needed.
func (s *KV) Migrate(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create cascade_kv: %w", err)
	}
	return nil
}

func (s *KV) Get(ctx context.Context, key string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var v string
	query := s.db.Rebind(`SELECT v FROM cascade_kv WHERE k = ?`)
	if err := s.db.GetContext(ctx, &v, query, key); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.ErrNotFound
		}
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	return []byte(v), nil
}

func (s *KV) Set(ctx context.Context, key string, value []byte) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	query := s.db.Rebind(`
		INSERT INTO cascade_kv (k, v, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT (k) DO UPDATE SET
			v = EXCLUDED.v,
			updated_at = EXCLUDED.updated_at`)
	if _, err := s.db.ExecContext(ctx, query, key, string(value), time.Now().UTC()); err != nil {
		return fmt.Errorf("upsert %s: %w", key, err)
	}
	return nil
}

func (s *KV) Delete(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	query := s.db.Rebind(`DELETE FROM cascade_kv WHERE k = ?`)
	if _, err := s.db.ExecContext(ctx, query, key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// Keys matches on substr rather than LIKE so that '_' and '%' in a
// namespace are literal.
func (s *KV) Keys(ctx context.Context, prefix string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	keys := []string{}
	query := s.db.Rebind(`SELECT k FROM cascade_kv WHERE substr(k, 1, ?) = ? ORDER BY k`)
	if err := s.db.SelectContext(ctx, &keys, query, len(prefix), prefix); err != nil {
		return nil, fmt.Errorf("list %s*: %w", prefix, err)
	}
	return keys, nil
}

// Close closes the underlying handle.
func (s *KV) Close() error {
	return s.db.Close()
}
