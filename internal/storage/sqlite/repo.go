// Package sqlite implements a SQLite-backed storage.Repository on the pure-Go
// modernc.org/sqlite driver. Batches are written with a prepared INSERT per
// transaction; times are stored as fixed-width UTC text so that range filters
// compare lexically.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"hanami/internal/schema"
	"hanami/internal/storage"
	"hanami/internal/storage/sqldb"
)

// Dialect is the SQLite SQL dialect.
type Dialect struct{}

func (Dialect) Placeholder(int) string { return "?" }

func (Dialect) Quote(id string) string { return `"` + strings.ReplaceAll(id, `"`, `""`) + `"` }

func (Dialect) ColumnType(t string) string {
	if t == schema.TypeNumber {
		return "REAL"
	}
	return "TEXT"
}

func (Dialect) BindTime(t time.Time) any { return t.UTC().Format(storage.TimeLayout) }

func (Dialect) WrapCreate(_, body string) string { return storage.IfNotExists(body) }

func (Dialect) Limit(n int) (string, string) { return "", fmt.Sprintf(" LIMIT %d", n) }

// Open opens a SQLite database. In-memory databases are private to a
// connection, so the pool is pinned to a single connection for them.
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	if isMemory(dsn) {
		db.SetMaxOpenConns(1)
	}
	return db, nil
}

func isMemory(dsn string) bool {
	return dsn == ":memory:" || strings.Contains(dsn, "mode=memory")
}

// NewRepository opens, pings and, when configured, bootstraps the table.
func NewRepository(ctx context.Context, cfg storage.Config) (*sqldb.Repository, error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, fmt.Errorf("sqlite: DSN must not be empty")
	}
	db, err := Open(cfg.DSN)
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: ping: %w", err)
	}

	r := sqldb.New("sqlite", db, Dialect{}, cfg, nil)
	if err := r.Bootstrap(ctx); err != nil {
		r.Close()
		return nil, err
	}
	return r, nil
}
