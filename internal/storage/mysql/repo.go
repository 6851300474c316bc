// Package mysql implements a MySQL-backed storage.Repository using
// github.com/go-sql-driver/mysql and the shared database/sql repository.
package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"

	"hanami/internal/schema"
	"hanami/internal/storage"
	"hanami/internal/storage/sqldb"
)

// Dialect is the MySQL SQL dialect.
type Dialect struct{}

func (Dialect) Placeholder(int) string { return "?" }

func (Dialect) Quote(id string) string { return "`" + strings.ReplaceAll(id, "`", "``") + "`" }

func (Dialect) ColumnType(t string) string {
	switch t {
	case schema.TypeNumber:
		return "DOUBLE"
	case schema.TypeDatetime:
		return "DATETIME(6)"
	case schema.TypeCategory:
		return "VARCHAR(64)"
	default:
		return "VARCHAR(255)"
	}
}

func (Dialect) BindTime(t time.Time) any { return t.UTC() }

func (Dialect) WrapCreate(_, body string) string { return storage.IfNotExists(body) }

func (Dialect) Limit(n int) (string, string) { return "", fmt.Sprintf(" LIMIT %d", n) }

// ParseDSN parses dsn and forces the settings the repository relies on:
// DATETIME values scanned as time.Time, in UTC.
func ParseDSN(dsn string) (*mysql.Config, error) {
	c, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("mysql: dsn: %w", err)
	}
	c.ParseTime = true
	c.Loc = time.UTC
	return c, nil
}

// NewRepository opens a pool, pings it and bootstraps the table if asked to.
func NewRepository(ctx context.Context, cfg storage.Config) (*sqldb.Repository, error) {
	mc, err := ParseDSN(cfg.DSN)
	if err != nil {
		return nil, err
	}
	conn, err := mysql.NewConnector(mc)
	if err != nil {
		return nil, fmt.Errorf("mysql: connector: %w", err)
	}
	db := sql.OpenDB(conn)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("mysql: ping: %w", err)
	}

	r := sqldb.New("mysql", db, Dialect{}, cfg, nil)
	if err := r.Bootstrap(ctx); err != nil {
		r.Close()
		return nil, err
	}
	return r, nil
}
