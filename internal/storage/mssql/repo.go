// Package mssql implements a Microsoft SQL Server storage.Repository. Reads
// go through the shared database/sql repository; writes use the go-mssqldb
// bulk copy API, one transaction per batch.
package mssql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	mssql "github.com/microsoft/go-mssqldb"
	"github.com/microsoft/go-mssqldb/msdsn"

	"hanami/internal/schema"
	"hanami/internal/storage"
	"hanami/internal/storage/sqldb"
)

// Dialect is the T-SQL dialect.
type Dialect struct{}

func (Dialect) Placeholder(i int) string { return fmt.Sprintf("@p%d", i) }

func (Dialect) Quote(id string) string { return `[` + strings.ReplaceAll(id, `]`, `]]`) + `]` }

func (Dialect) ColumnType(t string) string {
	switch t {
	case schema.TypeNumber:
		return "FLOAT"
	case schema.TypeDatetime:
		return "DATETIME2"
	case schema.TypeCategory:
		return "NVARCHAR(64)"
	default:
		return "NVARCHAR(255)"
	}
}

func (Dialect) BindTime(t time.Time) any { return t.UTC() }

// WrapCreate guards CREATE TABLE with OBJECT_ID since T-SQL has no
// CREATE TABLE IF NOT EXISTS.
func (d Dialect) WrapCreate(table, body string) string {
	return fmt.Sprintf("IF OBJECT_ID(N'%s', N'U') IS NULL\nBEGIN\n%s;\nEND;",
		strings.ReplaceAll(storage.QuoteFQN(d, table), "'", "''"), body)
}

func (Dialect) Limit(n int) (string, string) { return fmt.Sprintf("TOP (%d) ", n), "" }

// NewRepository validates the DSN, opens and pings a pool, and bootstraps the
// table when configured.
func NewRepository(ctx context.Context, cfg storage.Config) (*sqldb.Repository, error) {
	if _, err := msdsn.Parse(cfg.DSN); err != nil {
		return nil, fmt.Errorf("mssql: dsn: %w", err)
	}
	db, err := sql.Open("sqlserver", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("mssql: open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("mssql: ping: %w", err)
	}

	cfg = cfg.WithDefaults()
	r := sqldb.New("mssql", db, Dialect{}, cfg, bulkCopy(db, cfg.Table))
	if err := r.Bootstrap(ctx); err != nil {
		r.Close()
		return nil, err
	}
	return r, nil
}

// bulkCopy returns a CopyFn streaming one batch through mssql.CopyIn.
func bulkCopy(db *sql.DB, table string) storage.CopyFn {
	return func(ctx context.Context, columns []string, rows [][]any) (int64, error) {
		if len(rows) == 0 {
			return 0, nil
		}
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return 0, fmt.Errorf("begin tx: %w", err)
		}
		rollback := func() { _ = tx.Rollback() }

		stmt, err := tx.PrepareContext(ctx, mssql.CopyIn(table, mssql.BulkOptions{}, columns...))
		if err != nil {
			rollback()
			return 0, fmt.Errorf("prepare bulk: %w", err)
		}
		for i := range rows {
			if _, err := stmt.ExecContext(ctx, rows[i]...); err != nil {
				_ = stmt.Close()
				rollback()
				return 0, fmt.Errorf("bulk row %d: %w", i, err)
			}
		}
		res, err := stmt.ExecContext(ctx)
		if cerr := stmt.Close(); cerr != nil && err == nil {
			err = cerr
		}
		if err != nil {
			rollback()
			return 0, fmt.Errorf("bulk finalize: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			rollback()
			return 0, fmt.Errorf("rows affected: %w", err)
		}
		if err := tx.Commit(); err != nil {
			return 0, fmt.Errorf("commit: %w", err)
		}
		return n, nil
	}
}
