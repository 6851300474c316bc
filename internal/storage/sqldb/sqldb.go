// Package sqldb implements storage.Repository on top of database/sql. The
// SQLite, MySQL and SQL Server backends share it and differ only in their
// storage.Dialect and, optionally, their bulk copy primitive.
package sqldb

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"hanami/internal/sales"
	"hanami/internal/search"
	"hanami/internal/storage"
)

// Repository is a database/sql-backed storage.Repository.
type Repository struct {
	db   *sql.DB
	d    storage.Dialect
	cfg  storage.Config
	copy storage.CopyFn
	name string
}

// New wraps an open handle. copyFn may be nil, in which case batches are
// written with a prepared INSERT inside one transaction per batch.
func New(name string, db *sql.DB, d storage.Dialect, cfg storage.Config, copyFn storage.CopyFn) *Repository {
	r := &Repository{db: db, d: d, cfg: cfg.WithDefaults(), name: name}
	r.copy = copyFn
	if r.copy == nil {
		r.copy = r.insertBatch
	}
	return r
}

// DB exposes the underlying handle.
func (r *Repository) DB() *sql.DB { return r.db }

// Save implements storage.Repository.
func (r *Repository) Save(ctx context.Context, ds *sales.Dataset) (int64, error) {
	rows := make([][]any, 0, ds.Len())
	for _, s := range ds.Rows {
		rows = append(rows, storage.EncodeRow(s, r.d.BindTime))
	}
	n, err := storage.NewLoader(r.cfg).Load(ctx, storage.Columns, rows, r.copy)
	if err != nil {
		return n, fmt.Errorf("%s: save: %w", r.name, err)
	}
	return n, nil
}

// insertBatch inserts rows inside a single transaction with a prepared
// statement.
func (r *Repository) insertBatch(ctx context.Context, columns []string, rows [][]any) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, storage.InsertSQL(r.d, r.cfg.Table))
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, row := range rows {
		if len(row) != len(columns) {
			_ = tx.Rollback()
			return 0, fmt.Errorf("row %d: length %d != columns length %d", i, len(row), len(columns))
		}
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			_ = tx.Rollback()
			return 0, fmt.Errorf("insert row %d: %w", i, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return int64(len(rows)), nil
}

// FetchAll implements storage.Repository.
func (r *Repository) FetchAll(ctx context.Context) (*sales.Dataset, error) {
	out, err := r.query(ctx, storage.SelectAllSQL(r.d, r.cfg.Table))
	if err != nil {
		return nil, fmt.Errorf("%s: fetch all: %w", r.name, err)
	}
	return sales.NewDataset(storage.PresentColumns(out), out), nil
}

// Search implements storage.Repository.
func (r *Repository) Search(ctx context.Context, fs search.FilterSet, limit int) ([]sales.Sale, error) {
	q, args := storage.SearchSQL(r.d, r.cfg.Table, fs, limit)
	out, err := r.query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: search: %w", r.name, err)
	}
	return out, nil
}

func (r *Repository) query(ctx context.Context, q string, args ...any) ([]sales.Sale, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	vals := make([]any, len(storage.Columns))
	ptrs := make([]any, len(vals))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	var out []sales.Sale
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		s, err := storage.DecodeRow(vals)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Exec implements storage.Repository.
func (r *Repository) Exec(ctx context.Context, stmt string) error {
	if strings.TrimSpace(stmt) == "" {
		return nil
	}
	if _, err := r.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("%s: exec: %w", r.name, err)
	}
	return nil
}

// Close implements storage.Repository.
func (r *Repository) Close() { _ = r.db.Close() }

// Bootstrap creates the table when cfg.AutoCreateTable is set. Backends call
// it right after opening.
func (r *Repository) Bootstrap(ctx context.Context) error {
	if !r.cfg.AutoCreateTable {
		return nil
	}
	return storage.EnsureTable(ctx, r, r.d, r.cfg.Table)
}
