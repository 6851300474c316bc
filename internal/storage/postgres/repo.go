// Package postgres implements a Postgres storage.Repository on pgx v5. Writes
// use COPY through pgxpool, one batch per COPY; reads use the shared
// dialect-aware SQL builders.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"hanami/internal/sales"
	"hanami/internal/schema"
	"hanami/internal/search"
	"hanami/internal/storage"
)

// Dialect is the Postgres SQL dialect.
type Dialect struct{}

func (Dialect) Placeholder(i int) string { return fmt.Sprintf("$%d", i) }

func (Dialect) Quote(id string) string { return `"` + strings.ReplaceAll(id, `"`, `""`) + `"` }

func (Dialect) ColumnType(t string) string {
	switch t {
	case schema.TypeNumber:
		return "DOUBLE PRECISION"
	case schema.TypeDatetime:
		return "TIMESTAMPTZ"
	default:
		return "TEXT"
	}
}

func (Dialect) BindTime(t time.Time) any { return t.UTC() }

func (Dialect) WrapCreate(_, body string) string { return storage.IfNotExists(body) }

func (Dialect) Limit(n int) (string, string) { return "", fmt.Sprintf(" LIMIT %d", n) }

// Repository is a Postgres-backed storage.Repository.
type Repository struct {
	pool *pgxpool.Pool
	cfg  storage.Config
}

// NewRepository opens a pool, pings it and bootstraps the table when
// configured.
func NewRepository(ctx context.Context, cfg storage.Config) (*Repository, error) {
	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("postgres: pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	r := &Repository{pool: pool, cfg: cfg.WithDefaults()}
	if r.cfg.AutoCreateTable {
		if err := storage.EnsureTable(ctx, r, Dialect{}, r.cfg.Table); err != nil {
			r.Close()
			return nil, err
		}
	}
	return r, nil
}

// Save implements storage.Repository.
func (r *Repository) Save(ctx context.Context, ds *sales.Dataset) (int64, error) {
	rows := make([][]any, 0, ds.Len())
	for _, s := range ds.Rows {
		rows = append(rows, storage.EncodeRow(s, Dialect{}.BindTime))
	}
	n, err := storage.NewLoader(r.cfg).Load(ctx, storage.Columns, rows, r.CopyFrom)
	if err != nil {
		return n, fmt.Errorf("postgres: save: %w", err)
	}
	return n, nil
}

// CopyFrom writes one batch with COPY.
func (r *Repository) CopyFrom(ctx context.Context, columns []string, rows [][]any) (int64, error) {
	n, err := r.pool.CopyFrom(ctx, splitFQN(r.cfg.Table), columns, pgx.CopyFromRows(rows))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Detail != "" {
			return n, fmt.Errorf("copy: %s (%s): %w", pgErr.Detail, pgErr.SQLState(), err)
		}
		return n, fmt.Errorf("copy: %w", err)
	}
	return n, nil
}

// FetchAll implements storage.Repository.
func (r *Repository) FetchAll(ctx context.Context) (*sales.Dataset, error) {
	out, err := r.query(ctx, storage.SelectAllSQL(Dialect{}, r.cfg.Table))
	if err != nil {
		return nil, fmt.Errorf("postgres: fetch all: %w", err)
	}
	return sales.NewDataset(storage.PresentColumns(out), out), nil
}

// Search implements storage.Repository.
func (r *Repository) Search(ctx context.Context, fs search.FilterSet, limit int) ([]sales.Sale, error) {
	q, args := storage.SearchSQL(Dialect{}, r.cfg.Table, fs, limit)
	out, err := r.query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: search: %w", err)
	}
	return out, nil
}

func (r *Repository) query(ctx context.Context, q string, args ...any) ([]sales.Sale, error) {
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (sales.Sale, error) {
		vals, err := row.Values()
		if err != nil {
			return sales.Sale{}, err
		}
		return storage.DecodeRow(vals)
	})
}

// Exec implements storage.Repository.
func (r *Repository) Exec(ctx context.Context, sql string) error {
	if strings.TrimSpace(sql) == "" {
		return nil
	}
	if _, err := r.pool.Exec(ctx, sql); err != nil {
		return fmt.Errorf("postgres: exec: %w", err)
	}
	return nil
}

// Close implements storage.Repository.
func (r *Repository) Close() { r.pool.Close() }

// splitFQN converts "schema.table" into a pgx.Identifier {"schema","table"}.
func splitFQN(fqn string) pgx.Identifier {
	parts := strings.Split(fqn, ".")
	id := make(pgx.Identifier, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			id = append(id, p)
		}
	}
	return id
}
