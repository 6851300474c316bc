// Package memory is an in-process storage.Repository. It backs the tests of
// the HTTP layer and -dry-run ingestion, and suits single-node demos.
package memory

import (
	"context"
	"sort"
	"sync"

	"hanami/internal/sales"
	"hanami/internal/search"
	"hanami/internal/storage"
)

// Repository keeps sales in a slice guarded by a RWMutex.
type Repository struct {
	mu   sync.RWMutex
	rows []sales.Sale
}

// New returns an empty repository.
func New() *Repository { return &Repository{} }

func init() {
	storage.Register("memory", func(context.Context, storage.Config) (storage.Repository, error) {
		return New(), nil
	})
}

// Save implements storage.Repository.
func (r *Repository) Save(ctx context.Context, ds *sales.Dataset) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows = append(r.rows, ds.Rows...)
	return int64(ds.Len()), nil
}

// FetchAll implements storage.Repository. The returned rows are a copy.
func (r *Repository) FetchAll(ctx context.Context) (*sales.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	rows := append([]sales.Sale(nil), r.rows...)
	r.mu.RUnlock()
	return sales.NewDataset(storage.PresentColumns(rows), rows), nil
}

// Search implements storage.Repository.
func (r *Repository) Search(ctx context.Context, fs search.FilterSet, limit int) ([]sales.Sale, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	var out []sales.Sale
	for _, s := range r.rows {
		if search.Match(s, fs) {
			out = append(out, s)
		}
	}
	r.mu.RUnlock()

	sort.SliceStable(out, func(a, b int) bool { return after(out[a], out[b]) })
	if n := search.ClampLimit(limit); len(out) > n {
		out = out[:n]
	}
	return out, nil
}

// after orders by data_venda descending, null dates last.
func after(a, b sales.Sale) bool {
	switch {
	case a.Date == nil:
		return false
	case b.Date == nil:
		return true
	default:
		return a.Date.After(*b.Date)
	}
}

// Exec implements storage.Repository; there is nothing to execute.
func (r *Repository) Exec(context.Context, string) error { return nil }

// Close implements storage.Repository.
func (r *Repository) Close() {}
