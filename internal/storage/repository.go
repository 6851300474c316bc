// Package storage contains the storage-agnostic repository contract for
// validated sales, a kind-keyed factory registry, and the helpers shared by
// the SQL backends (row encoding, dialect-aware SQL, batched loading).
//
// Concrete backends live in subpackages and register themselves in init; a
// binary enables them with a blank import of storage/all.
package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"hanami/internal/logger"
	"hanami/internal/sales"
	"hanami/internal/search"
)

// Repository persists validated sales and reads them back.
type Repository interface {
	// Save appends every row of ds and returns the number of rows written.
	Save(ctx context.Context, ds *sales.Dataset) (int64, error)
	// FetchAll returns every stored sale. An optional column is part of the
	// returned schema when at least one stored row has a value for it.
	FetchAll(ctx context.Context) (*sales.Dataset, error)
	// Search returns at most limit sales matching every filter in fs, most
	// recent data_venda first.
	Search(ctx context.Context, fs search.FilterSet, limit int) ([]sales.Sale, error)
	// Exec runs a raw statement, typically DDL.
	Exec(ctx context.Context, sql string) error
	Close()
}

// Config selects and configures a backend.
type Config struct {
	Kind            string
	DSN             string
	Table           string
	AutoCreateTable bool
	BatchSize       int

	// OnBatch, when set, is called after each committed batch with the
	// number of rows it held.
	OnBatch func(n int64)
	Logger  *logger.Logger
}

// DefaultTable is used when Config.Table is empty.
const DefaultTable = "sales"

// DefaultBatchSize is used when Config.BatchSize is not positive.
const DefaultBatchSize = 1000

// WithDefaults fills unset fields.
func (c Config) WithDefaults() Config {
	if c.Table == "" {
		c.Table = DefaultTable
	}
	if c.BatchSize <= 0 {
		c.BatchSize = DefaultBatchSize
	}
	if c.Logger == nil {
		c.Logger = logger.Nop()
	}
	return c
}

// Factory opens a Repository for a Config.
type Factory func(ctx context.Context, cfg Config) (Repository, error)

var (
	mu        sync.RWMutex
	factories = map[string]Factory{}
)

// Register installs (or replaces) the factory for kind.
func Register(kind string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	factories[kind] = f
}

// New opens a Repository of cfg.Kind. Unset Config fields get defaults.
func New(ctx context.Context, cfg Config) (Repository, error) {
	mu.RLock()
	f, ok := factories[cfg.Kind]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unsupported storage.kind=%s", cfg.Kind)
	}
	return f(ctx, cfg.WithDefaults())
}

// ListKinds returns the registered kinds, sorted. The slice is a copy.
func ListKinds() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(factories))
	for k := range factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
