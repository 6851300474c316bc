package storage

import (
	"context"
	"fmt"
	"time"

	"hanami/internal/logger"
)

// CopyFn abstracts a backend's bulk insert. Implementations insert rows
// aligned to columns and return the number of rows written.
type CopyFn func(ctx context.Context, columns []string, rows [][]any) (int64, error)

// Loader splits rows into batches and hands each to a CopyFn, logging a
// progress line after every successful flush.
type Loader struct {
	BatchSize int
	Logger    *logger.Logger
	OnBatch   func(n int64)
}

// NewLoader builds a Loader from the batching fields of cfg.
func NewLoader(cfg Config) Loader {
	cfg = cfg.WithDefaults()
	return Loader{BatchSize: cfg.BatchSize, Logger: cfg.Logger, OnBatch: cfg.OnBatch}
}

// Load copies rows batch by batch. It returns the rows reported written and
// the first error; ctx is checked between batches.
func (l Loader) Load(ctx context.Context, columns []string, rows [][]any, copyFn CopyFn) (int64, error) {
	if l.BatchSize <= 0 {
		return 0, fmt.Errorf("storage: batch size must be > 0")
	}
	if copyFn == nil {
		return 0, fmt.Errorf("storage: copyFn must not be nil")
	}
	log := l.Logger
	if log == nil {
		log = logger.Nop()
	}

	var (
		total   int64
		batches int
		start   = time.Now()
		last    = start
	)
	for lo := 0; lo < len(rows); lo += l.BatchSize {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		hi := min(lo+l.BatchSize, len(rows))

		n, err := copyFn(ctx, columns, rows[lo:hi])
		total += n
		if err != nil {
			log.Error("storage: batch copy failed", "batch", batches+1, "inserted", n, "total", total, "error", err)
			return total, err
		}

		batches++
		now := time.Now()
		rps := float64(0)
		if d := now.Sub(last); d > 0 {
			rps = float64(n) / d.Seconds()
		}
		log.Debug("storage: batch committed",
			"batch", batches,
			"rows", n,
			"total", total,
			"rps", int64(rps),
			"elapsed", now.Sub(start).Truncate(time.Millisecond).String(),
		)
		last = now
		if l.OnBatch != nil {
			l.OnBatch(n)
		}
	}
	return total, nil
}
