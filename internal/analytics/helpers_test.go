package analytics

import (
	"time"

	"hanami/internal/sales"
)

func f64(v float64) *float64 { return &v }
func str(s string) *string { return &s }

func day(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
	return &t
}

// dataset builds a dataset with the required columns plus extra.
func dataset(rows []sales.Sale, extra ...string) *sales.Dataset {
	cols := append(append([]string{}, sales.RequiredColumns...), extra...)
	return sales.NewDataset(cols, rows)
}
