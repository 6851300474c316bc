package builtin

import (
	"hanami/internal/sales"
)

// DefaultMaxNullFraction is the share of rows that may be dropped for null
// critical fields before the whole dataset is rejected.
const DefaultMaxNullFraction = 0.05

// Require drops rows whose valor_final or data_venda is null. If the dropped
// share of the input is strictly greater than MaxNullFraction the dataset is
// rejected with *sales.ExcessiveNullRowsError; exactly the limit is accepted.
type Require struct {
	// MaxNullFraction in (0, 1]. Zero means DefaultMaxNullFraction.
	MaxNullFraction float64

	// Removed, when set, receives the number of dropped rows on success.
	Removed func(n int)
}

// Name implements transformer.Transformer.
func (Require) Name() string { return "require" }

// Apply implements transformer.Transformer.
func (r Require) Apply(ds *sales.Dataset) (*sales.Dataset, error) {
	total := ds.Len()
	kept := make([]sales.Sale, 0, total)
	for _, s := range ds.Rows {
		if s.FinalValue == nil || s.Date == nil {
			continue
		}
		kept = append(kept, s)
	}
	removed := total - len(kept)

	// An empty input is the caller's concern, not a null-ratio failure.
	var fraction float64
	if total > 0 {
		fraction = float64(removed) / float64(total)
	}

	limit := r.MaxNullFraction
	if limit <= 0 {
		limit = DefaultMaxNullFraction
	}
	if fraction > limit {
		return nil, &sales.ExcessiveNullRowsError{Removed: removed, Total: total, Fraction: fraction}
	}
	if r.Removed != nil {
		r.Removed(removed)
	}
	return ds.WithRows(kept), nil
}
