package sales

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a failure for the boundary layer. Every typed error below
// is recoverable by the caller resubmitting corrected input; KindInternal is
// reserved for everything else.
type Kind int

const (
	KindInternal Kind = iota
	KindUnsupportedFormat
	KindMissingColumns
	KindSemantic
	KindExcessiveNulls
	KindInsufficientData
	KindInvalidFrequency
	KindNoData
	KindInvalidSortKey
	KindMalformedFile
)

func (k Kind) String() string {
	switch k {
	case KindUnsupportedFormat:
		return "unsupported_format"
	case KindMissingColumns:
		return "missing_columns"
	case KindSemantic:
		return "semantic_validation"
	case KindExcessiveNulls:
		return "excessive_null_rows"
	case KindInsufficientData:
		return "insufficient_data"
	case KindInvalidFrequency:
		return "invalid_frequency"
	case KindNoData:
		return "no_data"
	case KindInvalidSortKey:
		return "invalid_sort_key"
	case KindMalformedFile:
		return "malformed_file"
	default:
		return "internal"
	}
}

// UnsupportedFormatError is returned for file suffixes other than csv/xlsx/xls.
type UnsupportedFormatError struct {
	Suffix string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported file format: %q", e.Suffix)
}

// MalformedFileError wraps a parser failure on an upload that has a
// supported suffix but cannot be read as that format.
type MalformedFileError struct {
	Err error
}

func (e *MalformedFileError) Error() string { return "malformed file: " + e.Err.Error() }

func (e *MalformedFileError) Unwrap() error { return e.Err }

// MissingColumnsError lists required columns absent from an upload, sorted.
type MissingColumnsError struct {
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return "missing required columns: " + strings.Join(e.Columns, ", ")
}

// Semantic rule descriptions, in evaluation order.
const (
	RuleInvalidChannel     = "invalid sales channel"
	RuleInvalidPayment     = "invalid payment method"
	RuleDiscountOutOfRange = "discount out of range"
	RuleFinalAboveSubtotal = "final value exceeds subtotal"
)

// SemanticValidationError carries every violated rule found in a dataset.
type SemanticValidationError struct {
	Violations []string
}

func (e *SemanticValidationError) Error() string {
	return "semantic validation failed: " + strings.Join(e.Violations, "; ")
}

// ExcessiveNullRowsError reports a null-pruning pass that dropped more than
// the tolerated fraction of rows.
type ExcessiveNullRowsError struct {
	Removed  int
	Total    int
	Fraction float64
}

func (e *ExcessiveNullRowsError) Error() string {
	return fmt.Sprintf("%d rows removed for null critical fields (%.2f%% of %d)",
		e.Removed, e.Fraction*100, e.Total)
}

// InsufficientDataError is returned by a metric whose input columns are absent.
type InsufficientDataError struct {
	Metric  string
	Columns []string
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("%s: missing columns: %s", e.Metric, strings.Join(e.Columns, ", "))
}

// InvalidFrequencyError is returned for a trend frequency other than day, month or year.
type InvalidFrequencyError struct {
	Frequency string
}

func (e *InvalidFrequencyError) Error() string {
	return fmt.Sprintf("invalid frequency %q: use D, M or Y", e.Frequency)
}

// InvalidSortKeyError is returned for a product ordering other than quantity
// sold or revenue.
type InvalidSortKeyError struct {
	Key string
}

func (e *InvalidSortKeyError) Error() string {
	return fmt.Sprintf("invalid sort_by %q: use quantidade_vendida or total_arrecadado", e.Key)
}

// ErrNoData is returned when there is nothing stored to report on.
var ErrNoData = errors.New("no sales data available")

// KindOf classifies err. Wrapped errors are unwrapped with errors.As.
func KindOf(err error) Kind {
	if err == nil {
		return KindInternal
	}
	var (
		uf *UnsupportedFormatError
		mc *MissingColumnsError
		sv *SemanticValidationError
		en *ExcessiveNullRowsError
		id *InsufficientDataError
		fq *InvalidFrequencyError
		sk *InvalidSortKeyError
		mf *MalformedFileError
	)
	switch {
	case errors.As(err, &uf):
		return KindUnsupportedFormat
	case errors.As(err, &mf):
		return KindMalformedFile
	case errors.As(err, &mc):
		return KindMissingColumns
	case errors.As(err, &sv):
		return KindSemantic
	case errors.As(err, &en):
		return KindExcessiveNulls
	case errors.As(err, &id):
		return KindInsufficientData
	case errors.As(err, &fq):
		return KindInvalidFrequency
	case errors.As(err, &sk):
		return KindInvalidSortKey
	case errors.Is(err, ErrNoData):
		return KindNoData
	default:
		return KindInternal
	}
}

// IsInputError reports whether err was caused by the submitted file or query
// rather than by the system.
func IsInputError(err error) bool {
	switch KindOf(err) {
	case KindUnsupportedFormat, KindMalformedFile, KindMissingColumns, KindSemantic, KindExcessiveNulls, KindInvalidFrequency, KindInvalidSortKey:
		return true
	}
	return false
}
