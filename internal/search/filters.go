// Package search turns optional query parameters into a conjunctive filter
// set and evaluates that set against a single sale.
//
// Filter ranges are passed through unvalidated: a start date after the end
// date, or a minimum above the maximum, simply matches nothing.
package search

import (
	"strings"
	"time"

	"hanami/internal/sales"
)

// Filter keys. They double as query parameter names on the HTTP surface.
const (
	KeyState     = "estado"
	KeyCity      = "cidade"
	KeyProduct   = "produto"
	KeyCategory  = "categoria"
	KeyStartDate = "start_date"
	KeyEndDate   = "end_date"
	KeyMinValue  = "min_valor"
	KeyMaxValue  = "max_valor"
)

const (
	DefaultLimit = 100
	MaxLimit     = 500
)

// Params holds the eight optional search parameters. A nil pointer, or an
// empty string, means the parameter was not supplied.
type Params struct {
	State     *string
	City      *string
	Product   *string
	Category  *string
	StartDate *time.Time
	EndDate   *time.Time
	MinValue  *float64
	MaxValue  *float64
}

// FilterSet maps a filter key to its value: string for text filters,
// time.Time for dates and float64 for values. Keys that were not supplied are
// absent, never nil.
type FilterSet map[string]any

// BuildFilters returns a FilterSet containing only the supplied parameters.
func BuildFilters(p Params) FilterSet {
	fs := FilterSet{}
	putString(fs, KeyState, p.State)
	putString(fs, KeyCity, p.City)
	putString(fs, KeyProduct, p.Product)
	putString(fs, KeyCategory, p.Category)
	if p.StartDate != nil {
		fs[KeyStartDate] = *p.StartDate
	}
	if p.EndDate != nil {
		fs[KeyEndDate] = *p.EndDate
	}
	if p.MinValue != nil {
		fs[KeyMinValue] = *p.MinValue
	}
	if p.MaxValue != nil {
		fs[KeyMaxValue] = *p.MaxValue
	}
	return fs
}

func putString(fs FilterSet, key string, v *string) {
	if v == nil || *v == "" {
		return
	}
	fs[key] = *v
}

// String returns the text filter for key.
func (fs FilterSet) String(key string) (string, bool) {
	s, ok := fs[key].(string)
	return s, ok
}

// Time returns the date filter for key.
func (fs FilterSet) Time(key string) (time.Time, bool) {
	t, ok := fs[key].(time.Time)
	return t, ok
}

// Float returns the value filter for key.
func (fs FilterSet) Float(key string) (float64, bool) {
	f, ok := fs[key].(float64)
	return f, ok
}

// ClampLimit maps a caller-supplied row cap onto [1, MaxLimit]; zero or
// negative selects DefaultLimit.
func ClampLimit(n int) int {
	switch {
	case n <= 0:
		return DefaultLimit
	case n > MaxLimit:
		return MaxLimit
	default:
		return n
	}
}

// Match reports whether s satisfies every filter in fs. Text filters are exact
// except product, which is a substring match; ranges are inclusive. A sale
// lacking the filtered field never matches.
func Match(s sales.Sale, fs FilterSet) bool {
	if v, ok := fs.String(KeyState); ok && !equal(s.State, v) {
		return false
	}
	if v, ok := fs.String(KeyCity); ok && !equal(s.City, v) {
		return false
	}
	if v, ok := fs.String(KeyCategory); ok && !equal(s.Category, v) {
		return false
	}
	if v, ok := fs.String(KeyProduct); ok {
		if s.Product == nil || !strings.Contains(*s.Product, v) {
			return false
		}
	}
	if v, ok := fs.Time(KeyStartDate); ok && (s.Date == nil || s.Date.Before(v)) {
		return false
	}
	if v, ok := fs.Time(KeyEndDate); ok && (s.Date == nil || s.Date.After(v)) {
		return false
	}
	if v, ok := fs.Float(KeyMinValue); ok && (s.FinalValue == nil || *s.FinalValue < v) {
		return false
	}
	if v, ok := fs.Float(KeyMaxValue); ok && (s.FinalValue == nil || *s.FinalValue > v) {
		return false
	}
	return true
}

func equal(p *string, v string) bool { return p != nil && *p == v }
