// Package records defines the untyped tabular shape produced by the parsers.
//
// A Cell is a small tagged union: a value is either absent, text, or a number.
// Parsers never guess types beyond what the source format states explicitly
// (CSV only yields text; spreadsheets may yield numbers), so the typing stage
// has an exhaustive, explicit set of cases to handle.
package records

import (
	"strconv"
)

// Kind tags the variant held by a Cell.
type Kind uint8

const (
	Absent Kind = iota
	Text
	Number
)

func (k Kind) String() string {
	switch k {
	case Text:
		return "text"
	case Number:
		return "number"
	default:
		return "absent"
	}
}

// Cell is a single raw value. The zero value is an absent cell.
type Cell struct {
	kind Kind
	s    string
	n    float64
}

// TextCell returns a text cell. An empty string is still text; callers that
// want "" to mean missing should use FromString.
func TextCell(s string) Cell { return Cell{kind: Text, s: s} }

// NumberCell returns a numeric cell.
func NumberCell(n float64) Cell { return Cell{kind: Number, n: n} }

// FromString maps "" to an absent cell and everything else to text.
func FromString(s string) Cell {
	if s == "" {
		return Cell{}
	}
	return TextCell(s)
}

// Kind returns the variant tag.
func (c Cell) Kind() Kind { return c.kind }

// IsAbsent reports whether the cell holds no value.
func (c Cell) IsAbsent() bool { return c.kind == Absent }

// Str returns the text payload and whether the cell is text.
func (c Cell) Str() (string, bool) { return c.s, c.kind == Text }

// Num returns the numeric payload and whether the cell is a number.
func (c Cell) Num() (float64, bool) { return c.n, c.kind == Number }

// String renders the cell for display and for text coercion. Numbers use the
// shortest representation that round-trips; absent cells render as "".
func (c Cell) String() string {
	switch c.kind {
	case Text:
		return c.s
	case Number:
		return strconv.FormatFloat(c.n, 'f', -1, 64)
	default:
		return ""
	}
}

// Record maps a column name to its raw cell. Missing keys read as absent.
type Record map[string]Cell

// Table is a fully materialized parse result: the header in source order and
// the body rows.
type Table struct {
	Columns []string
	Rows    []Record
}

// HasColumn reports whether name appears in the header.
func (t Table) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// Len returns the number of body rows.
func (t Table) Len() int { return len(t.Rows) }
