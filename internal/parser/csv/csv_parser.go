// Package csv parses delimited text uploads into a records.Table.
//
// The whole input is materialized; uploads are bounded by the HTTP layer.
// Cells are loaded as text (or absent when empty): numeric and temporal typing
// happens later in the pipeline.
package csv

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"hanami/pkg/records"
)

// Options configures the CSV parser. All fields are optional.
type Options struct {
	// Comma is the field delimiter. When zero it is sniffed from the header
	// line (',' or ';'), defaulting to ','.
	Comma rune

	// TrimSpace trims leading/trailing spaces from each cell.
	TrimSpace bool

	// HeaderMap maps source header names to canonical column names.
	HeaderMap map[string]string

	// MaxSkipped, when > 0, aborts the parse once more than this many rows
	// were skipped as malformed.
	MaxSkipped int
}

// Parser parses CSV input according to Options. It is safe to reuse across
// inputs but not concurrency-safe.
type Parser struct{ opt Options }

// NewParser constructs a Parser with the provided Options.
func NewParser(opt Options) *Parser { return &Parser{opt: opt} }

// ErrNoHeader is returned for an input without a header line.
var ErrNoHeader = errors.New("csv: missing header row")

// Parse reads the header and every body row. Rows whose width differs from
// the header are skipped and counted; the count is returned alongside the
// table so callers can surface it.
func (p *Parser) Parse(r io.Reader) (records.Table, int, error) {
	br := bufio.NewReader(r)

	comma := p.opt.Comma
	if comma == 0 {
		comma = sniffComma(br)
	}

	cr := csv.NewReader(br)
	cr.Comma = comma
	cr.FieldsPerRecord = -1

	h, err := cr.Read()
	if err == io.EOF {
		return records.Table{}, 0, ErrNoHeader
	}
	if err != nil {
		return records.Table{}, 0, fmt.Errorf("csv: read header: %w", err)
	}
	headers := normalizeHeaders(h, p.opt)

	var (
		out     []records.Record
		skipped int
	)
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil || len(row) != len(headers) {
			skipped++
			if p.opt.MaxSkipped > 0 && skipped > p.opt.MaxSkipped {
				return records.Table{}, skipped, fmt.Errorf("csv: too many malformed rows (%d)", skipped)
			}
			continue
		}
		if isBlank(row) {
			continue
		}

		rec := make(records.Record, len(row))
		for i, val := range row {
			if p.opt.TrimSpace {
				val = strings.TrimSpace(val)
			}
			rec[headers[i]] = records.FromString(val)
		}
		out = append(out, rec)
	}

	return records.Table{Columns: headers, Rows: out}, skipped, nil
}

// sniffComma peeks at the first line and picks ';' when it clearly dominates,
// which is what spreadsheet exports in pt-BR locales produce.
func sniffComma(br *bufio.Reader) rune {
	line, _ := br.Peek(4096)
	if i := bytes.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	if bytes.Count(line, []byte{';'}) > bytes.Count(line, []byte{','}) {
		return ';'
	}
	return ','
}

// isBlank reports whether every cell of the row is empty (trailing blank lines
// in spreadsheet exports).
func isBlank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// normalizeHeaders trims header cells, strips a UTF-8 BOM from the first one,
// and applies HeaderMap. Empty headers get a synthetic "col_N" name.
func normalizeHeaders(h []string, opt Options) []string {
	res := make([]string, len(h))
	for i, col := range h {
		c := strings.TrimSpace(col)
		if i == 0 {
			c = strings.TrimPrefix(c, utf8BOM)
		}
		if m, ok := opt.HeaderMap[c]; ok {
			c = m
		}
		if c == "" {
			c = fmt.Sprintf("col_%d", i)
		}
		res[i] = c
	}
	return res
}
