// Package xlsx parses spreadsheet uploads into a records.Table using excelize.
//
// The first sheet is read; its first non-empty row is the header. Cells are
// read raw so numbers keep full precision: a cell whose raw value parses as a
// float becomes a number, anything else text. Date-formatted cells therefore
// arrive as spreadsheet serial numbers.
package xlsx

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"hanami/pkg/records"
)

// Options configures the spreadsheet parser.
type Options struct {
	// Sheet selects the sheet by name. Empty means the first sheet.
	Sheet string

	// HeaderMap maps source header names to canonical column names.
	HeaderMap map[string]string
}

// Parser reads workbooks according to Options.
type Parser struct{ opt Options }

// NewParser constructs a Parser.
func NewParser(opt Options) *Parser { return &Parser{opt: opt} }

// ErrNoSheet is returned for a workbook without sheets or without a header row.
var ErrNoSheet = errors.New("xlsx: workbook has no readable sheet")

// Parse reads the selected sheet. The second return value is always 0: a
// spreadsheet has no malformed-row notion, short rows are padded as absent.
func (p *Parser) Parse(r io.Reader) (records.Table, int, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return records.Table{}, 0, fmt.Errorf("xlsx: open: %w", err)
	}
	defer f.Close()

	sheet := p.opt.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return records.Table{}, 0, ErrNoSheet
		}
		sheet = sheets[0]
	}

	rows, err := f.Rows(sheet)
	if err != nil {
		return records.Table{}, 0, fmt.Errorf("xlsx: sheet %q: %w", sheet, err)
	}
	defer rows.Close()

	var (
		headers []string
		out     []records.Record
	)
	for rows.Next() {
		cols, err := rows.Columns(excelize.Options{RawCellValue: true})
		if err != nil {
			return records.Table{}, 0, fmt.Errorf("xlsx: read row: %w", err)
		}
		if headers == nil {
			if isBlank(cols) {
				continue
			}
			headers = p.headers(cols)
			continue
		}
		if isBlank(cols) {
			continue
		}
		rec := make(records.Record, len(headers))
		for i, h := range headers {
			if i < len(cols) {
				rec[h] = cellOf(cols[i])
			} else {
				rec[h] = records.Cell{}
			}
		}
		out = append(out, rec)
	}
	if err := rows.Error(); err != nil {
		return records.Table{}, 0, fmt.Errorf("xlsx: iterate rows: %w", err)
	}
	if headers == nil {
		return records.Table{}, 0, ErrNoSheet
	}
	return records.Table{Columns: headers, Rows: out}, 0, nil
}

func (p *Parser) headers(cols []string) []string {
	res := make([]string, len(cols))
	for i, c := range cols {
		c = strings.TrimSpace(c)
		if m, ok := p.opt.HeaderMap[c]; ok {
			c = m
		}
		if c == "" {
			c = fmt.Sprintf("col_%d", i)
		}
		res[i] = c
	}
	return res
}

func cellOf(raw string) records.Cell {
	if raw == "" {
		return records.Cell{}
	}
	if n, err := strconv.ParseFloat(raw, 64); err == nil && !math.IsNaN(n) && !math.IsInf(n, 0) {
		return records.NumberCell(n)
	}
	return records.TextCell(raw)
}

func isBlank(cols []string) bool {
	for _, c := range cols {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
