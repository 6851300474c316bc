// Package parser is the table loader: it picks a concrete parser from the
// declared file format and turns raw bytes into a records.Table.
package parser

import (
	"io"
	"path/filepath"
	"strings"

	pcsv "hanami/internal/parser/csv"
	pxlsx "hanami/internal/parser/xlsx"
	"hanami/internal/sales"
	"hanami/pkg/records"
)

// Format is a declared upload format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatXLS  Format = "xls"
)

// Parser turns an input stream into a table. The int result counts rows
// skipped as malformed.
type Parser interface {
	Parse(r io.Reader) (records.Table, int, error)
}

// Options carries per-format parser settings.
type Options struct {
	CSV  pcsv.Options
	XLSX pxlsx.Options
}

// FormatFromFilename derives the format from the file suffix, case-insensitively.
// Any suffix other than .csv, .xlsx and .xls yields *sales.UnsupportedFormatError.
func FormatFromFilename(name string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(name))
	switch ext {
	case ".csv":
		return FormatCSV, nil
	case ".xlsx":
		return FormatXLSX, nil
	case ".xls":
		return FormatXLS, nil
	default:
		return "", &sales.UnsupportedFormatError{Suffix: ext}
	}
}

// New returns the parser for f.
func New(f Format, opt Options) (Parser, error) {
	switch f {
	case FormatCSV:
		return pcsv.NewParser(opt.CSV), nil
	case FormatXLSX, FormatXLS:
		// Legacy .xls (BIFF) workbooks are rejected by excelize at open time
		// with a parse error.
		return pxlsx.NewParser(opt.XLSX), nil
	default:
		return nil, &sales.UnsupportedFormatError{Suffix: "." + string(f)}
	}
}

// Load parses r as format f.
func Load(r io.Reader, f Format, opt Options) (records.Table, int, error) {
	p, err := New(f, opt)
	if err != nil {
		return records.Table{}, 0, err
	}
	return p.Parse(r)
}
