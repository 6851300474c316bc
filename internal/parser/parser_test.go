package parser

import (
	"errors"
	"strings"
	"testing"

	"hanami/internal/sales"
)

func TestFormatFromFilename(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		want    Format
		wantErr bool
	}{
		{"vendas.csv", FormatCSV, false},
		{"VENDAS.CSV", FormatCSV, false},
		{"report.xlsx", FormatXLSX, false},
		{"old.xls", FormatXLS, false},
		{"data.json", "", true},
		{"noext", "", true},
	}
	for _, tc := range cases {
		got, err := FormatFromFilename(tc.name)
		if tc.wantErr {
			var uf *sales.UnsupportedFormatError
			if !errors.As(err, &uf) {
				t.Fatalf("%s: err = %v, want UnsupportedFormatError", tc.name, err)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Fatalf("%s: got (%q, %v), want %q", tc.name, got, err, tc.want)
		}
	}
}

func TestLoad_CSV(t *testing.T) {
	t.Parallel()

	tbl, _, err := Load(strings.NewReader("a,b\n1,2\n"), FormatCSV, Options{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if tbl.Len() != 1 || !tbl.HasColumn("b") {
		t.Fatalf("table = %+v", tbl)
	}
}

func TestLoad_UnknownFormat(t *testing.T) {
	t.Parallel()

	_, _, err := Load(strings.NewReader(""), Format("parquet"), Options{})
	if sales.KindOf(err) != sales.KindUnsupportedFormat {
		t.Fatalf("kind = %v, want unsupported_format", sales.KindOf(err))
	}
}
