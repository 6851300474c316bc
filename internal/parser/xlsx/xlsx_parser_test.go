package xlsx_test

import (
	"bytes"
	"testing"

	"github.com/xuri/excelize/v2"

	pxlsx "hanami/internal/parser/xlsx"
	"hanami/pkg/records"
)

func workbook(t *testing.T, rows [][]any) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	t.Cleanup(func() { _ = f.Close() })
	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("cell name: %v", err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatalf("SetSheetRow: %v", err)
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("WriteToBuffer: %v", err)
	}
	return buf
}

func TestParse_TypedCells(t *testing.T) {
	t.Parallel()

	buf := workbook(t, [][]any{
		{"id_transacao", "valor_final", "canal_venda", "regiao"},
		{"T1", 150.25, "online", "Sul"},
		{"T2", 80, "pix"},
	})

	tbl, skipped, err := pxlsx.NewParser(pxlsx.Options{}).Parse(buf)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if skipped != 0 {
		t.Fatalf("skipped = %d, want 0", skipped)
	}
	if len(tbl.Columns) != 4 || len(tbl.Rows) != 2 {
		t.Fatalf("shape = %d cols x %d rows, want 4 x 2", len(tbl.Columns), len(tbl.Rows))
	}
	if n, ok := tbl.Rows[0]["valor_final"].Num(); !ok || n != 150.25 {
		t.Fatalf("valor_final = %v (number=%v), want 150.25", n, ok)
	}
	if s, ok := tbl.Rows[0]["id_transacao"].Str(); !ok || s != "T1" {
		t.Fatalf("id_transacao = %q, want T1", s)
	}
	if k := tbl.Rows[1]["regiao"].Kind(); k != records.Absent {
		t.Fatalf("short row cell kind = %v, want absent", k)
	}
}

func TestParse_NotAWorkbook(t *testing.T) {
	t.Parallel()

	_, _, err := pxlsx.NewParser(pxlsx.Options{}).Parse(bytes.NewBufferString("a,b\n1,2\n"))
	if err == nil {
		t.Fatalf("expected error for non-xlsx input")
	}
}
