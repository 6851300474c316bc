package storage

import (
	"fmt"
	"reflect"
	"strings"
	"testing"
	"time"

	"hanami/internal/schema"
	"hanami/internal/search"
)

// testDialect is a Postgres-flavoured dialect for exercising the builders.
type testDialect struct{}

func (testDialect) Placeholder(i int) string { return fmt.Sprintf("$%d", i) }
func (testDialect) Quote(id string) string { return `"` + strings.ReplaceAll(id, `"`, `""`) + `"` }
func (testDialect) ColumnType(t string) string { return strings.ToUpper(t) }
func (testDialect) BindTime(t time.Time) any { return t }
func (testDialect) WrapCreate(_, body string) string { return IfNotExists(body) }
func (testDialect) Limit(n int) (string, string) { return "", fmt.Sprintf(" LIMIT %d", n) }

func TestCreateTableSQL(t *testing.T) {
	t.Parallel()

	got, err := CreateTableSQL(testDialect{}, "public.sales", schema.Sales())
	if err != nil {
		t.Fatalf("CreateTableSQL: %v", err)
	}
	for _, want := range []string{
		`CREATE TABLE IF NOT EXISTS "public"."sales" (`,
		`"data_venda" DATETIME`,
		`"valor_final" NUMBER`,
		`"genero_cliente" TEXT`,
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("DDL missing %q:\n%s", want, got)
		}
	}

	if _, err := CreateTableSQL(testDialect{}, " ", schema.Sales()); err == nil {
		t.Fatalf("expected error for empty table")
	}
	if _, err := CreateTableSQL(testDialect{}, "sales", schema.Contract{Name: "empty"}); err == nil {
		t.Fatalf("expected error for incomplete contract")
	}
}

func TestInsertSQL(t *testing.T) {
	t.Parallel()

	got := InsertSQL(testDialect{}, "sales")
	if !strings.HasPrefix(got, `INSERT INTO "sales" ("id_transacao", "data_venda",`) {
		t.Fatalf("InsertSQL = %s", got)
	}
	if !strings.HasSuffix(got, fmt.Sprintf("$%d)", len(Columns))) {
		t.Fatalf("InsertSQL placeholders = %s", got)
	}
}

func TestSearchSQL(t *testing.T) {
	t.Parallel()

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	state, product := "SP", "50%_off"
	minV := 10.0
	fs := search.BuildFilters(search.Params{State: &state, Product: &product, StartDate: &start, MinValue: &minV})

	q, args := SearchSQL(testDialect{}, "sales", fs, 0)
	want := `WHERE "estado" = $1 AND "nome_produto" LIKE $2 ESCAPE '!' AND "data_venda" >= $3 AND "valor_final" >= $4 ORDER BY "data_venda" DESC LIMIT 100`
	if !strings.HasSuffix(q, want) {
		t.Fatalf("SearchSQL =\n%s\nwant suffix\n%s", q, want)
	}
	wantArgs := []any{"SP", "%50!%!_off%", start, 10.0}
	if !reflect.DeepEqual(args, wantArgs) {
		t.Fatalf("args = %#v, want %#v", args, wantArgs)
	}
}

func TestSearchSQL_NoFiltersClampsLimit(t *testing.T) {
	t.Parallel()

	q, args := SearchSQL(testDialect{}, "sales", search.FilterSet{}, 10_000)
	if strings.Contains(q, "WHERE") || len(args) != 0 {
		t.Fatalf("unexpected filters: %s %v", q, args)
	}
	if !strings.HasSuffix(q, "LIMIT 500") {
		t.Fatalf("limit not clamped: %s", q)
	}
}
