package mysql

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"hanami/internal/schema"
	"hanami/internal/storage"
)

func TestParseDSN_ForcesParseTime(t *testing.T) {
	t.Parallel()

	c, err := ParseDSN("user:pw@tcp(db:3306)/hanami")
	if err != nil {
		t.Fatalf("ParseDSN: %v", err)
	}
	if !c.ParseTime || c.Loc != time.UTC {
		t.Fatalf("ParseTime = %v, Loc = %v; want true, UTC", c.ParseTime, c.Loc)
	}
	if c.DBName != "hanami" || c.Addr != "db:3306" {
		t.Fatalf("DBName = %q, Addr = %q", c.DBName, c.Addr)
	}

	if _, err := ParseDSN("not a dsn"); err == nil {
		t.Fatalf("expected error for malformed DSN")
	}
}

func TestDialect_DDL(t *testing.T) {
	t.Parallel()

	got, err := storage.CreateTableSQL(Dialect{}, "shop.sales", schema.Sales())
	if err != nil {
		t.Fatalf("CreateTableSQL: %v", err)
	}
	for _, want := range []string{
		"CREATE TABLE IF NOT EXISTS `shop`.`sales`",
		"`data_venda` DATETIME(6)",
		"`canal_venda` VARCHAR(64)",
		"`valor_final` DOUBLE",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("DDL missing %q:\n%s", want, got)
		}
	}
}

// TestRegistration_UsesHook swaps the package hook, so it does not run in
// parallel.
func TestRegistration_UsesHook(t *testing.T) {
	orig := newRepository
	defer func() { newRepository = orig }()

	var got storage.Config
	newRepository = func(_ context.Context, cfg storage.Config) (storage.Repository, error) {
		got = cfg
		return nil, context.Canceled
	}

	if _, err := storage.New(context.Background(), storage.Config{Kind: "mysql", DSN: "x"}); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want hook error", err)
	}
	if got.DSN != "x" || got.Table != storage.DefaultTable {
		t.Fatalf("hook cfg = %+v", got)
	}
}
