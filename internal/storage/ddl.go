package storage

import (
	"context"
	"fmt"
	"strings"

	"hanami/internal/schema"
)

// EnsureTable creates the sales table if it does not exist yet.
func EnsureTable(ctx context.Context, repo Repository, d Dialect, table string) error {
	stmt, err := CreateTableSQL(d, table, schema.Sales())
	if err != nil {
		return err
	}
	if err := repo.Exec(ctx, stmt); err != nil {
		return fmt.Errorf("storage: ensure table %s: %w", table, err)
	}
	return nil
}

// IfNotExists rewrites a CREATE TABLE statement for dialects that support the
// IF NOT EXISTS clause.
func IfNotExists(body string) string {
	return "CREATE TABLE IF NOT EXISTS" + strings.TrimPrefix(body, "CREATE TABLE")
}
