package storage

import (
	"fmt"
	"strings"
	"time"

	"hanami/internal/sales"
	"hanami/internal/schema"
	"hanami/internal/search"
)

// Dialect captures the SQL differences between backends.
type Dialect interface {
	// Placeholder returns the bind marker for the i-th argument, 1-based.
	Placeholder(i int) string
	// Quote quotes one identifier segment.
	Quote(ident string) string
	// ColumnType maps a contract field type to a column type.
	ColumnType(t string) string
	// BindTime converts a UTC time into the value the driver should bind.
	BindTime(t time.Time) any
	// WrapCreate turns a CREATE TABLE body into an idempotent statement.
	WrapCreate(table, body string) string
	// Limit renders the row cap: prefix goes after SELECT, suffix after ORDER BY.
	Limit(n int) (prefix, suffix string)
}

// QuoteFQN quotes a possibly schema-qualified table name segment by segment.
func QuoteFQN(d Dialect, name string) string {
	parts := strings.Split(name, ".")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, d.Quote(p))
		}
	}
	return strings.Join(out, ".")
}

func quoteAll(d Dialect, cols []string) string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = d.Quote(c)
	}
	return strings.Join(out, ", ")
}

// CreateTableSQL renders the DDL for the sales table from the contract. All
// columns are nullable; required-ness is enforced at ingestion time.
func CreateTableSQL(d Dialect, table string, c schema.Contract) (string, error) {
	if strings.TrimSpace(table) == "" {
		return "", fmt.Errorf("storage: ddl: table must not be empty")
	}
	defs := make([]string, 0, len(Columns))
	for _, col := range Columns {
		f, ok := c.Field(col)
		if !ok {
			return "", fmt.Errorf("storage: ddl: column %s missing from contract %s", col, c.Name)
		}
		defs = append(defs, d.Quote(col)+" "+d.ColumnType(f.Type))
	}
	body := fmt.Sprintf("CREATE TABLE %s (\n  %s\n)", QuoteFQN(d, table), strings.Join(defs, ",\n  "))
	return d.WrapCreate(table, body), nil
}

// InsertSQL renders a single-row INSERT over Columns.
func InsertSQL(d Dialect, table string) string {
	ph := make([]string, len(Columns))
	for i := range ph {
		ph[i] = d.Placeholder(i + 1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		QuoteFQN(d, table), quoteAll(d, Columns), strings.Join(ph, ", "))
}

// SelectAllSQL renders a full-table read in insertion-independent order.
func SelectAllSQL(d Dialect, table string) string {
	return fmt.Sprintf("SELECT %s FROM %s ORDER BY %s",
		quoteAll(d, Columns), QuoteFQN(d, table), d.Quote(Columns[0]))
}

// SearchSQL renders the filtered read: filters conjoined with AND, product as
// an escaped LIKE substring, inclusive ranges, newest first, capped at limit.
func SearchSQL(d Dialect, table string, fs search.FilterSet, limit int) (string, []any) {
	var (
		where []string
		args  []any
	)
	add := func(col, op string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf("%s %s %s", d.Quote(col), op, d.Placeholder(len(args))))
	}
	if v, ok := fs.String(search.KeyState); ok {
		add(sales.ColState, "=", v)
	}
	if v, ok := fs.String(search.KeyCity); ok {
		add(sales.ColCity, "=", v)
	}
	if v, ok := fs.String(search.KeyCategory); ok {
		add(sales.ColCategory, "=", v)
	}
	if v, ok := fs.String(search.KeyProduct); ok {
		args = append(args, "%"+escapeLike(v)+"%")
		where = append(where, fmt.Sprintf("%s LIKE %s ESCAPE '!'", d.Quote(sales.ColProduct), d.Placeholder(len(args))))
	}
	if v, ok := fs.Time(search.KeyStartDate); ok {
		add(sales.ColDate, ">=", d.BindTime(v.UTC()))
	}
	if v, ok := fs.Time(search.KeyEndDate); ok {
		add(sales.ColDate, "<=", d.BindTime(v.UTC()))
	}
	if v, ok := fs.Float(search.KeyMinValue); ok {
		add(sales.ColFinalValue, ">=", v)
	}
	if v, ok := fs.Float(search.KeyMaxValue); ok {
		add(sales.ColFinalValue, "<=", v)
	}

	prefix, suffix := d.Limit(search.ClampLimit(limit))
	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(prefix)
	sb.WriteString(quoteAll(d, Columns))
	sb.WriteString(" FROM ")
	sb.WriteString(QuoteFQN(d, table))
	if len(where) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(where, " AND "))
	}
	sb.WriteString(" ORDER BY ")
	sb.WriteString(d.Quote(sales.ColDate))
	sb.WriteString(" DESC")
	sb.WriteString(suffix)
	return sb.String(), args
}

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_", "[", "![")

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
