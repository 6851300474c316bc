package sales

import (
	"sort"
	"time"
)

// Sale is one typed row. Pointer fields are nullable: a nil value means the
// source cell was absent or could not be coerced.
type Sale struct {
	ID              string     `json:"id_transacao"`
	Date            *time.Time `json:"data_venda"`
	FinalValue      *float64   `json:"valor_final"`
	Subtotal        *float64   `json:"subtotal"`
	DiscountPercent *float64   `json:"desconto_percent"`
	CustomerAge     *float64   `json:"idade_cliente"`
	Channel         string     `json:"canal_venda"`
	PaymentMethod   string     `json:"forma_pagamento"`
	CustomerID      string     `json:"cliente_id"`

	ProductCost    *float64 `json:"custo_produto,omitempty"`
	DeliveryStatus *string  `json:"status_entrega,omitempty"`
	Region         *string  `json:"regiao,omitempty"`
	Product        *string  `json:"nome_produto,omitempty"`
	Category       *string  `json:"categoria,omitempty"`
	Quantity       *float64 `json:"quantidade,omitempty"`
	City           *string  `json:"cidade,omitempty"`
	State          *string  `json:"estado,omitempty"`
	Gender         *string  `json:"genero_cliente,omitempty"`
}

// Dataset is an ordered set of sales plus the column schema they were read
// with. Optional columns change which metrics are computable, so the schema
// travels with the rows.
type Dataset struct {
	columns map[string]struct{}
	Rows    []Sale
}

// NewDataset builds a dataset over the given columns and rows.
func NewDataset(columns []string, rows []Sale) *Dataset {
	set := make(map[string]struct{}, len(columns))
	for _, c := range columns {
		set[c] = struct{}{}
	}
	return &Dataset{columns: set, Rows: rows}
}

// Has reports whether the column is part of the dataset schema.
func (d *Dataset) Has(col string) bool {
	if d == nil {
		return false
	}
	_, ok := d.columns[col]
	return ok
}

// Missing returns the subset of cols absent from the schema, sorted.
func (d *Dataset) Missing(cols ...string) []string {
	var out []string
	for _, c := range cols {
		if !d.Has(c) {
			out = append(out, c)
		}
	}
	sort.Strings(out)
	return out
}

// Columns returns the schema in persisted column order; unknown extra columns
// follow in lexical order.
func (d *Dataset) Columns() []string {
	if d == nil {
		return nil
	}
	out := make([]string, 0, len(d.columns))
	for _, c := range AllColumns {
		if _, ok := d.columns[c]; ok {
			out = append(out, c)
		}
	}
	var extra []string
	for c := range d.columns {
		if !IsKnownColumn(c) {
			extra = append(extra, c)
		}
	}
	sort.Strings(extra)
	return append(out, extra...)
}

// Len returns the row count.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Rows)
}

// WithRows returns a dataset sharing the schema of d with a new row slice.
func (d *Dataset) WithRows(rows []Sale) *Dataset {
	return &Dataset{columns: d.columns, Rows: rows}
}
