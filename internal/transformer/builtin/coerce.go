package builtin

import (
	"math"
	"strconv"
	"strings"
	"time"

	"hanami/internal/sales"
	"hanami/pkg/records"
)

// DefaultDateLayouts are tried in order when a data_venda cell is text.
// Slash and dash dates with the year last are day-first.
var DefaultDateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02",
	"02/01/2006 15:04:05",
	"02/01/2006 15:04",
	"02/01/2006",
	"02-01-2006",
}

// spreadsheetEpoch is day zero of the 1900 date system as used by Excel and
// LibreOffice serial dates (accounting for the 1900 leap-year bug).
var spreadsheetEpoch = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)

// Coerce converts raw cells into typed sales. It never fails: a cell that
// cannot be converted becomes null and later stages judge it.
//
//   - valor_final, subtotal, desconto_percent, idade_cliente, custo_produto,
//     quantidade: numbers pass through, text is parsed as a float.
//   - data_venda: text is parsed with Layouts, numbers are spreadsheet serial dates.
//   - canal_venda, forma_pagamento: NormalizeCategory of the display form.
//   - everything else: trimmed display form, empty becomes null.
type Coerce struct {
	// Layouts overrides DefaultDateLayouts when non-empty.
	Layouts []string
	// Location is used for layouts without a zone. Defaults to UTC.
	Location *time.Location
}

// Apply converts every row of t. The returned dataset keeps t's header as its
// schema.
func (c Coerce) Apply(t records.Table) *sales.Dataset {
	rows := make([]sales.Sale, 0, len(t.Rows))
	for _, r := range t.Rows {
		rows = append(rows, c.row(r))
	}
	return sales.NewDataset(t.Columns, rows)
}

func (c Coerce) row(r records.Record) sales.Sale {
	return sales.Sale{
		ID:              strings.TrimSpace(r[sales.ColID].String()),
		Date:            c.Time(r[sales.ColDate]),
		FinalValue:      Float(r[sales.ColFinalValue]),
		Subtotal:        Float(r[sales.ColSubtotal]),
		DiscountPercent: Float(r[sales.ColDiscount]),
		CustomerAge:     Float(r[sales.ColCustomerAge]),
		Channel:         NormalizeCategory(r[sales.ColChannel].String()),
		PaymentMethod:   NormalizeCategory(r[sales.ColPayment].String()),
		CustomerID:      strings.TrimSpace(r[sales.ColCustomerID].String()),

		ProductCost:    Float(r[sales.ColProductCost]),
		DeliveryStatus: Text(r[sales.ColDeliveryStatus]),
		Region:         Text(r[sales.ColRegion]),
		Product:        Text(r[sales.ColProduct]),
		Category:       Text(r[sales.ColCategory]),
		Quantity:       Float(r[sales.ColQuantity]),
		City:           Text(r[sales.ColCity]),
		State:          Text(r[sales.ColState]),
		Gender:         Text(r[sales.ColGender]),
	}
}

// Float converts a cell to a float, or nil when absent or unparsable.
func Float(c records.Cell) *float64 {
	var f float64
	switch c.Kind() {
	case records.Number:
		f, _ = c.Num()
	case records.Text:
		s, _ := c.Str()
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return nil
		}
		f = v
	default:
		return nil
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

// Text returns the trimmed display form of a cell, or nil when it is empty.
func Text(c records.Cell) *string {
	s := strings.TrimSpace(c.String())
	if s == "" {
		return nil
	}
	return &s
}

// Time converts a cell to a timestamp, or nil when absent or unparsable.
func (c Coerce) Time(cell records.Cell) *time.Time {
	switch cell.Kind() {
	case records.Number:
		n, _ := cell.Num()
		if math.IsNaN(n) || math.IsInf(n, 0) || n < 0 || n > 2958465 { // 9999-12-31
			return nil
		}
		t := spreadsheetEpoch.Add(time.Duration(math.Round(n*86400)) * time.Second)
		return &t
	case records.Text:
		s, _ := cell.Str()
		s = strings.TrimSpace(s)
		if s == "" {
			return nil
		}
		loc := c.Location
		if loc == nil {
			loc = time.UTC
		}
		layouts := c.Layouts
		if len(layouts) == 0 {
			layouts = DefaultDateLayouts
		}
		for _, layout := range layouts {
			if t, err := time.ParseInLocation(layout, s, loc); err == nil {
				return &t
			}
		}
	}
	return nil
}
