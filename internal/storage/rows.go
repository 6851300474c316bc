package storage

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"hanami/internal/sales"
)

// Columns is the persisted column order. Every backend reads and writes rows
// aligned to it.
var Columns = sales.AllColumns

// EncodeRow flattens s into values aligned with Columns. Nulls are nil; times
// go through bindTime so a dialect can choose its wire form.
func EncodeRow(s sales.Sale, bindTime func(time.Time) any) []any {
	t := func(p *time.Time) any {
		if p == nil {
			return nil
		}
		return bindTime(p.UTC())
	}
	f := func(p *float64) any {
		if p == nil {
			return nil
		}
		return *p
	}
	str := func(p *string) any {
		if p == nil {
			return nil
		}
		return *p
	}
	return []any{
		s.ID,
		t(s.Date),
		f(s.FinalValue),
		f(s.Subtotal),
		f(s.DiscountPercent),
		s.Channel,
		s.PaymentMethod,
		s.CustomerID,
		f(s.CustomerAge),
		f(s.ProductCost),
		str(s.DeliveryStatus),
		str(s.Region),
		str(s.Product),
		str(s.Category),
		f(s.Quantity),
		str(s.City),
		str(s.State),
		str(s.Gender),
	}
}

// DecodeRow rebuilds a sale from scanned values aligned with Columns.
func DecodeRow(vals []any) (sales.Sale, error) {
	if len(vals) != len(Columns) {
		return sales.Sale{}, fmt.Errorf("storage: decode: got %d values, want %d", len(vals), len(Columns))
	}
	var (
		s   sales.Sale
		err error
	)
	fl := func(i int) *float64 {
		if err != nil {
			return nil
		}
		var p *float64
		p, err = asFloat(vals[i])
		if err != nil {
			err = fmt.Errorf("storage: decode %s: %w", Columns[i], err)
		}
		return p
	}
	st := func(i int) *string { return asString(vals[i]) }
	plain := func(i int) string {
		if p := asString(vals[i]); p != nil {
			return *p
		}
		return ""
	}

	s.ID = plain(0)
	if s.Date, err = asTime(vals[1]); err != nil {
		return sales.Sale{}, fmt.Errorf("storage: decode %s: %w", Columns[1], err)
	}
	s.FinalValue = fl(2)
	s.Subtotal = fl(3)
	s.DiscountPercent = fl(4)
	s.Channel = plain(5)
	s.PaymentMethod = plain(6)
	s.CustomerID = plain(7)
	s.CustomerAge = fl(8)
	s.ProductCost = fl(9)
	s.DeliveryStatus = st(10)
	s.Region = st(11)
	s.Product = st(12)
	s.Category = st(13)
	s.Quantity = fl(14)
	s.City = st(15)
	s.State = st(16)
	s.Gender = st(17)
	if err != nil {
		return sales.Sale{}, err
	}
	return s, nil
}

// PresentColumns returns the required columns plus every optional column
// holding at least one value in rows.
func PresentColumns(rows []sales.Sale) []string {
	nreq := len(sales.RequiredColumns)
	seen := make([]bool, len(Columns))
	for _, r := range rows {
		for i, v := range EncodeRow(r, func(t time.Time) any { return t })[nreq:] {
			if v != nil {
				seen[nreq+i] = true
			}
		}
	}
	cols := append([]string{}, sales.RequiredColumns...)
	for i := nreq; i < len(Columns); i++ {
		if seen[i] {
			cols = append(cols, Columns[i])
		}
	}
	return cols
}

func asFloat(v any) (*float64, error) {
	var f float64
	switch t := v.(type) {
	case nil:
		return nil, nil
	case float64:
		f = t
	case float32:
		f = float64(t)
	case int64:
		f = float64(t)
	case int32:
		f = float64(t)
	case int:
		f = float64(t)
	case []byte:
		return parseFloat(string(t))
	case string:
		return parseFloat(t)
	default:
		return nil, fmt.Errorf("unexpected %T", v)
	}
	return &f, nil
}

func parseFloat(s string) (*float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func asString(v any) *string {
	var s string
	switch t := v.(type) {
	case nil:
		return nil
	case string:
		s = t
	case []byte:
		s = string(t)
	default:
		s = fmt.Sprint(t)
	}
	return &s
}

// timeLayouts cover the textual forms the SQL drivers hand back.
var timeLayouts = []string{
	TimeLayout,
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// TimeLayout is the fixed-width UTC text form used where a backend stores
// times as text. Its lexical order is chronological.
const TimeLayout = "2006-01-02T15:04:05.000000000Z"

func asTime(v any) (*time.Time, error) {
	var s string
	switch t := v.(type) {
	case nil:
		return nil, nil
	case time.Time:
		u := t.UTC()
		return &u, nil
	case string:
		s = t
	case []byte:
		s = string(t)
	default:
		return nil, fmt.Errorf("unexpected %T", v)
	}
	for _, l := range timeLayouts {
		if t, err := time.Parse(l, s); err == nil {
			u := t.UTC()
			return &u, nil
		}
	}
	return nil, fmt.Errorf("unparseable time %q", s)
}
