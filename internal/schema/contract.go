// Package schema describes the structural contract an upload must satisfy and
// checks a parsed table against it.
package schema

import (
	"sort"

	"hanami/internal/sales"
	"hanami/pkg/records"
)

// Field types understood by the coercion stage.
const (
	TypeText     = "text"
	TypeNumber   = "number"
	TypeDatetime = "datetime"
	TypeCategory = "category"
)

// Field describes one column of the contract.
type Field struct {
	Name     string   `json:"name" yaml:"name"`
	Type     string   `json:"type" yaml:"type"`
	Required bool     `json:"required,omitempty" yaml:"required,omitempty"`
	Enum     []string `json:"enum,omitempty" yaml:"enum,omitempty"`
}

// Contract is a named set of fields.
type Contract struct {
	Name   string  `json:"name" yaml:"name"`
	Fields []Field `json:"fields" yaml:"fields"`
}

// Sales returns the contract for sales uploads.
func Sales() Contract {
	return Contract{
		Name: "sales",
		Fields: []Field{
			{Name: sales.ColID, Type: TypeText, Required: true},
			{Name: sales.ColDate, Type: TypeDatetime, Required: true},
			{Name: sales.ColFinalValue, Type: TypeNumber, Required: true},
			{Name: sales.ColSubtotal, Type: TypeNumber, Required: true},
			{Name: sales.ColDiscount, Type: TypeNumber, Required: true},
			{Name: sales.ColChannel, Type: TypeCategory, Required: true, Enum: sales.ValidChannels},
			{Name: sales.ColPayment, Type: TypeCategory, Required: true, Enum: sales.ValidPaymentMethods},
			{Name: sales.ColCustomerID, Type: TypeText, Required: true},
			{Name: sales.ColCustomerAge, Type: TypeNumber, Required: true},
			{Name: sales.ColProductCost, Type: TypeNumber},
			{Name: sales.ColDeliveryStatus, Type: TypeText},
			{Name: sales.ColRegion, Type: TypeText},
			{Name: sales.ColProduct, Type: TypeText},
			{Name: sales.ColCategory, Type: TypeText},
			{Name: sales.ColQuantity, Type: TypeNumber},
			{Name: sales.ColCity, Type: TypeText},
			{Name: sales.ColState, Type: TypeText},
			{Name: sales.ColGender, Type: TypeText},
		},
	}
}

// Required returns the names of the required fields in contract order.
func (c Contract) Required() []string {
	var out []string
	for _, f := range c.Fields {
		if f.Required {
			out = append(out, f.Name)
		}
	}
	return out
}

// Field returns the field named name.
func (c Contract) Field(name string) (Field, bool) {
	for _, f := range c.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Missing returns the required fields absent from columns, sorted.
func (c Contract) Missing(columns []string) []string {
	have := make(map[string]struct{}, len(columns))
	for _, col := range columns {
		have[col] = struct{}{}
	}
	var missing []string
	for _, name := range c.Required() {
		if _, ok := have[name]; !ok {
			missing = append(missing, name)
		}
	}
	sort.Strings(missing)
	return missing
}

// Check passes t through unchanged when every required column is present and
// otherwise fails with *sales.MissingColumnsError. A single missing column
// rejects the whole table.
func (c Contract) Check(t records.Table) (records.Table, error) {
	if missing := c.Missing(t.Columns); len(missing) > 0 {
		return records.Table{}, &sales.MissingColumnsError{Columns: missing}
	}
	return t, nil
}
