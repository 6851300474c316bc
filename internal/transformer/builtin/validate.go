package builtin

import (
	"hanami/internal/sales"
	"hanami/internal/schema"
)

// Validate runs the semantic rules over a whole coerced dataset. It collects
// every violated rule before failing; a single offending row anywhere rejects
// the upload.
//
// Rules, in reporting order:
//
//  1. canal_venda outside the contract enum
//  2. forma_pagamento outside the contract enum
//  3. desconto_percent outside [0, 100] (null discounts are not compared)
//  4. valor_final > subtotal (rows with either side null are not compared)
type Validate struct {
	Contract schema.Contract
}

// Name implements transformer.Transformer.
func (Validate) Name() string { return "validate" }

// Apply returns ds unchanged or a *sales.SemanticValidationError.
func (v Validate) Apply(ds *sales.Dataset) (*sales.Dataset, error) {
	if violations := v.Check(ds); len(violations) > 0 {
		return nil, &sales.SemanticValidationError{Violations: violations}
	}
	return ds, nil
}

// Check returns the descriptions of every violated rule in reporting order.
func (v Validate) Check(ds *sales.Dataset) []string {
	contract := v.Contract
	if len(contract.Fields) == 0 {
		contract = schema.Sales()
	}
	channels := enumSet(contract, sales.ColChannel, sales.ValidChannels)
	payments := enumSet(contract, sales.ColPayment, sales.ValidPaymentMethods)

	rules := [...]string{
		sales.RuleInvalidChannel,
		sales.RuleInvalidPayment,
		sales.RuleDiscountOutOfRange,
		sales.RuleFinalAboveSubtotal,
	}
	var (
		hit   [len(rules)]bool
		count int
	)
	flag := func(i int) {
		if !hit[i] {
			hit[i] = true
			count++
		}
	}

	for i := range ds.Rows {
		if count == len(rules) {
			break
		}
		r := &ds.Rows[i]
		if _, ok := channels[r.Channel]; !ok {
			flag(0)
		}
		if _, ok := payments[r.PaymentMethod]; !ok {
			flag(1)
		}
		if d := r.DiscountPercent; d != nil && (*d < 0 || *d > 100) {
			flag(2)
		}
		if r.FinalValue != nil && r.Subtotal != nil && *r.FinalValue > *r.Subtotal {
			flag(3)
		}
	}

	var out []string
	for i, rule := range rules {
		if hit[i] {
			out = append(out, rule)
		}
	}
	return out
}

// enumSet uses the contract's enum for col, falling back to def.
func enumSet(c schema.Contract, col string, def []string) map[string]struct{} {
	if f, ok := c.Field(col); ok && len(f.Enum) > 0 {
		return categorySet(f.Enum)
	}
	return categorySet(def)
}
