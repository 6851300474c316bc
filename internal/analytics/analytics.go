// Package analytics computes business metrics over a clean sales dataset.
//
// Every function is pure: it reads the dataset it is given, never mutates
// it, and keeps no state between calls. A metric whose input columns are
// absent from the dataset schema fails with *sales.InsufficientDataError.
package analytics

import (
	"math"

	"hanami/internal/sales"
)

// Metric names, used in InsufficientDataError and in the overview report.
const (
	MetricSummary      = "sales_summary"
	MetricFinancial    = "financial_metrics"
	MetricProducts     = "product_analysis"
	MetricRegional     = "regional_performance"
	MetricDemographics = "customer_profile"
	MetricTrends       = "trends"
)

// NotInformed labels a group whose key is null.
const NotInformed = "não informado"

func require(ds *sales.Dataset, metric string, cols ...string) error {
	if missing := ds.Missing(cols...); len(missing) > 0 {
		return &sales.InsufficientDataError{Metric: metric, Columns: missing}
	}
	return nil
}

func val(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

// margin is valor_final minus custo_produto, or 0 when either is null.
func margin(r *sales.Sale) float64 {
	if r.FinalValue == nil || r.ProductCost == nil {
		return 0
	}
	return *r.FinalValue - *r.ProductCost
}

func label(p *string) string {
	if p == nil || *p == "" {
		return NotInformed
	}
	return *p
}

func ratio(num float64, den int) float64 {
	if den == 0 {
		return 0
	}
	return num / float64(den)
}

func round2(x float64) float64 { return math.Round(x*100) / 100 }
