package analytics

import "hanami/internal/sales"

// Summary aggregates revenue over every transaction.
type Summary struct {
	Total   float64 `json:"total_vendas"`
	Count   int     `json:"numero_transacoes"`
	Average float64 `json:"media_por_transacao"`
}

// SalesSummary sums valor_final over the dataset. A null valor_final adds
// nothing but the row still counts as a transaction. The average of an empty
// dataset is 0.
func SalesSummary(ds *sales.Dataset) (Summary, error) {
	if err := require(ds, MetricSummary, sales.ColFinalValue); err != nil {
		return Summary{}, err
	}
	var s Summary
	for i := range ds.Rows {
		s.Total += val(ds.Rows[i].FinalValue)
	}
	s.Count = ds.Len()
	s.Average = ratio(s.Total, s.Count)
	return s, nil
}

// Financial reports net revenue and, when product cost is known, total cost
// and gross profit.
type Financial struct {
	NetRevenue  float64  `json:"receita_liquida"`
	GrossProfit *float64 `json:"lucro_bruto"`
	TotalCost   *float64 `json:"custo_total"`
}

// FinancialMetrics computes net revenue; gross profit and total cost stay nil
// when the dataset has no custo_produto column. A row contributes to gross
// profit only when both valor_final and custo_produto are known.
func FinancialMetrics(ds *sales.Dataset) (Financial, error) {
	if err := require(ds, MetricFinancial, sales.ColFinalValue); err != nil {
		return Financial{}, err
	}
	var f Financial
	var cost, profit float64
	for i := range ds.Rows {
		r := &ds.Rows[i]
		f.NetRevenue += val(r.FinalValue)
		cost += val(r.ProductCost)
		profit += margin(r)
	}
	if ds.Has(sales.ColProductCost) {
		f.GrossProfit = &profit
		f.TotalCost = &cost
	}
	return f, nil
}
