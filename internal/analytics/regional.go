package analytics

import (
	"sort"

	"hanami/internal/sales"
)

// Region aggregates the sales of one regiao.
type Region struct {
	Name             string  `json:"regiao"`
	TotalRevenue     float64 `json:"receita_total"`
	UnitsSold        float64 `json:"unidades_vendidas"`
	TransactionCount int     `json:"numero_transacoes"`
	TotalCost        float64 `json:"custo_total"`
	TotalProfit      float64 `json:"lucro_total"`
	AverageTicket    float64 `json:"ticket_medio"`
}

// RegionalMetrics groups by regiao, optionally restricted to one estado.
// An empty state means no restriction. Results are ordered by region name.
func RegionalMetrics(ds *sales.Dataset, state string) ([]Region, error) {
	cols := []string{sales.ColRegion, sales.ColQuantity, sales.ColProductCost, sales.ColFinalValue}
	if state != "" {
		cols = append(cols, sales.ColState)
	}
	if err := require(ds, MetricRegional, cols...); err != nil {
		return nil, err
	}

	idx := map[string]int{}
	out := []Region{}
	for i := range ds.Rows {
		r := &ds.Rows[i]
		if state != "" && (r.State == nil || *r.State != state) {
			continue
		}
		name := label(r.Region)
		j, ok := idx[name]
		if !ok {
			j = len(out)
			idx[name] = j
			out = append(out, Region{Name: name})
		}
		g := &out[j]
		g.TotalRevenue += val(r.FinalValue)
		g.UnitsSold += val(r.Quantity)
		g.TotalCost += val(r.ProductCost)
		g.TotalProfit += margin(r)
		g.TransactionCount++
	}
	for j := range out {
		out[j].AverageTicket = ratio(out[j].TotalRevenue, out[j].TransactionCount)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Name < out[b].Name })
	return out, nil
}
