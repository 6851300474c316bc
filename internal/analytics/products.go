package analytics

import (
	"sort"

	"hanami/internal/sales"
)

// Product sort keys accepted by SortProducts.
const (
	SortByQuantity = "quantidade_vendida"
	SortByRevenue  = "total_arrecadado"
)

// Product aggregates the sales of one product name.
type Product struct {
	Name         string  `json:"nome_produto"`
	QuantitySold float64 `json:"quantidade_vendida"`
	Revenue      float64 `json:"total_arrecadado"`
}

// ProductAnalysis groups by exact nome_produto and sums quantity and
// revenue. Rows without a product name are not grouped. Results are ordered
// by name.
func ProductAnalysis(ds *sales.Dataset) ([]Product, error) {
	if err := require(ds, MetricProducts, sales.ColProduct, sales.ColQuantity, sales.ColFinalValue); err != nil {
		return nil, err
	}
	idx := map[string]int{}
	out := []Product{}
	for i := range ds.Rows {
		r := &ds.Rows[i]
		if r.Product == nil {
			continue
		}
		j, ok := idx[*r.Product]
		if !ok {
			j = len(out)
			idx[*r.Product] = j
			out = append(out, Product{Name: *r.Product})
		}
		out[j].QuantitySold += val(r.Quantity)
		out[j].Revenue += val(r.FinalValue)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Name < out[b].Name })
	return out, nil
}

// SortProducts orders ps in place, descending by the given key. An empty key
// leaves the order unchanged. Ties keep their previous order.
func SortProducts(ps []Product, by string) error {
	var key func(Product) float64
	switch by {
	case "":
		return nil
	case SortByQuantity:
		key = func(p Product) float64 { return p.QuantitySold }
	case SortByRevenue:
		key = func(p Product) float64 { return p.Revenue }
	default:
		return &sales.InvalidSortKeyError{Key: by}
	}
	sort.SliceStable(ps, func(a, b int) bool { return key(ps[a]) > key(ps[b]) })
	return nil
}
