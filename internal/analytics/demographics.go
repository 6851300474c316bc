package analytics

import (
	"sort"

	"hanami/internal/sales"
)

// Group is one bucket of a demographic breakdown.
type Group struct {
	Value   string  `json:"valor"`
	Count   int     `json:"contagem"`
	Percent float64 `json:"percentual"`
}

// Demographics describes the distinct customers of a dataset.
type Demographics struct {
	TotalCustomers int     `json:"total_clientes"`
	ByGender       []Group `json:"genero"`
	ByAgeBracket   []Group `json:"faixa_etaria"`
	ByCity         []Group `json:"cidade"`
	ByState        []Group `json:"estado"`
	ByRegion       []Group `json:"regiao"`
}

// AgeBracket maps an age onto its faixa etária label.
func AgeBracket(age *float64) string {
	if age == nil {
		return NotInformed
	}
	switch a := *age; {
	case a < 18:
		return "<18"
	case a < 25:
		return "18-24"
	case a < 35:
		return "25-34"
	case a < 45:
		return "35-44"
	case a < 55:
		return "45-54"
	case a < 65:
		return "55-64"
	default:
		return "65+"
	}
}

// DemographicProfile counts distinct customers by cliente_id, using the first
// row seen for each customer, and breaks them down by gender, age bracket,
// city, state and region. The region breakdown is empty when the dataset has
// no regiao column. Percentages are of the distinct customer count, rounded
// to two decimals.
func DemographicProfile(ds *sales.Dataset) (Demographics, error) {
	if err := require(ds, MetricDemographics,
		sales.ColCustomerID, sales.ColCustomerAge, sales.ColGender, sales.ColCity, sales.ColState); err != nil {
		return Demographics{}, err
	}

	seen := map[string]struct{}{}
	var gender, age, city, state, region counter
	for i := range ds.Rows {
		r := &ds.Rows[i]
		if _, dup := seen[r.CustomerID]; dup {
			continue
		}
		seen[r.CustomerID] = struct{}{}
		gender.add(label(r.Gender))
		age.add(AgeBracket(r.CustomerAge))
		city.add(label(r.City))
		state.add(label(r.State))
		if ds.Has(sales.ColRegion) {
			region.add(label(r.Region))
		}
	}

	total := len(seen)
	return Demographics{
		TotalCustomers: total,
		ByGender:       gender.groups(total),
		ByAgeBracket:   age.groups(total),
		ByCity:         city.groups(total),
		ByState:        state.groups(total),
		ByRegion:       region.groups(total),
	}, nil
}

type counter map[string]int

func (c *counter) add(k string) {
	if *c == nil {
		*c = counter{}
	}
	(*c)[k]++
}

// groups returns the buckets by count descending, then value ascending.
func (c counter) groups(total int) []Group {
	out := make([]Group, 0, len(c))
	for k, n := range c {
		out = append(out, Group{Value: k, Count: n, Percent: round2(100 * ratio(float64(n), total))})
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].Count != out[b].Count {
			return out[a].Count > out[b].Count
		}
		return out[a].Value < out[b].Value
	})
	return out
}
