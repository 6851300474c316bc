package analytics

import (
	"sort"
	"strings"

	"hanami/internal/sales"
)

// Frequency is a trend bucket width.
type Frequency string

const (
	Daily   Frequency = "D"
	Monthly Frequency = "M"
	Yearly  Frequency = "Y"
)

// DefaultFrequency is used when the caller supplies none.
const DefaultFrequency = Monthly

// ParseFrequency accepts D, M or Y (any case) and the aliases day, month and
// year. Anything else is an *sales.InvalidFrequencyError.
func ParseFrequency(s string) (Frequency, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "d", "day", "daily":
		return Daily, nil
	case "m", "month", "monthly":
		return Monthly, nil
	case "y", "year", "yearly":
		return Yearly, nil
	}
	return "", &sales.InvalidFrequencyError{Frequency: s}
}

func (f Frequency) layout() string {
	switch f {
	case Daily:
		return "2006-01-02"
	case Yearly:
		return "2006"
	default:
		return "2006-01"
	}
}

// TrendPoint is the revenue of one period.
type TrendPoint struct {
	Period       string  `json:"periodo"`
	TotalRevenue float64 `json:"receita_total"`
}

// Trend is a revenue time series at one frequency.
type Trend struct {
	Frequency Frequency    `json:"frequencia"`
	Points    []TrendPoint `json:"serie"`
}

// TrendSeries sums valor_final per calendar period of data_venda, taken in
// the timestamp's own zone. Only periods containing at least one sale appear;
// they are ordered chronologically.
func TrendSeries(ds *sales.Dataset, freq string) (Trend, error) {
	f, err := ParseFrequency(freq)
	if err != nil {
		return Trend{}, err
	}
	if err := require(ds, MetricTrends, sales.ColDate, sales.ColFinalValue); err != nil {
		return Trend{}, err
	}

	// Period labels are zero-padded and most-significant first, so their
	// lexical order is chronological.
	layout := f.layout()
	sums := map[string]float64{}
	for i := range ds.Rows {
		r := &ds.Rows[i]
		if r.Date == nil {
			continue
		}
		sums[r.Date.Format(layout)] += val(r.FinalValue)
	}
	keys := make([]string, 0, len(sums))
	for k := range sums {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := Trend{Frequency: f, Points: make([]TrendPoint, 0, len(keys))}
	for _, k := range keys {
		out.Points = append(out.Points, TrendPoint{Period: k, TotalRevenue: sums[k]})
	}
	return out, nil
}
