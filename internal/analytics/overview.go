package analytics

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"hanami/internal/sales"
)

// Overview bundles every metric of one dataset. A metric whose columns the
// dataset lacks is left nil and its name listed in Unavailable.
type Overview struct {
	Summary      *Summary      `json:"resumo_vendas,omitempty"`
	Financial    *Financial    `json:"metricas_financeiras,omitempty"`
	Products     []Product     `json:"produtos,omitempty"`
	Regions      []Region      `json:"regioes,omitempty"`
	Demographics *Demographics `json:"perfil_clientes,omitempty"`
	Trend        *Trend        `json:"tendencia,omitempty"`
	Unavailable  []string      `json:"indisponiveis,omitempty"`
}

// BuildOverview computes all metrics concurrently. Each goroutine writes only
// its own field; the dataset is read-only. Errors other than insufficient
// data abort the overview.
func BuildOverview(ctx context.Context, ds *sales.Dataset, freq Frequency) (*Overview, error) {
	if freq == "" {
		freq = DefaultFrequency
	}
	var (
		o       Overview
		missing [6]bool
	)
	g, gctx := errgroup.WithContext(ctx)

	run := func(slot int, fn func() error) {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			err := fn()
			var ie *sales.InsufficientDataError
			if errors.As(err, &ie) {
				missing[slot] = true
				return nil
			}
			return err
		})
	}

	run(0, func() error {
		s, err := SalesSummary(ds)
		if err == nil {
			o.Summary = &s
		}
		return err
	})
	run(1, func() error {
		f, err := FinancialMetrics(ds)
		if err == nil {
			o.Financial = &f
		}
		return err
	})
	run(2, func() error {
		p, err := ProductAnalysis(ds)
		o.Products = p
		return err
	})
	run(3, func() error {
		r, err := RegionalMetrics(ds, "")
		o.Regions = r
		return err
	})
	run(4, func() error {
		d, err := DemographicProfile(ds)
		if err == nil {
			o.Demographics = &d
		}
		return err
	})
	run(5, func() error {
		t, err := TrendSeries(ds, string(freq))
		if err == nil {
			o.Trend = &t
		}
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	names := [6]string{MetricSummary, MetricFinancial, MetricProducts, MetricRegional, MetricDemographics, MetricTrends}
	for i, m := range missing {
		if m {
			o.Unavailable = append(o.Unavailable, names[i])
		}
	}
	return &o, nil
}
