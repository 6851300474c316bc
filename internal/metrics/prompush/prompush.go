// Package prompush implements a Prometheus Pushgateway backend for the
// metrics package.
//
// Collectors are created lazily per metric name: counters become CounterVecs
// and observations become SummaryVecs, with the label names taken from the
// first call for that metric. Everything is registered on a private registry
// that Flush pushes to the gateway.
package prompush

import (
	"fmt"
	"sort"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"hanami/internal/metrics"
)

// Backend is a Prometheus Pushgateway metrics backend.
type Backend struct {
	gatewayURL string
	jobName    string
	reg        *prometheus.Registry

	mu        sync.Mutex
	counters  map[string]*vec[*prometheus.CounterVec]
	summaries map[string]*vec[*prometheus.SummaryVec]
}

type vec[T any] struct {
	labels []string
	v      T
}

// NewBackend constructs a Pushgateway backend. jobName is the Pushgateway
// "job" grouping key.
func NewBackend(jobName, gatewayURL string) (*Backend, error) {
	if gatewayURL == "" {
		return nil, fmt.Errorf("prompush: gateway URL is required")
	}
	if jobName == "" {
		jobName = "hanami"
	}
	return &Backend{
		gatewayURL: gatewayURL,
		jobName:    jobName,
		reg:        prometheus.NewRegistry(),
		counters:   map[string]*vec[*prometheus.CounterVec]{},
		summaries:  map[string]*vec[*prometheus.SummaryVec]{},
	}, nil
}

// Registry exposes the underlying registry (tests, scrape endpoints).
func (b *Backend) Registry() *prometheus.Registry { return b.reg }

// IncCounter implements metrics.Backend.
func (b *Backend) IncCounter(name string, delta float64, labels metrics.Labels) {
	b.mu.Lock()
	cv, ok := b.counters[name]
	if !ok {
		keys := labelNames(labels)
		c := prometheus.NewCounterVec(prometheus.CounterOpts{Name: name, Help: "Counter " + name + "."}, keys)
		if err := b.reg.Register(c); err != nil {
			b.mu.Unlock()
			return
		}
		cv = &vec[*prometheus.CounterVec]{labels: keys, v: c}
		b.counters[name] = cv
	}
	b.mu.Unlock()

	if c, err := cv.v.GetMetricWithLabelValues(values(cv.labels, labels)...); err == nil {
		c.Add(delta)
	}
}

// ObserveHistogram implements metrics.Backend using a summary with p50/p90/p99.
func (b *Backend) ObserveHistogram(name string, value float64, labels metrics.Labels) {
	b.mu.Lock()
	sv, ok := b.summaries[name]
	if !ok {
		keys := labelNames(labels)
		s := prometheus.NewSummaryVec(prometheus.SummaryOpts{
			Name:       name,
			Help:       "Summary " + name + ".",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		}, keys)
		if err := b.reg.Register(s); err != nil {
			b.mu.Unlock()
			return
		}
		sv = &vec[*prometheus.SummaryVec]{labels: keys, v: s}
		b.summaries[name] = sv
	}
	b.mu.Unlock()

	if o, err := sv.v.GetMetricWithLabelValues(values(sv.labels, labels)...); err == nil {
		o.Observe(value)
	}
}

// Flush pushes the current registry to the Pushgateway.
func (b *Backend) Flush() error {
	if err := push.New(b.gatewayURL, b.jobName).Gatherer(b.reg).Push(); err != nil {
		return fmt.Errorf("prompush: push: %w", err)
	}
	return nil
}

// labelNames drops "job": the Pushgateway grouping key already carries it.
func labelNames(l metrics.Labels) []string {
	keys := make([]string, 0, len(l))
	for k := range l {
		if k == "job" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func values(keys []string, l metrics.Labels) []string {
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = l[k]
	}
	return out
}
