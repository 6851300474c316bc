// Package transformer defines the dataset stages that run after coercion.
// Each stage owns the dataset it is given and returns a new one, or a typed
// error that aborts the chain.
package transformer

import (
	"time"

	"hanami/internal/sales"
)

// Transformer is one fail-fast stage.
type Transformer interface {
	Name() string
	Apply(*sales.Dataset) (*sales.Dataset, error)
}

// Observer is told the outcome and duration of every stage that ran.
type Observer func(stage string, err error, d time.Duration)

// Chain is an ordered list of transformers.
type Chain []Transformer

// Apply runs every stage in order and stops at the first error. No partial
// dataset is returned alongside an error.
func (c Chain) Apply(in *sales.Dataset) (*sales.Dataset, error) {
	return c.Run(in, nil)
}

// Run is Apply with an optional observer.
func (c Chain) Run(in *sales.Dataset, obs Observer) (*sales.Dataset, error) {
	out := in
	for _, t := range c {
		start := time.Now()
		next, err := t.Apply(out)
		if obs != nil {
			obs(t.Name(), err, time.Since(start))
		}
		if err != nil {
			return nil, err
		}
		out = next
	}
	return out, nil
}
