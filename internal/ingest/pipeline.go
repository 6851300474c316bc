// Package ingest runs the ingestion-validation pipeline: load, schema check,
// coercion, semantic validation and null pruning. It turns one uploaded file
// into one clean dataset or one typed error, never both.
package ingest

import (
	"io"
	"time"

	"hanami/internal/logger"
	"hanami/internal/metrics"
	"hanami/internal/parser"
	"hanami/internal/sales"
	"hanami/internal/schema"
	"hanami/internal/transformer"
	"hanami/internal/transformer/builtin"
	"hanami/pkg/records"
)

// Stage names, as reported in metrics and logs. Validation and pruning
// report under their transformer names, "validate" and "require".
const (
	StageLoad   = "load"
	StageSchema = "schema"
	StageCoerce = "coerce"
)

// Options configures a Pipeline. The zero value is usable.
type Options struct {
	Contract        schema.Contract
	Parser          parser.Options
	Coerce          builtin.Coerce
	MaxNullFraction float64
	Job             string
	Logger          *logger.Logger
}

// Stats counts rows across the stages of one run.
type Stats struct {
	Loaded  int `json:"linhas_lidas"`
	Skipped int `json:"linhas_ignoradas"`
	Pruned  int `json:"linhas_removidas"`
}

// Result is the outcome of one run: Dataset is set exactly when Err is nil.
type Result struct {
	Dataset *sales.Dataset
	Stats   Stats
	Err     error
}

// OK reports whether the run produced a dataset.
func (r Result) OK() bool { return r.Err == nil }

// Pipeline is safe for concurrent use; each Run owns its own dataset.
type Pipeline struct {
	opt Options
}

// New builds a pipeline, filling defaults for unset options.
func New(opt Options) *Pipeline {
	if len(opt.Contract.Fields) == 0 {
		opt.Contract = schema.Sales()
	}
	if opt.Job == "" {
		opt.Job = "ingest"
	}
	if opt.Logger == nil {
		opt.Logger = logger.Nop()
	}
	return &Pipeline{opt: opt}
}

// Run ingests r, whose format is derived from name. Stages run strictly in
// order and the first failure ends the run.
func (p *Pipeline) Run(name string, r io.Reader) Result {
	log := p.opt.Logger.With("file", name)
	observe := func(stage string, err error, d time.Duration) {
		metrics.RecordStep(p.opt.Job, stage, err, d)
		switch {
		case err == nil:
			log.Debug("ingest: stage done", "stage", stage, "took", d.String())
		case sales.IsInputError(err):
			log.Warn("ingest: rejected", "stage", stage, "kind", sales.KindOf(err).String(), "error", err)
		default:
			log.Error("ingest: failed", "stage", stage, "error", err)
		}
	}

	var (
		res    Result
		tbl    records.Table
		ds     *sales.Dataset
		pruned int
	)
	stages := []struct {
		name string
		fn   func() error
	}{
		{StageLoad, func() error {
			f, err := parser.FormatFromFilename(name)
			if err != nil {
				return err
			}
			var skipped int
			if tbl, skipped, err = parser.Load(r, f, p.opt.Parser); err != nil {
				return classifyParse(err)
			}
			res.Stats.Loaded, res.Stats.Skipped = tbl.Len(), skipped
			return nil
		}},
		{StageSchema, func() (err error) {
			tbl, err = p.opt.Contract.Check(tbl)
			return err
		}},
		{StageCoerce, func() error {
			ds = p.opt.Coerce.Apply(tbl)
			return nil
		}},
	}
	for _, st := range stages {
		start := time.Now()
		err := st.fn()
		observe(st.name, err, time.Since(start))
		if err != nil {
			res.Err = err
			return res
		}
	}

	chain := transformer.Chain{
		builtin.Validate{Contract: p.opt.Contract},
		builtin.Require{MaxNullFraction: p.opt.MaxNullFraction, Removed: func(n int) { pruned = n }},
	}
	ds, err := chain.Run(ds, observe)
	if err != nil {
		res.Err = err
		return res
	}

	res.Dataset = ds
	res.Stats.Pruned = pruned
	metrics.RecordRows(p.opt.Job, "loaded", int64(res.Stats.Loaded))
	metrics.RecordRows(p.opt.Job, "skipped", int64(res.Stats.Skipped))
	metrics.RecordRows(p.opt.Job, "pruned", int64(pruned))
	if pruned > 0 {
		log.Warn("ingest: rows pruned for null critical fields", "pruned", pruned, "loaded", res.Stats.Loaded)
	}
	log.Info("ingest: accepted", "rows", ds.Len(), "skipped", res.Stats.Skipped)
	return res
}

// classifyParse marks parser failures as input errors unless they already
// carry a kind.
func classifyParse(err error) error {
	if sales.KindOf(err) != sales.KindInternal {
		return err
	}
	return &sales.MalformedFileError{Err: err}
}
