// Command ingest loads sales files into the configured store without going
// through the HTTP API, then prints the store's summary and financial
// metrics. Locations are local paths or http(s) URLs.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/schollz/progressbar/v3"

	"hanami/internal/analytics"
	"hanami/internal/app"
	"hanami/internal/config"
	"hanami/internal/datasource"
	"hanami/internal/datasource/file"
	"hanami/internal/datasource/httpds"
	"hanami/internal/ingest"
	"hanami/internal/logger"
	"hanami/internal/sales"
	"hanami/internal/storage"
)

func main() {
	var (
		cfgPath  string
		loc      string
		listPath string
		dryRun   bool
		retries  int
	)
	flag.StringVar(&cfgPath, "config", "", "service config (JSON or YAML)")
	flag.StringVar(&loc, "file", "", "sales file to ingest (path or URL)")
	flag.StringVar(&listPath, "list", "", "text file with one location per line")
	flag.BoolVar(&dryRun, "dry-run", false, "validate only; nothing is stored")
	flag.IntVar(&retries, "retries", 3, "retries for URL downloads")
	verbose := flag.Bool("v", false, "enable debug logs")
	flag.Parse()

	locs, err := locations(loc, listPath)
	if err != nil {
		fatalf("%v", err)
	}

	cfg, err := app.LoadConfig(cfgPath, func(iss config.Issue) {
		fmt.Fprintf(os.Stderr, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
	})
	if err != nil {
		fatalf("%v", err)
	}
	mode := cfg.Log.Mode
	if *verbose {
		mode = "dev"
	}
	log, err := logger.New(mode)
	if err != nil {
		fatalf("logger: %v", err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	r := runner{
		cfg:    cfg,
		log:    log,
		client: httpds.NewClient(httpds.Config{MaxRetries: retries, Logger: log.With("component", "httpds")}),
		dryRun: dryRun,
		out:    os.Stdout,
	}
	if err := r.run(ctx, locs); err != nil {
		log.Error("ingest: failed", "error", err)
		log.Sync()
		os.Exit(1)
	}
}

func locations(loc, listPath string) ([]string, error) {
	switch {
	case loc != "" && listPath != "":
		return nil, errors.New("use -file or -list, not both")
	case loc != "":
		return []string{loc}, nil
	case listPath != "":
		locs, err := file.ReadList(listPath)
		if err != nil {
			return nil, err
		}
		if len(locs) == 0 {
			return nil, fmt.Errorf("%s lists no files", listPath)
		}
		return locs, nil
	default:
		return nil, errors.New("-file or -list is required")
	}
}

type runner struct {
	cfg    config.Config
	log    *logger.Logger
	client *httpds.Client
	dryRun bool
	out    io.Writer
}

// report is what the command prints.
type report struct {
	Files     []fileResult         `json:"arquivos"`
	Summary   *analytics.Summary   `json:"resumo_vendas,omitempty"`
	Financial *analytics.Financial `json:"metricas_financeiras,omitempty"`
	Elapsed   string               `json:"duracao"`
}

type fileResult struct {
	Location string               `json:"origem"`
	Upload   *ingest.UploadResult `json:"resultado,omitempty"`
	Stats    *ingest.Stats        `json:"estatisticas,omitempty"`
	Error    string               `json:"erro,omitempty"`
}

func (r runner) run(ctx context.Context, locs []string) error {
	start := time.Now()
	flush, err := app.SetupMetrics(r.cfg, r.log)
	if err != nil {
		return err
	}
	defer flush()

	pipeline := app.NewPipeline(r.cfg, r.log)
	var (
		repo storage.Repository
		up   *ingest.Uploader
	)
	if !r.dryRun {
		var saved int64
		repo, err = app.OpenStorage(ctx, r.cfg, r.log, func(n int64) {
			saved += n
			r.log.Debug("ingest: batch stored", "rows", n, "total", saved)
		})
		if err != nil {
			return err
		}
		defer repo.Close()
		up = &ingest.Uploader{
			Pipeline: pipeline,
			Repo:     repo,
			RawDir:   r.cfg.Ingest.RawDir,
			Job:      r.cfg.Job,
			Logger:   r.log,
		}
	}

	var (
		rep      report
		accepted []*sales.Dataset
		failed   int
	)
	bar := progressbar.Default(int64(len(locs)), "ingesting")
	for _, loc := range locs {
		fr, ds, err := r.one(ctx, datasource.For(loc, r.client), pipeline, up)
		fr.Location = loc
		if err != nil {
			if !sales.IsInputError(err) && ctx.Err() != nil {
				return err
			}
			failed++
			fr.Error = err.Error()
			r.log.Warn("ingest: file rejected", "location", loc, "error", err)
		}
		if ds != nil {
			accepted = append(accepted, ds)
		}
		rep.Files = append(rep.Files, fr)
		_ = bar.Add(1)
	}
	_ = bar.Finish()

	ds, err := r.totals(ctx, repo, accepted)
	if err != nil && !errors.Is(err, sales.ErrNoData) {
		return err
	}
	if ds != nil {
		if s, err := analytics.SalesSummary(ds); err == nil {
			rep.Summary = &s
		}
		if f, err := analytics.FinancialMetrics(ds); err == nil {
			rep.Financial = &f
		}
	}
	rep.Elapsed = time.Since(start).Truncate(time.Millisecond).String()

	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rep); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d file(s) rejected", failed, len(locs))
	}
	return nil
}

// one ingests a single source. In dry-run mode the dataset is returned
// instead of being stored.
func (r runner) one(ctx context.Context, src datasource.Source, p *ingest.Pipeline, up *ingest.Uploader) (fileResult, *sales.Dataset, error) {
	rc, err := src.Open(ctx)
	if err != nil {
		return fileResult{}, nil, err
	}
	defer rc.Close()

	if r.dryRun {
		res := p.Run(src.Name(), rc)
		if !res.OK() {
			return fileResult{}, nil, res.Err
		}
		stats := res.Stats
		return fileResult{Stats: &stats}, res.Dataset, nil
	}
	res, err := up.Upload(ctx, src.Name(), rc)
	if err != nil {
		return fileResult{}, nil, err
	}
	return fileResult{Upload: res}, nil, nil
}

// totals is what the metrics are printed over: the accepted files in a dry
// run, the whole store otherwise.
func (r runner) totals(ctx context.Context, repo storage.Repository, accepted []*sales.Dataset) (*sales.Dataset, error) {
	if !r.dryRun {
		ds, err := repo.FetchAll(ctx)
		if err != nil {
			return nil, err
		}
		if ds.Len() == 0 {
			return nil, sales.ErrNoData
		}
		return ds, nil
	}
	if len(accepted) == 0 {
		return nil, sales.ErrNoData
	}
	var (
		rows []sales.Sale
		cols []string
		seen = map[string]bool{}
	)
	for _, ds := range accepted {
		rows = append(rows, ds.Rows...)
		for _, c := range ds.Columns() {
			if !seen[c] {
				seen[c] = true
				cols = append(cols, c)
			}
		}
	}
	return sales.NewDataset(cols, rows), nil
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
