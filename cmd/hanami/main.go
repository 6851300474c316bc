// Command hanami serves the sales upload and reporting API.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hanami/internal/api"
	"hanami/internal/app"
	"hanami/internal/config"
	"hanami/internal/ingest"
	"hanami/internal/logger"
	"hanami/internal/metrics"
)

func main() {
	var (
		cfgPath string
		addr    string
	)
	flag.StringVar(&cfgPath, "config", "", "service config (JSON or YAML); empty uses defaults and HANAMI_* env")
	flag.StringVar(&addr, "addr", "", "listen address, overrides server.addr")
	validate := flag.Bool("validate", false, "validate the configuration and exit")
	verbose := flag.Bool("v", false, "enable debug logs")
	flag.Parse()

	cfg, err := app.LoadConfig(cfgPath, func(iss config.Issue) {
		fmt.Fprintf(os.Stderr, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
	})
	if err != nil {
		fatalf("%v", err)
	}
	if *validate {
		fmt.Fprintln(os.Stderr, "configuration is valid")
		return
	}
	if addr != "" {
		cfg.Server.Addr = addr
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

	if err := run(cfg, log); err != nil {
		log.Error("hanami: exiting", "error", err)
		log.Sync()
		os.Exit(1)
	}
}

func run(cfg config.Config, log *logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	flush, err := app.SetupMetrics(cfg, log)
	if err != nil {
		return err
	}
	defer flush()
	if cfg.Metrics.Backend == "prometheus" {
		go pushEvery(ctx, flushInterval, log)
	}

	repo, err := app.OpenStorage(ctx, cfg, log, nil)
	if err != nil {
		return err
	}
	defer repo.Close()

	up := &ingest.Uploader{
		Pipeline: app.NewPipeline(cfg, log),
		Repo:     repo,
		RawDir:   cfg.Ingest.RawDir,
		Job:      cfg.Job,
		Logger:   log.With("component", "upload"),
	}
	srv := api.NewServer(api.Config{
		Addr:             cfg.Server.Addr,
		Mode:             cfg.Server.Mode,
		UploadRatePerSec: cfg.Server.UploadRatePerSec,
		UploadBurst:      cfg.Server.UploadBurst,
		MaxUploadBytes:   cfg.Server.MaxUploadBytes,
	}, repo, up, log.With("component", "api"))

	log.Info("hanami: starting", "storage", cfg.Storage.Kind, "addr", cfg.Server.Addr)
	return srv.Run(ctx)
}

const flushInterval = 15 * time.Second

// pushEvery flushes metrics until ctx is done. The pushgateway only sees what
// was pushed, so a long-running server pushes periodically.
func pushEvery(ctx context.Context, d time.Duration, log *logger.Logger) {
	t := time.NewTicker(d)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if err := metrics.Flush(); err != nil {
				log.Warn("metrics: periodic flush", "error", err)
			}
		}
	}
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
