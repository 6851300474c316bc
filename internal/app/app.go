// Package app wires configuration into the long-lived collaborators shared by
// the binaries: logger, metrics backend, repository and pipeline.
package app

import (
	"context"
	"fmt"

	"hanami/internal/config"
	"hanami/internal/ingest"
	"hanami/internal/logger"
	"hanami/internal/metrics"
	"hanami/internal/metrics/datadog"
	"hanami/internal/metrics/prompush"
	"hanami/internal/storage"
	"hanami/internal/transformer/builtin"

	// every backend is compiled in; config picks one.
	_ "hanami/internal/storage/all"
)

// LoadConfig loads and lints the config at path. Warnings are logged through
// warn; any error-severity issue fails the load.
func LoadConfig(path string, warn func(config.Issue)) (config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, err
	}
	issues := config.Validate(cfg)
	for _, iss := range issues {
		if iss.Severity == config.SeverityWarning && warn != nil {
			warn(iss)
		}
	}
	if errs := config.Errors(issues); len(errs) > 0 {
		return config.Config{}, fmt.Errorf("config: %d invalid setting(s), first: %w", len(errs), errs[0])
	}
	return cfg, nil
}

// SetupMetrics installs the configured metrics backend. The returned func
// flushes and releases it and is safe to call when metrics are disabled.
func SetupMetrics(cfg config.Config, log *logger.Logger) (func(), error) {
	switch cfg.Metrics.Backend {
	case "", "none":
		log.Debug("metrics: disabled")
		return func() {}, nil
	case "prometheus":
		b, err := prompush.NewBackend(cfg.Job, cfg.Metrics.PushgatewayURL)
		if err != nil {
			return nil, err
		}
		metrics.SetBackend(b)
		log.Info("metrics: pushgateway", "url", cfg.Metrics.PushgatewayURL, "job", cfg.Job)
		return func() {
			if err := metrics.Flush(); err != nil {
				log.Warn("metrics: flush", "error", err)
			}
		}, nil
	case "datadog":
		dd := cfg.Metrics.Datadog
		b, err := datadog.NewBackend(datadog.Config{Addr: dd.Addr, Namespace: dd.Namespace, GlobalTags: dd.Tags})
		if err != nil {
			return nil, err
		}
		metrics.SetBackend(b)
		log.Info("metrics: dogstatsd", "addr", dd.Addr)
		return func() {
			if err := metrics.Flush(); err != nil {
				log.Warn("metrics: flush", "error", err)
			}
			b.Close()
		}, nil
	default:
		return nil, fmt.Errorf("metrics: unknown backend %q", cfg.Metrics.Backend)
	}
}

// OpenStorage opens the configured repository.
func OpenStorage(ctx context.Context, cfg config.Config, log *logger.Logger, onBatch func(int64)) (storage.Repository, error) {
	repo, err := storage.New(ctx, storage.Config{
		Kind:            cfg.Storage.Kind,
		DSN:             cfg.Storage.DSN,
		Table:           cfg.Storage.Table,
		AutoCreateTable: cfg.Storage.AutoCreateTable,
		BatchSize:       cfg.Storage.BatchSize,
		OnBatch:         onBatch,
		Logger:          log.With("component", "storage"),
	})
	if err != nil {
		return nil, fmt.Errorf("storage %s: %w", cfg.Storage.Kind, err)
	}
	return repo, nil
}

// NewPipeline builds the ingestion pipeline from the ingest settings.
func NewPipeline(cfg config.Config, log *logger.Logger) *ingest.Pipeline {
	return ingest.New(ingest.Options{
		Coerce:          builtin.Coerce{Layouts: cfg.Ingest.DateLayouts},
		MaxNullFraction: cfg.Ingest.MaxNullFraction,
		Job:             cfg.Job,
		Logger:          log.With("component", "ingest"),
	})
}
