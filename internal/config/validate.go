package config

import (
	"fmt"
	"net/url"
	"strings"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError blocks startup.
	SeverityError IssueSeverity = "error"
	// SeverityWarning is surfaced but does not block startup.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation finding.
//
// Path is a dotted path into the config (e.g. "storage.dsn",
// "metrics.datadog.addr"). Message is human-readable.
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface so an Issue can be treated as a single
// error in contexts that expect error.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// Errors returns only the issues with SeverityError.
func Errors(issues []Issue) []Issue {
	var out []Issue
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			out = append(out, iss)
		}
	}
	return out
}

// Validate performs static validation of a Config after defaults have been
// applied. It does not mutate c.
func Validate(c Config) []Issue {
	var issues []Issue

	if strings.TrimSpace(c.Job) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "job",
			Message:  "job must not be empty; it labels metrics and log lines",
		})
	}
	issues = append(issues, validateServer(c.Server)...)
	issues = append(issues, validateIngest(c.Ingest)...)
	issues = append(issues, validateStorage(c.Storage)...)
	issues = append(issues, validateMetrics(c.Metrics)...)
	issues = append(issues, validateLog(c.Log)...)

	return issues
}

func validateServer(s Server) []Issue {
	var issues []Issue

	if strings.TrimSpace(s.Addr) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "server.addr",
			Message:  "server.addr must not be empty",
		})
	}
	switch s.Mode {
	case "debug", "release", "test":
	default:
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "server.mode",
			Message:  fmt.Sprintf("unknown mode %q; expected debug, release or test", s.Mode),
		})
	}
	if s.UploadRatePerSec < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "server.upload_rate_per_sec",
			Message:  "upload_rate_per_sec must not be negative",
		})
	}
	if s.UploadBurst < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "server.upload_burst",
			Message:  "upload_burst must not be negative",
		})
	}
	if s.MaxUploadBytes <= 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "server.max_upload_bytes",
			Message:  fmt.Sprintf("max_upload_bytes=%d; must be positive", s.MaxUploadBytes),
		})
	}

	return issues
}

func validateIngest(in Ingest) []Issue {
	var issues []Issue

	if in.MaxNullFraction <= 0 || in.MaxNullFraction > 1 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "ingest.max_null_fraction",
			Message:  fmt.Sprintf("max_null_fraction=%g; must be in (0, 1]", in.MaxNullFraction),
		})
	} else if in.MaxNullFraction > 0.5 {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "ingest.max_null_fraction",
			Message:  fmt.Sprintf("max_null_fraction=%g accepts uploads that are mostly null", in.MaxNullFraction),
		})
	}
	if strings.TrimSpace(in.RawDir) == "" {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "ingest.raw_dir",
			Message:  "raw_dir is empty; uploaded files will not be kept",
		})
	}
	for i, l := range in.DateLayouts {
		if strings.TrimSpace(l) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     fmt.Sprintf("ingest.date_layouts[%d]", i),
				Message:  "date layout must not be empty",
			})
		}
	}

	return issues
}

// KnownStorageKinds lists the backends compiled into the binaries.
var KnownStorageKinds = []string{"memory", "mssql", "mysql", "postgres", "sqlite"}

func validateStorage(s Storage) []Issue {
	var issues []Issue

	if strings.TrimSpace(s.Kind) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage.kind",
			Message:  "storage.kind must not be empty",
		})
		return issues
	}

	known := false
	for _, k := range KnownStorageKinds {
		if k == s.Kind {
			known = true
			break
		}
	}
	if !known {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage.kind",
			Message:  fmt.Sprintf("unknown storage kind %q; expected one of %s", s.Kind, strings.Join(KnownStorageKinds, ", ")),
		})
		return issues
	}

	if s.Kind == "memory" {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "storage.kind",
			Message:  "memory storage loses every upload on restart",
		})
		return issues
	}
	if strings.TrimSpace(s.DSN) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage.dsn",
			Message:  "storage.dsn must not be empty",
		})
	}
	if s.BatchSize < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage.batch_size",
			Message:  "batch_size must not be negative",
		})
	}

	return issues
}

func validateMetrics(m Metrics) []Issue {
	var issues []Issue

	switch m.Backend {
	case "", "none":
	case "prometheus":
		if strings.TrimSpace(m.PushgatewayURL) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "metrics.pushgateway_url",
				Message:  "prometheus backend requires pushgateway_url",
			})
		} else if u, err := url.Parse(m.PushgatewayURL); err != nil || u.Scheme == "" || u.Host == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "metrics.pushgateway_url",
				Message:  fmt.Sprintf("pushgateway_url %q is not an absolute URL", m.PushgatewayURL),
			})
		}
	case "datadog":
		if strings.TrimSpace(m.Datadog.Addr) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "metrics.datadog.addr",
				Message:  "datadog backend requires datadog.addr (host:port)",
			})
		}
	default:
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "metrics.backend",
			Message:  fmt.Sprintf("unknown metrics backend %q; expected prometheus, datadog or none", m.Backend),
		})
	}

	return issues
}

func validateLog(l Log) []Issue {
	switch strings.ToLower(l.Mode) {
	case "dev", "development", "prod", "production":
		return nil
	}
	return []Issue{{
		Severity: SeverityWarning,
		Path:     "log.mode",
		Message:  fmt.Sprintf("unknown log mode %q; falling back to development output", l.Mode),
	}}
}
