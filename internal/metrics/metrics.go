// Package metrics provides a small, backend-agnostic abstraction for recording
// operational metrics from the ingestion pipeline and the HTTP API.
//
// The default backend is a no-op, so instrumentation is always safe to call.
// Concrete systems (Prometheus Pushgateway, Datadog) live in subpackages and
// are installed once at startup with SetBackend.
package metrics

import (
	"strconv"
	"time"
)

// Metric names.
const (
	StepTotal           = "hanami_ingest_step_total"
	StepDurationSeconds = "hanami_ingest_step_duration_seconds"
	RowsTotal           = "hanami_ingest_rows_total"
	RequestsTotal       = "hanami_http_requests_total"
	RequestDuration     = "hanami_http_request_duration_seconds"
)

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is the minimal interface for metrics backends.
type Backend interface {
	// IncCounter increments a counter by delta.
	IncCounter(name string, delta float64, labels Labels)
	// ObserveHistogram records a value in a latency/duration style metric.
	ObserveHistogram(name string, value float64, labels Labels)
	// Flush pushes or flushes metrics, if the backend needs it (e.g. Pushgateway).
	Flush() error
}

type nopBackend struct{}

func (nopBackend) IncCounter(string, float64, Labels)       {}
func (nopBackend) ObserveHistogram(string, float64, Labels) {}
func (nopBackend) Flush() error                             { return nil }

var backend Backend = nopBackend{}

// SetBackend installs a concrete backend. Passing nil keeps the existing one.
// Call it before serving traffic; it is not synchronized.
func SetBackend(b Backend) {
	if b == nil {
		return
	}
	backend = b
}

// Flush delegates to the current backend.
func Flush() error {
	return backend.Flush()
}

// RecordStep measures latency and outcome of one pipeline stage.
func RecordStep(job, step string, err error, d time.Duration) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	lbls := Labels{"job": job, "step": step, "status": status}
	backend.IncCounter(StepTotal, 1, lbls)
	backend.ObserveHistogram(StepDurationSeconds, d.Seconds(), lbls)
}

// RecordRows increments a row counter for the given kind, e.g. "loaded",
// "skipped", "pruned", "saved".
func RecordRows(job, kind string, delta int64) {
	if delta <= 0 {
		return
	}
	backend.IncCounter(RowsTotal, float64(delta), Labels{"job": job, "kind": kind})
}

// RecordRequest counts one HTTP request and observes its latency.
func RecordRequest(route, method string, status int, d time.Duration) {
	lbls := Labels{"route": route, "method": method, "status": strconv.Itoa(status)}
	backend.IncCounter(RequestsTotal, 1, lbls)
	backend.ObserveHistogram(RequestDuration, d.Seconds(), lbls)
}
