package logger

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestSanitize(t *testing.T) {
	t.Parallel()

	in := []any{"storage_dsn", "postgres://u:p@h/db", "rows", 3, "api_token", "abc"}
	out := sanitize(in)
	if out[1] != "[REDACTED]" || out[5] != "[REDACTED]" {
		t.Fatalf("secrets not redacted: %v", out)
	}
	if out[3] != 3 {
		t.Fatalf("plain value changed: %v", out)
	}
	if in[1] != "postgres://u:p@h/db" {
		t.Fatalf("input slice was mutated")
	}
}

func TestLogger_WritesFields(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.InfoLevel)
	l := &Logger{SugaredLogger: zap.New(core).Sugar()}

	l.With("component", "ingest").Info("upload accepted", "rows", 10, "password", "x")
	l.Debug("dropped below level")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	ctx := entries[0].ContextMap()
	if ctx["component"] != "ingest" || ctx["rows"] != int64(10) || ctx["password"] != "[REDACTED]" {
		t.Fatalf("context = %v", ctx)
	}
}
