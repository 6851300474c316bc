package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(body), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

func TestDecode_YAMLAndJSON(t *testing.T) {
	t.Parallel()

	y := `
job: vendas
server:
  addr: ":9000"
  upload_rate_per_sec: 2.5
storage:
  kind: postgres
  dsn: postgres://u@localhost/db
  batch_size: 500
metrics:
  backend: datadog
  datadog:
    addr: 127.0.0.1:8125
    tags: [env:test]
`
	j := `{"job":"vendas","server":{"addr":":9000","upload_rate_per_sec":2.5},
	"storage":{"kind":"postgres","dsn":"postgres://u@localhost/db","batch_size":500},
	"metrics":{"backend":"datadog","datadog":{"addr":"127.0.0.1:8125","tags":["env:test"]}}}`

	for ext, body := range map[string]string{".yaml": y, ".json": j} {
		c, err := Decode([]byte(body), ext)
		if err != nil {
			t.Fatalf("Decode(%s): %v", ext, err)
		}
		if c.Job != "vendas" || c.Server.Addr != ":9000" || c.Server.UploadRatePerSec != 2.5 {
			t.Fatalf("%s: server = %+v", ext, c.Server)
		}
		if c.Storage.Kind != "postgres" || c.Storage.BatchSize != 500 {
			t.Fatalf("%s: storage = %+v", ext, c.Storage)
		}
		if c.Metrics.Datadog.Addr != "127.0.0.1:8125" || len(c.Metrics.Datadog.Tags) != 1 {
			t.Fatalf("%s: datadog = %+v", ext, c.Metrics.Datadog)
		}
	}
}

func TestDecode_UnknownKeysRejected(t *testing.T) {
	t.Parallel()

	if _, err := Decode([]byte("storge:\n  kind: sqlite\n"), ".yml"); err == nil {
		t.Fatalf("yaml: expected error for unknown key")
	}
	if _, err := Decode([]byte(`{"storge":{}}`), ".json"); err == nil {
		t.Fatalf("json: expected error for unknown key")
	}
}

func TestApplyDefaults(t *testing.T) {
	t.Parallel()

	c := Default()
	if c.Job != DefaultJob || c.Server.Addr != DefaultAddr || c.Server.Mode != DefaultMode {
		t.Fatalf("defaults = %+v", c)
	}
	if c.Storage.Kind != "sqlite" || c.Storage.DSN != DefaultDSN || !c.Storage.AutoCreateTable {
		t.Fatalf("storage = %+v", c.Storage)
	}
	if c.Ingest.MaxNullFraction != DefaultMaxNullFraction {
		t.Fatalf("max_null_fraction = %v", c.Ingest.MaxNullFraction)
	}

	c = Config{Server: Server{UploadRatePerSec: 1}}
	c.ApplyDefaults()
	if c.Server.UploadBurst != 1 {
		t.Fatalf("burst = %d, want 1", c.Server.UploadBurst)
	}
}

func TestApplyEnv(t *testing.T) {
	t.Parallel()

	env := map[string]string{
		"HANAMI_STORAGE_KIND":      "mysql",
		"HANAMI_DSN":               "u:p@tcp(db:3306)/hanami",
		"HANAMI_BATCH_SIZE":        "250",
		"HANAMI_MAX_NULL_FRACTION": "0.1",
		"HANAMI_AUTO_CREATE_TABLE": "true",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	c := Config{Storage: Storage{Kind: "sqlite"}}
	if err := c.ApplyEnv(lookup); err != nil {
		t.Fatalf("ApplyEnv: %v", err)
	}
	if c.Storage.Kind != "mysql" || c.Storage.BatchSize != 250 || !c.Storage.AutoCreateTable {
		t.Fatalf("storage = %+v", c.Storage)
	}
	if c.Ingest.MaxNullFraction != 0.1 {
		t.Fatalf("max_null_fraction = %v, want 0.1", c.Ingest.MaxNullFraction)
	}
}

func TestApplyEnv_BadNumber(t *testing.T) {
	t.Parallel()

	lookup := func(k string) (string, bool) {
		if k == "HANAMI_BATCH_SIZE" {
			return "lots", true
		}
		return "", false
	}
	var c Config
	err := c.ApplyEnv(lookup)
	if err == nil || !strings.Contains(err.Error(), "HANAMI_BATCH_SIZE") {
		t.Fatalf("err = %v, want HANAMI_BATCH_SIZE parse error", err)
	}
}

func TestLoad_FileThenEnv(t *testing.T) {
	p := writeFile(t, "hanami.yaml", "storage:\n  kind: memory\nserver:\n  addr: \":7000\"\n")
	t.Setenv("HANAMI_ADDR", ":7001")

	c, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Storage.Kind != "memory" {
		t.Fatalf("kind = %q, want memory", c.Storage.Kind)
	}
	if c.Server.Addr != ":7001" {
		t.Fatalf("addr = %q, want env override", c.Server.Addr)
	}
	if c.Job != DefaultJob {
		t.Fatalf("job = %q, want default", c.Job)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestLoadEnv(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, ".env")
	if err := os.WriteFile(p, []byte("HANAMI_TEST_ONLY_KEY=from-dotenv\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("HANAMI_TEST_ONLY_KEY", "")
	os.Unsetenv("HANAMI_TEST_ONLY_KEY")

	if err := LoadEnv(filepath.Join(dir, "missing.env"), p); err != nil {
		t.Fatalf("LoadEnv: %v", err)
	}
	if got := os.Getenv("HANAMI_TEST_ONLY_KEY"); got != "from-dotenv" {
		t.Fatalf("HANAMI_TEST_ONLY_KEY = %q", got)
	}
}
