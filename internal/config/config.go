// Package config defines the service configuration model. A config file is
// JSON or YAML (chosen by suffix); HANAMI_* environment variables, optionally
// seeded from a .env file, override file values; unset fields get defaults.
//
// Example (YAML):
//
//	job: hanami
//	server:  { addr: ":8080", mode: release, upload_rate_per_sec: 2 }
//	ingest:  { raw_dir: data/raw, max_null_fraction: 0.05 }
//	storage: { kind: sqlite, dsn: "file:hanami.db", table: sales, auto_create_table: true }
//	metrics: { backend: prometheus, pushgateway_url: "http://localhost:9091" }
//	log:     { mode: prod }
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the top-level object decoded from a service file.
type Config struct {
	// Job labels metrics and log lines for this process.
	Job     string  `json:"job" yaml:"job"`
	Server  Server  `json:"server" yaml:"server"`
	Ingest  Ingest  `json:"ingest" yaml:"ingest"`
	Storage Storage `json:"storage" yaml:"storage"`
	Metrics Metrics `json:"metrics" yaml:"metrics"`
	Log     Log     `json:"log" yaml:"log"`
}

// Server configures the HTTP API.
type Server struct {
	Addr string `json:"addr" yaml:"addr"`
	// Mode is the gin mode: debug, release or test.
	Mode string `json:"mode" yaml:"mode"`
	// UploadRatePerSec and UploadBurst throttle POST /upload/. Zero disables it.
	UploadRatePerSec float64 `json:"upload_rate_per_sec" yaml:"upload_rate_per_sec"`
	UploadBurst      int     `json:"upload_burst" yaml:"upload_burst"`
	MaxUploadBytes   int64   `json:"max_upload_bytes" yaml:"max_upload_bytes"`
}

// Ingest configures the upload pipeline.
type Ingest struct {
	// RawDir keeps one copy of every accepted upload. Empty disables it.
	RawDir          string  `json:"raw_dir" yaml:"raw_dir"`
	MaxNullFraction float64 `json:"max_null_fraction" yaml:"max_null_fraction"`
	// DateLayouts override the default data_venda layouts when non-empty.
	DateLayouts []string `json:"date_layouts" yaml:"date_layouts"`
}

// Storage selects the repository backend.
type Storage struct {
	// Kind is one of the registered storage kinds (memory, sqlite, postgres,
	// mysql, mssql).
	Kind            string `json:"kind" yaml:"kind"`
	DSN             string `json:"dsn" yaml:"dsn"`
	Table           string `json:"table" yaml:"table"`
	AutoCreateTable bool   `json:"auto_create_table" yaml:"auto_create_table"`
	BatchSize       int    `json:"batch_size" yaml:"batch_size"`
}

// Metrics selects where pipeline and request metrics go.
type Metrics struct {
	// Backend is "", "none", "prometheus" or "datadog".
	Backend        string  `json:"backend" yaml:"backend"`
	PushgatewayURL string  `json:"pushgateway_url" yaml:"pushgateway_url"`
	Datadog        Datadog `json:"datadog" yaml:"datadog"`
}

// Datadog configures the dogstatsd client.
type Datadog struct {
	Addr      string   `json:"addr" yaml:"addr"`
	Namespace string   `json:"namespace" yaml:"namespace"`
	Tags      []string `json:"tags" yaml:"tags"`
}

// Log configures the process logger.
type Log struct {
	// Mode is "dev" or "prod".
	Mode string `json:"mode" yaml:"mode"`
}

// Defaults.
const (
	DefaultJob             = "hanami"
	DefaultAddr            = ":8080"
	DefaultMode            = "release"
	DefaultStorageKind     = "sqlite"
	DefaultDSN             = "file:hanami.db"
	DefaultMaxUploadBytes  = 32 << 20
	DefaultMaxNullFraction = 0.05
	DefaultLogMode         = "prod"
)

// Default returns a configuration usable without any file.
func Default() Config {
	var c Config
	c.ApplyDefaults()
	return c
}

// ApplyDefaults fills unset fields in place.
func (c *Config) ApplyDefaults() {
	if c.Job == "" {
		c.Job = DefaultJob
	}
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultAddr
	}
	if c.Server.Mode == "" {
		c.Server.Mode = DefaultMode
	}
	if c.Server.MaxUploadBytes == 0 {
		c.Server.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if c.Server.UploadRatePerSec > 0 && c.Server.UploadBurst == 0 {
		c.Server.UploadBurst = 1
	}
	if c.Ingest.MaxNullFraction == 0 {
		c.Ingest.MaxNullFraction = DefaultMaxNullFraction
	}
	if c.Storage.Kind == "" {
		c.Storage.Kind = DefaultStorageKind
		if c.Storage.DSN == "" {
			c.Storage.DSN = DefaultDSN
			c.Storage.AutoCreateTable = true
		}
	}
	if c.Log.Mode == "" {
		c.Log.Mode = DefaultLogMode
	}
}

// Load reads path (empty means defaults only), applies HANAMI_* overrides and
// fills defaults. A .env file next to the working directory is loaded first
// when present; variables already set in the process win.
func Load(path string) (Config, error) {
	if err := LoadEnv(".env"); err != nil {
		return Config{}, err
	}

	var c Config
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		if c, err = Decode(b, filepath.Ext(path)); err != nil {
			return Config{}, fmt.Errorf("config: %s: %w", path, err)
		}
	}
	if err := c.ApplyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	c.ApplyDefaults()
	return c, nil
}

// LoadEnv loads dotenv files, skipping the ones that do not exist.
func LoadEnv(files ...string) error {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("config: env file %s: %w", f, err)
		}
	}
	return nil
}

// Decode parses b as YAML for .yaml/.yml and as JSON otherwise. Unknown keys
// are rejected in both formats.
func Decode(b []byte, ext string) (Config, error) {
	var c Config
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(b))
		dec.KnownFields(true)
		if err := dec.Decode(&c); err != nil {
			return Config{}, fmt.Errorf("decode yaml: %w", err)
		}
	default:
		dec := json.NewDecoder(bytes.NewReader(b))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&c); err != nil {
			return Config{}, fmt.Errorf("decode json: %w", err)
		}
	}
	return c, nil
}

// LookupFunc matches os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// ApplyEnv overrides fields from HANAMI_* variables.
func (c *Config) ApplyEnv(lookup LookupFunc) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	var errs []error
	num := func(key string, set func(string) error) {
		if v, ok := lookup(key); ok && v != "" {
			if err := set(v); err != nil {
				errs = append(errs, fmt.Errorf("config: %s=%q: %w", key, v, err))
			}
		}
	}

	str("HANAMI_JOB", &c.Job)
	str("HANAMI_ADDR", &c.Server.Addr)
	str("HANAMI_GIN_MODE", &c.Server.Mode)
	num("HANAMI_UPLOAD_RATE", func(v string) (err error) {
		c.Server.UploadRatePerSec, err = strconv.ParseFloat(v, 64)
		return err
	})
	num("HANAMI_UPLOAD_BURST", func(v string) (err error) {
		c.Server.UploadBurst, err = strconv.Atoi(v)
		return err
	})
	num("HANAMI_MAX_UPLOAD_BYTES", func(v string) (err error) {
		c.Server.MaxUploadBytes, err = strconv.ParseInt(v, 10, 64)
		return err
	})
	str("HANAMI_RAW_DIR", &c.Ingest.RawDir)
	num("HANAMI_MAX_NULL_FRACTION", func(v string) (err error) {
		c.Ingest.MaxNullFraction, err = strconv.ParseFloat(v, 64)
		return err
	})
	str("HANAMI_STORAGE_KIND", &c.Storage.Kind)
	str("HANAMI_DSN", &c.Storage.DSN)
	str("HANAMI_TABLE", &c.Storage.Table)
	num("HANAMI_AUTO_CREATE_TABLE", func(v string) (err error) {
		c.Storage.AutoCreateTable, err = strconv.ParseBool(v)
		return err
	})
	num("HANAMI_BATCH_SIZE", func(v string) (err error) {
		c.Storage.BatchSize, err = strconv.Atoi(v)
		return err
	})
	str("HANAMI_METRICS_BACKEND", &c.Metrics.Backend)
	str("HANAMI_PUSHGATEWAY_URL", &c.Metrics.PushgatewayURL)
	str("HANAMI_DD_ADDR", &c.Metrics.Datadog.Addr)
	str("HANAMI_LOG_MODE", &c.Log.Mode)

	return errors.Join(errs...)
}
