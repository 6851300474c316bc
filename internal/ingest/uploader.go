package ingest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/zeebo/xxh3"

	"hanami/internal/logger"
	"hanami/internal/metrics"
	"hanami/internal/storage"
)

// StatusOK is the status reported for an accepted upload.
const StatusOK = "sucesso"

// UploadResult describes an accepted upload.
type UploadResult struct {
	Status    string `json:"status"`
	Processed int    `json:"linhas_processadas"`
	Removed   int    `json:"linhas_removidas"`
	Skipped   int    `json:"linhas_ignoradas"`
	File      string `json:"arquivo"`
	Checksum  string `json:"checksum"`
}

// Uploader keeps the raw bytes of an upload, runs the pipeline over them and
// appends the clean dataset to the repository.
type Uploader struct {
	Pipeline *Pipeline
	Repo     storage.Repository
	// RawDir receives one file per upload. Empty keeps uploads in memory only.
	RawDir string
	Job    string
	Logger *logger.Logger
}

// Upload ingests r under the client-supplied filename. Rejected uploads leave
// no raw file behind; a failed save keeps it so the file can be replayed.
func (u *Uploader) Upload(ctx context.Context, filename string, r io.Reader) (*UploadResult, error) {
	log := u.Logger
	if log == nil {
		log = logger.Nop()
	}
	job := u.Job
	if job == "" {
		job = "upload"
	}
	base := sanitizeName(filename)

	h := xxh3.New()
	src, rawPath, err := u.spool(base, io.TeeReader(r, h))
	if err != nil {
		return nil, err
	}
	sum := fmt.Sprintf("%016x", h.Sum64())

	res := u.Pipeline.Run(base, src)
	if c, ok := src.(io.Closer); ok {
		c.Close()
	}
	if !res.OK() {
		u.discard(log, rawPath)
		return nil, res.Err
	}
	if err := ctx.Err(); err != nil {
		u.discard(log, rawPath)
		return nil, fmt.Errorf("ingest: %s: %w", base, err)
	}

	n, err := u.Repo.Save(ctx, res.Dataset)
	if err != nil {
		log.Error("upload: save failed", "file", base, "raw", rawPath, "error", err)
		return nil, fmt.Errorf("ingest: save %s: %w", base, err)
	}
	metrics.RecordRows(job, "saved", n)
	log.Info("upload: stored", "file", base, "rows", n, "checksum", sum)

	return &UploadResult{
		Status:    StatusOK,
		Processed: res.Dataset.Len(),
		Removed:   res.Stats.Pruned,
		Skipped:   res.Stats.Skipped,
		File:      base,
		Checksum:  sum,
	}, nil
}

// spool drains r either into a new raw file under RawDir or into memory, and
// returns a reader positioned at the start of the copied bytes.
func (u *Uploader) spool(base string, r io.Reader) (io.Reader, string, error) {
	if u.RawDir == "" {
		var buf bytes.Buffer
		if _, err := io.Copy(&buf, r); err != nil {
			return nil, "", fmt.Errorf("ingest: read upload: %w", err)
		}
		return &buf, "", nil
	}

	if err := os.MkdirAll(u.RawDir, 0o755); err != nil {
		return nil, "", fmt.Errorf("ingest: raw dir: %w", err)
	}
	path := filepath.Join(u.RawDir, strings.ReplaceAll(uuid.New().String(), "-", "")+"_"+base)
	f, err := os.Create(path)
	if err != nil {
		return nil, "", fmt.Errorf("ingest: create raw file: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(path)
		return nil, "", fmt.Errorf("ingest: write raw file: %w", err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		f.Close()
		os.Remove(path)
		return nil, "", fmt.Errorf("ingest: rewind raw file: %w", err)
	}
	return f, path, nil
}

func (u *Uploader) discard(log *logger.Logger, path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		log.Warn("upload: remove raw file", "path", path, "error", err)
	}
}

// sanitizeName keeps only the final path element of a client filename.
func sanitizeName(name string) string {
	name = strings.ReplaceAll(name, `\`, "/")
	base := filepath.Base(name)
	if base == "." || base == "/" || base == ".." {
		return "upload"
	}
	return base
}
