// Package datasource opens sales files for one-shot ingestion. A location is
// either a local path or an http(s) URL; Name reports the file name the
// format is derived from.
package datasource

import (
	"context"
	"io"
	"strings"

	"hanami/internal/datasource/file"
	"hanami/internal/datasource/httpds"
)

// Source is a named, re-openable byte stream.
type Source interface {
	Name() string
	Open(ctx context.Context) (io.ReadCloser, error)
}

// For returns the source for loc. URLs are fetched with c, which may be nil
// for a default client.
func For(loc string, c *httpds.Client) Source {
	lower := strings.ToLower(loc)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		if c == nil {
			c = httpds.NewClient(httpds.Config{})
		}
		return httpds.NewSource(c, loc)
	}
	return file.NewLocal(loc)
}
