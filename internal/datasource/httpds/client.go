// Package httpds fetches upload files over HTTP with retry and exponential
// backoff on transient failures (transport errors, 429 and 5xx).
package httpds

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"time"

	"hanami/internal/logger"
)

// Config configures a Client. Zero values get defaults: 60s timeout,
// 200ms initial backoff, 5s max backoff, no retries.
type Config struct {
	Timeout        time.Duration
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Header         http.Header
	// Transport replaces http.DefaultTransport, mainly for tests.
	Transport http.RoundTripper
	Logger    *logger.Logger
}

// Client is safe for concurrent use.
type Client struct {
	hc         *http.Client
	retries    int
	initial    time.Duration
	maxBackoff time.Duration
	header     http.Header
	log        *logger.Logger
}

// NewClient builds a client from cfg.
func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = 200 * time.Millisecond
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = 5 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Nop()
	}
	return &Client{
		hc:         &http.Client{Timeout: cfg.Timeout, Transport: cfg.Transport},
		retries:    cfg.MaxRetries,
		initial:    cfg.InitialBackoff,
		maxBackoff: cfg.MaxBackoff,
		header:     cfg.Header.Clone(),
		log:        cfg.Logger,
	}
}

// StatusError is returned for a final non-2xx response.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("httpds: GET %s: status %d", e.URL, e.Code)
}

// Get fetches rawURL. The caller closes the body of the returned response,
// which always has a 2xx status.
func (c *Client) Get(ctx context.Context, rawURL string) (*http.Response, error) {
	var lastErr error
	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			d := backoff(c.initial, attempt-1, c.maxBackoff)
			c.log.Warn("httpds: retrying", "url", rawURL, "attempt", attempt, "wait", d.String(), "error", lastErr)
			if err := wait(ctx, d); err != nil {
				return nil, err
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, fmt.Errorf("httpds: build request: %w", err)
		}
		for k, vs := range c.header {
			for _, v := range vs {
				req.Header.Add(k, v)
			}
		}

		resp, err := c.hc.Do(req)
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			return resp, nil
		default:
			io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			lastErr = &StatusError{URL: rawURL, Code: resp.StatusCode}
			if !retryable(resp.StatusCode) {
				return nil, lastErr
			}
		}
	}
	return nil, lastErr
}

func retryable(code int) bool {
	return code == http.StatusTooManyRequests || code >= 500
}

// backoff returns initial*2^n capped at max.
func backoff(initial time.Duration, n int, max time.Duration) time.Duration {
	d := initial
	for i := 0; i < n && d < max; i++ {
		d *= 2
	}
	if d > max {
		return max
	}
	return d
}

func wait(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Source is a remote upload file.
type Source struct {
	c   *Client
	url string
}

// NewSource binds rawURL to c.
func NewSource(c *Client, rawURL string) *Source { return &Source{c: c, url: rawURL} }

// Name returns the last element of the URL path, which carries the suffix
// the format is derived from.
func (s *Source) Name() string {
	u, err := url.Parse(s.url)
	if err != nil || u.Path == "" || u.Path == "/" {
		return "download"
	}
	return path.Base(u.Path)
}

// Open starts the download.
func (s *Source) Open(ctx context.Context) (io.ReadCloser, error) {
	resp, err := s.c.Get(ctx, s.url)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}
