// Package transport fetches suggestion payloads over HTTP.
package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/klauspost/compress/gzhttp"
	"github.com/rubiojr/gsuggest/pkg/core"
	"github.com/rubiojr/gsuggest/pkg/log"
	"github.com/rubiojr/gsuggest/pkg/version"
)

const (
	// DefaultClientTimeout is the client level backstop. Rounds apply their
	// own, usually shorter, per-request deadline through the context.
	DefaultClientTimeout = 30 * time.Second
	// DefaultMaxBodyBytes caps the size of a single payload.
	DefaultMaxBodyBytes int64 = 1 << 20
)

// HTTP implements core.Transport with a plain GET per request.
type HTTP struct {
	client       *http.Client
	userAgent    string
	maxBodyBytes int64
	logger       *log.Logger
}

type Option func(*HTTP)

// WithClient replaces the underlying client. Its transport is used as is.
func WithClient(c *http.Client) Option {
	return func(t *HTTP) {
		if c != nil {
			t.client = c
		}
	}
}

func WithUserAgent(ua string) Option {
	return func(t *HTTP) {
		if ua != "" {
			t.userAgent = ua
		}
	}
}

func WithMaxBodyBytes(n int64) Option {
	return func(t *HTTP) {
		if n > 0 {
			t.maxBodyBytes = n
		}
	}
}

// New returns a transport whose client transparently decompresses gzip and
// zstd encoded responses.
func New(opts ...Option) *HTTP {
	t := &HTTP{
		client: &http.Client{
			Timeout:   DefaultClientTimeout,
			Transport: gzhttp.Transport(http.DefaultTransport),
		},
		userAgent:    "gsuggest/" + version.Version,
		maxBodyBytes: DefaultMaxBodyBytes,
		logger:       log.ForService("transport"),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Fetch issues a GET for req.URL. Any failure, including a non-2xx status,
// is returned as a *core.TransportError.
func (t *HTTP) Fetch(ctx context.Context, req core.Request) ([]byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.URL, nil)
	if err != nil {
		return nil, t.fail(ctx, req, 0, fmt.Errorf("creating request: %w", err))
	}
	httpReq.Header.Set("User-Agent", t.userAgent)
	httpReq.Header.Set("Accept", "*/*")

	t.logger.Debugf("GET %s (region %s, generation %d)", req.URL, req.RegionID, req.Generation)

	resp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, t.fail(ctx, req, 0, err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			t.logger.Warnf("closing response body for %s: %v", req.RegionID, cerr)
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain a little so the connection can be reused.
		_, _ = io.CopyN(io.Discard, resp.Body, 4096)
		return nil, t.fail(ctx, req, resp.StatusCode, fmt.Errorf("unexpected status %s", resp.Status))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, t.maxBodyBytes+1))
	if err != nil {
		return nil, t.fail(ctx, req, resp.StatusCode, fmt.Errorf("reading body: %w", err))
	}
	if int64(len(body)) > t.maxBodyBytes {
		return nil, t.fail(ctx, req, resp.StatusCode, fmt.Errorf("body exceeds %d bytes", t.maxBodyBytes))
	}
	return body, nil
}

func (t *HTTP) fail(ctx context.Context, req core.Request, status int, err error) error {
	timeout := errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded)
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		timeout = true
	}
	return &core.TransportError{
		RegionID:   req.RegionID,
		URL:        req.URL,
		StatusCode: status,
		Timeout:    timeout,
		Err:        err,
	}
}
