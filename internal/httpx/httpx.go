// Package httpx builds the HTTP clients shared by the platform fetchers:
// a bounded timeout, optional client-side pacing, request logging and
// upstream metrics.
package httpx

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/reviewbridge/internal/fault"
	"github.com/reviewbridge/internal/metrics"
)

// maxBody caps how much of an upstream answer is read.
const maxBody = 16 << 20

// DefaultTimeout applies when Options.Timeout is zero.
const DefaultTimeout = 10 * time.Second

// Options configure a platform client.
type Options struct {
	Platform string
	Timeout  time.Duration
	// RequestsPerSecond paces outgoing calls; zero disables pacing.
	RequestsPerSecond float64
	UserAgent         string
}

// NewClient returns an http.Client for one platform. It is safe for
// concurrent use.
func NewClient(opts Options) *http.Client {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	return &http.Client{
		Timeout:   opts.Timeout,
		Transport: NewTransport(http.DefaultTransport, opts),
	}
}

// Transport decorates a base RoundTripper.
type Transport struct {
	base      http.RoundTripper
	platform  string
	userAgent string
	limiter   *rate.Limiter
}

// NewTransport wraps base.
func NewTransport(base http.RoundTripper, opts Options) *Transport {
	t := &Transport{base: base, platform: opts.Platform, userAgent: opts.UserAgent}
	if opts.RequestsPerSecond > 0 {
		burst := int(opts.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		t.limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), burst)
	}
	return t
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	if t.limiter != nil {
		if err := t.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	if t.userAgent != "" && req.Header.Get("User-Agent") == "" {
		req = req.Clone(ctx)
		req.Header.Set("User-Agent", t.userAgent)
	}

	start := time.Now()
	resp, err := t.base.RoundTrip(req)
	elapsed := time.Since(start)

	status := 0
	if resp != nil {
		status = resp.StatusCode
	}
	metrics.ObserveUpstream(t.platform, status, elapsed)

	ev := zerolog.Ctx(ctx).Debug().
		Str("platform", t.platform).
		Str("method", req.Method).
		Str("url", req.URL.Redacted()).
		Dur("elapsed", elapsed)
	if err != nil {
		ev.Err(err).Msg("Upstream request failed")
	} else {
		ev.Int("status", status).Msg("Upstream request")
	}
	return resp, err
}

// Get issues a GET request and returns the body of a 2xx answer. Any other
// outcome is returned as a *fault.Error tagged with op.
func Get(ctx context.Context, client *http.Client, op, url string, header http.Header) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fault.FromTransport(op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fault.FromTransport(op, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fault.FromStatus(op, resp.StatusCode, body)
	}
	return body, nil
}
