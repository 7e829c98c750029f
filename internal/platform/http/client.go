package http

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// ClientOptions holds options for creating a new client
type ClientOptions struct {
	// Timeout bounds a whole exchange. Zero leaves it to the request context.
	Timeout           time.Duration
	RequestsPerMinute int
	Burst             int
	Transport         http.RoundTripper
}

// NewClient creates an HTTP client whose requests wait for a token from a
// shared limiter before they go on the wire. Nothing is retried here; one
// request in is one request out.
func NewClient(opts ClientOptions) *http.Client {
	if opts.RequestsPerMinute <= 0 {
		opts.RequestsPerMinute = 30
	}
	if opts.Burst <= 0 {
		opts.Burst = 1
	}
	base := opts.Transport
	if base == nil {
		base = http.DefaultTransport
	}

	return &http.Client{
		Timeout: opts.Timeout,
		Transport: &LimitedTransport{
			Base:    base,
			Limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(opts.RequestsPerMinute)), opts.Burst),
			logger:  log.With().Str("component", "http_client").Logger(),
		},
	}
}

// LimitedTransport is a RoundTripper with client-side rate limiting
type LimitedTransport struct {
	Base    http.RoundTripper
	Limiter *rate.Limiter
	logger  zerolog.Logger
}

// RoundTrip waits for the limiter and forwards the request to Base
func (t *LimitedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	if err := t.Limiter.Wait(req.Context()); err != nil {
		return nil, err
	}
	if waited := time.Since(start); waited > time.Second {
		t.logger.Debug().Dur("waited", waited).Str("host", req.URL.Host).Msg("Request delayed by rate limiter")
	}

	resp, err := t.Base.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= http.StatusBadRequest {
		t.logger.Debug().Int("status", resp.StatusCode).Str("host", req.URL.Host).Msg("Upstream returned error status")
	}
	return resp, nil
}
