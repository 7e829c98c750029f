package analyze

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Alias1177/stockgpt/models"
)

// Connectivity reports whether the host can reach the network
type Connectivity interface {
	Online(ctx context.Context) bool
}

// DialProbe considers the host online when a TCP connection to Address
// succeeds. When a proxy is configured for https://Address the proxy is
// dialed instead, since that is where API traffic goes.
type DialProbe struct {
	Address string
	Timeout time.Duration
	// Proxy picks the proxy for a request; nil means http.ProxyFromEnvironment
	Proxy func(*http.Request) (*url.URL, error)
}

// Online dials the probe target once
func (p DialProbe) Online(ctx context.Context) bool {
	timeout := p.Timeout
	if timeout == 0 {
		timeout = 3 * time.Second
	}
	dialer := net.Dialer{Timeout: timeout}
	conn, err := dialer.DialContext(ctx, "tcp", p.target())
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

func (p DialProbe) target() string {
	proxy := p.Proxy
	if proxy == nil {
		proxy = http.ProxyFromEnvironment
	}
	proxyURL, err := proxy(&http.Request{URL: &url.URL{Scheme: "https", Host: p.Address}})
	if err != nil || proxyURL == nil || proxyURL.Hostname() == "" {
		return p.Address
	}
	if proxyURL.Port() != "" {
		return proxyURL.Host
	}
	port := "80"
	if proxyURL.Scheme == "https" {
		port = "443"
	}
	return net.JoinHostPort(proxyURL.Hostname(), port)
}

type assumeOnline struct{}

func (assumeOnline) Online(context.Context) bool { return true }

// ParseRequest trims the raw query and rejects it when it is empty or
// shorter than minLength characters.
func ParseRequest(raw string, minLength int) (models.AnalysisRequest, error) {
	query := strings.TrimSpace(raw)
	if query == "" {
		return models.AnalysisRequest{}, newClassified(CodeInvalidInput, nil)
	}
	if minLength > 1 && utf8.RuneCountInString(query) < minLength {
		err := newClassified(CodeInvalidInput, nil)
		err.Message = fmt.Sprintf("Query must be at least %d characters.", minLength)
		return models.AnalysisRequest{}, err
	}
	return models.AnalysisRequest{Query: query}, nil
}

// preflight runs before the first attempt only. Connectivity is not
// rechecked between retries.
func (a *Analyzer) preflight(ctx context.Context, raw string) (models.AnalysisRequest, error) {
	req, err := ParseRequest(raw, a.opts.MinQueryLength)
	if err != nil {
		return req, err
	}
	if !a.probe.Online(ctx) {
		return req, newClassified(CodeOffline, nil)
	}
	return req, nil
}
