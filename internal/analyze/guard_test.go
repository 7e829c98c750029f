package analyze

import (
	"context"
	"net"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func proxyAt(raw string) func(*http.Request) (*url.URL, error) {
	return func(*http.Request) (*url.URL, error) {
		if raw == "" {
			return nil, nil
		}
		return url.Parse(raw)
	}
}

func closedAddress(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())
	return addr
}

func TestDialProbeOnline(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	open := ln.Addr().String()
	closed := closedAddress(t)

	tests := []struct {
		name    string
		address string
		proxy   string
		want    bool
	}{
		{name: "direct reachable", address: open, want: true},
		{name: "direct unreachable", address: closed, want: false},
		{name: "through reachable proxy", address: "api.example.invalid:443", proxy: "http://" + open, want: true},
		{name: "through unreachable proxy", address: open, proxy: "http://" + closed, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			probe := DialProbe{Address: tt.address, Timeout: time.Second, Proxy: proxyAt(tt.proxy)}
			assert.Equal(t, tt.want, probe.Online(context.Background()))
		})
	}
}

func TestDialProbeTarget(t *testing.T) {
	tests := []struct {
		name  string
		proxy string
		want  string
	}{
		{name: "no proxy", want: "generativelanguage.googleapis.com:443"},
		{name: "proxy with port", proxy: "http://proxy.corp:3128", want: "proxy.corp:3128"},
		{name: "http proxy default port", proxy: "http://proxy.corp", want: "proxy.corp:80"},
		{name: "https proxy default port", proxy: "https://proxy.corp", want: "proxy.corp:443"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			probe := DialProbe{Address: "generativelanguage.googleapis.com:443", Proxy: proxyAt(tt.proxy)}
			assert.Equal(t, tt.want, probe.target())
		})
	}
}
