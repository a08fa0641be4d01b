package search

import (
	"bytes"
	"io"
	"net/http"

	"github.com/rs/zerolog"
)

// DebugTransport wraps an http.RoundTripper and logs request URL and body.
// The Authorization header is never logged.
type DebugTransport struct {
	Transport http.RoundTripper
	Log       zerolog.Logger
}

// RoundTrip implements http.RoundTripper interface
func (d *DebugTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	event := d.Log.Debug().Str("method", req.Method).Str("url", req.URL.String())

	if req.Body != nil && req.ContentLength > 0 {
		bodyBytes, err := io.ReadAll(req.Body)
		if err == nil {
			req.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))
			bodyStr := string(bodyBytes)
			if len(bodyStr) > 5000 {
				bodyStr = bodyStr[:5000] + "... [truncated]"
			}
			event = event.Str("body", bodyStr)
		}
	}
	event.Msg("api request")

	return d.Transport.RoundTrip(req)
}

// WrapClientWithDebug wraps an http.Client with debug logging if debug is enabled
func WrapClientWithDebug(client *http.Client, log zerolog.Logger, debug bool) *http.Client {
	if !debug {
		return client
	}

	transport := client.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}

	return &http.Client{
		Transport: &DebugTransport{Transport: transport, Log: log},
		Timeout:   client.Timeout,
	}
}
