package providers

import (
	"bytes"
	"io"
	"net/http"
	"strings"
	"time"

	"ggpbench/internal/logger"

	"github.com/charmbracelet/log"
)

// maxTracedBody bounds how much of a request or response body is logged.
const maxTracedBody = 2048

// secretHeaders are never logged in clear.
var secretHeaders = map[string]bool{
	"authorization":  true,
	"x-api-key":      true,
	"x-goog-api-key": true,
	"api-key":        true,
}

// newHTTPClient returns the HTTP client every vendor SDK is configured with: the
// entry's timeout and a transport that traces exchanges at debug level.
func newHTTPClient(entry Entry) *http.Client {
	return &http.Client{
		Timeout:   entry.Timeout,
		Transport: &traceTransport{base: http.DefaultTransport, provider: entry.ID, logger: logger.NewStyledLogger("http")},
	}
}

// traceTransport logs each request and response with secrets redacted.
type traceTransport struct {
	base     http.RoundTripper
	provider string
	logger   *log.Logger
}

// RoundTrip implements http.RoundTripper.
func (t *traceTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.logger.GetLevel() > log.DebugLevel {
		return t.base.RoundTrip(req)
	}

	start := time.Now()
	reqBody := peekBody(&req.Body)
	t.logger.Debug("request", "provider", t.provider, "method", req.Method, "url", req.URL.Redacted(),
		"headers", sanitizeHeaders(req.Header), "body", reqBody)

	resp, err := t.base.RoundTrip(req)
	elapsed := time.Since(start).Round(time.Millisecond)
	if err != nil {
		t.logger.Debug("request failed", "provider", t.provider, "elapsed", elapsed, "error", err)
		return resp, err
	}

	t.logger.Debug("response", "provider", t.provider, "status", resp.StatusCode, "elapsed", elapsed,
		"body", peekBody(&resp.Body))
	return resp, nil
}

// peekBody reads *body for logging and replaces it with an unread copy.
func peekBody(body *io.ReadCloser) string {
	if *body == nil || *body == http.NoBody {
		return ""
	}
	data, err := io.ReadAll(*body)
	_ = (*body).Close()
	*body = io.NopCloser(bytes.NewReader(data))
	if err != nil {
		return "<unreadable: " + err.Error() + ">"
	}
	if len(data) > maxTracedBody {
		return string(data[:maxTracedBody]) + "…"
	}
	return string(data)
}

func sanitizeHeaders(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for name, values := range h {
		value := strings.Join(values, ", ")
		if secretHeaders[strings.ToLower(name)] {
			value = "[redacted]"
		}
		out[name] = value
	}
	return out
}
