// Package httpwriter POSTs records to a webhook-style endpoint. Grounded
// on the HTTP sink's request construction and ping check, trimmed to the
// single-record write path (no batching, since chanlog dispatches one
// record at a time).
package httpwriter

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
)

// Config names the target URL, optional static headers, and the method
// used to health-check it.
type Config struct {
	URL        string
	Headers    map[string]string
	PingMethod string // defaults to HEAD
}

// Writer POSTs data to Config.URL.
type Writer struct {
	url        string
	client     *http.Client
	headers    map[string]string
	pingMethod string
}

// New constructs a Writer for cfg.
func New(cfg Config) (*Writer, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("httpwriter: url must be non-empty")
	}
	pingMethod := cfg.PingMethod
	if pingMethod == "" {
		pingMethod = http.MethodHead
	}
	return &Writer{
		url:        cfg.URL,
		client:     &http.Client{},
		headers:    cfg.Headers,
		pingMethod: pingMethod,
	}, nil
}

// Write POSTs data as the request body.
func (w *Writer) Write(ctx context.Context, _ string, data any) ([]byte, error) {
	var body []byte
	switch v := data.(type) {
	case []byte:
		body = v
	case string:
		body = []byte(v)
	default:
		body = []byte(fmt.Sprintf("%v", v))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("httpwriter: build request: %w", err)
	}
	for k, v := range w.headers {
		req.Header.Set(k, v)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("httpwriter: do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("httpwriter: unexpected status %d", resp.StatusCode)
	}
	return body, nil
}

// Writee returns the target URL.
func (w *Writer) Writee() any { return w.url }

// Ping checks the endpoint is reachable via the configured method.
func (w *Writer) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, w.pingMethod, w.url, nil)
	if err != nil {
		return fmt.Errorf("httpwriter: build ping request: %w", err)
	}
	for k, v := range w.headers {
		req.Header.Set(k, v)
	}
	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("httpwriter: ping: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("httpwriter: ping status %d", resp.StatusCode)
	}
	return nil
}

// Close releases idle connections.
func (w *Writer) Close() error {
	w.client.CloseIdleConnections()
	return nil
}
