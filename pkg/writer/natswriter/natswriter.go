// Package natswriter publishes records to a NATS JetStream subject.
// Grounded on the NATS JetStream sink's connect/publish/ping shape.
package natswriter

import (
	"context"
	"fmt"

	"github.com/nats-io/nats.go"
)

// Config names the server and subject to publish to, with optional auth.
type Config struct {
	URL      string
	Subject  string
	Username string
	Password string
	Token    string
}

// Writer publishes one JetStream message per Write call.
type Writer struct {
	nc      *nats.Conn
	js      nats.JetStreamContext
	subject string
}

// New connects to cfg.URL and opens a JetStream context for cfg.Subject.
func New(cfg Config) (*Writer, error) {
	var opts []nats.Option
	switch {
	case cfg.Token != "":
		opts = append(opts, nats.Token(cfg.Token))
	case cfg.Username != "":
		opts = append(opts, nats.UserInfo(cfg.Username, cfg.Password))
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("natswriter: connect: %w", err)
	}
	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("natswriter: jetstream context: %w", err)
	}
	return &Writer{nc: nc, js: js, subject: cfg.Subject}, nil
}

// Write publishes data to the configured subject.
func (w *Writer) Write(ctx context.Context, _ string, data any) ([]byte, error) {
	var payload []byte
	switch v := data.(type) {
	case []byte:
		payload = v
	case string:
		payload = []byte(v)
	default:
		payload = []byte(fmt.Sprintf("%v", v))
	}

	if _, err := w.js.Publish(w.subject, payload, nats.Context(ctx)); err != nil {
		return nil, fmt.Errorf("natswriter: publish to %s: %w", w.subject, err)
	}
	return payload, nil
}

// Writee returns the target subject.
func (w *Writer) Writee() any { return w.subject }

// Ping reports whether the underlying connection is alive.
func (w *Writer) Ping(context.Context) error {
	if w.nc == nil || !w.nc.IsConnected() {
		return fmt.Errorf("natswriter: not connected")
	}
	return nil
}

// Close closes the NATS connection.
func (w *Writer) Close() error {
	w.nc.Close()
	return nil
}
