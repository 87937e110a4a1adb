// Package rediswriter publishes records onto a Redis stream via XAdd.
// Grounded on the Redis sink's shape and constructor signature, but wired
// to an actual go-redis client: the original was a deliberate
// fmt.Printf placeholder with the real client commented out.
package rediswriter

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Config names the server, optional auth, and target stream.
type Config struct {
	Addr     string
	Password string
	DB       int
	Stream   string
}

// Writer appends one entry to a Redis stream per Write call.
type Writer struct {
	client *redis.Client
	stream string
}

// New constructs a Writer connected to cfg.Addr.
func New(cfg Config) (*Writer, error) {
	if cfg.Stream == "" {
		return nil, fmt.Errorf("rediswriter: stream must be non-empty")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return &Writer{client: client, stream: cfg.Stream}, nil
}

// Write appends data to the configured stream under a single "data" field.
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

	err := w.client.XAdd(ctx, &redis.XAddArgs{
		Stream: w.stream,
		Values: map[string]any{"data": payload},
	}).Err()
	if err != nil {
		return nil, fmt.Errorf("rediswriter: xadd to %s: %w", w.stream, err)
	}
	return payload, nil
}

// Writee returns the target stream name.
func (w *Writer) Writee() any { return w.stream }

// Ping checks connectivity.
func (w *Writer) Ping(ctx context.Context) error {
	if err := w.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("rediswriter: ping: %w", err)
	}
	return nil
}

// Close releases the underlying client's connections.
func (w *Writer) Close() error {
	return w.client.Close()
}
