// Package kafkawriter ships records to a Kafka topic. Grounded on the
// Kafka sink's writer setup (least-bytes balancer, optional SASL/plain,
// auto topic creation) trimmed to the single-message write path.
package kafkawriter

import (
	"context"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/sasl/plain"
)

// Config names the target topic and optional SASL credentials.
type Config struct {
	Brokers  []string
	Topic    string
	Username string
	Password string
}

// Writer publishes one kafka.Message per Write call, keyed by a caller
// supplied id when data implements keyer, else unkeyed.
type Writer struct {
	writer    *kafka.Writer
	transport *kafka.Transport
	topic     string
}

// keyer lets a caller's data type supply its own partition key without
// coupling this writer to any particular record shape.
type keyer interface{ Key() string }

// New constructs a Writer for cfg. Brokers and Topic are required.
func New(cfg Config) (*Writer, error) {
	if len(cfg.Brokers) == 0 || cfg.Topic == "" {
		return nil, fmt.Errorf("kafkawriter: brokers and topic are required")
	}

	var transport *kafka.Transport
	if cfg.Username != "" {
		transport = &kafka.Transport{
			SASL: plain.Mechanism{Username: cfg.Username, Password: cfg.Password},
		}
	}

	return &Writer{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(cfg.Brokers...),
			Topic:                  cfg.Topic,
			Balancer:               &kafka.LeastBytes{},
			AllowAutoTopicCreation: true,
			Transport:              transport,
		},
		transport: transport,
		topic:     cfg.Topic,
	}, nil
}

// Write publishes data to the configured topic as the message value:
// []byte and string are sent as-is, anything else is rendered with fmt.
// format is not used.
func (w *Writer) Write(ctx context.Context, format string, data any) ([]byte, error) {
	var value []byte
	switch v := data.(type) {
	case []byte:
		value = v
	case string:
		value = []byte(v)
	default:
		value = []byte(fmt.Sprintf("%v", v))
	}

	msg := kafka.Message{Value: value}
	if k, ok := data.(keyer); ok {
		msg.Key = []byte(k.Key())
	}

	if err := w.writer.WriteMessages(ctx, msg); err != nil {
		return nil, fmt.Errorf("kafkawriter: write to topic %s: %w", w.topic, err)
	}
	return value, nil
}

// Writee returns the target topic name.
func (w *Writer) Writee() any { return w.topic }

// Ping checks broker connectivity for the configured topic, mirroring the
// sink's health check.
func (w *Writer) Ping(ctx context.Context) error {
	client := &kafka.Client{Addr: w.writer.Addr, Transport: w.transport, Timeout: 10 * time.Second}
	_, err := client.Metadata(ctx, &kafka.MetadataRequest{Topics: []string{w.topic}})
	if err != nil {
		return fmt.Errorf("kafkawriter: ping: %w", err)
	}
	return nil
}

// Close releases the underlying writer's connections.
func (w *Writer) Close() error {
	return w.writer.Close()
}
