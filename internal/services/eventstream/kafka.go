// Package eventstream adapts the auxiliary event-stream sink onto
// segmentio/kafka-go, mapping the EVENTHUB_* environment variables onto a
// broker address and topic (spec.md §6.2, §1 "An auxiliary event-stream
// sink").
package eventstream

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"

	"github.com/okuma-coupler/bridge/internal/domain"
	"github.com/okuma-coupler/bridge/internal/middleware/logging"
)

// Sink publishes MacMan envelopes as best-effort, fire-and-continue writes
// (spec.md §7 "Event-stream publish failure").
type Sink struct {
	writer *kafka.Writer
}

// New builds a Sink from the EVENTHUB_CONNECTION_STRING broker address and
// EVENTHUB_NAME topic. Callers should check EVENTHUB_ENABLED before
// constructing one; a disabled sink is represented by the noop sink below.
func New(connectionString, name string) *Sink {
	return &Sink{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(connectionString),
			Topic:    name,
			Balancer: &kafka.LeastBytes{},
		},
	}
}

func (s *Sink) Publish(ctx context.Context, key string, envelope domain.Envelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("eventstream: marshal envelope: %w", err)
	}
	return s.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: payload,
	})
}

func (s *Sink) Close() error {
	return s.writer.Close()
}

// NoopSink satisfies interfaces.EventSink when EVENTHUB_ENABLED is false
// (spec.md §6.2 "Master switch for the event-stream sink").
type NoopSink struct {
	logger *logging.Logger
}

func NewNoopSink(logger *logging.Logger) *NoopSink {
	return &NoopSink{logger: logger.WithPrefix("EVENTSTREAM")}
}

func (n *NoopSink) Publish(ctx context.Context, key string, envelope domain.Envelope) error {
	n.logger.Debug("Event-stream disabled, dropping envelope", "key", key)
	return nil
}

func (n *NoopSink) Close() error { return nil }
