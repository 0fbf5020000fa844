// Package kafkasink forwards audit events to a Kafka topic as JSON.
package kafkasink

import (
	"context"
	"encoding/json"
	"fmt"

	audit "finsight/pkg/platform/audit"
)

// Producer writes a keyed record to a topic.
type Producer interface {
	Produce(ctx context.Context, topic string, key, value []byte) error
}

// Sink is an audit store backed by a Kafka topic.
type Sink struct {
	producer Producer
	topic    string
}

// New creates a sink publishing to topic.
func New(producer Producer, topic string) *Sink {
	return &Sink{producer: producer, topic: topic}
}

// Append publishes event. Records are keyed by session, then user, then
// subject so related events stay on one partition.
func (s *Sink) Append(ctx context.Context, event audit.Event) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode audit event: %w", err)
	}
	return s.producer.Produce(ctx, s.topic, []byte(partitionKey(event)), value)
}

func partitionKey(e audit.Event) string {
	switch {
	case e.SessionID != "":
		return e.SessionID
	case e.UserID != "":
		return e.UserID
	default:
		return e.Subject
	}
}
