// Package kafka publishes audit events to a Kafka topic. Downstream
// consumers (compliance archive, SIEM) materialize them; this process only
// produces.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	audit "membergate/pkg/platform/audit"
)

// Store implements audit.Store on a franz-go producer.
type Store struct {
	client *kgo.Client
	topic  string
}

// payload is the JSON structure published to Kafka. Field names are part of
// the consumer contract; do not rename casually.
type payload struct {
	ID            string `json:"ID"`
	Category      string `json:"Category"`
	Timestamp     string `json:"Timestamp"`
	UserID        string `json:"UserID,omitempty"`
	ApplicationID string `json:"ApplicationID,omitempty"`
	Action        string `json:"Action"`
	Decision      string `json:"Decision,omitempty"`
	Reason        string `json:"Reason,omitempty"`
	ActorID       string `json:"ActorID,omitempty"`
	RequestID     string `json:"RequestID,omitempty"`
}

// New connects to the brokers and ensures the audit topic exists.
func New(ctx context.Context, brokers []string, topic string) (*Store, error) {
	if topic == "" {
		return nil, fmt.Errorf("audit topic is required")
	}

	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}

	adm := kadm.NewClient(client)
	resp, err := adm.CreateTopics(ctx, 3, 1, nil, topic)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("ensure audit topic: %w", err)
	}
	for _, res := range resp {
		if res.Err != nil && !errors.Is(res.Err, kerr.TopicAlreadyExists) {
			client.Close()
			return nil, fmt.Errorf("ensure audit topic %s: %w", res.Topic, res.Err)
		}
	}

	return &Store{client: client, topic: topic}, nil
}

// Append publishes one audit event. Events for the same user share a
// partition key so per-user ordering survives the topic.
func (s *Store) Append(ctx context.Context, event audit.Event) error {
	category := event.Category
	if category == "" {
		category = audit.AuditEvent(event.Action).Category()
	}

	p := payload{
		ID:            uuid.NewString(),
		Category:      string(category),
		Timestamp:     event.Timestamp.Format(time.RFC3339Nano),
		ApplicationID: event.ApplicationID,
		Action:        event.Action,
		Decision:      event.Decision,
		Reason:        event.Reason,
		ActorID:       event.ActorID,
		RequestID:     event.RequestID,
	}
	if !event.UserID.IsNil() {
		p.UserID = event.UserID.String()
	}

	value, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal audit payload: %w", err)
	}

	key := []byte(p.UserID)
	if len(key) == 0 {
		key = []byte(p.ApplicationID)
	}

	record := &kgo.Record{Topic: s.topic, Key: key, Value: value}
	if err := s.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce audit event: %w", err)
	}
	return nil
}

// Close flushes buffered records and releases the client.
func (s *Store) Close() {
	s.client.Close()
}
