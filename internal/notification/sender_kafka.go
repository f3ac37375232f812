package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"
)

// KafkaSender publishes messages to the mailer topic. The mailer service
// owns template rendering and SMTP delivery; this process only enqueues.
type KafkaSender struct {
	client *kgo.Client
	topic  string
}

type envelope struct {
	Kind    string          `json:"kind"`
	Payload json.RawMessage `json:"payload"`
}

// NewKafkaSender connects to the brokers and ensures the mailer topic exists.
func NewKafkaSender(ctx context.Context, brokers []string, topic string) (*KafkaSender, error) {
	if topic == "" {
		return nil, fmt.Errorf("notification topic is required")
	}

	client, err := kgo.NewClient(kgo.SeedBrokers(brokers...))
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}

	adm := kadm.NewClient(client)
	resp, err := adm.CreateTopics(ctx, 3, 1, nil, topic)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("ensure notification topic: %w", err)
	}
	for _, res := range resp {
		if res.Err != nil && !errors.Is(res.Err, kerr.TopicAlreadyExists) {
			client.Close()
			return nil, fmt.Errorf("ensure notification topic %s: %w", res.Topic, res.Err)
		}
	}

	return &KafkaSender{client: client, topic: topic}, nil
}

func (s *KafkaSender) SendStatusUpdate(ctx context.Context, msg StatusUpdate) error {
	return s.produce(ctx, "status_update", msg.ApplicationID, msg)
}

func (s *KafkaSender) SendInterviewScheduled(ctx context.Context, msg InterviewInvite) error {
	return s.produce(ctx, "interview_scheduled", msg.ApplicationID, msg)
}

func (s *KafkaSender) produce(ctx context.Context, kind, key string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", kind, err)
	}
	value, err := json.Marshal(envelope{Kind: kind, Payload: raw})
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}

	record := &kgo.Record{Topic: s.topic, Key: []byte(key), Value: value}
	if err := s.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce %s: %w", kind, err)
	}
	return nil
}

// Close flushes buffered records and releases the client.
func (s *KafkaSender) Close() {
	s.client.Close()
}
