// Package kafka delivers audit events and operational alerts to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	audit "apertura/pkg/platform/audit"
)

// Message is the JSON value written for every event. The record key is the
// solicitud id so all events of one solicitud land on the same partition.
type Message struct {
	Category    string    `json:"category"`
	Action      string    `json:"action"`
	SolicitudID string    `json:"solicitud_id,omitempty"`
	UserID      string    `json:"user_id,omitempty"`
	Subject     string    `json:"subject,omitempty"`
	Decision    string    `json:"decision,omitempty"`
	Reason      string    `json:"reason,omitempty"`
	Severity    string    `json:"severity,omitempty"`
	RequestID   string    `json:"request_id,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// Publisher implements audit.Sink over a franz-go client.
type Publisher struct {
	client *kgo.Client
	topic  string
}

// New connects a producer to brokers. Extra client options are appended to the
// defaults, which require acks from all in-sync replicas.
func New(brokers []string, topic string, opts ...kgo.Opt) (*Publisher, error) {
	if len(brokers) == 0 {
		return nil, errors.New("kafka: at least one broker is required")
	}
	if topic == "" {
		return nil, errors.New("kafka: topic is required")
	}
	base := []kgo.Opt{
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.RequiredAcks(kgo.AllISRAcks()),
		kgo.ProducerBatchCompression(kgo.SnappyCompression(), kgo.NoCompression()),
	}
	client, err := kgo.NewClient(append(base, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return &Publisher{client: client, topic: topic}, nil
}

// EnsureTopic creates the topic when it does not exist yet.
func (p *Publisher) EnsureTopic(ctx context.Context, partitions int32, replicationFactor int16) error {
	adm := kadm.NewClient(p.client)
	resp, err := adm.CreateTopics(ctx, partitions, replicationFactor, nil, p.topic)
	if err != nil {
		return fmt.Errorf("create topic %s: %w", p.topic, err)
	}
	for _, r := range resp {
		if r.Err != nil && !errors.Is(r.Err, kerr.TopicAlreadyExists) {
			return fmt.Errorf("create topic %s: %w", r.Topic, r.Err)
		}
	}
	return nil
}

// Ping checks that at least one broker answers.
func (p *Publisher) Ping(ctx context.Context) error {
	return p.client.Ping(ctx)
}

// Append produces the event synchronously.
func (p *Publisher) Append(ctx context.Context, event audit.Event) error {
	value, err := json.Marshal(toMessage(event))
	if err != nil {
		return fmt.Errorf("marshal audit message: %w", err)
	}
	record := &kgo.Record{
		Topic: p.topic,
		Value: value,
		Headers: []kgo.RecordHeader{
			{Key: "category", Value: []byte(messageCategory(event))},
			{Key: "action", Value: []byte(event.Action)},
		},
	}
	if !event.SolicitudID.IsNil() {
		record.Key = []byte(event.SolicitudID.String())
	}
	if err := p.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce audit message: %w", err)
	}
	return nil
}

func (p *Publisher) Close() {
	p.client.Close()
}

func messageCategory(event audit.Event) string {
	if event.Category != "" {
		return string(event.Category)
	}
	return string(audit.AuditEvent(event.Action).Category())
}

func toMessage(event audit.Event) Message {
	msg := Message{
		Category:  messageCategory(event),
		Action:    event.Action,
		Subject:   event.Subject,
		Decision:  event.Decision,
		Reason:    event.Reason,
		Severity:  string(event.Severity),
		RequestID: event.RequestID,
		Timestamp: event.Timestamp.UTC(),
	}
	if !event.SolicitudID.IsNil() {
		msg.SolicitudID = event.SolicitudID.String()
	}
	if !event.UserID.IsNil() {
		msg.UserID = event.UserID.String()
	}
	return msg
}
