//go:build integration

package kafka_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"github.com/twmb/franz-go/pkg/kgo"

	id "apertura/pkg/domain"
	audit "apertura/pkg/platform/audit"
	"apertura/pkg/platform/audit/publishers/kafka"
	"apertura/pkg/testutil/containers"
)

type KafkaPublisherSuite struct {
	suite.Suite
	redpanda *containers.RedpandaContainer
}

func TestKafkaPublisherSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(KafkaPublisherSuite))
}

func (s *KafkaPublisherSuite) SetupSuite() {
	s.redpanda = containers.GetManager().GetRedpanda(s.T())
}

func (s *KafkaPublisherSuite) TestAppendProducesKeyedMessage() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	topic := "alerts-" + uuid.NewString()
	pub, err := kafka.New(s.redpanda.Brokers, topic)
	s.Require().NoError(err)
	defer pub.Close()

	s.Require().NoError(pub.EnsureTopic(ctx, 1, 1))
	s.Require().NoError(pub.EnsureTopic(ctx, 1, 1), "second ensure must tolerate an existing topic")

	solicitudID := id.SolicitudID(uuid.New())
	s.Require().NoError(pub.Append(ctx, audit.Alert{
		Timestamp:   time.Now(),
		SolicitudID: solicitudID,
		Action:      string(audit.EventAccountRegistrationFailed),
		Reason:      "registry unavailable",
		Severity:    audit.SeverityCritical,
	}.ToEvent()))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(s.redpanda.Brokers...),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	s.Require().NoError(err)
	defer consumer.Close()

	var records []*kgo.Record
	for len(records) == 0 {
		fetches := consumer.PollFetches(ctx)
		s.Require().NoError(ctx.Err())
		fetches.EachRecord(func(r *kgo.Record) {
			records = append(records, r)
		})
	}

	s.Require().Len(records, 1)
	s.Equal(solicitudID.String(), string(records[0].Key))

	var msg kafka.Message
	s.Require().NoError(json.Unmarshal(records[0].Value, &msg))
	s.Equal("operations", msg.Category)
	s.Equal("critical", msg.Severity)
	s.Equal("registry unavailable", msg.Reason)
}
