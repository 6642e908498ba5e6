// Package kafka publishes audit events to a Kafka topic using franz-go.
package kafka

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	"novenantes/pkg/platform/audit"
)

const produceTimeout = 5 * time.Second

// Publisher writes audit events to a single topic, keyed by actor id so a
// user's trail stays ordered within a partition.
type Publisher struct {
	client *kgo.Client
	topic  string
	logger *slog.Logger
}

// New connects a Kafka client against the seed brokers.
func New(brokers []string, topic string, logger *slog.Logger) (*Publisher, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ProducerBatchMaxBytes(1 << 20),
	)
	if err != nil {
		return nil, err
	}
	return &Publisher{client: client, topic: topic, logger: logger}, nil
}

// Emit publishes the event. Failures are logged, not returned: audit is
// best-effort and must never fail the business operation.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.ErrorContext(ctx, "failed to marshal audit event", "action", event.Action, "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(ctx, produceTimeout)
	defer cancel()

	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(strconv.FormatInt(event.ActorID, 10)),
		Value: payload,
	}
	if err := p.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		p.logger.ErrorContext(ctx, "failed to publish audit event",
			"action", event.Action,
			"topic", p.topic,
			"error", err,
		)
	}
}

// Close flushes and shuts down the underlying client.
func (p *Publisher) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), produceTimeout)
	defer cancel()
	_ = p.client.Flush(ctx)
	p.client.Close()
}
