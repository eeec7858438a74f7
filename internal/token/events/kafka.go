package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/twmb/franz-go/pkg/kgo"

	"sigil/internal/token/models"
)

// Kafka publishes events to a Kafka topic, keyed by token ID so per-token
// ordering survives partitioning. The topic is assumed provisioned.
type Kafka struct {
	client *kgo.Client
	topic  string
}

// NewKafka connects a Kafka publisher to the given brokers.
func NewKafka(brokers []string, topic string) (*Kafka, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka client: %w", err)
	}
	return &Kafka{client: client, topic: topic}, nil
}

func (k *Kafka) Publish(ctx context.Context, event models.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	record := &kgo.Record{
		Topic: k.topic,
		Key:   []byte(event.TokenID.String()),
		Value: payload,
	}
	if err := k.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce event: %w", err)
	}
	return nil
}

// Close flushes pending records and releases the client.
func (k *Kafka) Close() {
	k.client.Close()
}
