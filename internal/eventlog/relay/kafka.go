package relay

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/twmb/franz-go/pkg/kgo"

	"registrar/internal/eventlog/models"
)

// KafkaProducer writes one record per event, keyed by full name so that all
// events for a name land on one partition in order.
type KafkaProducer struct {
	client *kgo.Client
	topic  string
}

func NewKafkaProducer(client *kgo.Client, topic string) *KafkaProducer {
	return &KafkaProducer{client: client, topic: topic}
}

func (p *KafkaProducer) Publish(ctx context.Context, events []*models.Event) error {
	records := make([]*kgo.Record, 0, len(events))
	for _, e := range events {
		value, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("encode event %d: %w", e.Sequence, err)
		}
		records = append(records, &kgo.Record{
			Topic: p.topic,
			Key:   []byte(e.FullName),
			Value: value,
			Headers: []kgo.RecordHeader{
				{Key: "event_type", Value: []byte(e.Type)},
				{Key: "tx_hash", Value: []byte(e.TxHash)},
			},
		})
	}
	if err := p.client.ProduceSync(ctx, records...).FirstErr(); err != nil {
		return fmt.Errorf("produce events: %w", err)
	}
	return nil
}
