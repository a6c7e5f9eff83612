package alert

import (
	"context"
	"encoding/json"
	"fmt"

	kafkago "github.com/segmentio/kafka-go"
)

// KafkaNotifier publishes alerts to a Kafka topic so downstream consumers
// (dashboards, paging systems) can react without polling the store.
type KafkaNotifier struct {
	writer *kafkago.Writer
}

// NewKafkaNotifier creates a Kafka sink producing to the given topic.
func NewKafkaNotifier(brokers []string, topic string) *KafkaNotifier {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &KafkaNotifier{writer: w}
}

func (k *KafkaNotifier) Name() string { return "kafka" }

func (k *KafkaNotifier) Notify(ctx context.Context, msg Message) error {
	kmsg, err := serializeToMessage(msg)
	if err != nil {
		return err
	}
	return k.writer.WriteMessages(ctx, kmsg)
}

// Close flushes and closes the underlying producer.
func (k *KafkaNotifier) Close() error {
	return k.writer.Close()
}

// serializeToMessage marshals an alert into a Kafka message keyed by stream,
// so per-stream ordering is preserved within a partition.
func serializeToMessage(msg Message) (kafkago.Message, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize alert: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(msg.Stream),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "stream", Value: []byte(msg.Stream)},
		},
	}, nil
}
