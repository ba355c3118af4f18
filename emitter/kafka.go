package emitter

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dbops-engineering/autoscaler/autoscaler/structs"
	kafka "github.com/segmentio/kafka-go"
)

// KafkaProvider publishes downstream events to the topic named by each
// snapshot on a shared set of brokers.
type KafkaProvider struct {
	writer *kafka.Writer
}

// NewKafkaProvider creates the Kafka event emitter.
func NewKafkaProvider(config *structs.Kafka) (Emitter, error) {
	if config == nil || len(config.Brokers) == 0 {
		return nil, fmt.Errorf("the kafka emitter requires at least one broker")
	}

	// The topic is set per message, as each snapshot names its own
	// downstream topic.
	writer := &kafka.Writer{
		Addr:     kafka.TCP(config.Brokers...),
		Balancer: &kafka.LeastBytes{},
	}

	return &KafkaProvider{writer: writer}, nil
}

// Name returns the name of the emitter backend in a lowercase, human
// readable format.
func (k *KafkaProvider) Name() string {
	return "kafka"
}

// Emit serializes a downstream event and publishes it to the snapshot's
// downstream topic. The event name travels as a message header.
func (k *KafkaProvider) Emit(ctx context.Context, event string,
	snap *structs.InstanceSnapshot, suggestedSize int64) error {

	payload, err := json.Marshal(NewDownstreamEvent(snap, suggestedSize))
	if err != nil {
		return fmt.Errorf("emitter/kafka: unable to serialize %s event for "+
			"instance %s: %v", event, snap.Key(), err)
	}

	msg := kafka.Message{
		Topic: snap.DownstreamTopic,
		Key:   []byte(snap.Key()),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event", Value: []byte(event)},
		},
	}

	if err := k.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("emitter/kafka: unable to publish %s event for "+
			"instance %s to topic %s: %v", event, snap.Key(),
			snap.DownstreamTopic, err)
	}

	return nil
}

// Close releases the underlying writer.
func (k *KafkaProvider) Close() error {
	return k.writer.Close()
}
