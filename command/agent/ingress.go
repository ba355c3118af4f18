package agent

import (
	"context"
	"sync"

	"github.com/dbops-engineering/autoscaler/autoscaler"
	"github.com/dbops-engineering/autoscaler/autoscaler/structs"
	"github.com/dbops-engineering/autoscaler/logging"
	kafka "github.com/segmentio/kafka-go"
)

// IngressConsumer reads push-subscription envelopes from a Kafka topic and
// feeds them into the scaler, with the number of concurrent evaluations
// bounded by the agent configuration.
type IngressConsumer struct {
	reader *kafka.Reader
	scaler *autoscaler.Scaler

	// slots bounds the number of snapshots being evaluated at once. State
	// records are keyed per instance, so the limit exists to protect the
	// agent and its backends, not for correctness.
	slots chan struct{}

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewIngressConsumer sets up the Kafka reader for the configured ingress
// topic and starts the consume loop.
func NewIngressConsumer(config *structs.Config, scaler *autoscaler.Scaler) *IngressConsumer {

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers: config.Kafka.Brokers,
		Topic:   config.Kafka.IngressTopic,
		GroupID: config.Kafka.GroupID,
	})

	concurrency := config.ScalingConcurrency
	if concurrency < 1 {
		concurrency = 1
	}

	ctx, cancel := context.WithCancel(context.Background())

	c := &IngressConsumer{
		reader: reader,
		scaler: scaler,
		slots:  make(chan struct{}, concurrency),
		cancel: cancel,
	}

	c.wg.Add(1)
	go c.consume(ctx)

	logging.Info("command/agent: ingress consumer started on topic %s with "+
		"concurrency %v", config.Kafka.IngressTopic, concurrency)

	return c
}

// consume is the long-running loop which fetches envelopes off the topic
// and dispatches them for evaluation.
func (c *IngressConsumer) consume(ctx context.Context) {
	defer c.wg.Done()

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logging.Error("command/agent: failed to fetch ingress message: %v", err)
			continue
		}

		select {
		case c.slots <- struct{}{}:
		case <-ctx.Done():
			return
		}

		c.wg.Add(1)
		go func(msg kafka.Message) {
			defer c.wg.Done()
			defer func() { <-c.slots }()

			if err := c.scaler.ScaleEnvelope(ctx, msg.Value); err != nil {
				logging.Error("command/agent: failed to process ingress "+
					"message at offset %v: %v", msg.Offset, err)
			}

			// The offset is committed whether or not the evaluation
			// succeeded; a snapshot is a point-in-time observation and the
			// poller will publish a fresh one on its next pass.
			if err := c.reader.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
				logging.Error("command/agent: failed to commit ingress "+
					"message at offset %v: %v", msg.Offset, err)
			}
		}(msg)
	}
}

// Stop halts the consume loop and waits for in-flight evaluations to
// finish before closing the reader.
func (c *IngressConsumer) Stop() {
	if c == nil {
		return
	}

	c.cancel()
	c.wg.Wait()

	if err := c.reader.Close(); err != nil {
		logging.Error("command/agent: failed to close ingress reader: %v", err)
	}
}
