package publish

import (
	"context"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	"solana-dex-stream/internal/domain"
)

// DefaultKafkaTimeout bounds one produce call.
const DefaultKafkaTimeout = 5 * time.Second

// KafkaPublisher delivers events to a partitioned log. The routing key
// keeps all events of one (platform, transaction) pair on one partition.
type KafkaPublisher struct {
	client  *kgo.Client
	timeout time.Duration
}

// Compile-time interface checks.
var (
	_ Publisher = (*KafkaPublisher)(nil)
	_ Sink      = (*KafkaPublisher)(nil)
)

// NewKafkaPublisher wraps an existing franz-go client. A zero timeout
// takes DefaultKafkaTimeout.
func NewKafkaPublisher(client *kgo.Client, timeout time.Duration) *KafkaPublisher {
	if timeout == 0 {
		timeout = DefaultKafkaTimeout
	}
	return &KafkaPublisher{client: client, timeout: timeout}
}

// Name identifies the sink in aggregate errors.
func (p *KafkaPublisher) Name() string { return "kafka" }

// Send produces one record synchronously, bounded by the per-call timeout.
func (p *KafkaPublisher) Send(ctx context.Context, topic, key string, payload []byte) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	record := &kgo.Record{
		Topic: topic,
		Key:   []byte(key),
		Value: payload,
	}
	if err := p.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("producing record: %w", err)
	}
	return nil
}

// Publish encodes and produces one event.
func (p *KafkaPublisher) Publish(ctx context.Context, topic string, event *domain.DexEvent) error {
	return publishTo(ctx, p, topic, event)
}

// Close flushes buffered records and closes the client.
func (p *KafkaPublisher) Close() error {
	p.client.Close()
	return nil
}
