package publish

import (
	"context"
	"log"

	"solana-dex-stream/internal/domain"
)

// LogPublisher writes events to a logger. Useful for development and as a
// sink of last resort when no real backend is configured.
type LogPublisher struct {
	logger *log.Logger
}

// Compile-time interface checks.
var (
	_ Publisher = (*LogPublisher)(nil)
	_ Sink      = (*LogPublisher)(nil)
)

// NewLogPublisher creates a log publisher.
func NewLogPublisher(logger *log.Logger) *LogPublisher {
	if logger == nil {
		logger = log.Default()
	}
	return &LogPublisher{logger: logger}
}

// Name identifies the sink in aggregate errors.
func (p *LogPublisher) Name() string { return "log" }

// Send logs one pre-encoded event.
func (p *LogPublisher) Send(_ context.Context, topic, key string, payload []byte) error {
	p.logger.Printf("[publish] %s %s %s", topic, key, payload)
	return nil
}

// Publish encodes and logs one event.
func (p *LogPublisher) Publish(ctx context.Context, topic string, event *domain.DexEvent) error {
	return publishTo(ctx, p, topic, event)
}

// Close is a no-op.
func (p *LogPublisher) Close() error { return nil }
