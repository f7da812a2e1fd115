// Package publish delivers DEX events to message-bus backends. One
// Publisher contract covers a single ZeroMQ sink, a single Kafka sink, or
// a fan-out combinator over any number of sinks.
package publish

import (
	"context"
	"encoding/json"
	"fmt"

	"solana-dex-stream/internal/domain"
)

// Publisher is the delivery contract used by event handlers.
type Publisher interface {
	// Publish delivers one event under the given topic.
	Publish(ctx context.Context, topic string, event *domain.DexEvent) error

	// Close releases backend resources. Safe to call on backends without
	// explicit close semantics.
	Close() error
}

// Sink is a single message-bus backend. Send takes the already-encoded
// event payload so fan-out serializes exactly once; key is the routing
// key for key-partitioned backends. Implementations are safe for
// concurrent Send calls.
type Sink interface {
	Name() string
	Send(ctx context.Context, topic, key string, payload []byte) error
	Close() error
}

// encodeEvent produces the canonical wire representation of an event.
func encodeEvent(event *domain.DexEvent) ([]byte, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("serialize event: %w", err)
	}
	return payload, nil
}

// publishTo encodes the event and sends it through one sink, wrapping the
// sink's error with its name.
func publishTo(ctx context.Context, s Sink, topic string, event *domain.DexEvent) error {
	payload, err := encodeEvent(event)
	if err != nil {
		return err
	}
	if err := s.Send(ctx, topic, event.Key(), payload); err != nil {
		return fmt.Errorf("%s: %w", s.Name(), err)
	}
	return nil
}
