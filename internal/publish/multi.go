package publish

import (
	"context"
	"fmt"
	"strings"

	"solana-dex-stream/internal/domain"
)

// MultiError aggregates per-sink failures from a fan-out operation. It is
// only returned non-empty: failure implies at least one description.
type MultiError struct {
	// Failures holds one "name: detail" string per failing sink, in
	// configuration order.
	Failures []string
}

func (e *MultiError) Error() string {
	return "multiple publisher errors: " + strings.Join(e.Failures, ", ")
}

// MultiPublisher fans one event out to every configured sink. Each sink
// is attempted independently of earlier failures; success requires all of
// them to succeed. An unconfigured backend is simply absent, not an error.
type MultiPublisher struct {
	sinks []Sink
}

var _ Publisher = (*MultiPublisher)(nil)

// NewMultiPublisher creates an empty fan-out combinator.
func NewMultiPublisher() *MultiPublisher {
	return &MultiPublisher{}
}

// WithSink appends a sink and returns the publisher for chaining.
func (p *MultiPublisher) WithSink(s Sink) *MultiPublisher {
	p.sinks = append(p.sinks, s)
	return p
}

// Sinks returns the number of configured sinks.
func (p *MultiPublisher) Sinks() int {
	return len(p.sinks)
}

// Publish encodes the event once and attempts every sink. Returns nil
// only if all sinks succeeded, otherwise a MultiError naming each
// failing sink.
func (p *MultiPublisher) Publish(ctx context.Context, topic string, event *domain.DexEvent) error {
	payload, err := encodeEvent(event)
	if err != nil {
		return err
	}

	key := event.Key()
	var failures []string
	for _, s := range p.sinks {
		if err := s.Send(ctx, topic, key, payload); err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", s.Name(), err))
		}
	}

	if len(failures) > 0 {
		return &MultiError{Failures: failures}
	}
	return nil
}

// Close closes every sink with the same independent-attempt, aggregate
// error pattern as Publish.
func (p *MultiPublisher) Close() error {
	var failures []string
	for _, s := range p.sinks {
		if err := s.Close(); err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", s.Name(), err))
		}
	}

	if len(failures) > 0 {
		return &MultiError{Failures: failures}
	}
	return nil
}
