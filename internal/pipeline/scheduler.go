// Package pipeline connects the datasource to the publisher: it consumes
// transaction updates, decodes the instructions it has handlers for, and
// fans the resulting events out.
package pipeline

import (
	"context"
	"errors"
	"log"
	"time"

	"solana-dex-stream/internal/datasource"
	"solana-dex-stream/internal/decode"
	"solana-dex-stream/internal/domain"
	"solana-dex-stream/internal/publish"
	"solana-dex-stream/internal/storage"
)

// Metric names reported by the scheduler.
const (
	MetricEventsDecoded    = "dex_events_decoded"
	MetricEventsPublished  = "dex_events_published"
	MetricPublishErrors    = "dex_publish_errors"
	MetricEventsArchived   = "dex_events_archived"
	MetricDecodeMillis     = "dex_decode_time_milliseconds"
	MetricVoteTxsSkipped   = "vote_transactions_skipped"
	MetricUnknownPrograms  = "unknown_program_instructions"
	MetricMalformedDecodes = "malformed_instruction_data"
)

// Scheduler decodes transaction updates into DEX events and publishes them.
type Scheduler struct {
	handlers  map[string]decode.Handler // keyed by program ID
	publisher publish.Publisher
	topic     string
	store     storage.DexEventStore // optional archive, may be nil
	metrics   datasource.MetricsRecorder
	logger    *log.Logger
}

// SchedulerOptions contains configuration for creating a Scheduler.
type SchedulerOptions struct {
	Handlers  []decode.Handler
	Publisher publish.Publisher
	Topic     string
	Store     storage.DexEventStore // optional
	Metrics   datasource.MetricsRecorder
	Logger    *log.Logger
}

// NewScheduler creates a new scheduler. Handlers defaults to the registered
// protocol table.
func NewScheduler(opts SchedulerOptions) *Scheduler {
	handlers := opts.Handlers
	if handlers == nil {
		handlers = decode.Handlers()
	}

	byProgram := make(map[string]decode.Handler, len(handlers))
	for _, h := range handlers {
		byProgram[h.ProgramID] = h
	}

	metrics := opts.Metrics
	if metrics == nil {
		metrics = datasource.NopMetrics{}
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	return &Scheduler{
		handlers:  byProgram,
		publisher: opts.Publisher,
		topic:     opts.Topic,
		store:     opts.Store,
		metrics:   metrics,
		logger:    logger,
	}
}

// Run consumes updates until the channel closes or the context is
// cancelled. Publish and archive failures are logged and counted but never
// stop the stream.
func (s *Scheduler) Run(ctx context.Context, updates <-chan *datasource.TransactionUpdate) error {
	s.logger.Printf("[pipeline] scheduler started, %d protocol handlers", len(s.handlers))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				s.logger.Println("[pipeline] update stream closed, scheduler stopping")
				return nil
			}
			s.process(ctx, update)
		}
	}
}

// process decodes one transaction's instructions in order and publishes
// every event they produce.
func (s *Scheduler) process(ctx context.Context, update *datasource.TransactionUpdate) {
	if update == nil || update.Transaction == nil || update.Transaction.Message == nil {
		return
	}
	if update.IsVote {
		s.metrics.IncCounter(MetricVoteTxsSkipped, 1)
		return
	}

	start := time.Now()
	for i, ix := range update.Transaction.Message.Instructions {
		handler, ok := s.handlers[update.Transaction.Message.Program(ix)]
		if !ok {
			s.metrics.IncCounter(MetricUnknownPrograms, 1)
			continue
		}

		data, err := decode.Data(ix.Data)
		if err != nil {
			s.metrics.IncCounter(MetricMalformedDecodes, 1)
			s.logger.Printf("[pipeline] tx %s ix %d: bad instruction data: %v", update.Signature, i, err)
			continue
		}

		decoded, ok := handler.Map(data)
		if !ok {
			continue
		}
		s.metrics.IncCounter(MetricEventsDecoded, 1)

		event := &domain.DexEvent{
			Type:             decoded.Type,
			Platform:         handler.Platform,
			Signature:        update.Signature,
			Timestamp:        time.Now().Unix(),
			Details:          decoded.Details,
			InstructionIndex: i,
		}
		s.emit(ctx, event)
	}
	s.metrics.ObserveHistogram(MetricDecodeMillis, float64(time.Since(start).Milliseconds()))
}

// emit publishes one event and archives it if a store is configured.
func (s *Scheduler) emit(ctx context.Context, event *domain.DexEvent) {
	if err := s.publisher.Publish(ctx, s.topic, event); err != nil {
		s.metrics.IncCounter(MetricPublishErrors, 1)
		s.logger.Printf("[pipeline] publish %s: %v", event.Key(), err)
	} else {
		s.metrics.IncCounter(MetricEventsPublished, 1)
	}

	if s.store == nil {
		return
	}
	if err := s.store.Insert(ctx, event); err != nil {
		// Replays of the same instruction are expected after restarts.
		if errors.Is(err, storage.ErrDuplicateKey) {
			return
		}
		s.logger.Printf("[pipeline] archive %s: %v", event.Key(), err)
		return
	}
	s.metrics.IncCounter(MetricEventsArchived, 1)
}
