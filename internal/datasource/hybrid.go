package datasource

import (
	"context"
	"log"
)

// HybridConfig configures the datasource orchestration.
type HybridConfig struct {
	// SlotQueueSize bounds the queue between notifier and fetcher
	// (DefaultSlotQueueSize if zero).
	SlotQueueSize int
}

// HybridDatasource runs one slot notifier and one block fetcher
// concurrently, joined by a bounded slot queue. Notifications arrive over
// WebSocket without transaction data; full blocks are pulled over HTTP.
type HybridDatasource struct {
	notifier  *SlotNotifier
	fetcher   *BlockFetcher
	queueSize int
	logger    *log.Logger
}

// NewHybridDatasource creates the orchestrator.
func NewHybridDatasource(notifier *SlotNotifier, fetcher *BlockFetcher, cfg HybridConfig, logger *log.Logger) *HybridDatasource {
	queueSize := cfg.SlotQueueSize
	if queueSize == 0 {
		queueSize = DefaultSlotQueueSize
	}
	if logger == nil {
		logger = log.Default()
	}
	return &HybridDatasource{
		notifier:  notifier,
		fetcher:   fetcher,
		queueSize: queueSize,
		logger:    logger,
	}
}

// Consume starts both tasks and returns the result of whichever finishes
// first. First-exit wins: neither task is restarted here, and the other
// task is cancelled and joined before returning, so no writes to updates
// outlive this call. The caller decides whether a returned error warrants
// a new datasource.
func (d *HybridDatasource) Consume(ctx context.Context, updates chan<- *TransactionUpdate) error {
	d.logger.Println("[hybrid] starting hybrid block datasource")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	slots := make(chan uint64, d.queueSize)

	notifierDone := make(chan error, 1)
	go func() {
		err := d.notifier.Run(ctx, slots)
		close(slots)
		notifierDone <- err
	}()

	fetcherDone := make(chan error, 1)
	go func() {
		fetcherDone <- d.fetcher.Run(ctx, slots, updates)
	}()

	select {
	case err := <-notifierDone:
		d.logger.Println("[hybrid] slot notifier completed")
		cancel()
		<-fetcherDone
		return err
	case err := <-fetcherDone:
		d.logger.Println("[hybrid] block fetcher completed")
		cancel()
		<-notifierDone
		return err
	}
}
