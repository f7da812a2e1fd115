package datasource

import (
	"context"
	"log"
	"time"

	"solana-dex-stream/internal/solana"
)

// FetcherConfig configures full-block retrieval.
type FetcherConfig struct {
	// Encoding of transaction bodies ("json" if empty).
	Encoding string

	// Commitment level for fetch calls.
	Commitment string
}

// BlockFetcher converts each notified slot into one getBlock call and
// decomposes the block into per-transaction updates. Slots are processed
// strictly in dequeue order, one fetch at a time; a failed slot is never
// retried.
type BlockFetcher struct {
	rpc     solana.RPCClient
	opts    *solana.BlockOpts
	metrics MetricsRecorder
	logger  *log.Logger
}

// NewBlockFetcher creates a block fetcher.
func NewBlockFetcher(rpc solana.RPCClient, cfg FetcherConfig, metrics MetricsRecorder, logger *log.Logger) *BlockFetcher {
	opts := solana.DefaultBlockOpts()
	if cfg.Encoding != "" {
		opts.Encoding = cfg.Encoding
	}
	if cfg.Commitment != "" {
		opts.Commitment = cfg.Commitment
	}
	if metrics == nil {
		metrics = NopMetrics{}
	}
	if logger == nil {
		logger = log.Default()
	}
	return &BlockFetcher{rpc: rpc, opts: opts, metrics: metrics, logger: logger}
}

// Run consumes slots until the slot channel closes or the context is
// cancelled. Fetch failures never stop the loop: skipped slots are
// counted separately from real errors, and both continue with the next
// slot.
func (f *BlockFetcher) Run(ctx context.Context, slots <-chan uint64, updates chan<- *TransactionUpdate) error {
	for {
		var slot uint64
		select {
		case <-ctx.Done():
			return nil
		case s, ok := <-slots:
			if !ok {
				return nil
			}
			slot = s
		}

		start := time.Now()
		block, err := f.rpc.GetBlock(ctx, slot, f.opts)
		if err != nil {
			if solana.IsSlotSkipped(err) {
				f.logger.Printf("[fetcher] slot %d skipped or missing: %v", slot, err)
				f.metrics.IncCounter(MetricBlocksSkipped, 1)
			} else {
				f.logger.Printf("[fetcher] error fetching block %d: %v", slot, err)
				f.metrics.IncCounter(MetricBlockFetchErrors, 1)
			}
			continue
		}

		f.metrics.ObserveHistogram(MetricBlockFetchMillis, float64(time.Since(start).Milliseconds()))
		f.metrics.IncCounter(MetricBlocksFetched, 1)

		if !f.emitUpdates(ctx, block, updates) {
			return nil
		}
	}
}

// emitUpdates sends one update per surviving transaction, in block order.
// Returns false if the context fired mid-block.
func (f *BlockFetcher) emitUpdates(ctx context.Context, block *solana.Block, updates chan<- *TransactionUpdate) bool {
	for i := range block.Transactions {
		tx := &block.Transactions[i]
		txStart := time.Now()

		// Recoverable per-transaction skips: failed execution, missing
		// metadata, undecodable envelope.
		if tx.Meta == nil {
			continue
		}
		if tx.Failed() {
			continue
		}
		if tx.Signature == "" || tx.Message == nil {
			f.logger.Printf("[fetcher] slot %d: skipping undecodable transaction", block.Slot)
			continue
		}

		update := &TransactionUpdate{
			Signature:   tx.Signature,
			Transaction: tx,
			Slot:        block.Slot,
			BlockHash:   block.Blockhash,
			BlockTime:   block.BlockTime,
			IsVote:      tx.IsVote(),
		}

		select {
		case updates <- update:
		case <-ctx.Done():
			return false
		}

		f.metrics.ObserveHistogram(MetricTransactionMillis, float64(time.Since(txStart).Milliseconds()))
		f.metrics.IncCounter(MetricTransactionsProcessed, 1)
	}
	return true
}
