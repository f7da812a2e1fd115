// Package datasource implements the hybrid block ingestion pipeline:
// slot discovery over a WebSocket push subscription, decoupled from
// full-block retrieval over HTTP RPC.
package datasource

import "solana-dex-stream/internal/solana"

// TransactionUpdate is one per-transaction update event, emitted for every
// included, successfully executed transaction in a fetched block. Once
// sent to the output channel it belongs to the consumer.
type TransactionUpdate struct {
	Signature   string
	Transaction *solana.Transaction
	Slot        uint64
	BlockHash   string
	BlockTime   *int64 // Unix seconds, nil if the node did not report it
	IsVote      bool
}
