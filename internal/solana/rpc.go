package solana

import "context"

// RPCClient defines the Solana RPC HTTP interface used by the block fetcher.
type RPCClient interface {
	// GetBlock retrieves a full block by slot number.
	GetBlock(ctx context.Context, slot uint64, opts *BlockOpts) (*Block, error)

	// GetSlot retrieves the current slot.
	GetSlot(ctx context.Context) (uint64, error)
}

// BlockOpts configures a getBlock call.
type BlockOpts struct {
	// Encoding of transaction bodies ("json" by default).
	Encoding string
	// TransactionDetails controls how much transaction data is returned:
	// "full", "signatures", or "none".
	TransactionDetails string
	// Commitment level for the query.
	Commitment string
}

// DefaultBlockOpts returns the options used for full-block ingestion.
func DefaultBlockOpts() *BlockOpts {
	return &BlockOpts{
		Encoding:           "json",
		TransactionDetails: "full",
		Commitment:         CommitmentConfirmed,
	}
}
