package solana

import "context"

// WSClient defines the Solana WebSocket subscription interface.
type WSClient interface {
	// SubscribeBlocks subscribes to block-production notifications matching
	// the filter. The returned channel is closed when the stream ends or
	// the client is closed; the caller owns reconnection.
	SubscribeBlocks(ctx context.Context, filter BlockFilter) (<-chan BlockNotification, error)

	// Close closes the WebSocket connection.
	Close() error
}

// BlockFilter selects which blocks a subscription delivers.
type BlockFilter struct {
	// MentionsAccountOrProgram limits notifications to blocks containing
	// transactions that mention this account or program. Empty means all
	// blocks.
	MentionsAccountOrProgram string

	// Commitment level for the subscription ("confirmed" if empty).
	Commitment string
}

// BlockNotification is one block-production notification. Transaction
// details are never carried here; the notification only announces that a
// slot produced a block.
type BlockNotification struct {
	Slot      uint64
	Blockhash string
}
