package storage

import (
	"context"

	"solana-dex-stream/internal/domain"
)

// DexEventStore provides access to the dex_events archive.
type DexEventStore interface {
	// Insert adds a new event. Returns ErrDuplicateKey if
	// (platform, signature, instruction_index) exists.
	Insert(ctx context.Context, e *domain.DexEvent) error

	// GetBySignature retrieves all events of one transaction, ordered by
	// instruction index ASC. Returns an empty slice if none exist.
	GetBySignature(ctx context.Context, signature string) ([]*domain.DexEvent, error)

	// GetByTimeRange retrieves events within [start, end) ordered by
	// (timestamp, signature, instruction_index) ASC.
	GetByTimeRange(ctx context.Context, start, end int64) ([]*domain.DexEvent, error)

	// CountByType returns the number of archived events of one kind.
	CountByType(ctx context.Context, eventType domain.EventType) (int64, error)
}
