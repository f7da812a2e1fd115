package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"solana-dex-stream/internal/domain"
	"solana-dex-stream/internal/storage"
)

// DexEventStore implements storage.DexEventStore using PostgreSQL.
type DexEventStore struct {
	pool *Pool
}

// NewDexEventStore creates a new DexEventStore.
func NewDexEventStore(pool *Pool) *DexEventStore {
	return &DexEventStore{pool: pool}
}

// Compile-time interface check.
var _ storage.DexEventStore = (*DexEventStore)(nil)

// Insert adds a new event. Returns ErrDuplicateKey if
// (platform, signature, instruction_index) exists.
func (s *DexEventStore) Insert(ctx context.Context, e *domain.DexEvent) error {
	if e == nil {
		return storage.ErrInvalidInput
	}

	details, err := json.Marshal(e.Details)
	if err != nil {
		return fmt.Errorf("marshal event details: %w", err)
	}

	query := `
		INSERT INTO dex_events (
			platform, signature, instruction_index, event_type, timestamp, details
		) VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err = s.pool.Exec(ctx, query,
		e.Platform,
		e.Signature,
		e.InstructionIndex,
		string(e.Type),
		e.Timestamp,
		details,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert dex event: %w", err)
	}
	return nil
}

// GetBySignature retrieves all events of one transaction, ordered by
// instruction index ASC.
func (s *DexEventStore) GetBySignature(ctx context.Context, signature string) ([]*domain.DexEvent, error) {
	query := `
		SELECT platform, signature, instruction_index, event_type, timestamp, details
		FROM dex_events
		WHERE signature = $1
		ORDER BY instruction_index ASC
	`

	rows, err := s.pool.Query(ctx, query, signature)
	if err != nil {
		return nil, fmt.Errorf("get dex events by signature: %w", err)
	}
	defer rows.Close()

	return scanDexEvents(rows)
}

// GetByTimeRange retrieves events within [start, end) ordered by
// (timestamp, signature, instruction_index) ASC.
func (s *DexEventStore) GetByTimeRange(ctx context.Context, start, end int64) ([]*domain.DexEvent, error) {
	query := `
		SELECT platform, signature, instruction_index, event_type, timestamp, details
		FROM dex_events
		WHERE timestamp >= $1 AND timestamp < $2
		ORDER BY timestamp ASC, signature ASC, instruction_index ASC
	`

	rows, err := s.pool.Query(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("get dex events by time range: %w", err)
	}
	defer rows.Close()

	return scanDexEvents(rows)
}

// CountByType returns the number of archived events of one kind.
func (s *DexEventStore) CountByType(ctx context.Context, eventType domain.EventType) (int64, error) {
	query := `SELECT COUNT(*) FROM dex_events WHERE event_type = $1`

	var count int64
	if err := s.pool.QueryRow(ctx, query, string(eventType)).Scan(&count); err != nil {
		return 0, fmt.Errorf("count dex events by type: %w", err)
	}
	return count, nil
}

// scanDexEvents scans multiple rows into a slice of DexEvent.
func scanDexEvents(rows pgx.Rows) ([]*domain.DexEvent, error) {
	events := make([]*domain.DexEvent, 0)

	for rows.Next() {
		var (
			e         domain.DexEvent
			eventType string
			details   []byte
		)

		err := rows.Scan(
			&e.Platform,
			&e.Signature,
			&e.InstructionIndex,
			&eventType,
			&e.Timestamp,
			&details,
		)
		if err != nil {
			return nil, fmt.Errorf("scan dex event row: %w", err)
		}

		e.Type = domain.EventType(eventType)
		if len(details) > 0 {
			if err := json.Unmarshal(details, &e.Details); err != nil {
				return nil, fmt.Errorf("unmarshal event details: %w", err)
			}
		}

		events = append(events, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate dex event rows: %w", err)
	}

	return events, nil
}
