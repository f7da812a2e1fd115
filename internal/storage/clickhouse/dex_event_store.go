package clickhouse

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"solana-dex-stream/internal/domain"
	"solana-dex-stream/internal/storage"
)

// DexEventStore implements storage.DexEventStore using ClickHouse.
// The table uses ReplacingMergeTree keyed on
// (platform, signature, instruction_index), so duplicates are collapsed
// by the engine rather than rejected at insert time.
type DexEventStore struct {
	conn *Conn
}

// NewDexEventStore creates a new DexEventStore.
func NewDexEventStore(conn *Conn) *DexEventStore {
	return &DexEventStore{conn: conn}
}

// Compile-time interface check.
var _ storage.DexEventStore = (*DexEventStore)(nil)

// Insert adds a new event. Returns ErrDuplicateKey if
// (platform, signature, instruction_index) exists.
func (s *DexEventStore) Insert(ctx context.Context, e *domain.DexEvent) error {
	if e == nil {
		return storage.ErrInvalidInput
	}

	exists, err := s.exists(ctx, e.Platform, e.Signature, e.InstructionIndex)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}
	if exists {
		return storage.ErrDuplicateKey
	}

	details, err := json.Marshal(e.Details)
	if err != nil {
		return fmt.Errorf("marshal event details: %w", err)
	}

	query := `
		INSERT INTO dex_events (
			platform, signature, instruction_index, event_type, timestamp, details
		) VALUES (?, ?, ?, ?, ?, ?)
	`

	err = s.conn.Exec(ctx, query,
		e.Platform,
		e.Signature,
		uint32(e.InstructionIndex),
		string(e.Type),
		e.Timestamp,
		string(details),
	)
	if err != nil {
		return fmt.Errorf("insert dex event: %w", err)
	}
	return nil
}

// GetBySignature retrieves all events of one transaction, ordered by
// instruction index ASC.
func (s *DexEventStore) GetBySignature(ctx context.Context, signature string) ([]*domain.DexEvent, error) {
	query := `
		SELECT platform, signature, instruction_index, event_type, timestamp, details
		FROM dex_events FINAL
		WHERE signature = ?
		ORDER BY instruction_index ASC
	`

	rows, err := s.conn.Query(ctx, query, signature)
	if err != nil {
		return nil, fmt.Errorf("query by signature: %w", err)
	}
	defer rows.Close()

	return scanDexEvents(rows)
}

// GetByTimeRange retrieves events within [start, end) ordered by
// (timestamp, signature, instruction_index) ASC.
func (s *DexEventStore) GetByTimeRange(ctx context.Context, start, end int64) ([]*domain.DexEvent, error) {
	query := `
		SELECT platform, signature, instruction_index, event_type, timestamp, details
		FROM dex_events FINAL
		WHERE timestamp >= ? AND timestamp < ?
		ORDER BY timestamp ASC, signature ASC, instruction_index ASC
	`

	rows, err := s.conn.Query(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("query by time range: %w", err)
	}
	defer rows.Close()

	return scanDexEvents(rows)
}

// CountByType returns the number of archived events of one kind.
func (s *DexEventStore) CountByType(ctx context.Context, eventType domain.EventType) (int64, error) {
	query := `SELECT count(*) FROM dex_events FINAL WHERE event_type = ?`

	var count uint64
	if err := s.conn.QueryRow(ctx, query, string(eventType)).Scan(&count); err != nil {
		return 0, fmt.Errorf("count by type: %w", err)
	}
	return int64(count), nil
}

// exists checks if an event with the given key exists.
func (s *DexEventStore) exists(ctx context.Context, platform, signature string, instructionIndex int) (bool, error) {
	query := `
		SELECT count(*) FROM dex_events FINAL
		WHERE platform = ? AND signature = ? AND instruction_index = ?
	`

	var count uint64
	err := s.conn.QueryRow(ctx, query, platform, signature, uint32(instructionIndex)).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// scanDexEvents scans multiple rows into a slice of DexEvent.
func scanDexEvents(rows driver.Rows) ([]*domain.DexEvent, error) {
	events := make([]*domain.DexEvent, 0)

	for rows.Next() {
		var (
			e                domain.DexEvent
			instructionIndex uint32
			eventType        string
			details          string
		)

		err := rows.Scan(
			&e.Platform,
			&e.Signature,
			&instructionIndex,
			&eventType,
			&e.Timestamp,
			&details,
		)
		if err != nil {
			return nil, fmt.Errorf("scan dex event row: %w", err)
		}

		e.InstructionIndex = int(instructionIndex)
		e.Type = domain.EventType(eventType)
		if details != "" {
			if err := json.Unmarshal([]byte(details), &e.Details); err != nil {
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
