package memory

import (
	"context"
	"sort"
	"sync"

	"solana-dex-stream/internal/domain"
	"solana-dex-stream/internal/storage"
)

// dexEventKey is the composite key for event deduplication.
type dexEventKey struct {
	Platform         string
	Signature        string
	InstructionIndex int
}

// DexEventStore is an in-memory implementation of storage.DexEventStore.
type DexEventStore struct {
	mu   sync.RWMutex
	data []*domain.DexEvent
	keys map[dexEventKey]bool
}

// NewDexEventStore creates a new in-memory event store.
func NewDexEventStore() *DexEventStore {
	return &DexEventStore{
		data: make([]*domain.DexEvent, 0),
		keys: make(map[dexEventKey]bool),
	}
}

// Insert adds a new event. Returns ErrDuplicateKey if
// (platform, signature, instruction_index) exists.
func (s *DexEventStore) Insert(_ context.Context, e *domain.DexEvent) error {
	if e == nil {
		return storage.ErrInvalidInput
	}

	key := dexEventKey{
		Platform:         e.Platform,
		Signature:        e.Signature,
		InstructionIndex: e.InstructionIndex,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.keys[key] {
		return storage.ErrDuplicateKey
	}

	// Store a copy
	copy := *e
	s.data = append(s.data, &copy)
	s.keys[key] = true

	return nil
}

// GetBySignature retrieves all events of one transaction, ordered by
// instruction index ASC.
func (s *DexEventStore) GetBySignature(_ context.Context, signature string) ([]*domain.DexEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.DexEvent, 0)
	for _, e := range s.data {
		if e.Signature == signature {
			copy := *e
			result = append(result, &copy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].InstructionIndex < result[j].InstructionIndex
	})

	return result, nil
}

// GetByTimeRange retrieves events within [start, end) ordered by
// (timestamp, signature, instruction_index) ASC.
func (s *DexEventStore) GetByTimeRange(_ context.Context, start, end int64) ([]*domain.DexEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.DexEvent, 0)
	for _, e := range s.data {
		if e.Timestamp >= start && e.Timestamp < end {
			copy := *e
			result = append(result, &copy)
		}
	}

	sortDexEvents(result)

	return result, nil
}

// CountByType returns the number of archived events of one kind.
func (s *DexEventStore) CountByType(_ context.Context, eventType domain.EventType) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	for _, e := range s.data {
		if e.Type == eventType {
			count++
		}
	}

	return count, nil
}

// sortDexEvents sorts events by (timestamp, signature, instruction_index).
func sortDexEvents(events []*domain.DexEvent) {
	sort.Slice(events, func(i, j int) bool {
		if events[i].Timestamp != events[j].Timestamp {
			return events[i].Timestamp < events[j].Timestamp
		}
		if events[i].Signature != events[j].Signature {
			return events[i].Signature < events[j].Signature
		}
		return events[i].InstructionIndex < events[j].InstructionIndex
	})
}

// Verify interface compliance at compile time.
var _ storage.DexEventStore = (*DexEventStore)(nil)
