// Package domain holds the value types shared across the stream pipeline.
package domain

// EventType tags a DEX event with its kind. The set is closed but new
// kinds can be added alongside a handler that produces them.
type EventType string

const (
	EventSwap            EventType = "swap"
	EventAddLiquidity    EventType = "add_liquidity"
	EventRemoveLiquidity EventType = "remove_liquidity"
	EventAddPair         EventType = "add_pair"
	EventNewPair         EventType = "new_pair"
)

// DexEvent is one derived DEX event, produced by a protocol handler and
// consumed by the publisher. Immutable once constructed; fan-out encodes
// it once and shares the bytes.
type DexEvent struct {
	Type      EventType              `json:"event_type"`
	Platform  string                 `json:"platform"`
	Signature string                 `json:"signature"`
	Timestamp int64                  `json:"timestamp"` // Unix seconds, production time
	Details   map[string]interface{} `json:"details"`

	// InstructionIndex is the position of the source instruction within
	// its transaction. Not part of the published payload; the archive uses
	// it to distinguish multiple events from one transaction.
	InstructionIndex int `json:"-"`
}

// Key returns the routing key used by key-partitioned backends, grouping
// all events of one transaction on one platform.
func (e *DexEvent) Key() string {
	return e.Platform + ":" + e.Signature
}
