package datasource

import (
	"context"
	"sync"

	"solana-dex-stream/internal/solana"
)

// captureMetrics records counter increments for assertions.
type captureMetrics struct {
	mu       sync.Mutex
	counters map[string]uint64
}

func newCaptureMetrics() *captureMetrics {
	return &captureMetrics{counters: make(map[string]uint64)}
}

func (m *captureMetrics) IncCounter(name string, delta uint64) {
	m.mu.Lock()
	m.counters[name] += delta
	m.mu.Unlock()
}

func (m *captureMetrics) ObserveHistogram(string, float64) {}

func (m *captureMetrics) counter(name string) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counters[name]
}

// stubWSClient serves a pre-filled notification stream.
type stubWSClient struct {
	notifications []solana.BlockNotification
	subscribeErr  error
	closeStream   bool // close the channel after delivering notifications
	closed        bool
}

func (c *stubWSClient) SubscribeBlocks(_ context.Context, _ solana.BlockFilter) (<-chan solana.BlockNotification, error) {
	if c.subscribeErr != nil {
		return nil, c.subscribeErr
	}
	ch := make(chan solana.BlockNotification, len(c.notifications)+1)
	for _, n := range c.notifications {
		ch <- n
	}
	if c.closeStream {
		close(ch)
	}
	return ch, nil
}

func (c *stubWSClient) Close() error {
	c.closed = true
	return nil
}

// stubRPCClient serves blocks from a map and records call order.
type stubRPCClient struct {
	mu     sync.Mutex
	blocks map[uint64]*solana.Block
	errs   map[uint64]error
	calls  []uint64
}

func newStubRPCClient() *stubRPCClient {
	return &stubRPCClient{
		blocks: make(map[uint64]*solana.Block),
		errs:   make(map[uint64]error),
	}
}

func (c *stubRPCClient) GetBlock(_ context.Context, slot uint64, _ *solana.BlockOpts) (*solana.Block, error) {
	c.mu.Lock()
	c.calls = append(c.calls, slot)
	c.mu.Unlock()

	if err, ok := c.errs[slot]; ok {
		return nil, err
	}
	if block, ok := c.blocks[slot]; ok {
		return block, nil
	}
	return &solana.Block{Slot: slot}, nil
}

func (c *stubRPCClient) GetSlot(context.Context) (uint64, error) {
	return 0, nil
}

func (c *stubRPCClient) callOrder() []uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]uint64(nil), c.calls...)
}
