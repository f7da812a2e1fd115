package datasource

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"solana-dex-stream/internal/solana"
)

// Defaults for the notifier's bounded reconnect policy and the shared
// slot queue.
const (
	DefaultMaxReconnectAttempts = 10
	DefaultReconnectDelay       = 3000 * time.Millisecond
	DefaultSlotQueueSize        = 1000
)

// ErrMaxReconnects is returned when the notifier exhausts its reconnect
// budget without an intervening successful subscription.
var ErrMaxReconnects = errors.New("max reconnection attempts reached")

// WSDialer opens a fresh WebSocket client. The notifier dials once per
// connection attempt and closes the client when its stream ends.
type WSDialer func(ctx context.Context) (solana.WSClient, error)

// NotifierConfig configures the slot notifier.
type NotifierConfig struct {
	// Filter selects which blocks produce notifications.
	Filter solana.BlockFilter

	// MaxReconnectAttempts bounds consecutive dial-or-subscribe failures.
	MaxReconnectAttempts int

	// ReconnectDelay is the fixed sleep between attempts.
	ReconnectDelay time.Duration
}

// SlotNotifier maintains a live block subscription and pushes each
// notified slot onto the shared slot queue. When the queue is full the
// push blocks, which is the pipeline's only throttling mechanism.
type SlotNotifier struct {
	dial    WSDialer
	cfg     NotifierConfig
	metrics MetricsRecorder
	logger  *log.Logger
}

// NewSlotNotifier creates a slot notifier. Zero config fields take the
// package defaults.
func NewSlotNotifier(dial WSDialer, cfg NotifierConfig, metrics MetricsRecorder, logger *log.Logger) *SlotNotifier {
	if cfg.MaxReconnectAttempts == 0 {
		cfg.MaxReconnectAttempts = DefaultMaxReconnectAttempts
	}
	if cfg.ReconnectDelay == 0 {
		cfg.ReconnectDelay = DefaultReconnectDelay
	}
	if metrics == nil {
		metrics = NopMetrics{}
	}
	if logger == nil {
		logger = log.Default()
	}
	return &SlotNotifier{dial: dial, cfg: cfg, metrics: metrics, logger: logger}
}

// Run subscribes and forwards slots until cancellation or until the
// reconnect budget is exhausted. Cancellation returns nil; budget
// exhaustion returns ErrMaxReconnects.
func (n *SlotNotifier) Run(ctx context.Context, slots chan<- uint64) error {
	attempts := 0

	for {
		if ctx.Err() != nil {
			return nil
		}

		client, err := n.dial(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			attempts++
			n.logger.Printf("[notifier] connect failed (attempt %d/%d): %v", attempts, n.cfg.MaxReconnectAttempts, err)
			if attempts >= n.cfg.MaxReconnectAttempts {
				return fmt.Errorf("%w: %v", ErrMaxReconnects, err)
			}
			if !sleepCtx(ctx, n.cfg.ReconnectDelay) {
				return nil
			}
			continue
		}

		ch, err := client.SubscribeBlocks(ctx, n.cfg.Filter)
		if err != nil {
			client.Close()
			if ctx.Err() != nil {
				return nil
			}
			attempts++
			n.logger.Printf("[notifier] subscribe failed (attempt %d/%d): %v", attempts, n.cfg.MaxReconnectAttempts, err)
			if attempts >= n.cfg.MaxReconnectAttempts {
				return fmt.Errorf("%w: %v", ErrMaxReconnects, err)
			}
			if !sleepCtx(ctx, n.cfg.ReconnectDelay) {
				return nil
			}
			continue
		}

		attempts = 0
		n.logger.Println("[notifier] subscribed to block notifications")

		if !n.forward(ctx, ch, slots) {
			client.Close()
			return nil
		}

		client.Close()
		n.logger.Println("[notifier] notification stream closed, reconnecting...")

		if !sleepCtx(ctx, n.cfg.ReconnectDelay) {
			return nil
		}
	}
}

// forward pumps notifications into the slot queue. Returns true when the
// stream ended and a reconnect should follow, false on cancellation.
func (n *SlotNotifier) forward(ctx context.Context, ch <-chan solana.BlockNotification, slots chan<- uint64) bool {
	for {
		select {
		case <-ctx.Done():
			return false
		case notif, ok := <-ch:
			if !ok {
				return true
			}
			select {
			case slots <- notif.Slot:
			case <-ctx.Done():
				return false
			}
			n.metrics.IncCounter(MetricNotificationsReceived, 1)
		}
	}
}

// sleepCtx sleeps for d, returning false if the context fired first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}
