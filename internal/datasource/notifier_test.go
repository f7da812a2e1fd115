package datasource

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"solana-dex-stream/internal/solana"
)

func quietNotifierConfig() NotifierConfig {
	return NotifierConfig{
		MaxReconnectAttempts: 3,
		ReconnectDelay:       time.Millisecond,
	}
}

func TestSlotNotifier_ForwardsSlots(t *testing.T) {
	dial := func(context.Context) (solana.WSClient, error) {
		return &stubWSClient{
			notifications: []solana.BlockNotification{
				{Slot: 100}, {Slot: 101}, {Slot: 102},
			},
		}, nil
	}

	metrics := newCaptureMetrics()
	notifier := NewSlotNotifier(dial, quietNotifierConfig(), metrics, nil)

	ctx, cancel := context.WithCancel(context.Background())
	slots := make(chan uint64, 10)

	done := make(chan error, 1)
	go func() {
		done <- notifier.Run(ctx, slots)
	}()

	for i, want := range []uint64{100, 101, 102} {
		select {
		case got := <-slots:
			if got != want {
				t.Errorf("slot %d: expected %d, got %d", i, want, got)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("timeout waiting for slot")
		}
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("cancellation must return nil, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for notifier exit")
	}

	if n := metrics.counter(MetricNotificationsReceived); n != 3 {
		t.Errorf("expected 3 notifications counted, got %d", n)
	}
}

func TestSlotNotifier_BackpressureDeliversAllSlots(t *testing.T) {
	dial := func(context.Context) (solana.WSClient, error) {
		return &stubWSClient{
			notifications: []solana.BlockNotification{
				{Slot: 1}, {Slot: 2}, {Slot: 3}, {Slot: 4}, {Slot: 5},
			},
		}, nil
	}

	metrics := newCaptureMetrics()
	notifier := NewSlotNotifier(dial, quietNotifierConfig(), metrics, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Capacity 1: the forwarder fills the queue immediately and must
	// suspend on every subsequent slot until the consumer takes one.
	slots := make(chan uint64, 1)

	done := make(chan error, 1)
	go func() {
		done <- notifier.Run(ctx, slots)
	}()

	var got []uint64
	for len(got) < 5 {
		select {
		case s := <-slots:
			got = append(got, s)
			time.Sleep(20 * time.Millisecond) // slow consumer
		case <-time.After(2 * time.Second):
			t.Fatalf("timeout waiting for slots, received %v", got)
		}
	}

	for i, s := range got {
		if s != uint64(i+1) {
			t.Fatalf("expected slots 1..5 in order, got %v", got)
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for notifier exit")
	}

	if n := metrics.counter(MetricNotificationsReceived); n != 5 {
		t.Errorf("expected 5 notifications counted, got %d", n)
	}
}

func TestSlotNotifier_MaxReconnects(t *testing.T) {
	var mu sync.Mutex
	attempts := 0

	dial := func(context.Context) (solana.WSClient, error) {
		mu.Lock()
		attempts++
		mu.Unlock()
		return nil, fmt.Errorf("connection refused")
	}

	notifier := NewSlotNotifier(dial, quietNotifierConfig(), nil, nil)

	err := notifier.Run(context.Background(), make(chan uint64, 1))
	if !errors.Is(err, ErrMaxReconnects) {
		t.Fatalf("expected ErrMaxReconnects, got %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if attempts != 3 {
		t.Errorf("expected exactly 3 attempts, got %d", attempts)
	}
}

func TestSlotNotifier_SubscribeFailureCountsAgainstBudget(t *testing.T) {
	dial := func(context.Context) (solana.WSClient, error) {
		return &stubWSClient{subscribeErr: fmt.Errorf("subscribe rejected")}, nil
	}

	notifier := NewSlotNotifier(dial, quietNotifierConfig(), nil, nil)

	err := notifier.Run(context.Background(), make(chan uint64, 1))
	if !errors.Is(err, ErrMaxReconnects) {
		t.Fatalf("expected ErrMaxReconnects, got %v", err)
	}
}

func TestSlotNotifier_AttemptsResetOnSuccess(t *testing.T) {
	var mu sync.Mutex
	dials := 0

	// Every odd dial fails, every even dial succeeds with a stream that
	// ends immediately. With a budget of 3 consecutive failures this must
	// keep going well past 3 total failures.
	dial := func(context.Context) (solana.WSClient, error) {
		mu.Lock()
		dials++
		n := dials
		mu.Unlock()

		if n%2 == 1 {
			return nil, fmt.Errorf("transient failure")
		}
		return &stubWSClient{closeStream: true}, nil
	}

	notifier := NewSlotNotifier(dial, quietNotifierConfig(), nil, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	err := notifier.Run(ctx, make(chan uint64, 1))
	if err != nil {
		t.Fatalf("expected nil on cancellation, got %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if dials < 8 {
		t.Errorf("expected counter reset to allow many cycles, got %d dials", dials)
	}
}

func TestSlotNotifier_ReconnectsAfterStreamEnd(t *testing.T) {
	var mu sync.Mutex
	dials := 0

	dial := func(context.Context) (solana.WSClient, error) {
		mu.Lock()
		dials++
		n := dials
		mu.Unlock()
		return &stubWSClient{
			notifications: []solana.BlockNotification{{Slot: uint64(n)}},
			closeStream:   true,
		}, nil
	}

	notifier := NewSlotNotifier(dial, quietNotifierConfig(), nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	slots := make(chan uint64, 10)

	done := make(chan error, 1)
	go func() {
		done <- notifier.Run(ctx, slots)
	}()

	// Two slots can only arrive over two separate connections.
	for i := 0; i < 2; i++ {
		select {
		case <-slots:
		case <-time.After(2 * time.Second):
			t.Fatal("timeout waiting for slot")
		}
	}

	cancel()
	<-done

	mu.Lock()
	defer mu.Unlock()
	if dials < 2 {
		t.Errorf("expected at least 2 dials, got %d", dials)
	}
}
