package publish

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-zeromq/zmq4"

	"solana-dex-stream/internal/domain"
)

// ZMQPublisher broadcasts events over a PUB socket. The process binds the
// endpoint and is the sole publisher; subscribers filter by the topic
// frame. Messages are two frames: topic, then the JSON payload.
type ZMQPublisher struct {
	sock zmq4.Socket
	mu   sync.Mutex
}

// Compile-time interface checks.
var (
	_ Publisher = (*ZMQPublisher)(nil)
	_ Sink      = (*ZMQPublisher)(nil)
)

// NewZMQPublisher creates a PUB socket bound to the endpoint
// (e.g. "tcp://*:5555").
func NewZMQPublisher(ctx context.Context, endpoint string) (*ZMQPublisher, error) {
	sock := zmq4.NewPub(ctx)
	if err := sock.Listen(endpoint); err != nil {
		sock.Close()
		return nil, fmt.Errorf("bind %s: %w", endpoint, err)
	}
	return &ZMQPublisher{sock: sock}, nil
}

// Name identifies the sink in aggregate errors.
func (p *ZMQPublisher) Name() string { return "zmq" }

// Send broadcasts one encoded event. The routing key is ignored: PUB
// sockets deliver to every subscriber of the topic.
func (p *ZMQPublisher) Send(_ context.Context, topic, _ string, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	msg := zmq4.NewMsgFrom([]byte(topic), payload)
	if err := p.sock.Send(msg); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

// Publish encodes and broadcasts one event.
func (p *ZMQPublisher) Publish(ctx context.Context, topic string, event *domain.DexEvent) error {
	return publishTo(ctx, p, topic, event)
}

// Close closes the socket.
func (p *ZMQPublisher) Close() error {
	return p.sock.Close()
}
