package solana

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// WSClientConfig configures WebSocket client behavior.
type WSClientConfig struct {
	// HandshakeTimeout bounds the initial dial.
	HandshakeTimeout time.Duration
	// SubscribeTimeout bounds the wait for a subscription confirmation.
	SubscribeTimeout time.Duration
	// PingInterval is the interval for sending ping frames.
	PingInterval time.Duration
	// ReadTimeout is the timeout for reading messages.
	ReadTimeout time.Duration
	// WriteTimeout is the timeout for writing messages.
	WriteTimeout time.Duration
}

// DefaultWSConfig returns default WebSocket configuration.
func DefaultWSConfig() WSClientConfig {
	return WSClientConfig{
		HandshakeTimeout: 10 * time.Second,
		SubscribeTimeout: 30 * time.Second,
		PingInterval:     30 * time.Second,
		ReadTimeout:      60 * time.Second,
		WriteTimeout:     10 * time.Second,
	}
}

// WSClientImpl implements WSClient over a single gorilla/websocket
// connection. The connection is not re-established after a failure: the
// read loop closes all subscription channels and the owner decides whether
// to dial a fresh client.
type WSClientImpl struct {
	endpoint string
	config   WSClientConfig

	conn      *websocket.Conn
	connMu    sync.Mutex
	closed    atomic.Bool
	requestID atomic.Uint64

	// subs maps subscription ID to delivery channel
	subs     map[int64]chan BlockNotification
	subsDone bool
	subsMu   sync.Mutex

	// pendingSubs maps request ID to channel waiting for the server's
	// confirmation or rejection
	pendingSubs   map[uint64]chan subscribeReply
	pendingSubsMu sync.Mutex

	done chan struct{}
	wg   sync.WaitGroup
}

// NewWSClient creates a new WebSocket client and connects to the endpoint.
func NewWSClient(ctx context.Context, endpoint string, config *WSClientConfig) (*WSClientImpl, error) {
	cfg := DefaultWSConfig()
	if config != nil {
		cfg = *config
	}

	c := &WSClientImpl{
		endpoint:    endpoint,
		config:      cfg,
		subs:        make(map[int64]chan BlockNotification),
		pendingSubs: make(map[uint64]chan subscribeReply),
		done:        make(chan struct{}),
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: cfg.HandshakeTimeout,
	}

	conn, _, err := dialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("websocket dial: %w", err)
	}
	c.conn = conn

	c.wg.Add(1)
	go c.readLoop()

	c.wg.Add(1)
	go c.pingLoop()

	return c, nil
}

// SubscribeBlocks subscribes to block notifications matching the filter.
func (c *WSClientImpl) SubscribeBlocks(ctx context.Context, filter BlockFilter) (<-chan BlockNotification, error) {
	if c.closed.Load() {
		return nil, fmt.Errorf("client closed")
	}

	reqID := c.requestID.Add(1)

	var filterParam interface{} = "all"
	if filter.MentionsAccountOrProgram != "" {
		filterParam = map[string]string{
			"mentionsAccountOrProgram": filter.MentionsAccountOrProgram,
		}
	}

	commitment := filter.Commitment
	if commitment == "" {
		commitment = CommitmentConfirmed
	}

	req := wsRequest{
		JSONRPC: "2.0",
		ID:      reqID,
		Method:  "blockSubscribe",
		Params: []interface{}{
			filterParam,
			map[string]interface{}{
				"commitment": commitment,
				// Slot discovery only: full transactions come over HTTP.
				"transactionDetails":             "none",
				"showRewards":                    false,
				"maxSupportedTransactionVersion": 0,
			},
		},
	}

	confirmCh := make(chan subscribeReply, 1)
	c.pendingSubsMu.Lock()
	c.pendingSubs[reqID] = confirmCh
	c.pendingSubsMu.Unlock()

	dropPending := func() {
		c.pendingSubsMu.Lock()
		delete(c.pendingSubs, reqID)
		c.pendingSubsMu.Unlock()
	}

	c.connMu.Lock()
	c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
	err := c.conn.WriteJSON(req)
	c.connMu.Unlock()

	if err != nil {
		dropPending()
		return nil, fmt.Errorf("write subscribe: %w", err)
	}

	var subID int64
	select {
	case reply, ok := <-confirmCh:
		if !ok {
			return nil, fmt.Errorf("connection lost before confirmation")
		}
		if reply.err != nil {
			return nil, reply.err
		}
		subID = reply.id
	case <-time.After(c.config.SubscribeTimeout):
		dropPending()
		return nil, fmt.Errorf("subscription timeout after %v", c.config.SubscribeTimeout)
	case <-c.done:
		return nil, fmt.Errorf("client closed")
	case <-ctx.Done():
		dropPending()
		return nil, ctx.Err()
	}

	// Buffer absorbs notification bursts; sends beyond it block rather
	// than drop (backpressure propagates to the read loop).
	ch := make(chan BlockNotification, 1024)

	c.subsMu.Lock()
	if c.subsDone {
		c.subsMu.Unlock()
		close(ch)
		return ch, nil
	}
	c.subs[subID] = ch
	c.subsMu.Unlock()

	return ch, nil
}

// Close closes the WebSocket connection and all subscription channels.
func (c *WSClientImpl) Close() error {
	if c.closed.Swap(true) {
		return nil // already closed
	}

	close(c.done)

	c.connMu.Lock()
	c.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	c.conn.Close()
	c.connMu.Unlock()

	c.closeSubs()
	c.wg.Wait()
	return nil
}

// closeSubs closes every subscription channel and all pending confirms,
// exactly once.
func (c *WSClientImpl) closeSubs() {
	c.subsMu.Lock()
	if !c.subsDone {
		c.subsDone = true
		for id, ch := range c.subs {
			close(ch)
			delete(c.subs, id)
		}
	}
	c.subsMu.Unlock()

	c.pendingSubsMu.Lock()
	for id, ch := range c.pendingSubs {
		close(ch)
		delete(c.pendingSubs, id)
	}
	c.pendingSubsMu.Unlock()
}

// readLoop reads messages and dispatches them to subscribers. It ends on
// the first read error, closing all subscription channels so consumers
// observe the stream ending.
func (c *WSClientImpl) readLoop() {
	defer c.wg.Done()
	defer c.closeSubs()

	for {
		c.conn.SetReadDeadline(time.Now().Add(c.config.ReadTimeout))

		_, message, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		c.handleMessage(message)
	}
}

// handleMessage processes one incoming WebSocket message.
func (c *WSClientImpl) handleMessage(message []byte) {
	var resp wsSubscribeResponse
	if err := json.Unmarshal(message, &resp); err == nil && (resp.Result > 0 || resp.Error != nil) {
		c.handleSubscribeResponse(&resp)
		return
	}

	var notif wsNotification
	if err := json.Unmarshal(message, &notif); err == nil && notif.Method == "blockNotification" {
		c.handleBlockNotification(&notif)
		return
	}
}

func (c *WSClientImpl) handleSubscribeResponse(resp *wsSubscribeResponse) {
	c.pendingSubsMu.Lock()
	ch, ok := c.pendingSubs[resp.ID]
	if ok {
		delete(c.pendingSubs, resp.ID)
	}
	c.pendingSubsMu.Unlock()

	reply := subscribeReply{id: resp.Result}
	if resp.Error != nil {
		log.Printf("[ws] error response: code=%d msg=%s", resp.Error.Code, resp.Error.Message)
		reply = subscribeReply{err: fmt.Errorf("subscription rejected: %s (code %d)", resp.Error.Message, resp.Error.Code)}
	}

	if ok {
		select {
		case ch <- reply:
		default:
		}
	}
}

func (c *WSClientImpl) handleBlockNotification(notif *wsNotification) {
	if notif.Params == nil {
		return
	}

	subID := notif.Params.Subscription
	value := notif.Params.Result.Value

	bn := BlockNotification{Slot: value.Slot}
	if value.Block != nil {
		bn.Blockhash = value.Block.Blockhash
	}
	if bn.Slot == 0 && notif.Params.Result.Context != nil {
		bn.Slot = notif.Params.Result.Context.Slot
	}

	c.subsMu.Lock()
	ch, ok := c.subs[subID]
	c.subsMu.Unlock()

	if ok {
		// Block until the consumer takes it; never drop a notification.
		select {
		case ch <- bn:
		case <-c.done:
		}
	}
}

// pingLoop sends periodic ping frames to keep the connection alive.
func (c *WSClientImpl) pingLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.connMu.Lock()
			c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
			c.conn.WriteMessage(websocket.PingMessage, nil)
			c.connMu.Unlock()
		}
	}
}

// WebSocket message types

type wsRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params,omitempty"`
}

type wsSubscribeResponse struct {
	JSONRPC string   `json:"jsonrpc"`
	ID      uint64   `json:"id"`
	Result  int64    `json:"result"` // subscription ID
	Error   *wsError `json:"error"`
}

type wsError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// subscribeReply is the outcome of one subscribe request: a subscription
// ID or the server's rejection.
type subscribeReply struct {
	id  int64
	err error
}

type wsNotification struct {
	JSONRPC string                `json:"jsonrpc"`
	Method  string                `json:"method"`
	Params  *wsNotificationParams `json:"params"`
}

type wsNotificationParams struct {
	Subscription int64                `json:"subscription"`
	Result       wsNotificationResult `json:"result"`
}

type wsNotificationResult struct {
	Context *wsContext   `json:"context"`
	Value   wsBlockValue `json:"value"`
}

type wsContext struct {
	Slot uint64 `json:"slot"`
}

type wsBlockValue struct {
	Slot  uint64        `json:"slot"`
	Block *wsBlockBrief `json:"block"`
	Err   interface{}   `json:"err"`
}

// wsBlockBrief is the abbreviated block carried by blockNotification when
// transactionDetails is "none".
type wsBlockBrief struct {
	Blockhash string `json:"blockhash"`
	BlockTime *int64 `json:"blockTime"`
}
