package client

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"chat-server/pkg/chat"

	"github.com/gorilla/websocket"
)

var ErrDisconnected = errors.New("not connected")

const (
	reconnectBase = time.Second
	reconnectCeil = 30 * time.Second
	dialTimeout   = 10 * time.Second
)

// WSClient maintains the realtime connection. Sends while disconnected land
// in the offline queue; a reconnect replays them before anything new goes
// out.
type WSClient struct {
	serverURL string
	token     string
	onEvent   func(chat.Envelope)
	queue     *OfflineQueue
	log       *slog.Logger

	mu   sync.Mutex
	conn *websocket.Conn

	// seen de-duplicates replayed messages by ID.
	seen map[string]struct{}
}

// NewWSClient builds a client. queuePath is where undelivered events are
// kept across restarts; empty keeps the queue in memory.
func NewWSClient(serverURL, token, queuePath string, onEvent func(chat.Envelope), log *slog.Logger) *WSClient {
	return &WSClient{
		serverURL: serverURL,
		token:     token,
		onEvent:   onEvent,
		queue:     NewOfflineQueue(queuePath),
		log:       log,
		seen:      make(map[string]struct{}),
	}
}

// Run connects and keeps reconnecting with exponential backoff until the
// context is done.
func (c *WSClient) Run(ctx context.Context) {
	backoff := reconnectBase
	for {
		if err := c.connect(ctx); err != nil {
			c.log.Warn("connection failed", "error", err, "retry_in", backoff)
		} else {
			backoff = reconnectBase
			c.readLoop(ctx)
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, reconnectCeil)
	}
}

func (c *WSClient) connect(ctx context.Context) error {
	u, err := url.Parse(c.serverURL)
	if err != nil {
		return err
	}
	q := u.Query()
	q.Set("token", c.token)
	u.RawQuery = q.Encode()

	dialCtx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()

	conn, _, err := websocket.DefaultDialer.DialContext(dialCtx, u.String(), nil)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
	c.log.Info("connected", "url", c.serverURL)

	flushErr := c.queue.Flush(func(event string, payload json.RawMessage) error {
		return c.write(event, payload)
	})
	if flushErr != nil {
		c.log.Warn("offline queue flush interrupted", "error", flushErr)
	}
	return nil
}

func (c *WSClient) readLoop(ctx context.Context) {
	defer func() {
		c.mu.Lock()
		if c.conn != nil {
			_ = c.conn.Close()
			c.conn = nil
		}
		c.mu.Unlock()
	}()

	for {
		c.mu.Lock()
		conn := c.conn
		c.mu.Unlock()
		if conn == nil || ctx.Err() != nil {
			return
		}

		_, data, err := conn.ReadMessage()
		if err != nil {
			c.log.Warn("connection lost", "error", err)
			return
		}

		var env chat.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			c.log.Debug("dropping malformed frame", "error", err)
			continue
		}

		if env.Event == chat.EventNewMessage && c.duplicate(env.Data) {
			continue
		}
		c.onEvent(env)
	}
}

// duplicate tracks seen message IDs; the server echoes the sender's own
// message back and the queue replay can race a broadcast.
func (c *WSClient) duplicate(data json.RawMessage) bool {
	var msg struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(data, &msg); err != nil || msg.ID == "" {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.seen[msg.ID]; ok {
		return true
	}
	c.seen[msg.ID] = struct{}{}
	return false
}

// Send delivers the event now or queues it for the next reconnect.
func (c *WSClient) Send(event string, payload any) error {
	if err := c.write(event, payload); err != nil {
		if errors.Is(err, ErrDisconnected) {
			if qErr := c.queue.Enqueue(event, payload); qErr != nil {
				return qErr
			}
			c.log.Info("queued while offline", "event", event, "pending", c.queue.Len())
			return nil
		}
		return err
	}
	return nil
}

func (c *WSClient) write(event string, payload any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return ErrDisconnected
	}
	return c.conn.WriteJSON(chat.OutEnvelope{Event: event, Data: payload})
}

// Pending reports how many events wait for the next reconnect.
func (c *WSClient) Pending() int {
	return c.queue.Len()
}
