package ws

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 8192

	// Per-connection outbound buffer.
	sendBuffer = 256
)

// Client is one live transport-level session. An identity may own several.
type Client struct {
	id       string
	userID   string
	username string

	conn *websocket.Conn
	send chan []byte

	closeOnce sync.Once
}

func newClient(id, userID, username string, conn *websocket.Conn) *Client {
	return &Client{
		id:       id,
		userID:   userID,
		username: username,
		conn:     conn,
		send:     make(chan []byte, sendBuffer),
	}
}

func (c *Client) ID() string       { return c.id }
func (c *Client) UserID() string   { return c.userID }
func (c *Client) Username() string { return c.username }

// enqueue hands a frame to the write pump without blocking. A full buffer
// means the peer cannot keep up; the caller decides what to do with it.
func (c *Client) enqueue(data []byte) bool {
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

// close shuts the transport; the pumps unwind and the handler runs the
// disconnect lifecycle exactly once.
func (c *Client) close() {
	c.closeOnce.Do(func() {
		if c.conn != nil {
			_ = c.conn.Close()
		}
	})
}

// readPump pumps inbound frames into the dispatcher. One goroutine per
// connection; exits on transport close.
func (c *Client) readPump(d *Dispatcher, onClose func()) {
	defer func() {
		onClose()
		c.close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		d.Dispatch(c, data)
	}
}

// writePump drains the send buffer to the transport and keeps the
// connection alive with pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()
	for {
		select {
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
