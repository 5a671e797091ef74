// internal/network/client.go
//
// One WebSocket connection.
// Responsibilities:
//   - readLoop: decode frames and hand them to the hub; unregister on exit.
//   - writeLoop: drain the send buffer and keep the peer alive with pings.
//   - Send/Close: non-blocking enqueue, idempotent close.

package network

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	// Time allowed to write a frame to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong from the peer.
	pongWait = 60 * time.Second

	// Ping period; must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Outbound frames buffered per connection before it is dropped as too slow.
	sendBuffer = 64
)

var (
	ErrClientClosed = errors.New("client closed")
	ErrSlowClient   = errors.New("client send buffer full")
)

// Client is one WebSocket connection as seen by the server.
type Client struct {
	id   string
	conn *websocket.Conn
	hub  *Hub

	// send is closed by the hub on unregister; guarded by hub.mu.
	send   chan []byte
	closed bool

	closeOnce sync.Once
}

func newClient(h *Hub, conn *websocket.Conn) *Client {
	return &Client{
		id:   uuid.NewString(),
		conn: conn,
		hub:  h,
		send: make(chan []byte, sendBuffer),
	}
}

// ID is the opaque identifier for the lifetime of this connection.
func (c *Client) ID() string { return c.id }

// RemoteAddr reports the peer address for logging.
func (c *Client) RemoteAddr() string {
	if c.conn == nil {
		return ""
	}
	return c.conn.RemoteAddr().String()
}

// Send queues an encoded frame for this client without blocking.
func (c *Client) Send(b []byte) error {
	c.hub.mu.RLock()
	defer c.hub.mu.RUnlock()
	return c.enqueue(b)
}

// enqueue requires hub.mu to be held.
func (c *Client) enqueue(b []byte) error {
	if c.closed {
		return ErrClientClosed
	}
	select {
	case c.send <- b:
		return nil
	default:
		return ErrSlowClient
	}
}

// Close tears down the socket; the read loop then unregisters the client.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		if c.conn != nil {
			_ = c.conn.Close()
		}
	})
}

func (c *Client) readLoop() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.Close()
	}()

	c.conn.SetReadLimit(MaxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug().Err(err).Str("client", c.id).Msg("unexpected close")
			}
			return
		}
		msg, err := Decode(data)
		if err != nil {
			log.Warn().Err(err).Str("client", c.id).Msg("dropping malformed frame")
			continue
		}
		select {
		case c.hub.incoming <- clientMessage{client: c, msg: msg}:
		case <-c.hub.done:
			return
		}
	}
}

func (c *Client) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case b, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, b); err != nil {
				log.Debug().Err(err).Str("client", c.id).Msg("write failed")
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
