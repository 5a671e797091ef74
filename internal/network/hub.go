// internal/network/hub.go
//
// Hub owns the set of live clients.
// Responsibilities:
//   - Register/unregister connections and call the EventHandler for each.
//   - Deliver inbound envelopes to the handler one at a time.
//   - Fan frames out to every client without blocking; slow clients are dropped.

package network

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog/log"
)

// clientMessage pairs an inbound envelope with its sender.
type clientMessage struct {
	client *Client
	msg    Message
}

// Hub tracks live connections and funnels their events, one at a time,
// into the EventHandler.
type Hub struct {
	mu      sync.RWMutex // guards clients and Client.closed/send
	clients map[*Client]struct{}

	register   chan *Client
	unregister chan *Client
	incoming   chan clientMessage
	done       chan struct{}

	handler EventHandler
}

// NewHub builds a hub; call Run to start dispatching.
func NewHub(handler EventHandler) *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		incoming:   make(chan clientMessage, 256),
		done:       make(chan struct{}),
		handler:    handler,
	}
}

// Run dispatches connection events until ctx is cancelled, then closes
// every remaining connection.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = struct{}{}
			n := len(h.clients)
			h.mu.Unlock()
			log.Debug().Str("client", c.id).Str("addr", c.RemoteAddr()).Int("clients", n).Msg("connected")
			h.handler.OnConnect(c)

		case c := <-h.unregister:
			if h.remove(c) {
				log.Debug().Str("client", c.id).Msg("disconnected")
				h.handler.OnDisconnect(c)
			}

		case in := <-h.incoming:
			h.mu.RLock()
			_, ok := h.clients[in.client]
			h.mu.RUnlock()
			if ok {
				h.handler.OnMessage(in.client, in.msg)
			}
		}
	}
}

// Broadcast queues b for every connection. Connections whose buffer is
// full are closed rather than allowed to stall the sender.
func (h *Hub) Broadcast(b []byte) {
	var slow []*Client
	h.mu.RLock()
	for c := range h.clients {
		if err := c.enqueue(b); errors.Is(err, ErrSlowClient) {
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		log.Warn().Str("client", c.id).Msg("dropping slow client")
		c.Close()
	}
}

// Publish encodes payload as a message of type t and broadcasts it.
func (h *Hub) Publish(t string, payload any) error {
	b, err := Encode(t, payload)
	if err != nil {
		return err
	}
	h.Broadcast(b)
	return nil
}

// Len reports the number of live connections.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) remove(c *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return false
	}
	delete(h.clients, c)
	c.closed = true
	close(c.send)
	return true
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		delete(h.clients, c)
		c.closed = true
		close(c.send)
		c.Close()
	}
}
