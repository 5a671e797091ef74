// internal/network/handler.go
//
// Callback contract between the transport and the game.

package network

// EventHandler connects the transport to the game logic.
// All three callbacks run on the hub goroutine, one at a time.
type EventHandler interface {
	// OnConnect runs once the client is registered and can receive frames.
	OnConnect(c *Client)

	// OnDisconnect runs after the client was removed from the hub.
	OnDisconnect(c *Client)

	// OnMessage runs for every well-formed envelope the client sends.
	OnMessage(c *Client, msg Message)
}
