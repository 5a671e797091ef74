// internal/network/protocol.go
//
// JSON envelope exchanged over the /gamehub WebSocket.
// Every frame is {"type": "...", "payload": {...}}; the payload stays raw
// until the receiving side knows which struct to decode it into.

package network

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Client -> server.
const (
	MsgJoinGame    = "JoinGame"
	MsgClickButton = "ClickButton"
	MsgResetGame   = "ResetGame"
	MsgLeaveGame   = "LeaveGame"
)

// Server -> client.
const (
	MsgWelcome    = "Welcome"
	MsgUpdateGame = "UpdateGame"
)

// MaxMessageSize caps a single inbound frame.
const MaxMessageSize = 4 * 1024

// Message is the envelope for all traffic.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// JoinPayload accompanies MsgJoinGame.
type JoinPayload struct {
	Name string `json:"name"`
}

// WelcomePayload tells a fresh connection its opaque identifier.
type WelcomePayload struct {
	PlayerID string `json:"playerId"`
}

// Encode wraps payload in an envelope of type t and marshals it.
func Encode(t string, payload any) ([]byte, error) {
	if t == "" {
		return nil, errors.New("encode: empty message type")
	}
	var raw json.RawMessage
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", t, err)
		}
		raw = b
	}
	return json.Marshal(Message{Type: t, Payload: raw})
}

// Decode parses a raw frame into an envelope.
func Decode(b []byte) (Message, error) {
	if len(b) == 0 {
		return Message{}, errors.New("decode: empty frame")
	}
	var m Message
	if err := json.Unmarshal(b, &m); err != nil {
		return Message{}, fmt.Errorf("decode: %w", err)
	}
	if m.Type == "" {
		return Message{}, errors.New("decode: missing type")
	}
	return m, nil
}

// DecodePayload unmarshals the payload of m into T.
func DecodePayload[T any](m Message) (T, error) {
	var out T
	if len(m.Payload) == 0 {
		return out, fmt.Errorf("empty payload for type %q", m.Type)
	}
	err := json.Unmarshal(m.Payload, &out)
	return out, err
}
