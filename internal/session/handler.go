// internal/session/handler.go
//
// GameHandler maps hub events onto the Engine.
// Responsibilities:
//   - JoinGame / ClickButton / ResetGame / LeaveGame, plus socket close.
//   - Greet new connections with their id and the current state.
//   - Hand concluded matches to the ledger off the hub goroutine.

package session

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/riskclock/internal/game"
	"github.com/robalobadob/riskclock/internal/network"
)

const (
	defaultName   = "Player"
	maxNameLength = 32
	recordTimeout = 5 * time.Second
)

// Recorder persists concluded matches.
type Recorder interface {
	Record(ctx context.Context, f game.Finish) error
}

// GameHandler routes transport events into the Engine.
// It implements network.EventHandler.
type GameHandler struct {
	engine   *Engine
	recorder Recorder
}

// NewGameHandler builds a handler; recorder may be nil.
func NewGameHandler(e *Engine, r Recorder) *GameHandler {
	return &GameHandler{engine: e, recorder: r}
}

// HubBroadcaster publishes snapshots as UpdateGame frames on hub.
func HubBroadcaster(hub *network.Hub) Broadcaster {
	return BroadcastFunc(func(s game.Snapshot) {
		if err := hub.Publish(network.MsgUpdateGame, s); err != nil {
			log.Error().Err(err).Msg("publish snapshot")
		}
	})
}

// OnConnect greets the client with its id and the current state.
func (h *GameHandler) OnConnect(c *network.Client) {
	h.unicast(c, network.MsgWelcome, network.WelcomePayload{PlayerID: c.ID()})
	h.unicast(c, network.MsgUpdateGame, h.engine.Snapshot())
}

// OnDisconnect removes the player bound to the connection.
func (h *GameHandler) OnDisconnect(c *network.Client) {
	h.after(h.engine.Disconnect(c.ID()))
}

// OnMessage dispatches one client command.
func (h *GameHandler) OnMessage(c *network.Client, msg network.Message) {
	switch msg.Type {
	case network.MsgJoinGame:
		p, err := network.DecodePayload[network.JoinPayload](msg)
		if err != nil {
			log.Debug().Err(err).Str("client", c.ID()).Msg("join without usable payload")
		}
		h.after(h.engine.Join(c.ID(), cleanName(p.Name)))
	case network.MsgClickButton:
		h.after(h.engine.Act(c.ID()))
	case network.MsgResetGame:
		h.after(h.engine.Reset())
	case network.MsgLeaveGame:
		h.after(h.engine.Leave(c.ID()))
	default:
		log.Warn().Str("client", c.ID()).Str("type", msg.Type).Msg("unknown message type")
	}
}

// after hands concluded matches to the recorder off the hub goroutine.
func (h *GameHandler) after(res Result) {
	if res.Finish == nil || h.recorder == nil {
		return
	}
	fin := *res.Finish
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
		defer cancel()
		if err := h.recorder.Record(ctx, fin); err != nil {
			log.Warn().Err(err).Str("winner", fin.Winner.Name).Msg("record match")
		}
	}()
}

func (h *GameHandler) unicast(c *network.Client, t string, payload any) {
	b, err := network.Encode(t, payload)
	if err != nil {
		log.Error().Err(err).Str("type", t).Msg("encode")
		return
	}
	if err := c.Send(b); err != nil {
		log.Debug().Err(err).Str("client", c.ID()).Msg("unicast dropped")
	}
}

// cleanName trims the display name and caps its length.
func cleanName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return defaultName
	}
	if utf8.RuneCountInString(name) > maxNameLength {
		name = string([]rune(name)[:maxNameLength])
	}
	return name
}
