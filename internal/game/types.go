// internal/game/types.go
//
// Core type definitions for the riskclock session.
// Defines:
//   - Player: one roster entry (accumulated risk time, elimination flag).
//   - Snapshot: immutable point-in-time view broadcast to every client.
//   - Phase: coarse lifecycle state derived from started/winner.
//   - Rules: tunable thresholds for a match.
//
// JSON field names match the browser client (totalTime, isEliminated, ...).

package game

// Phase is the coarse lifecycle state of the session.
//   - "lobby":       waiting for players, no winner.
//   - "in_progress": a match is running.
//   - "finished":    a match concluded and a winner is set.
type Phase string

const (
	PhaseLobby      Phase = "lobby"
	PhaseInProgress Phase = "in_progress"
	PhaseFinished   Phase = "finished"
)

// Player is a single roster entry.
type Player struct {
	ID              string  `json:"id"`           // Opaque connection identifier.
	Name            string  `json:"name"`         // Display name, not unique.
	AccumulatedTime float64 `json:"totalTime"`    // Risk seconds accumulated this match.
	Eliminated      bool    `json:"isEliminated"` // Set once AccumulatedTime reaches the threshold.
	Connected       bool    `json:"isConnected"`  // True from join until the connection drops.
}

// Snapshot is the externally visible session state.
// Players is always the full roster in turn order.
type Snapshot struct {
	Players       []Player `json:"players"`
	CurrentPlayer *Player  `json:"currentPlayer"`
	Started       bool     `json:"gameStarted"`
	Winner        *Player  `json:"winner"`
	Phase         Phase    `json:"phase"`
}

// Player returns the roster entry with the given id.
func (s Snapshot) Player(id string) (Player, bool) {
	for _, p := range s.Players {
		if p.ID == id {
			return p, true
		}
	}
	return Player{}, false
}

// Active counts players that are not eliminated.
func (s Snapshot) Active() int {
	n := 0
	for _, p := range s.Players {
		if !p.Eliminated {
			n++
		}
	}
	return n
}

// Rules tunes a match.
type Rules struct {
	Threshold   float64 // Seconds at which a player is eliminated.
	MaxClick    float64 // Upper bound of a single simulated click, in seconds.
	StrictTurns bool    // Only the current player may act.
}

// DefaultRules mirrors the classic game: 30s to bust, up to 3s per click.
func DefaultRules() Rules {
	return Rules{Threshold: 30, MaxClick: 3}
}

// FinishReason describes how a match concluded.
type FinishReason string

const (
	FinishElimination FinishReason = "elimination" // everyone else busted
	FinishForfeit     FinishReason = "forfeit"     // everyone else left
	FinishWalkover    FinishReason = "walkover"    // reset with a single connected player
)

// Finish is reported by the session when an operation moved it into PhaseFinished.
type Finish struct {
	Winner  Player
	Reason  FinishReason
	Players []Player // roster at the moment the match ended
}
