// internal/results/store.go
//
// Ledger of finished matches.
// The live session never reads from here; it only appends once a match
// concludes, so losing the ledger never affects play.
//
// Implementations:
//   - memory (default): lost on restart.
//   - SQLStore: SQLite-backed, enabled with DB_PATH.

package results

import (
	"context"
	"embed"
	"errors"
	"time"

	"github.com/robalobadob/riskclock/internal/game"
)

// Migrations holds the schema for SQLStore, applied in lexical order.
//
//go:embed migrations/*.sql
var Migrations embed.FS

// ErrNotFound is returned by Get for unknown match ids.
var ErrNotFound = errors.New("match not found")

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Match is one concluded game.
type Match struct {
	ID         string            `json:"id"`
	WinnerID   string            `json:"winnerId"`
	WinnerName string            `json:"winnerName"`
	Reason     game.FinishReason `json:"reason"`
	Players    []game.Player     `json:"players"`
	FinishedAt time.Time         `json:"finishedAt"`
}

// Standing is a leaderboard row.
type Standing struct {
	Name string `json:"name"`
	Wins int    `json:"wins"`
}

// Store persists and queries finished matches.
type Store interface {
	// Record appends a finished match.
	Record(ctx context.Context, f game.Finish) error

	// Recent lists matches, newest first.
	Recent(ctx context.Context, limit int) ([]Match, error)

	// Get returns one match or ErrNotFound.
	Get(ctx context.Context, id string) (Match, error)

	// Leaderboard counts wins per display name, best first.
	Leaderboard(ctx context.Context, limit int) ([]Standing, error)
}

// ClampLimit maps a requested page size into [1, MaxLimit].
func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLimit
	case limit > MaxLimit:
		return MaxLimit
	default:
		return limit
	}
}

func newMatch(id string, f game.Finish, at time.Time) Match {
	players := make([]game.Player, len(f.Players))
	copy(players, f.Players)
	return Match{
		ID:         id,
		WinnerID:   f.Winner.ID,
		WinnerName: f.Winner.Name,
		Reason:     f.Reason,
		Players:    players,
		FinishedAt: at.UTC(),
	}
}
