// internal/results/memory.go
//
// In-memory implementation of the results.Store interface.
// Used when no DB_PATH is configured, and in tests.
//
// Characteristics:
//   - Append-only slice guarded by an RWMutex.
//   - State is lost when the process restarts.

package results

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/robalobadob/riskclock/internal/game"
)

// memory is a slice-backed Store.
type memory struct {
	mu      sync.RWMutex // guards matches
	matches []Match      // oldest first
	now     func() time.Time
}

// NewMemoryStore constructs an empty in-memory Store.
func NewMemoryStore() Store {
	return &memory{now: time.Now}
}

// Record appends f.
func (m *memory) Record(ctx context.Context, f game.Finish) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.matches = append(m.matches, newMatch(uuid.NewString(), f, m.now()))
	return nil
}

// Recent returns up to limit matches, newest first.
func (m *memory) Recent(ctx context.Context, limit int) ([]Match, error) {
	limit = ClampLimit(limit)
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Match, 0, min(limit, len(m.matches)))
	for i := len(m.matches) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.matches[i])
	}
	return out, nil
}

// Get looks a match up by id.
func (m *memory) Get(ctx context.Context, id string) (Match, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, mt := range m.matches {
		if mt.ID == id {
			return mt, nil
		}
	}
	return Match{}, ErrNotFound
}

// Leaderboard tallies wins by name.
func (m *memory) Leaderboard(ctx context.Context, limit int) ([]Standing, error) {
	limit = ClampLimit(limit)
	m.mu.RLock()
	wins := make(map[string]int)
	for _, mt := range m.matches {
		wins[mt.WinnerName]++
	}
	m.mu.RUnlock()

	out := make([]Standing, 0, len(wins))
	for name, n := range wins {
		out = append(out, Standing{Name: name, Wins: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Wins != out[j].Wins {
			return out[i].Wins > out[j].Wins
		}
		return out[i].Name < out[j].Name
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
