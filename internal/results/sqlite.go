// internal/results/sqlite.go
//
// SQLite implementation of the results.Store interface.
// The roster is stored as a JSON column; times are RFC3339Nano UTC text.

package results

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/robalobadob/riskclock/internal/game"
)

// SQLStore keeps the ledger in the matches table (see migrations/).
type SQLStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLStore wraps an open, migrated database.
func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db, now: time.Now} }

func (s *SQLStore) Record(ctx context.Context, f game.Finish) error {
	m := newMatch(uuid.NewString(), f, s.now())
	players, err := json.Marshal(m.Players)
	if err != nil {
		return fmt.Errorf("encode roster: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO matches (id, winner_id, winner_name, reason, players, finished_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		m.ID, m.WinnerID, m.WinnerName, string(m.Reason), string(players), m.FinishedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert match: %w", err)
	}
	return nil
}

func (s *SQLStore) Recent(ctx context.Context, limit int) ([]Match, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, winner_id, winner_name, reason, players, finished_at
		 FROM matches
		 ORDER BY rowid DESC
		 LIMIT ?`, ClampLimit(limit),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Match{}
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *SQLStore) Get(ctx context.Context, id string) (Match, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, winner_id, winner_name, reason, players, finished_at
		 FROM matches WHERE id=?`, id)
	m, err := scanMatch(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Match{}, ErrNotFound
	}
	return m, err
}

func (s *SQLStore) Leaderboard(ctx context.Context, limit int) ([]Standing, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT winner_name, COUNT(1) AS wins
		 FROM matches
		 GROUP BY winner_name
		 ORDER BY wins DESC, winner_name ASC
		 LIMIT ?`, ClampLimit(limit),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Standing{}
	for rows.Next() {
		var st Standing
		if err := rows.Scan(&st.Name, &st.Wins); err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMatch(sc scanner) (Match, error) {
	var (
		m        Match
		reason   string
		players  string
		finished string
	)
	if err := sc.Scan(&m.ID, &m.WinnerID, &m.WinnerName, &reason, &players, &finished); err != nil {
		return Match{}, err
	}
	m.Reason = game.FinishReason(reason)
	if err := json.Unmarshal([]byte(players), &m.Players); err != nil {
		return Match{}, fmt.Errorf("decode roster of %s: %w", m.ID, err)
	}
	t, err := time.Parse(time.RFC3339Nano, finished)
	if err != nil {
		return Match{}, fmt.Errorf("parse finished_at of %s: %w", m.ID, err)
	}
	m.FinishedAt = t
	return m, nil
}
