// internal/game/engine.go
//
// Session state machine for a single riskclock game.
// Responsibilities:
//   - Player registry: idempotent join, leave/disconnect removal.
//   - Turn rotation anchored on the current player's id, never a list index.
//   - Elimination once a player's accumulated time reaches Rules.Threshold.
//   - Win detection (single survivor, or everybody else left).
//   - Reset/rematch with a rotating starting player.
//
// Notes:
//   - Session is NOT safe for concurrent use; session.Engine serializes it.
//   - Mutating methods report whether state changed; a false return is a
//     benign no-op that callers should not broadcast.
//   - Elapsed click time is drawn by the caller (see Roll) so the state
//     machine itself stays deterministic.
package game

import "math"

// Session is the authoritative roster plus derived match state.
type Session struct {
	rules   Rules
	players []*Player // turn order
	current string    // id of the player holding the turn, "" if none
	cursor  int       // roster position of the last turn holder
	started bool
	winner  *Player // detached copy
}

// NewSession constructs an empty lobby.
func NewSession(r Rules) *Session {
	if r.Threshold <= 0 || r.MaxClick < 0 {
		r = DefaultRules()
	}
	return &Session{rules: r}
}

// Rules returns the rules the session was built with.
func (s *Session) Rules() Rules { return s.rules }

// Phase derives the lifecycle state from started/winner.
func (s *Session) Phase() Phase {
	switch {
	case s.started:
		return PhaseInProgress
	case s.winner != nil:
		return PhaseFinished
	default:
		return PhaseLobby
	}
}

// Join adds a player. Joining twice with the same id is a no-op.
//
// While no match is running every active player's time is zeroed; the
// second player to arrive starts the match.
func (s *Session) Join(id, name string) bool {
	if s.find(id) != nil {
		return false
	}
	s.players = append(s.players, &Player{ID: id, Name: name, Connected: true})

	if !s.started {
		// eliminated players keep their bust time until the next start
		for _, p := range s.players {
			if !p.Eliminated {
				p.AccumulatedTime = 0
			}
		}
		if len(s.players) == 2 {
			s.start(0)
		}
	}
	return true
}

// Leave removes a player from the roster and, while a match runs, passes
// the turn to the next active player.
// A Finish is returned when a running match was forfeited.
func (s *Session) Leave(id string) (bool, *Finish) {
	idx := s.indexOf(id)
	if idx < 0 {
		return false, nil
	}
	wasRunning := s.started
	heldTurn := s.current == id
	s.players = append(s.players[:idx], s.players[idx+1:]...)

	switch len(s.players) {
	case 0:
		s.clear()
		return true, nil
	case 1:
		last := s.players[0]
		s.declareWinner(last)
		if !wasRunning {
			return true, nil
		}
		return true, s.finish(*last, FinishForfeit)
	}

	// everyone else still in the roster was already eliminated
	if active := s.active(); wasRunning && len(active) == 1 {
		s.declareWinner(active[0])
		return true, s.finish(*active[0], FinishForfeit)
	}

	if heldTurn {
		s.current = ""
		// scan from the slot the leaver vacated
		s.cursor = idx - 1
		if s.started {
			s.passTurn()
		}
	} else if i := s.indexOf(s.current); i >= 0 {
		s.cursor = i
		if s.started {
			s.passTurn()
		}
	} else if idx <= s.cursor {
		s.cursor--
	}
	return true, nil
}

// Act applies one click worth elapsed seconds for player id.
// It is a no-op for unknown ids, eliminated players, or while no match
// is running (and, with StrictTurns, when id does not hold the turn).
func (s *Session) Act(id string, elapsed float64) (bool, *Finish) {
	p := s.find(id)
	if p == nil || !s.started || p.Eliminated {
		return false, nil
	}
	if s.rules.StrictTurns && s.current != id {
		return false, nil
	}
	if elapsed < 0 || math.IsNaN(elapsed) {
		elapsed = 0
	}

	p.AccumulatedTime = round2(p.AccumulatedTime + elapsed)
	if p.AccumulatedTime >= s.rules.Threshold {
		p.Eliminated = true
	}

	active := s.active()
	if len(active) == 1 {
		s.declareWinner(active[0])
		return true, s.finish(*active[0], FinishElimination)
	}
	s.passTurn()
	return true, nil
}

// Reset starts a rematch with the connected players.
//
//   - one connected player: that player wins a walkover, nothing runs.
//   - none: the session is cleared.
//   - two or more: times and eliminations are cleared and the player
//     after the previous turn holder starts.
func (s *Session) Reset() (bool, *Finish) {
	wasRunning := s.started

	var kept []*Player
	base := -1
	for _, p := range s.players {
		if !p.Connected {
			continue
		}
		if p.ID == s.current {
			base = len(kept)
		}
		kept = append(kept, p)
	}
	if base < 0 {
		base = s.cursor
	}
	s.players = kept

	switch n := len(kept); {
	case n == 0:
		s.clear()
		return true, nil
	case n == 1:
		only := kept[0]
		only.AccumulatedTime = 0
		only.Eliminated = false
		s.declareWinner(only)
		if !wasRunning {
			return true, nil
		}
		return true, s.finish(*only, FinishWalkover)
	default:
		if base >= n {
			base = n - 1
		}
		if base < -1 {
			base = -1
		}
		s.start((base + 1) % n)
		return true, nil
	}
}

// Snapshot returns a detached view of the session.
func (s *Session) Snapshot() Snapshot {
	snap := Snapshot{
		Players: make([]Player, 0, len(s.players)),
		Started: s.started,
		Phase:   s.Phase(),
	}
	for _, p := range s.players {
		snap.Players = append(snap.Players, *p)
		if p.ID == s.current {
			cp := *p
			snap.CurrentPlayer = &cp
		}
	}
	if s.winner != nil {
		w := *s.winner
		snap.Winner = &w
	}
	return snap
}

// Clone returns a deep copy, used to apply operations atomically.
func (s *Session) Clone() *Session {
	c := *s
	c.players = make([]*Player, len(s.players))
	for i, p := range s.players {
		cp := *p
		c.players[i] = &cp
	}
	if s.winner != nil {
		w := *s.winner
		c.winner = &w
	}
	return &c
}

// start begins a match with the player at position first holding the turn.
func (s *Session) start(first int) {
	for _, p := range s.players {
		p.AccumulatedTime = 0
		p.Eliminated = false
	}
	s.started = true
	s.winner = nil
	s.current = s.players[first].ID
	s.cursor = first
}

// passTurn moves the turn to the next active player after the turn holder.
// Nothing happens when no other player is active.
func (s *Session) passTurn() {
	if len(s.active()) <= 1 {
		return
	}
	from := s.indexOf(s.current)
	if from < 0 {
		from = s.cursor
	}
	n := len(s.players)
	for i := 1; i <= n; i++ {
		at := (from + i) % n
		if at < 0 {
			at += n
		}
		if !s.players[at].Eliminated {
			s.current = s.players[at].ID
			s.cursor = at
			return
		}
	}
}

func (s *Session) declareWinner(p *Player) {
	w := *p
	s.winner = &w
	s.started = false
	if i := s.indexOf(s.current); i >= 0 {
		s.cursor = i
	}
	s.current = ""
}

func (s *Session) finish(w Player, reason FinishReason) *Finish {
	f := &Finish{Winner: w, Reason: reason, Players: make([]Player, 0, len(s.players))}
	for _, p := range s.players {
		f.Players = append(f.Players, *p)
	}
	return f
}

func (s *Session) clear() {
	s.players = nil
	s.current = ""
	s.cursor = 0
	s.started = false
	s.winner = nil
}

func (s *Session) active() []*Player {
	var out []*Player
	for _, p := range s.players {
		if !p.Eliminated {
			out = append(out, p)
		}
	}
	return out
}

func (s *Session) find(id string) *Player {
	if i := s.indexOf(id); i >= 0 {
		return s.players[i]
	}
	return nil
}

func (s *Session) indexOf(id string) int {
	if id == "" {
		return -1
	}
	for i, p := range s.players {
		if p.ID == id {
			return i
		}
	}
	return -1
}

// Roll draws a simulated click duration in [0, max] seconds, rounded to
// two decimals. rnd must return values in [0, 1).
func Roll(rnd func() float64, max float64) float64 {
	return round2(rnd() * max)
}

// round2 rounds to hundredths of a second.
func round2(v float64) float64 { return math.Round(v*100) / 100 }
