package game

import "testing"

func newTwo(t *testing.T) *Session {
	t.Helper()
	s := NewSession(DefaultRules())
	s.Join("a", "Alice")
	s.Join("b", "Bob")
	return s
}

func TestJoinIsIdempotent(t *testing.T) {
	s := NewSession(DefaultRules())
	if !s.Join("a", "Alice") {
		t.Fatalf("first join should apply")
	}
	if s.Join("a", "Alice again") {
		t.Fatalf("second join with same id should be a no-op")
	}
	snap := s.Snapshot()
	if len(snap.Players) != 1 {
		t.Fatalf("want 1 player, got %d", len(snap.Players))
	}
	if snap.Players[0].Name != "Alice" {
		t.Fatalf("name overwritten: %q", snap.Players[0].Name)
	}
	if snap.Started || snap.Phase != PhaseLobby {
		t.Fatalf("single player must stay in lobby, got %+v", snap)
	}
}

func TestSecondJoinAutoStarts(t *testing.T) {
	s := newTwo(t)
	snap := s.Snapshot()
	if !snap.Started || snap.Phase != PhaseInProgress {
		t.Fatalf("expected match to start, got %+v", snap)
	}
	if snap.CurrentPlayer == nil || snap.CurrentPlayer.ID != "a" {
		t.Fatalf("first joiner should hold the turn, got %+v", snap.CurrentPlayer)
	}
	if snap.Winner != nil {
		t.Fatalf("unexpected winner %+v", snap.Winner)
	}
}

func TestJoinMidMatchKeepsTimes(t *testing.T) {
	s := newTwo(t)
	s.Act("a", 2.5)
	if !s.Join("c", "Carol") {
		t.Fatalf("join should apply")
	}
	snap := s.Snapshot()
	a, _ := snap.Player("a")
	if a.AccumulatedTime != 2.5 {
		t.Fatalf("mid-match join reset time: %v", a.AccumulatedTime)
	}
	if !snap.Started || len(snap.Players) != 3 {
		t.Fatalf("unexpected state %+v", snap)
	}
}

func TestJoinOutsideMatchZeroesTimes(t *testing.T) {
	s := newTwo(t)
	s.Act("a", 31)
	if s.Snapshot().Started {
		t.Fatalf("match should be over")
	}
	s.Join("c", "Carol")
	snap := s.Snapshot()
	for _, p := range snap.Players {
		if p.ID == "a" {
			if !p.Eliminated || p.AccumulatedTime != 31 {
				t.Fatalf("eliminated player lost its time on lobby join: %+v", p)
			}
			continue
		}
		if p.AccumulatedTime != 0 {
			t.Fatalf("player %s kept time %v after lobby join", p.ID, p.AccumulatedTime)
		}
	}
	if snap.Started {
		t.Fatalf("three players after a finish must not auto-start")
	}
}

func TestEliminationThreshold(t *testing.T) {
	tests := []struct {
		name    string
		clicks  []float64
		wantOut bool
	}{
		{"below", []float64{3, 3, 3, 3, 3, 3, 3, 3, 3, 2.99}, false},
		{"exactly", []float64{3, 3, 3, 3, 3, 3, 3, 3, 3, 3}, true},
		{"above", []float64{29.5, 1.2}, true},
		{"single big", []float64{30.01}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSession(DefaultRules())
			s.Join("a", "A")
			s.Join("b", "B")
			s.Join("c", "C")
			for _, c := range tt.clicks {
				s.Act("a", c)
			}
			a, _ := s.Snapshot().Player("a")
			if a.Eliminated != tt.wantOut {
				t.Fatalf("eliminated=%v at %v, want %v", a.Eliminated, a.AccumulatedTime, tt.wantOut)
			}
			if a.Eliminated != (a.AccumulatedTime >= 30) {
				t.Fatalf("eliminated flag disagrees with time %v", a.AccumulatedTime)
			}
		})
	}
}

func TestTurnSkipsEliminated(t *testing.T) {
	s := newTwo(t)
	s.Join("c", "Carol")

	s.Act("a", 30) // a busts, turn a -> b
	snap := s.Snapshot()
	if snap.CurrentPlayer == nil || snap.CurrentPlayer.ID != "b" {
		t.Fatalf("want b, got %+v", snap.CurrentPlayer)
	}
	s.Act("b", 1)
	if cur := s.Snapshot().CurrentPlayer; cur == nil || cur.ID != "c" {
		t.Fatalf("want c, got %+v", cur)
	}
	s.Act("c", 1)
	if cur := s.Snapshot().CurrentPlayer; cur == nil || cur.ID != "b" {
		t.Fatalf("eliminated a must be skipped, got %+v", cur)
	}

	// Eliminated players stay visible in the roster.
	if a, ok := s.Snapshot().Player("a"); !ok || !a.Eliminated {
		t.Fatalf("a should remain listed as eliminated, got %+v ok=%v", a, ok)
	}
}

func TestSingleSurvivorWins(t *testing.T) {
	s := newTwo(t)
	changed, fin := s.Act("a", 31)
	if !changed || fin == nil {
		t.Fatalf("expected finish, got changed=%v fin=%v", changed, fin)
	}
	if fin.Winner.ID != "b" || fin.Reason != FinishElimination {
		t.Fatalf("unexpected finish %+v", fin)
	}
	snap := s.Snapshot()
	if snap.Started || snap.Winner == nil || snap.Winner.ID != "b" || snap.Phase != PhaseFinished {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
	if snap.CurrentPlayer != nil {
		t.Fatalf("finished match should have no turn holder, got %+v", snap.CurrentPlayer)
	}
	a, _ := snap.Player("a")
	if a.AccumulatedTime != 31 {
		t.Fatalf("eliminated player's time changed: %v", a.AccumulatedTime)
	}
}

func TestActNoops(t *testing.T) {
	tests := []struct {
		name  string
		setup func() *Session
		actor string
	}{
		{"unknown id", func() *Session { return newTwo(t) }, "zz"},
		{"not started", func() *Session {
			s := NewSession(DefaultRules())
			s.Join("a", "A")
			return s
		}, "a"},
		{"eliminated", func() *Session {
			s := newTwo(t)
			s.Join("c", "C")
			s.Act("a", 30)
			return s
		}, "a"},
		{"finished", func() *Session {
			s := newTwo(t)
			s.Act("a", 30)
			return s
		}, "b"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := tt.setup()
			before := s.Snapshot()
			changed, fin := s.Act(tt.actor, 2)
			if changed || fin != nil {
				t.Fatalf("expected no-op")
			}
			after := s.Snapshot()
			if len(before.Players) != len(after.Players) {
				t.Fatalf("roster changed")
			}
			for i := range before.Players {
				if before.Players[i] != after.Players[i] {
					t.Fatalf("player changed: %+v -> %+v", before.Players[i], after.Players[i])
				}
			}
		})
	}
}

func TestStrictTurns(t *testing.T) {
	r := DefaultRules()
	r.StrictTurns = true
	s := NewSession(r)
	s.Join("a", "A")
	s.Join("b", "B")

	if changed, _ := s.Act("b", 1); changed {
		t.Fatalf("b acted out of turn")
	}
	if changed, _ := s.Act("a", 1); !changed {
		t.Fatalf("a should be allowed to act")
	}
	if cur := s.Snapshot().CurrentPlayer; cur == nil || cur.ID != "b" {
		t.Fatalf("turn should pass to b, got %+v", cur)
	}
}

func TestLeaveDeclaresWinner(t *testing.T) {
	s := newTwo(t)
	changed, fin := s.Leave("a")
	if !changed {
		t.Fatalf("leave should apply")
	}
	if fin == nil || fin.Reason != FinishForfeit || fin.Winner.ID != "b" {
		t.Fatalf("unexpected finish %+v", fin)
	}
	snap := s.Snapshot()
	if snap.Started || snap.Winner == nil || snap.Winner.ID != "b" {
		t.Fatalf("b should win by forfeit, got %+v", snap)
	}
	if len(snap.Players) != 1 {
		t.Fatalf("leaver must be removed, roster %+v", snap.Players)
	}
}

func TestLeaveLastPlayerClears(t *testing.T) {
	s := newTwo(t)
	s.Leave("a")
	s.Leave("b")
	snap := s.Snapshot()
	if len(snap.Players) != 0 || snap.Started || snap.Winner != nil || snap.CurrentPlayer != nil {
		t.Fatalf("expected empty lobby, got %+v", snap)
	}
	if snap.Phase != PhaseLobby {
		t.Fatalf("phase = %s", snap.Phase)
	}
}

func TestLeaveByTurnHolderPassesTurn(t *testing.T) {
	s := newTwo(t)
	s.Join("c", "C")
	s.Leave("a")
	if cur := s.Snapshot().CurrentPlayer; cur == nil || cur.ID != "b" {
		t.Fatalf("want b, got %+v", cur)
	}

	s.Act("b", 1) // turn -> c
	s.Join("d", "D")
	s.Leave("c") // c held the turn, d takes its slot
	if cur := s.Snapshot().CurrentPlayer; cur == nil || cur.ID != "d" {
		t.Fatalf("want d, got %+v", cur)
	}
}

func TestLeaveByOtherPassesTurn(t *testing.T) {
	tests := []struct {
		name   string
		leaver string
		want   string
	}{
		{"after holder", "b", "c"},
		{"before wrap", "c", "b"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTwo(t)
			s.Join("c", "C")
			s.Leave(tt.leaver)
			if cur := s.Snapshot().CurrentPlayer; cur == nil || cur.ID != tt.want {
				t.Fatalf("want %s, got %+v", tt.want, cur)
			}
		})
	}
}

func TestLeaveByOtherSkipsEliminated(t *testing.T) {
	s := newTwo(t)
	s.Join("c", "C")
	s.Join("d", "D")
	s.Act("b", 30) // b busts, turn a -> c
	s.Act("c", 1)  // turn -> d
	s.Act("d", 1)  // turn -> a
	s.Leave("c")
	if cur := s.Snapshot().CurrentPlayer; cur == nil || cur.ID != "d" {
		t.Fatalf("want d, got %+v", cur)
	}
}

func TestLeaveOutsideMatchKeepsLobby(t *testing.T) {
	s := newTwo(t)
	s.Act("b", 30)
	s.Join("c", "C")
	s.Join("d", "D")
	if changed, fin := s.Leave("c"); !changed || fin != nil {
		t.Fatalf("lobby leave: changed=%v fin=%+v", changed, fin)
	}
	snap := s.Snapshot()
	if snap.Started || snap.CurrentPlayer != nil {
		t.Fatalf("leave must not start a match: %+v", snap)
	}
}

func TestLeaveLeavingOneActiveEndsMatch(t *testing.T) {
	s := newTwo(t)
	s.Join("c", "C")
	s.Act("b", 30)
	changed, fin := s.Leave("c")
	if !changed || fin == nil || fin.Winner.ID != "a" || fin.Reason != FinishForfeit {
		t.Fatalf("a should win once only eliminated players remain, got %v %+v", changed, fin)
	}
	snap := s.Snapshot()
	if snap.Started || snap.CurrentPlayer != nil || len(snap.Players) != 2 {
		t.Fatalf("unexpected %+v", snap)
	}
}

func TestLeaveUnknownIsNoop(t *testing.T) {
	s := newTwo(t)
	if changed, fin := s.Leave("nobody"); changed || fin != nil {
		t.Fatalf("expected no-op")
	}
}

func TestResetRotatesStarter(t *testing.T) {
	s := newTwo(t)
	seen := map[string]bool{}
	for i := 0; i < 4; i++ {
		s.Reset()
		cur := s.Snapshot().CurrentPlayer
		if cur == nil {
			t.Fatalf("reset should pick a starter")
		}
		seen[cur.ID] = true
	}
	if len(seen) != 2 {
		t.Fatalf("starter never rotated: %v", seen)
	}

	s.Reset()
	first := s.Snapshot().CurrentPlayer.ID
	s.Reset()
	if second := s.Snapshot().CurrentPlayer.ID; first == second {
		t.Fatalf("consecutive resets both started %s", first)
	}
}

func TestResetClearsMatch(t *testing.T) {
	s := newTwo(t)
	s.Act("a", 12)
	s.Act("b", 30)
	s.Reset()
	snap := s.Snapshot()
	if !snap.Started || snap.Winner != nil {
		t.Fatalf("reset should start a fresh match, got %+v", snap)
	}
	for _, p := range snap.Players {
		if p.AccumulatedTime != 0 || p.Eliminated {
			t.Fatalf("player %s not reset: %+v", p.ID, p)
		}
	}
}

func TestResetSingleConnectedWalkover(t *testing.T) {
	s := newTwo(t)
	s.Act("a", 7)
	s.players[1].Connected = false

	changed, fin := s.Reset()
	if !changed || fin == nil || fin.Reason != FinishWalkover {
		t.Fatalf("expected walkover, got %v %+v", changed, fin)
	}
	snap := s.Snapshot()
	if snap.Started || snap.Winner == nil || snap.Winner.ID != "a" {
		t.Fatalf("a should win, got %+v", snap)
	}
	if snap.Winner.AccumulatedTime != 0 {
		t.Fatalf("winner time should be zeroed, got %v", snap.Winner.AccumulatedTime)
	}
	if len(snap.Players) != 1 || snap.CurrentPlayer != nil {
		t.Fatalf("unexpected roster %+v", snap)
	}
}

func TestResetWithoutPlayers(t *testing.T) {
	s := NewSession(DefaultRules())
	changed, fin := s.Reset()
	if !changed || fin != nil {
		t.Fatalf("reset always applies, got %v %+v", changed, fin)
	}
	snap := s.Snapshot()
	if len(snap.Players) != 0 || snap.Started || snap.Winner != nil {
		t.Fatalf("expected cleared session, got %+v", snap)
	}
}

func TestExampleScenarioEliminationWin(t *testing.T) {
	s := newTwo(t)
	if cur := s.Snapshot().CurrentPlayer; cur == nil || cur.ID != "a" {
		t.Fatalf("a should start")
	}
	for i := 0; i < 20; i++ {
		if changed, _ := s.Act("a", 3); !changed {
			break
		}
	}
	snap := s.Snapshot()
	a, _ := snap.Player("a")
	if !a.Eliminated || a.AccumulatedTime < 30 {
		t.Fatalf("a should be eliminated, got %+v", a)
	}
	if snap.Winner == nil || snap.Winner.ID != "b" || snap.Started {
		t.Fatalf("b should win, got %+v", snap)
	}
}

func TestSnapshotIsDetached(t *testing.T) {
	s := newTwo(t)
	snap := s.Snapshot()
	snap.Players[0].AccumulatedTime = 99
	snap.CurrentPlayer.Name = "mutated"
	again := s.Snapshot()
	if again.Players[0].AccumulatedTime != 0 || again.CurrentPlayer.Name != "Alice" {
		t.Fatalf("snapshot leaked internal state: %+v", again)
	}
}

func TestCloneIsDeep(t *testing.T) {
	s := newTwo(t)
	c := s.Clone()
	c.Act("a", 30)
	if s.Snapshot().Winner != nil {
		t.Fatalf("clone mutation leaked into original")
	}
	if a, _ := s.Snapshot().Player("a"); a.AccumulatedTime != 0 {
		t.Fatalf("original player mutated: %+v", a)
	}
}

func TestRoll(t *testing.T) {
	tests := []struct {
		r, max, want float64
	}{
		{0, 3, 0},
		{0.5, 3, 1.5},
		{0.999, 3, 3},
		{0.12345, 3, 0.37},
	}
	for _, tt := range tests {
		if got := Roll(func() float64 { return tt.r }, tt.max); got != tt.want {
			t.Errorf("Roll(%v, %v) = %v, want %v", tt.r, tt.max, got, tt.want)
		}
	}
}
