// internal/session/engine.go
//
// Engine is the single serialization point for the process-wide session.
// Responsibilities:
//   - Hold one mutex across read, modify, broadcast for every operation so
//     no two mutations interleave and each broadcast shows exactly one
//     operation's effect.
//   - Apply each operation to a clone of the session and commit only on
//     success; a panic leaves the previous state untouched.
//   - Report an explicit Result (applied / no-op / fault) to the caller.
//
// Notes:
//   - The simulated click duration is drawn here, under the lock.
//   - No-ops are never broadcast.
package session

import (
	"fmt"
	"math/rand"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/riskclock/internal/game"
)

// Outcome classifies what an operation did.
type Outcome int

const (
	OutcomeApplied Outcome = iota // state changed and was broadcast
	OutcomeNoop                   // nothing to do; state unchanged
	OutcomeFault                  // internal failure; state unchanged
)

func (o Outcome) String() string {
	switch o {
	case OutcomeApplied:
		return "applied"
	case OutcomeNoop:
		return "noop"
	case OutcomeFault:
		return "fault"
	}
	return fmt.Sprintf("Outcome(%d)", int(o))
}

// Result is returned by every Engine operation.
type Result struct {
	Outcome  Outcome
	Snapshot game.Snapshot // state after the operation
	Finish   *game.Finish  // set when the operation concluded a match
	Err      error         // set for OutcomeFault
}

// Broadcaster fans a snapshot out to every connected client.
// Implementations must not block.
type Broadcaster interface {
	Broadcast(game.Snapshot)
}

// BroadcastFunc adapts a function to Broadcaster.
type BroadcastFunc func(game.Snapshot)

func (f BroadcastFunc) Broadcast(s game.Snapshot) { f(s) }

// Option configures an Engine.
type Option func(*Engine)

// WithBroadcaster sets where applied snapshots are sent.
func WithBroadcaster(b Broadcaster) Option {
	return func(e *Engine) { e.out = b }
}

// WithDice replaces the random source for click durations.
// dice must return values in [0, 1).
func WithDice(dice func() float64) Option {
	return func(e *Engine) { e.dice = dice }
}

// Engine owns the session; all methods are safe for concurrent use.
type Engine struct {
	mu   sync.Mutex
	sess *game.Session
	dice func() float64
	out  Broadcaster
}

// NewEngine builds an engine around a fresh lobby.
func NewEngine(rules game.Rules, opts ...Option) *Engine {
	e := &Engine{
		sess: game.NewSession(rules),
		dice: rand.Float64,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Attach sets the broadcaster after construction, for wiring cycles
// between the engine and the transport.
func (e *Engine) Attach(b Broadcaster) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.out = b
}

// Snapshot returns the current state without mutating it.
func (e *Engine) Snapshot() game.Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sess.Snapshot()
}

// Join registers id under name.
func (e *Engine) Join(id, name string) Result {
	return e.apply("join", id, func(s *game.Session) (bool, *game.Finish) {
		return s.Join(id, name), nil
	})
}

// Leave removes id from the roster.
func (e *Engine) Leave(id string) Result {
	return e.apply("leave", id, func(s *game.Session) (bool, *game.Finish) {
		return s.Leave(id)
	})
}

// Disconnect is Leave for a dropped connection.
func (e *Engine) Disconnect(id string) Result {
	return e.apply("disconnect", id, func(s *game.Session) (bool, *game.Finish) {
		return s.Leave(id)
	})
}

// Act records one click for id with a freshly rolled duration.
func (e *Engine) Act(id string) Result {
	return e.apply("act", id, func(s *game.Session) (bool, *game.Finish) {
		elapsed := game.Roll(e.dice, s.Rules().MaxClick)
		changed, fin := s.Act(id, elapsed)
		if changed {
			if p, ok := s.Snapshot().Player(id); ok {
				ev := log.Debug()
				if p.Eliminated {
					ev = log.Info()
				}
				ev.Str("player", p.Name).Float64("elapsed", elapsed).
					Float64("total", p.AccumulatedTime).Bool("eliminated", p.Eliminated).Msg("click")
			}
		}
		return changed, fin
	})
}

// Reset starts a rematch (see game.Session.Reset).
func (e *Engine) Reset() Result {
	return e.apply("reset", "", func(s *game.Session) (bool, *game.Finish) {
		return s.Reset()
	})
}

// apply runs op against a clone of the session while holding the lock,
// commits it on success and broadcasts the new snapshot.
func (e *Engine) apply(op, id string, fn func(*game.Session) (bool, *game.Finish)) Result {
	e.mu.Lock()
	defer e.mu.Unlock()

	next, changed, fin, err := mutate(e.sess, fn)
	if err != nil {
		log.Error().Err(err).Str("op", op).Str("player", id).Msg("operation failed; state unchanged")
		return Result{Outcome: OutcomeFault, Snapshot: e.sess.Snapshot(), Err: err}
	}
	if !changed {
		log.Debug().Str("op", op).Str("player", id).Msg("no-op")
		return Result{Outcome: OutcomeNoop, Snapshot: e.sess.Snapshot()}
	}

	e.sess = next
	snap := next.Snapshot()
	logTransition(op, id, snap, fin)
	e.broadcast(op, snap)
	return Result{Outcome: OutcomeApplied, Snapshot: snap, Finish: fin}
}

// broadcast hands snap to the transport. The state is already committed,
// so a failing transport is logged and otherwise ignored.
func (e *Engine) broadcast(op string, snap game.Snapshot) {
	if e.out == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("op", op).Msg("broadcast failed")
		}
	}()
	e.out.Broadcast(snap)
}

// mutate applies fn to a clone of cur, converting a panic into an error.
func mutate(cur *game.Session, fn func(*game.Session) (bool, *game.Finish)) (next *game.Session, changed bool, fin *game.Finish, err error) {
	defer func() {
		if r := recover(); r != nil {
			next, changed, fin = nil, false, nil
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	next = cur.Clone()
	changed, fin = fn(next)
	return next, changed, fin, nil
}

func logTransition(op, id string, snap game.Snapshot, fin *game.Finish) {
	ev := log.Info().Str("op", op).Str("phase", string(snap.Phase)).Int("players", len(snap.Players))
	if id != "" {
		ev = ev.Str("player", id)
	}
	if snap.CurrentPlayer != nil {
		ev = ev.Str("turn", snap.CurrentPlayer.Name)
	}
	if fin != nil {
		ev = ev.Str("winner", fin.Winner.Name).Str("reason", string(fin.Reason))
	}
	ev.Msg("session updated")
}
