// internal/httpserver/server.go
//
// HTTP server wiring for the risk-clock backend.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs).
//   - Public endpoints: "/", "/health".
//   - Game hub: GET /gamehub upgrades to a WebSocket (mounted outside the timeout).
//   - Read-only game endpoints: current state, match history, leaderboard.
//
// Notes:
//   - CORS is origin-aware and credentials-enabled, matching the WebSocket origin check.
//   - All state changes go through the hub; HTTP never mutates the session.

package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/riskclock/internal/game"
	"github.com/robalobadob/riskclock/internal/results"
)

// SnapshotSource exposes the live session state.
type SnapshotSource interface {
	Snapshot() game.Snapshot
}

// Server bundles router, session view and match ledger.
type Server struct {
	r       *chi.Mux
	session SnapshotSource
	ledger  results.Store
}

// New constructs a Server, installs middleware, and registers routes.
// hub serves /gamehub; it may be nil in tests that only exercise the REST side.
func New(session SnapshotSource, ledger results.Store, hub http.Handler, origin string) *Server {
	s := &Server{r: chi.NewRouter(), session: session, ledger: ledger}

	// --- middleware ---
	s.r.Use(chimw.RequestID) // add X-Request-ID
	s.r.Use(chimw.RealIP)    // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(chimw.Recoverer) // recover from panics
	s.r.Use(corsFor(origin)) // credentials-friendly CORS

	// WebSocket connections outlive any request timeout.
	if hub != nil {
		s.r.Get("/gamehub", hub.ServeHTTP)
	}

	s.r.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(10 * time.Second)) // bound handler time
		r.Use(jsonContentType)                 // default JSON responses

		// --- diagnostics ---
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"service":"riskclock","endpoints":["/health","/gamehub","/api/game/state","/api/game/history","/api/game/leaderboard"]}`))
		})
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"ok":true}`))
		})

		r.Route("/api/game", func(r chi.Router) {
			r.Get("/state", s.handleState)
			r.Get("/history", s.handleHistory)
			r.Get("/history/{id}", s.handleMatch)
			r.Get("/leaderboard", s.handleLeaderboard)
		})
	})

	// JSON 404 for easier debugging
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "not_found", "path": r.URL.Path})
	})

	return s
}

// Router exposes the internal router (useful for tests and http.Server).
func (s *Server) Router() chi.Router { return s.r }

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// corsFor enables credentialed CORS for a single origin.
func corsFor(origin string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "GET,OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ------------------------------ GAME ---------------------------------------

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	_ = json.NewEncoder(w).Encode(s.session.Snapshot())
}

type historyRes struct {
	Matches []results.Match `json:"matches"`
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(w, r)
	if !ok {
		return
	}
	ms, err := s.ledger.Recent(r.Context(), limit)
	if err != nil {
		log.Error().Err(err).Msg("list matches")
		http.Error(w, `{"error":"db_error"}`, http.StatusInternalServerError)
		return
	}
	_ = json.NewEncoder(w).Encode(historyRes{Matches: ms})
}

func (s *Server) handleMatch(w http.ResponseWriter, r *http.Request) {
	m, err := s.ledger.Get(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, results.ErrNotFound) {
		http.Error(w, `{"error":"not_found"}`, http.StatusNotFound)
		return
	}
	if err != nil {
		log.Error().Err(err).Msg("get match")
		http.Error(w, `{"error":"db_error"}`, http.StatusInternalServerError)
		return
	}
	_ = json.NewEncoder(w).Encode(m)
}

type leaderboardRes struct {
	Standings []results.Standing `json:"standings"`
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(w, r)
	if !ok {
		return
	}
	rows, err := s.ledger.Leaderboard(r.Context(), limit)
	if err != nil {
		log.Error().Err(err).Msg("leaderboard")
		http.Error(w, `{"error":"db_error"}`, http.StatusInternalServerError)
		return
	}
	_ = json.NewEncoder(w).Encode(leaderboardRes{Standings: rows})
}

// parseLimit reads ?limit=; absent means the store default.
func parseLimit(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		http.Error(w, `{"error":"bad_limit"}`, http.StatusBadRequest)
		return 0, false
	}
	return n, true
}
