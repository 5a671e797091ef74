// internal/network/server.go
//
// HTTP entry point for /gamehub: upgrades the request, registers the
// client with the hub and starts its pumps.
// Cross-origin upgrades are limited to the configured client origin.

package network

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// Server upgrades HTTP requests to WebSocket connections on a Hub.
type Server struct {
	hub      *Hub
	upgrader websocket.Upgrader
}

// NewServer builds a server whose hub reports to handler.
// Browsers are only accepted from the listed origins; an empty list
// accepts any origin.
func NewServer(handler EventHandler, origins ...string) *Server {
	s := &Server{hub: NewHub(handler)}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(origins),
	}
	return s
}

// Hub exposes the hub for broadcasting.
func (s *Server) Hub() *Hub { return s.hub }

// Run dispatches hub events until ctx is done.
func (s *Server) Run(ctx context.Context) { s.hub.Run(ctx) }

// ServeHTTP performs the upgrade and starts the client pumps.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Str("origin", r.Header.Get("Origin")).Msg("websocket upgrade failed")
		return
	}

	c := newClient(s.hub, conn)
	select {
	case s.hub.register <- c:
	case <-s.hub.done:
		_ = conn.Close()
		return
	}

	go c.writeLoop()
	go c.readLoop()
}

func originChecker(origins []string) func(*http.Request) bool {
	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		if o = strings.TrimRight(strings.TrimSpace(o), "/"); o != "" {
			allowed[strings.ToLower(o)] = struct{}{}
		}
	}
	return func(r *http.Request) bool {
		if len(allowed) == 0 {
			return true
		}
		origin := r.Header.Get("Origin")
		if origin == "" {
			// Non-browser clients do not send Origin.
			return true
		}
		if _, ok := allowed[strings.ToLower(origin)]; ok {
			return true
		}
		// Same-origin requests are always fine.
		u, err := url.Parse(origin)
		return err == nil && strings.EqualFold(u.Host, r.Host)
	}
}
