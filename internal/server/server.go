// Package server is the production transport adapter: a WebSocket server
// with rooms and ack-with-timeout exchanges, behind the port interfaces the
// relay protocol consumes.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/codefionn/pairhub/internal/logger"
	"github.com/codefionn/pairhub/internal/relay"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
)

// Server hosts the health endpoint and the WebSocket upgrade path
type Server struct {
	addr       string
	httpServer *http.Server
	hub        *Hub
	router     *relay.Router
	upgrader   websocket.Upgrader
}

// NewServer creates a server listening on the given port
func NewServer(port int, hub *Hub, router *relay.Router) *Server {
	s := &Server{
		addr:   fmt.Sprintf(":%d", port),
		hub:    hub,
		router: router,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Cross-origin pairing is the point of the relay
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}

	mux := httprouter.New()
	mux.GET("/health-check", s.handleHealthCheck)
	mux.GET("/ws", s.handleWebSocket)

	s.httpServer = &http.Server{
		Addr:        s.addr,
		Handler:     mux,
		ReadTimeout: 60 * time.Second,
	}
	return s
}

// Addr returns the listen address
func (s *Server) Addr() string {
	return s.addr
}

// Start runs the hub loop and the HTTP server, blocking until the server
// stops.
func (s *Server) Start() error {
	go s.hub.Run()

	logger.Info("Relay server listening on %s", s.addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops accepting connections and tears the hub down
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	s.hub.Stop()
	return err
}

func (s *Server) handleHealthCheck(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "ok")
}

// handleWebSocket upgrades the connection and starts the client pumps.
// Credentials arrive either in the auth query parameter or as the first
// frame; no protocol traffic is accepted before role resolution.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("WebSocket upgrade failed: %v", err)
		return
	}

	client := NewClient(s.hub, conn, s.router)
	s.hub.Register(client)

	go client.WritePump()

	if rawAuth := r.URL.Query().Get("auth"); rawAuth != "" {
		// a rejected client is already disconnected; ReadPump still runs so
		// the shared cleanup path unregisters it
		client.Authenticate([]byte(rawAuth))
	}

	client.ReadPump(r.Context())
}
