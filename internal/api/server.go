package api

import (
	"context"
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"lastball/internal/game"

	"github.com/go-chi/chi/v5"
)

// ServerConfig wires the API server to the game.
type ServerConfig struct {
	Store      *game.Store
	Round      RoundInterface
	Commands   CommandSink
	Renderer   FrameRenderer
	Events     EventSource
	MaxPlayers int
	Origins    []string // CORS and websocket origins, nil uses DefaultAllowedOrigins
	RateLimit  *RateLimitConfig
}

// Server is the HTTP API server with WebSocket support.
// It combines the HTTP router with WebSocket hub for real-time updates.
type Server struct {
	store       *game.Store
	router      *chi.Mux
	wsHub       *WebSocketHub
	rateLimiter *IPRateLimiter

	mu          sync.Mutex // guards the fields set by Start
	httpServer  *http.Server
	unsubscribe func()
}

// NewServer creates a new API server.
//
// IMPORTANT: Background workers do NOT start until Start() is called.
// This enables testing by allowing the server to be constructed without
// starting goroutines or opening network listeners.
//
// For testing HTTP endpoints without WebSocket support, use NewRouter() directly.
func NewServer(cfg ServerConfig) *Server {
	rateLimitCfg := DefaultRateLimitConfig
	if cfg.RateLimit != nil {
		rateLimitCfg = *cfg.RateLimit
	}

	s := &Server{
		store:       cfg.Store,
		wsHub:       NewWebSocketHub(cfg.Commands, cfg.Origins),
		rateLimiter: NewIPRateLimiter(rateLimitCfg),
	}

	s.router = NewRouter(RouterConfig{
		Store:       cfg.Store,
		Round:       cfg.Round,
		Renderer:    cfg.Renderer,
		Events:      cfg.Events,
		MaxPlayers:  cfg.MaxPlayers,
		RateLimiter: s.rateLimiter,
		CORSOrigins: cfg.Origins,
	})

	// WebSocket routes need the hub instance, so they live outside NewRouter
	s.router.Get("/ws", s.wsHub.HandleWebSocket)

	return s
}

// Start subscribes the hub to the store, starts background workers and
// serves HTTP. It blocks until the server stops; a graceful Shutdown
// returns nil.
func (s *Server) Start(addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	s.mu.Lock()
	if s.httpServer != nil {
		s.mu.Unlock()
		return errors.New("api: server already started")
	}
	s.httpServer = httpServer
	go s.wsHub.Run()
	s.unsubscribe = s.store.Subscribe(s.wsHub.Publish)
	s.mu.Unlock()

	s.wsHub.Publish(s.store.Snapshot())

	log.Printf("🌐 API server starting on %s", addr)
	log.Printf("🔌 WebSocket: ws://localhost%s/ws", addr)

	err := httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Router returns the HTTP handler for use with httptest.
// Use this in integration tests instead of calling Start().
func (s *Server) Router() http.Handler {
	return s.router
}

// Hub exposes the WebSocket hub
func (s *Server) Hub() *WebSocketHub {
	return s.wsHub
}

// Shutdown stops accepting requests, closes websocket clients and stops
// background workers.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	httpServer, unsubscribe := s.httpServer, s.unsubscribe
	s.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	s.wsHub.Stop()
	s.rateLimiter.Stop()

	if httpServer == nil {
		return nil
	}
	return httpServer.Shutdown(ctx)
}
