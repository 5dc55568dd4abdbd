package api

import (
	"image"
	"net/http"

	"lastball/internal/game"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// StoreInterface defines the entity store methods used by the API.
// *game.Store satisfies it; tests may pass a real store with a seeded RNG.
type StoreInterface interface {
	// Snapshot returns a copy of the current state
	Snapshot() game.Snapshot
	// AddPlayers adds one player per whitespace separated name
	AddPlayers(raw string) ([]game.Player, error)
	// RemovePlayer drops a player by id
	RemovePlayer(id int) error
	// Shuffle reorders and repositions every player
	Shuffle() error
	// SetHoveredPlayer highlights a player, game.NoPlayer clears
	SetHoveredPlayer(id int) error
	// UpdateBoundary resizes the field and recenters the ball
	UpdateBoundary(height, width float64)
}

// RoundInterface defines the round machine methods used by the API.
type RoundInterface interface {
	Play()
	TogglePlay()
	Pause()
	Reset()
	State() game.RoundState
}

// FrameRenderer draws a snapshot to an image
type FrameRenderer interface {
	Render(snap game.Snapshot) image.Image
}

// EventSource exposes recent event log entries
type EventSource interface {
	Recent(n int) []game.Event
	GetStats() map[string]interface{}
}

// RouterConfig contains all dependencies needed to construct the HTTP router.
//
// Example usage in tests:
//
//	cfg := api.RouterConfig{
//	    Store: store,
//	    Round: round,
//	    RateLimitConfig: &api.RateLimitConfig{
//	        RequestsPerSecond: 1000, // High limit for tests
//	        Burst:             1000,
//	    },
//	}
//	router := api.NewRouter(cfg)
//	ts := httptest.NewServer(router)
type RouterConfig struct {
	// Store is the entity store (required)
	Store StoreInterface

	// Round is the round machine (required)
	Round RoundInterface

	// Renderer serves /api/frame.png. Optional, the route answers 503 without it.
	Renderer FrameRenderer

	// Events serves /api/events. Optional.
	Events EventSource

	// MaxPlayers caps players added through the API, 0 = unlimited
	MaxPlayers int

	// RateLimiter is an optional pre-configured rate limiter.
	// If nil, a new one will be created using RateLimitConfig.
	RateLimiter *IPRateLimiter

	// RateLimitConfig is optional configuration for the rate limiter.
	// Only used if RateLimiter is nil. If both are nil, uses DefaultRateLimitConfig.
	RateLimitConfig *RateLimitConfig

	// CORSOrigins is an optional list of allowed CORS origins.
	// If nil, uses DefaultAllowedOrigins.
	CORSOrigins []string

	// DisableLogging disables the request logger middleware (useful for benchmarks).
	DisableLogging bool
}

// routerHandlers holds the dependencies handler functions need
type routerHandlers struct {
	store      StoreInterface
	round      RoundInterface
	renderer   FrameRenderer
	events     EventSource
	limiter    *IPRateLimiter
	maxPlayers int
}

// NewRouter constructs the HTTP router with all middleware and routes.
//
// NewRouter opens no listeners. The only goroutine it may start is the
// cleanup loop of a rate limiter it creates itself; pass RateLimiter to
// control that lifetime.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Middleware - Order matters!
	if !cfg.DisableLogging {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)
	r.Use(metricsMiddleware)

	// Rate limiting (BEFORE CORS to reject early and save CPU)
	rateLimiter := cfg.RateLimiter
	if rateLimiter == nil {
		rateLimitCfg := DefaultRateLimitConfig
		if cfg.RateLimitConfig != nil {
			rateLimitCfg = *cfg.RateLimitConfig
		}
		rateLimiter = NewIPRateLimiter(rateLimitCfg)
	}
	r.Use(rateLimiter.Middleware)

	corsOrigins := cfg.CORSOrigins
	if corsOrigins == nil {
		corsOrigins = DefaultAllowedOrigins
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: corsOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	}))

	h := &routerHandlers{
		store:      cfg.Store,
		round:      cfg.Round,
		renderer:   cfg.Renderer,
		events:     cfg.Events,
		limiter:    rateLimiter,
		maxPlayers: cfg.MaxPlayers,
	}

	r.Route("/api", func(r chi.Router) {
		// Game state
		r.Get("/state", h.handleGetState)
		r.Get("/stats", h.handleGetStats)
		r.Get("/events", h.handleGetEvents)
		r.Get("/frame.png", h.handleGetFrame)

		// Player management
		r.Post("/players", h.handleAddPlayers)
		r.Delete("/players/{id}", h.handleRemovePlayer)
		r.Post("/players/shuffle", h.handleShuffle)
		r.Post("/hover", h.handleHover)

		// Round control
		r.Post("/round/play", h.handleRoundPlay)
		r.Post("/round/toggle", h.handleRoundToggle)
		r.Post("/round/pause", h.handleRoundPause)
		r.Post("/round/reset", h.handleRoundReset)

		// Field
		r.Put("/boundary", h.handleUpdateBoundary)
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]string{"status": "ok"})
	})

	return r
}
