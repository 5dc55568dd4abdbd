// Package config provides centralized configuration management.
// Every tunable of the game, the HTTP server and the renderers lives here.
//
// Each section has a Default* constructor and, where it makes sense, a
// *FromEnv variant that applies environment overrides on top.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// =============================================================================
// GAME CONFIGURATION
// =============================================================================

// GameConfig holds the round machine and play field settings.
type GameConfig struct {
	Width                int     // Initial play field width
	Height               int     // Initial play field height
	TickRate             int     // Simulation ticks per second
	CountdownSeconds     int     // Seconds before the ball becomes touchable
	BallMode             bool    // false = ambient wander, no winner
	BallRadius           float64 // Central ball radius
	ChaseScale           float64 // Velocity multiplier while chasing
	WanderScale          float64 // Velocity multiplier in wander mode
	MaxPlacementAttempts int     // Rejection sampling bound per placement
	Seed                 uint64  // RNG seed, 0 = time based
	InitialPlayers       string  // Whitespace separated names added at startup
}

// DefaultGame returns the default game configuration.
func DefaultGame() GameConfig {
	return GameConfig{
		Width:                800,
		Height:               600,
		TickRate:             60,
		CountdownSeconds:     2,
		BallMode:             true,
		BallRadius:           60,
		ChaseScale:           1,
		WanderScale:          1.0 / 60.0,
		MaxPlacementAttempts: 10000,
	}
}

// GameFromEnv returns game configuration with environment variable overrides.
func GameFromEnv() GameConfig {
	cfg := DefaultGame()

	if w := getEnvInt("FIELD_WIDTH", 0); w > 0 {
		cfg.Width = w
	}
	if h := getEnvInt("FIELD_HEIGHT", 0); h > 0 {
		cfg.Height = h
	}
	if tps := getEnvInt("TICK_RATE", 0); tps > 0 {
		cfg.TickRate = tps
	}
	if cd := getEnvInt("COUNTDOWN_SECONDS", -1); cd >= 0 {
		cfg.CountdownSeconds = cd
	}
	if os.Getenv("BALL_MODE") == "false" {
		cfg.BallMode = false
	}
	if r := getEnvFloat("BALL_RADIUS", 0); r > 0 {
		cfg.BallRadius = r
	}
	if s := getEnvFloat("CHASE_SCALE", 0); s > 0 {
		cfg.ChaseScale = s
	}
	if s := getEnvFloat("WANDER_SCALE", 0); s > 0 {
		cfg.WanderScale = s
	}
	if n := getEnvInt("MAX_PLACEMENT_ATTEMPTS", 0); n > 0 {
		cfg.MaxPlacementAttempts = n
	}
	if v := os.Getenv("GAME_SEED"); v != "" {
		if seed, err := strconv.ParseUint(v, 10, 64); err == nil {
			cfg.Seed = seed
		}
	}
	cfg.InitialPlayers = os.Getenv("INITIAL_PLAYERS")

	return cfg
}

// TickInterval returns the duration of one simulation tick.
func (c GameConfig) TickInterval() time.Duration {
	if c.TickRate <= 0 {
		return time.Second / 60
	}
	return time.Second / time.Duration(c.TickRate)
}

// =============================================================================
// SERVER CONFIGURATION
// =============================================================================

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port           int
	DebugAddr      string   // pprof and /metrics, empty disables
	MaxPlayers     int      // Cap on players added through the API
	AllowedOrigins []string // CORS and websocket origins
	RequestsPerSec float64  // Per-IP API rate
	RequestBurst   int
}

// DefaultServer returns the default server configuration.
func DefaultServer() ServerConfig {
	return ServerConfig{
		Port:           3000,
		DebugAddr:      "localhost:6060",
		MaxPlayers:     200, // an 800x600 field fits a few hundred r=10 circles
		RequestsPerSec: 20,
		RequestBurst:   40,
		AllowedOrigins: []string{
			"http://localhost:3000",
			"http://localhost:4200",
			"http://127.0.0.1:3000",
		},
	}
}

// ServerFromEnv returns server configuration with environment variable overrides.
func ServerFromEnv() ServerConfig {
	cfg := DefaultServer()

	if p := getEnvInt("PORT", 0); p > 0 {
		cfg.Port = p
	}
	if v, ok := os.LookupEnv("DEBUG_ADDR"); ok {
		cfg.DebugAddr = v
	}
	if mp := getEnvInt("MAX_PLAYERS", 0); mp > 0 {
		cfg.MaxPlayers = mp
	}
	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		cfg.AllowedOrigins = splitList(origins)
	}
	if rps := getEnvFloat("RATE_LIMIT_RPS", 0); rps > 0 {
		cfg.RequestsPerSec = rps
	}
	if burst := getEnvInt("RATE_LIMIT_BURST", 0); burst > 0 {
		cfg.RequestBurst = burst
	}

	return cfg
}

// =============================================================================
// RENDER CONFIGURATION
// =============================================================================

// RenderConfig holds frame rendering settings.
type RenderConfig struct {
	Background string  // Hex color behind the field
	BallText   string  // Hex color of the text on the ball
	FontPath   string  // TTF used for names, empty searches system fonts
	FontSize   float64 // Points
	ShowNames  bool    // Draw player names next to their circles
}

// DefaultRender returns the default render configuration.
func DefaultRender() RenderConfig {
	return RenderConfig{
		Background: "#1e1e2e",
		BallText:   "#2ecc71",
		FontSize:   14,
		ShowNames:  true,
	}
}

// RenderFromEnv returns render configuration with environment variable overrides.
func RenderFromEnv() RenderConfig {
	cfg := DefaultRender()

	if bg := os.Getenv("RENDER_BACKGROUND"); bg != "" {
		cfg.Background = bg
	}
	if fp := os.Getenv("RENDER_FONT"); fp != "" {
		cfg.FontPath = fp
	}
	if fs := getEnvFloat("RENDER_FONT_SIZE", 0); fs > 0 {
		cfg.FontSize = fs
	}
	if os.Getenv("RENDER_NAMES") == "false" {
		cfg.ShowNames = false
	}

	return cfg
}

// =============================================================================
// EVENT LOG CONFIGURATION
// =============================================================================

// EventLogConfig holds event log settings.
type EventLogConfig struct {
	Path    string // JSONL output, empty keeps events in memory only
	Enabled bool
}

// DefaultEventLog returns the default event log configuration.
func DefaultEventLog() EventLogConfig {
	return EventLogConfig{
		Path:    "events.jsonl",
		Enabled: true,
	}
}

// EventLogFromEnv returns event log configuration with environment variable overrides.
func EventLogFromEnv() EventLogConfig {
	cfg := DefaultEventLog()

	if v, ok := os.LookupEnv("EVENT_LOG_PATH"); ok {
		cfg.Path = v
	}
	if os.Getenv("EVENT_LOG_ENABLED") == "false" {
		cfg.Enabled = false
	}

	return cfg
}

// =============================================================================
// COMPLETE APP CONFIGURATION
// =============================================================================

// AppConfig holds the complete application configuration.
type AppConfig struct {
	Game     GameConfig
	Server   ServerConfig
	Render   RenderConfig
	EventLog EventLogConfig
}

// Load returns the complete configuration with environment overrides.
func Load() AppConfig {
	return AppConfig{
		Game:     GameFromEnv(),
		Server:   ServerFromEnv(),
		Render:   RenderFromEnv(),
		EventLog: EventLogFromEnv(),
	}
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
