package config

import (
	"testing"
	"time"
)

func TestDefaultGame(t *testing.T) {
	cfg := DefaultGame()

	if cfg.CountdownSeconds != 2 {
		t.Errorf("Expected 2s countdown, got %d", cfg.CountdownSeconds)
	}
	if !cfg.BallMode {
		t.Error("ball mode should be on by default")
	}
	if cfg.TickInterval() != time.Second/60 {
		t.Errorf("Expected 60 TPS, got %v per tick", cfg.TickInterval())
	}
}

func TestGameFromEnv(t *testing.T) {
	t.Setenv("FIELD_WIDTH", "1024")
	t.Setenv("TICK_RATE", "30")
	t.Setenv("COUNTDOWN_SECONDS", "0")
	t.Setenv("BALL_MODE", "false")
	t.Setenv("GAME_SEED", "99")
	t.Setenv("INITIAL_PLAYERS", "Alice Bob")
	t.Setenv("FIELD_HEIGHT", "not-a-number")

	cfg := GameFromEnv()

	if cfg.Width != 1024 {
		t.Errorf("Expected width 1024, got %d", cfg.Width)
	}
	if cfg.Height != DefaultGame().Height {
		t.Errorf("invalid height should keep the default, got %d", cfg.Height)
	}
	if cfg.TickInterval() != time.Second/30 {
		t.Errorf("Expected 30 TPS, got %v per tick", cfg.TickInterval())
	}
	if cfg.CountdownSeconds != 0 {
		t.Errorf("Expected countdown 0, got %d", cfg.CountdownSeconds)
	}
	if cfg.BallMode {
		t.Error("BALL_MODE=false should disable ball mode")
	}
	if cfg.Seed != 99 {
		t.Errorf("Expected seed 99, got %d", cfg.Seed)
	}
	if cfg.InitialPlayers != "Alice Bob" {
		t.Errorf("Expected initial players, got %q", cfg.InitialPlayers)
	}
}

func TestServerFromEnv(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("ALLOWED_ORIGINS", "http://a.test, ,http://b.test")
	t.Setenv("DEBUG_ADDR", "")

	cfg := ServerFromEnv()

	if cfg.Port != 8080 {
		t.Errorf("Expected port 8080, got %d", cfg.Port)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "http://b.test" {
		t.Errorf("unexpected origins %v", cfg.AllowedOrigins)
	}
	if cfg.DebugAddr != "" {
		t.Errorf("empty DEBUG_ADDR should disable the debug server, got %q", cfg.DebugAddr)
	}
}

func TestEventLogFromEnv(t *testing.T) {
	t.Setenv("EVENT_LOG_PATH", "")
	t.Setenv("EVENT_LOG_ENABLED", "false")

	cfg := EventLogFromEnv()
	if cfg.Path != "" || cfg.Enabled {
		t.Errorf("unexpected event log config %+v", cfg)
	}
}
