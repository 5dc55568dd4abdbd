package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lastball/internal/api"
	"lastball/internal/command"
	"lastball/internal/config"
	"lastball/internal/game"
	"lastball/internal/render"

	"github.com/joho/godotenv"
)

func main() {
	// Load .env file from parent directory
	if err := godotenv.Load("../.env"); err != nil {
		// Try current directory as fallback
		if err := godotenv.Load(".env"); err != nil {
			log.Println("💡 No .env file found, using environment variables only")
		}
	} else {
		log.Println("✅ Loaded environment from ../.env")
	}

	log.Println("🎮 ================================")
	log.Println("🎮  LAST BALL STANDING")
	log.Println("🎮 ================================")

	appConfig := config.Load()
	gameCfg := appConfig.Game
	serverCfg := appConfig.Server

	log.Printf("🎮 Config: %d TPS, %ds countdown, ball mode %v, %dx%d field",
		gameCfg.TickRate, gameCfg.CountdownSeconds, gameCfg.BallMode, gameCfg.Width, gameCfg.Height)

	// Start event log
	var events *game.EventLog
	if appConfig.EventLog.Enabled {
		events = game.NewEventLog()
		if err := events.Start(appConfig.EventLog.Path); err != nil {
			log.Printf("⚠️ Event log disabled: %v", err)
			events = nil
		} else {
			api.RegisterEventLogMetrics(events)
			if appConfig.EventLog.Path != "" {
				log.Printf("📝 Event log: %s", appConfig.EventLog.Path)
			} else {
				log.Println("📝 Event log: memory only")
			}
		}
	}

	store := game.NewStore(game.StoreOptions{
		Seed:                 gameCfg.Seed,
		MaxPlacementAttempts: gameCfg.MaxPlacementAttempts,
		BallRadius:           gameCfg.BallRadius,
		Events:               events,
	})
	store.UpdateBoundary(float64(gameCfg.Height), float64(gameCfg.Width))

	round := game.NewRound(store, game.NewTickerScheduler(), game.RoundConfig{
		CountdownSeconds:  gameCfg.CountdownSeconds,
		CountdownInterval: time.Second,
		TickInterval:      gameCfg.TickInterval(),
		BallMode:          gameCfg.BallMode,
		ChaseScale:        gameCfg.ChaseScale,
		WanderScale:       gameCfg.WanderScale,
	}, events)
	round.SetHooks(api.RoundHooks())

	if gameCfg.InitialPlayers != "" {
		added, err := store.AddPlayers(gameCfg.InitialPlayers)
		if err != nil {
			log.Printf("⚠️ Initial players not added: %v", err)
		} else {
			log.Printf("👥 Added %d initial players", len(added))
		}
	}

	// Commands from websocket clients go through a single ordered queue
	rateLimit := command.DefaultRateLimitConfig
	handler := command.NewHandler(store, round, command.HandlerConfig{
		MaxPlayers: serverCfg.MaxPlayers,
		RateLimit:  &rateLimit,
	})
	queue := command.NewCommandQueue(handler, command.DefaultQueueConfig())
	queue.Start()

	// Start debug server
	if serverCfg.DebugAddr != "" {
		debugCfg := api.DefaultObservabilityConfig()
		debugCfg.ListenAddr = serverCfg.DebugAddr
		debugCfg.BasicAuthUser = os.Getenv("DEBUG_USER")
		debugCfg.BasicAuthPass = os.Getenv("DEBUG_PASS")
		if err := api.StartDebugServer(debugCfg); err != nil {
			log.Printf("⚠️ Debug server disabled: %v", err)
		}
	}

	var eventSource api.EventSource
	if events != nil {
		eventSource = events
	}

	server := api.NewServer(api.ServerConfig{
		Store:      store,
		Round:      round,
		Commands:   queue,
		Renderer:   render.NewRenderer(appConfig.Render),
		Events:     eventSource,
		MaxPlayers: serverCfg.MaxPlayers,
		Origins:    serverCfg.AllowedOrigins,
		RateLimit: &api.RateLimitConfig{
			RequestsPerSecond: serverCfg.RequestsPerSec,
			Burst:             serverCfg.RequestBurst,
			WriteCost:         api.DefaultRateLimitConfig.WriteCost,
		},
	})

	// Start API server in goroutine
	addr := fmt.Sprintf(":%d", serverCfg.Port)
	go func() {
		if err := server.Start(addr); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	log.Printf("🌐 API server on http://localhost%s", addr)
	log.Printf("🖼️ Frame: http://localhost%s/api/frame.png", addr)

	// Wait for shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	log.Println("✅ Server ready! Press Ctrl+C to stop.")
	<-quit

	log.Println("🛑 Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("⚠️ HTTP shutdown: %v", err)
	}
	queue.Stop()
	handler.Close()
	round.Stop()
	events.Stop()
	log.Println("👋 Goodbye!")
}
