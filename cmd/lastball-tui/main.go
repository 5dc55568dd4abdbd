// Command lastball-tui plays a round in the terminal.
//
// USAGE:
//
//	go run ./cmd/lastball-tui Alice Bob Carol
//
// Space starts or pauses the round, s shuffles, r resets, q or Esc quits.
// TUI_SOUND=false mutes the winner chime; TUI_WIN_SOUND names an OGG file to
// play instead. TUI_LOG sends logs to a file.
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"lastball/internal/command"
	"lastball/internal/config"
	"lastball/internal/game"
	"lastball/internal/terminal"

	"github.com/gdamore/tcell/v2"
	"github.com/joho/godotenv"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "lastball-tui: %v\n", err)
		os.Exit(1)
	}
}

func run(names []string) error {
	_ = godotenv.Load(".env")

	// The screen owns stdout; logs go to a file when asked, otherwise nowhere
	if path := os.Getenv("TUI_LOG"); path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return fmt.Errorf("open log: %w", err)
		}
		defer f.Close()
		log.SetOutput(f)
	} else {
		log.SetOutput(io.Discard)
	}

	gameCfg := config.GameFromEnv()
	if len(names) == 0 && gameCfg.InitialPlayers != "" {
		names = strings.Fields(gameCfg.InitialPlayers)
	}
	if len(names) == 0 {
		return fmt.Errorf("no players: pass names as arguments or set INITIAL_PLAYERS")
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("create screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("init screen: %w", err)
	}
	defer screen.Fini()

	store := game.NewStore(game.StoreOptions{
		Seed:                 gameCfg.Seed,
		MaxPlacementAttempts: gameCfg.MaxPlacementAttempts,
		BallRadius:           gameCfg.BallRadius,
	})

	round := game.NewRound(store, game.NewTickerScheduler(), game.RoundConfig{
		CountdownSeconds:  gameCfg.CountdownSeconds,
		CountdownInterval: time.Second,
		TickInterval:      gameCfg.TickInterval(),
		BallMode:          gameCfg.BallMode,
		ChaseScale:        gameCfg.ChaseScale,
		WanderScale:       gameCfg.WanderScale,
	}, nil)
	defer round.Stop()

	// Sound is optional, the game runs without it
	if os.Getenv("TUI_SOUND") != "false" {
		chime, err := terminal.NewChime()
		if err != nil {
			log.Printf("⚠️ Audio initialization failed: %v", err)
		}
		defer chime.Close()
		if path := os.Getenv("TUI_WIN_SOUND"); path != "" {
			if err := chime.LoadSound(path); err != nil {
				log.Printf("⚠️ Winner sound not loaded: %v", err)
			}
		}
		round.SetHooks(game.Hooks{OnWinner: func(game.Player) { chime.Play() }})
	}

	handler := command.NewHandler(store, round, command.HandlerConfig{})
	defer handler.Close()

	app := terminal.NewApp(screen, store, handler)

	// Size the field before placing anyone
	app.Resize()
	if _, err := store.AddPlayers(strings.Join(names, " ")); err != nil {
		return fmt.Errorf("add players: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return app.Run(ctx)
}
