package command

import (
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"

	"lastball/internal/game"
)

// Store is the part of game.Store commands act on
type Store interface {
	AddPlayers(raw string) ([]game.Player, error)
	RemovePlayer(id int) error
	Shuffle() error
	SetHoveredPlayer(id int) error
	UpdateBoundary(height, width float64)
	Snapshot() game.Snapshot
}

// Round is the part of game.Round commands act on
type Round interface {
	Play()
	TogglePlay()
	Pause()
	Reset()
}

// HandlerConfig configures a Handler
type HandlerConfig struct {
	MaxPlayers int              // 0 = unlimited
	RateLimit  *RateLimitConfig // nil disables rate limiting
}

// Handler processes commands and applies them to the game
type Handler struct {
	store       Store
	round       Round
	maxPlayers  int
	rateLimiter *RateLimiter
}

// NewHandler creates a new command handler
func NewHandler(store Store, round Round, cfg HandlerConfig) *Handler {
	h := &Handler{
		store:      store,
		round:      round,
		maxPlayers: cfg.MaxPlayers,
	}
	if cfg.RateLimit != nil {
		h.rateLimiter = NewRateLimiter(*cfg.RateLimit)
	}
	return h
}

// Close releases the rate limiter
func (h *Handler) Close() {
	if h.rateLimiter != nil {
		h.rateLimiter.Stop()
	}
}

// ProcessCommand handles a single command. Errors are logged and returned so
// interactive callers can report them; none of them are fatal.
func (h *Handler) ProcessCommand(cmd Command) error {
	if h.rateLimiter != nil && !h.rateLimiter.Allow(cmd.Source) {
		log.Printf("🚫 Rate limited: %s", cmd.Source)
		return ErrRateLimited
	}

	var err error
	switch GetCommandType(cmd.Name) {
	case CmdAdd:
		err = h.handleAdd(cmd)
	case CmdRemove:
		err = h.handleRemove(cmd)
	case CmdShuffle:
		err = h.store.Shuffle()
	case CmdHover:
		err = h.handleHover(cmd)
	case CmdPlay:
		h.round.Play()
	case CmdToggle:
		h.round.TogglePlay()
	case CmdPause:
		h.round.Pause()
	case CmdReset:
		h.round.Reset()
	case CmdResize:
		err = h.handleResize(cmd)
	default:
		err = fmt.Errorf("%w: %q", ErrUnknownCommand, cmd.Name)
	}

	// Empty names are not worth a log line
	if err != nil && !errors.Is(err, game.ErrInvalidName) {
		log.Printf("⚠️ %s from %s: %v", cmd.Name, cmd.Source, err)
	}
	return err
}

// handleAdd adds one player per argument
func (h *Handler) handleAdd(cmd Command) error {
	if len(cmd.Args) == 0 {
		return game.ErrInvalidName
	}

	if h.maxPlayers > 0 {
		current := len(h.store.Snapshot().Players)
		if current+len(cmd.Args) > h.maxPlayers {
			return fmt.Errorf("%w (%d/%d)", ErrPlayerLimit, current, h.maxPlayers)
		}
	}

	_, err := h.store.AddPlayers(strings.Join(cmd.Args, " "))
	return err
}

// handleRemove removes a player by id or, failing that, by name
func (h *Handler) handleRemove(cmd Command) error {
	if len(cmd.Args) == 0 {
		return fmt.Errorf("%w: remove <id|name>", ErrMissingArgument)
	}

	id, err := h.resolvePlayer(cmd.Args[0])
	if err != nil {
		return err
	}
	return h.store.RemovePlayer(id)
}

// handleHover highlights a player; no argument clears the highlight
func (h *Handler) handleHover(cmd Command) error {
	if len(cmd.Args) == 0 {
		return h.store.SetHoveredPlayer(game.NoPlayer)
	}

	id, err := h.resolvePlayer(cmd.Args[0])
	if err != nil {
		return err
	}
	return h.store.SetHoveredPlayer(id)
}

// handleResize takes "resize <width> <height>"
func (h *Handler) handleResize(cmd Command) error {
	if len(cmd.Args) < 2 {
		return fmt.Errorf("%w: resize <width> <height>", ErrMissingArgument)
	}

	width, err := strconv.ParseFloat(cmd.Args[0], 64)
	if err != nil || width <= 0 {
		return fmt.Errorf("invalid width %q", cmd.Args[0])
	}
	height, err := strconv.ParseFloat(cmd.Args[1], 64)
	if err != nil || height <= 0 {
		return fmt.Errorf("invalid height %q", cmd.Args[1])
	}

	h.store.UpdateBoundary(height, width)
	return nil
}

// resolvePlayer accepts a numeric id or a player name (first match wins)
func (h *Handler) resolvePlayer(arg string) (int, error) {
	if id, err := strconv.Atoi(arg); err == nil {
		return id, nil
	}

	for _, p := range h.store.Snapshot().Players {
		if strings.EqualFold(p.Name, arg) {
			return p.ID, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", game.ErrPlayerNotFound, arg)
}
