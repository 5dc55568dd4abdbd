package game

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// RoundState is the lifecycle phase of the current round
type RoundState uint8

const (
	RoundIdle      RoundState = iota // ball shows the idle text, nothing moves
	RoundCountdown                   // players move, ball counts down
	RoundActive                      // ball is touchable (or ambient wander without ball mode)
	RoundWon                         // winner shown, losers fading out
)

// String returns the state name
func (s RoundState) String() string {
	switch s {
	case RoundIdle:
		return "idle"
	case RoundCountdown:
		return "countdown"
	case RoundActive:
		return "active"
	case RoundWon:
		return "won"
	default:
		return "unknown"
	}
}

// MarshalText encodes the state by name
func (s RoundState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a state name
func (s *RoundState) UnmarshalText(text []byte) error {
	for c := RoundIdle; c <= RoundWon; c++ {
		if c.String() == string(text) {
			*s = c
			return nil
		}
	}
	return fmt.Errorf("unknown round state %q", text)
}

// RoundInfo is the round state published in every snapshot
type RoundInfo struct {
	ID         string     `json:"id"`
	State      RoundState `json:"state"`
	Remaining  int        `json:"remaining"` // countdown seconds left
	WinnerID   int        `json:"winnerId"`
	WinnerName string     `json:"winnerName"`
}

// RoundConfig parameterises the round machine
type RoundConfig struct {
	CountdownSeconds  int
	CountdownInterval time.Duration // one countdown step, normally a second
	TickInterval      time.Duration // one simulation step
	BallMode          bool          // false = ambient wander, no countdown or winner
	ChaseScale        float64
	WanderScale       float64
}

// DefaultRoundConfig returns a 2 second countdown at 60 ticks per second
func DefaultRoundConfig() RoundConfig {
	return RoundConfig{
		CountdownSeconds:  2,
		CountdownInterval: time.Second,
		TickInterval:      time.Second / 60,
		BallMode:          true,
		ChaseScale:        ChaseVelocityScale,
		WanderScale:       WanderVelocityScale,
	}
}

// Hooks receive round events, typically for metrics. Nil hooks are skipped.
// Hooks run with the round lock held and must not call back into the Round.
type Hooks struct {
	OnTick       func(d time.Duration, players int)
	OnTransition func(from, to RoundState)
	OnWinner     func(winner Player)
}

// Round drives the countdown, the per-tick simulation and the win/elimination
// sequence on top of a Store. Transitions and tick callbacks are serialised by
// the round lock; the Store is only mutated through its own methods.
type Round struct {
	mu      sync.Mutex
	cfg     RoundConfig
	store   *Store
	sched   Scheduler
	stepper Stepper
	events  *EventLog
	hooks   Hooks

	state      RoundState
	id         string
	remaining  int
	winnerID   int
	winnerName string
	tickCount  uint64

	// current handles, zero when not scheduled. Each schedule bumps its
	// generation; a callback carrying an older generation is stale.
	tickHandle  Handle
	timerHandle Handle
	tickGen     uint64
	timerGen    uint64
}

// NewRound creates an idle round machine
func NewRound(store *Store, sched Scheduler, cfg RoundConfig, events *EventLog) *Round {
	if cfg.CountdownInterval <= 0 {
		cfg.CountdownInterval = time.Second
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = time.Second / 60
	}
	if cfg.ChaseScale == 0 {
		cfg.ChaseScale = ChaseVelocityScale
	}
	if cfg.WanderScale == 0 {
		cfg.WanderScale = WanderVelocityScale
	}

	return &Round{
		cfg:     cfg,
		store:   store,
		sched:   sched,
		stepper: Stepper{ChaseScale: cfg.ChaseScale, WanderScale: cfg.WanderScale},
		events:  events,
		state:   RoundIdle,
		id:      uuid.NewString(),
	}
}

// SetHooks installs event hooks
func (r *Round) SetHooks(h Hooks) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hooks = h
}

// State returns the current phase
func (r *Round) State() RoundState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Winner returns the winner's id and name, if any
func (r *Round) Winner() (id int, name string, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.winnerID, r.winnerName, r.winnerID != NoPlayer
}

// TickCount returns the number of simulation ticks run so far
func (r *Round) TickCount() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tickCount
}

// Play starts a round from Idle. It does nothing in any other state.
// Resuming after a paused win starts a fresh round.
func (r *Round) Play() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != RoundIdle {
		return
	}
	if r.winnerID != NoPlayer {
		r.resetLocked()
		return
	}
	r.startLocked()
}

// TogglePlay starts a round when idle and pauses it otherwise
func (r *Round) TogglePlay() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state == RoundIdle {
		if r.winnerID != NoPlayer {
			r.resetLocked()
			return
		}
		r.startLocked()
		return
	}
	r.pauseLocked()
}

// Pause stops ticking and the countdown. A no-op when idle.
func (r *Round) Pause() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != RoundIdle {
		r.pauseLocked()
	}
}

// Reset clears the winner, restores every player's look, reshuffles and
// restarts the countdown. Valid from any state.
func (r *Round) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resetLocked()
}

// Stop cancels all scheduled work, for process shutdown
func (r *Round) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cancelTimerLocked()
	r.cancelTicksLocked()
}

// =============================================================================
// TRANSITIONS (round lock held)
// =============================================================================

func (r *Round) startLocked() {
	r.cancelTimerLocked()

	if !r.cfg.BallMode {
		r.transitionLocked(RoundActive, nil)
		r.startTicksLocked()
		return
	}

	if r.cfg.CountdownSeconds <= 0 {
		r.activateLocked()
		r.startTicksLocked()
		return
	}

	r.remaining = r.cfg.CountdownSeconds
	r.transitionLocked(RoundCountdown, func(w *World) {
		w.Ball.Touchable = false
		w.Ball.Name = countdownText(r.remaining)
	})
	r.events.EmitSimple(EventTypeRoundStart, r.id, 0,
		RoundStartPayload{CountdownSeconds: r.remaining, PlayerCount: r.store.PlayerCount()})

	r.timerGen++
	gen := r.timerGen
	r.timerHandle = r.sched.ScheduleRepeating(r.cfg.CountdownInterval, func() { r.onCountdown(gen) })

	r.startTicksLocked()
}

func (r *Round) activateLocked() {
	r.remaining = 0
	r.transitionLocked(RoundActive, func(w *World) {
		w.Ball.Touchable = true
		w.Ball.Name = ""
	})
	r.events.EmitSimple(EventTypeRoundActive, r.id, 0, nil)
	log.Printf("🎯 Ball is live (round %s)", r.id)
}

func (r *Round) pauseLocked() {
	r.cancelTimerLocked()
	r.cancelTicksLocked()
	r.transitionLocked(RoundIdle, func(w *World) {
		w.Ball.Touchable = false
		w.Ball.Name = IdleBallName
	})
	r.events.EmitSimple(EventTypePause, r.id, 0, nil)
	log.Println("⏸️ Round paused")
}

func (r *Round) resetLocked() {
	r.cancelTimerLocked()
	r.cancelTicksLocked()

	r.winnerID = NoPlayer
	r.winnerName = ""
	r.remaining = 0
	r.id = uuid.NewString()

	// State is unchanged here; startLocked makes the only transition
	info := r.infoLocked()
	r.store.update(func(w *World) {
		for i := range w.Players {
			w.Players[i].Radius = PlayerRadius
			w.Players[i].Opacity = hoverOpacity(w.HoveredPlayerID, w.Players[i].ID)
		}
		w.HoverFrozen = false
		w.Ball.Touchable = false
		w.Round = info
	})
	r.events.EmitSimple(EventTypeReset, r.id, 0, nil)

	// A failed shuffle keeps the old layout; the round still restarts
	if err := r.store.Shuffle(); err != nil {
		log.Printf("⚠️ Reset without reshuffle: %v", err)
	}

	log.Printf("🔄 Round reset (round %s)", r.id)
	r.startLocked()
}

// transitionLocked records the new state and publishes it with any ball or
// player changes as one store mutation
func (r *Round) transitionLocked(to RoundState, mutate func(w *World)) {
	from := r.state
	r.state = to

	info := r.infoLocked()
	r.store.update(func(w *World) {
		if mutate != nil {
			mutate(w)
		}
		w.Round = info
	})

	if from != to && r.hooks.OnTransition != nil {
		r.hooks.OnTransition(from, to)
	}
}

func (r *Round) infoLocked() RoundInfo {
	return RoundInfo{
		ID:         r.id,
		State:      r.state,
		Remaining:  r.remaining,
		WinnerID:   r.winnerID,
		WinnerName: r.winnerName,
	}
}

// =============================================================================
// SCHEDULED CALLBACKS
// =============================================================================

func (r *Round) onCountdown(gen uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if gen != r.timerGen || r.timerHandle == 0 || r.state != RoundCountdown {
		return
	}

	r.remaining--
	if r.remaining <= 0 {
		r.cancelTimerLocked()
		r.activateLocked()
		return
	}

	info := r.infoLocked()
	r.store.update(func(w *World) {
		w.Ball.Name = countdownText(r.remaining)
		w.Round = info
	})
}

func (r *Round) onTick(gen uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if gen != r.tickGen || r.tickHandle == 0 {
		return
	}

	start := time.Now()
	r.tickCount++

	var (
		winner    Player
		hasWinner bool
		done      bool
		players   int
	)

	switch r.state {
	case RoundCountdown, RoundActive:
		if !r.cfg.BallMode {
			r.store.update(func(w *World) {
				r.stepper.StepWander(w)
				players = len(w.Players)
			})
			break
		}

		r.store.update(func(w *World) {
			players = len(w.Players)
			p := r.stepper.StepChase(w)
			if p == nil {
				return
			}

			p.Opacity = OpacityHovered
			winner, hasWinner = *p, true
			r.winnerID = p.ID
			r.winnerName = p.Name
			r.state = RoundWon

			w.Ball.Name = p.Name
			w.HoverFrozen = true
			w.Round = r.infoLocked()
		})

	case RoundWon:
		r.store.update(func(w *World) {
			players = len(w.Players)
			done = r.stepper.StepElimination(w, r.winnerID)
		})
	}

	if hasWinner {
		log.Printf("🏆 %s wins round %s!", winner.Name, r.id)
		r.events.EmitSimple(EventTypeWinner, r.id, winner.ID,
			WinnerPayload{PlayerID: winner.ID, PlayerName: winner.Name, Ticks: r.tickCount})
		if r.hooks.OnTransition != nil {
			r.hooks.OnTransition(RoundActive, RoundWon)
		}
		if r.hooks.OnWinner != nil {
			r.hooks.OnWinner(winner)
		}
	}

	if done {
		r.cancelTicksLocked()
		r.events.EmitSimple(EventTypeEliminationDone, r.id, r.winnerID, nil)
		log.Printf("✨ Elimination finished, %s stands alone", r.winnerName)
	}

	if r.hooks.OnTick != nil {
		r.hooks.OnTick(time.Since(start), players)
	}
}

// =============================================================================
// SCHEDULING HELPERS
// =============================================================================

func (r *Round) startTicksLocked() {
	r.cancelTicksLocked()

	r.tickGen++
	gen := r.tickGen
	r.tickHandle = r.sched.ScheduleRepeating(r.cfg.TickInterval, func() { r.onTick(gen) })
}

func (r *Round) cancelTicksLocked() {
	if r.tickHandle != 0 {
		r.sched.Cancel(r.tickHandle)
		r.tickHandle = 0
	}
}

func (r *Round) cancelTimerLocked() {
	if r.timerHandle != 0 {
		r.sched.Cancel(r.timerHandle)
		r.timerHandle = 0
	}
}

func countdownText(n int) string {
	return fmt.Sprintf("%d Seconds", n)
}
