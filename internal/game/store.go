package game

import (
	"fmt"
	"log"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/exp/rand"
)

// Central ball defaults
const (
	DefaultBallRadius = 60.0
	BallColor         = "#ffffff"
	IdleBallName      = "Click to play"
)

// World is the mutable game state owned by a Store.
// Only Store methods and the round machine (through Store.update) touch it.
type World struct {
	Players         []Player
	Ball            Ball
	Boundary        Boundary
	HoveredPlayerID int
	HoverFrozen     bool // set while a winner exists
	Round           RoundInfo
}

// Snapshot is an immutable copy of the world handed to renderers and
// subscribers. Every listener receives its own copy.
type Snapshot struct {
	Sequence        uint64    `json:"sequence"`
	Players         []Player  `json:"players"`
	Ball            Ball      `json:"ball"`
	Boundary        Boundary  `json:"boundary"`
	HoveredPlayerID int       `json:"hoveredPlayerId"`
	Round           RoundInfo `json:"round"`
}

// Clone returns a deep copy of the snapshot
func (s Snapshot) Clone() Snapshot {
	c := s
	c.Players = append(make([]Player, 0, len(s.Players)), s.Players...)
	return c
}

// Player returns the player with the given id from the snapshot
func (s Snapshot) Player(id int) (Player, bool) {
	for _, p := range s.Players {
		if p.ID == id {
			return p, true
		}
	}
	return Player{}, false
}

// Listener receives a snapshot after every store mutation.
// Listeners run synchronously on the mutating goroutine and must not call
// Store mutators or Round methods.
type Listener func(Snapshot)

type subscription struct {
	fn     Listener
	active atomic.Bool
}

// StoreOptions configures a Store
type StoreOptions struct {
	Rand                 Rand    // nil selects a golang.org/x/exp/rand source
	Seed                 uint64  // seed for the default source, 0 = time based
	MaxPlacementAttempts int     // 0 = DefaultMaxPlacementAttempts
	BallRadius           float64 // 0 = DefaultBallRadius
	Events               *EventLog
}

// Store is the single source of truth for players, the central ball and the
// play field. Every mutation is atomic and followed by a notification.
type Store struct {
	mu       sync.Mutex
	world    World
	nextID   int
	sequence uint64
	rng      Rand
	placer   *Placer
	events   *EventLog

	// notifyMu is taken before mu is released so notifications are delivered
	// in mutation order
	notifyMu  sync.Mutex
	lmu       sync.Mutex
	listeners []*subscription
}

// NewStore creates a store with an empty field and a centered idle ball
func NewStore(opts StoreOptions) *Store {
	rng := opts.Rand
	if rng == nil {
		seed := opts.Seed
		if seed == 0 {
			seed = uint64(time.Now().UnixNano())
		}
		rng = rand.New(rand.NewSource(seed))
	}

	radius := opts.BallRadius
	if radius <= 0 {
		radius = DefaultBallRadius
	}

	return &Store{
		world: World{
			Players: make([]Player, 0),
			Ball: Ball{
				Radius: radius,
				Color:  BallColor,
				Name:   IdleBallName,
			},
			Round: RoundInfo{State: RoundIdle},
		},
		rng:    rng,
		placer: NewPlacer(rng, opts.MaxPlacementAttempts),
		events: opts.Events,
	}
}

// Subscribe registers a listener. The returned func unsubscribes; it is
// idempotent and safe to call from inside a listener.
func (s *Store) Subscribe(fn Listener) (unsubscribe func()) {
	sub := &subscription{fn: fn}
	sub.active.Store(true)

	s.lmu.Lock()
	s.listeners = append(s.listeners, sub)
	s.lmu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			sub.active.Store(false)

			s.lmu.Lock()
			defer s.lmu.Unlock()
			for i, l := range s.listeners {
				if l == sub {
					s.listeners = append(s.listeners[:i], s.listeners[i+1:]...)
					break
				}
			}
		})
	}
}

// Snapshot returns a copy of the current state
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	return Snapshot{
		Sequence:        s.sequence,
		Players:         append(make([]Player, 0, len(s.world.Players)), s.world.Players...),
		Ball:            s.world.Ball,
		Boundary:        s.world.Boundary,
		HoveredPlayerID: s.world.HoveredPlayerID,
		Round:           s.world.Round,
	}
}

// publishLocked must be called with mu held. It releases mu and delivers the
// new snapshot to every active listener in registration order.
func (s *Store) publishLocked() {
	s.sequence++
	snap := s.snapshotLocked()

	s.notifyMu.Lock()
	s.mu.Unlock()
	defer s.notifyMu.Unlock()

	s.lmu.Lock()
	subs := append([]*subscription(nil), s.listeners...)
	s.lmu.Unlock()

	for _, sub := range subs {
		if sub.active.Load() {
			sub.fn(snap.Clone())
		}
	}
}

// update runs fn against the world as one atomic mutation and notifies
func (s *Store) update(fn func(w *World)) {
	s.mu.Lock()
	fn(&s.world)
	s.publishLocked()
}

// occupiedLocked returns the circles new placements must avoid
func (s *Store) occupiedLocked() []Ball {
	occupied := make([]Ball, 0, len(s.world.Players)+1)
	occupied = append(occupied, s.world.Ball)
	for i := range s.world.Players {
		occupied = append(occupied, s.world.Players[i].Circle())
	}
	return occupied
}

// AddPlayers creates one player per whitespace separated token in raw.
// If any token cannot be placed the whole call is abandoned and the store is
// left as it was.
func (s *Store) AddPlayers(raw string) ([]Player, error) {
	names := strings.Fields(raw)
	if len(names) == 0 {
		return nil, ErrInvalidName
	}

	s.mu.Lock()

	occupied := s.occupiedLocked()
	added := make([]Player, 0, len(names))
	for _, name := range names {
		s.nextID++
		p := newPlayer(s.nextID, name, s.rng)

		pos, err := s.placer.PlaceNonOverlapping(occupied, p.Radius, s.world.Boundary)
		if err != nil {
			s.mu.Unlock()
			log.Printf("⚠️ Could not place %s: %v", name, err)
			return nil, fmt.Errorf("add %q: %w", name, err)
		}
		p.Pos = pos
		if !s.world.HoverFrozen {
			p.Opacity = hoverOpacity(s.world.HoveredPlayerID, p.ID)
		}

		occupied = append(occupied, p.Circle())
		added = append(added, p)
	}

	s.world.Players = append(s.world.Players, added...)
	roundID := s.world.Round.ID

	for _, p := range added {
		log.Printf("👤 Player joined: %s (#%d)", p.Name, p.ID)
		s.events.EmitSimple(EventTypePlayerJoin, roundID, p.ID, PlayerJoinPayload{
			PlayerID:   p.ID,
			PlayerName: p.Name,
			SpawnX:     p.Pos.X,
			SpawnY:     p.Pos.Y,
			Color:      p.Color,
		})
	}

	s.publishLocked()
	return added, nil
}

// RemovePlayer drops a player immediately, even mid-round
func (s *Store) RemovePlayer(id int) error {
	s.mu.Lock()

	idx := s.indexLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		return ErrPlayerNotFound
	}

	removed := s.world.Players[idx]
	s.world.Players = append(s.world.Players[:idx], s.world.Players[idx+1:]...)
	if s.world.HoveredPlayerID == id {
		s.world.HoveredPlayerID = NoPlayer
		if !s.world.HoverFrozen {
			s.applyHoverLocked()
		}
	}

	log.Printf("👋 Player removed: %s (#%d)", removed.Name, removed.ID)
	s.events.EmitSimple(EventTypePlayerLeave, s.world.Round.ID, removed.ID,
		PlayerLeavePayload{PlayerID: removed.ID, PlayerName: removed.Name})

	s.publishLocked()
	return nil
}

// Shuffle reorders the players randomly and gives each a fresh position that
// overlaps neither the ball nor any player placed before it.
func (s *Store) Shuffle() error {
	s.mu.Lock()

	players := append(make([]Player, 0, len(s.world.Players)), s.world.Players...)
	s.rng.Shuffle(len(players), func(i, j int) {
		players[i], players[j] = players[j], players[i]
	})

	placed := make([]Ball, 0, len(players)+1)
	placed = append(placed, s.world.Ball)
	for i := range players {
		pos, err := s.placer.PlaceNonOverlapping(placed, players[i].Radius, s.world.Boundary)
		if err != nil {
			s.mu.Unlock()
			log.Printf("⚠️ Shuffle abandoned: %v", err)
			return fmt.Errorf("shuffle: %w", err)
		}
		players[i].Pos = pos
		placed = append(placed, players[i].Circle())
	}

	s.world.Players = players
	s.events.EmitSimple(EventTypeShuffle, s.world.Round.ID, 0,
		ShufflePayload{PlayerCount: len(players)})

	s.publishLocked()
	return nil
}

// UpdateBoundary resizes the play field and recenters the ball
func (s *Store) UpdateBoundary(height, width float64) {
	s.update(func(w *World) {
		w.Boundary = Boundary{Width: width, Height: height}
		w.Ball.Pos = w.Boundary.Center()
	})
}

// UpdateBallName sets the text shown on the central ball
func (s *Store) UpdateBallName(name string) {
	s.update(func(w *World) {
		w.Ball.Name = name
	})
}

// MarkBallTouchable makes collisions with the ball count as a win
func (s *Store) MarkBallTouchable() {
	s.update(func(w *World) {
		w.Ball.Touchable = true
	})
}

// MarkBallUntouchable makes the ball a plain obstacle
func (s *Store) MarkBallUntouchable() {
	s.update(func(w *World) {
		w.Ball.Touchable = false
	})
}

// SetHoveredPlayer highlights one player and dims the rest. NoPlayer clears
// the highlight. Ignored while a winner is shown.
func (s *Store) SetHoveredPlayer(id int) error {
	s.mu.Lock()

	if s.world.HoverFrozen {
		s.mu.Unlock()
		return nil
	}
	if id != NoPlayer && s.indexLocked(id) < 0 {
		s.mu.Unlock()
		return ErrPlayerNotFound
	}

	s.world.HoveredPlayerID = id
	s.applyHoverLocked()

	s.publishLocked()
	return nil
}

// PlayerCount returns the number of players
func (s *Store) PlayerCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.world.Players)
}

func (s *Store) applyHoverLocked() {
	for i := range s.world.Players {
		s.world.Players[i].Opacity = hoverOpacity(s.world.HoveredPlayerID, s.world.Players[i].ID)
	}
}

func (s *Store) indexLocked(id int) int {
	for i := range s.world.Players {
		if s.world.Players[i].ID == id {
			return i
		}
	}
	return -1
}

func hoverOpacity(hovered, id int) float64 {
	switch hovered {
	case NoPlayer:
		return OpacityDefault
	case id:
		return OpacityHovered
	default:
		return OpacityDimmed
	}
}
