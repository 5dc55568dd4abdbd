package game

import (
	"errors"
	"math"
	"testing"
)

// newTestStore returns a seeded store on a 500x500 field
func newTestStore(t *testing.T) *Store {
	t.Helper()
	s := NewStore(StoreOptions{Seed: 42})
	s.UpdateBoundary(500, 500)
	return s
}

// assertNoOverlap fails if any two bodies in the snapshot intersect
func assertNoOverlap(t *testing.T, snap Snapshot) {
	t.Helper()
	for i, p := range snap.Players {
		if CirclesOverlap(p.Ball, snap.Ball) {
			t.Errorf("player %d at %v overlaps the ball", p.ID, p.Pos)
		}
		for _, q := range snap.Players[i+1:] {
			if CirclesOverlap(p.Ball, q.Ball) {
				t.Errorf("players %d and %d overlap", p.ID, q.ID)
			}
		}
	}
}

func TestAddPlayersAliceBob(t *testing.T) {
	s := newTestStore(t)

	added, err := s.AddPlayers("Alice Bob")
	if err != nil {
		t.Fatalf("AddPlayers failed: %v", err)
	}
	if len(added) != 2 {
		t.Fatalf("Expected 2 players, got %d", len(added))
	}

	snap := s.Snapshot()
	if len(snap.Players) != 2 {
		t.Fatalf("Expected 2 players in store, got %d", len(snap.Players))
	}

	for i, want := range []struct {
		id   int
		name string
	}{{1, "Alice"}, {2, "Bob"}} {
		p := snap.Players[i]
		if p.ID != want.id || p.Name != want.name {
			t.Errorf("player %d = #%d %q, want #%d %q", i, p.ID, p.Name, want.id, want.name)
		}
		if p.Radius != 10 {
			t.Errorf("%s radius = %v, want 10", p.Name, p.Radius)
		}
		if p.Pos.X < 10 || p.Pos.X > 490 || p.Pos.Y < 10 || p.Pos.Y > 490 {
			t.Errorf("%s at %v is outside [10,490]", p.Name, p.Pos)
		}
		if dx := math.Abs(p.Dir.X); dx < 2 || dx >= 5 {
			t.Errorf("%s |dir.x| = %v, want [2,5)", p.Name, dx)
		}
		if sum := math.Abs(p.Dir.X) + math.Abs(p.Dir.Y); math.Abs(sum-6) > 1e-9 {
			t.Errorf("%s |dir.x|+|dir.y| = %v, want 6", p.Name, sum)
		}
		if p.Opacity != OpacityDefault {
			t.Errorf("%s opacity = %v, want %v", p.Name, p.Opacity, OpacityDefault)
		}
	}

	assertNoOverlap(t, snap)
}

func TestAddPlayersEmptyInput(t *testing.T) {
	s := newTestStore(t)

	notified := 0
	s.Subscribe(func(Snapshot) { notified++ })

	for _, raw := range []string{"", "   ", "\t\n"} {
		if _, err := s.AddPlayers(raw); !errors.Is(err, ErrInvalidName) {
			t.Errorf("AddPlayers(%q) error = %v, want ErrInvalidName", raw, err)
		}
	}

	if s.PlayerCount() != 0 {
		t.Errorf("Expected no players, got %d", s.PlayerCount())
	}
	if notified != 0 {
		t.Errorf("Expected no notifications, got %d", notified)
	}
}

func TestAddPlayersPlacementFailureLeavesStoreIntact(t *testing.T) {
	s := NewStore(StoreOptions{Seed: 3, MaxPlacementAttempts: 20})
	s.UpdateBoundary(100, 100)
	before := s.Snapshot()

	_, err := s.AddPlayers("Alice Bob")
	if !errors.Is(err, ErrPlacementExhausted) {
		t.Fatalf("expected ErrPlacementExhausted, got %v", err)
	}

	after := s.Snapshot()
	if len(after.Players) != 0 {
		t.Errorf("Expected no players after failed add, got %d", len(after.Players))
	}
	if after.Sequence != before.Sequence {
		t.Errorf("failed add should not notify: sequence %d -> %d", before.Sequence, after.Sequence)
	}
}

func TestRemovePlayerUnknownIsNoop(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.AddPlayers("Alice Bob"); err != nil {
		t.Fatal(err)
	}
	before := s.Snapshot()

	if err := s.RemovePlayer(99); !errors.Is(err, ErrPlayerNotFound) {
		t.Errorf("RemovePlayer(99) error = %v, want ErrPlayerNotFound", err)
	}

	after := s.Snapshot()
	if len(after.Players) != 2 || after.Players[0].ID != 1 || after.Players[1].ID != 2 {
		t.Errorf("store changed after removing unknown id: %+v", after.Players)
	}
	if after.Sequence != before.Sequence {
		t.Errorf("no-op remove should not notify")
	}
}

func TestRemovePlayer(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.AddPlayers("Alice Bob Carol"); err != nil {
		t.Fatal(err)
	}
	if err := s.SetHoveredPlayer(2); err != nil {
		t.Fatal(err)
	}

	if err := s.RemovePlayer(2); err != nil {
		t.Fatalf("RemovePlayer failed: %v", err)
	}

	snap := s.Snapshot()
	if _, ok := snap.Player(2); ok {
		t.Error("player 2 still present")
	}
	if snap.HoveredPlayerID != NoPlayer {
		t.Errorf("hover should clear when the hovered player leaves, got %d", snap.HoveredPlayerID)
	}
	for _, p := range snap.Players {
		if p.Opacity != OpacityDefault {
			t.Errorf("%s opacity = %v, want %v", p.Name, p.Opacity, OpacityDefault)
		}
	}

	// Ids are never reused
	added, err := s.AddPlayers("Dave")
	if err != nil {
		t.Fatal(err)
	}
	if added[0].ID != 4 {
		t.Errorf("Expected new id 4, got %d", added[0].ID)
	}
}

func TestShuffleKeepsPlayersApart(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.AddPlayers("a b c d e f g h i j k l m n o p q r s t"); err != nil {
		t.Fatal(err)
	}

	for round := 0; round < 5; round++ {
		if err := s.Shuffle(); err != nil {
			t.Fatalf("shuffle %d failed: %v", round, err)
		}

		snap := s.Snapshot()
		if len(snap.Players) != 20 {
			t.Fatalf("shuffle changed player count to %d", len(snap.Players))
		}
		assertNoOverlap(t, snap)

		seen := make(map[int]bool)
		for _, p := range snap.Players {
			seen[p.ID] = true
		}
		if len(seen) != 20 {
			t.Errorf("shuffle lost or duplicated players: %d distinct ids", len(seen))
		}
	}
}

func TestUpdateBoundaryRecentersBall(t *testing.T) {
	s := NewStore(StoreOptions{Seed: 1})
	s.UpdateBoundary(300, 800)

	snap := s.Snapshot()
	if snap.Boundary.Width != 800 || snap.Boundary.Height != 300 {
		t.Errorf("boundary = %+v, want 800x300", snap.Boundary)
	}
	if snap.Ball.Pos != (Vector2{X: 400, Y: 150}) {
		t.Errorf("ball at %v, want (400,150)", snap.Ball.Pos)
	}
	if snap.Ball.Radius != DefaultBallRadius || snap.Ball.Name != IdleBallName {
		t.Errorf("unexpected ball %+v", snap.Ball)
	}
}

func TestSetHoveredPlayer(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.AddPlayers("Alice Bob Carol"); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		hover   int
		want    map[int]float64
		wantErr error
	}{
		{"hover bob", 2, map[int]float64{1: OpacityDimmed, 2: OpacityHovered, 3: OpacityDimmed}, nil},
		{"clear", NoPlayer, map[int]float64{1: OpacityDefault, 2: OpacityDefault, 3: OpacityDefault}, nil},
		{"unknown id keeps state", 42, map[int]float64{1: OpacityDefault, 2: OpacityDefault, 3: OpacityDefault}, ErrPlayerNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.SetHoveredPlayer(tt.hover)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("SetHoveredPlayer(%d) error = %v, want %v", tt.hover, err, tt.wantErr)
			}
			for _, p := range s.Snapshot().Players {
				if p.Opacity != tt.want[p.ID] {
					t.Errorf("player %d opacity = %v, want %v", p.ID, p.Opacity, tt.want[p.ID])
				}
			}
		})
	}
}

func TestNewPlayerTakesHoverOpacity(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.AddPlayers("Alice"); err != nil {
		t.Fatal(err)
	}
	if err := s.SetHoveredPlayer(1); err != nil {
		t.Fatal(err)
	}

	added, err := s.AddPlayers("Bob")
	if err != nil {
		t.Fatal(err)
	}
	if added[0].Opacity != OpacityDimmed {
		t.Errorf("player added while another is hovered has opacity %v, want %v", added[0].Opacity, OpacityDimmed)
	}
}

func TestSubscribeDeliversInOrder(t *testing.T) {
	s := newTestStore(t)

	var got []uint64
	unsubscribe := s.Subscribe(func(snap Snapshot) {
		got = append(got, snap.Sequence)
	})

	s.AddPlayers("Alice")
	s.UpdateBallName("hello")
	s.MarkBallTouchable()
	unsubscribe()
	s.MarkBallUntouchable()

	if len(got) != 3 {
		t.Fatalf("Expected 3 notifications, got %d", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i] != got[i-1]+1 {
			t.Errorf("notifications out of order: %v", got)
		}
	}

	// Unsubscribing twice is harmless
	unsubscribe()
}

func TestUnsubscribeInsideListener(t *testing.T) {
	s := newTestStore(t)

	calls := 0
	var unsubscribe func()
	unsubscribe = s.Subscribe(func(Snapshot) {
		calls++
		unsubscribe()
	})

	other := 0
	s.Subscribe(func(Snapshot) { other++ })

	s.UpdateBallName("one")
	s.UpdateBallName("two")

	if calls != 1 {
		t.Errorf("self-unsubscribing listener called %d times, want 1", calls)
	}
	if other != 2 {
		t.Errorf("other listener called %d times, want 2", other)
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.AddPlayers("Alice"); err != nil {
		t.Fatal(err)
	}

	snap := s.Snapshot()
	snap.Players[0].Name = "Mallory"
	snap.Players[0].Pos = Vector2{}

	fresh := s.Snapshot()
	if fresh.Players[0].Name != "Alice" {
		t.Errorf("mutating a snapshot leaked into the store: %q", fresh.Players[0].Name)
	}
}

func TestStoreEmitsEvents(t *testing.T) {
	events := NewEventLog()
	if err := events.StartWriter(nil); err != nil {
		t.Fatal(err)
	}
	defer events.Stop()

	s := NewStore(StoreOptions{Seed: 5, Events: events})
	s.UpdateBoundary(500, 500)
	s.AddPlayers("Alice Bob")
	s.RemovePlayer(1)
	s.Shuffle()

	recent := events.Recent(10)
	want := []EventType{EventTypePlayerJoin, EventTypePlayerJoin, EventTypePlayerLeave, EventTypeShuffle}
	if len(recent) != len(want) {
		t.Fatalf("Expected %d events, got %d", len(want), len(recent))
	}
	for i, e := range recent {
		if e.Type != want[i] {
			t.Errorf("event %d = %s, want %s", i, e.Type, want[i])
		}
	}
}
