package game

import (
	"math"
	"testing"
)

func testPlayer(id int, pos, dir Vector2) Player {
	return Player{
		Ball:    Ball{Radius: PlayerRadius, Pos: pos, Name: string(rune('A' + id - 1))},
		ID:      id,
		Dir:     dir,
		Opacity: OpacityDefault,
	}
}

func testWorld(players ...Player) *World {
	b := Boundary{Width: 500, Height: 500}
	return &World{
		Players:  players,
		Ball:     Ball{Radius: DefaultBallRadius, Pos: b.Center()},
		Boundary: b,
	}
}

func TestWallBounceFlipsOnce(t *testing.T) {
	tests := []struct {
		name  string
		pos   Vector2
		dir   Vector2
		axisX bool
	}{
		{"right wall", Vector2{485, 60}, Vector2{3, 0}, true},
		{"left wall", Vector2{16, 60}, Vector2{-3, 0}, true},
		{"top wall", Vector2{60, 16}, Vector2{0, -3}, false},
		{"bottom wall", Vector2{60, 485}, Vector2{0, 3}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := testWorld(testPlayer(1, tt.pos, tt.dir))
			st := NewStepper()

			flips := 0
			prev := tt.dir
			for tick := 0; tick < 6; tick++ {
				st.StepChase(w)
				cur := w.Players[0].Dir
				if (tt.axisX && cur.X != prev.X) || (!tt.axisX && cur.Y != prev.Y) {
					flips++
				}
				prev = cur
			}

			if flips != 1 {
				t.Errorf("Expected exactly 1 flip, got %d", flips)
			}
		})
	}
}

func TestStepChaseFirstPlayerWins(t *testing.T) {
	// Both players reach the ball on the same tick
	w := testWorld(
		testPlayer(1, Vector2{185, 250}, Vector2{3, 3}),
		testPlayer(2, Vector2{315, 250}, Vector2{-3, 3}),
	)
	w.Ball.Touchable = true

	winner := NewStepper().StepChase(w)
	if winner == nil {
		t.Fatal("Expected a winner")
	}
	if winner.ID != 1 {
		t.Errorf("Expected player 1 to win, got %d", winner.ID)
	}
	if w.Ball.Touchable {
		t.Error("ball should become untouchable once a winner is found")
	}

	// Both players bounced away from the ball
	for _, p := range w.Players {
		if p.Dir.Dot(w.Ball.Pos.Sub(p.Pos)) > 0 {
			t.Errorf("player %d still heading into the ball: %v", p.ID, p.Dir)
		}
	}
}

func TestStepChaseUntouchableBallHasNoWinner(t *testing.T) {
	w := testWorld(testPlayer(1, Vector2{185, 250}, Vector2{3, 0}))

	if winner := NewStepper().StepChase(w); winner != nil {
		t.Errorf("untouchable ball produced winner %d", winner.ID)
	}
	if w.Players[0].Dir.X >= 0 {
		t.Errorf("player should still bounce off the ball, dir = %v", w.Players[0].Dir)
	}
}

func TestStepWanderMovesSlowly(t *testing.T) {
	w := testWorld(testPlayer(1, Vector2{100, 100}, Vector2{3, 3}))
	w.Ball.Touchable = true

	NewStepper().StepWander(w)

	got := w.Players[0].Pos
	want := Vector2{X: 100.05, Y: 100.05}
	if math.Abs(got.X-want.X) > 1e-9 || math.Abs(got.Y-want.Y) > 1e-9 {
		t.Errorf("wander moved to %v, want %v", got, want)
	}
}

func TestStepEliminationConverges(t *testing.T) {
	w := testWorld(
		testPlayer(1, Vector2{100, 100}, Vector2{}),
		testPlayer(2, Vector2{400, 400}, Vector2{}),
	)
	st := NewStepper()

	for tick := 1; tick <= 74; tick++ {
		if st.StepElimination(w, 1) {
			t.Fatalf("elimination finished early at tick %d", tick)
		}
	}
	if w.Players[1].Eliminated() {
		t.Fatal("loser eliminated before tick 75")
	}

	if !st.StepElimination(w, 1) {
		t.Fatal("elimination should finish at tick 75")
	}

	loser := w.Players[1]
	if loser.Opacity != 0 {
		t.Errorf("loser opacity = %v, want 0", loser.Opacity)
	}
	if loser.Radius != PlayerRadius+74 {
		t.Errorf("loser radius = %v, want %v", loser.Radius, PlayerRadius+74)
	}

	winner := w.Players[0]
	if winner.Opacity != OpacityDefault || winner.Radius != PlayerRadius {
		t.Errorf("winner changed during elimination: %+v", winner)
	}
}

func TestStepEliminationWinnerOnly(t *testing.T) {
	w := testWorld(testPlayer(1, Vector2{100, 100}, Vector2{}))
	if !NewStepper().StepElimination(w, 1) {
		t.Error("a lone winner should finish elimination immediately")
	}
}
