package game

import (
	"math"
	"testing"

	"golang.org/x/exp/rand"
)

// TestNewPlayer tests player creation with defaults
func TestNewPlayer(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	player := newPlayer(4, "TestPlayer", rng)

	if player.ID != 4 {
		t.Errorf("Expected id 4, got %d", player.ID)
	}
	if player.Name != "TestPlayer" {
		t.Errorf("Expected name 'TestPlayer', got '%s'", player.Name)
	}
	if player.Radius != PlayerRadius {
		t.Errorf("Expected radius %v, got %v", PlayerRadius, player.Radius)
	}
	if player.Opacity != OpacityDefault {
		t.Errorf("Expected opacity %v, got %v", OpacityDefault, player.Opacity)
	}

	found := false
	for _, c := range playerColors {
		if c == player.Color {
			found = true
		}
	}
	if !found {
		t.Errorf("Color %q is not from the palette", player.Color)
	}
}

// TestRandomDirection checks the speed envelope over many draws
func TestRandomDirection(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	signs := map[[2]bool]bool{}

	for i := 0; i < 1000; i++ {
		d := randomDirection(rng)
		ax, ay := math.Abs(d.X), math.Abs(d.Y)

		if ax < minSpeedX || ax >= maxSpeedX {
			t.Fatalf("|x| = %v outside [%v, %v)", ax, minSpeedX, maxSpeedX)
		}
		if math.Abs(ax+ay-speedSum) > 1e-9 {
			t.Fatalf("|x|+|y| = %v, want %v", ax+ay, speedSum)
		}
		signs[[2]bool{d.X < 0, d.Y < 0}] = true
	}

	if len(signs) != 4 {
		t.Errorf("Expected all four quadrants, saw %d", len(signs))
	}
}

func TestPlayerEliminated(t *testing.T) {
	tests := []struct {
		opacity float64
		want    bool
	}{
		{OpacityDefault, false},
		{0.01, false},
		{0, true},
		{-0.01, true},
	}

	for _, tt := range tests {
		p := Player{Opacity: tt.opacity}
		if got := p.Eliminated(); got != tt.want {
			t.Errorf("Eliminated() with opacity %v = %v, want %v", tt.opacity, got, tt.want)
		}
	}
}
