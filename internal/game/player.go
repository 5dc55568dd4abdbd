package game

// Player appearance and motion defaults
const (
	PlayerRadius = 10.0

	OpacityDefault = 0.75 // nobody hovered
	OpacityHovered = 1.0
	OpacityDimmed  = 0.25 // somebody else hovered

	minSpeedX = 2.0 // |Dir.X| in [2,5)
	maxSpeedX = 5.0
	speedSum  = 6.0 // |Dir.X| + |Dir.Y|
)

// NoPlayer is the hover id meaning "nobody". Real ids start at 1.
const NoPlayer = 0

var playerColors = []string{
	"#ff6b6b", "#4ecdc4", "#45b7d1", "#96ceb4", "#ffeaa7",
	"#a29bfe", "#fd79a8", "#00b894", "#6c5ce7", "#e17055",
}

// Player is a named circle that moves every tick
type Player struct {
	Ball
	ID      int     `json:"id"`
	Dir     Vector2 `json:"dir"`
	Opacity float64 `json:"opacity"`
}

// Circle returns the player's body for collision tests
func (p *Player) Circle() Ball {
	return p.Ball
}

// Eliminated reports whether the player has fully faded out
func (p *Player) Eliminated() bool {
	return p.Opacity <= 0
}

// newPlayer builds a player with a random palette color and a random heading.
// Position is left to the caller.
func newPlayer(id int, name string, rng Rand) Player {
	return Player{
		Ball: Ball{
			Radius: PlayerRadius,
			Color:  playerColors[rng.Intn(len(playerColors))],
			Name:   name,
		},
		ID:      id,
		Dir:     randomDirection(rng),
		Opacity: OpacityDefault,
	}
}

// randomDirection draws |x| in [2,5), |y| = 6-|x|, each sign independent
func randomDirection(rng Rand) Vector2 {
	x := rng.Float64()*(maxSpeedX-minSpeedX) + minSpeedX
	y := speedSum - x

	if rng.Intn(2) == 0 {
		x = -x
	}
	if rng.Intn(2) == 0 {
		y = -y
	}
	return Vector2{X: x, Y: y}
}
