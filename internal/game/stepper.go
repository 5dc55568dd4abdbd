package game

// Stepping constants
const (
	ChaseVelocityScale  = 1.0
	WanderVelocityScale = 1.0 / 60.0

	FadeStep   = 0.01 // opacity lost per elimination tick
	GrowStep   = 1.0  // radius gained per elimination tick
	fadeFloor  = FadeStep
	fadeJitter = 1e-9 // absorbs float drift so 0.75 fades in exactly 75 ticks
)

// Stepper advances the world by one tick. It holds no state of its own.
type Stepper struct {
	ChaseScale  float64
	WanderScale float64
}

// NewStepper returns a stepper with the default velocity scales
func NewStepper() Stepper {
	return Stepper{ChaseScale: ChaseVelocityScale, WanderScale: WanderVelocityScale}
}

// StepChase moves every player, bounces them off the walls and the central
// ball, and reports the first player (in slice order) touching a touchable
// ball. The ball is marked untouchable as soon as a winner is found so later
// players in the same tick cannot win.
func (st Stepper) StepChase(w *World) (winner *Player) {
	for i := range w.Players {
		p := &w.Players[i]
		if p.Eliminated() {
			continue
		}

		move(p, st.ChaseScale, w.Boundary)

		if !CirclesOverlap(p.Circle(), w.Ball) {
			continue
		}
		p.Dir = ReflectVelocity(p.Dir, p.Pos, w.Ball.Pos)

		if w.Ball.Touchable && winner == nil {
			winner = p
			w.Ball.Touchable = false
		}
	}
	return winner
}

// StepWander moves players slowly with wall bounces only
func (st Stepper) StepWander(w *World) {
	for i := range w.Players {
		p := &w.Players[i]
		if p.Eliminated() {
			continue
		}
		move(p, st.WanderScale, w.Boundary)
	}
}

// StepElimination fades and grows every non-winner by one tick. Players still
// visible keep drifting off the walls; faded ones are frozen. It reports true
// once every non-winner is fully faded.
func (st Stepper) StepElimination(w *World, winnerID int) (done bool) {
	done = true
	for i := range w.Players {
		p := &w.Players[i]
		if p.ID == winnerID || p.Eliminated() {
			continue
		}

		move(p, st.ChaseScale, w.Boundary)
		fade(p)

		if !p.Eliminated() {
			done = false
		}
	}
	return done
}

// move integrates the position and reflects off the field edges. A velocity
// component is only flipped while it still points into the wall, so one
// crossing yields exactly one flip.
func move(p *Player, scale float64, b Boundary) {
	p.Pos = p.Pos.Add(p.Dir.Scale(scale))

	if (p.Pos.X-p.Radius <= 0 && p.Dir.X < 0) || (p.Pos.X+p.Radius >= b.Width && p.Dir.X > 0) {
		p.Dir.X = -p.Dir.X
	}
	if (p.Pos.Y-p.Radius <= 0 && p.Dir.Y < 0) || (p.Pos.Y+p.Radius >= b.Height && p.Dir.Y > 0) {
		p.Dir.Y = -p.Dir.Y
	}
}

func fade(p *Player) {
	if p.Opacity <= fadeFloor+fadeJitter {
		p.Opacity = 0
		return
	}
	p.Opacity -= FadeStep
	p.Radius += GrowStep
}
