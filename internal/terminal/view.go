// Package terminal renders the game on a tcell screen and turns key presses
// into commands.
package terminal

import (
	"fmt"
	"math"

	"lastball/internal/game"

	"github.com/gdamore/tcell/v2"
)

// Field units covered by one terminal cell. Cells are about twice as tall as
// they are wide.
const (
	CellWidth  = 8.0
	CellHeight = 16.0
)

const playerRune = '●'

// Canvas is the drawing surface. tcell.Screen satisfies it.
type Canvas interface {
	SetContent(x, y int, primary rune, combining []rune, style tcell.Style)
	Size() (width, height int)
	Clear()
	Show()
}

// View draws snapshots onto a Canvas. The last row is a status line.
type View struct {
	canvas Canvas
	status string
}

// NewView creates a view over canvas
func NewView(canvas Canvas) *View {
	return &View{canvas: canvas}
}

// SetStatus sets a message shown at the end of the status line
func (v *View) SetStatus(msg string) {
	v.status = msg
}

// FieldSize returns the play field, in field units, that fits the canvas
func (v *View) FieldSize() (width, height float64) {
	cols, rows := v.canvas.Size()
	rows-- // status line
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}
	return float64(cols) * CellWidth, float64(rows) * CellHeight
}

// Draw renders one frame
func (v *View) Draw(snap game.Snapshot) {
	v.canvas.Clear()

	cols, rows := v.canvas.Size()
	fieldRows := rows - 1

	v.drawBall(snap.Ball, cols, fieldRows)
	for _, p := range snap.Players {
		v.drawPlayer(p, cols, fieldRows)
	}
	v.drawStatus(snap, cols, rows-1)

	v.canvas.Show()
}

func (v *View) drawBall(b game.Ball, cols, rows int) {
	bg := blend(b.Color, 1)
	style := tcell.StyleDefault.Background(bg)

	minC, maxC := cellRange(b.Pos.X-b.Radius, b.Pos.X+b.Radius, CellWidth, cols)
	minR, maxR := cellRange(b.Pos.Y-b.Radius, b.Pos.Y+b.Radius, CellHeight, rows)
	for r := minR; r <= maxR; r++ {
		for c := minC; c <= maxC; c++ {
			cx := (float64(c) + 0.5) * CellWidth
			cy := (float64(r) + 0.5) * CellHeight
			if math.Hypot(cx-b.Pos.X, cy-b.Pos.Y) <= b.Radius {
				v.canvas.SetContent(c, r, ' ', nil, style)
			}
		}
	}

	if b.Name == "" {
		return
	}
	textStyle := style.Foreground(tcell.ColorGreen).Bold(true)
	if b.Touchable {
		textStyle = textStyle.Reverse(true)
	}

	name := []rune(b.Name)
	maxLen := int(2 * b.Radius / CellWidth)
	if maxLen < 1 {
		maxLen = 1
	}
	if len(name) > maxLen {
		name = name[:maxLen]
	}
	row := int(b.Pos.Y / CellHeight)
	start := int(b.Pos.X/CellWidth) - len(name)/2
	v.putString(start, row, name, textStyle, cols, rows)
}

func (v *View) drawPlayer(p game.Player, cols, rows int) {
	if p.Eliminated() {
		return
	}

	c := int(p.Pos.X / CellWidth)
	r := int(p.Pos.Y / CellHeight)
	if c < 0 || c >= cols || r < 0 || r >= rows {
		return
	}

	style := tcell.StyleDefault.Foreground(blend(p.Color, p.Opacity))
	v.canvas.SetContent(c, r, playerRune, nil, style)
	v.putString(c+1, r, []rune(p.Name), style, cols, rows)
}

func (v *View) drawStatus(snap game.Snapshot, cols, row int) {
	if row < 0 {
		return
	}

	line := fmt.Sprintf(" %s | %d players", snap.Round.State, len(snap.Players))
	if snap.Round.State == game.RoundWon && snap.Round.WinnerName != "" {
		line += " | winner: " + snap.Round.WinnerName
	}
	line += " | space play/pause  s shuffle  r reset  q quit"
	if v.status != "" {
		line += " | " + v.status
	}

	style := tcell.StyleDefault.Reverse(true)
	v.putString(0, row, []rune(line), style, cols, row+1)
}

func (v *View) putString(x, y int, s []rune, style tcell.Style, cols, rows int) {
	if y < 0 || y >= rows {
		return
	}
	for i, ch := range s {
		if x+i < 0 {
			continue
		}
		if x+i >= cols {
			return
		}
		v.canvas.SetContent(x+i, y, ch, nil, style)
	}
}

// cellRange clamps the cells spanned by [lo, hi] to [0, limit)
func cellRange(lo, hi, size float64, limit int) (int, int) {
	first := int(math.Floor(lo / size))
	last := int(math.Floor(hi / size))
	if first < 0 {
		first = 0
	}
	if last >= limit {
		last = limit - 1
	}
	return first, last
}

// blend fades a hex color toward black by opacity
func blend(hex string, opacity float64) tcell.Color {
	r, g, b := tcell.GetColor(hex).RGB()
	if r < 0 {
		r, g, b = 255, 255, 255
	}
	opacity = math.Max(0, math.Min(1, opacity))
	return tcell.NewRGBColor(
		int32(float64(r)*opacity+0.5),
		int32(float64(g)*opacity+0.5),
		int32(float64(b)*opacity+0.5),
	)
}
