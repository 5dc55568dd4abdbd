package terminal

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"lastball/internal/command"
	"lastball/internal/game"

	"github.com/gdamore/tcell/v2"
)

// ============================================================================
// Mocks
// ============================================================================

type cell struct {
	ch    rune
	style tcell.Style
}

// mockScreen is an in-memory Screen
type mockScreen struct {
	cols, rows int
	cells      map[[2]int]cell
	shows      int
	syncs      int
}

func newMockScreen(cols, rows int) *mockScreen {
	return &mockScreen{cols: cols, rows: rows, cells: make(map[[2]int]cell)}
}

func (m *mockScreen) SetContent(x, y int, primary rune, combining []rune, style tcell.Style) {
	if x < 0 || y < 0 || x >= m.cols || y >= m.rows {
		panic("write outside the screen")
	}
	m.cells[[2]int{x, y}] = cell{primary, style}
}

func (m *mockScreen) Size() (int, int)       { return m.cols, m.rows }
func (m *mockScreen) Clear()                 { m.cells = make(map[[2]int]cell) }
func (m *mockScreen) Show()                  { m.shows++ }
func (m *mockScreen) Sync()                  { m.syncs++ }
func (m *mockScreen) PollEvent() tcell.Event { return nil }

func (m *mockScreen) row(y int) string {
	var b strings.Builder
	for x := 0; x < m.cols; x++ {
		if c, ok := m.cells[[2]int{x, y}]; ok {
			b.WriteRune(c.ch)
		} else {
			b.WriteRune(' ')
		}
	}
	return b.String()
}

type mockCommander struct {
	got []string
	err error
}

func (m *mockCommander) ProcessCommand(cmd command.Command) error {
	m.got = append(m.got, cmd.Name)
	return m.err
}

// ============================================================================
// View
// ============================================================================

func TestFieldSizeLeavesStatusLine(t *testing.T) {
	v := NewView(newMockScreen(40, 11))

	w, h := v.FieldSize()
	if w != 40*CellWidth || h != 10*CellHeight {
		t.Errorf("Expected %vx%v, got %vx%v", 40*CellWidth, 10*CellHeight, w, h)
	}
}

func TestDrawPlayersBallAndStatus(t *testing.T) {
	screen := newMockScreen(40, 11)
	v := NewView(screen)

	snap := game.Snapshot{
		Boundary: game.Boundary{Width: 320, Height: 160},
		Ball: game.Ball{
			Radius: 40,
			Pos:    game.Vector2{X: 160, Y: 80},
			Color:  game.BallColor,
			Name:   "GO",
		},
		Players: []game.Player{
			{Ball: game.Ball{Pos: game.Vector2{X: 4, Y: 8}, Radius: 10, Color: "#ff0000", Name: "Ann"}, ID: 1, Opacity: 1},
			{Ball: game.Ball{Pos: game.Vector2{X: 300, Y: 150}, Radius: 10, Color: "#00ff00", Name: "Out"}, ID: 2, Opacity: 0},
		},
		Round: game.RoundInfo{State: game.RoundWon, WinnerName: "Ann"},
	}
	v.Draw(snap)

	if screen.shows != 1 {
		t.Errorf("Expected one Show, got %d", screen.shows)
	}

	if got := screen.row(0); !strings.HasPrefix(got, "●Ann") {
		t.Errorf("Expected player at the top left, got %q", got)
	}
	if c, ok := screen.cells[[2]int{37, 9}]; ok && c.ch == playerRune {
		t.Error("eliminated player should not be drawn")
	}

	// Ball text sits on the ball center cell
	if got := screen.row(5); !strings.Contains(got, "GO") {
		t.Errorf("Expected ball text on row 5, got %q", got)
	}
	if _, ok := screen.cells[[2]int{20, 3}]; !ok {
		t.Error("Expected ball body to fill cells around its center")
	}

	status := screen.row(10)
	if !strings.Contains(status, "won") || !strings.Contains(status, "winner: Ann") {
		t.Errorf("unexpected status line %q", status)
	}
}

func TestDrawClipsToScreen(t *testing.T) {
	screen := newMockScreen(10, 4)
	v := NewView(screen)

	// mockScreen panics on out-of-range writes
	v.Draw(game.Snapshot{
		Ball: game.Ball{Radius: 200, Pos: game.Vector2{X: 40, Y: 24}, Color: game.BallColor, Name: "A very long ball name"},
		Players: []game.Player{
			{Ball: game.Ball{Pos: game.Vector2{X: 76, Y: 40}, Name: "EdgeName"}, ID: 1, Opacity: 1},
			{Ball: game.Ball{Pos: game.Vector2{X: -50, Y: 500}, Name: "Gone"}, ID: 2, Opacity: 1},
		},
	})
}

func TestBlend(t *testing.T) {
	r, g, b := blend("#ff8000", 0.5).RGB()
	if r != 128 || g != 64 || b != 0 {
		t.Errorf("Expected (128,64,0), got (%d,%d,%d)", r, g, b)
	}

	r, g, b = blend("not-a-color", 1).RGB()
	if r != 255 || g != 255 || b != 255 {
		t.Errorf("invalid colors should draw white, got (%d,%d,%d)", r, g, b)
	}
}

// ============================================================================
// Keys and App
// ============================================================================

type keyPress struct {
	key tcell.Key
	r   rune
}

func TestKeyCommand(t *testing.T) {
	tests := []struct {
		name  string
		press keyPress
		want  string
		ok    bool
	}{
		{"space toggles", keyPress{tcell.KeyRune, ' '}, "toggle", true},
		{"enter toggles", keyPress{tcell.KeyEnter, 0}, "toggle", true},
		{"r resets", keyPress{tcell.KeyRune, 'r'}, "reset", true},
		{"S shuffles", keyPress{tcell.KeyRune, 'S'}, "shuffle", true},
		{"p pauses", keyPress{tcell.KeyRune, 'p'}, "pause", true},
		{"other rune", keyPress{tcell.KeyRune, 'z'}, "", false},
		{"arrow", keyPress{tcell.KeyUp, 0}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, ok := KeyCommand(tt.press.key, tt.press.r)
			if ok != tt.ok || cmd.Name != tt.want {
				t.Errorf("got %q, %v; want %q, %v", cmd.Name, ok, tt.want, tt.ok)
			}
			if ok && command.GetCommandType(cmd.Name) == command.CmdUnknown {
				t.Errorf("%q is not a known command", cmd.Name)
			}
		})
	}
}

func TestIsQuit(t *testing.T) {
	quits := []keyPress{
		{tcell.KeyEscape, 0},
		{tcell.KeyCtrlC, 0},
		{tcell.KeyRune, 'q'},
	}
	for _, k := range quits {
		if !IsQuit(k.key, k.r) {
			t.Errorf("Expected %+v to quit", k)
		}
	}
	if IsQuit(tcell.KeyRune, ' ') {
		t.Error("space should not quit")
	}
}

func TestAppResizeUpdatesBoundary(t *testing.T) {
	screen := newMockScreen(50, 21)
	store := game.NewStore(game.StoreOptions{Seed: 1})
	app := NewApp(screen, store, &mockCommander{})

	app.HandleEvent(tcell.NewEventResize(50, 21))

	if screen.syncs != 1 {
		t.Errorf("Expected one Sync, got %d", screen.syncs)
	}
	b := store.Snapshot().Boundary
	if b.Width != 50*CellWidth || b.Height != 20*CellHeight {
		t.Errorf("unexpected boundary %+v", b)
	}
}

func TestAppKeysReachCommander(t *testing.T) {
	screen := newMockScreen(50, 21)
	store := game.NewStore(game.StoreOptions{Seed: 1})
	commander := &mockCommander{}
	app := NewApp(screen, store, commander)

	for _, r := range []rune{' ', 'x', 's'} {
		if app.HandleKey(tcell.KeyRune, r) {
			t.Fatalf("%q should not quit", r)
		}
	}
	if got := strings.Join(commander.got, ","); got != "toggle,shuffle" {
		t.Errorf("Expected toggle,shuffle; got %s", got)
	}

	if !app.HandleKey(tcell.KeyRune, 'q') {
		t.Error("q should quit")
	}
}

func TestAppShowsCommandErrors(t *testing.T) {
	screen := newMockScreen(120, 11)
	store := game.NewStore(game.StoreOptions{Seed: 1})
	app := NewApp(screen, store, &mockCommander{err: errors.New("no room")})

	app.publish(store.Snapshot())
	app.HandleKey(tcell.KeyRune, 's')
	app.Redraw()

	if status := screen.row(10); !strings.Contains(status, "no room") {
		t.Errorf("Expected error in status line, got %q", status)
	}

	// Nothing changed, no redraw
	shows := screen.shows
	app.Redraw()
	if screen.shows != shows {
		t.Error("Redraw without changes should not draw")
	}
}

func TestNilChimeIsSilent(t *testing.T) {
	var c *Chime
	c.Play()
	c.Close()

	(&Chime{}).Play()
}

func TestChimeLoadSoundErrors(t *testing.T) {
	dir := t.TempDir()
	notOgg := filepath.Join(dir, "win.ogg")
	if err := os.WriteFile(notOgg, []byte("not vorbis"), 0644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		path string
	}{
		{"missing file", filepath.Join(dir, "missing.ogg")},
		{"not vorbis", notOgg},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Chime{}
			if err := c.LoadSound(tt.path); err == nil {
				t.Error("Expected an error")
			}
			if c.clip != nil {
				t.Error("Failed load must keep the generated notes")
			}
		})
	}
}
