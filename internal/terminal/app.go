package terminal

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"lastball/internal/command"
	"lastball/internal/game"

	"github.com/gdamore/tcell/v2"
)

const frameInterval = 16 * time.Millisecond // ~60 FPS

// Screen is the part of tcell.Screen the app needs
type Screen interface {
	Canvas
	PollEvent() tcell.Event
	Sync()
}

// Store is the part of game.Store the app reads and resizes
type Store interface {
	Subscribe(fn game.Listener) (unsubscribe func())
	Snapshot() game.Snapshot
	UpdateBoundary(height, width float64)
}

// Commander applies commands. *command.Handler satisfies it.
type Commander interface {
	ProcessCommand(cmd command.Command) error
}

// App runs the terminal client: input, resize and redraw
type App struct {
	screen   Screen
	view     *View
	store    Store
	commands Commander

	latest atomic.Pointer[game.Snapshot]
	dirty  atomic.Bool
}

// NewApp wires a screen to the store and command handler
func NewApp(screen Screen, store Store, commands Commander) *App {
	return &App{
		screen:   screen,
		view:     NewView(screen),
		store:    store,
		commands: commands,
	}
}

// publish is the store listener. It only records the snapshot.
func (a *App) publish(snap game.Snapshot) {
	a.latest.Store(&snap)
	a.dirty.Store(true)
}

// Resize matches the play field to the screen
func (a *App) Resize() {
	width, height := a.view.FieldSize()
	a.store.UpdateBoundary(height, width)
}

// HandleEvent applies one input event. It returns true when the user quits.
func (a *App) HandleEvent(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		return a.HandleKey(ev.Key(), ev.Rune())

	case *tcell.EventResize:
		a.screen.Sync()
		a.Resize()
	}
	return false
}

// HandleKey applies one key press. It returns true when the user quits.
func (a *App) HandleKey(key tcell.Key, r rune) bool {
	if IsQuit(key, r) {
		return true
	}
	cmd, ok := KeyCommand(key, r)
	if !ok {
		return false
	}

	if err := a.commands.ProcessCommand(cmd); err != nil {
		a.view.SetStatus(err.Error())
	} else {
		a.view.SetStatus("")
	}
	a.dirty.Store(true)
	return false
}

// Redraw draws the latest snapshot if anything changed since the last frame
func (a *App) Redraw() {
	if !a.dirty.Swap(false) {
		return
	}
	if snap := a.latest.Load(); snap != nil {
		a.view.Draw(*snap)
	}
}

// Run drives the client until the user quits or ctx ends
func (a *App) Run(ctx context.Context) error {
	if a.screen == nil || a.store == nil || a.commands == nil {
		return errors.New("terminal: app is not fully wired")
	}

	unsubscribe := a.store.Subscribe(a.publish)
	defer unsubscribe()

	a.publish(a.store.Snapshot())
	a.Resize()

	done := make(chan struct{})
	defer close(done)

	events := make(chan tcell.Event, 100)
	go func() {
		defer close(events)
		for {
			ev := a.screen.PollEvent()
			if ev == nil {
				return // screen finalized
			}
			select {
			case events <- ev:
			case <-done:
				return
			}
		}
	}()

	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-events:
			if !ok || a.HandleEvent(ev) {
				return nil
			}

		case <-ticker.C:
			a.Redraw()
		}
	}
}

// IsQuit reports whether the key ends the client
func IsQuit(key tcell.Key, r rune) bool {
	switch key {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return true
	case tcell.KeyRune:
		return r == 'q' || r == 'Q'
	}
	return false
}

// KeyCommand maps a key press to a command
func KeyCommand(key tcell.Key, r rune) (command.Command, bool) {
	if key == tcell.KeyEnter {
		return newKeyCommand("toggle"), true
	}
	if key != tcell.KeyRune {
		return command.Command{}, false
	}

	switch r {
	case ' ':
		return newKeyCommand("toggle"), true
	case 'p', 'P':
		return newKeyCommand("pause"), true
	case 'r', 'R':
		return newKeyCommand("reset"), true
	case 's', 'S':
		return newKeyCommand("shuffle"), true
	}
	return command.Command{}, false
}

func newKeyCommand(name string) command.Command {
	return command.Command{
		Name:       name,
		Source:     "terminal",
		ReceivedAt: time.Now(),
	}
}
