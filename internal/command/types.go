package command

import (
	"errors"
	"strings"
	"time"
)

// Command represents a parsed game command
type Command struct {
	Name       string   // "add", "remove", "shuffle", etc.
	Args       []string // Arguments after the command
	Source     string   // Client that sent it, the rate limit key
	ReceivedAt time.Time
}

// CommandType for routing
type CommandType int

const (
	CmdAdd CommandType = iota
	CmdRemove
	CmdShuffle
	CmdHover
	CmdPlay
	CmdToggle
	CmdPause
	CmdReset
	CmdResize
	CmdUnknown
)

// SupportedCommands maps command strings to types
var SupportedCommands = map[string]CommandType{
	// Add variants
	"add":  CmdAdd,
	"join": CmdAdd,
	"new":  CmdAdd,

	// Remove variants
	"remove": CmdRemove,
	"rm":     CmdRemove,
	"delete": CmdRemove,
	"kick":   CmdRemove,

	// Shuffle variants
	"shuffle": CmdShuffle,
	"mix":     CmdShuffle,

	// Hover variants, no argument clears the highlight
	"hover":     CmdHover,
	"highlight": CmdHover,
	"focus":     CmdHover,

	"play":  CmdPlay,
	"start": CmdPlay,

	"toggle": CmdToggle,
	"click":  CmdToggle,

	"pause": CmdPause,
	"stop":  CmdPause,

	"reset":   CmdReset,
	"restart": CmdReset,
	"again":   CmdReset,

	"resize":   CmdResize,
	"boundary": CmdResize,
}

var (
	// ErrUnknownCommand is returned for a command name with no handler
	ErrUnknownCommand = errors.New("unknown command")

	// ErrMissingArgument is returned when a command needs arguments it did not get
	ErrMissingArgument = errors.New("missing argument")

	// ErrRateLimited is returned when a source sends commands too fast
	ErrRateLimited = errors.New("rate limited")

	// ErrPlayerLimit is returned when adding would exceed the player cap
	ErrPlayerLimit = errors.New("player limit reached")
)

// GetCommandType returns the command type for a string (case-insensitive)
func GetCommandType(cmd string) CommandType {
	if t, ok := SupportedCommands[strings.ToLower(cmd)]; ok {
		return t
	}
	return CmdUnknown
}

// Parse splits a line of text such as "!add Alice Bob" into a command.
// A leading "!" or "/" is optional. Returns false for blank input.
func Parse(text, source string) (Command, bool) {
	text = strings.TrimSpace(text)
	text = strings.TrimLeft(text, "!/")

	parts := strings.Fields(text)
	if len(parts) == 0 {
		return Command{}, false
	}

	return Command{
		Name:   strings.ToLower(parts[0]),
		Args:   parts[1:],
		Source: source,
	}, true
}
