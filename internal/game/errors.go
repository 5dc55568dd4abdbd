package game

import "errors"

var (
	// ErrInvalidName is returned when add input holds no name tokens.
	// Callers facing users ignore it silently.
	ErrInvalidName = errors.New("no player name given")

	// ErrPlayerNotFound is returned by remove/hover for an unknown player id
	ErrPlayerNotFound = errors.New("player not found")

	// ErrPlacementExhausted is returned when rejection sampling finds no free
	// spot within the attempt bound. The operation that needed it is aborted.
	ErrPlacementExhausted = errors.New("no free position on the play field")
)
