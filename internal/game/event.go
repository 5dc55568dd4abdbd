package game

import (
	"encoding/json"
	"time"
)

// EventType enum for event classification
type EventType uint8

const (
	EventTypeUnknown EventType = iota
	EventTypePlayerJoin
	EventTypePlayerLeave
	EventTypeShuffle
	EventTypeRoundStart // countdown began
	EventTypeRoundActive
	EventTypeWinner
	EventTypeEliminationDone
	EventTypePause
	EventTypeReset
)

// EventVersion is bumped whenever a payload changes shape
const EventVersion uint8 = 1

// Event is one line of the event log
type Event struct {
	Version   uint8           `json:"version"`
	Type      EventType       `json:"type"`
	Timestamp int64           `json:"timestamp"` // Unix nano
	Sequence  uint64          `json:"sequence"`
	RoundID   string          `json:"roundId"`
	PlayerID  int             `json:"playerId,omitempty"` // source player, also the rate limit key
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// String returns human-readable event type
func (t EventType) String() string {
	switch t {
	case EventTypePlayerJoin:
		return "player_join"
	case EventTypePlayerLeave:
		return "player_leave"
	case EventTypeShuffle:
		return "shuffle"
	case EventTypeRoundStart:
		return "round_start"
	case EventTypeRoundActive:
		return "round_active"
	case EventTypeWinner:
		return "winner"
	case EventTypeEliminationDone:
		return "elimination_done"
	case EventTypePause:
		return "pause"
	case EventTypeReset:
		return "reset"
	default:
		return "unknown"
	}
}

// MarshalText writes the type by name so the log stays readable
func (t EventType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText parses a type name; unknown names decode as EventTypeUnknown
func (t *EventType) UnmarshalText(text []byte) error {
	*t = EventTypeUnknown
	for c := EventTypePlayerJoin; c <= EventTypeReset; c++ {
		if c.String() == string(text) {
			*t = c
			break
		}
	}
	return nil
}

// Typed payloads for different event types

// PlayerJoinPayload contains player join details
type PlayerJoinPayload struct {
	PlayerID   int     `json:"playerId"`
	PlayerName string  `json:"playerName"`
	SpawnX     float64 `json:"spawnX"`
	SpawnY     float64 `json:"spawnY"`
	Color      string  `json:"color"`
}

// PlayerLeavePayload contains player removal details
type PlayerLeavePayload struct {
	PlayerID   int    `json:"playerId"`
	PlayerName string `json:"playerName"`
}

// ShufflePayload contains shuffle details
type ShufflePayload struct {
	PlayerCount int `json:"playerCount"`
}

// RoundStartPayload contains countdown details
type RoundStartPayload struct {
	CountdownSeconds int `json:"countdownSeconds"`
	PlayerCount      int `json:"playerCount"`
}

// WinnerPayload contains winner details
type WinnerPayload struct {
	PlayerID   int    `json:"playerId"`
	PlayerName string `json:"playerName"`
	Ticks      uint64 `json:"ticks"` // simulation ticks since process start
}

// EncodePayload marshals a payload to JSON bytes
func EncodePayload(payload interface{}) json.RawMessage {
	if payload == nil {
		return nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil
	}
	return data
}

// NewEvent creates a new event with the current timestamp
func NewEvent(eventType EventType, roundID string, playerID int, payload interface{}) Event {
	return Event{
		Version:   EventVersion,
		Type:      eventType,
		Timestamp: time.Now().UnixNano(),
		RoundID:   roundID,
		PlayerID:  playerID,
		Payload:   EncodePayload(payload),
	}
}
