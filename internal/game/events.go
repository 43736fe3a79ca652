package game

import "github.com/IvanZhutyaev/Seka-Card-Game-sub000/models"

type EventType string

const (
	EventPlayerJoined  EventType = "player_joined"
	EventPlayerLeft    EventType = "player_left"
	EventPlayerRemoved EventType = "player_removed"
	EventPlayerActed   EventType = "player_acted"
	EventHandStarted   EventType = "hand_started"
	EventTurnChanged   EventType = "turn_changed"
	EventSvara         EventType = "svara"
	EventHandFinished  EventType = "hand_finished"
	EventTableAborted  EventType = "table_aborted"
)

// Event records something the table did while handling a command. The room turns
// events into notifications, persistence and deadline bookkeeping.
type Event struct {
	Type     EventType
	PlayerID string
	Reason   string
	Action   models.ActionType
	Amount   int
	TurnSeq  uint64
	Result   *HandResult
	Refunds  map[string]int
}

// HandResult describes how a hand, or a tied showdown that led to svara, ended.
type HandResult struct {
	HandNumber  int            `json:"handNumber"`
	Outcome     string         `json:"outcome"`
	Winners     []string       `json:"winners"`
	Pot         int            `json:"pot"`
	Hands       []RankedHand   `json:"hands,omitempty"`
	ChipChanges map[string]int `json:"chipChanges,omitempty"`
}

func (r *HandResult) Final() bool {
	return r != nil && r.Outcome != "svara"
}
