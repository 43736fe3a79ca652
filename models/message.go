package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// MessageType represents the type of WebSocket message
type MessageType string

// Inbound
const (
	MessageTypeJoinLobby         MessageType = "join_lobby"
	MessageTypeCreateLobby       MessageType = "create_lobby"
	MessageTypeLeaveLobby        MessageType = "leave_lobby"
	MessageTypeFindGame          MessageType = "find_game"
	MessageTypeCancelMatchmaking MessageType = "cancel_matchmaking"
	MessageTypeGameAction        MessageType = "game_action"
	MessageTypeHeartbeat         MessageType = "heartbeat"
	MessageTypeStartGame         MessageType = "start_game"
	MessageTypeLeaveTable        MessageType = "leave_table"
	MessageTypeSync              MessageType = "sync"
)

// Outbound
const (
	MessageTypeMatchmakingUpdate MessageType = "matchmaking_update"
	MessageTypeLobbyCreated      MessageType = "lobby_created"
	MessageTypeLobbyJoined       MessageType = "lobby_joined"
	MessageTypeGameState         MessageType = "game_state"
	MessageTypePlayerJoined      MessageType = "player_joined"
	MessageTypePlayerLeft        MessageType = "player_left"
	MessageTypeHandResult        MessageType = "hand_result"
	MessageTypeHeartbeatAck      MessageType = "heartbeat_ack"
	MessageTypeError             MessageType = "error"
)

// Message represents an inbound WebSocket message
type Message struct {
	Type MessageType     `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Response is the outbound envelope. Seq increases monotonically per connection.
type Response struct {
	Type      MessageType `json:"type"`
	Seq       uint64      `json:"seq"`
	Data      any         `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
}

func NewResponse(msgType MessageType, data any) Response {
	return Response{
		Type:      msgType,
		Data:      data,
		Timestamp: time.Now().UTC(),
	}
}

// Validator is implemented by every inbound payload.
type Validator interface {
	Validate() error
}

type LobbyType string

const (
	LobbyTypePublic  LobbyType = "public"
	LobbyTypePrivate LobbyType = "private"
)

type ActionType string

const (
	ActionBet   ActionType = "bet"
	ActionCall  ActionType = "call"
	ActionCheck ActionType = "check"
	ActionFold  ActionType = "fold"
	ActionRaise ActionType = "raise"
	ActionAllIn ActionType = "all-in"
)

func invalid(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrInvalidMessage)
}

type MessageJoinLobby struct {
	LobbyID string `json:"lobbyId"`
}

func (m MessageJoinLobby) Validate() error {
	if strings.TrimSpace(m.LobbyID) == "" {
		return invalid("lobbyId is required")
	}
	return nil
}

type MessageCreateLobby struct {
	Name   string    `json:"name"`
	Type   LobbyType `json:"type"`
	MinBet int       `json:"minBet,omitempty"`
	MaxBet int       `json:"maxBet,omitempty"`
}

func (m MessageCreateLobby) Validate() error {
	if m.Type != LobbyTypePublic && m.Type != LobbyTypePrivate {
		return invalid("unknown lobby type %q", m.Type)
	}
	if m.Type == LobbyTypePrivate && strings.TrimSpace(m.Name) == "" {
		return invalid("private lobbies need a name")
	}
	if len(m.Name) > 64 {
		return invalid("lobby name too long")
	}
	if m.MinBet != 0 || m.MaxBet != 0 {
		return validateStakes(m.MinBet, m.MaxBet)
	}
	return nil
}

type MessageLeaveLobby struct{}

func (MessageLeaveLobby) Validate() error { return nil }

type MessageFindGame struct {
	MinBet int `json:"minBet"`
	MaxBet int `json:"maxBet"`
}

func (m MessageFindGame) Validate() error {
	return validateStakes(m.MinBet, m.MaxBet)
}

func validateStakes(minBet, maxBet int) error {
	if minBet <= 0 {
		return invalid("minBet must be positive")
	}
	if maxBet < minBet {
		return invalid("maxBet must not be below minBet")
	}
	return nil
}

type MessageCancelMatchmaking struct{}

func (MessageCancelMatchmaking) Validate() error { return nil }

type MessageGameAction struct {
	Action ActionType `json:"action"`
	Amount *int       `json:"amount,omitempty"`
}

func (m MessageGameAction) Validate() error {
	switch m.Action {
	case ActionFold, ActionCheck, ActionCall:
		if m.Amount != nil {
			return invalid("%s takes no amount", m.Action)
		}
	case ActionBet, ActionRaise:
		if m.Amount == nil {
			return invalid("%s requires an amount", m.Action)
		}
	case ActionAllIn:
	default:
		return invalid("unknown action %q", m.Action)
	}
	return nil
}

type MessageHeartbeat struct{}

func (MessageHeartbeat) Validate() error { return nil }

type MessageStartGame struct{}

func (MessageStartGame) Validate() error { return nil }

type MessageLeaveTable struct{}

func (MessageLeaveTable) Validate() error { return nil }

type MessageSync struct{}

func (MessageSync) Validate() error { return nil }

type MatchmakingStatus string

const (
	MatchmakingSearching MatchmakingStatus = "searching"
	MatchmakingMatched   MatchmakingStatus = "matched"
	MatchmakingCancelled MatchmakingStatus = "cancelled"
	MatchmakingTimeout   MatchmakingStatus = "timeout"
)

type MatchmakingUpdate struct {
	LobbyID         string            `json:"lobbyId"`
	Status          MatchmakingStatus `json:"status"`
	PlayersCount    int               `json:"playersCount"`
	RequiredPlayers int               `json:"requiredPlayers"`
	WaitingPlayers  []string          `json:"waitingPlayers"`
}

// LobbyInfo describes a lobby, or a waiting table with free seats, to clients.
type LobbyInfo struct {
	LobbyID         string    `json:"lobbyId"`
	Name            string    `json:"name,omitempty"`
	Type            LobbyType `json:"type"`
	MinBet          int       `json:"minBet"`
	MaxBet          int       `json:"maxBet"`
	HostID          string    `json:"hostId,omitempty"`
	PlayersCount    int       `json:"playersCount"`
	RequiredPlayers int       `json:"requiredPlayers"`
	IsTable         bool      `json:"isTable"`
}

type PlayerNotice struct {
	TableID     string `json:"tableId"`
	PlayerID    string `json:"playerId"`
	DisplayName string `json:"displayName,omitempty"`
	Reason      string `json:"reason,omitempty"`
}

type ErrorMessage struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

func ParseData[T Validator](data json.RawMessage) (*T, error) {
	var result T
	if len(data) > 0 && string(data) != "null" {
		if err := json.Unmarshal(data, &result); err != nil {
			return nil, invalid("malformed payload: %v", err)
		}
	}

	if err := result.Validate(); err != nil {
		return nil, err
	}

	return &result, nil
}
