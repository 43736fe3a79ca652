package models

import "errors"

type ErrorCode string

const (
	CodeNotYourTurn            ErrorCode = "NotYourTurn"
	CodeInvalidBetAmount       ErrorCode = "InvalidBetAmount"
	CodeInvalidPhaseTransition ErrorCode = "InvalidPhaseTransition"
	CodeInsufficientCards      ErrorCode = "InsufficientCards"
	CodeLobbyFull              ErrorCode = "LobbyFull"
	CodeLobbyNotFound          ErrorCode = "LobbyNotFound"
	CodePlayerNotSeated        ErrorCode = "PlayerNotSeated"
	CodeConnectionTimeout      ErrorCode = "ConnectionTimeout"
	CodeInvalidAction          ErrorCode = "InvalidAction"
	CodeInvalidMessage         ErrorCode = "InvalidMessage"
	CodeAlreadySeated          ErrorCode = "AlreadySeated"
	CodeNotLobbyHost           ErrorCode = "NotLobbyHost"
	CodeNotEnoughPlayers       ErrorCode = "NotEnoughPlayers"
	CodeTableClosed            ErrorCode = "TableClosed"
	CodeUnauthorized           ErrorCode = "Unauthorized"
	CodeInternal               ErrorCode = "InternalError"
)

// GameError is an error reported to clients as error{code, message}.
type GameError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

func (e *GameError) Error() string {
	return e.Message
}

func NewGameError(code ErrorCode, message string) *GameError {
	return &GameError{Code: code, Message: message}
}

var (
	ErrNotYourTurn            = NewGameError(CodeNotYourTurn, "it is not your turn")
	ErrInvalidBetAmount       = NewGameError(CodeInvalidBetAmount, "invalid bet amount")
	ErrInvalidPhaseTransition = NewGameError(CodeInvalidPhaseTransition, "action not allowed in the current phase")
	ErrInsufficientCards      = NewGameError(CodeInsufficientCards, "not enough cards left in the deck")
	ErrLobbyFull              = NewGameError(CodeLobbyFull, "lobby is full")
	ErrLobbyNotFound          = NewGameError(CodeLobbyNotFound, "lobby not found")
	ErrPlayerNotSeated        = NewGameError(CodePlayerNotSeated, "player is not seated at this table")
	ErrConnectionTimeout      = NewGameError(CodeConnectionTimeout, "connection timed out")
	ErrInvalidAction          = NewGameError(CodeInvalidAction, "action not allowed")
	ErrInvalidMessage         = NewGameError(CodeInvalidMessage, "invalid message")
	ErrAlreadySeated          = NewGameError(CodeAlreadySeated, "player is already seated at a table")
	ErrNotLobbyHost           = NewGameError(CodeNotLobbyHost, "only the lobby host can do this")
	ErrNotEnoughPlayers       = NewGameError(CodeNotEnoughPlayers, "not enough players")
	ErrTableClosed            = NewGameError(CodeTableClosed, "table is closed")
	ErrUnauthorized           = NewGameError(CodeUnauthorized, "unauthorized")
)

// ToGameError maps any error onto the client-facing taxonomy.
func ToGameError(err error) *GameError {
	var gameErr *GameError
	if errors.As(err, &gameErr) {
		return gameErr
	}
	return NewGameError(CodeInternal, "internal error")
}
