package websocket

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/IvanZhutyaev/Seka-Card-Game-sub000/internal/game"
	"github.com/IvanZhutyaev/Seka-Card-Game-sub000/internal/lobby"
	"github.com/IvanZhutyaev/Seka-Card-Game-sub000/internal/room"
	"github.com/IvanZhutyaev/Seka-Card-Game-sub000/internal/session"
	"github.com/IvanZhutyaev/Seka-Card-Game-sub000/models"
)

// MessageHandler validates inbound messages and routes them to the lobby manager, the
// player's table or the session supervisor. Nothing invalid gets past HandleMessage.
type MessageHandler struct {
	roomManager *room.RoomManager
	lobbies     *lobby.Manager
	supervisor  *session.Supervisor
}

func NewMessageHandler(roomManager *room.RoomManager, lobbies *lobby.Manager, supervisor *session.Supervisor) *MessageHandler {
	return &MessageHandler{
		roomManager: roomManager,
		lobbies:     lobbies,
		supervisor:  supervisor,
	}
}

func (h *MessageHandler) HandleMessage(ctx context.Context, client *Client, message []byte) error {
	var msg models.Message
	if err := json.Unmarshal(message, &msg); err != nil {
		return fmt.Errorf("malformed envelope: %w", models.ErrInvalidMessage)
	}

	switch msg.Type {
	case models.MessageTypeJoinLobby:
		return dispatch(msg.Data, func(m models.MessageJoinLobby) error {
			_, err := h.lobbies.JoinLobby(ctx, m.LobbyID, h.seat(client))
			return err
		})
	case models.MessageTypeCreateLobby:
		return dispatch(msg.Data, func(m models.MessageCreateLobby) error {
			_, err := h.lobbies.CreateLobby(ctx, h.seat(client), m.Name, m.Type, m.MinBet, m.MaxBet)
			return err
		})
	case models.MessageTypeLeaveLobby:
		return dispatch(msg.Data, func(models.MessageLeaveLobby) error {
			return h.lobbies.LeaveLobby(client.PlayerID)
		})
	case models.MessageTypeFindGame:
		return dispatch(msg.Data, func(m models.MessageFindGame) error {
			_, err := h.lobbies.FindGame(ctx, h.seat(client), m.MinBet, m.MaxBet)
			return err
		})
	case models.MessageTypeCancelMatchmaking:
		return dispatch(msg.Data, func(models.MessageCancelMatchmaking) error {
			return h.lobbies.CancelMatchmaking(client.PlayerID)
		})
	case models.MessageTypeGameAction:
		return dispatch(msg.Data, func(m models.MessageGameAction) error {
			r, err := h.roomManager.GetRoomByPlayerID(client.PlayerID)
			if err != nil {
				return err
			}
			return r.Apply(ctx, client.PlayerID, m.Action, m.Amount)
		})
	case models.MessageTypeHeartbeat:
		return dispatch(msg.Data, func(models.MessageHeartbeat) error {
			if err := h.supervisor.Heartbeat(client.PlayerID, client.Generation()); err != nil {
				return err
			}
			client.Send(models.MessageTypeHeartbeatAck, struct{}{})
			return nil
		})
	case models.MessageTypeStartGame:
		return dispatch(msg.Data, func(models.MessageStartGame) error {
			return h.handleStartGame(ctx, client)
		})
	case models.MessageTypeLeaveTable:
		return dispatch(msg.Data, func(models.MessageLeaveTable) error {
			return h.supervisor.LeaveTable(ctx, client.PlayerID)
		})
	case models.MessageTypeSync:
		return dispatch(msg.Data, func(models.MessageSync) error {
			r, err := h.roomManager.GetRoomByPlayerID(client.PlayerID)
			if err != nil {
				return err
			}
			return r.Sync(ctx, client.PlayerID)
		})
	default:
		return fmt.Errorf("unknown message type %q: %w", msg.Type, models.ErrInvalidMessage)
	}
}

// handleStartGame starts a waiting table the player sits at, or promotes the private
// lobby they host.
func (h *MessageHandler) handleStartGame(ctx context.Context, client *Client) error {
	if r, err := h.roomManager.GetRoomByPlayerID(client.PlayerID); err == nil {
		return r.Start(ctx, client.PlayerID)
	}

	lobbyID, ok := h.lobbies.LobbyOf(client.PlayerID)
	if !ok {
		return models.ErrLobbyNotFound
	}
	return h.lobbies.StartLobby(ctx, lobbyID, client.PlayerID)
}

func (h *MessageHandler) seat(client *Client) game.SeatRequest {
	profile, ok := h.supervisor.Profile(client.PlayerID)
	if !ok {
		profile = client.Profile
	}
	return game.SeatRequest{PlayerID: profile.PlayerID, DisplayName: profile.DisplayName, Balance: profile.Balance}
}

func dispatch[T models.Validator](data json.RawMessage, fn func(T) error) error {
	payload, err := models.ParseData[T](data)
	if err != nil {
		return err
	}
	return fn(*payload)
}
