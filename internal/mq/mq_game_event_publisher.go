package mq

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/IvanZhutyaev/Seka-Card-Game-sub000/common/mq"
)

type GameEventPublisher struct {
	provider mq.IMqProvider
	exchange string
}

func NewGameEventPublisher(provider mq.IMqProvider) (*GameEventPublisher, error) {
	if err := provider.DeclareExchange(GameExchange, "topic", true); err != nil {
		return nil, err
	}

	return &GameEventPublisher{
		provider: provider,
		exchange: GameExchange,
	}, nil
}

func (p *GameEventPublisher) PublishChipUpdate(msg *ChipUpdateMessage) error {
	stamp(&msg.MessageID, &msg.Timestamp)
	routingKey := fmt.Sprintf(ChipUpdateRoutingKey, msg.LobbyType, msg.TableID)
	return p.provider.Publish(p.exchange, routingKey, msg)
}

func (p *GameEventPublisher) PublishHandComplete(msg *HandCompleteMessage) error {
	stamp(&msg.MessageID, &msg.Timestamp)
	routingKey := fmt.Sprintf(HandCompleteRoutingKey, msg.LobbyType, msg.TableID)
	return p.provider.Publish(p.exchange, routingKey, msg)
}

func (p *GameEventPublisher) PublishTableClosed(msg *TableClosedMessage) error {
	stamp(&msg.MessageID, &msg.Timestamp)
	routingKey := fmt.Sprintf(TableClosedRoutingKey, msg.LobbyType, msg.TableID)
	return p.provider.Publish(p.exchange, routingKey, msg)
}

func stamp(id *string, ts *time.Time) {
	*id = uuid.New().String()
	*ts = time.Now().UTC()
}

// ChipUpdateMessage carries the net chip change of every player in a finished hand,
// or the refunds of an aborted one.
type ChipUpdateMessage struct {
	MessageID string    `json:"message_id"`
	Timestamp time.Time `json:"timestamp"`
	LobbyType string    `json:"lobby_type"`
	TableID   string    `json:"table_id"`
	HandNo    int       `json:"hand_number"`
	Reason    string    `json:"reason"`

	PlayerChanges []PlayerChipChange `json:"player_changes"`
}

type PlayerChipChange struct {
	PlayerID string `json:"player_id"`
	Change   int    `json:"change"`
}

type HandCompleteMessage struct {
	MessageID string    `json:"message_id"`
	Timestamp time.Time `json:"timestamp"`
	LobbyType string    `json:"lobby_type"`
	TableID   string    `json:"table_id"`
	HandNo    int       `json:"hand_number"`
	Outcome   string    `json:"outcome"`
	Winners   []string  `json:"winners"`
	Pot       int       `json:"pot"`
	Players   []string  `json:"players"`
}

type TableClosedMessage struct {
	MessageID string    `json:"message_id"`
	Timestamp time.Time `json:"timestamp"`
	LobbyType string    `json:"lobby_type"`
	TableID   string    `json:"table_id"`
	Reason    string    `json:"reason"`
}
