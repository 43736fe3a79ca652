package mq

import (
	"github.com/IvanZhutyaev/Seka-Card-Game-sub000/common/mq"
)

const (
	GameExchange string = "seka.game.events" // topic, durable
)

// seka.game.{lobby_type}.{event_type}.{table_id}
const (
	ChipUpdateRoutingKey   string = "seka.game.%s.chip_update.%s"
	HandCompleteRoutingKey string = "seka.game.%s.hand_complete.%s"
	TableClosedRoutingKey  string = "seka.game.%s.table_closed.%s"
)

type MqClient struct {
	Config   mq.RabbitMqConfig
	Provider mq.IMqProvider
}

func NewMqClient(url string) (*MqClient, error) {
	config := mq.RabbitMqConfig{URL: url, Reliable: true}

	provider, err := mq.NewRabbitmqMqProvider(config)
	if err != nil {
		return nil, err
	}

	return &MqClient{Config: config, Provider: provider}, nil
}

func (c *MqClient) Close() {
	c.Provider.Disconnect()
}
