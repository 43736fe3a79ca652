package mq

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/streadway/amqp"
)

var ErrNotConnected = errors.New("mq: not connected")

type RabbitmqMqProvider struct {
	connection *amqp.Connection
	channel    *amqp.Channel
	confirms   chan amqp.Confirmation
	config     RabbitMqConfig
	mu         sync.Mutex
}

type RabbitMqConfig struct {
	URL string
	// Reliable waits for a broker confirmation after every publish.
	Reliable bool
}

func NewRabbitmqMqProvider(config RabbitMqConfig) (*RabbitmqMqProvider, error) {
	provider := &RabbitmqMqProvider{config: config}
	if err := provider.Connect(config.URL); err != nil {
		return nil, err
	}
	return provider, nil
}

func (r *RabbitmqMqProvider) Connect(connectionString string) error {
	connection, err := amqp.Dial(connectionString)
	if err != nil {
		return fmt.Errorf("dial rabbitmq: %w", err)
	}

	channel, err := connection.Channel()
	if err != nil {
		connection.Close()
		return fmt.Errorf("open channel: %w", err)
	}

	if r.config.Reliable {
		if err := channel.Confirm(false); err != nil {
			connection.Close()
			return fmt.Errorf("channel could not be put into confirm mode: %w", err)
		}
		r.confirms = channel.NotifyPublish(make(chan amqp.Confirmation, 1))
	}

	r.connection = connection
	r.channel = channel
	return nil
}

func (r *RabbitmqMqProvider) Disconnect() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.connection == nil {
		return
	}
	r.connection.Close()
	r.connection = nil
	r.channel = nil
}

func (r *RabbitmqMqProvider) Publish(exchangeName string, routingKey string, data interface{}) error {
	body, err := json.Marshal(data)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.channel == nil {
		return ErrNotConnected
	}

	err = r.channel.Publish(
		exchangeName,
		routingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:     "application/json",
			ContentEncoding: "utf-8",
			Body:            body,
			DeliveryMode:    amqp.Persistent,
			Timestamp:       time.Now(),
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}

	if r.confirms != nil {
		if confirmed := <-r.confirms; !confirmed.Ack {
			return fmt.Errorf("broker nacked message on %s", routingKey)
		}
	}

	return nil
}

func (r *RabbitmqMqProvider) DeclareExchange(exchangeName string, exchangeType string, durable bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.channel == nil {
		return ErrNotConnected
	}

	err := r.channel.ExchangeDeclare(
		exchangeName,
		exchangeType,
		durable,
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to declare exchange: %w", err)
	}
	return nil
}
