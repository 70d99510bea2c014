package mq

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Exchange — тип для имени обменника.
type Exchange string

// RoutingKey — тип для ключа маршрутизации.
type RoutingKey string

// ExchangeEvents — обменник событий CLI.
const ExchangeEvents Exchange = "rd.events"

// Routing keys.
const (
	RoutingKeyExecutionFinished RoutingKey = "execution.finished"
	RoutingKeyScmAction         RoutingKey = "scm.action.performed"
)

// exchangeDeclarer — часть *amqp.Channel, нужная SetupTopology.
type exchangeDeclarer interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
}

// SetupTopology объявляет exchange событий. Очереди создают потребители.
func SetupTopology(ctx context.Context, conn *Connection) error {
	return conn.WithChannel(ctx, func(_ context.Context, ch *amqp.Channel) error {
		return declareExchanges(ch)
	})
}

// declareExchanges создаёт обменники.
func declareExchanges(ch exchangeDeclarer) error {
	err := ch.ExchangeDeclare(
		string(ExchangeEvents), // name
		"topic",                // type
		true,                   // durable
		false,                  // auto-deleted
		false,                  // internal
		false,                  // no-wait
		nil,                    // arguments
	)
	if err != nil {
		return fmt.Errorf("declare exchange %s: %w", ExchangeEvents, err)
	}
	return nil
}
