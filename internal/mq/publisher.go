package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// MessageType — тип сообщения.
type MessageType string

// Типы сообщений.
const (
	MessageTypeExecutionFinished MessageType = "execution.finished"
	MessageTypeScmAction         MessageType = "scm.action.performed"
)

// channelPublisher — часть *amqp.Channel, нужная Publisher.
type channelPublisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// Publisher публикует события в RabbitMQ.
type Publisher struct {
	ch     channelPublisher
	logger *slog.Logger
	now    func() time.Time
}

// NewPublisher создаёт Publisher поверх канала соединения.
func NewPublisher(conn *Connection, logger *slog.Logger) *Publisher {
	return newPublisher(conn.Channel(), logger)
}

func newPublisher(ch channelPublisher, logger *slog.Logger) *Publisher {
	return &Publisher{
		ch:     ch,
		logger: logger,
		now:    time.Now,
	}
}

// Message — сообщение для публикации.
type Message struct {
	// ID — уникальный идентификатор сообщения.
	ID string `json:"id"`

	// Type — тип сообщения.
	Type MessageType `json:"type"`

	// Payload — полезная нагрузка.
	Payload any `json:"payload"`

	// Timestamp — время создания.
	Timestamp time.Time `json:"timestamp"`
}

// ExecutionFinishedPayload — follow дочитал вывод execution.
type ExecutionFinishedPayload struct {
	ExecutionID string `json:"execution_id"`
	State       string `json:"state"`
	Succeeded   bool   `json:"succeeded"`
	Lines       int    `json:"lines"`
}

// ScmActionPayload — результат setup/perform.
type ScmActionPayload struct {
	Project     string `json:"project"`
	Integration string `json:"integration"`
	Action      string `json:"action"`
	Outcome     string `json:"outcome"` // ok или validation
	Success     bool   `json:"success"`
	Message     string `json:"message,omitempty"`
}

// Publish публикует сообщение в указанный exchange с routing key.
func (p *Publisher) Publish(ctx context.Context, exchange Exchange, routingKey RoutingKey, msg *Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	err = p.ch.PublishWithContext(
		ctx,
		string(exchange),   // exchange
		string(routingKey), // routing key
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    msg.ID,
			Timestamp:    msg.Timestamp,
			Type:         string(msg.Type),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish to %s/%s: %w", exchange, routingKey, err)
	}

	p.logger.Debug("published message",
		"exchange", exchange,
		"routing_key", routingKey,
		"message_id", msg.ID,
		"type", msg.Type,
	)

	return nil
}

func (p *Publisher) newMessage(t MessageType, payload any) *Message {
	return &Message{
		ID:        uuid.New().String(),
		Type:      t,
		Payload:   payload,
		Timestamp: p.now(),
	}
}

// PublishExecutionFinished публикует завершение follow.
func (p *Publisher) PublishExecutionFinished(ctx context.Context, payload ExecutionFinishedPayload) error {
	msg := p.newMessage(MessageTypeExecutionFinished, payload)
	return p.Publish(ctx, ExchangeEvents, RoutingKeyExecutionFinished, msg)
}

// PublishScmAction публикует результат SCM-действия.
func (p *Publisher) PublishScmAction(ctx context.Context, payload ScmActionPayload) error {
	msg := p.newMessage(MessageTypeScmAction, payload)
	return p.Publish(ctx, ExchangeEvents, RoutingKeyScmAction, msg)
}
