package mq

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Connection — AMQP соединение с одним каналом.
type Connection struct {
	logger *slog.Logger

	mu      sync.Mutex
	conn    *amqp.Connection
	channel *amqp.Channel
	closed  bool
}

// Dial открывает соединение и канал.
func Dial(url string, logger *slog.Logger) (*Connection, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	logger.Debug("connected to RabbitMQ")

	return &Connection{
		logger:  logger,
		conn:    conn,
		channel: ch,
	}, nil
}

// Channel возвращает AMQP канал.
func (c *Connection) Channel() *amqp.Channel {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.channel
}

// WithChannel выполняет функцию с текущим каналом.
// Отменённый ctx прерывает вызов до обращения к каналу.
func (c *Connection) WithChannel(ctx context.Context, fn func(ctx context.Context, ch *amqp.Channel) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ch := c.Channel()
	if ch == nil {
		return fmt.Errorf("no channel available")
	}
	return fn(ctx, ch)
}

// Close закрывает канал и соединение. Повторный вызов ничего не делает.
func (c *Connection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true

	var errs []error

	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close channel: %w", err))
		}
	}

	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close connection: %w", err))
		}
	}

	c.logger.Debug("connection closed")
	return errors.Join(errs...)
}
