package mq

import (
	"context"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithChannel_CanceledContext(t *testing.T) {
	c := &Connection{logger: discardLogger()}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := c.WithChannel(ctx, func(ctx context.Context, ch *amqp.Channel) error {
		called = true
		return nil
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestWithChannel_NoChannel(t *testing.T) {
	c := &Connection{logger: discardLogger()}

	err := c.WithChannel(context.Background(), func(ctx context.Context, ch *amqp.Channel) error {
		return nil
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no channel available")
}

func TestClose_Idempotent(t *testing.T) {
	c := &Connection{logger: discardLogger()}

	assert.NoError(t, c.Close())
	assert.NoError(t, c.Close())
}
