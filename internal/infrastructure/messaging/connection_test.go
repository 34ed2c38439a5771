package messaging

import (
	"context"
	"errors"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectRetriesUntilBrokerAnswers(t *testing.T) {
	attempts := 0
	dial := func(url string) (*amqp.Connection, error) {
		attempts++
		if attempts < 2 {
			return nil, errors.New("connection refused")
		}
		return &amqp.Connection{}, nil
	}

	conn, err := connect(context.Background(), dial, "amqp://localhost", 10*time.Second, zerolog.Nop())
	require.NoError(t, err)
	assert.NotNil(t, conn)
	assert.Equal(t, 2, attempts)
}

func TestConnectGivesUpOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	dial := func(url string) (*amqp.Connection, error) {
		return nil, errors.New("connection refused")
	}

	_, err := connect(ctx, dial, "amqp://localhost", time.Minute, zerolog.Nop())
	assert.Error(t, err)
}
