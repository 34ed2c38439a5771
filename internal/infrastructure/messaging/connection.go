package messaging

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

// Dialer opens a broker connection.
type Dialer func(url string) (*amqp.Connection, error)

// Connect dials the broker, retrying with exponential backoff until it
// answers, maxWait elapses or ctx is cancelled.
func Connect(ctx context.Context, url string, maxWait time.Duration, logger zerolog.Logger) (*amqp.Connection, error) {
	return connect(ctx, amqp.Dial, url, maxWait, logger)
}

func connect(ctx context.Context, dial Dialer, url string, maxWait time.Duration, logger zerolog.Logger) (*amqp.Connection, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 5 * time.Second
	b.MaxElapsedTime = maxWait

	var conn *amqp.Connection
	attempt := 0
	err := backoff.Retry(func() error {
		attempt++
		c, err := dial(url)
		if err != nil {
			logger.Warn().Err(err).Int("attempt", attempt).Msg("broker not reachable, retrying")
			return err
		}
		conn = c
		return nil
	}, backoff.WithContext(b, ctx))
	if err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}

	logger.Info().Int("attempts", attempt).Msg("connected to broker")
	return conn, nil
}

// Setup declares the topology on a fresh channel of conn and returns a
// confirmed publisher on a second channel.
func Setup(conn *amqp.Connection, topology Topology, opts ...PublisherOption) (*Publisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open topology channel: %w", err)
	}
	defer ch.Close()

	if err := Declare(ch, topology); err != nil {
		return nil, err
	}

	pubCh, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open publisher channel: %w", err)
	}

	publisher, err := NewPublisher(pubCh, topology.Exchange, opts...)
	if err != nil {
		pubCh.Close()
		return nil, err
	}
	return publisher, nil
}

// StartConsumer opens a dedicated channel on conn and runs a consumer on it
// until ctx is cancelled.
func StartConsumer(ctx context.Context, conn *amqp.Connection, cfg ConsumerConfig) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("open consumer channel for %s: %w", cfg.Queue, err)
	}
	defer ch.Close()

	return NewConsumer(ch, cfg).Run(ctx)
}
