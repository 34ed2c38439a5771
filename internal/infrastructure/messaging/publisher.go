package messaging

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iho/banksaga/internal/domain"
)

// Publisher errors.
var (
	ErrPublishNacked   = errors.New("message was nacked by broker")
	ErrConfirmTimeout  = errors.New("confirmation timed out")
	ErrPublisherClosed = errors.New("publisher is closed")
)

const (
	// DefaultConfirmTimeout bounds the wait for a broker confirmation.
	DefaultConfirmTimeout = 5 * time.Second

	confirmBuffer = 256
)

// Header names carried on every message.
const (
	HeaderRetryCount  = "x-retry-count"
	HeaderAggregateID = "aggregate_id"
	HeaderEventType   = "event_type"
)

// ConfirmChannel is the subset of *amqp.Channel used for confirmed publishing.
type ConfirmChannel interface {
	Confirm(noWait bool) error
	NotifyPublish(confirm chan amqp.Confirmation) chan amqp.Confirmation
	NotifyClose(c chan *amqp.Error) chan *amqp.Error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Publisher publishes persistent messages and waits for the broker to
// confirm each one. Calls are serialized so confirmations arrive in order.
type Publisher struct {
	ch             ConfirmChannel
	exchange       string
	confirms       chan amqp.Confirmation
	closed         chan *amqp.Error
	confirmTimeout time.Duration

	mu  sync.Mutex
	seq uint64 // delivery tag of the last publish
}

// PublisherOption configures a Publisher.
type PublisherOption func(*Publisher)

// WithConfirmTimeout sets the timeout for waiting on broker confirmation.
func WithConfirmTimeout(timeout time.Duration) PublisherOption {
	return func(p *Publisher) {
		if timeout > 0 {
			p.confirmTimeout = timeout
		}
	}
}

// NewPublisher puts ch into confirm mode and publishes to exchange.
func NewPublisher(ch ConfirmChannel, exchange string, opts ...PublisherOption) (*Publisher, error) {
	if err := ch.Confirm(false); err != nil {
		return nil, fmt.Errorf("enable confirm mode: %w", err)
	}

	p := &Publisher{
		ch:             ch,
		exchange:       exchange,
		confirms:       ch.NotifyPublish(make(chan amqp.Confirmation, confirmBuffer)),
		closed:         ch.NotifyClose(make(chan *amqp.Error, 1)),
		confirmTimeout: DefaultConfirmTimeout,
	}
	for _, opt := range opts {
		opt(p)
	}

	return p, nil
}

// Publish sends an outbox event to the exchange, routed by its event type.
func (p *Publisher) Publish(ctx context.Context, event *domain.OutboxEvent) error {
	return p.PublishTo(ctx, p.exchange, event.EventType, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    event.ID,
		Timestamp:    event.CreatedAt,
		Type:         event.EventType,
		Headers: amqp.Table{
			HeaderAggregateID: event.AggregateID,
			HeaderEventType:   event.EventType,
		},
		Body: event.Payload,
	})
}

// PublishTo sends msg to exchange with routing key and waits for the confirm.
// An empty exchange addresses a queue by name.
func (p *Publisher) PublishTo(ctx context.Context, exchange, key string, msg amqp.Publishing) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.ch.PublishWithContext(ctx, exchange, key, false, false, msg); err != nil {
		return fmt.Errorf("publish %s: %w", key, err)
	}
	p.seq++
	want := p.seq

	timer := time.NewTimer(p.confirmTimeout)
	defer timer.Stop()

	for {
		select {
		case confirm, ok := <-p.confirms:
			if !ok {
				return ErrPublisherClosed
			}
			if confirm.DeliveryTag < want {
				// Late confirm of a publish that already timed out.
				continue
			}
			if !confirm.Ack {
				return fmt.Errorf("%w: %s", ErrPublishNacked, key)
			}
			return nil
		case amqpErr := <-p.closed:
			if amqpErr != nil {
				return fmt.Errorf("%w: %s", ErrPublisherClosed, amqpErr.Reason)
			}
			return ErrPublisherClosed
		case <-timer.C:
			return fmt.Errorf("%w: %s", ErrConfirmTimeout, key)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Close closes the underlying channel.
func (p *Publisher) Close() error {
	return p.ch.Close()
}
