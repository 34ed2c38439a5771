package messaging

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"github.com/iho/banksaga/internal/domain"
	"github.com/iho/banksaga/internal/infrastructure/metrics"
)

// Delivery outcomes, also used as metric labels.
const (
	OutcomeAcked        = "acked"
	OutcomeRetried      = "retried"
	OutcomeDeadLettered = "dead_lettered"
	OutcomeRequeued     = "requeued"
)

// DefaultMaxRetries is how many times a transiently failing message is
// redelivered before it is dead-lettered.
const DefaultMaxRetries = 3

// Delay before the first retry and the ceiling the doubling delay stops at.
const (
	DefaultRetryDelay    = time.Second
	DefaultMaxRetryDelay = 30 * time.Second
)

// Handler processes one message body. Errors wrapping domain.ErrFatal are
// dead-lettered at once; any other error is retried.
type Handler func(ctx context.Context, body []byte) error

// ConsumeChannel is the subset of *amqp.Channel used by a Consumer.
type ConsumeChannel interface {
	Qos(prefetchCount, prefetchSize int, global bool) error
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
}

// Republisher sends a message back to a queue for another attempt.
type Republisher interface {
	PublishTo(ctx context.Context, exchange, key string, msg amqp.Publishing) error
}

// ConsumerConfig configures a Consumer.
type ConsumerConfig struct {
	Queue         string
	Tag           string
	Prefetch      int
	MaxRetries    int
	// RetryDelay and MaxRetryDelay bound how long a failed message waits in
	// the retry queue before it is redelivered.
	RetryDelay    time.Duration
	MaxRetryDelay time.Duration
	Handler       Handler
	Republisher   Republisher
	Metrics       *metrics.Metrics
	Logger        zerolog.Logger
}

// Consumer reads one queue with manual acknowledgements.
type Consumer struct {
	ch          ConsumeChannel
	queue       string
	tag         string
	prefetch    int
	maxRetries  int
	retryDelay  time.Duration
	maxDelay    time.Duration
	handler     Handler
	republisher Republisher
	metrics     *metrics.Metrics
	logger      zerolog.Logger
}

// NewConsumer creates a Consumer on ch.
func NewConsumer(ch ConsumeChannel, cfg ConsumerConfig) *Consumer {
	if cfg.Prefetch <= 0 {
		cfg.Prefetch = 10
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = DefaultRetryDelay
	}
	if cfg.MaxRetryDelay < cfg.RetryDelay {
		cfg.MaxRetryDelay = max(DefaultMaxRetryDelay, cfg.RetryDelay)
	}
	if cfg.Tag == "" {
		cfg.Tag = cfg.Queue
	}

	return &Consumer{
		ch:          ch,
		queue:       cfg.Queue,
		tag:         cfg.Tag,
		prefetch:    cfg.Prefetch,
		maxRetries:  cfg.MaxRetries,
		retryDelay:  cfg.RetryDelay,
		maxDelay:    cfg.MaxRetryDelay,
		handler:     cfg.Handler,
		republisher: cfg.Republisher,
		metrics:     cfg.Metrics,
		logger:      cfg.Logger.With().Str("queue", cfg.Queue).Logger(),
	}
}

// Run consumes until ctx is cancelled or the delivery channel closes.
func (c *Consumer) Run(ctx context.Context) error {
	if err := c.ch.Qos(c.prefetch, 0, false); err != nil {
		return fmt.Errorf("set qos on %s: %w", c.queue, err)
	}

	deliveries, err := c.ch.Consume(c.queue, c.tag, false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %s: %w", c.queue, err)
	}

	c.logger.Info().Int("prefetch", c.prefetch).Int("max_retries", c.maxRetries).Msg("consumer started")

	for {
		select {
		case <-ctx.Done():
			c.logger.Info().Msg("consumer stopping")
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("consume %s: %w", c.queue, amqp.ErrClosed)
			}
			c.handle(ctx, d)
		}
	}
}

// handle settles one delivery and returns the outcome.
func (c *Consumer) handle(ctx context.Context, d amqp.Delivery) string {
	outcome := c.dispatch(ctx, d)
	if c.metrics != nil {
		c.metrics.ConsumerDeliveries.WithLabelValues(c.queue, outcome).Inc()
	}
	return outcome
}

func (c *Consumer) dispatch(ctx context.Context, d amqp.Delivery) string {
	log := c.logger.With().Str("message_id", d.MessageId).Str("routing_key", d.RoutingKey).Logger()

	err := c.handler(ctx, d.Body)
	if err == nil {
		c.settle(log, d.Ack(false))
		return OutcomeAcked
	}

	if domain.IsFatal(err) {
		log.Error().Err(err).Msg("unprocessable message, dead-lettering")
		c.settle(log, d.Nack(false, false))
		return OutcomeDeadLettered
	}

	attempt := RetryCount(d.Headers)
	if attempt >= c.maxRetries || c.republisher == nil {
		log.Error().Err(err).Int("attempt", attempt).Msg("retries exhausted, dead-lettering")
		c.settle(log, d.Nack(false, false))
		return OutcomeDeadLettered
	}

	delay := c.delayFor(attempt + 1)
	if pubErr := c.republisher.PublishTo(ctx, "", RetryQueue(c.queue), retryPublishing(d, attempt+1, delay)); pubErr != nil {
		log.Error().Err(pubErr).AnErr("handler_error", err).Msg("retry republish failed, requeueing")
		c.settle(log, d.Nack(false, true))
		return OutcomeRequeued
	}

	log.Warn().Err(err).Int("attempt", attempt+1).Dur("delay", delay).Msg("message failed, scheduled retry")
	c.settle(log, d.Ack(false))
	return OutcomeRetried
}

func (c *Consumer) settle(log zerolog.Logger, err error) {
	if err != nil {
		log.Error().Err(err).Msg("failed to settle delivery")
	}
}

// RetryCount reads the x-retry-count header, tolerating the integer widths
// different clients encode it with.
func RetryCount(headers amqp.Table) int {
	switch v := headers[HeaderRetryCount].(type) {
	case int:
		return v
	case int8:
		return int(v)
	case int16:
		return int(v)
	case int32:
		return int(v)
	case int64:
		return int(v)
	default:
		return 0
	}
}

// delayFor returns how long the given retry attempt (1-based) waits. The delay
// doubles per attempt up to maxDelay.
func (c *Consumer) delayFor(attempt int) time.Duration {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.retryDelay
	b.MaxInterval = c.maxDelay
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0
	b.Reset()

	delay := c.retryDelay
	for range attempt {
		delay = b.NextBackOff()
	}
	return delay
}

// retryPublishing copies d for the retry queue. The expiration is the delay;
// RabbitMQ strips it when the message is dead-lettered back to the work queue.
func retryPublishing(d amqp.Delivery, attempt int, delay time.Duration) amqp.Publishing {
	headers := amqp.Table{}
	for k, v := range d.Headers {
		headers[k] = v
	}
	headers[HeaderRetryCount] = int32(attempt)

	return amqp.Publishing{
		Headers:       headers,
		ContentType:   d.ContentType,
		DeliveryMode:  amqp.Persistent,
		CorrelationId: d.CorrelationId,
		MessageId:     d.MessageId,
		Timestamp:     d.Timestamp,
		Type:          d.Type,
		Expiration:    strconv.FormatInt(delay.Milliseconds(), 10),
		Body:          d.Body,
	}
}
