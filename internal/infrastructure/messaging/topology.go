package messaging

import (
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iho/banksaga/internal/domain"
)

// Exchange, dead-letter and queue names shared by every service.
const (
	DefaultExchange           = "banking.exchange"
	DefaultDeadLetterExchange = "banking.exchange.dlx"
	DefaultDeadLetterQueue    = "banking.exchange.dlq"
	DeadLetterRoutingKey      = "dead-letter"
	retryQueueSuffix          = ".retry"

	QueueTransactionInitiated  = "transaction.initiated.queue"
	QueueTransactionResult     = "transaction.result.queue"
	QueueLedgerCompleted       = "ledger.transaction.completed.queue"
	QueueNotificationCompleted = "notification.transaction.completed.queue"
	QueueNotificationFailed    = "notification.transaction.failed.queue"
)

// Channel is the subset of *amqp.Channel used to declare topology.
type Channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error
}

// Binding attaches a work queue to a routing key on the main exchange.
type Binding struct {
	Queue      string
	RoutingKey string
}

// Topology describes the exchanges and queues of the saga.
type Topology struct {
	Exchange           string
	DeadLetterExchange string
	DeadLetterQueue    string
	Bindings           []Binding
}

// DefaultBindings lists every work queue and the event it carries.
func DefaultBindings() []Binding {
	return []Binding{
		{Queue: QueueTransactionInitiated, RoutingKey: domain.EventTypeTransactionInitiated},
		{Queue: QueueTransactionResult, RoutingKey: domain.EventTypeTransactionResult},
		{Queue: QueueLedgerCompleted, RoutingKey: domain.EventTypeTransactionCompleted},
		{Queue: QueueNotificationCompleted, RoutingKey: domain.EventTypeTransactionCompleted},
		{Queue: QueueNotificationFailed, RoutingKey: domain.EventTypeTransactionFailed},
	}
}

// NewTopology returns the saga topology with the given names, falling back
// to the defaults for empty values.
func NewTopology(exchange, dlx, dlq string) Topology {
	if exchange == "" {
		exchange = DefaultExchange
	}
	if dlx == "" {
		dlx = DefaultDeadLetterExchange
	}
	if dlq == "" {
		dlq = DefaultDeadLetterQueue
	}
	return Topology{
		Exchange:           exchange,
		DeadLetterExchange: dlx,
		DeadLetterQueue:    dlq,
		Bindings:           DefaultBindings(),
	}
}

// DeadLetterArgs returns the queue arguments routing rejected messages to dlx.
func DeadLetterArgs(dlx string) amqp.Table {
	return amqp.Table{
		"x-dead-letter-exchange":    dlx,
		"x-dead-letter-routing-key": DeadLetterRoutingKey,
	}
}

// RetryQueue names the delay queue that holds failed messages of queue until
// their per-message TTL expires.
func RetryQueue(queue string) string {
	return queue + retryQueueSuffix
}

// RetryArgs returns the arguments of queue's delay queue. Expired messages
// are dead-lettered through the default exchange back onto queue.
func RetryArgs(queue string) amqp.Table {
	return amqp.Table{
		"x-dead-letter-exchange":    "",
		"x-dead-letter-routing-key": queue,
	}
}

// Declare creates the topology. Declarations are idempotent, so every
// service declares all of it on startup.
func Declare(ch Channel, t Topology) error {
	if err := ch.ExchangeDeclare(t.DeadLetterExchange, amqp.ExchangeDirect, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare dead-letter exchange: %w", err)
	}
	if _, err := ch.QueueDeclare(t.DeadLetterQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare dead-letter queue: %w", err)
	}
	if err := ch.QueueBind(t.DeadLetterQueue, DeadLetterRoutingKey, t.DeadLetterExchange, false, nil); err != nil {
		return fmt.Errorf("bind dead-letter queue: %w", err)
	}

	if err := ch.ExchangeDeclare(t.Exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange %s: %w", t.Exchange, err)
	}

	for _, b := range t.Bindings {
		if _, err := ch.QueueDeclare(b.Queue, true, false, false, false, DeadLetterArgs(t.DeadLetterExchange)); err != nil {
			return fmt.Errorf("declare queue %s: %w", b.Queue, err)
		}
		if err := ch.QueueBind(b.Queue, b.RoutingKey, t.Exchange, false, nil); err != nil {
			return fmt.Errorf("bind queue %s to %s: %w", b.Queue, b.RoutingKey, err)
		}
		if _, err := ch.QueueDeclare(RetryQueue(b.Queue), true, false, false, false, RetryArgs(b.Queue)); err != nil {
			return fmt.Errorf("declare retry queue for %s: %w", b.Queue, err)
		}
	}

	return nil
}
