package messaging

import (
	"context"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
)

type declaredQueue struct {
	name string
	args amqp.Table
}

type binding struct {
	queue, key, exchange string
}

type fakeTopologyChannel struct {
	exchanges map[string]string
	queues    []declaredQueue
	bindings  []binding
	failOn    string
}

func newFakeTopologyChannel() *fakeTopologyChannel {
	return &fakeTopologyChannel{exchanges: map[string]string{}}
}

func (f *fakeTopologyChannel) ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error {
	if f.failOn == name {
		return amqp.ErrClosed
	}
	f.exchanges[name] = kind
	return nil
}

func (f *fakeTopologyChannel) QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error) {
	if f.failOn == name {
		return amqp.Queue{}, amqp.ErrClosed
	}
	f.queues = append(f.queues, declaredQueue{name: name, args: args})
	return amqp.Queue{Name: name}, nil
}

func (f *fakeTopologyChannel) QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error {
	f.bindings = append(f.bindings, binding{queue: name, key: key, exchange: exchange})
	return nil
}

type publishedMessage struct {
	exchange, key string
	msg           amqp.Publishing
}

// fakeConfirmChannel confirms every publish immediately unless nack is set.
type fakeConfirmChannel struct {
	mu         sync.Mutex
	confirms   chan amqp.Confirmation
	closeCh    chan *amqp.Error
	published  []publishedMessage
	tag        uint64
	nack       bool
	noConfirm  bool
	publishErr error
	confirmErr error
}

func (f *fakeConfirmChannel) Confirm(noWait bool) error { return f.confirmErr }

func (f *fakeConfirmChannel) NotifyPublish(c chan amqp.Confirmation) chan amqp.Confirmation {
	f.confirms = c
	return c
}

func (f *fakeConfirmChannel) NotifyClose(c chan *amqp.Error) chan *amqp.Error {
	f.closeCh = c
	return c
}

func (f *fakeConfirmChannel) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.publishErr != nil {
		return f.publishErr
	}
	f.tag++
	f.published = append(f.published, publishedMessage{exchange: exchange, key: key, msg: msg})
	if !f.noConfirm {
		f.confirms <- amqp.Confirmation{DeliveryTag: f.tag, Ack: !f.nack}
	}
	return nil
}

func (f *fakeConfirmChannel) Close() error { return nil }

func (f *fakeConfirmChannel) messages() []publishedMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]publishedMessage(nil), f.published...)
}

type fakeAcknowledger struct {
	mu      sync.Mutex
	acks    int
	nacks   int
	requeue []bool
}

func (a *fakeAcknowledger) Ack(tag uint64, multiple bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.acks++
	return nil
}

func (a *fakeAcknowledger) Nack(tag uint64, multiple, requeue bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.nacks++
	a.requeue = append(a.requeue, requeue)
	return nil
}

func (a *fakeAcknowledger) Reject(tag uint64, requeue bool) error {
	return a.Nack(tag, false, requeue)
}

type fakeConsumeChannel struct {
	deliveries chan amqp.Delivery
	qosErr     error
	prefetch   int
}

func (f *fakeConsumeChannel) Qos(prefetchCount, prefetchSize int, global bool) error {
	f.prefetch = prefetchCount
	return f.qosErr
}

func (f *fakeConsumeChannel) Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error) {
	return f.deliveries, nil
}
