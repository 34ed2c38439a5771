package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/banksaga/internal/domain"
)

func TestPublisherPublishesOutboxEvent(t *testing.T) {
	ch := &fakeConfirmChannel{}
	pub, err := NewPublisher(ch, DefaultExchange)
	require.NoError(t, err)

	event := &domain.OutboxEvent{
		ID:            "evt-1",
		AggregateID:   "tx-1",
		AggregateType: domain.AggregateTypeTransaction,
		EventType:     domain.EventTypeTransactionInitiated,
		Payload:       json.RawMessage(`{"transaction_id":"tx-1"}`),
		CreatedAt:     time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	require.NoError(t, pub.Publish(context.Background(), event))

	msgs := ch.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, DefaultExchange, msgs[0].exchange)
	assert.Equal(t, domain.EventTypeTransactionInitiated, msgs[0].key)
	assert.Equal(t, "evt-1", msgs[0].msg.MessageId)
	assert.Equal(t, amqp.Persistent, msgs[0].msg.DeliveryMode)
	assert.Equal(t, "tx-1", msgs[0].msg.Headers[HeaderAggregateID])
	assert.JSONEq(t, `{"transaction_id":"tx-1"}`, string(msgs[0].msg.Body))
}

func TestPublisherNack(t *testing.T) {
	ch := &fakeConfirmChannel{nack: true}
	pub, err := NewPublisher(ch, DefaultExchange)
	require.NoError(t, err)

	err = pub.PublishTo(context.Background(), DefaultExchange, "transaction.result", amqp.Publishing{})
	assert.ErrorIs(t, err, ErrPublishNacked)
}

func TestPublisherConfirmTimeoutThenRecovers(t *testing.T) {
	ch := &fakeConfirmChannel{noConfirm: true}
	pub, err := NewPublisher(ch, DefaultExchange, WithConfirmTimeout(10*time.Millisecond))
	require.NoError(t, err)

	err = pub.PublishTo(context.Background(), DefaultExchange, "transaction.result", amqp.Publishing{})
	assert.ErrorIs(t, err, ErrConfirmTimeout)

	// The late confirm of the first publish must not be taken for the second.
	ch.confirms <- amqp.Confirmation{DeliveryTag: 1, Ack: false}
	ch.noConfirm = false

	require.NoError(t, pub.PublishTo(context.Background(), DefaultExchange, "transaction.result", amqp.Publishing{}))
}

func TestPublisherChannelClosed(t *testing.T) {
	ch := &fakeConfirmChannel{noConfirm: true}
	pub, err := NewPublisher(ch, DefaultExchange)
	require.NoError(t, err)

	ch.closeCh <- &amqp.Error{Code: amqp.ChannelError, Reason: "gone"}

	err = pub.PublishTo(context.Background(), DefaultExchange, "transaction.result", amqp.Publishing{})
	assert.ErrorIs(t, err, ErrPublisherClosed)
}

func TestPublisherPublishError(t *testing.T) {
	ch := &fakeConfirmChannel{publishErr: amqp.ErrClosed}
	pub, err := NewPublisher(ch, DefaultExchange)
	require.NoError(t, err)

	err = pub.PublishTo(context.Background(), DefaultExchange, "transaction.result", amqp.Publishing{})
	assert.ErrorIs(t, err, amqp.ErrClosed)
}

func TestNewPublisherRequiresConfirmMode(t *testing.T) {
	_, err := NewPublisher(&fakeConfirmChannel{confirmErr: errors.New("not supported")}, DefaultExchange)
	assert.Error(t, err)
}
