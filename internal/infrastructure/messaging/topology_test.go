package messaging

import (
	"strings"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeclareBuildsDeadLetterTopology(t *testing.T) {
	ch := newFakeTopologyChannel()

	require.NoError(t, Declare(ch, NewTopology("", "", "")))

	assert.Equal(t, amqp.ExchangeTopic, ch.exchanges[DefaultExchange])
	assert.Equal(t, amqp.ExchangeDirect, ch.exchanges[DefaultDeadLetterExchange])
	assert.Contains(t, ch.bindings, binding{queue: DefaultDeadLetterQueue, key: DeadLetterRoutingKey, exchange: DefaultDeadLetterExchange})

	workQueues := 0
	retryQueues := 0
	for _, q := range ch.queues {
		if q.name == DefaultDeadLetterQueue {
			assert.Nil(t, q.args, "dead-letter queue must not dead-letter itself")
			continue
		}
		if strings.HasSuffix(q.name, retryQueueSuffix) {
			retryQueues++
			assert.Equal(t, "", q.args["x-dead-letter-exchange"], q.name)
			assert.Equal(t, strings.TrimSuffix(q.name, retryQueueSuffix), q.args["x-dead-letter-routing-key"], q.name)
			continue
		}
		workQueues++
		assert.Equal(t, DefaultDeadLetterExchange, q.args["x-dead-letter-exchange"], q.name)
		assert.Equal(t, DeadLetterRoutingKey, q.args["x-dead-letter-routing-key"], q.name)
	}
	assert.Equal(t, 5, workQueues)
	assert.Equal(t, 5, retryQueues)
}

func TestDeclareFansOutCompletedEvents(t *testing.T) {
	ch := newFakeTopologyChannel()
	require.NoError(t, Declare(ch, NewTopology("", "", "")))

	var completed []string
	for _, b := range ch.bindings {
		if b.exchange == DefaultExchange && b.key == "transaction.completed" {
			completed = append(completed, b.queue)
		}
	}
	assert.ElementsMatch(t, []string{QueueLedgerCompleted, QueueNotificationCompleted}, completed)
}

func TestDeclareWrapsErrors(t *testing.T) {
	ch := newFakeTopologyChannel()
	ch.failOn = QueueTransactionResult

	err := Declare(ch, NewTopology("", "", ""))
	require.Error(t, err)
	assert.Contains(t, err.Error(), QueueTransactionResult)
}

func TestNewTopologyOverrides(t *testing.T) {
	topo := NewTopology("x", "x.dlx", "x.dlq")
	assert.Equal(t, "x", topo.Exchange)
	assert.Equal(t, "x.dlx", topo.DeadLetterExchange)
	assert.Equal(t, "x.dlq", topo.DeadLetterQueue)
}

func TestRetryQueueRoutesBackToWorkQueue(t *testing.T) {
	assert.Equal(t, "transaction.initiated.queue.retry", RetryQueue(QueueTransactionInitiated))
	assert.Equal(t, QueueTransactionInitiated, RetryArgs(QueueTransactionInitiated)["x-dead-letter-routing-key"])
}
