package queue_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/banksaga/internal/adapter/queue"
	"github.com/iho/banksaga/internal/domain"
	"github.com/iho/banksaga/internal/usecase"
)

type recorder struct {
	initiated []domain.TransactionEvent
	results   []domain.TransactionResultEvent
	completed []domain.TransactionEvent
	failed    []domain.TransactionEvent
	err       error
}

func (r *recorder) OnInitiated(ctx context.Context, event domain.TransactionEvent) (*usecase.SagaOutcome, error) {
	r.initiated = append(r.initiated, event)
	return &usecase.SagaOutcome{}, r.err
}

func (r *recorder) OnResult(ctx context.Context, event domain.TransactionResultEvent) error {
	r.results = append(r.results, event)
	return r.err
}

func (r *recorder) OnCompleted(ctx context.Context, event domain.TransactionEvent) error {
	r.completed = append(r.completed, event)
	return r.err
}

func (r *recorder) OnFailed(ctx context.Context, event domain.TransactionEvent) error {
	r.failed = append(r.failed, event)
	return r.err
}

func TestInitiatedDecodesEvent(t *testing.T) {
	rec := &recorder{}
	body := []byte(`{"transaction_id":"tx-1","transaction_type":"TRANSFER","source_account_id":"a","target_account_id":"b","amount":"12.50","status":"PROCESSING"}`)

	require.NoError(t, queue.Initiated(rec)(context.Background(), body))

	require.Len(t, rec.initiated, 1)
	got := rec.initiated[0]
	assert.Equal(t, "tx-1", got.TransactionID)
	assert.Equal(t, domain.TransactionTypeTransfer, got.TransactionType)
	assert.True(t, got.Amount.Equal(decimal.RequireFromString("12.5")))
}

func TestResultDecodesEvent(t *testing.T) {
	rec := &recorder{}
	body := []byte(`{"transaction_id":"tx-1","status":"FAILED","error_message":"insufficient funds"}`)

	require.NoError(t, queue.Result(rec)(context.Background(), body))

	require.Len(t, rec.results, 1)
	assert.Equal(t, domain.TransactionStatusFailed, rec.results[0].Status)
	assert.Equal(t, "insufficient funds", rec.results[0].ErrorMessage)
}

func TestCompletedAndFailedRouteSeparately(t *testing.T) {
	rec := &recorder{}
	body := []byte(`{"transaction_id":"tx-1","transaction_type":"DEPOSIT","target_account_id":"b","amount":"5"}`)

	require.NoError(t, queue.Completed(rec)(context.Background(), body))
	require.NoError(t, queue.Failed(rec)(context.Background(), body))

	assert.Len(t, rec.completed, 1)
	assert.Len(t, rec.failed, 1)
}

func TestUndecodablePayloadIsFatal(t *testing.T) {
	rec := &recorder{}
	handlers := map[string]func(context.Context, []byte) error{
		"initiated": queue.Initiated(rec),
		"result":    queue.Result(rec),
		"completed": queue.Completed(rec),
		"failed":    queue.Failed(rec),
	}

	for name, h := range handlers {
		t.Run(name, func(t *testing.T) {
			err := h(context.Background(), []byte(`{not json`))
			assert.True(t, domain.IsFatal(err), "got %v", err)
		})
	}
	assert.Empty(t, rec.initiated)
	assert.Empty(t, rec.results)
}

func TestProcessorErrorsPassThrough(t *testing.T) {
	boom := errors.New("database unavailable")
	rec := &recorder{err: boom}

	err := queue.Result(rec)(context.Background(), []byte(`{"transaction_id":"tx-1","status":"COMPLETED"}`))
	assert.ErrorIs(t, err, boom)
	assert.False(t, domain.IsFatal(err))
}
