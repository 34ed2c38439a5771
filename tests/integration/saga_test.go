package integration

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/banksaga/internal/domain"
	"github.com/iho/banksaga/internal/usecase"
)

func amount(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func TestSaga_TransferCompletes(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	a := h.openAccount(ctx, "Alice")
	b := h.openAccount(ctx, "Bob")
	h.deposit(ctx, a.ID, 200)
	h.deposit(ctx, b.ID, 50)
	h.drain(ctx)

	transfer := h.initiate(ctx, usecase.InitiateTransactionInput{
		Type:            "TRANSFER",
		SourceAccountID: a.ID,
		TargetAccountID: b.ID,
		Amount:          amount("100"),
		Description:     "rent",
	})
	assert.Equal(t, domain.TransactionStatusProcessing, transfer.Status)

	h.drain(ctx)

	assert.Equal(t, domain.TransactionStatusCompleted, h.status(ctx, transfer.ID))
	assert.True(t, h.balance(ctx, a.ID).Equal(amount("100")))
	assert.True(t, h.balance(ctx, b.ID).Equal(amount("150")))

	entriesA, err := h.ledger.EntriesForAccount(ctx, a.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, entriesA, 2)
	assert.Equal(t, transfer.ID, entriesA[0].TransactionID)
	assert.Equal(t, domain.EntryTypeDebit, entriesA[0].Type)
	assert.True(t, entriesA[0].BalanceAfter.Equal(amount("100")))

	entriesB, err := h.ledger.EntriesForAccount(ctx, b.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, entriesB, 2)
	assert.Equal(t, domain.EntryTypeCredit, entriesB[0].Type)
	assert.True(t, entriesB[0].BalanceAfter.Equal(amount("150")))

	for _, id := range []string{a.ID, b.ID} {
		verification, err := h.ledger.VerifyAccount(ctx, id)
		require.NoError(t, err)
		assert.True(t, verification.Consistent, id)
	}

	assert.Equal(t, []string{"completed", "completed", "completed"}, h.notifier.kinds())
}

func TestSaga_InsufficientFundsFails(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	a := h.accountDB.CreateAccount(ctx, "acc-a", amount("200"))
	b := h.accountDB.CreateAccount(ctx, "acc-b", amount("50"))

	transfer := h.initiate(ctx, usecase.InitiateTransactionInput{
		Type:            "TRANSFER",
		SourceAccountID: a.ID,
		TargetAccountID: b.ID,
		Amount:          amount("300"),
	})
	h.drain(ctx)

	tx, err := h.coordinator.GetTransaction(ctx, transfer.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TransactionStatusFailed, tx.Status)
	assert.NotEmpty(t, tx.ErrorMessage)
	assert.NotNil(t, tx.CompletedAt)

	assert.True(t, h.balance(ctx, a.ID).Equal(amount("200")))
	assert.True(t, h.balance(ctx, b.ID).Equal(amount("50")))

	entries, err := h.ledger.AllEntries(ctx, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, entries)

	assert.Equal(t, []string{"failed"}, h.notifier.kinds())
}

func TestSaga_DuplicateInitiatedAppliesOnce(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	a := h.openAccount(ctx, "Alice")
	deposit := h.deposit(ctx, a.ID, 75)

	initiated := h.pending(ctx)
	require.Len(t, initiated, 1)
	h.deliver(ctx, initiated[0])
	h.deliver(ctx, initiated[0])
	h.markPublished(ctx, initiated[0])

	results := h.pending(ctx)
	require.Len(t, results, 1)
	assert.Equal(t, domain.EventTypeTransactionResult, results[0].EventType)
	assert.True(t, h.balance(ctx, a.ID).Equal(amount("75")))

	h.drain(ctx)
	assert.Equal(t, domain.TransactionStatusCompleted, h.status(ctx, deposit.ID))

	entries, err := h.ledger.EntriesForAccount(ctx, a.ID, 10, 0)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestReconciliation_AdoptsLostResult(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	a := h.openAccount(ctx, "Alice")
	deposit := h.deposit(ctx, a.ID, 40)

	// The account service applies the deposit but its Result is lost.
	initiated := h.pending(ctx)
	require.Len(t, initiated, 1)
	h.deliver(ctx, initiated[0])
	h.markPublished(ctx, initiated[0])
	for _, result := range h.pending(ctx) {
		h.markPublished(ctx, result)
	}
	require.Equal(t, domain.TransactionStatusProcessing, h.status(ctx, deposit.ID))

	report, err := h.reconciliation.Reconcile(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Adopted)
	assert.Zero(t, report.Republished)
	assert.Equal(t, domain.TransactionStatusCompleted, h.status(ctx, deposit.ID))

	// Only the Completed event follows; nothing is sent back to the account service.
	pending := h.pending(ctx)
	require.Len(t, pending, 1)
	assert.Equal(t, domain.EventTypeTransactionCompleted, pending[0].EventType)

	h.drain(ctx)
	assert.True(t, h.balance(ctx, a.ID).Equal(amount("40")))
}

func TestReconciliation_RepublishesLostInitiated(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	a := h.openAccount(ctx, "Alice")
	deposit := h.deposit(ctx, a.ID, 25)

	// The Initiated message never reaches the account service.
	for _, event := range h.pending(ctx) {
		h.markPublished(ctx, event)
	}

	report, err := h.reconciliation.Reconcile(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Republished)

	pending := h.pending(ctx)
	require.Len(t, pending, 1)
	assert.Equal(t, domain.EventTypeTransactionInitiated, pending[0].EventType)
	assert.Equal(t, deposit.ID, pending[0].AggregateID)

	h.drain(ctx)
	assert.Equal(t, domain.TransactionStatusCompleted, h.status(ctx, deposit.ID))
	assert.True(t, h.balance(ctx, a.ID).Equal(amount("25")))
}
