package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/banksaga/internal/usecase"
)

func TestLogNotifier_Notify(t *testing.T) {
	var buf bytes.Buffer
	n := NewLogNotifier(zerolog.New(&buf))

	err := n.Notify(context.Background(), usecase.Notification{
		TransactionID: "tx-1",
		Kind:          usecase.NotificationKindCompleted,
		AccountIDs:    []string{"acc-a", "acc-b"},
		Subject:       "Transaction completed",
		Message:       "Your transfer of $40.00 has been completed successfully.",
		CreatedAt:     time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "tx-1", entry["transaction_id"])
	assert.Equal(t, "acc-a,acc-b", entry["recipients"])
	assert.Equal(t, "notifier", entry["component"])
	assert.Equal(t, "Your transfer of $40.00 has been completed successfully.", entry["message"])
}

func TestLogNotifier_CancelledContext(t *testing.T) {
	var buf bytes.Buffer
	n := NewLogNotifier(zerolog.New(&buf))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.ErrorIs(t, n.Notify(ctx, usecase.Notification{TransactionID: "tx-1"}), context.Canceled)
	assert.Zero(t, buf.Len())
}
