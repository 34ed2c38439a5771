package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/iho/banksaga/internal/domain"
	"github.com/iho/banksaga/internal/usecase"
	"github.com/iho/banksaga/internal/usecase/mocks"
)

func TestNotificationUseCase_OnCompleted(t *testing.T) {
	ctrl := gomock.NewController(t)
	notifier := mocks.NewMockNotifier(ctrl)
	m := newTestMetrics()
	uc := usecase.NewNotificationUseCase(notifier, m, zerolog.Nop())

	var sent usecase.Notification
	notifier.EXPECT().Notify(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, n usecase.Notification) error {
			sent = n
			return nil
		})

	err := uc.OnCompleted(context.Background(),
		completed("tx-1", domain.TransactionTypeTransfer, "acc-b", "acc-a", "150"))
	require.NoError(t, err)

	assert.Equal(t, "tx-1", sent.TransactionID)
	assert.Equal(t, usecase.NotificationKindCompleted, sent.Kind)
	assert.Equal(t, "Your transfer of $150.00 has been completed successfully.", sent.Message)
	assert.Equal(t, []string{"acc-a", "acc-b"}, sent.AccountIDs)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.Notifications.WithLabelValues("completed", "sent")))
}

func TestNotificationUseCase_OnFailed(t *testing.T) {
	ctrl := gomock.NewController(t)
	notifier := mocks.NewMockNotifier(ctrl)
	uc := usecase.NewNotificationUseCase(notifier, nil, zerolog.Nop())

	event := initiated("tx-2", domain.TransactionTypeWithdrawal, "acc-a", "", "12.5")
	event.Status = domain.TransactionStatusFailed
	event.ErrorMessage = "insufficient funds: acc-a"

	notifier.EXPECT().Notify(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, n usecase.Notification) error {
			assert.Equal(t, usecase.NotificationKindFailed, n.Kind)
			assert.Equal(t, "Your withdrawal of $12.50 has failed. Reason: insufficient funds: acc-a", n.Message)
			assert.Equal(t, []string{"acc-a"}, n.AccountIDs)
			return nil
		})

	require.NoError(t, uc.OnFailed(context.Background(), event))
}

func TestNotificationUseCase_DeliveryError(t *testing.T) {
	ctrl := gomock.NewController(t)
	notifier := mocks.NewMockNotifier(ctrl)
	m := newTestMetrics()
	uc := usecase.NewNotificationUseCase(notifier, m, zerolog.Nop())

	smtpDown := errors.New("smtp unavailable")
	notifier.EXPECT().Notify(gomock.Any(), gomock.Any()).Return(smtpDown)

	err := uc.OnCompleted(context.Background(),
		completed("tx-1", domain.TransactionTypeDeposit, "", "acc-a", "1"))
	assert.ErrorIs(t, err, smtpDown)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.Notifications.WithLabelValues("completed", "failed")))
}

func TestNotificationUseCase_MissingTransactionID(t *testing.T) {
	ctrl := gomock.NewController(t)
	uc := usecase.NewNotificationUseCase(mocks.NewMockNotifier(ctrl), nil, zerolog.Nop())

	err := uc.OnCompleted(context.Background(),
		completed("", domain.TransactionTypeDeposit, "", "acc-a", "1"))
	assert.True(t, domain.IsFatal(err))
}
