package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/banksaga/internal/domain"
	"github.com/iho/banksaga/internal/infrastructure/metrics"
)

// Notification kinds
const (
	NotificationKindCompleted = "completed"
	NotificationKindFailed    = "failed"
)

// Notification is a customer-facing message about one transaction.
type Notification struct {
	TransactionID string
	Kind          string
	AccountIDs    []string
	Subject       string
	Message       string
	CreatedAt     time.Time
}

// NotificationUseCase turns finalized transactions into notifications.
type NotificationUseCase struct {
	notifier Notifier
	metrics  *metrics.Metrics
	logger   zerolog.Logger
}

// NewNotificationUseCase creates a new NotificationUseCase.
func NewNotificationUseCase(notifier Notifier, metrics *metrics.Metrics, logger zerolog.Logger) *NotificationUseCase {
	return &NotificationUseCase{
		notifier: notifier,
		metrics:  metrics,
		logger:   logger.With().Str("component", "notification").Logger(),
	}
}

// OnCompleted notifies the account holders of a completed transaction.
func (uc *NotificationUseCase) OnCompleted(ctx context.Context, event domain.TransactionEvent) error {
	message := fmt.Sprintf("Your %s of $%s has been completed successfully.",
		strings.ToLower(string(event.TransactionType)), event.Amount.StringFixed(2))

	return uc.send(ctx, event, NotificationKindCompleted, "Transaction completed", message)
}

// OnFailed notifies the account holders of a failed transaction.
func (uc *NotificationUseCase) OnFailed(ctx context.Context, event domain.TransactionEvent) error {
	message := fmt.Sprintf("Your %s of $%s has failed. Reason: %s",
		strings.ToLower(string(event.TransactionType)), event.Amount.StringFixed(2), event.ErrorMessage)

	return uc.send(ctx, event, NotificationKindFailed, "Transaction failed", message)
}

func (uc *NotificationUseCase) send(ctx context.Context, event domain.TransactionEvent, kind, subject, message string) error {
	if event.TransactionID == "" {
		return fmt.Errorf("%w: missing transaction_id", domain.ErrFatal)
	}

	n := Notification{
		TransactionID: event.TransactionID,
		Kind:          kind,
		AccountIDs:    event.Movement().AccountIDs(),
		Subject:       subject,
		Message:       message,
		CreatedAt:     time.Now().UTC(),
	}

	if err := uc.notifier.Notify(ctx, n); err != nil {
		if uc.metrics != nil {
			uc.metrics.Notifications.WithLabelValues(kind, "failed").Inc()
		}
		return fmt.Errorf("notify %s transaction %s: %w", kind, event.TransactionID, err)
	}

	if uc.metrics != nil {
		uc.metrics.Notifications.WithLabelValues(kind, "sent").Inc()
	}

	return nil
}
