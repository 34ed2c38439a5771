package notifier

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/iho/banksaga/internal/usecase"
)

// LogNotifier delivers notifications by writing them to a zerolog logger.
type LogNotifier struct {
	logger zerolog.Logger
}

// NewLogNotifier creates a new LogNotifier.
func NewLogNotifier(logger zerolog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.With().Str("component", "notifier").Logger()}
}

// Notify logs n. It fails only when ctx is already done, so a cancelled
// consumer retries instead of acknowledging an undelivered notification.
func (n *LogNotifier) Notify(ctx context.Context, notification usecase.Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	n.logger.Info().
		Str("transaction_id", notification.TransactionID).
		Str("kind", notification.Kind).
		Str("recipients", strings.Join(notification.AccountIDs, ",")).
		Str("subject", notification.Subject).
		Time("created_at", notification.CreatedAt).
		Msg(notification.Message)

	return nil
}
