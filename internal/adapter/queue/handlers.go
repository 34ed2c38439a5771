// Package queue maps broker deliveries onto use cases.
package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/iho/banksaga/internal/domain"
	"github.com/iho/banksaga/internal/infrastructure/messaging"
	"github.com/iho/banksaga/internal/usecase"
)

// InitiatedProcessor handles Initiated events in the account service.
type InitiatedProcessor interface {
	OnInitiated(ctx context.Context, event domain.TransactionEvent) (*usecase.SagaOutcome, error)
}

// ResultProcessor handles Result events in the coordinator.
type ResultProcessor interface {
	OnResult(ctx context.Context, event domain.TransactionResultEvent) error
}

// CompletedProcessor handles Completed events.
type CompletedProcessor interface {
	OnCompleted(ctx context.Context, event domain.TransactionEvent) error
}

// OutcomeNotifier handles both Completed and Failed events.
type OutcomeNotifier interface {
	CompletedProcessor
	OnFailed(ctx context.Context, event domain.TransactionEvent) error
}

// Initiated returns the handler of transaction.initiated.queue.
func Initiated(p InitiatedProcessor) messaging.Handler {
	return func(ctx context.Context, body []byte) error {
		var event domain.TransactionEvent
		if err := decode(body, &event); err != nil {
			return err
		}
		_, err := p.OnInitiated(ctx, event)
		return err
	}
}

// Result returns the handler of transaction.result.queue.
func Result(p ResultProcessor) messaging.Handler {
	return func(ctx context.Context, body []byte) error {
		var event domain.TransactionResultEvent
		if err := decode(body, &event); err != nil {
			return err
		}
		return p.OnResult(ctx, event)
	}
}

// Completed returns a handler for a queue bound to transaction.completed.
func Completed(p CompletedProcessor) messaging.Handler {
	return func(ctx context.Context, body []byte) error {
		var event domain.TransactionEvent
		if err := decode(body, &event); err != nil {
			return err
		}
		return p.OnCompleted(ctx, event)
	}
}

// Failed returns the handler of notification.transaction.failed.queue.
func Failed(p OutcomeNotifier) messaging.Handler {
	return func(ctx context.Context, body []byte) error {
		var event domain.TransactionEvent
		if err := decode(body, &event); err != nil {
			return err
		}
		return p.OnFailed(ctx, event)
	}
}

func decode(body []byte, v any) error {
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("%w: decode payload: %w", domain.ErrFatal, err)
	}
	return nil
}
