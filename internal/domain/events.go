package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Event types double as routing keys on the exchange.
const (
	EventTypeTransactionInitiated = "transaction.initiated"
	EventTypeTransactionResult    = "transaction.result"
	EventTypeTransactionCompleted = "transaction.completed"
	EventTypeTransactionFailed    = "transaction.failed"
)

// Aggregate types
const (
	AggregateTypeTransaction = "transaction"
)

// OutboxEvent represents an event to be published
type OutboxEvent struct {
	ID            string
	AggregateID   string
	AggregateType string
	EventType     string
	Payload       json.RawMessage
	CreatedAt     time.Time
	PublishedAt   *time.Time
	Published     bool
}

// NewOutboxEvent encodes payload for aggregate transaction txID.
func NewOutboxEvent(id, txID, eventType string, payload any, at time.Time) (*OutboxEvent, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", eventType, err)
	}

	return &OutboxEvent{
		ID:            id,
		AggregateID:   txID,
		AggregateType: AggregateTypeTransaction,
		EventType:     eventType,
		Payload:       body,
		CreatedAt:     at,
	}, nil
}

// TransactionEvent is the payload of Initiated, Completed and Failed messages.
type TransactionEvent struct {
	TransactionID   string            `json:"transaction_id"`
	TransactionType TransactionType   `json:"transaction_type"`
	SourceAccountID string            `json:"source_account_id,omitempty"`
	TargetAccountID string            `json:"target_account_id,omitempty"`
	Amount          decimal.Decimal   `json:"amount"`
	Status          TransactionStatus `json:"status"`
	Description     string            `json:"description,omitempty"`
	ErrorMessage    string            `json:"error_message,omitempty"`
	Timestamp       time.Time         `json:"timestamp"`
}

// NewTransactionEvent snapshots t.
func NewTransactionEvent(t *Transaction, at time.Time) TransactionEvent {
	return TransactionEvent{
		TransactionID:   t.ID,
		TransactionType: t.Type,
		SourceAccountID: t.SourceAccountID,
		TargetAccountID: t.TargetAccountID,
		Amount:          t.Amount,
		Status:          t.Status,
		Description:     t.Description,
		ErrorMessage:    t.ErrorMessage,
		Timestamp:       at,
	}
}

// Movement returns the money-moving part of the event.
func (e TransactionEvent) Movement() Movement {
	return Movement{
		Type:            e.TransactionType,
		SourceAccountID: e.SourceAccountID,
		TargetAccountID: e.TargetAccountID,
		Amount:          e.Amount,
	}
}

// Validate rejects payloads that can never be processed.
func (e TransactionEvent) Validate() error {
	if e.TransactionID == "" {
		return fmt.Errorf("%w: missing transaction_id", ErrFatal)
	}
	if err := e.Movement().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrFatal, err)
	}
	return nil
}

// TransactionResultEvent reports the account service's outcome.
type TransactionResultEvent struct {
	TransactionID string            `json:"transaction_id"`
	Status        TransactionStatus `json:"status"`
	ErrorMessage  string            `json:"error_message,omitempty"`
}

// Validate rejects payloads that can never be processed.
func (e TransactionResultEvent) Validate() error {
	if e.TransactionID == "" {
		return fmt.Errorf("%w: missing transaction_id", ErrFatal)
	}
	if !e.Status.IsOutcome() {
		return fmt.Errorf("%w: unexpected status %q", ErrFatal, e.Status)
	}
	return nil
}
