package domain

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType is the closed set of money movements.
type TransactionType string

const (
	TransactionTypeDeposit    TransactionType = "DEPOSIT"
	TransactionTypeWithdrawal TransactionType = "WITHDRAWAL"
	TransactionTypeTransfer   TransactionType = "TRANSFER"
)

// ParseTransactionType parses a wire value into a TransactionType, ignoring case.
func ParseTransactionType(s string) (TransactionType, error) {
	t := TransactionType(strings.ToUpper(strings.TrimSpace(s)))
	switch t {
	case TransactionTypeDeposit, TransactionTypeWithdrawal, TransactionTypeTransfer:
		return t, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownTransactionType, s)
	}
}

// TransactionStatus is the lifecycle state of a transaction record.
type TransactionStatus string

const (
	TransactionStatusPending    TransactionStatus = "PENDING"
	TransactionStatusProcessing TransactionStatus = "PROCESSING"
	TransactionStatusCompleted  TransactionStatus = "COMPLETED"
	TransactionStatusFailed     TransactionStatus = "FAILED"
	TransactionStatusReversed   TransactionStatus = "REVERSED"
)

// IsTerminal reports whether no further transition is expected.
func (s TransactionStatus) IsTerminal() bool {
	return s == TransactionStatusCompleted || s == TransactionStatusFailed || s == TransactionStatusReversed
}

// IsOutcome reports whether s is a valid saga outcome.
func (s TransactionStatus) IsOutcome() bool {
	return s == TransactionStatusCompleted || s == TransactionStatusFailed
}

// Cursor is a keyset position in a listing ordered by (created_at, id). The
// zero Cursor starts from the beginning.
type Cursor struct {
	CreatedAt time.Time
	ID        string
}

func (c Cursor) IsZero() bool {
	return c.ID == "" && c.CreatedAt.IsZero()
}

// TypeHandler receives a movement split by type. Every consumer of a
// movement implements all three methods, so a new type cannot be missed.
type TypeHandler interface {
	Deposit(targetAccountID string, amount decimal.Decimal) error
	Withdrawal(sourceAccountID string, amount decimal.Decimal) error
	Transfer(sourceAccountID, targetAccountID string, amount decimal.Decimal) error
}

// Movement is the money-moving part of a transaction.
type Movement struct {
	Type            TransactionType
	SourceAccountID string
	TargetAccountID string
	Amount          decimal.Decimal
}

// Validate checks the per-type account requirements and the amount.
func (m Movement) Validate() error {
	if m.Amount.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("%w: %w", ErrInvalidRequest, ErrInvalidAmount)
	}
	if err := checkScale(m.Amount); err != nil {
		return err
	}

	switch m.Type {
	case TransactionTypeDeposit:
		if m.TargetAccountID == "" {
			return fmt.Errorf("%w: %w", ErrInvalidRequest, ErrMissingTargetAccount)
		}
	case TransactionTypeWithdrawal:
		if m.SourceAccountID == "" {
			return fmt.Errorf("%w: %w", ErrInvalidRequest, ErrMissingSourceAccount)
		}
	case TransactionTypeTransfer:
		if m.SourceAccountID == "" {
			return fmt.Errorf("%w: %w", ErrInvalidRequest, ErrMissingSourceAccount)
		}
		if m.TargetAccountID == "" {
			return fmt.Errorf("%w: %w", ErrInvalidRequest, ErrMissingTargetAccount)
		}
		if m.SourceAccountID == m.TargetAccountID {
			return fmt.Errorf("%w: %w", ErrInvalidRequest, ErrSameAccount)
		}
	default:
		return fmt.Errorf("%w: %w: %q", ErrInvalidRequest, ErrUnknownTransactionType, m.Type)
	}

	return nil
}

// Dispatch calls the handler method matching the movement type.
func (m Movement) Dispatch(h TypeHandler) error {
	switch m.Type {
	case TransactionTypeDeposit:
		return h.Deposit(m.TargetAccountID, m.Amount)
	case TransactionTypeWithdrawal:
		return h.Withdrawal(m.SourceAccountID, m.Amount)
	case TransactionTypeTransfer:
		return h.Transfer(m.SourceAccountID, m.TargetAccountID, m.Amount)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownTransactionType, m.Type)
	}
}

// AccountIDs returns the distinct accounts touched by the movement in
// ascending order, which is the order locks must be taken in.
func (m Movement) AccountIDs() []string {
	ids := make([]string, 0, 2)
	if m.SourceAccountID != "" {
		ids = append(ids, m.SourceAccountID)
	}
	if m.TargetAccountID != "" && m.TargetAccountID != m.SourceAccountID {
		ids = append(ids, m.TargetAccountID)
	}
	sort.Strings(ids)
	return ids
}

// Transaction is the coordinator's record of a requested money movement.
type Transaction struct {
	ID              string
	Type            TransactionType
	SourceAccountID string
	TargetAccountID string
	Amount          decimal.Decimal
	Status          TransactionStatus
	Reference       string
	Description     string
	ErrorMessage    string
	CreatedAt       time.Time
	CompletedAt     *time.Time
}

// Movement returns the money-moving part of the transaction.
func (t *Transaction) Movement() Movement {
	return Movement{
		Type:            t.Type,
		SourceAccountID: t.SourceAccountID,
		TargetAccountID: t.TargetAccountID,
		Amount:          t.Amount,
	}
}

// Finalize moves a PROCESSING transaction to its outcome.
func (t *Transaction) Finalize(outcome TransactionStatus, errorMessage string, at time.Time) {
	t.Status = outcome
	t.CompletedAt = &at
	if outcome == TransactionStatusFailed {
		t.ErrorMessage = errorMessage
	}
}

// NewReference returns the human-facing reference for a transaction created at t.
func NewReference(t time.Time) string {
	return fmt.Sprintf("TXN%d", t.UnixMilli())
}

// ProcessedTransaction is the account service's idempotency record.
type ProcessedTransaction struct {
	TransactionID string
	Status        TransactionStatus
	ErrorMessage  string
	CreatedAt     time.Time
}
