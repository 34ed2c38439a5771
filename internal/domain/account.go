package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountStatus is the lifecycle state of an account.
type AccountStatus string

const (
	AccountStatusActive   AccountStatus = "ACTIVE"
	AccountStatusInactive AccountStatus = "INACTIVE"
	AccountStatusFrozen   AccountStatus = "FROZEN"
	AccountStatusClosed   AccountStatus = "CLOSED"
)

// AccountType classifies an account.
type AccountType string

const (
	AccountTypeSavings  AccountType = "SAVINGS"
	AccountTypeChecking AccountType = "CHECKING"
)

// ParseAccountType returns SAVINGS for an empty value.
func ParseAccountType(s string) (AccountType, error) {
	switch AccountType(s) {
	case "":
		return AccountTypeSavings, nil
	case AccountTypeSavings, AccountTypeChecking:
		return AccountType(s), nil
	default:
		return "", ErrInvalidAccountType
	}
}

// BalanceOp is the direction of a balance adjustment.
type BalanceOp string

const (
	BalanceOpCredit BalanceOp = "CREDIT"
	BalanceOpDebit  BalanceOp = "DEBIT"
)

// Inverse returns the operation that undoes op.
func (op BalanceOp) Inverse() BalanceOp {
	if op == BalanceOpCredit {
		return BalanceOpDebit
	}
	return BalanceOpCredit
}

// Account holds a customer balance.
type Account struct {
	ID            string
	AccountNumber string
	HolderName    string
	Type          AccountType
	Balance       decimal.Decimal
	Status        AccountStatus
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// IsActive reports whether the account accepts balance changes.
func (a *Account) IsActive() bool {
	return a.Status == AccountStatusActive
}

// ValidateDebit checks if account can be debited by amount.
func (a *Account) ValidateDebit(amount decimal.Decimal) error {
	if !a.IsActive() {
		return ErrAccountNotActive
	}
	if a.Balance.LessThan(amount) {
		return ErrInsufficientFunds
	}
	return nil
}

// ValidateCredit checks if account can be credited by amount.
func (a *Account) ValidateCredit(amount decimal.Decimal) error {
	if !a.IsActive() {
		return ErrAccountNotActive
	}
	return nil
}

// Apply validates op and returns the new balance without mutating the account.
func (a *Account) Apply(amount decimal.Decimal, op BalanceOp) (decimal.Decimal, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, ErrInvalidAmount
	}

	switch op {
	case BalanceOpCredit:
		if err := a.ValidateCredit(amount); err != nil {
			return decimal.Zero, err
		}
		return a.Balance.Add(amount), nil
	case BalanceOpDebit:
		if err := a.ValidateDebit(amount); err != nil {
			return decimal.Zero, err
		}
		return a.Balance.Sub(amount), nil
	default:
		return decimal.Zero, ErrInvalidBalanceOp
	}
}
