package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntryType is the side of a ledger entry.
type EntryType string

const (
	EntryTypeDebit  EntryType = "DEBIT"
	EntryTypeCredit EntryType = "CREDIT"
)

// LedgerEntry is an immutable record of one account's side of a transaction.
type LedgerEntry struct {
	ID            string
	AccountID     string
	TransactionID string
	Type          EntryType
	Amount        decimal.Decimal
	BalanceAfter  decimal.Decimal
	Description   string
	CreatedAt     time.Time
}

// Signed returns the amount with credits positive and debits negative.
func (e *LedgerEntry) Signed() decimal.Decimal {
	if e.Type == EntryTypeDebit {
		return e.Amount.Neg()
	}
	return e.Amount
}

// FoldEntries sums entries given in chronological order, starting from zero.
func FoldEntries(entries []*LedgerEntry) decimal.Decimal {
	balance := decimal.Zero
	for _, e := range entries {
		balance = balance.Add(e.Signed())
	}
	return balance
}

// EntryDescription prefixes the transaction description with the movement kind.
func EntryDescription(txType TransactionType, entryType EntryType, description string) string {
	var prefix string
	switch txType {
	case TransactionTypeDeposit:
		prefix = "Deposit: "
	case TransactionTypeWithdrawal:
		prefix = "Withdrawal: "
	case TransactionTypeTransfer:
		if entryType == EntryTypeDebit {
			prefix = "Transfer out: "
		} else {
			prefix = "Transfer in: "
		}
	}
	return prefix + description
}
