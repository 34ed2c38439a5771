package domain

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestAccount_ValidateDebit(t *testing.T) {
	tests := []struct {
		name        string
		balance     decimal.Decimal
		status      AccountStatus
		debitAmount decimal.Decimal
		expectError error
	}{
		{
			name:        "debit more than balance",
			balance:     decimal.NewFromInt(100),
			status:      AccountStatusActive,
			debitAmount: decimal.NewFromInt(150),
			expectError: ErrInsufficientFunds,
		},
		{
			name:        "debit exact balance",
			balance:     decimal.NewFromInt(100),
			status:      AccountStatusActive,
			debitAmount: decimal.NewFromInt(100),
		},
		{
			name:        "debit less than balance",
			balance:     decimal.NewFromInt(100),
			status:      AccountStatusActive,
			debitAmount: decimal.NewFromInt(50),
		},
		{
			name:        "frozen account",
			balance:     decimal.NewFromInt(100),
			status:      AccountStatusFrozen,
			debitAmount: decimal.NewFromInt(50),
			expectError: ErrAccountNotActive,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			acc := &Account{Balance: tt.balance, Status: tt.status}

			err := acc.ValidateDebit(tt.debitAmount)
			if !errors.Is(err, tt.expectError) {
				t.Errorf("expected %v, got %v", tt.expectError, err)
			}
		})
	}
}

func TestAccount_ValidateCredit(t *testing.T) {
	for _, status := range []AccountStatus{AccountStatusInactive, AccountStatusFrozen, AccountStatusClosed} {
		acc := &Account{Balance: decimal.Zero, Status: status}
		if err := acc.ValidateCredit(decimal.NewFromInt(1)); !errors.Is(err, ErrAccountNotActive) {
			t.Errorf("status %s: expected ErrAccountNotActive, got %v", status, err)
		}
	}

	acc := &Account{Balance: decimal.Zero, Status: AccountStatusActive}
	if err := acc.ValidateCredit(decimal.NewFromInt(1)); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestAccount_Apply(t *testing.T) {
	acc := &Account{Balance: decimal.NewFromInt(100), Status: AccountStatusActive}

	got, err := acc.Apply(decimal.NewFromInt(30), BalanceOpDebit)
	if err != nil || !got.Equal(decimal.NewFromInt(70)) {
		t.Fatalf("debit: got %s, %v", got, err)
	}

	got, err = acc.Apply(decimal.NewFromInt(30), BalanceOpCredit)
	if err != nil || !got.Equal(decimal.NewFromInt(130)) {
		t.Fatalf("credit: got %s, %v", got, err)
	}

	if !acc.Balance.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("Apply must not mutate the account, balance is %s", acc.Balance)
	}

	if _, err := acc.Apply(decimal.Zero, BalanceOpCredit); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}

	if _, err := acc.Apply(decimal.NewFromInt(1), BalanceOp("SIDEWAYS")); !errors.Is(err, ErrInvalidBalanceOp) {
		t.Fatalf("expected ErrInvalidBalanceOp, got %v", err)
	}
}

func TestBalanceOp_Inverse(t *testing.T) {
	if BalanceOpCredit.Inverse() != BalanceOpDebit || BalanceOpDebit.Inverse() != BalanceOpCredit {
		t.Fatal("unexpected inverse")
	}
}

func TestParseAccountType(t *testing.T) {
	if got, err := ParseAccountType(""); err != nil || got != AccountTypeSavings {
		t.Fatalf("expected SAVINGS default, got %s, %v", got, err)
	}
	if got, err := ParseAccountType("CHECKING"); err != nil || got != AccountTypeChecking {
		t.Fatalf("expected CHECKING, got %s, %v", got, err)
	}
	if _, err := ParseAccountType("BROKERAGE"); !errors.Is(err, ErrInvalidAccountType) {
		t.Fatalf("expected ErrInvalidAccountType, got %v", err)
	}
}
