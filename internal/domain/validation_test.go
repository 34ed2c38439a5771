package domain

import (
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestValidateHolderName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "valid", input: "Jane Doe"},
		{name: "empty", input: "   ", wantErr: true},
		{name: "too long", input: strings.Repeat("a", MaxHolderNameLength+1), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateHolderName(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidHolderName) || !errors.Is(err, ErrInvalidRequest) {
					t.Fatalf("expected ErrInvalidHolderName wrapped in ErrInvalidRequest, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestValidateAmount(t *testing.T) {
	t.Parallel()

	valid := decimal.NewFromFloat(100.25)
	if err := ValidateAmount(valid); err != nil {
		t.Fatalf("expected valid amount, got %v", err)
	}

	if err := ValidateAmount(decimal.Zero); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount for zero, got %v", err)
	}

	if err := ValidateAmount(decimal.NewFromFloat(0.001)); !errors.Is(err, ErrAmountTooSmall) {
		t.Fatalf("expected ErrAmountTooSmall, got %v", err)
	}

	if err := ValidateAmount(decimal.RequireFromString("10.12345")); !errors.Is(err, ErrAmountScale) || !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("expected ErrAmountScale, got %v", err)
	}

	if err := ValidateAmount(decimal.RequireFromString("10.1234")); err != nil {
		t.Fatalf("expected four decimal places to pass, got %v", err)
	}

	huge := decimal.RequireFromString(MaxTransactionAmount).Add(decimal.NewFromInt(1))
	if err := ValidateAmount(huge); !errors.Is(err, ErrAmountTooLarge) {
		t.Fatalf("expected ErrAmountTooLarge, got %v", err)
	}
}

func TestValidateDescription(t *testing.T) {
	t.Parallel()

	if err := ValidateDescription("rent"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := ValidateDescription(strings.Repeat("x", MaxDescriptionLength+1)); !errors.Is(err, ErrDescriptionTooLong) {
		t.Fatalf("expected ErrDescriptionTooLong, got %v", err)
	}
}

func TestValidatePagination(t *testing.T) {
	t.Parallel()

	tests := []struct {
		limit, offset         int
		wantLimit, wantOffset int
	}{
		{0, 0, DefaultPageSize, 0},
		{-5, -1, DefaultPageSize, 0},
		{MaxPageSize + 1, 10, MaxPageSize, 10},
		{50, 100, 50, 100},
	}

	for _, tt := range tests {
		limit, offset := ValidatePagination(tt.limit, tt.offset)
		if limit != tt.wantLimit || offset != tt.wantOffset {
			t.Errorf("ValidatePagination(%d, %d) = (%d, %d), want (%d, %d)",
				tt.limit, tt.offset, limit, offset, tt.wantLimit, tt.wantOffset)
		}
	}
}

func TestGenerateAccountNumber(t *testing.T) {
	t.Parallel()

	n, err := GenerateAccountNumber()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(n) != len(AccountNumberPrefix)+12 || !strings.HasPrefix(n, AccountNumberPrefix) {
		t.Fatalf("unexpected account number %q", n)
	}

	for _, c := range n[len(AccountNumberPrefix):] {
		if c < '0' || c > '9' {
			t.Fatalf("expected digits after prefix, got %q", n)
		}
	}
}
