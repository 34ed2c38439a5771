package domain

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// Validation errors
var (
	ErrInvalidHolderName  = errors.New("invalid holder name")
	ErrAmountTooLarge     = errors.New("amount exceeds maximum allowed")
	ErrAmountTooSmall     = errors.New("amount below minimum allowed")
	ErrDescriptionTooLong = errors.New("description too long")
)

// Validation constants
const (
	MaxHolderNameLength  = 255
	MaxDescriptionLength = 500
	MaxTransactionAmount = "1000000000000" // 1 trillion
	MinTransactionAmount = "0.01"
	AmountScale          = 4 // matches NUMERIC(19,4)
	AccountNumberPrefix  = "ACC"
	accountNumberDigits  = 12
	DefaultPageSize      = 20
	MaxPageSize          = 1000
)

// ValidateHolderName validates an account holder name.
func ValidateHolderName(name string) error {
	name = strings.TrimSpace(name)

	if name == "" {
		return fmt.Errorf("%w: %w: name cannot be empty", ErrInvalidRequest, ErrInvalidHolderName)
	}

	if len(name) > MaxHolderNameLength {
		return fmt.Errorf("%w: %w: name exceeds %d characters", ErrInvalidRequest, ErrInvalidHolderName, MaxHolderNameLength)
	}

	return nil
}

// ValidateAmount validates a transaction or adjustment amount
func ValidateAmount(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("%w: %w", ErrInvalidRequest, ErrInvalidAmount)
	}

	if err := checkScale(amount); err != nil {
		return err
	}

	minAmount, _ := decimal.NewFromString(MinTransactionAmount)
	if amount.LessThan(minAmount) {
		return fmt.Errorf("%w: %w: minimum amount is %s", ErrInvalidRequest, ErrAmountTooSmall, MinTransactionAmount)
	}

	maxAmount, _ := decimal.NewFromString(MaxTransactionAmount)
	if amount.GreaterThan(maxAmount) {
		return fmt.Errorf("%w: %w: maximum amount is %s", ErrInvalidRequest, ErrAmountTooLarge, MaxTransactionAmount)
	}

	return nil
}

// checkScale rejects amounts the money columns would round on insert.
// Trailing zeros beyond the scale are accepted.
func checkScale(amount decimal.Decimal) error {
	if !amount.Equal(amount.Truncate(AmountScale)) {
		return fmt.Errorf("%w: %w: at most %d allowed", ErrInvalidRequest, ErrAmountScale, AmountScale)
	}
	return nil
}

// ValidateDescription bounds free-text descriptions.
func ValidateDescription(description string) error {
	if len(description) > MaxDescriptionLength {
		return fmt.Errorf("%w: %w", ErrInvalidRequest, ErrDescriptionTooLong)
	}
	return nil
}

// ValidatePagination validates and limits pagination parameters
func ValidatePagination(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultPageSize
	}

	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	if offset < 0 {
		offset = 0
	}

	return limit, offset
}

// GenerateAccountNumber returns "ACC" followed by 12 random digits.
func GenerateAccountNumber() (string, error) {
	var sb strings.Builder
	sb.WriteString(AccountNumberPrefix)

	ten := big.NewInt(10)
	for range accountNumberDigits {
		d, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", fmt.Errorf("generate account number: %w", err)
		}
		sb.WriteByte(byte('0' + d.Int64()))
	}

	return sb.String(), nil
}
