package domain

import "errors"

var (
	// Account errors
	ErrAccountNotFound     = errors.New("account not found")
	ErrAccountNotActive    = errors.New("account is not active")
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrInvalidAccountType  = errors.New("invalid account type")
	ErrInvalidBalanceOp    = errors.New("invalid balance operation")
	ErrAccountNumberExists = errors.New("account number already exists")

	// Transaction errors
	ErrTransactionNotFound    = errors.New("transaction not found")
	ErrInvalidRequest         = errors.New("invalid request")
	ErrInvalidAmount          = errors.New("amount must be positive")
	ErrAmountScale            = errors.New("amount has too many decimal places")
	ErrSameAccount            = errors.New("cannot transfer to same account")
	ErrMissingSourceAccount   = errors.New("source account is required")
	ErrMissingTargetAccount   = errors.New("target account is required")
	ErrUnknownTransactionType = errors.New("unknown transaction type")

	// Saga errors
	ErrProcessedNotFound = errors.New("processed transaction not found")
	ErrDuplicateDelivery = errors.New("duplicate delivery")
	ErrTransient         = errors.New("transient failure")
	ErrFatal             = errors.New("unrecoverable message")

	// Reconciliation errors
	ErrReconciliationInProgress = errors.New("reconciliation already in progress")

	// Service authentication errors
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)

// IsSagaFailure reports whether err is a business outcome that must be
// recorded as FAILED instead of being retried.
func IsSagaFailure(err error) bool {
	return errors.Is(err, ErrAccountNotActive) ||
		errors.Is(err, ErrInsufficientFunds) ||
		errors.Is(err, ErrAccountNotFound)
}

// IsNotFound reports whether err denotes a missing entity.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrAccountNotFound) ||
		errors.Is(err, ErrTransactionNotFound) ||
		errors.Is(err, ErrProcessedNotFound)
}

// IsFatal reports whether a message carrying err can never succeed.
func IsFatal(err error) bool {
	return errors.Is(err, ErrFatal) || errors.Is(err, ErrUnknownTransactionType)
}
