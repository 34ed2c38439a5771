package dto

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/iho/banksaga/internal/domain"
	"github.com/iho/banksaga/internal/usecase"
)

// CreateAccountRequest represents a request to open an account.
type CreateAccountRequest struct {
	HolderName  string `json:"holder_name"`
	AccountType string `json:"account_type"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateAccountRequest) ToUseCaseInput() usecase.CreateAccountInput {
	return usecase.CreateAccountInput{
		HolderName: r.HolderName,
		Type:       r.AccountType,
	}
}

// AdjustBalanceRequest represents a direct credit or debit of one account.
type AdjustBalanceRequest struct {
	Amount    decimal.Decimal `json:"amount"`
	Operation string          `json:"operation"`
}

// ToUseCaseInput converts to use case input for the given account.
func (r *AdjustBalanceRequest) ToUseCaseInput(accountID string) usecase.AdjustBalanceInput {
	return usecase.AdjustBalanceInput{
		AccountID: accountID,
		Amount:    r.Amount,
		Operation: domain.BalanceOp(strings.ToUpper(r.Operation)),
	}
}

// InitiateTransactionRequest represents a client request to move money.
type InitiateTransactionRequest struct {
	TransactionType string          `json:"transaction_type"`
	SourceAccountID string          `json:"source_account_id,omitempty"`
	TargetAccountID string          `json:"target_account_id,omitempty"`
	Amount          decimal.Decimal `json:"amount"`
	Description     string          `json:"description,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *InitiateTransactionRequest) ToUseCaseInput() usecase.InitiateTransactionInput {
	return usecase.InitiateTransactionInput{
		Type:            r.TransactionType,
		SourceAccountID: r.SourceAccountID,
		TargetAccountID: r.TargetAccountID,
		Amount:          r.Amount,
		Description:     r.Description,
	}
}
