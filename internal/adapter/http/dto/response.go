package dto

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/banksaga/internal/domain"
	"github.com/iho/banksaga/internal/usecase"
)

// AccountResponse represents an account in API responses.
type AccountResponse struct {
	ID            string          `json:"id"`
	AccountNumber string          `json:"account_number"`
	HolderName    string          `json:"holder_name"`
	AccountType   string          `json:"account_type"`
	Balance       decimal.Decimal `json:"balance"`
	Status        string          `json:"status"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// AccountFromDomain converts domain account to response.
func AccountFromDomain(a *domain.Account) *AccountResponse {
	return &AccountResponse{
		ID:            a.ID,
		AccountNumber: a.AccountNumber,
		HolderName:    a.HolderName,
		AccountType:   string(a.Type),
		Balance:       a.Balance,
		Status:        string(a.Status),
		CreatedAt:     a.CreatedAt,
		UpdatedAt:     a.UpdatedAt,
	}
}

// AccountsFromDomain converts domain accounts to responses.
func AccountsFromDomain(accounts []*domain.Account) []*AccountResponse {
	result := make([]*AccountResponse, len(accounts))
	for i, a := range accounts {
		result[i] = AccountFromDomain(a)
	}
	return result
}

// ListAccountsResponse represents a page of accounts.
type ListAccountsResponse struct {
	Accounts []*AccountResponse `json:"accounts"`
	Total    int64              `json:"total"`
}

// TransactionResponse represents a coordinator transaction in API responses.
type TransactionResponse struct {
	ID              string          `json:"id"`
	TransactionType string          `json:"transaction_type"`
	SourceAccountID string          `json:"source_account_id,omitempty"`
	TargetAccountID string          `json:"target_account_id,omitempty"`
	Amount          decimal.Decimal `json:"amount"`
	Status          string          `json:"status"`
	Reference       string          `json:"reference"`
	Description     string          `json:"description,omitempty"`
	ErrorMessage    string          `json:"error_message,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	CompletedAt     *time.Time      `json:"completed_at,omitempty"`
}

// TransactionFromDomain converts domain transaction to response.
func TransactionFromDomain(t *domain.Transaction) *TransactionResponse {
	return &TransactionResponse{
		ID:              t.ID,
		TransactionType: string(t.Type),
		SourceAccountID: t.SourceAccountID,
		TargetAccountID: t.TargetAccountID,
		Amount:          t.Amount,
		Status:          string(t.Status),
		Reference:       t.Reference,
		Description:     t.Description,
		ErrorMessage:    t.ErrorMessage,
		CreatedAt:       t.CreatedAt,
		CompletedAt:     t.CompletedAt,
	}
}

// TransactionsFromDomain converts domain transactions to responses.
func TransactionsFromDomain(txs []*domain.Transaction) []*TransactionResponse {
	result := make([]*TransactionResponse, len(txs))
	for i, t := range txs {
		result[i] = TransactionFromDomain(t)
	}
	return result
}

// ListTransactionsResponse represents a page of transactions.
type ListTransactionsResponse struct {
	Transactions []*TransactionResponse `json:"transactions"`
	Total        int64                  `json:"total"`
}

// EventResponse represents an outbox event of a transaction.
type EventResponse struct {
	ID          string          `json:"id"`
	EventType   string          `json:"event_type"`
	Payload     json.RawMessage `json:"payload"`
	Published   bool            `json:"published"`
	CreatedAt   time.Time       `json:"created_at"`
	PublishedAt *time.Time      `json:"published_at,omitempty"`
}

// EventsFromDomain converts outbox events to responses.
func EventsFromDomain(events []*domain.OutboxEvent) []*EventResponse {
	result := make([]*EventResponse, len(events))
	for i, e := range events {
		result[i] = &EventResponse{
			ID:          e.ID,
			EventType:   e.EventType,
			Payload:     e.Payload,
			Published:   e.Published,
			CreatedAt:   e.CreatedAt,
			PublishedAt: e.PublishedAt,
		}
	}
	return result
}

// LedgerEntryResponse represents a ledger entry in API responses.
type LedgerEntryResponse struct {
	ID            string          `json:"id"`
	AccountID     string          `json:"account_id"`
	TransactionID string          `json:"transaction_id"`
	EntryType     string          `json:"entry_type"`
	Amount        decimal.Decimal `json:"amount"`
	BalanceAfter  decimal.Decimal `json:"balance_after"`
	Description   string          `json:"description,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// EntriesFromDomain converts ledger entries to responses.
func EntriesFromDomain(entries []*domain.LedgerEntry) []*LedgerEntryResponse {
	result := make([]*LedgerEntryResponse, len(entries))
	for i, e := range entries {
		result[i] = &LedgerEntryResponse{
			ID:            e.ID,
			AccountID:     e.AccountID,
			TransactionID: e.TransactionID,
			EntryType:     string(e.Type),
			Amount:        e.Amount,
			BalanceAfter:  e.BalanceAfter,
			Description:   e.Description,
			CreatedAt:     e.CreatedAt,
		}
	}
	return result
}

// ListEntriesResponse represents a page of ledger entries.
type ListEntriesResponse struct {
	Entries []*LedgerEntryResponse `json:"entries"`
	Total   int64                  `json:"total"`
}

// BalanceResponse represents the ledger balance of an account.
type BalanceResponse struct {
	AccountID string          `json:"account_id"`
	Balance   decimal.Decimal `json:"balance"`
}

// VerificationResponse reports whether an account's entries fold to its snapshot.
type VerificationResponse struct {
	AccountID       string          `json:"account_id"`
	Entries         int             `json:"entries"`
	FoldedBalance   decimal.Decimal `json:"folded_balance"`
	SnapshotBalance decimal.Decimal `json:"snapshot_balance"`
	Consistent      bool            `json:"consistent"`
	CheckedAt       time.Time       `json:"checked_at"`
}

// VerificationFromUseCase converts a ledger verification to response.
func VerificationFromUseCase(v *usecase.LedgerVerification) *VerificationResponse {
	return &VerificationResponse{
		AccountID:       v.AccountID,
		Entries:         v.Entries,
		FoldedBalance:   v.FoldedBalance,
		SnapshotBalance: v.SnapshotBalance,
		Consistent:      v.Consistent,
		CheckedAt:       v.CheckedAt,
	}
}

// ProcessedResponse is the account service's record of a handled transaction.
type ProcessedResponse struct {
	TransactionID string    `json:"transaction_id"`
	Status        string    `json:"status"`
	ErrorMessage  string    `json:"error_message,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// ProcessedFromDomain converts a processed record to response.
func ProcessedFromDomain(p *domain.ProcessedTransaction) *ProcessedResponse {
	return &ProcessedResponse{
		TransactionID: p.TransactionID,
		Status:        string(p.Status),
		ErrorMessage:  p.ErrorMessage,
		CreatedAt:     p.CreatedAt,
	}
}

// ReconciliationResponse summarizes one reconciliation sweep.
type ReconciliationResponse struct {
	Scanned     int       `json:"scanned"`
	Adopted     int       `json:"adopted"`
	Republished int       `json:"republished"`
	Unchanged   int       `json:"unchanged"`
	Failed      int       `json:"failed"`
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at"`
}

// ReconciliationFromUseCase converts a sweep report to response.
func ReconciliationFromUseCase(r *usecase.ReconciliationReport) *ReconciliationResponse {
	return &ReconciliationResponse{
		Scanned:     r.Scanned,
		Adopted:     r.Adopted,
		Republished: r.Republished,
		Unchanged:   r.Unchanged,
		Failed:      r.Failed,
		StartedAt:   r.StartedAt,
		FinishedAt:  r.FinishedAt,
	}
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
