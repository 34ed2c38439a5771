package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/banksaga/internal/adapter/http/dto"
	"github.com/iho/banksaga/internal/domain"
	"github.com/iho/banksaga/internal/usecase"
)

// TransactionService defines the coordinator behavior needed by TransactionHandler.
type TransactionService interface {
	Initiate(ctx context.Context, input usecase.InitiateTransactionInput) (*domain.Transaction, error)
	GetTransaction(ctx context.Context, id string) (*domain.Transaction, error)
	ListTransactionsByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.Transaction, error)
	ListTransactionEvents(ctx context.Context, id string, limit, offset int) ([]*domain.OutboxEvent, error)
}

// TransactionHandler handles coordinator transaction requests.
type TransactionHandler struct {
	transactionUC TransactionService
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(transactionUC TransactionService) *TransactionHandler {
	return &TransactionHandler{transactionUC: transactionUC}
}

// Initiate accepts a transaction and answers 202 with its PROCESSING record.
func (h *TransactionHandler) Initiate(w http.ResponseWriter, r *http.Request) {
	var req dto.InitiateTransactionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	tx, err := h.transactionUC.Initiate(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeDomainError(w, "failed to initiate transaction", err)
		return
	}

	w.Header().Set("Location", "/api/v1/transactions/"+tx.ID)
	writeJSON(w, http.StatusAccepted, dto.TransactionFromDomain(tx))
}

// Get retrieves a transaction by ID.
func (h *TransactionHandler) Get(w http.ResponseWriter, r *http.Request) {
	tx, err := h.transactionUC.GetTransaction(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "failed to get transaction", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.TransactionFromDomain(tx))
}

// ListByAccount lists transactions touching an account.
func (h *TransactionHandler) ListByAccount(w http.ResponseWriter, r *http.Request) {
	limit, offset := pageParams(r)

	txs, err := h.transactionUC.ListTransactionsByAccount(r.Context(), chi.URLParam(r, "id"), limit, offset)
	if err != nil {
		writeDomainError(w, "failed to list transactions", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ListTransactionsResponse{
		Transactions: dto.TransactionsFromDomain(txs),
		Total:        int64(len(txs)),
	})
}

// Events lists the outbox events emitted for a transaction.
func (h *TransactionHandler) Events(w http.ResponseWriter, r *http.Request) {
	limit, offset := pageParams(r)

	events, err := h.transactionUC.ListTransactionEvents(r.Context(), chi.URLParam(r, "id"), limit, offset)
	if err != nil {
		writeDomainError(w, "failed to list transaction events", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"events": dto.EventsFromDomain(events)})
}
