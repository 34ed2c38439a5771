package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/iho/banksaga/internal/adapter/http/dto"
	"github.com/iho/banksaga/internal/domain"
	"github.com/iho/banksaga/internal/usecase"
)

// LedgerService defines the read side of the ledger recorder.
type LedgerService interface {
	EntriesForAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.LedgerEntry, error)
	AllEntries(ctx context.Context, limit, offset int) ([]*domain.LedgerEntry, error)
	BalanceOf(ctx context.Context, accountID string) (decimal.Decimal, error)
	VerifyAccount(ctx context.Context, accountID string) (*usecase.LedgerVerification, error)
}

// LedgerHandler handles ledger queries.
type LedgerHandler struct {
	ledgerUC LedgerService
}

// NewLedgerHandler creates a new LedgerHandler.
func NewLedgerHandler(ledgerUC LedgerService) *LedgerHandler {
	return &LedgerHandler{ledgerUC: ledgerUC}
}

// List lists entries across all accounts, newest first.
func (h *LedgerHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := pageParams(r)
	entries, err := h.ledgerUC.AllEntries(r.Context(), limit, offset)
	if err != nil {
		writeDomainError(w, "failed to list entries", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ListEntriesResponse{
		Entries: dto.EntriesFromDomain(entries),
		Total:   int64(len(entries)),
	})
}

// ListByAccount lists an account's entries, newest first.
func (h *LedgerHandler) ListByAccount(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "id")

	limit, offset := pageParams(r)
	entries, err := h.ledgerUC.EntriesForAccount(r.Context(), accountID, limit, offset)
	if err != nil {
		writeDomainError(w, "failed to list entries", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ListEntriesResponse{
		Entries: dto.EntriesFromDomain(entries),
		Total:   int64(len(entries)),
	})
}

// Balance returns the ledger balance of an account.
func (h *LedgerHandler) Balance(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "id")

	balance, err := h.ledgerUC.BalanceOf(r.Context(), accountID)
	if err != nil {
		writeDomainError(w, "failed to get balance", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.BalanceResponse{AccountID: accountID, Balance: balance})
}

// Verify checks an account's entries against its running balance. An
// inconsistent ledger answers 409.
func (h *LedgerHandler) Verify(w http.ResponseWriter, r *http.Request) {
	v, err := h.ledgerUC.VerifyAccount(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "failed to verify ledger", err)
		return
	}

	status := http.StatusOK
	if !v.Consistent {
		status = http.StatusConflict
	}
	writeJSON(w, status, dto.VerificationFromUseCase(v))
}
