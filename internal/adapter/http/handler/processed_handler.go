package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/banksaga/internal/adapter/http/dto"
	"github.com/iho/banksaga/internal/domain"
)

// ProcessedService exposes the account service's processed records.
type ProcessedService interface {
	GetProcessedTransaction(ctx context.Context, transactionID string) (*domain.ProcessedTransaction, error)
}

// ProcessedHandler serves the internal status endpoint used by reconciliation.
type ProcessedHandler struct {
	service ProcessedService
}

// NewProcessedHandler creates a new ProcessedHandler.
func NewProcessedHandler(service ProcessedService) *ProcessedHandler {
	return &ProcessedHandler{service: service}
}

// Status returns 404 until the account service has settled the transaction.
func (h *ProcessedHandler) Status(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.GetProcessedTransaction(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "failed to get processed transaction", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ProcessedFromDomain(p))
}
