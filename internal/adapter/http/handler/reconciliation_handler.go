package handler

import (
	"context"
	"net/http"

	"github.com/iho/banksaga/internal/adapter/http/dto"
	"github.com/iho/banksaga/internal/usecase"
)

// Reconciler runs one reconciliation sweep.
type Reconciler interface {
	Reconcile(ctx context.Context) (*usecase.ReconciliationReport, error)
}

// ReconciliationHandler lets operators trigger a sweep on demand.
type ReconciliationHandler struct {
	reconciler Reconciler
}

// NewReconciliationHandler creates a new ReconciliationHandler.
func NewReconciliationHandler(reconciler Reconciler) *ReconciliationHandler {
	return &ReconciliationHandler{reconciler: reconciler}
}

// Run executes a sweep and reports its counters.
func (h *ReconciliationHandler) Run(w http.ResponseWriter, r *http.Request) {
	report, err := h.reconciler.Reconcile(r.Context())
	if err != nil {
		writeDomainError(w, "reconciliation failed", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ReconciliationFromUseCase(report))
}
