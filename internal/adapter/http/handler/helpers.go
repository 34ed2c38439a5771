package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/iho/banksaga/internal/adapter/http/dto"
	"github.com/iho/banksaga/internal/domain"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
	maxBodyBytes    = 64 << 10
)

// errorStatuses is checked in order; the first sentinel err wraps wins.
var errorStatuses = []struct {
	target error
	status int
}{
	{domain.ErrReconciliationInProgress, http.StatusConflict},
	{domain.ErrInsufficientFunds, http.StatusUnprocessableEntity},
	{domain.ErrAccountNotActive, http.StatusUnprocessableEntity},
	{domain.ErrInvalidRequest, http.StatusBadRequest},
	{domain.ErrInvalidAmount, http.StatusBadRequest},
	{domain.ErrSameAccount, http.StatusBadRequest},
	{domain.ErrMissingSourceAccount, http.StatusBadRequest},
	{domain.ErrMissingTargetAccount, http.StatusBadRequest},
	{domain.ErrUnknownTransactionType, http.StatusBadRequest},
	{domain.ErrInvalidAccountType, http.StatusBadRequest},
	{domain.ErrInvalidBalanceOp, http.StatusBadRequest},
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message, details string) {
	writeJSON(w, status, dto.ErrorResponse{Error: message, Message: details})
}

// decodeJSON reads a single JSON document from the request body into dst.
// On failure it writes the 400 itself and returns false.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return false
	}
	if dec.More() {
		writeError(w, http.StatusBadRequest, "invalid request body", "unexpected data after JSON document")
		return false
	}
	return true
}

// statusFor picks the HTTP status for an error coming out of a use case.
func statusFor(err error) int {
	if domain.IsNotFound(err) {
		return http.StatusNotFound
	}
	for _, e := range errorStatuses {
		if errors.Is(err, e.target) {
			return e.status
		}
	}
	return http.StatusInternalServerError
}

// writeDomainError never echoes the text of an unclassified error: those come
// from the database or the broker and may carry hostnames.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	status := statusFor(err)
	details := err.Error()
	if status == http.StatusInternalServerError {
		details = ""
	}
	writeError(w, status, message, details)
}

// pageParams reads ?limit= and ?offset=. Malformed values fall back to the
// defaults and limit is clamped to [1, maxPageSize].
func pageParams(r *http.Request) (limit, offset int) {
	q := r.URL.Query()

	limit = defaultPageSize
	if v, err := strconv.Atoi(q.Get("limit")); err == nil {
		limit = min(max(v, 1), maxPageSize)
	}
	if v, err := strconv.Atoi(q.Get("offset")); err == nil && v > 0 {
		offset = v
	}
	return limit, offset
}
