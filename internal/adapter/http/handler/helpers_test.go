package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/banksaga/internal/adapter/http/dto"
	"github.com/iho/banksaga/internal/domain"
)

func TestPageParams(t *testing.T) {
	tests := []struct {
		query      string
		wantLimit  int
		wantOffset int
	}{
		{"", defaultPageSize, 0},
		{"limit=50&offset=10", 50, 10},
		{"limit=abc&offset=xyz", defaultPageSize, 0},
		{"limit=0", 1, 0},
		{"limit=-4&offset=-3", 1, 0},
		{"limit=100000", maxPageSize, 0},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			limit, offset := pageParams(httptest.NewRequest(http.MethodGet, "/accounts?"+tt.query, nil))
			assert.Equal(t, tt.wantLimit, limit)
			assert.Equal(t, tt.wantOffset, offset)
		})
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"account not found", domain.ErrAccountNotFound, http.StatusNotFound},
		{"transaction not found", domain.ErrTransactionNotFound, http.StatusNotFound},
		{"processed not found", domain.ErrProcessedNotFound, http.StatusNotFound},
		{"insufficient funds", domain.ErrInsufficientFunds, http.StatusUnprocessableEntity},
		{"inactive account", domain.ErrAccountNotActive, http.StatusUnprocessableEntity},
		{"wrapped validation", fmt.Errorf("%w: %w", domain.ErrInvalidRequest, domain.ErrAmountTooSmall), http.StatusBadRequest},
		{"same account", domain.ErrSameAccount, http.StatusBadRequest},
		{"missing target", domain.ErrMissingTargetAccount, http.StatusBadRequest},
		{"unknown type", domain.ErrUnknownTransactionType, http.StatusBadRequest},
		{"sweep running", domain.ErrReconciliationInProgress, http.StatusConflict},
		{"unknown error", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.err))
		})
	}
}

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name string
		body string
		ok   bool
	}{
		{"valid", `{"holder_name":"Ada"}`, true},
		{"malformed", `{"holder_name":`, false},
		{"trailing document", `{"holder_name":"Ada"}{"holder_name":"Bob"}`, false},
		{"too large", `{"holder_name":"` + strings.Repeat("a", maxBodyBytes) + `"}`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/accounts", strings.NewReader(tt.body))

			var dst map[string]string
			assert.Equal(t, tt.ok, decodeJSON(rr, req, &dst))
			if !tt.ok {
				assert.Equal(t, http.StatusBadRequest, rr.Code)
			}
		})
	}
}

func TestWriteJSON(t *testing.T) {
	rr := httptest.NewRecorder()
	writeJSON(rr, http.StatusCreated, map[string]string{"status": "ok"})

	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
}

func TestWriteDomainError(t *testing.T) {
	decode := func(t *testing.T, rr *httptest.ResponseRecorder) dto.ErrorResponse {
		t.Helper()
		var resp dto.ErrorResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		return resp
	}

	t.Run("internal details stay hidden", func(t *testing.T) {
		rr := httptest.NewRecorder()
		writeDomainError(rr, "failed", errors.New("pq: connection reset to 10.0.0.3"))

		resp := decode(t, rr)
		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		assert.Equal(t, "failed", resp.Error)
		assert.Empty(t, resp.Message)
	})

	t.Run("domain errors are explained", func(t *testing.T) {
		rr := httptest.NewRecorder()
		writeDomainError(rr, "failed", domain.ErrAccountNotFound)

		resp := decode(t, rr)
		assert.Equal(t, http.StatusNotFound, rr.Code)
		assert.Equal(t, domain.ErrAccountNotFound.Error(), resp.Message)
	})
}
