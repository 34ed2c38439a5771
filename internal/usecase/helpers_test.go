package usecase_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"

	"github.com/iho/banksaga/internal/domain"
	"github.com/iho/banksaga/internal/infrastructure/metrics"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newTestMetrics() *metrics.Metrics {
	return metrics.New(prometheus.NewRegistry())
}

func activeAccount(id, balance string) *domain.Account {
	now := time.Now().UTC()
	return &domain.Account{
		ID:            id,
		AccountNumber: "ACC" + id,
		HolderName:    "holder " + id,
		Type:          domain.AccountTypeSavings,
		Balance:       dec(balance),
		Status:        domain.AccountStatusActive,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func decodeTransactionEvent(t *testing.T, e *domain.OutboxEvent) domain.TransactionEvent {
	t.Helper()
	var payload domain.TransactionEvent
	if err := json.Unmarshal(e.Payload, &payload); err != nil {
		t.Fatalf("decode %s payload: %v", e.EventType, err)
	}
	return payload
}

func decodeResultEvent(t *testing.T, e *domain.OutboxEvent) domain.TransactionResultEvent {
	t.Helper()
	var payload domain.TransactionResultEvent
	if err := json.Unmarshal(e.Payload, &payload); err != nil {
		t.Fatalf("decode %s payload: %v", e.EventType, err)
	}
	return payload
}
