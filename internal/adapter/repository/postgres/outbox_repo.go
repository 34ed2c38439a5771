package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/iho/banksaga/internal/domain"
	"github.com/iho/banksaga/internal/infrastructure/postgres/generated"
	"github.com/iho/banksaga/internal/usecase"
)

// OutboxRepository stores events next to the state change that produced them.
// Writes go through the caller's transaction; relay reads and marks use the
// pool directly.
type OutboxRepository struct {
	queries *generated.Queries
}

func NewOutboxRepository(db generated.DBTX) *OutboxRepository {
	return &OutboxRepository{queries: generated.New(db)}
}

func (r *OutboxRepository) Create(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error {
	params := generated.CreateOutboxEventParams{
		ID:            event.ID,
		AggregateID:   event.AggregateID,
		AggregateType: event.AggregateType,
		EventType:     event.EventType,
		Payload:       event.Payload,
		CreatedAt:     timeToPgTimestamptz(event.CreatedAt),
		Published:     event.Published,
	}
	if _, err := txQueries(tx).CreateOutboxEvent(ctx, params); err != nil {
		return fmt.Errorf("insert outbox event %s (%s): %w", event.ID, event.EventType, err)
	}
	return nil
}

// GetUnpublished returns up to limit pending events in emission order.
func (r *OutboxRepository) GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error) {
	rows, err := r.queries.GetUnpublishedEvents(ctx, int32(limit))
	if err != nil {
		return nil, fmt.Errorf("list pending outbox events: %w", err)
	}
	return mapRows(rows, toOutboxEvent), nil
}

func (r *OutboxRepository) MarkPublished(ctx context.Context, id string, publishedAt time.Time) error {
	err := r.queries.MarkEventPublished(ctx, generated.MarkEventPublishedParams{
		ID:          id,
		PublishedAt: timeToPgTimestamptz(publishedAt),
	})
	if err != nil {
		return fmt.Errorf("mark outbox event %s published: %w", id, err)
	}
	return nil
}

// GetByAggregate pages through one aggregate's events, oldest first.
func (r *OutboxRepository) GetByAggregate(ctx context.Context, aggregateType, aggregateID string, limit, offset int) ([]*domain.OutboxEvent, error) {
	rows, err := r.queries.GetEventsByAggregate(ctx, generated.GetEventsByAggregateParams{
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		Limit:         int32(limit),
		Offset:        int32(offset),
	})
	if err != nil {
		return nil, fmt.Errorf("list %s %s events: %w", aggregateType, aggregateID, err)
	}
	return mapRows(rows, toOutboxEvent), nil
}

// DeletePublished drops relayed events published before the cutoff. Pending
// events are never removed.
func (r *OutboxRepository) DeletePublished(ctx context.Context, before time.Time) error {
	if err := r.queries.DeletePublishedEvents(ctx, timeToPgTimestamptz(before)); err != nil {
		return fmt.Errorf("purge published outbox events: %w", err)
	}
	return nil
}

func toOutboxEvent(row generated.OutboxEvent) *domain.OutboxEvent {
	event := &domain.OutboxEvent{
		ID:            row.ID,
		AggregateID:   row.AggregateID,
		AggregateType: row.AggregateType,
		EventType:     row.EventType,
		Payload:       json.RawMessage(row.Payload),
		CreatedAt:     row.CreatedAt.Time,
		Published:     row.Published,
	}
	if row.PublishedAt.Valid {
		at := row.PublishedAt.Time
		event.PublishedAt = &at
	}
	return event
}
