package eventpublisher

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/banksaga/internal/domain"
	"github.com/iho/banksaga/internal/infrastructure/metrics"
	"github.com/iho/banksaga/internal/usecase"
)

// EventPublisher relays outbox events to the message fabric.
type EventPublisher struct {
	outboxRepo    usecase.OutboxRepository
	publisher     Publisher
	metrics       *metrics.Metrics
	logger        zerolog.Logger
	batchSize     int
	interval      time.Duration
	retention     time.Duration
	purgeInterval time.Duration
	now           func() time.Time
}

// Publisher defines the interface for publishing events to external systems.
type Publisher interface {
	Publish(ctx context.Context, event *domain.OutboxEvent) error
}

// Config for EventPublisher.
type Config struct {
	OutboxRepo usecase.OutboxRepository
	Publisher  Publisher
	Metrics    *metrics.Metrics
	Logger     zerolog.Logger
	BatchSize  int           // Number of events to fetch per batch
	Interval   time.Duration // Polling interval
	Retention  time.Duration // How long published rows are kept; zero keeps them forever
}

// NewEventPublisher creates a new EventPublisher.
func NewEventPublisher(cfg Config) *EventPublisher {
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 100
	}
	if cfg.Interval == 0 {
		cfg.Interval = 5 * time.Second
	}

	return &EventPublisher{
		outboxRepo:    cfg.OutboxRepo,
		publisher:     cfg.Publisher,
		metrics:       cfg.Metrics,
		logger:        cfg.Logger.With().Str("component", "outbox_relay").Logger(),
		batchSize:     cfg.BatchSize,
		interval:      cfg.Interval,
		retention:     cfg.Retention,
		purgeInterval: time.Hour,
		now:           time.Now,
	}
}

// Start begins the event publishing worker.
// It runs continuously until the context is cancelled.
func (ep *EventPublisher) Start(ctx context.Context) error {
	ep.logger.Info().
		Int("batch_size", ep.batchSize).
		Dur("interval", ep.interval).
		Dur("retention", ep.retention).
		Msg("event publisher started")

	ticker := time.NewTicker(ep.interval)
	defer ticker.Stop()

	var purge <-chan time.Time
	if ep.retention > 0 {
		purgeTicker := time.NewTicker(ep.purgeInterval)
		defer purgeTicker.Stop()
		purge = purgeTicker.C
	}

	// Process immediately on start
	if err := ep.processEvents(ctx); err != nil {
		ep.logger.Error().Err(err).Msg("error processing events on start")
	}

	for {
		select {
		case <-ctx.Done():
			ep.logger.Info().Msg("event publisher shutting down")
			return ctx.Err()
		case <-ticker.C:
			if err := ep.processEvents(ctx); err != nil {
				ep.logger.Error().Err(err).Msg("error processing events")
			}
		case <-purge:
			if err := ep.purgePublished(ctx); err != nil {
				ep.logger.Error().Err(err).Msg("error purging published events")
			}
		}
	}
}

// processEvents fetches and publishes a batch of unpublished events.
func (ep *EventPublisher) processEvents(ctx context.Context) error {
	events, err := ep.outboxRepo.GetUnpublished(ctx, ep.batchSize)
	if err != nil {
		return err
	}

	if len(events) == 0 {
		return nil
	}

	ep.logger.Debug().Int("count", len(events)).Msg("processing events")

	for _, event := range events {
		if err := ep.publisher.Publish(ctx, event); err != nil {
			ep.observe(event, false)
			ep.logger.Error().
				Err(err).
				Str("event_id", event.ID).
				Str("event_type", event.EventType).
				Str("aggregate_id", event.AggregateID).
				Msg("failed to publish event")
			// Left unpublished; the next tick retries it.
			continue
		}
		ep.observe(event, true)

		if err := ep.outboxRepo.MarkPublished(ctx, event.ID, ep.now()); err != nil {
			// Consumers dedupe, so a second publish on the next tick is harmless.
			ep.logger.Error().
				Err(err).
				Str("event_id", event.ID).
				Msg("failed to mark event as published")
			continue
		}

		ep.logger.Debug().
			Str("event_id", event.ID).
			Str("event_type", event.EventType).
			Str("aggregate_id", event.AggregateID).
			Msg("event published")
	}

	return nil
}

func (ep *EventPublisher) purgePublished(ctx context.Context) error {
	return ep.outboxRepo.DeletePublished(ctx, ep.now().Add(-ep.retention))
}

func (ep *EventPublisher) observe(event *domain.OutboxEvent, ok bool) {
	if ep.metrics == nil {
		return
	}
	if ok {
		ep.metrics.OutboxPublished.WithLabelValues(event.EventType).Inc()
		ep.metrics.OutboxLag.Observe(ep.now().Sub(event.CreatedAt).Seconds())
		return
	}
	ep.metrics.OutboxFailures.WithLabelValues(event.EventType).Inc()
}
