package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/resortstay/resort-booking/internal/domain"
	"github.com/resortstay/resort-booking/pkg/logger"
	"github.com/resortstay/resort-booking/pkg/retry"
	"github.com/resortstay/resort-booking/pkg/telemetry"
)

// Booking lifecycle event types
const (
	EventBookingCreated   = "booking.created"
	EventBookingConfirmed = "booking.confirmed"
	EventBookingCancelled = "booking.cancelled"
	EventBookingCompleted = "booking.completed"
	EventBookingExpired   = "booking.expired"
)

// BookingEvent is the payload published on booking lifecycle transitions
type BookingEvent struct {
	Type       string    `json:"type"`
	BookingID  string    `json:"booking_id"`
	Reference  string    `json:"reference"`
	ResortID   string    `json:"resort_id"`
	RoomTypeID string    `json:"room_type_id"`
	Status     string    `json:"status"`
	TotalPrice float64   `json:"total_price"`
	OccurredAt time.Time `json:"occurred_at"`
}

// EventPublisher publishes booking lifecycle events. Publishing is
// best-effort: callers log failures but never fail the booking operation.
type EventPublisher interface {
	Publish(ctx context.Context, event *BookingEvent) error
}

// RedisEventPublisher appends booking events to a Redis stream
type RedisEventPublisher struct {
	client *redis.Client
	stream string
	maxLen int64
}

// NewRedisEventPublisher creates a publisher writing to the given stream
func NewRedisEventPublisher(client *redis.Client, stream string) *RedisEventPublisher {
	return &RedisEventPublisher{
		client: client,
		stream: stream,
		maxLen: 100000,
	}
}

// Publish appends the event to the stream
func (p *RedisEventPublisher) Publish(ctx context.Context, event *BookingEvent) error {
	ctx, span := telemetry.StartSpan(ctx, "events.publish")
	defer span.End()

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	err = p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		MaxLen: p.maxLen,
		Approx: true,
		Values: map[string]interface{}{
			"type":    event.Type,
			"payload": string(payload),
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

// RetryingEventPublisher wraps a publisher with short backoff retries and
// parks events whose retries are exhausted on a dead-letter stream, so a
// Redis hiccup does not silently lose lifecycle events.
type RetryingEventPublisher struct {
	inner   EventPublisher
	stream  string
	retrier *retry.Retrier
	dlq     retry.DeadLetterSink
}

// NewRetryingEventPublisher decorates inner. A nil config uses intervals
// short enough for the synchronous publish path; a nil sink discards
// exhausted events after logging.
func NewRetryingEventPublisher(inner EventPublisher, stream string, config *retry.Config, dlq retry.DeadLetterSink) *RetryingEventPublisher {
	if config == nil {
		config = &retry.Config{
			MaxRetries:      2,
			InitialInterval: 50 * time.Millisecond,
			MaxInterval:     200 * time.Millisecond,
			Multiplier:      2.0,
			JitterFactor:    0.1,
		}
	}
	if dlq == nil {
		dlq = retry.NoopDeadLetterSink{}
	}
	return &RetryingEventPublisher{
		inner:   inner,
		stream:  stream,
		retrier: retry.New(config),
		dlq:     dlq,
	}
}

// Publish retries the inner publish and parks the event on exhaustion
func (p *RetryingEventPublisher) Publish(ctx context.Context, event *BookingEvent) error {
	firstFailed := time.Now().UTC()
	result := p.retrier.Do(ctx, func(ctx context.Context) error {
		return p.inner.Publish(ctx, event)
	})
	if result.Err == nil {
		return nil
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal dead event: %w", err)
	}
	letter := &retry.DeadLetter{
		ID:          event.BookingID,
		Stream:      p.stream,
		Payload:     payload,
		Error:       result.LastError.Error(),
		Attempts:    result.Attempts,
		FirstFailed: firstFailed,
	}
	if parkErr := p.dlq.Park(ctx, letter); parkErr != nil {
		logger.Get().WithContext(ctx).Error("failed to park booking event",
			zap.String("type", event.Type),
			zap.String("booking_id", event.BookingID),
			zap.Error(parkErr),
		)
	}
	return result.Err
}

// NoopEventPublisher discards events, for tests and event-less deployments
type NoopEventPublisher struct{}

// Publish discards the event
func (NoopEventPublisher) Publish(ctx context.Context, event *BookingEvent) error {
	return nil
}

// newBookingEvent builds the payload for a lifecycle transition
func newBookingEvent(eventType string, booking *domain.Booking) *BookingEvent {
	return &BookingEvent{
		Type:       eventType,
		BookingID:  booking.ID,
		Reference:  booking.Reference,
		ResortID:   booking.ResortID,
		RoomTypeID: booking.RoomTypeID,
		Status:     booking.Status.String(),
		TotalPrice: booking.TotalPrice,
		OccurredAt: time.Now().UTC(),
	}
}

// publishEvent publishes without failing the caller
func publishEvent(ctx context.Context, publisher EventPublisher, event *BookingEvent) {
	if publisher == nil {
		return
	}
	if err := publisher.Publish(ctx, event); err != nil {
		logger.Get().Warn("failed to publish booking event",
			zap.String("type", event.Type),
			zap.String("booking_id", event.BookingID),
			zap.Error(err),
		)
	}
}
