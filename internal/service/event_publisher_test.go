package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/resortstay/resort-booking/pkg/retry"
)

// flakyPublisher fails the first failures calls and then succeeds
type flakyPublisher struct {
	failures int
	calls    int
}

func (p *flakyPublisher) Publish(ctx context.Context, event *BookingEvent) error {
	p.calls++
	if p.calls <= p.failures {
		return errors.New("stream unavailable")
	}
	return nil
}

// captureSink records parked dead letters
type captureSink struct {
	letters []*retry.DeadLetter
}

func (s *captureSink) Park(ctx context.Context, letter *retry.DeadLetter) error {
	s.letters = append(s.letters, letter)
	return nil
}

func fastRetryConfig() *retry.Config {
	return &retry.Config{
		MaxRetries:      2,
		InitialInterval: time.Millisecond,
		MaxInterval:     5 * time.Millisecond,
		Multiplier:      2.0,
	}
}

func sampleEvent() *BookingEvent {
	return &BookingEvent{
		Type:       EventBookingCreated,
		BookingID:  "bk-1",
		Reference:  "RB-TESTREF1",
		ResortID:   "resort-1",
		RoomTypeID: "rt-1",
		Status:     "pending",
		TotalPrice: 1500,
		OccurredAt: time.Now().UTC(),
	}
}

func TestRetryingPublisher_RecoversFromTransientFailure(t *testing.T) {
	inner := &flakyPublisher{failures: 2}
	sink := &captureSink{}
	publisher := NewRetryingEventPublisher(inner, "bookings.events", fastRetryConfig(), sink)

	err := publisher.Publish(context.Background(), sampleEvent())

	require.NoError(t, err)
	assert.Equal(t, 3, inner.calls)
	assert.Empty(t, sink.letters, "recovered events are not parked")
}

func TestRetryingPublisher_ParksExhaustedEvent(t *testing.T) {
	inner := &flakyPublisher{failures: 10}
	sink := &captureSink{}
	publisher := NewRetryingEventPublisher(inner, "bookings.events", fastRetryConfig(), sink)

	err := publisher.Publish(context.Background(), sampleEvent())

	assert.ErrorIs(t, err, retry.ErrMaxRetriesExceeded)
	assert.Equal(t, 3, inner.calls)

	require.Len(t, sink.letters, 1)
	letter := sink.letters[0]
	assert.Equal(t, "bk-1", letter.ID)
	assert.Equal(t, "bookings.events", letter.Stream)
	assert.Equal(t, 3, letter.Attempts)
	assert.Equal(t, "stream unavailable", letter.Error)

	// the parked payload round-trips back to the event
	parked := &BookingEvent{}
	require.NoError(t, json.Unmarshal(letter.Payload, parked))
	assert.Equal(t, EventBookingCreated, parked.Type)
	assert.Equal(t, "RB-TESTREF1", parked.Reference)
}

func TestRetryingPublisher_NilSinkDiscards(t *testing.T) {
	inner := &flakyPublisher{failures: 10}
	publisher := NewRetryingEventPublisher(inner, "bookings.events", fastRetryConfig(), nil)

	err := publisher.Publish(context.Background(), sampleEvent())
	assert.ErrorIs(t, err, retry.ErrMaxRetriesExceeded)
}
