package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/resortstay/resort-booking/internal/domain"
	"github.com/resortstay/resort-booking/internal/dto"
)

// stubBookingService implements service.BookingService for the sweep loop
type stubBookingService struct {
	expireCalls  atomic.Int64
	expireErr    error
	lastTTL      time.Duration
	lastLimit    int
	expiredCount int
}

func (s *stubBookingService) CreateBooking(ctx context.Context, req *dto.CreateBookingRequest) (*domain.Booking, error) {
	return nil, errors.New("not implemented")
}

func (s *stubBookingService) ReserveInventory(ctx context.Context, bookingID string) ([]domain.InventoryReservation, error) {
	return nil, errors.New("not implemented")
}

func (s *stubBookingService) ConfirmBooking(ctx context.Context, bookingID string) (*domain.Booking, error) {
	return nil, errors.New("not implemented")
}

func (s *stubBookingService) CancelBooking(ctx context.Context, bookingID string) (*domain.Booking, error) {
	return nil, errors.New("not implemented")
}

func (s *stubBookingService) CompleteBooking(ctx context.Context, bookingID string) (*domain.Booking, error) {
	return nil, errors.New("not implemented")
}

func (s *stubBookingService) GetBooking(ctx context.Context, bookingID string) (*domain.Booking, error) {
	return nil, domain.ErrBookingNotFound
}

func (s *stubBookingService) GetBookingByReference(ctx context.Context, reference string) (*domain.Booking, error) {
	return nil, domain.ErrBookingNotFound
}

func (s *stubBookingService) ListByResort(ctx context.Context, resortID string, page, pageSize int) ([]*domain.Booking, error) {
	return nil, nil
}

func (s *stubBookingService) ExpirePending(ctx context.Context, olderThan time.Duration, limit int) (int, error) {
	s.expireCalls.Add(1)
	s.lastTTL = olderThan
	s.lastLimit = limit
	return s.expiredCount, s.expireErr
}

func TestNewExpiryWorker_IntervalFloor(t *testing.T) {
	w := NewExpiryWorker(&stubBookingService{}, 30*time.Minute)
	assert.Equal(t, 450*time.Second, w.interval)

	// short TTLs are floored to avoid hammering the database
	w = NewExpiryWorker(&stubBookingService{}, 20*time.Second)
	assert.Equal(t, 10*time.Second, w.interval)
}

func TestSweep_PassesTTLAndBatchSize(t *testing.T) {
	bookings := &stubBookingService{expiredCount: 3}
	w := NewExpiryWorker(bookings, 30*time.Minute)

	w.sweep(context.Background())

	assert.Equal(t, int64(1), bookings.expireCalls.Load())
	assert.Equal(t, 30*time.Minute, bookings.lastTTL)
	assert.Equal(t, defaultBatchSize, bookings.lastLimit)
}

func TestSweep_SurvivesServiceError(t *testing.T) {
	bookings := &stubBookingService{expireErr: errors.New("database is down")}
	w := NewExpiryWorker(bookings, 30*time.Minute)

	// an error sweep must not panic so the ticker loop keeps running
	assert.NotPanics(t, func() { w.sweep(context.Background()) })
	assert.Equal(t, int64(1), bookings.expireCalls.Load())
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	bookings := &stubBookingService{}
	w := NewExpiryWorker(bookings, time.Minute)
	w.interval = 5 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	// let at least one tick fire, then stop
	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop after context cancellation")
	}
	assert.Greater(t, bookings.expireCalls.Load(), int64(0))
}
