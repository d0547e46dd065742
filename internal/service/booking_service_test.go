package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/resortstay/resort-booking/internal/domain"
	"github.com/resortstay/resort-booking/internal/dto"
)

func stubRoomType() *domain.RoomType {
	return &domain.RoomType{
		ID:           "rt-1",
		ResortID:     "resort-1",
		Name:         "Ocean View Suite",
		MaxOccupancy: 3,
		TotalUnits:   10,
		Active:       true,
	}
}

func stubRatePlan() *domain.RatePlan {
	return &domain.RatePlan{
		ID:         "rp-1",
		RoomTypeID: "rt-1",
		ResortID:   "resort-1",
		Name:       "Standard",
		Active:     true,
	}
}

// stubPricing always quotes the same total
type stubPricing struct {
	quote *domain.Quote
	err   error
}

func (p *stubPricing) CalculateTotalPrice(ctx context.Context, ratePlanID string, checkIn, checkOut time.Time, units int) (*domain.Quote, error) {
	if p.err != nil {
		return nil, p.err
	}
	return p.quote, nil
}

func validCreateRequest() *dto.CreateBookingRequest {
	return &dto.CreateBookingRequest{
		ResortID:   "resort-1",
		RoomTypeID: "rt-1",
		RatePlanID: "rp-1",
		GuestName:  "Mika Tanaka",
		GuestEmail: "mika@example.com",
		CheckIn:    "2026-09-10",
		CheckOut:   "2026-09-13",
		Adults:     2,
		Children:   1,
		Units:      1,
	}
}

func TestCreateBooking(t *testing.T) {
	quote := &domain.Quote{RatePlanID: "rp-1", Total: 1680}

	tests := []struct {
		name       string
		req        *dto.CreateBookingRequest
		setupMocks func(*MockBookingRepository, *MockCatalogRepository)
		wantErr    error
		wantFields []string
	}{
		{
			name: "success",
			req:  validCreateRequest(),
			setupMocks: func(br *MockBookingRepository, cr *MockCatalogRepository) {
				cr.GetRoomTypeFunc = func(ctx context.Context, id string) (*domain.RoomType, error) {
					return stubRoomType(), nil
				}
				cr.GetRatePlanFunc = func(ctx context.Context, id string) (*domain.RatePlan, error) {
					return stubRatePlan(), nil
				}
			},
		},
		{
			name: "invalid dates",
			req: func() *dto.CreateBookingRequest {
				r := validCreateRequest()
				r.CheckIn = "2026-09-13"
				r.CheckOut = "2026-09-10"
				return r
			}(),
			wantFields: []string{"check_out"},
		},
		{
			name: "missing guest email",
			req: func() *dto.CreateBookingRequest {
				r := validCreateRequest()
				r.GuestEmail = "not-an-email"
				return r
			}(),
			wantFields: []string{"guest_email"},
		},
		{
			name: "units above cap",
			req: func() *dto.CreateBookingRequest {
				r := validCreateRequest()
				r.Units = 6
				return r
			}(),
			wantFields: []string{"units"},
		},
		{
			name: "occupancy exceeded",
			req: func() *dto.CreateBookingRequest {
				r := validCreateRequest()
				r.Adults = 3
				r.Children = 2
				return r
			}(),
			setupMocks: func(br *MockBookingRepository, cr *MockCatalogRepository) {
				cr.GetRoomTypeFunc = func(ctx context.Context, id string) (*domain.RoomType, error) {
					return stubRoomType(), nil
				}
			},
			wantErr: domain.ErrOccupancyExceeded,
		},
		{
			name: "rate plan belongs to another room type",
			req:  validCreateRequest(),
			setupMocks: func(br *MockBookingRepository, cr *MockCatalogRepository) {
				cr.GetRoomTypeFunc = func(ctx context.Context, id string) (*domain.RoomType, error) {
					return stubRoomType(), nil
				}
				cr.GetRatePlanFunc = func(ctx context.Context, id string) (*domain.RatePlan, error) {
					plan := stubRatePlan()
					plan.RoomTypeID = "rt-other"
					return plan, nil
				}
			},
			wantFields: []string{"rate_plan_id"},
		},
		{
			name: "room type not found",
			req:  validCreateRequest(),
			setupMocks: func(br *MockBookingRepository, cr *MockCatalogRepository) {
				cr.GetRoomTypeFunc = func(ctx context.Context, id string) (*domain.RoomType, error) {
					return nil, domain.ErrRoomTypeNotFound
				}
			},
			wantErr: domain.ErrRoomTypeNotFound,
		},
		{
			name: "inventory unavailable",
			req:  validCreateRequest(),
			setupMocks: func(br *MockBookingRepository, cr *MockCatalogRepository) {
				cr.GetRoomTypeFunc = func(ctx context.Context, id string) (*domain.RoomType, error) {
					return stubRoomType(), nil
				}
				cr.GetRatePlanFunc = func(ctx context.Context, id string) (*domain.RatePlan, error) {
					return stubRatePlan(), nil
				}
				br.CreateWithReservationFunc = func(ctx context.Context, booking *domain.Booking) error {
					return domain.ErrInventoryUnavailable
				}
			},
			wantErr: domain.ErrInventoryUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bookingRepo := &MockBookingRepository{}
			catalogRepo := &MockCatalogRepository{}
			if tt.setupMocks != nil {
				tt.setupMocks(bookingRepo, catalogRepo)
			}
			events := &CapturingEventPublisher{}
			svc := NewBookingService(bookingRepo, catalogRepo, &MockGuestRepository{}, &stubPricing{quote: quote}, events, nil, 5)

			booking, err := svc.CreateBooking(context.Background(), tt.req)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, booking)
				return
			}
			if len(tt.wantFields) > 0 {
				var fieldErr *FieldError
				require.ErrorAs(t, err, &fieldErr)
				for _, f := range tt.wantFields {
					assert.Contains(t, fieldErr.Fields, f)
				}
				return
			}

			require.NoError(t, err)
			require.NotNil(t, booking)
			assert.NotEmpty(t, booking.ID)
			assert.True(t, strings.HasPrefix(booking.Reference, "RB-"))
			assert.Equal(t, domain.BookingStatusPending, booking.Status)
			assert.Equal(t, "resort-1", booking.ResortID)
			assert.Equal(t, quote.Total, booking.TotalPrice)
			assert.Equal(t, []string{EventBookingCreated}, events.Types())
		})
	}
}

func TestCreateBooking_DefaultsUnitsToOne(t *testing.T) {
	catalogRepo := &MockCatalogRepository{
		GetRoomTypeFunc: func(ctx context.Context, id string) (*domain.RoomType, error) {
			return stubRoomType(), nil
		},
		GetRatePlanFunc: func(ctx context.Context, id string) (*domain.RatePlan, error) {
			return stubRatePlan(), nil
		},
	}
	var created *domain.Booking
	bookingRepo := &MockBookingRepository{
		CreateWithReservationFunc: func(ctx context.Context, booking *domain.Booking) error {
			created = booking
			return nil
		},
	}
	svc := NewBookingService(bookingRepo, catalogRepo, nil, &stubPricing{quote: &domain.Quote{Total: 100}}, nil, nil, 5)

	req := validCreateRequest()
	req.Units = 0
	_, err := svc.CreateBooking(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, created)
	assert.Equal(t, 1, created.Units)
}

func TestCreateBooking_GuestProfileFailureIsNonFatal(t *testing.T) {
	catalogRepo := &MockCatalogRepository{
		GetRoomTypeFunc: func(ctx context.Context, id string) (*domain.RoomType, error) {
			return stubRoomType(), nil
		},
		GetRatePlanFunc: func(ctx context.Context, id string) (*domain.RatePlan, error) {
			return stubRatePlan(), nil
		},
	}
	guestRepo := &MockGuestRepository{
		UpsertFunc: func(ctx context.Context, guest *domain.GuestProfile) error {
			return errors.New("profiles table is on fire")
		},
	}
	svc := NewBookingService(&MockBookingRepository{}, catalogRepo, guestRepo, &stubPricing{quote: &domain.Quote{Total: 100}}, nil, nil, 5)

	booking, err := svc.CreateBooking(context.Background(), validCreateRequest())
	require.NoError(t, err)
	assert.NotNil(t, booking)
}

func pendingBooking(id string) *domain.Booking {
	return &domain.Booking{
		ID:         id,
		Reference:  "RB-TESTREF1",
		ResortID:   "resort-1",
		RoomTypeID: "rt-1",
		RatePlanID: "rp-1",
		GuestName:  "Mika Tanaka",
		GuestEmail: "mika@example.com",
		CheckIn:    time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC),
		CheckOut:   time.Date(2026, 9, 13, 0, 0, 0, 0, time.UTC),
		Adults:     2,
		Units:      1,
		Status:     domain.BookingStatusPending,
		TotalPrice: 1680,
	}
}

func TestConfirmBooking(t *testing.T) {
	tests := []struct {
		name    string
		status  domain.BookingStatus
		wantErr error
	}{
		{"pending confirms", domain.BookingStatusPending, nil},
		{"already confirmed", domain.BookingStatusConfirmed, domain.ErrAlreadyConfirmed},
		{"already cancelled", domain.BookingStatusCancelled, domain.ErrAlreadyCancelled},
		{"already completed", domain.BookingStatusCompleted, domain.ErrAlreadyCompleted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var persisted *domain.Booking
			repo := &MockBookingRepository{
				GetByIDFunc: func(ctx context.Context, id string) (*domain.Booking, error) {
					b := pendingBooking(id)
					b.Status = tt.status
					return b, nil
				},
				UpdateStatusFunc: func(ctx context.Context, booking *domain.Booking) error {
					persisted = booking
					return nil
				},
			}
			events := &CapturingEventPublisher{}
			svc := NewBookingService(repo, nil, nil, nil, events, nil, 5)

			booking, err := svc.ConfirmBooking(context.Background(), "bk-1")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, persisted)
				assert.Empty(t, events.Types())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, domain.BookingStatusConfirmed, booking.Status)
			assert.NotNil(t, booking.ConfirmedAt)
			require.NotNil(t, persisted)
			assert.Equal(t, domain.BookingStatusConfirmed, persisted.Status)
			assert.Equal(t, []string{EventBookingConfirmed}, events.Types())
		})
	}
}

func TestCancelBooking(t *testing.T) {
	tests := []struct {
		name     string
		status   domain.BookingStatus
		wantErr  error
		released bool
	}{
		{"pending cancels", domain.BookingStatusPending, nil, true},
		{"confirmed cancels", domain.BookingStatusConfirmed, nil, true},
		{"already cancelled", domain.BookingStatusCancelled, domain.ErrAlreadyCancelled, false},
		{"already completed", domain.BookingStatusCompleted, domain.ErrAlreadyCompleted, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			released := false
			cancelled := false
			repo := &MockBookingRepository{
				GetByIDFunc: func(ctx context.Context, id string) (*domain.Booking, error) {
					b := pendingBooking(id)
					if cancelled {
						b.Status = domain.BookingStatusCancelled
						now := time.Now()
						b.CancelledAt = &now
					} else {
						b.Status = tt.status
					}
					return b, nil
				},
				CancelAndReleaseFunc: func(ctx context.Context, bookingID string, from ...domain.BookingStatus) error {
					released = true
					cancelled = true
					return nil
				},
			}
			events := &CapturingEventPublisher{}
			svc := NewBookingService(repo, nil, nil, nil, events, nil, 5)

			booking, err := svc.CancelBooking(context.Background(), "bk-1")
			assert.Equal(t, tt.released, released)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, events.Types())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, domain.BookingStatusCancelled, booking.Status)
			assert.Equal(t, []string{EventBookingCancelled}, events.Types())
		})
	}
}

func TestCancelBooking_NotFound(t *testing.T) {
	svc := NewBookingService(&MockBookingRepository{}, nil, nil, nil, nil, nil, 5)
	_, err := svc.CancelBooking(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrBookingNotFound)

	_, err = svc.CancelBooking(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrInvalidBookingID)
}

func TestReserveInventory(t *testing.T) {
	night := time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC)
	rows := []domain.InventoryReservation{
		{ID: "res-1", BookingID: "bk-1", RoomTypeID: "rt-1", Night: night, Units: 1},
		{ID: "res-2", BookingID: "bk-1", RoomTypeID: "rt-1", Night: night.AddDate(0, 0, 1), Units: 1},
	}

	calls := 0
	repo := &MockBookingRepository{
		EnsureReservationFunc: func(ctx context.Context, bookingID string) ([]domain.InventoryReservation, error) {
			calls++
			return rows, nil
		},
	}
	svc := NewBookingService(repo, nil, nil, nil, nil, nil, 5)

	// repeated calls return the same rows without error
	for i := 0; i < 2; i++ {
		got, err := svc.ReserveInventory(context.Background(), "bk-1")
		require.NoError(t, err)
		assert.Equal(t, rows, got)
	}
	assert.Equal(t, 2, calls)

	_, err := svc.ReserveInventory(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrInvalidBookingID)
}

func TestGetBookingByReference(t *testing.T) {
	repo := &MockBookingRepository{
		GetByReferenceFunc: func(ctx context.Context, reference string) (*domain.Booking, error) {
			if reference != "RB-TESTREF1" {
				return nil, domain.ErrBookingNotFound
			}
			return pendingBooking("bk-1"), nil
		},
	}
	svc := NewBookingService(repo, nil, nil, nil, nil, nil, 5)

	// lookup normalizes case and surrounding whitespace
	booking, err := svc.GetBookingByReference(context.Background(), "  rb-testref1 ")
	require.NoError(t, err)
	assert.Equal(t, "bk-1", booking.ID)

	_, err = svc.GetBookingByReference(context.Background(), "   ")
	assert.ErrorIs(t, err, domain.ErrInvalidReference)
}

func TestExpirePending(t *testing.T) {
	stale := []*domain.Booking{
		pendingBooking("bk-1"),
		pendingBooking("bk-2"),
		pendingBooking("bk-3"),
	}

	var releasedIDs []string
	repo := &MockBookingRepository{
		ExpiredPendingFunc: func(ctx context.Context, cutoff time.Time, limit int) ([]*domain.Booking, error) {
			assert.True(t, cutoff.Before(time.Now()))
			return stale, nil
		},
		CancelAndReleaseFunc: func(ctx context.Context, bookingID string, from ...domain.BookingStatus) error {
			// the sweep may only take still-pending bookings
			assert.Equal(t, []domain.BookingStatus{domain.BookingStatusPending}, from)
			if bookingID == "bk-2" {
				// raced by another worker
				return domain.ErrBookingNotFound
			}
			releasedIDs = append(releasedIDs, bookingID)
			return nil
		},
	}
	events := &CapturingEventPublisher{}
	svc := NewBookingService(repo, nil, nil, nil, events, nil, 5)

	expired, err := svc.ExpirePending(context.Background(), 30*time.Minute, 100)
	require.NoError(t, err)
	assert.Equal(t, 2, expired)
	assert.Equal(t, []string{"bk-1", "bk-3"}, releasedIDs)
	assert.Equal(t, []string{EventBookingExpired, EventBookingExpired}, events.Types())
}

func TestNewBookingReference(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		ref := newBookingReference()
		require.Len(t, ref, 11)
		require.True(t, strings.HasPrefix(ref, "RB-"))
		for _, c := range ref[3:] {
			assert.Contains(t, referenceAlphabet, string(c))
		}
		seen[ref] = true
	}
	// 32^8 combinations; 100 draws colliding would mean a broken generator
	assert.Greater(t, len(seen), 95)
}
