package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/resortstay/resort-booking/internal/domain"
	"github.com/resortstay/resort-booking/internal/dto"
	"github.com/resortstay/resort-booking/internal/service"
	"github.com/resortstay/resort-booking/pkg/response"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// stubBookingService is a function-field stub of service.BookingService
type stubBookingService struct {
	CreateBookingFunc         func(ctx context.Context, req *dto.CreateBookingRequest) (*domain.Booking, error)
	ReserveInventoryFunc      func(ctx context.Context, bookingID string) ([]domain.InventoryReservation, error)
	ConfirmBookingFunc        func(ctx context.Context, bookingID string) (*domain.Booking, error)
	CancelBookingFunc         func(ctx context.Context, bookingID string) (*domain.Booking, error)
	CompleteBookingFunc       func(ctx context.Context, bookingID string) (*domain.Booking, error)
	GetBookingFunc            func(ctx context.Context, bookingID string) (*domain.Booking, error)
	GetBookingByReferenceFunc func(ctx context.Context, reference string) (*domain.Booking, error)
	ListByResortFunc          func(ctx context.Context, resortID string, page, pageSize int) ([]*domain.Booking, error)
	ExpirePendingFunc         func(ctx context.Context, olderThan time.Duration, limit int) (int, error)
}

func (s *stubBookingService) CreateBooking(ctx context.Context, req *dto.CreateBookingRequest) (*domain.Booking, error) {
	if s.CreateBookingFunc != nil {
		return s.CreateBookingFunc(ctx, req)
	}
	return nil, errors.New("not implemented")
}

func (s *stubBookingService) ReserveInventory(ctx context.Context, bookingID string) ([]domain.InventoryReservation, error) {
	if s.ReserveInventoryFunc != nil {
		return s.ReserveInventoryFunc(ctx, bookingID)
	}
	return nil, errors.New("not implemented")
}

func (s *stubBookingService) ConfirmBooking(ctx context.Context, bookingID string) (*domain.Booking, error) {
	if s.ConfirmBookingFunc != nil {
		return s.ConfirmBookingFunc(ctx, bookingID)
	}
	return nil, errors.New("not implemented")
}

func (s *stubBookingService) CancelBooking(ctx context.Context, bookingID string) (*domain.Booking, error) {
	if s.CancelBookingFunc != nil {
		return s.CancelBookingFunc(ctx, bookingID)
	}
	return nil, errors.New("not implemented")
}

func (s *stubBookingService) CompleteBooking(ctx context.Context, bookingID string) (*domain.Booking, error) {
	if s.CompleteBookingFunc != nil {
		return s.CompleteBookingFunc(ctx, bookingID)
	}
	return nil, errors.New("not implemented")
}

func (s *stubBookingService) GetBooking(ctx context.Context, bookingID string) (*domain.Booking, error) {
	if s.GetBookingFunc != nil {
		return s.GetBookingFunc(ctx, bookingID)
	}
	return nil, errors.New("not implemented")
}

func (s *stubBookingService) GetBookingByReference(ctx context.Context, reference string) (*domain.Booking, error) {
	if s.GetBookingByReferenceFunc != nil {
		return s.GetBookingByReferenceFunc(ctx, reference)
	}
	return nil, errors.New("not implemented")
}

func (s *stubBookingService) ListByResort(ctx context.Context, resortID string, page, pageSize int) ([]*domain.Booking, error) {
	if s.ListByResortFunc != nil {
		return s.ListByResortFunc(ctx, resortID, page, pageSize)
	}
	return nil, errors.New("not implemented")
}

func (s *stubBookingService) ExpirePending(ctx context.Context, olderThan time.Duration, limit int) (int, error) {
	if s.ExpirePendingFunc != nil {
		return s.ExpirePendingFunc(ctx, olderThan, limit)
	}
	return 0, errors.New("not implemented")
}

func bookingRouter(svc service.BookingService) *gin.Engine {
	h := NewBookingHandler(svc)
	router := gin.New()
	router.POST("/bookings", h.Create)
	router.GET("/bookings/:id", h.Get)
	router.GET("/bookings/reference/:reference", h.GetByReference)
	router.POST("/bookings/:id/confirm", h.Confirm)
	router.POST("/bookings/:id/cancel", h.Cancel)
	router.POST("/bookings/:id/reserve", h.Reserve)
	return router
}

func sampleBooking() *domain.Booking {
	return &domain.Booking{
		ID:         "bk-1",
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

func createPayload() []byte {
	raw, _ := json.Marshal(map[string]interface{}{
		"resort_id":    "resort-1",
		"room_type_id": "rt-1",
		"rate_plan_id": "rp-1",
		"guest_name":   "Mika Tanaka",
		"guest_email":  "mika@example.com",
		"check_in":     "2026-09-10",
		"check_out":    "2026-09-13",
		"adults":       2,
	})
	return raw
}

func TestBookingCreate(t *testing.T) {
	tests := []struct {
		name       string
		body       []byte
		serviceErr error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "created",
			body:       createPayload(),
			wantStatus: http.StatusCreated,
		},
		{
			name:       "malformed body",
			body:       []byte("{not json"),
			wantStatus: http.StatusBadRequest,
			wantCode:   "BAD_REQUEST",
		},
		{
			name:       "field validation",
			body:       createPayload(),
			serviceErr: &service.FieldError{Fields: map[string]string{"check_out": "must be after check_in"}},
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   "VALIDATION_FAILED",
		},
		{
			name:       "occupancy exceeded",
			body:       createPayload(),
			serviceErr: domain.ErrOccupancyExceeded,
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   "VALIDATION_FAILED",
		},
		{
			name:       "room type missing",
			body:       createPayload(),
			serviceErr: domain.ErrRoomTypeNotFound,
			wantStatus: http.StatusNotFound,
			wantCode:   "NOT_FOUND",
		},
		{
			name:       "sold out",
			body:       createPayload(),
			serviceErr: domain.ErrInventoryUnavailable,
			wantStatus: http.StatusConflict,
			wantCode:   "INVENTORY_UNAVAILABLE",
		},
		{
			name:       "no applicable rate",
			body:       createPayload(),
			serviceErr: domain.ErrNoApplicableRate,
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   "VALIDATION_FAILED",
		},
		{
			name:       "unexpected failure",
			body:       createPayload(),
			serviceErr: errors.New("pool exhausted"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   "INTERNAL_ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubBookingService{
				CreateBookingFunc: func(ctx context.Context, req *dto.CreateBookingRequest) (*domain.Booking, error) {
					if tt.serviceErr != nil {
						return nil, tt.serviceErr
					}
					return sampleBooking(), nil
				},
			}
			router := bookingRouter(svc)

			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/bookings", bytes.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantCode != "" {
				var body response.ErrorEnvelope
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
				assert.Equal(t, tt.wantCode, body.Error)
			}
		})
	}
}

func TestBookingCreate_ResponseBody(t *testing.T) {
	svc := &stubBookingService{
		CreateBookingFunc: func(ctx context.Context, req *dto.CreateBookingRequest) (*domain.Booking, error) {
			return sampleBooking(), nil
		},
	}
	router := bookingRouter(svc)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/bookings", bytes.NewReader(createPayload()))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)

	var envelope struct {
		Success bool                `json:"success"`
		Data    dto.BookingResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.True(t, envelope.Success)
	assert.Equal(t, "bk-1", envelope.Data.ID)
	assert.Equal(t, "RB-TESTREF1", envelope.Data.Reference)
	assert.Equal(t, "2026-09-10", envelope.Data.CheckIn)
	assert.Equal(t, "2026-09-13", envelope.Data.CheckOut)
	assert.Equal(t, "pending", envelope.Data.Status)
	assert.Equal(t, 1680.0, envelope.Data.TotalPrice)
}

func TestBookingCancel(t *testing.T) {
	tests := []struct {
		name       string
		serviceErr error
		wantStatus int
		wantCode   string
	}{
		{"cancelled", nil, http.StatusOK, ""},
		{"not found", domain.ErrBookingNotFound, http.StatusNotFound, "NOT_FOUND"},
		{"already cancelled", domain.ErrAlreadyCancelled, http.StatusConflict, "CONFLICT"},
		{"already completed", domain.ErrAlreadyCompleted, http.StatusConflict, "CONFLICT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubBookingService{
				CancelBookingFunc: func(ctx context.Context, bookingID string) (*domain.Booking, error) {
					if tt.serviceErr != nil {
						return nil, tt.serviceErr
					}
					b := sampleBooking()
					b.Status = domain.BookingStatusCancelled
					return b, nil
				},
			}
			router := bookingRouter(svc)

			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/bookings/bk-1/cancel", nil)
			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantCode != "" {
				var body response.ErrorEnvelope
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
				assert.Equal(t, tt.wantCode, body.Error)
			}
		})
	}
}

func TestBookingReserve(t *testing.T) {
	night := time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC)
	svc := &stubBookingService{
		ReserveInventoryFunc: func(ctx context.Context, bookingID string) ([]domain.InventoryReservation, error) {
			assert.Equal(t, "bk-1", bookingID)
			return []domain.InventoryReservation{
				{ID: "res-1", BookingID: bookingID, RoomTypeID: "rt-1", Night: night, Units: 1},
			}, nil
		},
	}
	router := bookingRouter(svc)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/bookings/bk-1/reserve", nil)
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var envelope struct {
		Data struct {
			BookingID    string                         `json:"booking_id"`
			Reservations []domain.InventoryReservation `json:"reservations"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "bk-1", envelope.Data.BookingID)
	require.Len(t, envelope.Data.Reservations, 1)
	assert.Equal(t, "res-1", envelope.Data.Reservations[0].ID)
}

func TestBookingReserve_TerminalBooking(t *testing.T) {
	svc := &stubBookingService{
		ReserveInventoryFunc: func(ctx context.Context, bookingID string) ([]domain.InventoryReservation, error) {
			return nil, domain.ErrInvalidStatus
		},
	}
	router := bookingRouter(svc)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/bookings/bk-1/reserve", nil)
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestBookingGetByReference(t *testing.T) {
	svc := &stubBookingService{
		GetBookingByReferenceFunc: func(ctx context.Context, reference string) (*domain.Booking, error) {
			if reference != "RB-TESTREF1" {
				return nil, domain.ErrBookingNotFound
			}
			return sampleBooking(), nil
		},
	}
	router := bookingRouter(svc)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/bookings/reference/RB-TESTREF1", nil)
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/bookings/reference/RB-UNKNOWN1", nil)
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
