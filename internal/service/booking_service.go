package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/resortstay/resort-booking/internal/domain"
	"github.com/resortstay/resort-booking/internal/dto"
	"github.com/resortstay/resort-booking/internal/metrics"
	"github.com/resortstay/resort-booking/internal/repository"
	"github.com/resortstay/resort-booking/pkg/logger"
	"github.com/resortstay/resort-booking/pkg/telemetry"
)

// BookingService drives the booking lifecycle: creation with atomic
// inventory reservation, confirmation, cancellation with release, completion
// and pending-booking expiry.
type BookingService interface {
	CreateBooking(ctx context.Context, req *dto.CreateBookingRequest) (*domain.Booking, error)

	// ReserveInventory idempotently ensures the reservation rows of an
	// existing booking and returns them.
	ReserveInventory(ctx context.Context, bookingID string) ([]domain.InventoryReservation, error)

	ConfirmBooking(ctx context.Context, bookingID string) (*domain.Booking, error)
	CancelBooking(ctx context.Context, bookingID string) (*domain.Booking, error)
	CompleteBooking(ctx context.Context, bookingID string) (*domain.Booking, error)

	GetBooking(ctx context.Context, bookingID string) (*domain.Booking, error)
	GetBookingByReference(ctx context.Context, reference string) (*domain.Booking, error)
	ListByResort(ctx context.Context, resortID string, page, pageSize int) ([]*domain.Booking, error)

	// ExpirePending cancels pending bookings older than the hold TTL and
	// returns how many were expired.
	ExpirePending(ctx context.Context, olderThan time.Duration, limit int) (int, error)
}

type bookingService struct {
	bookingRepo repository.BookingRepository
	catalogRepo repository.CatalogRepository
	guestRepo   repository.GuestRepository
	pricing     PricingService
	events      EventPublisher
	metrics     *metrics.BookingMetrics
	maxUnits    int
}

// NewBookingService creates a new BookingService
func NewBookingService(
	bookingRepo repository.BookingRepository,
	catalogRepo repository.CatalogRepository,
	guestRepo repository.GuestRepository,
	pricing PricingService,
	events EventPublisher,
	bookingMetrics *metrics.BookingMetrics,
	maxUnitsPerBooking int,
) BookingService {
	if maxUnitsPerBooking < 1 {
		maxUnitsPerBooking = 1
	}
	return &bookingService{
		bookingRepo: bookingRepo,
		catalogRepo: catalogRepo,
		guestRepo:   guestRepo,
		pricing:     pricing,
		events:      events,
		metrics:     bookingMetrics,
		maxUnits:    maxUnitsPerBooking,
	}
}

func (s *bookingService) CreateBooking(ctx context.Context, req *dto.CreateBookingRequest) (*domain.Booking, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.booking.create")
	defer span.End()

	checkIn, checkOut, fields := req.Validate()
	if fields != nil {
		return nil, validationError(fields)
	}
	if req.Units == 0 {
		req.Units = 1
	}
	if req.Units > s.maxUnits {
		return nil, validationError(map[string]string{
			"units": fmt.Sprintf("cannot exceed %d per booking", s.maxUnits),
		})
	}

	roomType, err := s.catalogRepo.GetRoomType(ctx, req.RoomTypeID)
	if err != nil {
		return nil, err
	}
	if req.Adults+req.Children > roomType.MaxOccupancy*req.Units {
		return nil, domain.ErrOccupancyExceeded
	}

	plan, err := s.catalogRepo.GetRatePlan(ctx, req.RatePlanID)
	if err != nil {
		return nil, err
	}
	if plan.RoomTypeID != roomType.ID {
		return nil, validationError(map[string]string{
			"rate_plan_id": "does not belong to the requested room type",
		})
	}

	quote, err := s.pricing.CalculateTotalPrice(ctx, plan.ID, checkIn, checkOut, req.Units)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	booking := &domain.Booking{
		ID:         uuid.New().String(),
		Reference:  newBookingReference(),
		ResortID:   roomType.ResortID,
		RoomTypeID: roomType.ID,
		RatePlanID: plan.ID,
		GuestName:  strings.TrimSpace(req.GuestName),
		GuestEmail: strings.TrimSpace(req.GuestEmail),
		GuestPhone: strings.TrimSpace(req.GuestPhone),
		CheckIn:    domain.Night(checkIn),
		CheckOut:   domain.Night(checkOut),
		Adults:     req.Adults,
		Children:   req.Children,
		Units:      req.Units,
		Status:     domain.BookingStatusPending,
		TotalPrice: quote.Total,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := booking.Validate(); err != nil {
		return nil, err
	}

	span.SetAttributes(
		attribute.String("booking_id", booking.ID),
		attribute.String("room_type_id", booking.RoomTypeID),
		attribute.Int("units", booking.Units),
	)

	if err := s.bookingRepo.CreateWithReservation(ctx, booking); err != nil {
		if errors.Is(err, domain.ErrInventoryUnavailable) && s.metrics != nil {
			s.metrics.Inc(ctx, s.metrics.InventoryConflicts)
		}
		return nil, err
	}

	s.upsertGuestProfile(ctx, booking)

	if s.metrics != nil {
		s.metrics.Inc(ctx, s.metrics.BookingsCreated)
	}
	publishEvent(ctx, s.events, newBookingEvent(EventBookingCreated, booking))

	logger.Get().WithContext(ctx).Info("booking created",
		zap.String("booking_id", booking.ID),
		zap.String("reference", booking.Reference),
		zap.Float64("total_price", booking.TotalPrice),
	)
	return booking, nil
}

// upsertGuestProfile records the guest for future stays. Best-effort; a
// profile failure never fails the booking.
func (s *bookingService) upsertGuestProfile(ctx context.Context, booking *domain.Booking) {
	if s.guestRepo == nil {
		return
	}
	now := time.Now().UTC()
	guest := &domain.GuestProfile{
		ID:        uuid.New().String(),
		Name:      booking.GuestName,
		Email:     booking.GuestEmail,
		Phone:     booking.GuestPhone,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.guestRepo.Upsert(ctx, guest); err != nil {
		logger.Get().WithContext(ctx).Warn("failed to upsert guest profile",
			zap.String("guest_email", booking.GuestEmail),
			zap.Error(err),
		)
	}
}

func (s *bookingService) ReserveInventory(ctx context.Context, bookingID string) ([]domain.InventoryReservation, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.booking.reserve_inventory")
	defer span.End()

	if bookingID == "" {
		return nil, domain.ErrInvalidBookingID
	}
	span.SetAttributes(attribute.String("booking_id", bookingID))

	return s.bookingRepo.EnsureReservation(ctx, bookingID)
}

func (s *bookingService) ConfirmBooking(ctx context.Context, bookingID string) (*domain.Booking, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.booking.confirm")
	defer span.End()

	booking, err := s.transition(ctx, bookingID, func(b *domain.Booking) error { return b.Confirm() })
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.Inc(ctx, s.metrics.BookingsConfirmed)
	}
	publishEvent(ctx, s.events, newBookingEvent(EventBookingConfirmed, booking))
	return booking, nil
}

func (s *bookingService) CancelBooking(ctx context.Context, bookingID string) (*domain.Booking, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.booking.cancel")
	defer span.End()

	if bookingID == "" {
		return nil, domain.ErrInvalidBookingID
	}
	span.SetAttributes(attribute.String("booking_id", bookingID))

	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	// surfaces the precise already-cancelled/completed sentinel before any
	// write happens
	if err := booking.Cancel(); err != nil {
		return nil, err
	}

	if err := s.bookingRepo.CancelAndRelease(ctx, bookingID); err != nil {
		return nil, err
	}

	booking, err = s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.Inc(ctx, s.metrics.BookingsCancelled)
	}
	publishEvent(ctx, s.events, newBookingEvent(EventBookingCancelled, booking))

	logger.Get().WithContext(ctx).Info("booking cancelled",
		zap.String("booking_id", booking.ID),
		zap.String("reference", booking.Reference),
	)
	return booking, nil
}

func (s *bookingService) CompleteBooking(ctx context.Context, bookingID string) (*domain.Booking, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.booking.complete")
	defer span.End()

	booking, err := s.transition(ctx, bookingID, func(b *domain.Booking) error { return b.Complete() })
	if err != nil {
		return nil, err
	}

	publishEvent(ctx, s.events, newBookingEvent(EventBookingCompleted, booking))
	return booking, nil
}

// transition loads, mutates and persists a status change
func (s *bookingService) transition(ctx context.Context, bookingID string, apply func(*domain.Booking) error) (*domain.Booking, error) {
	if bookingID == "" {
		return nil, domain.ErrInvalidBookingID
	}

	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := apply(booking); err != nil {
		return nil, err
	}
	if err := s.bookingRepo.UpdateStatus(ctx, booking); err != nil {
		return nil, err
	}
	return booking, nil
}

func (s *bookingService) GetBooking(ctx context.Context, bookingID string) (*domain.Booking, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.booking.get")
	defer span.End()

	if bookingID == "" {
		return nil, domain.ErrInvalidBookingID
	}
	return s.bookingRepo.GetByID(ctx, bookingID)
}

func (s *bookingService) GetBookingByReference(ctx context.Context, reference string) (*domain.Booking, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.booking.get_by_reference")
	defer span.End()

	if strings.TrimSpace(reference) == "" {
		return nil, domain.ErrInvalidReference
	}
	return s.bookingRepo.GetByReference(ctx, strings.ToUpper(strings.TrimSpace(reference)))
}

func (s *bookingService) ListByResort(ctx context.Context, resortID string, page, pageSize int) ([]*domain.Booking, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.booking.list_by_resort")
	defer span.End()

	page, pageSize = normalizePage(page, pageSize)
	return s.bookingRepo.ListByResort(ctx, resortID, pageSize, (page-1)*pageSize)
}

func (s *bookingService) ExpirePending(ctx context.Context, olderThan time.Duration, limit int) (int, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.booking.expire_pending")
	defer span.End()

	if limit < 1 {
		limit = 100
	}
	cutoff := time.Now().Add(-olderThan)
	stale, err := s.bookingRepo.ExpiredPending(ctx, cutoff, limit)
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, booking := range stale {
		// the pending guard keeps a booking confirmed since the listing
		// out of the sweep; another worker racing us also trips it
		if err := s.bookingRepo.CancelAndRelease(ctx, booking.ID, domain.BookingStatusPending); err != nil {
			logger.Get().WithContext(ctx).Warn("failed to expire booking",
				zap.String("booking_id", booking.ID),
				zap.Error(err),
			)
			continue
		}
		expired++
		if s.metrics != nil {
			s.metrics.Inc(ctx, s.metrics.BookingsExpired)
		}
		booking.Status = domain.BookingStatusCancelled
		publishEvent(ctx, s.events, newBookingEvent(EventBookingExpired, booking))
	}

	span.SetAttributes(attribute.Int("expired", expired))
	return expired, nil
}

// referenceAlphabet omits easily-confused characters
const referenceAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// newBookingReference generates a short human-readable reference like
// RB-7KQ2M9XT.
func newBookingReference() string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand only fails when the OS entropy source is broken
		return "RB-" + strings.ToUpper(uuid.New().String()[:8])
	}
	out := make([]byte, 8)
	for i, b := range buf {
		out[i] = referenceAlphabet[int(b)%len(referenceAlphabet)]
	}
	return "RB-" + string(out)
}
