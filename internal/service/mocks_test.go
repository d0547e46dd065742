package service

import (
	"context"
	"sync"
	"time"

	"github.com/resortstay/resort-booking/internal/domain"
	"github.com/resortstay/resort-booking/internal/repository"
)

// MockBookingRepository is a function-field mock of repository.BookingRepository
type MockBookingRepository struct {
	CreateWithReservationFunc  func(ctx context.Context, booking *domain.Booking) error
	EnsureReservationFunc      func(ctx context.Context, bookingID string) ([]domain.InventoryReservation, error)
	CancelAndReleaseFunc       func(ctx context.Context, bookingID string, from ...domain.BookingStatus) error
	GetByIDFunc                func(ctx context.Context, id string) (*domain.Booking, error)
	GetByReferenceFunc         func(ctx context.Context, reference string) (*domain.Booking, error)
	UpdateStatusFunc           func(ctx context.Context, booking *domain.Booking) error
	ListByResortFunc           func(ctx context.Context, resortID string, limit, offset int) ([]*domain.Booking, error)
	ReservationsForBookingFunc func(ctx context.Context, bookingID string) ([]domain.InventoryReservation, error)
	ExpiredPendingFunc         func(ctx context.Context, cutoff time.Time, limit int) ([]*domain.Booking, error)
}

func (m *MockBookingRepository) CreateWithReservation(ctx context.Context, booking *domain.Booking) error {
	if m.CreateWithReservationFunc != nil {
		return m.CreateWithReservationFunc(ctx, booking)
	}
	return nil
}

func (m *MockBookingRepository) EnsureReservation(ctx context.Context, bookingID string) ([]domain.InventoryReservation, error) {
	if m.EnsureReservationFunc != nil {
		return m.EnsureReservationFunc(ctx, bookingID)
	}
	return nil, domain.ErrBookingNotFound
}

func (m *MockBookingRepository) CancelAndRelease(ctx context.Context, bookingID string, from ...domain.BookingStatus) error {
	if m.CancelAndReleaseFunc != nil {
		return m.CancelAndReleaseFunc(ctx, bookingID, from...)
	}
	return nil
}

func (m *MockBookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, domain.ErrBookingNotFound
}

func (m *MockBookingRepository) GetByReference(ctx context.Context, reference string) (*domain.Booking, error) {
	if m.GetByReferenceFunc != nil {
		return m.GetByReferenceFunc(ctx, reference)
	}
	return nil, domain.ErrBookingNotFound
}

func (m *MockBookingRepository) UpdateStatus(ctx context.Context, booking *domain.Booking) error {
	if m.UpdateStatusFunc != nil {
		return m.UpdateStatusFunc(ctx, booking)
	}
	return nil
}

func (m *MockBookingRepository) ListByResort(ctx context.Context, resortID string, limit, offset int) ([]*domain.Booking, error) {
	if m.ListByResortFunc != nil {
		return m.ListByResortFunc(ctx, resortID, limit, offset)
	}
	return nil, nil
}

func (m *MockBookingRepository) ReservationsForBooking(ctx context.Context, bookingID string) ([]domain.InventoryReservation, error) {
	if m.ReservationsForBookingFunc != nil {
		return m.ReservationsForBookingFunc(ctx, bookingID)
	}
	return nil, nil
}

func (m *MockBookingRepository) ExpiredPending(ctx context.Context, cutoff time.Time, limit int) ([]*domain.Booking, error) {
	if m.ExpiredPendingFunc != nil {
		return m.ExpiredPendingFunc(ctx, cutoff, limit)
	}
	return nil, nil
}

// MockCatalogRepository is a function-field mock of repository.CatalogRepository
type MockCatalogRepository struct {
	CreateResortFunc func(ctx context.Context, resort *domain.Resort) error
	UpdateResortFunc func(ctx context.Context, resort *domain.Resort) error
	DeleteResortFunc func(ctx context.Context, id string) error
	GetResortFunc    func(ctx context.Context, id string) (*domain.Resort, error)
	ListResortsFunc  func(ctx context.Context, limit, offset int) ([]*domain.Resort, error)

	CreateRoomTypeFunc func(ctx context.Context, roomType *domain.RoomType) error
	UpdateRoomTypeFunc func(ctx context.Context, roomType *domain.RoomType) error
	DeleteRoomTypeFunc func(ctx context.Context, id string) error
	GetRoomTypeFunc    func(ctx context.Context, id string) (*domain.RoomType, error)

	CreateRatePlanFunc func(ctx context.Context, plan *domain.RatePlan) error
	UpdateRatePlanFunc func(ctx context.Context, plan *domain.RatePlan) error
	DeleteRatePlanFunc func(ctx context.Context, id string) error
	GetRatePlanFunc    func(ctx context.Context, id string) (*domain.RatePlan, error)

	CreateAmenityFunc func(ctx context.Context, amenity *domain.Amenity) error
	DeleteAmenityFunc func(ctx context.Context, id string) error
	GetAmenityFunc    func(ctx context.Context, id string) (*domain.Amenity, error)

	SearchCandidatesFunc func(ctx context.Context, filter repository.SearchFilter) ([]repository.SearchRow, error)
}

func (m *MockCatalogRepository) CreateResort(ctx context.Context, resort *domain.Resort) error {
	if m.CreateResortFunc != nil {
		return m.CreateResortFunc(ctx, resort)
	}
	return nil
}

func (m *MockCatalogRepository) UpdateResort(ctx context.Context, resort *domain.Resort) error {
	if m.UpdateResortFunc != nil {
		return m.UpdateResortFunc(ctx, resort)
	}
	return nil
}

func (m *MockCatalogRepository) DeleteResort(ctx context.Context, id string) error {
	if m.DeleteResortFunc != nil {
		return m.DeleteResortFunc(ctx, id)
	}
	return nil
}

func (m *MockCatalogRepository) GetResort(ctx context.Context, id string) (*domain.Resort, error) {
	if m.GetResortFunc != nil {
		return m.GetResortFunc(ctx, id)
	}
	return nil, domain.ErrResortNotFound
}

func (m *MockCatalogRepository) ListResorts(ctx context.Context, limit, offset int) ([]*domain.Resort, error) {
	if m.ListResortsFunc != nil {
		return m.ListResortsFunc(ctx, limit, offset)
	}
	return nil, nil
}

func (m *MockCatalogRepository) CreateRoomType(ctx context.Context, roomType *domain.RoomType) error {
	if m.CreateRoomTypeFunc != nil {
		return m.CreateRoomTypeFunc(ctx, roomType)
	}
	return nil
}

func (m *MockCatalogRepository) UpdateRoomType(ctx context.Context, roomType *domain.RoomType) error {
	if m.UpdateRoomTypeFunc != nil {
		return m.UpdateRoomTypeFunc(ctx, roomType)
	}
	return nil
}

func (m *MockCatalogRepository) DeleteRoomType(ctx context.Context, id string) error {
	if m.DeleteRoomTypeFunc != nil {
		return m.DeleteRoomTypeFunc(ctx, id)
	}
	return nil
}

func (m *MockCatalogRepository) GetRoomType(ctx context.Context, id string) (*domain.RoomType, error) {
	if m.GetRoomTypeFunc != nil {
		return m.GetRoomTypeFunc(ctx, id)
	}
	return nil, domain.ErrRoomTypeNotFound
}

func (m *MockCatalogRepository) CreateRatePlan(ctx context.Context, plan *domain.RatePlan) error {
	if m.CreateRatePlanFunc != nil {
		return m.CreateRatePlanFunc(ctx, plan)
	}
	return nil
}

func (m *MockCatalogRepository) UpdateRatePlan(ctx context.Context, plan *domain.RatePlan) error {
	if m.UpdateRatePlanFunc != nil {
		return m.UpdateRatePlanFunc(ctx, plan)
	}
	return nil
}

func (m *MockCatalogRepository) DeleteRatePlan(ctx context.Context, id string) error {
	if m.DeleteRatePlanFunc != nil {
		return m.DeleteRatePlanFunc(ctx, id)
	}
	return nil
}

func (m *MockCatalogRepository) GetRatePlan(ctx context.Context, id string) (*domain.RatePlan, error) {
	if m.GetRatePlanFunc != nil {
		return m.GetRatePlanFunc(ctx, id)
	}
	return nil, domain.ErrRatePlanNotFound
}

func (m *MockCatalogRepository) CreateAmenity(ctx context.Context, amenity *domain.Amenity) error {
	if m.CreateAmenityFunc != nil {
		return m.CreateAmenityFunc(ctx, amenity)
	}
	return nil
}

func (m *MockCatalogRepository) DeleteAmenity(ctx context.Context, id string) error {
	if m.DeleteAmenityFunc != nil {
		return m.DeleteAmenityFunc(ctx, id)
	}
	return nil
}

func (m *MockCatalogRepository) GetAmenity(ctx context.Context, id string) (*domain.Amenity, error) {
	if m.GetAmenityFunc != nil {
		return m.GetAmenityFunc(ctx, id)
	}
	return nil, domain.ErrAmenityNotFound
}

func (m *MockCatalogRepository) SearchCandidates(ctx context.Context, filter repository.SearchFilter) ([]repository.SearchRow, error) {
	if m.SearchCandidatesFunc != nil {
		return m.SearchCandidatesFunc(ctx, filter)
	}
	return nil, nil
}

// MockGuestRepository is a function-field mock of repository.GuestRepository
type MockGuestRepository struct {
	UpsertFunc     func(ctx context.Context, guest *domain.GuestProfile) error
	GetByIDFunc    func(ctx context.Context, id string) (*domain.GuestProfile, error)
	GetByEmailFunc func(ctx context.Context, email string) (*domain.GuestProfile, error)
}

func (m *MockGuestRepository) Upsert(ctx context.Context, guest *domain.GuestProfile) error {
	if m.UpsertFunc != nil {
		return m.UpsertFunc(ctx, guest)
	}
	return nil
}

func (m *MockGuestRepository) GetByID(ctx context.Context, id string) (*domain.GuestProfile, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, domain.ErrGuestNotFound
}

func (m *MockGuestRepository) GetByEmail(ctx context.Context, email string) (*domain.GuestProfile, error) {
	if m.GetByEmailFunc != nil {
		return m.GetByEmailFunc(ctx, email)
	}
	return nil, domain.ErrGuestNotFound
}

// MockRateRepository is a function-field mock of repository.RateRepository
type MockRateRepository struct {
	CreateFunc         func(ctx context.Context, rate *domain.SeasonalRate) error
	UpdateFunc         func(ctx context.Context, rate *domain.SeasonalRate) error
	DeleteFunc         func(ctx context.Context, id string) error
	GetByIDFunc        func(ctx context.Context, id string) (*domain.SeasonalRate, error)
	ActiveForRangeFunc func(ctx context.Context, ratePlanID string, from, to time.Time) ([]*domain.SeasonalRate, error)
}

func (m *MockRateRepository) Create(ctx context.Context, rate *domain.SeasonalRate) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, rate)
	}
	return nil
}

func (m *MockRateRepository) Update(ctx context.Context, rate *domain.SeasonalRate) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, rate)
	}
	return nil
}

func (m *MockRateRepository) Delete(ctx context.Context, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

func (m *MockRateRepository) GetByID(ctx context.Context, id string) (*domain.SeasonalRate, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, domain.ErrSeasonalRateNotFound
}

func (m *MockRateRepository) ActiveForRange(ctx context.Context, ratePlanID string, from, to time.Time) ([]*domain.SeasonalRate, error) {
	if m.ActiveForRangeFunc != nil {
		return m.ActiveForRangeFunc(ctx, ratePlanID, from, to)
	}
	return nil, nil
}

// MockInventoryRepository is a function-field mock of repository.InventoryRepository
type MockInventoryRepository struct {
	FreeUnitsFunc    func(ctx context.Context, roomTypeID string, from, to time.Time) ([]domain.InventoryNight, error)
	MinFreeUnitsFunc func(ctx context.Context, roomTypeID string, from, to time.Time) (int, error)
}

func (m *MockInventoryRepository) FreeUnits(ctx context.Context, roomTypeID string, from, to time.Time) ([]domain.InventoryNight, error) {
	if m.FreeUnitsFunc != nil {
		return m.FreeUnitsFunc(ctx, roomTypeID, from, to)
	}
	return nil, nil
}

func (m *MockInventoryRepository) MinFreeUnits(ctx context.Context, roomTypeID string, from, to time.Time) (int, error) {
	if m.MinFreeUnitsFunc != nil {
		return m.MinFreeUnitsFunc(ctx, roomTypeID, from, to)
	}
	return 0, domain.ErrRoomTypeNotFound
}

// CapturingEventPublisher records every published event
type CapturingEventPublisher struct {
	mu     sync.Mutex
	Events []*BookingEvent
}

func (p *CapturingEventPublisher) Publish(ctx context.Context, event *BookingEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Events = append(p.Events, event)
	return nil
}

func (p *CapturingEventPublisher) Types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]string, 0, len(p.Events))
	for _, e := range p.Events {
		types = append(types, e.Type)
	}
	return types
}
